package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/service"
)

type messageModule struct{ msgs *service.MessageService }

func (messageModule) Priority() int { return 30 }

func (m messageModule) MountAPI(g *gin.RouterGroup) {
	type sendIn struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		Content    string `json:"content"    binding:"required"`
	}
	Handle(g, Action[sendIn, *domain.Message]{
		Method: http.MethodPost,
		Path:   "/send-message",
		Binder: BindJSON,
		Auth:   true,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *sendIn) (*domain.Message, error) {
			return m.msgs.Send(c.Request.Context(), userID(c), in.ReceiverID, in.Content)
		},
	})

	Handle(g, Action[struct{}, []domain.Message]{
		Method: http.MethodGet,
		Path:   "/messages",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.Message, error) {
			return m.msgs.ListMine(c.Request.Context(), userID(c))
		},
	})

	Handle(g, Action[struct{}, *domain.Message]{
		Method: http.MethodGet,
		Path:   "/messages/:id",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Message, error) {
			id, err := param(c, "id")
			if err != nil {
				return nil, err
			}
			return m.msgs.Get(c.Request.Context(), userID(c), id)
		},
	})

	type convQ struct {
		User1 string `form:"user1" binding:"required"`
		User2 string `form:"user2" binding:"required"`
	}
	Handle(g, Action[convQ, []domain.Message]{
		Method: http.MethodGet,
		Path:   "/user-messages",
		Binder: BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *convQ) ([]domain.Message, error) {
			return m.msgs.Between(c.Request.Context(), userID(c), in.User1, in.User2)
		},
	})

	type updateIn struct {
		Content string `json:"content" binding:"required"`
	}
	Handle(g, Action[updateIn, *domain.Message]{
		Method: http.MethodPut,
		Path:   "/messages/:id",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *updateIn) (*domain.Message, error) {
			id, err := param(c, "id")
			if err != nil {
				return nil, err
			}
			return m.msgs.Update(c.Request.Context(), userID(c), id, in.Content)
		},
	})

	Handle(g, Action[struct{}, okOut]{
		Method: http.MethodDelete,
		Path:   "/messages/:id",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (okOut, error) {
			id, err := param(c, "id")
			if err != nil {
				return okOut{}, err
			}
			if err := m.msgs.Delete(c.Request.Context(), userID(c), id); err != nil {
				return okOut{}, err
			}
			return okOut{"message deleted"}, nil
		},
	})
}
