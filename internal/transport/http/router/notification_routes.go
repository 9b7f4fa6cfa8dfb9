package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/notify"
)

type notificationModule struct{ sink *notify.Sink }

func (notificationModule) Priority() int { return 40 }

func (m notificationModule) MountAPI(g *gin.RouterGroup) {
	Handle(g, Action[struct{}, []domain.NotificationView]{
		Method: http.MethodGet,
		Path:   "/user-notifications",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.NotificationView, error) {
			return m.sink.ListByRecipient(c.Request.Context(), userID(c))
		},
	})

	Handle(g, Action[struct{}, okOut]{
		Method: http.MethodPut,
		Path:   "/notifications/:id/seen",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (okOut, error) {
			id, err := param(c, "id")
			if err != nil {
				return okOut{}, err
			}
			if err := m.sink.MarkSeen(c.Request.Context(), id, userID(c)); err != nil {
				return okOut{}, err
			}
			return okOut{"notification marked as seen"}, nil
		},
	})

	Handle(g, Action[struct{}, okOut]{
		Method: http.MethodDelete,
		Path:   "/notifications/:id",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (okOut, error) {
			id, err := param(c, "id")
			if err != nil {
				return okOut{}, err
			}
			if err := m.sink.Delete(c.Request.Context(), id, userID(c)); err != nil {
				return okOut{}, err
			}
			return okOut{"notification deleted"}, nil
		},
	})
}
