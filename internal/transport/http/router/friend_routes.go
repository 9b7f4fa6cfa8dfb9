package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/service"
)

type friendModule struct {
	rels  *service.RelationshipService
	users *service.UserService
}

func (friendModule) Priority() int { return 20 }

type friendIn struct {
	FriendID string `json:"friendId" binding:"required"`
}

type requesterIn struct {
	RequesterID string `json:"requesterId" binding:"required"`
}

type okOut struct {
	Message string `json:"message"`
}

func (m friendModule) MountAPI(g *gin.RouterGroup) {
	Handle(g, Action[friendIn, okOut]{
		Method: http.MethodPost,
		Path:   "/add-friend",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *friendIn) (okOut, error) {
			if err := m.rels.Request(c.Request.Context(), userID(c), in.FriendID); err != nil {
				return okOut{}, err
			}
			return okOut{"friend request sent"}, nil
		},
	})

	Handle(g, Action[requesterIn, okOut]{
		Method: http.MethodPut,
		Path:   "/accept-friend-request",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *requesterIn) (okOut, error) {
			if err := m.rels.Accept(c.Request.Context(), userID(c), in.RequesterID); err != nil {
				return okOut{}, err
			}
			return okOut{"friend request accepted"}, nil
		},
	})

	Handle(g, Action[friendIn, okOut]{
		Method: http.MethodPost,
		Path:   "/friends/cancel",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *friendIn) (okOut, error) {
			if err := m.rels.Cancel(c.Request.Context(), userID(c), in.FriendID); err != nil {
				return okOut{}, err
			}
			return okOut{"friend request cancelled"}, nil
		},
	})

	Handle(g, Action[friendIn, okOut]{
		Method: http.MethodPost,
		Path:   "/friends/decline",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *friendIn) (okOut, error) {
			if err := m.rels.Decline(c.Request.Context(), userID(c), in.FriendID); err != nil {
				return okOut{}, err
			}
			return okOut{"friend request declined"}, nil
		},
	})

	Handle(g, Action[friendIn, okOut]{
		Method: http.MethodDelete,
		Path:   "/remove-friend",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *friendIn) (okOut, error) {
			if err := m.rels.Remove(c.Request.Context(), userID(c), in.FriendID); err != nil {
				return okOut{}, err
			}
			return okOut{"friend removed"}, nil
		},
	})

	Handle(g, Action[struct{}, []domain.UserSummary]{
		Method: http.MethodGet,
		Path:   "/friends/:userId",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.UserSummary, error) {
			id, err := param(c, "userId")
			if err != nil {
				return nil, err
			}
			return m.users.Friends(c.Request.Context(), id)
		},
	})
}
