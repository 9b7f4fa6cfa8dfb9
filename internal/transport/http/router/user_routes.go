package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/service"
)

// mountAuthActions /auth/register、/auth/login（公共）与 /me（鉴权）
func mountAuthActions(public, authed *gin.RouterGroup, users *service.UserService) {
	Handle(public, Action[service.RegisterInput, *domain.UserSummary]{
		Method: http.MethodPost,
		Path:   "/auth/register",
		Binder: BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *service.RegisterInput) (*domain.UserSummary, error) {
			return users.Register(c.Request.Context(), *in)
		},
	})

	type loginIn struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	Handle(public, Action[loginIn, *service.LoginResult]{
		Method: http.MethodPost,
		Path:   "/auth/login",
		Binder: BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (*service.LoginResult, error) {
			return users.Login(c.Request.Context(), in.Email, in.Password)
		},
	})

	Handle(authed, Action[struct{}, *domain.Profile]{
		Method: http.MethodGet,
		Path:   "/me",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Profile, error) {
			return users.Profile(c.Request.Context(), userID(c))
		},
	})
}

type userModule struct{ users *service.UserService }

func (userModule) Priority() int { return 10 }

func (m userModule) MountAPI(g *gin.RouterGroup) {
	Handle(g, Action[struct{}, *domain.Profile]{
		Method: http.MethodGet,
		Path:   "/profile/:id",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.Profile, error) {
			id, err := param(c, "id")
			if err != nil {
				return nil, err
			}
			return m.users.Profile(c.Request.Context(), id)
		},
	})

	Handle(g, Action[struct{}, []domain.UserSummary]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: BindNone,
		Auth:   true,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.UserSummary, error) {
			return m.users.List(c.Request.Context())
		},
	})

	type searchQ struct {
		Query string `form:"query" binding:"required"`
	}
	Handle(g, Action[searchQ, []domain.UserSummary]{
		Method: http.MethodGet,
		Path:   "/search",
		Binder: BindQuery,
		Auth:   true,
		Handler: func(c *gin.Context, in *searchQ) ([]domain.UserSummary, error) {
			return m.users.Search(c.Request.Context(), in.Query, userID(c))
		},
	})

	Handle(g, Action[service.UpdateInput, *domain.UserSummary]{
		Method: http.MethodPut,
		Path:   "/update/:id",
		Binder: BindJSON,
		Auth:   true,
		Handler: func(c *gin.Context, in *service.UpdateInput) (*domain.UserSummary, error) {
			id, err := param(c, "id")
			if err != nil {
				return nil, err
			}
			return m.users.Update(c.Request.Context(), userID(c), id, *in)
		},
	})
}
