package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/notify"
	"go-gin-social/internal/repo"
	"go-gin-social/internal/service"
)

// adminModule 管理端接口：用户列表、封禁、通知清理
type adminModule struct {
	users  *service.UserService
	purger *notify.Purger
	sink   *notify.Sink
}

func (m adminModule) MountAdmin(admin *gin.RouterGroup) {
	// --- GET /admin/v1/users  用户列表 ---
	type listQ struct {
		Offset      int    `form:"offset,default=0"`
		Limit       int    `form:"limit,default=20"`
		Q           string `form:"q"`            // 按 username/email 模糊搜
		WithDeleted bool   `form:"with_deleted"` // 是否包含已封禁
	}
	type listOut struct {
		Total int64               `json:"total"`
		Items []service.AdminUser `json:"items"`
	}
	Handle(admin, Action[listQ, listOut]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *listQ) (listOut, error) {
			items, total, err := m.users.AdminList(c.Request.Context(), repo.ListQuery{
				Offset: in.Offset, Limit: in.Limit, Q: in.Q, WithDeleted: in.WithDeleted,
			})
			if err != nil {
				return listOut{}, err
			}
			return listOut{Total: total, Items: items}, nil
		},
	})

	// --- POST /admin/v1/users/:id/ban  封禁（软删） ---
	Handle(admin, Action[struct{}, gin.H]{
		Method: http.MethodPost,
		Path:   "/users/:id/ban",
		Binder: BindNone,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, _ *struct{}) (gin.H, error) {
			id, err := param(c, "id")
			if err != nil {
				return nil, err
			}
			if err := m.users.Ban(c.Request.Context(), id); err != nil {
				return nil, err
			}
			return gin.H{"id": id}, nil
		},
	})

	// --- POST /admin/v1/notifications/purge  立即清理；olderThanDays 缺省用配置的保留期 ---
	type purgeIn struct {
		OlderThanDays int `form:"olderThanDays" binding:"omitempty,min=1"`
	}
	Handle(admin, Action[purgeIn, gin.H]{
		Method: http.MethodPost,
		Path:   "/notifications/purge",
		Binder: BindQuery,
		Auth:   true,
		Roles:  []string{domain.RoleAdmin},
		Handler: func(c *gin.Context, in *purgeIn) (gin.H, error) {
			var (
				n   int64
				err error
			)
			if in.OlderThanDays > 0 {
				cutoff := time.Now().AddDate(0, 0, -in.OlderThanDays)
				n, err = m.sink.DeleteOlderThan(c.Request.Context(), cutoff)
			} else {
				n, err = m.purger.RunOnce(c.Request.Context())
			}
			if err != nil {
				return nil, err
			}
			return gin.H{"deleted": n}, nil
		},
	})
}
