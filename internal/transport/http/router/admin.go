package router

import (
	"github.com/gin-gonic/gin"

	"go-gin-social/internal/domain"
	mdw "go-gin-social/internal/transport/http/middleware"
)

func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine(d)

	// 管理端 v1（统一要求 admin 角色）
	admin := r.Group("/admin/v1")
	limited(admin, d.Config.Limits)
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin))

	var reg Registry
	reg.Register(adminModule{users: d.Users, purger: d.Purger, sink: d.Sink})
	reg.MountAdmin(admin)
	return r
}
