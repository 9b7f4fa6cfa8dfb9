package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-social/internal/core/auth"
	"go-gin-social/internal/core/config"
	"go-gin-social/internal/core/server"
	"go-gin-social/internal/notify"
	"go-gin-social/internal/realtime"
	"go-gin-social/internal/service"
	mdw "go-gin-social/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖
type Deps struct {
	Log    *zap.Logger
	Config *config.Config
	JWT    *auth.JWTer

	Users    *service.UserService
	Rels     *service.RelationshipService
	Messages *service.MessageService
	Sink     *notify.Sink
	Purger   *notify.Purger
	WS       *realtime.Handler
}

func baseEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Log, server.Options{
		Name:           d.Config.App.Name,
		AllowedOrigins: d.Config.Realtime.AllowedOrigins,
		Tracing:        d.Config.Trace.Enabled,
	})
	r.Use(
		mdw.RequestID(),
		mdw.Recovery(d.Log),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查 / 指标
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": 1}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// limited 限流、并发、body、超时只作用于普通 HTTP 接口，不作用于长连接；值 <=0 表示不限
func limited(g *gin.RouterGroup, l config.Limits) {
	if l.RPS > 0 {
		g.Use(mdw.RateLimit(rate.Limit(l.RPS), l.Burst))
	}
	if l.PerIPRPS > 0 {
		g.Use(mdw.RateLimitPerIP(rate.Limit(l.PerIPRPS), l.PerIPBurst))
	}
	if l.Concurrency > 0 {
		g.Use(mdw.ConcurrencyLimit(l.Concurrency))
	}
	if l.MaxBodyBytes > 0 {
		g.Use(mdw.MaxBodyBytes(l.MaxBodyBytes))
	}
	if l.TimeoutSec > 0 {
		g.Use(mdw.Timeout(time.Duration(l.TimeoutSec) * time.Second))
	}
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := baseEngine(d)

	// 实时通道，身份在 join 帧内校验
	if d.WS != nil {
		r.GET(d.Config.Realtime.Path, d.WS.ServeWS)
	}

	api := r.Group("/api/v1")
	limited(api, d.Config.Limits)

	// 鉴权分组（⚠️ 业务接口都挂这里，才能拿到 userId）
	authed := api.Group("")
	authed.Use(mdw.AuthJWT(d.JWT, ""))

	mountAuthActions(api, authed, d.Users)

	var reg Registry
	reg.Register(
		userModule{users: d.Users},
		friendModule{rels: d.Rels, users: d.Users},
		messageModule{msgs: d.Messages},
		notificationModule{sink: d.Sink},
	)
	reg.MountAPI(authed)
	return r
}
