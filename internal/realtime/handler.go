package realtime

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"go-gin-social/internal/core/config"
)

// Handler websocket 接入
type Handler struct {
	hub      *Hub
	auth     Authenticator
	opts     Options
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(hub *Hub, auth Authenticator, c config.Realtime, l *zap.Logger) *Handler {
	if l == nil {
		l = zap.NewNop()
	}
	opts := Options{
		WriteWait:       time.Duration(c.WriteWaitSec) * time.Second,
		PongWait:        time.Duration(c.PongWaitSec) * time.Second,
		SendBuffer:      c.SendBuffer,
		MaxMessageBytes: 64 << 10,
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = 10 * time.Second
	}
	if opts.PongWait <= 0 {
		opts.PongWait = 60 * time.Second
	}
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	return &Handler{
		hub:  hub,
		auth: auth,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(c.AllowedOrigins),
		},
		log: l,
	}
}

// originChecker 未配置白名单时放行；无 Origin 头（非浏览器）放行
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

func (h *Handler) ServeWS(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	newClient(ws, h.hub, h.auth, h.opts, h.log).Run()
}
