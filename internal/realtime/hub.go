// Package realtime 用户房间与实时推送。
//
// 每个用户 id 对应一个房间，房间内可以有多条连接（多端）。
// 一条连接同一时刻只属于一个房间，重复 join 会迁移。
// 推送只投递给当前在线的连接，不排队不重试。
package realtime

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	connGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_joined_connections", Help: "Connections currently bound to a user room",
	})
	pushTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_push_total", Help: "Realtime pushes by event and outcome",
	}, []string{"event", "outcome"})
)

func init() { prometheus.MustRegister(connGauge, pushTotal) }

// Conn 一条实时连接
type Conn interface {
	ID() string
	// Send 非阻塞投递，缓冲满或已关闭返回 false
	Send(msg []byte) bool
	Close()
}

type Hub struct {
	log *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]Conn // userID → connID → conn
	owner map[string]string          // connID → userID
}

func NewHub(l *zap.Logger) *Hub {
	if l == nil {
		l = zap.NewNop()
	}
	return &Hub{
		log:   l,
		rooms: make(map[string]map[string]Conn),
		owner: make(map[string]string),
	}
}

// Join 把连接放入 userID 房间；已在其他房间时先移出
func (h *Hub) Join(c Conn, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := c.ID()
	if prev, ok := h.owner[id]; ok {
		if prev == userID {
			return
		}
		h.removeLocked(id, prev)
	}
	room := h.rooms[userID]
	if room == nil {
		room = make(map[string]Conn)
		h.rooms[userID] = room
	}
	room[id] = c
	h.owner[id] = userID
	connGauge.Inc()
}

// Leave 幂等，未加入的连接直接忽略
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if uid, ok := h.owner[c.ID()]; ok {
		h.removeLocked(c.ID(), uid)
	}
}

func (h *Hub) removeLocked(connID, userID string) {
	delete(h.owner, connID)
	if room := h.rooms[userID]; room != nil {
		delete(room, connID)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
	connGauge.Dec()
}

// Owner 连接绑定的用户
func (h *Hub) Owner(c Conn) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	uid, ok := h.owner[c.ID()]
	return uid, ok
}

// Online 用户当前连接数
func (h *Hub) Online(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// PushToUser 向房间内全部连接发送，返回成功投递的连接数；房间为空时什么也不做
func (h *Hub) PushToUser(userID, event string, payload any) int {
	h.mu.RLock()
	room := h.rooms[userID]
	if len(room) == 0 {
		h.mu.RUnlock()
		pushTotal.WithLabelValues(event, "offline").Inc()
		return 0
	}
	conns := make([]Conn, 0, len(room))
	for _, c := range room {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	msg, err := encode(event, payload)
	if err != nil {
		h.log.Error("realtime encode failed", zap.String("event", event), zap.Error(err))
		pushTotal.WithLabelValues(event, "error").Inc()
		return 0
	}
	delivered := 0
	for _, c := range conns {
		if c.Send(msg) {
			delivered++
			continue
		}
		h.log.Warn("realtime push dropped", zap.String("event", event),
			zap.String("user", userID), zap.String("conn", c.ID()))
	}
	pushTotal.WithLabelValues(event, "delivered").Add(float64(delivered))
	return delivered
}

// Shutdown 关闭全部连接
func (h *Hub) Shutdown() {
	h.mu.Lock()
	var conns []Conn
	for _, room := range h.rooms {
		for _, c := range room {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
