package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"go-gin-social/pkg/utils"
)

// Authenticator 校验 join 帧里的 token，返回用户 id
type Authenticator func(token string) (string, error)

type Options struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	SendBuffer      int
	MaxMessageBytes int64
}

func (o Options) pingPeriod() time.Duration { return o.PongWait * 9 / 10 }

// Client 一条 websocket 连接：读协程处理客户端事件，写协程串行写出
type Client struct {
	id   string
	ws   *websocket.Conn
	hub  *Hub
	auth Authenticator
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

func newClient(ws *websocket.Conn, hub *Hub, auth Authenticator, opts Options, l *zap.Logger) *Client {
	id := utils.NewID()
	return &Client{
		id:   id,
		ws:   ws,
		hub:  hub,
		auth: auth,
		opts: opts,
		log:  l.With(zap.String("conn", id)),
		send: make(chan []byte, opts.SendBuffer),
	}
}

func (c *Client) ID() string { return c.id }

// Send 缓冲满视为慢消费者，直接断开
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("slow client, closing")
		c.closed = true
		close(c.send)
		return false
	}
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Run 阻塞到连接断开
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Leave(c)
		c.Close()
	}()
	if c.opts.MaxMessageBytes > 0 {
		c.ws.SetReadLimit(c.opts.MaxMessageBytes)
	}
	_ = c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			c.reply(EventError, errorData{Message: "malformed frame"})
			continue
		}
		c.handle(f)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}

func (c *Client) handle(f Frame) {
	switch f.Event {
	case EventJoin:
		c.join(f.Data)
	case EventMessage:
		c.relay(f.Data, "receiverId", EventReceiveMessage)
	case EventNotification:
		c.relay(f.Data, "userId", EventReceiveNotification)
	default:
		c.reply(EventError, errorData{Message: "unknown event " + f.Event})
	}
}

// join 身份只取自 token；携带的 userId 与 token 不一致时拒绝
func (c *Client) join(data json.RawMessage) {
	var in joinData
	if err := json.Unmarshal(data, &in); err != nil || in.Token == "" {
		c.reply(EventError, errorData{Message: "token required"})
		return
	}
	uid, err := c.auth(in.Token)
	if err != nil {
		c.reply(EventError, errorData{Message: "invalid token"})
		return
	}
	if in.UserID != "" && in.UserID != uid {
		c.log.Warn("join identity mismatch", zap.String("claimed", in.UserID), zap.String("token", uid))
		c.reply(EventError, errorData{Message: "userId does not match token"})
		return
	}
	c.hub.Join(c, uid)
	c.log.Debug("joined", zap.String("user", uid))
	c.reply(EventJoined, map[string]string{"userId": uid})
}

// relay 转发给 data[targetKey] 的房间，发送方以连接绑定的身份为准
func (c *Client) relay(data json.RawMessage, targetKey, out string) {
	from, ok := c.hub.Owner(c)
	if !ok {
		c.reply(EventError, errorData{Message: "join first"})
		return
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		c.reply(EventError, errorData{Message: "malformed payload"})
		return
	}
	to, _ := payload[targetKey].(string)
	if to == "" {
		c.reply(EventError, errorData{Message: targetKey + " required"})
		return
	}
	payload["senderId"] = from
	c.hub.PushToUser(to, out, payload)
}

func (c *Client) reply(event string, payload any) {
	msg, err := encode(event, payload)
	if err != nil {
		return
	}
	c.Send(msg)
}
