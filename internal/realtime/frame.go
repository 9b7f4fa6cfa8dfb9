package realtime

import "encoding/json"

// 客户端 → 服务端
const (
	EventJoin         = "join"
	EventMessage      = "message"
	EventNotification = "notification"
)

// 服务端 → 客户端
const (
	EventJoined              = "joined"
	EventError               = "error"
	EventReceiveMessage      = "receive_message"
	EventReceiveNotification = "receive_notification"
)

// Frame 线上格式 {"event": "...", "data": {...}}
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

type joinData struct {
	Token  string `json:"token"`
	UserID string `json:"userId,omitempty"`
}

type errorData struct {
	Message string `json:"message"`
}
