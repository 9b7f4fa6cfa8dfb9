package domain

import "time"

// 事件总线上的事件名
const (
	EventFriendRequest   = "friend_request"
	EventRequestAccepted = "request_accepted"
	EventMessageReceived = "userReceivedMessage"
)

// Event 领域事件：某次状态变化需要通知 To
type Event struct {
	Name    string
	Type    NotificationType
	FromID  string
	ToID    string
	Content string // 可选，例如消息正文
	At      time.Time
}
