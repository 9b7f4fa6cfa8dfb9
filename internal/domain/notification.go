package domain

import "time"

type NotificationType string

const (
	NotifyFriendRequest   NotificationType = "friend_request"
	NotifyRequestAccepted NotificationType = "request_accepted"
	NotifyMessage         NotificationType = "message"
	NotifyLike            NotificationType = "like"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotifyFriendRequest, NotifyRequestAccepted, NotifyMessage, NotifyLike:
		return true
	}
	return false
}

type Notification struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	FromID    string           `gorm:"size:36;not null" json:"fromId"`
	ToID      string           `gorm:"size:36;not null;index:idx_notify_to_created,priority:1" json:"toId"`
	Type      NotificationType `gorm:"size:32;not null" json:"type"`
	Content   string           `gorm:"type:text;not null" json:"content"`
	Seen      bool             `gorm:"not null;default:false" json:"seen"`
	CreatedAt time.Time        `gorm:"index;index:idx_notify_to_created,priority:2" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }

// NotificationView 列表返回：附带发送方摘要
type NotificationView struct {
	Notification
	From *UserSummary `json:"from,omitempty"`
}
