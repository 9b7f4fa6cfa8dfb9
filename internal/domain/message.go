package domain

import "time"

type Message struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	SenderID   string    `gorm:"size:36;not null;index" json:"senderId"`
	ReceiverID string    `gorm:"size:36;not null;index" json:"receiverId"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Message) TableName() string { return "messages" }
