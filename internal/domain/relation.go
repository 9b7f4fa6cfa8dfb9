package domain

import "time"

// RelationKind 某用户记录中对另一用户的关系标记
type RelationKind string

const (
	KindNone     RelationKind = ""
	KindFriend   RelationKind = "friend"
	KindOutgoing RelationKind = "outgoing" // 我发出的好友请求
	KindIncoming RelationKind = "incoming" // 别人发给我的好友请求
)

// Relation 关系存储的一行：OwnerID 的记录里包含 PeerID。
// (owner, peer) 为主键，保证一条记录对同一 peer 至多一种关系。
type Relation struct {
	OwnerID   string       `gorm:"primaryKey;size:36"`
	PeerID    string       `gorm:"primaryKey;size:36;index"`
	Kind      RelationKind `gorm:"size:16;not null;index"`
	CreatedAt time.Time
}

func (Relation) TableName() string { return "user_relations" }

// Relations 单个用户的三组 id 集合，无序
type Relations struct {
	UserID   string
	Friends  []string
	Outgoing []string
	Incoming []string
}
