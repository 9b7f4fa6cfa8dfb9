// Package relationship 好友关系状态机。
//
// 两个用户之间的关系任一时刻只处于 None / 单向请求 / Friends 之一。
// 状态从两条用户记录共同推导，迁移结果同时落到两条记录上。
// 本包只做纯计算，不碰存储。
package relationship

import (
	"fmt"
	"time"

	"go-gin-social/internal/domain"
)

// State 以 (actor, target) 为视角的关系状态
type State int

const (
	None             State = iota
	ActorRequested         // actor → target 待处理
	TargetRequested        // target → actor 待处理
	Friends
)

func (s State) String() string {
	switch s {
	case None:
		return "NONE"
	case ActorRequested:
		return "A_REQUESTED"
	case TargetRequested:
		return "B_REQUESTED"
	case Friends:
		return "FRIENDS"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Kinds 状态落盘后 actor 记录与 target 记录中互相的标记
func (s State) Kinds() (actor, target domain.RelationKind) {
	switch s {
	case ActorRequested:
		return domain.KindOutgoing, domain.KindIncoming
	case TargetRequested:
		return domain.KindIncoming, domain.KindOutgoing
	case Friends:
		return domain.KindFriend, domain.KindFriend
	}
	return domain.KindNone, domain.KindNone
}

// Derive 由两条记录推导状态。a 为 actor 记录中关于 target 的标记，b 反之。
// 记录不一致时（历史脏数据）好友优先，其次按任一侧的请求方向。
func Derive(a, b domain.RelationKind) State {
	switch {
	case a == domain.KindFriend || b == domain.KindFriend:
		return Friends
	case a == domain.KindOutgoing || b == domain.KindIncoming:
		return ActorRequested
	case a == domain.KindIncoming || b == domain.KindOutgoing:
		return TargetRequested
	}
	return None
}

// Consistent 两条记录是否恰好对应某个合法状态
func Consistent(a, b domain.RelationKind) bool {
	ka, kb := Derive(a, b).Kinds()
	return a == ka && b == kb
}

type Op string

const (
	OpRequest Op = "request"
	OpAccept  Op = "accept"
	OpCancel  Op = "cancel"
	OpDecline Op = "decline"
	OpRemove  Op = "remove"
)

// Transition 一次合法迁移的结果
type Transition struct {
	Op     Op
	Actor  string
	Target string
	From   State
	To     State
	Events []domain.Event
}

// Apply 校验并计算迁移。actor 为发起操作的用户：
//
//	request(actor→target)   None            → ActorRequested
//	accept(actor 接受 target) TargetRequested → Friends
//	cancel(actor 撤回)       ActorRequested  → None
//	decline(actor 拒绝)      TargetRequested → None
//	remove(actor 删好友)     Friends         → None
//
// accept 时先判断是否已是好友（ErrAlreadyFriends），再判断请求是否存在。
func Apply(op Op, actor, target string, a, b domain.RelationKind, now time.Time) (Transition, error) {
	if actor == target {
		return Transition{}, domain.ErrSelfRelation
	}
	from := Derive(a, b)
	tr := Transition{Op: op, Actor: actor, Target: target, From: from}

	switch op {
	case OpRequest:
		switch from {
		case Friends:
			return tr, domain.ErrAlreadyFriends
		case ActorRequested:
			return tr, domain.ErrDuplicateRequest
		case TargetRequested:
			return tr, domain.ErrReciprocalRequest
		}
		tr.To = ActorRequested
		tr.Events = []domain.Event{{
			Name: domain.EventFriendRequest, Type: domain.NotifyFriendRequest,
			FromID: actor, ToID: target, At: now,
		}}
	case OpAccept:
		if from == Friends {
			return tr, domain.ErrAlreadyFriends
		}
		if from != TargetRequested {
			return tr, domain.ErrNoSuchRequest
		}
		tr.To = Friends
		tr.Events = []domain.Event{{
			Name: domain.EventRequestAccepted, Type: domain.NotifyRequestAccepted,
			FromID: actor, ToID: target, At: now,
		}}
	case OpCancel:
		if from != ActorRequested {
			return tr, domain.ErrNoSuchRequest
		}
		tr.To = None
	case OpDecline:
		if from != TargetRequested {
			return tr, domain.ErrNoSuchRequest
		}
		tr.To = None
	case OpRemove:
		if from != Friends {
			return tr, domain.ErrNotFriends
		}
		tr.To = None
	default:
		return tr, domain.Validation(fmt.Sprintf("unknown relationship operation %q", op))
	}
	return tr, nil
}
