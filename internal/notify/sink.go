// Package notify 通知落库：事件总线的订阅者，与实时投递互相独立
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/eventbus"
	"go-gin-social/pkg/utils"
)

var recordTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "notifications_recorded_total", Help: "Notifications persisted from domain events"},
	[]string{"type", "result"},
)

func init() { prometheus.MustRegister(recordTotal) }

type Store interface {
	Create(ctx context.Context, n *domain.Notification) error
	FindByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipient(ctx context.Context, toID string) ([]domain.Notification, error)
	MarkSeen(ctx context.Context, id, toID string) (bool, error)
	Delete(ctx context.Context, id, toID string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type Users interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]domain.User, error)
}

type Sink struct {
	store Store
	users Users
	log   *zap.Logger
	now   func() time.Time
}

func NewSink(store Store, users Users, l *zap.Logger) *Sink {
	if l == nil {
		l = zap.NewNop()
	}
	return &Sink{store: store, users: users, log: l, now: time.Now}
}

// Register 订阅会产生通知的事件
func (s *Sink) Register(bus *eventbus.Bus) {
	for _, name := range []string{
		domain.EventFriendRequest,
		domain.EventRequestAccepted,
		domain.EventMessageReceived,
	} {
		bus.Subscribe(name, s.handle)
	}
}

func (s *Sink) handle(ctx context.Context, ev domain.Event) error {
	s.Record(ctx, ev)
	return nil
}

// Record 由事件生成一条通知。失败只记日志并返回 nil，不影响已提交的主流程
func (s *Sink) Record(ctx context.Context, ev domain.Event) *domain.Notification {
	log := s.log.With(zap.String("event", ev.Name), zap.String("from", ev.FromID), zap.String("to", ev.ToID))
	if !ev.Type.Valid() {
		log.Warn("notification skipped, unknown type", zap.String("type", string(ev.Type)))
		recordTotal.WithLabelValues(string(ev.Type), "skipped").Inc()
		return nil
	}

	from, err := s.users.FindByID(ctx, ev.FromID)
	if err != nil {
		log.Warn("notification skipped, sender lookup failed", zap.Error(err))
		recordTotal.WithLabelValues(string(ev.Type), "failed").Inc()
		return nil
	}
	to, err := s.users.FindByID(ctx, ev.ToID)
	if err != nil {
		log.Warn("notification skipped, recipient lookup failed", zap.Error(err))
		recordTotal.WithLabelValues(string(ev.Type), "failed").Inc()
		return nil
	}
	if from == nil || to == nil {
		log.Warn("notification skipped, user missing")
		recordTotal.WithLabelValues(string(ev.Type), "skipped").Inc()
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = s.now()
	}
	n := &domain.Notification{
		ID:        utils.NewID(),
		FromID:    from.ID,
		ToID:      to.ID,
		Type:      ev.Type,
		Content:   Content(ev.Type, from.Username),
		CreatedAt: at,
	}
	if err := s.store.Create(ctx, n); err != nil {
		log.Error("notification persist failed", zap.Error(err))
		recordTotal.WithLabelValues(string(ev.Type), "failed").Inc()
		return nil
	}
	recordTotal.WithLabelValues(string(ev.Type), "ok").Inc()
	return n
}

// Content 通知正文；request_accepted 中 from 为接受方
func Content(t domain.NotificationType, from string) string {
	switch t {
	case domain.NotifyFriendRequest:
		return fmt.Sprintf("New friend request from %s", from)
	case domain.NotifyRequestAccepted:
		return fmt.Sprintf("Your friend request to %s has been accepted.", from)
	case domain.NotifyMessage:
		return fmt.Sprintf("New message from %s", from)
	case domain.NotifyLike:
		return fmt.Sprintf("%s liked your post", from)
	}
	return ""
}

// ListByRecipient 新的在前，附带发送方摘要（发送方已注销时为空）
func (s *Sink) ListByRecipient(ctx context.Context, userID string) ([]domain.NotificationView, error) {
	list, err := s.store.ListByRecipient(ctx, userID)
	if err != nil {
		return nil, domain.Internal("list notifications failed", err)
	}
	ids := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		if _, ok := seen[n.FromID]; !ok {
			seen[n.FromID] = struct{}{}
			ids = append(ids, n.FromID)
		}
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal("load senders failed", err)
	}
	byID := make(map[string]domain.UserSummary, len(users))
	for i := range users {
		byID[users[i].ID] = users[i].Summary()
	}

	out := make([]domain.NotificationView, 0, len(list))
	for _, n := range list {
		v := domain.NotificationView{Notification: n}
		if sum, ok := byID[n.FromID]; ok {
			v.From = &sum
		}
		out = append(out, v)
	}
	return out, nil
}

// MarkSeen 幂等；只有接收方可以操作
func (s *Sink) MarkSeen(ctx context.Context, id, userID string) error {
	ok, err := s.store.MarkSeen(ctx, id, userID)
	if err != nil {
		return domain.Internal("mark notification seen failed", err)
	}
	if !ok {
		return domain.NotFound("notification not found")
	}
	return nil
}

func (s *Sink) Delete(ctx context.Context, id, userID string) error {
	ok, err := s.store.Delete(ctx, id, userID)
	if err != nil {
		return domain.Internal("delete notification failed", err)
	}
	if !ok {
		return domain.NotFound("notification not found")
	}
	return nil
}

// DeleteOlderThan 无匹配时返回 0
func (s *Sink) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, domain.Internal("purge notifications failed", err)
	}
	return n, nil
}
