package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"go-gin-social/internal/domain"
	"go-gin-social/internal/repo"
	"go-gin-social/pkg/utils"
)

const maxMessageLen = 4000

type MessageService struct {
	msgs  *repo.MessageRepo
	users *repo.UserRepo
	bus   Emitter
	push  Pusher
	log   *zap.Logger
	now   func() time.Time
}

func NewMessageService(msgs *repo.MessageRepo, users *repo.UserRepo, bus Emitter, push Pusher, l *zap.Logger) *MessageService {
	if l == nil {
		l = zap.NewNop()
	}
	if push == nil {
		push = nopPusher{}
	}
	return &MessageService{msgs: msgs, users: users, bus: bus, push: push, log: l, now: time.Now}
}

func cleanContent(s string) (string, error) {
	s = utils.Sanitize(s)
	if s == "" {
		return "", domain.Validation("content is required")
	}
	if len(s) > maxMessageLen {
		return "", domain.Validation("content is too long")
	}
	return s, nil
}

// Send 落库后推送给接收方并发出 userReceivedMessage 事件
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string) (*domain.Message, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	if !utils.IsID(receiverID) {
		return nil, domain.Validation("invalid receiver id")
	}
	recv, err := s.users.FindByID(ctx, receiverID)
	if err != nil {
		return nil, domain.Internal("load receiver failed", err)
	}
	if recv == nil {
		return nil, domain.NotFound("receiver not found")
	}

	now := s.now()
	m := &domain.Message{
		ID:         utils.NewID(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.msgs.Create(ctx, m); err != nil {
		return nil, domain.Internal("send message failed", err)
	}

	s.push.PushToUser(receiverID, "message", m)
	s.bus.Emit(ctx, domain.Event{
		Name:    domain.EventMessageReceived,
		Type:    domain.NotifyMessage,
		FromID:  senderID,
		ToID:    receiverID,
		Content: content,
		At:      now,
	})
	return m, nil
}

func (s *MessageService) ListMine(ctx context.Context, userID string) ([]domain.Message, error) {
	out, err := s.msgs.ListForUser(ctx, userID)
	if err != nil {
		return nil, domain.Internal("list messages failed", err)
	}
	return out, nil
}

// Get 只有收发双方可见
func (s *MessageService) Get(ctx context.Context, userID, id string) (*domain.Message, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID && m.ReceiverID != userID {
		return nil, domain.Forbidden("not a participant of this message")
	}
	return m, nil
}

// Between 调用者必须是对话一方
func (s *MessageService) Between(ctx context.Context, userID, u1, u2 string) ([]domain.Message, error) {
	if u1 == "" || u2 == "" {
		return nil, domain.Validation("user1 and user2 are required")
	}
	if userID != u1 && userID != u2 {
		return nil, domain.Forbidden("not a participant of this conversation")
	}
	out, err := s.msgs.Between(ctx, u1, u2)
	if err != nil {
		return nil, domain.Internal("load conversation failed", err)
	}
	return out, nil
}

func (s *MessageService) Update(ctx context.Context, userID, id, content string) (*domain.Message, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID {
		return nil, domain.Forbidden("only the sender can edit this message")
	}
	if err := s.msgs.UpdateContent(ctx, m, content); err != nil {
		return nil, domain.Internal("update message failed", err)
	}
	m.Content = content
	return m, nil
}

func (s *MessageService) Delete(ctx context.Context, userID, id string) error {
	m, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if m.SenderID != userID {
		return domain.Forbidden("only the sender can delete this message")
	}
	if err := s.msgs.Delete(ctx, id); err != nil {
		return domain.Internal("delete message failed", err)
	}
	return nil
}

func (s *MessageService) load(ctx context.Context, id string) (*domain.Message, error) {
	m, err := s.msgs.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load message failed", err)
	}
	if m == nil {
		return nil, domain.NotFound("message not found")
	}
	return m, nil
}
