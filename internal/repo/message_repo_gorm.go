package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"go-gin-social/internal/domain"
)

type MessageRepo struct{ db *gorm.DB }

func NewMessageRepo(db *gorm.DB) *MessageRepo { return &MessageRepo{db: db} }

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MessageRepo) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ListForUser 发出或收到的全部消息，新的在前
func (r *MessageRepo) ListForUser(ctx context.Context, userID string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// Between 两人之间的对话，新的在前
func (r *MessageRepo) Between(ctx context.Context, u1, u2 string) ([]domain.Message, error) {
	var out []domain.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", u1, u2, u2, u1).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

func (r *MessageRepo) UpdateContent(ctx context.Context, m *domain.Message, content string) error {
	return r.db.WithContext(ctx).Model(m).Update("content", content).Error
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Message{}).Error
}
