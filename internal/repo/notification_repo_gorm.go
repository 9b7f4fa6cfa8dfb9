package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"go-gin-social/internal/domain"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *NotificationRepo) FindByID(ctx context.Context, id string) (*domain.Notification, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ListByRecipient 新的在前
func (r *NotificationRepo) ListByRecipient(ctx context.Context, toID string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := r.db.WithContext(ctx).
		Where("to_id = ?", toID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// MarkSeen 幂等；已读的再次标记不报错
func (r *NotificationRepo) MarkSeen(ctx context.Context, id, toID string) (bool, error) {
	var n domain.Notification
	err := r.db.WithContext(ctx).Select("id", "seen").First(&n, "id = ? AND to_id = ?", id, toID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if n.Seen {
		return true, nil
	}
	err = r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("seen", true).Error
	return err == nil, err
}

func (r *NotificationRepo) Delete(ctx context.Context, id, toID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ? AND to_id = ?", id, toID).Delete(&domain.Notification{})
	return res.RowsAffected > 0, res.Error
}

// DeleteOlderThan 无匹配时返回 0
func (r *NotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}
