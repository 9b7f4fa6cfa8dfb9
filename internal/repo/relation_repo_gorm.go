package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-gin-social/internal/domain"
)

// RelationRepo 关系存储：每个用户的 friends / outgoing / incoming 集合
type RelationRepo struct{ db *gorm.DB }

func NewRelationRepo(db *gorm.DB) *RelationRepo { return &RelationRepo{db: db} }

// Transaction 在同一事务内执行 fn，fn 返回错误即整体回滚
func (r *RelationRepo) Transaction(ctx context.Context, fn func(tx *RelationRepo) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RelationRepo{db: tx})
	})
}

// LockUsers 按 id 升序对用户行加写锁（sqlite 无行锁，依赖单连接串行）
func (r *RelationRepo) LockUsers(ctx context.Context, ids ...string) (map[string]*domain.User, error) {
	q := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id")
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var users []domain.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	out := make(map[string]*domain.User, len(users))
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// PairKinds 返回 a 记录中关于 b 的标记，以及 b 记录中关于 a 的标记
func (r *RelationRepo) PairKinds(ctx context.Context, a, b string) (ka, kb domain.RelationKind, err error) {
	var rows []domain.Relation
	err = r.db.WithContext(ctx).
		Where("(owner_id = ? AND peer_id = ?) OR (owner_id = ? AND peer_id = ?)", a, b, b, a).
		Find(&rows).Error
	if err != nil {
		return "", "", err
	}
	for _, row := range rows {
		if row.OwnerID == a {
			ka = row.Kind
		} else {
			kb = row.Kind
		}
	}
	return ka, kb, nil
}

// SetPair 覆盖写两条记录中关于对方的标记，KindNone 表示移除
func (r *RelationRepo) SetPair(ctx context.Context, a, b string, ka, kb domain.RelationKind) error {
	db := r.db.WithContext(ctx)
	if err := db.
		Where("(owner_id = ? AND peer_id = ?) OR (owner_id = ? AND peer_id = ?)", a, b, b, a).
		Delete(&domain.Relation{}).Error; err != nil {
		return err
	}
	var rows []domain.Relation
	if ka != domain.KindNone {
		rows = append(rows, domain.Relation{OwnerID: a, PeerID: b, Kind: ka})
	}
	if kb != domain.KindNone {
		rows = append(rows, domain.Relation{OwnerID: b, PeerID: a, Kind: kb})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.Create(&rows).Error
}

func (r *RelationRepo) ForUser(ctx context.Context, userID string) (*domain.Relations, error) {
	var rows []domain.Relation
	if err := r.db.WithContext(ctx).Where("owner_id = ?", userID).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	rel := &domain.Relations{UserID: userID, Friends: []string{}, Outgoing: []string{}, Incoming: []string{}}
	for _, row := range rows {
		switch row.Kind {
		case domain.KindFriend:
			rel.Friends = append(rel.Friends, row.PeerID)
		case domain.KindOutgoing:
			rel.Outgoing = append(rel.Outgoing, row.PeerID)
		case domain.KindIncoming:
			rel.Incoming = append(rel.Incoming, row.PeerID)
		}
	}
	return rel, nil
}

func (r *RelationRepo) PeersOf(ctx context.Context, userID string, kind domain.RelationKind) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&domain.Relation{}).
		Where("owner_id = ? AND kind = ?", userID, kind).
		Order("created_at").
		Pluck("peer_id", &ids).Error
	return ids, err
}
