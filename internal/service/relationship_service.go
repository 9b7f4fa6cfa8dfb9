package service

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"go-gin-social/internal/core/cache"
	"go-gin-social/internal/core/telemetry"
	"go-gin-social/internal/domain"
	"go-gin-social/internal/notify"
	"go-gin-social/internal/relationship"
	"go-gin-social/internal/repo"
	"go-gin-social/pkg/utils"
)

var transitionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "relationship_transitions_total", Help: "Relationship operations by outcome"},
	[]string{"op", "result"},
)

func init() { prometheus.MustRegister(transitionTotal) }

// RealtimeNotification 推送给在线接收方的 notification 帧
type RealtimeNotification struct {
	Type    domain.NotificationType `json:"type"`
	From    domain.UserSummary      `json:"from"`
	Content string                  `json:"content"`
}

// RelationshipService 好友关系写路径：
// 进程内按用户对加锁，事务内锁住两条用户记录，读取 → 校验 → 两侧同时落盘；
// 提交后再发事件与实时推送，二者失败都不影响结果。
type RelationshipService struct {
	rels  *repo.RelationRepo
	lock  *pairLocker
	bus   Emitter
	push  Pusher
	cache *cache.Cache
	log   *zap.Logger
	now   func() time.Time
}

func NewRelationshipService(rels *repo.RelationRepo, bus Emitter, push Pusher, c *cache.Cache, l *zap.Logger) *RelationshipService {
	if l == nil {
		l = zap.NewNop()
	}
	if push == nil {
		push = nopPusher{}
	}
	return &RelationshipService{rels: rels, lock: newPairLocker(), bus: bus, push: push, cache: c, log: l, now: time.Now}
}

// Request actor 向 target 发起好友请求
func (s *RelationshipService) Request(ctx context.Context, actor, target string) error {
	return s.transition(ctx, relationship.OpRequest, actor, target)
}

// Accept actor 接受 requester 的请求
func (s *RelationshipService) Accept(ctx context.Context, actor, requester string) error {
	return s.transition(ctx, relationship.OpAccept, actor, requester)
}

// Cancel actor 撤回自己发给 target 的请求
func (s *RelationshipService) Cancel(ctx context.Context, actor, target string) error {
	return s.transition(ctx, relationship.OpCancel, actor, target)
}

// Decline actor 拒绝 requester 的请求
func (s *RelationshipService) Decline(ctx context.Context, actor, requester string) error {
	return s.transition(ctx, relationship.OpDecline, actor, requester)
}

// Remove 解除好友
func (s *RelationshipService) Remove(ctx context.Context, actor, friend string) error {
	return s.transition(ctx, relationship.OpRemove, actor, friend)
}

func (s *RelationshipService) transition(ctx context.Context, op relationship.Op, actor, target string) (err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "relationship."+string(op))
	span.SetAttributes(
		attribute.String("relationship.actor", actor),
		attribute.String("relationship.target", target),
	)
	defer func() {
		result := "ok"
		if err != nil {
			result = "rejected"
			if domain.KindOf(err) == domain.KindInternal {
				result = "error"
				span.SetStatus(codes.Error, err.Error())
			}
			span.RecordError(err)
		}
		transitionTotal.WithLabelValues(string(op), result).Inc()
		span.End()
	}()

	if actor == target {
		return domain.ErrSelfRelation
	}
	if !utils.IsID(target) {
		return domain.Validation("invalid user id")
	}

	unlock := s.lock.Lock(actor, target)
	defer unlock()

	var (
		tr       relationship.Transition
		actorSum domain.UserSummary
		rejected error
	)
	txErr := s.rels.Transaction(ctx, func(tx *repo.RelationRepo) error {
		users, err := tx.LockUsers(ctx, actor, target)
		if err != nil {
			return err
		}
		if users[actor] == nil {
			return domain.NotFound("user not found")
		}
		if users[target] == nil {
			return domain.ErrInvalidTarget
		}
		actorSum = users[actor].Summary()

		ka, kb, err := tx.PairKinds(ctx, actor, target)
		if err != nil {
			return err
		}
		tr, err = relationship.Apply(op, actor, target, ka, kb, s.now())
		if err != nil {
			// 已是好友但残留待处理记录：顺手修正，仍返回 AlreadyFriends
			if errors.Is(err, domain.ErrAlreadyFriends) && !relationship.Consistent(ka, kb) {
				fa, fb := relationship.Friends.Kinds()
				if e := tx.SetPair(ctx, actor, target, fa, fb); e != nil {
					return e
				}
				s.log.Warn("healed inconsistent relation",
					zap.String("a", actor), zap.String("b", target),
					zap.String("ka", string(ka)), zap.String("kb", string(kb)))
				rejected = err
				return nil
			}
			return err
		}
		na, nb := tr.To.Kinds()
		return tx.SetPair(ctx, actor, target, na, nb)
	})
	if txErr != nil {
		var ae *domain.AppError
		if errors.As(txErr, &ae) {
			return txErr
		}
		s.log.Error("relationship transition failed", zap.String("op", string(op)),
			zap.String("actor", actor), zap.String("target", target), zap.Error(txErr))
		return domain.Internal("relationship update failed", txErr)
	}

	s.cache.Del(context.WithoutCancel(ctx), profileKey(actor), profileKey(target))
	if rejected != nil {
		return rejected
	}

	s.log.Info("relationship changed", zap.String("op", string(op)),
		zap.String("actor", actor), zap.String("target", target),
		zap.Stringer("from", tr.From), zap.Stringer("to", tr.To))

	for _, ev := range tr.Events {
		s.bus.Emit(ctx, ev)
		s.push.PushToUser(ev.ToID, "notification", RealtimeNotification{
			Type:    ev.Type,
			From:    actorSum,
			Content: notify.Content(ev.Type, actorSum.Username),
		})
	}
	return nil
}
