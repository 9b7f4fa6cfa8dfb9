package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"go-gin-social/internal/core/auth"
	"go-gin-social/internal/core/cache"
	"go-gin-social/internal/domain"
	"go-gin-social/internal/repo"
	"go-gin-social/pkg/utils"
)

type UserService struct {
	users      *repo.UserRepo
	rels       *repo.RelationRepo
	cache      *cache.Cache
	jwt        *auth.JWTer
	profileTTL time.Duration
	log        *zap.Logger
}

func NewUserService(users *repo.UserRepo, rels *repo.RelationRepo, c *cache.Cache, j *auth.JWTer, profileTTL time.Duration, l *zap.Logger) *UserService {
	if l == nil {
		l = zap.NewNop()
	}
	return &UserService{users: users, rels: rels, cache: c, jwt: j, profileTTL: profileTTL, log: l}
}

type RegisterInput struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.UserSummary, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if username == "" || email == "" || in.Password == "" {
		return nil, domain.Validation("username, email and password are required")
	}
	if u, err := s.users.FindByUsername(ctx, username); err != nil {
		return nil, domain.Internal("register failed", err)
	} else if u != nil {
		return nil, domain.Conflict("username already taken")
	}
	if u, err := s.users.FindByEmail(ctx, email); err != nil {
		return nil, domain.Internal("register failed", err)
	} else if u != nil {
		return nil, domain.Conflict("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, domain.Internal("hash password failed", err)
	}
	u := &domain.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}
	// 并发注册由唯一索引兜底
	if err := s.users.Create(ctx, u); err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal("register failed", err)
	}
	s.log.Info("user registered", zap.String("uid", u.ID), zap.String("username", u.Username))
	sum := u.Summary()
	return &sum, nil
}

type LoginResult struct {
	Token string             `json:"token"`
	User  domain.UserSummary `json:"user"`
}

func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, domain.Internal("login failed", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, domain.Unauthorized("invalid credentials")
	}
	tok, err := s.jwt.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, domain.Internal("issue token failed", err)
	}
	return &LoginResult{Token: tok, User: u.Summary()}, nil
}

// Profile 读穿缓存；关系变化时由 RelationshipService 失效
func (s *UserService) Profile(ctx context.Context, id string) (*domain.Profile, error) {
	p, err := cache.GetOrLoadJSON(s.cache, ctx, profileKey(id), s.profileTTL, func(ctx context.Context) (*domain.Profile, error) {
		return s.loadProfile(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NotFound("user not found")
	}
	return p, nil
}

func (s *UserService) loadProfile(ctx context.Context, id string) (*domain.Profile, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load user failed", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	rel, err := s.rels.ForUser(ctx, id)
	if err != nil {
		return nil, domain.Internal("load relations failed", err)
	}
	p := &domain.Profile{UserSummary: u.Summary(), CreatedAt: u.CreatedAt}
	if p.Friends, err = s.summaries(ctx, rel.Friends); err != nil {
		return nil, err
	}
	if p.OutgoingRequests, err = s.summaries(ctx, rel.Outgoing); err != nil {
		return nil, err
	}
	if p.IncomingRequests, err = s.summaries(ctx, rel.Incoming); err != nil {
		return nil, err
	}
	return p, nil
}

// summaries 已注销的用户不展示
func (s *UserService) summaries(ctx context.Context, ids []string) ([]domain.UserSummary, error) {
	out := make([]domain.UserSummary, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal("load users failed", err)
	}
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.UserSummary, error) {
	users, _, err := s.users.List(ctx, repo.ListQuery{})
	if err != nil {
		return nil, domain.Internal("list users failed", err)
	}
	out := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

// Search 不区分大小写，结果不含调用者本人
func (s *UserService) Search(ctx context.Context, query, callerID string) ([]domain.UserSummary, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.Validation("query is required")
	}
	users, err := s.users.Search(ctx, query, callerID)
	if err != nil {
		return nil, domain.Internal("search users failed", err)
	}
	if len(users) == 0 {
		return nil, domain.NotFound("no users found")
	}
	out := make([]domain.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out, nil
}

type UpdateInput struct {
	Username *string `json:"username" binding:"omitempty,min=3,max=64"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=6,max=72"`
}

// Update 只能修改自己的资料
func (s *UserService) Update(ctx context.Context, actorID, id string, in UpdateInput) (*domain.UserSummary, error) {
	if actorID != id {
		return nil, domain.Forbidden("you can only update your own profile")
	}
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, domain.Internal("load user failed", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	if in.Username != nil {
		if v := strings.TrimSpace(*in.Username); v != "" {
			u.Username = v
		}
	}
	if in.Email != nil {
		if v := strings.ToLower(strings.TrimSpace(*in.Email)); v != "" {
			u.Email = v
		}
	}
	if in.Password != nil && *in.Password != "" {
		if u.PasswordHash, err = utils.HashPassword(*in.Password); err != nil {
			return nil, domain.Internal("hash password failed", err)
		}
	}
	if err := s.users.Update(ctx, u); err != nil {
		if domain.KindOf(err) == domain.KindConflict {
			return nil, err
		}
		return nil, domain.Internal("update user failed", err)
	}
	s.invalidate(ctx, u.ID)
	sum := u.Summary()
	return &sum, nil
}

func (s *UserService) Friends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, domain.Internal("load user failed", err)
	}
	if u == nil {
		return nil, domain.NotFound("user not found")
	}
	ids, err := s.rels.PeersOf(ctx, userID, domain.KindFriend)
	if err != nil {
		return nil, domain.Internal("load friends failed", err)
	}
	return s.summaries(ctx, ids)
}

type AdminUser struct {
	domain.UserSummary
	Role      string     `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

func (s *UserService) AdminList(ctx context.Context, q repo.ListQuery) ([]AdminUser, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 20
	}
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, 0, domain.Internal("list users failed", err)
	}
	out := make([]AdminUser, 0, len(users))
	for i := range users {
		row := AdminUser{UserSummary: users[i].Summary(), Role: users[i].Role, CreatedAt: users[i].CreatedAt}
		if users[i].DeletedAt.Valid {
			t := users[i].DeletedAt.Time
			row.DeletedAt = &t
		}
		out = append(out, row)
	}
	return out, total, nil
}

// Ban 软删除；被封用户从所有查询与关系迁移中消失
func (s *UserService) Ban(ctx context.Context, id string) error {
	ok, err := s.users.SoftDelete(ctx, id)
	if err != nil {
		return domain.Internal("ban user failed", err)
	}
	if !ok {
		return domain.NotFound("user not found")
	}
	s.invalidate(ctx, id)
	s.log.Info("user banned", zap.String("uid", id))
	return nil
}

func (s *UserService) invalidate(ctx context.Context, ids ...string) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, profileKey(id))
	}
	s.cache.Del(ctx, keys...)
}
