package service

import (
	"context"

	"go-gin-social/internal/domain"
)

// Emitter 领域事件出口（eventbus.Bus）
type Emitter interface {
	Emit(ctx context.Context, ev domain.Event)
}

// Pusher 实时推送出口（realtime.Hub）
type Pusher interface {
	PushToUser(userID, event string, payload any) int
}

type nopPusher struct{}

func (nopPusher) PushToUser(string, string, any) int { return 0 }

func profileKey(id string) string { return "profile:" + id }
