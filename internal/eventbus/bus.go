// Package eventbus 进程内发布/订阅。
//
// Emit 不阻塞调用方：每次发布在独立 goroutine 中按注册顺序依次调用订阅者，
// 单个订阅者的错误或 panic 只记录日志，不影响其他订阅者。
// 不持久化，进程崩溃时未执行的事件直接丢失。
package eventbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"go-gin-social/internal/domain"
)

type Handler func(ctx context.Context, ev domain.Event) error

var ErrClosed = errors.New("eventbus: closed")

var (
	handlerTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "eventbus_handler_total", Help: "Event handler executions by outcome"},
		[]string{"event", "outcome"},
	)
	dropTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "eventbus_dropped_total", Help: "Events emitted after close or with no subscriber"},
		[]string{"event"},
	)
)

func init() { prometheus.MustRegister(handlerTotal, dropTotal) }

type Bus struct {
	log     *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	subs   map[string][]Handler
	closed bool
	wg     sync.WaitGroup
}

// New timeout 为单个订阅者执行上限，<=0 不限
func New(log *zap.Logger, timeout time.Duration) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{log: log, timeout: timeout, subs: make(map[string][]Handler)}
}

// Subscribe 进程启动时注册；同一事件按注册顺序执行
func (b *Bus) Subscribe(event string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[event] = append(b.subs[event], h)
}

// Emit 异步派发。ctx 仅用于透传 trace 等值，调用方取消不会中断订阅者。
func (b *Bus) Emit(ctx context.Context, ev domain.Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		dropTotal.WithLabelValues(ev.Name).Inc()
		b.log.Warn("event dropped, bus closed", zap.String("event", ev.Name))
		return
	}
	hs := append([]Handler(nil), b.subs[ev.Name]...)
	if len(hs) == 0 {
		b.mu.RUnlock()
		dropTotal.WithLabelValues(ev.Name).Inc()
		return
	}
	b.wg.Add(1)
	b.mu.RUnlock()

	base := context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		for _, h := range hs {
			b.dispatch(base, h, ev)
		}
	}()
}

func (b *Bus) dispatch(base context.Context, h Handler, ev domain.Event) {
	ctx := base
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, b.timeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			handlerTotal.WithLabelValues(ev.Name, "panic").Inc()
			b.log.Error("event handler panic",
				zap.String("event", ev.Name),
				zap.String("from", ev.FromID),
				zap.String("to", ev.ToID),
				zap.String("panic", fmt.Sprint(rec)),
			)
		}
	}()
	if err := h(ctx, ev); err != nil {
		handlerTotal.WithLabelValues(ev.Name, "error").Inc()
		b.log.Warn("event handler failed",
			zap.String("event", ev.Name),
			zap.String("to", ev.ToID),
			zap.Error(err),
		)
		return
	}
	handlerTotal.WithLabelValues(ev.Name, "ok").Inc()
}

// Wait 等待已派发事件执行完毕
func (b *Bus) Wait() { b.wg.Wait() }

// Close 拒绝新事件并等待在途事件，ctx 到期则放弃等待
func (b *Bus) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
