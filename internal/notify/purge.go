package notify

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Purger 定时清理过期通知
type Purger struct {
	sink      *Sink
	retention time.Duration
	log       *zap.Logger
	cron      *cron.Cron
}

func NewPurger(sink *Sink, retention time.Duration, l *zap.Logger) *Purger {
	if l == nil {
		l = zap.NewNop()
	}
	return &Purger{sink: sink, retention: retention, log: l}
}

// RunOnce 删除早于 now-retention 的通知
func (p *Purger) RunOnce(ctx context.Context) (int64, error) {
	cutoff := p.sink.now().Add(-p.retention)
	n, err := p.sink.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.log.Error("notification purge failed", zap.Error(err))
		return 0, err
	}
	p.log.Info("notification purge done", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	return n, nil
}

// Start 按 cron 表达式（五段式）调度
func (p *Purger) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = p.RunOnce(ctx)
	}); err != nil {
		return err
	}
	p.cron = c
	c.Start()
	return nil
}

// Stop 等待正在执行的任务结束
func (p *Purger) Stop(ctx context.Context) {
	if p.cron == nil {
		return
	}
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
	}
}
