// Package bootstrap 按配置装配两个进程共用的依赖，并负责按序关闭。
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-social/internal/core/auth"
	"go-gin-social/internal/core/cache"
	"go-gin-social/internal/core/config"
	"go-gin-social/internal/core/database"
	"go-gin-social/internal/core/logger"
	"go-gin-social/internal/core/telemetry"
	"go-gin-social/internal/eventbus"
	"go-gin-social/internal/notify"
	"go-gin-social/internal/realtime"
	"go-gin-social/internal/repo"
	"go-gin-social/internal/service"
	"go-gin-social/internal/transport/http/router"
)

type App struct {
	Deps router.Deps
	DB   *gorm.DB

	bus   *eventbus.Bus
	hub   *realtime.Hub
	cache *cache.Cache
	tp    *telemetry.Provider
	log   *zap.Logger
}

var openGorm = database.NewGorm

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	db, err := openGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		LogWriter:          logger.ToWriter(log.Named("gorm"), zapcore.WarnLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver))

	// 之后的失败都要释放已打开的连接
	var c *cache.Cache
	fail := func(err error) (*App, error) {
		_ = c.Close()
		closeDB(db)
		return nil, err
	}

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fail(fmt.Errorf("automigrate: %w", err))
		}
		log.Info("automigrate done")
	}

	// Redis 可选，未开启时 cache 为 nil，读写直接落库
	if cfg.Redis.Enabled {
		c = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log.Named("cache"))
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := c.Ping(ctx)
		cancel()
		if err != nil {
			log.Warn("redis unreachable, profile cache degraded", zap.Error(err))
		}
	}

	tp, err := telemetry.New(cfg.App, cfg.Trace)
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    time.Duration(cfg.JWT.AccessTokenTTLMin) * time.Minute,
	}

	userRepo := repo.NewUserRepo(db)
	relRepo := repo.NewRelationRepo(db)

	bus := eventbus.New(log.Named("eventbus"), time.Duration(cfg.Notification.HandlerTTLSec)*time.Second)
	sink := notify.NewSink(repo.NewNotificationRepo(db), userRepo, log.Named("notify"))
	sink.Register(bus)
	hub := realtime.NewHub(log.Named("realtime"))

	profileTTL := time.Duration(cfg.Redis.ProfileTTLSec) * time.Second
	retention := time.Duration(cfg.Notification.RetentionDays) * 24 * time.Hour

	return &App{
		Deps: router.Deps{
			Log:      log,
			Config:   cfg,
			JWT:      jwter,
			Users:    service.NewUserService(userRepo, relRepo, c, jwter, profileTTL, log.Named("user")),
			Rels:     service.NewRelationshipService(relRepo, bus, hub, c, log.Named("relationship")),
			Messages: service.NewMessageService(repo.NewMessageRepo(db), userRepo, bus, hub, log.Named("message")),
			Sink:     sink,
			Purger:   notify.NewPurger(sink, retention, log.Named("purge")),
			WS:       realtime.NewHandler(hub, jwter.UserID, cfg.Realtime, log.Named("ws")),
		},
		DB:    db,
		bus:   bus,
		hub:   hub,
		cache: c,
		tp:    tp,
		log:   log,
	}, nil
}

// Close HTTP 停止后调用：断开长连接 → 排空事件 → 停定时任务 → 刷 trace → 关外部连接
func (a *App) Close(ctx context.Context) {
	a.hub.Shutdown()
	if err := a.bus.Close(ctx); err != nil {
		a.log.Warn("eventbus close", zap.Error(err))
	}
	a.Deps.Purger.Stop(ctx)
	if err := a.tp.Shutdown(ctx); err != nil {
		a.log.Warn("tracer shutdown", zap.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		a.log.Warn("redis close", zap.Error(err))
	}
	closeDB(a.DB)
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
