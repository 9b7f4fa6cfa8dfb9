package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// 每个缓存键带一个版本键；Del 递增版本，回源结果只在版本未变时写回
const verTTL = 24 * time.Hour

var setIfVersion = redis.NewScript(`
local v = redis.call('GET', KEYS[2]) or ''
if v ~= ARGV[1] then return 0 end
if tonumber(ARGV[3]) > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

func verKey(key string) string { return "ver:" + key }

// Cache 读穿缓存。nil 或未配置 redis 时直接回源
type Cache struct {
	RDB *redis.Client
	log *zap.Logger
	sf  singleflight.Group
}

func New(addr, pass string, db int, l *zap.Logger) *Cache {
	if l == nil {
		l = zap.NewNop()
	}
	return &Cache{
		RDB: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		log: l,
	}
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.RDB == nil {
		return nil
	}
	return c.RDB.Ping(ctx).Err()
}

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	if c == nil || c.RDB == nil {
		return load(ctx)
	}
	// 先读缓存
	b, err := c.RDB.Get(ctx, key).Bytes()
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	// single flight 合并回源；先取版本再读库
	v, err, _ := c.sf.Do(key, func() (any, error) {
		ver, e := c.RDB.Get(ctx, verKey(key)).Result()
		if e != nil && !errors.Is(e, redis.Nil) {
			c.log.Warn("cache version get failed", zap.String("key", key), zap.Error(e))
			ver = ""
		}
		b, e := load(ctx)
		if e != nil {
			return nil, e
		}
		if b == nil {
			return b, nil
		}
		ok, e := setIfVersion.Run(ctx, c.RDB, []string{key, verKey(key)}, ver, b, ttl.Milliseconds()).Int()
		switch {
		case e != nil:
			c.log.Warn("cache set failed", zap.String("key", key), zap.Error(e))
		case ok == 0:
			c.log.Debug("cache set skipped, invalidated during load", zap.String("key", key))
		}
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Del 失效：递增版本并删除，正在回源的旧结果不会再写回。错误只记日志
func (c *Cache) Del(ctx context.Context, keys ...string) {
	if c == nil || c.RDB == nil || len(keys) == 0 {
		return
	}
	_, err := c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range keys {
			p.Incr(ctx, verKey(k))
			p.Expire(ctx, verKey(k), verTTL)
		}
		p.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.log.Warn("cache del failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (c *Cache) Close() error {
	if c == nil || c.RDB == nil {
		return nil
	}
	return c.RDB.Close()
}
