package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// GetOrLoadJSON 结构化读穿缓存。load 返回 nil 时不写缓存；
// 缓存内容无法解析时删除该键并回源
func GetOrLoadJSON[T any](
	c *Cache,
	ctx context.Context,
	key string,
	ttl time.Duration,
	load func(ctx context.Context) (*T, error),
) (*T, error) {
	if c == nil || c.RDB == nil {
		return load(ctx)
	}
	var loaded *T
	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, e := load(ctx)
		if e != nil {
			return nil, e
		}
		loaded = v
		if v == nil {
			return nil, nil
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		return loaded, nil
	}
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var out T
	if e := json.Unmarshal(b, &out); e != nil {
		c.log.Warn("cache entry corrupt, reloading", zap.String("key", key), zap.Error(e))
		c.Del(ctx, key)
		return load(ctx)
	}
	return &out, nil
}
