// internal/pkg/redis/client.go
package redis

import (
	"bazaar/internal/pkg/bootstrap"
	"context"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient 根据配置创建单机或集群客户端
func NewClient(ctx context.Context, cfg bootstrap.RedisConfig) (goredis.UniversalClient, error) {
	client := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "ping redis")
	}
	return client, nil
}

// ScriptRunner 缓存 Lua 脚本的 SHA，优先 EVALSHA，脚本不存在时回退 EVAL
type ScriptRunner struct {
	client goredis.Scripter
	script *goredis.Script
}

// LoadScriptFromContent 从脚本内容创建 runner
func LoadScriptFromContent(client goredis.Scripter, src string) *ScriptRunner {
	return &ScriptRunner{client: client, script: goredis.NewScript(src)}
}

// RunScript 执行脚本
func (r *ScriptRunner) RunScript(ctx context.Context, keys []string, args ...any) (any, error) {
	res, err := r.script.Run(ctx, r.client, keys, args...).Result()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, errors.Wrap(err, "run lua script")
	}
	return res, nil
}
