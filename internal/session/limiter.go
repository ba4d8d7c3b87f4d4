package session

import (
	"bazaar/internal/pkg/apperr"
	"bazaar/internal/pkg/redis"
	"context"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

var ErrTooManyAttempts = apperr.New(apperr.ErrForbidden, "too_many_attempts", "too many failed sign-in attempts, try again later")

// INCR 和 PEXPIRE 必须在同一次调用里完成，否则 key 可能永不过期
const recordFailureScript = `
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`

// LoginLimiter 按 (角色, 账号) 统计窗口内的失败登录次数
type LoginLimiter struct {
	client      goredis.UniversalClient
	script      *redis.ScriptRunner
	maxAttempts int
	window      time.Duration
}

func NewLoginLimiter(client goredis.UniversalClient, maxAttempts int, window time.Duration) *LoginLimiter {
	return &LoginLimiter{
		client:      client,
		script:      redis.LoadScriptFromContent(client, recordFailureScript),
		maxAttempts: maxAttempts,
		window:      window,
	}
}

func limiterKey(role Role, account string) string {
	return "bazaar:login:fail:" + string(role) + ":" + strings.ToLower(strings.TrimSpace(account))
}

// Check 在校验密码之前调用，超过次数返回 ErrTooManyAttempts
func (l *LoginLimiter) Check(ctx context.Context, role Role, account string) error {
	n, err := l.client.Get(ctx, limiterKey(role, account)).Int()
	if err != nil && err != goredis.Nil {
		return err
	}
	if n >= l.maxAttempts {
		return ErrTooManyAttempts
	}
	return nil
}

// RecordFailure 记录一次失败
func (l *LoginLimiter) RecordFailure(ctx context.Context, role Role, account string) error {
	_, err := l.script.RunScript(ctx, []string{limiterKey(role, account)}, l.window.Milliseconds())
	return err
}

// Reset 登录成功后清除计数
func (l *LoginLimiter) Reset(ctx context.Context, role Role, account string) error {
	return l.client.Del(ctx, limiterKey(role, account)).Err()
}
