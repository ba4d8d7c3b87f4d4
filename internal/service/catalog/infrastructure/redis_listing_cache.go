package infrastructure

import (
	"bazaar/internal/pkg/metrics"
	"bazaar/internal/pkg/redis"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// 代号和数据 key 共用 hash tag，集群下脚本涉及的 key 落在同一个 slot
const listingGenerationKey = "bazaar:{listing}:gen"

// setIfGenerationScript 只有代号仍是读取时的值才写入，
// 读库期间发生过失效的结果直接丢弃
const setIfGenerationScript = `
local cur = redis.call('GET', KEYS[1]) or '0'
if cur ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`

// RedisListingCache 公开列表缓存。
// 失效通过递增代号实现：旧代号下的 key 不再被读取，靠 TTL 自然过期。
type RedisListingCache struct {
	client goredis.UniversalClient
	ttl    time.Duration
	setCAS *redis.ScriptRunner
}

func NewRedisListingCache(client goredis.UniversalClient, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
		setCAS: redis.LoadScriptFromContent(client, setIfGenerationScript),
	}
}

func (c *RedisListingCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, listingGenerationKey).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisListingCache) fullKey(gen int64, key string) string {
	return fmt.Sprintf("bazaar:{listing}:%d:%s", gen, key)
}

// Get 返回读取时看到的代号，未命中时调用方把它原样传给 Set
func (c *RedisListingCache) Get(ctx context.Context, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, errors.Wrap(err, "read cache generation")
	}
	raw, err := c.client.Get(ctx, c.fullKey(gen, key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		metrics.ListingCacheLookups.WithLabelValues("miss").Inc()
		return gen, false, nil
	}
	if err != nil {
		return gen, false, errors.Wrap(err, "read listing cache")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return gen, false, errors.Wrap(err, "decode listing cache")
	}
	metrics.ListingCacheLookups.WithLabelValues("hit").Inc()
	return gen, true, nil
}

// Set 以 gen 为前提写入。代号已经变化时不写，返回 false
func (c *RedisListingCache) Set(ctx context.Context, key string, gen int64, value any) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, errors.Wrap(err, "encode listing cache")
	}
	res, err := c.setCAS.RunScript(ctx,
		[]string{listingGenerationKey, c.fullKey(gen, key)},
		strconv.FormatInt(gen, 10), raw, c.ttl.Milliseconds())
	if err != nil {
		return false, errors.Wrap(err, "write listing cache")
	}
	stored, _ := res.(int64)
	if stored == 0 {
		metrics.ListingCacheLookups.WithLabelValues("stale").Inc()
	}
	return stored == 1, nil
}

func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	return errors.Wrap(c.client.Incr(ctx, listingGenerationKey).Err(), "bump listing generation")
}

// NoopListingCache 未配置 redis 时使用
type NoopListingCache struct{}

func (NoopListingCache) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (NoopListingCache) Set(context.Context, string, int64, any) (bool, error) { return false, nil }
func (NoopListingCache) Invalidate(context.Context) error                       { return nil }
