package push

import (
	"bazaar/internal/pkg/redis"
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// 计数归零时删除节点字段，并刷新整个 key 的过期时间
const presenceScript = `
local n = redis.call('HINCRBY', KEYS[1], ARGV[1], ARGV[2])
if n <= 0 then
  redis.call('HDEL', KEYS[1], ARGV[1])
end
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return n
`

// RedisPresence push:presence:{userID} 是一个 hash：节点 id -> 该节点上的连接数
type RedisPresence struct {
	client goredis.UniversalClient
	script *redis.ScriptRunner
	nodeID string
	ttl    time.Duration
}

func NewRedisPresence(client goredis.UniversalClient, nodeID string, ttl time.Duration) *RedisPresence {
	return &RedisPresence{
		client: client,
		script: redis.LoadScriptFromContent(client, presenceScript),
		nodeID: nodeID,
		ttl:    ttl,
	}
}

func presenceKey(userID string) string { return "push:presence:" + userID }

func (p *RedisPresence) Online(ctx context.Context, userID string) error {
	_, err := p.script.RunScript(ctx, []string{presenceKey(userID)}, p.nodeID, 1, p.ttl.Milliseconds())
	return err
}

func (p *RedisPresence) Offline(ctx context.Context, userID string) error {
	_, err := p.script.RunScript(ctx, []string{presenceKey(userID)}, p.nodeID, -1, p.ttl.Milliseconds())
	return err
}

// Nodes 用户当前连接所在的网关节点
func (p *RedisPresence) Nodes(ctx context.Context, userID string) ([]string, error) {
	return p.client.HKeys(ctx, presenceKey(userID)).Result()
}
