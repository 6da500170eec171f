package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// releaseScript 只删除仍由本持有者占有的键。GET 与 DEL 必须在脚本里
// 原子执行，否则会删掉租约过期后他人重新获取的租约。
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLeaseStore 用 SET NX PX 实现跨实例租约，多副本部署时共享。
type RedisLeaseStore struct {
	client *redis.Client
}

// NewRedisLeaseStore 创建 Redis 租约存储
func NewRedisLeaseStore(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

func (s *RedisLeaseStore) Acquire(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	acquired, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to acquire redis lease")
	}

	return acquired, nil
}

func (s *RedisLeaseStore) Release(ctx context.Context, key string, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
		return errors.Wrap(err, "failed to release redis lease")
	}

	return nil
}
