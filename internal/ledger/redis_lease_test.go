package ledger_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/ledger"
)

// withRedis 连接真实 Redis 实例，未配置 TEST_REDIS_ADDRESS 时跳过。
func withRedis(t *testing.T, closure func(client *redis.Client)) {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("skipping, TEST_REDIS_ADDRESS is not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to ping redis at %s: %v", addr, err)
	}

	closure(client)
}

func testLeaseKey() string {
	return fmt.Sprintf("validation:lease:test:%s", uuid.New().String())
}

func TestRedisLeaseStoreAcquireRelease(t *testing.T) {
	withRedis(t, func(client *redis.Client) {
		ctx := context.Background()
		store := ledger.NewRedisLeaseStore(client)

		key := testLeaseKey()
		holder := uuid.New().String()
		intruder := uuid.New().String()

		acquired, err := store.Acquire(ctx, key, holder, 30*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		// 键已被持有，第二个请求拿不到
		acquired, err = store.Acquire(ctx, key, intruder, 30*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired)

		// 出示错误 token 的释放是空操作，租约仍被持有
		require.NoError(t, store.Release(ctx, key, intruder))

		acquired, err = store.Acquire(ctx, key, intruder, 30*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired, "release with a foreign token must not free the lease")

		require.NoError(t, store.Release(ctx, key, holder))

		acquired, err = store.Acquire(ctx, key, intruder, 30*time.Second)
		require.NoError(t, err)
		assert.True(t, acquired, "lease must be free after the holder released it")

		require.NoError(t, store.Release(ctx, key, intruder))
	})
}

func TestRedisLeaseStoreExpiry(t *testing.T) {
	withRedis(t, func(client *redis.Client) {
		ctx := context.Background()
		store := ledger.NewRedisLeaseStore(client)

		key := testLeaseKey()

		acquired, err := store.Acquire(ctx, key, uuid.New().String(), 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, acquired)

		// 崩溃的持有者永不 Release，TTL 过期后键必须重新可用
		time.Sleep(150 * time.Millisecond)

		next := uuid.New().String()
		acquired, err = store.Acquire(ctx, key, next, 30*time.Second)
		require.NoError(t, err)
		assert.True(t, acquired, "lease must expire with its TTL")

		require.NoError(t, store.Release(ctx, key, next))
	})
}

// 过期后他人重新持有的键，旧持有者迟到的 Release 不得误删
func TestRedisLeaseStoreStaleReleaseAfterExpiry(t *testing.T) {
	withRedis(t, func(client *redis.Client) {
		ctx := context.Background()
		store := ledger.NewRedisLeaseStore(client)

		key := testLeaseKey()
		stale := uuid.New().String()

		acquired, err := store.Acquire(ctx, key, stale, 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, acquired)

		time.Sleep(150 * time.Millisecond)

		current := uuid.New().String()
		acquired, err = store.Acquire(ctx, key, current, 30*time.Second)
		require.NoError(t, err)
		require.True(t, acquired)

		require.NoError(t, store.Release(ctx, key, stale))

		acquired, err = store.Acquire(ctx, key, uuid.New().String(), 30*time.Second)
		require.NoError(t, err)
		assert.False(t, acquired, "stale release must not delete the current holder's lease")

		require.NoError(t, store.Release(ctx, key, current))
	})
}
