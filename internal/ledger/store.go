package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/validation"
)

// ErrRecordNotFound 台账里没有该键的记录
var ErrRecordNotFound = errors.New("nonce record not found")

// LeaseStore 预留租约存储。租约带 TTL，持有者崩溃后键在租约到期时
// 自动恢复可预留。
type LeaseStore interface {
	// Acquire 尝试以 token 为持有凭据获取键上的租约。键已被持有时
	// 返回 false。
	Acquire(ctx context.Context, key string, token string, ttl time.Duration) (bool, error)
	// Release 释放租约。只有出示当初 Acquire 所用 token 才会生效，
	// 释放他人的租约是空操作。
	Release(ctx context.Context, key string, token string) error
}

// RecordStore 不可变 nonce 记录存储。
type RecordStore interface {
	// Get 读取记录，不存在时返回 ErrRecordNotFound。
	Get(ctx context.Context, chainID uint64, nonce string) (*validation.Record, error)
	// Insert 原子写入记录。键已有记录时绝不覆盖，返回已存在的记录
	// 与 inserted=false。
	Insert(ctx context.Context, record validation.Record) (*validation.Record, bool, error)
}
