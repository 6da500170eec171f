package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/util"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// Ledger 组合租约存储与记录存储，实现 nonce 键的一次性消耗台账。
// 记录存储是事实来源；租约只负责让同键请求在途期间互斥。
type Ledger struct {
	leases  LeaseStore
	records RecordStore
	clock   time2.Clock
	ttl     time.Duration
}

// New 创建 nonce 台账
func New(cfg config.Server, leases LeaseStore, records RecordStore, clock time2.Clock) *Ledger {
	return &Ledger{
		leases:  leases,
		records: records,
		clock:   clock,
		ttl:     cfg.Validation.LeaseDuration,
	}
}

// TryReserve 原子地认领键。已消耗的键直接返回记录；空闲的键返回新
// 预留；被并发请求持有的键返回 validation.ErrReservationHeld。
func (l *Ledger) TryReserve(ctx context.Context, chainID uint64, nonce string) (*validation.Record, *validation.Reservation, error) {
	// 已消耗的键不需要租约，直接走重放
	record, err := l.records.Get(ctx, chainID, nonce)
	if err == nil {
		return record, nil, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, nil, errors.Wrap(err, "failed to read nonce record")
	}

	token := uuid.New().String()
	key := leaseKey(chainID, nonce)

	acquired, err := l.leases.Acquire(ctx, key, token, l.ttl)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to acquire nonce lease")
	}
	if !acquired {
		return nil, nil, validation.ErrReservationHeld
	}

	// 拿到租约后复查：首查与获租之间可能有并发提交已经落账
	record, err = l.records.Get(ctx, chainID, nonce)
	if err == nil {
		l.releaseLease(ctx, key, token)
		return record, nil, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		l.releaseLease(ctx, key, token)
		return nil, nil, errors.Wrap(err, "failed to re-read nonce record")
	}

	return nil, &validation.Reservation{
		ChainID:   chainID,
		Nonce:     nonce,
		Token:     token,
		ExpiresAt: l.clock.Now().Add(l.ttl),
	}, nil
}

// Commit 写入不可变记录并撤销预留。记录存储的插入是一次性的：赢家
// 落账，输家拿到赢家的记录与 validation.ErrRecordConflict。
func (l *Ledger) Commit(ctx context.Context, reservation *validation.Reservation, record validation.Record) (*validation.Record, error) {
	stored, inserted, err := l.records.Insert(ctx, record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert nonce record")
	}

	// 无论胜负租约都已完成使命
	l.releaseLease(ctx, leaseKey(reservation.ChainID, reservation.Nonce), reservation.Token)

	if !inserted {
		return stored, validation.ErrRecordConflict
	}

	return stored, nil
}

// Release 撤销预留且不写任何记录
func (l *Ledger) Release(ctx context.Context, reservation *validation.Reservation) error {
	return l.leases.Release(ctx, leaseKey(reservation.ChainID, reservation.Nonce), reservation.Token)
}

// GetRecord 只读查询键的消耗记录，不存在时返回 ErrRecordNotFound
func (l *Ledger) GetRecord(ctx context.Context, chainID uint64, nonce string) (*validation.Record, error) {
	return l.records.Get(ctx, chainID, nonce)
}

func (l *Ledger) releaseLease(ctx context.Context, key string, token string) {
	if err := l.leases.Release(ctx, key, token); err != nil {
		// 租约到期后自动失效，释放失败只值得一条警告
		util.LogFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Failed to release nonce lease")
	}
}

func leaseKey(chainID uint64, nonce string) string {
	return fmt.Sprintf("validation:lease:%d:%s", chainID, nonce)
}
