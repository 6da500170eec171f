package ledger

import (
	"context"
	"database/sql"

	"github.com/aarondl/null/v8"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/validation"
)

// PostgreSQLRecordStore 把 nonce 记录持久化到 Postgres。唯一性由
// (chain_id, nonce) 主键保证，插入永不覆盖已有行。
type PostgreSQLRecordStore struct {
	db *sql.DB
}

// NewPostgreSQLRecordStore 创建 Postgres 记录存储
func NewPostgreSQLRecordStore(db *sql.DB) *PostgreSQLRecordStore {
	return &PostgreSQLRecordStore{db: db}
}

// Get 读取 nonce 记录
func (s *PostgreSQLRecordStore) Get(ctx context.Context, chainID uint64, nonce string) (*validation.Record, error) {
	query := `
		SELECT outcome, reason, fingerprint, consumed_at
		FROM nonce_records
		WHERE chain_id = $1 AND nonce = $2
	`

	var outcome string
	var reason null.String
	var fingerprint string
	var consumedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, int64(chainID), nonce).Scan(&outcome, &reason, &fingerprint, &consumedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRecordNotFound
		}
		return nil, errors.Wrap(err, "failed to query nonce record")
	}

	record := &validation.Record{
		ChainID:     chainID,
		Nonce:       nonce,
		Outcome:     validation.Outcome(outcome),
		Reason:      validation.Reason(reason.String),
		Fingerprint: fingerprint,
	}
	if consumedAt.Valid {
		record.ConsumedAt = consumedAt.Time
	}

	return record, nil
}

// Insert 原子写入 nonce 记录。键已有记录时插入是空操作，返回已存在
// 的记录与 inserted=false。
func (s *PostgreSQLRecordStore) Insert(ctx context.Context, record validation.Record) (*validation.Record, bool, error) {
	query := `
		INSERT INTO nonce_records (chain_id, nonce, outcome, reason, fingerprint, consumed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (chain_id, nonce) DO NOTHING
	`

	reason := null.NewString(string(record.Reason), record.Reason != validation.ReasonNone)

	res, err := s.db.ExecContext(ctx, query, int64(record.ChainID), record.Nonce, string(record.Outcome), reason, record.Fingerprint, record.ConsumedAt)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to insert nonce record")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read insert result")
	}

	if rows == 0 {
		existing, err := s.Get(ctx, record.ChainID, record.Nonce)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to load conflicting nonce record")
		}

		return existing, false, nil
	}

	return &record, true, nil
}
