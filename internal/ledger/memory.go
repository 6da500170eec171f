package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"

	"github.com/kashguard/go-validation-infra/internal/validation"
)

// InMemoryLeaseStore 进程内租约存储，供单实例部署与测试使用。
type InMemoryLeaseStore struct {
	clock time2.Clock

	mu     sync.Mutex
	leases map[string]memoryLease
}

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// NewInMemoryLeaseStore 创建进程内租约存储
func NewInMemoryLeaseStore(clock time2.Clock) *InMemoryLeaseStore {
	return &InMemoryLeaseStore{
		clock:  clock,
		leases: make(map[string]memoryLease),
	}
}

func (s *InMemoryLeaseStore) Acquire(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if lease, ok := s.leases[key]; ok && lease.expiresAt.After(now) {
		return false, nil
	}

	s.leases[key] = memoryLease{token: token, expiresAt: now.Add(ttl)}

	return true, nil
}

func (s *InMemoryLeaseStore) Release(ctx context.Context, key string, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lease, ok := s.leases[key]; ok && lease.token == token {
		delete(s.leases, key)
	}

	return nil
}

// InMemoryRecordStore 进程内记录存储，重启即失忆，只适合测试与演示。
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]validation.Record
}

// NewInMemoryRecordStore 创建进程内记录存储
func NewInMemoryRecordStore() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[string]validation.Record)}
}

func (s *InMemoryRecordStore) Get(ctx context.Context, chainID uint64, nonce string) (*validation.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordKey(chainID, nonce)]
	if !ok {
		return nil, ErrRecordNotFound
	}

	return &record, nil
}

func (s *InMemoryRecordStore) Insert(ctx context.Context, record validation.Record) (*validation.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(record.ChainID, record.Nonce)
	if existing, ok := s.records[key]; ok {
		return &existing, false, nil
	}

	s.records[key] = record

	return &record, true, nil
}

func recordKey(chainID uint64, nonce string) string {
	return fmt.Sprintf("%d:%s", chainID, nonce)
}
