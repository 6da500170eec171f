package chain

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dropbox/godropbox/time2"
	"golang.org/x/sync/errgroup"

	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// EndpointHealth is the last probe result of one endpoint.
type EndpointHealth struct {
	ChainID   uint64
	Endpoint  string
	Healthy   bool
	Head      uint64
	Err       string
	CheckedAt time.Time
}

// HealthChecker periodically probes every configured endpoint with the cheap
// per-chain head query and keeps the last result per endpoint. Probe results
// never gate request handling; a request still fans out over all endpoints.
type HealthChecker struct {
	pools    *Pools
	metrics  *metrics.Service
	clock    time2.Clock
	interval time.Duration
	timeout  time.Duration

	mu   sync.RWMutex
	last map[string]EndpointHealth
}

// NewHealthChecker builds the endpoint health checker over all pools.
func NewHealthChecker(pools *Pools, m *metrics.Service, clock time2.Clock, interval time.Duration, timeout time.Duration) *HealthChecker {
	return &HealthChecker{
		pools:    pools,
		metrics:  m,
		clock:    clock,
		interval: interval,
		timeout:  timeout,
		last:     make(map[string]EndpointHealth),
	}
}

// Run probes all endpoints once immediately and then on every interval tick
// until the context is cancelled.
func (h *HealthChecker) Run(ctx context.Context) {
	log := util.LogFromContext(ctx)

	if err := h.RunOnce(ctx); err != nil {
		log.Warn().Err(err).Msg("Endpoint healthcheck reported failures")
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := h.RunOnce(ctx); err != nil {
				log.Warn().Err(err).Msg("Endpoint healthcheck reported failures")
			}
		}
	}
}

// RunOnce probes every endpoint of every pool concurrently. It returns the
// first probe error so callers can surface a degraded endpoint set; the
// snapshot is updated for all endpoints regardless.
func (h *HealthChecker) RunOnce(ctx context.Context) error {
	g := new(errgroup.Group)

	for _, pool := range h.pools.All() {
		chainID := pool.Chain().ID

		for _, adapter := range pool.Adapters() {
			adapter := adapter

			g.Go(func() error {
				probeCtx, cancel := context.WithTimeout(ctx, h.timeout)
				defer cancel()

				head, err := adapter.Probe(probeCtx)
				h.record(chainID, adapter.Endpoint(), head, err)

				if err != nil {
					return fmt.Errorf("probe of %s failed: %w", metrics.Domain(adapter.Endpoint()), err)
				}

				return nil
			})
		}
	}

	return g.Wait()
}

func (h *HealthChecker) record(chainID uint64, endpoint string, head uint64, err error) {
	health := EndpointHealth{
		ChainID:   chainID,
		Endpoint:  endpoint,
		Healthy:   err == nil,
		Head:      head,
		CheckedAt: h.clock.Now(),
	}
	if err != nil {
		health.Err = err.Error()
	}

	h.metrics.SetEndpointUp(chainID, endpoint, health.Healthy)

	h.mu.Lock()
	h.last[healthKey(chainID, endpoint)] = health
	h.mu.Unlock()
}

// Snapshot returns the last known health of every endpoint, ordered by chain
// id and endpoint. Endpoints never probed so far are reported unhealthy with
// an empty check time.
func (h *HealthChecker) Snapshot() []EndpointHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []EndpointHealth
	for _, pool := range h.pools.All() {
		chainID := pool.Chain().ID

		for _, adapter := range pool.Adapters() {
			if health, ok := h.last[healthKey(chainID, adapter.Endpoint())]; ok {
				out = append(out, health)
				continue
			}

			out = append(out, EndpointHealth{ChainID: chainID, Endpoint: adapter.Endpoint()})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ChainID != out[j].ChainID {
			return out[i].ChainID < out[j].ChainID
		}
		return out[i].Endpoint < out[j].Endpoint
	})

	return out
}

// Healthy reports whether every chain currently has at least one healthy
// endpoint.
func (h *HealthChecker) Healthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, pool := range h.pools.All() {
		chainID := pool.Chain().ID

		healthy := false
		for _, adapter := range pool.Adapters() {
			if health, ok := h.last[healthKey(chainID, adapter.Endpoint())]; ok && health.Healthy {
				healthy = true
				break
			}
		}

		if !healthy {
			return false
		}
	}

	return true
}

func healthKey(chainID uint64, endpoint string) string {
	return fmt.Sprintf("%d|%s", chainID, endpoint)
}
