package chain

import (
	"context"
	"crypto/sha256"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// Pool fans a single evidence fetch out over every endpoint of one chain.
// Endpoints are shuffled per request, queried concurrently with a per-attempt
// timeout and the answers are tallied into exactly one of three results:
// evidence, a definitive not-found or a transient failure worth retrying.
type Pool struct {
	chain    config.Chain
	adapters []Adapter
	metrics  *metrics.Service
}

// NewPool builds the endpoint pool for one declared chain.
func NewPool(cfg config.Chain, m *metrics.Service) (*Pool, error) {
	adapters := make([]Adapter, 0, len(cfg.Endpoints))
	for _, endpoint := range cfg.Endpoints {
		adapter, err := newAdapter(cfg, endpoint)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build adapter for endpoint %q", metrics.Domain(endpoint))
		}

		adapters = append(adapters, adapter)
	}

	return &Pool{
		chain:    cfg,
		adapters: adapters,
		metrics:  m,
	}, nil
}

func newAdapter(cfg config.Chain, endpoint string) (Adapter, error) {
	switch cfg.Kind {
	case config.ChainKindEVM:
		return NewEVMAdapter(cfg.ID, endpoint, cfg.BridgeAddress, cfg.Timeout())
	case config.ChainKindStellar:
		return NewStellarAdapter(cfg.ID, endpoint, cfg.Timeout()), nil
	case config.ChainKindTON:
		return NewTONAdapter(cfg.ID, endpoint, cfg.Timeout()), nil
	case config.ChainKindSolana:
		return NewSolanaAdapter(cfg.ID, endpoint, cfg.Timeout()), nil
	default:
		return nil, errors.Errorf("unknown chain kind %q", cfg.Kind)
	}
}

// Chain returns the chain declaration this pool serves.
func (p *Pool) Chain() config.Chain {
	return p.chain
}

// Adapters returns the endpoint adapters of this pool.
func (p *Pool) Adapters() []Adapter {
	return p.adapters
}

// FetchEvidence runs fan-out rounds until one yields a definitive answer or
// the attempt budget is spent. A round that only produced transient failures
// triggers an exponential backoff before the next one. ErrNotFound is passed
// through untouched so callers can tell absence from unavailability.
func (p *Pool) FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	log := util.LogFromContext(ctx)

	backoff := p.chain.Backoff()
	var lastErr error

	for attempt := 1; attempt <= p.chain.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "evidence fetch aborted")
			case <-time.After(backoff):
			}

			backoff *= 2
		}

		evidence, err := p.round(ctx, kind, nonce)
		if err == nil {
			return evidence, nil
		}

		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}

		lastErr = err
		log.Debug().
			Uint64("chainID", p.chain.ID).
			Int("attempt", attempt).
			Err(err).
			Msg("Evidence fetch round failed")
	}

	return nil, errors.Wrapf(lastErr, "all %d fetch rounds failed for chain %d", p.chain.MaxAttempts, p.chain.ID)
}

type fetchResult struct {
	endpoint string
	evidence *Evidence
	err      error
}

// round queries every endpoint once, concurrently, and folds the answers.
// Evidence beats not-found within a round: a node that has not seen the
// transaction yet must not override one that has.
func (p *Pool) round(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	log := util.LogFromContext(ctx)

	order := make([]Adapter, len(p.adapters))
	copy(order, p.adapters)
	rand.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	results := make([]fetchResult, len(order))

	var wg sync.WaitGroup
	for i, adapter := range order {
		wg.Add(1)

		go func(i int, adapter Adapter) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, p.chain.Timeout())
			defer cancel()

			start := time.Now()
			evidence, err := adapter.FetchEvidence(callCtx, kind, nonce)
			p.metrics.ObserveFetch(p.chain.ID, adapter.Endpoint(), time.Since(start))

			results[i] = fetchResult{endpoint: adapter.Endpoint(), evidence: evidence, err: err}
		}(i, adapter)
	}
	wg.Wait()

	var evidences []*Evidence
	notFound := 0
	var firstErr error

	for _, res := range results {
		switch {
		case res.err == nil:
			evidences = append(evidences, res.evidence)
		case errors.Is(res.err, ErrNotFound):
			notFound++
		default:
			errKind := "transient"
			if IsMalformed(res.err) {
				errKind = "malformed"
			}

			p.metrics.IncEndpointError(p.chain.ID, res.endpoint, errKind)
			log.Warn().
				Uint64("chainID", p.chain.ID).
				Str("endpoint", metrics.Domain(res.endpoint)).
				Err(res.err).
				Msg("Endpoint failed to serve evidence")

			if firstErr == nil {
				firstErr = res.err
			}
		}
	}

	if evidence := p.electEvidence(evidences); evidence != nil {
		return evidence, nil
	}

	if len(evidences) > 0 {
		return nil, errors.Errorf("evidence quorum of %d not reached with %d answers on chain %d", p.chain.Quorum, len(evidences), p.chain.ID)
	}

	// Absence is only definitive once enough endpoints affirmed it.
	if notFound >= p.chain.Quorum {
		return nil, ErrNotFound
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return nil, errors.Errorf("no endpoint of chain %d produced a definitive answer", p.chain.ID)
}

// electEvidence picks the winning evidence of a round. With a quorum of one
// the deepest-confirmed answer wins outright; otherwise answers vote by the
// digest of their raw payload and only a group reaching the quorum may win.
func (p *Pool) electEvidence(evidences []*Evidence) *Evidence {
	if len(evidences) == 0 {
		return nil
	}

	if p.chain.Quorum <= 1 {
		return deepestEvidence(evidences)
	}

	groups := make(map[[sha256.Size]byte][]*Evidence)
	for _, evidence := range evidences {
		digest := sha256.Sum256(evidence.Raw)
		groups[digest] = append(groups[digest], evidence)
	}

	var winner []*Evidence
	for _, group := range groups {
		if len(group) < p.chain.Quorum {
			continue
		}

		if len(group) > len(winner) {
			winner = group
		}
	}

	return deepestEvidence(winner)
}

func deepestEvidence(evidences []*Evidence) *Evidence {
	var best *Evidence
	for _, evidence := range evidences {
		if best == nil || evidence.Confirmations > best.Confirmations {
			best = evidence
		}
	}

	return best
}

// Pools routes evidence fetches to the pool of the proof's chain.
type Pools struct {
	byChainID map[uint64]*Pool
}

// NewPools builds one pool per declared chain.
func NewPools(chains []config.Chain, m *metrics.Service) (*Pools, error) {
	byChainID := make(map[uint64]*Pool, len(chains))
	for _, cfg := range chains {
		pool, err := NewPool(cfg, m)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to build pool for chain %d", cfg.ID)
		}

		byChainID[cfg.ID] = pool
	}

	return &Pools{byChainID: byChainID}, nil
}

// FetchEvidence fetches evidence for the given chain, proof kind and
// transaction reference.
func (p *Pools) FetchEvidence(ctx context.Context, chainID uint64, kind string, nonce string) (*Evidence, error) {
	pool, ok := p.byChainID[chainID]
	if !ok {
		return nil, errors.Errorf("no endpoint pool for chain %d", chainID)
	}

	return pool.FetchEvidence(ctx, kind, nonce)
}

// Get returns the pool serving the given chain.
func (p *Pools) Get(chainID uint64) (*Pool, bool) {
	pool, ok := p.byChainID[chainID]
	return pool, ok
}

// All returns every pool ordered by chain id.
func (p *Pools) All() []*Pool {
	pools := make([]*Pool, 0, len(p.byChainID))
	for _, pool := range p.byChainID {
		pools = append(pools, pool)
	}

	sort.Slice(pools, func(i, j int) bool {
		return pools[i].chain.ID < pools[j].chain.ID
	})

	return pools
}
