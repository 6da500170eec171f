package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Chain kinds supported by the verification pipeline. The kind selects both
// the query adapter implementation and the verifier set registered for a chain.
const (
	ChainKindEVM     string = "evm"
	ChainKindStellar string = "stellar"
	ChainKindTON     string = "ton"
	ChainKindSolana  string = "solana"
)

// Chain declares one supported chain: its numeric id, the adapter kind and the
// RPC endpoints queried for evidence.
type Chain struct {
	ID   uint64 `toml:"id"`
	Name string `toml:"name"`
	Kind string `toml:"kind"`
	// Endpoints are fully resolved RPC base URLs. Endpoint selection happens
	// upstream; this service only fans out over what it is given.
	Endpoints []string `toml:"endpoints"`
	// BridgeAddress is the bridge contract queried for withdrawal state.
	// Only meaningful for EVM chains.
	BridgeAddress string `toml:"bridge_address"`
	// TimeoutMillis bounds a single endpoint attempt.
	TimeoutMillis int `toml:"timeout_ms"`
	// MaxAttempts caps the number of fan-out rounds against the endpoint set.
	MaxAttempts int `toml:"max_attempts"`
	// BackoffMillis is the base delay between rounds, doubled per round.
	BackoffMillis int `toml:"backoff_ms"`
	// ConfirmationDepth is the finality depth evidence must have reached
	// before it can authorize a signature.
	ConfirmationDepth uint64 `toml:"confirmation_depth"`
	// Quorum is the number of matching endpoint answers required. 1 means the
	// first definitive answer wins.
	Quorum int `toml:"quorum"`
}

// Timeout returns the per-attempt timeout.
func (c Chain) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

// Backoff returns the base backoff between fan-out rounds.
func (c Chain) Backoff() time.Duration {
	return time.Duration(c.BackoffMillis) * time.Millisecond
}

type chainsFile struct {
	Chains []Chain `toml:"chains"`
}

// LoadChains reads and validates the chain declarations from a TOML file.
func LoadChains(path string) ([]Chain, error) {
	var f chainsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errors.Wrapf(err, "failed to decode chains file %q", path)
	}

	if len(f.Chains) == 0 {
		return nil, errors.Errorf("chains file %q declares no chains", path)
	}

	seen := make(map[uint64]bool, len(f.Chains))
	for i := range f.Chains {
		c := &f.Chains[i]
		if seen[c.ID] {
			return nil, errors.Errorf("duplicate chain id %d", c.ID)
		}
		seen[c.ID] = true

		if err := normalizeChain(c); err != nil {
			return nil, errors.Wrapf(err, "chain %d is invalid", c.ID)
		}
	}

	return f.Chains, nil
}

func normalizeChain(c *Chain) error {
	// 链 id 0 在指标里被用作未知链的折叠标签，不允许真实链占用
	if c.ID == 0 {
		return errors.New("chain id must not be zero")
	}

	switch c.Kind {
	case ChainKindEVM, ChainKindStellar, ChainKindTON, ChainKindSolana:
	default:
		return errors.Errorf("unknown chain kind %q", c.Kind)
	}

	if len(c.Endpoints) == 0 {
		return errors.New("at least one endpoint is required")
	}

	if c.TimeoutMillis <= 0 {
		c.TimeoutMillis = 750
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BackoffMillis <= 0 {
		c.BackoffMillis = 200
	}
	if c.Quorum <= 0 {
		c.Quorum = 1
	}
	if c.Quorum > len(c.Endpoints) {
		return errors.Errorf("quorum %d exceeds endpoint count %d", c.Quorum, len(c.Endpoints))
	}
	if c.ConfirmationDepth == 0 {
		c.ConfirmationDepth = 1
	}

	return nil
}
