package verify

import (
	"sort"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// Registry 静态校验器注册表。启动时按链声明装配，运行期只读，
// 因此并发解析不需要任何锁。
type Registry struct {
	verifiers map[registryKey]validation.Verifier
}

type registryKey struct {
	chainID uint64
	kind    string
}

// NewRegistry 按链声明装配注册表。每条链的种类决定注册哪些校验器；
// 没有桥合约的 EVM 链不注册出金校验器。
func NewRegistry(chains []config.Chain) *Registry {
	r := &Registry{verifiers: make(map[registryKey]validation.Verifier)}

	for _, c := range chains {
		switch c.Kind {
		case config.ChainKindEVM:
			r.register(c.ID, validation.ProofKindDeposit, NewEVMDepositVerifier(c))
			if c.BridgeAddress != "" {
				r.register(c.ID, validation.ProofKindWithdrawalClear, NewEVMWithdrawalVerifier(c))
			}
		case config.ChainKindStellar:
			r.register(c.ID, validation.ProofKindDeposit, NewStellarDepositVerifier(c))
		case config.ChainKindTON:
			r.register(c.ID, validation.ProofKindDeposit, NewTONDepositVerifier(c))
		case config.ChainKindSolana:
			r.register(c.ID, validation.ProofKindDeposit, NewSolanaDepositVerifier(c))
		}
	}

	return r
}

func (r *Registry) register(chainID uint64, kind string, verifier validation.Verifier) {
	r.verifiers[registryKey{chainID: chainID, kind: kind}] = verifier
}

// Resolve 解析链与证明种类对应的校验器
func (r *Registry) Resolve(chainID uint64, kind string) (validation.Verifier, error) {
	verifier, ok := r.verifiers[registryKey{chainID: chainID, kind: kind}]
	if !ok {
		return nil, validation.ErrUnsupportedChain
	}

	return verifier, nil
}

// SupportedKinds 返回某条链注册的全部证明种类，字典序排列
func (r *Registry) SupportedKinds(chainID uint64) []string {
	var kinds []string
	for key := range r.verifiers {
		if key.chainID == chainID {
			kinds = append(kinds, key.kind)
		}
	}

	sort.Strings(kinds)

	return kinds
}
