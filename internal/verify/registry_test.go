package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

func registryChains() []config.Chain {
	return []config.Chain{
		{ID: 1, Name: "ethereum", Kind: config.ChainKindEVM, BridgeAddress: "0x5fbdb2315678afecb367f032d93f642f64180aa3"},
		{ID: 137, Name: "polygon", Kind: config.ChainKindEVM},
		{ID: 900, Name: "solana", Kind: config.ChainKindSolana},
		{ID: 1100, Name: "ton", Kind: config.ChainKindTON},
		{ID: 1500, Name: "stellar", Kind: config.ChainKindStellar},
	}
}

func TestRegistryResolvesDeclaredVerifiers(t *testing.T) {
	r := NewRegistry(registryChains())

	for _, chainID := range []uint64{1, 137, 900, 1100, 1500} {
		verifier, err := r.Resolve(chainID, validation.ProofKindDeposit)
		require.NoError(t, err, "chain %d must serve deposit proofs", chainID)
		require.NotNil(t, verifier)
	}

	verifier, err := r.Resolve(1, validation.ProofKindWithdrawalClear)
	require.NoError(t, err)
	require.NotNil(t, verifier)
}

// 没有声明桥合约的 EVM 链不提供出金结清校验
func TestRegistryRequiresBridgeForWithdrawals(t *testing.T) {
	r := NewRegistry(registryChains())

	_, err := r.Resolve(137, validation.ProofKindWithdrawalClear)
	require.ErrorIs(t, err, validation.ErrUnsupportedChain)
}

func TestRegistryRejectsUnknownTargets(t *testing.T) {
	r := NewRegistry(registryChains())

	_, err := r.Resolve(424242, validation.ProofKindDeposit)
	require.ErrorIs(t, err, validation.ErrUnsupportedChain)

	_, err = r.Resolve(1, "proof_of_burn")
	require.ErrorIs(t, err, validation.ErrUnsupportedChain)
}

func TestRegistrySupportedKinds(t *testing.T) {
	r := NewRegistry(registryChains())

	assert.Equal(t, []string{validation.ProofKindDeposit, validation.ProofKindWithdrawalClear}, r.SupportedKinds(1))
	assert.Equal(t, []string{validation.ProofKindDeposit}, r.SupportedKinds(137))
	assert.Empty(t, r.SupportedKinds(424242))
}
