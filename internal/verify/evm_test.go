package verify

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/chain/evm"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// testEvidence 把适配器载荷包进证据信封
func testEvidence(t *testing.T, confirmations uint64, payload interface{}) *chain.Evidence {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	return &chain.Evidence{
		ChainID:       1,
		Nonce:         "0x8ff3f4cd3fda7d57f766782ce3d6ba8bfa0f37cb9b54330c0b9b23781a4c7e51",
		Confirmations: confirmations,
		Raw:           raw,
	}
}

func evmDepositPayload() evm.DepositEvidence {
	return evm.DepositEvidence{
		TxStatus: 1,
		Deposit: &evm.DepositEvent{
			Sender:   "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1",
			Receiver: "0xffcf8fdee72ac11b5c542428b35eef5769c409f0",
			Token:    "0x0000000000000000000000000000000000000000",
			Amount:   "1000000000000000000",
		},
	}
}

func evmDepositProof(params validation.ProofParams) validation.Proof {
	return validation.Proof{
		ChainID: 1,
		Kind:    validation.ProofKindDeposit,
		Nonce:   "0x8ff3f4cd3fda7d57f766782ce3d6ba8bfa0f37cb9b54330c0b9b23781a4c7e51",
		Params:  params,
	}
}

func TestEVMDepositVerifierAuthorizes(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 6})

	proof := evmDepositProof(validation.ProofParams{
		Sender:   "0x90F8bf6A479F320ead074411A4B0e7944eA8c9C1",
		Receiver: "0xFFcf8FDEE72ac11b5c542428B35EEF5769C409f0",
		TokenID:  "0x0000000000000000000000000000000000000000",
		Amount:   "1000000000000000000",
	})

	verdict := v.Verify(proof, testEvidence(t, 6, evmDepositPayload()))
	assert.True(t, verdict.IsAuthorized(), "checksummed claims must match lowercase evidence")
}

func TestEVMDepositVerifierWithoutClaims(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 6})

	// 不作任何字段主张的证明只依赖交易本身存在且成功
	verdict := v.Verify(evmDepositProof(validation.ProofParams{}), testEvidence(t, 100, evmDepositPayload()))
	assert.True(t, verdict.IsAuthorized())
}

// 深度门槛先于一切内容判断：浅证据连失败交易都不允许拒绝
func TestEVMDepositVerifierDepthGateComesFirst(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 6})

	payload := evmDepositPayload()
	payload.TxStatus = 0
	payload.Deposit = nil

	verdict := v.Verify(evmDepositProof(validation.ProofParams{}), testEvidence(t, 3, payload))
	require.True(t, verdict.IsIndeterminate())
	assert.Equal(t, validation.ReasonBelowConfirmationDepth, verdict.Reason)
}

func TestEVMDepositVerifierRejectsBadEvidenceShape(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 1})

	verdict := v.Verify(evmDepositProof(validation.ProofParams{}), &chain.Evidence{Confirmations: 10, Raw: []byte("not json")})
	require.True(t, verdict.IsRejected())
	assert.Equal(t, validation.ReasonMalformedEvidence, verdict.Reason)

	failed := evmDepositPayload()
	failed.TxStatus = 0
	verdict = v.Verify(evmDepositProof(validation.ProofParams{}), testEvidence(t, 10, failed))
	require.True(t, verdict.IsRejected())
	assert.Equal(t, validation.ReasonMalformedEvidence, verdict.Reason, "reverted transactions can never prove a deposit")

	missing := evmDepositPayload()
	missing.Deposit = nil
	verdict = v.Verify(evmDepositProof(validation.ProofParams{}), testEvidence(t, 10, missing))
	require.True(t, verdict.IsRejected())
	assert.Equal(t, validation.ReasonMalformedEvidence, verdict.Reason, "a receipt without the event can never prove a deposit")
}

func TestEVMDepositVerifierFieldMismatches(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 6})
	evidence := testEvidence(t, 12, evmDepositPayload())

	cases := []struct {
		name   string
		params validation.ProofParams
		reason validation.Reason
	}{
		{"sender", validation.ProofParams{Sender: "0x1111111111111111111111111111111111111111"}, validation.ReasonSenderMismatch},
		{"receiver", validation.ProofParams{Receiver: "0x2222222222222222222222222222222222222222"}, validation.ReasonReceiverMismatch},
		{"token", validation.ProofParams{TokenID: "0x3333333333333333333333333333333333333333"}, validation.ReasonTokenMismatch},
		{"amount", validation.ProofParams{Amount: "999"}, validation.ReasonAmountMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			verdict := v.Verify(evmDepositProof(tc.params), evidence)
			require.True(t, verdict.IsRejected())
			assert.Equal(t, tc.reason, verdict.Reason)
		})
	}
}

func TestEVMDepositVerifierAmountIsNumeric(t *testing.T) {
	v := NewEVMDepositVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 1})

	proof := evmDepositProof(validation.ProofParams{Amount: "01000000000000000000"})
	verdict := v.Verify(proof, testEvidence(t, 6, evmDepositPayload()))
	assert.True(t, verdict.IsAuthorized(), "leading zeros must not change the claimed amount")
}

func evmWithdrawalPayload() evm.WithdrawalEvidence {
	return evm.WithdrawalEvidence{
		Exists:    true,
		Completed: true,
		Receiver:  "0xffcf8fdee72ac11b5c542428b35eef5769c409f0",
		Token:     "0x0000000000000000000000000000000000000000",
		Amount:    "250000000000000000",
	}
}

func evmWithdrawalProof(params validation.ProofParams) validation.Proof {
	return validation.Proof{
		ChainID: 1,
		Kind:    validation.ProofKindWithdrawalClear,
		Nonce:   "7",
		Params:  params,
	}
}

// 桥合约状态按链头读取，零确认深度也必须能授权
func TestEVMWithdrawalVerifierAuthorizes(t *testing.T) {
	v := NewEVMWithdrawalVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM, ConfirmationDepth: 6})

	proof := evmWithdrawalProof(validation.ProofParams{
		Receiver: "0xFFCF8FDEE72AC11B5C542428B35EEF5769C409F0",
		Amount:   "250000000000000000",
	})

	verdict := v.Verify(proof, testEvidence(t, 0, evmWithdrawalPayload()))
	assert.True(t, verdict.IsAuthorized())
}

func TestEVMWithdrawalVerifierPendingTransfer(t *testing.T) {
	v := NewEVMWithdrawalVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM})

	payload := evmWithdrawalPayload()
	payload.Completed = false

	verdict := v.Verify(evmWithdrawalProof(validation.ProofParams{}), testEvidence(t, 0, payload))
	require.True(t, verdict.IsIndeterminate())
	assert.Equal(t, validation.ReasonWithdrawalPending, verdict.Reason, "an incomplete transfer may still clear later")
}

func TestEVMWithdrawalVerifierUnknownTransfer(t *testing.T) {
	v := NewEVMWithdrawalVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM})

	payload := evmWithdrawalPayload()
	payload.Exists = false

	verdict := v.Verify(evmWithdrawalProof(validation.ProofParams{}), testEvidence(t, 0, payload))
	require.True(t, verdict.IsRejected())
	assert.Equal(t, validation.ReasonMalformedEvidence, verdict.Reason)
}

// 桥转账记录没有发起方字段，任何发起方主张都无法证实
func TestEVMWithdrawalVerifierRejectsSenderClaim(t *testing.T) {
	v := NewEVMWithdrawalVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM})

	proof := evmWithdrawalProof(validation.ProofParams{Sender: "0x90f8bf6a479f320ead074411a4b0e7944ea8c9c1"})
	verdict := v.Verify(proof, testEvidence(t, 0, evmWithdrawalPayload()))
	require.True(t, verdict.IsRejected())
	assert.Equal(t, validation.ReasonSenderMismatch, verdict.Reason)
}

func TestEVMWithdrawalVerifierFieldMismatches(t *testing.T) {
	v := NewEVMWithdrawalVerifier(config.Chain{ID: 1, Kind: config.ChainKindEVM})
	evidence := testEvidence(t, 0, evmWithdrawalPayload())

	verdict := v.Verify(evmWithdrawalProof(validation.ProofParams{Receiver: "0x1111111111111111111111111111111111111111"}), evidence)
	assert.Equal(t, validation.ReasonReceiverMismatch, verdict.Reason)

	verdict = v.Verify(evmWithdrawalProof(validation.ProofParams{TokenID: "0x2222222222222222222222222222222222222222"}), evidence)
	assert.Equal(t, validation.ReasonTokenMismatch, verdict.Reason)

	verdict = v.Verify(evmWithdrawalProof(validation.ProofParams{Amount: "1"}), evidence)
	assert.Equal(t, validation.ReasonAmountMismatch, verdict.Reason)

	verdict = v.Verify(evmWithdrawalProof(validation.ProofParams{}), &chain.Evidence{Raw: []byte("garbage")})
	assert.Equal(t, validation.ReasonMalformedEvidence, verdict.Reason)
}
