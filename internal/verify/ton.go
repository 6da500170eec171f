package verify

import (
	"encoding/json"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/chain/ton"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// TONDepositVerifier 用入站消息判定 TON 原生币入金证明。
type TONDepositVerifier struct {
	confirmationDepth uint64
}

// NewTONDepositVerifier 创建 TON 入金校验器
func NewTONDepositVerifier(cfg config.Chain) *TONDepositVerifier {
	return &TONDepositVerifier{confirmationDepth: cfg.ConfirmationDepth}
}

// Verify 判定入金证明。金额单位是 nanoton，按数值比对。
func (v *TONDepositVerifier) Verify(proof validation.Proof, evidence *chain.Evidence) validation.Verdict {
	var payload ton.DepositEvidence
	if err := json.Unmarshal(evidence.Raw, &payload); err != nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if evidence.Confirmations < v.confirmationDepth {
		return validation.Indeterminate(validation.ReasonBelowConfirmationDepth)
	}

	if !claimedMatches(proof.Params.Sender, payload.Sender) {
		return validation.Rejected(validation.ReasonSenderMismatch)
	}
	if !claimedMatches(proof.Params.Receiver, payload.Receiver) {
		return validation.Rejected(validation.ReasonReceiverMismatch)
	}
	if !claimedMatches(proof.Params.TokenID, payload.Token) {
		return validation.Rejected(validation.ReasonTokenMismatch)
	}
	if !amountMatches(proof.Params.Amount, payload.Amount) {
		return validation.Rejected(validation.ReasonAmountMismatch)
	}

	return validation.Authorized()
}
