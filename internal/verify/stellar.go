package verify

import (
	"encoding/json"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/chain/stellar"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// StellarDepositVerifier 用 Soroban 合约调用的返回值判定入金证明。
type StellarDepositVerifier struct {
	confirmationDepth uint64
}

// NewStellarDepositVerifier 创建 Stellar 入金校验器
func NewStellarDepositVerifier(cfg config.Chain) *StellarDepositVerifier {
	return &StellarDepositVerifier{confirmationDepth: cfg.ConfirmationDepth}
}

// Verify 判定入金证明。Stellar 地址与资产标识大小写敏感，逐字比对。
func (v *StellarDepositVerifier) Verify(proof validation.Proof, evidence *chain.Evidence) validation.Verdict {
	var payload stellar.DepositEvidence
	if err := json.Unmarshal(evidence.Raw, &payload); err != nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if evidence.Confirmations < v.confirmationDepth {
		return validation.Indeterminate(validation.ReasonBelowConfirmationDepth)
	}

	if payload.Status != stellar.TxStatusSuccess || payload.Deposit == nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	deposit := payload.Deposit
	if !claimedMatches(proof.Params.Sender, deposit.Sender) {
		return validation.Rejected(validation.ReasonSenderMismatch)
	}
	if !claimedMatches(proof.Params.Receiver, deposit.Receiver) {
		return validation.Rejected(validation.ReasonReceiverMismatch)
	}
	if !claimedMatches(proof.Params.TokenID, deposit.Token) {
		return validation.Rejected(validation.ReasonTokenMismatch)
	}
	if !amountMatches(proof.Params.Amount, deposit.Amount) {
		return validation.Rejected(validation.ReasonAmountMismatch)
	}

	return validation.Authorized()
}
