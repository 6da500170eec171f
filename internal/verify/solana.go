package verify

import (
	"encoding/json"
	"strconv"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/chain/solana"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// SolanaDepositVerifier 用系统程序转账指令判定 SOL 入金证明。
type SolanaDepositVerifier struct {
	confirmationDepth uint64
}

// NewSolanaDepositVerifier 创建 Solana 入金校验器
func NewSolanaDepositVerifier(cfg config.Chain) *SolanaDepositVerifier {
	return &SolanaDepositVerifier{confirmationDepth: cfg.ConfirmationDepth}
}

// Verify 判定入金证明。金额单位是 lamports；交易里没有系统转账指令
// 或交易执行失败时，证明永远不可能成立。
func (v *SolanaDepositVerifier) Verify(proof validation.Proof, evidence *chain.Evidence) validation.Verdict {
	var payload solana.DepositEvidence
	if err := json.Unmarshal(evidence.Raw, &payload); err != nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if evidence.Confirmations < v.confirmationDepth {
		return validation.Indeterminate(validation.ReasonBelowConfirmationDepth)
	}

	if payload.TxFailed || payload.Deposit == nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	deposit := payload.Deposit
	if !claimedMatches(proof.Params.Sender, deposit.Source) {
		return validation.Rejected(validation.ReasonSenderMismatch)
	}
	if !claimedMatches(proof.Params.Receiver, deposit.Destination) {
		return validation.Rejected(validation.ReasonReceiverMismatch)
	}
	if !claimedMatches(proof.Params.TokenID, chain.SolanaTokenNative) {
		return validation.Rejected(validation.ReasonTokenMismatch)
	}
	if !amountMatches(proof.Params.Amount, strconv.FormatUint(deposit.Lamports, 10)) {
		return validation.Rejected(validation.ReasonAmountMismatch)
	}

	return validation.Authorized()
}
