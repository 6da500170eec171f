package verify

import (
	"encoding/json"

	"github.com/kashguard/go-validation-infra/internal/chain"
	"github.com/kashguard/go-validation-infra/internal/chain/evm"
	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// evmTxStatusSuccess 回执状态字段中表示执行成功的值
const evmTxStatusSuccess uint64 = 1

// EVMDepositVerifier 用回执里的 Deposit 事件判定入金证明。
type EVMDepositVerifier struct {
	confirmationDepth uint64
}

// NewEVMDepositVerifier 创建 EVM 入金校验器
func NewEVMDepositVerifier(cfg config.Chain) *EVMDepositVerifier {
	return &EVMDepositVerifier{confirmationDepth: cfg.ConfirmationDepth}
}

// Verify 判定入金证明。深度门槛先于一切内容判断：浅于确认深度的证据
// 还可能被重组改写，不允许以它为依据消耗 nonce。
func (v *EVMDepositVerifier) Verify(proof validation.Proof, evidence *chain.Evidence) validation.Verdict {
	var payload evm.DepositEvidence
	if err := json.Unmarshal(evidence.Raw, &payload); err != nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if evidence.Confirmations < v.confirmationDepth {
		return validation.Indeterminate(validation.ReasonBelowConfirmationDepth)
	}

	// 交易失败或回执里根本没有 Deposit 事件，证明永远不可能成立
	if payload.TxStatus != evmTxStatusSuccess || payload.Deposit == nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	return matchEVMDeposit(proof.Params, payload.Deposit)
}

func matchEVMDeposit(claimed validation.ProofParams, actual *evm.DepositEvent) validation.Verdict {
	if !hexMatches(claimed.Sender, actual.Sender) {
		return validation.Rejected(validation.ReasonSenderMismatch)
	}
	if !hexMatches(claimed.Receiver, actual.Receiver) {
		return validation.Rejected(validation.ReasonReceiverMismatch)
	}
	if !hexMatches(claimed.TokenID, actual.Token) {
		return validation.Rejected(validation.ReasonTokenMismatch)
	}
	if !amountMatches(claimed.Amount, actual.Amount) {
		return validation.Rejected(validation.ReasonAmountMismatch)
	}

	return validation.Authorized()
}

// EVMWithdrawalVerifier 用桥合约状态判定出金已结清证明。
type EVMWithdrawalVerifier struct{}

// NewEVMWithdrawalVerifier 创建 EVM 出金结清校验器
func NewEVMWithdrawalVerifier(cfg config.Chain) *EVMWithdrawalVerifier {
	return &EVMWithdrawalVerifier{}
}

// Verify 判定出金结清证明。桥合约状态按链头读取，没有确认深度概念；
// 转账存在但尚未结清时返回未决，等它在桥上完成。
func (v *EVMWithdrawalVerifier) Verify(proof validation.Proof, evidence *chain.Evidence) validation.Verdict {
	var payload evm.WithdrawalEvidence
	if err := json.Unmarshal(evidence.Raw, &payload); err != nil {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if !payload.Exists {
		return validation.Rejected(validation.ReasonMalformedEvidence)
	}

	if !payload.Completed {
		return validation.Indeterminate(validation.ReasonWithdrawalPending)
	}

	// 桥转账记录没有发起方，无法证实对发起方的主张
	if claimed := proof.Params.Sender; claimed != "" {
		return validation.Rejected(validation.ReasonSenderMismatch)
	}
	if !hexMatches(proof.Params.Receiver, payload.Receiver) {
		return validation.Rejected(validation.ReasonReceiverMismatch)
	}
	if !hexMatches(proof.Params.TokenID, payload.Token) {
		return validation.Rejected(validation.ReasonTokenMismatch)
	}
	if !amountMatches(proof.Params.Amount, payload.Amount) {
		return validation.Rejected(validation.ReasonAmountMismatch)
	}

	return validation.Authorized()
}
