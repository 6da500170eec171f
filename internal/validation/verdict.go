package validation

// Outcome 判定结果的三态
type Outcome string

const (
	OutcomeAuthorized    Outcome = "authorized"
	OutcomeRejected      Outcome = "rejected"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// Reason 非授权判定的机器可读原因
type Reason string

const (
	ReasonNone Reason = ""

	// 拒绝类：证明永远不可能变为有效
	ReasonMalformedRequest  Reason = "malformed_request"
	ReasonUnsupportedChain  Reason = "unsupported_chain"
	ReasonNoSuchTransaction Reason = "no_such_transaction"
	ReasonNonceConsumed     Reason = "nonce_consumed"
	ReasonSenderMismatch    Reason = "sender_mismatch"
	ReasonReceiverMismatch  Reason = "receiver_mismatch"
	ReasonTokenMismatch     Reason = "token_mismatch"
	ReasonAmountMismatch    Reason = "amount_mismatch"
	ReasonMalformedEvidence Reason = "malformed_evidence"

	// 未决类：重试可能得到不同答案
	ReasonBelowConfirmationDepth Reason = "below_confirmation_depth"
	ReasonWithdrawalPending      Reason = "withdrawal_pending"
	ReasonChainUnavailable       Reason = "chain_unavailable"
	ReasonReservationHeld        Reason = "reservation_held"
	ReasonLedgerUnavailable      Reason = "ledger_unavailable"
)

// Verdict 对单个签名请求的判定。Authorized 永远不携带原因；
// Rejected 与 Indeterminate 必须携带原因。
type Verdict struct {
	Outcome Outcome `json:"outcome"`
	Reason  Reason  `json:"reason,omitempty"`
}

// Authorized 构造授权判定
func Authorized() Verdict {
	return Verdict{Outcome: OutcomeAuthorized}
}

// Rejected 构造拒绝判定
func Rejected(reason Reason) Verdict {
	return Verdict{Outcome: OutcomeRejected, Reason: reason}
}

// Indeterminate 构造未决判定
func Indeterminate(reason Reason) Verdict {
	return Verdict{Outcome: OutcomeIndeterminate, Reason: reason}
}

func (v Verdict) IsAuthorized() bool {
	return v.Outcome == OutcomeAuthorized
}

func (v Verdict) IsRejected() bool {
	return v.Outcome == OutcomeRejected
}

func (v Verdict) IsIndeterminate() bool {
	return v.Outcome == OutcomeIndeterminate
}

// IsTerminal 判定是否消耗 nonce。只有授权与拒绝会写入台账；
// 未决判定必须释放预留，让同一请求可以重试。
func (v Verdict) IsTerminal() bool {
	return v.Outcome == OutcomeAuthorized || v.Outcome == OutcomeRejected
}
