package evm

// DepositEvent 从桥合约 Deposit 事件日志解码出的字段
type DepositEvent struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Token    string `json:"token"`
	// Amount is the event amount as a decimal string.
	Amount string `json:"amount"`
}

// DepositEvidence 存款证据：回执状态加上解码出的 Deposit 事件
type DepositEvidence struct {
	TxStatus uint64        `json:"tx_status"`
	Deposit  *DepositEvent `json:"deposit,omitempty"`
}

// WithdrawalEvidence 桥合约中一笔出金转账的当前状态
type WithdrawalEvidence struct {
	Exists    bool   `json:"exists"`
	Completed bool   `json:"completed"`
	Receiver  string `json:"receiver,omitempty"`
	Token     string `json:"token,omitempty"`
	Amount    string `json:"amount,omitempty"`
}
