package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// 证明种类。种类与链一起决定注册表里负责的校验器。
const (
	ProofKindDeposit         string = "deposit"
	ProofKindWithdrawalClear string = "withdrawal_clear"
)

// ProofParams 请求方声称的交易事实。校验器把它与链上证据逐字段精确
// 比对，任何一个字段不符都会拒绝请求。
type ProofParams struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	TokenID  string `json:"token_id,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

// Proof 指向一条链上事件。(ChainID, Nonce) 是自然键：nonce 是链级唯一
// 的交易引用，被第一个终局判定消耗后对所有后续请求永久关闭。
type Proof struct {
	ChainID uint64      `json:"chain_id"`
	Kind    string      `json:"kind"`
	Nonce   string      `json:"nonce"`
	Params  ProofParams `json:"params"`
}

// SigningRequest 请求签名网络对 Message 签名，前提是 Proof 通过验证。
type SigningRequest struct {
	Message     []byte    `json:"message"`
	Proof       Proof     `json:"proof"`
	RequestedAt time.Time `json:"requested_at"`
}

// Validate 做形状检查。不通过的请求以 malformed_request 拒绝，
// 并且不允许触碰台账。
func (r SigningRequest) Validate() error {
	if len(r.Message) == 0 {
		return errors.New("message must not be empty")
	}
	if r.Proof.ChainID == 0 {
		return errors.New("proof chain id must not be zero")
	}
	if strings.TrimSpace(r.Proof.Nonce) == "" {
		return errors.New("proof nonce must not be empty")
	}
	if r.Proof.Kind == "" {
		return errors.New("proof kind must not be empty")
	}

	return nil
}

// Fingerprint 请求的规范摘要，用于幂等重放：指纹相同的请求被视为同一
// 请求的重试。提交时间戳刻意不参与计算，重试不会改变指纹。
func (r SigningRequest) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00", r.Proof.ChainID, r.Proof.Kind, r.Proof.Nonce)
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00%s\x00", r.Proof.Params.Sender, r.Proof.Params.Receiver, r.Proof.Params.TokenID, r.Proof.Params.Amount)
	h.Write(r.Message)

	return hex.EncodeToString(h.Sum(nil))
}

// Record 一个 nonce 键的不可变消耗记录。每个 (chain id, nonce) 至多
// 存在一条，写入后永不修改。
type Record struct {
	ChainID     uint64    `json:"chain_id"`
	Nonce       string    `json:"nonce"`
	Outcome     Outcome   `json:"outcome"`
	Reason      Reason    `json:"reason,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	ConsumedAt  time.Time `json:"consumed_at"`
}

// Reservation 一个 nonce 键上的短租独占预留，请求在途期间持有。
// Token 标识持有者，提交或释放时必须出示。
type Reservation struct {
	ChainID   uint64
	Nonce     string
	Token     string
	ExpiresAt time.Time
}

// Token 交给签名网络的授权凭证。只有授权判定才会产生。
type Token struct {
	ID        string    `json:"id"`
	Signed    string    `json:"signed"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrUnsupportedChain 注册表里没有该链与证明种类的校验器
var ErrUnsupportedChain = errors.New("no verifier registered for chain and proof kind")

// ErrReservationHeld 同键请求正在途中，本请求未观测任何状态
var ErrReservationHeld = errors.New("nonce reservation is held by a concurrent request")

// ErrRecordConflict 提交时发现并发写入者已经落账
var ErrRecordConflict = errors.New("nonce record was written by a concurrent request")
