package chain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/chain/solana"
)

// SolanaTokenNative Solana 原生币转账的 token 标识
const SolanaTokenNative = "sol"

const solanaSignatureLen = 64

// SolanaAdapter 从单个 Solana RPC 端点抓取证据
type SolanaAdapter struct {
	chainID uint64
	rpc     *solana.RPCClient
}

// NewSolanaAdapter 创建 Solana 适配器
func NewSolanaAdapter(chainID uint64, endpoint string, timeout time.Duration) *SolanaAdapter {
	return &SolanaAdapter{
		chainID: chainID,
		rpc:     solana.NewRPCClient(endpoint, timeout),
	}
}

func (a *SolanaAdapter) Endpoint() string {
	return a.rpc.Endpoint()
}

// FetchEvidence 按交易签名查询交易并解析系统转账
func (a *SolanaAdapter) FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	// 签名必须是 64 字节的 Base58，否则不可能对应任何交易
	if raw := base58.Decode(nonce); len(raw) != solanaSignatureLen {
		return nil, ErrNotFound
	}

	tx, err := a.rpc.GetTransaction(ctx, nonce)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}
	if tx == nil {
		return nil, ErrNotFound
	}

	slot, err := a.rpc.GetSlot(ctx)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}

	payload := solana.DepositEvidence{
		TxFailed: tx.Failed(),
		Deposit:  findSystemTransfer(tx),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal deposit evidence")
	}

	return &Evidence{
		ChainID:       a.chainID,
		Nonce:         nonce,
		Confirmations: confirmations(slot, tx.Slot),
		Raw:           raw,
	}, nil
}

// Probe 探测端点存活并返回当前 slot
func (a *SolanaAdapter) Probe(ctx context.Context) (uint64, error) {
	return a.rpc.GetSlot(ctx)
}

// findSystemTransfer 取交易中的第一条系统转账指令
func findSystemTransfer(tx *solana.TransactionResult) *solana.ParsedInfo {
	for _, ins := range tx.Transaction.Message.Instructions {
		if ins.Program != "system" || ins.Parsed == nil {
			continue
		}
		if ins.Parsed.Type != "transfer" {
			continue
		}

		info := ins.Parsed.Info
		return &info
	}

	return nil
}
