package chain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/chain/ton"
)

// TONTokenNative TON 原生币转账的 token 标识
const TONTokenNative = "ton"

// TONAdapter 从单个 TON Center 端点抓取证据
type TONAdapter struct {
	chainID uint64
	rpc     *ton.RESTClient
}

// NewTONAdapter 创建 TON 适配器
func NewTONAdapter(chainID uint64, endpoint string, timeout time.Duration) *TONAdapter {
	return &TONAdapter{
		chainID: chainID,
		rpc:     ton.NewRESTClient(endpoint, timeout),
	}
}

func (a *TONAdapter) Endpoint() string {
	return a.rpc.Endpoint()
}

// FetchEvidence 按入站消息哈希查询交易
func (a *TONAdapter) FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	txs, err := a.rpc.GetTransactionsByMessage(ctx, nonce)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}
	if len(txs) == 0 {
		return nil, ErrNotFound
	}

	tx := txs[0]
	if tx.InMsg == nil {
		return nil, Malformed(a.Endpoint(), errors.New("transaction has no inbound message"))
	}

	seqno, err := a.rpc.GetMasterchainSeqno(ctx)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}

	payload := ton.DepositEvidence{
		Sender:   tx.InMsg.Source,
		Receiver: tx.InMsg.Destination,
		Token:    TONTokenNative,
		Amount:   tx.InMsg.Value,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal deposit evidence")
	}

	return &Evidence{
		ChainID:       a.chainID,
		Nonce:         nonce,
		Confirmations: confirmations(seqno, tx.McBlockSeqno),
		Raw:           raw,
	}, nil
}

// Probe 探测端点存活并返回主链区块序号
func (a *TONAdapter) Probe(ctx context.Context) (uint64, error) {
	return a.rpc.GetMasterchainSeqno(ctx)
}
