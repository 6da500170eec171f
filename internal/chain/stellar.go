package chain

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/chain/stellar"
)

// StellarAdapter 从单个 Soroban RPC 端点抓取证据
type StellarAdapter struct {
	chainID uint64
	rpc     *stellar.RPCClient
}

// NewStellarAdapter 创建 Stellar 适配器
func NewStellarAdapter(chainID uint64, endpoint string, timeout time.Duration) *StellarAdapter {
	return &StellarAdapter{
		chainID: chainID,
		rpc:     stellar.NewRPCClient(endpoint, timeout),
	}
}

func (a *StellarAdapter) Endpoint() string {
	return a.rpc.Endpoint()
}

// FetchEvidence 按交易哈希查询交易并解码存款返回值
func (a *StellarAdapter) FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	info, err := a.rpc.GetTransaction(ctx, nonce)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}

	if info.Status == stellar.TxStatusNotFound {
		return nil, ErrNotFound
	}

	payload := stellar.DepositEvidence{
		Status: info.Status,
	}
	if info.Status == stellar.TxStatusSuccess {
		payload.Deposit = stellar.ExtractDeposit(info.ResultMetaJSON)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal deposit evidence")
	}

	return &Evidence{
		ChainID:       a.chainID,
		Nonce:         nonce,
		Confirmations: confirmations(info.LatestLedger, info.Ledger),
		Raw:           raw,
	}, nil
}

// Probe 探测端点存活并返回当前账本序号
func (a *StellarAdapter) Probe(ctx context.Context) (uint64, error) {
	return a.rpc.GetLatestLedger(ctx)
}
