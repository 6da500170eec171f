package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/chain/evm"
)

// depositEventTopic 桥合约 Deposit(address,address,address,uint256) 事件签名
var depositEventTopic = crypto.Keccak256Hash([]byte("Deposit(address,address,address,uint256)"))

// getTransferSelector 桥合约 getTransfer(uint256) 的函数选择器
var getTransferSelector = crypto.Keccak256([]byte("getTransfer(uint256)"))[:4]

// EVMAdapter 从单个 EVM RPC 端点抓取证据
type EVMAdapter struct {
	chainID uint64
	rpc     *evm.RPCClient
	bridge  common.Address
	// hasBridge 标记该链是否配置了桥合约（出金证据需要）
	hasBridge bool
}

// NewEVMAdapter 创建 EVM 适配器；bridgeAddress 为空时不支持出金证据
func NewEVMAdapter(chainID uint64, endpoint string, bridgeAddress string, timeout time.Duration) (*EVMAdapter, error) {
	a := &EVMAdapter{
		chainID: chainID,
		rpc:     evm.NewRPCClient(endpoint, timeout),
	}

	if bridgeAddress != "" {
		if !common.IsHexAddress(bridgeAddress) {
			return nil, errors.Errorf("invalid bridge address %q", bridgeAddress)
		}
		a.bridge = common.HexToAddress(bridgeAddress)
		a.hasBridge = true
	}

	return a, nil
}

func (a *EVMAdapter) Endpoint() string {
	return a.rpc.Endpoint()
}

// FetchEvidence 按证明种类抓取链上证据
func (a *EVMAdapter) FetchEvidence(ctx context.Context, kind string, nonce string) (*Evidence, error) {
	switch kind {
	case "withdrawal_clear":
		return a.fetchWithdrawal(ctx, nonce)
	default:
		return a.fetchDeposit(ctx, nonce)
	}
}

// fetchDeposit 取交易回执并解码 Deposit 事件
func (a *EVMAdapter) fetchDeposit(ctx context.Context, nonce string) (*Evidence, error) {
	txHash, err := parseTxHash(nonce)
	if err != nil {
		// 非法哈希不可能对应任何交易
		return nil, ErrNotFound
	}

	receipt, err := a.rpc.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}
	if receipt == nil {
		return nil, ErrNotFound
	}

	head, err := a.rpc.BlockNumber(ctx)
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}

	payload := evm.DepositEvidence{
		TxStatus: uint64(receipt.Status),
		Deposit:  decodeDepositEvent(receipt.Logs),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal deposit evidence")
	}

	return &Evidence{
		ChainID:       a.chainID,
		Nonce:         nonce,
		Confirmations: confirmations(head, uint64(receipt.BlockNumber)),
		Raw:           raw,
	}, nil
}

// fetchWithdrawal 通过 eth_call 读取桥合约中该 nonce 的转账状态
func (a *EVMAdapter) fetchWithdrawal(ctx context.Context, nonce string) (*Evidence, error) {
	if !a.hasBridge {
		return nil, Malformed(a.Endpoint(), errors.New("no bridge contract configured for withdrawal evidence"))
	}

	n, ok := new(big.Int).SetString(nonce, 10)
	if !ok || n.Sign() < 0 || n.BitLen() > 128 {
		return nil, ErrNotFound
	}

	data := make([]byte, 0, 36)
	data = append(data, getTransferSelector...)
	data = append(data, common.LeftPadBytes(n.Bytes(), 32)...)

	out, err := a.rpc.Call(ctx, a.bridge, hexutil.Bytes(data))
	if err != nil {
		return nil, classify(a.Endpoint(), err)
	}

	// (bool exists, bool completed, address receiver, address token, uint256 amount)
	if len(out) < 160 {
		return nil, Malformed(a.Endpoint(), errors.Errorf("short getTransfer return: %d bytes", len(out)))
	}

	exists := out[31] == 1
	if !exists {
		return nil, ErrNotFound
	}

	payload := evm.WithdrawalEvidence{
		Exists:    true,
		Completed: out[63] == 1,
		Receiver:  strings.ToLower(common.BytesToAddress(out[76:96]).Hex()),
		Token:     strings.ToLower(common.BytesToAddress(out[108:128]).Hex()),
		Amount:    new(big.Int).SetBytes(out[128:160]).String(),
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal withdrawal evidence")
	}

	// 合约状态按链头读取，确认深度对出金证据没有意义
	return &Evidence{
		ChainID: a.chainID,
		Nonce:   nonce,
		Raw:     raw,
	}, nil
}

// Probe 探测端点存活并返回链头高度
func (a *EVMAdapter) Probe(ctx context.Context) (uint64, error) {
	return a.rpc.BlockNumber(ctx)
}

func parseTxHash(nonce string) (string, error) {
	h := nonce
	if !strings.HasPrefix(h, "0x") {
		h = "0x" + h
	}

	raw, err := hexutil.Decode(h)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode transaction hash")
	}
	if len(raw) != common.HashLength {
		return "", errors.Errorf("transaction hash must be %d bytes, got %d", common.HashLength, len(raw))
	}

	return common.BytesToHash(raw).Hex(), nil
}

// decodeDepositEvent 在回执日志中寻找第一条 Deposit 事件
func decodeDepositEvent(logs []evm.Log) *evm.DepositEvent {
	for _, l := range logs {
		if len(l.Topics) < 3 || l.Topics[0] != depositEventTopic {
			continue
		}
		if len(l.Data) < 64 {
			continue
		}

		return &evm.DepositEvent{
			Sender:   strings.ToLower(common.BytesToAddress(l.Topics[1].Bytes()[12:]).Hex()),
			Receiver: strings.ToLower(common.BytesToAddress(l.Topics[2].Bytes()[12:]).Hex()),
			Token:    strings.ToLower(common.BytesToAddress(l.Data[12:32]).Hex()),
			Amount:   new(big.Int).SetBytes(l.Data[32:64]).String(),
		}
	}

	return nil
}

func confirmations(head, txBlock uint64) uint64 {
	if head < txBlock {
		// 端点视图落后于交易所在块，按尚未确认处理
		return 0
	}
	return head - txBlock + 1
}
