package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// RPCClient Solana JSON-RPC 客户端
type RPCClient struct {
	endpoint string
	client   *http.Client
}

// NewRPCClient 创建 Solana RPC 客户端
func NewRPCClient(endpoint string, timeout time.Duration) *RPCClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RPCClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint 返回绑定的 RPC 地址
func (c *RPCClient) Endpoint() string {
	return c.endpoint
}

// RPCRequest RPC 请求
type RPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// RPCResponse RPC 响应
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// RPCError RPC 错误
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// call 执行 RPC 调用
func (c *RPCClient) call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	req := &RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal RPC request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Errorf("upstream returned status %d", resp.StatusCode)
	}

	var rpcResp RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, errors.Wrap(err, "failed to decode RPC response")
	}

	if rpcResp.Error != nil {
		return nil, fmt.Errorf("RPC error: %s (code: %d)", rpcResp.Error.Message, rpcResp.Error.Code)
	}

	return rpcResp.Result, nil
}

// ParsedInfo 系统转账指令的解析字段
type ParsedInfo struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Lamports    uint64 `json:"lamports"`
}

// ParsedInstruction jsonParsed 编码下的指令内容
type ParsedInstruction struct {
	Type string     `json:"type"`
	Info ParsedInfo `json:"info"`
}

// Instruction 交易内的单条指令
type Instruction struct {
	Program string             `json:"program"`
	Parsed  *ParsedInstruction `json:"parsed,omitempty"`
}

// TransactionResult getTransaction 结果中本服务关心的字段
type TransactionResult struct {
	Slot uint64 `json:"slot"`
	Meta *struct {
		Err json.RawMessage `json:"err"`
	} `json:"meta"`
	Transaction struct {
		Message struct {
			Instructions []Instruction `json:"instructions"`
		} `json:"message"`
	} `json:"transaction"`
}

// Failed 判断交易是否执行失败
func (r *TransactionResult) Failed() bool {
	return r.Meta != nil && len(r.Meta.Err) > 0 && !bytes.Equal(r.Meta.Err, []byte("null"))
}

// GetTransaction 按签名查询交易；交易不存在时返回 (nil, nil)
func (c *RPCClient) GetTransaction(ctx context.Context, signature string) (*TransactionResult, error) {
	opts := map[string]interface{}{
		"encoding":                       "jsonParsed",
		"commitment":                     "confirmed",
		"maxSupportedTransactionVersion": 0,
	}

	result, err := c.call(ctx, "getTransaction", []interface{}{signature, opts})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call getTransaction")
	}

	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var tx TransactionResult
	if err := json.Unmarshal(result, &tx); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal transaction")
	}

	return &tx, nil
}

// GetSlot 查询当前已终结的 slot
func (c *RPCClient) GetSlot(ctx context.Context) (uint64, error) {
	opts := map[string]interface{}{
		"commitment": "finalized",
	}

	result, err := c.call(ctx, "getSlot", []interface{}{opts})
	if err != nil {
		return 0, errors.Wrap(err, "failed to call getSlot")
	}

	var slot uint64
	if err := json.Unmarshal(result, &slot); err != nil {
		return 0, errors.Wrap(err, "failed to unmarshal slot")
	}

	return slot, nil
}

// DepositEvidence 存款证据：交易状态加上解析出的系统转账
type DepositEvidence struct {
	TxFailed bool        `json:"tx_failed"`
	Deposit  *ParsedInfo `json:"deposit,omitempty"`
}
