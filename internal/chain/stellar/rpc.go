package stellar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Transaction status values returned by getTransaction.
const (
	TxStatusSuccess  string = "SUCCESS"
	TxStatusNotFound string = "NOT_FOUND"
	TxStatusFailed   string = "FAILED"
)

// RPCClient Soroban JSON-RPC 客户端
type RPCClient struct {
	endpoint string
	client   *http.Client
}

// NewRPCClient 创建 Soroban RPC 客户端
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

// RPCRequest RPC 请求；Soroban 使用命名参数对象
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
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
func (c *RPCClient) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
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

// TransactionInfo getTransaction 结果中本服务关心的字段
type TransactionInfo struct {
	Status         string          `json:"status"`
	Ledger         uint64          `json:"ledger"`
	LatestLedger   uint64          `json:"latestLedger"`
	ResultMetaJSON json.RawMessage `json:"resultMetaJson"`
}

// GetTransaction 按交易哈希查询交易，请求 JSON 编码的 XDR 元数据
func (c *RPCClient) GetTransaction(ctx context.Context, hash string) (*TransactionInfo, error) {
	params := map[string]interface{}{
		"hash":      hash,
		"xdrFormat": "json",
	}

	result, err := c.call(ctx, "getTransaction", params)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call getTransaction")
	}

	var info TransactionInfo
	if err := json.Unmarshal(result, &info); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal transaction info")
	}

	return &info, nil
}

// GetLatestLedger 查询当前账本序号
func (c *RPCClient) GetLatestLedger(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "getLatestLedger", nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to call getLatestLedger")
	}

	var ledger struct {
		Sequence uint64 `json:"sequence"`
	}
	if err := json.Unmarshal(result, &ledger); err != nil {
		return 0, errors.Wrap(err, "failed to unmarshal latest ledger")
	}

	return ledger.Sequence, nil
}
