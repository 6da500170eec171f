package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// RPCClient EVM JSON-RPC 客户端
type RPCClient struct {
	endpoint string
	client   *http.Client
}

// NewRPCClient 创建 EVM RPC 客户端
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

// Log 交易回执中的事件日志
type Log struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}

// TxReceipt 交易回执
type TxReceipt struct {
	TransactionHash common.Hash    `json:"transactionHash"`
	BlockNumber     hexutil.Uint64 `json:"blockNumber"`
	Status          hexutil.Uint64 `json:"status"`
	Logs            []Log          `json:"logs"`
}

// GetTransactionReceipt 查询交易回执；交易不存在时返回 (nil, nil)
func (c *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (*TxReceipt, error) {
	result, err := c.call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call eth_getTransactionReceipt")
	}

	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var receipt TxReceipt
	if err := json.Unmarshal(result, &receipt); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal transaction receipt")
	}

	return &receipt, nil
}

// BlockNumber 查询当前链头高度
func (c *RPCClient) BlockNumber(ctx context.Context) (uint64, error) {
	result, err := c.call(ctx, "eth_blockNumber", []interface{}{})
	if err != nil {
		return 0, errors.Wrap(err, "failed to call eth_blockNumber")
	}

	var headHex string
	if err := json.Unmarshal(result, &headHex); err != nil {
		return 0, errors.Wrap(err, "failed to unmarshal block number")
	}

	head, err := hexutil.DecodeUint64(headHex)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse block number hex")
	}

	return head, nil
}

// Call 执行 eth_call 读取合约状态
func (c *RPCClient) Call(ctx context.Context, to common.Address, data hexutil.Bytes) (hexutil.Bytes, error) {
	callObj := map[string]interface{}{
		"to":   to.Hex(),
		"data": data.String(),
	}

	result, err := c.call(ctx, "eth_call", []interface{}{callObj, "latest"})
	if err != nil {
		return nil, errors.Wrap(err, "failed to call eth_call")
	}

	var outHex string
	if err := json.Unmarshal(result, &outHex); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal eth_call result")
	}

	out, err := hexutil.Decode(outHex)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode eth_call result hex")
	}

	return out, nil
}
