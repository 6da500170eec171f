package ton

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// RESTClient TON Center v3 风格的 REST 客户端
type RESTClient struct {
	base   string
	client *http.Client
}

// NewRESTClient 创建 TON REST 客户端
func NewRESTClient(base string, timeout time.Duration) *RESTClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RESTClient{
		base: strings.TrimRight(base, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint 返回绑定的 API 地址
func (c *RESTClient) Endpoint() string {
	return c.base
}

// get 执行 GET 请求并解码 JSON 响应
func (c *RESTClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create HTTP request")
	}

	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return errors.Wrap(err, "failed to execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("upstream returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "failed to decode response")
	}

	return nil
}

// Message 交易的入站消息
type Message struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	// Value 为 nanoton 十进制字符串
	Value string `json:"value"`
}

// Transaction 链上交易
type Transaction struct {
	Hash         string   `json:"hash"`
	McBlockSeqno uint64   `json:"mc_block_seqno"`
	Now          int64    `json:"now"`
	InMsg        *Message `json:"in_msg"`
}

// GetTransactionsByMessage 按消息哈希查询交易
func (c *RESTClient) GetTransactionsByMessage(ctx context.Context, msgHash string) ([]Transaction, error) {
	query := url.Values{}
	query.Set("msg_hash", msgHash)
	query.Set("direction", "in")

	var result struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.get(ctx, "/transactionsByMessage", query, &result); err != nil {
		return nil, errors.Wrap(err, "failed to query transactions by message")
	}

	return result.Transactions, nil
}

// GetMasterchainSeqno 查询主链当前区块序号
func (c *RESTClient) GetMasterchainSeqno(ctx context.Context) (uint64, error) {
	var result struct {
		Last struct {
			Seqno uint64 `json:"seqno"`
		} `json:"last"`
	}
	if err := c.get(ctx, "/masterchainInfo", nil, &result); err != nil {
		return 0, errors.Wrap(err, "failed to query masterchain info")
	}

	return result.Last.Seqno, nil
}

// DepositEvidence 入站转账证据
type DepositEvidence struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Token    string `json:"token"`
	Amount   string `json:"amount"`
}
