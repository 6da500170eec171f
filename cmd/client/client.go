package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AuthzClient 验证服务测试客户端
type AuthzClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthzClient 创建新的测试客户端
func NewAuthzClient(baseURL string) *AuthzClient {
	return &AuthzClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ProofClaimParams 声明的链上事件参数
type ProofClaimParams struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	TokenID  string `json:"token_id,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

// ProofClaim 待验证的证明
type ProofClaim struct {
	ChainID uint64           `json:"chain_id"`
	Kind    string           `json:"kind,omitempty"`
	Nonce   string           `json:"nonce"`
	Params  ProofClaimParams `json:"params"`
}

// AuthorizeRequest 签名授权请求
type AuthorizeRequest struct {
	MessageHex string     `json:"message_hex"`
	Proof      ProofClaim `json:"proof"`
}

// AuthorizeDecision 服务返回的授权决定
type AuthorizeDecision struct {
	Verdict            string `json:"verdict"`
	Reason             string `json:"reason"`
	Replayed           bool   `json:"replayed"`
	RetryAfterSeconds  int64  `json:"retry_after_seconds"`
	RequestFingerprint string `json:"request_fingerprint"`
	Token              string `json:"token"`
	TokenID            string `json:"token_id"`
	ExpiresAt          string `json:"expires_at"`
}

// NonceRecord 某个 (chain_id, nonce) 键的消耗记录
type NonceRecord struct {
	ChainID     uint64 `json:"chain_id"`
	Nonce       string `json:"nonce"`
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason"`
	Fingerprint string `json:"request_fingerprint"`
	ConsumedAt  string `json:"consumed_at"`
}

// Authorize 提交授权请求并解析决定。403/503 也携带决定体，一并解析。
func (c *AuthzClient) Authorize(ctx context.Context, request AuthorizeRequest) (*AuthorizeDecision, error) {
	resp, err := c.makeRequest(ctx, http.MethodPost, "/api/v1/authorize", request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusForbidden, http.StatusServiceUnavailable:
		var decision AuthorizeDecision
		if err := json.Unmarshal(body, &decision); err != nil {
			return nil, fmt.Errorf("failed to unmarshal decision: %w", err)
		}
		return &decision, nil
	default:
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
}

// GetRecord 查询某个键的消耗记录
func (c *AuthzClient) GetRecord(ctx context.Context, chainID uint64, nonce string) (*NonceRecord, error) {
	resp, err := c.makeRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/records/%d/%s", chainID, nonce), nil)
	if err != nil {
		return nil, err
	}

	var record NonceRecord
	if err := c.parseResponse(resp, &record); err != nil {
		return nil, err
	}

	return &record, nil
}

// makeRequest 发送 HTTP 请求
func (c *AuthzClient) makeRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// parseResponse 解析 HTTP 响应
func (c *AuthzClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
