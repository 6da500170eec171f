package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// ProofParamsPayload 提案中声明的链上事件参数
type ProofParamsPayload struct {
	Sender   string `json:"sender,omitempty"`
	Receiver string `json:"receiver,omitempty"`
	TokenID  string `json:"token_id,omitempty"`
	Amount   string `json:"amount,omitempty"`
}

// Validate validates ProofParamsPayload
func (m *ProofParamsPayload) Validate(formats strfmt.Registry) error {
	return nil
}

// ProofPayload 证明载荷，(chain_id, nonce) 为防重放键
type ProofPayload struct {
	ChainID *uint64             `json:"chain_id"`
	Kind    string              `json:"kind,omitempty"`
	Nonce   *string             `json:"nonce"`
	Params  *ProofParamsPayload `json:"params,omitempty"`
}

// Validate validates ProofPayload
func (m *ProofPayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chain_id", "body", m.ChainID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("nonce", "body", m.Nonce); err != nil {
		res = append(res, err)
	}

	if m.Params != nil {
		if err := m.Params.Validate(formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *ProofPayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// PostAuthorizePayload 签名授权请求
type PostAuthorizePayload struct {
	MessageHex  *string         `json:"message_hex"`
	Proof       *ProofPayload   `json:"proof"`
	RequestedAt strfmt.DateTime `json:"requested_at,omitempty"`
}

// Validate validates PostAuthorizePayload
func (m *PostAuthorizePayload) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("message_hex", "body", m.MessageHex); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("proof", "body", m.Proof); err != nil {
		res = append(res, err)
	} else if err := m.Proof.Validate(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PostAuthorizePayload) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// AuthorizeResponse 授权决定；verdict 为 authorized 时携带授权令牌
type AuthorizeResponse struct {
	Verdict            *string         `json:"verdict"`
	Reason             string          `json:"reason,omitempty"`
	Replayed           bool            `json:"replayed"`
	RetryAfterSeconds  int64           `json:"retry_after_seconds,omitempty"`
	RequestFingerprint string          `json:"request_fingerprint,omitempty"`
	Token              string          `json:"token,omitempty"`
	TokenID            string          `json:"token_id,omitempty"`
	ExpiresAt          strfmt.DateTime `json:"expires_at,omitempty"`
}

// Validate validates AuthorizeResponse
func (m *AuthorizeResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("verdict", "body", m.Verdict); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *AuthorizeResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *AuthorizeResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *AuthorizeResponse) UnmarshalBinary(b []byte) error {
	var res AuthorizeResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
