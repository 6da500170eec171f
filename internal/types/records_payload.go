package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

// NonceRecordResponse 已消费 nonce 的不可变记录
type NonceRecordResponse struct {
	ChainID            *uint64          `json:"chain_id"`
	Nonce              *string          `json:"nonce"`
	Outcome            *string          `json:"outcome"`
	Reason             string           `json:"reason,omitempty"`
	RequestFingerprint *string          `json:"request_fingerprint"`
	ConsumedAt         *strfmt.DateTime `json:"consumed_at"`
}

// Validate validates NonceRecordResponse
func (m *NonceRecordResponse) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("chain_id", "body", m.ChainID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("nonce", "body", m.Nonce); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("outcome", "body", m.Outcome); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("request_fingerprint", "body", m.RequestFingerprint); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("consumed_at", "body", m.ConsumedAt); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *NonceRecordResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *NonceRecordResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *NonceRecordResponse) UnmarshalBinary(b []byte) error {
	var res NonceRecordResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// ChainEndpointStatus 单个 RPC 端点的健康状态
type ChainEndpointStatus struct {
	Domain    string          `json:"domain"`
	Healthy   bool            `json:"healthy"`
	Head      uint64          `json:"head,omitempty"`
	Error     string          `json:"error,omitempty"`
	CheckedAt strfmt.DateTime `json:"checked_at,omitempty"`
}

// Validate validates ChainEndpointStatus
func (m *ChainEndpointStatus) Validate(formats strfmt.Registry) error {
	return nil
}

// ChainStatus 单条链的配置与端点健康
type ChainStatus struct {
	ID                *uint64                `json:"id"`
	Name              string                 `json:"name,omitempty"`
	Kind              *string                `json:"kind"`
	ProofKinds        []string               `json:"proof_kinds"`
	ConfirmationDepth uint64                 `json:"confirmation_depth"`
	Quorum            int64                  `json:"quorum"`
	Endpoints         []*ChainEndpointStatus `json:"endpoints"`
}

// Validate validates ChainStatus
func (m *ChainStatus) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("id", "body", m.ID); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("kind", "body", m.Kind); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ChainListResponse 所有已配置链的状态
type ChainListResponse struct {
	Chains []*ChainStatus `json:"chains"`
}

// Validate validates ChainListResponse
func (m *ChainListResponse) Validate(formats strfmt.Registry) error {
	var res []error

	for _, c := range m.Chains {
		if c == nil {
			continue
		}
		if err := c.Validate(formats); err != nil {
			res = append(res, err)
		}
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *ChainListResponse) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *ChainListResponse) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *ChainListResponse) UnmarshalBinary(b []byte) error {
	var res ChainListResponse
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}
