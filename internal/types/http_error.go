package types

import (
	"context"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

const (
	// PublicHTTPErrorTypeGeneric is the fallback error type for public HTTP errors.
	PublicHTTPErrorTypeGeneric string = "generic"
)

// PublicHTTPError 对外暴露的标准错误结构
type PublicHTTPError struct {
	// HTTP status code
	Code *int64 `json:"status"`

	// Short human readable title of the error
	Title *string `json:"title"`

	// Machine readable error type
	Type *string `json:"type"`
}

// Validate validates PublicHTTPError
func (m *PublicHTTPError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("status", "body", m.Code); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("title", "body", m.Title); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("type", "body", m.Type); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PublicHTTPError) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// MarshalBinary interface implementation
func (m *PublicHTTPError) MarshalBinary() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return swag.WriteJSON(m)
}

// UnmarshalBinary interface implementation
func (m *PublicHTTPError) UnmarshalBinary(b []byte) error {
	var res PublicHTTPError
	if err := swag.ReadJSON(b, &res); err != nil {
		return err
	}
	*m = res
	return nil
}

// PublicHTTPValidationError 带字段级明细的校验错误
type PublicHTTPValidationError struct {
	PublicHTTPError

	// List of failed payload fields
	ValidationErrors []*PublicHTTPValidationErrorDetail `json:"validationErrors"`
}

// Validate validates PublicHTTPValidationError
func (m *PublicHTTPValidationError) Validate(formats strfmt.Registry) error {
	var res []error

	if err := m.PublicHTTPError.Validate(formats); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

// ContextValidate validates this payload based on context it is used
func (m *PublicHTTPValidationError) ContextValidate(ctx context.Context, formats strfmt.Registry) error {
	return nil
}

// PublicHTTPValidationErrorDetail 单个字段的校验错误
type PublicHTTPValidationErrorDetail struct {
	// Error describing field validation failure
	Error *string `json:"error"`

	// Indicates how the invalid field was provided
	In *string `json:"in"`

	// Key of field failing validation
	Key *string `json:"key"`
}

// Validate validates PublicHTTPValidationErrorDetail
func (m *PublicHTTPValidationErrorDetail) Validate(formats strfmt.Registry) error {
	var res []error

	if err := validate.Required("error", "body", m.Error); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("in", "body", m.In); err != nil {
		res = append(res, err)
	}

	if err := validate.Required("key", "body", m.Key); err != nil {
		res = append(res, err)
	}

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}
