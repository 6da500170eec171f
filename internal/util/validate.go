package util

import (
	"net/http"

	openapierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/runtime"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/api/httperrors"
	"github.com/kashguard/go-validation-infra/internal/types"
)

// BindAndValidateBody binds the request body to v and runs its go-openapi
// validation, returning a public validation error on failure.
func BindAndValidateBody(c echo.Context, v runtime.Validatable) error {
	binder, ok := c.Echo().Binder.(*echo.DefaultBinder)
	if !ok {
		return errors.New("failed to assert default binder")
	}

	if err := binder.BindBody(c, v); err != nil {
		return err
	}

	return validatePayload(c, v)
}

// ValidateAndReturn validates the response payload before writing it, guarding
// against handlers emitting responses that violate their own contract.
func ValidateAndReturn(c echo.Context, code int, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		return err
	}

	return c.JSON(code, v)
}

func validatePayload(c echo.Context, v runtime.Validatable) error {
	if err := v.Validate(strfmt.Default); err != nil {
		var compositeError *openapierrors.CompositeError
		var validationError *openapierrors.Validation

		switch {
		case errors.As(err, &compositeError):
			valErrs := formatValidationErrors(compositeError)

			LogFromEchoContext(c).Debug().AnErr("err", err).Msg("Payload validation failed")

			return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Payload did not validate.", valErrs)
		case errors.As(err, &validationError):
			valErrs := []*types.PublicHTTPValidationErrorDetail{
				{
					Key:   &validationError.Name,
					In:    &validationError.In,
					Error: swag.String(validationError.Error()),
				},
			}

			LogFromEchoContext(c).Debug().AnErr("err", err).Msg("Payload validation failed")

			return httperrors.NewHTTPValidationError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Payload did not validate.", valErrs)
		default:
			return err
		}
	}

	return nil
}

func formatValidationErrors(err *openapierrors.CompositeError) []*types.PublicHTTPValidationErrorDetail {
	valErrs := make([]*types.PublicHTTPValidationErrorDetail, 0, len(err.Errors))
	for _, e := range err.Errors {
		var validationError *openapierrors.Validation
		var nested *openapierrors.CompositeError

		switch {
		case errors.As(e, &nested):
			valErrs = append(valErrs, formatValidationErrors(nested)...)
		case errors.As(e, &validationError):
			valErrs = append(valErrs, &types.PublicHTTPValidationErrorDetail{
				Key:   &validationError.Name,
				In:    &validationError.In,
				Error: swag.String(validationError.Error()),
			})
		default:
			valErrs = append(valErrs, &types.PublicHTTPValidationErrorDetail{
				Key:   swag.String("body"),
				In:    swag.String("body"),
				Error: swag.String(e.Error()),
			})
		}
	}

	return valErrs
}
