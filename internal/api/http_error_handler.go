package api

import (
	"net/http"

	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api/httperrors"
	"github.com/kashguard/go-validation-infra/internal/types"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// HTTPErrorHandlerConfig controls how errors are rendered to clients.
type HTTPErrorHandlerConfig struct {
	// HideInternalServerErrorDetails replaces the message of 5xx errors with
	// a generic one so internals never leak to clients.
	HideInternalServerErrorDetails bool
}

// HTTPErrorHandler renders every error bubbling out of a handler as a
// PublicHTTPError JSON payload with a stable shape.
func HTTPErrorHandler(config HTTPErrorHandlerConfig) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		log := util.LogFromEchoContext(c)

		var code int64
		var payload interface{}

		switch e := err.(type) {
		case *httperrors.HTTPValidationError:
			code = *e.Code
			payload = e
		case *httperrors.HTTPError:
			code = *e.Code

			if config.HideInternalServerErrorDetails && code >= http.StatusInternalServerError {
				if e.Internal == nil {
					e.Internal = err
				}
				e.Title = swag.String(http.StatusText(int(code)))
			}

			payload = e
		case *echo.HTTPError:
			code = int64(e.Code)

			title := http.StatusText(e.Code)
			if msg, ok := e.Message.(string); ok && !(config.HideInternalServerErrorDetails && e.Code >= http.StatusInternalServerError) {
				title = msg
			}

			payload = &types.PublicHTTPError{
				Code:  swag.Int64(code),
				Title: swag.String(title),
				Type:  swag.String(types.PublicHTTPErrorTypeGeneric),
			}
		default:
			code = http.StatusInternalServerError

			title := err.Error()
			if config.HideInternalServerErrorDetails {
				title = http.StatusText(http.StatusInternalServerError)
			}

			payload = &types.PublicHTTPError{
				Code:  swag.Int64(code),
				Title: swag.String(title),
				Type:  swag.String(types.PublicHTTPErrorTypeGeneric),
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error().Err(err).Int64("status", code).Msg("Request failed")
		} else {
			log.Debug().Err(err).Int64("status", code).Msg("Request rejected")
		}

		if c.Request().Method == http.MethodHead {
			if err := c.NoContent(int(code)); err != nil {
				log.Error().Err(err).Msg("Failed to write error response")
			}
			return
		}

		if err := c.JSON(int(code), payload); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
	}
}
