package httperrors

import (
	"net/http"

	"github.com/kashguard/go-validation-infra/internal/types"
)

var (
	ErrBadRequestMalformedMessageHex = NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "message_hex is not valid hex.")
	ErrNotFoundNonceRecord           = NewHTTPError(http.StatusNotFound, types.PublicHTTPErrorTypeGeneric, "No record exists for this chain and nonce.")
)
