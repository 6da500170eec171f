package authz

import (
	"net/http"
	"strconv"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/httperrors"
	"github.com/kashguard/go-validation-infra/internal/ledger"
	"github.com/kashguard/go-validation-infra/internal/types"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// GetNonceRecordRoute 注册路由
func GetNonceRecordRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Authz.GET("/records/:chainID/:nonce", getNonceRecordHandler(s))
}

// getNonceRecordHandler 查询某个键的消耗记录，审计与排障用
func getNonceRecordHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		chainID, err := strconv.ParseUint(c.Param("chainID"), 10, 64)
		if err != nil {
			return httperrors.NewHTTPError(http.StatusBadRequest, types.PublicHTTPErrorTypeGeneric, "Chain id must be a decimal number.")
		}

		nonce := c.Param("nonce")

		record, err := s.Ledger.GetRecord(ctx, chainID, nonce)
		if err != nil {
			if errors.Is(err, ledger.ErrRecordNotFound) {
				return httperrors.ErrNotFoundNonceRecord
			}

			log.Error().Err(err).Uint64("chainID", chainID).Msg("Failed to load nonce record")
			return httperrors.NewHTTPError(http.StatusInternalServerError, types.PublicHTTPErrorTypeGeneric, "Failed to load nonce record.")
		}

		consumedAt := strfmt.DateTime(record.ConsumedAt)

		return util.ValidateAndReturn(c, http.StatusOK, &types.NonceRecordResponse{
			ChainID:            swag.Uint64(record.ChainID),
			Nonce:              swag.String(record.Nonce),
			Outcome:            swag.String(string(record.Outcome)),
			Reason:             string(record.Reason),
			RequestFingerprint: swag.String(record.Fingerprint),
			ConsumedAt:         &consumedAt,
		})
	}
}
