package authz

import (
	"encoding/hex"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/httperrors"
	"github.com/kashguard/go-validation-infra/internal/types"
	"github.com/kashguard/go-validation-infra/internal/util"
	"github.com/kashguard/go-validation-infra/internal/validation"
)

// PostAuthorizeRoute 注册路由
func PostAuthorizeRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Authz.POST("/authorize", postAuthorizeHandler(s))
}

// postAuthorizeHandler 判定一次签名授权请求。三种判定映射到三个状态
// 码：授权 200、拒绝 403、未决 503 并附带 Retry-After。
func postAuthorizeHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var body types.PostAuthorizePayload
		if err := util.BindAndValidateBody(c, &body); err != nil {
			return err
		}

		message, err := hex.DecodeString(strings.TrimPrefix(*body.MessageHex, "0x"))
		if err != nil {
			return httperrors.ErrBadRequestMalformedMessageHex
		}

		request := validation.SigningRequest{
			Message: message,
			Proof: validation.Proof{
				ChainID: *body.Proof.ChainID,
				Kind:    body.Proof.Kind,
				Nonce:   *body.Proof.Nonce,
			},
			RequestedAt: time.Time(body.RequestedAt),
		}

		if request.Proof.Kind == "" {
			request.Proof.Kind = validation.ProofKindDeposit
		}
		if body.Proof.Params != nil {
			request.Proof.Params = validation.ProofParams{
				Sender:   body.Proof.Params.Sender,
				Receiver: body.Proof.Params.Receiver,
				TokenID:  body.Proof.Params.TokenID,
				Amount:   body.Proof.Params.Amount,
			}
		}
		if request.RequestedAt.IsZero() {
			request.RequestedAt = s.Clock.Now()
		}

		decision := s.Engine.Authorize(ctx, request)

		response := &types.AuthorizeResponse{
			Verdict:            swag.String(string(decision.Verdict.Outcome)),
			Reason:             string(decision.Verdict.Reason),
			Replayed:           decision.Replayed,
			RequestFingerprint: decision.Fingerprint,
		}

		switch decision.Verdict.Outcome {
		case validation.OutcomeAuthorized:
			response.Token = decision.Token.Signed
			response.TokenID = decision.Token.ID
			response.ExpiresAt = strfmt.DateTime(decision.Token.ExpiresAt)

			return util.ValidateAndReturn(c, http.StatusOK, response)
		case validation.OutcomeRejected:
			return util.ValidateAndReturn(c, http.StatusForbidden, response)
		default:
			if decision.RetryAfter > 0 {
				seconds := int64(math.Ceil(decision.RetryAfter.Seconds()))
				response.RetryAfterSeconds = seconds
				c.Response().Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			}

			return util.ValidateAndReturn(c, http.StatusServiceUnavailable, response)
		}
	}
}
