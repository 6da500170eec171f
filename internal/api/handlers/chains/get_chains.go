package chains

import (
	"net/http"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/metrics"
	"github.com/kashguard/go-validation-infra/internal/types"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// GetChainsRoute 注册路由
func GetChainsRoute(s *api.Server) *echo.Route {
	return s.Router.APIV1Chains.GET("", getChainsHandler(s))
}

// getChainsHandler 列出所有已配置链及其端点健康。端点 URL 只暴露
// 两段域名，路径里的 API key 不离开进程。
func getChainsHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		health := make(map[uint64][]*types.ChainEndpointStatus, len(s.Chains))
		for _, endpoint := range s.Health.Snapshot() {
			status := &types.ChainEndpointStatus{
				Domain:  metrics.Domain(endpoint.Endpoint),
				Healthy: endpoint.Healthy,
				Head:    endpoint.Head,
				Error:   endpoint.Err,
			}
			if !endpoint.CheckedAt.IsZero() {
				status.CheckedAt = strfmt.DateTime(endpoint.CheckedAt)
			}

			health[endpoint.ChainID] = append(health[endpoint.ChainID], status)
		}

		response := &types.ChainListResponse{Chains: make([]*types.ChainStatus, 0, len(s.Chains))}
		for _, cfg := range s.Chains {
			response.Chains = append(response.Chains, &types.ChainStatus{
				ID:                swag.Uint64(cfg.ID),
				Name:              cfg.Name,
				Kind:              swag.String(cfg.Kind),
				ProofKinds:        s.Registry.SupportedKinds(cfg.ID),
				ConfirmationDepth: cfg.ConfirmationDepth,
				Quorum:            int64(cfg.Quorum),
				Endpoints:         health[cfg.ID],
			})
		}

		return util.ValidateAndReturn(c, http.StatusOK, response)
	}
}
