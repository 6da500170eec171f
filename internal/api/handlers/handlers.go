package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/api/handlers/authz"
	"github.com/kashguard/go-validation-infra/internal/api/handlers/chains"
	"github.com/kashguard/go-validation-infra/internal/api/handlers/probes"
)

// AttachAllRoutes attaches all routes to the server's router.
func AttachAllRoutes(s *api.Server) {
	s.Router.Routes = []*echo.Route{
		authz.PostAuthorizeRoute(s),
		authz.GetNonceRecordRoute(s),
		chains.GetChainsRoute(s),
		probes.GetHealthyRoute(s),
		probes.GetReadyRoute(s),
	}
}
