package probes

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api"
)

// GetReadyRoute 注册路由
func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

// getReadyHandler 就绪探针：只检查组件是否装配完成，不触碰外部依赖
func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			// 521: 服务本身不可用，与上游 5xx 区分开
			return c.String(521, "Not ready.")
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
