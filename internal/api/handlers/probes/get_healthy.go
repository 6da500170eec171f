package probes

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/kashguard/go-validation-infra/internal/api"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// GetHealthyRoute 注册路由
func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

// getHealthyHandler 存活探针：实测本地依赖（数据库、Redis）。链端点
// 的健康只报告不否决，外部链故障重启进程毫无帮助。
func getHealthyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		log := util.LogFromContext(ctx)

		if !s.Ready() {
			return c.String(521, "Not ready.")
		}

		var str strings.Builder
		healthy := true

		if s.DB != nil {
			dbCtx, cancel := context.WithTimeout(ctx, s.Config.Validation.HealthcheckTimeout)
			defer cancel()

			if err := s.DB.PingContext(dbCtx); err != nil {
				healthy = false
				fmt.Fprintf(&str, "Database: %v\n", err)
			} else {
				str.WriteString("Database: OK\n")
			}
		}

		if s.Redis != nil {
			redisCtx, cancel := context.WithTimeout(ctx, s.Config.Validation.HealthcheckTimeout)
			defer cancel()

			if err := s.Redis.Ping(redisCtx).Err(); err != nil {
				healthy = false
				fmt.Fprintf(&str, "Redis: %v\n", err)
			} else {
				str.WriteString("Redis: OK\n")
			}
		}

		if s.Health.Healthy() {
			str.WriteString("Chain endpoints: OK\n")
		} else {
			str.WriteString("Chain endpoints: degraded\n")
		}

		if !healthy {
			log.Error().Str("checks", str.String()).Msg("Healthcheck failed")
			return c.String(521, str.String())
		}

		str.WriteString("Healthy.")

		return c.String(http.StatusOK, str.String())
	}
}
