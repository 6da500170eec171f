package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kashguard/go-validation-infra/internal/config"
	"github.com/kashguard/go-validation-infra/internal/util"
)

// Logger attaches a request scoped zerolog logger to the request context and
// logs request completion. Handlers retrieve the logger via
// util.LogFromContext and automatically inherit the request id field.
func Logger(cfg config.LoggerServer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = res.Header().Get(echo.HeaderXRequestID)
			}

			reqDict := zerolog.Dict().
				Str("id", id).
				Str("method", req.Method).
				Str("url", req.URL.Path).
				Str("remoteIP", c.RealIP())

			if cfg.LogRequestQuery {
				reqDict.Str("query", req.URL.RawQuery)
			}
			if cfg.LogRequestHeader {
				reqDict.Interface("header", headerMap(req.Header))
			}
			if cfg.LogRequestBody {
				body, err := io.ReadAll(req.Body)
				if err == nil {
					req.Body = io.NopCloser(bytes.NewReader(body))
					reqDict.Bytes("body", body)
				}
			}

			l := log.With().Dict("req", reqDict).Logger()

			ctx := context.WithValue(req.Context(), util.CTXKeyRequestID, id)
			c.SetRequest(req.WithContext(l.WithContext(ctx)))

			var resBody bytes.Buffer
			if cfg.LogResponseBody {
				res.Writer = &bodyCaptureWriter{ResponseWriter: res.Writer, body: &resBody}
			}

			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			resDict := zerolog.Dict().
				Int("status", res.Status).
				Int64("bytesOut", res.Size).
				Dur("duration", time.Since(start))

			if cfg.LogResponseHeader {
				resDict.Interface("header", headerMap(res.Header()))
			}
			if cfg.LogResponseBody {
				resDict.Bytes("body", resBody.Bytes())
			}

			l.WithLevel(cfg.RequestLevel).Dict("res", resDict).Msg("Request handled")

			return err
		}
	}
}

func headerMap(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for key := range header {
		out[key] = header.Get(key)
	}

	return out
}

type bodyCaptureWriter struct {
	http.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}
