package middleware

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// BodyLimit buffers at most max bytes of the request body. A larger body
// gets no response at all: the connection is hijacked and closed. When the
// connection cannot be hijacked (HTTP/2, recorders) domain.ErrBodyTooLarge
// is returned instead.
func BodyLimit(max int64, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.ContentLength > max {
				return abort(c, log)
			}

			data, err := io.ReadAll(io.LimitReader(req.Body, max+1))
			if err != nil {
				return fmt.Errorf("read request body: %w", err)
			}
			if int64(len(data)) > max {
				return abort(c, log)
			}
			req.Body = io.NopCloser(bytes.NewReader(data))
			req.ContentLength = int64(len(data))
			return next(c)
		}
	}
}

func abort(c echo.Context, log zerolog.Logger) error {
	metrics.RequestsRejectedTotal.WithLabelValues(c.Path(), metrics.ReasonTooLarge).Inc()
	log.Warn().Str("client", ClientKey(c)).Msg("request body too large, closing connection")

	hj, ok := c.Response().Writer.(http.Hijacker)
	if !ok {
		return domain.ErrBodyTooLarge
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return domain.ErrBodyTooLarge
	}
	c.Response().Committed = true
	return conn.Close()
}
