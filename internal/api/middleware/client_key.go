package middleware

import (
	"net"
	"strings"

	"github.com/labstack/echo/v4"
)

// ContextKeyClient is where ClientKey stores the resolved client identity.
const ContextKeyClient = "client_key"

// ClientKey identifies the caller: the first X-Forwarded-For entry when the
// header is present, else the socket's remote address.
func ClientKey(c echo.Context) string {
	if v, ok := c.Get(ContextKeyClient).(string); ok && v != "" {
		return v
	}
	req := c.Request()
	if xff := req.Header.Get(echo.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
