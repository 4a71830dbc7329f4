package middleware

import (
	"mime"

	"github.com/labstack/echo/v4"

	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

// FormOnly accepts only application/x-www-form-urlencoded bodies. Media type
// parameters such as charset are ignored.
func FormOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			mt, _, err := mime.ParseMediaType(c.Request().Header.Get(echo.HeaderContentType))
			if err != nil || mt != echo.MIMEApplicationForm {
				metrics.RequestsRejectedTotal.WithLabelValues(c.Path(), metrics.ReasonBadMedia).Inc()
				return domain.ErrUnsupportedMediaType
			}
			return next(c)
		}
	}
}
