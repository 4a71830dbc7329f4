package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/api/handler"
	"github.com/lcmcoursier/courier-quote/internal/api/middleware"
	"github.com/lcmcoursier/courier-quote/internal/contactvault"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
	"github.com/lcmcoursier/courier-quote/internal/core/ratelimit"
	"github.com/lcmcoursier/courier-quote/internal/core/search"
)

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Orders  ports.OrderService
	Quotes  ports.QuoteService
	Search  *search.Service
	Limiter ratelimit.Limiter
	// Vault is optional; without it contact details are never remembered.
	Vault *contactvault.Vault
	// Probes are pinged by the readiness endpoint, keyed by name.
	Probes       map[string]handler.Pinger
	MaxBodyBytes int64
	SecureCookie bool
	Log          zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(d.Log))

	// --- Orders ---
	orderHandler := handler.NewOrderHandler(d.Orders, d.Vault, d.SecureCookie, d.Log)
	e.POST("/api/orders", orderHandler.Submit,
		middleware.RateLimit(d.Limiter, d.Log), // runs before the body is touched
		middleware.FormOnly(),
		middleware.BodyLimit(d.MaxBodyBytes, d.Log),
	)

	// --- Quotes and address search ---
	quoteHandler := handler.NewQuoteHandler(d.Quotes)
	e.POST("/api/quote", quoteHandler.Quote, middleware.BodyLimit(d.MaxBodyBytes, d.Log))

	addressHandler := handler.NewAddressHandler(d.Search)
	e.GET("/api/addresses", addressHandler.Suggest)

	if d.Vault != nil {
		contactHandler := handler.NewContactHandler(d.Vault, d.SecureCookie)
		e.GET("/api/contact", contactHandler.Get)
		e.DELETE("/api/contact", contactHandler.Forget)
	}

	// --- Health probes and metrics ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Probes)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
