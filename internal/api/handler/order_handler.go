package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/api/middleware"
	"github.com/lcmcoursier/courier-quote/internal/contactvault"
	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

// RememberField asks for the contact block to be remembered.
const RememberField = "remember"

// OrderHandler handles order submission.
type OrderHandler struct {
	service      ports.OrderService
	vault        *contactvault.Vault
	secureCookie bool
	log          zerolog.Logger
}

// NewOrderHandler builds the handler. vault may be nil, in which case the
// remember option is ignored.
func NewOrderHandler(service ports.OrderService, vault *contactvault.Vault, secureCookie bool, log zerolog.Logger) *OrderHandler {
	return &OrderHandler{service: service, vault: vault, secureCookie: secureCookie, log: log}
}

// --- Request / Response types ---

type orderResponse struct {
	Status string `json:"status"`
}

// Submit handles POST /api/orders.
// Rate limiting, media type and body size are enforced by middleware.
//
// @Summary      Submit a booking
// @Tags         orders
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        X-Forwarded-For  header    string  false  "Client address when behind a proxy"
// @Success      200              {object}  orderResponse
// @Failure      400              {object}  map[string]string
// @Failure      415              {object}  map[string]string
// @Failure      429              {object}  map[string]string
// @Failure      500              {object}  map[string]string
// @Router       /api/orders [post]
func (h *OrderHandler) Submit(c echo.Context) error {
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		metrics.OrdersReceivedTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return fmt.Errorf("parse order form: %w", err)
	}
	form := req.PostForm

	_, err := h.service.Submit(req.Context(), ports.SubmitOrderInput{
		Form:      form,
		ClientKey: middleware.ClientKey(c),
	})
	if err != nil {
		if errors.Is(err, domain.ErrSpamDetected) {
			metrics.OrdersReceivedTotal.WithLabelValues(metrics.OutcomeSpam).Inc()
		} else {
			metrics.OrdersReceivedTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return err
	}
	metrics.OrdersReceivedTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()

	h.remember(c, form)
	return c.JSON(http.StatusOK, orderResponse{Status: "ok"})
}

func (h *OrderHandler) remember(c echo.Context, form url.Values) {
	if h.vault == nil || !checked(form.Get(RememberField)) {
		return
	}
	contact := contactvault.Contact{
		Name:  form.Get(booking.FieldName),
		Email: form.Get(booking.FieldEmail),
		Phone: form.Get(booking.FieldPhone),
	}
	if err := h.vault.Remember(cookieStore{c: c, secure: h.secureCookie}, contact); err != nil {
		h.log.Warn().Err(err).Msg("failed to remember contact")
	}
}

func checked(v string) bool {
	switch v {
	case "on", "1", "true", "yes":
		return true
	}
	return false
}
