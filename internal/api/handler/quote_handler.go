package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lcmcoursier/courier-quote/internal/api/metrics"
	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
	"github.com/lcmcoursier/courier-quote/internal/core/pricing"
)

// QuoteHandler evaluates a booking form without storing it.
type QuoteHandler struct {
	service ports.QuoteService
}

func NewQuoteHandler(service ports.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// --- Response types ---

type routeResponse struct {
	DistanceMeters float64              `json:"distance_meters"`
	Polyline       string               `json:"polyline"`
	Points         []domain.Coordinates `json:"points,omitempty"`
}

type quoteResponse struct {
	DistanceKm    float64         `json:"distance_km"`
	DistanceText  string          `json:"distance_text"`
	DistanceError string          `json:"distance_error,omitempty"`
	Route         *routeResponse  `json:"route,omitempty"`
	TotalWeightKg float64         `json:"total_weight_kg"`
	Oversize      bool            `json:"oversize"`
	PickupValid   bool            `json:"pickup_valid"`
	PickupError   bool            `json:"pickup_error"`
	DeliveryValid bool            `json:"delivery_valid"`
	DeliveryError bool            `json:"delivery_error"`
	FormComplete  bool            `json:"form_complete"`
	FieldErrors   []string        `json:"field_errors"`
	ShowPrice     bool            `json:"show_price"`
	Pricing       *pricing.Result `json:"pricing,omitempty"`
	Breakdown     []string        `json:"breakdown,omitempty"`
	Total         string          `json:"total,omitempty"`
	Submittable   bool            `json:"submittable"`
	Summary       string          `json:"summary,omitempty"`
}

// Quote handles POST /api/quote.
//
// @Summary      Price a booking
// @Description  Runs the booking rules on the submitted fields. When both addresses carry coordinates and no distance_km is given, the bicycle distance is looked up first.
// @Tags         quotes
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Success      200  {object}  quoteResponse
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/quote [post]
func (h *QuoteHandler) Quote(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
	}

	result, err := h.service.Quote(c.Request().Context(), form)
	if err != nil {
		return err
	}
	observeQuote(result)

	return c.JSON(http.StatusOK, toQuoteResponse(result))
}

func toQuoteResponse(r *ports.QuoteResult) quoteResponse {
	s := r.State
	resp := quoteResponse{
		DistanceKm:    float64(s.Distance),
		DistanceText:  s.DistanceText(),
		DistanceError: r.DistanceError,
		TotalWeightKg: s.TotalWeightKg,
		Oversize:      s.Oversize,
		PickupValid:   s.PickupValid,
		PickupError:   s.PickupError(),
		DeliveryValid: s.DeliveryValid,
		DeliveryError: s.DeliveryError(),
		FormComplete:  s.FormComplete,
		FieldErrors:   booking.ErrorList(s.FieldErrors),
		ShowPrice:     s.ShowPrice,
		Submittable:   s.Submittable,
		Summary:       r.Summary,
	}
	if !s.Distance.Known() {
		resp.DistanceKm = 0
	}
	if r.Route != nil {
		resp.Route = &routeResponse{
			DistanceMeters: r.Route.DistanceMeters,
			Polyline:       r.Route.Polyline,
			Points:         r.Route.Points,
		}
	}
	if s.ShowPrice {
		p := r.Pricing
		resp.Pricing = &p
		resp.Breakdown = r.Lines
		resp.Total = p.Total()
	}
	return resp
}

func observeQuote(r *ports.QuoteResult) {
	tariff := "none"
	if r.State.ShowPrice {
		tariff = "normal"
		if r.Pricing.Elevated {
			tariff = "elevated"
		}
	}
	metrics.QuotesComputedTotal.WithLabelValues(tariff).Inc()

	switch {
	case r.Route != nil:
		metrics.RouteLookupsTotal.WithLabelValues("ok").Inc()
	case r.DistanceError != "":
		metrics.RouteLookupsTotal.WithLabelValues("failed").Inc()
	}
}
