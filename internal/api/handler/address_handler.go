package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/search"
)

// AddressHandler serves address suggestions.
type AddressHandler struct {
	search *search.Service
}

func NewAddressHandler(svc *search.Service) *AddressHandler {
	return &AddressHandler{search: svc}
}

type addressQuery struct {
	Q string `query:"q" validate:"max=200"`
}

type addressResponse struct {
	Label string  `json:"label"`
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
}

// Suggest handles GET /api/addresses.
//
// @Summary      Suggest addresses
// @Description  Empty query returns the predefined places. Queries shorter than two characters return nothing.
// @Tags         addresses
// @Produce      json
// @Param        q    query     string  false  "Free-text address"
// @Success      200  {array}   addressResponse
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/addresses [get]
func (h *AddressHandler) Suggest(c echo.Context) error {
	var q addressQuery
	if err := c.Bind(&q); err != nil {
		return err
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	found, err := h.search.Suggest(c.Request().Context(), q.Q)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "address search unavailable")
	}
	return c.JSON(http.StatusOK, toAddressResponses(found))
}

func toAddressResponses(in []domain.Address) []addressResponse {
	out := make([]addressResponse, 0, len(in))
	for _, a := range in {
		out = append(out, addressResponse{Label: a.Label, Lon: a.Coordinates.Lon, Lat: a.Coordinates.Lat})
	}
	return out
}
