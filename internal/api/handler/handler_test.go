package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcmcoursier/courier-quote/internal/contactvault"
	"github.com/lcmcoursier/courier-quote/internal/core/booking"
	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
	"github.com/lcmcoursier/courier-quote/internal/core/pricing"
	"github.com/lcmcoursier/courier-quote/internal/core/search"
)

// ---- Stubs ----

type stubOrderService struct {
	got ports.SubmitOrderInput
	err error
}

func (s *stubOrderService) Submit(_ context.Context, in ports.SubmitOrderInput) (*ports.SubmitOrderResult, error) {
	s.got = in
	if s.err != nil {
		return nil, s.err
	}
	return &ports.SubmitOrderResult{ID: "o-1"}, nil
}

type stubQuoteService struct {
	result *ports.QuoteResult
	err    error
}

func (s *stubQuoteService) Quote(context.Context, url.Values) (*ports.QuoteResult, error) {
	return s.result, s.err
}

type stubSearcher struct {
	out   []domain.Address
	err   error
	query string
}

func (s *stubSearcher) Search(_ context.Context, q string, _ domain.Coordinates, _ int) ([]domain.Address, error) {
	s.query = q
	return s.out, s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newVault(t *testing.T) *contactvault.Vault {
	t.Helper()
	key, err := contactvault.NewKey()
	require.NoError(t, err)
	v, err := contactvault.New(key, 0)
	require.NoError(t, err)
	return v
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// ---- OrderHandler ----

func TestOrderHandler_Submit_Success(t *testing.T) {
	svc := &stubOrderService{}
	h := NewOrderHandler(svc, nil, false, zerolog.Nop())

	req := formRequest(http.MethodPost, "/api/orders", url.Values{"nom": {"Ada"}})
	req.RemoteAddr = "198.51.100.4:1234"
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(req, rec)

	require.NoError(t, h.Submit(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "Ada", svc.got.Form.Get("nom"))
	assert.Equal(t, "198.51.100.4", svc.got.ClientKey)
	assert.Empty(t, rec.Result().Cookies())
}

func TestOrderHandler_Submit_PropagatesErrors(t *testing.T) {
	for _, want := range []error{domain.ErrSpamDetected, errors.New("disk full")} {
		h := NewOrderHandler(&stubOrderService{err: want}, nil, false, zerolog.Nop())
		rec := httptest.NewRecorder()
		c := newEcho().NewContext(formRequest(http.MethodPost, "/api/orders", url.Values{}), rec)

		assert.ErrorIs(t, h.Submit(c), want)
	}
}

func TestOrderHandler_Submit_RemembersContact(t *testing.T) {
	vault := newVault(t)
	h := NewOrderHandler(&stubOrderService{}, vault, true, zerolog.Nop())

	form := url.Values{
		"nom":         {"Ada Lovelace"},
		"email":       {"ada@example.org"},
		"tel":         {"+33612345678"},
		RememberField: {"on"},
	}
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(formRequest(http.MethodPost, "/api/orders", form), rec)
	require.NoError(t, h.Submit(c))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ContactCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	got, err := vault.Open(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.Equal(t, "ada@example.org", got.Email)
	assert.Equal(t, "+33612345678", got.Phone)
}

// ---- ContactHandler ----

func TestContactHandler_Get(t *testing.T) {
	vault := newVault(t)
	sealed, err := vault.Seal(contactvault.Contact{Name: "Ada", Email: "ada@example.org", Phone: "0612345678"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	req.AddCookie(&http.Cookie{Name: ContactCookie, Value: sealed})
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(req, rec)

	require.NoError(t, NewContactHandler(vault, false).Get(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"nom":"Ada","email":"ada@example.org","tel":"0612345678"}`, rec.Body.String())
}

func TestContactHandler_Get_CorruptCookieIsCleared(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/contact", nil)
	req.AddCookie(&http.Cookie{Name: ContactCookie, Value: "garbage"})
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(req, rec)

	require.NoError(t, NewContactHandler(newVault(t), false).Get(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, ContactCookie, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestContactHandler_Get_NoCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/contact", nil), rec)

	require.NoError(t, NewContactHandler(newVault(t), false).Get(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
}

func TestContactHandler_Forget(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodDelete, "/api/contact", nil), rec)

	require.NoError(t, NewContactHandler(newVault(t), false).Forget(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, rec.Result().Cookies(), 1)
}

// ---- QuoteHandler ----

func TestQuoteHandler_Quote_WithPrice(t *testing.T) {
	in := booking.Inputs{
		Parcels:  []domain.Parcel{{WeightKg: 10, WeightSet: true}},
		Distance: 12,
	}
	state := booking.Compute(in)
	require.True(t, state.ShowPrice)
	svc := &stubQuoteService{result: &ports.QuoteResult{
		State:   state,
		Pricing: state.Pricing,
		Lines:   state.Pricing.Lines(),
		Route: &ports.Route{
			DistanceMeters: 12000,
			Polyline:       "_p~iF~ps|U",
			Points:         []domain.Coordinates{{Lat: 38.5, Lon: -120.2}},
		},
	}}

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(formRequest(http.MethodPost, "/api/quote", url.Values{}), rec)
	require.NoError(t, NewQuoteHandler(svc).Quote(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		DistanceKm   float64         `json:"distance_km"`
		DistanceText string          `json:"distance_text"`
		ShowPrice    bool            `json:"show_price"`
		Pricing      *pricing.Result `json:"pricing"`
		Breakdown    []string        `json:"breakdown"`
		Total        string          `json:"total"`
		Route        *struct {
			DistanceMeters float64              `json:"distance_meters"`
			Points         []domain.Coordinates `json:"points"`
		} `json:"route"`
		Submittable bool     `json:"submittable"`
		FieldErrors []string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 12.0, body.DistanceKm)
	assert.Equal(t, "12.00 km", body.DistanceText)
	assert.True(t, body.ShowPrice)
	require.NotNil(t, body.Pricing)
	assert.Equal(t, 60.0, body.Pricing.FinalPrice)
	assert.Equal(t, "60.00 €", body.Total)
	assert.NotEmpty(t, body.Breakdown)
	require.NotNil(t, body.Route)
	assert.Equal(t, 12000.0, body.Route.DistanceMeters)
	assert.Equal(t, []domain.Coordinates{{Lat: 38.5, Lon: -120.2}}, body.Route.Points)
	assert.False(t, body.Submittable)
	assert.NotEmpty(t, body.FieldErrors)
}

func TestQuoteHandler_Quote_DistanceFailed(t *testing.T) {
	state := booking.Compute(booking.Inputs{Distance: domain.DistanceError})
	svc := &stubQuoteService{result: &ports.QuoteResult{State: state, DistanceError: "Unable to calculate the distance."}}

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(formRequest(http.MethodPost, "/api/quote", url.Values{}), rec)
	require.NoError(t, NewQuoteHandler(svc).Quote(c))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Error", body["distance_text"])
	assert.Equal(t, 0.0, body["distance_km"])
	assert.Equal(t, "Unable to calculate the distance.", body["distance_error"])
	assert.NotContains(t, body, "pricing")
}

func TestQuoteHandler_Quote_ServiceError(t *testing.T) {
	svc := &stubQuoteService{err: domain.ErrInvalidQuote}
	c := newEcho().NewContext(formRequest(http.MethodPost, "/api/quote", url.Values{}), httptest.NewRecorder())

	assert.ErrorIs(t, NewQuoteHandler(svc).Quote(c), domain.ErrInvalidQuote)
}

// ---- AddressHandler ----

func TestAddressHandler_Suggest(t *testing.T) {
	searcher := &stubSearcher{out: []domain.Address{
		{Label: "Rue Foch, Montpellier", Coordinates: domain.Coordinates{Lon: 3.87, Lat: 43.61}},
	}}
	h := NewAddressHandler(search.NewService(searcher, zerolog.Nop()))

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/addresses?q=rue+foch", nil), rec)
	require.NoError(t, h.Suggest(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rue foch", searcher.query)
	assert.JSONEq(t, `[{"label":"Rue Foch, Montpellier","lon":3.87,"lat":43.61}]`, rec.Body.String())
}

func TestAddressHandler_Suggest_EmptyQueryReturnsPredefined(t *testing.T) {
	h := NewAddressHandler(search.NewService(&stubSearcher{}, zerolog.Nop()))

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/addresses", nil), rec)
	require.NoError(t, h.Suggest(c))

	var body []addressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, len(search.Predefined()))
}

func TestAddressHandler_Suggest_TooLongQuery(t *testing.T) {
	h := NewAddressHandler(search.NewService(&stubSearcher{}, zerolog.Nop()))
	target := "/api/addresses?q=" + strings.Repeat("a", 201)
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, target, nil), httptest.NewRecorder())

	var he *echo.HTTPError
	require.ErrorAs(t, h.Suggest(c), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAddressHandler_Suggest_UpstreamFailure(t *testing.T) {
	h := NewAddressHandler(search.NewService(&stubSearcher{err: errors.New("timeout")}, zerolog.Nop()))
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/api/addresses?q=gare", nil), httptest.NewRecorder())

	var he *echo.HTTPError
	require.ErrorAs(t, h.Suggest(c), &he)
	assert.Equal(t, http.StatusBadGateway, he.Code)
}

// ---- Health ----

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	require.NoError(t, NewHealthHandler().Liveness(c))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealthDependenciesHandler_Readiness(t *testing.T) {
	h := NewHealthDependenciesHandler(map[string]Pinger{
		"mongodb": stubPinger{},
		"redis":   stubPinger{err: errors.New("connection refused")},
	})
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	require.NoError(t, h.Readiness(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body readinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["mongodb"].Status)
	assert.Equal(t, "connection refused", body.Dependencies["redis"].Error)
}

func TestHealthDependenciesHandler_NoDependencies(t *testing.T) {
	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)

	require.NoError(t, NewHealthDependenciesHandler(nil).Readiness(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
