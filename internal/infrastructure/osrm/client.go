// Package osrm looks up bicycle routes on an OSRM server.
package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
	"github.com/lcmcoursier/courier-quote/internal/core/ports"
)

const (
	DefaultBaseURL = "https://router.project-osrm.org"
	defaultTimeout = 8 * time.Second
	profile        = "bicycle"
)

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry string  `json:"geometry"`
	} `json:"routes"`
}

// Client implements ports.RouteFinder against the OSRM route service.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client. A nil httpClient gets an 8 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Route fetches the first route between from and to and decodes its
// geometry. Answers without code "Ok" or without routes yield
// domain.ErrRouteNotFound.
func (c *Client) Route(ctx context.Context, from, to domain.Coordinates) (ports.Route, error) {
	url := fmt.Sprintf("%s/route/v1/%s/%s,%s;%s,%s?overview=full&geometries=polyline",
		c.baseURL, profile, coord(from.Lon), coord(from.Lat), coord(to.Lon), coord(to.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm route: %w", err)
	}
	defer resp.Body.Close()

	var body routeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return ports.Route{}, fmt.Errorf("osrm route: status %d", resp.StatusCode)
		}
		return ports.Route{}, fmt.Errorf("osrm decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return ports.Route{}, fmt.Errorf("%w: osrm code %q %s", domain.ErrRouteNotFound, body.Code, body.Message)
	}

	r := body.Routes[0]
	points, err := DecodePolyline(r.Geometry, Precision)
	if err != nil {
		return ports.Route{}, fmt.Errorf("osrm geometry: %w", err)
	}
	return ports.Route{DistanceMeters: r.Distance, Polyline: r.Geometry, Points: points}, nil
}

func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
