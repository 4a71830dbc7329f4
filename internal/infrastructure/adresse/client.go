// Package adresse queries the French national address API.
package adresse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lcmcoursier/courier-quote/internal/core/domain"
)

const DefaultBaseURL = "https://api-adresse.data.gouv.fr"

type featureCollection struct {
	Features []struct {
		Geometry struct {
			// GeoJSON order: [lon, lat]
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label string `json:"label"`
		} `json:"properties"`
	} `json:"features"`
}

// Client implements ports.AddressSearcher.
type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Search returns up to limit candidates for query, biased towards near.
// Features without a label or a coordinate pair are skipped.
func (c *Client) Search(ctx context.Context, query string, near domain.Coordinates, limit int) ([]domain.Address, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("lat", strconv.FormatFloat(near.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(near.Lon, 'f', -1, 64))
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("address request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("address search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("address search %d: %s", resp.StatusCode, string(b))
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, fmt.Errorf("address decode: %w", err)
	}

	out := make([]domain.Address, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f.Properties.Label == "" || len(f.Geometry.Coordinates) < 2 {
			continue
		}
		out = append(out, domain.Address{
			Label: f.Properties.Label,
			Coordinates: domain.Coordinates{
				Lon: f.Geometry.Coordinates[0],
				Lat: f.Geometry.Coordinates[1],
			},
		})
	}
	return out, nil
}
