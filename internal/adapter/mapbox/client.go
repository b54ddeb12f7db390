// Package mapbox fills missing station locations from the Mapbox
// reverse-geocoding endpoint.
package mapbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fuel-stock-etl/internal/domain"
	"github.com/go-resty/resty/v2"
)

const (
	placesURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"
	// Station addresses are shown to Spanish-speaking users.
	placeLanguage = "es"
)

var _ domain.Geocoder = (*Client)(nil)

// Client reverse geocodes station coordinates into a street address.
type Client struct {
	rest    *resty.Client
	baseURL string
	logger  *slog.Logger
}

// NewClient creates a Mapbox client authenticated with token.
func NewClient(token string, timeout time.Duration, logger *slog.Logger) *Client {
	rest := resty.New().
		SetTimeout(timeout).
		SetQueryParams(map[string]string{
			"access_token": token,
			"limit":        "1",
			"types":        "address,poi",
			"language":     placeLanguage,
		})

	return &Client{rest: rest, baseURL: placesURL, logger: logger}
}

// ReverseGeocode returns the best address match for the point. A point with
// no match yields a zero result and no error.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	// Mapbox takes lon,lat.
	endpoint := fmt.Sprintf("%s/%.6f,%.6f.json", c.baseURL, lon, lat)

	var places placesResponse
	res, err := c.rest.R().
		SetContext(ctx).
		SetResult(&places).
		Get(endpoint)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("reverse geocode %.6f,%.6f: %w", lat, lon, err)
	}
	if res.IsError() {
		return domain.GeocodingResult{}, fmt.Errorf("mapbox: status %d: %s", res.StatusCode(), res.String())
	}

	c.logger.Debug("mapbox reverse geocode",
		"lat", lat,
		"lon", lon,
		"features", len(places.Features),
		"duration", res.Time(),
	)
	return places.best(), nil
}

type placesResponse struct {
	Features []struct {
		PlaceName string  `json:"place_name"`
		Text      string  `json:"text"`
		Relevance float64 `json:"relevance"`
	} `json:"features"`
}

func (p placesResponse) best() domain.GeocodingResult {
	if len(p.Features) == 0 {
		return domain.GeocodingResult{}
	}
	f := p.Features[0]
	return domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
}
