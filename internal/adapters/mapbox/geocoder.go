package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/pkg/telemetry"
)

// DefaultGeocodingURL is the Mapbox v5 places endpoint.
const DefaultGeocodingURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Geocoder implements ports.ReverseGeocoder with the Mapbox geocoding API.
type Geocoder struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewGeocoder creates a Geocoder. An empty baseURL uses DefaultGeocodingURL;
// timeout <= 0 uses 10s.
func NewGeocoder(baseURL, token string, timeout time.Duration) *Geocoder {
	if baseURL == "" {
		baseURL = DefaultGeocodingURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geocoder{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

type featureCollection struct {
	Features []json.RawMessage `json:"features"`
}

// HasCountry reports whether p reverse-geocodes to at least one country
// feature. Transport errors and non-200 responses are returned as errors.
func (g *Geocoder) HasCountry(ctx context.Context, p domain.GeoPoint) (bool, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanReverseGeocode)
	defer span.End()

	q := url.Values{}
	q.Set("types", "country")
	q.Set("limit", "1")
	q.Set("access_token", g.token)
	u := fmt.Sprintf("%s/%s,%s.json?%s", g.baseURL, coord(p.Lng), coord(p.Lat), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("reverse geocode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("reverse geocode: HTTP %d", resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}

	ok := len(fc.Features) > 0
	span.SetAttributes(attribute.Int("mapbox.features", len(fc.Features)))
	return ok, nil
}
