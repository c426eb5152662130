package mapbox

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// DefaultStaticURL is the Mapbox static images styles endpoint.
const DefaultStaticURL = "https://api.mapbox.com/styles/v1/mapbox"

// StaticMaps implements ports.MapImager with Mapbox static image URLs.
type StaticMaps struct {
	baseURL string
	token   string
}

// NewStaticMaps creates a StaticMaps. An empty baseURL uses DefaultStaticURL.
func NewStaticMaps(baseURL, token string) *StaticMaps {
	if baseURL == "" {
		baseURL = DefaultStaticURL
	}
	return &StaticMaps{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// LocationImageURL returns a 600x400 satellite image centred on p at zoom 14.
func (m *StaticMaps) LocationImageURL(p domain.GeoPoint) string {
	return fmt.Sprintf("%s/satellite-v9/static/%s,%s,14,0/600x400?access_token=%s",
		m.baseURL, coord(p.Lng), coord(p.Lat), url.QueryEscape(m.token))
}

// ResultImageURL returns a street map with the actual location pinned red
// ("a") and the guess pinned blue ("b"), auto-fitted to both.
func (m *StaticMaps) ResultImageURL(actual, guessed domain.GeoPoint) string {
	return fmt.Sprintf("%s/streets-v11/static/pin-s-a+ff0000(%s,%s),pin-s-b+0000ff(%s,%s)/auto/600x400?access_token=%s",
		m.baseURL,
		coord(actual.Lng), coord(actual.Lat),
		coord(guessed.Lng), coord(guessed.Lat),
		url.QueryEscape(m.token))
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
