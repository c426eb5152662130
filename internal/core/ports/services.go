package ports

import (
	"context"
	"time"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// ReverseGeocoder answers whether a coordinate resolves to a country.
type ReverseGeocoder interface {
	HasCountry(ctx context.Context, p domain.GeoPoint) (bool, error)
}

// MapImager builds static map image URLs. It does no I/O.
type MapImager interface {
	LocationImageURL(p domain.GeoPoint) string
	ResultImageURL(actual, guessed domain.GeoPoint) string
}

// EventPublisher publishes game events to a message broker.
type EventPublisher interface {
	PublishGuessScored(ctx context.Context, evt *domain.GuessScored) error
	PublishHighScoreChanged(ctx context.Context, evt *domain.HighScoreChanged) error
}

// TokenIssuer signs session tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID, username string) (token string, expires time.Time, err error)
}
