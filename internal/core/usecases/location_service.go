package usecases

import (
	"context"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/ports"
	"github.com/samirrijal/geolocator/internal/pkg/logging"
	"github.com/samirrijal/geolocator/internal/pkg/metrics"
	"github.com/samirrijal/geolocator/internal/pkg/telemetry"
)

// DefaultMaxAttempts bounds the validity checks spent on one round.
const DefaultMaxAttempts = 5

// Random is the randomness source used for sampling. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Float64() float64
}

// globalRandom uses the math/rand/v2 top-level functions, which are safe
// for concurrent use.
type globalRandom struct{}

func (globalRandom) IntN(n int) int   { return rand.IntN(n) }
func (globalRandom) Float64() float64 { return rand.Float64() }

// LocationService picks random, geocoder-validated round targets.
type LocationService struct {
	geocoder ports.ReverseGeocoder
	rng      Random
	regions  []domain.Region
	cities   []domain.City
	now      func() time.Time
}

// NewLocationService creates a new LocationService. A nil rng uses the
// process-wide generator.
func NewLocationService(geocoder ports.ReverseGeocoder, rng Random) *LocationService {
	if rng == nil {
		rng = globalRandom{}
	}
	return &LocationService{
		geocoder: geocoder,
		rng:      rng,
		regions:  domain.Regions(),
		cities:   domain.FallbackCities(),
		now:      time.Now,
	}
}

// PickRegion selects a region with equal weight, regardless of its area.
func (s *LocationService) PickRegion() domain.Region {
	return s.regions[s.rng.IntN(len(s.regions))]
}

// SamplePoint draws latitude and longitude independently and uniformly
// inside the region's box. This is not area-uniform on the sphere; points
// near the poleward edge are oversampled.
func (s *LocationService) SamplePoint(r domain.Region) domain.GeoPoint {
	b := r.Bounds
	lat := b.MinLat + s.rng.Float64()*(b.MaxLat-b.MinLat)
	lng := b.MinLng + s.rng.Float64()*(b.MaxLng-b.MinLng)
	return domain.GeoPoint{Lng: lng, Lat: lat}
}

// IsValid asks the geocoder whether p lies in a country. Geocoder errors
// are logged and count as invalid.
func (s *LocationService) IsValid(ctx context.Context, p domain.GeoPoint) bool {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanValidateLocation)
	defer span.End()

	ok, err := s.geocoder.HasCountry(ctx, p)
	if err != nil {
		metrics.GeocodeFailures.Inc()
		span.RecordError(err)
		logging.FromContext(ctx).Warn("location validation failed",
			"lng", p.Lng, "lat", p.Lat, "error", err)
		return false
	}
	span.SetAttributes(attribute.Bool("location.valid", ok))
	return ok
}

// Generate returns a validated round target. It makes at most maxAttempts
// sequential validity checks and returns on the first valid point. When
// every attempt fails it returns a random fallback city tagged
// domain.FallbackRegion. It never fails. maxAttempts <= 0 means
// DefaultMaxAttempts.
func (s *LocationService) Generate(ctx context.Context, maxAttempts int) domain.RoundTarget {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanGenerateLocation)
	defer span.End()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		region := s.PickRegion()
		point := s.SamplePoint(region)
		if s.IsValid(ctx, point) {
			span.SetAttributes(
				attribute.Int("location.attempts", attempt),
				attribute.String("location.region", region.Name),
			)
			metrics.GenerateAttempts.Observe(float64(attempt))
			metrics.LocationsGenerated.WithLabelValues(region.Name).Inc()
			return domain.RoundTarget{Location: point, Region: region.Name, CreatedAt: s.now()}
		}
	}

	city := s.cities[s.rng.IntN(len(s.cities))]
	span.SetAttributes(
		attribute.Int("location.attempts", maxAttempts),
		attribute.String("location.region", domain.FallbackRegion),
	)
	metrics.GenerateAttempts.Observe(float64(maxAttempts))
	metrics.LocationsGenerated.WithLabelValues(domain.FallbackRegion).Inc()
	logging.FromContext(ctx).Warn("no valid location found, using fallback city",
		"attempts", maxAttempts, "city", city.Name)

	return domain.RoundTarget{Location: city.Location, Region: domain.FallbackRegion, CreatedAt: s.now()}
}
