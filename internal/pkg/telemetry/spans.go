package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans emitted by this service.
const InstrumentationName = "github.com/samirrijal/geolocator"

// Span names used for instrumentation.
const (
	// Location generation
	SpanGenerateLocation = "location.generate"
	SpanValidateLocation = "location.validate"
	SpanReverseGeocode   = "mapbox.reverse_geocode"

	// Scoring
	SpanSubmitGuess = "game.submit_guess"
	SpanRecordGuess = "store.record_guess"
)

// Tracer returns the service tracer from the global provider. Until
// InitTracer runs this is a no-op tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
