package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolocator",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Game metrics
	LocationsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "locations_generated_total",
		Help:      "Round targets produced, by region (Fallback included)",
	}, []string{"region"})

	GeocodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "geocode_failures_total",
		Help:      "Reverse-geocoding calls that errored and were treated as invalid",
	})

	GenerateAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "generate_attempts",
		Help:      "Validity checks spent per generated round",
		Buckets:   []float64{1, 2, 3, 4, 5, 8, 10},
	})

	GuessesScored = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "guesses_total",
		Help:      "Guesses scored and recorded",
	})

	GuessScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "score",
		Help:      "Distribution of guess scores",
		Buckets:   []float64{0, 100, 500, 1000, 2000, 3000, 4000, 4500, 4900, 5000},
	})

	GuessDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "geolocator",
		Subsystem: "game",
		Name:      "guess_distance_km",
		Help:      "Distribution of guess distances in kilometers",
		Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
	})

	EventPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "geolocator",
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Game events that could not be published",
	}, []string{"subject"})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geolocator",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	// Database pool metrics
	DBPoolConnsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geolocator",
		Subsystem: "db",
		Name:      "pool_conns_open",
		Help:      "Total connections open in the database pool",
	})

	DBPoolConnsAcquired = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geolocator",
		Subsystem: "db",
		Name:      "pool_conns_acquired",
		Help:      "Connections currently acquired from the database pool",
	})

	DBPoolConnsIdle = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "geolocator",
		Subsystem: "db",
		Name:      "pool_conns_idle",
		Help:      "Idle connections in the database pool",
	})
)

// ObserveGuess records one scored guess.
func ObserveGuess(score int, distanceKm float64) {
	GuessesScored.Inc()
	GuessScore.Observe(float64(score))
	GuessDistance.Observe(distanceKm)
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}

// UpdateDBPoolMetrics updates database pool gauges from a pgxpool.Stat.
// The stat is taken as an interface so this package does not import pgx.
func UpdateDBPoolMetrics(stat interface{}) {
	type poolStat interface {
		AcquiredConns() int32
		IdleConns() int32
		TotalConns() int32
	}

	if s, ok := stat.(poolStat); ok {
		DBPoolConnsAcquired.Set(float64(s.AcquiredConns()))
		DBPoolConnsIdle.Set(float64(s.IdleConns()))
		DBPoolConnsOpen.Set(float64(s.TotalConns()))
	}
}
