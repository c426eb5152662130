package usecases

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/ports"
	"github.com/samirrijal/geolocator/internal/core/scoring"
	"github.com/samirrijal/geolocator/internal/pkg/geospatial"
	"github.com/samirrijal/geolocator/internal/pkg/logging"
	"github.com/samirrijal/geolocator/internal/pkg/metrics"
	"github.com/samirrijal/geolocator/internal/pkg/telemetry"
)

// GameOptions tunes a GameService. Zero values fall back to defaults.
type GameOptions struct {
	MaxAttempts     int
	LeaderboardSize int
	HistorySize     int
	// Recorder overrides the store's own RecordGuess, e.g. with a
	// workflow-backed recorder.
	Recorder ports.GuessRecorder
}

// Round is a started round: the target plus its satellite image.
type Round struct {
	Target   domain.RoundTarget
	ImageURL string
}

// GameService runs rounds and scores guesses.
type GameService struct {
	locations *LocationService
	store     ports.GameStore
	recorder  ports.GuessRecorder
	users     ports.UserRepository
	imager    ports.MapImager
	events    ports.EventPublisher

	maxAttempts     int
	leaderboardSize int
	historySize     int
	now             func() time.Time
}

// NewGameService creates a new GameService. users and events may be nil.
func NewGameService(
	locations *LocationService,
	store ports.GameStore,
	users ports.UserRepository,
	imager ports.MapImager,
	events ports.EventPublisher,
	opts GameOptions,
) *GameService {
	s := &GameService{
		locations:       locations,
		store:           store,
		recorder:        opts.Recorder,
		users:           users,
		imager:          imager,
		events:          events,
		maxAttempts:     opts.MaxAttempts,
		leaderboardSize: opts.LeaderboardSize,
		historySize:     opts.HistorySize,
		now:             time.Now,
	}
	if s.recorder == nil {
		s.recorder = store
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxAttempts
	}
	if s.leaderboardSize <= 0 {
		s.leaderboardSize = 10
	}
	if s.historySize <= 0 {
		s.historySize = 10
	}
	return s
}

// StartRound generates a new round target. It never fails.
func (s *GameService) StartRound(ctx context.Context) Round {
	target := s.locations.Generate(ctx, s.maxAttempts)
	return Round{
		Target:   target,
		ImageURL: s.imager.LocationImageURL(target.Location),
	}
}

// SubmitGuess validates and scores a guess, then records it together with
// the player's aggregate. Invalid input is rejected before any distance is
// computed; a recording failure is returned and nothing is scored.
func (s *GameService) SubmitGuess(ctx context.Context, userID string, actual, guessed domain.GeoPoint, timeSpent float64) (*domain.GuessOutcome, error) {
	if err := actual.Validate(); err != nil {
		return nil, fmt.Errorf("actualLocation: %w", err)
	}
	if err := guessed.Validate(); err != nil {
		return nil, fmt.Errorf("guessedLocation: %w", err)
	}
	if math.IsNaN(timeSpent) || math.IsInf(timeSpent, 0) || timeSpent < 0 {
		return nil, domain.ErrInvalidTimeSpent
	}

	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanSubmitGuess)
	defer span.End()

	distance := geospatial.DistanceKm(actual, guessed)
	score := scoring.Score(distance)
	span.SetAttributes(
		attribute.Float64("guess.distance_km", distance),
		attribute.Int("guess.score", score),
	)

	result := &domain.GuessResult{
		UserID:     userID,
		Actual:     actual,
		Guessed:    guessed,
		DistanceKm: distance,
		Score:      score,
		TimeSpent:  timeSpent,
		CreatedAt:  s.now().UTC(),
	}

	agg, err := s.record(ctx, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record guess")
		return nil, fmt.Errorf("record guess: %w", err)
	}

	metrics.ObserveGuess(score, distance)
	s.publish(ctx, result, agg)

	return &domain.GuessOutcome{
		Result:       *result,
		ResultMapURL: s.imager.ResultImageURL(actual, guessed),
		HighScore:    agg.HighScore,
		NewHighScore: agg.Improved(),
	}, nil
}

func (s *GameService) record(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRecordGuess)
	defer span.End()

	agg, err := s.recorder.RecordGuess(ctx, g)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return agg, nil
}

// publish emits the guess events. Failures are logged and counted only.
func (s *GameService) publish(ctx context.Context, g *domain.GuessResult, agg *domain.UserAggregate) {
	if s.events == nil {
		return
	}
	log := logging.FromContext(ctx)
	now := s.now().UTC()

	scored := &domain.GuessScored{
		EventID:    uuid.NewString(),
		UserID:     g.UserID,
		Score:      g.Score,
		DistanceKm: g.DistanceKm,
		HighScore:  agg.HighScore,
		OccurredAt: now,
	}
	if err := s.events.PublishGuessScored(ctx, scored); err != nil {
		metrics.EventPublishErrors.WithLabelValues("guess.scored").Inc()
		log.Warn("publish guess scored", "user_id", g.UserID, "error", err)
	}

	if !agg.Improved() {
		return
	}
	changed := &domain.HighScoreChanged{
		EventID:      uuid.NewString(),
		UserID:       g.UserID,
		HighScore:    agg.HighScore,
		PreviousHigh: agg.PreviousHighScore,
		OccurredAt:   now,
	}
	if s.users != nil {
		if u, err := s.users.GetByID(ctx, g.UserID); err == nil {
			changed.Username = u.Username
		}
	}
	if err := s.events.PublishHighScoreChanged(ctx, changed); err != nil {
		metrics.EventPublishErrors.WithLabelValues("leaderboard.highscore").Inc()
		log.Warn("publish high score changed", "user_id", g.UserID, "error", err)
	}
}

// History returns a page of the user's guesses, newest first, with the
// total count. limit <= 0 uses the configured history size; at most 50
// entries are returned.
func (s *GameService) History(ctx context.Context, userID string, offset, limit int) ([]domain.HistoryEntry, int, error) {
	if limit <= 0 {
		limit = s.historySize
	}
	if limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	results, total, err := s.store.History(ctx, userID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	entries := make([]domain.HistoryEntry, len(results))
	for i, r := range results {
		entries[i] = domain.HistoryEntry{
			GuessResult:  r,
			ResultMapURL: s.imager.ResultImageURL(r.Actual, r.Guessed),
		}
	}
	return entries, total, nil
}

// HistorySize is the default history page size.
func (s *GameService) HistorySize() int {
	return s.historySize
}

// Leaderboard returns the top players by high score.
func (s *GameService) Leaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.TopPlayers(ctx, s.leaderboardSize)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// GlobalStats summarises all recorded guesses.
func (s *GameService) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	return s.store.GlobalStats(ctx)
}
