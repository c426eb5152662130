package ports

import (
	"context"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// GuessRecorder commits a scored guess: it appends the history entry and
// updates the player's aggregate as one unit. Either both writes are
// visible afterwards or an error is returned.
type GuessRecorder interface {
	RecordGuess(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error)
}

// GameStore persists guess history and serves the read-side queries.
type GameStore interface {
	GuessRecorder
	// History returns a user's guesses, newest first.
	History(ctx context.Context, userID string, offset, limit int) ([]domain.GuessResult, int, error)
	// GlobalStats aggregates every recorded guess. Zero games yields a zero value.
	GlobalStats(ctx context.Context) (domain.GlobalStats, error)
	// TopPlayers returns users ordered by high score, descending.
	TopPlayers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// GuessLedger exposes the two writes of RecordGuess separately, plus the
// compensating delete, for recorders that cannot run them in one
// transaction. Every step is idempotent so it can be retried.
type GuessLedger interface {
	// AppendGuess stores g under its caller-assigned ID. Appending an
	// existing ID is a no-op.
	AppendGuess(ctx context.Context, g *domain.GuessResult) error
	// ApplyGuess folds a stored guess into its user's aggregate exactly once.
	ApplyGuess(ctx context.Context, guessID string) (*domain.UserAggregate, error)
	// DeleteGuess removes a guess that was never applied.
	DeleteGuess(ctx context.Context, guessID string) error
}

// UserRepository persists players.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
}
