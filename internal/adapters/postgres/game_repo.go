package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// GameRepo implements ports.GameStore and ports.GuessLedger with pgx. A
// guess counts toward history and stats only once it is applied.
type GameRepo struct {
	db *DB
}

// NewGameRepo creates a new GameRepo.
func NewGameRepo(db *DB) *GameRepo {
	return &GameRepo{db: db}
}

// RecordGuess appends the guess and updates the user's aggregate in one
// transaction. On error neither write is visible.
func (r *GameRepo) RecordGuess(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertGuess(ctx, tx, g); err != nil {
		return nil, fmt.Errorf("insert guess: %w", err)
	}
	agg, err := applyGuess(ctx, tx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("apply guess: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return agg, nil
}

// AppendGuess inserts the guess on its own, unapplied.
func (r *GameRepo) AppendGuess(ctx context.Context, g *domain.GuessResult) error {
	if g.ID == "" {
		return errors.New("append guess: missing id")
	}
	return insertGuess(ctx, r.db.Pool, g)
}

// ApplyGuess folds a stored guess into its user's aggregate. Re-applying
// returns the current aggregate unchanged.
func (r *GameRepo) ApplyGuess(ctx context.Context, guessID string) (*domain.UserAggregate, error) {
	return applyGuess(ctx, r.db.Pool, guessID)
}

// DeleteGuess removes an unapplied guess. Missing or applied guesses are
// left alone.
func (r *GameRepo) DeleteGuess(ctx context.Context, guessID string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM guesses WHERE id = $1 AND NOT applied`, guessID)
	return err
}

func insertGuess(ctx context.Context, q querier, g *domain.GuessResult) error {
	_, err := q.Exec(ctx, `
		INSERT INTO guesses (id, user_id, actual_lng, actual_lat, guessed_lng, guessed_lat,
		                     distance_km, score, time_spent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING
	`, g.ID, g.UserID, g.Actual.Lng, g.Actual.Lat, g.Guessed.Lng, g.Guessed.Lat,
		g.DistanceKm, g.Score, g.TimeSpent, g.CreatedAt)
	return err
}

// applyGuess marks the guess applied and updates the aggregate in one
// statement, so a guess is counted at most once.
func applyGuess(ctx context.Context, q querier, guessID string) (*domain.UserAggregate, error) {
	var agg domain.UserAggregate
	err := q.QueryRow(ctx, `
		WITH g AS (
			UPDATE guesses SET applied = true
			WHERE id = $1 AND NOT applied
			RETURNING user_id, score
		), prev AS (
			SELECT u.id, u.high_score
			FROM users u JOIN g ON u.id = g.user_id
			FOR UPDATE OF u
		)
		UPDATE users u
		SET games_played = u.games_played + 1,
		    high_score = GREATEST(u.high_score, g.score)
		FROM g, prev
		WHERE u.id = prev.id
		RETURNING u.id, u.games_played, u.high_score, prev.high_score
	`, guessID).Scan(&agg.UserID, &agg.GamesPlayed, &agg.HighScore, &agg.PreviousHighScore)
	if err == nil {
		return &agg, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	// Already applied, or the guess does not exist.
	err = q.QueryRow(ctx, `
		SELECT u.id, u.games_played, u.high_score
		FROM guesses g JOIN users u ON u.id = g.user_id
		WHERE g.id = $1 AND g.applied
	`, guessID).Scan(&agg.UserID, &agg.GamesPlayed, &agg.HighScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrGuessNotFound
	}
	if err != nil {
		return nil, err
	}
	agg.PreviousHighScore = agg.HighScore
	return &agg, nil
}

// History returns a user's guesses, newest first, plus the total count.
func (r *GameRepo) History(ctx context.Context, userID string, offset, limit int) ([]domain.GuessResult, int, error) {
	var total int
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM guesses WHERE user_id = $1 AND applied`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || offset >= total {
		return []domain.GuessResult{}, total, nil
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, user_id, actual_lng, actual_lat, guessed_lng, guessed_lat,
		       distance_km, score, time_spent, created_at
		FROM guesses
		WHERE user_id = $1 AND applied
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := make([]domain.GuessResult, 0, limit)
	for rows.Next() {
		var g domain.GuessResult
		if err := rows.Scan(
			&g.ID, &g.UserID,
			&g.Actual.Lng, &g.Actual.Lat, &g.Guessed.Lng, &g.Guessed.Lat,
			&g.DistanceKm, &g.Score, &g.TimeSpent, &g.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, g)
	}
	return results, total, rows.Err()
}

// GlobalStats aggregates every guess. An empty table yields zeros.
func (r *GameRepo) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	var s domain.GlobalStats
	err := r.db.Pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(AVG(score), 0)::float8,
		       COALESCE(AVG(distance_km), 0)::float8,
		       COALESCE(MAX(score), 0)
		FROM guesses
		WHERE applied
	`).Scan(&s.TotalGames, &s.AverageScore, &s.AverageDistance, &s.BestScore)
	return s, err
}

// TopPlayers returns users ordered by high score, descending.
func (r *GameRepo) TopPlayers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT username, high_score, games_played
		FROM users
		ORDER BY high_score DESC, username
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.LeaderboardEntry{}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.HighScore, &e.GamesPlayed); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
