package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidTimeSpent   = errors.New("timeSpent must be a non-negative number of seconds")
	ErrUserNotFound       = errors.New("user not found")
	ErrGuessNotFound      = errors.New("guess not found")
	ErrUsernameTaken      = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be 3-24 chars: letters, numbers, underscore")
	ErrInvalidPassword    = errors.New("password must be 8-100 chars")
)

// RoundTarget is the location chosen for a new round.
type RoundTarget struct {
	Location  GeoPoint  `json:"location"`
	Region    string    `json:"region"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsFallback reports whether the target came from the fallback city list.
func (t RoundTarget) IsFallback() bool {
	return t.Region == FallbackRegion
}

// GuessResult is one scored guess. It is append-only history.
type GuessResult struct {
	ID         string    `json:"id,omitempty"`
	UserID     string    `json:"userId"`
	Actual     GeoPoint  `json:"actualLocation"`
	Guessed    GeoPoint  `json:"guessedLocation"`
	DistanceKm float64   `json:"distance"`
	Score      int       `json:"score"`
	TimeSpent  float64   `json:"timeSpent"` // seconds
	CreatedAt  time.Time `json:"createdAt"`
}

// UserAggregate is the per-user leaderboard record.
type UserAggregate struct {
	UserID      string `json:"userId"`
	GamesPlayed int    `json:"gamesPlayed"`
	HighScore   int    `json:"highScore"`
	// PreviousHighScore is the high score before the last recorded guess.
	PreviousHighScore int `json:"previousHighScore"`
}

// Improved reports whether the last recorded guess raised the high score.
func (a UserAggregate) Improved() bool {
	return a.HighScore > a.PreviousHighScore
}

// User is a registered player.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GamesPlayed  int       `json:"gamesPlayed"`
	HighScore    int       `json:"highScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LeaderboardEntry is one row of the high-score table.
type LeaderboardEntry struct {
	Username    string `json:"username"`
	HighScore   int    `json:"highScore"`
	GamesPlayed int    `json:"gamesPlayed"`
}

// GlobalStats summarises every recorded guess.
type GlobalStats struct {
	TotalGames      int64   `json:"totalGames"`
	AverageScore    float64 `json:"averageScore"`
	AverageDistance float64 `json:"averageDistance"`
	BestScore       int     `json:"bestScore"`
}

// HistoryEntry is a past guess with its result map.
type HistoryEntry struct {
	GuessResult
	ResultMapURL string `json:"resultMapUrl"`
}

// GuessOutcome is what a guess submission returns to the player.
type GuessOutcome struct {
	Result       GuessResult `json:"result"`
	ResultMapURL string      `json:"resultMapUrl"`
	HighScore    int         `json:"highScore"`
	// NewHighScore is set when this guess raised the player's high score.
	NewHighScore bool `json:"newHighScore"`
}
