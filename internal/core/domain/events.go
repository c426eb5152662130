package domain

import "time"

// GuessScored is published after a guess and its aggregate update are committed.
type GuessScored struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	Score      int       `json:"score"`
	DistanceKm float64   `json:"distance_km"`
	HighScore  int       `json:"high_score"`
	OccurredAt time.Time `json:"occurred_at"`
}

// HighScoreChanged is published when a guess raises a player's high score.
type HighScoreChanged struct {
	EventID      string    `json:"event_id"`
	UserID       string    `json:"user_id"`
	Username     string    `json:"username"`
	HighScore    int       `json:"high_score"`
	PreviousHigh int       `json:"previous_high"`
	OccurredAt   time.Time `json:"occurred_at"`
}
