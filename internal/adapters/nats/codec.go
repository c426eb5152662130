package natsadapter

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// Event type tags carried in every payload.
const (
	TypeGuessScored      = "guess.scored"
	TypeHighScoreChanged = "leaderboard.highscore"
)

// Events are encoded as a protobuf Struct so consumers in any language can
// decode them without generated code.

// EncodeGuessScored encodes a GuessScored event.
func EncodeGuessScored(e *domain.GuessScored) ([]byte, error) {
	return encode(map[string]any{
		"type":        TypeGuessScored,
		"event_id":    e.EventID,
		"user_id":     e.UserID,
		"score":       e.Score,
		"distance_km": e.DistanceKm,
		"high_score":  e.HighScore,
		"occurred_at": e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

// EncodeHighScoreChanged encodes a HighScoreChanged event.
func EncodeHighScoreChanged(e *domain.HighScoreChanged) ([]byte, error) {
	return encode(map[string]any{
		"type":          TypeHighScoreChanged,
		"event_id":      e.EventID,
		"user_id":       e.UserID,
		"username":      e.Username,
		"high_score":    e.HighScore,
		"previous_high": e.PreviousHigh,
		"occurred_at":   e.OccurredAt.UTC().Format(time.RFC3339Nano),
	})
}

func encode(fields map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build struct: %w", err)
	}
	return proto.Marshal(s)
}

func decode(data []byte, wantType string) (map[string]*structpb.Value, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	f := s.GetFields()
	if got := f["type"].GetStringValue(); got != wantType {
		return nil, fmt.Errorf("unexpected event type %q, want %q", got, wantType)
	}
	return f, nil
}

func parseTime(v *structpb.Value) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v.GetStringValue())
	return t
}

// DecodeGuessScored decodes a payload written by EncodeGuessScored.
func DecodeGuessScored(data []byte) (*domain.GuessScored, error) {
	f, err := decode(data, TypeGuessScored)
	if err != nil {
		return nil, err
	}
	return &domain.GuessScored{
		EventID:    f["event_id"].GetStringValue(),
		UserID:     f["user_id"].GetStringValue(),
		Score:      int(f["score"].GetNumberValue()),
		DistanceKm: f["distance_km"].GetNumberValue(),
		HighScore:  int(f["high_score"].GetNumberValue()),
		OccurredAt: parseTime(f["occurred_at"]),
	}, nil
}

// DecodeHighScoreChanged decodes a payload written by EncodeHighScoreChanged.
func DecodeHighScoreChanged(data []byte) (*domain.HighScoreChanged, error) {
	f, err := decode(data, TypeHighScoreChanged)
	if err != nil {
		return nil, err
	}
	return &domain.HighScoreChanged{
		EventID:      f["event_id"].GetStringValue(),
		UserID:       f["user_id"].GetStringValue(),
		Username:     f["username"].GetStringValue(),
		HighScore:    int(f["high_score"].GetNumberValue()),
		PreviousHigh: int(f["previous_high"].GetNumberValue()),
		OccurredAt:   parseTime(f["occurred_at"]),
	}, nil
}

// ToJSON transcodes a wire payload to JSON for browser clients.
func ToJSON(data []byte) ([]byte, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	return protojson.Marshal(&s)
}
