package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/ports"
	"github.com/samirrijal/geolocator/internal/core/usecases"
)

// --- In-memory GameStore ---

type memGameStore struct {
	guesses      []domain.GuessResult
	aggs         map[string]*domain.UserAggregate
	recordCalls  int
	recordErr    error
	topPlayersFn func(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	historyLimit int
}

func newMemGameStore() *memGameStore {
	return &memGameStore{aggs: make(map[string]*domain.UserAggregate)}
}

func (m *memGameStore) RecordGuess(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
	m.recordCalls++
	if m.recordErr != nil {
		return nil, m.recordErr
	}
	g.ID = fmt.Sprintf("g%d", len(m.guesses)+1)
	m.guesses = append(m.guesses, *g)

	agg, ok := m.aggs[g.UserID]
	if !ok {
		agg = &domain.UserAggregate{UserID: g.UserID}
		m.aggs[g.UserID] = agg
	}
	agg.PreviousHighScore = agg.HighScore
	agg.GamesPlayed++
	if g.Score > agg.HighScore {
		agg.HighScore = g.Score
	}
	out := *agg
	return &out, nil
}

func (m *memGameStore) History(ctx context.Context, userID string, offset, limit int) ([]domain.GuessResult, int, error) {
	m.historyLimit = limit
	var mine []domain.GuessResult
	for i := len(m.guesses) - 1; i >= 0; i-- {
		if m.guesses[i].UserID == userID {
			mine = append(mine, m.guesses[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return mine[offset:end], total, nil
}

func (m *memGameStore) GlobalStats(ctx context.Context) (domain.GlobalStats, error) {
	var s domain.GlobalStats
	if len(m.guesses) == 0 {
		return s, nil
	}
	var scoreSum, distSum float64
	for _, g := range m.guesses {
		scoreSum += float64(g.Score)
		distSum += g.DistanceKm
		if g.Score > s.BestScore {
			s.BestScore = g.Score
		}
	}
	s.TotalGames = int64(len(m.guesses))
	s.AverageScore = scoreSum / float64(len(m.guesses))
	s.AverageDistance = distSum / float64(len(m.guesses))
	return s, nil
}

func (m *memGameStore) TopPlayers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if m.topPlayersFn != nil {
		return m.topPlayersFn(ctx, limit)
	}
	return nil, nil
}

// --- Mock MapImager ---

type stubImager struct{}

func (stubImager) LocationImageURL(p domain.GeoPoint) string {
	return fmt.Sprintf("loc/%g,%g", p.Lng, p.Lat)
}

func (stubImager) ResultImageURL(a, b domain.GeoPoint) string {
	return fmt.Sprintf("result/%g,%g/%g,%g", a.Lng, a.Lat, b.Lng, b.Lat)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	scored  []*domain.GuessScored
	changed []*domain.HighScoreChanged
	err     error
}

func (m *mockPublisher) PublishGuessScored(ctx context.Context, evt *domain.GuessScored) error {
	m.scored = append(m.scored, evt)
	return m.err
}

func (m *mockPublisher) PublishHighScoreChanged(ctx context.Context, evt *domain.HighScoreChanged) error {
	m.changed = append(m.changed, evt)
	return m.err
}

// --- Mock UserRepository ---

type mockUserRepo struct {
	users         map[string]*domain.User
	createFn      func(ctx context.Context, u *domain.User) error
	updateFn      func(ctx context.Context, u *domain.User) error
	getByUserCall int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*domain.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.getByUserCall++
	for _, u := range m.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, u)
	}
	for id, existing := range m.users {
		if id != u.ID && existing.Username == u.Username {
			return domain.ErrUsernameTaken
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

var (
	newYork = domain.GeoPoint{Lng: -73.935242, Lat: 40.730610}
	paris   = domain.GeoPoint{Lng: 2.352222, Lat: 48.856614}
	london  = domain.GeoPoint{Lng: -0.127758, Lat: 51.507351}
)

func newGameService(store *memGameStore, pub *mockPublisher, users *mockUserRepo) *usecases.GameService {
	locs := usecases.NewLocationService(&mockGeocoder{}, seeded())
	var events ports.EventPublisher
	if pub != nil {
		events = pub
	}
	var userRepo ports.UserRepository
	if users != nil {
		userRepo = users
	}
	return usecases.NewGameService(locs, store, userRepo, stubImager{}, events, usecases.GameOptions{})
}

// --- Tests ---

func TestGameService_SubmitGuess_Scores(t *testing.T) {
	store := newMemGameStore()
	svc := newGameService(store, nil, nil)

	out, err := svc.SubmitGuess(context.Background(), "u1", newYork, paris, 12.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out.Result.DistanceKm-5837) > 58 {
		t.Errorf("distance = %.1f, expected about 5837", out.Result.DistanceKm)
	}
	want := int(math.Round(5000 * math.Exp(-out.Result.DistanceKm/1000)))
	if out.Result.Score != want {
		t.Errorf("score = %d, want %d", out.Result.Score, want)
	}
	if out.HighScore != want || !out.NewHighScore {
		t.Errorf("expected first guess to set high score %d, got %+v", want, out)
	}
	if out.ResultMapURL == "" {
		t.Error("expected a result map URL")
	}
	if out.Result.TimeSpent != 12.5 {
		t.Errorf("timeSpent = %v", out.Result.TimeSpent)
	}
	if store.recordCalls != 1 {
		t.Errorf("expected 1 record call, got %d", store.recordCalls)
	}
}

func TestGameService_SubmitGuess_Deterministic(t *testing.T) {
	svc := newGameService(newMemGameStore(), nil, nil)

	a, err := svc.SubmitGuess(context.Background(), "u1", london, paris, 1)
	if err != nil {
		t.Fatal(err)
	}
	b, err := svc.SubmitGuess(context.Background(), "u1", london, paris, 1)
	if err != nil {
		t.Fatal(err)
	}
	if a.Result.DistanceKm != b.Result.DistanceKm || a.Result.Score != b.Result.Score {
		t.Errorf("identical input gave (%v, %d) and (%v, %d)",
			a.Result.DistanceKm, a.Result.Score, b.Result.DistanceKm, b.Result.Score)
	}
}

func TestGameService_SubmitGuess_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		actual    domain.GeoPoint
		guessed   domain.GeoPoint
		timeSpent float64
		wantErr   error
	}{
		{"actual lat out of range", domain.GeoPoint{Lng: 0, Lat: 91}, paris, 1, domain.ErrInvalidLocation},
		{"guessed lng out of range", paris, domain.GeoPoint{Lng: 181, Lat: 0}, 1, domain.ErrInvalidLocation},
		{"actual NaN", domain.GeoPoint{Lng: math.NaN(), Lat: 0}, paris, 1, domain.ErrInvalidLocation},
		{"negative time", paris, london, -1, domain.ErrInvalidTimeSpent},
		{"infinite time", paris, london, math.Inf(1), domain.ErrInvalidTimeSpent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemGameStore()
			svc := newGameService(store, nil, nil)

			_, err := svc.SubmitGuess(context.Background(), "u1", tt.actual, tt.guessed, tt.timeSpent)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if store.recordCalls != 0 {
				t.Errorf("store must not be called for invalid input, got %d calls", store.recordCalls)
			}
		})
	}
}

func TestGameService_SubmitGuess_PersistenceError(t *testing.T) {
	store := newMemGameStore()
	store.recordErr = errors.New("connection refused")
	pub := &mockPublisher{}
	svc := newGameService(store, pub, nil)

	out, err := svc.SubmitGuess(context.Background(), "u1", paris, london, 3)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, store.recordErr) {
		t.Errorf("expected wrapped store error, got %v", err)
	}
	if out != nil {
		t.Errorf("expected nil outcome, got %+v", out)
	}
	if len(pub.scored) != 0 || len(pub.changed) != 0 {
		t.Error("no events may be published for an unrecorded guess")
	}
}

func TestGameService_SubmitGuess_AggregateAfterNGuesses(t *testing.T) {
	store := newMemGameStore()
	svc := newGameService(store, nil, nil)

	guesses := []domain.GeoPoint{
		london,
		{Lng: 10, Lat: 10},
		paris,
		{Lng: 139.69, Lat: 35.68},
		{Lng: 2.5, Lat: 48.9},
	}
	maxScore := 0
	var last *domain.GuessOutcome
	for _, g := range guesses {
		out, err := svc.SubmitGuess(context.Background(), "player", paris, g, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Result.Score > maxScore {
			maxScore = out.Result.Score
		}
		if out.HighScore != maxScore {
			t.Errorf("high score %d after scoring %d, want %d", out.HighScore, out.Result.Score, maxScore)
		}
		last = out
	}

	agg := store.aggs["player"]
	if agg.GamesPlayed != len(guesses) {
		t.Errorf("gamesPlayed = %d, want %d", agg.GamesPlayed, len(guesses))
	}
	if agg.HighScore != maxScore {
		t.Errorf("highScore = %d, want %d", agg.HighScore, maxScore)
	}
	if last.HighScore != maxScore {
		t.Errorf("last outcome high score = %d, want %d", last.HighScore, maxScore)
	}
}

func TestGameService_SubmitGuess_PublishesEvents(t *testing.T) {
	users := newMockUserRepo()
	users.users["u1"] = &domain.User{ID: "u1", Username: "marco"}
	pub := &mockPublisher{}
	svc := newGameService(newMemGameStore(), pub, users)

	// Exact hit raises the high score.
	if _, err := svc.SubmitGuess(context.Background(), "u1", paris, paris, 1); err != nil {
		t.Fatal(err)
	}
	// A worse guess does not.
	if _, err := svc.SubmitGuess(context.Background(), "u1", paris, newYork, 1); err != nil {
		t.Fatal(err)
	}

	if len(pub.scored) != 2 {
		t.Fatalf("expected 2 GuessScored events, got %d", len(pub.scored))
	}
	if len(pub.changed) != 1 {
		t.Fatalf("expected 1 HighScoreChanged event, got %d", len(pub.changed))
	}
	changed := pub.changed[0]
	if changed.Username != "marco" || changed.HighScore != 5000 || changed.PreviousHigh != 0 {
		t.Errorf("unexpected HighScoreChanged: %+v", changed)
	}
	if pub.scored[0].EventID == "" || pub.scored[0].EventID == pub.scored[1].EventID {
		t.Error("events need unique IDs")
	}
}

func TestGameService_SubmitGuess_PublishFailureIgnored(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := newGameService(newMemGameStore(), pub, nil)

	out, err := svc.SubmitGuess(context.Background(), "u1", paris, london, 1)
	if err != nil {
		t.Fatalf("publish errors must not fail the guess: %v", err)
	}
	if out.Result.Score == 0 {
		t.Error("expected a scored guess")
	}
}

type recorderFunc func(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error)

func (f recorderFunc) RecordGuess(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
	return f(ctx, g)
}

func TestGameService_RecorderOverride(t *testing.T) {
	store := newMemGameStore()
	called := false
	rec := recorderFunc(func(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
		called = true
		return &domain.UserAggregate{UserID: g.UserID, GamesPlayed: 1, HighScore: g.Score}, nil
	})
	svc := usecases.NewGameService(
		usecases.NewLocationService(&mockGeocoder{}, seeded()),
		store, nil, stubImager{}, nil,
		usecases.GameOptions{Recorder: rec},
	)

	if _, err := svc.SubmitGuess(context.Background(), "u1", paris, london, 1); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("expected override recorder to be used")
	}
	if store.recordCalls != 0 {
		t.Error("store recorder must not be used when overridden")
	}
}

func TestGameService_StartRound(t *testing.T) {
	svc := newGameService(newMemGameStore(), nil, nil)

	round := svc.StartRound(context.Background())
	if err := round.Target.Location.Validate(); err != nil {
		t.Fatalf("invalid round location: %v", err)
	}
	want := stubImager{}.LocationImageURL(round.Target.Location)
	if round.ImageURL != want {
		t.Errorf("ImageURL = %q, want %q", round.ImageURL, want)
	}
}

func TestGameService_History(t *testing.T) {
	store := newMemGameStore()
	svc := newGameService(store, nil, nil)
	for i := 0; i < 12; i++ {
		if _, err := svc.SubmitGuess(context.Background(), "u1", paris, london, float64(i)); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.SubmitGuess(context.Background(), "other", paris, london, 1); err != nil {
		t.Fatal(err)
	}

	entries, total, err := svc.History(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 12 {
		t.Errorf("total = %d, want 12", total)
	}
	if len(entries) != 10 || store.historyLimit != 10 {
		t.Errorf("expected default page of 10, got %d (limit %d)", len(entries), store.historyLimit)
	}
	if entries[0].TimeSpent != 11 {
		t.Errorf("expected newest first, got timeSpent %v", entries[0].TimeSpent)
	}
	if entries[0].ResultMapURL != (stubImager{}).ResultImageURL(paris, london) {
		t.Errorf("unexpected result map URL %q", entries[0].ResultMapURL)
	}

	if _, _, err := svc.History(context.Background(), "u1", 0, 500); err != nil {
		t.Fatal(err)
	}
	if store.historyLimit != 50 {
		t.Errorf("expected limit clamped to 50, got %d", store.historyLimit)
	}
}

func TestGameService_GlobalStats_Empty(t *testing.T) {
	svc := newGameService(newMemGameStore(), nil, nil)

	stats, err := svc.GlobalStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats != (domain.GlobalStats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestGameService_Leaderboard(t *testing.T) {
	store := newMemGameStore()
	gotLimit := 0
	store.topPlayersFn = func(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
		gotLimit = limit
		return nil, nil
	}
	svc := newGameService(store, nil, nil)

	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 10 {
		t.Errorf("expected default leaderboard size 10, got %d", gotLimit)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", entries)
	}
}
