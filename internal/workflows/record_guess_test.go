package workflows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// --- In-memory GuessLedger ---

type memLedger struct {
	mu        sync.Mutex
	guesses   map[string]domain.GuessResult
	applied   map[string]bool
	agg       domain.UserAggregate
	appendErr error
	applyErr  error
	deleted   []string
}

func newMemLedger() *memLedger {
	return &memLedger{guesses: map[string]domain.GuessResult{}, applied: map[string]bool{}}
}

func (m *memLedger) AppendGuess(ctx context.Context, g *domain.GuessResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.guesses[g.ID] = *g
	return nil
}

func (m *memLedger) ApplyGuess(ctx context.Context, id string) (*domain.UserAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applyErr != nil {
		return nil, m.applyErr
	}
	g, ok := m.guesses[id]
	if !ok {
		return nil, domain.ErrGuessNotFound
	}
	if !m.applied[id] {
		m.applied[id] = true
		m.agg.UserID = g.UserID
		m.agg.PreviousHighScore = m.agg.HighScore
		m.agg.GamesPlayed++
		if g.Score > m.agg.HighScore {
			m.agg.HighScore = g.Score
		}
	}
	out := m.agg
	return &out, nil
}

func (m *memLedger) DeleteGuess(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.applied[id] {
		delete(m.guesses, id)
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func testGuess() domain.GuessResult {
	return domain.GuessResult{
		ID:         "guess-1",
		UserID:     "user-1",
		Actual:     domain.GeoPoint{Lng: 2.35, Lat: 48.85},
		Guessed:    domain.GeoPoint{Lng: -0.12, Lat: 51.5},
		DistanceKm: 343.5,
		Score:      3546,
		TimeSpent:  12,
		CreatedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func newEnv(t *testing.T, ledger *memLedger) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(RecordGuessWorkflow)
	env.RegisterActivity(&GuessActivities{Ledger: ledger})
	return env
}

func TestRecordGuessWorkflow_Success(t *testing.T) {
	ledger := newMemLedger()
	env := newEnv(t, ledger)

	env.ExecuteWorkflow(RecordGuessWorkflow, testGuess())

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if err := env.GetWorkflowError(); err != nil {
		t.Fatalf("workflow error: %v", err)
	}
	var res RecordGuessResult
	if err := env.GetWorkflowResult(&res); err != nil {
		t.Fatal(err)
	}
	if res.GuessID != "guess-1" {
		t.Errorf("guess ID = %q", res.GuessID)
	}
	if res.Aggregate.GamesPlayed != 1 || res.Aggregate.HighScore != 3546 {
		t.Errorf("unexpected aggregate %+v", res.Aggregate)
	}
	if !res.Aggregate.Improved() {
		t.Error("previous high score lost in transit")
	}
	stored := ledger.guesses["guess-1"]
	if stored.Actual != testGuess().Actual || stored.Score != 3546 {
		t.Errorf("stored guess %+v", stored)
	}
	if len(ledger.deleted) != 0 {
		t.Errorf("no compensation expected, deleted %v", ledger.deleted)
	}
}

func TestRecordGuessWorkflow_ApplyFailsCompensates(t *testing.T) {
	ledger := newMemLedger()
	ledger.applyErr = errors.New("db down")
	env := newEnv(t, ledger)

	env.ExecuteWorkflow(RecordGuessWorkflow, testGuess())

	if !env.IsWorkflowCompleted() {
		t.Fatal("workflow did not complete")
	}
	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error")
	}
	if len(ledger.deleted) != 1 || ledger.deleted[0] != "guess-1" {
		t.Errorf("expected guess-1 to be deleted, got %v", ledger.deleted)
	}
	if _, ok := ledger.guesses["guess-1"]; ok {
		t.Error("unapplied guess left in history")
	}
	if ledger.agg.GamesPlayed != 0 {
		t.Errorf("aggregate changed: %+v", ledger.agg)
	}
}

func TestRecordGuessWorkflow_AppendFails(t *testing.T) {
	ledger := newMemLedger()
	ledger.appendErr = errors.New("db down")
	env := newEnv(t, ledger)

	env.ExecuteWorkflow(RecordGuessWorkflow, testGuess())

	if env.GetWorkflowError() == nil {
		t.Fatal("expected workflow error")
	}
	if len(ledger.deleted) != 0 {
		t.Errorf("nothing to compensate, deleted %v", ledger.deleted)
	}
	if ledger.agg.GamesPlayed != 0 {
		t.Errorf("aggregate changed: %+v", ledger.agg)
	}
}
