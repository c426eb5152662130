package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// RecordGuessResult is what RecordGuessWorkflow returns.
type RecordGuessResult struct {
	GuessID   string
	Aggregate domain.UserAggregate
}

// RecordGuessWorkflow appends a guess and then applies it to the user's
// aggregate. If applying fails after retries the guess is deleted
// (saga compensation), so history never holds an uncounted guess.
func RecordGuessWorkflow(ctx workflow.Context, g domain.GuessResult) (RecordGuessResult, error) {
	logger := workflow.GetLogger(ctx)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 200 * time.Millisecond,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Append history entry
	if err := workflow.ExecuteActivity(ctx, ActivityAppendGuess, g).Get(ctx, nil); err != nil {
		return RecordGuessResult{}, err
	}

	// Step 2: Update aggregate
	var agg domain.UserAggregate
	if err := workflow.ExecuteActivity(ctx, ActivityApplyGuess, g.ID).Get(ctx, &agg); err != nil {
		logger.Warn("apply guess failed, compensating", "guessID", g.ID, "error", err)
		// Compensate: delete the unapplied guess
		_ = workflow.ExecuteActivity(ctx, ActivityDeleteGuess, g.ID).Get(ctx, nil)
		return RecordGuessResult{}, err
	}

	return RecordGuessResult{GuessID: g.ID, Aggregate: agg}, nil
}
