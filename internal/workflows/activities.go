package workflows

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/samirrijal/geolocator/internal/core/domain"
	"github.com/samirrijal/geolocator/internal/core/ports"
)

// Activity names, registered by method name.
const (
	ActivityAppendGuess = "AppendGuess"
	ActivityApplyGuess  = "ApplyGuess"
	ActivityDeleteGuess = "DeleteGuess"
)

// GuessActivities holds the activity implementations for RecordGuessWorkflow.
type GuessActivities struct {
	Ledger ports.GuessLedger
}

// AppendGuess stores the guess, unapplied.
func (a *GuessActivities) AppendGuess(ctx context.Context, g domain.GuessResult) error {
	if err := a.Ledger.AppendGuess(ctx, &g); err != nil {
		return fmt.Errorf("append guess %s: %w", g.ID, err)
	}
	return nil
}

// ApplyGuess folds the stored guess into the user's aggregate.
func (a *GuessActivities) ApplyGuess(ctx context.Context, guessID string) (domain.UserAggregate, error) {
	agg, err := a.Ledger.ApplyGuess(ctx, guessID)
	if err != nil {
		return domain.UserAggregate{}, fmt.Errorf("apply guess %s: %w", guessID, err)
	}
	return *agg, nil
}

// DeleteGuess removes an unapplied guess (saga compensation / rollback).
func (a *GuessActivities) DeleteGuess(ctx context.Context, guessID string) error {
	if err := a.Ledger.DeleteGuess(ctx, guessID); err != nil {
		return fmt.Errorf("delete guess %s: %w", guessID, err)
	}
	activity.GetLogger(ctx).Info("guess deleted (saga compensation)", "guessID", guessID)
	return nil
}
