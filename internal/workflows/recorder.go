package workflows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/geolocator/internal/core/domain"
)

// Recorder implements ports.GuessRecorder by running RecordGuessWorkflow
// and waiting for its result.
type Recorder struct {
	client    client.Client
	taskQueue string
}

// NewRecorder creates a Recorder on the given task queue.
func NewRecorder(c client.Client, taskQueue string) *Recorder {
	return &Recorder{client: c, taskQueue: taskQueue}
}

// RecordGuess assigns the guess ID, which also keys the workflow so a
// resubmitted start is rejected rather than double-counted.
func (r *Recorder) RecordGuess(ctx context.Context, g *domain.GuessResult) (*domain.UserAggregate, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}

	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        "record-guess-" + g.ID,
		TaskQueue: r.taskQueue,
	}, RecordGuessWorkflow, *g)
	if err != nil {
		return nil, fmt.Errorf("start record workflow: %w", err)
	}

	var res RecordGuessResult
	if err := run.Get(ctx, &res); err != nil {
		return nil, fmt.Errorf("record workflow %s: %w", run.GetID(), err)
	}
	return &res.Aggregate, nil
}
