package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// TypeCounterReconcile identifies follower counter reconciliation tasks.
const TypeCounterReconcile = "counter_reconcile"

// CounterReconciler repairs denormalized follower counters.
// service.UserService satisfies it.
type CounterReconciler interface {
	RecalculateAllCounters(ctx context.Context) (int64, error)
}

// CounterReconcileTask resets every user's follower and following counters
// to the sizes of their sets.
type CounterReconcileTask struct {
	id         uuid.UUID
	reconciler CounterReconciler
	logger     *slog.Logger
}

// NewCounterReconcileTask creates a reconciliation task.
func NewCounterReconcileTask(reconciler CounterReconciler, logger *slog.Logger) *CounterReconcileTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &CounterReconcileTask{
		id:         uuid.New(),
		reconciler: reconciler,
		logger:     logger,
	}
}

// ID returns the task's unique identifier
func (t *CounterReconcileTask) ID() uuid.UUID {
	return t.id
}

// Type returns TypeCounterReconcile
func (t *CounterReconcileTask) Type() string {
	return TypeCounterReconcile
}

// Execute runs the reconciliation.
func (t *CounterReconcileTask) Execute(ctx context.Context) error {
	updated, err := t.reconciler.RecalculateAllCounters(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile follower counters: %w", err)
	}

	if updated > 0 {
		t.logger.Warn("follower counters were out of sync",
			slog.String("task_id", t.id.String()),
			slog.Int64("updated", updated))
	} else {
		t.logger.Debug("follower counters in sync", slog.String("task_id", t.id.String()))
	}
	return nil
}
