package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	updated int64
	err     error
	calls   int
}

func (f *fakeReconciler) RecalculateAllCounters(ctx context.Context) (int64, error) {
	f.calls++
	return f.updated, f.err
}

func TestCounterReconcileTask(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rec := &fakeReconciler{updated: 3}
		task := NewCounterReconcileTask(rec, setupTestLogger())

		require.NoError(t, task.Execute(context.Background()))
		assert.Equal(t, 1, rec.calls)
		assert.Equal(t, TypeCounterReconcile, task.Type())
		assert.NotEqual(t, NewCounterReconcileTask(rec, nil).ID(), task.ID())
	})

	t.Run("failure is wrapped", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		task := NewCounterReconcileTask(&fakeReconciler{err: dbErr}, setupTestLogger())

		err := task.Execute(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to reconcile follower counters")
	})
}
