package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/logfields"
)

// Outcome labels a finished task.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeCanceled = "canceled"
)

// Run executes the named task and records its duration and outcome.
func Run(ctx context.Context, name string, s *Session) error {
	t, err := Lookup(name)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	start := time.Now()
	slog.Info("Task started", logfields.Task(name), slog.String("run_id", runID))

	err = t.Run(ctx, s)

	d := time.Since(start)
	outcome := outcomeOf(ctx, err)
	rec := s.recorder()
	rec.ObserveTaskDuration(name, d)
	rec.IncTaskOutcome(name, outcome)

	attrs := []any{
		logfields.Task(name),
		slog.String("run_id", runID),
		slog.String("outcome", outcome),
		logfields.DurationMS(float64(d.Milliseconds())),
	}
	if err != nil {
		slog.Error("Task finished", append(attrs, logfields.Error(err))...)
		return err
	}
	slog.Info("Task finished", attrs...)
	return nil
}

func outcomeOf(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case ctx.Err() != nil, errors.Is(err, context.Canceled), derrors.HasCategory(err, derrors.CategoryAborted):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}
