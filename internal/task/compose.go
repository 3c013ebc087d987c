package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	derrors "github.com/ant-design/antd-tools/internal/errors"
	"github.com/ant-design/antd-tools/internal/foundation"
	"github.com/ant-design/antd-tools/internal/logfields"
)

// Func is the body of a task.
type Func func(ctx context.Context, s *Session) error

// Series runs fns in order and stops at the first failure.
func Series(fns ...Func) Func {
	return func(ctx context.Context, s *Session) error {
		for _, fn := range fns {
			if err := ctx.Err(); err != nil {
				return derrors.WrapError(err, derrors.CategoryAborted, "task canceled").Build()
			}
			if err := fn(ctx, s); err != nil {
				return err
			}
		}
		return nil
	}
}

// Parallel runs fns concurrently and waits for all of them. A single
// failure is returned as is; several are joined.
func Parallel(fns ...Func) Func {
	return func(ctx context.Context, s *Session) error {
		results := make([]foundation.Result[time.Duration, error], len(fns))
		var g errgroup.Group
		for i, fn := range fns {
			g.Go(func() error {
				start := time.Now()
				err := fn(ctx, s)
				results[i] = foundation.FromTuple(time.Since(start), err)
				return nil
			})
		}
		_ = g.Wait()

		durations, errs := foundation.Partition(results)
		slog.Debug("Parallel tasks finished", logfields.Count(len(durations)), slog.Int("failed", len(errs)))
		switch len(errs) {
		case 0:
			return nil
		case 1:
			return errs[0]
		default:
			return multierror.Append(nil, errs...)
		}
	}
}
