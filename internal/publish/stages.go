package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/metrics"
)

// StageName identifies a release stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageGuard       StageName = "guard"
	StageCompile     StageName = "compile"
	StageDist        StageName = "dist"
	StagePackageDiff StageName = "package_diff"
	StageNpmPublish  StageName = "npm_publish"
	StageTag         StageName = "tag"
	StageNotify      StageName = "notify"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Release must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying the stage and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}

func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}

func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// Stage is one unit of release work.
type Stage func(ctx context.Context, rs *State) error

// StageDef pairs a stage name with its function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal or canceled stage. Warnings are recorded and the run continues.
func runStages(ctx context.Context, rs *State, stages []StageDef, recorder metrics.Recorder) error {
	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			se := newCanceledStageError(st.Name, err)
			rs.Report.recordStageResult(st.Name, StageResultCanceled, recorder)
			rs.Report.Errors = append(rs.Report.Errors, se)
			return se
		}

		slog.Info("Stage started", logfields.Stage(string(st.Name)))
		t0 := time.Now()
		err := st.Fn(ctx, rs)
		dur := time.Since(t0)
		rs.Report.StageDurations[st.Name] = dur
		recorder.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			rs.Report.recordStageResult(st.Name, StageResultSuccess, recorder)
			slog.Info("Stage finished", logfields.Stage(string(st.Name)), logfields.DurationMS(float64(dur.Milliseconds())))
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				se = newCanceledStageError(st.Name, err)
			} else {
				se = newFatalStageError(st.Name, err)
			}
		}
		switch se.Kind {
		case StageErrorWarning:
			rs.Report.recordStageResult(st.Name, StageResultWarning, recorder)
			rs.Report.Warnings = append(rs.Report.Warnings, se)
			slog.Warn("Stage warning", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			rs.Report.recordStageResult(st.Name, StageResultCanceled, recorder)
		default:
			rs.Report.recordStageResult(st.Name, StageResultFatal, recorder)
		}
		rs.Report.Errors = append(rs.Report.Errors, se)
		slog.Error("Stage failed", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
		return se
	}
	return nil
}
