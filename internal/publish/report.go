package publish

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/metrics"
)

// StageResult enumerates per-stage outcomes. Values mirror metrics.ResultLabel.
type StageResult string

const (
	StageResultSuccess  StageResult = "success"
	StageResultWarning  StageResult = "warning"
	StageResultFatal    StageResult = "fatal"
	StageResultCanceled StageResult = "canceled"
)

// Outcome is the final result of a release run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// Report captures what a release run did.
type Report struct {
	RunID   string
	Package string
	Version string
	DistTag string
	Start   time.Time
	End     time.Time

	Errors   []error
	Warnings []error

	StageDurations map[StageName]time.Duration
	StageResults   map[StageName]StageResult
	// Order lists stages in the order they ran.
	Order []StageName

	Outcome Outcome
}

func newReport(runID string) *Report {
	return &Report{
		RunID:          runID,
		Start:          time.Now(),
		StageDurations: make(map[StageName]time.Duration),
		StageResults:   make(map[StageName]StageResult),
	}
}

func (r *Report) recordStageResult(stage StageName, res StageResult, recorder metrics.Recorder) {
	if _, seen := r.StageResults[stage]; !seen {
		r.Order = append(r.Order, stage)
	}
	r.StageResults[stage] = res
	recorder.IncStageResult(string(stage), metrics.ResultLabel(res))
}

func (r *Report) finish() {
	r.End = time.Now()
	r.deriveOutcome()
}

func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			var se *StageError
			if errors.As(e, &se) && se.Kind == StageErrorCanceled {
				r.Outcome = OutcomeCanceled
				return
			}
		}
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("package=%s version=%s tag=%s duration=%s errors=%d warnings=%d stages=%d outcome=%s",
		r.Package, r.Version, r.DistTag, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), len(r.Order), r.Outcome)
}

// Log writes one line per stage and the summary.
func (r *Report) Log() {
	for _, name := range r.Order {
		slog.Info("Stage report",
			logfields.Stage(string(name)),
			slog.String("result", string(r.StageResults[name])),
			logfields.DurationMS(float64(r.StageDurations[name].Milliseconds())))
	}
	if slowest := r.Slowest(); len(slowest) > 0 {
		slog.Debug("Slowest stage", logfields.Stage(string(slowest[0])))
	}
	slog.Info("Release report", slog.String("run_id", r.RunID), slog.String("summary", r.Summary()))
}

// Slowest returns the ran stages sorted by duration, longest first.
func (r *Report) Slowest() []StageName {
	out := append([]StageName(nil), r.Order...)
	sort.SliceStable(out, func(i, j int) bool { return r.StageDurations[out[i]] > r.StageDurations[out[j]] })
	return out
}
