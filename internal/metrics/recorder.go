package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for tasks, stages and compile targets.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskOutcome(task, outcome string) // outcome: success|warning|failed|canceled
	AddTargetFiles(target string, n int)
	IncTargetFileError(target string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveTaskDuration(string, time.Duration)  {}
func (NoopRecorder) IncTaskOutcome(string, string)              {}
func (NoopRecorder) AddTargetFiles(string, int)                 {}
func (NoopRecorder) IncTargetFileError(string)                  {}
