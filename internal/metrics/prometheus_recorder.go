package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "antd_tools"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	stageResults  *prom.CounterVec
	taskDuration  *prom.HistogramVec
	taskOutcome   *prom.CounterVec
	targetFiles   *prom.CounterVec
	targetErrors  *prom.CounterVec
}

// NewPrometheusRecorder constructs the collectors and registers them on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual publish stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Duration of CLI tasks",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"task"}),
		taskOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "task_outcomes_total",
			Help:      "Task outcomes by final status",
		}, []string{"task", "outcome"}),
		targetFiles: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "target_files_total",
			Help:      "Files written per compile target",
		}, []string{"target"}),
		targetErrors: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "target_file_errors_total",
			Help:      "Per-file errors per compile target",
		}, []string{"target"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.taskDuration, pr.taskOutcome, pr.targetFiles, pr.targetErrors)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskOutcome(task, outcome string) {
	if p == nil {
		return
	}
	p.taskOutcome.WithLabelValues(task, outcome).Inc()
}

func (p *PrometheusRecorder) AddTargetFiles(target string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.targetFiles.WithLabelValues(target).Add(float64(n))
}

func (p *PrometheusRecorder) IncTargetFileError(target string) {
	if p == nil {
		return
	}
	p.targetErrors.WithLabelValues(target).Inc()
}

// WriteTextfile writes every collected metric to path in the text exposition
// format. The parent directory is created when missing.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("ensure metrics dir: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
