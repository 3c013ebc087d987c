package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("compile", 150*time.Millisecond)
	pr.IncStageResult("compile", ResultSuccess)
	pr.ObserveTaskDuration("pub", 2*time.Second)
	pr.IncTaskOutcome("pub", "success")
	pr.AddTargetFiles("es", 12)
	pr.IncTargetFileError("lib")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 6 {
		t.Fatalf("expected 6 metric families, got %d", len(mfs))
	}
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncTaskOutcome("compile", "failed")

	path := filepath.Join(t.TempDir(), "metrics", "antd-tools.prom")
	if err := pr.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `antd_tools_task_outcomes_total{outcome="failed",task="compile"} 1`) {
		t.Fatalf("unexpected textfile content:\n%s", data)
	}
}

func TestNilRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncTaskOutcome("x", "success")
	if err := pr.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil recorder should not write: %v", err)
	}
	var r Recorder = NoopRecorder{}
	r.AddTargetFiles("lib", 3)
}
