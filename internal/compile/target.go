package compile

import (
	"log/slog"
	"sync"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/ant-design/antd-tools/internal/logfields"
	"github.com/ant-design/antd-tools/internal/project"
)

// TargetName identifies a module format output.
type TargetName string

const (
	TargetLib TargetName = "lib"
	TargetES  TargetName = "es"
)

// AllTargets is the order targets are reported in.
var AllTargets = []TargetName{TargetES, TargetLib}

// State is a target's position in its lifecycle.
type State string

const (
	StateNotStarted   State = "not-started"
	StateScanning     State = "scanning"
	StateTransforming State = "transforming"
	StateWriting      State = "writing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

var transitions = map[State][]State{
	StateNotStarted:   {StateScanning, StateFailed},
	StateScanning:     {StateTransforming, StateFailed},
	StateTransforming: {StateWriting, StateFailed},
	StateWriting:      {StateDone, StateFailed},
}

// Target is one module format output and its lifecycle.
type Target struct {
	Name   TargetName
	OutDir string

	mu    sync.Mutex
	state State
}

// NewTarget returns a target writing into outDir.
func NewTarget(name TargetName, outDir string) *Target {
	return &Target{Name: name, OutDir: outDir, state: StateNotStarted}
}

// State returns the current lifecycle state.
func (t *Target) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Format is the esbuild output format for the target.
func (t *Target) Format() api.Format {
	if t.Name == TargetES {
		return api.FormatESModule
	}
	return api.FormatCommonJS
}

// ESM reports whether the target emits ES modules.
func (t *Target) ESM() bool { return t.Name == TargetES }

// transition moves to next and reports whether the move was legal. Illegal
// moves are ignored.
func (t *Target) transition(next State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return false
	}
	for _, allowed := range transitions[t.state] {
		if allowed == next {
			slog.Info("Compile target state",
				logfields.Target(string(t.Name)),
				slog.String("from", string(t.state)),
				logfields.State(string(next)))
			t.state = next
			return true
		}
	}
	slog.Debug("Ignoring illegal target transition",
		logfields.Target(string(t.Name)),
		slog.String("from", string(t.state)),
		logfields.State(string(next)))
	return false
}

// targetDir maps a target to its directory under the project root.
func targetDir(p *project.Project, name TargetName) string {
	if name == TargetES {
		return p.Path(project.ESDir)
	}
	return p.Path(project.LibDir)
}
