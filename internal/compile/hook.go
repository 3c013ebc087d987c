package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/ant-design/antd-tools/internal/command"
	"github.com/ant-design/antd-tools/internal/config"
	"github.com/ant-design/antd-tools/internal/source"
)

// Environment variables describing the file a hook is run for.
const (
	HookFileEnv   = "ANTD_TOOLS_FILE"
	HookTargetEnv = "ANTD_TOOLS_TARGET"
)

// hookOutput is one file emitted by a hook on stdout.
type hookOutput struct {
	Path     string `json:"path"`
	Contents string `json:"contents"`
}

// FileHook runs a configured per-file transform command. The file content is
// written to stdin. Empty stdout keeps the file unchanged. A JSON array of
// {"path", "contents"} objects replaces the file with zero or more files,
// paths relative to components/. Any other output is the new content of the
// file, so plain filters such as sed work as hooks.
type FileHook struct {
	Hook   config.Hook
	Runner command.Runner
	Dir    string
	Env    []string
}

// Apply runs the hook over f.
func (h FileHook) Apply(ctx context.Context, f source.File, target TargetName) ([]source.File, error) {
	if !h.Hook.IsSet() {
		return []source.File{f}, nil
	}
	env := append(append([]string{}, h.Env...), HookFileEnv+"="+f.Rel, HookTargetEnv+"="+string(target))
	res, err := command.RunHook(ctx, h.Runner, h.Hook, h.Dir, env, f.Contents)
	if err != nil {
		return nil, fmt.Errorf("hook %s: %w", h.Hook[0], err)
	}
	return decodeHookOutput(f, res.Stdout)
}

func decodeHookOutput(f source.File, stdout []byte) ([]source.File, error) {
	trimmed := bytes.TrimSpace(stdout)
	if len(trimmed) == 0 {
		return []source.File{f}, nil
	}
	if trimmed[0] != '[' {
		return []source.File{f.WithRel(f.Rel, stdout)}, nil
	}
	var outputs []hookOutput
	if err := json.Unmarshal(trimmed, &outputs); err != nil {
		return nil, fmt.Errorf("decode hook output: %w", err)
	}
	files := make([]source.File, 0, len(outputs))
	for _, o := range outputs {
		rel := path.Clean(strings.TrimPrefix(o.Path, "./"))
		if rel == "." || strings.HasPrefix(rel, "../") || path.IsAbs(rel) {
			return nil, fmt.Errorf("hook output path %q escapes the output directory", o.Path)
		}
		files = append(files, f.WithRel(rel, []byte(o.Contents)))
	}
	return files, nil
}
