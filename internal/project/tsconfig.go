package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
)

// CompilerOptions is a TypeScript compilerOptions object.
type CompilerOptions map[string]any

// DefaultCompilerOptions are applied before the project's tsconfig.json.
func DefaultCompilerOptions() CompilerOptions {
	return CompilerOptions{
		"noUnusedParameters":           true,
		"noUnusedLocals":               true,
		"strictNullChecks":             true,
		"target":                       "es2020",
		"jsx":                          "preserve",
		"moduleResolution":             "node",
		"declaration":                  true,
		"allowSyntheticDefaultImports": true,
	}
}

// CompilerOptions merges the project's tsconfig.json compilerOptions over the
// defaults. A missing tsconfig.json yields the defaults.
func (p *Project) CompilerOptions() (CompilerOptions, error) {
	opts := DefaultCompilerOptions()
	data, err := os.ReadFile(p.Path("tsconfig.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return opts, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read tsconfig.json: %w", err)
	}
	var raw struct {
		CompilerOptions CompilerOptions `json:"compilerOptions"`
	}
	if err := json.Unmarshal(StripJSONC(data), &raw); err != nil {
		return nil, fmt.Errorf("parse tsconfig.json: %w", err)
	}
	maps.Copy(opts, raw.CompilerOptions)
	return opts, nil
}

// Bool returns a boolean option, false when unset or not a bool.
func (o CompilerOptions) Bool(name string) bool {
	v, _ := o[name].(bool)
	return v
}

// With returns a copy of o with the given overrides applied.
func (o CompilerOptions) With(overrides CompilerOptions) CompilerOptions {
	out := make(CompilerOptions, len(o)+len(overrides))
	maps.Copy(out, o)
	maps.Copy(out, overrides)
	return out
}

// Raw renders {"compilerOptions": o} as JSON.
func (o CompilerOptions) Raw() string {
	data, err := json.Marshal(map[string]any{"compilerOptions": o})
	if err != nil {
		return "{}"
	}
	return string(data)
}

// StripJSONC removes // and /* */ comments and trailing commas so that a
// tsconfig.json can be decoded with encoding/json.
func StripJSONC(data []byte) []byte {
	var out bytes.Buffer
	inString, escaped := false, false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if inString {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out.WriteByte(c)
		case c == '/' && i+1 < len(data) && data[i+1] == '/':
			for i < len(data) && data[i] != '\n' {
				i++
			}
			if i < len(data) {
				out.WriteByte('\n')
			}
		case c == '/' && i+1 < len(data) && data[i+1] == '*':
			i += 2
			for i+1 < len(data) && (data[i] != '*' || data[i+1] != '/') {
				i++
			}
			i++
		case c == ',':
			j := i + 1
			for j < len(data) && (data[j] == ' ' || data[j] == '\t' || data[j] == '\n' || data[j] == '\r') {
				j++
			}
			if j < len(data) && (data[j] == '}' || data[j] == ']') {
				continue
			}
			out.WriteByte(c)
		default:
			out.WriteByte(c)
		}
	}
	return out.Bytes()
}
