package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// EnvFiles are read from the project root; earlier files win.
var EnvFiles = []string{".env", ".env.local"}

// Run modes accepted in RUN_ENV.
const (
	RunEnvProduction = "PRODUCTION"
	RunEnvWebsite    = "WEBSITE"
)

// Env is the run configuration captured from the process environment and the
// project's .env files. It is passed to every stage; nothing writes back to
// the process environment.
type Env struct {
	RunEnv        string
	NodeEnv       string
	LibDir        string
	PublishNpmCLI string
	LogLevel      string

	vars map[string]string
}

// LoadEnv captures the environment for a run in dir. Process variables take
// precedence over values read from .env files.
func LoadEnv(dir string) Env {
	vars := map[string]string{}
	for i := len(EnvFiles) - 1; i >= 0; i-- {
		values, err := godotenv.Read(filepath.Join(dir, EnvFiles[i]))
		if err != nil {
			continue
		}
		for k, v := range values {
			vars[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return NewEnv(vars)
}

// NewEnv builds an Env from an explicit variable set.
func NewEnv(vars map[string]string) Env {
	if vars == nil {
		vars = map[string]string{}
	}
	return Env{
		RunEnv:        strings.ToUpper(vars["RUN_ENV"]),
		NodeEnv:       vars["NODE_ENV"],
		LibDir:        vars["LIB_DIR"],
		PublishNpmCLI: vars["PUBLISH_NPM_CLI"],
		LogLevel:      vars["ANTD_TOOLS_LOG_LEVEL"],
		vars:          vars,
	}
}

// Get returns the value of key, or "" when unset.
func (e Env) Get(key string) string { return e.vars[key] }

// Lookup returns the value of key and whether it was set.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// Production reports whether RUN_ENV selects a production build.
func (e Env) Production() bool { return e.RunEnv == RunEnvProduction }

// With returns a copy of e with key set to value.
func (e Env) With(key, value string) Env {
	vars := make(map[string]string, len(e.vars)+1)
	for k, v := range e.vars {
		vars[k] = v
	}
	vars[key] = value
	return NewEnv(vars)
}

// Environ renders the variables as KEY=VALUE pairs for child processes.
func (e Env) Environ() []string {
	out := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		out = append(out, k+"="+v)
	}
	return out
}
