package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"gopkg.in/yaml.v3"
)

// FileNames lists the project configuration files looked up, in order.
var FileNames = []string{".antd-tools.yml", ".antd-tools.yaml"}

// Config is the optional per-project configuration.
type Config struct {
	Compile     CompileConfig     `yaml:"compile"`
	Dist        DistConfig        `yaml:"dist"`
	Bail        bool              `yaml:"bail"`
	Tag         string            `yaml:"tag,omitempty"`
	Style       StyleConfig       `yaml:"style"`
	PackageDiff PackageDiffConfig `yaml:"package_diff"`
	Registry    RegistryConfig    `yaml:"registry"`
	Publish     PublishConfig     `yaml:"publish"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Notify      NotifyConfig      `yaml:"notify"`

	// Path is the file the configuration was read from; empty when defaults are used.
	Path string `yaml:"-"`
}

// Hook is an external command (argv) run at a pipeline hook point. In YAML it
// is either a list of arguments or a single shell-quoted string.
type Hook []string

// IsSet reports whether the hook names a command.
func (h Hook) IsSet() bool { return len(h) > 0 && strings.TrimSpace(h[0]) != "" }

// UnmarshalYAML accepts both the list and the string form.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		args, err := shellwords.Parse(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: parse hook command: %w", node.Line, err)
		}
		*h = args
		return nil
	case yaml.SequenceNode:
		var args []string
		if err := node.Decode(&args); err != nil {
			return err
		}
		*h = args
		return nil
	default:
		return fmt.Errorf("line %d: hook must be a string or a list", node.Line)
	}
}

// CompileConfig holds the compile pipeline hooks.
type CompileConfig struct {
	TransformTSFile Hook `yaml:"transform_ts_file,omitempty"`
	TransformFile   Hook `yaml:"transform_file,omitempty"`
	Finalize        Hook `yaml:"finalize,omitempty"`
}

// DistConfig configures the UMD bundle.
type DistConfig struct {
	Entry      string   `yaml:"entry"`
	GlobalName string   `yaml:"global_name"`
	External   []string `yaml:"external,omitempty"`

	// Globals maps an external module to the global that provides it.
	Globals  map[string]string `yaml:"globals,omitempty"`
	Finalize Hook              `yaml:"finalize,omitempty"`
}

// StyleConfig configures the Less compiler and vendor prefixing.
type StyleConfig struct {
	Lessc    []string          `yaml:"lessc"`
	Browsers []string          `yaml:"browsers"`
	Vars     map[string]string `yaml:"modify_vars,omitempty"`
}

// DiffMode selects the package diff algorithm.
type DiffMode string

const (
	DiffModeMissing       DiffMode = "missing"
	DiffModeBidirectional DiffMode = "bidirectional"
)

// PackageDiffConfig configures the published-package comparison.
type PackageDiffConfig struct {
	Mode DiffMode `yaml:"mode"`
}

// RegistryConfig configures access to the package registry.
type RegistryConfig struct {
	UnpkgURL string        `yaml:"unpkg_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Retry    RetryConfig   `yaml:"retry"`
}

// PublishConfig configures npm publish and the release tag push.
type PublishConfig struct {
	Remote string      `yaml:"remote"`
	Branch string      `yaml:"branch"`
	Auth   *AuthConfig `yaml:"auth,omitempty"`
}

// MetricsConfig configures the optional Prometheus textfile output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// NotifyConfig configures the optional release event.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the project configuration from dir. A missing file is not an
// error; the defaults are returned. ${VAR} references are expanded from env.
func Load(dir string, env Env) (*Config, error) {
	var path string
	for _, name := range FileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
			break
		}
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.Expand(string(data), env.Get)

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
	}
	cfg.Path = path
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Dist.Entry == "" {
		cfg.Dist.Entry = "index"
	}
	if cfg.Dist.GlobalName == "" {
		cfg.Dist.GlobalName = "antd"
	}
	if len(cfg.Dist.External) == 0 {
		cfg.Dist.External = []string{"react", "react-dom", "dayjs"}
	}
	if cfg.Dist.Globals == nil {
		cfg.Dist.Globals = map[string]string{"react": "React", "react-dom": "ReactDOM", "dayjs": "dayjs"}
	}
	if len(cfg.Style.Lessc) == 0 {
		cfg.Style.Lessc = []string{"lessc", "--js"}
	}
	if len(cfg.Style.Browsers) == 0 {
		cfg.Style.Browsers = []string{"chrome80", "edge80", "firefox78", "safari13", "ios13"}
	}
	if cfg.PackageDiff.Mode == "" {
		cfg.PackageDiff.Mode = DiffModeBidirectional
	}
	if cfg.Registry.UnpkgURL == "" {
		cfg.Registry.UnpkgURL = "https://unpkg.com"
	}
	cfg.Registry.UnpkgURL = strings.TrimRight(cfg.Registry.UnpkgURL, "/")
	if cfg.Registry.Timeout <= 0 {
		cfg.Registry.Timeout = 30 * time.Second
	}
	if cfg.Registry.Retry.Backoff == "" {
		cfg.Registry.Retry.Backoff = RetryBackoffExponential
	}
	if cfg.Registry.Retry.InitialDelay == "" {
		cfg.Registry.Retry.InitialDelay = "500ms"
	}
	if cfg.Registry.Retry.MaxDelay == "" {
		cfg.Registry.Retry.MaxDelay = "5s"
	}
	if cfg.Registry.Retry.MaxRetries == nil {
		n := 2
		cfg.Registry.Retry.MaxRetries = &n
	}
	if cfg.Publish.Remote == "" {
		cfg.Publish.Remote = "origin"
	}
	if cfg.Publish.Branch == "" {
		cfg.Publish.Branch = "master"
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = "antd-tools.release"
	}
}

// Validate checks field values that cannot be defaulted.
func (c *Config) Validate() error {
	var errs []error
	switch c.PackageDiff.Mode {
	case DiffModeMissing, DiffModeBidirectional:
	default:
		errs = append(errs, fmt.Errorf("package_diff.mode: unknown mode %q (want missing|bidirectional)", c.PackageDiff.Mode))
	}
	if NormalizeRetryBackoff(string(c.Registry.Retry.Backoff)) == "" {
		errs = append(errs, fmt.Errorf("registry.retry.backoff: unknown mode %q", c.Registry.Retry.Backoff))
	}
	if _, _, err := c.Registry.Retry.Delays(); err != nil {
		errs = append(errs, fmt.Errorf("registry.retry: %w", err))
	}
	if c.Publish.Auth != nil {
		if err := c.Publish.Auth.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("publish.auth: %w", err))
		}
	}
	return errors.Join(errs...)
}
