package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ant-design/antd-tools/internal/task"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool   `short:"v" help:"Enable verbose logging"`
	Dir     string `short:"C" help:"Project root" default:"." type:"existingdir"`

	Run     RunCmd     `cmd:"" help:"Run a build, check or release task"`
	Version VersionCmd `cmd:"" help:"Show version and exit"`
}

// Vars are the help interpolation variables of the CLI.
func Vars() kong.Vars {
	return kong.Vars{"tasks": strings.Join(task.Names(), ", ")}
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel honours --verbose first, then ANTD_TOOLS_LOG_LEVEL.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ANTD_TOOLS_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
