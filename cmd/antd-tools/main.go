package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/ant-design/antd-tools/cmd/antd-tools/commands"
	derrors "github.com/ant-design/antd-tools/internal/errors"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("antd-tools"),
		kong.Description("Build, check and release tooling for component libraries."),
		kong.UsageOnError(),
		commands.Vars(),
	)
	err := ctx.Run(&commands.Global{Logger: slog.Default()}, cli)
	os.Exit(derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).Report(err))
}
