package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docmerge/cmd/docmerge/commands"
	"git.home.luguber.info/inful/docmerge/internal/foundation/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docmerge"),
		kong.Description("Assemble a unified Java source tree from pinned upstream repositories for API reference generation."),
		kong.UsageOnError(),
	)

	err := parser.Run(&commands.Global{Context: ctx}, cli)
	stop()

	code := errors.NewCLIErrorAdapter(cli.Verbose, nil).Report(err)
	os.Exit(code)
}
