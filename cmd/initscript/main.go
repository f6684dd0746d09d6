package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	ferrors "git.home.luguber.info/inful/initscript/internal/foundation/errors"

	"git.home.luguber.info/inful/initscript/cmd/initscript/commands"
)

func main() {
	cli := &commands.CLI{}
	parser, err := commands.NewParser(cli)
	if err != nil {
		panic(err)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	global := &commands.Global{Ctx: ctx, Logger: slog.Default(), Out: os.Stdout}
	if err := kctx.Run(global, cli); err != nil {
		cancel()
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
