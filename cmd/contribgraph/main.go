package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/dpolishuk/contribgraph/cmd/contribgraph/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
