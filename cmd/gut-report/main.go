package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation/version"
)

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "View, diff, and export guttation profile reports",
		Version: version.Version() + " " + version.Commit(),
		Commands: []*cli.Command{
			serveCommand(),
			digestCommand(),
			compareCommand(),
			exportCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
