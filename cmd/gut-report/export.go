package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/export"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

var errExportArgs = errors.New("expected exactly two arguments: report path and output path")

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Convert a profile report to pprof format",
		ArgsUsage: "<report.json> <out.pb.gz>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return errExportArgs
			}

			return runExport(cmd.Args().Get(0), cmd.Args().Get(1))
		},
	}
}

func runExport(reportPath, outPath string) error {
	raw, err := scalene.Load(reportPath)
	if err != nil {
		return fmt.Errorf("loading %q: %w", reportPath, err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", outPath, err)
	}
	defer out.Close()

	if err := export.Write(out, guttation.Normalize(raw)); err != nil {
		return fmt.Errorf("writing pprof profile: %w", err)
	}

	fmt.Printf("Wrote %s\n", outPath)

	return nil
}
