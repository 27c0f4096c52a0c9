//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

var errRunArgs = errors.New("expected a program to profile")

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Profile a Python program, then analyze the resulting report",
		ArgsUsage: "<program.py> [args...]",
		Flags: append(interpretFlags(),
			&cli.StringFlag{
				Name:    "outfile",
				Aliases: []string{"o"},
				Usage:   "Where the profiler writes its JSON report",
				Value:   "profile.json",
			},
			&cli.StringFlag{
				Name:  "profiler-path",
				Usage: "Explicit path to the profiler binary (defaults to PATH lookup)",
			},
			&cli.BoolFlag{
				Name:  "reduced",
				Usage: "Keep only lines with measured activity",
			},
			&cli.BoolFlag{
				Name:  "cpu-only",
				Usage: "Skip memory and copy-volume sampling",
			},
			&cli.BoolFlag{
				Name:  "gpu",
				Usage: "Sample GPU usage",
			},
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Include the full normalized report in output",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errRunArgs
			}

			args := cmd.Args().Slice()

			raw, err := scalene.Run(ctx, scalene.RunOptions{
				Outfile:        cmd.String("outfile"),
				BinaryOverride: cmd.String("profiler-path"),
				ReducedProfile: cmd.Bool("reduced"),
				CPUOnly:        cmd.Bool("cpu-only"),
				GPU:            cmd.Bool("gpu"),
				Program:        args[0],
				Args:           args[1:],
				Stdout:         os.Stdout,
			})
			if err != nil {
				return fmt.Errorf("profiling failed: %w", err)
			}

			report := guttation.Normalize(raw)

			opts := guttation.DefaultOptions()
			opts.LeakThreshold = cmd.Float("leak-threshold")

			analysis := guttation.Interpret(report, opts)

			return outputResult(cmd.String("outfile"), report, analysis, opts, cmd.String("format"), cmd.Bool("debug"))
		},
	}
}
