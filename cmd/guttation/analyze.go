//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

var errAnalyzeArgs = errors.New("expected exactly one argument: path to a profile JSON file")

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Normalize and interpret an existing profiler report",
		ArgsUsage: "<profile.json>",
		Flags: append(interpretFlags(),
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"D"},
				Usage:   "Include the full normalized report in output",
			},
		),
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: got %d", errAnalyzeArgs, cmd.NArg())
			}

			return analyzeReport(cmd.Args().First(), cmd)
		},
	}
}

func interpretFlags() []cli.Flag {
	return []cli.Flag{
		&cli.FloatFlag{
			Name:    "leak-threshold",
			Aliases: []string{"t"},
			Usage:   "Leak score a line must strictly exceed to be flagged",
			Value:   guttation.DefaultLeakThreshold,
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
	}
}

func analyzeReport(reportPath string, cmd *cli.Command) error {
	raw, err := scalene.Load(reportPath)
	if err != nil {
		return err
	}

	report := guttation.Normalize(raw)

	opts := guttation.DefaultOptions()
	opts.LeakThreshold = cmd.Float("leak-threshold")

	analysis := guttation.Interpret(report, opts)

	return outputResult(reportPath, report, analysis, opts, cmd.String("format"), cmd.Bool("debug"))
}
