package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/compare"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

var errCompareArgs = errors.New("expected exactly two arguments: old and new report paths")

func compareCommand() *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare two profile reports and show memory growth deltas",
		ArgsUsage: "<old.json> <new.json>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Usage: "Maximum number of deltas to print (0 means all)",
				Value: 20,
			},
			&cli.FloatFlag{
				Name:    "leak-threshold",
				Aliases: []string{"t"},
				Usage:   "Leak score a line must strictly exceed to be flagged",
				Value:   guttation.DefaultLeakThreshold,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return errCompareArgs
			}

			return runCompare(
				cmd.Args().Get(0),
				cmd.Args().Get(1),
				cmd.Float("leak-threshold"),
				cmd.Int("top"),
			)
		},
	}
}

func runCompare(oldPath, newPath string, threshold float64, top int) error {
	oldRaw, err := scalene.Load(oldPath)
	if err != nil {
		return fmt.Errorf("loading %q: %w", oldPath, err)
	}

	newRaw, err := scalene.Load(newPath)
	if err != nil {
		return fmt.Errorf("loading %q: %w", newPath, err)
	}

	result := compare.Reports(guttation.Normalize(oldRaw), guttation.Normalize(newRaw), threshold)

	if len(result.Deltas) == 0 {
		fmt.Println("No memory growth changes between reports")

		return nil
	}

	fmt.Printf("Total growth delta: %+.2f MB (mean %+.2f MB across %d changed lines)\n",
		result.TotalDeltaMb,
		result.MeanDeltaMb,
		len(result.Deltas),
	)

	if result.EscalatedCount > 0 {
		fmt.Printf("!! %d lines newly crossed the leak threshold\n", result.EscalatedCount)
	}

	fmt.Println()

	shown := result.Deltas
	if top > 0 && len(shown) > top {
		shown = shown[:top]
	}

	for _, delta := range shown {
		marker := "  "
		if delta.Escalated {
			marker = "!!"
		}

		fmt.Printf("%s %s:%d  %.2f MB -> %.2f MB (%+.2f MB, score %.0f -> %.0f)\n",
			marker,
			delta.Path,
			delta.LineNo,
			delta.OldGrowthMb,
			delta.NewGrowthMb,
			delta.DeltaMb,
			delta.OldScore,
			delta.NewScore,
		)
	}

	if hidden := len(result.Deltas) - len(shown); hidden > 0 {
		fmt.Printf("... and %d more (raise --top to see them)\n", hidden)
	}

	return nil
}
