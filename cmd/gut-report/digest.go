//nolint:wrapcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/urfave/cli/v3"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

var (
	errNotDirectory = errors.New("not a directory")
	errNoReports    = errors.New("no .json report files found")
)

func digestCommand() *cli.Command {
	return &cli.Command{
		Name:      "digest",
		Usage:     "Summarize every profile report under a directory",
		ArgsUsage: "<folder>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of concurrent workers",
				Value:   runtime.NumCPU(),
			},
			&cli.FloatFlag{
				Name:    "leak-threshold",
				Aliases: []string{"t"},
				Usage:   "Leak score a line must strictly exceed to be flagged",
				Value:   guttation.DefaultLeakThreshold,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("expected exactly one argument: folder path")
			}

			workers := max(cmd.Int("workers"), 1)

			return runDigest(cmd.Args().First(), cmd.Float("leak-threshold"), workers)
		},
	}
}

// digestRow is one report's summary line.
type digestRow struct {
	File      string
	Program   string
	PeakMb    float64
	GrowthMb  float64
	RatePct   float64
	LeakCount int
	Error     string
}

func runDigest(folder string, threshold float64, workers int) error {
	info, err := os.Stat(folder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%q: %w", folder, errNotDirectory)
	}

	files, err := collectReportFiles(folder)
	if err != nil {
		return fmt.Errorf("scanning folder: %w", err)
	}

	if len(files) == 0 {
		return fmt.Errorf("%q: %w", folder, errNoReports)
	}

	fmt.Fprintf(os.Stderr, "Found %d reports to digest (%d workers)\n", len(files), workers)

	rows := make([]digestRow, len(files))

	var progress atomic.Int64

	sem := make(chan struct{}, workers)

	var waitGroup sync.WaitGroup

	for idx, filePath := range files {
		waitGroup.Add(1)

		go func(idx int, filePath string) {
			defer waitGroup.Done()

			sem <- struct{}{}

			defer func() { <-sem }()

			rows[idx] = digestFile(filePath, threshold)

			done := progress.Add(1)
			fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", done, len(files), filePath)
		}(idx, filePath)
	}

	waitGroup.Wait()

	printDigest(rows, threshold)

	return nil
}

func digestFile(filePath string, threshold float64) digestRow {
	row := digestRow{File: filePath}

	raw, err := scalene.Load(filePath)
	if err != nil {
		row.Error = err.Error()

		return row
	}

	report := guttation.Normalize(raw)

	row.Program = report.Program
	row.PeakMb = report.MaxMemoryMb
	row.GrowthMb = report.TotalMemoryGrowthMb
	row.RatePct = report.GrowthRatePercent

	for _, file := range report.Files {
		for _, line := range file.Lines {
			if line.LikelyLeak(threshold) {
				row.LeakCount++
			}
		}
	}

	return row
}

func printDigest(rows []digestRow, threshold float64) {
	failed := 0
	totalLeaks := 0

	fmt.Printf("%-40s %-12s %-12s %-10s %s\n", "Report", "Peak", "Growth", "Rate", "Leaks")
	fmt.Println(strings.Repeat("-", 84))

	for idx := range rows {
		row := &rows[idx]

		if row.Error != "" {
			failed++

			fmt.Printf("%-40s error: %s\n", truncate(row.File, 40), row.Error)

			continue
		}

		totalLeaks += row.LeakCount

		fmt.Printf("%-40s %-12s %-12s %-10s %d\n",
			truncate(row.File, 40),
			guttation.FormatMemory(row.PeakMb),
			guttation.FormatMemory(row.GrowthMb),
			guttation.FormatPercent(row.RatePct),
			row.LeakCount,
		)
	}

	fmt.Println(strings.Repeat("-", 84))
	fmt.Printf("%d reports, %d failed, %d likely leaks (threshold %.0f)\n",
		len(rows), failed, totalLeaks, threshold)
}

func collectReportFiles(folder string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(folder, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.IsDir() && strings.EqualFold(filepath.Ext(path), ".json") {
			files = append(files, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return "..." + s[len(s)-limit+3:]
}
