//nolint:wrapcheck
package main

import (
	"fmt"
	"os"

	"github.com/farcloser/primordium/format"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/output"
)

// categoryOrder defines the display order for finding categories.
//
//nolint:gochecknoglobals // configuration data, effectively const
var categoryOrder = []string{
	"1. Memory leaks",
	"2. CPU hotspots",
	"3. Memory summary",
}

//nolint:gochecknoglobals // configuration data, effectively const
var checkCategories = map[guttation.Check]string{
	guttation.CheckLeaks:       "1. Memory leaks",
	guttation.CheckCPUHotspots: "2. CPU hotspots",
	guttation.CheckMemory:      "3. Memory summary",
}

func outputResult(
	reportPath string,
	report *guttation.Report,
	analysis *guttation.Analysis,
	opts guttation.Options,
	formatName string,
	debug bool,
) error {
	formatter, err := format.GetFormatter(formatName)
	if err != nil {
		return err
	}

	var meta map[string]any
	if debug {
		meta = output.ReportToMap(report)
		meta["analysis"] = output.AnalysisToMap(analysis)
	} else {
		meta = buildFriendlyOutput(report, analysis, opts)
	}

	data := &format.Data{
		Object: reportPath,
		Meta:   meta,
	}

	return formatter.PrintAll([]*format.Data{data}, os.Stdout)
}

// buildFriendlyOutput creates a user-friendly summary of the analysis.
func buildFriendlyOutput(
	report *guttation.Report,
	analysis *guttation.Analysis,
	opts guttation.Options,
) map[string]any {
	meta := map[string]any{
		"summary": fmt.Sprintf(
			"%d likely leaks, %d CPU hotspots (worst: %s)",
			analysis.LeakCount, analysis.HotspotCount, analysis.WorstSeverity,
		),
	}

	// Group findings by category.
	categoryIssues := make(map[string][]any)

	for _, issue := range analysis.Issues {
		category, ok := checkCategories[issue.Check]
		if !ok {
			continue
		}

		marker := "  "
		if issue.Detected {
			marker = "!!"
		}

		location := ""
		if issue.Path != "" {
			location = fmt.Sprintf("%s:%d ", issue.Path, issue.LineNo)
		}

		line := fmt.Sprintf("%s [%s] %s%s (%.0f%% confidence)",
			marker, issue.Severity, location, issue.Summary, issue.Confidence*100)

		categoryIssues[category] = append(categoryIssues[category], line)
	}

	if len(categoryIssues) > 0 {
		issues := make(map[string]any)

		for _, category := range categoryOrder {
			if lines, ok := categoryIssues[category]; ok {
				issues[category] = lines
			}
		}

		meta["issues"] = issues
	}

	meta["properties"] = buildProperties(report, opts)

	return meta
}

func buildProperties(report *guttation.Report, opts guttation.Options) map[string]any {
	props := map[string]any{
		"program":     report.Program,
		"elapsed":     fmt.Sprintf("%.2fs", report.ElapsedTime),
		"peak_memory": guttation.FormatMemory(report.MaxMemoryMb),
		"net_growth":  guttation.FormatMemory(report.TotalMemoryGrowthMb),
		"growth_rate": guttation.FormatPercent(report.GrowthRatePercent),
		"cpu": fmt.Sprintf(
			"%s python, %s native, %s system",
			guttation.FormatPercent(report.TotalCPUPercentPython),
			guttation.FormatPercent(report.TotalCPUPercentNative),
			guttation.FormatPercent(report.TotalSysPercent),
		),
		"leak_threshold": opts.LeakThreshold,
	}

	if report.AllocSamples > 0 || report.FreeSamples > 0 {
		props["samples"] = fmt.Sprintf("%d allocs, %d frees", report.AllocSamples, report.FreeSamples)
	}

	return props
}
