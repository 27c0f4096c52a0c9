// Package output provides shared result serialization for guttation JSON output.
package output

import (
	"sort"

	"github.com/farcloser/guttation"
)

// ReportToMap converts a normalized report into the canonical map structure
// used for JSON and JSONL serialization.
func ReportToMap(report *guttation.Report) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"program":                report.Program,
			"elapsed_time_sec":       report.ElapsedTime,
			"max_memory_mb":          report.MaxMemoryMb,
			"total_memory_growth_mb": report.TotalMemoryGrowthMb,
			"growth_rate_percent":    report.GrowthRatePercent,
			"cpu_percent_python":     report.TotalCPUPercentPython,
			"cpu_percent_native":     report.TotalCPUPercentNative,
			"sys_percent":            report.TotalSysPercent,
			"alloc_samples":          report.AllocSamples,
			"free_samples":           report.FreeSamples,
		},
	}

	if report.EntrypointDir != "" {
		meta["entrypoint_dir"] = report.EntrypointDir
	}

	if len(report.Args) > 0 {
		meta["args"] = report.Args
	}

	files := make(map[string]any, len(report.Files))
	for path, file := range report.Files {
		files[path] = fileToMap(file)
	}

	meta["files"] = files

	return meta
}

// AnalysisToMap converts interpreted findings into the canonical map structure.
func AnalysisToMap(analysis *guttation.Analysis) map[string]any {
	meta := map[string]any{
		"summary": map[string]any{
			"leak_count":     analysis.LeakCount,
			"hotspot_count":  analysis.HotspotCount,
			"worst_severity": analysis.WorstSeverity.String(),
		},
	}

	issues := make([]any, 0, len(analysis.Issues))
	for _, issue := range analysis.Issues {
		entry := map[string]any{
			"check":      issue.Check.String(),
			"detected":   issue.Detected,
			"severity":   issue.Severity.String(),
			"summary":    issue.Summary,
			"confidence": issue.Confidence,
		}

		if issue.Path != "" {
			entry["path"] = issue.Path
			entry["lineno"] = issue.LineNo
		}

		issues = append(issues, entry)
	}

	meta["issues"] = issues

	return meta
}

func fileToMap(file *guttation.File) map[string]any {
	lines := make([]any, 0, len(file.Lines))

	numbers := make([]int, 0, len(file.Lines))
	for lineNo := range file.Lines {
		numbers = append(numbers, lineNo)
	}

	sort.Ints(numbers)

	for _, lineNo := range numbers {
		lines = append(lines, lineToMap(file.Lines[lineNo]))
	}

	functions := make([]any, 0, len(file.Functions))
	for i := range file.Functions {
		functions = append(functions, functionToMap(&file.Functions[i]))
	}

	entry := map[string]any{
		"lines":     lines,
		"functions": functions,
	}

	if len(file.Leaks) > 0 {
		entry["leaks"] = file.Leaks
	}

	return entry
}

func lineToMap(line *guttation.Line) map[string]any {
	entry := map[string]any{
		"lineno":     line.LineNo,
		"code":       line.Code,
		"leak_score": line.LeakScore,
	}

	putOpt(entry, "cpu_percent_python", line.CPUPercentPython)
	putOpt(entry, "cpu_percent_native", line.CPUPercentNative)
	putOpt(entry, "sys_percent", line.SysPercent)
	putOpt(entry, "core_utilization", line.CoreUtilization)
	putOpt(entry, "malloc_mb", line.MallocMb)
	putOpt(entry, "peak_mb", line.PeakMb)
	putOpt(entry, "avg_mb", line.AvgMb)
	putOpt(entry, "growth_mb", line.GrowthMb)
	putOpt(entry, "python_fraction", line.PythonFraction)
	putOpt(entry, "usage_fraction", line.UsageFraction)
	putOpt(entry, "copy_mb_s", line.CopyMbPerS)
	putOpt(entry, "gpu_percent", line.GPUPercent)
	putOpt(entry, "gpu_peak_mb", line.GPUPeakMb)
	putOpt(entry, "gpu_avg_mb", line.GPUAvgMb)

	if line.Mallocs != nil {
		entry["mallocs"] = *line.Mallocs
	}

	if line.CPUSamplesCount > 0 {
		entry["cpu_samples"] = line.CPUSamplesCount
	}

	if line.MemorySamplesCount > 0 {
		entry["memory_samples"] = line.MemorySamplesCount
	}

	return entry
}

func functionToMap(fn *guttation.Function) map[string]any {
	entry := map[string]any{
		"name":   fn.Name,
		"lineno": fn.LineNo,
	}

	putOpt(entry, "cpu_percent_python", fn.CPUPercentPython)
	putOpt(entry, "cpu_percent_native", fn.CPUPercentNative)
	putOpt(entry, "sys_percent", fn.SysPercent)
	putOpt(entry, "core_utilization", fn.CoreUtilization)
	putOpt(entry, "malloc_mb", fn.MallocMb)
	putOpt(entry, "peak_mb", fn.PeakMb)
	putOpt(entry, "avg_mb", fn.AvgMb)
	putOpt(entry, "growth_mb", fn.GrowthMb)
	putOpt(entry, "python_fraction", fn.PythonFraction)
	putOpt(entry, "usage_fraction", fn.UsageFraction)
	putOpt(entry, "copy_mb_s", fn.CopyMbPerS)

	if fn.Mallocs != nil {
		entry["mallocs"] = *fn.Mallocs
	}

	return entry
}

func putOpt(entry map[string]any, key string, value *float64) {
	if value != nil {
		entry[key] = *value
	}
}
