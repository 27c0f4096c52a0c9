package guttation

import (
	"strconv"

	"github.com/farcloser/guttation/internal/integration/scalene"
)

/*
Usage:

	raw, err := scalene.Load("profile.json")
	if err != nil {
	    return err
	}

	report := guttation.Normalize(raw)

	for path, file := range report.Files {
	    for _, line := range file.Lines {
	        if line.LikelyLeak(guttation.DefaultLeakThreshold) {
	            fmt.Printf("%s:%d score %.0f\n", path, line.LineNo, line.LeakScore)
	        }
	    }
	}
*/

// DefaultLeakThreshold is the leak score a line must strictly exceed to be
// classified as a likely leak.
const DefaultLeakThreshold = 50.0

// Leak score weights. Positive net growth is the strongest leak signal,
// allocation volume concurrent with growth is secondary, and a low reuse
// fraction alongside growth indicates accumulation rather than transient
// allocation. Existing thresholds depend on these exact constants.
const (
	growthWeight    = 10.0
	mallocWeight    = 5.0
	lowReusePenalty = 20.0
	lowReuseCutoff  = 0.3
)

const unknownProgram = "Unknown"

// Normalize reshapes a raw profiler report into a Report.
// It is total: any missing optional field is treated as absent and defaulted,
// never as an error. Syntactic validity is the loader's concern.
func Normalize(raw *scalene.Report) *Report {
	if raw == nil {
		raw = &scalene.Report{}
	}

	report := &Report{
		Program:       programName(raw),
		Args:          append([]string{}, raw.Args...),
		ElapsedTime:   raw.ElapsedTimeSec,
		EntrypointDir: raw.EntrypointDir,
		AllocSamples:  raw.AllocSamples,
		FreeSamples:   raw.FreeSamples,
		Files:         make(map[string]*File, len(raw.Files)),
	}

	for path, rawFile := range raw.Files {
		file := normalizeFile(rawFile)
		report.Files[path] = file

		for _, line := range file.Lines {
			if line.PeakMb != nil && *line.PeakMb > report.MaxMemoryMb {
				report.MaxMemoryMb = *line.PeakMb
			}

			if line.GrowthMb != nil {
				report.TotalMemoryGrowthMb += *line.GrowthMb
			}

			if line.CPUPercentPython != nil {
				report.TotalCPUPercentPython += *line.CPUPercentPython
			}

			if line.CPUPercentNative != nil {
				report.TotalCPUPercentNative += *line.CPUPercentNative
			}

			if line.SysPercent != nil {
				report.TotalSysPercent += *line.SysPercent
			}
		}
	}

	// Deliberate floor, not an error: an all-zero-peak report has no
	// meaningful growth rate, and NaN/Inf must never escape.
	if report.MaxMemoryMb > 0 {
		report.GrowthRatePercent = report.TotalMemoryGrowthMb / report.MaxMemoryMb * 100
	}

	return report
}

func programName(raw *scalene.Report) string {
	if len(raw.Args) > 0 && raw.Args[0] != "" {
		return raw.Args[0]
	}

	if raw.Filename != "" {
		return raw.Filename
	}

	return unknownProgram
}

func normalizeFile(raw *scalene.File) *File {
	if raw == nil {
		raw = &scalene.File{}
	}

	file := &File{
		Lines: make(map[int]*Line, len(raw.Lines)),
		Leaks: raw.Leaks,
	}

	if file.Leaks == nil {
		file.Leaks = map[string]float64{}
	}

	for i := range raw.Lines {
		line := normalizeLine(&raw.Lines[i], file.Leaks)
		// Last write wins on duplicate line numbers.
		file.Lines[line.LineNo] = line
	}

	for i := range raw.Functions {
		if fn, ok := normalizeFunction(&raw.Functions[i]); ok {
			file.Functions = append(file.Functions, fn)
		}
	}

	return file
}

func normalizeLine(raw *scalene.Line, leaks map[string]float64) *Line {
	line := &Line{
		LineNo: raw.LineNo,
		Code:   raw.Line,

		CPUPercentPython: raw.CPUPercentPython,
		CPUPercentNative: raw.CPUPercentNative,
		SysPercent:       raw.SysPercent,
		CoreUtilization:  raw.CoreUtilization,
		CPUSamplesCount:  len(raw.CPUSamples),

		MallocMb:           raw.MallocMb,
		PeakMb:             raw.PeakMb,
		AvgMb:              raw.AvgMb,
		GrowthMb:           raw.GrowthMb,
		PythonFraction:     raw.PythonFraction,
		UsageFraction:      raw.UsageFraction,
		CopyMbPerS:         raw.CopyMbPerS,
		Mallocs:            raw.Mallocs,
		MemorySamplesCount: len(raw.MemorySamples),

		GPUPercent: raw.GPUPercent,
		GPUPeakMb:  raw.GPUPeakMb,
		GPUAvgMb:   raw.GPUAvgMb,

		StartRegionLine: raw.StartRegionLine,
		EndRegionLine:   raw.EndRegionLine,
	}

	line.LeakScore = leakScore(line, leaks)

	return line
}

// normalizeFunction rejects records missing a name or a defining line number.
func normalizeFunction(raw *scalene.Function) (Function, bool) {
	if raw.Name == "" || raw.LineNo == nil {
		return Function{}, false
	}

	return Function{
		Name:   raw.Name,
		LineNo: *raw.LineNo,

		CPUPercentPython: raw.CPUPercentPython,
		CPUPercentNative: raw.CPUPercentNative,
		SysPercent:       raw.SysPercent,
		CoreUtilization:  raw.CoreUtilization,

		MallocMb:       raw.MallocMb,
		PeakMb:         raw.PeakMb,
		AvgMb:          raw.AvgMb,
		GrowthMb:       raw.GrowthMb,
		PythonFraction: raw.PythonFraction,
		UsageFraction:  raw.UsageFraction,
		CopyMbPerS:     raw.CopyMbPerS,
		Mallocs:        raw.Mallocs,
	}, true
}

func leakScore(line *Line, leaks map[string]float64) float64 {
	score := 0.0

	if weight, ok := leaks[strconv.Itoa(line.LineNo)]; ok {
		score += weight
	}

	growing := line.GrowthMb != nil && *line.GrowthMb > 0

	if growing {
		score += *line.GrowthMb * growthWeight
	}

	if growing && line.MallocMb != nil && *line.MallocMb > 0 {
		score += *line.MallocMb * mallocWeight
	}

	if growing && line.UsageFraction != nil && *line.UsageFraction < lowReuseCutoff {
		score += lowReusePenalty
	}

	return score
}

// LikelyLeak reports whether the line's leak score strictly exceeds the
// threshold. A score exactly at the threshold is not a leak.
func (l *Line) LikelyLeak(threshold float64) bool {
	if l == nil {
		return false
	}

	return l.LeakScore > threshold
}
