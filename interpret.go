package guttation

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Check represents a high-level report interpretation check.
type Check int

const (
	CheckLeaks Check = 1 << iota
	CheckCPUHotspots
	CheckMemory

	ChecksAll = CheckLeaks | CheckCPUHotspots | CheckMemory
)

func (c Check) String() string {
	switch c {
	case CheckLeaks:
		return "leaks"
	case CheckCPUHotspots:
		return "cpu-hotspots"
	case CheckMemory:
		return "memory"
	}

	return "unknown"
}

// Severity indicates how bad a finding is.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMild
	SeverityModerate
	SeveritySevere
)

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "no issue"
	case SeverityMild:
		return "mild"
	case SeverityModerate:
		return "moderate"
	case SeveritySevere:
		return "severe"
	}

	return "unknown"
}

// Issue is one finding tied to a source location.
type Issue struct {
	Check      Check
	Detected   bool
	Severity   Severity
	Path       string // source file, empty for report-wide findings
	LineNo     int    // 0 for report-wide findings
	Summary    string // human-readable summary
	Confidence float64
}

// Bands defines ascending severity thresholds for a value: higher is worse.
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value is below the Mild threshold.
func (b Bands) Match(value float64) (Severity, bool) {
	if value >= b.Severe {
		return SeveritySevere, true
	}

	if value >= b.Moderate {
		return SeverityModerate, true
	}

	if value >= b.Mild {
		return SeverityMild, true
	}

	return SeverityNone, false
}

// Options configures report interpretation.
type Options struct {
	Checks Check // which checks to run (default: ChecksAll)

	// LeakThreshold is the strict lower bound for leak classification.
	LeakThreshold float64

	// Leak maps leak scores of classified lines to severities.
	Leak Bands

	// HotspotQuantile is the per-line CPU share quantile above which a line
	// counts as a hotspot (default 0.9).
	HotspotQuantile float64

	// HotspotMinPercent ignores lines below this CPU share even when they
	// clear the quantile cutoff (default 1.0).
	HotspotMinPercent float64
}

// DefaultOptions returns the thresholds the CLI ships with.
func DefaultOptions() Options {
	return Options{
		Checks:            ChecksAll,
		LeakThreshold:     DefaultLeakThreshold,
		Leak:              Bands{Mild: 50, Moderate: 150, Severe: 400},
		HotspotQuantile:   0.9,
		HotspotMinPercent: 1.0,
	}
}

// Analysis is the interpreted view of a normalized report.
type Analysis struct {
	Issues []Issue

	LeakCount     int
	HotspotCount  int
	WorstSeverity Severity
}

// Interpret derives findings from a normalized report. Classification
// semantics live in Line.LikelyLeak; this layer only ranks and describes
// what the classifier already decided.
func Interpret(report *Report, opts Options) *Analysis {
	if opts.Checks == 0 {
		opts = DefaultOptions()
	}

	applyDefaults(&opts)

	analysis := &Analysis{}

	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	if opts.Checks&CheckLeaks != 0 {
		interpretLeaks(analysis, report, paths, opts)
	}

	if opts.Checks&CheckCPUHotspots != 0 {
		interpretHotspots(analysis, report, paths, opts)
	}

	if opts.Checks&CheckMemory != 0 {
		interpretMemory(analysis, report)
	}

	for _, issue := range analysis.Issues {
		if issue.Severity > analysis.WorstSeverity {
			analysis.WorstSeverity = issue.Severity
		}
	}

	return analysis
}

func applyDefaults(opts *Options) {
	defaults := DefaultOptions()

	if opts.LeakThreshold == 0 {
		opts.LeakThreshold = defaults.LeakThreshold
	}

	if (opts.Leak == Bands{}) {
		opts.Leak = defaults.Leak
	}

	if opts.HotspotQuantile == 0 {
		opts.HotspotQuantile = defaults.HotspotQuantile
	}

	if opts.HotspotMinPercent == 0 {
		opts.HotspotMinPercent = defaults.HotspotMinPercent
	}
}

func interpretLeaks(analysis *Analysis, report *Report, paths []string, opts Options) {
	for _, path := range paths {
		file := report.Files[path]

		for _, lineNo := range sortedLineNumbers(file) {
			line := file.Lines[lineNo]
			if !line.LikelyLeak(opts.LeakThreshold) {
				continue
			}

			severity, _ := opts.Leak.Match(line.LeakScore)
			if severity == SeverityNone {
				// Classified but below the mild band: still a finding.
				severity = SeverityMild
			}

			analysis.LeakCount++
			analysis.Issues = append(analysis.Issues, Issue{
				Check:      CheckLeaks,
				Detected:   true,
				Severity:   severity,
				Path:       path,
				LineNo:     lineNo,
				Summary:    fmt.Sprintf("likely leak: score %.0f, growth %s", line.LeakScore, FormatMemory(deref(line.GrowthMb))),
				Confidence: leakConfidence(line, file.Leaks),
			})
		}
	}
}

func interpretHotspots(analysis *Analysis, report *Report, paths []string, opts Options) {
	type hotspot struct {
		path string
		line *Line
		cpu  float64
	}

	var (
		candidates []hotspot
		shares     []float64
	)

	for _, path := range paths {
		file := report.Files[path]

		for _, lineNo := range sortedLineNumbers(file) {
			line := file.Lines[lineNo]

			cpu := deref(line.CPUPercentPython) + deref(line.CPUPercentNative)
			if cpu <= 0 {
				continue
			}

			candidates = append(candidates, hotspot{path: path, line: line, cpu: cpu})
			shares = append(shares, cpu)
		}
	}

	if len(shares) == 0 {
		return
	}

	slices.Sort(shares)
	cutoff := stat.Quantile(opts.HotspotQuantile, stat.Empirical, shares, nil)

	for _, candidate := range candidates {
		if candidate.cpu < cutoff || candidate.cpu < opts.HotspotMinPercent {
			continue
		}

		analysis.HotspotCount++
		analysis.Issues = append(analysis.Issues, Issue{
			Check:      CheckCPUHotspots,
			Detected:   true,
			Severity:   SeverityMild,
			Path:       candidate.path,
			LineNo:     candidate.line.LineNo,
			Summary:    fmt.Sprintf("CPU hotspot: %s total (%s python, %s native)", FormatPercent(candidate.cpu), FormatPercent(deref(candidate.line.CPUPercentPython)), FormatPercent(deref(candidate.line.CPUPercentNative))),
			Confidence: 0.8,
		})
	}
}

func interpretMemory(analysis *Analysis, report *Report) {
	analysis.Issues = append(analysis.Issues, Issue{
		Check:    CheckMemory,
		Detected: false, // informational
		Severity: SeverityNone,
		Summary: fmt.Sprintf(
			"peak %s, growth %s (rate %s)",
			FormatMemory(report.MaxMemoryMb),
			FormatMemory(report.TotalMemoryGrowthMb),
			FormatPercent(report.GrowthRatePercent),
		),
		Confidence: 1.0,
	})
}

// leakConfidence is higher when independent signals agree: an external leak
// weight from the profiler's own detector, and a low reuse fraction.
func leakConfidence(line *Line, leaks map[string]float64) float64 {
	confidence := 0.6

	if _, ok := leaks[strconv.Itoa(line.LineNo)]; ok {
		confidence += 0.25
	}

	if line.UsageFraction != nil && *line.UsageFraction < lowReuseCutoff {
		confidence += 0.1
	}

	return confidence
}

func sortedLineNumbers(file *File) []int {
	numbers := make([]int, 0, len(file.Lines))
	for lineNo := range file.Lines {
		numbers = append(numbers, lineNo)
	}

	sort.Ints(numbers)

	return numbers
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
