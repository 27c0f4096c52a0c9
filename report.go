package guttation

// Report is the normalized, display-ready form of a raw profiler report.
// It is transient: built fresh from one raw report and discarded once the
// consuming view has rendered it.
type Report struct {
	Program       string   // args[0], else the report's filename, else "Unknown"
	Args          []string // program invocation
	ElapsedTime   float64  // seconds
	EntrypointDir string

	// Whole-report aggregates, folded over every line of every file.
	MaxMemoryMb           float64 // max of all line peaks
	TotalMemoryGrowthMb   float64 // signed sum; net frees subtract, no flooring
	GrowthRatePercent     float64 // growth over peak; 0 when MaxMemoryMb is 0
	TotalCPUPercentPython float64
	TotalCPUPercentNative float64
	TotalSysPercent       float64
	AllocSamples          int64
	FreeSamples           int64

	Files map[string]*File // keyed by source file path, 1:1 with the raw report
}

// File is the normalized form of one source file's samples.
type File struct {
	// Lines is keyed by line number. When the raw input carries duplicate
	// line numbers, the later entry wins; the profiler is not known to emit
	// duplicates, and merging would invent semantics it never asked for.
	Lines map[int]*Line

	Functions []Function // malformed raw entries dropped, raw order otherwise

	// Leaks carries the profiler's own pre-computed leak weights, keyed by
	// line number as a string. Lookups from integer line numbers must convert
	// at the boundary (strconv.Itoa), never the other way around.
	Leaks map[string]float64
}

// Line is one normalized source line. Optional metrics stay pointer-typed:
// "not measured" and "measured as zero" sum the same but display differently.
type Line struct {
	LineNo int
	Code   string // source text, may be empty

	// CPU
	CPUPercentPython *float64
	CPUPercentNative *float64
	SysPercent       *float64
	CoreUtilization  *float64
	CPUSamplesCount  int // length of the raw CPU sample list

	// Memory
	MallocMb           *float64
	PeakMb             *float64
	AvgMb              *float64
	GrowthMb           *float64 // signed: allocated minus freed
	PythonFraction     *float64
	UsageFraction      *float64 // 0..1
	CopyMbPerS         *float64
	Mallocs            *int64
	MemorySamplesCount int // length of the raw memory sample list

	// GPU
	GPUPercent *float64
	GPUPeakMb  *float64
	GPUAvgMb   *float64

	// Region markers bounding the loop or block this line belongs to.
	StartRegionLine *int
	EndRegionLine   *int

	LeakScore float64 // heuristic leak likelihood, always >= 0
}

// Function is one normalized function record: name, defining line, and the
// CPU/memory metric subset, passed through with no derivation.
type Function struct {
	Name   string
	LineNo int

	CPUPercentPython *float64
	CPUPercentNative *float64
	SysPercent       *float64
	CoreUtilization  *float64

	MallocMb       *float64
	PeakMb         *float64
	AvgMb          *float64
	GrowthMb       *float64
	PythonFraction *float64
	UsageFraction  *float64
	CopyMbPerS     *float64
	Mallocs        *int64
}
