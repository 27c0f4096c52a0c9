//nolint:tagliatelle
package scalene

// Report is the marshalled form of the JSON document the profiler writes
// with --json --outfile. Every numeric metric is optional: absence means
// "not measured", which is not the same thing as zero, so optional metrics
// are pointer-typed throughout.
type Report struct {
	Files          map[string]*File `json:"files"`
	Args           []string         `json:"args"`
	ElapsedTimeSec float64          `json:"elapsed_time_sec"`
	EntrypointDir  string           `json:"entrypoint_dir,omitempty"`
	Filename       string           `json:"filename,omitempty"`
	AllocSamples   int64            `json:"alloc_samples,omitempty"`
	FreeSamples    int64            `json:"free_samples,omitempty"`
	Memory         bool             `json:"memory,omitempty"` // whether memory sampling was enabled
	GPU            bool             `json:"gpu,omitempty"`    // whether GPU sampling was enabled
}

// File holds the samples attributed to one source file.
// Line numbers in Lines are not guaranteed contiguous or sorted.
type File struct {
	Lines     []Line             `json:"lines"`
	Functions []Function         `json:"functions"`
	Leaks     map[string]float64 `json:"leaks,omitempty"` // line number (as string) -> leak weight
}

// Line is one sampled source line: a sparse bag of optional metrics.
type Line struct {
	LineNo int    `json:"lineno"`
	Line   string `json:"line"` // source text, may be empty

	// CPU
	CPUPercentPython *float64  `json:"n_cpu_percent_python,omitempty"`
	CPUPercentNative *float64  `json:"n_cpu_percent_c,omitempty"`
	SysPercent       *float64  `json:"n_sys_percent,omitempty"`
	CoreUtilization  *float64  `json:"n_core_utilization,omitempty"`
	CPUSamples       []float64 `json:"cpu_samples,omitempty"`

	// Memory
	MallocMb       *float64    `json:"n_malloc_mb,omitempty"`
	PeakMb         *float64    `json:"n_peak_mb,omitempty"`
	AvgMb          *float64    `json:"n_avg_mb,omitempty"`
	GrowthMb       *float64    `json:"n_growth_mb,omitempty"` // signed: allocated minus freed
	PythonFraction *float64    `json:"n_python_fraction,omitempty"`
	UsageFraction  *float64    `json:"n_usage_fraction,omitempty"` // 0..1
	CopyMbPerS     *float64    `json:"n_copy_mb_s,omitempty"`
	Mallocs        *int64      `json:"n_mallocs,omitempty"`
	MemorySamples  [][]float64 `json:"memory_samples,omitempty"` // [timestamp, footprint] pairs

	// GPU (only present when the profiler ran with GPU sampling)
	GPUPercent *float64 `json:"n_gpu_percent,omitempty"`
	GPUPeakMb  *float64 `json:"n_gpu_peak_memory_mb,omitempty"`
	GPUAvgMb   *float64 `json:"n_gpu_avg_memory_mb,omitempty"`

	// Region markers bounding the loop or block this line belongs to.
	StartRegionLine *int `json:"start_region_line,omitempty"`
	EndRegionLine   *int `json:"end_region_line,omitempty"`
}

// Function is one sampled function. The profiler reuses the "line" key for
// the function name. Records missing a name or a defining line number are
// malformed and dropped during normalization.
type Function struct {
	Name   string `json:"line"`
	LineNo *int   `json:"lineno,omitempty"`

	CPUPercentPython *float64 `json:"n_cpu_percent_python,omitempty"`
	CPUPercentNative *float64 `json:"n_cpu_percent_c,omitempty"`
	SysPercent       *float64 `json:"n_sys_percent,omitempty"`
	CoreUtilization  *float64 `json:"n_core_utilization,omitempty"`

	MallocMb       *float64 `json:"n_malloc_mb,omitempty"`
	PeakMb         *float64 `json:"n_peak_mb,omitempty"`
	AvgMb          *float64 `json:"n_avg_mb,omitempty"`
	GrowthMb       *float64 `json:"n_growth_mb,omitempty"`
	PythonFraction *float64 `json:"n_python_fraction,omitempty"`
	UsageFraction  *float64 `json:"n_usage_fraction,omitempty"`
	CopyMbPerS     *float64 `json:"n_copy_mb_s,omitempty"`
	Mallocs        *int64   `json:"n_mallocs,omitempty"`
}
