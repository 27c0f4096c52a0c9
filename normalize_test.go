package guttation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNormalizeTotality(t *testing.T) {
	t.Parallel()

	t.Run("nil report", func(t *testing.T) {
		t.Parallel()

		report := guttation.Normalize(nil)

		require.NotNil(t, report)
		assert.Equal(t, "Unknown", report.Program)
		assert.Empty(t, report.Files)
		assert.Zero(t, report.MaxMemoryMb)
		assert.Zero(t, report.GrowthRatePercent)
	})

	t.Run("empty report", func(t *testing.T) {
		t.Parallel()

		report := guttation.Normalize(&scalene.Report{})

		require.NotNil(t, report)
		assert.Equal(t, "Unknown", report.Program)
		assert.Empty(t, report.Files)
	})

	t.Run("nil file entry", func(t *testing.T) {
		t.Parallel()

		report := guttation.Normalize(&scalene.Report{
			Files: map[string]*scalene.File{"app.py": nil},
		})

		require.Contains(t, report.Files, "app.py")
		assert.Empty(t, report.Files["app.py"].Lines)
		assert.NotNil(t, report.Files["app.py"].Leaks)
	})

	t.Run("line with no metrics", func(t *testing.T) {
		t.Parallel()

		report := guttation.Normalize(&scalene.Report{
			Files: map[string]*scalene.File{
				"app.py": {Lines: []scalene.Line{{LineNo: 3, Line: "pass"}}},
			},
		})

		line := report.Files["app.py"].Lines[3]
		require.NotNil(t, line)
		assert.Nil(t, line.GrowthMb)
		assert.Nil(t, line.CPUPercentPython)
		assert.Zero(t, line.LeakScore)
	})
}

func TestNormalizeProgramName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		raw      *scalene.Report
		expected string
	}{
		{"first arg", &scalene.Report{Args: []string{"train.py", "--epochs", "5"}}, "train.py"},
		{"empty first arg falls through", &scalene.Report{Args: []string{""}, Filename: "train.py"}, "train.py"},
		{"filename fallback", &scalene.Report{Filename: "worker.py"}, "worker.py"},
		{"unknown", &scalene.Report{}, "Unknown"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, guttation.Normalize(testCase.raw).Program)
		})
	}
}

func TestNormalizeAggregates(t *testing.T) {
	t.Parallel()

	raw := &scalene.Report{
		Args:           []string{"app.py"},
		ElapsedTimeSec: 12.5,
		Files: map[string]*scalene.File{
			"a.py": {Lines: []scalene.Line{
				{LineNo: 1, PeakMb: ptr(100.0), GrowthMb: ptr(10.0), CPUPercentPython: ptr(20.0)},
			}},
			"b.py": {Lines: []scalene.Line{
				{LineNo: 1, PeakMb: ptr(200.0), GrowthMb: ptr(-4.0), CPUPercentNative: ptr(5.0), SysPercent: ptr(1.0)},
			}},
		},
	}

	report := guttation.Normalize(raw)

	assert.InDelta(t, 200.0, report.MaxMemoryMb, 1e-9)
	// Net frees subtract, no flooring.
	assert.InDelta(t, 6.0, report.TotalMemoryGrowthMb, 1e-9)
	assert.InDelta(t, 3.0, report.GrowthRatePercent, 1e-9)
	assert.InDelta(t, 20.0, report.TotalCPUPercentPython, 1e-9)
	assert.InDelta(t, 5.0, report.TotalCPUPercentNative, 1e-9)
	assert.InDelta(t, 1.0, report.TotalSysPercent, 1e-9)
	assert.InDelta(t, 12.5, report.ElapsedTime, 1e-9)
}

func TestNormalizeGrowthRateFloor(t *testing.T) {
	t.Parallel()

	report := guttation.Normalize(&scalene.Report{
		Files: map[string]*scalene.File{
			"a.py": {Lines: []scalene.Line{{LineNo: 1, GrowthMb: ptr(5.0)}}},
		},
	})

	// No peak measured anywhere: rate stays zero rather than dividing by zero.
	assert.Zero(t, report.GrowthRatePercent)
	assert.InDelta(t, 5.0, report.TotalMemoryGrowthMb, 1e-9)
}

func TestNormalizeDuplicateLinesLastWins(t *testing.T) {
	t.Parallel()

	report := guttation.Normalize(&scalene.Report{
		Files: map[string]*scalene.File{
			"a.py": {Lines: []scalene.Line{
				{LineNo: 7, Line: "first", GrowthMb: ptr(1.0)},
				{LineNo: 7, Line: "second", GrowthMb: ptr(2.0)},
			}},
		},
	})

	file := report.Files["a.py"]
	require.Len(t, file.Lines, 1)
	assert.Equal(t, "second", file.Lines[7].Code)
	assert.InDelta(t, 2.0, *file.Lines[7].GrowthMb, 1e-9)
}

func TestNormalizeFunctionFiltering(t *testing.T) {
	t.Parallel()

	report := guttation.Normalize(&scalene.Report{
		Files: map[string]*scalene.File{
			"a.py": {Functions: []scalene.Function{
				{Name: "", LineNo: ptr(3)},
				{Name: "loop"},
				{Name: "work", LineNo: ptr(10), CPUPercentPython: ptr(40.0)},
			}},
		},
	})

	functions := report.Files["a.py"].Functions
	require.Len(t, functions, 1)
	assert.Equal(t, "work", functions[0].Name)
	assert.Equal(t, 10, functions[0].LineNo)
	assert.InDelta(t, 40.0, *functions[0].CPUPercentPython, 1e-9)
}

func TestLeakScore(t *testing.T) {
	t.Parallel()

	normalizeOne := func(line scalene.Line, leaks map[string]float64) *guttation.Line {
		report := guttation.Normalize(&scalene.Report{
			Files: map[string]*scalene.File{
				"a.py": {Lines: []scalene.Line{line}, Leaks: leaks},
			},
		})

		return report.Files["a.py"].Lines[line.LineNo]
	}

	t.Run("all signals stack", func(t *testing.T) {
		t.Parallel()

		// growth 5*10 + malloc 2*5 + low reuse 20 = 80
		line := normalizeOne(scalene.Line{
			LineNo:        10,
			GrowthMb:      ptr(5.0),
			MallocMb:      ptr(2.0),
			UsageFraction: ptr(0.1),
		}, nil)

		assert.InDelta(t, 80.0, line.LeakScore, 1e-9)
		assert.True(t, line.LikelyLeak(guttation.DefaultLeakThreshold))
	})

	t.Run("no growth means no score", func(t *testing.T) {
		t.Parallel()

		line := normalizeOne(scalene.Line{
			LineNo:        20,
			GrowthMb:      ptr(0.0),
			MallocMb:      ptr(50.0),
			UsageFraction: ptr(0.05),
		}, nil)

		assert.Zero(t, line.LeakScore)
		assert.False(t, line.LikelyLeak(guttation.DefaultLeakThreshold))
	})

	t.Run("negative growth means no score", func(t *testing.T) {
		t.Parallel()

		line := normalizeOne(scalene.Line{LineNo: 5, GrowthMb: ptr(-3.0)}, nil)

		assert.Zero(t, line.LeakScore)
	})

	t.Run("profiler leak weight counts without growth", func(t *testing.T) {
		t.Parallel()

		line := normalizeOne(scalene.Line{LineNo: 42}, map[string]float64{"42": 30})

		assert.InDelta(t, 30.0, line.LeakScore, 1e-9)
	})

	t.Run("leak weight keyed by other line is ignored", func(t *testing.T) {
		t.Parallel()

		line := normalizeOne(scalene.Line{LineNo: 42}, map[string]float64{"43": 30})

		assert.Zero(t, line.LeakScore)
	})

	t.Run("reuse at cutoff earns no penalty", func(t *testing.T) {
		t.Parallel()

		line := normalizeOne(scalene.Line{
			LineNo:        8,
			GrowthMb:      ptr(1.0),
			UsageFraction: ptr(0.3),
		}, nil)

		assert.InDelta(t, 10.0, line.LeakScore, 1e-9)
	})

	t.Run("more growth never lowers the score", func(t *testing.T) {
		t.Parallel()

		previous := 0.0

		for _, growth := range []float64{0.5, 1, 2, 8, 32} {
			line := normalizeOne(scalene.Line{LineNo: 1, GrowthMb: ptr(growth)}, nil)

			assert.Greater(t, line.LeakScore, previous)
			previous = line.LeakScore
		}
	})
}

func TestLikelyLeakBoundary(t *testing.T) {
	t.Parallel()

	// Exactly 5.0 MB growth scores exactly 50: not a leak at the default
	// threshold, which is strict.
	report := guttation.Normalize(&scalene.Report{
		Files: map[string]*scalene.File{
			"a.py": {Lines: []scalene.Line{
				{LineNo: 1, GrowthMb: ptr(5.0)},
				{LineNo: 2, GrowthMb: ptr(5.01)},
			}},
		},
	})

	lines := report.Files["a.py"].Lines
	assert.InDelta(t, 50.0, lines[1].LeakScore, 1e-9)
	assert.False(t, lines[1].LikelyLeak(guttation.DefaultLeakThreshold))
	assert.True(t, lines[2].LikelyLeak(guttation.DefaultLeakThreshold))

	var missing *guttation.Line

	assert.False(t, missing.LikelyLeak(guttation.DefaultLeakThreshold))
}

func TestNormalizeSampleCounts(t *testing.T) {
	t.Parallel()

	report := guttation.Normalize(&scalene.Report{
		AllocSamples: 120,
		FreeSamples:  80,
		Files: map[string]*scalene.File{
			"a.py": {Lines: []scalene.Line{{
				LineNo:        1,
				CPUSamples:    []float64{0.1, 0.2, 0.3},
				MemorySamples: [][]float64{{0.0, 10.0}, {1.0, 12.0}},
			}}},
		},
	})

	assert.Equal(t, int64(120), report.AllocSamples)
	assert.Equal(t, int64(80), report.FreeSamples)

	line := report.Files["a.py"].Lines[1]
	assert.Equal(t, 3, line.CPUSamplesCount)
	assert.Equal(t, 2, line.MemorySamplesCount)
}
