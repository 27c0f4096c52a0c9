package export_test

import (
	"bytes"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/export"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleNormalized(t *testing.T) *guttation.Report {
	t.Helper()

	return guttation.Normalize(&scalene.Report{
		Args:           []string{"app.py"},
		ElapsedTimeSec: 10,
		Files: map[string]*scalene.File{
			"app.py": {
				Lines: []scalene.Line{
					{LineNo: 5, GrowthMb: ptr(2.0), PeakMb: ptr(16.0)},
					{LineNo: 12, CPUPercentPython: ptr(50.0)},
					{LineNo: 30, Line: "pass"}, // nothing measured, skipped
				},
				Functions: []scalene.Function{
					{Name: "ingest", LineNo: ptr(10)},
				},
			},
		},
	})
}

func TestBuild(t *testing.T) {
	t.Parallel()

	prof := export.Build(sampleNormalized(t))

	require.NoError(t, prof.CheckValid())
	require.Len(t, prof.SampleType, 5)
	assert.Equal(t, "memory_growth", prof.DefaultSampleType)
	assert.Equal(t, int64(10e9), prof.DurationNanos)

	// The unmeasured line produces no sample.
	require.Len(t, prof.Sample, 2)

	memSample := prof.Sample[0]
	require.Len(t, memSample.Location, 1)
	assert.Equal(t, int64(5), memSample.Location[0].Line[0].Line)
	assert.Equal(t, int64(2<<20), memSample.Value[3])  // growth bytes
	assert.Equal(t, int64(16<<20), memSample.Value[4]) // peak bytes

	// 50% of 10s is 5s of python CPU.
	cpuSample := prof.Sample[1]
	assert.Equal(t, int64(5e9), cpuSample.Value[0])
	assert.Equal(t, int64(12), cpuSample.Location[0].Line[0].Line)
}

func TestBuildFunctionAttribution(t *testing.T) {
	t.Parallel()

	prof := export.Build(sampleNormalized(t))

	require.Len(t, prof.Sample, 2)

	// Line 5 precedes the only definition: module level.
	assert.Equal(t, "<module>", prof.Sample[0].Location[0].Line[0].Function.Name)

	// Line 12 falls under ingest (defined at line 10).
	fn := prof.Sample[1].Location[0].Line[0].Function
	assert.Equal(t, "ingest", fn.Name)
	assert.Equal(t, "app.py", fn.Filename)
	assert.Equal(t, int64(10), fn.StartLine)
}

func TestWriteRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, export.Write(&buf, sampleNormalized(t)))

	parsed, err := profile.Parse(&buf)
	require.NoError(t, err)
	require.NoError(t, parsed.CheckValid())
	assert.Len(t, parsed.Sample, 2)
}

func TestBuildEmptyReport(t *testing.T) {
	t.Parallel()

	prof := export.Build(guttation.Normalize(nil))

	require.NoError(t, prof.CheckValid())
	assert.Empty(t, prof.Sample)
}
