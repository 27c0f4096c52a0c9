package compare_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/guttation"
	"github.com/farcloser/guttation/internal/compare"
	"github.com/farcloser/guttation/internal/integration/scalene"
)

func ptr[T any](v T) *T {
	return &v
}

func buildReport(t *testing.T, growthByLine map[int]float64) *guttation.Report {
	t.Helper()

	var lines []scalene.Line
	for lineNo, growth := range growthByLine {
		lines = append(lines, scalene.Line{LineNo: lineNo, GrowthMb: ptr(growth)})
	}

	return guttation.Normalize(&scalene.Report{
		Files: map[string]*scalene.File{"app.py": {Lines: lines}},
	})
}

func TestReports(t *testing.T) {
	t.Parallel()

	oldReport := buildReport(t, map[int]float64{
		10: 1.0, // worsens to 8.0, crossing the threshold
		20: 3.0, // improves
		30: 2.0, // unchanged, dropped from the diff
	})
	newReport := buildReport(t, map[int]float64{
		10: 8.0,
		20: 1.5,
		30: 2.0,
	})

	result := compare.Reports(oldReport, newReport, guttation.DefaultLeakThreshold)

	require.Len(t, result.Deltas, 2)

	// Worst delta first.
	worst := result.Deltas[0]
	assert.Equal(t, 10, worst.LineNo)
	assert.InDelta(t, 7.0, worst.DeltaMb, 1e-9)
	assert.InDelta(t, 10.0, worst.OldScore, 1e-9)
	assert.InDelta(t, 80.0, worst.NewScore, 1e-9)
	assert.True(t, worst.Escalated)

	improved := result.Deltas[1]
	assert.Equal(t, 20, improved.LineNo)
	assert.InDelta(t, -1.5, improved.DeltaMb, 1e-9)
	assert.False(t, improved.Escalated)

	assert.InDelta(t, 5.5, result.TotalDeltaMb, 1e-9)
	assert.InDelta(t, 2.75, result.MeanDeltaMb, 1e-9)
	assert.Equal(t, 1, result.EscalatedCount)
}

func TestReportsNewLineOnly(t *testing.T) {
	t.Parallel()

	oldReport := buildReport(t, map[int]float64{})
	newReport := buildReport(t, map[int]float64{10: 6.0})

	result := compare.Reports(oldReport, newReport, guttation.DefaultLeakThreshold)

	require.Len(t, result.Deltas, 1)
	assert.InDelta(t, 6.0, result.Deltas[0].DeltaMb, 1e-9)
	assert.Zero(t, result.Deltas[0].OldScore)
	assert.True(t, result.Deltas[0].Escalated)
}

func TestReportsVanishedLine(t *testing.T) {
	t.Parallel()

	oldReport := buildReport(t, map[int]float64{10: 6.0})
	newReport := buildReport(t, map[int]float64{})

	result := compare.Reports(oldReport, newReport, guttation.DefaultLeakThreshold)

	assert.Empty(t, result.Deltas)
	assert.Zero(t, result.TotalDeltaMb)
	assert.Zero(t, result.EscalatedCount)
}

func TestReportsIdentical(t *testing.T) {
	t.Parallel()

	oldReport := buildReport(t, map[int]float64{10: 2.0, 20: 0.5})
	newReport := buildReport(t, map[int]float64{10: 2.0, 20: 0.5})

	result := compare.Reports(oldReport, newReport, guttation.DefaultLeakThreshold)

	assert.Empty(t, result.Deltas)
	assert.Zero(t, result.MeanDeltaMb)
}
