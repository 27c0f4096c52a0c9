// Package compare diffs two normalized reports of the same program, taken at
// different points in time, to surface lines whose memory behavior worsened.
package compare

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/farcloser/guttation"
)

// LineDelta captures how one source line changed between two profiling runs.
type LineDelta struct {
	Path   string
	LineNo int
	Code   string

	OldGrowthMb float64
	NewGrowthMb float64
	DeltaMb     float64

	OldScore float64
	NewScore float64

	// Escalated is set when the line crossed the leak threshold between runs.
	Escalated bool
}

// Result summarizes the diff. Deltas are sorted by memory delta, worst first.
type Result struct {
	Deltas []LineDelta

	TotalDeltaMb   float64
	MeanDeltaMb    float64
	EscalatedCount int
}

// Reports diffs two normalized reports. Lines present only in the new report
// are compared against zero; lines that vanished contribute nothing, which
// mirrors how consecutive profiler runs drop lines that stopped sampling.
func Reports(oldReport, newReport *guttation.Report, threshold float64) *Result {
	result := &Result{}

	var deltas []float64

	for path, newFile := range newReport.Files {
		var oldFile *guttation.File
		if oldReport != nil {
			oldFile = oldReport.Files[path]
		}

		for lineNo, newLine := range newFile.Lines {
			var oldLine *guttation.Line
			if oldFile != nil {
				oldLine = oldFile.Lines[lineNo]
			}

			delta := lineDelta(path, oldLine, newLine, threshold)
			if delta == nil {
				continue
			}

			if delta.Escalated {
				result.EscalatedCount++
			}

			result.TotalDeltaMb += delta.DeltaMb
			result.Deltas = append(result.Deltas, *delta)
			deltas = append(deltas, delta.DeltaMb)
		}
	}

	if len(deltas) > 0 {
		result.MeanDeltaMb = stat.Mean(deltas, nil)
	}

	sort.Slice(result.Deltas, func(i, j int) bool {
		a, b := result.Deltas[i], result.Deltas[j]
		if a.DeltaMb != b.DeltaMb {
			return a.DeltaMb > b.DeltaMb
		}

		if a.Path != b.Path {
			return a.Path < b.Path
		}

		return a.LineNo < b.LineNo
	})

	return result
}

func lineDelta(path string, oldLine, newLine *guttation.Line, threshold float64) *LineDelta {
	delta := &LineDelta{
		Path:        path,
		LineNo:      newLine.LineNo,
		Code:        newLine.Code,
		NewGrowthMb: deref(newLine.GrowthMb),
		NewScore:    newLine.LeakScore,
	}

	if oldLine != nil {
		delta.OldGrowthMb = deref(oldLine.GrowthMb)
		delta.OldScore = oldLine.LeakScore
	}

	delta.DeltaMb = delta.NewGrowthMb - delta.OldGrowthMb
	delta.Escalated = newLine.LikelyLeak(threshold) && !oldLine.LikelyLeak(threshold)

	if delta.DeltaMb == 0 && !delta.Escalated {
		return nil
	}

	return delta
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
