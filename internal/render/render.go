// Package render turns a normalized report into a standalone HTML page.
package render

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/farcloser/guttation"
)

//go:embed report.html.tmpl
var reportTemplate string

//nolint:gochecknoglobals // parsed once, read-only afterwards
var page = template.Must(template.New("report").Parse(reportTemplate))

// PageData is the template input.
type PageData struct {
	Program     string
	Args        []string
	ElapsedTime string
	PeakMemory  string
	Growth      string
	GrowthRate  string
	CPUPython   string
	CPUNative   string
	CPUSys      string
	LeakCount   int
	Threshold   float64
	Files       []FileView
}

// FileView is one source file's table.
type FileView struct {
	Path      string
	Lines     []LineView
	Functions []FunctionView
}

// LineView is one row of a file table, pre-formatted for display.
type LineView struct {
	LineNo     int
	Code       string
	CPUPython  string
	CPUNative  string
	Sys        string
	PeakMb     string
	AvgMb      string
	GrowthMb   string
	CopyRate   string
	LeakScore  string
	LikelyLeak bool
}

// FunctionView is one row of a file's function table.
type FunctionView struct {
	LineNo    int
	Name      string
	CPUPython string
	CPUNative string
	GrowthMb  string
	PeakMb    string
}

// HTML renders the report as a full HTML document.
func HTML(w io.Writer, report *guttation.Report, threshold float64) error {
	if err := page.Execute(w, buildPage(report, threshold)); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}

	return nil
}

func buildPage(report *guttation.Report, threshold float64) *PageData {
	data := &PageData{
		Program:     report.Program,
		Args:        report.Args,
		ElapsedTime: fmt.Sprintf("%.2fs", report.ElapsedTime),
		PeakMemory:  guttation.FormatMemory(report.MaxMemoryMb),
		Growth:      guttation.FormatMemory(report.TotalMemoryGrowthMb),
		GrowthRate:  guttation.FormatPercent(report.GrowthRatePercent),
		CPUPython:   guttation.FormatPercent(report.TotalCPUPercentPython),
		CPUNative:   guttation.FormatPercent(report.TotalCPUPercentNative),
		CPUSys:      guttation.FormatPercent(report.TotalSysPercent),
		Threshold:   threshold,
	}

	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	for _, path := range paths {
		data.Files = append(data.Files, buildFile(path, report.Files[path], threshold, &data.LeakCount))
	}

	return data
}

func buildFile(path string, file *guttation.File, threshold float64, leakCount *int) FileView {
	view := FileView{Path: path}

	numbers := make([]int, 0, len(file.Lines))
	for lineNo := range file.Lines {
		numbers = append(numbers, lineNo)
	}

	sort.Ints(numbers)

	for _, lineNo := range numbers {
		line := file.Lines[lineNo]

		likely := line.LikelyLeak(threshold)
		if likely {
			*leakCount++
		}

		view.Lines = append(view.Lines, LineView{
			LineNo:     line.LineNo,
			Code:       line.Code,
			CPUPython:  guttation.FormatPercent(deref(line.CPUPercentPython)),
			CPUNative:  guttation.FormatPercent(deref(line.CPUPercentNative)),
			Sys:        guttation.FormatPercent(deref(line.SysPercent)),
			PeakMb:     guttation.FormatMemory(deref(line.PeakMb)),
			AvgMb:      guttation.FormatMemory(deref(line.AvgMb)),
			GrowthMb:   guttation.FormatMemory(deref(line.GrowthMb)),
			CopyRate:   guttation.FormatMemory(deref(line.CopyMbPerS)),
			LeakScore:  fmt.Sprintf("%.0f", line.LeakScore),
			LikelyLeak: likely,
		})
	}

	functions := append([]guttation.Function(nil), file.Functions...)
	sort.Slice(functions, func(i, j int) bool { return functions[i].LineNo < functions[j].LineNo })

	for i := range functions {
		fn := &functions[i]
		view.Functions = append(view.Functions, FunctionView{
			LineNo:    fn.LineNo,
			Name:      fn.Name,
			CPUPython: guttation.FormatPercent(deref(fn.CPUPercentPython)),
			CPUNative: guttation.FormatPercent(deref(fn.CPUPercentNative)),
			GrowthMb:  guttation.FormatMemory(deref(fn.GrowthMb)),
			PeakMb:    guttation.FormatMemory(deref(fn.PeakMb)),
		})
	}

	return view
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
