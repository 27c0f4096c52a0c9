// Package export converts normalized reports into pprof protobuf profiles so
// they can be explored with go tool pprof and compatible viewers.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/pprof/profile"

	"github.com/farcloser/guttation"
)

const bytesPerMb = 1 << 20

// moduleLevel names samples that fall outside any profiled function,
// matching the interpreter's own convention for top-level code.
const moduleLevel = "<module>"

// Build converts a normalized report into a pprof profile. CPU percentages
// become nanoseconds of the profiled wall time; memory metrics become bytes.
// One sample is emitted per source line that measured anything.
func Build(report *guttation.Report) *profile.Profile {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "cpu_python", Unit: "nanoseconds"},
			{Type: "cpu_native", Unit: "nanoseconds"},
			{Type: "sys", Unit: "nanoseconds"},
			{Type: "memory_growth", Unit: "bytes"},
			{Type: "memory_peak", Unit: "bytes"},
		},
		DefaultSampleType: "memory_growth",
		DurationNanos:     int64(report.ElapsedTime * float64(time.Second)),
	}

	builder := &profileBuilder{
		prof:      prof,
		elapsed:   report.ElapsedTime,
		functions: map[string]*profile.Function{},
	}

	paths := make([]string, 0, len(report.Files))
	for path := range report.Files {
		paths = append(paths, path)
	}

	sort.Strings(paths)

	for _, path := range paths {
		builder.addFile(path, report.Files[path])
	}

	return prof
}

// Write builds the profile and writes it as gzip-compressed protobuf.
func Write(w io.Writer, report *guttation.Report) error {
	if err := Build(report).Write(w); err != nil {
		return fmt.Errorf("writing pprof profile: %w", err)
	}

	return nil
}

type profileBuilder struct {
	prof      *profile.Profile
	elapsed   float64
	functions map[string]*profile.Function
}

func (b *profileBuilder) addFile(path string, file *guttation.File) {
	// Functions sorted by defining line so each line can be attributed to
	// the nearest enclosing definition above it.
	functions := append([]guttation.Function(nil), file.Functions...)
	sort.Slice(functions, func(i, j int) bool { return functions[i].LineNo < functions[j].LineNo })

	numbers := make([]int, 0, len(file.Lines))
	for lineNo := range file.Lines {
		numbers = append(numbers, lineNo)
	}

	sort.Ints(numbers)

	for _, lineNo := range numbers {
		line := file.Lines[lineNo]

		values := []int64{
			b.percentToNanos(line.CPUPercentPython),
			b.percentToNanos(line.CPUPercentNative),
			b.percentToNanos(line.SysPercent),
			mbToBytes(line.GrowthMb),
			mbToBytes(line.PeakMb),
		}

		if allZero(values) {
			continue
		}

		fn := b.function(path, enclosingName(functions, lineNo), enclosingStart(functions, lineNo))

		loc := &profile.Location{
			ID:   uint64(len(b.prof.Location) + 1),
			Line: []profile.Line{{Function: fn, Line: int64(lineNo)}},
		}
		b.prof.Location = append(b.prof.Location, loc)

		b.prof.Sample = append(b.prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    values,
		})
	}
}

func (b *profileBuilder) function(path, name string, startLine int) *profile.Function {
	key := path + "\x00" + name

	if fn, ok := b.functions[key]; ok {
		return fn
	}

	fn := &profile.Function{
		ID:        uint64(len(b.prof.Function) + 1),
		Name:      name,
		Filename:  path,
		StartLine: int64(startLine),
	}

	b.prof.Function = append(b.prof.Function, fn)
	b.functions[key] = fn

	return fn
}

func (b *profileBuilder) percentToNanos(pct *float64) int64 {
	if pct == nil {
		return 0
	}

	return int64(*pct / 100 * b.elapsed * float64(time.Second))
}

func mbToBytes(mb *float64) int64 {
	if mb == nil {
		return 0
	}

	return int64(*mb * bytesPerMb)
}

func allZero(values []int64) bool {
	for _, v := range values {
		if v != 0 {
			return false
		}
	}

	return true
}

func enclosingName(functions []guttation.Function, lineNo int) string {
	name := moduleLevel

	for i := range functions {
		if functions[i].LineNo > lineNo {
			break
		}

		name = functions[i].Name
	}

	return name
}

func enclosingStart(functions []guttation.Function, lineNo int) int {
	start := 0

	for i := range functions {
		if functions[i].LineNo > lineNo {
			break
		}

		start = functions[i].LineNo
	}

	return start
}
