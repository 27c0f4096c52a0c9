package scalene

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/farcloser/primordium/fault"

	"github.com/farcloser/guttation/internal/integration/binary"
)

// RunOptions configures a profiling run.
type RunOptions struct {
	Outfile        string // where the profiler writes its JSON report
	BinaryOverride string // explicit path to the profiler binary, bypassing PATH lookup
	ReducedProfile bool   // keep only lines with measured activity
	CPUOnly        bool   // skip memory and copy-volume sampling
	GPU            bool   // sample GPU usage

	Program string   // target script
	Args    []string // target argv

	Stdout io.Writer // receives the profiled program's stdout (discarded when nil)
}

// Run executes the profiler on a program and loads the resulting report.
// It requires the profiler to be available in the system PATH unless an
// explicit binary path is given.
func Run(ctx context.Context, opts RunOptions) (*Report, error) {
	slog.Debug("scalene.Run", "program", opts.Program, "outfile", opts.Outfile)

	scalenePath, found := binary.Resolve(opts.BinaryOverride, name)
	if !found {
		return nil, fmt.Errorf("%w: %s", fault.ErrMissingRequirements, name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--cli", "--json", "--outfile", opts.Outfile}

	if opts.ReducedProfile {
		args = append(args, "--reduced-profile")
	}

	if opts.CPUOnly {
		args = append(args, "--cpu-only")
	}

	if opts.GPU {
		args = append(args, "--gpu")
	}

	args = append(args, opts.Program)
	args = append(args, opts.Args...)

	cmd := exec.CommandContext(ctx, scalenePath, args...)

	if opts.Stdout != nil {
		cmd.Stdout = opts.Stdout
	}

	var stderr bytes.Buffer

	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			slog.Debug("scalene.Run", "program", opts.Program, "stage", "timeout")

			return nil, fmt.Errorf("%w: after %v", fault.ErrTimeout, timeout)
		}

		slog.Debug("scalene.Run", "program", opts.Program, "stage", "error")

		return nil, fmt.Errorf("%w: %s: %w", fault.ErrCommandFailure, stderr.String(), err)
	}

	return Load(opts.Outfile)
}
