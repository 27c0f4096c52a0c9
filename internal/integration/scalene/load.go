package scalene

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/farcloser/primordium/fault"
)

// Load reads a profiler report from disk and parses it.
// Read and parse failures are the caller's to surface; normalization never
// sees a report that did not make it through here.
func Load(path string) (*Report, error) {
	slog.Debug("scalene.Load", "path", path)

	data, err := os.ReadFile(path) //nolint:gosec // report path is intentionally user-provided
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fault.ErrReadFailure, path, err)
	}

	var report Report
	if err = json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("%w: %w", fault.ErrInvalidJSON, err)
	}

	return &report, nil
}
