package scalene_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/farcloser/primordium/fault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farcloser/guttation/internal/integration/scalene"
)

const sampleReport = `{
  "args": ["app.py", "--fast"],
  "elapsed_time_sec": 4.2,
  "entrypoint_dir": "/work",
  "alloc_samples": 12,
  "free_samples": 7,
  "memory": true,
  "files": {
    "app.py": {
      "lines": [
        {
          "lineno": 10,
          "line": "data.append(blob)",
          "n_cpu_percent_python": 1.5,
          "n_malloc_mb": 2.0,
          "n_peak_mb": 64.0,
          "n_growth_mb": 5.0,
          "n_usage_fraction": 0.1,
          "memory_samples": [[0.0, 10.0], [1.0, 15.0]]
        },
        {
          "lineno": 20,
          "line": "time.sleep(1)"
        }
      ],
      "functions": [
        {"line": "ingest", "lineno": 8, "n_cpu_percent_python": 1.5}
      ],
      "leaks": {"10": 30.5}
    }
  }
}`

func writeReport(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	report, err := scalene.Load(writeReport(t, sampleReport))
	require.NoError(t, err)

	assert.Equal(t, []string{"app.py", "--fast"}, report.Args)
	assert.InDelta(t, 4.2, report.ElapsedTimeSec, 1e-9)
	assert.Equal(t, "/work", report.EntrypointDir)
	assert.Equal(t, int64(12), report.AllocSamples)
	assert.Equal(t, int64(7), report.FreeSamples)
	assert.True(t, report.Memory)

	file := report.Files["app.py"]
	require.NotNil(t, file)
	require.Len(t, file.Lines, 2)

	first := file.Lines[0]
	assert.Equal(t, 10, first.LineNo)
	assert.Equal(t, "data.append(blob)", first.Line)
	require.NotNil(t, first.GrowthMb)
	assert.InDelta(t, 5.0, *first.GrowthMb, 1e-9)
	assert.Len(t, first.MemorySamples, 2)

	// Absent metrics stay nil: "not measured" is not zero.
	second := file.Lines[1]
	assert.Nil(t, second.CPUPercentPython)
	assert.Nil(t, second.GrowthMb)
	assert.Empty(t, second.MemorySamples)

	require.Len(t, file.Functions, 1)
	assert.Equal(t, "ingest", file.Functions[0].Name)
	require.NotNil(t, file.Functions[0].LineNo)
	assert.Equal(t, 8, *file.Functions[0].LineNo)

	assert.InDelta(t, 30.5, file.Leaks["10"], 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := scalene.Load(filepath.Join(t.TempDir(), "absent.json"))

	require.ErrorIs(t, err, fault.ErrReadFailure)
}

func TestLoadInvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := scalene.Load(writeReport(t, "{not json"))

	require.ErrorIs(t, err, fault.ErrInvalidJSON)
}
