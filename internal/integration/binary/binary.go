package binary

import (
	"os"
	"os/exec"
)

// Available checks if a binary is available in the system PATH.
func Available(binName string) (string, bool) {
	path, err := exec.LookPath(binName)

	return path, err == nil
}

// Resolve picks the path to use for an external tool: the explicit override
// when one is given (and exists), otherwise a PATH lookup of binName.
func Resolve(override, binName string) (string, bool) {
	if override != "" {
		if _, err := os.Stat(override); err != nil {
			return "", false
		}

		return override, true
	}

	return Available(binName)
}
