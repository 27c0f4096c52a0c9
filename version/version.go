// Package version exposes build metadata for the guttation binaries.
package version

import (
	"os"
	"path/filepath"
	"runtime/debug"
)

const commitLen = 12

// Name returns the name the binary was invoked as.
func Name() string {
	return filepath.Base(os.Args[0])
}

// Version returns the module version recorded at build time.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return "dev"
}

// Commit returns the abbreviated VCS revision recorded at build time.
func Commit() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			if len(setting.Value) > commitLen {
				return setting.Value[:commitLen]
			}

			return setting.Value
		}
	}

	return ""
}
