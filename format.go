package guttation

import "fmt"

// FormatMemory renders a megabyte quantity for display. Zero (which is also
// how "not measured" reaches the formatter) renders as "-".
func FormatMemory(mb float64) string {
	switch {
	case mb == 0:
		return "-"
	case mb < 0.01:
		return "<0.01 MB"
	case mb < 1:
		return fmt.Sprintf("%.2f MB", mb)
	case mb < 1000:
		return fmt.Sprintf("%.1f MB", mb)
	default:
		return fmt.Sprintf("%.2f GB", mb/1024)
	}
}

// FormatPercent renders a percentage for display, "-" for zero or unmeasured.
func FormatPercent(pct float64) string {
	switch {
	case pct == 0:
		return "-"
	case pct < 0.01:
		return "<0.01%"
	default:
		return fmt.Sprintf("%.2f%%", pct)
	}
}
