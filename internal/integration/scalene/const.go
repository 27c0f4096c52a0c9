package scalene

import "time"

const (
	name = "scalene"
	// Profiled programs run at their own pace; the timeout only guards against
	// a wedged interpreter, not a slow one.
	timeout = 30 * time.Minute
)
