package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() so gateway timestamps are timezone independent
func Now() time.Time {
	return time.Now().UTC()
}
