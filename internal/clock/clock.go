// Package clock provides the time capability used by file selection and
// the rolling-window extractor. Rotation happens at UTC midnight, so all
// window math runs in UTC regardless of the host zone.
package clock

import "time"

// Clock supplies the current instant. Injected so selection windows are
// testable without wall-clock dependence.
type Clock interface {
	Now() time.Time
}

// UTC is the production clock.
type UTC struct{}

func (UTC) Now() time.Time { return time.Now().UTC() }

// Fixed is a test clock pinned to one instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T.UTC() }

// Midnight truncates t to 00:00:00 UTC of the same day.
func Midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
