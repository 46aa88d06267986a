package filter

import (
	"iter"

	"cdrq/internal/cdr"
)

// DefaultMinutePrefix is how much of the "HH:MM:SS.t" start time goes
// into the dedup fingerprint: 5 characters keeps the minute. Inherited
// heuristic for "same signaling dialog", kept configurable.
const DefaultMinutePrefix = 5

// DedupKey fingerprints an ATTEMPT record for duplicate suppression:
// trunk group + minute-truncated start time + calling + called number.
// Crankbacks and redials inside the same dialog collide on this key.
// Returns "" for non-ATTEMPT records.
func DedupKey(line string, minutePrefix int) string {
	if cdr.TypeOf(line) != cdr.Attempt {
		return ""
	}
	if minutePrefix <= 0 {
		minutePrefix = DefaultMinutePrefix
	}
	start := cdr.Field(line, cdr.Attempt.StartTimeField())
	if len(start) > minutePrefix {
		start = start[:minutePrefix]
	}
	return cdr.Field(line, cdr.TrunkGroupField) + "|" + start + "|" +
		cdr.Field(line, cdr.Attempt.CallingField()) + "|" +
		cdr.Field(line, cdr.Attempt.CalledField())
}

// DedupStage drops every ATTEMPT after the first with an identical
// fingerprint, preserving first-seen order. Other record types pass
// through untouched. Memory grows with distinct keys, not record count.
func DedupStage(minutePrefix int) Stage {
	return func(lines iter.Seq[string]) iter.Seq[string] {
		return func(yield func(string) bool) {
			seen := make(map[string]struct{})
			for line := range lines {
				if key := DedupKey(line, minutePrefix); key != "" {
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
				if !yield(line) {
					return
				}
			}
		}
	}
}
