// Package salt implements the near-real-time rolling-window extraction
// used for half-hourly health monitoring. It composes the file selector
// with a narrow time-bucket predicate and the duplicate filter,
// independent of the general query pipeline.
package salt

import (
	"fmt"
	"iter"
	"regexp"

	"github.com/rs/zerolog/log"

	"cdrq/internal/cdr"
	"cdrq/internal/clock"
	"cdrq/internal/filter"
)

// Bucket is one half-hour time-of-day window, inclusive on both ends
// ([HH:30:00.0, HH:59:59.9] or [HH:00:00.0, HH:29:59.9]).
type Bucket struct {
	Hour       int
	SecondHalf bool
}

// CurrentBucket picks the half-hour just completed or in progress,
// tolerant of the up-to-35-minute lag before records become visible:
// at minute 29 or earlier the previous hour's second half is still the
// freshest fully-written bucket.
func CurrentBucket(clk clock.Clock) Bucket {
	now := clk.Now()
	if now.Minute() <= 29 {
		return Bucket{Hour: (now.Hour() + 23) % 24, SecondHalf: true}
	}
	return Bucket{Hour: now.Hour(), SecondHalf: false}
}

// Bounds returns the inclusive bucket edges in tenths of a second.
func (b Bucket) Bounds() (start, end cdr.TimeOfDay) {
	base := cdr.TimeOfDay(b.Hour * 3600 * 10)
	if b.SecondHalf {
		return base + 1800*10, base + 3599*10 + 9
	}
	return base, base + 1799*10 + 9
}

// Pattern is the coarse textual pre-filter: any comma-delimited
// time-of-day whose hour and minute digits fall inside the bucket.
// Cheap enough to run on every line before any field extraction.
func (b Bucket) Pattern() *regexp.Regexp {
	half := "[0-2]"
	if b.SecondHalf {
		half = "[3-5]"
	}
	return regexp.MustCompile(fmt.Sprintf(",%02d:%s[0-9]:", b.Hour, half))
}

func (b Bucket) String() string {
	if b.SecondHalf {
		return fmt.Sprintf("%02d:30:00.0-%02d:59:59.9", b.Hour, b.Hour)
	}
	return fmt.Sprintf("%02d:00:00.0-%02d:29:59.9", b.Hour, b.Hour)
}

// Extract runs the rolling-window pipeline over the selected files:
// coarse textual bucket match limited to STOP and ATTEMPT records,
// duplicate suppression over the ATTEMPT subset, then authoritative
// re-validation of each candidate's per-type start-time field. Records
// whose timestamp fails to parse are logged and skipped, never fatal.
// Surviving raw lines come out unmodified, in encounter order.
func Extract(lines iter.Seq[string], bucket Bucket, minutePrefix int) iter.Seq[string] {
	coarse := bucket.Pattern()
	lo, hi := bucket.Bounds()

	candidates := func(yield func(string) bool) {
		for line := range lines {
			t := cdr.TypeOf(line)
			if t != cdr.Stop && t != cdr.Attempt {
				continue
			}
			if !coarse.MatchString(line) {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}

	deduped := filter.DedupStage(minutePrefix)(candidates)

	return func(yield func(string) bool) {
		for line := range deduped {
			t := cdr.TypeOf(line)
			tod, err := cdr.ParseTimeOfDay(cdr.Field(line, t.StartTimeField()))
			if err != nil {
				log.Warn().Err(err).Str("type", string(t)).Msg("skipping record with unparseable start time")
				continue
			}
			if tod < lo || tod > hi {
				continue
			}
			if !yield(line) {
				return
			}
		}
	}
}
