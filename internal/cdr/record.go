// Package cdr models one line of a call detail record log: the record
// type tag, the per-type field layout, and the handful of field
// extractions the filter and report stages need.
package cdr

import (
	"fmt"
	"strings"
)

// Type is the record-type tag carried in field 1.
type Type string

const (
	Start   Type = "START"
	Attempt Type = "ATTEMPT"
	Stop    Type = "STOP"
)

// All is the full record-type set, used when no type filter is
// configured.
var All = []Type{Start, Attempt, Stop}

// Valid reports whether t is one of the three known record types.
func (t Type) Valid() bool {
	return t == Start || t == Attempt || t == Stop
}

// TrunkGroupField is the 1-based position of the trunk-group name in
// ATTEMPT and STOP records.
const TrunkGroupField = 9

// Per-type 1-based field positions. Zero means the field does not exist
// for that record type.
var layouts = map[Type]struct {
	calling    int
	called     int
	disconnect int
	startTime  int
}{
	Start:   {calling: 15, called: 16},
	Attempt: {calling: 17, called: 18, disconnect: 12, startTime: 10},
	Stop:    {calling: 20, called: 21, disconnect: 15, startTime: 12},
}

// CallingField returns the calling-party position for t, or 0.
func (t Type) CallingField() int { return layouts[t].calling }

// CalledField returns the called-party position for t, or 0.
func (t Type) CalledField() int { return layouts[t].called }

// DisconnectField returns the disconnect-reason position for t, or 0.
// START records carry no disconnect reason.
func (t Type) DisconnectField() int { return layouts[t].disconnect }

// StartTimeField returns the call-start time-of-day position for t, or 0.
func (t Type) StartTimeField() int { return layouts[t].startTime }

// TypeOf reads the record-type tag from field 1 without splitting the
// whole line. Unknown tags come back as an empty Type.
func TypeOf(line string) Type {
	end := strings.IndexByte(line, ',')
	if end < 0 {
		end = len(line)
	}
	switch t := Type(line[:end]); t {
	case Start, Attempt, Stop:
		return t
	}
	return ""
}

// Field returns the nth comma-delimited field (1-based) of line, or ""
// when the line has fewer fields. The split is naive: embedded quoted
// commas shift positions, matching how the accounting feed is consumed
// everywhere else. Scans only as far as needed.
func Field(line string, n int) string {
	if n < 1 {
		return ""
	}
	start := 0
	for i := 1; i < n; i++ {
		idx := strings.IndexByte(line[start:], ',')
		if idx < 0 {
			return ""
		}
		start += idx + 1
	}
	end := strings.IndexByte(line[start:], ',')
	if end < 0 {
		return line[start:]
	}
	return line[start : start+end]
}

// StripQuoted removes embedded double-quoted sub-fields (caller display
// names and similar free text that may contain commas). With keepContent
// set, only the quote characters are removed and the quoted text is
// preserved, keeping protocol-variant details intact.
func StripQuoted(line string, keepContent bool) string {
	if !strings.ContainsRune(line, '"') {
		return line
	}
	segs := strings.Split(line, `"`)
	if keepContent {
		return strings.Join(segs, "")
	}
	var b strings.Builder
	b.Grow(len(line))
	for i := 0; i < len(segs); i += 2 {
		b.WriteString(segs[i])
	}
	return b.String()
}

// TimeOfDay is tenths of a second since UTC midnight.
type TimeOfDay int

// ParseTimeOfDay parses the accounting "HH:MM:SS.t" time-of-day format.
// The tenths digit is optional.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	bad := func() (TimeOfDay, error) {
		return 0, fmt.Errorf("malformed time of day %q", s)
	}
	if len(s) < 8 || s[2] != ':' || s[5] != ':' {
		return bad()
	}
	h, ok1 := twoDigits(s[0:2])
	m, ok2 := twoDigits(s[3:5])
	sec, ok3 := twoDigits(s[6:8])
	if !ok1 || !ok2 || !ok3 || h > 23 || m > 59 || sec > 59 {
		return bad()
	}
	tenths := 0
	if len(s) > 8 {
		if len(s) < 10 || s[8] != '.' || s[9] < '0' || s[9] > '9' {
			return bad()
		}
		tenths = int(s[9] - '0')
	}
	return TimeOfDay(((h*3600+m*60+sec)*10 + tenths)), nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
