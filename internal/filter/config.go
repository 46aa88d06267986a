// Package filter applies the configured predicate chain to the raw CDR
// line stream: record type, include/exclude patterns, emergency and
// disconnect-reason matches, and duplicate-attempt suppression.
package filter

import (
	"strings"

	"cdrq/internal/cdr"
	"cdrq/internal/errs"
)

// ReportMode selects one of the aggregated report shapes.
type ReportMode int

const (
	ReportNone ReportMode = iota
	ReportTotalCalls
	ReportTimeDisposition
)

// Config is the validated filter/projection configuration handed to the
// core by the CLI layer. Immutable once validated.
type Config struct {
	Type cdr.Type // empty = all three record types

	Search    string // include pattern; comma-separated = OR
	AddSearch string // second required pattern, whole line
	Exclude   string // drop pattern, whole line

	CallingSearch bool // target Search at the calling-party field
	CalledSearch  bool // target Search at the called-party field

	Emergency        string // "", "911" or "933"
	DisconnectReason int    // 0 = unset
	Dedup            bool

	Fields          []int // 1-based projection positions
	Count           bool
	ProtocolVariant bool

	Report ReportMode

	// MinutePrefix is how many leading characters of the start-time
	// field go into the dedup fingerprint ("HH:MM" at the default 5).
	MinutePrefix int
}

// Validate enforces every cross-field constraint before any file is
// touched.
func (c Config) Validate() error {
	if c.Type != "" && !c.Type.Valid() {
		return errs.Config("unknown record type %q", c.Type)
	}
	if len(c.Fields) > 0 && c.Report != ReportNone {
		return errs.Config("field projection and a report mode are mutually exclusive")
	}
	if c.Count && len(c.Fields) == 0 {
		return errs.Config("count requires a field projection")
	}
	if c.Count && c.Report != ReportNone {
		return errs.Config("count and a report mode are mutually exclusive")
	}
	if c.Dedup && c.Type == cdr.Stop {
		return errs.Config("duplicate suppression applies to ATTEMPT records, not STOP")
	}
	if c.CallingSearch && c.CalledSearch {
		return errs.Config("calling and called search modes are mutually exclusive")
	}
	if c.CallingSearch || c.CalledSearch {
		if c.Search == "" {
			return errs.Config("calling/called search requires an include pattern")
		}
		if c.Type != cdr.Stop && c.Type != cdr.Attempt {
			return errs.Config("calling/called search requires record type STOP or ATTEMPT")
		}
		if strings.Contains(c.Search, ",") {
			return errs.Config("comma-separated search values cannot target a single field")
		}
	}
	switch c.Emergency {
	case "", "911", "933":
	default:
		return errs.Config("emergency code must be 911 or 933")
	}
	if c.DisconnectReason != 0 && c.Type == cdr.Start {
		return errs.Config("START records carry no disconnect reason")
	}
	if c.Report == ReportTimeDisposition && c.Type == cdr.Start {
		return errs.Config("time-disposition report is undefined for START records")
	}
	for _, f := range c.Fields {
		if f < 1 {
			return errs.Config("projection fields are 1-based, got %d", f)
		}
	}
	return nil
}

// Types returns the record types the configuration searches, for the
// output header.
func (c Config) Types() []cdr.Type {
	if c.Type != "" {
		return []cdr.Type{c.Type}
	}
	return cdr.All
}
