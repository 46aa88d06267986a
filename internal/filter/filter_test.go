package filter

import (
	"iter"
	"slices"
	"strings"
	"testing"

	"cdrq/internal/cdr"
)

// makeLine builds a CDR fixture with n comma fields, field 1 = typ and
// the given 1-based positions populated.
func makeLine(typ string, n int, set map[int]string) string {
	fields := make([]string, n)
	fields[0] = typ
	for pos, v := range set {
		fields[pos-1] = v
	}
	return strings.Join(fields, ",")
}

func attemptLine(tg, start, calling, called, dr string) string {
	return makeLine("ATTEMPT", 18, map[int]string{
		9: tg, 10: start, 12: dr, 17: calling, 18: called,
	})
}

func stopLine(tg, start, calling, called, dr string) string {
	return makeLine("STOP", 21, map[int]string{
		9: tg, 12: start, 15: dr, 20: calling, 21: called,
	})
}

func startLine(calling, called string) string {
	return makeLine("START", 16, map[int]string{15: calling, 16: called})
}

func seq(lines ...string) iter.Seq[string] {
	return slices.Values(lines)
}

func apply(t *testing.T, c Config, lines ...string) []string {
	t.Helper()
	out, err := c.Apply(seq(lines...))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	return slices.Collect(out)
}

func TestTypeFilter(t *testing.T) {
	lines := []string{
		startLine("404555", "770555"),
		attemptLine("TG1", "10:00:00.0", "404555", "770555", "41"),
		stopLine("TG1", "10:00:00.0", "404555", "770555", "16"),
		"# comment noise",
		"",
	}

	got := apply(t, Config{Type: cdr.Stop}, lines...)
	if len(got) != 1 || cdr.TypeOf(got[0]) != cdr.Stop {
		t.Errorf("got %v, want only the STOP record", got)
	}

	// Unset type keeps all three record types and still drops noise.
	got = apply(t, Config{}, lines...)
	if len(got) != 3 {
		t.Errorf("got %d records, want 3", len(got))
	}
}

func TestIncludeWholeLine(t *testing.T) {
	a := attemptLine("TG1", "10:00:00.0", "4045551234", "7705550000", "41")
	b := attemptLine("TG2", "10:00:00.0", "2125559876", "7705550000", "41")

	got := apply(t, Config{Search: "tg1"}, a, b)
	if len(got) != 1 || got[0] != a {
		t.Errorf("case-insensitive whole-line search failed: %v", got)
	}
}

func TestIncludeCommaSeparatedIsOr(t *testing.T) {
	a := attemptLine("TG1", "10:00:00.0", "4045551234", "7705550000", "41")
	b := attemptLine("TG2", "10:00:00.0", "2125559876", "7705550000", "41")
	c := attemptLine("TG3", "10:00:00.0", "6785550000", "7705550000", "41")

	got := apply(t, Config{Search: "TG1,TG3"}, a, b, c)
	if len(got) != 2 {
		t.Errorf("got %d records, want 2 (OR of alternatives)", len(got))
	}
}

func TestIncludeFieldTargeted(t *testing.T) {
	// 404555 appears in the calling field of a and the called field of b.
	a := stopLine("TG1", "10:00:00.0", "4045551234", "7705550000", "16")
	b := stopLine("TG1", "10:00:00.0", "2125559876", "4045551234", "16")

	got := apply(t, Config{Type: cdr.Stop, Search: "404555", CallingSearch: true}, a, b)
	if len(got) != 1 || got[0] != a {
		t.Errorf("calling search: got %v, want only a", got)
	}

	got = apply(t, Config{Type: cdr.Stop, Search: "404555", CalledSearch: true}, a, b)
	if len(got) != 1 || got[0] != b {
		t.Errorf("called search: got %v, want only b", got)
	}
}

func TestDialStringEscaping(t *testing.T) {
	a := stopLine("TG1", "10:00:00.0", "*67", "7705550000", "16")
	b := stopLine("TG1", "10:00:00.0", "967", "7705550000", "16")

	// A literal * must not turn into a regex quantifier.
	got := apply(t, Config{Type: cdr.Stop, Search: "*67", CallingSearch: true}, a, b)
	if len(got) != 1 || got[0] != a {
		t.Errorf("got %v, want only the star-code record", got)
	}
}

func TestAddSearchAndExclude(t *testing.T) {
	a := attemptLine("TG1", "10:00:00.0", "404555", "770555", "41")
	b := attemptLine("TG1", "10:00:00.0", "404555", "678555", "41")
	c := attemptLine("TG2", "10:00:00.0", "404555", "770555", "41")

	got := apply(t, Config{Search: "404555", AddSearch: "770555"}, a, b, c)
	if len(got) != 2 {
		t.Errorf("add-search: got %d, want 2", len(got))
	}

	got = apply(t, Config{Search: "404555", Exclude: "TG2"}, a, b, c)
	if len(got) != 2 {
		t.Errorf("exclude: got %d, want 2", len(got))
	}
}

// Scenario D: emergency match on the called-party field, per record
// type.
func TestEmergencyFilter(t *testing.T) {
	a := attemptLine("TG1", "10:00:00.0", "4045551234", "911", "0")
	b := attemptLine("TG1", "10:00:00.0", "4045551234", "9110000", "0")
	s := startLine("4045551234", "911")

	got := apply(t, Config{Type: cdr.Attempt, Emergency: "911"}, a, b)
	if len(got) != 1 || got[0] != a {
		t.Errorf("911: got %v, want exact-match record only", got)
	}

	got = apply(t, Config{Type: cdr.Attempt, Emergency: "933"}, a, b)
	if len(got) != 0 {
		t.Errorf("933: got %v, want none", got)
	}

	// START records use their own called-party position.
	got = apply(t, Config{Emergency: "911"}, a, s)
	if len(got) != 2 {
		t.Errorf("mixed types: got %d, want 2", len(got))
	}
}

// Scenario C: exact numeric disconnect-reason match at the per-type
// position.
func TestDisconnectReasonFilter(t *testing.T) {
	rec := stopLine("TG1", "10:00:00.0", "404555", "770555", "41")

	got := apply(t, Config{Type: cdr.Stop, DisconnectReason: 41}, rec)
	if len(got) != 1 {
		t.Errorf("dr=41: got %v, want kept", got)
	}

	got = apply(t, Config{Type: cdr.Stop, DisconnectReason: 17}, rec)
	if len(got) != 0 {
		t.Errorf("dr=17: got %v, want dropped", got)
	}

	// 41 in the ATTEMPT position must not match a STOP's field 12.
	att := attemptLine("TG1", "10:00:00.0", "404555", "770555", "41")
	got = apply(t, Config{DisconnectReason: 41}, att, rec)
	if len(got) != 2 {
		t.Errorf("per-type positions: got %d, want 2", len(got))
	}
}

// Scenario A: three ATTEMPTs with the same fingerprint collapse to the
// first.
func TestDedupScenario(t *testing.T) {
	first := attemptLine("TG1", "10:05:01.0", "404555", "770555", "41")
	second := attemptLine("TG1", "10:05:09.5", "404555", "770555", "38")
	third := attemptLine("TG1", "10:05:59.9", "404555", "770555", "41")

	got := apply(t, Config{Type: cdr.Attempt, Dedup: true}, first, second, third)
	if len(got) != 1 || got[0] != first {
		t.Errorf("got %v, want only the first attempt", got)
	}
}

func TestDedupPreservesOrderAndPassesOthers(t *testing.T) {
	a1 := attemptLine("TG1", "10:05:01.0", "404555", "770555", "41")
	s := stopLine("TG1", "10:05:02.0", "404555", "770555", "16")
	b := attemptLine("TG2", "10:05:03.0", "404555", "770555", "41")
	a2 := attemptLine("TG1", "10:05:04.0", "404555", "770555", "41")
	s2 := stopLine("TG1", "10:05:05.0", "404555", "770555", "16")

	got := apply(t, Config{Dedup: true}, a1, s, b, a2, s2)
	want := []string{a1, s, b, s2}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want survivors in input order with STOPs untouched", got)
	}
}

func TestDedupKeyMinutePrefix(t *testing.T) {
	// Same dialog one minute later is a fresh attempt.
	a := attemptLine("TG1", "10:05:59.9", "404555", "770555", "41")
	b := attemptLine("TG1", "10:06:00.1", "404555", "770555", "41")

	got := apply(t, Config{Dedup: true}, a, b)
	if len(got) != 2 {
		t.Errorf("got %d, want 2 (different minutes)", len(got))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"empty ok", Config{}, false},
		{"plain search ok", Config{Search: "x"}, false},
		{"unknown type", Config{Type: "RESTART"}, true},
		{"projection with report", Config{Fields: []int{1}, Report: ReportTotalCalls}, true},
		{"count without fields", Config{Count: true}, true},
		{"count with report", Config{Count: true, Fields: []int{1}, Report: ReportTimeDisposition}, true},
		{"dedup stop", Config{Dedup: true, Type: cdr.Stop}, true},
		{"dedup attempt ok", Config{Dedup: true, Type: cdr.Attempt}, false},
		{"calling and called", Config{Search: "x", Type: cdr.Stop, CallingSearch: true, CalledSearch: true}, true},
		{"calling without pattern", Config{Type: cdr.Stop, CallingSearch: true}, true},
		{"calling with start type", Config{Search: "x", Type: cdr.Start, CallingSearch: true}, true},
		{"calling without type", Config{Search: "x", CallingSearch: true}, true},
		{"comma OR with field search", Config{Search: "a,b", Type: cdr.Stop, CalledSearch: true}, true},
		{"bad emergency", Config{Emergency: "999"}, true},
		{"good emergency", Config{Emergency: "933"}, false},
		{"dr with start", Config{DisconnectReason: 41, Type: cdr.Start}, true},
		{"time report with start", Config{Report: ReportTimeDisposition, Type: cdr.Start}, true},
		{"time report with stop ok", Config{Report: ReportTimeDisposition, Type: cdr.Stop}, false},
		{"zero projection field", Config{Fields: []int{0}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChainRejectsBadPattern(t *testing.T) {
	_, err := Config{Search: "[unclosed"}.Chain()
	if err == nil {
		t.Fatal("expected compile error for bad pattern")
	}
}
