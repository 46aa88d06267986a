package report

import (
	"iter"
	"sort"
	"strconv"

	"cdrq/internal/cdr"
)

// DefaultBucketPrefix truncates "HH:MM:SS.t" to "HH:M", a ten-minute
// time-of-day bucket.
const DefaultBucketPrefix = 4

// accumulator is an insertion-ordered group-by table, so counted output
// is reproducible: ties sort by first appearance.
type accumulator struct {
	counts map[string]int
	order  []string
}

func newAccumulator() *accumulator {
	return &accumulator{counts: make(map[string]int)}
}

func (a *accumulator) add(key string) {
	if _, ok := a.counts[key]; !ok {
		a.order = append(a.order, key)
	}
	a.counts[key]++
}

// rows emits (count, key) sorted by count descending, insertion-order
// tie-break.
func (a *accumulator) rows() []Row {
	rank := make(map[string]int, len(a.order))
	for i, k := range a.order {
		rank[k] = i
	}
	rows := make([]Row, 0, len(a.order))
	for _, k := range a.order {
		rows = append(rows, Row{Count: a.counts[k], Key: k})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rank[rows[i].Key] < rank[rows[j].Key]
	})
	return rows
}

// TotalCalls groups the stream by record type, trunk group and the
// truncated start time of day. With byReason set (a disconnect-reason
// filter is active) the reason joins the key, splitting each bucket by
// failure class.
func TotalCalls(lines iter.Seq[string], byReason bool, bucketPrefix int) []Row {
	if bucketPrefix <= 0 {
		bucketPrefix = DefaultBucketPrefix
	}
	acc := newAccumulator()
	for line := range lines {
		t := cdr.TypeOf(line)
		if t == "" {
			continue
		}
		key := string(t) + " " + cdr.Field(line, cdr.TrunkGroupField) + " " +
			truncate(cdr.Field(line, t.StartTimeField()), bucketPrefix)
		if byReason {
			key += " dr=" + cdr.Field(line, t.DisconnectField())
		}
		acc.add(key)
	}
	return acc.rows()
}

// TimeDisposition groups by the ten-minute time-of-day bucket and the
// disconnect reason. The field pair follows each record's own type;
// START records carry neither and are skipped.
func TimeDisposition(lines iter.Seq[string], bucketPrefix int) []Row {
	if bucketPrefix <= 0 {
		bucketPrefix = DefaultBucketPrefix
	}
	acc := newAccumulator()
	for line := range lines {
		t := cdr.TypeOf(line)
		if t.StartTimeField() == 0 || t.DisconnectField() == 0 {
			continue
		}
		acc.add(truncate(cdr.Field(line, t.StartTimeField()), bucketPrefix) +
			" dr=" + cdr.Field(line, t.DisconnectField()))
	}
	return acc.rows()
}

// Format renders a row the way the aggregated output stream prints it.
func (r Row) Format() string {
	return pad(strconv.Itoa(r.Count), 7) + " " + r.Key
}

func pad(s string, width int) string {
	for len(s) < width {
		s = " " + s
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
