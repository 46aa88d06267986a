package report

import "iter"

// Head passes through the first n lines, then stops pulling upstream
// so the reader never opens files past what is needed.
func Head(lines iter.Seq[string], n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if n <= 0 {
			return
		}
		count := 0
		for line := range lines {
			if !yield(line) {
				return
			}
			count++
			if count >= n {
				return
			}
		}
	}
}

// Tail keeps the last n lines. The whole stream must be consumed, but
// only n lines are held at once.
func Tail(lines iter.Seq[string], n int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if n <= 0 {
			return
		}
		ring := make([]string, n)
		total := 0
		for line := range lines {
			ring[total%n] = line
			total++
		}
		if total < n {
			n = total
		}
		for i := total - n; i < total; i++ {
			if !yield(ring[i%len(ring)]) {
				return
			}
		}
	}
}
