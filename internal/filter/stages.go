package filter

import (
	"iter"
	"regexp"
	"strconv"
	"strings"

	"cdrq/internal/cdr"
	"cdrq/internal/errs"
)

// Stage is one streaming transform. Stages never reorder lines and
// hold at most one record in memory.
type Stage func(iter.Seq[string]) iter.Seq[string]

// Chain builds the configured stage list in pipeline order. Patterns
// are compiled here, once, so a bad pattern fails before any file is
// read.
func (c Config) Chain() ([]Stage, error) {
	stages := []Stage{typeStage(c.Type)}

	if c.Search != "" {
		re, err := compilePattern(c.Search)
		if err != nil {
			return nil, err
		}
		switch {
		case c.CallingSearch:
			stages = append(stages, fieldMatchStage(re, c.Type.CallingField()))
		case c.CalledSearch:
			stages = append(stages, fieldMatchStage(re, c.Type.CalledField()))
		default:
			stages = append(stages, keepStage(re))
		}
	}
	if c.AddSearch != "" {
		re, err := compilePattern(c.AddSearch)
		if err != nil {
			return nil, err
		}
		stages = append(stages, keepStage(re))
	}
	if c.Exclude != "" {
		re, err := compilePattern(c.Exclude)
		if err != nil {
			return nil, err
		}
		stages = append(stages, dropStage(re))
	}
	if c.Emergency != "" {
		stages = append(stages, emergencyStage(c.Emergency))
	}
	if c.DisconnectReason != 0 {
		stages = append(stages, disconnectStage(c.DisconnectReason))
	}
	if c.Dedup {
		stages = append(stages, DedupStage(c.MinutePrefix))
	}
	return stages, nil
}

// Apply runs the full chain over lines.
func (c Config) Apply(lines iter.Seq[string]) (iter.Seq[string], error) {
	stages, err := c.Chain()
	if err != nil {
		return nil, err
	}
	for _, s := range stages {
		lines = s(lines)
	}
	return lines, nil
}

// Dial strings legitimately contain characters that are also regex
// operators. Escape the ones with no plausible pattern use in this
// domain so a search for *67 or +14045551212 matches literally.
var dialEscaper = strings.NewReplacer("*", `\*`, "+", `\+`)

// compilePattern sanitizes one user-supplied search value and compiles
// it case-insensitively. Comma-separated values become an OR of
// alternatives.
func compilePattern(pattern string) (*regexp.Regexp, error) {
	parts := strings.Split(pattern, ",")
	for i, p := range parts {
		parts[i] = dialEscaper.Replace(p)
	}
	expr := "(?i)(" + strings.Join(parts, "|") + ")"
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errs.Config("bad search pattern %q: %v", pattern, err)
	}
	return re, nil
}

// typeStage keeps the configured record type, or any known type when
// unset. Always present: it also discards non-CDR noise lines.
func typeStage(t cdr.Type) Stage {
	return filterStage(func(line string) bool {
		rt := cdr.TypeOf(line)
		if rt == "" {
			return false
		}
		return t == "" || rt == t
	})
}

func keepStage(re *regexp.Regexp) Stage {
	return filterStage(re.MatchString)
}

func dropStage(re *regexp.Regexp) Stage {
	return filterStage(func(line string) bool { return !re.MatchString(line) })
}

func fieldMatchStage(re *regexp.Regexp, field int) Stage {
	return filterStage(func(line string) bool {
		return re.MatchString(cdr.Field(line, field))
	})
}

// emergencyStage exact-matches the called-party field against the
// configured emergency code. Field position follows the record's own
// type.
func emergencyStage(code string) Stage {
	return filterStage(func(line string) bool {
		f := cdr.TypeOf(line).CalledField()
		return f > 0 && cdr.Field(line, f) == code
	})
}

// disconnectStage exact-matches the numeric disconnect reason. START
// records have no such field and never match.
func disconnectStage(reason int) Stage {
	want := strconv.Itoa(reason)
	return filterStage(func(line string) bool {
		f := cdr.TypeOf(line).DisconnectField()
		return f > 0 && cdr.Field(line, f) == want
	})
}

func filterStage(keep func(string) bool) Stage {
	return func(lines iter.Seq[string]) iter.Seq[string] {
		return func(yield func(string) bool) {
			for line := range lines {
				if !keep(line) {
					continue
				}
				if !yield(line) {
					return
				}
			}
		}
	}
}
