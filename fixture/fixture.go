// Package fixture reads and writes conformance cases for textual patterns.
//
// The line format holds one case per line:
//
//	<index> <pattern> <input> <ranges>
//
// where <ranges> is a concatenation of "(start,end)" pairs, one per group in
// group order, or "-" when the pattern must not match. Fields are separated
// by whitespace, so patterns and inputs can't contain any. Blank lines and
// lines starting with "#" are ignored.
//
// YAML files hold a list of cases with the same fields and allow any input.
// The no-match marker has to be quoted there: ranges: "-".
package fixture

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"

	"github.com/auvred/genre"
)

var (
	ErrMalformedLine   = errors.New("malformed fixture line")
	ErrMalformedRanges = errors.New("malformed ranges")
)

const noMatch = "-"

// Case is a single conformance case.
type Case struct {
	Index   int
	Pattern string
	Input   string
	// Ranges is the expected result ordered by group number. Empty when
	// NoMatch is set.
	Ranges  []genre.Range
	NoMatch bool
}

func (c Case) String() string {
	return fmt.Sprintf("%d %s %s %s", c.Index, c.Pattern, c.Input, c.rangesField())
}

func (c Case) rangesField() string {
	if c.NoMatch {
		return noMatch
	}
	return FormatRanges(c.Ranges)
}

// ParseRanges parses a concatenation of "(start,end)" pairs.
func ParseRanges(s string) ([]genre.Range, error) {
	var res []genre.Range
	rest := s
	for rest != "" {
		if rest[0] != '(' {
			return nil, fmt.Errorf("%w: %q: expected ( at offset %d", ErrMalformedRanges, s, len(s)-len(rest))
		}
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			return nil, fmt.Errorf("%w: %q: missing )", ErrMalformedRanges, s)
		}
		start, stop, ok := strings.Cut(rest[1:end], ",")
		if !ok {
			return nil, fmt.Errorf("%w: %q: missing , in %s", ErrMalformedRanges, s, rest[:end+1])
		}
		var r genre.Range
		var err error
		if r.Start, err = strconv.Atoi(start); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedRanges, s, err)
		}
		if r.End, err = strconv.Atoi(stop); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedRanges, s, err)
		}
		res = append(res, r)
		rest = rest[end+1:]
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformedRanges)
	}
	return res, nil
}

// FormatRanges is the inverse of ParseRanges.
func FormatRanges(rs []genre.Range) string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(r.String())
	}
	return b.String()
}

// Parse reads cases in the line format.
func Parse(r io.Reader) ([]Case, error) {
	var cases []Case
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: %w: want 4 fields, got %d", line, ErrMalformedLine, len(fields))
		}
		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: bad index: %v", line, ErrMalformedLine, err)
		}
		c := Case{Index: idx, Pattern: fields[1], Input: fields[2]}
		if fields[3] == noMatch {
			c.NoMatch = true
		} else if c.Ranges, err = ParseRanges(fields[3]); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cases = append(cases, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return cases, nil
}

// Write writes cases in the line format. Cases whose pattern or input is
// empty or contains whitespace can't be represented and are rejected.
func Write(w io.Writer, cases []Case) error {
	bw := bufio.NewWriter(w)
	for _, c := range cases {
		for _, f := range []string{c.Pattern, c.Input} {
			if f == "" || strings.ContainsFunc(f, unicode.IsSpace) {
				return fmt.Errorf("case %d: %w: field %q is not representable", c.Index, ErrMalformedLine, f)
			}
		}
		if _, err := fmt.Fprintln(bw, c.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

type yamlCase struct {
	Index   int    `yaml:"index"`
	Pattern string `yaml:"pattern"`
	Input   string `yaml:"input"`
	Ranges  string `yaml:"ranges"`
}

// ParseYAML reads cases from a YAML list.
func ParseYAML(data []byte) ([]Case, error) {
	var raw []yamlCase
	if err := yaml.UnmarshalStrict(data, &raw); err != nil {
		return nil, err
	}
	cases := make([]Case, 0, len(raw))
	for i, rc := range raw {
		c := Case{Index: rc.Index, Pattern: rc.Pattern, Input: rc.Input}
		if rc.Ranges == noMatch {
			c.NoMatch = true
		} else {
			var err error
			if c.Ranges, err = ParseRanges(rc.Ranges); err != nil {
				return nil, fmt.Errorf("case #%d: %w", i, err)
			}
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// LoadFile reads a fixture file, choosing the format by extension.
func LoadFile(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []Case
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		cases, err = ParseYAML(data)
	default:
		cases, err = Parse(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Result is the outcome of running a case.
type Result struct {
	Case    Case
	Got     []genre.Range
	Matched bool
	// Err is set if the pattern could not be parsed or compiled.
	Err error
}

func (r Result) Passed() bool {
	if r.Err != nil {
		return false
	}
	if r.Case.NoMatch {
		return !r.Matched
	}
	return r.Matched && slices.Equal(r.Got, r.Case.Ranges)
}

// GotString renders the actual outcome in the fixture notation.
func (r Result) GotString() string {
	switch {
	case r.Err != nil:
		return "error"
	case !r.Matched:
		return noMatch
	default:
		return FormatRanges(r.Got)
	}
}

// Check parses, compiles and runs c.
func Check(c Case, flags genre.Flag) Result {
	res := Result{Case: c}
	e, err := genre.Parse(c.Pattern)
	if err != nil {
		res.Err = err
		return res
	}
	re, err := genre.Compile(e, flags)
	if err != nil {
		res.Err = err
		return res
	}
	if m := re.FindMatch([]rune(c.Input)); m != nil {
		res.Matched = true
		res.Got = m.Ranges()
	}
	return res
}

// CheckAll runs every case and returns the results in order.
func CheckAll(cases []Case, flags genre.Flag) []Result {
	res := make([]Result, len(cases))
	for i, c := range cases {
		res[i] = Check(c, flags)
	}
	return res
}
