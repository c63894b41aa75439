package alphabet

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/auvred/genre"
)

const logAlphabet = `
symbols:
  e: event.level == "error"
  w: event.level == "warn"
  i: event.level == "info"
  s: has(event.status) && event.status >= 500
  "*": event.level == "fatal"
`

const logEvents = `{"level": "info", "msg": "start"}
{"level": "warn", "msg": "slow"}

{"level": "warn", "msg": "slower", "status": 200}
{"level": "error", "msg": "down", "status": 503}
{"level": "info", "msg": "recovered"}
{"level": "fatal"}
`

func mustParse(t *testing.T) *Alphabet {
	t.Helper()
	a, err := Parse([]byte(logAlphabet))
	assert.NilError(t, err)
	return a
}

func TestParse(t *testing.T) {
	a := mustParse(t)
	assert.DeepEqual(t, a.Symbols(), []rune{'*', 'e', 'i', 's', 'w'})
	src, ok := a.Source('w')
	assert.Assert(t, ok)
	assert.Equal(t, src, `event.level == "warn"`)
	_, ok = a.Source('x')
	assert.Assert(t, !ok)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
		msg  string
	}{
		{"Empty", "symbols: {}", ErrNoSymbols, ""},
		{"MultiRune", "symbols:\n  ab: 'true'", ErrBadSymbol, `"ab"`},
		{"NotBoolean", "symbols:\n  a: 1 + 2", ErrNotBoolean, "int"},
		{"Syntax", "symbols:\n  a: event.level ==", nil, "CEL compilation error"},
		{"UnknownVariable", "symbols:\n  a: level == 'x'", nil, "undeclared reference"},
		{"UnknownField", "symbol:\n  a: 'true'", nil, "symbol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.Assert(t, err != nil)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}
			if tt.msg != "" {
				assert.ErrorContains(t, err, tt.msg)
			}
		})
	}
}

func TestEval(t *testing.T) {
	a := mustParse(t)

	ok, err := a.Eval('s', Event{"status": 503.0})
	assert.NilError(t, err)
	assert.Assert(t, ok)

	ok, err = a.Eval('s', Event{"level": "error"})
	assert.NilError(t, err)
	assert.Assert(t, !ok)

	// Missing keys are not an error for the matcher.
	ok, err = a.Eval('e', Event{"msg": "no level"})
	assert.NilError(t, err)
	assert.Assert(t, !ok)

	_, err = a.Eval('x', Event{})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestReadEvents(t *testing.T) {
	events, err := ReadEvents(strings.NewReader(logEvents))
	assert.NilError(t, err)
	assert.Equal(t, len(events), 6)
	assert.Equal(t, events[3]["status"], 503.0)

	_, err = ReadEvents(strings.NewReader("{}\n[1, 2]\n"))
	assert.ErrorContains(t, err, "line 2")
	_, err = ReadEvents(strings.NewReader("null\n"))
	assert.ErrorContains(t, err, "not a JSON object")
}

func TestCompile(t *testing.T) {
	a := mustParse(t)
	events, err := ReadEvents(strings.NewReader(logEvents))
	assert.NilError(t, err)

	tests := []struct {
		pattern string
		want    []genre.Range
	}{
		{"w+e", []genre.Range{{Start: 1, End: 4}}},
		{"(w+)(e|s)", []genre.Range{{Start: 1, End: 4}, {Start: 1, End: 3}, {Start: 3, End: 4}}},
		{"i.*?i", []genre.Range{{Start: 0, End: 5}}},
		{`s.\*`, []genre.Range{{Start: 3, End: 6}}},
		{"w(i|s)", []genre.Range{{Start: 2, End: 4}, {Start: 3, End: 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			for _, flags := range []genre.Flag{0, genre.FlagExplicitStack} {
				re, err := a.Compile(tt.pattern, flags)
				assert.NilError(t, err)
				m := re.FindMatch(events)
				assert.Assert(t, m != nil)
				assert.DeepEqual(t, m.Ranges(), tt.want)
			}
		})
	}

	t.Run("NoMatch", func(t *testing.T) {
		re, err := a.Compile("ee", 0)
		assert.NilError(t, err)
		assert.Assert(t, re.FindMatch(events) == nil)
	})
	t.Run("UnknownSymbol", func(t *testing.T) {
		_, err := a.Compile("wx", 0)
		var se genre.SyntaxError
		assert.Assert(t, errors.As(err, &se))
		assert.Equal(t, se.Pos, 1)
		assert.ErrorIs(t, err, ErrUnknownSymbol)
	})
}

func TestLoad(t *testing.T) {
	a, err := Load(filepath.Join("testdata", "http.yaml"))
	assert.NilError(t, err)
	assert.DeepEqual(t, a.Symbols(), []rune{'2', '4', '5'})

	_, err = Load(filepath.Join("testdata", "missing.yaml"))
	assert.Assert(t, err != nil)
}
