// Package alphabet lets textual patterns match streams of structured events.
//
// An alphabet assigns a CEL expression to each symbol character. When a
// pattern is parsed against the alphabet, every literal character becomes a
// predicate that evaluates its expression with the current event bound to
// the variable "event":
//
//	symbols:
//	  e: event.level == "error"
//	  w: event.level == "warn"
//	  s: has(event.status) && event.status >= 500
//
// With this alphabet the pattern "w+e" finds a run of warnings followed by
// an error. The pattern operators keep their meaning; escape an operator
// character to use it as a symbol.
package alphabet

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"unicode/utf8"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v2"

	"github.com/auvred/genre"
)

var (
	ErrUnknownSymbol = errors.New("unknown symbol")
	ErrBadSymbol     = errors.New("symbol must be a single character")
	ErrNotBoolean    = errors.New("expression is not boolean")
	ErrNoSymbols     = errors.New("alphabet defines no symbols")
)

// Event is a single decoded JSON object.
type Event = map[string]any

const eventVar = "event"

// Alphabet maps symbol characters to compiled event predicates.
// It is safe for concurrent use.
type Alphabet struct {
	env     *cel.Env
	sources map[rune]string
	progs   map[rune]cel.Program
}

type file struct {
	Symbols map[string]string `yaml:"symbols"`
}

// Load reads an alphabet from a YAML file.
func Load(path string) (*Alphabet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Parse reads an alphabet from YAML and compiles its expressions.
func Parse(data []byte) (*Alphabet, error) {
	var f file
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, err
	}
	return New(f.Symbols)
}

// New compiles an alphabet from symbol to expression pairs.
func New(symbols map[string]string) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, ErrNoSymbols
	}
	env, err := cel.NewEnv(
		cel.Variable(eventVar, cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("creating CEL environment: %w", err)
	}
	a := &Alphabet{
		env:     env,
		sources: make(map[rune]string, len(symbols)),
		progs:   make(map[rune]cel.Program, len(symbols)),
	}
	for _, key := range slices.Sorted(maps.Keys(symbols)) {
		r, size := utf8.DecodeRuneInString(key)
		if r == utf8.RuneError || size != len(key) {
			return nil, fmt.Errorf("%w: %q", ErrBadSymbol, key)
		}
		prog, err := a.compile(symbols[key])
		if err != nil {
			return nil, fmt.Errorf("symbol %q: %w", key, err)
		}
		a.sources[r] = symbols[key]
		a.progs[r] = prog
	}
	return a, nil
}

func (a *Alphabet) compile(expr string) (cel.Program, error) {
	ast, issues := a.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %s", ErrNotBoolean, t)
	}
	return a.env.Program(ast)
}

// Symbols returns the defined symbols in ascending order.
func (a *Alphabet) Symbols() []rune {
	return slices.Sorted(maps.Keys(a.progs))
}

// Source returns the expression text of symbol r.
func (a *Alphabet) Source(r rune) (string, bool) {
	s, ok := a.sources[r]
	return s, ok
}

// Eval reports whether ev satisfies the expression of symbol r. Evaluation
// errors, such as a missing key, and non-boolean results count as false.
func (a *Alphabet) Eval(r rune, ev Event) (bool, error) {
	prog, ok := a.progs[r]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	out, _, err := prog.Eval(map[string]any{eventVar: ev})
	if err != nil {
		return false, nil
	}
	b, _ := out.Value().(bool)
	return b, nil
}

// Literal returns the expression matching one event that satisfies symbol
// r. It has the signature genre.ParseFunc expects.
func (a *Alphabet) Literal(r rune) (genre.Expr[Event], error) {
	if _, ok := a.progs[r]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, r)
	}
	return &genre.Literal[Event]{
		Pred: func(ev Event) bool {
			ok, _ := a.Eval(r, ev)
			return ok
		},
		Label: string(r),
	}, nil
}

// ParsePattern parses a textual pattern over the alphabet's symbols.
func (a *Alphabet) ParsePattern(pattern string) (genre.Expr[Event], error) {
	return genre.ParseFunc(pattern, a.Literal)
}

// Compile parses pattern over the alphabet's symbols and compiles it.
func (a *Alphabet) Compile(pattern string, flags genre.Flag) (*genre.Regexp[Event], error) {
	e, err := a.ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	return genre.Compile(e, flags)
}

const maxEventSize = 1 << 20

// ReadEvents decodes one JSON object per line. Blank lines are skipped.
func ReadEvents(r io.Reader) ([]Event, error) {
	var events []Event
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	line := 0
	for sc.Scan() {
		line++
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if ev == nil {
			return nil, fmt.Errorf("line %d: not a JSON object", line)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
