// Package genre is a backtracking regular expression engine over arbitrary
// token types.
//
// Patterns are expression trees (see [Expr]) whose literals are predicates
// on a token type T, so the same engine matches runes, bytes, colors or
// structured events. Trees are built with the node constructors or parsed
// from the conventional infix notation with [Parse] and [ParseFunc].
package genre

import (
	"errors"
	"fmt"
)

// Flag is a bitmask of matching options.
// The zero value searches for the leftmost match with the recursive engine.
type Flag uint8

const (
	// Match only at the search position instead of scanning forward for
	// the leftmost match.
	FlagSticky Flag = 1 << iota

	// Run the search on an explicit backtracking stack instead of native
	// recursion. Results are identical; only the recursion depth differs.
	FlagExplicitStack
)

// ErrNoMatch is returned by [MatchExpr] and [MatchString] when no accepting
// path exists. It is an ordinary outcome, not a failure of the engine.
var ErrNoMatch = errors.New("genre: no match")

// SyntaxError describes a malformed textual pattern.
type SyntaxError struct {
	// Pos is the index, in runes, of the offending character.
	Pos int
	err string
	// Underlying error reported by a literal mapping function, if any.
	cause error
}

func (e SyntaxError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("genre: %s at position %d: %v", e.err, e.Pos, e.cause)
	}
	return fmt.Sprintf("genre: %s at position %d", e.err, e.Pos)
}

func (e SyntaxError) Unwrap() error {
	return e.cause
}

var _ error = (*SyntaxError)(nil)

func newSyntaxError(pos int, err string) SyntaxError {
	return SyntaxError{Pos: pos, err: err}
}

// Range is a half-open interval [Start, End) of token indices.
// A group that did not participate in a match has Start == End == -1.
type Range struct {
	Start int
	End   int
}

func (r Range) String() string {
	return fmt.Sprintf("(%d,%d)", r.Start, r.End)
}

// Regexp represents a compiled expression.
// It is safe for concurrent use by multiple goroutines.
// All methods on Regexp do not mutate internal state.
type Regexp[T any] struct {
	expr  Expr[T]
	prog  *Prog[T]
	flags Flag
}

// Compile wraps e for searching and lowers it into a program. The whole
// match is reported as group 0; groups of e keep their indices.
func Compile[T any](e Expr[T], flags Flag) (*Regexp[T], error) {
	prog, err := CompileProg(wrap(e, flags))
	if err != nil {
		return nil, err
	}
	return &Regexp[T]{expr: e, prog: prog, flags: flags}, nil
}

// MustCompile is like [Compile] but panics if the expression is invalid.
// It simplifies safe initialization of global variables holding compiled
// expressions.
func MustCompile[T any](e Expr[T], flags Flag) *Regexp[T] {
	re, err := Compile(e, flags)
	if err != nil {
		panic("genre: MustCompile: " + err.Error())
	}
	return re
}

// Expr returns the expression re was compiled from, without the search
// wrapper.
func (re *Regexp[T]) Expr() Expr[T] {
	return re.expr
}

// Prog returns the compiled program, including the search wrapper.
// The program must not be modified.
func (re *Regexp[T]) Prog() *Prog[T] {
	return re.prog
}

// Flags returns the flags re was compiled with.
func (re *Regexp[T]) Flags() Flag {
	return re.flags
}

// NumGroups returns the number of capture groups addressable in a match,
// group 0 included.
func (re *Regexp[T]) NumGroups() int {
	return re.prog.NumSlots / 2
}

// Group represents a single captured span of a match.
// It is safe for concurrent use by multiple goroutines.
type Group[T any] struct {
	src []T
	// Start is the inclusive start index of the captured span,
	// or -1 if the group did not participate in the match.
	Start int
	// End is the exclusive end index of the captured span,
	// or -1 if the group did not participate in the match.
	End int
}

// Data returns the captured tokens.
// If the group did not participate in the match (Start == -1), it returns nil.
func (g Group[T]) Data() []T {
	if g.Start == -1 {
		return nil
	}
	return g.src[g.Start:g.End]
}

// Match holds the result of a successful match.
// It is safe for concurrent use by multiple goroutines.
type Match[T any] struct {
	// Groups is the ordered list of captures, up to the highest group that
	// was recorded. Groups[0] is the whole match.
	Groups []Group[T]
}

// Ranges returns the spans of m.Groups.
func (m *Match[T]) Ranges() []Range {
	res := make([]Range, len(m.Groups))
	for i, g := range m.Groups {
		res[i] = Range{Start: g.Start, End: g.End}
	}
	return res
}

func findMatch[T any](re *Regexp[T], source []T, startPos int, advanceOnce bool) *Match[T] {
	if startPos < 0 || startPos > len(source) {
		return nil
	}
	if advanceOnce {
		if startPos == len(source) {
			return nil
		}
		startPos++
	}
	vm := newMachine(re.prog, source)
	if !vm.run(re.flags, startPos) {
		return nil
	}
	ranges := vm.groups()
	m := Match[T]{Groups: make([]Group[T], len(ranges))}
	for i, r := range ranges {
		m.Groups[i] = Group[T]{src: source, Start: r.Start, End: r.End}
	}
	return &m
}

// FindMatch applies re to input and returns the leftmost match.
// If no match is found, it returns nil.
func (re *Regexp[T]) FindMatch(input []T) *Match[T] {
	return findMatch(re, input, 0, false)
}

// FindMatchStartingAt applies re to input beginning the search at pos.
// It returns the first match found at or after pos; group indices remain
// relative to the start of input. If pos is out of range or no match is
// found, it returns nil.
//
// Sequence predicates observe the input from their own position to the
// end, never the tokens before pos.
func (re *Regexp[T]) FindMatchStartingAt(input []T, pos int) *Match[T] {
	return findMatch(re, input, pos, false)
}

// FindNextMatch searches for the next match of re in the same input as a
// previously returned match.
//
// The search begins at match.Groups[0].End. If the previous match was
// zero-length (Start == End), the search position is advanced by one token
// before matching again to avoid returning the same empty match repeatedly.
//
// If match is nil, or if no further match is found, FindNextMatch returns nil.
func (re *Regexp[T]) FindNextMatch(match *Match[T]) *Match[T] {
	if match == nil {
		return nil
	}
	g := match.Groups[0]
	return findMatch(re, g.src, g.End, g.Start == g.End)
}

// FindAllMatches returns successive non-overlapping matches of re in input,
// at most n of them. If n < 0, it returns all matches.
func (re *Regexp[T]) FindAllMatches(input []T, n int) []*Match[T] {
	if n == 0 {
		return nil
	}
	var res []*Match[T]
	for m := re.FindMatch(input); m != nil; m = re.FindNextMatch(m) {
		res = append(res, m)
		if len(res) == n {
			break
		}
	}
	return res
}

// MatchExpr compiles e and returns the capture ranges of its leftmost match in
// input, ordered by group number. Group 0 is the whole match.
//
// If no match exists, the error is [ErrNoMatch].
func MatchExpr[T any](e Expr[T], input []T) ([]Range, error) {
	re, err := Compile(e, 0)
	if err != nil {
		return nil, err
	}
	m := re.FindMatch(input)
	if m == nil {
		return nil, ErrNoMatch
	}
	return m.Ranges(), nil
}

// MatchString parses pattern with [Parse] and matches it against the runes
// of s. Ranges are rune indices.
func MatchString(pattern, s string) ([]Range, error) {
	e, err := Parse(pattern)
	if err != nil {
		return nil, err
	}
	return MatchExpr(e, []rune(s))
}
