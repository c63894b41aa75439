package genre

import (
	"fmt"
	"slices"
	"strconv"
)

// Predicate reports whether a single token is accepted by a literal.
type Predicate[T any] func(T) bool

// SeqPredicate reports whether the whole remaining input is accepted.
type SeqPredicate[T any] func([]T) bool

// Expr is a node of an expression tree over tokens of type T.
//
// The set of implementations is closed: *Literal, *Dot, *Sequence, *Cat,
// *Alt, *And, *Star, *Plus, *Quest and *Paren. Trees are immutable once
// built and subtrees may be shared between several parents.
type Expr[T any] interface {
	fmt.Stringer
	expr(*T)
}

// Literal matches exactly one token accepted by Pred.
type Literal[T any] struct {
	Pred Predicate[T]
	// Label is only used by String.
	Label string
}

// Dot matches exactly one arbitrary token.
type Dot[T any] struct{}

// Sequence evaluates Pred against the entire remaining input and, if it
// holds, consumes all of it at once. It never consumes a part of the input.
type Sequence[T any] struct {
	Pred SeqPredicate[T]
	// Label is only used by String.
	Label string
}

// Cat matches Left followed by Right.
type Cat[T any] struct {
	Left, Right Expr[T]
}

// Alt tries Left and, if the search fails past it, Right.
type Alt[T any] struct {
	Left, Right Expr[T]
}

// And is a prioritized choice between "Left then Right" and "Right alone".
//
// Both alternatives start at the same input position. The first one runs
// Left and falls through into Right, exactly like Cat; if no overall match
// is found that way, the search backtracks and runs only Right. And is
// therefore not an intersection of Left and Right.
type And[T any] struct {
	Left, Right Expr[T]
}

// Star matches Sub zero or more times.
// Greedy prefers another iteration over leaving the loop.
type Star[T any] struct {
	Sub    Expr[T]
	Greedy bool
}

// Plus matches Sub one or more times.
type Plus[T any] struct {
	Sub    Expr[T]
	Greedy bool
}

// Quest matches Sub zero or one time.
type Quest[T any] struct {
	Sub    Expr[T]
	Greedy bool
}

// Paren captures the span matched by Sub as group N.
type Paren[T any] struct {
	Sub Expr[T]
	N   int
}

func (*Literal[T]) expr(*T)  {}
func (*Dot[T]) expr(*T)      {}
func (*Sequence[T]) expr(*T) {}
func (*Cat[T]) expr(*T)      {}
func (*Alt[T]) expr(*T)      {}
func (*And[T]) expr(*T)      {}
func (*Star[T]) expr(*T)     {}
func (*Plus[T]) expr(*T)     {}
func (*Quest[T]) expr(*T)    {}
func (*Paren[T]) expr(*T)    {}

// NewLiteral returns a literal matching one token accepted by pred.
func NewLiteral[T any](pred func(T) bool) Expr[T] {
	return &Literal[T]{Pred: pred}
}

// Is returns a literal matching one token equal to v.
func Is[T comparable](v T) Expr[T] {
	return &Literal[T]{
		Pred:  func(t T) bool { return t == v },
		Label: label(v),
	}
}

// NewDot returns an expression matching any single token.
func NewDot[T any]() Expr[T] {
	return &Dot[T]{}
}

// NewSequence returns a whole-remaining-input predicate.
func NewSequence[T any](pred func([]T) bool) Expr[T] {
	return &Sequence[T]{Pred: pred}
}

// SequenceOf returns a Sequence accepting the remaining input only if it is
// exactly vs.
func SequenceOf[T comparable](vs ...T) Expr[T] {
	want := slices.Clone(vs)
	l := ""
	for _, v := range want {
		l += label(v)
	}
	return &Sequence[T]{
		Pred:  func(rest []T) bool { return slices.Equal(rest, want) },
		Label: l,
	}
}

// NewCat returns an expression matching left followed by right.
func NewCat[T any](left, right Expr[T]) Expr[T] {
	return &Cat[T]{Left: left, Right: right}
}

// Concat folds one or more expressions left to right with Cat, so
// Concat(a, b, c) is Cat(Cat(a, b), c).
func Concat[T any](first Expr[T], rest ...Expr[T]) Expr[T] {
	e := first
	for _, r := range rest {
		e = &Cat[T]{Left: e, Right: r}
	}
	return e
}

// NewAlt returns an expression trying left first, then right.
func NewAlt[T any](left, right Expr[T]) Expr[T] {
	return &Alt[T]{Left: left, Right: right}
}

// NewAnd returns the prioritized choice described on [And]: left falling
// through into right, then right alone. It is not an intersection.
func NewAnd[T any](left, right Expr[T]) Expr[T] {
	return &And[T]{Left: left, Right: right}
}

// NewStar returns zero or more repetitions of sub.
func NewStar[T any](sub Expr[T], greedy bool) Expr[T] {
	return &Star[T]{Sub: sub, Greedy: greedy}
}

// NewPlus returns one or more repetitions of sub.
func NewPlus[T any](sub Expr[T], greedy bool) Expr[T] {
	return &Plus[T]{Sub: sub, Greedy: greedy}
}

// NewQuest returns zero or one occurrence of sub.
func NewQuest[T any](sub Expr[T], greedy bool) Expr[T] {
	return &Quest[T]{Sub: sub, Greedy: greedy}
}

// NewParen captures the span matched by sub as group n.
func NewParen[T any](sub Expr[T], n int) Expr[T] {
	return &Paren[T]{Sub: sub, N: n}
}

func label(v any) string {
	switch v := v.(type) {
	case rune:
		return string(v)
	case byte:
		return string(rune(v))
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (e *Literal[T]) String() string {
	if e.Label == "" {
		return "lit"
	}
	return "lit(" + e.Label + ")"
}

func (e *Dot[T]) String() string { return "dot" }

func (e *Sequence[T]) String() string {
	if e.Label == "" {
		return "seq"
	}
	return "seq(" + e.Label + ")"
}

func (e *Cat[T]) String() string { return binary("cat", e.Left, e.Right) }
func (e *Alt[T]) String() string { return binary("alt", e.Left, e.Right) }
func (e *And[T]) String() string { return binary("and", e.Left, e.Right) }

func (e *Star[T]) String() string  { return repeat("star", e.Sub, e.Greedy) }
func (e *Plus[T]) String() string  { return repeat("plus", e.Sub, e.Greedy) }
func (e *Quest[T]) String() string { return repeat("quest", e.Sub, e.Greedy) }

func (e *Paren[T]) String() string {
	return "paren(" + str(e.Sub) + ", " + strconv.Itoa(e.N) + ")"
}

func binary(op string, l, r fmt.Stringer) string {
	return op + "(" + str(l) + ", " + str(r) + ")"
}

// Lazy repetitions render with a trailing "?" on the operator name,
// mirroring the conventional lazy quantifier suffix.
func repeat(op string, sub fmt.Stringer, greedy bool) string {
	if !greedy {
		op += "?"
	}
	return op + "(" + str(sub) + ")"
}

func str(s fmt.Stringer) string {
	if s == nil {
		return "<nil>"
	}
	return s.String()
}
