package genre

import (
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

// Predicates are opaque; literals are told apart by their labels.
var exprCmp = cmp.Options{
	cmp.Comparer(func(a, b Predicate[rune]) bool { return (a == nil) == (b == nil) }),
	cmp.Comparer(func(a, b SeqPredicate[rune]) bool { return (a == nil) == (b == nil) }),
}

func TestParse(t *testing.T) {
	l := Is[rune]
	dot := NewDot[rune]()
	star := func(e Expr[rune]) Expr[rune] { return NewStar(e, true) }
	tests := []struct {
		pattern string
		want    Expr[rune]
	}{
		{"a", l('a')},
		{"a(b)", NewCat(l('a'), NewParen(l('b'), 1))},
		{"(ab*)", NewParen(NewCat(l('a'), star(l('b'))), 1)},
		{"(ab*)*", star(NewParen(NewCat(l('a'), star(l('b'))), 1))},
		{"(a(b))", NewParen(NewCat(l('a'), NewParen(l('b'), 2)), 1)},
		{"(a)(b)", NewCat(NewParen(l('a'), 1), NewParen(l('b'), 2))},
		{"abc", Concat(l('a'), l('b'), l('c'))},
		{"(..)*(...)*", NewCat(
			star(NewParen(NewCat(dot, dot), 1)),
			star(NewParen(Concat(dot, dot, dot), 2)),
		)},
		{"ab|c", NewAlt(NewCat(l('a'), l('b')), l('c'))},
		{"a|b|c", NewAlt(l('a'), NewAlt(l('b'), l('c')))},
		{"(aa|aaa)*|(a|aaaaa)", NewAlt(
			star(NewParen(NewAlt(Concat(l('a'), l('a')), Concat(l('a'), l('a'), l('a'))), 1)),
			NewParen(NewAlt(l('a'), Concat(l('a'), l('a'), l('a'), l('a'), l('a'))), 2),
		)},
		{"(a)|b(c)", NewAlt(NewParen(l('a'), 1), NewCat(l('b'), NewParen(l('c'), 2)))},
		{"ab**", star(NewCat(l('a'), star(l('b'))))},
		{"a+?", NewQuest(NewPlus(l('a'), true), true)},
		{"a?b+", NewCat(NewQuest(l('a'), true), NewPlus(l('b'), true))},
		{`a\*`, NewCat(l('a'), l('*'))},
		{`\(\|`, NewCat(l('('), l('|'))},
		{`(\))`, NewParen(l(')'), 1)},
		{`(a\(b)`, NewParen(Concat(l('a'), l('('), l('b')), 1)},
		{`\..`, NewCat(l('.'), dot)},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got, err := Parse(tt.pattern)
			assert.NilError(t, err)
			assert.DeepEqual(t, got, tt.want, exprCmp)
			assert.Equal(t, got.String(), tt.want.String())
		})
	}
}

func TestParseString(t *testing.T) {
	e, err := Parse("(a|b.)*?c+")
	assert.NilError(t, err)
	assert.Equal(t, e.String(), "cat(quest(star(paren(alt(lit(a), cat(lit(b), dot)), 1))), plus(lit(c)))")
	assert.Equal(t, NewStar(Is('x'), false).String(), "star?(lit(x))")
	assert.Equal(t, SequenceOf('h', 'i').String(), "seq(hi)")
	assert.Equal(t, NewLiteral(func(rune) bool { return true }).String(), "lit")
}

var errNotDigit = errors.New("not a digit")

func TestParseFunc(t *testing.T) {
	digit := func(r rune) (Expr[int], error) {
		n, err := strconv.Atoi(string(r))
		if err != nil {
			return nil, errNotDigit
		}
		return Is(n), nil
	}

	t.Run("Match", func(t *testing.T) {
		e, err := ParseFunc("1(2|3)+4", digit)
		assert.NilError(t, err)
		m := MustCompile(e, 0).FindMatch([]int{0, 1, 2, 3, 2, 4, 5})
		assert.DeepEqual(t, m.Ranges(), []Range{{1, 6}, {4, 5}})
	})
	t.Run("LiteralError", func(t *testing.T) {
		_, err := ParseFunc("12x", digit)
		var se SyntaxError
		assert.Assert(t, errors.As(err, &se))
		assert.Equal(t, se.Pos, 2)
		assert.ErrorIs(t, err, errNotDigit)
		assert.Error(t, err, "genre: invalid literal x at position 2: not a digit")
	})
	t.Run("EscapedLiteralError", func(t *testing.T) {
		_, err := ParseFunc(`1\x`, digit)
		var se SyntaxError
		assert.Assert(t, errors.As(err, &se))
		assert.Equal(t, se.Pos, 2)
	})
	t.Run("NilLiteral", func(t *testing.T) {
		_, err := ParseFunc("a", func(rune) (Expr[int], error) { return nil, nil })
		assert.Error(t, err, "genre: invalid literal a at position 0")
		assert.Assert(t, errors.Unwrap(err) == nil)
	})
}
