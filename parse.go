package genre

// Parse parses a pattern written in the conventional infix notation into an
// expression tree over runes. Every literal character matches the equal
// rune.
//
// The grammar consists of literal characters, "." (any token), the postfix
// quantifiers "*", "+" and "?" (always greedy), capturing groups "( )",
// alternation "|" and "\" escaping the next character. Groups are numbered
// from 1 in the order of their opening parentheses; group 0 is left for the
// whole match added by [Compile].
func Parse(pattern string) (Expr[rune], error) {
	return ParseFunc(pattern, func(r rune) (Expr[rune], error) {
		return Is(r), nil
	})
}

// ParseFunc is like [Parse] but builds a tree over any token type: every
// literal character of the pattern, escaped or not, is turned into an
// expression by lit. An error returned by lit is reported as a
// [SyntaxError] at the character's position and can be retrieved with
// errors.Unwrap.
func ParseFunc[T any](pattern string, lit func(r rune) (Expr[T], error)) (Expr[T], error) {
	p := parser[T]{
		pattern: []rune(pattern),
		lit:     lit,
		group:   1,
	}
	e, err := p.parse(0, len(p.pattern))
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, newSyntaxError(0, "empty pattern")
	}
	return e, nil
}

type parser[T any] struct {
	pattern []rune
	lit     func(r rune) (Expr[T], error)
	// Next group number. Shared by all nesting levels.
	group int
}

func isQuantifier(r rune) bool {
	return r == '*' || r == '+' || r == '?'
}

func quantify[T any](e Expr[T], q rune) Expr[T] {
	switch q {
	case '*':
		return NewStar(e, true)
	case '+':
		return NewPlus(e, true)
	default:
		return NewQuest(e, true)
	}
}

// parse parses pattern[lo:hi] and returns nil for an empty range.
//
// The tree built so far is kept in cur. Each new atom is concatenated onto
// it after looking one character ahead, so a quantifier binds to the atom
// and not to the whole concatenation. A quantifier that is not consumed by
// lookahead applies to cur as a whole.
func (p *parser[T]) parse(lo, hi int) (Expr[T], error) {
	var cur Expr[T]
	for i := lo; i < hi; i++ {
		var atom Expr[T]
		switch c := p.pattern[i]; c {
		case '*', '+', '?':
			if cur == nil {
				return nil, newSyntaxError(i, "missing argument to repetition operator")
			}
			cur = quantify(cur, c)
			continue
		case '|':
			if cur == nil {
				return nil, newSyntaxError(i, "missing left operand of alternation")
			}
			right, err := p.parse(i+1, hi)
			if err != nil {
				return nil, err
			}
			if right == nil {
				return nil, newSyntaxError(i, "missing right operand of alternation")
			}
			return NewAlt(cur, right), nil
		case '(':
			end, err := p.closing(i, hi)
			if err != nil {
				return nil, err
			}
			n := p.group
			p.group++
			sub, err := p.parse(i+1, end)
			if err != nil {
				return nil, err
			}
			if sub == nil {
				return nil, newSyntaxError(i, "empty group")
			}
			atom = NewParen(sub, n)
			i = end
		case ')':
			return nil, newSyntaxError(i, "unexpected )")
		case '.':
			atom = NewDot[T]()
		case '\\':
			if i+1 >= hi {
				return nil, newSyntaxError(i, "trailing backslash")
			}
			i++
			fallthrough
		default:
			var err error
			if atom, err = p.literal(i); err != nil {
				return nil, err
			}
		}
		if i+1 < hi && isQuantifier(p.pattern[i+1]) {
			i++
			atom = quantify(atom, p.pattern[i])
		}
		if cur == nil {
			cur = atom
		} else {
			cur = NewCat(cur, atom)
		}
	}
	return cur, nil
}

// closing returns the index of the parenthesis closing the one at open.
// Escaped characters are skipped while counting.
func (p *parser[T]) closing(open, hi int) (int, error) {
	depth := 0
	for i := open; i < hi; i++ {
		switch p.pattern[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, newSyntaxError(open, "missing closing )")
}

func (p *parser[T]) literal(i int) (Expr[T], error) {
	e, err := p.lit(p.pattern[i])
	if err != nil {
		return nil, SyntaxError{Pos: i, err: "invalid literal " + string(p.pattern[i]), cause: err}
	}
	if e == nil {
		return nil, SyntaxError{Pos: i, err: "invalid literal " + string(p.pattern[i])}
	}
	return e, nil
}
