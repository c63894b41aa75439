package genre

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidExpr is wrapped by every error CompileProg and Compile report
// for a malformed expression tree.
var ErrInvalidExpr = errors.New("genre: invalid expression")

// Op is an instruction opcode.
type Op uint8

const (
	// Consume one token accepted by Inst.Pred.
	OpLiteral Op = iota
	// Consume any one token.
	OpAny
	// Consume the whole remaining input if Inst.SeqPred accepts it.
	OpSequence
	// Continue at Inst.X.
	OpJump
	// Try Inst.X, then Inst.Y.
	OpSplit
	// Record the remaining input length in capture slot Inst.X.
	OpSave
	// Report success.
	OpMatch
)

var opNames = [...]string{
	OpLiteral:  "lit",
	OpAny:      "any",
	OpSequence: "seq",
	OpJump:     "jmp",
	OpSplit:    "split",
	OpSave:     "save",
	OpMatch:    "match",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Inst is a single instruction of a compiled program.
type Inst[T any] struct {
	Op Op
	// X is the jump target, the first split target or the save slot.
	X int
	// Y is the second split target.
	Y       int
	Pred    Predicate[T]
	SeqPred SeqPredicate[T]
}

func (i Inst[T]) String() string {
	switch i.Op {
	case OpJump:
		return fmt.Sprintf("jmp %d", i.X)
	case OpSplit:
		return fmt.Sprintf("split %d, %d", i.X, i.Y)
	case OpSave:
		return fmt.Sprintf("save %d", i.X)
	default:
		return i.Op.String()
	}
}

// Prog is a compiled program. Instruction addresses are indices into Inst.
type Prog[T any] struct {
	Inst []Inst[T]
	// NumSlots is the size of the capture table: two slots per group,
	// up to the highest group index used.
	NumSlots int
}

func (p *Prog[T]) String() string {
	var b strings.Builder
	for pc, inst := range p.Inst {
		fmt.Fprintf(&b, "%3d  %s\n", pc, inst)
	}
	return b.String()
}

type compiler[T any] struct {
	prog     []Inst[T]
	maxGroup int
}

// Returns the position of inserted instruction
func (c *compiler[T]) emit(inst Inst[T]) int {
	pos := len(c.prog)
	c.prog = append(c.prog, inst)
	return pos
}

// Returns the position the next emitted instruction will get
func (c *compiler[T]) pc() int {
	return len(c.prog)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidExpr, fmt.Sprintf(format, args...))
}

func (c *compiler[T]) compile(e Expr[T]) error {
	switch e := e.(type) {
	case nil:
		return invalid("nil expression")
	case *Cat[T]:
		if err := c.compile(e.Left); err != nil {
			return err
		}
		return c.compile(e.Right)
	case *Dot[T]:
		c.emit(Inst[T]{Op: OpAny})
	case *Literal[T]:
		if e.Pred == nil {
			return invalid("literal without predicate")
		}
		c.emit(Inst[T]{Op: OpLiteral, Pred: e.Pred})
	case *Sequence[T]:
		if e.Pred == nil {
			return invalid("sequence without predicate")
		}
		c.emit(Inst[T]{Op: OpSequence, SeqPred: e.Pred})
	case *Star[T]:
		//  L0: split L1, L3
		//  L1: codes for sub
		//  L2: jmp L0
		//  L3:
		split := c.emit(Inst[T]{Op: OpSplit})
		if err := c.compile(e.Sub); err != nil {
			return err
		}
		jmp := c.emit(Inst[T]{Op: OpJump, X: split})
		c.patchSplit(split, split+1, jmp+1, e.Greedy)
	case *Plus[T]:
		//  L0: codes for sub
		//  L1: split L0, L2
		//  L2:
		body := c.pc()
		if err := c.compile(e.Sub); err != nil {
			return err
		}
		split := c.emit(Inst[T]{Op: OpSplit})
		c.patchSplit(split, body, split+1, e.Greedy)
	case *Quest[T]:
		//  L0: split L1, L2
		//  L1: codes for sub
		//  L2:
		split := c.emit(Inst[T]{Op: OpSplit})
		if err := c.compile(e.Sub); err != nil {
			return err
		}
		c.patchSplit(split, split+1, c.pc(), e.Greedy)
	case *Alt[T]:
		//  L0: split L1, L2
		//  L1: codes for left
		//      jmp L3
		//  L2: codes for right
		//  L3:
		split := c.emit(Inst[T]{Op: OpSplit})
		if err := c.compile(e.Left); err != nil {
			return err
		}
		jmp := c.emit(Inst[T]{Op: OpJump})
		right := c.pc()
		if err := c.compile(e.Right); err != nil {
			return err
		}
		c.prog[jmp].X = c.pc()
		c.prog[split].X, c.prog[split].Y = split+1, right
	case *And[T]:
		//  L0: split L1, L2
		//  L1: codes for left
		//  L2: codes for right
		split := c.emit(Inst[T]{Op: OpSplit})
		if err := c.compile(e.Left); err != nil {
			return err
		}
		right := c.pc()
		if err := c.compile(e.Right); err != nil {
			return err
		}
		c.prog[split].X, c.prog[split].Y = split+1, right
	case *Paren[T]:
		if e.N < 0 {
			return invalid("negative group index %d", e.N)
		}
		c.maxGroup = max(c.maxGroup, e.N)
		c.emit(Inst[T]{Op: OpSave, X: 2 * e.N})
		if err := c.compile(e.Sub); err != nil {
			return err
		}
		c.emit(Inst[T]{Op: OpSave, X: 2*e.N + 1})
	default:
		return invalid("unsupported node %T", e)
	}
	return nil
}

// patchSplit fills in the placeholder split at pos. The greedy order enters
// body first; the lazy order leaves first.
func (c *compiler[T]) patchSplit(pos, body, exit int, greedy bool) {
	if greedy {
		c.prog[pos].X, c.prog[pos].Y = body, exit
	} else {
		c.prog[pos].X, c.prog[pos].Y = exit, body
	}
}

// CompileProg lowers e into a program, exactly as given: no search prefix
// and no implicit group 0 are added. A trailing OpMatch is always appended.
func CompileProg[T any](e Expr[T]) (*Prog[T], error) {
	c := compiler[T]{}
	if err := c.compile(e); err != nil {
		return nil, err
	}
	c.emit(Inst[T]{Op: OpMatch})
	return &Prog[T]{
		Inst:     c.prog,
		NumSlots: 2 * (c.maxGroup + 1),
	}, nil
}

// wrap turns e into the expression a search actually runs: the match is
// reported as group 0 and, unless sticky, preceded by a lazy loop skipping
// any number of leading tokens, which yields the leftmost match.
func wrap[T any](e Expr[T], flags Flag) Expr[T] {
	r := NewParen(e, 0)
	if flags&FlagSticky != 0 {
		return r
	}
	return NewCat(NewStar(NewDot[T](), false), r)
}
