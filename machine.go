package genre

import "fmt"

type stack[T any] []T

func (s *stack[T]) push(v T) { *s = append(*s, v) }

func (s *stack[T]) pop() T {
	i := len(*s) - 1
	v := (*s)[i]
	*s = (*s)[:i]
	return v
}

const unset = -1

type machine[T any] struct {
	prog  []Inst[T]
	input []T

	// Capture table. Each slot holds the remaining input length at the
	// moment it was recorded, or unset.
	captures []int

	// For every split instruction, the remaining input length at which the
	// split is active on the current search path, or unset. Entering a split
	// again at the same length can't make progress, so that path fails.
	active []int

	// Backtracking stack of the iterative engine.
	frames stack[frame]
}

func newMachine[T any](p *Prog[T], input []T) *machine[T] {
	m := &machine[T]{
		prog:     p.Inst,
		input:    input,
		captures: make([]int, p.NumSlots),
		active:   make([]int, len(p.Inst)),
	}
	for i := range m.captures {
		m.captures[i] = unset
	}
	for i := range m.active {
		m.active[i] = unset
	}
	return m
}

// rest returns the input remaining when rem tokens are left.
func (m *machine[T]) rest(rem int) []T {
	return m.input[len(m.input)-rem:]
}

// recursive runs the depth-first search from pc with rem tokens left.
// Every write to captures or active is undone before a failure is reported
// to the caller, so sibling branches never observe each other's state.
func (m *machine[T]) recursive(pc, rem int) bool {
	inst := &m.prog[pc]
	switch inst.Op {
	case OpAny:
		if rem == 0 {
			return false
		}
		return m.recursive(pc+1, rem-1)
	case OpLiteral:
		if rem == 0 || !inst.Pred(m.rest(rem)[0]) {
			return false
		}
		return m.recursive(pc+1, rem-1)
	case OpSequence:
		if !inst.SeqPred(m.rest(rem)) {
			return false
		}
		return m.recursive(pc+1, 0)
	case OpMatch:
		return true
	case OpJump:
		return m.recursive(inst.X, rem)
	case OpSplit:
		old := m.active[pc]
		if old == rem {
			return false
		}
		m.active[pc] = rem
		if m.recursive(inst.X, rem) || m.recursive(inst.Y, rem) {
			return true
		}
		m.active[pc] = old
		return false
	case OpSave:
		old := m.captures[inst.X]
		m.captures[inst.X] = rem
		if m.recursive(pc+1, rem) {
			return true
		}
		m.captures[inst.X] = old
		return false
	}
	panic(fmt.Sprintf("genre: unknown opcode %v at %d", inst.Op, pc))
}

type frameKind uint8

const (
	// Resume the search at pc with rem tokens left.
	frameBranch frameKind = iota
	// Restore captures[slot] to old.
	frameCapture
	// Restore active[pc] to old.
	frameActive
)

type frame struct {
	kind frameKind
	pc   int
	rem  int
	slot int
	old  int
}

// iterative is the explicit-stack equivalent of recursive. A split pushes
// its second target and continues with the first; state changes push undo
// frames. On failure frames are popped, undoing state, until a branch frame
// is found, so alternatives are tried in exactly the same order.
func (m *machine[T]) iterative(pc, rem int) bool {
	m.frames = m.frames[:0]
	for {
		inst := &m.prog[pc]
		ok := true
		switch inst.Op {
		case OpAny:
			if rem == 0 {
				ok = false
				break
			}
			pc, rem = pc+1, rem-1
		case OpLiteral:
			if rem == 0 || !inst.Pred(m.rest(rem)[0]) {
				ok = false
				break
			}
			pc, rem = pc+1, rem-1
		case OpSequence:
			if !inst.SeqPred(m.rest(rem)) {
				ok = false
				break
			}
			pc, rem = pc+1, 0
		case OpMatch:
			return true
		case OpJump:
			pc = inst.X
		case OpSplit:
			if m.active[pc] == rem {
				ok = false
				break
			}
			m.frames.push(frame{kind: frameActive, pc: pc, old: m.active[pc]})
			m.active[pc] = rem
			m.frames.push(frame{kind: frameBranch, pc: inst.Y, rem: rem})
			pc = inst.X
		case OpSave:
			m.frames.push(frame{kind: frameCapture, slot: inst.X, old: m.captures[inst.X]})
			m.captures[inst.X] = rem
			pc++
		default:
			panic(fmt.Sprintf("genre: unknown opcode %v at %d", inst.Op, pc))
		}
		if ok {
			continue
		}
		var resumed bool
		pc, rem, resumed = m.backtrack()
		if !resumed {
			return false
		}
	}
}

// backtrack unwinds the stack to the most recent branch frame.
func (m *machine[T]) backtrack() (pc, rem int, ok bool) {
	for len(m.frames) > 0 {
		f := m.frames.pop()
		switch f.kind {
		case frameBranch:
			return f.pc, f.rem, true
		case frameCapture:
			m.captures[f.slot] = f.old
		case frameActive:
			m.active[f.pc] = f.old
		}
	}
	return 0, 0, false
}

// run searches from the start of the program with the input from pos on
// remaining and reports whether an accepting path exists.
func (m *machine[T]) run(flags Flag, pos int) bool {
	rem := len(m.input) - pos
	if flags&FlagExplicitStack != 0 {
		return m.iterative(0, rem)
	}
	return m.recursive(0, rem)
}

// groups converts the capture table of a successful search into token
// index ranges, one per group up to the highest recorded slot. A group
// whose slots were both left unset did not take part in the match and is
// reported as {-1, -1}; a group with only one of its slots set means the
// program or the machine is broken.
func (m *machine[T]) groups() []Range {
	maxSlot := unset
	for i, v := range m.captures {
		if v != unset {
			maxSlot = i
		}
	}
	if maxSlot == unset {
		panic("genre: malformed capture table: successful match recorded no groups")
	}
	total := len(m.input)
	res := make([]Range, maxSlot/2+1)
	for g := range res {
		start, end := m.captures[2*g], m.captures[2*g+1]
		switch {
		case start == unset && end == unset:
			res[g] = Range{Start: -1, End: -1}
		case start == unset || end == unset:
			panic(fmt.Sprintf("genre: malformed capture table: group %d has slot %d=%d, slot %d=%d", g, 2*g, start, 2*g+1, end))
		default:
			res[g] = Range{Start: total - start, End: total - end}
		}
	}
	return res
}
