package genre

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

func TestEnginesAgree(t *testing.T) {
	patterns := []string{
		"a*", "a+b", "(a|ab)(c|bcd)(d*)", "(aa|aaa)*|(a|aaaaa)", "(..)*(...)*",
		"(a*)*", "(a*)+b", "((a)|b)+", "(a)|(b)", "ab**", "(.)(.)?(.)", "a.?c|b",
	}
	inputs := []string{"", "a", "ab", "abcd", "aaaaa", "bab", "xabcabcdb", "aaab"}
	for _, pattern := range patterns {
		e, err := Parse(pattern)
		assert.NilError(t, err)
		for _, sticky := range []Flag{0, FlagSticky} {
			rec := MustCompile(e, sticky)
			stk := MustCompile(e, sticky|FlagExplicitStack)
			for _, input := range inputs {
				want := rec.FindAllMatches([]rune(input), -1)
				got := stk.FindAllMatches([]rune(input), -1)
				assert.Equal(t, len(got), len(want), "%s on %q", pattern, input)
				for i := range want {
					assert.DeepEqual(t, got[i].Ranges(), want[i].Ranges())
				}
			}
		}
	}
}

func TestEmptyLoopGuard(t *testing.T) {
	for _, e := range engines {
		t.Run(e.name, func(t *testing.T) {
			nested := NewParen(NewStar(NewStar(NewDot[rune](), true), true), 1)
			m := MustCompile(nested, e.flag).FindMatch([]rune("abc"))
			assert.DeepEqual(t, m.Ranges(), []Range{{0, 3}, {0, 3}})

			optional := NewStar(NewQuest(Is('a'), true), true)
			m = MustCompile(optional, e.flag).FindMatch([]rune("aaab"))
			assert.DeepEqual(t, m.Ranges(), []Range{{0, 3}})

			lazy := NewCat(NewStar(NewStar(Is('a'), false), false), Is('b'))
			m = MustCompile(lazy, e.flag).FindMatch([]rune("aab"))
			assert.DeepEqual(t, m.Ranges(), []Range{{0, 3}})

			m = MustCompile(NewStar(NewStar(Is('x'), true), true), e.flag).FindMatch([]rune("ab"))
			assert.DeepEqual(t, m.Ranges(), []Range{{0, 0}})
		})
	}
}

func TestExplicitStackDeepInput(t *testing.T) {
	input := []rune(strings.Repeat("ab", 50000) + "c")
	e := NewParen(NewPlus(NewCat(Is('a'), Is('b')), true), 1)
	re := MustCompile(NewCat(e, Is('c')), FlagExplicitStack)
	m := re.FindMatch(input)
	assert.DeepEqual(t, m.Ranges(), []Range{{0, 100001}, {0, 100000}})
}

func TestStateRestoredOnBacktrack(t *testing.T) {
	// The first alternative records group 1 and then fails; the winning
	// path must not see that record.
	e := NewAlt(NewCat(NewParen(Is('a'), 1), Is('x')), NewCat(Is('a'), NewParen(Is('b'), 2)))
	for _, eng := range engines {
		m := MustCompile(e, eng.flag).FindMatch([]rune("ab"))
		assert.DeepEqual(t, m.Ranges(), []Range{{0, 2}, {-1, -1}, {1, 2}})
	}
}

func TestCaptureExtraction(t *testing.T) {
	run := func(insts []Inst[rune], slots int, input string) *machine[rune] {
		vm := newMachine(&Prog[rune]{Inst: insts, NumSlots: slots}, []rune(input))
		assert.Assert(t, vm.run(FlagSticky, 0))
		return vm
	}
	shouldPanic := func(t *testing.T, msg string, cb func()) {
		t.Helper()
		defer func() {
			r := recover()
			assert.Assert(t, r != nil, "did not panic")
			assert.Assert(t, strings.Contains(r.(string), msg), "%v", r)
		}()
		cb()
	}

	t.Run("Trimmed", func(t *testing.T) {
		vm := run([]Inst[rune]{
			{Op: OpSave, X: 0},
			{Op: OpAny},
			{Op: OpSave, X: 1},
			{Op: OpMatch},
		}, 6, "ab")
		assert.Assert(t, cmp.Equal(vm.groups(), []Range{{0, 1}}))
	})
	t.Run("UnpairedSlot", func(t *testing.T) {
		vm := run([]Inst[rune]{
			{Op: OpSave, X: 0},
			{Op: OpSave, X: 1},
			{Op: OpSave, X: 2},
			{Op: OpMatch},
		}, 4, "a")
		shouldPanic(t, "group 1 has slot 2=1, slot 3=-1", func() { vm.groups() })
	})
	t.Run("NoGroups", func(t *testing.T) {
		vm := run([]Inst[rune]{{Op: OpMatch}}, 2, "a")
		shouldPanic(t, "recorded no groups", func() { vm.groups() })
	})
}

func TestUnknownOpcode(t *testing.T) {
	for _, e := range engines {
		t.Run(e.name, func(t *testing.T) {
			defer func() {
				assert.Assert(t, recover() != nil)
			}()
			vm := newMachine(&Prog[rune]{Inst: []Inst[rune]{{Op: Op(99)}}, NumSlots: 2}, nil)
			vm.run(e.flag, 0)
		})
	}
}
