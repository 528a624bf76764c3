package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/parser"
	"github.com/lineCode/floyd/internal/semantic"
)

func generate(t *testing.T, src string) *Program {
	t.Helper()
	file, err := parser.ParseFile(src, "test.floyd")
	require.NoError(t, err)
	res, err := semantic.NewWithHost(host.NewTable()).Analyze(file)
	require.NoError(t, err)
	prog, err := Generate(res)
	require.NoError(t, err)
	return prog
}

func TestGenerate_FuncDefProducesFrameAndInstructions(t *testing.T) {
	prog := generate(t, `
		int add(int a, int b) { return a + b; }
	`)
	fd, ok := prog.FuncByName("add")
	require.True(t, ok)
	assert.NotEmpty(t, fd.Instructions)
	// back-pointer slot + two args + return temp, at minimum.
	assert.GreaterOrEqual(t, fd.FrameSize, 4)
	last := fd.Instructions[len(fd.Instructions)-1]
	assert.Equal(t, OpReturn, last.Op)
}

func TestGenerate_IfLowersToBranchZeroAndJump(t *testing.T) {
	prog := generate(t, `
		int pick(bool flag) {
			if (flag) {
				return 1;
			} else {
				return 2;
			}
		}
	`)
	fd, ok := prog.FuncByName("pick")
	require.True(t, ok)
	var sawBranch, sawJump bool
	for _, instr := range fd.Instructions {
		switch instr.Op {
		case OpBranchZero:
			sawBranch = true
		case OpJump:
			sawJump = true
		}
	}
	assert.True(t, sawBranch, "if should lower to a branch_zero")
	assert.True(t, sawJump, "if/else should lower to a jump over the else branch")
}

func TestGenerate_WhileLowersToBackwardJump(t *testing.T) {
	prog := generate(t, `
		int countdown(int n) {
			mutable int i = n;
			while (i > 0) {
				i = i - 1;
			}
			return i;
		}
	`)
	fd, ok := prog.FuncByName("countdown")
	require.True(t, ok)
	var foundBackwardJump bool
	for idx, instr := range fd.Instructions {
		if instr.Op == OpJump && int(instr.Reg1.Index) < 0 {
			_ = idx
			foundBackwardJump = true
		}
	}
	assert.True(t, foundBackwardJump, "while's back-edge should be a negative-offset jump")
}

func TestGenerate_StructConstructionEmitsConstructValue(t *testing.T) {
	prog := generate(t, `
		struct pixel { string s; }
		string main(){ pixel p = pixel("hi"); return p.s; }
	`)
	fd, ok := prog.FuncByName("main")
	require.True(t, ok)
	var sawConstruct, sawMember bool
	for _, instr := range fd.Instructions {
		switch instr.Op {
		case OpConstructValue:
			sawConstruct = true
		case OpResolveMember:
			sawMember = true
		}
	}
	assert.True(t, sawConstruct)
	assert.True(t, sawMember)
}

func TestGenerate_HostCallDoublesPushForDynamicArg(t *testing.T) {
	prog := generate(t, `
		int main(){ return size("abc"); }
	`)
	fd, ok := prog.FuncByName("main")
	require.True(t, ok)
	pushes := 0
	for _, instr := range fd.Instructions {
		if instr.Op == OpPush {
			pushes++
		}
	}
	// size(dynamic) takes one Floyd-level argument but the `dynamic`
	// parameter convention doubles it into a typeid push + value push.
	assert.Equal(t, 2, pushes)
}

func TestGenerate_GlobalsNamesResolveBindAndFunctionNames(t *testing.T) {
	prog := generate(t, `
		int counter = 41;
		int f() { return 1; }
	`)
	slot, ok := prog.Globals.Names["counter"]
	require.True(t, ok)
	assert.Greater(t, slot, 0)

	_, ok = prog.Globals.Names["f"]
	require.True(t, ok, "a function name should resolve as a global too")
}
