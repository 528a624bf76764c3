package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/bytecode"
	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/parser"
	"github.com/lineCode/floyd/internal/semantic"
	"github.com/lineCode/floyd/internal/value"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	file, err := parser.ParseFile(src, "test.floyd")
	require.NoError(t, err)
	res, err := semantic.NewWithHost(host.NewTable()).Analyze(file)
	require.NoError(t, err)
	prog, err := bytecode.Generate(res)
	require.NoError(t, err)
	return prog
}

func newVM(t *testing.T, src string) *Interpreter {
	t.Helper()
	prog := compile(t, src)
	vm, err := New(prog, host.NewTable())
	require.NoError(t, err)
	return vm
}

func TestInterpreter_ArithmeticAndCall(t *testing.T) {
	vm := newVM(t, `
		int f(){ return 5; }
		int main(string a){ return f() + f()*2; }
	`)
	result, err := vm.CallFunction("main", []value.Value{value.Str("x")})
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.I)
}

func TestInterpreter_DivideByZeroIsRuntimeError(t *testing.T) {
	vm := newVM(t, `int main(){ return 2/0; }`)
	_, err := vm.CallFunction("main", nil)
	require.Error(t, err)
	rerr, ok := AsRuntimeError(err)
	require.True(t, ok)
	assert.Equal(t, DivideByZero, rerr.Kind)
	assert.GreaterOrEqual(t, rerr.Instr, 0, "a fault raised by an opcode carries its instruction index")
}

func TestInterpreter_VectorLookupOutOfBounds(t *testing.T) {
	vm := newVM(t, `
		int main(){
			[int] v = [1, 2, 3];
			return v[10];
		}
	`)
	_, err := vm.CallFunction("main", nil)
	require.Error(t, err)
	rerr, ok := AsRuntimeError(err)
	require.True(t, ok)
	assert.Equal(t, LookupOutOfBounds, rerr.Kind)
}

func TestInterpreter_HostSizeDoublesDynamicArgOnTheStack(t *testing.T) {
	// size's sole parameter is `dynamic`: the generator pushes a
	// typeid slot ahead of the value slot, and the VM must strip it back
	// off before size ever sees its argument.
	vm := newVM(t, `int main(){ return size("hello"); }`)
	result, err := vm.CallFunction("main", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.I)
}

func TestInterpreter_PrintOutputCapturesHostCall(t *testing.T) {
	vm := newVM(t, `
		void main(){
			print("hello");
		}
	`)
	_, err := vm.CallFunction("main", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, vm.PrintOutput())
}

func TestInterpreter_GlobalsRunOnce(t *testing.T) {
	vm := newVM(t, `int counter = 41;`)
	v, ok := vm.FindGlobal("counter")
	require.True(t, ok)
	assert.Equal(t, int64(41), v.I)

	_, ok = vm.FindGlobal("nope")
	assert.False(t, ok)
}

func TestInterpreter_FrameTeardownReleasesExtSlots(t *testing.T) {
	vm := newVM(t, `
		string id(string s){ return s; }
		string main(){ return id("hi"); }
	`)
	before := len(vm.stack)
	result, err := vm.CallFunction("main", nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Ext.Str)
	assert.Len(t, vm.stack, before, "every opened frame must be torn down after the call returns")
}

func TestInterpreter_PrimitiveConstructionCoercions(t *testing.T) {
	vm := newVM(t, `
		string fmt(int n){ return string(n); }
		int trunc(float f){ return int(f); }
		int main(){
			string s = fmt(42);
			return trunc(3.9) + size(s);
		}
	`)
	result, err := vm.CallFunction("main", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.I)
}

func TestInterpreter_JSONStringCoercionIsClosed(t *testing.T) {
	// json_value -> string only unwraps a JSON string scalar; an object
	// is a runtime json_type_mismatch, not a serialization.
	vm := newVM(t, `
		string main(){
			json_value j = json_value("{\"a\":1}");
			return string(j);
		}
	`)
	_, err := vm.CallFunction("main", nil)
	require.Error(t, err)
	rerr, ok := AsRuntimeError(err)
	require.True(t, ok)
	assert.Equal(t, JSONTypeMismatch, rerr.Kind)
}

func TestInterpreter_VectorConcatenation(t *testing.T) {
	vm := newVM(t, `
		int main(){
			[int] v = [1, 2] + [30];
			return v[2] + size(v);
		}
	`)
	result, err := vm.CallFunction("main", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(33), result.I)
}

func TestInterpreter_ReentrancyRejected(t *testing.T) {
	vm := newVM(t, `int main(){ return 1; }`)
	require.NoError(t, vm.acquire())
	defer vm.release()
	_, err := vm.CallFunction("main", nil)
	assert.ErrorIs(t, err, ErrReentrantCall)
}
