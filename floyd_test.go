package floyd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd"
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/vm"
)

// runMain is a small helper mirroring the embedder's run_main entry
// point for the end-to-end scenarios below.
func runMain(t *testing.T, source string, args []string) (interface{}, error) {
	t.Helper()
	_, result, err := floyd.RunMain(source, "test.floyd", args)
	if err != nil {
		return nil, err
	}
	switch result.Type.Kind {
	case types.KindInt:
		return result.I, nil
	case types.KindString:
		return result.Ext.Str, nil
	case types.KindBool:
		return result.B, nil
	default:
		return result, nil
	}
}

func TestScenarioArithmeticReturn(t *testing.T) {
	v, err := runMain(t, `int main(string a){ return 3 + 4; }`, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v)
}

func TestScenarioStringConcat(t *testing.T) {
	v, err := runMain(t, `string main(string a){ return "123" + "456"; }`, []string{"n"})
	require.NoError(t, err)
	assert.Equal(t, "123456", v)
}

func TestScenarioFunctionCalls(t *testing.T) {
	v, err := runMain(t, `
		int f(){ return 5; }
		int main(string a){ return f() + f()*2; }
	`, []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)
}

func TestScenarioStringArgConcat(t *testing.T) {
	v, err := runMain(t, `string main(string a){ return "-" + a + "-"; }`, []string{"xyz"})
	require.NoError(t, err)
	assert.Equal(t, "-xyz-", v)
}

func TestScenarioDivideByZero(t *testing.T) {
	_, err := runMain(t, `int main(string a){ return 2/0; }`, []string{"x"})
	require.Error(t, err)
	rerr, ok := vm.AsRuntimeError(err)
	require.True(t, ok, "expected a *vm.RuntimeError, got %T: %v", err, err)
	assert.Equal(t, vm.DivideByZero, rerr.Kind)
}

func TestScenarioStructConstruction(t *testing.T) {
	v, err := runMain(t, `
		struct pixel { string s; }
		string main(){ pixel p = pixel("hi"); return p.s; }
	`, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", v)
}

func TestCompileErrorSurfacesBeforeRuntime(t *testing.T) {
	_, _, err := floyd.RunMain(`int main(string a){ return a + 1; }`, "test.floyd", []string{"x"})
	require.Error(t, err)
	_, isRuntime := vm.AsRuntimeError(err)
	assert.False(t, isRuntime, "a type error must never surface as a RuntimeError")
}

func TestFindGlobal(t *testing.T) {
	prog, err := floyd.Compile(`int counter = 41;`, "test.floyd")
	require.NoError(t, err)
	vmi, err := floyd.NewInterpreter(prog)
	require.NoError(t, err)

	got, err := vmi.FindGlobal("counter")
	require.NoError(t, err)
	assert.Equal(t, int64(41), got.I)

	_, err = vmi.FindGlobal("nope")
	require.Error(t, err)
}

func TestCallFunctionValue(t *testing.T) {
	prog, err := floyd.Compile(`int double(int n){ return n * 2; }`, "test.floyd")
	require.NoError(t, err)
	vmi, err := floyd.NewInterpreter(prog)
	require.NoError(t, err)

	fn, err := vmi.FindGlobal("double")
	require.NoError(t, err)
	got, err := vmi.CallFunctionValue(fn, []value.Value{value.Int(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.I)

	_, err = vmi.CallFunctionValue(value.Int(1), nil)
	assert.Error(t, err, "a non-function value is rejected before any frame opens")
}

func TestInterpreterToJSON(t *testing.T) {
	prog, err := floyd.Compile(`
		int counter = 41;
		int f(){ return 1; }
	`, "test.floyd")
	require.NoError(t, err)
	vmi, err := floyd.NewInterpreter(prog)
	require.NoError(t, err)

	snap := vmi.InterpreterToJSON()
	require.Contains(t, snap, "ast")
	require.Contains(t, snap, "callstack")

	funcs, ok := snap["ast"].([]interface{})
	require.True(t, ok)
	var sawF bool
	for _, fn := range funcs {
		if fn.(map[string]interface{})["name"] == "f" {
			sawF = true
		}
	}
	assert.True(t, sawF, "ast should list every compiled function")

	// no call is in progress once NewInterpreter has returned.
	assert.Empty(t, snap["callstack"])
}

func TestInterpreterToJSON_NeverIncludesPrintOutput(t *testing.T) {
	vmi, _, err := floyd.RunMain(`string main(){ print("hi"); return "done"; }`, "test.floyd", nil)
	require.NoError(t, err)

	snap := vmi.InterpreterToJSON()
	assert.NotContains(t, snap, "print_output")
	assert.Equal(t, []string{"hi"}, vmi.PrintOutput())
}
