package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/parser"
	"github.com/lineCode/floyd/internal/parser/ast"
	"github.com/lineCode/floyd/internal/types"
)

func analyzeSrc(t *testing.T, src string) (*Result, error) {
	t.Helper()
	file, err := parser.ParseFile(src, "test.floyd")
	require.NoError(t, err)
	return New().Analyze(file)
}

func requireOK(t *testing.T, src string) *Result {
	t.Helper()
	res, err := analyzeSrc(t, src)
	require.NoError(t, err)
	return res
}

func TestAnalyzer_BindAndConstantFold(t *testing.T) {
	res := requireOK(t, `int x = 3 + 4 * 2;`)
	bindStmt := findBind(t, res, "x")
	val, ok := res.ConstValues[bindStmt.Value]
	require.True(t, ok, "arithmetic over literals should fold")
	assert.Equal(t, int64(11), val)
}

func TestAnalyzer_MutableAssignAllowed(t *testing.T) {
	requireOK(t, `
mutable int x = 0;
int useIt() {
	x = x + 1;
	return x;
}
`)
}

func TestAnalyzer_AssignToImmutableRejected(t *testing.T) {
	_, err := analyzeSrc(t, `
int x = 0;
void f() {
	x = 1;
}
`)
	assert.Error(t, err)
}

func TestAnalyzer_StructForwardReference(t *testing.T) {
	res := requireOK(t, `
struct node {
	int value;
	link next;
}
struct link {
	node payload;
}
`)
	node, ok := res.Structs["node"]
	require.True(t, ok)
	require.Len(t, node.Members, 2)
	assert.Equal(t, "next", node.Members[1].Name)
	assert.Equal(t, types.KindStruct, node.Members[1].Type.Kind)
	assert.Equal(t, "link", node.Members[1].Type.StructName)
}

func TestAnalyzer_FunctionForwardReference(t *testing.T) {
	requireOK(t, `
int even(int n) {
	return n == 0 ? 1 : odd(n - 1);
}
int odd(int n) {
	return n == 0 ? 0 : even(n - 1);
}
`)
}

func TestAnalyzer_StructConstructionResolvedFromCall(t *testing.T) {
	res := requireOK(t, `
struct pixel {
	string name;
}
pixel p = pixel("red");
`)
	bindStmt := findBind(t, res, "p")
	call, ok := bindStmt.Value.(*ast.CallExpr)
	require.True(t, ok)
	st, ok := res.ConstructCalls[call]
	require.True(t, ok, "pixel(...) should be recognized as a construction")
	assert.Equal(t, "pixel", st.StructName)
}

func TestAnalyzer_FunctionCallTypeChecked(t *testing.T) {
	_, err := analyzeSrc(t, `
int add(int a, int b) {
	return a + b;
}
int x = add("nope", 2);
`)
	assert.Error(t, err)
}

func TestAnalyzer_ArgCountMismatch(t *testing.T) {
	_, err := analyzeSrc(t, `
int add(int a, int b) {
	return a + b;
}
int x = add(1);
`)
	assert.Error(t, err)
}

func TestAnalyzer_EmptyVectorInfersFromBindContext(t *testing.T) {
	res := requireOK(t, `[int] xs = [];`)
	bindStmt := findBind(t, res, "xs")
	vecT, ok := res.ExprTypes[bindStmt.Value]
	require.True(t, ok)
	assert.Equal(t, types.KindVector, vecT.Kind)
	assert.Equal(t, types.KindInt, vecT.Element.Kind)
}

func TestAnalyzer_EmptyVectorWithoutContextRejected(t *testing.T) {
	_, err := analyzeSrc(t, `
void f() {
	print([]);
}
int print(json_value v) {
	return 0;
}
`)
	assert.Error(t, err)
}

func TestAnalyzer_VectorIndexRequiresInt(t *testing.T) {
	_, err := analyzeSrc(t, `
[int] xs = [1, 2, 3];
int y = xs["nope"];
`)
	assert.Error(t, err)
}

func TestAnalyzer_DictIndexRequiresString(t *testing.T) {
	res := requireOK(t, `
[string:int] counts = {"a": 1};
int y = counts["a"];
`)
	bindStmt := findBind(t, res, "y")
	yt, ok := res.ExprTypes[bindStmt.Value]
	require.True(t, ok)
	assert.Equal(t, types.KindInt, yt.Kind)
}

func TestAnalyzer_MemberAccessOnStruct(t *testing.T) {
	res := requireOK(t, `
struct pixel {
	string name;
	int value;
}
pixel p = pixel("red", 1);
int v = p.value;
`)
	bindStmt := findBind(t, res, "v")
	vt, ok := res.ExprTypes[bindStmt.Value]
	require.True(t, ok)
	assert.Equal(t, types.KindInt, vt.Kind)
}

func TestAnalyzer_MemberAccessUnknownField(t *testing.T) {
	_, err := analyzeSrc(t, `
struct pixel {
	string name;
}
pixel p = pixel("red");
int v = p.nope;
`)
	assert.Error(t, err)
}

func TestAnalyzer_PrimitiveConstructionCoercion(t *testing.T) {
	requireOK(t, `string s = string(123);`)
	_, err := analyzeSrc(t, `bool b = bool(123);`)
	assert.Error(t, err)
}

func TestAnalyzer_ConditionalBranchTypeMismatch(t *testing.T) {
	_, err := analyzeSrc(t, `int x = true ? 1 : "nope";`)
	assert.Error(t, err)
}

func TestAnalyzer_ForLoopVariableIsInt(t *testing.T) {
	requireOK(t, `
void f() {
	for (i in 0 ... 9) {
		int doubled = i * 2;
	}
}
`)
}

func TestAnalyzer_CallArgumentCap(t *testing.T) {
	requireOK(t, `
int wide(int a, int b, int c, int d, int e, int f, int g, int h) {
	return a + h;
}
int x = wide(1, 2, 3, 4, 5, 6, 7, 8);
`)
	_, err := analyzeSrc(t, `
int tooWide(int a, int b, int c, int d, int e, int f, int g, int h, int i) {
	return a;
}
`)
	assert.Error(t, err)
}

func TestAnalyzer_VectorConcatenationTyped(t *testing.T) {
	res := requireOK(t, `[int] xs = [1] + [2, 3];`)
	bindStmt := findBind(t, res, "xs")
	xt, ok := res.ExprTypes[bindStmt.Value]
	require.True(t, ok)
	assert.Equal(t, types.KindVector, xt.Kind)
	assert.Equal(t, types.KindInt, xt.Element.Kind)
}

func TestAnalyzer_ReturnTypeChecked(t *testing.T) {
	_, err := analyzeSrc(t, `
int f() {
	return "nope";
}
`)
	assert.Error(t, err)
}

func findBind(t *testing.T, res *Result, name string) *ast.BindStmt {
	t.Helper()
	for stmt, sym := range res.BindSymbols {
		if sym.Name == name {
			return stmt
		}
	}
	require.Failf(t, "no bind found", "name %q", name)
	return nil
}
