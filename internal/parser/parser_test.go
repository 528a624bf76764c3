package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lineCode/floyd/internal/parser/ast"
)

func parseOneStmt(t *testing.T, src string) ast.Stmt {
	t.Helper()
	file, err := ParseFile(src, "test.floyd")
	require.NoError(t, err)
	require.Len(t, file.Statements, 1)
	return file.Statements[0]
}

func TestParser_BindStmt(t *testing.T) {
	stmt := parseOneStmt(t, `int x = 3 + 4;`)
	bind, ok := stmt.(*ast.BindStmt)
	require.True(t, ok)
	assert.Equal(t, "x", bind.Name)
	assert.False(t, bind.Mutable)
	named, ok := bind.Type.(*ast.NamedTypeExpr)
	require.True(t, ok)
	assert.Equal(t, "int", named.Name)
	bin, ok := bind.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, int64(3), bin.Left.(*ast.LiteralExpr).Value)
}

func TestParser_MutableBindStmt(t *testing.T) {
	stmt := parseOneStmt(t, `mutable int x = 0;`)
	bind, ok := stmt.(*ast.BindStmt)
	require.True(t, ok)
	assert.True(t, bind.Mutable)
}

func TestParser_StructTypedBind(t *testing.T) {
	stmt := parseOneStmt(t, `pixel p = pixel("hi");`)
	bind, ok := stmt.(*ast.BindStmt)
	require.True(t, ok)
	assert.Equal(t, "p", bind.Name)
	named, ok := bind.Type.(*ast.NamedTypeExpr)
	require.True(t, ok)
	assert.Equal(t, "pixel", named.Name)
	call, ok := bind.Value.(*ast.CallExpr)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.IdentifierExpr)
	require.True(t, ok)
	assert.Equal(t, "pixel", callee.Name)
}

func TestParser_AssignStmt(t *testing.T) {
	stmt := parseOneStmt(t, `x = 5;`)
	assign, ok := stmt.(*ast.AssignStmt)
	require.True(t, ok)
	assert.Equal(t, "x", assign.Name)
}

func TestParser_ExprStmt(t *testing.T) {
	stmt := parseOneStmt(t, `print("hi");`)
	exprStmt, ok := stmt.(*ast.ExprStmt)
	require.True(t, ok)
	call, ok := exprStmt.Expression.(*ast.CallExpr)
	require.True(t, ok)
	assert.Len(t, call.Args, 1)
}

func TestParser_ConstructExprForPrimitive(t *testing.T) {
	stmt := parseOneStmt(t, `string s = string(123);`)
	bind := stmt.(*ast.BindStmt)
	construct, ok := bind.Value.(*ast.ConstructExpr)
	require.True(t, ok)
	named := construct.Type.(*ast.NamedTypeExpr)
	assert.Equal(t, "string", named.Name)
}

func TestParser_FuncDefStmt(t *testing.T) {
	stmt := parseOneStmt(t, `int main(string a) { return 3 + 4; }`)
	fn, ok := stmt.(*ast.FuncDefStmt)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "a", fn.Params[0].Name)
	require.Len(t, fn.Body.Statements, 1)
	_, ok = fn.Body.Statements[0].(*ast.ReturnStmt)
	assert.True(t, ok)
}

func TestParser_StructDefStmt(t *testing.T) {
	stmt := parseOneStmt(t, `struct pixel { string name; int value; }`)
	s, ok := stmt.(*ast.StructDefStmt)
	require.True(t, ok)
	assert.Equal(t, "pixel", s.Name)
	require.Len(t, s.Members, 2)
	assert.Equal(t, "name", s.Members[0].Name)
	assert.Equal(t, "value", s.Members[1].Name)
}

func TestParser_IfElseStmt(t *testing.T) {
	stmt := parseOneStmt(t, `if (x == 1) { return 1; } else { return 2; }`)
	ifs, ok := stmt.(*ast.IfStmt)
	require.True(t, ok)
	require.NotNil(t, ifs.ElseBranch)
	_, ok = ifs.ElseBranch.(*ast.BlockStmt)
	assert.True(t, ok)
}

func TestParser_WhileStmt(t *testing.T) {
	stmt := parseOneStmt(t, `while (x < 10) { x = x + 1; }`)
	w, ok := stmt.(*ast.WhileStmt)
	require.True(t, ok)
	require.Len(t, w.Body.Statements, 1)
}

func TestParser_ForStmt(t *testing.T) {
	stmt := parseOneStmt(t, `for (i in 0 ... 9) { print(i); }`)
	f, ok := stmt.(*ast.ForStmt)
	require.True(t, ok)
	assert.Equal(t, "i", f.VarName)
	require.Len(t, f.Body.Statements, 1)
}

func TestParser_VectorLiteral(t *testing.T) {
	stmt := parseOneStmt(t, `[int] xs = [1, 2, 3];`)
	bind := stmt.(*ast.BindStmt)
	vecType, ok := bind.Type.(*ast.VectorTypeExpr)
	require.True(t, ok)
	assert.Equal(t, "int", vecType.Element.(*ast.NamedTypeExpr).Name)
	lit, ok := bind.Value.(*ast.VectorLiteralExpr)
	require.True(t, ok)
	assert.Len(t, lit.Elements, 3)
}

func TestParser_DictLiteralAndType(t *testing.T) {
	stmt := parseOneStmt(t, `[string:int] counts = {"a": 1, "b": 2};`)
	bind := stmt.(*ast.BindStmt)
	dictType, ok := bind.Type.(*ast.DictTypeExpr)
	require.True(t, ok)
	assert.Equal(t, "int", dictType.Value.(*ast.NamedTypeExpr).Name)
	lit, ok := bind.Value.(*ast.DictLiteralExpr)
	require.True(t, ok)
	require.Len(t, lit.Entries, 2)
	assert.Equal(t, "a", lit.Entries[0].Key)
}

func TestParser_MemberAndIndexExpr(t *testing.T) {
	stmt := parseOneStmt(t, `x = xs[0].name;`)
	assign := stmt.(*ast.AssignStmt)
	member, ok := assign.Value.(*ast.MemberExpr)
	require.True(t, ok)
	assert.Equal(t, "name", member.Field)
	_, ok = member.Object.(*ast.IndexExpr)
	assert.True(t, ok)
}

func TestParser_ConditionalExprRightAssociative(t *testing.T) {
	stmt := parseOneStmt(t, `int x = a ? b : c ? d : e;`)
	bind := stmt.(*ast.BindStmt)
	outer, ok := bind.Value.(*ast.ConditionalExpr)
	require.True(t, ok)
	_, ok = outer.Else.(*ast.ConditionalExpr)
	assert.True(t, ok, "trailing ?: should nest under Else (right-associative)")
}

func TestParser_PrecedenceOfArithmeticOverComparison(t *testing.T) {
	stmt := parseOneStmt(t, `int x = 1 + 2 * 3 < 10;`)
	bind := stmt.(*ast.BindStmt)
	rel, ok := bind.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "<", rel.Operator.Lexeme)
	add, ok := rel.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", add.Operator.Lexeme)
	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "*", mul.Operator.Lexeme)
}

func TestParser_UnaryAndLogical(t *testing.T) {
	stmt := parseOneStmt(t, `bool ok = !a && b || c;`)
	bind := stmt.(*ast.BindStmt)
	or, ok := bind.Value.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "||", or.Operator.Lexeme)
	and, ok := or.Left.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "&&", and.Operator.Lexeme)
	_, ok = and.Left.(*ast.UnaryExpr)
	assert.True(t, ok)
}

func TestParser_MultipleTopLevelStatements(t *testing.T) {
	file, err := ParseFile(`
struct pixel { string name; }
int main(string a) { return 0; }
`, "test.floyd")
	require.NoError(t, err)
	require.Len(t, file.Statements, 2)
	_, ok := file.Statements[0].(*ast.StructDefStmt)
	assert.True(t, ok)
	_, ok = file.Statements[1].(*ast.FuncDefStmt)
	assert.True(t, ok)
}

func TestParser_SyntaxErrorMissingSemicolon(t *testing.T) {
	_, err := ParseFile(`int x = 3`, "test.floyd")
	assert.Error(t, err)
}

func TestParser_SyntaxErrorUnterminatedBlock(t *testing.T) {
	_, err := ParseFile(`int main() { return 1;`, "test.floyd")
	assert.Error(t, err)
}

// emitRoundTrip parses src, emits it back to source, reparses, and
// returns both emissions — if the emitted form is truly canonical, a
// second parse/emit cycle must be a fixed point.
func emitRoundTrip(t *testing.T, src string) (string, string) {
	t.Helper()
	first, err := ParseFile(src, "test.floyd")
	require.NoError(t, err)
	emitted := ast.EmitFile(first)
	second, err := ParseFile(emitted, "emitted.floyd")
	require.NoError(t, err, "emitted source must reparse:\n%s", emitted)
	return emitted, ast.EmitFile(second)
}

func TestParser_EmitRoundTrip(t *testing.T) {
	sources := []string{
		`int x = 3 + 4 * -2;`,
		`mutable [string:int] counts = {"a": 1, "b": 2};`,
		`[int] xs = [1, 2] + [3];`,
		`string s = string(3.0) + "tail\n";`,
		`bool flag = a < b ? !p && q : c.member[0] == f(1, "two");`,
		`struct pixel { string name; int brightness; }`,
		`
int classify(int n) {
	if (n < 0) {
		return -1;
	} else if (n == 0) {
		return 0;
	} else {
		return 1;
	}
}
`,
		`
void loops() {
	mutable int total = 0;
	while (total < 10) {
		total = total + 1;
	}
	for (i in 0 ... 9) {
		print(string(i));
	}
}
`,
	}
	for _, src := range sources {
		emitted, reEmitted := emitRoundTrip(t, src)
		assert.Equal(t, emitted, reEmitted, "emit must be a fixed point for:\n%s", src)
	}
}
