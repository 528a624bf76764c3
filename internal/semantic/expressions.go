package semantic

import (
	"github.com/lineCode/floyd/internal/lexer"
	"github.com/lineCode/floyd/internal/parser/ast"
	"github.com/lineCode/floyd/internal/types"
)

// recordType stashes expr's resolved type in the side table and returns
// it as the interface{} Visitor methods hand back up the recursion —
// every Visit*Expr method funnels through this so ExprTypes is complete
// without each method remembering to populate it individually.
func (a *Analyzer) recordType(expr ast.Expr, t *types.TypeID) (interface{}, error) {
	a.exprTypes[expr] = t
	return t, nil
}

func (a *Analyzer) VisitLiteralExpr(e *ast.LiteralExpr) (interface{}, error) {
	var t *types.TypeID
	switch e.Value.(type) {
	case bool:
		t = types.Bool
	case int64:
		t = types.Int
	case float64:
		t = types.Float
	case string:
		t = types.String
	default:
		return nil, a.errorf(e.Pos(), "unrecognized literal value %v", e.Value)
	}
	a.constValues[e] = e.Value
	return a.recordType(e, t)
}

func (a *Analyzer) VisitIdentifierExpr(e *ast.IdentifierExpr) (interface{}, error) {
	sym := a.scope.Lookup(e.Name)
	if sym == nil {
		return nil, a.errorf(e.Pos(), "undefined: %s", e.Name)
	}
	a.identSymbols[e] = sym
	return a.recordType(e, sym.Type)
}

func (a *Analyzer) VisitBinaryExpr(e *ast.BinaryExpr) (interface{}, error) {
	leftT, err := a.checkExpr(e.Left)
	if err != nil {
		return nil, err
	}
	rightT, err := a.checkExpr(e.Right)
	if err != nil {
		return nil, err
	}

	var result *types.TypeID
	switch e.Operator.Type {
	case lexer.TokenPlus:
		switch {
		case types.IsNumeric(leftT) && leftT.Equals(rightT):
			result = leftT
		case leftT.Kind == types.KindString && rightT.Kind == types.KindString:
			result = types.String
		case leftT.Kind == types.KindVector && rightT.Equals(leftT):
			result = leftT
		default:
			return nil, a.errorf(e.Pos(), "operator + not defined for %s and %s", leftT, rightT)
		}
	case lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		if !types.IsNumeric(leftT) || !leftT.Equals(rightT) {
			return nil, a.errorf(e.Pos(), "operator %s requires matching numeric operands, got %s and %s", e.Operator.Lexeme, leftT, rightT)
		}
		result = leftT
	case lexer.TokenEqual, lexer.TokenNotEqual:
		if !types.IsComparable(leftT) || !leftT.Equals(rightT) {
			return nil, a.errorf(e.Pos(), "operator %s requires comparable operands of the same type, got %s and %s", e.Operator.Lexeme, leftT, rightT)
		}
		result = types.Bool
	case lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual:
		if !types.IsOrdered(leftT) || !leftT.Equals(rightT) {
			return nil, a.errorf(e.Pos(), "operator %s requires ordered operands of the same type, got %s and %s", e.Operator.Lexeme, leftT, rightT)
		}
		result = types.Bool
	case lexer.TokenAnd, lexer.TokenOr:
		if leftT.Kind != types.KindBool || rightT.Kind != types.KindBool {
			return nil, a.errorf(e.Pos(), "operator %s requires bool operands, got %s and %s", e.Operator.Lexeme, leftT, rightT)
		}
		result = types.Bool
	default:
		return nil, a.errorf(e.Pos(), "unknown binary operator %s", e.Operator.Lexeme)
	}

	if lv, ok := a.constValues[e.Left]; ok {
		if rv, ok := a.constValues[e.Right]; ok {
			// foldBinary declines to fold a division or remainder whose
			// divisor is zero; the node stays unfolded, codegen emits the
			// ordinary arithmetic instruction, and the fault surfaces at
			// run time as DivideByZero.
			if folded, ok := foldBinary(e.Operator.Type, lv, rv); ok {
				a.constValues[e] = folded
			}
		}
	}
	return a.recordType(e, result)
}

func (a *Analyzer) VisitUnaryExpr(e *ast.UnaryExpr) (interface{}, error) {
	operandT, err := a.checkExpr(e.Operand)
	if err != nil {
		return nil, err
	}
	var result *types.TypeID
	switch e.Operator.Type {
	case lexer.TokenMinus:
		if !types.IsNumeric(operandT) {
			return nil, a.errorf(e.Pos(), "unary - requires a numeric operand, got %s", operandT)
		}
		result = operandT
	case lexer.TokenNot:
		if operandT.Kind != types.KindBool {
			return nil, a.errorf(e.Pos(), "unary ! requires a bool operand, got %s", operandT)
		}
		result = types.Bool
	default:
		return nil, a.errorf(e.Pos(), "unknown unary operator %s", e.Operator.Lexeme)
	}
	if v, ok := a.constValues[e.Operand]; ok {
		if folded, ok := foldUnary(e.Operator.Type, v); ok {
			a.constValues[e] = folded
		}
	}
	return a.recordType(e, result)
}

func (a *Analyzer) VisitConditionalExpr(e *ast.ConditionalExpr) (interface{}, error) {
	condT, err := a.checkExpr(e.Cond)
	if err != nil {
		return nil, err
	}
	if condT.Kind != types.KindBool {
		return nil, a.errorf(e.Cond.Pos(), "conditional expression's condition must be bool, got %s", condT)
	}
	thenT, err := a.checkExpr(e.Then)
	if err != nil {
		return nil, err
	}
	elseT, err := a.checkExpr(e.Else)
	if err != nil {
		return nil, err
	}
	if !thenT.Equals(elseT) {
		return nil, a.errorf(e.Pos(), "conditional expression branches disagree: %s vs %s", thenT, elseT)
	}
	return a.recordType(e, thenT)
}

// VisitCallExpr implements the parser-defers-to-pass-3 struct
// construction decision: when the callee is a bare
// identifier naming a struct rather than a function, this rewrites the
// call into a construction by recording it in ConstructCalls, instead
// of the parser ever producing a distinct node for it.
func (a *Analyzer) VisitCallExpr(e *ast.CallExpr) (interface{}, error) {
	ident, ok := e.Callee.(*ast.IdentifierExpr)
	if !ok {
		return nil, a.errorf(e.Callee.Pos(), "call target must be a function or struct name")
	}
	if len(e.Args) > MaxCallArgs {
		return nil, a.errorf(e.Pos(), "%s called with %d arguments; at most %d are supported", ident.Name, len(e.Args), MaxCallArgs)
	}
	if st, ok := a.structs[ident.Name]; ok {
		if len(e.Args) != len(st.Members) {
			return nil, a.errorf(e.Pos(), "%s construction takes %d argument(s), got %d", ident.Name, len(st.Members), len(e.Args))
		}
		for i, arg := range e.Args {
			if err := a.checkExprExpected(arg, st.Members[i].Type); err != nil {
				return nil, err
			}
		}
		a.constructCalls[e] = st
		a.exprTypes[ident] = st
		return a.recordType(e, st)
	}

	if fn, ok := a.funcs[ident.Name]; ok {
		if len(e.Args) != len(fn.Type.Args) {
			return nil, a.errorf(e.Pos(), "%s takes %d argument(s), got %d", ident.Name, len(fn.Type.Args), len(e.Args))
		}
		for i, arg := range e.Args {
			if err := a.checkExprExpected(arg, fn.Type.Args[i]); err != nil {
				return nil, err
			}
		}
		a.exprTypes[ident] = fn.Type
		return a.recordType(e, fn.Type.Return)
	}

	if hf, ok := a.hostFuncs[ident.Name]; ok {
		hfType := hf.Signature.Type
		if len(e.Args) != len(hfType.Args) {
			return nil, a.errorf(e.Pos(), "%s takes %d argument(s), got %d", ident.Name, len(hfType.Args), len(e.Args))
		}
		for i, arg := range e.Args {
			// A `dynamic`-typed host parameter accepts any
			// argument type — its static type travels alongside the
			// value itself, rather than being constrained here.
			if hfType.Args[i].Kind == types.KindDynamic {
				if _, err := a.checkExpr(arg); err != nil {
					return nil, err
				}
				continue
			}
			if err := a.checkExprExpected(arg, hfType.Args[i]); err != nil {
				return nil, err
			}
		}
		a.exprTypes[ident] = hfType
		return a.recordType(e, hfType.Return)
	}

	return nil, a.errorf(e.Pos(), "undefined function or struct: %s", ident.Name)
}

func (a *Analyzer) VisitMemberExpr(e *ast.MemberExpr) (interface{}, error) {
	objT, err := a.checkExpr(e.Object)
	if err != nil {
		return nil, err
	}
	if objT.Kind != types.KindStruct {
		return nil, a.errorf(e.Pos(), "member access requires a struct, got %s", objT)
	}
	for _, m := range objT.Members {
		if m.Name == e.Field {
			return a.recordType(e, m.Type)
		}
	}
	return nil, a.errorf(e.Pos(), "%s has no member %q", objT, e.Field)
}

// VisitIndexExpr type-checks collection[index] for both of Floyd's
// collection kinds. Both read the element type from TypeID.Element,
// which doubles as the vector's element type and the dict's value
// type; they differ only in what type the index itself must be.
func (a *Analyzer) VisitIndexExpr(e *ast.IndexExpr) (interface{}, error) {
	collT, err := a.checkExpr(e.Collection)
	if err != nil {
		return nil, err
	}
	idxT, err := a.checkExpr(e.Index)
	if err != nil {
		return nil, err
	}
	switch collT.Kind {
	case types.KindVector:
		if idxT.Kind != types.KindInt {
			return nil, a.errorf(e.Index.Pos(), "vector index must be int, got %s", idxT)
		}
	case types.KindDict:
		if idxT.Kind != types.KindString {
			return nil, a.errorf(e.Index.Pos(), "dict key must be string, got %s", idxT)
		}
	default:
		return nil, a.errorf(e.Pos(), "cannot index into %s", collT)
	}
	return a.recordType(e, collT.Element)
}

// primitiveCoercions is the closed string/json_value/numeric coercion
// table an explicit T(x) construct call allows; value.CoerceConstruct
// is the matching runtime half.
var primitiveCoercions = map[types.Kind]map[types.Kind]bool{
	types.KindInt:       {types.KindInt: true, types.KindFloat: true},
	types.KindFloat:     {types.KindFloat: true, types.KindInt: true},
	types.KindString:    {types.KindString: true, types.KindInt: true, types.KindFloat: true, types.KindBool: true, types.KindJSONValue: true},
	types.KindBool:      {types.KindBool: true},
	types.KindJSONValue: {types.KindJSONValue: true, types.KindString: true},
}

func (a *Analyzer) VisitConstructExpr(e *ast.ConstructExpr) (interface{}, error) {
	target, err := a.resolveTypeExpr(e.Type)
	if err != nil {
		return nil, err
	}
	if len(e.Args) != 1 {
		return nil, a.errorf(e.Pos(), "%s(...) construction takes exactly one argument, got %d", target, len(e.Args))
	}
	argT, err := a.checkExpr(e.Args[0])
	if err != nil {
		return nil, err
	}
	allowed := primitiveCoercions[target.Kind]
	if allowed == nil || !allowed[argT.Kind] {
		return nil, a.errorf(e.Pos(), "cannot construct %s from %s", target, argT)
	}
	return a.recordType(e, target)
}

func (a *Analyzer) VisitVectorLiteralExpr(e *ast.VectorLiteralExpr) (interface{}, error) {
	if len(e.Elements) == 0 {
		return nil, a.errorf(e.Pos(), "cannot infer the element type of an empty vector literal here")
	}
	elemT, err := a.checkExpr(e.Elements[0])
	if err != nil {
		return nil, err
	}
	for _, el := range e.Elements[1:] {
		if err := a.checkExprExpected(el, elemT); err != nil {
			return nil, err
		}
	}
	return a.recordType(e, types.NewVector(elemT))
}

func (a *Analyzer) VisitDictLiteralExpr(e *ast.DictLiteralExpr) (interface{}, error) {
	if len(e.Entries) == 0 {
		return nil, a.errorf(e.Pos(), "cannot infer the value type of an empty dict literal here")
	}
	seen := make(map[string]bool, len(e.Entries))
	valT, err := a.checkExpr(e.Entries[0].Value)
	if err != nil {
		return nil, err
	}
	seen[e.Entries[0].Key] = true
	for _, ent := range e.Entries[1:] {
		if seen[ent.Key] {
			return nil, a.errorf(e.Pos(), "duplicate dict key %q", ent.Key)
		}
		seen[ent.Key] = true
		if err := a.checkExprExpected(ent.Value, valT); err != nil {
			return nil, err
		}
	}
	return a.recordType(e, types.NewDict(valT))
}

// foldBinary evaluates a binary operator over two already-constant
// operands at compile time — the fold is a tree-local map annotation,
// not an IR rewrite.
func foldBinary(op lexer.TokenType, left, right interface{}) (interface{}, bool) {
	switch l := left.(type) {
	case int64:
		r, ok := right.(int64)
		if !ok {
			return nil, false
		}
		switch op {
		case lexer.TokenPlus:
			return l + r, true
		case lexer.TokenMinus:
			return l - r, true
		case lexer.TokenStar:
			return l * r, true
		case lexer.TokenSlash:
			if r == 0 {
				return nil, false
			}
			return l / r, true
		case lexer.TokenPercent:
			if r == 0 {
				return nil, false
			}
			return l % r, true
		case lexer.TokenEqual:
			return l == r, true
		case lexer.TokenNotEqual:
			return l != r, true
		case lexer.TokenLess:
			return l < r, true
		case lexer.TokenLessEqual:
			return l <= r, true
		case lexer.TokenGreater:
			return l > r, true
		case lexer.TokenGreaterEqual:
			return l >= r, true
		}
	case float64:
		r, ok := right.(float64)
		if !ok {
			return nil, false
		}
		switch op {
		case lexer.TokenPlus:
			return l + r, true
		case lexer.TokenMinus:
			return l - r, true
		case lexer.TokenStar:
			return l * r, true
		case lexer.TokenSlash:
			if r == 0 {
				return nil, false
			}
			return l / r, true
		case lexer.TokenEqual:
			return l == r, true
		case lexer.TokenNotEqual:
			return l != r, true
		case lexer.TokenLess:
			return l < r, true
		case lexer.TokenLessEqual:
			return l <= r, true
		case lexer.TokenGreater:
			return l > r, true
		case lexer.TokenGreaterEqual:
			return l >= r, true
		}
	case string:
		r, ok := right.(string)
		if !ok {
			return nil, false
		}
		switch op {
		case lexer.TokenPlus:
			return l + r, true
		case lexer.TokenEqual:
			return l == r, true
		case lexer.TokenNotEqual:
			return l != r, true
		case lexer.TokenLess:
			return l < r, true
		case lexer.TokenLessEqual:
			return l <= r, true
		case lexer.TokenGreater:
			return l > r, true
		case lexer.TokenGreaterEqual:
			return l >= r, true
		}
	case bool:
		r, ok := right.(bool)
		if !ok {
			return nil, false
		}
		switch op {
		case lexer.TokenAnd:
			return l && r, true
		case lexer.TokenOr:
			return l || r, true
		case lexer.TokenEqual:
			return l == r, true
		case lexer.TokenNotEqual:
			return l != r, true
		}
	}
	return nil, false
}

func foldUnary(op lexer.TokenType, operand interface{}) (interface{}, bool) {
	switch v := operand.(type) {
	case int64:
		if op == lexer.TokenMinus {
			return -v, true
		}
	case float64:
		if op == lexer.TokenMinus {
			return -v, true
		}
	case bool:
		if op == lexer.TokenNot {
			return !v, true
		}
	}
	return nil, false
}
