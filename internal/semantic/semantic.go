// Package semantic implements Floyd's pass-2 (name/type resolution) and
// pass-3 (type-checking, constant folding, symbol-slot assignment)
// combined into a single AST walk — the two-pass split is between
// *declaring* top-level names (structs, functions) before checking any
// bodies, and *checking* those bodies once every name is visible, not
// between two separate traversals of the whole file.
//
// DESIGN PHILOSOPHY:
//   - Visitor pattern over internal/parser/ast, one method per node kind.
//   - Type information is collected in side tables (Result.ExprTypes),
//     not written back onto the AST, so the untyped AST stays reusable.
//   - Build the symbol table while checking, not as a separate step.
//
// Error discipline: fail-fast, matching internal/lexer and
// internal/parser — Analyze returns the first error it hits rather
// than accumulating a batch.
package semantic

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/host"
	"github.com/lineCode/floyd/internal/lexer"
	"github.com/lineCode/floyd/internal/parser/ast"
	"github.com/lineCode/floyd/internal/symtab"
	"github.com/lineCode/floyd/internal/types"
)

// MaxCallArgs is the hard cap on a call's argument count: it bounds
// the temporary push area the VM marshals arguments through, so the
// analyser rejects wider calls and definitions before any bytecode
// exists.
const MaxCallArgs = 8

// HostFuncInfo is everything the bytecode generator needs about one
// pre-declared host function: its dispatch signature plus the global
// Symbol it was bound to, so a call can address it the same way a call
// to an ordinary Floyd function does.
type HostFuncInfo struct {
	Signature host.Signature
	Symbol    *symtab.Symbol
}

// FuncInfo is everything the bytecode generator needs about one
// checked function definition.
type FuncInfo struct {
	Name   string
	Type   *types.TypeID
	Params []*symtab.Symbol
	Scope  *symtab.Scope // function scope; Scope.FrameSize() gives the frame size
	Body   *ast.BlockStmt
	Symbol *symtab.Symbol // the global binding this function is reachable through
}

// Result is the output of a complete pass-2/pass-3 run: everything the
// bytecode generator (internal/bytecode) needs, keyed the way it needs
// to look things up — by name for globals/functions/structs, by AST
// node pointer for the per-expression facts pass-3 computed.
type Result struct {
	Types   *types.Table
	Globals *symtab.Scope
	Structs map[string]*types.TypeID
	Funcs   map[string]*FuncInfo

	// File is the analyzed file, retained so internal/bytecode can walk
	// the same top-level statement order (globals init runs in source
	// order) without re-deriving it from the other tables.
	File *ast.File

	// HostFuncs holds every host function NewWithHost pre-declared as a
	// global, keyed by name, so the bytecode generator can address a call
	// to one without a second lookup against internal/host.
	HostFuncs map[string]*HostFuncInfo

	// ExprTypes is every expression's static type, computed once during
	// checking rather than recomputed by the bytecode generator.
	ExprTypes map[ast.Expr]*types.TypeID

	// ConstValues holds the folded compile-time value of any expression
	// pass-3 proved constant (literal subtrees closed under Floyd's
	// arithmetic/comparison/logical operators) — see foldBinary/foldUnary.
	// The bytecode generator gives each of these a frame slot seeded with
	// the value when the frame opens (no instruction computes it), instead
	// of evaluating the expression at runtime.
	ConstValues map[ast.Expr]interface{}

	// ConstructCalls marks which CallExpr nodes the parser emitted as
	// ordinary calls but pass-3 resolved to struct construction (the
	// callee names a type, not a function).
	ConstructCalls map[*ast.CallExpr]*types.TypeID

	// BindSymbols/AssignSymbols record which Symbol a given bind/assign
	// statement resolved to, so the bytecode generator can address it
	// without re-running scope lookup.
	BindSymbols   map[*ast.BindStmt]*symtab.Symbol
	AssignSymbols map[*ast.AssignStmt]*symtab.Symbol

	// IdentSymbols records which Symbol a given identifier reference
	// resolved to, so the bytecode generator can address a read without
	// re-walking the (by then discarded) scope chain.
	IdentSymbols map[*ast.IdentifierExpr]*symtab.Symbol

	// ForLoopSymbols records the implicitly-declared counter Symbol of
	// each for-loop, for the same reason.
	ForLoopSymbols map[*ast.ForStmt]*symtab.Symbol
}

// Analyzer walks an ast.File performing combined pass-2/pass-3 analysis.
type Analyzer struct {
	types   *types.Table
	globals *symtab.Scope
	scope   *symtab.Scope

	structs    map[string]*types.TypeID
	structDefs map[string]*ast.StructDefStmt
	funcs      map[string]*FuncInfo
	funcDefs   map[string]*ast.FuncDefStmt
	hostFuncs  map[string]*HostFuncInfo

	exprTypes      map[ast.Expr]*types.TypeID
	constValues    map[ast.Expr]interface{}
	constructCalls map[*ast.CallExpr]*types.TypeID
	bindSymbols    map[*ast.BindStmt]*symtab.Symbol
	assignSymbols  map[*ast.AssignStmt]*symtab.Symbol
	identSymbols   map[*ast.IdentifierExpr]*symtab.Symbol
	forLoopSymbols map[*ast.ForStmt]*symtab.Symbol

	currentFunc *FuncInfo
}

// New creates an Analyzer ready to check one file, with no host
// functions declared. Most callers want NewWithHost.
func New() *Analyzer {
	return NewWithHost(nil)
}

// NewWithHost creates an Analyzer that pre-declares every function in
// hostTable as an immutable global of function type, before any source
// is checked, so Floyd code may call print/size/update (or whatever
// hostTable carries) exactly like a locally-defined function.
// hostTable may be nil (equivalent to New()).
func NewWithHost(hostTable *host.Table) *Analyzer {
	globals := symtab.NewGlobalScope()
	a := &Analyzer{
		types:          types.NewTable(),
		globals:        globals,
		scope:          globals,
		structs:        make(map[string]*types.TypeID),
		structDefs:     make(map[string]*ast.StructDefStmt),
		funcs:          make(map[string]*FuncInfo),
		funcDefs:       make(map[string]*ast.FuncDefStmt),
		hostFuncs:      make(map[string]*HostFuncInfo),
		exprTypes:      make(map[ast.Expr]*types.TypeID),
		constValues:    make(map[ast.Expr]interface{}),
		constructCalls: make(map[*ast.CallExpr]*types.TypeID),
		bindSymbols:    make(map[*ast.BindStmt]*symtab.Symbol),
		assignSymbols:  make(map[*ast.AssignStmt]*symtab.Symbol),
		identSymbols:   make(map[*ast.IdentifierExpr]*symtab.Symbol),
		forLoopSymbols: make(map[*ast.ForStmt]*symtab.Symbol),
	}
	if hostTable != nil {
		for name, sig := range hostTable.Signatures() {
			sym := &symtab.Symbol{Name: name, Kind: symtab.ImmutableLocal, Type: sig.Type}
			if err := globals.DefineSymbol(sym); err != nil {
				panic(errors.Wrapf(err, "host function %q collides", name))
			}
			a.hostFuncs[name] = &HostFuncInfo{Signature: sig, Symbol: sym}
		}
	}
	return a
}

// Analyze runs pass-2 (declare every struct and function so forward
// references resolve) followed by pass-3 (check every body, in source
// order) over file, returning the first error encountered.
func (a *Analyzer) Analyze(file *ast.File) (*Result, error) {
	if err := a.declareStructs(file); err != nil {
		return nil, err
	}
	if err := a.declareFuncs(file); err != nil {
		return nil, err
	}
	for _, stmt := range file.Statements {
		if err := stmt.Accept(a); err != nil {
			return nil, err
		}
	}
	for _, t := range a.structs {
		if _, err := a.types.Intern(t); err != nil {
			return nil, err
		}
	}
	for _, fn := range a.funcs {
		if _, err := a.types.Intern(fn.Type); err != nil {
			return nil, err
		}
	}
	return &Result{
		Types:          a.types,
		Globals:        a.globals,
		File:           file,
		HostFuncs:      a.hostFuncs,
		Structs:        a.structs,
		Funcs:          a.funcs,
		ExprTypes:      a.exprTypes,
		ConstValues:    a.constValues,
		ConstructCalls: a.constructCalls,
		BindSymbols:    a.bindSymbols,
		AssignSymbols:  a.assignSymbols,
		IdentSymbols:   a.identSymbols,
		ForLoopSymbols: a.forLoopSymbols,
	}, nil
}

// declareStructs creates every struct's TypeID (with empty Members)
// before resolving any member types, so mutually-referential structs
// (a struct holding a vector of its own kind, or of a struct declared
// later in the file) resolve correctly — member resolution only needs
// the *pointer* to exist, not be filled in yet.
func (a *Analyzer) declareStructs(file *ast.File) error {
	var order []*ast.StructDefStmt
	for _, stmt := range file.Statements {
		s, ok := stmt.(*ast.StructDefStmt)
		if !ok {
			continue
		}
		if _, exists := a.structs[s.Name]; exists {
			return a.errorf(s.Pos(), "struct %q already declared", s.Name)
		}
		a.structs[s.Name] = types.NewStruct(s.Name, nil)
		a.structDefs[s.Name] = s
		order = append(order, s)
	}
	for _, s := range order {
		members := make([]types.Member, len(s.Members))
		for i, m := range s.Members {
			mt, err := a.resolveTypeExpr(m.Type)
			if err != nil {
				return err
			}
			members[i] = types.Member{Name: m.Name, Type: mt}
		}
		a.structs[s.Name].Members = members
	}
	return nil
}

// declareFuncs resolves every function's signature and binds it as an
// immutable global, before any body is checked, so functions may call
// each other regardless of declaration order.
func (a *Analyzer) declareFuncs(file *ast.File) error {
	for _, stmt := range file.Statements {
		f, ok := stmt.(*ast.FuncDefStmt)
		if !ok {
			continue
		}
		if _, exists := a.funcs[f.Name]; exists {
			return a.errorf(f.Pos(), "function %q already declared", f.Name)
		}
		if len(f.Params) > MaxCallArgs {
			return a.errorf(f.Pos(), "%s declares %d parameters; at most %d are supported", f.Name, len(f.Params), MaxCallArgs)
		}
		argTypes := make([]*types.TypeID, len(f.Params))
		for i, p := range f.Params {
			pt, err := a.resolveTypeExpr(p.Type)
			if err != nil {
				return err
			}
			argTypes[i] = pt
		}
		retType, err := a.resolveTypeExpr(f.ReturnType)
		if err != nil {
			return err
		}
		funcType := types.NewFunction(retType, argTypes, false)
		sym := &symtab.Symbol{Name: f.Name, Kind: symtab.ImmutableLocal, Type: funcType, Pos: f.Pos()}
		if err := a.globals.DefineSymbol(sym); err != nil {
			return a.wrapf(f.Pos(), err)
		}
		a.funcDefs[f.Name] = f
		a.funcs[f.Name] = &FuncInfo{Name: f.Name, Type: funcType, Symbol: sym}
	}
	return nil
}

// resolveTypeExpr turns a parsed type expression into a *types.TypeID,
// looking up struct names against the table declareStructs already
// populated.
func (a *Analyzer) resolveTypeExpr(te ast.TypeExpr) (*types.TypeID, error) {
	switch t := te.(type) {
	case *ast.NamedTypeExpr:
		switch t.Name {
		case "bool":
			return types.Bool, nil
		case "int":
			return types.Int, nil
		case "float":
			return types.Float, nil
		case "string":
			return types.String, nil
		case "json_value":
			return types.JSONValue, nil
		case "typeid":
			return types.TypeIDType, nil
		case "void":
			return types.Void, nil
		default:
			if st, ok := a.structs[t.Name]; ok {
				return st, nil
			}
			return nil, a.errorf(t.Pos(), "undefined type %q", t.Name)
		}
	case *ast.VectorTypeExpr:
		el, err := a.resolveTypeExpr(t.Element)
		if err != nil {
			return nil, err
		}
		return types.NewVector(el), nil
	case *ast.DictTypeExpr:
		v, err := a.resolveTypeExpr(t.Value)
		if err != nil {
			return nil, err
		}
		return types.NewDict(v), nil
	default:
		return nil, a.errorf(te.Pos(), "unknown type expression")
	}
}

func (a *Analyzer) errorf(pos lexer.Position, format string, args ...interface{}) error {
	return errors.Wrapf(errors.Errorf(format, args...), "%s", pos.String())
}

func (a *Analyzer) wrapf(pos lexer.Position, err error) error {
	return errors.Wrapf(err, "%s", pos.String())
}

// checkExpr type-checks expr in the current scope and returns its type.
func (a *Analyzer) checkExpr(expr ast.Expr) (*types.TypeID, error) {
	v, err := expr.Accept(a)
	if err != nil {
		return nil, err
	}
	return v.(*types.TypeID), nil
}

// checkExprExpected type-checks expr against an expected type, giving
// empty vector/dict literals (which otherwise carry no element type of
// their own) the expected collection's element type instead of failing
// to infer one.
func (a *Analyzer) checkExprExpected(expr ast.Expr, expected *types.TypeID) error {
	if vl, ok := expr.(*ast.VectorLiteralExpr); ok && len(vl.Elements) == 0 {
		if expected.Kind != types.KindVector {
			return a.errorf(expr.Pos(), "empty vector literal needs a vector type context, got %s", expected)
		}
		a.exprTypes[expr] = expected
		return nil
	}
	if dl, ok := expr.(*ast.DictLiteralExpr); ok && len(dl.Entries) == 0 {
		if expected.Kind != types.KindDict {
			return a.errorf(expr.Pos(), "empty dict literal needs a dict type context, got %s", expected)
		}
		a.exprTypes[expr] = expected
		return nil
	}
	actual, err := a.checkExpr(expr)
	if err != nil {
		return err
	}
	if !actual.AssignableTo(expected) {
		return a.errorf(expr.Pos(), "cannot assign %s to %s", actual, expected)
	}
	return nil
}

// --- statements ---------------------------------------------------

func (a *Analyzer) VisitExprStmt(s *ast.ExprStmt) error {
	_, err := a.checkExpr(s.Expression)
	return err
}

func (a *Analyzer) VisitBlockStmt(s *ast.BlockStmt) error {
	return a.checkStmtsIn(symtab.NewBlockScope(symtab.ScopeBlock, a.scope), s.Statements)
}

// checkStmtsIn runs stmts with a.scope temporarily set to scope,
// restoring the previous scope afterward (even on error, so a failed
// check never leaves the analyser in a nested scope).
func (a *Analyzer) checkStmtsIn(scope *symtab.Scope, stmts []ast.Stmt) error {
	prev := a.scope
	a.scope = scope
	defer func() { a.scope = prev }()
	for _, s := range stmts {
		if err := s.Accept(a); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) VisitIfStmt(s *ast.IfStmt) error {
	condType, err := a.checkExpr(s.Condition)
	if err != nil {
		return err
	}
	if condType.Kind != types.KindBool {
		return a.errorf(s.Condition.Pos(), "if condition must be bool, got %s", condType)
	}
	if err := a.checkStmtsIn(symtab.NewBlockScope(symtab.ScopeBlock, a.scope), s.ThenBranch.Statements); err != nil {
		return err
	}
	if s.ElseBranch != nil {
		return s.ElseBranch.Accept(a)
	}
	return nil
}

func (a *Analyzer) VisitWhileStmt(s *ast.WhileStmt) error {
	condType, err := a.checkExpr(s.Condition)
	if err != nil {
		return err
	}
	if condType.Kind != types.KindBool {
		return a.errorf(s.Condition.Pos(), "while condition must be bool, got %s", condType)
	}
	return a.checkStmtsIn(symtab.NewBlockScope(symtab.ScopeLoop, a.scope), s.Body.Statements)
}

func (a *Analyzer) VisitForStmt(s *ast.ForStmt) error {
	startType, err := a.checkExpr(s.Start)
	if err != nil {
		return err
	}
	if startType.Kind != types.KindInt {
		return a.errorf(s.Start.Pos(), "for loop start must be int, got %s", startType)
	}
	endType, err := a.checkExpr(s.EndExpr)
	if err != nil {
		return err
	}
	if endType.Kind != types.KindInt {
		return a.errorf(s.EndExpr.Pos(), "for loop end must be int, got %s", endType)
	}
	loopScope := symtab.NewBlockScope(symtab.ScopeLoop, a.scope)
	loopSym := &symtab.Symbol{
		Name: s.VarName, Kind: symtab.ImmutableLocal, Type: types.Int, Pos: s.Pos(),
	}
	if err := loopScope.DefineSymbol(loopSym); err != nil {
		return a.wrapf(s.Pos(), err)
	}
	a.forLoopSymbols[s] = loopSym
	return a.checkStmtsIn(loopScope, s.Body.Statements)
}

func (a *Analyzer) VisitReturnStmt(s *ast.ReturnStmt) error {
	if a.currentFunc == nil {
		return a.errorf(s.Pos(), "return outside a function")
	}
	return a.checkExprExpected(s.Value, a.currentFunc.Type.Return)
}

func (a *Analyzer) VisitBindStmt(s *ast.BindStmt) error {
	declaredType, err := a.resolveTypeExpr(s.Type)
	if err != nil {
		return err
	}
	if err := a.checkExprExpected(s.Value, declaredType); err != nil {
		return err
	}
	kind := symtab.ImmutableLocal
	if s.Mutable {
		kind = symtab.MutableLocal
	}
	sym := &symtab.Symbol{Name: s.Name, Kind: kind, Type: declaredType, Pos: s.Pos()}
	if err := a.scope.DefineSymbol(sym); err != nil {
		return a.wrapf(s.Pos(), err)
	}
	a.bindSymbols[s] = sym
	return nil
}

func (a *Analyzer) VisitAssignStmt(s *ast.AssignStmt) error {
	sym := a.scope.Lookup(s.Name)
	if sym == nil {
		return a.errorf(s.Pos(), "undefined: %s", s.Name)
	}
	if !sym.Kind.IsMutable() {
		return a.errorf(s.Pos(), "cannot assign to immutable %s", s.Name)
	}
	if err := a.checkExprExpected(s.Value, sym.Type); err != nil {
		return err
	}
	a.assignSymbols[s] = sym
	return nil
}

func (a *Analyzer) VisitStructDefStmt(s *ast.StructDefStmt) error {
	return nil // fully handled by declareStructs
}

func (a *Analyzer) VisitFuncDefStmt(s *ast.FuncDefStmt) error {
	fn := a.funcs[s.Name]
	fnScope := symtab.NewFunctionScope(a.globals)
	fn.Scope = fnScope
	fn.Body = s.Body
	fn.Params = make([]*symtab.Symbol, len(s.Params))

	prevFunc := a.currentFunc
	a.currentFunc = fn
	defer func() { a.currentFunc = prevFunc }()

	for i, p := range s.Params {
		pt := fn.Type.Args[i]
		sym := &symtab.Symbol{Name: p.Name, Kind: symtab.ImmutableArg, Type: pt, Pos: p.Type.Pos()}
		if err := fnScope.DefineSymbol(sym); err != nil {
			return a.wrapf(s.Pos(), err)
		}
		fn.Params[i] = sym
	}
	return a.checkStmtsIn(fnScope, s.Body.Statements)
}
