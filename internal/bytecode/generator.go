package bytecode

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/lexer"
	"github.com/lineCode/floyd/internal/parser/ast"
	"github.com/lineCode/floyd/internal/semantic"
	"github.com/lineCode/floyd/internal/symtab"
	"github.com/lineCode/floyd/internal/types"
	"github.com/lineCode/floyd/internal/value"
	"github.com/lineCode/floyd/internal/xlog"
)

// genErrorf builds a generator error and logs it at error level before
// returning, the same way internal/vm logs every constructed
// RuntimeError — these indicate a generator/analyser mismatch bug
// rather than a user-facing compile error, so they're always worth a
// log line regardless of FLOYD_LOG_LEVEL.
func genErrorf(format string, args ...interface{}) error {
	err := errors.Errorf(format, args...)
	xlog.Errorf("bytecode.generator", "%s", err)
	return err
}

// Generate lowers a checked *semantic.Result into a *Program: the
// bytecode generator's single entry point, one direct lowering pass
// from the typed AST to bytecode with no intervening IR.
func Generate(res *semantic.Result) (*Program, error) {
	g := &generator{res: res, funcIDs: map[string]int{}}
	g.prog = &Program{Types: res.Types, FuncIndex: map[string]int{}}

	var userOrder []string
	for _, stmt := range res.File.Statements {
		if f, ok := stmt.(*ast.FuncDefStmt); ok {
			userOrder = append(userOrder, f.Name)
		}
	}
	hostNames := make([]string, 0, len(res.HostFuncs))
	for name := range res.HostFuncs {
		hostNames = append(hostNames, name)
	}
	sort.Strings(hostNames)

	id := 0
	for _, name := range userOrder {
		g.funcIDs[name] = id
		id++
	}
	for _, name := range hostNames {
		g.funcIDs[name] = id
		id++
	}
	g.prog.FuncIndex = g.funcIDs
	g.prog.Funcs = make([]*FuncDef, id)

	for _, name := range userOrder {
		fd, err := g.genFunc(res.Funcs[name])
		if err != nil {
			return nil, err
		}
		g.prog.Funcs[g.funcIDs[name]] = fd
	}
	for _, name := range hostNames {
		hf := res.HostFuncs[name]
		g.prog.Funcs[g.funcIDs[name]] = &FuncDef{
			Name:           name,
			Type:           hf.Signature.Type,
			HostFunctionID: hf.Signature.ID,
		}
	}

	globalsDef, err := g.genGlobals()
	if err != nil {
		return nil, err
	}
	g.prog.Globals = globalsDef
	xlog.Logf("bytecode.generator", "generated %d functions (%d user, %d host), %d types",
		len(g.prog.Funcs), len(userOrder), len(hostNames), g.prog.Types.Len())
	return g.prog, nil
}

// generator holds program-wide state shared across every function's
// lowering: the checked result being consumed, the program under
// construction, and the name -> Funcs-index table every call site needs.
type generator struct {
	res     *semantic.Result
	prog    *Program
	funcIDs map[string]int
}

// funcGen lowers one function body (or the globals initializer) into a
// flat instruction stream — no basic blocks, only a program counter
// and patched jump offsets.
type funcGen struct {
	g      *generator
	layout *symtab.FrameLayout
	instrs []Instruction
	consts map[int]interface{}
}

func extBitsFor(layout *symtab.FrameLayout) []bool {
	bits := make([]bool, len(layout.Symbols)+1)
	for _, sym := range layout.Symbols {
		bits[sym.Index] = value.IsExt(sym.Type.Kind)
	}
	return bits
}

func (g *generator) genFunc(fi *semantic.FuncInfo) (*FuncDef, error) {
	fg := &funcGen{g: g, layout: fi.Scope.Layout, consts: map[int]interface{}{}}
	for _, stmt := range fi.Body.Statements {
		if err := fg.genStmt(stmt); err != nil {
			return nil, err
		}
	}
	if !endsInReturn(fi.Body.Statements) {
		voidSym, voidReg := fg.allocTemp(types.Void)
		fg.consts[voidSym.Index] = VoidConst{}
		fg.emit(OpReturn, voidReg, RegRef{}, RegRef{}, 0)
	}
	return &FuncDef{
		Name:         fi.Name,
		Type:         fi.Type,
		FrameSize:    fi.Scope.FrameSize(),
		ExtBits:      extBitsFor(fi.Scope.Layout),
		Consts:       fg.consts,
		Instructions: fg.instrs,
	}, nil
}

func endsInReturn(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ast.ReturnStmt)
	return ok
}

func (g *generator) genGlobals() (*GlobalsDef, error) {
	fg := &funcGen{g: g, layout: g.res.Globals.Layout, consts: map[int]interface{}{}}
	for name, fi := range g.res.Funcs {
		fg.consts[fi.Symbol.Index] = FuncConst{ID: g.funcIDs[name]}
	}
	for name, hf := range g.res.HostFuncs {
		fg.consts[hf.Symbol.Index] = FuncConst{ID: g.funcIDs[name]}
	}
	for _, stmt := range g.res.File.Statements {
		switch stmt.(type) {
		case *ast.FuncDefStmt, *ast.StructDefStmt:
			continue
		}
		if err := fg.genStmt(stmt); err != nil {
			return nil, err
		}
	}
	names := make(map[string]int, len(g.res.Globals.Symbols))
	for name, sym := range g.res.Globals.Symbols {
		names[name] = sym.Index
	}
	return &GlobalsDef{
		FrameSize:    g.res.Globals.FrameSize(),
		ExtBits:      extBitsFor(g.res.Globals.Layout),
		Consts:       fg.consts,
		Instructions: fg.instrs,
		Names:        names,
	}, nil
}

// --- register allocation / emission --------------------------------

func (fg *funcGen) regOf(sym *symtab.Symbol) RegRef {
	a := symtab.AddressOf(sym)
	return RegRef{ParentSteps: a.ParentSteps, Index: a.Index}
}

func (fg *funcGen) allocTemp(t *types.TypeID) (*symtab.Symbol, RegRef) {
	sym := fg.layout.AllocateTemp(t)
	return sym, fg.regOf(sym)
}

func (fg *funcGen) emit(op Opcode, r1, r2, r3 RegRef, instrType uint16) int {
	fg.instrs = append(fg.instrs, Instruction{Op: op, InstrType: instrType, Reg1: r1, Reg2: r2, Reg3: r3})
	return len(fg.instrs) - 1
}

// patchBranchZero and patchJump set the instruction at idx's offset
// operand so its jump lands on the next instruction to be emitted — branch_zero's offset
// lives in Reg2.Index, jump's in Reg1.Index (see instruction.go).
func (fg *funcGen) patchBranchZero(idx int) {
	offset := len(fg.instrs) - (idx + 1)
	fg.instrs[idx].Reg2.Index = int16(offset)
}

func (fg *funcGen) patchJumpTo(idx int, target int) {
	offset := target - (idx + 1)
	fg.instrs[idx].Reg1.Index = int16(offset)
}

func (fg *funcGen) patchJump(idx int) {
	fg.patchJumpTo(idx, len(fg.instrs))
}

// constReg materializes a compile-time-constant Go value (int64/float64/
// bool/string, from ConstValues) into a fresh frame slot the interpreter
// fills in at frame-open time instead of any instruction computing it.
func (fg *funcGen) constReg(val interface{}, t *types.TypeID) RegRef {
	sym, reg := fg.allocTemp(t)
	fg.consts[sym.Index] = val
	return reg
}

func (fg *funcGen) typeIDConstReg(t *types.TypeID) (RegRef, error) {
	idx, err := fg.g.prog.Types.Intern(t)
	if err != nil {
		return RegRef{}, err
	}
	sym, reg := fg.allocTemp(types.TypeIDType)
	fg.consts[sym.Index] = TypeConst{Index: idx}
	return reg, nil
}

// --- statements ------------------------------------------------------

func (fg *funcGen) genStmt(stmt ast.Stmt) error {
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := fg.genExpr(s.Expression)
		return err
	case *ast.BlockStmt:
		return fg.genStmts(s.Statements)
	case *ast.IfStmt:
		return fg.genIf(s)
	case *ast.WhileStmt:
		return fg.genWhile(s)
	case *ast.ForStmt:
		return fg.genFor(s)
	case *ast.ReturnStmt:
		reg, err := fg.genExpr(s.Value)
		if err != nil {
			return err
		}
		fg.emit(OpReturn, reg, RegRef{}, RegRef{}, 0)
		return nil
	case *ast.BindStmt:
		valReg, err := fg.genExpr(s.Value)
		if err != nil {
			return err
		}
		dest := fg.regOf(fg.g.res.BindSymbols[s])
		fg.emit(OpStoreResolve, dest, valReg, RegRef{}, 0)
		return nil
	case *ast.AssignStmt:
		valReg, err := fg.genExpr(s.Value)
		if err != nil {
			return err
		}
		dest := fg.regOf(fg.g.res.AssignSymbols[s])
		fg.emit(OpStoreResolve, dest, valReg, RegRef{}, 0)
		return nil
	case *ast.StructDefStmt, *ast.FuncDefStmt:
		return nil
	default:
		return genErrorf("bytecode: unhandled statement %T", stmt)
	}
}

func (fg *funcGen) genStmts(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := fg.genStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) genIf(s *ast.IfStmt) error {
	condReg, err := fg.genExpr(s.Condition)
	if err != nil {
		return err
	}
	bz := fg.emit(OpBranchZero, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.instrs[bz].Reg1 = condReg
	if err := fg.genStmts(s.ThenBranch.Statements); err != nil {
		return err
	}
	if s.ElseBranch != nil {
		j := fg.emit(OpJump, RegRef{}, RegRef{}, RegRef{}, 0)
		fg.patchBranchZero(bz)
		if err := fg.genStmt(s.ElseBranch); err != nil {
			return err
		}
		fg.patchJump(j)
		return nil
	}
	fg.patchBranchZero(bz)
	return nil
}

func (fg *funcGen) genWhile(s *ast.WhileStmt) error {
	top := len(fg.instrs)
	condReg, err := fg.genExpr(s.Condition)
	if err != nil {
		return err
	}
	bz := fg.emit(OpBranchZero, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.instrs[bz].Reg1 = condReg
	if err := fg.genStmts(s.Body.Statements); err != nil {
		return err
	}
	j := fg.emit(OpJump, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.patchJumpTo(j, top)
	fg.patchBranchZero(bz)
	return nil
}

// genFor lowers Floyd's bounded counting loop into the same
// compare/branch/increment shape a `while` would use, incrementing the
// loop-counter slot directly; that mutation is generator-internal and
// never observable as an `assign` to the (analysis-time immutable) loop
// variable.
func (fg *funcGen) genFor(s *ast.ForStmt) error {
	counterSym := fg.g.res.ForLoopSymbols[s]
	counterReg := fg.regOf(counterSym)

	startReg, err := fg.genExpr(s.Start)
	if err != nil {
		return err
	}
	fg.emit(OpStoreResolve, counterReg, startReg, RegRef{}, 0)

	endReg, err := fg.genExpr(s.EndExpr)
	if err != nil {
		return err
	}
	_, endCopyReg := fg.allocTemp(types.Int)
	fg.emit(OpStoreResolve, endCopyReg, endReg, RegRef{}, 0)

	top := len(fg.instrs)
	_, cmpReg := fg.allocTemp(types.Bool)
	fg.emit(OpCmpLessEqual, cmpReg, counterReg, endCopyReg, 0)
	bz := fg.emit(OpBranchZero, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.instrs[bz].Reg1 = cmpReg

	if err := fg.genStmts(s.Body.Statements); err != nil {
		return err
	}

	oneReg := fg.constReg(int64(1), types.Int)
	fg.emit(OpArithAdd, counterReg, counterReg, oneReg, 0)
	j := fg.emit(OpJump, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.patchJumpTo(j, top)
	fg.patchBranchZero(bz)
	return nil
}

// --- expressions -------------------------------------------------------

func (fg *funcGen) genExpr(e ast.Expr) (RegRef, error) {
	if cv, ok := fg.g.res.ConstValues[e]; ok {
		return fg.constReg(cv, fg.g.res.ExprTypes[e]), nil
	}
	switch n := e.(type) {
	case *ast.IdentifierExpr:
		sym, ok := fg.g.res.IdentSymbols[n]
		if !ok {
			return RegRef{}, genErrorf("bytecode: unresolved identifier %s", n.Name)
		}
		return fg.regOf(sym), nil
	case *ast.BinaryExpr:
		return fg.genBinary(n)
	case *ast.UnaryExpr:
		return fg.genUnary(n)
	case *ast.ConditionalExpr:
		return fg.genConditional(n)
	case *ast.CallExpr:
		return fg.genCall(n)
	case *ast.MemberExpr:
		return fg.genMember(n)
	case *ast.IndexExpr:
		return fg.genIndex(n)
	case *ast.ConstructExpr:
		target := fg.g.res.ExprTypes[n]
		return fg.genConstructArgs(target, n.Args, nil)
	case *ast.VectorLiteralExpr:
		target := fg.g.res.ExprTypes[n]
		return fg.genConstructArgs(target, n.Elements, nil)
	case *ast.DictLiteralExpr:
		target := fg.g.res.ExprTypes[n]
		args := make([]ast.Expr, len(n.Entries))
		keys := make([]string, len(n.Entries))
		for i, ent := range n.Entries {
			args[i] = ent.Value
			keys[i] = ent.Key
		}
		return fg.genConstructArgs(target, args, keys)
	default:
		return RegRef{}, genErrorf("bytecode: unhandled expression %T", e)
	}
}

func binaryOpcode(tt lexer.TokenType) (Opcode, bool) {
	switch tt {
	case lexer.TokenPlus:
		return OpArithAdd, true
	case lexer.TokenMinus:
		return OpArithSubtract, true
	case lexer.TokenStar:
		return OpArithMultiply, true
	case lexer.TokenSlash:
		return OpArithDivide, true
	case lexer.TokenPercent:
		return OpArithRemainder, true
	case lexer.TokenEqual:
		return OpLogicalEqual, true
	case lexer.TokenNotEqual:
		return OpLogicalNotEqual, true
	case lexer.TokenLess:
		return OpCmpLess, true
	case lexer.TokenLessEqual:
		return OpCmpLessEqual, true
	case lexer.TokenGreater:
		return OpCmpGreater, true
	case lexer.TokenGreaterEqual:
		return OpCmpGreaterEqual, true
	case lexer.TokenAnd:
		return OpLogicalAnd, true
	case lexer.TokenOr:
		return OpLogicalOr, true
	default:
		return 0, false
	}
}

func (fg *funcGen) genBinary(e *ast.BinaryExpr) (RegRef, error) {
	lReg, err := fg.genExpr(e.Left)
	if err != nil {
		return RegRef{}, err
	}
	rReg, err := fg.genExpr(e.Right)
	if err != nil {
		return RegRef{}, err
	}
	op, ok := binaryOpcode(e.Operator.Type)
	if !ok {
		return RegRef{}, genErrorf("bytecode: unknown binary operator %s", e.Operator.Lexeme)
	}
	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	fg.emit(op, dest, lReg, rReg, 0)
	return dest, nil
}

func (fg *funcGen) genUnary(e *ast.UnaryExpr) (RegRef, error) {
	operandReg, err := fg.genExpr(e.Operand)
	if err != nil {
		return RegRef{}, err
	}
	var op Opcode
	switch e.Operator.Type {
	case lexer.TokenMinus:
		op = OpUnaryNegate
	case lexer.TokenNot:
		op = OpUnaryNot
	default:
		return RegRef{}, genErrorf("bytecode: unknown unary operator %s", e.Operator.Lexeme)
	}
	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	fg.emit(op, dest, operandReg, RegRef{}, 0)
	return dest, nil
}

func (fg *funcGen) genConditional(e *ast.ConditionalExpr) (RegRef, error) {
	condReg, err := fg.genExpr(e.Cond)
	if err != nil {
		return RegRef{}, err
	}
	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	bz := fg.emit(OpBranchZero, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.instrs[bz].Reg1 = condReg

	thenReg, err := fg.genExpr(e.Then)
	if err != nil {
		return RegRef{}, err
	}
	fg.emit(OpStoreResolve, dest, thenReg, RegRef{}, 0)
	j := fg.emit(OpJump, RegRef{}, RegRef{}, RegRef{}, 0)
	fg.patchBranchZero(bz)

	elseReg, err := fg.genExpr(e.Else)
	if err != nil {
		return RegRef{}, err
	}
	fg.emit(OpStoreResolve, dest, elseReg, RegRef{}, 0)
	fg.patchJump(j)
	return dest, nil
}

// genCall lowers a call to either a struct construction (per
// ConstructCalls) or a statically-resolved function/host-function call,
// per the push-then-call convention documented in instruction.go.
func (fg *funcGen) genCall(e *ast.CallExpr) (RegRef, error) {
	if st, ok := fg.g.res.ConstructCalls[e]; ok {
		return fg.genConstructArgs(st, e.Args, nil)
	}
	ident, ok := e.Callee.(*ast.IdentifierExpr)
	if !ok {
		return RegRef{}, genErrorf("bytecode: call target must be a name")
	}

	var paramTypes []*types.TypeID
	funcID, known := fg.g.funcIDs[ident.Name]
	if !known {
		return RegRef{}, genErrorf("bytecode: call to unresolved function %q", ident.Name)
	}
	if fi, ok := fg.g.res.Funcs[ident.Name]; ok {
		paramTypes = fi.Type.Args
	} else if hf, ok := fg.g.res.HostFuncs[ident.Name]; ok {
		paramTypes = hf.Signature.Type.Args
	} else {
		return RegRef{}, genErrorf("bytecode: %q is neither a function nor a host function", ident.Name)
	}

	argRegs := make([]RegRef, len(e.Args))
	for i, a := range e.Args {
		reg, err := fg.genExpr(a)
		if err != nil {
			return RegRef{}, err
		}
		argRegs[i] = reg
	}

	total := 0
	for i, reg := range argRegs {
		if paramTypes[i].Kind == types.KindDynamic {
			typeReg, err := fg.typeIDConstReg(fg.g.res.ExprTypes[e.Args[i]])
			if err != nil {
				return RegRef{}, err
			}
			fg.emit(OpPush, typeReg, RegRef{}, RegRef{}, 0)
			total++
		}
		fg.emit(OpPush, reg, RegRef{}, RegRef{}, 0)
		total++
	}

	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	fg.emit(OpCall, dest, RegRef{Index: int16(funcID)}, RegRef{Index: int16(total)}, 0)
	return dest, nil
}

func (fg *funcGen) genMember(e *ast.MemberExpr) (RegRef, error) {
	objReg, err := fg.genExpr(e.Object)
	if err != nil {
		return RegRef{}, err
	}
	objT := fg.g.res.ExprTypes[e.Object]
	idx := -1
	for i, m := range objT.Members {
		if m.Name == e.Field {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RegRef{}, genErrorf("bytecode: %s has no member %q", objT, e.Field)
	}
	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	fg.emit(OpResolveMember, dest, objReg, RegRef{Index: int16(idx)}, 0)
	return dest, nil
}

func (fg *funcGen) genIndex(e *ast.IndexExpr) (RegRef, error) {
	collReg, err := fg.genExpr(e.Collection)
	if err != nil {
		return RegRef{}, err
	}
	idxReg, err := fg.genExpr(e.Index)
	if err != nil {
		return RegRef{}, err
	}
	_, dest := fg.allocTemp(fg.g.res.ExprTypes[e])
	fg.emit(OpLookupElement, dest, collReg, idxReg, 0)
	return dest, nil
}

// genConstructArgs lowers struct construction, primitive coercion, and
// vector/dict literals: every Floyd form that builds one new ext value
// from a fixed, push-ordered argument list.
func (fg *funcGen) genConstructArgs(target *types.TypeID, args []ast.Expr, keys []string) (RegRef, error) {
	argRegs := make([]RegRef, len(args))
	for i, a := range args {
		reg, err := fg.genExpr(a)
		if err != nil {
			return RegRef{}, err
		}
		argRegs[i] = reg
	}
	for _, reg := range argRegs {
		fg.emit(OpPush, reg, RegRef{}, RegRef{}, 0)
	}
	idx, err := fg.g.prog.Types.Intern(target)
	if err != nil {
		return RegRef{}, err
	}
	_, dest := fg.allocTemp(target)
	ci := fg.emit(OpConstructValue, dest, RegRef{}, RegRef{Index: int16(len(args))}, idx)
	if keys != nil {
		fg.instrs[ci].Keys = keys
	}
	return dest, nil
}
