package ast

import (
	"github.com/lineCode/floyd/internal/lexer"
)

// ExprStmt is an expression used as a statement — in Floyd, typically a
// bare function call (foo();), since assignment is its own statement
// kind (AssignStmt) rather than an expression the way it is in C.
// Neither the parser nor the analyser requires the expression to be a
// call.
type ExprStmt struct {
	Expression Expr
}

func (e *ExprStmt) Pos() lexer.Position { return e.Expression.Pos() }
func (e *ExprStmt) End() lexer.Position { return e.Expression.End() }
func (e *ExprStmt) stmtNode()           {}
func (e *ExprStmt) Accept(v Visitor) error {
	return v.VisitExprStmt(e)
}

// BlockStmt is a brace-delimited sequence of statements. Blocks
// introduce a new lexical scope (enforced during pass-2/pass-3, not
// here) but never a new stack frame — see internal/symtab's FrameLayout.
type BlockStmt struct {
	LeftBrace  lexer.Token
	Statements []Stmt
	RightBrace lexer.Token
}

func (b *BlockStmt) Pos() lexer.Position { return b.LeftBrace.Position }
func (b *BlockStmt) End() lexer.Position { return b.RightBrace.Position }
func (b *BlockStmt) stmtNode()           {}
func (b *BlockStmt) Accept(v Visitor) error {
	return v.VisitBlockStmt(b)
}

// IfStmt is `if (cond) { ... } else { ... }`; ElseBranch is nil, another
// IfStmt (an else-if chain), or a BlockStmt.
type IfStmt struct {
	IfPos      lexer.Position
	Condition  Expr
	ThenBranch *BlockStmt
	ElseBranch Stmt
}

func (s *IfStmt) Pos() lexer.Position { return s.IfPos }
func (s *IfStmt) End() lexer.Position {
	if s.ElseBranch != nil {
		return s.ElseBranch.End()
	}
	return s.ThenBranch.End()
}
func (s *IfStmt) stmtNode() {}
func (s *IfStmt) Accept(v Visitor) error {
	return v.VisitIfStmt(s)
}

// WhileStmt is `while (cond) { ... }`.
type WhileStmt struct {
	WhilePos  lexer.Position
	Condition Expr
	Body      *BlockStmt
}

func (s *WhileStmt) Pos() lexer.Position { return s.WhilePos }
func (s *WhileStmt) End() lexer.Position { return s.Body.End() }
func (s *WhileStmt) stmtNode()           {}
func (s *WhileStmt) Accept(v Visitor) error {
	return v.VisitWhileStmt(s)
}

// ForStmt is Floyd's bounded counting loop: `for (NAME in START ... END) { ... }`.
// Unlike C's three-clause for, Floyd has no general init/cond/post form —
// the loop variable is always an implicitly-declared immutable int
// counting from Start to End inclusive.
type ForStmt struct {
	ForPos   lexer.Position
	VarName  string
	Start    Expr
	EndExpr  Expr
	Body     *BlockStmt
}

func (s *ForStmt) Pos() lexer.Position { return s.ForPos }
func (s *ForStmt) End() lexer.Position { return s.Body.End() }
func (s *ForStmt) stmtNode()           {}
func (s *ForStmt) Accept(v Visitor) error {
	return v.VisitForStmt(s)
}

// ReturnStmt is `return EXPR;`. Floyd has no bare `return;` — every
// function has a declared return type, even `void` functions return a
// value of type void (see internal/semantic).
type ReturnStmt struct {
	ReturnPos lexer.Position
	Value     Expr
}

func (s *ReturnStmt) Pos() lexer.Position { return s.ReturnPos }
func (s *ReturnStmt) End() lexer.Position { return s.Value.End() }
func (s *ReturnStmt) stmtNode()           {}
func (s *ReturnStmt) Accept(v Visitor) error {
	return v.VisitReturnStmt(s)
}

// BindStmt is `TYPE NAME = EXPR;`: introduces a new binding. Whether the
// binding is mutable is a property of the surface syntax the parser
// records here (Mutable), resolved to a symtab.SymbolKind in pass-2.
type BindStmt struct {
	Type    TypeExpr
	Name    string
	Value   Expr
	Mutable bool
}

func (s *BindStmt) Pos() lexer.Position { return s.Type.Pos() }
func (s *BindStmt) End() lexer.Position { return s.Value.End() }
func (s *BindStmt) stmtNode()           {}
func (s *BindStmt) Accept(v Visitor) error {
	return v.VisitBindStmt(s)
}

// AssignStmt is `NAME = EXPR;`, rebinding an existing mutable local.
// Pass-3 rejects this if NAME resolves to an immutable symbol.
type AssignStmt struct {
	NameToken lexer.Token
	Name      string
	Value     Expr
}

func (s *AssignStmt) Pos() lexer.Position { return s.NameToken.Position }
func (s *AssignStmt) End() lexer.Position { return s.Value.End() }
func (s *AssignStmt) stmtNode()           {}
func (s *AssignStmt) Accept(v Visitor) error {
	return v.VisitAssignStmt(s)
}

// StructMemberDecl is one `TYPE NAME;` line inside a struct definition.
type StructMemberDecl struct {
	Type TypeExpr
	Name string
}

// StructDefStmt is `struct NAME { TYPE member; ... }`.
type StructDefStmt struct {
	StructPos  lexer.Position
	Name       string
	Members    []StructMemberDecl
	RBracePos  lexer.Position
}

func (s *StructDefStmt) Pos() lexer.Position { return s.StructPos }
func (s *StructDefStmt) End() lexer.Position { return s.RBracePos }
func (s *StructDefStmt) stmtNode()           {}
func (s *StructDefStmt) Accept(v Visitor) error {
	return v.VisitStructDefStmt(s)
}

// FuncParam is one parameter of a function definition: `TYPE name`.
type FuncParam struct {
	Type TypeExpr
	Name string
}

// FuncDefStmt is `TYPE NAME(params...) { body }`.
type FuncDefStmt struct {
	ReturnType TypeExpr
	Name       string
	Params     []FuncParam
	Body       *BlockStmt
}

func (s *FuncDefStmt) Pos() lexer.Position { return s.ReturnType.Pos() }
func (s *FuncDefStmt) End() lexer.Position { return s.Body.End() }
func (s *FuncDefStmt) stmtNode()           {}
func (s *FuncDefStmt) Accept(v Visitor) error {
	return v.VisitFuncDefStmt(s)
}
