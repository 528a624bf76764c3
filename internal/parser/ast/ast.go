// Package ast defines Floyd's untyped abstract syntax tree: what the
// parser produces and what pass-2/pass-3 (internal/semantic) consume.
//
// DESIGN PHILOSOPHY:
// - Expr/Stmt are separate interfaces (expressions produce values,
//   statements don't).
// - Visitor pattern for traversal, so adding an operation (printer,
//   resolver, type-checker) never touches the node definitions.
// - Every node carries its own source position for error reporting.
package ast

import (
	"github.com/lineCode/floyd/internal/lexer"
)

// Node is the base interface every AST node implements.
type Node interface {
	Pos() lexer.Position
	End() lexer.Position
}

// Expr is the interface for expression nodes — anything that produces a
// value (a literal, an arithmetic expression, a function call, ...).
type Expr interface {
	Node
	Accept(v Visitor) (interface{}, error)
	exprNode()
}

// Stmt is the interface for statement nodes — anything that performs an
// action without itself producing a value.
type Stmt interface {
	Node
	Accept(v Visitor) error
	stmtNode()
}

// Visitor is the AST traversal interface. Each concrete pass
// (internal/semantic's resolver/checker, internal/bytecode's generator)
// implements this once instead of type-switching at every call site.
type Visitor interface {
	// Expressions
	VisitLiteralExpr(e *LiteralExpr) (interface{}, error)
	VisitIdentifierExpr(e *IdentifierExpr) (interface{}, error)
	VisitBinaryExpr(e *BinaryExpr) (interface{}, error)
	VisitUnaryExpr(e *UnaryExpr) (interface{}, error)
	VisitConditionalExpr(e *ConditionalExpr) (interface{}, error)
	VisitCallExpr(e *CallExpr) (interface{}, error)
	VisitMemberExpr(e *MemberExpr) (interface{}, error)
	VisitIndexExpr(e *IndexExpr) (interface{}, error)
	VisitConstructExpr(e *ConstructExpr) (interface{}, error)
	VisitVectorLiteralExpr(e *VectorLiteralExpr) (interface{}, error)
	VisitDictLiteralExpr(e *DictLiteralExpr) (interface{}, error)

	// Statements
	VisitExprStmt(s *ExprStmt) error
	VisitBlockStmt(s *BlockStmt) error
	VisitIfStmt(s *IfStmt) error
	VisitWhileStmt(s *WhileStmt) error
	VisitForStmt(s *ForStmt) error
	VisitReturnStmt(s *ReturnStmt) error
	VisitBindStmt(s *BindStmt) error
	VisitAssignStmt(s *AssignStmt) error
	VisitStructDefStmt(s *StructDefStmt) error
	VisitFuncDefStmt(s *FuncDefStmt) error
}

// File is the root of one compiled source file: a flat sequence of
// top-level statements (binds, struct/function definitions, and bare
// expression statements — Floyd has no package/import system, so
// there's nothing above this list).
type File struct {
	Filename   string
	Statements []Stmt
}

// BaseNode provides Pos/End for nodes whose span is just
// [StartPos, EndPos] with nothing to compute.
type BaseNode struct {
	StartPos lexer.Position
	EndPos   lexer.Position
}

func (b *BaseNode) Pos() lexer.Position { return b.StartPos }
func (b *BaseNode) End() lexer.Position { return b.EndPos }
