package ast

import (
	"github.com/lineCode/floyd/internal/lexer"
)

// TypeExpr is a type as written in source, before pass-2 resolves named
// (struct) types against their declarations and turns this into a
// internal/types.TypeID.
//
// DESIGN CHOICE: a small interface with three implementations rather
// than folding type syntax into Expr — Floyd's type grammar (a
// primitive keyword, a named struct, `[T]` for a vector, `[string:V]`
// for a dict) never needs operators, calls, or any of Expr's machinery,
// so giving it its own minimal interface keeps the parser's
// type-or-statement lookahead (see internal/parser) simple: it only
// ever has to parse one of these three shapes, never a general
// expression.
type TypeExpr interface {
	Node
	typeExprNode()
}

// NamedTypeExpr is a primitive type keyword (int, float, bool, string,
// json_value, typeid, void) or a struct name.
type NamedTypeExpr struct {
	Token lexer.Token
	Name  string
}

func (n *NamedTypeExpr) Pos() lexer.Position { return n.Token.Position }
func (n *NamedTypeExpr) End() lexer.Position { return n.Token.Span().End }
func (n *NamedTypeExpr) typeExprNode()       {}

// VectorTypeExpr is `[ElementType]`.
type VectorTypeExpr struct {
	Element   TypeExpr
	StartPos  lexer.Position
	RBrackPos lexer.Position
}

func (v *VectorTypeExpr) Pos() lexer.Position { return v.StartPos }
func (v *VectorTypeExpr) End() lexer.Position { return v.RBrackPos }
func (v *VectorTypeExpr) typeExprNode()       {}

// DictTypeExpr is `[string:ValueType]`.
type DictTypeExpr struct {
	Value     TypeExpr
	StartPos  lexer.Position
	RBrackPos lexer.Position
}

func (d *DictTypeExpr) Pos() lexer.Position { return d.StartPos }
func (d *DictTypeExpr) End() lexer.Position { return d.RBrackPos }
func (d *DictTypeExpr) typeExprNode()       {}
