package ast

import (
	"github.com/lineCode/floyd/internal/lexer"
)

// BinaryExpr represents a binary operation: left op right.
// Examples: 2 + 3, x * y, a == b, p && q.
//
// DESIGN CHOICE: one node type for every binary
// operator, distinguished by the operator token, rather than one node
// type per operator — the structure never varies, only the token does.
type BinaryExpr struct {
	Left     Expr
	Operator lexer.Token
	Right    Expr
}

func (b *BinaryExpr) Pos() lexer.Position { return b.Left.Pos() }
func (b *BinaryExpr) End() lexer.Position { return b.Right.End() }
func (b *BinaryExpr) exprNode()           {}
func (b *BinaryExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitBinaryExpr(b)
}

// UnaryExpr represents a prefix unary operation: op operand.
// Floyd only has two unary operators, `-` (negation) and `!` (logical
// not) — there's no increment/decrement or postfix form in the grammar.
type UnaryExpr struct {
	Operator lexer.Token
	Operand  Expr
}

func (u *UnaryExpr) Pos() lexer.Position { return u.Operator.Position }
func (u *UnaryExpr) End() lexer.Position { return u.Operand.End() }
func (u *UnaryExpr) exprNode()           {}
func (u *UnaryExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitUnaryExpr(u)
}

// ConditionalExpr represents Floyd's one ternary operator: cond ? then : else.
// This is the only right-associative operator and sits at the bottom
// of the precedence table (loosest-binding).
type ConditionalExpr struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (c *ConditionalExpr) Pos() lexer.Position { return c.Cond.Pos() }
func (c *ConditionalExpr) End() lexer.Position { return c.Else.End() }
func (c *ConditionalExpr) exprNode()           {}
func (c *ConditionalExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitConditionalExpr(c)
}

// LiteralExpr represents a literal value: an int, a float, a string, or
// a bool. The lexer has already isolated the lexeme; the parser decides
// the Go-side representation (int64, float64, string, or bool) and
// stores it in Value.
//
// DESIGN CHOICE: Value is interface{} rather
// than four separate literal node types, since the lexeme-to-Go-value
// conversion already happened once, in the parser, and nothing else
// needs to distinguish the literal kinds structurally — the concrete
// Go type of Value does that.
type LiteralExpr struct {
	Token lexer.Token
	Value interface{}
}

func (l *LiteralExpr) Pos() lexer.Position { return l.Token.Position }
func (l *LiteralExpr) End() lexer.Position {
	sp := l.Token.Span()
	return sp.End
}
func (l *LiteralExpr) exprNode() {}
func (l *LiteralExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitLiteralExpr(l)
}

// IdentifierExpr represents a bare name reference: a variable, a
// function, or (at parse time only, before pass-2 tells them apart) a
// struct constructor.
type IdentifierExpr struct {
	Token lexer.Token
	Name  string
}

func (i *IdentifierExpr) Pos() lexer.Position { return i.Token.Position }
func (i *IdentifierExpr) End() lexer.Position { return i.Token.Span().End }
func (i *IdentifierExpr) exprNode()           {}
func (i *IdentifierExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitIdentifierExpr(i)
}

// CallExpr represents a function call: callee(args...).
type CallExpr struct {
	Callee    Expr
	Args      []Expr
	RParenPos lexer.Position
}

func (c *CallExpr) Pos() lexer.Position { return c.Callee.Pos() }
func (c *CallExpr) End() lexer.Position { return c.RParenPos }
func (c *CallExpr) exprNode()           {}
func (c *CallExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitCallExpr(c)
}

// MemberExpr represents struct member access: object.field.
type MemberExpr struct {
	Object Expr
	Field  string
	EndPos lexer.Position
}

func (m *MemberExpr) Pos() lexer.Position { return m.Object.Pos() }
func (m *MemberExpr) End() lexer.Position { return m.EndPos }
func (m *MemberExpr) exprNode()           {}
func (m *MemberExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitMemberExpr(m)
}

// IndexExpr represents vector or dict element lookup: collection[index].
type IndexExpr struct {
	Collection Expr
	Index      Expr
	EndPos     lexer.Position
}

func (e *IndexExpr) Pos() lexer.Position { return e.Collection.Pos() }
func (e *IndexExpr) End() lexer.Position { return e.EndPos }
func (e *IndexExpr) exprNode()           {}
func (e *IndexExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitIndexExpr(e)
}

// ConstructExpr represents an explicit value construction call whose
// callee is a primitive type keyword, T(args...): a conversion through
// the closed primitive coercion table (string(123), int(3.9),
// json_value(s)). Struct construction (pixel("red")) does not produce
// this node; it parses as a CallExpr, which the analyser records in its
// ConstructCalls table. Syntactically
// identical to a CallExpr with a type-expression callee, but the parser
// already knows it's a construction (the callee position started a type
// expression, not an identifier expression) so later passes don't have
// to re-derive that from name resolution.
type ConstructExpr struct {
	Type      TypeExpr
	Args      []Expr
	RParenPos lexer.Position
}

func (c *ConstructExpr) Pos() lexer.Position { return c.Type.Pos() }
func (c *ConstructExpr) End() lexer.Position { return c.RParenPos }
func (c *ConstructExpr) exprNode()           {}
func (c *ConstructExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitConstructExpr(c)
}

// VectorLiteralExpr represents a vector literal: [e1, e2, ...].
type VectorLiteralExpr struct {
	Elements  []Expr
	StartPos  lexer.Position
	RBrackPos lexer.Position
}

func (v *VectorLiteralExpr) Pos() lexer.Position { return v.StartPos }
func (v *VectorLiteralExpr) End() lexer.Position { return v.RBrackPos }
func (v *VectorLiteralExpr) exprNode()           {}
func (v *VectorLiteralExpr) Accept(vis Visitor) (interface{}, error) {
	return vis.VisitVectorLiteralExpr(v)
}

// DictEntry is one key:value pair of a dict literal. Floyd dicts always
// key on string, so Key is the raw string rather than an Expr.
type DictEntry struct {
	Key   string
	Value Expr
}

// DictLiteralExpr represents a dict literal: {"k1": v1, "k2": v2}.
type DictLiteralExpr struct {
	Entries   []DictEntry
	StartPos  lexer.Position
	RBracePos lexer.Position
}

func (d *DictLiteralExpr) Pos() lexer.Position { return d.StartPos }
func (d *DictLiteralExpr) End() lexer.Position { return d.RBracePos }
func (d *DictLiteralExpr) exprNode()           {}
func (d *DictLiteralExpr) Accept(v Visitor) (interface{}, error) {
	return v.VisitDictLiteralExpr(d)
}
