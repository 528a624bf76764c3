package ast

import (
	"strconv"
	"strings"
)

// Emit renders a node back to Floyd surface syntax. The output is
// canonical rather than lossless — one statement per line, one space
// around binary operators, no comments — but parses back to an
// equivalent tree, which is what makes it usable both as a debug dump
// and as the round-trip oracle the parser tests rely on.
func Emit(node Node) string {
	var b strings.Builder
	emitNode(&b, node, 0)
	return b.String()
}

// EmitFile renders every top-level statement of a file.
func EmitFile(f *File) string {
	var b strings.Builder
	for _, stmt := range f.Statements {
		emitNode(&b, stmt, 0)
		b.WriteByte('\n')
	}
	return b.String()
}

func emitNode(b *strings.Builder, node Node, depth int) {
	switch n := node.(type) {
	case Expr:
		emitExpr(b, n)
	case Stmt:
		emitStmt(b, n, depth)
	case TypeExpr:
		emitType(b, n)
	}
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteByte('\t')
	}
}

func emitStmt(b *strings.Builder, stmt Stmt, depth int) {
	indent(b, depth)
	switch s := stmt.(type) {
	case *ExprStmt:
		emitExpr(b, s.Expression)
		b.WriteByte(';')
	case *BlockStmt:
		emitBlock(b, s, depth)
	case *IfStmt:
		b.WriteString("if (")
		emitExpr(b, s.Condition)
		b.WriteString(") ")
		emitBlock(b, s.ThenBranch, depth)
		if s.ElseBranch != nil {
			b.WriteString(" else ")
			if elseIf, ok := s.ElseBranch.(*IfStmt); ok {
				// Chain else-if on the same line; emitStmt would re-indent.
				inner := Emit(elseIf)
				b.WriteString(strings.TrimLeft(inner, "\t"))
			} else {
				emitBlock(b, s.ElseBranch.(*BlockStmt), depth)
			}
		}
	case *WhileStmt:
		b.WriteString("while (")
		emitExpr(b, s.Condition)
		b.WriteString(") ")
		emitBlock(b, s.Body, depth)
	case *ForStmt:
		b.WriteString("for (")
		b.WriteString(s.VarName)
		b.WriteString(" in ")
		emitExpr(b, s.Start)
		b.WriteString(" ... ")
		emitExpr(b, s.EndExpr)
		b.WriteString(") ")
		emitBlock(b, s.Body, depth)
	case *ReturnStmt:
		b.WriteString("return ")
		emitExpr(b, s.Value)
		b.WriteByte(';')
	case *BindStmt:
		if s.Mutable {
			b.WriteString("mutable ")
		}
		emitType(b, s.Type)
		b.WriteByte(' ')
		b.WriteString(s.Name)
		b.WriteString(" = ")
		emitExpr(b, s.Value)
		b.WriteByte(';')
	case *AssignStmt:
		b.WriteString(s.Name)
		b.WriteString(" = ")
		emitExpr(b, s.Value)
		b.WriteByte(';')
	case *StructDefStmt:
		b.WriteString("struct ")
		b.WriteString(s.Name)
		b.WriteString(" {\n")
		for _, m := range s.Members {
			indent(b, depth+1)
			emitType(b, m.Type)
			b.WriteByte(' ')
			b.WriteString(m.Name)
			b.WriteString(";\n")
		}
		indent(b, depth)
		b.WriteByte('}')
	case *FuncDefStmt:
		emitType(b, s.ReturnType)
		b.WriteByte(' ')
		b.WriteString(s.Name)
		b.WriteByte('(')
		for i, p := range s.Params {
			if i > 0 {
				b.WriteString(", ")
			}
			emitType(b, p.Type)
			b.WriteByte(' ')
			b.WriteString(p.Name)
		}
		b.WriteString(") ")
		emitBlock(b, s.Body, depth)
	}
}

func emitBlock(b *strings.Builder, block *BlockStmt, depth int) {
	b.WriteString("{\n")
	for _, s := range block.Statements {
		emitStmt(b, s, depth+1)
		b.WriteByte('\n')
	}
	indent(b, depth)
	b.WriteByte('}')
}

func emitType(b *strings.Builder, te TypeExpr) {
	switch t := te.(type) {
	case *NamedTypeExpr:
		b.WriteString(t.Name)
	case *VectorTypeExpr:
		b.WriteByte('[')
		emitType(b, t.Element)
		b.WriteByte(']')
	case *DictTypeExpr:
		b.WriteString("[string:")
		emitType(b, t.Value)
		b.WriteByte(']')
	}
}

// emitExpr fully parenthesizes nested binary/conditional operands
// instead of re-deriving the precedence table: the output stays
// unambiguous under any reading, and round-tripping only has to
// preserve structure, not spelling.
func emitExpr(b *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case *LiteralExpr:
		emitLiteral(b, e.Value)
	case *IdentifierExpr:
		b.WriteString(e.Name)
	case *BinaryExpr:
		b.WriteByte('(')
		emitExpr(b, e.Left)
		b.WriteByte(' ')
		b.WriteString(e.Operator.Lexeme)
		b.WriteByte(' ')
		emitExpr(b, e.Right)
		b.WriteByte(')')
	case *UnaryExpr:
		b.WriteString(e.Operator.Lexeme)
		b.WriteByte('(')
		emitExpr(b, e.Operand)
		b.WriteByte(')')
	case *ConditionalExpr:
		b.WriteByte('(')
		emitExpr(b, e.Cond)
		b.WriteString(" ? ")
		emitExpr(b, e.Then)
		b.WriteString(" : ")
		emitExpr(b, e.Else)
		b.WriteByte(')')
	case *CallExpr:
		emitExpr(b, e.Callee)
		emitArgs(b, e.Args)
	case *MemberExpr:
		emitExpr(b, e.Object)
		b.WriteByte('.')
		b.WriteString(e.Field)
	case *IndexExpr:
		emitExpr(b, e.Collection)
		b.WriteByte('[')
		emitExpr(b, e.Index)
		b.WriteByte(']')
	case *ConstructExpr:
		emitType(b, e.Type)
		emitArgs(b, e.Args)
	case *VectorLiteralExpr:
		b.WriteByte('[')
		for i, el := range e.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			emitExpr(b, el)
		}
		b.WriteByte(']')
	case *DictLiteralExpr:
		b.WriteByte('{')
		for i, ent := range e.Entries {
			if i > 0 {
				b.WriteString(", ")
			}
			emitLiteral(b, ent.Key)
			b.WriteByte(':')
			emitExpr(b, ent.Value)
		}
		b.WriteByte('}')
	}
}

func emitArgs(b *strings.Builder, args []Expr) {
	b.WriteByte('(')
	for i, arg := range args {
		if i > 0 {
			b.WriteString(", ")
		}
		emitExpr(b, arg)
	}
	b.WriteByte(')')
}

func emitLiteral(b *strings.Builder, v interface{}) {
	switch lit := v.(type) {
	case bool:
		b.WriteString(strconv.FormatBool(lit))
	case int64:
		b.WriteString(strconv.FormatInt(lit, 10))
	case float64:
		s := strconv.FormatFloat(lit, 'g', -1, 64)
		// A whole float like 3.0 formats as "3", which would reparse as
		// an int; keep the lexeme in float territory.
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		b.WriteString(s)
	case string:
		b.WriteByte('"')
		for _, r := range lit {
			switch r {
			case '\n':
				b.WriteString(`\n`)
			case '\t':
				b.WriteString(`\t`)
			case '\r':
				b.WriteString(`\r`)
			case '"':
				b.WriteString(`\"`)
			case '\\':
				b.WriteString(`\\`)
			default:
				b.WriteRune(r)
			}
		}
		b.WriteByte('"')
	}
}
