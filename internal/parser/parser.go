// Package parser implements a recursive-descent, precedence-climbing
// parser for Floyd's C-like surface grammar, producing the untyped AST
// defined in internal/parser/ast.
//
// DESIGN CHOICE: Floyd's compile pipeline is fail-fast end to
// end (see internal/lexer's doc comment) — ParseFile returns the first
// syntax error it hits rather than collecting a batch and
// synchronizing to the next statement boundary. There is no
// synchronize() here and no []error return; one bad token stops the
// parse.
//
// Floyd has no nested function definitions and no expression-level
// assignment, so the one genuinely hard problem a C-like recursive
// descent parser usually has — "does this token start a declaration or
// a statement?" — reduces to bounded lookahead instead of requiring
// backtracking: a statement is type-led (a bind or a function/struct
// definition) if it starts with a type keyword, `mutable`, `struct`, a
// `[` (a vector/dict type), or two identifiers in a row (a struct type
// name followed by the bound name). Everything else is an assignment,
// a bare call, or a control statement. See parseStmt.
package parser

import (
	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/lexer"
	"github.com/lineCode/floyd/internal/parser/ast"
)

// Parser turns a token stream into an ast.File.
type Parser struct {
	lex     *lexer.Lexer
	current lexer.Token
	next    *lexer.Token // one token of lookahead beyond current, lazily filled
}

// New creates a Parser over source, priming it with the first token.
func New(source, filename string) (*Parser, error) {
	p := &Parser{lex: lexer.New(source, filename)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseFile parses an entire source file: a flat sequence of top-level
// statements. Floyd has no package or import declarations, so there is
// nothing to consume before the statement loop.
func ParseFile(source, filename string) (*ast.File, error) {
	p, err := New(source, filename)
	if err != nil {
		return nil, err
	}
	file := &ast.File{Filename: filename}
	for !p.atEnd() {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		file.Statements = append(file.Statements, stmt)
	}
	return file, nil
}

// --- token plumbing -------------------------------------------------

// advance shifts current to the next token, lexing it if it wasn't
// already buffered by peek.
func (p *Parser) advance() error {
	if p.next != nil {
		p.current = *p.next
		p.next = nil
		return nil
	}
	tok, err := p.lex.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

// peek returns the token after current without consuming it, buffering
// it in p.next so the following advance() is free.
func (p *Parser) peek() (lexer.Token, error) {
	if p.next == nil {
		tok, err := p.lex.NextToken()
		if err != nil {
			return lexer.Token{}, err
		}
		p.next = &tok
	}
	return *p.next, nil
}

func (p *Parser) atEnd() bool {
	return p.current.Type == lexer.TokenEOF
}

func (p *Parser) check(tt lexer.TokenType) bool {
	return p.current.Type == tt
}

// match consumes current and reports true if it has type tt, otherwise
// leaves current untouched and reports false.
func (p *Parser) match(tt lexer.TokenType) (bool, error) {
	if !p.check(tt) {
		return false, nil
	}
	if err := p.advance(); err != nil {
		return false, err
	}
	return true, nil
}

// consume requires current to have type tt, returning the consumed
// token, or a syntax error naming what was expected.
func (p *Parser) consume(tt lexer.TokenType, context string) (lexer.Token, error) {
	if !p.check(tt) {
		return lexer.Token{}, p.errorf("expected %s in %s, found %s", tt, context, p.current)
	}
	tok := p.current
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	return errors.Wrapf(errors.Errorf(format, args...), "%s", p.current.Position.String())
}

// --- statements -------------------------------------------------------

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch {
	case p.check(lexer.TokenIf):
		return p.parseIfStmt()
	case p.check(lexer.TokenWhile):
		return p.parseWhileStmt()
	case p.check(lexer.TokenFor):
		return p.parseForStmt()
	case p.check(lexer.TokenReturn):
		return p.parseReturnStmt()
	case p.check(lexer.TokenStruct):
		return p.parseStructDefStmt()
	case p.current.Type.IsTypeLedStart() || p.check(lexer.TokenLeftBracket):
		return p.parseTypeLedStmt()
	case p.check(lexer.TokenIdentifier):
		return p.parseIdentifierLedStmt()
	default:
		return nil, p.errorf("expected statement, found %s", p.current)
	}
}

// parseIdentifierLedStmt disambiguates, with one token of extra
// lookahead, between a type-led statement whose type is a struct name
// (`pixel p = ...;`), an assignment (`x = ...;`), and a bare call
// expression statement (`print(x);`).
func (p *Parser) parseIdentifierLedStmt() (ast.Stmt, error) {
	la, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch la.Type {
	case lexer.TokenIdentifier:
		return p.parseTypeLedStmt()
	case lexer.TokenAssign:
		return p.parseAssignStmt()
	default:
		return p.parseExprStmt()
	}
}

// parseTypeLedStmt parses the common prefix of BindStmt and
// FuncDefStmt — `[mutable] TYPE NAME` — then dispatches on whether a
// `(` follows.
func (p *Parser) parseTypeLedStmt() (ast.Stmt, error) {
	mutable, err := p.match(lexer.TokenMutable)
	if err != nil {
		return nil, err
	}
	typeExpr, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	nameTok, err := p.consume(lexer.TokenIdentifier, "declaration")
	if err != nil {
		return nil, err
	}
	if p.check(lexer.TokenLeftParen) {
		if mutable {
			return nil, p.errorf("function definitions cannot be declared mutable")
		}
		return p.parseFuncDefStmt(typeExpr, nameTok.Lexeme)
	}
	if _, err := p.consume(lexer.TokenAssign, "bind statement"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenSemicolon, "bind statement"); err != nil {
		return nil, err
	}
	return &ast.BindStmt{Type: typeExpr, Name: nameTok.Lexeme, Value: value, Mutable: mutable}, nil
}

func (p *Parser) parseFuncDefStmt(returnType ast.TypeExpr, name string) (ast.Stmt, error) {
	if _, err := p.consume(lexer.TokenLeftParen, "function parameters"); err != nil {
		return nil, err
	}
	var params []ast.FuncParam
	for !p.check(lexer.TokenRightParen) {
		pt, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		pn, err := p.consume(lexer.TokenIdentifier, "parameter")
		if err != nil {
			return nil, err
		}
		params = append(params, ast.FuncParam{Type: pt, Name: pn.Lexeme})
		if ok, err := p.match(lexer.TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	if _, err := p.consume(lexer.TokenRightParen, "function parameters"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}
	return &ast.FuncDefStmt{ReturnType: returnType, Name: name, Params: params, Body: body}, nil
}

func (p *Parser) parseStructDefStmt() (ast.Stmt, error) {
	structPos := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	name, err := p.consume(lexer.TokenIdentifier, "struct definition")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftBrace, "struct body"); err != nil {
		return nil, err
	}
	var members []ast.StructMemberDecl
	for !p.check(lexer.TokenRightBrace) {
		mt, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		mn, err := p.consume(lexer.TokenIdentifier, "struct member")
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenSemicolon, "struct member"); err != nil {
			return nil, err
		}
		members = append(members, ast.StructMemberDecl{Type: mt, Name: mn.Lexeme})
	}
	rbrace, err := p.consume(lexer.TokenRightBrace, "struct body")
	if err != nil {
		return nil, err
	}
	return &ast.StructDefStmt{StructPos: structPos, Name: name.Lexeme, Members: members, RBracePos: rbrace.Position}, nil
}

func (p *Parser) parseAssignStmt() (ast.Stmt, error) {
	nameTok := p.current
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenAssign, "assignment"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenSemicolon, "assignment"); err != nil {
		return nil, err
	}
	return &ast.AssignStmt{NameToken: nameTok, Name: nameTok.Lexeme, Value: value}, nil
}

func (p *Parser) parseExprStmt() (ast.Stmt, error) {
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenSemicolon, "expression statement"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Expression: expr}, nil
}

func (p *Parser) parseBlockStmt() (*ast.BlockStmt, error) {
	lbrace, err := p.consume(lexer.TokenLeftBrace, "block")
	if err != nil {
		return nil, err
	}
	var stmts []ast.Stmt
	for !p.check(lexer.TokenRightBrace) {
		if p.atEnd() {
			return nil, p.errorf("unterminated block starting at %s", lbrace.Position)
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	rbrace, err := p.consume(lexer.TokenRightBrace, "block")
	if err != nil {
		return nil, err
	}
	return &ast.BlockStmt{LeftBrace: lbrace, Statements: stmts, RightBrace: rbrace}, nil
}

func (p *Parser) parseIfStmt() (ast.Stmt, error) {
	ifPos := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftParen, "if condition"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRightParen, "if condition"); err != nil {
		return nil, err
	}
	then, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}
	stmt := &ast.IfStmt{IfPos: ifPos, Condition: cond, ThenBranch: then}
	if ok, err := p.match(lexer.TokenElse); err != nil {
		return nil, err
	} else if ok {
		if p.check(lexer.TokenIf) {
			elseIf, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			stmt.ElseBranch = elseIf
		} else {
			elseBlock, err := p.parseBlockStmt()
			if err != nil {
				return nil, err
			}
			stmt.ElseBranch = elseBlock
		}
	}
	return stmt, nil
}

func (p *Parser) parseWhileStmt() (ast.Stmt, error) {
	whilePos := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftParen, "while condition"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRightParen, "while condition"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}
	return &ast.WhileStmt{WhilePos: whilePos, Condition: cond, Body: body}, nil
}

// parseForStmt parses Floyd's bounded counting loop:
// `for (NAME in START ... END) { ... }`. There is no C-style
// init/cond/post form in the grammar.
func (p *Parser) parseForStmt() (ast.Stmt, error) {
	forPos := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenLeftParen, "for loop"); err != nil {
		return nil, err
	}
	nameTok, err := p.consume(lexer.TokenIdentifier, "for loop variable")
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeWord("in", "for loop"); err != nil {
		return nil, err
	}
	start, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consumeWord("...", "for loop range"); err != nil {
		return nil, err
	}
	end, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenRightParen, "for loop"); err != nil {
		return nil, err
	}
	body, err := p.parseBlockStmt()
	if err != nil {
		return nil, err
	}
	return &ast.ForStmt{ForPos: forPos, VarName: nameTok.Lexeme, Start: start, EndExpr: end, Body: body}, nil
}

// consumeWord matches a pseudo-keyword lexeme carried as a plain
// identifier or operator run (`in`, `...`) rather than a dedicated
// token — the for-loop is Floyd's only construct that needs either,
// so the lexer doesn't reserve tokens for them.
func (p *Parser) consumeWord(word, context string) (lexer.Token, error) {
	if word == "..." {
		// Lexed as three consecutive TokenDot tokens.
		start := p.current
		for i := 0; i < 3; i++ {
			if _, err := p.consume(lexer.TokenDot, context); err != nil {
				return lexer.Token{}, err
			}
		}
		return start, nil
	}
	if p.current.Type != lexer.TokenIdentifier || p.current.Lexeme != word {
		return lexer.Token{}, p.errorf("expected %q in %s, found %s", word, context, p.current)
	}
	tok := p.current
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) parseReturnStmt() (ast.Stmt, error) {
	returnPos := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenSemicolon, "return statement"); err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{ReturnPos: returnPos, Value: value}, nil
}

// --- type expressions -------------------------------------------------

func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	switch {
	case p.current.Type.IsTypeKeyword() || p.check(lexer.TokenIdentifier):
		tok := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NamedTypeExpr{Token: tok, Name: tok.Lexeme}, nil
	case p.check(lexer.TokenLeftBracket):
		return p.parseBracketTypeExpr()
	default:
		return nil, p.errorf("expected a type, found %s", p.current)
	}
}

// parseBracketTypeExpr parses `[T]` (vector) or `[string:V]` (dict).
// The two are distinguished by whether the `string` keyword is
// immediately followed by `:` — an ordinary `[string]` (vector of
// strings) does not have a colon after it.
func (p *Parser) parseBracketTypeExpr() (ast.TypeExpr, error) {
	start := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.check(lexer.TokenKwString) {
		la, err := p.peek()
		if err != nil {
			return nil, err
		}
		if la.Type == lexer.TokenColon {
			if err := p.advance(); err != nil { // consume 'string'
				return nil, err
			}
			if _, err := p.consume(lexer.TokenColon, "dict type"); err != nil {
				return nil, err
			}
			value, err := p.parseTypeExpr()
			if err != nil {
				return nil, err
			}
			rbrack, err := p.consume(lexer.TokenRightBracket, "dict type")
			if err != nil {
				return nil, err
			}
			return &ast.DictTypeExpr{Value: value, StartPos: start, RBrackPos: rbrack.Position}, nil
		}
	}
	element, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	rbrack, err := p.consume(lexer.TokenRightBracket, "vector type")
	if err != nil {
		return nil, err
	}
	return &ast.VectorTypeExpr{Element: element, StartPos: start, RBrackPos: rbrack.Position}, nil
}

// --- expressions: precedence climbing ----------------------------------

// parseExpression parses a full expression, including the
// right-associative conditional operator, which sits below every
// binary operator's precedence.
func (p *Parser) parseExpression() (ast.Expr, error) {
	cond, err := p.parseBinaryExpr(PrecOr)
	if err != nil {
		return nil, err
	}
	ok, err := p.match(lexer.TokenQuestion)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cond, nil
	}
	then, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(lexer.TokenColon, "conditional expression"); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpr{Cond: cond, Then: then, Else: elseExpr}, nil
}

// parseBinaryExpr implements precedence climbing: it parses a unary
// expression, then repeatedly consumes binary operators whose
// precedence is at least minPrec, recursing at precedence+1 for the
// right-hand side (every binary operator in Floyd is left-associative).
func (p *Parser) parseBinaryExpr(minPrec Precedence) (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		prec := getPrecedence(p.current.Type)
		if prec == PrecNone || prec < minPrec {
			return left, nil
		}
		op := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinaryExpr(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if p.check(lexer.TokenMinus) || p.check(lexer.TokenNot) {
		op := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Operator: op, Operand: operand}, nil
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by zero or more
// `.field`, `[index]`, `(args)` suffixes, all at PrecCall.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.check(lexer.TokenDot):
			if err := p.advance(); err != nil {
				return nil, err
			}
			field, err := p.consume(lexer.TokenIdentifier, "member access")
			if err != nil {
				return nil, err
			}
			expr = &ast.MemberExpr{Object: expr, Field: field.Lexeme, EndPos: field.Span().End}
		case p.check(lexer.TokenLeftBracket):
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			rbrack, err := p.consume(lexer.TokenRightBracket, "index expression")
			if err != nil {
				return nil, err
			}
			expr = &ast.IndexExpr{Collection: expr, Index: index, EndPos: rbrack.Position}
		case p.check(lexer.TokenLeftParen):
			args, rparen, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpr{Callee: expr, Args: args, RParenPos: rparen}
		default:
			return expr, nil
		}
	}
}

// parseArgList parses `(arg, arg, ...)`, assuming current is the
// opening paren.
func (p *Parser) parseArgList() ([]ast.Expr, lexer.Position, error) {
	if _, err := p.consume(lexer.TokenLeftParen, "argument list"); err != nil {
		return nil, lexer.Position{}, err
	}
	var args []ast.Expr
	for !p.check(lexer.TokenRightParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, lexer.Position{}, err
		}
		args = append(args, arg)
		if ok, err := p.match(lexer.TokenComma); err != nil {
			return nil, lexer.Position{}, err
		} else if !ok {
			break
		}
	}
	rparen, err := p.consume(lexer.TokenRightParen, "argument list")
	if err != nil {
		return nil, lexer.Position{}, err
	}
	return args, rparen.Position, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	switch {
	case p.check(lexer.TokenNumber):
		return p.parseNumberLiteral()
	case p.check(lexer.TokenString):
		return p.parseStringLiteral()
	case p.check(lexer.TokenTrue), p.check(lexer.TokenFalse):
		tok := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.LiteralExpr{Token: tok, Value: tok.Type == lexer.TokenTrue}, nil
	case p.check(lexer.TokenIdentifier):
		tok := p.current
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.IdentifierExpr{Token: tok, Name: tok.Lexeme}, nil
	case p.check(lexer.TokenLeftParen):
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(lexer.TokenRightParen, "parenthesized expression"); err != nil {
			return nil, err
		}
		return inner, nil
	case p.check(lexer.TokenLeftBracket):
		return p.parseVectorLiteral()
	case p.check(lexer.TokenLeftBrace):
		return p.parseDictLiteral()
	case p.current.Type.IsTypeKeyword():
		return p.parseConstructExpr()
	default:
		return nil, p.errorf("expected an expression, found %s", p.current)
	}
}

func (p *Parser) parseNumberLiteral() (ast.Expr, error) {
	tok := p.current
	value, err := parseNumberLexeme(tok.Lexeme)
	if err != nil {
		return nil, p.errorf("invalid number literal %q: %v", tok.Lexeme, err)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &ast.LiteralExpr{Token: tok, Value: value}, nil
}

func (p *Parser) parseStringLiteral() (ast.Expr, error) {
	tok := p.current
	value, err := unescapeString(tok.Lexeme)
	if err != nil {
		return nil, p.errorf("invalid string literal: %v", err)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return &ast.LiteralExpr{Token: tok, Value: value}, nil
}

// parseConstructExpr parses a primitive type conversion, e.g.
// `string(x)`, `int(f)`, `json_value(s)` — the surface form of the
// closed coercion table. Struct construction (`pixel("red")`) instead
// parses as an ordinary CallExpr with an IdentifierExpr callee, since
// a struct name is lexically a plain identifier: pass-2 rewrites it
// into a construction once it resolves the callee to a type rather
// than a function.
func (p *Parser) parseConstructExpr() (ast.Expr, error) {
	typeExpr, err := p.parseTypeExpr()
	if err != nil {
		return nil, err
	}
	args, rparen, err := p.parseArgList()
	if err != nil {
		return nil, err
	}
	return &ast.ConstructExpr{Type: typeExpr, Args: args, RParenPos: rparen}, nil
}

func (p *Parser) parseVectorLiteral() (ast.Expr, error) {
	start := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	var elements []ast.Expr
	for !p.check(lexer.TokenRightBracket) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, e)
		if ok, err := p.match(lexer.TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	rbrack, err := p.consume(lexer.TokenRightBracket, "vector literal")
	if err != nil {
		return nil, err
	}
	return &ast.VectorLiteralExpr{Elements: elements, StartPos: start, RBrackPos: rbrack.Position}, nil
}

func (p *Parser) parseDictLiteral() (ast.Expr, error) {
	start := p.current.Position
	if err := p.advance(); err != nil {
		return nil, err
	}
	var entries []ast.DictEntry
	for !p.check(lexer.TokenRightBrace) {
		keyTok, err := p.consume(lexer.TokenString, "dict literal key")
		if err != nil {
			return nil, err
		}
		key, err := unescapeString(keyTok.Lexeme)
		if err != nil {
			return nil, p.errorf("invalid dict key: %v", err)
		}
		if _, err := p.consume(lexer.TokenColon, "dict literal"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ast.DictEntry{Key: key, Value: value})
		if ok, err := p.match(lexer.TokenComma); err != nil {
			return nil, err
		} else if !ok {
			break
		}
	}
	rbrace, err := p.consume(lexer.TokenRightBrace, "dict literal")
	if err != nil {
		return nil, err
	}
	return &ast.DictLiteralExpr{Entries: entries, StartPos: start, RBracePos: rbrace.Position}, nil
}
