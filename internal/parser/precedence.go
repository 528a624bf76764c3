package parser

import (
	"github.com/lineCode/floyd/internal/lexer"
)

// Precedence represents operator precedence levels, lowest to highest:
// postfix access binds tightest, the conditional operator loosest (and
// is the only right-associative operator — Floyd has no assignment
// expression and no exponentiation operator, the usual other
// right-associative cases).
type Precedence int

const (
	PrecNone Precedence = iota
	PrecConditional // ?: (lowest, right-associative)
	PrecOr          // ||
	PrecAnd         // &&
	PrecEquality    // ==, !=
	PrecRelational  // <, <=, >, >=
	PrecTerm        // +, -
	PrecFactor      // *, /, %
	PrecUnary       // unary -, !
	PrecCall        // ., [], ()
	PrecPrimary     // literals, identifiers, parenthesized expressions
)

// getPrecedence returns the binding power of a binary operator token,
// PrecCall for the postfix openers . [ ( (parsePostfix consumes those
// before parseBinaryExpr's precedence-climbing loop sees a token), and
// PrecNone for anything else (that loop stops there).
func getPrecedence(tokenType lexer.TokenType) Precedence {
	switch tokenType {
	case lexer.TokenOr:
		return PrecOr
	case lexer.TokenAnd:
		return PrecAnd
	case lexer.TokenEqual, lexer.TokenNotEqual:
		return PrecEquality
	case lexer.TokenLess, lexer.TokenLessEqual, lexer.TokenGreater, lexer.TokenGreaterEqual:
		return PrecRelational
	case lexer.TokenPlus, lexer.TokenMinus:
		return PrecTerm
	case lexer.TokenStar, lexer.TokenSlash, lexer.TokenPercent:
		return PrecFactor
	case lexer.TokenDot, lexer.TokenLeftBracket, lexer.TokenLeftParen:
		return PrecCall
	default:
		return PrecNone
	}
}
