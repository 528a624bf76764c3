package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lineCode/floyd/internal/lexer"
)

func TestGetPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		token    lexer.TokenType
		expected Precedence
	}{
		{"logical or", lexer.TokenOr, PrecOr},
		{"logical and", lexer.TokenAnd, PrecAnd},
		{"equal", lexer.TokenEqual, PrecEquality},
		{"not equal", lexer.TokenNotEqual, PrecEquality},
		{"less than", lexer.TokenLess, PrecRelational},
		{"less equal", lexer.TokenLessEqual, PrecRelational},
		{"greater than", lexer.TokenGreater, PrecRelational},
		{"greater equal", lexer.TokenGreaterEqual, PrecRelational},
		{"plus", lexer.TokenPlus, PrecTerm},
		{"minus", lexer.TokenMinus, PrecTerm},
		{"star", lexer.TokenStar, PrecFactor},
		{"slash", lexer.TokenSlash, PrecFactor},
		{"percent", lexer.TokenPercent, PrecFactor},
		{"dot", lexer.TokenDot, PrecCall},
		{"left bracket", lexer.TokenLeftBracket, PrecCall},
		{"left paren", lexer.TokenLeftParen, PrecCall},
		{"identifier", lexer.TokenIdentifier, PrecNone},
		{"number", lexer.TokenNumber, PrecNone},
		{"semicolon", lexer.TokenSemicolon, PrecNone},
		{"question mark is not a binary operator", lexer.TokenQuestion, PrecNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, getPrecedence(tt.token))
		})
	}
}

func TestPrecedenceOrdering(t *testing.T) {
	assert.Less(t, PrecConditional, PrecOr, "conditional binds loosest")
	assert.Less(t, PrecOr, PrecAnd)
	assert.Less(t, PrecAnd, PrecEquality)
	assert.Less(t, PrecEquality, PrecRelational)
	assert.Less(t, PrecRelational, PrecTerm)
	assert.Less(t, PrecTerm, PrecFactor)
	assert.Less(t, PrecFactor, PrecUnary)
	assert.Less(t, PrecUnary, PrecCall)
	assert.Less(t, PrecCall, PrecPrimary, "postfix access binds tightest")
}
