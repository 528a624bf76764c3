package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexer_Keywords(t *testing.T) {
	source := "if else for while return struct bool int float string json_value typeid void"
	l := New(source, "test.src")

	expectedTypes := []TokenType{
		TokenIf,
		TokenElse,
		TokenFor,
		TokenWhile,
		TokenReturn,
		TokenStruct,
		TokenKwBool,
		TokenKwInt,
		TokenKwFloat,
		TokenKwString,
		TokenKwJsonValue,
		TokenKwTypeid,
		TokenKwVoid,
		TokenEOF,
	}

	for i, expected := range expectedTypes {
		token, err := l.NextToken()
		require.NoError(t, err, "token %d", i)
		assert.Equal(t, expected, token.Type, "token %d", i)
	}
}

func TestLexer_Identifiers(t *testing.T) {
	source := "foo bar _temp myVar123"
	l := New(source, "test.src")

	expected := []string{"foo", "bar", "_temp", "myVar123"}
	for i, name := range expected {
		token, err := l.NextToken()
		require.NoError(t, err)
		assert.Equal(t, TokenIdentifier, token.Type, "token %d", i)
		assert.Equal(t, name, token.Lexeme, "token %d", i)
	}
}

func TestLexer_Numbers(t *testing.T) {
	source := "42 3.14 1e10 1.5e-3"
	l := New(source, "test.src")

	for _, want := range []string{"42", "3.14", "1e10", "1.5e-3"} {
		token, err := l.NextToken()
		require.NoError(t, err)
		assert.Equal(t, TokenNumber, token.Type)
		assert.Equal(t, want, token.Lexeme)
	}
}

func TestLexer_String(t *testing.T) {
	l := New(`"hello, world"`, "test.src")
	token, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, TokenString, token.Type)
	assert.Equal(t, `"hello, world"`, token.Lexeme)
}

func TestLexer_UnterminatedString(t *testing.T) {
	l := New(`"oops`, "test.src")
	_, err := l.NextToken()
	assert.Error(t, err)
}

func TestLexer_Operators(t *testing.T) {
	source := "+ - * / % == != < <= > >= && || ! = ? : . ( ) { } [ ] ; ,"
	l := New(source, "test.src")

	expected := []TokenType{
		TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenPercent,
		TokenEqual, TokenNotEqual, TokenLess, TokenLessEqual,
		TokenGreater, TokenGreaterEqual, TokenAnd, TokenOr, TokenNot,
		TokenAssign, TokenQuestion, TokenColon, TokenDot,
		TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace,
		TokenLeftBracket, TokenRightBracket, TokenSemicolon, TokenComma,
	}

	for i, want := range expected {
		token, err := l.NextToken()
		require.NoError(t, err, "token %d", i)
		assert.Equal(t, want, token.Type, "token %d", i)
	}
}

func TestLexer_LineComment(t *testing.T) {
	l := New("1 // trailing comment\n2", "test.src")

	first, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "1", first.Lexeme)

	second, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "2", second.Lexeme)
	assert.Equal(t, 2, second.Position.Line)
}

func TestLexer_BlockComment(t *testing.T) {
	l := New("1 /* spans\nlines */ 2", "test.src")

	first, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "1", first.Lexeme)

	second, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, "2", second.Lexeme)
}

func TestLexer_UnterminatedBlockComment(t *testing.T) {
	l := New("/* never closes", "test.src")
	_, err := l.NextToken()
	assert.Error(t, err)
}

func TestLexer_PositionTracking(t *testing.T) {
	l := New("a\nbb", "test.src")

	first, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, 1, first.Position.Line)
	assert.Equal(t, 1, first.Position.Column)

	second, err := l.NextToken()
	require.NoError(t, err)
	assert.Equal(t, 2, second.Position.Line)
	assert.Equal(t, 1, second.Position.Column)
}
