package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// parseNumberLexeme converts a NUMBER token's raw lexeme into its Go
// value: int64 if the lexeme has no '.' or exponent, float64
// otherwise. This is a leaf conversion against Go's own numeric
// literal syntax (which Floyd's number grammar is a subset of), so it
// uses strconv directly rather than reaching for a parsing library.
func parseNumberLexeme(lexeme string) (interface{}, error) {
	if strings.ContainsAny(lexeme, ".eE") {
		return strconv.ParseFloat(lexeme, 64)
	}
	return strconv.ParseInt(lexeme, 10, 64)
}

// unescapeString converts a STRING token's raw lexeme — including its
// surrounding quotes, exactly as the lexer captured it — into the
// string value it denotes, processing the backslash escapes Floyd's
// grammar recognizes: \n \t \r \" \\ and \uXXXX.
func unescapeString(lexeme string) (string, error) {
	if len(lexeme) < 2 || lexeme[0] != '"' || lexeme[len(lexeme)-1] != '"' {
		return "", errors.Errorf("malformed string lexeme %q", lexeme)
	}
	body := lexeme[1 : len(lexeme)-1]

	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", errors.Errorf("trailing backslash in string literal %q", lexeme)
		}
		switch body[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '"':
			out.WriteByte('"')
		case '\\':
			out.WriteByte('\\')
		case 'u':
			if i+4 >= len(body) {
				return "", errors.Errorf("incomplete \\u escape in string literal %q", lexeme)
			}
			code, err := strconv.ParseUint(body[i+1:i+5], 16, 32)
			if err != nil {
				return "", errors.Wrapf(err, "invalid \\u escape in string literal %q", lexeme)
			}
			out.WriteRune(rune(code))
			i += 4
		default:
			return "", errors.Errorf("unknown escape '\\%c' in string literal %q", body[i], lexeme)
		}
	}
	return out.String(), nil
}
