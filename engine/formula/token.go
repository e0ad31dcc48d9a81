package formula

import "fmt"

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenIdent
	TokenOperator
	TokenLParen
	TokenRParen
	TokenComma
	TokenQuestion
	TokenColon
	TokenEOF
)

// Token is a single lexical unit of a formula string.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// twoCharOps must be matched before their one-character prefixes.
var twoCharOps = map[string]bool{
	"<=": true, ">=": true, "==": true, "!=": true, "&&": true, "||": true,
}

var oneCharOps = map[byte]bool{
	'+': true, '-': true, '*': true, '/': true, '%': true,
	'<': true, '>': true, '!': true,
}

// Tokenize scans a formula string left to right into a flat token stream,
// always ending with an EOF token. Whitespace is skipped. Any unrecognized
// character is an error reporting the character and its position.
func Tokenize(src string) ([]Token, error) {
	var tokens []Token
	i := 0
	for i < len(src) {
		c := src[i]

		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case c >= '0' && c <= '9':
			start := i
			hasDot := false
			for i < len(src) {
				d := src[i]
				if d >= '0' && d <= '9' {
					i++
				} else if d == '.' && !hasDot && i+1 < len(src) && src[i+1] >= '0' && src[i+1] <= '9' {
					hasDot = true
					i++
				} else {
					break
				}
			}
			tokens = append(tokens, Token{Type: TokenNumber, Value: src[start:i], Pos: start})

		case isIdentStart(c):
			start := i
			i++
			for i < len(src) && isIdentPart(src[i]) {
				i++
			}
			tokens = append(tokens, Token{Type: TokenIdent, Value: src[start:i], Pos: start})

		case i+1 < len(src) && twoCharOps[src[i:i+2]]:
			tokens = append(tokens, Token{Type: TokenOperator, Value: src[i : i+2], Pos: i})
			i += 2

		case oneCharOps[c]:
			tokens = append(tokens, Token{Type: TokenOperator, Value: string(c), Pos: i})
			i++

		case c == '(':
			tokens = append(tokens, Token{Type: TokenLParen, Value: "(", Pos: i})
			i++

		case c == ')':
			tokens = append(tokens, Token{Type: TokenRParen, Value: ")", Pos: i})
			i++

		case c == ',':
			tokens = append(tokens, Token{Type: TokenComma, Value: ",", Pos: i})
			i++

		case c == '?':
			tokens = append(tokens, Token{Type: TokenQuestion, Value: "?", Pos: i})
			i++

		case c == ':':
			tokens = append(tokens, Token{Type: TokenColon, Value: ":", Pos: i})
			i++

		default:
			return nil, fmt.Errorf("unexpected character %q at position %d", c, i)
		}
	}

	tokens = append(tokens, Token{Type: TokenEOF, Pos: len(src)})
	return tokens, nil
}

// isIdentStart reports whether c can begin an identifier.
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isIdentPart reports whether c can continue an identifier. Dots are allowed
// for nested context lookups like "enemy.hpPercent".
func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '.'
}
