// Package formula implements the expression language used by game content:
// infix arithmetic and boolean expressions over named variables, evaluated
// against a nested numeric context. Booleans are represented as 1/0.
package formula

import (
	"fmt"
	"math"
	"strconv"
)

// Expr is a parsed formula expression tree.
type Expr interface {
	eval(ctx Context) (float64, error)
	collectVars(seen map[string]bool, out *[]string)
}

type numberExpr struct {
	value float64
}

type identExpr struct {
	name string
}

type unaryExpr struct {
	op    string // "-" or "!"
	inner Expr
}

type binaryExpr struct {
	op          string
	left, right Expr
}

type ternaryExpr struct {
	cond, then, els Expr
}

type callExpr struct {
	name string
	args []Expr
}

// Parser parses and evaluates formula strings. It holds no state across
// calls (tokens and position reset at every entry point), so a single
// instance may be shared by single-threaded callers; concurrent goroutines
// should each construct their own.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a formula parser.
func NewParser() *Parser {
	return &Parser{}
}

// Default is a shared convenience instance for single-threaded use.
var Default = NewParser()

// Compute parses and evaluates a formula against the given context using the
// shared Default parser.
func Compute(src string, ctx Context) (float64, error) {
	return Default.Compute(src, ctx)
}

// Validate checks a formula for syntax errors using the shared Default parser.
func Validate(src string) error {
	return Default.Validate(src)
}

// Parse converts a formula string into an expression tree.
func (p *Parser) Parse(src string) (Expr, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p.tokens = tokens
	p.pos = 0

	expr, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
	}
	return expr, nil
}

// Compute parses and evaluates a formula against the given context.
func (p *Parser) Compute(src string, ctx Context) (float64, error) {
	expr, err := p.Parse(src)
	if err != nil {
		return 0, err
	}
	return expr.eval(ctx)
}

// Validate parses the formula and reports any syntax error without
// evaluating. Variable existence is not checked.
func (p *Parser) Validate(src string) error {
	_, err := p.Parse(src)
	return err
}

// Variables returns every identifier referenced by the formula, in first-seen
// order, without duplicates. Dot-path identifiers are returned whole.
func (p *Parser) Variables(src string) ([]string, error) {
	expr, err := p.Parse(src)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var out []string
	expr.collectVars(seen, &out)
	return out, nil
}

// Eval evaluates an already-parsed expression against a context.
func Eval(expr Expr, ctx Context) (float64, error) {
	return expr.eval(ctx)
}

// ---- Grammar (lowest to highest precedence) ----
//
//	ternary     = or ("?" ternary ":" ternary)?
//	or          = and ("||" and)*
//	and         = comparison ("&&" comparison)*
//	comparison  = additive (("<"|">"|"<="|">="|"=="|"!=") additive)*
//	additive    = multiplicative (("+"|"-") multiplicative)*
//	multiplicative = unary (("*"|"/"|"%") unary)*
//	unary       = ("-"|"!") unary | primary
//	primary     = number | ident | ident "(" args ")" | "(" ternary ")"

func (p *Parser) parseTernary() (Expr, error) {
	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != TokenQuestion {
		return cond, nil
	}
	p.advance()
	then, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != TokenColon {
		return nil, fmt.Errorf("expected ':' in ternary at position %d", tok.Pos)
	}
	p.advance()
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return &ternaryExpr{cond: cond, then: then, els: els}, nil
}

func (p *Parser) parseOr() (Expr, error) {
	return p.parseBinary(p.parseAnd, "||")
}

func (p *Parser) parseAnd() (Expr, error) {
	return p.parseBinary(p.parseComparison, "&&")
}

func (p *Parser) parseComparison() (Expr, error) {
	return p.parseBinary(p.parseAdditive, "<", ">", "<=", ">=", "==", "!=")
}

func (p *Parser) parseAdditive() (Expr, error) {
	return p.parseBinary(p.parseMultiplicative, "+", "-")
}

func (p *Parser) parseMultiplicative() (Expr, error) {
	return p.parseBinary(p.parseUnary, "*", "/", "%")
}

// parseBinary parses a left-associative binary level.
func (p *Parser) parseBinary(next func() (Expr, error), ops ...string) (Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.Type != TokenOperator || !contains(ops, tok.Value) {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: tok.Value, left: left, right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.peek()
	if tok.Type == TokenOperator && (tok.Value == "-" || tok.Value == "!") {
		p.advance()
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: tok.Value, inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case TokenNumber:
		p.advance()
		value, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q at position %d", tok.Value, tok.Pos)
		}
		return &numberExpr{value: value}, nil

	case TokenIdent:
		p.advance()
		if p.peek().Type == TokenLParen {
			return p.parseCall(tok)
		}
		return &identExpr{name: tok.Value}, nil

	case TokenLParen:
		p.advance()
		inner, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		if tok := p.peek(); tok.Type != TokenRParen {
			return nil, fmt.Errorf("expected ')' at position %d", tok.Pos)
		}
		p.advance()
		return inner, nil

	default:
		return nil, fmt.Errorf("unexpected token %q at position %d", tok.Value, tok.Pos)
	}
}

func (p *Parser) parseCall(name Token) (Expr, error) {
	p.advance() // consume "("
	var args []Expr
	if p.peek().Type != TokenRParen {
		for {
			arg, err := p.parseTernary()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Type != TokenComma {
				break
			}
			p.advance()
		}
	}
	if tok := p.peek(); tok.Type != TokenRParen {
		return nil, fmt.Errorf("expected ')' after arguments of %s at position %d", name.Value, tok.Pos)
	}
	p.advance()
	return &callExpr{name: name.Value, args: args}, nil
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) advance() {
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ---- Evaluation ----

func (e *numberExpr) eval(Context) (float64, error) {
	return e.value, nil
}

func (e *identExpr) eval(ctx Context) (float64, error) {
	return ctx.Resolve(e.name)
}

func (e *unaryExpr) eval(ctx Context) (float64, error) {
	v, err := e.inner.eval(ctx)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case "-":
		return -v, nil
	case "!":
		return boolToNum(v == 0), nil
	}
	return 0, fmt.Errorf("unknown unary operator %q", e.op)
}

func (e *binaryExpr) eval(ctx Context) (float64, error) {
	// Both operands are always evaluated; && and || act on numeric
	// truthiness without short-circuiting.
	l, err := e.left.eval(ctx)
	if err != nil {
		return 0, err
	}
	r, err := e.right.eval(ctx)
	if err != nil {
		return 0, err
	}
	switch e.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, fmt.Errorf("modulo by zero")
		}
		return math.Mod(l, r), nil
	case "<":
		return boolToNum(l < r), nil
	case ">":
		return boolToNum(l > r), nil
	case "<=":
		return boolToNum(l <= r), nil
	case ">=":
		return boolToNum(l >= r), nil
	case "==":
		return boolToNum(l == r), nil
	case "!=":
		return boolToNum(l != r), nil
	case "&&":
		return boolToNum(l != 0 && r != 0), nil
	case "||":
		return boolToNum(l != 0 || r != 0), nil
	}
	return 0, fmt.Errorf("unknown operator %q", e.op)
}

func (e *ternaryExpr) eval(ctx Context) (float64, error) {
	cond, err := e.cond.eval(ctx)
	if err != nil {
		return 0, err
	}
	if cond != 0 {
		return e.then.eval(ctx)
	}
	return e.els.eval(ctx)
}

func (e *callExpr) eval(ctx Context) (float64, error) {
	args := make([]float64, len(e.args))
	for i, arg := range e.args {
		v, err := arg.eval(ctx)
		if err != nil {
			return 0, err
		}
		args[i] = v
	}
	return applyFunc(e.name, args)
}

// applyFunc dispatches the built-in function set.
func applyFunc(name string, args []float64) (float64, error) {
	switch name {
	case "min":
		if len(args) < 1 {
			return 0, fmt.Errorf("min expects at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			if a < v {
				v = a
			}
		}
		return v, nil
	case "max":
		if len(args) < 1 {
			return 0, fmt.Errorf("max expects at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			if a > v {
				v = a
			}
		}
		return v, nil
	case "floor":
		if len(args) != 1 {
			return 0, fmt.Errorf("floor expects 1 argument")
		}
		return math.Floor(args[0]), nil
	case "ceil":
		if len(args) != 1 {
			return 0, fmt.Errorf("ceil expects 1 argument")
		}
		return math.Ceil(args[0]), nil
	case "round":
		if len(args) != 1 {
			return 0, fmt.Errorf("round expects 1 argument")
		}
		return math.Round(args[0]), nil
	case "abs":
		if len(args) != 1 {
			return 0, fmt.Errorf("abs expects 1 argument")
		}
		return math.Abs(args[0]), nil
	case "sqrt":
		if len(args) != 1 {
			return 0, fmt.Errorf("sqrt expects 1 argument")
		}
		if args[0] < 0 {
			return 0, fmt.Errorf("sqrt of negative number")
		}
		return math.Sqrt(args[0]), nil
	case "pow":
		if len(args) != 2 {
			return 0, fmt.Errorf("pow expects 2 arguments")
		}
		return math.Pow(args[0], args[1]), nil
	case "clamp":
		if len(args) != 3 {
			return 0, fmt.Errorf("clamp expects 3 arguments")
		}
		v := args[0]
		if v < args[1] {
			v = args[1]
		}
		if v > args[2] {
			v = args[2]
		}
		return v, nil
	}
	return 0, fmt.Errorf("unknown function: %s", name)
}

func boolToNum(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ---- Variable collection ----

func (e *numberExpr) collectVars(map[string]bool, *[]string) {}

func (e *identExpr) collectVars(seen map[string]bool, out *[]string) {
	if !seen[e.name] {
		seen[e.name] = true
		*out = append(*out, e.name)
	}
}

func (e *unaryExpr) collectVars(seen map[string]bool, out *[]string) {
	e.inner.collectVars(seen, out)
}

func (e *binaryExpr) collectVars(seen map[string]bool, out *[]string) {
	e.left.collectVars(seen, out)
	e.right.collectVars(seen, out)
}

func (e *ternaryExpr) collectVars(seen map[string]bool, out *[]string) {
	e.cond.collectVars(seen, out)
	e.then.collectVars(seen, out)
	e.els.collectVars(seen, out)
}

func (e *callExpr) collectVars(seen map[string]bool, out *[]string) {
	for _, arg := range e.args {
		arg.collectVars(seen, out)
	}
}
