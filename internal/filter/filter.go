// Package filter translates the small human-readable listing filter
// grammar into a SQL WHERE predicate over the known location fields.
//
// Grammar:
//
//	expr       = orExpr
//	orExpr     = andExpr { "or" andExpr }
//	andExpr    = term { "and" term }
//	term       = "(" expr ")" | field op value | field "contains" value
//	op         = "=" | "!=" | "<>" | "<" | ">" | "<=" | ">="
//
// Keywords are case-insensitive. Values may be bare words, numbers or
// quoted strings.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownField is wrapped by errors for field names outside the
// known set; callers reject the filter before any query executes.
var ErrUnknownField = errors.New("unknown field")

// fields maps accepted filter field names to SQL columns.
var fields = map[string]string{
	"name":      "name",
	"country":   "country",
	"lat":       "latitude",
	"latitude":  "latitude",
	"lon":       "longitude",
	"longitude": "longitude",
}

// Expr is a typed predicate tree node.
type Expr interface {
	// SQL renders the predicate as a SQL fragment safe to compose
	// into a WHERE clause.
	SQL() string
}

// Compare is a single field comparison.
type Compare struct {
	Column string
	Op     string // normalized SQL operator
	Value  Value
}

// Contains is a substring match on a field.
type Contains struct {
	Column string
	Value  string
}

// Logical joins two predicates with AND/OR.
type Logical struct {
	Op    string // "AND" or "OR"
	Left  Expr
	Right Expr
}

// Value is a comparison operand, either numeric or string.
type Value struct {
	Raw    string
	Number float64
	IsNum  bool
	Quoted bool
}

func (c *Compare) SQL() string {
	return fmt.Sprintf("%s %s %s", c.Column, c.Op, c.Value.sql())
}

func (c *Contains) SQL() string {
	return fmt.Sprintf("%s LIKE '%%%s%%'", c.Column, escapeString(c.Value))
}

func (l *Logical) SQL() string {
	return fmt.Sprintf("(%s %s %s)", l.Left.SQL(), l.Op, l.Right.SQL())
}

func (v Value) sql() string {
	if v.IsNum && !v.Quoted {
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	}
	return "'" + escapeString(v.Raw) + "'"
}

func escapeString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Parse parses a filter expression into a predicate tree. An empty or
// blank expression yields a nil tree.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	expr, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, fmt.Errorf("unexpected token %q in filter", p.peek().text)
	}
	return expr, nil
}

// Translate parses a filter expression and renders it as a SQL WHERE
// fragment. The parser performs no I/O.
func Translate(input string) (string, error) {
	expr, err := Parse(input)
	if err != nil {
		return "", err
	}
	if expr == nil {
		return "", nil
	}
	return expr.SQL(), nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) eof() bool   { return p.pos >= len(p.tokens) }
func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) advance() token {
	tok := p.tokens[p.pos]
	p.pos++
	return tok
}

func (p *parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for !p.eof() && p.peek().kind == tokKeyword && strings.EqualFold(p.peek().text, "or") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for !p.eof() && p.peek().kind == tokKeyword && strings.EqualFold(p.peek().text, "and") {
		p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &Logical{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	if p.eof() {
		return nil, fmt.Errorf("unexpected end of filter expression")
	}

	if p.peek().kind == tokLParen {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.eof() || p.peek().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis in filter")
		}
		p.advance()
		return expr, nil
	}

	tok := p.advance()
	if tok.kind != tokWord {
		return nil, fmt.Errorf("expected field name, got %q", tok.text)
	}
	column, ok := fields[strings.ToLower(tok.text)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, tok.text)
	}

	if p.eof() {
		return nil, fmt.Errorf("expected operator after field %q", tok.text)
	}

	next := p.advance()
	if next.kind == tokKeyword && strings.EqualFold(next.text, "contains") {
		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return &Contains{Column: column, Value: value.Raw}, nil
	}
	if next.kind != tokOp {
		return nil, fmt.Errorf("expected comparison operator after field %q, got %q", tok.text, next.text)
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &Compare{Column: column, Op: normalizeOp(next.text), Value: value}, nil
}

func (p *parser) parseValue() (Value, error) {
	if p.eof() {
		return Value{}, fmt.Errorf("expected value at end of filter expression")
	}
	tok := p.advance()
	switch tok.kind {
	case tokString:
		return Value{Raw: tok.text, Quoted: true}, nil
	case tokWord, tokNumber:
		v := Value{Raw: tok.text}
		if n, err := strconv.ParseFloat(tok.text, 64); err == nil {
			v.Number = n
			v.IsNum = true
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("expected value, got %q", tok.text)
	}
}

// normalizeOp maps the accepted operator spellings to SQL. "<>" and
// "!=" both render as "!=".
func normalizeOp(op string) string {
	if op == "<>" {
		return "!="
	}
	return op
}
