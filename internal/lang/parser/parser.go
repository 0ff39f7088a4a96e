// Package parser implements the precedence-climbing expression parser
// described in spec §4.3.
package parser

import (
	"fmt"

	"github.com/roach88/ldc/internal/lang/ast"
	"github.com/roach88/ldc/internal/lang/lexer"
)

// Error is a parse error with the offending token position.
type Error struct {
	Pos int
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Msg) }

// Parse tokenizes and parses a complete expression. Trailing tokens after a
// complete expression are a parse error (spec §4.3).
func Parse(src string) (ast.Node, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != lexer.EOF {
		return nil, &Error{Pos: p.cur().Pos, Msg: fmt.Sprintf("unexpected trailing token %q", p.cur().Lit)}
	}
	return n, nil
}

type parser struct {
	toks []lexer.Token
	pos  int
}

func (p *parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *parser) advance() lexer.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) isOp(lits ...string) bool {
	t := p.cur()
	if t.Kind != lexer.OP && t.Kind != lexer.IDENT {
		return false
	}
	for _, l := range lits {
		if t.Lit == l {
			return true
		}
	}
	return false
}

func (p *parser) isPunct(lit string) bool {
	t := p.cur()
	return t.Kind == lexer.PUNCT && t.Lit == lit
}

func (p *parser) expectPunct(lit string) error {
	if !p.isPunct(lit) {
		return &Error{Pos: p.cur().Pos, Msg: fmt.Sprintf("expected %q, got %q", lit, p.cur().Lit)}
	}
	p.advance()
	return nil
}

// parseExpr is the lowest-precedence entry point: ternary over `or`.
func (p *parser) parseExpr() (ast.Node, error) {
	// Lambda forms are tried first since they start like an expression but
	// are disambiguated by trailing `=>` (bounded lookahead + backtrack).
	if n, ok, err := p.tryLambda(); err != nil {
		return nil, err
	} else if ok {
		return n, nil
	}

	cond, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.isOp("?") {
		p.advance()
		then, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		els, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Ternary{Cond: cond, Then: then, Else: els}, nil
	}
	return cond, nil
}

// tryLambda attempts `(p1,...) => expr` or `p => expr` via backtracking.
func (p *parser) tryLambda() (ast.Node, bool, error) {
	start := p.pos

	// Single bare identifier param: `p => expr`
	if p.cur().Kind == lexer.IDENT && isPlainName(p.cur().Lit) {
		name := p.cur().Lit
		save := p.pos
		p.advance()
		if p.isOp("=>") {
			p.advance()
			body, err := p.parseExpr()
			if err != nil {
				return nil, false, err
			}
			return &ast.Lambda{Params: []string{name}, Body: body}, true, nil
		}
		p.pos = save
	}

	if p.isPunct("(") {
		save := p.pos
		params, ok := p.tryParamList()
		if ok && p.isOp("=>") {
			p.advance()
			body, err := p.parseExpr()
			if err != nil {
				return nil, false, err
			}
			return &ast.Lambda{Params: params, Body: body}, true, nil
		}
		p.pos = save
	}

	p.pos = start
	return nil, false, nil
}

// isPlainName excludes $built-ins and ?query-vars from lambda params.
func isPlainName(s string) bool {
	return len(s) > 0 && s[0] != '$' && s[0] != '?'
}

// tryParamList speculatively parses `(name, name, ...)`, returning ok=false
// (without erroring) if the contents don't look like a param list.
func (p *parser) tryParamList() ([]string, bool) {
	if !p.isPunct("(") {
		return nil, false
	}
	p.advance()
	var params []string
	if p.isPunct(")") {
		p.advance()
		return params, true
	}
	for {
		t := p.cur()
		if t.Kind != lexer.IDENT || !isPlainName(t.Lit) {
			return nil, false
		}
		params = append(params, t.Lit)
		p.advance()
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if !p.isPunct(")") {
		return nil, false
	}
	p.advance()
	return params, true
}

type binLevel struct {
	ops  []string
	next func(*parser) (ast.Node, error)
}

func (p *parser) parseOr() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"or", "||"}, (*parser).parseAnd)
}

func (p *parser) parseAnd() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"and", "&&"}, (*parser).parseNullish)
}

func (p *parser) parseNullish() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"??"}, (*parser).parseEquality)
}

func (p *parser) parseEquality() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"==", "!="}, (*parser).parseRelational)
}

func (p *parser) parseRelational() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"<", ">", "<=", ">="}, (*parser).parseAdditive)
}

func (p *parser) parseAdditive() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"+", "-"}, (*parser).parseMultiplicative)
}

func (p *parser) parseMultiplicative() (ast.Node, error) {
	return p.parseLeftAssoc([]string{"*", "/", "%"}, (*parser).parseUnary)
}

func (p *parser) parseLeftAssoc(ops []string, next func(*parser) (ast.Node, error)) (ast.Node, error) {
	l, err := next(p)
	if err != nil {
		return nil, err
	}
	for p.isOp(ops...) {
		op := p.advance().Lit
		r, err := next(p)
		if err != nil {
			return nil, err
		}
		l = &ast.Binary{Op: op, L: l, R: r}
	}
	return l, nil
}

// parseUnary handles `+ - ! not`, binding tighter than all binary operators
// except `**` (power binds tighter still and is parsed by parsePow, which
// parseUnary calls into for its operand).
func (p *parser) parseUnary() (ast.Node, error) {
	if p.isOp("+", "-", "!", "not") {
		op := p.advance().Lit
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{Op: op, X: x}, nil
	}
	return p.parsePow()
}

// parsePow is right-associative and binds tighter than unary prefix
// operators on its right operand (so `-2**2` parses as `-(2**2)`), while
// unary still wraps the whole power expression on the left.
func (p *parser) parsePow() (ast.Node, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.advance()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Op: "**", L: base, R: exp}, nil
	}
	return base, nil
}

// parsePostfix parses a primary then left-associates `.id`, `[expr]`,
// `(args)`.
func (p *parser) parsePostfix() (ast.Node, error) {
	n, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("."):
			p.advance()
			if p.cur().Kind != lexer.IDENT {
				return nil, &Error{Pos: p.cur().Pos, Msg: "expected identifier after '.'"}
			}
			name := p.advance().Lit
			n = &ast.Member{X: n, Name: name}

		case p.isPunct("["):
			p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			n = &ast.Index{X: n, Index: idx}

		case p.isPunct("("):
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			n = &ast.Call{Callee: n, Args: args}

		default:
			return n, nil
		}
	}
}

func (p *parser) parseArgs() ([]ast.Node, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.Node
	if p.isPunct(")") {
		p.advance()
		return args, nil
	}
	for {
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parsePrimary() (ast.Node, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.NUMBER:
		p.advance()
		return &ast.Literal{Kind: ast.LitNumber, Text: t.Lit}, nil

	case lexer.STRING:
		p.advance()
		return &ast.Literal{Kind: ast.LitString, Text: t.Lit}, nil

	case lexer.IDENT:
		switch t.Lit {
		case "true":
			p.advance()
			return &ast.Literal{Kind: ast.LitBool, Bool: true}, nil
		case "false":
			p.advance()
			return &ast.Literal{Kind: ast.LitBool, Bool: false}, nil
		case "null":
			p.advance()
			return &ast.Literal{Kind: ast.LitNull}, nil
		}
		p.advance()
		return &ast.Identifier{Name: t.Lit}, nil

	case lexer.PUNCT:
		switch t.Lit {
		case "(":
			p.advance()
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			return n, nil
		case "[":
			return p.parseArrayLit()
		case "{":
			return p.parseObjectLit()
		}
	}
	return nil, &Error{Pos: t.Pos, Msg: fmt.Sprintf("unexpected token %q", t.Lit)}
}

func (p *parser) parseArrayLit() (ast.Node, error) {
	if err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var elems []ast.Node
	if p.isPunct("]") {
		p.advance()
		return &ast.ArrayLit{}, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.ArrayLit{Elems: elems}, nil
}

func (p *parser) parseObjectLit() (ast.Node, error) {
	if err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	obj := &ast.ObjectLit{}
	if p.isPunct("}") {
		p.advance()
		return obj, nil
	}
	for {
		t := p.cur()
		var key string
		switch t.Kind {
		case lexer.IDENT:
			key = t.Lit
			p.advance()
		case lexer.STRING:
			key = t.Lit
			p.advance()
		default:
			return nil, &Error{Pos: t.Pos, Msg: "expected object key"}
		}
		if err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		obj.Keys = append(obj.Keys, key)
		obj.Vals = append(obj.Vals, val)
		if p.isPunct(",") {
			p.advance()
			continue
		}
		break
	}
	if err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return obj, nil
}
