package kaleidoscope

import (
	"fmt"
	"strconv"
)

// DefaultPrecedence is the grammar's stock binary operator table. Higher
// binds tighter; equal precedence associates left by construction of the
// climbing loop.
var DefaultPrecedence = map[string]int{
	"<": 10,
	"+": 20,
	"-": 20,
	"*": 40,
}

type SyntacticAnalyzer interface {
	Do()
	Get() Expr
	GetFilename() string
}

type Parser struct {
	filename  string
	tokenizer Tokenizer
	output    chan Expr
	buf       *Token
	prec      map[string]int
}

func NewParser(tokenizer Tokenizer) *Parser {
	return NewParserWithPrecedence(tokenizer, DefaultPrecedence)
}

// NewParserWithPrecedence builds a parser over a caller-supplied operator
// table. The table maps a single-character operator to a positive binding
// strength and is read-only once the parser runs.
func NewParserWithPrecedence(tokenizer Tokenizer, prec map[string]int) *Parser {
	return &Parser{
		tokenizer: tokenizer,
		filename:  tokenizer.GetFilename(),
		output:    make(chan Expr, 2),
		prec:      prec,
	}
}

func (p *Parser) Get() Expr {
	return <-p.Chan()
}

func (p *Parser) Chan() chan Expr {
	return p.output
}

func (p *Parser) GetFilename() string {
	return p.filename
}

// Do streams the top-level entities one by one, ending with an EOS marker.
func (p *Parser) Do() {
	go p.tokenizer.Do()

	for p.peek().Typ != TokenEOF {
		if p.check(TokenSemicolon) {
			p.next()
			continue
		}

		entity := p.entity()
		p.output <- entity

		if _, failed := entity.(*BadExpr); failed {
			p.resync()
		}
	}

	p.output <- &EOS{}
	close(p.output)
}

// Run consumes the whole token stream and returns the entities in one AST.
// Failed entities appear as BadExpr nodes in source order.
func (p *Parser) Run() *AST {
	go p.tokenizer.Do()

	ast := &AST{Filename: p.filename}
	for p.peek().Typ != TokenEOF {
		if p.check(TokenSemicolon) {
			p.next()
			continue
		}

		entity := p.entity()
		ast.Entities = append(ast.Entities, entity)

		if _, failed := entity.(*BadExpr); failed {
			p.resync()
		}
	}

	return ast
}

// resync discards a single token after a failed entity. Best effort: the
// next parse starts from whatever follows, which need not be a clean
// boundary, and badly malformed input can still cascade.
func (p *Parser) resync() {
	if p.peek().isValid() {
		p.next()
	}
}

func (p *Parser) peek() Token {
	if p.buf == nil {
		temp := p.next()
		p.buf = &temp
	}

	return *p.buf
}

func (p *Parser) next() Token {
	if p.buf != nil {
		if !p.buf.isValid() {
			// Keep the end-of-input token buffered; no more tokens follow it
			return *p.buf
		}

		temp := p.buf
		p.buf = nil

		return *temp
	}

	tok := p.tokenizer.Get()
	if !tok.isValid() {
		p.buf = &tok
	}

	return tok
}

// expect consumes and returns the current token when it matches, and leaves
// it in place otherwise so that recovery discards it, not its successor.
func (p *Parser) expect(typ TokenType) *Token {
	if p.peek().Typ != typ {
		return nil
	}

	tok := p.next()

	return &tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Typ == typ
}

func (p *Parser) consume(typ TokenType) bool {
	return p.expect(typ) != nil
}

func (p *Parser) errorf(l *Location, format string, args ...interface{}) *BadExpr {
	return &BadExpr{l, fmt.Sprintf(format, args...)}
}

func (p *Parser) entity() Expr {
	switch p.peek().Typ {
	case TokenDef:
		return p.definition()
	case TokenExtern:
		return p.external()
	default:
		return p.topLevelExpr()
	}
}

func (p *Parser) definition() Expr {
	p.next() // def keyword

	proto, bad := p.prototype()
	if bad != nil {
		return bad
	}

	body := p.expression()
	if _, failed := body.(*BadExpr); failed {
		return body
	}

	return &FunctionDecl{
		Proto: proto,
		Body:  body,
	}
}

func (p *Parser) external() Expr {
	p.next() // extern keyword

	proto, bad := p.prototype()
	if bad != nil {
		return bad
	}

	return proto
}

// topLevelExpr wraps a bare expression as an anonymous zero-parameter
// function so the driver handles every entity uniformly.
func (p *Parser) topLevelExpr() Expr {
	body := p.expression()
	if _, failed := body.(*BadExpr); failed {
		return body
	}

	return &FunctionDecl{
		Proto: &Prototype{Name: ""},
		Body:  body,
	}
}

func (p *Parser) prototype() (*Prototype, *BadExpr) {
	start := p.peek().Loc

	name := p.expect(TokenIdentifier)
	if name == nil {
		return nil, p.errorf(start, "expected function name in prototype")
	}

	if !p.consume(TokenOpenParentheses) {
		return nil, p.errorf(p.peek().Loc, "expected '(' in prototype")
	}

	var params []string
	for p.check(TokenIdentifier) {
		params = append(params, p.next().Value)
	}

	if !p.consume(TokenCloseParentheses) {
		return nil, p.errorf(p.peek().Loc, "expected ')' in prototype")
	}

	return &Prototype{
		Name:   name.Value,
		Params: params,
	}, nil
}

func (p *Parser) expression() Expr {
	lhs := p.primary()
	if _, failed := lhs.(*BadExpr); failed {
		return lhs
	}

	return p.binOpRHS(0, lhs)
}

// binOpRHS is the precedence-climbing loop. It keeps folding operators into
// lhs while their binding strength stays at or above minPrec, and climbs the
// right-hand side one level higher whenever the operator after it binds
// tighter than the one being folded.
func (p *Parser) binOpRHS(minPrec int, lhs Expr) Expr {
	for {
		tokPrec := p.tokPrecedence()
		if tokPrec < minPrec {
			return lhs
		}

		op := p.next()

		rhs := p.primary()
		if _, failed := rhs.(*BadExpr); failed {
			return rhs
		}

		if nextPrec := p.tokPrecedence(); tokPrec < nextPrec {
			rhs = p.binOpRHS(tokPrec+1, rhs)
			if _, failed := rhs.(*BadExpr); failed {
				return rhs
			}
		}

		lhs = &BinaryExpr{
			Op:  op.Value,
			Lhs: lhs,
			Rhs: rhs,
		}
	}
}

// tokPrecedence reports the binding strength of the current token, or -1
// when it cannot act as a binary operator: only single-character tokens
// registered in the table with a positive precedence qualify.
func (p *Parser) tokPrecedence() int {
	tok := p.peek()
	if tok.Typ != TokenChar {
		return -1
	}

	prec, ok := p.prec[tok.Value]
	if !ok || prec <= 0 {
		return -1
	}

	return prec
}

func (p *Parser) primary() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenNumber:
		return p.numberExpr()
	case TokenIdentifier:
		return p.identifierExpr()
	case TokenOpenParentheses:
		return p.parenExpr()
	default:
		return p.errorf(tok.Loc, "unknown token when expecting an expression")
	}
}

// numberExpr converts the numeric text with ParseFloat. The lexer accepts
// runs such as "1.2.3" without complaint; those fail the conversion and
// yield 0.
func (p *Parser) numberExpr() Expr {
	tok := p.next()
	v, _ := strconv.ParseFloat(tok.Value, 64)

	return &NumberLiteral{Value: v}
}

func (p *Parser) identifierExpr() Expr {
	name := p.next()

	if !p.check(TokenOpenParentheses) {
		return &VariableRef{Name: name.Value}
	}

	p.next() // Skip the (

	var args []Expr
	if !p.check(TokenCloseParentheses) {
		for {
			arg := p.expression()
			if _, failed := arg.(*BadExpr); failed {
				return arg
			}

			args = append(args, arg)

			if p.check(TokenCloseParentheses) {
				break
			}

			if !p.consume(TokenComma) {
				return p.errorf(p.peek().Loc, "expected ')' or ',' in argument list")
			}
		}
	}

	p.next() // Skip the )

	return &CallExpr{
		Callee: name.Value,
		Args:   args,
	}
}

// parenExpr returns the inner expression unwrapped; parentheses leave no
// node behind.
func (p *Parser) parenExpr() Expr {
	p.next() // Skip the (

	exp := p.expression()
	if _, failed := exp.(*BadExpr); failed {
		return exp
	}

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(p.peek().Loc, "expected ')'")
	}

	return exp
}
