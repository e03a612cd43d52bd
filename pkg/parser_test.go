package kaleidoscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type BufferedTokenizerMocker struct {
	buf []Token
	pos int
}

func NewBufferedTokenizerMocker(toks []Token) *BufferedTokenizerMocker {
	return &BufferedTokenizerMocker{
		buf: toks,
		pos: 0,
	}
}

func (b *BufferedTokenizerMocker) Do() {
	return
}

func (b *BufferedTokenizerMocker) Get() Token {
	if len(b.buf) <= b.pos {
		return Token{Typ: TokenEOF}
	}

	tok := b.buf[b.pos]
	b.pos++

	return tok
}

func (b *BufferedTokenizerMocker) GetFilename() string {
	return "testing"
}

func anonWrap(body Expr) *FunctionDecl {
	return &FunctionDecl{
		Proto: &Prototype{Name: ""},
		Body:  body,
	}
}

func TestParser(t *testing.T) {
	cases := []struct {
		data   []Token
		fail   bool
		expect []Expr
	}{
		{
			// 1+2*3: multiplication binds tighter
			[]Token{
				{TokenNumber, "1", nil},
				{TokenChar, "+", nil},
				{TokenNumber, "2", nil},
				{TokenChar, "*", nil},
				{TokenNumber, "3", nil},
			},
			false,
			[]Expr{
				anonWrap(&BinaryExpr{
					Op:  "+",
					Lhs: &NumberLiteral{Value: 1},
					Rhs: &BinaryExpr{
						Op:  "*",
						Lhs: &NumberLiteral{Value: 2},
						Rhs: &NumberLiteral{Value: 3},
					},
				}),
			},
		},
		{
			// 1-2-3: equal precedence associates left
			[]Token{
				{TokenNumber, "1", nil},
				{TokenChar, "-", nil},
				{TokenNumber, "2", nil},
				{TokenChar, "-", nil},
				{TokenNumber, "3", nil},
			},
			false,
			[]Expr{
				anonWrap(&BinaryExpr{
					Op: "-",
					Lhs: &BinaryExpr{
						Op:  "-",
						Lhs: &NumberLiteral{Value: 1},
						Rhs: &NumberLiteral{Value: 2},
					},
					Rhs: &NumberLiteral{Value: 3},
				}),
			},
		},
		{
			// (1+2)*3: parentheses override precedence and leave no node
			[]Token{
				{TokenOpenParentheses, "(", nil},
				{TokenNumber, "1", nil},
				{TokenChar, "+", nil},
				{TokenNumber, "2", nil},
				{TokenCloseParentheses, ")", nil},
				{TokenChar, "*", nil},
				{TokenNumber, "3", nil},
			},
			false,
			[]Expr{
				anonWrap(&BinaryExpr{
					Op: "*",
					Lhs: &BinaryExpr{
						Op:  "+",
						Lhs: &NumberLiteral{Value: 1},
						Rhs: &NumberLiteral{Value: 2},
					},
					Rhs: &NumberLiteral{Value: 3},
				}),
			},
		},
		{
			// x < 3 uses the stock table too
			[]Token{
				{TokenIdentifier, "x", nil},
				{TokenChar, "<", nil},
				{TokenNumber, "3", nil},
			},
			false,
			[]Expr{
				anonWrap(&BinaryExpr{
					Op:  "<",
					Lhs: &VariableRef{Name: "x"},
					Rhs: &NumberLiteral{Value: 3},
				}),
			},
		},
		{
			// def foo(a b) a+b
			[]Token{
				{TokenDef, "def", nil},
				{TokenIdentifier, "foo", nil},
				{TokenOpenParentheses, "(", nil},
				{TokenIdentifier, "a", nil},
				{TokenIdentifier, "b", nil},
				{TokenCloseParentheses, ")", nil},
				{TokenIdentifier, "a", nil},
				{TokenChar, "+", nil},
				{TokenIdentifier, "b", nil},
			},
			false,
			[]Expr{
				&FunctionDecl{
					Proto: &Prototype{
						Name:   "foo",
						Params: []string{"a", "b"},
					},
					Body: &BinaryExpr{
						Op:  "+",
						Lhs: &VariableRef{Name: "a"},
						Rhs: &VariableRef{Name: "b"},
					},
				},
			},
		},
		{
			// extern sin(x)
			[]Token{
				{TokenExtern, "extern", nil},
				{TokenIdentifier, "sin", nil},
				{TokenOpenParentheses, "(", nil},
				{TokenIdentifier, "x", nil},
				{TokenCloseParentheses, ")", nil},
			},
			false,
			[]Expr{
				&Prototype{
					Name:   "sin",
					Params: []string{"x"},
				},
			},
		},
		{
			// foo(1,2,3) as a bare expression
			[]Token{
				{TokenIdentifier, "foo", nil},
				{TokenOpenParentheses, "(", nil},
				{TokenNumber, "1", nil},
				{TokenComma, ",", nil},
				{TokenNumber, "2", nil},
				{TokenComma, ",", nil},
				{TokenNumber, "3", nil},
				{TokenCloseParentheses, ")", nil},
			},
			false,
			[]Expr{
				anonWrap(&CallExpr{
					Callee: "foo",
					Args: []Expr{
						&NumberLiteral{Value: 1},
						&NumberLiteral{Value: 2},
						&NumberLiteral{Value: 3},
					},
				}),
			},
		},
		{
			// A lone identifier is a variable reference, not a call
			[]Token{
				{TokenIdentifier, "x", nil},
			},
			false,
			[]Expr{
				anonWrap(&VariableRef{Name: "x"}),
			},
		},
		{
			// Semicolons separate entities and are skipped
			[]Token{
				{TokenSemicolon, ";", nil},
				{TokenNumber, "1", nil},
				{TokenSemicolon, ";", nil},
				{TokenSemicolon, ";", nil},
				{TokenNumber, "2", nil},
			},
			false,
			[]Expr{
				anonWrap(&NumberLiteral{Value: 1}),
				anonWrap(&NumberLiteral{Value: 2}),
			},
		},
		{
			// Only semicolons: no entities at all
			[]Token{
				{TokenSemicolon, ";", nil},
				{TokenSemicolon, ";", nil},
			},
			false,
			nil,
		},
		{
			// foo(1, cut short
			[]Token{
				{TokenIdentifier, "foo", nil},
				{TokenOpenParentheses, "(", nil},
				{TokenNumber, "1", nil},
				{TokenComma, ",", nil},
			},
			true,
			nil,
		},
		{
			// Missing closing parenthesis
			[]Token{
				{TokenOpenParentheses, "(", nil},
				{TokenNumber, "1", nil},
			},
			true,
			nil,
		},
		{
			// def without a function name
			[]Token{
				{TokenDef, "def", nil},
				{TokenNumber, "5", nil},
			},
			true,
			nil,
		},
		{
			// An operator cannot start an expression
			[]Token{
				{TokenChar, "+", nil},
			},
			true,
			nil,
		},
	}

	for _, c := range cases {
		tokenizer := NewBufferedTokenizerMocker(c.data)
		p := NewParser(tokenizer)

		got := p.Run()
		expect := &AST{
			Filename: "testing",
			Entities: c.expect,
		}

		if c.fail {
			failed := false
			for _, node := range got.Entities {
				if _, ok := node.(*BadExpr); ok {
					failed = true
					break
				}
			}

			if !failed {
				assert.Fail(t, "expected parsing to fail, but succeeded")
			}

			continue
		}

		assert.Equal(t, expect, got)
	}
}

func TestParserRecoversAfterBadEntity(t *testing.T) {
	// def 5 ... def foo() 1: the first definition fails at '5'; recovery
	// discards exactly that token, so the second definition still parses
	toks := []Token{
		{TokenDef, "def", nil},
		{TokenNumber, "5", nil},
		{TokenDef, "def", nil},
		{TokenIdentifier, "foo", nil},
		{TokenOpenParentheses, "(", nil},
		{TokenCloseParentheses, ")", nil},
		{TokenNumber, "1", nil},
	}

	p := NewParser(NewBufferedTokenizerMocker(toks))
	got := p.Run()

	assert.Len(t, got.Entities, 2)
	assert.IsType(t, &BadExpr{}, got.Entities[0])
	assert.Equal(t, &FunctionDecl{
		Proto: &Prototype{Name: "foo"},
		Body:  &NumberLiteral{Value: 1},
	}, got.Entities[1])
}

func TestParserArgumentListDiagnostic(t *testing.T) {
	// foo(1 2): after an argument only ')' or ',' may follow
	toks := []Token{
		{TokenIdentifier, "foo", nil},
		{TokenOpenParentheses, "(", nil},
		{TokenNumber, "1", nil},
		{TokenNumber, "2", nil},
	}

	p := NewParser(NewBufferedTokenizerMocker(toks))
	got := p.Run()

	assert.Len(t, got.Entities, 1)
	bad, ok := got.Entities[0].(*BadExpr)
	assert.True(t, ok)
	assert.Contains(t, bad.Error, "expected ')' or ','")
}

func TestParserCustomPrecedence(t *testing.T) {
	// a | b & c with '&' binding tighter than '|'
	toks := []Token{
		{TokenIdentifier, "a", nil},
		{TokenChar, "|", nil},
		{TokenIdentifier, "b", nil},
		{TokenChar, "&", nil},
		{TokenIdentifier, "c", nil},
	}

	prec := map[string]int{
		"|": 10,
		"&": 20,
	}

	p := NewParserWithPrecedence(NewBufferedTokenizerMocker(toks), prec)
	got := p.Run()

	expect := []Expr{
		anonWrap(&BinaryExpr{
			Op:  "|",
			Lhs: &VariableRef{Name: "a"},
			Rhs: &BinaryExpr{
				Op:  "&",
				Lhs: &VariableRef{Name: "b"},
				Rhs: &VariableRef{Name: "c"},
			},
		}),
	}

	assert.Equal(t, expect, got.Entities)
}

func TestParserUnregisteredOperatorEndsExpression(t *testing.T) {
	// '&' is not in the stock table, so "a & b" is the expression "a"
	// followed by a failing entity starting at '&'
	toks := []Token{
		{TokenIdentifier, "a", nil},
		{TokenChar, "&", nil},
		{TokenIdentifier, "b", nil},
	}

	p := NewParser(NewBufferedTokenizerMocker(toks))
	got := p.Run()

	assert.Len(t, got.Entities, 3)
	assert.Equal(t, anonWrap(&VariableRef{Name: "a"}), got.Entities[0])
	assert.IsType(t, &BadExpr{}, got.Entities[1])
	assert.Equal(t, anonWrap(&VariableRef{Name: "b"}), got.Entities[2])
}
