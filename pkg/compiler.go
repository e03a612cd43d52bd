package kaleidoscope

import (
	"io"

	"github.com/pkg/errors"
)

// Compiler wires the pipeline end to end: lexer, parser, arity analysis,
// IR generation. Front-end diagnostics come back as CompileErrors; anything
// that stops the pipeline cold is a plain error.
type Compiler struct {
	prec map[string]int
}

func NewCompiler() *Compiler {
	return &Compiler{
		prec: DefaultPrecedence,
	}
}

// NewCompilerWithPrecedence compiles a grammar variant with a custom binary
// operator table.
func NewCompilerWithPrecedence(prec map[string]int) *Compiler {
	return &Compiler{
		prec: prec,
	}
}

func (c *Compiler) Compile(filename string) (IR, []CompileError, error) {
	lexer, err := NewLexer(filename)
	if err != nil {
		return nil, nil, errors.Wrap(err, "open source")
	}

	return c.compile(NewParserWithPrecedence(lexer, c.prec))
}

func (c *Compiler) CompileFromReader(reader io.Reader) (IR, []CompileError, error) {
	lexer := NewLexerFromReader(reader)
	return c.compile(NewParserWithPrecedence(lexer, c.prec))
}

func (c *Compiler) compile(p *Parser) (IR, []CompileError, error) {
	ast := NewContextAnalyser(p).Do()
	if len(ast.Errors) != 0 {
		return nil, ast.Errors, nil
	}

	mod, err := NewLLVMGenerator(ast).Do()
	if err != nil {
		return nil, nil, err
	}

	return mod, nil, nil
}
