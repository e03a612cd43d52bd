package kaleidoscope

import "fmt"

// CompileError is a recoverable, user-facing diagnostic. The driver decides
// how and whether to display it.
type CompileError interface {
	Error() string
}

// BadExprError carries a parse failure out of the entity stream.
type BadExprError struct {
	Loc  *Location
	Expr *BadExpr
}

func (e *BadExprError) Error() string {
	return fmt.Sprintf("%s: %s", e.Loc, e.Expr.Error)
}

// ArityError reports a call site whose argument count disagrees with the
// callee's prototype.
type ArityError struct {
	Callee string
	Want   int
	Got    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("call to '%s' takes %d arguments, got %d", e.Callee, e.Want, e.Got)
}

type SemanticAnalyzer interface {
	Do() *AST
}

// ContextAnalyzer performs the only semantic check this front end does:
// call-site arity against the prototypes in scope. The language is untyped,
// so there is nothing else to resolve.
type ContextAnalyzer struct {
	filename string
	parser   SyntacticAnalyzer

	cache   []Expr
	live    bool
	started bool
	index   int

	protos map[string]*Prototype
}

func NewContextAnalyser(parser SyntacticAnalyzer) *ContextAnalyzer {
	return &ContextAnalyzer{
		filename: parser.GetFilename(),
		parser:   parser,
		live:     true,
		protos:   builtinPrototypes(),
	}
}

func (c *ContextAnalyzer) Do() *AST {
	c.define()
	c.reset()

	ast := &AST{Filename: c.filename}
	for {
		expr := c.get()
		if expr == nil {
			break
		}

		ast.Entities = append(ast.Entities, expr)
		ast.Errors = append(ast.Errors, c.analyze(expr)...)
	}

	return ast
}

// define records every prototype up front, so calls may precede the
// definition or extern they target.
func (c *ContextAnalyzer) define() {
	c.reset()

	for {
		expr := c.get()
		if expr == nil {
			break
		}

		switch e := expr.(type) {
		case *FunctionDecl:
			if !e.IsAnonymous() {
				c.protos[e.Proto.Name] = e.Proto
			}
		case *Prototype:
			c.protos[e.Name] = e
		}
	}
}

func (c *ContextAnalyzer) get() Expr {
	if c.live {
		if !c.started {
			go c.parser.Do()
			c.started = true
		}

		expr := c.parser.Get()
		if _, done := expr.(*EOS); done {
			c.live = false
			return nil
		}

		c.cache = append(c.cache, expr)
		return expr
	}

	if c.index >= len(c.cache) {
		return nil
	}

	expr := c.cache[c.index]
	c.index++
	return expr
}

func (c *ContextAnalyzer) reset() {
	c.index = 0
}

func (c *ContextAnalyzer) analyze(expr Expr) []CompileError {
	switch e := expr.(type) {
	case *BadExpr:
		return []CompileError{&BadExprError{
			Loc:  e.GetLocation(),
			Expr: e,
		}}
	case *FunctionDecl:
		return c.checkCalls(e.Body)
	default:
		return nil
	}
}

// checkCalls walks an expression tree and validates the argument count of
// every call to a known prototype. Calls to unknown names are left alone;
// the IR builder reports those.
func (c *ContextAnalyzer) checkCalls(expr Expr) []CompileError {
	switch e := expr.(type) {
	case *BinaryExpr:
		return append(c.checkCalls(e.Lhs), c.checkCalls(e.Rhs)...)
	case *CallExpr:
		var errs []CompileError
		if proto, ok := c.protos[e.Callee]; ok && len(e.Args) != len(proto.Params) {
			errs = append(errs, &ArityError{
				Callee: e.Callee,
				Want:   len(proto.Params),
				Got:    len(e.Args),
			})
		}

		for _, arg := range e.Args {
			errs = append(errs, c.checkCalls(arg)...)
		}

		return errs
	default:
		return nil
	}
}
