package kaleidoscope

// AST holds every top-level entity parsed from one source, in order, plus
// the diagnostics collected along the way.
type AST struct {
	Filename string
	Entities []Expr
	Errors   []CompileError
}

type Expr interface{}

// BadExpr marks a failed parse. It is returned in place of the node the
// parser was building; no partially built node ever escapes a failure.
type BadExpr struct {
	Location *Location
	Error    string
}

func (e *BadExpr) GetLocation() *Location {
	return e.Location
}

// EOS terminates the streaming entity channel.
type EOS struct{}

type NumberLiteral struct {
	Value float64
}

type VariableRef struct {
	Name string
}

type BinaryExpr struct {
	Op  string
	Lhs Expr
	Rhs Expr
}

type CallExpr struct {
	Callee string
	Args   []Expr
}

// Prototype captures a function's name and its positional parameter names.
// Parameter uniqueness is not checked here.
type Prototype struct {
	Name   string
	Params []string
}

// FunctionDecl is a named definition, or the anonymous wrapper around a bare
// top-level expression when Proto has an empty name and no parameters.
type FunctionDecl struct {
	Proto *Prototype
	Body  Expr
}

func (f *FunctionDecl) IsAnonymous() bool {
	return f.Proto != nil && f.Proto.Name == ""
}
