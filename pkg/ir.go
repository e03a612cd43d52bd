package kaleidoscope

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/pkg/errors"
)

const anonFuncName = "__anon_expr"

type ValueLookup struct {
	vals map[string]value.Value
}

func NewValueLookup() *ValueLookup {
	return &ValueLookup{
		vals: make(map[string]value.Value),
	}
}

func (l *ValueLookup) Inherit(t2 *ValueLookup) {
	for k, v := range t2.vals {
		l.Set(k, v)
	}
}

func (l *ValueLookup) Get(id string) (value.Value, bool) {
	val, ok := l.vals[id]
	return val, ok
}

func (l *ValueLookup) Set(id string, val value.Value) {
	l.vals[id] = val
}

type IRGenerator interface {
	Do() (IR, error)
}

type IR interface {
	fmt.Stringer
}

// LLVMIRBuilder lowers entities into one LLVM module. Every value in the
// language is a double; comparisons produce a bit that is converted back.
type LLVMIRBuilder struct {
	mod    *ir.Module
	block  *ir.Block
	values *ValueLookup
	funcs  map[string]*ir.Func
	anon   int
}

func NewLLVMIRBuilder() *LLVMIRBuilder {
	builder := &LLVMIRBuilder{
		mod:    ir.NewModule(),
		values: NewValueLookup(),
		funcs:  make(map[string]*ir.Func),
	}

	defineBuiltins(builder)
	return builder
}

func (b *LLVMIRBuilder) Module() *ir.Module {
	return b.mod
}

// Entity lowers one top-level entity into the module.
func (b *LLVMIRBuilder) Entity(expr Expr) error {
	switch e := expr.(type) {
	case *FunctionDecl:
		_, err := b.function(e)
		return err
	case *Prototype:
		_, err := b.declare(e)
		return err
	case *BadExpr:
		return errors.New(e.Error)
	default:
		return errors.Errorf("cannot lower entity of type %T", expr)
	}
}

// declare returns the function for a prototype, reusing an earlier
// declaration of the same name when the parameter counts agree.
func (b *LLVMIRBuilder) declare(proto *Prototype) (*ir.Func, error) {
	if f, ok := b.funcs[proto.Name]; ok {
		if len(f.Params) != len(proto.Params) {
			return nil, errors.Errorf("redeclaration of '%s' with %d parameters, previously %d",
				proto.Name, len(proto.Params), len(f.Params))
		}

		return f, nil
	}

	params := make([]*ir.Param, len(proto.Params))
	for i, name := range proto.Params {
		params[i] = ir.NewParam(name, types.Double)
	}

	f := b.mod.NewFunc(proto.Name, types.Double, params...)
	b.funcs[proto.Name] = f

	return f, nil
}

func (b *LLVMIRBuilder) function(decl *FunctionDecl) (*ir.Func, error) {
	var f *ir.Func
	created := true

	if decl.IsAnonymous() {
		f = b.mod.NewFunc(b.anonName(), types.Double)
	} else {
		_, created = b.funcs[decl.Proto.Name]
		created = !created

		var err error
		if f, err = b.declare(decl.Proto); err != nil {
			return nil, err
		}

		if len(f.Blocks) != 0 {
			return nil, errors.Errorf("function '%s' redefined", decl.Proto.Name)
		}
	}

	prevBlock := b.block
	b.block = f.NewBlock("entry")

	// A function body sees its own parameters and nothing else
	prevVals := b.values
	b.values = NewValueLookup()
	for i, name := range decl.Proto.Params {
		b.values.Set(name, f.Params[i])
	}

	defer func() {
		b.block = prevBlock
		b.values = prevVals
	}()

	ret, err := b.expression(decl.Body)
	if err != nil {
		// No half-built function may survive a failed body: either the
		// whole definition goes, or an extern goes back to a declaration
		f.Blocks = nil
		if created || decl.IsAnonymous() {
			b.eraseFunc(f)
			delete(b.funcs, decl.Proto.Name)
		}

		return nil, err
	}

	b.block.NewRet(ret)
	return f, nil
}

func (b *LLVMIRBuilder) expression(expr Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *NumberLiteral:
		return constant.NewFloat(types.Double, e.Value), nil
	case *VariableRef:
		if v, ok := b.values.Get(e.Name); ok {
			return v, nil
		}

		return nil, errors.Errorf("unknown variable name '%s'", e.Name)
	case *BinaryExpr:
		return b.binary(e)
	case *CallExpr:
		return b.call(e)
	default:
		return nil, errors.Errorf("cannot lower expression of type %T", expr)
	}
}

func (b *LLVMIRBuilder) binary(e *BinaryExpr) (value.Value, error) {
	lhs, err := b.expression(e.Lhs)
	if err != nil {
		return nil, err
	}

	rhs, err := b.expression(e.Rhs)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+":
		return b.block.NewFAdd(lhs, rhs), nil
	case "-":
		return b.block.NewFSub(lhs, rhs), nil
	case "*":
		return b.block.NewFMul(lhs, rhs), nil
	case "<":
		cmp := b.block.NewFCmp(enum.FPredULT, lhs, rhs)
		return b.block.NewUIToFP(cmp, types.Double), nil
	default:
		return nil, errors.Errorf("invalid binary operator '%s'", e.Op)
	}
}

func (b *LLVMIRBuilder) call(e *CallExpr) (value.Value, error) {
	f, ok := b.funcs[e.Callee]
	if !ok {
		return nil, errors.Errorf("unknown function '%s' referenced", e.Callee)
	}

	if len(f.Params) != len(e.Args) {
		return nil, errors.Errorf("call to '%s' takes %d arguments, got %d",
			e.Callee, len(f.Params), len(e.Args))
	}

	args := make([]value.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := b.expression(arg)
		if err != nil {
			return nil, err
		}

		args[i] = v
	}

	return b.block.NewCall(f, args...), nil
}

func (b *LLVMIRBuilder) anonName() string {
	b.anon++
	if b.anon == 1 {
		return anonFuncName
	}

	return fmt.Sprintf("%s.%d", anonFuncName, b.anon-1)
}

func (b *LLVMIRBuilder) eraseFunc(f *ir.Func) {
	for i, g := range b.mod.Funcs {
		if g == f {
			b.mod.Funcs = append(b.mod.Funcs[:i], b.mod.Funcs[i+1:]...)
			return
		}
	}
}

type LLVMGenerator struct {
	ast *AST
}

func NewLLVMGenerator(ast *AST) *LLVMGenerator {
	return &LLVMGenerator{
		ast: ast,
	}
}

func (g *LLVMGenerator) Do() (IR, error) {
	builder := NewLLVMIRBuilder()
	for _, entity := range g.ast.Entities {
		if err := builder.Entity(entity); err != nil {
			return nil, errors.Wrapf(err, "lowering %s", g.ast.Filename)
		}
	}

	return builder.mod, nil
}
