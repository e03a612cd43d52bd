package kaleidoscope

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
)

// The library functions the tutorial language ships with: putchard prints a
// single character, printd a number followed by a newline. Both take and
// return a double like everything else.

func builtinPrototypes() map[string]*Prototype {
	return map[string]*Prototype{
		"putchard": {Name: "putchard", Params: []string{"char"}},
		"printd":   {Name: "printd", Params: []string{"x"}},
	}
}

func defineBuiltins(b *LLVMIRBuilder) {
	printf := b.mod.NewFunc("printf", types.I32, ir.NewParam("format", types.I8Ptr))
	printf.Sig.Variadic = true

	defineBuiltinFunc(b, "putchard", printf, builtinPutchard)
	defineBuiltinFunc(b, "printd", printf, builtinPrintd)
}

type funcDefinition = func(mod *ir.Module, printf *ir.Func) *ir.Func

func defineBuiltinFunc(b *LLVMIRBuilder, name string, printf *ir.Func, definition funcDefinition) {
	f := definition(b.mod, printf)
	f.SetName(name)
	b.funcs[name] = f
}

func builtinPutchard(mod *ir.Module, printf *ir.Func) *ir.Func {
	f := mod.NewFunc("", types.Double, ir.NewParam("char", types.Double))
	b := f.NewBlock("")

	fmtAddr := defineFormat(mod, "._putchard_fmt", "%c")

	c := b.NewFPToSI(f.Params[0], types.I32)
	b.NewCall(printf, fmtAddr, c)

	b.NewRet(constant.NewFloat(types.Double, 0))

	return f
}

func builtinPrintd(mod *ir.Module, printf *ir.Func) *ir.Func {
	f := mod.NewFunc("", types.Double, ir.NewParam("x", types.Double))
	b := f.NewBlock("")

	fmtAddr := defineFormat(mod, "._printd_fmt", "%f\n")

	b.NewCall(printf, fmtAddr, f.Params[0])

	b.NewRet(constant.NewFloat(types.Double, 0))

	return f
}

func defineFormat(mod *ir.Module, name, format string) constant.Constant {
	arr := constant.NewCharArrayFromString(format + "\x00")
	glob := mod.NewGlobalDef(name, arr)

	zero := constant.NewInt(types.I32, 0)
	return constant.NewGetElementPtr(types.NewArray(uint64(len(format)+1), types.I8), glob, zero, zero)
}
