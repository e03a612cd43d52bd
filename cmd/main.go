package main

import (
	"fmt"
	"log"
	"os"

	kaleidoscope "github.com/jmpnz/kaleidoscope/pkg"
)

func main() {
	if len(os.Args) == 2 {
		compileFile(os.Args[1])
		return
	}

	repl()
}

func compileFile(filename string) {
	c := kaleidoscope.NewCompiler()

	mod, compileErrs, err := c.Compile(filename)
	if err != nil {
		log.Fatalln(err)
	}

	if len(compileErrs) != 0 {
		for _, cerr := range compileErrs {
			fmt.Fprintln(os.Stderr, "error:", cerr)
		}

		os.Exit(1)
	}

	fmt.Print(mod)
}

// repl reads entities from stdin one at a time, lowering each as it
// arrives, and prints the accumulated module at end of input.
func repl() {
	lexer := kaleidoscope.NewLexerFromReader(os.Stdin)
	parser := kaleidoscope.NewParser(lexer)
	builder := kaleidoscope.NewLLVMIRBuilder()

	go parser.Do()

	fmt.Print("ready> ")
	for entity := range parser.Chan() {
		switch e := entity.(type) {
		case *kaleidoscope.EOS:
			fmt.Println()
			fmt.Print(builder.Module())
			return
		case *kaleidoscope.BadExpr:
			fmt.Println("error:", e.Error)
		case *kaleidoscope.Prototype:
			lower(builder, entity, "Parsed an extern.")
		case *kaleidoscope.FunctionDecl:
			if e.IsAnonymous() {
				lower(builder, entity, "Parsed a top-level expression.")
			} else {
				lower(builder, entity, "Parsed a function definition.")
			}
		}

		fmt.Print("ready> ")
	}
}

func lower(builder *kaleidoscope.LLVMIRBuilder, entity kaleidoscope.Expr, msg string) {
	if err := builder.Entity(entity); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(msg)
}
