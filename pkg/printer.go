package kaleidoscope

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a parsed entity back to source text. Binary expressions are
// fully parenthesized, so formatting and re-parsing an entity yields a
// structurally identical tree regardless of the precedence table in use.
func Format(expr Expr) string {
	switch e := expr.(type) {
	case *FunctionDecl:
		if e.IsAnonymous() {
			return formatExpr(e.Body)
		}

		return fmt.Sprintf("def %s %s", formatProto(e.Proto), formatExpr(e.Body))
	case *Prototype:
		return "extern " + formatProto(e)
	case *BadExpr:
		return ""
	default:
		return formatExpr(expr)
	}
}

func formatProto(p *Prototype) string {
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(p.Params, " "))
}

func formatExpr(expr Expr) string {
	switch e := expr.(type) {
	case *NumberLiteral:
		// The 'f' form only ever prints digits and a dot, which is the
		// whole numeric alphabet the lexer understands
		return strconv.FormatFloat(e.Value, 'f', -1, 64)
	case *VariableRef:
		return e.Name
	case *BinaryExpr:
		return fmt.Sprintf("(%s %s %s)", formatExpr(e.Lhs), e.Op, formatExpr(e.Rhs))
	case *CallExpr:
		args := make([]string, len(e.Args))
		for i, arg := range e.Args {
			args[i] = formatExpr(arg)
		}

		return fmt.Sprintf("%s(%s)", e.Callee, strings.Join(args, ", "))
	default:
		return ""
	}
}
