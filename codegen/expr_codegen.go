package codegen

import (
	"strconv"
	"strings"

	"github.com/anthropics/dezzy/expr"
)

// GenerateExpr walks the until-condition AST and emits a parenthesized
// Go boolean expression (spec §4.H). arrayName is the Go expression the
// generated loop already has in scope for the array being built (e.g.
// "v0" or "result.Chunks"); selfName is the field's own surface name, the
// name the condition's own author would have written to refer to the
// array being read (e.g. "chunks"). A bare Variable matching selfName
// resolves to arrayName itself; any other bare Variable is emitted as a
// field access on it.
func GenerateExpr(e expr.Expr, arrayName, selfName string) string {
	switch v := e.(type) {
	case expr.Variable:
		if v.Name == selfName {
			return arrayName
		}
		return arrayName + "." + capitalizeFirst(v.Name)

	case expr.FieldAccess:
		return GenerateExpr(v.Base, arrayName, selfName) + "." + capitalizeFirst(v.Field)

	case expr.ArrayIndex:
		base := GenerateExpr(v.Array, arrayName, selfName)
		if v.Sign == expr.Negative {
			return base + "[len(" + base + ") - " + strconv.Itoa(v.Index) + "]"
		}
		return base + "[" + strconv.Itoa(v.Index) + "]"

	case expr.Comparison:
		left := GenerateExpr(v.Left, arrayName, selfName)
		right := GenerateExpr(v.Right, arrayName, selfName)
		return "(" + left + " " + comparisonSymbol(v.Op) + " " + right + ")"

	case expr.Logical:
		left := GenerateExpr(v.Left, arrayName, selfName)
		right := GenerateExpr(v.Right, arrayName, selfName)
		return "(" + left + " " + logicalSymbol(v.Op) + " " + right + ")"

	case expr.Literal:
		return generateLiteral(v)

	default:
		return "/* unrecognized expression */"
	}
}

func generateLiteral(lit expr.Literal) string {
	switch lit.Kind {
	case expr.IntegerLiteral:
		return strconv.FormatInt(lit.Int, 10)
	case expr.ByteArrayLiteral:
		return byteArrayLiteral(lit.Bytes)
	case expr.StringLiteral:
		return byteArrayLiteral([]byte(lit.Str))
	default:
		return "/* unrecognized literal */"
	}
}

func byteArrayLiteral(b []byte) string {
	parts := make([]string, len(b))
	for i, x := range b {
		parts[i] = strconv.Itoa(int(x))
	}
	return "[" + strconv.Itoa(len(b)) + "]byte{" + strings.Join(parts, ", ") + "}"
}

func comparisonSymbol(op expr.ComparisonOp) string {
	switch op {
	case expr.Equals:
		return "=="
	case expr.NotEquals:
		return "!="
	case expr.LessThan:
		return "<"
	case expr.GreaterThan:
		return ">"
	case expr.LessThanOrEqual:
		return "<="
	case expr.GreaterThanOrEqual:
		return ">="
	default:
		return "?"
	}
}

func logicalSymbol(op expr.LogicalOp) string {
	if op == expr.And {
		return "&&"
	}
	return "||"
}
