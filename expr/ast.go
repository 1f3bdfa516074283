// Package expr implements the tokenizer and recursive-descent parser for
// the until-condition expression sub-language embedded in format
// descriptions.
package expr

// Expr is the expression AST used by until-conditions. It is a closed sum
// type realized as an interface with an unexported marker method, mirroring
// the HIR/LIR sum types.
type Expr interface {
	exprNode()
}

// Variable is a bare identifier reference, e.g. "chunks" or "packet".
type Variable struct {
	Name string
}

func (Variable) exprNode() {}

// FieldAccess is `base.field`, e.g. `chunks[-1].chunk_type`.
type FieldAccess struct {
	Base  Expr
	Field string
}

func (FieldAccess) exprNode() {}

// IndexSign distinguishes a positive (from-start) array index from a
// negative (from-end) one.
type IndexSign int

const (
	Positive IndexSign = iota
	Negative
)

// ArrayIndex is `array[n]` or `array[-n]`.
type ArrayIndex struct {
	Array Expr
	Sign  IndexSign
	Index int
}

func (ArrayIndex) exprNode() {}

// ComparisonOp enumerates the six comparison keywords.
type ComparisonOp int

const (
	Equals ComparisonOp = iota
	NotEquals
	LessThan
	GreaterThan
	LessThanOrEqual
	GreaterThanOrEqual
)

// comparisonOpNames maps the surface keyword to its ComparisonOp and back.
var comparisonOpNames = [...]string{
	Equals:             "equals",
	NotEquals:          "not-equals",
	LessThan:           "less-than",
	GreaterThan:        "greater-than",
	LessThanOrEqual:    "less-than-or-equal",
	GreaterThanOrEqual: "greater-than-or-equal",
}

func (op ComparisonOp) String() string {
	if int(op) < 0 || int(op) >= len(comparisonOpNames) {
		return "unknown"
	}
	return comparisonOpNames[op]
}

func comparisonOpFromString(s string) (ComparisonOp, bool) {
	for i, name := range comparisonOpNames {
		if name == s {
			return ComparisonOp(i), true
		}
	}
	return 0, false
}

// LogicalOp enumerates the two logical keywords.
type LogicalOp int

const (
	And LogicalOp = iota
	Or
)

func (op LogicalOp) String() string {
	if op == And {
		return "AND"
	}
	return "OR"
}

func logicalOpFromString(s string) (LogicalOp, bool) {
	switch s {
	case "AND":
		return And, true
	case "OR":
		return Or, true
	default:
		return 0, false
	}
}

// Comparison is `left op right`, e.g. `packet.flags equals 0x00`.
type Comparison struct {
	Left  Expr
	Op    ComparisonOp
	Right Expr
}

func (Comparison) exprNode() {}

// Logical is `left AND right` or `left OR right`.
type Logical struct {
	Left  Expr
	Op    LogicalOp
	Right Expr
}

func (Logical) exprNode() {}

// LiteralKind distinguishes the three literal shapes.
type LiteralKind int

const (
	IntegerLiteral LiteralKind = iota
	ByteArrayLiteral
	StringLiteral
)

// Literal is an integer, byte-array, or (single-quoted) string constant.
type Literal struct {
	Kind  LiteralKind
	Int   int64
	Bytes []byte
	Str   string
}

func (Literal) exprNode() {}
