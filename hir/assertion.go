package hir

// AssertionKind enumerates the assertion shapes a field's value can be
// checked against immediately after it is read.
type AssertionKind int

const (
	AssertEquals AssertionKind = iota
	AssertNotEquals
	AssertGreaterThan
	AssertGreaterOrEqual
	AssertLessThan
	AssertLessOrEqual
	AssertIn
	AssertNotIn
	AssertRange
)

// Assertion is the sum described in spec §3: Equals/NotEquals carry either
// a scalar or a byte array (for matching against fixed-size array fields);
// the ordering comparisons and In/NotIn carry i64 values; Range carries an
// inclusive [min, max] pair.
type Assertion struct {
	Kind AssertionKind

	// Scalar carries the operand for Equals/NotEquals/GreaterThan/
	// GreaterOrEqual/LessThan/LessOrEqual.
	Scalar int64

	// IntArray carries the operand for Equals/NotEquals when compared
	// against an array-valued field.
	IntArray []int64

	// List carries the operand for In/NotIn.
	List []int64

	// Min/Max carry the operands for Range.
	Min int64
	Max int64
}
