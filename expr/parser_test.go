package expr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSimpleComparison(t *testing.T) {
	e, err := Parse("x equals 5")
	require.NoError(t, err)

	cmp, ok := e.(Comparison)
	require.True(t, ok)
	require.Equal(t, Equals, cmp.Op)
	require.IsType(t, Variable{}, cmp.Left)
	lit, ok := cmp.Right.(Literal)
	require.True(t, ok)
	require.Equal(t, IntegerLiteral, lit.Kind)
	require.Equal(t, int64(5), lit.Int)
}

func TestParseFieldAccess(t *testing.T) {
	e, err := Parse("chunk.type equals 'IEND'")
	require.NoError(t, err)

	cmp, ok := e.(Comparison)
	require.True(t, ok)
	require.Equal(t, Equals, cmp.Op)
	require.IsType(t, FieldAccess{}, cmp.Left)
	lit, ok := cmp.Right.(Literal)
	require.True(t, ok)
	require.Equal(t, StringLiteral, lit.Kind)
	require.Equal(t, "IEND", lit.Str)
}

func TestParseArrayIndexByteArray(t *testing.T) {
	e, err := Parse("chunks[-1].chunk_type equals [73, 69, 78, 68]")
	require.NoError(t, err)

	cmp, ok := e.(Comparison)
	require.True(t, ok)
	require.Equal(t, Equals, cmp.Op)

	fa, ok := cmp.Left.(FieldAccess)
	require.True(t, ok)
	require.Equal(t, "chunk_type", fa.Field)

	idx, ok := fa.Base.(ArrayIndex)
	require.True(t, ok)
	require.Equal(t, Negative, idx.Sign)
	require.Equal(t, 1, idx.Index)

	lit, ok := cmp.Right.(Literal)
	require.True(t, ok)
	require.Equal(t, ByteArrayLiteral, lit.Kind)
	require.Equal(t, []byte{73, 69, 78, 68}, lit.Bytes)
}

func TestParseLogical(t *testing.T) {
	e, err := Parse("packet.flags equals 0x00 AND packet.length less-than 1500")
	require.NoError(t, err)

	logical, ok := e.(Logical)
	require.True(t, ok)
	require.Equal(t, And, logical.Op)

	left, ok := logical.Left.(Comparison)
	require.True(t, ok)
	require.Equal(t, Equals, left.Op)

	right, ok := logical.Right.(Comparison)
	require.True(t, ok)
	require.Equal(t, LessThan, right.Op)
}

func TestParsePositiveIndex(t *testing.T) {
	e, err := Parse("items[0] equals 1")
	require.NoError(t, err)

	cmp := e.(Comparison)
	idx := cmp.Left.(ArrayIndex)
	require.Equal(t, Positive, idx.Sign)
	require.Equal(t, 0, idx.Index)
}

func TestParseInvalidHex(t *testing.T) {
	_, err := Parse("x equals 0xZZ")
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "expression", pe.Field)
}

func TestParseUnexpectedEOF(t *testing.T) {
	_, err := Parse("x equals")
	require.Error(t, err)
}

func TestParseMissingCloseBracket(t *testing.T) {
	_, err := Parse("chunks[-1 equals 1")
	require.Error(t, err)
}

func TestParseAllComparisonOps(t *testing.T) {
	tests := []struct {
		keyword string
		op      ComparisonOp
	}{
		{"equals", Equals},
		{"not-equals", NotEquals},
		{"less-than", LessThan},
		{"greater-than", GreaterThan},
		{"less-than-or-equal", LessThanOrEqual},
		{"greater-than-or-equal", GreaterThanOrEqual},
	}

	for _, tt := range tests {
		t.Run(tt.keyword, func(t *testing.T) {
			e, err := Parse("x " + tt.keyword + " 1")
			require.NoError(t, err)
			cmp := e.(Comparison)
			require.Equal(t, tt.op, cmp.Op)
		})
	}
}
