package wasmhost

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/dezzy/hir"
	"github.com/anthropics/dezzy/lir"
)

func TestUnpackPointerLength(t *testing.T) {
	packed := uint64(0x0000_1234_0000_0056)
	ptr, length := unpackPointerLength(packed)
	require.Equal(t, uint32(0x56), ptr)
	require.Equal(t, uint32(0x1234), length)
}

func TestToExchangePreservesOperationOrder(t *testing.T) {
	format := &lir.Format{
		Name:       "sample",
		Endianness: hir.Big,
		Types: []*lir.Type{
			{
				Name: "Header",
				Fields: []lir.Field{
					{Name: "magic", TypeText: "u32", Var: 0},
				},
				Operations: []lir.Operation{
					lir.ReadU32{Dest: 0, Endianness: hir.Big},
					lir.CreateStruct{Dest: 1, TypeName: "Header", Fields: []lir.VarId{0}},
					lir.AccessField{Dest: 2, StructVar: 3, FieldIndex: 0},
					lir.WriteU32{Src: 2, Endianness: hir.Big},
				},
				ReadResult: 1,
				WriteParam: 3,
			},
		},
	}

	ex := toExchange(format)
	require.Equal(t, "sample", ex.Name)
	require.Equal(t, "big", ex.Endianness)
	require.Len(t, ex.Types, 1)
	require.Len(t, ex.Types[0].Operations, 4)
	require.Equal(t, "read_u32", ex.Types[0].Operations[0]["op"])
	require.Equal(t, "create_struct", ex.Types[0].Operations[1]["op"])
	require.Equal(t, "write_u32", ex.Types[0].Operations[3]["op"])
}

func TestEncodeAssertionRange(t *testing.T) {
	a := &hir.Assertion{Kind: hir.AssertRange, Min: 1, Max: 10}
	m := encodeAssertion(a)
	require.Equal(t, "range", m["kind"])
	require.Equal(t, int64(1), m["min"])
	require.Equal(t, int64(10), m["max"])
}
