package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/dezzy/hir"
	"github.com/anthropics/dezzy/lir"
)

func TestLowerSimpleHeader(t *testing.T) {
	format := &hir.Format{
		Name:       "TestFormat",
		Version:    "1.0",
		HasVersion: true,
		Endianness: hir.Little,
		Types: []hir.TypeDef{
			hir.Struct{
				Name: "Header",
				Fields: []hir.Field{
					{Name: "magic", FieldType: hir.Primitive{Kind: hir.U32}},
					{Name: "version", FieldType: hir.Primitive{Kind: hir.U16}},
				},
			},
		},
	}

	out, err := Lower(format)
	require.NoError(t, err)
	require.Len(t, out.Types, 1)

	ops := out.Types[0].Operations
	require.Len(t, ops, 7)

	r0, ok := ops[0].(lir.ReadU32)
	require.True(t, ok)
	require.Equal(t, hir.Little, r0.Endianness)

	r1, ok := ops[1].(lir.ReadU16)
	require.True(t, ok)
	require.Equal(t, hir.Little, r1.Endianness)

	create, ok := ops[2].(lir.CreateStruct)
	require.True(t, ok)
	require.Equal(t, "Header", create.TypeName)
	require.Equal(t, []lir.VarId{r0.Dest, r1.Dest}, create.Fields)

	_, ok = ops[3].(lir.AccessField)
	require.True(t, ok)
	w0, ok := ops[4].(lir.WriteU32)
	require.True(t, ok)
	require.Equal(t, hir.Little, w0.Endianness)

	_, ok = ops[5].(lir.AccessField)
	require.True(t, ok)
	_, ok = ops[6].(lir.WriteU16)
	require.True(t, ok)
}

func TestLowerFixedArray(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Types: []hir.TypeDef{
			hir.Struct{
				Name: "Block",
				Fields: []hir.Field{
					{Name: "data", FieldType: hir.Array{Element: hir.Primitive{Kind: hir.U8}, Size: 16}},
				},
			},
		},
	}

	out, err := Lower(format)
	require.NoError(t, err)
	read, ok := out.Types[0].Operations[0].(lir.ReadArray)
	require.True(t, ok)
	require.Equal(t, 16, read.Count)
	_, ok = read.ElementOp.(lir.ReadU8)
	require.True(t, ok)
}

func TestLowerDynamicArrayResolvesSizeField(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Types: []hir.TypeDef{
			hir.Struct{
				Name: "Packet",
				Fields: []hir.Field{
					{Name: "len", FieldType: hir.Primitive{Kind: hir.U16}},
					{Name: "payload", FieldType: hir.DynamicArray{Element: hir.Primitive{Kind: hir.U8}, SizeField: "len"}},
				},
			},
		},
	}

	out, err := Lower(format)
	require.NoError(t, err)
	ops := out.Types[0].Operations
	lenRead := ops[0].(lir.ReadU16)

	payloadRead, ok := ops[1].(lir.ReadDynamicArray)
	require.True(t, ok)
	require.Equal(t, lenRead.Dest, payloadRead.SizeVar)
	require.Equal(t, "len", payloadRead.SizeFieldName)

	// find the write side
	var dynWrite lir.WriteDynamicArray
	for _, op := range ops {
		if w, ok := op.(lir.WriteDynamicArray); ok {
			dynWrite = w
		}
	}
	require.Equal(t, "len", dynWrite.SizeFieldName)
}

func TestLowerDynamicArrayUnknownSizeField(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Types: []hir.TypeDef{
			hir.Struct{
				Name: "Packet",
				Fields: []hir.Field{
					{Name: "payload", FieldType: hir.DynamicArray{Element: hir.Primitive{Kind: hir.U8}, SizeField: "missing"}},
				},
			},
		},
	}

	_, err := Lower(format)
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, UnknownType, pe.Kind)
}

func TestLowerEnumField(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Enums: []hir.Enum{
			{Name: "Kind", UnderlyingType: hir.U8, Values: []hir.EnumValue{{Name: "A", Value: 0}, {Name: "B", Value: 1}}},
		},
		Types: []hir.TypeDef{
			hir.Struct{
				Name: "Tag",
				Fields: []hir.Field{
					{Name: "k", FieldType: hir.EnumRef{Name: "Kind"}},
				},
			},
		},
	}

	out, err := Lower(format)
	require.NoError(t, err)
	read, ok := out.Types[0].Operations[0].(lir.ReadU8)
	require.True(t, ok)
	require.Equal(t, out.Types[0].Fields[0].Var, read.Dest)
}

func TestLowerTopologicalOrder(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Types: []hir.TypeDef{
			hir.Struct{Name: "B", Fields: []hir.Field{{Name: "a", FieldType: hir.UserDefined{Name: "A"}}}},
			hir.Struct{Name: "A", Fields: []hir.Field{{Name: "x", FieldType: hir.Primitive{Kind: hir.U32}}}},
		},
	}

	out, err := Lower(format)
	require.NoError(t, err)
	require.Equal(t, "A", out.Types[0].Name)
	require.Equal(t, "B", out.Types[1].Name)
}

func TestLowerCircularDependency(t *testing.T) {
	format := &hir.Format{
		Name: "f",
		Types: []hir.TypeDef{
			hir.Struct{Name: "A", Fields: []hir.Field{{Name: "b", FieldType: hir.UserDefined{Name: "B"}}}},
			hir.Struct{Name: "B", Fields: []hir.Field{{Name: "a", FieldType: hir.UserDefined{Name: "A"}}}},
		},
	}

	_, err := Lower(format)
	require.Error(t, err)
	var pe *Error
	require.ErrorAs(t, err, &pe)
	require.Equal(t, CircularDependency, pe.Kind)
	require.ElementsMatch(t, []string{"A", "B"}, pe.Nodes)
}
