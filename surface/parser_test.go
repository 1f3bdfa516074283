package surface

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/dezzy/hir"
)

func TestParseMinimalFormat(t *testing.T) {
	doc := []byte(`
name: minimal
endianness: big
types:
  - name: header
    type: struct
    fields:
      - name: magic
        type: u32
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, "minimal", format.Name)
	require.Equal(t, hir.Big, format.Endianness)
	require.Len(t, format.Types, 1)

	s, ok := format.Types[0].(hir.Struct)
	require.True(t, ok)
	require.Equal(t, "header", s.Name)
	require.Len(t, s.Fields, 1)
	prim, ok := s.Fields[0].FieldType.(hir.Primitive)
	require.True(t, ok)
	require.Equal(t, hir.U32, prim.Kind)
}

func TestParseDefaultEndiannessIsLittle(t *testing.T) {
	doc := []byte(`
name: f
types:
  - name: t
    type: struct
    fields:
      - name: a
        type: u8
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, hir.Little, format.Endianness)
}

func TestParseUnknownEndianness(t *testing.T) {
	doc := []byte(`
name: f
endianness: middle
types: []
`)
	_, err := Parse(doc)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, InvalidValue, se.Kind)
}

func TestParseDuplicateTypeName(t *testing.T) {
	doc := []byte(`
name: f
types:
  - name: t
    type: struct
    fields: []
  - name: t
    type: struct
    fields: []
`)
	_, err := Parse(doc)
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, DuplicateType, se.Kind)
}

func TestParseEnumPreservesValueOrder(t *testing.T) {
	doc := []byte(`
name: f
enums:
  - name: color_type
    type: u8
    values:
      greyscale: 0
      truecolor: 2
      indexed: 3
types: []
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	require.Len(t, format.Enums, 1)
	names := []string{}
	for _, v := range format.Enums[0].Values {
		names = append(names, v.Name)
	}
	require.Equal(t, []string{"greyscale", "truecolor", "indexed"}, names)
}

func TestParseFixedArray(t *testing.T) {
	typ, err := parseType("u8[4]", nil, knownTypes{})
	require.NoError(t, err)
	arr, ok := typ.(hir.Array)
	require.True(t, ok)
	require.Equal(t, 4, arr.Size)
}

func TestParseDynamicArray(t *testing.T) {
	typ, err := parseType("u8[length]", nil, knownTypes{})
	require.NoError(t, err)
	arr, ok := typ.(hir.DynamicArray)
	require.True(t, ok)
	require.Equal(t, "length", arr.SizeField)
}

func TestParseUntilEofArray(t *testing.T) {
	until := "eof"
	typ, err := parseType("u8[]", &until, knownTypes{})
	require.NoError(t, err)
	_, ok := typ.(hir.UntilEofArray)
	require.True(t, ok)
}

func TestParseUntilExprArrayRequiresUntil(t *testing.T) {
	_, err := parseType("u8[]", nil, knownTypes{})
	require.Error(t, err)
}

func TestParseUntilConditionArray(t *testing.T) {
	until := "chunk.chunk_type equals 'IEND'"
	typ, err := parseType("chunk[]", &until, knownTypes{structs: map[string]bool{"chunk": true}, enums: map[string]bool{}})
	require.NoError(t, err)
	arr, ok := typ.(hir.UntilConditionArray)
	require.True(t, ok)
	require.NotNil(t, arr.Condition)
}

func TestParseStringVariants(t *testing.T) {
	known := knownTypes{enums: map[string]bool{}, structs: map[string]bool{}}

	cstr, err := parseType("cstr", nil, known)
	require.NoError(t, err)
	require.IsType(t, hir.NullTerminatedString{}, cstr)

	fixed, err := parseType("str[8]", nil, known)
	require.NoError(t, err)
	require.Equal(t, hir.FixedString{Size: 8}, fixed)

	prefixed, err := parseType("str(name_length)", nil, known)
	require.NoError(t, err)
	require.Equal(t, hir.LengthPrefixedString{LengthField: "name_length"}, prefixed)
}

func TestParseBlobType(t *testing.T) {
	typ, err := parseType("blob(payload_size)", nil, knownTypes{})
	require.NoError(t, err)
	require.Equal(t, hir.Blob{SizeField: "payload_size"}, typ)
}

func TestParseBitfieldPrimitive(t *testing.T) {
	typ, err := parseType("u3", nil, knownTypes{})
	require.NoError(t, err)
	prim, ok := typ.(hir.Primitive)
	require.True(t, ok)
	require.Equal(t, hir.U3, prim.Kind)
	require.True(t, prim.Kind.IsBitfield())
}

func TestParseUnknownType(t *testing.T) {
	_, err := parseType("nonexistent", nil, knownTypes{enums: map[string]bool{}, structs: map[string]bool{}})
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, UnknownType, se.Kind)
}

func TestParseAssertEquals(t *testing.T) {
	doc := []byte(`
name: f
types:
  - name: t
    type: struct
    fields:
      - name: magic
        type: u32
        assert:
          equals: 1196314761
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	s := format.Types[0].(hir.Struct)
	require.NotNil(t, s.Fields[0].Assertion)
	require.Equal(t, hir.AssertEquals, s.Fields[0].Assertion.Kind)
	require.Equal(t, int64(1196314761), s.Fields[0].Assertion.Scalar)
}

func TestParseAssertRange(t *testing.T) {
	doc := []byte(`
name: f
types:
  - name: t
    type: struct
    fields:
      - name: bit_depth
        type: u8
        assert:
          range: [1, 16]
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	s := format.Types[0].(hir.Struct)
	require.Equal(t, hir.AssertRange, s.Fields[0].Assertion.Kind)
	require.Equal(t, int64(1), s.Fields[0].Assertion.Min)
	require.Equal(t, int64(16), s.Fields[0].Assertion.Max)
}

func TestParseSkipPadAlign(t *testing.T) {
	doc := []byte(`
name: f
types:
  - name: t
    type: struct
    fields:
      - name: reserved1
        pad: 4
      - name: reserved2
        skip: skip_length
      - name: reserved3
        align: 8
`)
	format, err := Parse(doc)
	require.NoError(t, err)
	s := format.Types[0].(hir.Struct)
	require.Equal(t, hir.SkipFixed, s.Fields[0].Skip.Kind)
	require.Equal(t, 4, s.Fields[0].Skip.Bytes)
	require.Equal(t, hir.SkipVariable, s.Fields[1].Skip.Kind)
	require.Equal(t, "skip_length", s.Fields[1].Skip.SizeField)
	require.Equal(t, hir.SkipAlign, s.Fields[2].Skip.Kind)
	require.Equal(t, 8, s.Fields[2].Skip.Boundary)
}
