package codegen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/anthropics/dezzy/pipeline"
	"github.com/anthropics/dezzy/surface"
)

func generate(t *testing.T, doc string) string {
	t.Helper()
	format, err := surface.Parse([]byte(doc))
	require.NoError(t, err)
	lirFormat, err := pipeline.Lower(format)
	require.NoError(t, err)
	code, err := (GoBackend{}).Generate(lirFormat)
	require.NoError(t, err)
	require.Len(t, code.Files, 1)
	return code.Files[0].Content
}

func TestGenerateSimpleStruct(t *testing.T) {
	code := generate(t, `
name: points
endianness: big
types:
  - name: point
    type: struct
    fields:
      - name: x
        type: u16
      - name: y
        type: u16
`)

	require.Contains(t, code, "type Point struct {")
	require.Contains(t, code, "X uint16")
	require.Contains(t, code, "Y uint16")
	require.Contains(t, code, "func ReadPoint(r *Reader) (*Point, error) {")
	require.Contains(t, code, "r.ReadU16BE()")
	require.Contains(t, code, "func WritePoint(w *Writer, value *Point) error {")
	require.Contains(t, code, "w.WriteU16BE(uint16(value.X))")
	require.Contains(t, code, "w.WriteU16BE(uint16(value.Y))")
}

func TestGenerateLittleEndianSuffix(t *testing.T) {
	code := generate(t, `
name: header
endianness: little
types:
  - name: header
    type: struct
    fields:
      - name: magic
        type: u32
`)

	require.Contains(t, code, "r.ReadU32LE()")
	require.Contains(t, code, "w.WriteU32LE(uint32(value.Magic))")
}

func TestGenerateFixedArray(t *testing.T) {
	code := generate(t, `
name: palette
endianness: big
types:
  - name: palette
    type: struct
    fields:
      - name: entries
        type: u8[4]
`)

	require.Contains(t, code, "Entries [4]uint8")
	require.Contains(t, code, "var v0 [4]uint8")
	require.Contains(t, code, "for i := 0; i < 4; i++ {")
}

func TestGenerateDynamicArray(t *testing.T) {
	code := generate(t, `
name: blob_format
endianness: big
types:
  - name: chunk
    type: struct
    fields:
      - name: count
        type: u16
      - name: values
        type: u8[count]
`)

	require.Contains(t, code, "Values []uint8")
	require.Contains(t, code, "make([]uint8, 0, int(v0))")
}

func TestGenerateEnumField(t *testing.T) {
	code := generate(t, `
name: colored
endianness: big
enums:
  - name: color
    type: u8
    values:
      red: 0
      green: 1
      blue: 2
types:
  - name: pixel
    type: struct
    fields:
      - name: c
        type: color
`)

	require.Contains(t, code, "type Color uint8")
	require.Contains(t, code, "ColorRed Color = 0")
	require.Contains(t, code, "C Color")
	require.Contains(t, code, "Color(v0)")
}

func TestGenerateAssertionField(t *testing.T) {
	code := generate(t, `
name: magic_format
endianness: big
types:
  - name: header
    type: struct
    fields:
      - name: magic
        type: u32
        assert:
          equals: 1196314761
`)

	require.Contains(t, code, "ParseError{Field: \"magic\"")
}

func TestGenerateUntilConditionArraySelfReference(t *testing.T) {
	code := generate(t, `
name: png_like
endianness: big
types:
  - name: chunk
    type: struct
    fields:
      - name: chunk_type
        type: u8[4]
  - name: png_like
    type: struct
    fields:
      - name: chunks
        type: chunk[]
        until: "chunks[-1].chunk_type equals [73, 69, 78, 68]"
`)

	require.Contains(t, code, "v4 = append(v4, *v4Elem)")
	require.Contains(t, code, "if (v4[len(v4) - 1].ChunkType == [4]byte{73, 69, 78, 68}) {")
	require.NotContains(t, code, "v4.Chunks")
}

func TestGenerateNestedStruct(t *testing.T) {
	code := generate(t, `
name: wrapper_format
endianness: big
types:
  - name: inner
    type: struct
    fields:
      - name: value
        type: u8
  - name: outer
    type: struct
    fields:
      - name: body
        type: inner
`)

	require.Contains(t, code, "Body Inner")
	require.Contains(t, code, "ReadInner(r)")
	require.Contains(t, code, "WriteInner(w, &value.Body)")
}
