// Package hir defines the typed high-level intermediate representation
// produced by the surface parser and consumed once by the lowering
// pipeline.
package hir

import "github.com/anthropics/dezzy/expr"

// Endianness is the byte order pinned at the format level.
type Endianness int

const (
	Little Endianness = iota
	Big
	Native
)

func (e Endianness) String() string {
	switch e {
	case Little:
		return "little"
	case Big:
		return "big"
	case Native:
		return "native"
	default:
		return "unknown"
	}
}

// PrimitiveType enumerates the fixed-width and sub-byte integer primitives.
type PrimitiveType int

const (
	U8 PrimitiveType = iota
	U16
	U32
	U64
	I8
	I16
	I32
	I64
	// U1..U7/I1..I7 are sub-byte bitfield primitives, supplemented from
	// the original implementation (see SPEC_FULL.md §4).
	U1
	U2
	U3
	U4
	U5
	U6
	U7
	I1
	I2
	I3
	I4
	I5
	I6
	I7
)

// Format is the top-level HIR unit.
type Format struct {
	Name        string
	Version     string
	HasVersion  bool
	Endianness  Endianness
	Enums       []Enum
	Types       []TypeDef
}

// Enum is a named, ordered set of integer constants over an underlying
// primitive type.
type Enum struct {
	Name           string
	Doc            string
	UnderlyingType PrimitiveType
	Values         []EnumValue
}

// EnumValue is one `(name, integer value)` pair within an Enum.
type EnumValue struct {
	Name  string
	Value int64
	Doc   string
}

// TypeDef is a top-level type definition. Only structs exist today, but
// the sum shape leaves room for future type kinds without disturbing
// existing callers.
type TypeDef interface {
	typeDefNode()
}

// Struct is an ordered list of fields; the order is the wire order.
type Struct struct {
	Name   string
	Doc    string
	Fields []Field
}

func (Struct) typeDefNode() {}

// SkipKind distinguishes the three positioning directives.
type SkipKind int

const (
	SkipVariable SkipKind = iota // skip by the value of a previously-read field
	SkipFixed                    // skip a literal byte count
	SkipAlign                    // advance to the next multiple of a boundary
)

// Skip is the optional positioning directive carried by a field in place
// of a read. Supplemented from the original implementation per spec §9.
type Skip struct {
	Kind        SkipKind
	SizeField   string // SkipVariable
	Bytes       int    // SkipFixed
	Boundary    int    // SkipAlign
}

// Field is one member of a Struct, in wire order.
type Field struct {
	Name      string
	Doc       string
	FieldType Type
	Assertion *Assertion
	Until     UntilCondition
	Skip      *Skip
}

// UntilConditionKind distinguishes an `until: eof` marker from a parsed
// boolean expression, and from "no until at all".
type UntilConditionKind int

const (
	UntilNone UntilConditionKind = iota
	UntilEof
	UntilExpr
)

// UntilCondition is the optional until-clause attached to an unbounded
// array field.
type UntilCondition struct {
	Kind UntilConditionKind
	Expr expr.Expr
}

// Type is the sum of all HIR type shapes (spec §3).
type Type interface {
	typeNode()
}

// Primitive is one of the fixed-width or sub-byte integer primitives.
type Primitive struct {
	Kind PrimitiveType
}

func (Primitive) typeNode() {}

// Array is a fixed-count element sequence.
type Array struct {
	Element Type
	Size    int
}

func (Array) typeNode() {}

// DynamicArray's count is the value of a previously-read sibling field.
type DynamicArray struct {
	Element   Type
	SizeField string
}

func (DynamicArray) typeNode() {}

// UntilEofArray consumes elements until the input is exhausted.
type UntilEofArray struct {
	Element Type
}

func (UntilEofArray) typeNode() {}

// UntilConditionArray consumes elements until a boolean expression over
// the already-parsed elements becomes true.
type UntilConditionArray struct {
	Element   Type
	Condition expr.Expr
}

func (UntilConditionArray) typeNode() {}

// FixedString is a byte run of a compile-time-known length, decoded as a
// string.
type FixedString struct {
	Size int
}

func (FixedString) typeNode() {}

// NullTerminatedString reads bytes until a zero byte (discarded).
type NullTerminatedString struct{}

func (NullTerminatedString) typeNode() {}

// LengthPrefixedString's length is the value of a previously-read sibling
// field.
type LengthPrefixedString struct {
	LengthField string
}

func (LengthPrefixedString) typeNode() {}

// Blob is an opaque byte run whose length is a previously-read sibling
// field. Supplemented from the original implementation (SPEC_FULL.md §4):
// unlike LengthPrefixedString it decodes to a byte slice, not a string.
type Blob struct {
	SizeField string
}

func (Blob) typeNode() {}

// EnumRef is resolved via the format's enum table; emitted as its underlying
// integer on the wire.
type EnumRef struct {
	Name string
}

func (EnumRef) typeNode() {}

// UserDefined is resolved via the format's struct table.
type UserDefined struct {
	Name string
}

func (UserDefined) typeNode() {}

// IsPrimitive reports whether kind is one of the non-bitfield, byte-aligned
// fixed-width integer primitives.
func (k PrimitiveType) IsPrimitive() bool {
	switch k {
	case U8, U16, U32, U64, I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

// IsBitfield reports whether kind is one of the sub-byte U1..U7/I1..I7
// primitives.
func (k PrimitiveType) IsBitfield() bool {
	return !k.IsPrimitive()
}

// BitWidth returns the number of bits a bitfield primitive occupies; it
// panics if called on a byte-aligned primitive (callers must check
// IsBitfield first).
func (k PrimitiveType) BitWidth() int {
	switch k {
	case U1, I1:
		return 1
	case U2, I2:
		return 2
	case U3, I3:
		return 3
	case U4, I4:
		return 4
	case U5, I5:
		return 5
	case U6, I6:
		return 6
	case U7, I7:
		return 7
	default:
		panic("hir: BitWidth called on a byte-aligned primitive")
	}
}

// Signed reports whether kind is one of the signed integer primitives.
func (k PrimitiveType) Signed() bool {
	switch k {
	case I8, I16, I32, I64, I1, I2, I3, I4, I5, I6, I7:
		return true
	default:
		return false
	}
}

// SizeInBytes returns the byte-aligned primitive's width, or 0 for
// bitfields (which are sized in bits, not bytes).
func (k PrimitiveType) SizeInBytes() int {
	switch k {
	case U8, I8:
		return 1
	case U16, I16:
		return 2
	case U32, I32:
		return 4
	case U64, I64:
		return 8
	default:
		return 0
	}
}
