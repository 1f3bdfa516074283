// Package lir defines the flat, operation-based Low-level Intermediate
// Representation produced by the lowering pipeline and consumed by code
// generation backends.
package lir

import (
	"github.com/anthropics/dezzy/expr"
	"github.com/anthropics/dezzy/hir"
)

// VarId is a dense, monotonically allocated identifier naming an
// SSA-style dataflow slot. It never escapes the Format it was allocated
// within.
type VarId uint64

// Format is the top-level LIR unit, produced once per lowering session.
type Format struct {
	Name       string
	Endianness hir.Endianness
	Enums      []hir.Enum
	Types      []*Type
}

// Field mirrors one HIR field's surface shape, retaining the textual
// type (consulted by the topological sort to extract dependency edges)
// alongside the variable identifier its read/write operations target.
type Field struct {
	Name      string
	TypeText  string
	Var       VarId
	Assertion *hir.Assertion
}

// Type is a struct's lowered form: an ordered field list, a flat
// operation list, and the two distinguished variables marking the read
// result and the write entry parameter.
type Type struct {
	Name       string
	Fields     []Field
	Operations []Operation
	ReadResult VarId
	WriteParam VarId
}

// Operation is the sum of every LIR instruction shape (spec §3).
type Operation interface {
	lirOp()
}

// --- primitive reads -------------------------------------------------

type ReadU8 struct{ Dest VarId }
type ReadU16 struct {
	Dest       VarId
	Endianness hir.Endianness
}
type ReadU32 struct {
	Dest       VarId
	Endianness hir.Endianness
}
type ReadU64 struct {
	Dest       VarId
	Endianness hir.Endianness
}
type ReadI8 struct{ Dest VarId }
type ReadI16 struct {
	Dest       VarId
	Endianness hir.Endianness
}
type ReadI32 struct {
	Dest       VarId
	Endianness hir.Endianness
}
type ReadI64 struct {
	Dest       VarId
	Endianness hir.Endianness
}

func (ReadU8) lirOp()  {}
func (ReadU16) lirOp() {}
func (ReadU32) lirOp() {}
func (ReadU64) lirOp() {}
func (ReadI8) lirOp()  {}
func (ReadI16) lirOp() {}
func (ReadI32) lirOp() {}
func (ReadI64) lirOp() {}

// ReadBits reads a sub-byte bitfield primitive (supplemented, see
// SPEC_FULL.md §4). Width and Signed are carried explicitly rather than
// re-derived from Kind so the emitter need not import hir's bit-width
// table.
type ReadBits struct {
	Dest   VarId
	Kind   hir.PrimitiveType
	Width  int
	Signed bool
}

func (ReadBits) lirOp() {}

// --- primitive writes -------------------------------------------------

type WriteU8 struct{ Src VarId }
type WriteU16 struct {
	Src        VarId
	Endianness hir.Endianness
}
type WriteU32 struct {
	Src        VarId
	Endianness hir.Endianness
}
type WriteU64 struct {
	Src        VarId
	Endianness hir.Endianness
}
type WriteI8 struct{ Src VarId }
type WriteI16 struct {
	Src        VarId
	Endianness hir.Endianness
}
type WriteI32 struct {
	Src        VarId
	Endianness hir.Endianness
}
type WriteI64 struct {
	Src        VarId
	Endianness hir.Endianness
}

func (WriteU8) lirOp()  {}
func (WriteU16) lirOp() {}
func (WriteU32) lirOp() {}
func (WriteU64) lirOp() {}
func (WriteI8) lirOp()  {}
func (WriteI16) lirOp() {}
func (WriteI32) lirOp() {}
func (WriteI64) lirOp() {}

type WriteBits struct {
	Src    VarId
	Kind   hir.PrimitiveType
	Width  int
	Signed bool
}

func (WriteBits) lirOp() {}

// --- arrays -------------------------------------------------------

// ReadArray reads a fixed element count. ElementOp is a template: its
// own destination variable is never written to directly (spec §9,
// "Recursive element lowering").
type ReadArray struct {
	Dest      VarId
	ElementOp Operation
	Count     int
}

// ReadDynamicArray's count is the already-read value of a sibling field.
type ReadDynamicArray struct {
	Dest          VarId
	ElementOp     Operation
	SizeVar       VarId
	SizeFieldName string
}

type ReadUntilEofArray struct {
	Dest      VarId
	ElementOp Operation
}

type ReadUntilConditionArray struct {
	Dest      VarId
	ElementOp Operation
	Condition expr.Expr
}

func (ReadArray) lirOp()               {}
func (ReadDynamicArray) lirOp()        {}
func (ReadUntilEofArray) lirOp()       {}
func (ReadUntilConditionArray) lirOp() {}

type WriteArray struct {
	Src       VarId
	ElementOp Operation
	Count     int
}

// WriteDynamicArray carries both the size variable and the textual
// size-field name; the emitter's write loop iterates the size field's
// current value, not the container's length (spec §4.H).
type WriteDynamicArray struct {
	Src           VarId
	ElementOp     Operation
	SizeVar       VarId
	SizeFieldName string
}

type WriteUntilEofArray struct {
	Src       VarId
	ElementOp Operation
}

// WriteUntilConditionArray iterates the container's actual length; the
// until-condition is not re-evaluated on write (spec §9, deliberate).
type WriteUntilConditionArray struct {
	Src       VarId
	ElementOp Operation
	Condition expr.Expr
}

func (WriteArray) lirOp()               {}
func (WriteDynamicArray) lirOp()        {}
func (WriteUntilEofArray) lirOp()       {}
func (WriteUntilConditionArray) lirOp() {}

// --- strings -------------------------------------------------------

type ReadFixedString struct {
	Dest VarId
	Size int
}
type ReadNullTerminatedString struct{ Dest VarId }
type ReadLengthPrefixedString struct {
	Dest          VarId
	SizeVar       VarId
	SizeFieldName string
}

// ReadBlob is the opaque byte-run counterpart to ReadLengthPrefixedString
// (supplemented, see SPEC_FULL.md §4): it decodes to a byte slice rather
// than a string.
type ReadBlob struct {
	Dest          VarId
	SizeVar       VarId
	SizeFieldName string
}

func (ReadFixedString) lirOp()         {}
func (ReadNullTerminatedString) lirOp() {}
func (ReadLengthPrefixedString) lirOp() {}
func (ReadBlob) lirOp()                {}

type WriteFixedString struct {
	Src  VarId
	Size int
}
type WriteNullTerminatedString struct{ Src VarId }
type WriteLengthPrefixedString struct {
	Src           VarId
	SizeFieldName string
}
type WriteBlob struct {
	Src           VarId
	SizeFieldName string
}

func (WriteFixedString) lirOp()         {}
func (WriteNullTerminatedString) lirOp() {}
func (WriteLengthPrefixedString) lirOp() {}
func (WriteBlob) lirOp()                {}

// --- structs, enums, and positioning -------------------------------

type ReadStruct struct {
	Dest     VarId
	TypeName string
}
type WriteStruct struct {
	Src      VarId
	TypeName string
}

func (ReadStruct) lirOp()  {}
func (WriteStruct) lirOp() {}

// CreateStruct is the read-sequence terminator: one field variable per
// non-skipped field, in declaration order.
type CreateStruct struct {
	Dest     VarId
	TypeName string
	Fields   []VarId
}

// AccessField is the write-sequence opener, emitted once per
// non-skipped field immediately before that field's write operation.
type AccessField struct {
	Dest       VarId
	StructVar  VarId
	FieldIndex int
}

func (CreateStruct) lirOp() {}
func (AccessField) lirOp()  {}

// SkipRead and SkipWrite realize the positioning directives
// (skip/pad/align) left "reserved" by the source (spec §9): a no-value,
// advance-only operation on the read side, and its mirror on the write
// side (which emits zero-fill bytes: the size field's value for
// SkipVariable, the literal count for SkipFixed, up to the boundary for
// SkipAlign).
type SkipRead struct {
	Kind          hir.SkipKind
	SizeVar       VarId
	SizeFieldName string
	Bytes         int
	Boundary      int
}

type SkipWrite struct {
	Kind          hir.SkipKind
	SizeFieldName string
	Bytes         int
	Boundary      int
}

func (SkipRead) lirOp()  {}
func (SkipWrite) lirOp() {}
