// Package pipeline rewrites a typed hir.Format into a flat lir.Format
// (spec §4.D), then topologically orders its types (spec §4.F).
package pipeline

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/anthropics/dezzy/hir"
	"github.com/anthropics/dezzy/lir"
)

// pipeline owns the monotonic variable-identifier counter for a single
// lowering session; it is discarded once Lower returns (spec §5).
type pipeline struct {
	format    *hir.Format
	counter   lir.VarId
	enumByName map[string]hir.Enum
}

// Lower runs the full HIR→LIR rewrite for format, including the final
// topological sort, and returns the resulting lir.Format.
func Lower(format *hir.Format) (*lir.Format, error) {
	p := &pipeline{format: format, enumByName: map[string]hir.Enum{}}
	for _, e := range format.Enums {
		p.enumByName[e.Name] = e
	}

	types := make([]*lir.Type, 0, len(format.Types))
	for _, td := range format.Types {
		s, ok := td.(hir.Struct)
		if !ok {
			continue
		}
		lirType, err := p.lowerStruct(s)
		if err != nil {
			return nil, err
		}
		types = append(types, lirType)
	}

	sorted, err := topoSort(types)
	if err != nil {
		return nil, err
	}

	log.Debug().Int("types", len(sorted)).Msg("pipeline: lowered and topologically sorted")

	return &lir.Format{
		Name:       format.Name,
		Endianness: format.Endianness,
		Enums:      format.Enums,
		Types:      sorted,
	}, nil
}

func (p *pipeline) nextVar() lir.VarId {
	v := p.counter
	p.counter++
	return v
}

type fieldMeta struct {
	field hir.Field
	varID lir.VarId
}

// lowerStruct lowers one hir.Struct into a *lir.Type via the three
// passes described in spec §4.D: field registration, read emission
// (terminated by CreateStruct), and write emission (AccessField/write
// pairs, one per non-skipped field).
func (p *pipeline) lowerStruct(s hir.Struct) (*lir.Type, error) {
	siblingVars := map[string]lir.VarId{}
	metas := make([]fieldMeta, 0, len(s.Fields))

	// Pass 1 — field registration. Skipped fields carry no field
	// variable and are absent from the sibling map: nothing may
	// reference a skip directive by name.
	for _, f := range s.Fields {
		if f.Skip != nil {
			metas = append(metas, fieldMeta{field: f})
			continue
		}
		v := p.nextVar()
		siblingVars[f.Name] = v
		metas = append(metas, fieldMeta{field: f, varID: v})
	}

	var operations []lir.Operation
	var fields []lir.Field
	var fieldVars []lir.VarId

	// Pass 2 — read emission.
	for _, m := range metas {
		f := m.field
		if f.Skip != nil {
			op, err := lowerSkipRead(*f.Skip, siblingVars)
			if err != nil {
				return nil, err
			}
			operations = append(operations, op)
			continue
		}

		readOp, err := lowerRead(f.FieldType, m.varID, p.format.Endianness, p.enumByName, siblingVars)
		if err != nil {
			return nil, err
		}
		operations = append(operations, readOp)
		fields = append(fields, lir.Field{
			Name:      f.Name,
			TypeText:  typeText(f.FieldType),
			Var:       m.varID,
			Assertion: f.Assertion,
		})
		fieldVars = append(fieldVars, m.varID)
	}

	resultVar := p.nextVar()
	operations = append(operations, lir.CreateStruct{Dest: resultVar, TypeName: s.Name, Fields: fieldVars})

	// Pass 3 — write emission.
	writeParam := p.nextVar()
	fieldIndex := 0
	for _, m := range metas {
		f := m.field
		if f.Skip != nil {
			operations = append(operations, lowerSkipWrite(*f.Skip))
			continue
		}

		fv := p.nextVar()
		operations = append(operations, lir.AccessField{Dest: fv, StructVar: writeParam, FieldIndex: fieldIndex})
		fieldIndex++

		writeOp, err := lowerWrite(f.FieldType, fv, p.format.Endianness, p.enumByName, siblingVars)
		if err != nil {
			return nil, err
		}
		operations = append(operations, writeOp)
	}

	return &lir.Type{
		Name:       s.Name,
		Fields:     fields,
		Operations: operations,
		ReadResult: resultVar,
		WriteParam: writeParam,
	}, nil
}

func lowerSkipRead(skip hir.Skip, siblingVars map[string]lir.VarId) (lir.Operation, error) {
	switch skip.Kind {
	case hir.SkipVariable:
		sizeVar, ok := siblingVars[skip.SizeField]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: "size field " + skip.SizeField}
		}
		return lir.SkipRead{Kind: skip.Kind, SizeVar: sizeVar, SizeFieldName: skip.SizeField}, nil
	case hir.SkipFixed:
		return lir.SkipRead{Kind: skip.Kind, Bytes: skip.Bytes}, nil
	default: // hir.SkipAlign
		return lir.SkipRead{Kind: skip.Kind, Boundary: skip.Boundary}, nil
	}
}

func lowerSkipWrite(skip hir.Skip) lir.Operation {
	return lir.SkipWrite{
		Kind:          skip.Kind,
		SizeFieldName: skip.SizeField,
		Bytes:         skip.Bytes,
		Boundary:      skip.Boundary,
	}
}

// lowerRead lowers one HirType into its read-side LIR operation.
// Container element types are lowered against a dummy destination
// variable (0): the element operation is a template consulted only for
// its shape (spec §9, "Recursive element lowering").
func lowerRead(t hir.Type, dest lir.VarId, endianness hir.Endianness, enums map[string]hir.Enum, siblings map[string]lir.VarId) (lir.Operation, error) {
	switch v := t.(type) {
	case hir.Primitive:
		return lowerPrimitiveRead(v.Kind, dest, endianness), nil

	case hir.Array:
		elementOp, err := lowerRead(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.ReadArray{Dest: dest, ElementOp: elementOp, Count: v.Size}, nil

	case hir.DynamicArray:
		sizeVar, ok := siblings[v.SizeField]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: "size field " + v.SizeField}
		}
		elementOp, err := lowerRead(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.ReadDynamicArray{Dest: dest, ElementOp: elementOp, SizeVar: sizeVar, SizeFieldName: v.SizeField}, nil

	case hir.UntilEofArray:
		elementOp, err := lowerRead(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.ReadUntilEofArray{Dest: dest, ElementOp: elementOp}, nil

	case hir.UntilConditionArray:
		elementOp, err := lowerRead(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.ReadUntilConditionArray{Dest: dest, ElementOp: elementOp, Condition: v.Condition}, nil

	case hir.FixedString:
		return lir.ReadFixedString{Dest: dest, Size: v.Size}, nil

	case hir.NullTerminatedString:
		return lir.ReadNullTerminatedString{Dest: dest}, nil

	case hir.LengthPrefixedString:
		sizeVar, ok := siblings[v.LengthField]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: "size field " + v.LengthField}
		}
		return lir.ReadLengthPrefixedString{Dest: dest, SizeVar: sizeVar, SizeFieldName: v.LengthField}, nil

	case hir.Blob:
		sizeVar, ok := siblings[v.SizeField]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: "size field " + v.SizeField}
		}
		return lir.ReadBlob{Dest: dest, SizeVar: sizeVar, SizeFieldName: v.SizeField}, nil

	case hir.EnumRef:
		enum, ok := enums[v.Name]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: v.Name}
		}
		return lowerPrimitiveRead(enum.UnderlyingType, dest, endianness), nil

	case hir.UserDefined:
		return lir.ReadStruct{Dest: dest, TypeName: v.Name}, nil

	default:
		return nil, &Error{Kind: UnknownType, Message: "unrecognized HIR type"}
	}
}

func lowerWrite(t hir.Type, src lir.VarId, endianness hir.Endianness, enums map[string]hir.Enum, siblings map[string]lir.VarId) (lir.Operation, error) {
	switch v := t.(type) {
	case hir.Primitive:
		return lowerPrimitiveWrite(v.Kind, src, endianness), nil

	case hir.Array:
		elementOp, err := lowerWrite(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.WriteArray{Src: src, ElementOp: elementOp, Count: v.Size}, nil

	case hir.DynamicArray:
		sizeVar, ok := siblings[v.SizeField]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: "size field " + v.SizeField}
		}
		elementOp, err := lowerWrite(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.WriteDynamicArray{Src: src, ElementOp: elementOp, SizeVar: sizeVar, SizeFieldName: v.SizeField}, nil

	case hir.UntilEofArray:
		elementOp, err := lowerWrite(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.WriteUntilEofArray{Src: src, ElementOp: elementOp}, nil

	case hir.UntilConditionArray:
		elementOp, err := lowerWrite(v.Element, 0, endianness, enums, siblings)
		if err != nil {
			return nil, err
		}
		return lir.WriteUntilConditionArray{Src: src, ElementOp: elementOp, Condition: v.Condition}, nil

	case hir.FixedString:
		return lir.WriteFixedString{Src: src, Size: v.Size}, nil

	case hir.NullTerminatedString:
		return lir.WriteNullTerminatedString{Src: src}, nil

	case hir.LengthPrefixedString:
		return lir.WriteLengthPrefixedString{Src: src, SizeFieldName: v.LengthField}, nil

	case hir.Blob:
		return lir.WriteBlob{Src: src, SizeFieldName: v.SizeField}, nil

	case hir.EnumRef:
		enum, ok := enums[v.Name]
		if !ok {
			return nil, &Error{Kind: UnknownType, Name: v.Name}
		}
		return lowerPrimitiveWrite(enum.UnderlyingType, src, endianness), nil

	case hir.UserDefined:
		return lir.WriteStruct{Src: src, TypeName: v.Name}, nil

	default:
		return nil, &Error{Kind: UnknownType, Message: "unrecognized HIR type"}
	}
}

func lowerPrimitiveRead(kind hir.PrimitiveType, dest lir.VarId, endianness hir.Endianness) lir.Operation {
	switch kind {
	case hir.U8:
		return lir.ReadU8{Dest: dest}
	case hir.U16:
		return lir.ReadU16{Dest: dest, Endianness: endianness}
	case hir.U32:
		return lir.ReadU32{Dest: dest, Endianness: endianness}
	case hir.U64:
		return lir.ReadU64{Dest: dest, Endianness: endianness}
	case hir.I8:
		return lir.ReadI8{Dest: dest}
	case hir.I16:
		return lir.ReadI16{Dest: dest, Endianness: endianness}
	case hir.I32:
		return lir.ReadI32{Dest: dest, Endianness: endianness}
	case hir.I64:
		return lir.ReadI64{Dest: dest, Endianness: endianness}
	default:
		return lir.ReadBits{Dest: dest, Kind: kind, Width: kind.BitWidth(), Signed: kind.Signed()}
	}
}

func lowerPrimitiveWrite(kind hir.PrimitiveType, src lir.VarId, endianness hir.Endianness) lir.Operation {
	switch kind {
	case hir.U8:
		return lir.WriteU8{Src: src}
	case hir.U16:
		return lir.WriteU16{Src: src, Endianness: endianness}
	case hir.U32:
		return lir.WriteU32{Src: src, Endianness: endianness}
	case hir.U64:
		return lir.WriteU64{Src: src, Endianness: endianness}
	case hir.I8:
		return lir.WriteI8{Src: src}
	case hir.I16:
		return lir.WriteI16{Src: src, Endianness: endianness}
	case hir.I32:
		return lir.WriteI32{Src: src, Endianness: endianness}
	case hir.I64:
		return lir.WriteI64{Src: src, Endianness: endianness}
	default:
		return lir.WriteBits{Src: src, Kind: kind, Width: kind.BitWidth(), Signed: kind.Signed()}
	}
}

func primitiveText(kind hir.PrimitiveType) string {
	switch kind {
	case hir.U8:
		return "u8"
	case hir.U16:
		return "u16"
	case hir.U32:
		return "u32"
	case hir.U64:
		return "u64"
	case hir.I8:
		return "i8"
	case hir.I16:
		return "i16"
	case hir.I32:
		return "i32"
	case hir.I64:
		return "i64"
	case hir.U1:
		return "u1"
	case hir.U2:
		return "u2"
	case hir.U3:
		return "u3"
	case hir.U4:
		return "u4"
	case hir.U5:
		return "u5"
	case hir.U6:
		return "u6"
	case hir.U7:
		return "u7"
	case hir.I1:
		return "i1"
	case hir.I2:
		return "i2"
	case hir.I3:
		return "i3"
	case hir.I4:
		return "i4"
	case hir.I5:
		return "i5"
	case hir.I6:
		return "i6"
	case hir.I7:
		return "i7"
	default:
		return "?"
	}
}

// typeText renders the textual type form recorded on lir.Field and
// consulted by the topological sort to extract dependency edges
// (spec §3, §4.F).
func typeText(t hir.Type) string {
	switch v := t.(type) {
	case hir.Primitive:
		return primitiveText(v.Kind)
	case hir.Array:
		return typeText(v.Element) + "[" + strconv.Itoa(v.Size) + "]"
	case hir.DynamicArray:
		return typeText(v.Element) + "[" + v.SizeField + "]"
	case hir.UntilEofArray:
		return typeText(v.Element) + "[]"
	case hir.UntilConditionArray:
		return typeText(v.Element) + "[]"
	case hir.FixedString:
		return "str[" + strconv.Itoa(v.Size) + "]"
	case hir.NullTerminatedString:
		return "cstr"
	case hir.LengthPrefixedString:
		return "str(" + v.LengthField + ")"
	case hir.Blob:
		return "blob(" + v.SizeField + ")"
	case hir.EnumRef:
		return v.Name
	case hir.UserDefined:
		return v.Name
	default:
		return "?"
	}
}
