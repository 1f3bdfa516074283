package wasmhost

import (
	"github.com/anthropics/dezzy/expr"
	"github.com/anthropics/dezzy/hir"
	"github.com/anthropics/dezzy/lir"
)

// exchangeFormat is the canonical JSON-shaped text form a WASM plugin
// receives (spec §6): it mirrors lir.Format field-for-field, preserving
// field order, operation order, and variable identifiers. Operations are
// encoded as tagged maps since lir.Operation has no single concrete
// shape; a plugin discriminates on the "op" key.
type exchangeFormat struct {
	Name       string           `json5:"name"`
	Endianness string           `json5:"endianness"`
	Enums      []exchangeEnum   `json5:"enums"`
	Types      []exchangeType   `json5:"types"`
}

type exchangeEnum struct {
	Name           string              `json5:"name"`
	UnderlyingType string              `json5:"underlying_type"`
	Values         []exchangeEnumValue `json5:"values"`
}

type exchangeEnumValue struct {
	Name  string `json5:"name"`
	Value int64  `json5:"value"`
}

type exchangeType struct {
	Name       string                   `json5:"name"`
	Fields     []exchangeField          `json5:"fields"`
	Operations []map[string]interface{} `json5:"operations"`
	ReadResult uint64                   `json5:"read_result"`
	WriteParam uint64                   `json5:"write_param"`
}

type exchangeField struct {
	Name      string                 `json5:"name"`
	TypeText  string                 `json5:"type_text"`
	Var       uint64                 `json5:"var"`
	Assertion map[string]interface{} `json5:"assertion,omitempty"`
}

func endiannessText(e hir.Endianness) string {
	switch e {
	case hir.Big:
		return "big"
	case hir.Native:
		return "native"
	default:
		return "little"
	}
}

// toExchange converts format into its canonical wire shape.
func toExchange(format *lir.Format) exchangeFormat {
	out := exchangeFormat{
		Name:       format.Name,
		Endianness: endiannessText(format.Endianness),
	}
	for _, e := range format.Enums {
		ee := exchangeEnum{Name: e.Name, UnderlyingType: primitiveKindText(e.UnderlyingType)}
		for _, v := range e.Values {
			ee.Values = append(ee.Values, exchangeEnumValue{Name: v.Name, Value: v.Value})
		}
		out.Enums = append(out.Enums, ee)
	}
	for _, t := range format.Types {
		et := exchangeType{
			Name:       t.Name,
			ReadResult: uint64(t.ReadResult),
			WriteParam: uint64(t.WriteParam),
		}
		for _, f := range t.Fields {
			ef := exchangeField{Name: f.Name, TypeText: f.TypeText, Var: uint64(f.Var)}
			if f.Assertion != nil {
				ef.Assertion = encodeAssertion(f.Assertion)
			}
			et.Fields = append(et.Fields, ef)
		}
		for _, op := range t.Operations {
			et.Operations = append(et.Operations, encodeOperation(op))
		}
		out.Types = append(out.Types, et)
	}
	return out
}

func primitiveKindText(k hir.PrimitiveType) string {
	names := map[hir.PrimitiveType]string{
		hir.U8: "u8", hir.U16: "u16", hir.U32: "u32", hir.U64: "u64",
		hir.I8: "i8", hir.I16: "i16", hir.I32: "i32", hir.I64: "i64",
		hir.U1: "u1", hir.U2: "u2", hir.U3: "u3", hir.U4: "u4", hir.U5: "u5", hir.U6: "u6", hir.U7: "u7",
		hir.I1: "i1", hir.I2: "i2", hir.I3: "i3", hir.I4: "i4", hir.I5: "i5", hir.I6: "i6", hir.I7: "i7",
	}
	if s, ok := names[k]; ok {
		return s
	}
	return "u8"
}

func encodeAssertion(a *hir.Assertion) map[string]interface{} {
	m := map[string]interface{}{"kind": assertionKindText(a.Kind)}
	if a.Scalar != 0 {
		m["scalar"] = a.Scalar
	}
	if len(a.IntArray) > 0 {
		m["int_array"] = a.IntArray
	}
	if len(a.List) > 0 {
		m["list"] = a.List
	}
	if a.Kind == hir.AssertRange {
		m["min"] = a.Min
		m["max"] = a.Max
	}
	return m
}

func assertionKindText(k hir.AssertionKind) string {
	switch k {
	case hir.AssertEquals:
		return "equals"
	case hir.AssertNotEquals:
		return "not_equals"
	case hir.AssertGreaterThan:
		return "greater_than"
	case hir.AssertGreaterOrEqual:
		return "greater_or_equal"
	case hir.AssertLessThan:
		return "less_than"
	case hir.AssertLessOrEqual:
		return "less_or_equal"
	case hir.AssertIn:
		return "in"
	case hir.AssertNotIn:
		return "not_in"
	case hir.AssertRange:
		return "range"
	default:
		return "unknown"
	}
}

// encodeOperation tags op with its constructor name so a plugin can
// discriminate without a type system shared with Go's.
func encodeOperation(op lir.Operation) map[string]interface{} {
	switch v := op.(type) {
	case lir.ReadU8:
		return map[string]interface{}{"op": "read_u8", "dest": v.Dest}
	case lir.ReadU16:
		return map[string]interface{}{"op": "read_u16", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadU32:
		return map[string]interface{}{"op": "read_u32", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadU64:
		return map[string]interface{}{"op": "read_u64", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadI8:
		return map[string]interface{}{"op": "read_i8", "dest": v.Dest}
	case lir.ReadI16:
		return map[string]interface{}{"op": "read_i16", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadI32:
		return map[string]interface{}{"op": "read_i32", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadI64:
		return map[string]interface{}{"op": "read_i64", "dest": v.Dest, "endianness": endiannessText(v.Endianness)}
	case lir.ReadBits:
		return map[string]interface{}{"op": "read_bits", "dest": v.Dest, "width": v.Width, "signed": v.Signed}
	case lir.WriteU8:
		return map[string]interface{}{"op": "write_u8", "src": v.Src}
	case lir.WriteU16:
		return map[string]interface{}{"op": "write_u16", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteU32:
		return map[string]interface{}{"op": "write_u32", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteU64:
		return map[string]interface{}{"op": "write_u64", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteI8:
		return map[string]interface{}{"op": "write_i8", "src": v.Src}
	case lir.WriteI16:
		return map[string]interface{}{"op": "write_i16", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteI32:
		return map[string]interface{}{"op": "write_i32", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteI64:
		return map[string]interface{}{"op": "write_i64", "src": v.Src, "endianness": endiannessText(v.Endianness)}
	case lir.WriteBits:
		return map[string]interface{}{"op": "write_bits", "src": v.Src, "width": v.Width, "signed": v.Signed}
	case lir.ReadArray:
		return map[string]interface{}{"op": "read_array", "dest": v.Dest, "count": v.Count, "element": encodeOperation(v.ElementOp)}
	case lir.ReadDynamicArray:
		return map[string]interface{}{"op": "read_dynamic_array", "dest": v.Dest, "size_var": v.SizeVar, "size_field": v.SizeFieldName, "element": encodeOperation(v.ElementOp)}
	case lir.ReadUntilEofArray:
		return map[string]interface{}{"op": "read_until_eof_array", "dest": v.Dest, "element": encodeOperation(v.ElementOp)}
	case lir.ReadUntilConditionArray:
		return map[string]interface{}{"op": "read_until_condition_array", "dest": v.Dest, "element": encodeOperation(v.ElementOp), "condition": encodeExpr(v.Condition)}
	case lir.WriteArray:
		return map[string]interface{}{"op": "write_array", "src": v.Src, "count": v.Count, "element": encodeOperation(v.ElementOp)}
	case lir.WriteDynamicArray:
		return map[string]interface{}{"op": "write_dynamic_array", "src": v.Src, "size_var": v.SizeVar, "size_field": v.SizeFieldName, "element": encodeOperation(v.ElementOp)}
	case lir.WriteUntilEofArray:
		return map[string]interface{}{"op": "write_until_eof_array", "src": v.Src, "element": encodeOperation(v.ElementOp)}
	case lir.WriteUntilConditionArray:
		return map[string]interface{}{"op": "write_until_condition_array", "src": v.Src, "element": encodeOperation(v.ElementOp), "condition": encodeExpr(v.Condition)}
	case lir.ReadFixedString:
		return map[string]interface{}{"op": "read_fixed_string", "dest": v.Dest, "size": v.Size}
	case lir.ReadNullTerminatedString:
		return map[string]interface{}{"op": "read_cstring", "dest": v.Dest}
	case lir.ReadLengthPrefixedString:
		return map[string]interface{}{"op": "read_length_prefixed_string", "dest": v.Dest, "size_var": v.SizeVar, "size_field": v.SizeFieldName}
	case lir.ReadBlob:
		return map[string]interface{}{"op": "read_blob", "dest": v.Dest, "size_var": v.SizeVar, "size_field": v.SizeFieldName}
	case lir.WriteFixedString:
		return map[string]interface{}{"op": "write_fixed_string", "src": v.Src, "size": v.Size}
	case lir.WriteNullTerminatedString:
		return map[string]interface{}{"op": "write_cstring", "src": v.Src}
	case lir.WriteLengthPrefixedString:
		return map[string]interface{}{"op": "write_length_prefixed_string", "src": v.Src, "size_field": v.SizeFieldName}
	case lir.WriteBlob:
		return map[string]interface{}{"op": "write_blob", "src": v.Src, "size_field": v.SizeFieldName}
	case lir.ReadStruct:
		return map[string]interface{}{"op": "read_struct", "dest": v.Dest, "type": v.TypeName}
	case lir.WriteStruct:
		return map[string]interface{}{"op": "write_struct", "src": v.Src, "type": v.TypeName}
	case lir.CreateStruct:
		return map[string]interface{}{"op": "create_struct", "dest": v.Dest, "type": v.TypeName, "fields": v.Fields}
	case lir.AccessField:
		return map[string]interface{}{"op": "access_field", "dest": v.Dest, "struct_var": v.StructVar, "field_index": v.FieldIndex}
	case lir.SkipRead:
		return map[string]interface{}{"op": "skip_read", "kind": skipKindText(v.Kind), "size_var": v.SizeVar, "size_field": v.SizeFieldName, "bytes": v.Bytes, "boundary": v.Boundary}
	case lir.SkipWrite:
		return map[string]interface{}{"op": "skip_write", "kind": skipKindText(v.Kind), "size_field": v.SizeFieldName, "bytes": v.Bytes, "boundary": v.Boundary}
	default:
		return map[string]interface{}{"op": "unknown"}
	}
}

func skipKindText(k hir.SkipKind) string {
	switch k {
	case hir.SkipFixed:
		return "pad"
	case hir.SkipAlign:
		return "align"
	default:
		return "skip"
	}
}

// encodeExpr tags the until-condition AST for plugins that need to
// re-derive the loop termination check themselves.
func encodeExpr(e expr.Expr) map[string]interface{} {
	switch v := e.(type) {
	case expr.Variable:
		return map[string]interface{}{"expr": "variable", "name": v.Name}
	case expr.FieldAccess:
		return map[string]interface{}{"expr": "field_access", "base": encodeExpr(v.Base), "field": v.Field}
	case expr.ArrayIndex:
		sign := "positive"
		if v.Sign == expr.Negative {
			sign = "negative"
		}
		return map[string]interface{}{"expr": "array_index", "array": encodeExpr(v.Array), "sign": sign, "index": v.Index}
	case expr.Comparison:
		return map[string]interface{}{"expr": "comparison", "op": v.Op.String(), "left": encodeExpr(v.Left), "right": encodeExpr(v.Right)}
	case expr.Logical:
		return map[string]interface{}{"expr": "logical", "op": v.Op.String(), "left": encodeExpr(v.Left), "right": encodeExpr(v.Right)}
	case expr.Literal:
		m := map[string]interface{}{"expr": "literal"}
		switch v.Kind {
		case expr.IntegerLiteral:
			m["kind"] = "integer"
			m["int"] = v.Int
		case expr.ByteArrayLiteral:
			m["kind"] = "bytes"
			m["bytes"] = v.Bytes
		case expr.StringLiteral:
			m["kind"] = "string"
			m["str"] = v.Str
		}
		return m
	default:
		return map[string]interface{}{"expr": "unknown"}
	}
}
