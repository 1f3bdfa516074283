// Package codegen implements the built-in code-generation backend
// (spec §4.H): it consumes a lir.Format and produces a single Go
// source file per invocation. String assembly follows the teacher's
// own idiom (bytes.Buffer + fmt.Fprintf), not text/template.
package codegen

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropics/dezzy/backend"
	"github.com/anthropics/dezzy/hir"
	"github.com/anthropics/dezzy/lir"
)

// GoBackend is the built-in emitter, registered under the name "go".
type GoBackend struct{}

func (GoBackend) Name() string { return "go" }

// Generate produces a single Go source file implementing every enum
// and struct in format, in the topologically sorted order the pipeline
// already established.
func (GoBackend) Generate(format *lir.Format) (*backend.GeneratedCode, error) {
	var buf bytes.Buffer

	pkg := packageName(format.Name)
	fmt.Fprintf(&buf, prologueTemplate, pkg)
	buf.WriteString("\n")

	for _, e := range format.Enums {
		generateEnum(&buf, e)
	}

	structNames := make(map[string]bool, len(format.Types))
	for _, t := range format.Types {
		structNames[t.Name] = true
	}

	for _, t := range format.Types {
		if err := generateStruct(&buf, t); err != nil {
			return nil, err
		}
		if err := generateRead(&buf, t, structNames); err != nil {
			return nil, err
		}
		if err := generateWrite(&buf, t); err != nil {
			return nil, err
		}
	}

	return &backend.GeneratedCode{
		Files: []backend.GeneratedFile{
			{Path: fileName(format.Name), Content: buf.String()},
		},
	}, nil
}

func fileName(formatName string) string {
	return strings.ReplaceAll(strings.ToLower(formatName), "-", "_") + ".go"
}

func packageName(formatName string) string {
	name := strings.ReplaceAll(strings.ToLower(formatName), "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" {
		return "generated"
	}
	return name
}

func generateEnum(buf *bytes.Buffer, e hir.Enum) {
	name := capitalizeFirst(e.Name)
	underlying := goPrimitiveType(e.UnderlyingType)
	fmt.Fprintf(buf, "type %s %s\n\n", name, underlying)
	fmt.Fprintf(buf, "const (\n")
	for _, v := range e.Values {
		fmt.Fprintf(buf, "\t%s %s = %d\n", name+capitalizeFirst(v.Name), name, v.Value)
	}
	fmt.Fprintf(buf, ")\n\n")
}

func generateStruct(buf *bytes.Buffer, t *lir.Type) error {
	fmt.Fprintf(buf, "type %s struct {\n", capitalizeFirst(t.Name))
	for _, f := range t.Fields {
		goType, err := goFieldType(f.TypeText)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "\t%s %s\n", capitalizeFirst(f.Name), goType)
	}
	fmt.Fprintf(buf, "}\n\n")
	return nil
}

// goFieldType maps a LIR text type to its Go representation (spec
// §4.H's table, extended with bitfields and blobs).
func goFieldType(typeText string) (string, error) {
	if idx := strings.LastIndex(typeText, "["); idx >= 0 && strings.HasSuffix(typeText, "]") {
		elem := typeText[:idx]
		inner := typeText[idx+1 : len(typeText)-1]
		elemType, err := goFieldType(elem)
		if err != nil {
			return "", err
		}
		if _, err := strconv.Atoi(inner); err == nil {
			return fmt.Sprintf("[%s]%s", inner, elemType), nil
		}
		return "[]" + elemType, nil
	}
	if strings.HasPrefix(typeText, "str[") || strings.HasPrefix(typeText, "str(") || typeText == "cstr" {
		return "string", nil
	}
	if strings.HasPrefix(typeText, "blob(") {
		return "[]byte", nil
	}
	if prim, ok := primitiveGoType(typeText); ok {
		return prim, nil
	}
	// Enum or struct name: reference the already-declared exported type.
	return capitalizeFirst(typeText), nil
}

func primitiveGoType(name string) (string, bool) {
	switch name {
	case "u8", "u1", "u2", "u3", "u4", "u5", "u6", "u7":
		return "uint8", true
	case "u16":
		return "uint16", true
	case "u32":
		return "uint32", true
	case "u64":
		return "uint64", true
	case "i8", "i1", "i2", "i3", "i4", "i5", "i6", "i7":
		return "int8", true
	case "i16":
		return "int16", true
	case "i32":
		return "int32", true
	case "i64":
		return "int64", true
	default:
		return "", false
	}
}

func goPrimitiveType(kind hir.PrimitiveType) string {
	t, _ := primitiveGoType(primitiveTextFor(kind))
	return t
}

// primitiveTextFor is the inverse of the parsing table used elsewhere;
// kept local since only enum underlying types (always byte-aligned)
// reach it.
func primitiveTextFor(kind hir.PrimitiveType) string {
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
	default:
		return "u8"
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

// endianSuffix names the Reader/Writer method suffix for a fixed byte
// order. Native is deliberately rejected rather than silently aliased
// to little-endian (SPEC_FULL.md, design notes): a format pinned to native order
// must resolve to little or big before code generation runs.
func endianSuffix(e hir.Endianness) (string, error) {
	switch e {
	case hir.Little:
		return "LE", nil
	case hir.Big:
		return "BE", nil
	default:
		return "", fmt.Errorf("codegen: native endianness has no fixed byte order; declare little or big explicitly")
	}
}

// --- read-side emission ---------------------------------------------

func generateRead(buf *bytes.Buffer, t *lir.Type, structNames map[string]bool) error {
	name := capitalizeFirst(t.Name)
	fmt.Fprintf(buf, "func Read%s(r *Reader) (*%s, error) {\n", name, name)

	fieldNames := make(map[lir.VarId]string, len(t.Fields))
	assertions := make(map[lir.VarId]*hir.Assertion, len(t.Fields))
	for _, f := range t.Fields {
		fieldNames[f.Var] = f.Name
		if f.Assertion != nil {
			assertions[f.Var] = f.Assertion
		}
	}

	var createStruct *lir.CreateStruct
	for _, op := range t.Operations {
		if cs, ok := op.(lir.CreateStruct); ok {
			createStruct = &cs
			break
		}
		if skip, ok := op.(lir.SkipRead); ok {
			if err := emitSkipRead(buf, skip, "\t"); err != nil {
				return err
			}
			continue
		}
		dest, ok := readOpDest(op)
		if !ok {
			return fmt.Errorf("codegen: read operation %T has no destination", op)
		}
		if err := emitReadStatement(buf, op, fmt.Sprintf("v%d", dest), "\t", fieldNames); err != nil {
			return err
		}
		if a, ok := assertions[dest]; ok {
			emitAssertion(buf, fieldNames[dest], fmt.Sprintf("v%d", dest), a, "\t")
		}
	}
	if createStruct == nil {
		return fmt.Errorf("codegen: type %s has no CreateStruct terminator", t.Name)
	}

	fmt.Fprintf(buf, "\tresult := &%s{\n", name)
	for i, f := range t.Fields {
		varName := fmt.Sprintf("v%d", createStruct.Fields[i])
		goType, err := goFieldType(f.TypeText)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "\t\t%s: %s,\n", capitalizeFirst(f.Name), fieldValueExpr(f.TypeText, goType, varName, structNames))
	}
	fmt.Fprintf(buf, "\t}\n")
	fmt.Fprintf(buf, "\treturn result, nil\n")
	fmt.Fprintf(buf, "}\n\n")
	return nil
}

func fieldValueExpr(typeText, goType, varName string, structNames map[string]bool) string {
	switch {
	case structNames[typeText]:
		return "*" + varName
	case goType == "string" || goType == "[]byte" || strings.HasPrefix(goType, "["):
		return varName
	default:
		return goType + "(" + varName + ")"
	}
}

func readOpDest(op lir.Operation) (lir.VarId, bool) {
	switch v := op.(type) {
	case lir.ReadU8:
		return v.Dest, true
	case lir.ReadU16:
		return v.Dest, true
	case lir.ReadU32:
		return v.Dest, true
	case lir.ReadU64:
		return v.Dest, true
	case lir.ReadI8:
		return v.Dest, true
	case lir.ReadI16:
		return v.Dest, true
	case lir.ReadI32:
		return v.Dest, true
	case lir.ReadI64:
		return v.Dest, true
	case lir.ReadBits:
		return v.Dest, true
	case lir.ReadFixedString:
		return v.Dest, true
	case lir.ReadNullTerminatedString:
		return v.Dest, true
	case lir.ReadLengthPrefixedString:
		return v.Dest, true
	case lir.ReadBlob:
		return v.Dest, true
	case lir.ReadStruct:
		return v.Dest, true
	case lir.ReadArray:
		return v.Dest, true
	case lir.ReadDynamicArray:
		return v.Dest, true
	case lir.ReadUntilEofArray:
		return v.Dest, true
	case lir.ReadUntilConditionArray:
		return v.Dest, true
	default:
		return 0, false
	}
}

func emitErrCheckRead(buf *bytes.Buffer, indent string) {
	fmt.Fprintf(buf, "%sif err != nil {\n%s\treturn nil, err\n%s}\n", indent, indent, indent)
}

// emitReadStatement emits the statements that read op's value into
// varName (declared fresh via :=). Container ops recurse into their own
// loop bodies, lowering their ElementOp template against a derived
// per-iteration variable name. fieldNames maps each field's own
// destination variable to its surface name, so an until-condition array
// can resolve a bare self-reference in its condition (spec §4.H).
func emitReadStatement(buf *bytes.Buffer, op lir.Operation, varName string, indent string, fieldNames map[lir.VarId]string) error {
	switch v := op.(type) {
	case lir.ReadU8:
		fmt.Fprintf(buf, "%s%s, err := r.ReadU8()\n", indent, varName)
		emitErrCheckRead(buf, indent)
	case lir.ReadI8:
		fmt.Fprintf(buf, "%s%s, err := r.ReadI8()\n", indent, varName)
		emitErrCheckRead(buf, indent)
	case lir.ReadU16:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadU16%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadU32:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadU32%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadU64:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadU64%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadI16:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadI16%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadI32:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadI32%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadI64:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%s%s, err := r.ReadI64%s()\n", indent, varName, suffix)
		emitErrCheckRead(buf, indent)
	case lir.ReadBits:
		fmt.Fprintf(buf, "%s%s, err := r.ReadBits(%d, %t)\n", indent, varName, v.Width, v.Signed)
		emitErrCheckRead(buf, indent)
	case lir.ReadFixedString:
		fmt.Fprintf(buf, "%s%s, err := r.ReadFixedString(%d)\n", indent, varName, v.Size)
		emitErrCheckRead(buf, indent)
	case lir.ReadNullTerminatedString:
		fmt.Fprintf(buf, "%s%s, err := r.ReadCString()\n", indent, varName)
		emitErrCheckRead(buf, indent)
	case lir.ReadLengthPrefixedString:
		fmt.Fprintf(buf, "%s%s, err := r.ReadFixedString(int(v%d))\n", indent, varName, v.SizeVar)
		emitErrCheckRead(buf, indent)
	case lir.ReadBlob:
		fmt.Fprintf(buf, "%s%s, err := r.ReadBlob(int(v%d))\n", indent, varName, v.SizeVar)
		emitErrCheckRead(buf, indent)
	case lir.ReadStruct:
		fmt.Fprintf(buf, "%s%s, err := Read%s(r)\n", indent, varName, capitalizeFirst(v.TypeName))
		emitErrCheckRead(buf, indent)
	case lir.ReadArray:
		return emitReadFixedArray(buf, v, varName, indent, fieldNames)
	case lir.ReadDynamicArray:
		return emitReadDynamicArray(buf, v, varName, indent, fieldNames)
	case lir.ReadUntilEofArray:
		return emitReadUntilEofArray(buf, v, varName, indent, fieldNames)
	case lir.ReadUntilConditionArray:
		return emitReadUntilConditionArray(buf, v, varName, indent, fieldNames)
	default:
		return fmt.Errorf("codegen: unsupported read operation %T", op)
	}
	return nil
}

func elementGoType(op lir.Operation) string {
	switch v := op.(type) {
	case lir.ReadU8:
		return "uint8"
	case lir.ReadI8:
		return "int8"
	case lir.ReadU16:
		return "uint16"
	case lir.ReadU32:
		return "uint32"
	case lir.ReadU64:
		return "uint64"
	case lir.ReadI16:
		return "int16"
	case lir.ReadI32:
		return "int32"
	case lir.ReadI64:
		return "int64"
	case lir.ReadBits:
		if v.Signed {
			return "int8"
		}
		return "uint8"
	case lir.ReadFixedString, lir.ReadNullTerminatedString, lir.ReadLengthPrefixedString:
		return "string"
	case lir.ReadBlob:
		return "[]byte"
	case lir.ReadStruct:
		return capitalizeFirst(v.TypeName)
	default:
		return "interface{}"
	}
}

func elementAssignExpr(op lir.Operation, varName string) string {
	switch op.(type) {
	case lir.ReadStruct:
		return "*" + varName
	case lir.ReadU8, lir.ReadI8, lir.ReadU16, lir.ReadU32, lir.ReadU64, lir.ReadI16, lir.ReadI32, lir.ReadI64, lir.ReadBits:
		return elementGoType(op) + "(" + varName + ")"
	default:
		return varName
	}
}

func emitReadFixedArray(buf *bytes.Buffer, op lir.ReadArray, varName string, indent string, fieldNames map[lir.VarId]string) error {
	elemType := elementGoType(op.ElementOp)
	fmt.Fprintf(buf, "%svar %s [%d]%s\n", indent, varName, op.Count, elemType)
	fmt.Fprintf(buf, "%sfor i := 0; i < %d; i++ {\n", indent, op.Count)
	elemVar := varName + "Elem"
	if err := emitReadStatement(buf, op.ElementOp, elemVar, indent+"\t", fieldNames); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s\t%s[i] = %s\n", indent, varName, elementAssignExpr(op.ElementOp, elemVar))
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

func emitReadDynamicArray(buf *bytes.Buffer, op lir.ReadDynamicArray, varName string, indent string, fieldNames map[lir.VarId]string) error {
	elemType := elementGoType(op.ElementOp)
	sizeExpr := fmt.Sprintf("int(v%d)", op.SizeVar)
	fmt.Fprintf(buf, "%s%s := make([]%s, 0, %s)\n", indent, varName, elemType, sizeExpr)
	fmt.Fprintf(buf, "%sfor i := 0; i < %s; i++ {\n", indent, sizeExpr)
	elemVar := varName + "Elem"
	if err := emitReadStatement(buf, op.ElementOp, elemVar, indent+"\t", fieldNames); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s\t%s = append(%s, %s)\n", indent, varName, varName, elementAssignExpr(op.ElementOp, elemVar))
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

func emitReadUntilEofArray(buf *bytes.Buffer, op lir.ReadUntilEofArray, varName string, indent string, fieldNames map[lir.VarId]string) error {
	elemType := elementGoType(op.ElementOp)
	fmt.Fprintf(buf, "%svar %s []%s\n", indent, varName, elemType)
	fmt.Fprintf(buf, "%sfor r.Remaining() > 0 {\n", indent)
	elemVar := varName + "Elem"
	if err := emitReadStatement(buf, op.ElementOp, elemVar, indent+"\t", fieldNames); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s\t%s = append(%s, %s)\n", indent, varName, varName, elementAssignExpr(op.ElementOp, elemVar))
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

func emitReadUntilConditionArray(buf *bytes.Buffer, op lir.ReadUntilConditionArray, varName string, indent string, fieldNames map[lir.VarId]string) error {
	elemType := elementGoType(op.ElementOp)
	fmt.Fprintf(buf, "%svar %s []%s\n", indent, varName, elemType)
	fmt.Fprintf(buf, "%sfor {\n", indent)
	elemVar := varName + "Elem"
	if err := emitReadStatement(buf, op.ElementOp, elemVar, indent+"\t", fieldNames); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s\t%s = append(%s, %s)\n", indent, varName, varName, elementAssignExpr(op.ElementOp, elemVar))
	selfName := fieldNames[op.Dest]
	cond := GenerateExpr(op.Condition, varName, selfName)
	fmt.Fprintf(buf, "%s\tif %s {\n", indent, cond)
	fmt.Fprintf(buf, "%s\t\tbreak\n", indent)
	fmt.Fprintf(buf, "%s\t}\n", indent)
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

func emitSkipRead(buf *bytes.Buffer, op lir.SkipRead, indent string) error {
	switch op.Kind {
	case hir.SkipVariable:
		fmt.Fprintf(buf, "%sif err := r.Skip(int(v%d)); err != nil {\n", indent, op.SizeVar)
	case hir.SkipFixed:
		fmt.Fprintf(buf, "%sif err := r.Skip(%d); err != nil {\n", indent, op.Bytes)
	case hir.SkipAlign:
		fmt.Fprintf(buf, "%sif err := r.Align(%d); err != nil {\n", indent, op.Boundary)
	default:
		return fmt.Errorf("codegen: unrecognized skip kind")
	}
	fmt.Fprintf(buf, "%s\treturn nil, err\n", indent)
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

// --- assertion emission ----------------------------------------------

func emitAssertion(buf *bytes.Buffer, fieldName, varName string, a *hir.Assertion, indent string) {
	switch a.Kind {
	case hir.AssertEquals:
		if len(a.IntArray) > 0 {
			emitArrayAssertion(buf, fieldName, varName, a.IntArray, true, indent)
			return
		}
		emitScalarAssertion(buf, fieldName, varName, "!=", a.Scalar, indent)
	case hir.AssertNotEquals:
		if len(a.IntArray) > 0 {
			emitArrayAssertion(buf, fieldName, varName, a.IntArray, false, indent)
			return
		}
		emitScalarAssertion(buf, fieldName, varName, "==", a.Scalar, indent)
	case hir.AssertGreaterThan:
		emitScalarAssertion(buf, fieldName, varName, "<=", a.Scalar, indent)
	case hir.AssertGreaterOrEqual:
		emitScalarAssertion(buf, fieldName, varName, "<", a.Scalar, indent)
	case hir.AssertLessThan:
		emitScalarAssertion(buf, fieldName, varName, ">=", a.Scalar, indent)
	case hir.AssertLessOrEqual:
		emitScalarAssertion(buf, fieldName, varName, ">", a.Scalar, indent)
	case hir.AssertIn:
		emitInAssertion(buf, fieldName, varName, a.List, true, indent)
	case hir.AssertNotIn:
		emitInAssertion(buf, fieldName, varName, a.List, false, indent)
	case hir.AssertRange:
		fmt.Fprintf(buf, "%sif int64(%s) < %d || int64(%s) > %d {\n", indent, varName, a.Min, varName, a.Max)
		fmt.Fprintf(buf, "%s\treturn nil, &ParseError{Field: %q, Message: \"value out of range\"}\n", indent, fieldName)
		fmt.Fprintf(buf, "%s}\n", indent)
	}
}

func emitScalarAssertion(buf *bytes.Buffer, fieldName, varName, violatingOp string, scalar int64, indent string) {
	fmt.Fprintf(buf, "%sif int64(%s) %s %d {\n", indent, varName, violatingOp, scalar)
	fmt.Fprintf(buf, "%s\treturn nil, &ParseError{Field: %q, Message: \"assertion failed\"}\n", indent, fieldName)
	fmt.Fprintf(buf, "%s}\n", indent)
}

// emitArrayAssertion compares varName (an array or slice field) element
// by element against want; wantEqual selects whether mismatch or match
// is the failing condition (Equals vs NotEquals).
func emitArrayAssertion(buf *bytes.Buffer, fieldName, varName string, want []int64, wantEqual bool, indent string) {
	fmt.Fprintf(buf, "%s{\n", indent)
	fmt.Fprintf(buf, "%s\tmatch := len(%s) == %d\n", indent, varName, len(want))
	fmt.Fprintf(buf, "%s\tif match {\n", indent)
	fmt.Fprintf(buf, "%s\t\tfor i, want := range %s {\n", indent, formatInt64Slice(want))
	fmt.Fprintf(buf, "%s\t\t\tif int64(%s[i]) != want {\n", indent, varName)
	fmt.Fprintf(buf, "%s\t\t\t\tmatch = false\n", indent)
	fmt.Fprintf(buf, "%s\t\t\t\tbreak\n", indent)
	fmt.Fprintf(buf, "%s\t\t\t}\n", indent)
	fmt.Fprintf(buf, "%s\t\t}\n", indent)
	fmt.Fprintf(buf, "%s\t}\n", indent)
	if wantEqual {
		fmt.Fprintf(buf, "%s\tif !match {\n", indent)
	} else {
		fmt.Fprintf(buf, "%s\tif match {\n", indent)
	}
	fmt.Fprintf(buf, "%s\t\treturn nil, &ParseError{Field: %q, Message: \"assertion failed\"}\n", indent, fieldName)
	fmt.Fprintf(buf, "%s\t}\n", indent)
	fmt.Fprintf(buf, "%s}\n", indent)
}

func emitInAssertion(buf *bytes.Buffer, fieldName, varName string, list []int64, wantIn bool, indent string) {
	fmt.Fprintf(buf, "%s{\n", indent)
	fmt.Fprintf(buf, "%s\tfound := false\n", indent)
	fmt.Fprintf(buf, "%s\tfor _, want := range %s {\n", indent, formatInt64Slice(list))
	fmt.Fprintf(buf, "%s\t\tif int64(%s) == want {\n", indent, varName)
	fmt.Fprintf(buf, "%s\t\t\tfound = true\n", indent)
	fmt.Fprintf(buf, "%s\t\t\tbreak\n", indent)
	fmt.Fprintf(buf, "%s\t\t}\n", indent)
	fmt.Fprintf(buf, "%s\t}\n", indent)
	if wantIn {
		fmt.Fprintf(buf, "%s\tif !found {\n", indent)
	} else {
		fmt.Fprintf(buf, "%s\tif found {\n", indent)
	}
	fmt.Fprintf(buf, "%s\t\treturn nil, &ParseError{Field: %q, Message: \"assertion failed\"}\n", indent, fieldName)
	fmt.Fprintf(buf, "%s\t}\n", indent)
	fmt.Fprintf(buf, "%s}\n", indent)
}

func formatInt64Slice(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return "[]int64{" + strings.Join(parts, ", ") + "}"
}

// --- write-side emission ----------------------------------------------

func generateWrite(buf *bytes.Buffer, t *lir.Type) error {
	name := capitalizeFirst(t.Name)
	fmt.Fprintf(buf, "func Write%s(w *Writer, value *%s) error {\n", name, name)

	createIdx := -1
	for i, op := range t.Operations {
		if _, ok := op.(lir.CreateStruct); ok {
			createIdx = i
			break
		}
	}
	if createIdx < 0 {
		return fmt.Errorf("codegen: type %s has no CreateStruct terminator", t.Name)
	}

	fieldIdx := 0
	for i := createIdx + 1; i < len(t.Operations); i++ {
		op := t.Operations[i]
		switch v := op.(type) {
		case lir.AccessField:
			// Marks the field boundary; the following operation is the
			// actual write and is handled by the default case below.
			continue
		case lir.SkipWrite:
			emitSkipWrite(buf, v, "\t")
		default:
			if fieldIdx >= len(t.Fields) {
				return fmt.Errorf("codegen: type %s has more write operations than fields", t.Name)
			}
			f := t.Fields[fieldIdx]
			fieldIdx++
			srcExpr := "value." + capitalizeFirst(f.Name)
			if err := emitWriteStatement(buf, op, srcExpr, "\t"); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(buf, "\treturn nil\n")
	fmt.Fprintf(buf, "}\n\n")
	return nil
}

func emitSkipWrite(buf *bytes.Buffer, op lir.SkipWrite, indent string) {
	switch op.Kind {
	case hir.SkipVariable:
		fmt.Fprintf(buf, "%sw.Pad(int(value.%s))\n", indent, capitalizeFirst(op.SizeFieldName))
	case hir.SkipFixed:
		fmt.Fprintf(buf, "%sw.Pad(%d)\n", indent, op.Bytes)
	case hir.SkipAlign:
		fmt.Fprintf(buf, "%sw.Align(%d)\n", indent, op.Boundary)
	}
}

func emitWriteStatement(buf *bytes.Buffer, op lir.Operation, srcExpr string, indent string) error {
	switch v := op.(type) {
	case lir.WriteU8:
		fmt.Fprintf(buf, "%sw.WriteU8(uint8(%s))\n", indent, srcExpr)
		return nil
	case lir.WriteI8:
		fmt.Fprintf(buf, "%sw.WriteI8(int8(%s))\n", indent, srcExpr)
		return nil
	case lir.WriteU16:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteU16%s(uint16(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteU32:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteU32%s(uint32(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteU64:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteU64%s(uint64(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteI16:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteI16%s(int16(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteI32:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteI32%s(int32(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteI64:
		suffix, err := endianSuffix(v.Endianness)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "%sw.WriteI64%s(int64(%s))\n", indent, suffix, srcExpr)
		return nil
	case lir.WriteBits:
		fmt.Fprintf(buf, "%sw.WriteBits(int64(%s), %d)\n", indent, srcExpr, v.Width)
		return nil
	case lir.WriteFixedString:
		fmt.Fprintf(buf, "%sw.WriteFixedString(%s, %d)\n", indent, srcExpr, v.Size)
		return nil
	case lir.WriteNullTerminatedString:
		fmt.Fprintf(buf, "%sw.WriteCString(%s)\n", indent, srcExpr)
		return nil
	case lir.WriteLengthPrefixedString:
		fmt.Fprintf(buf, "%sw.WriteBlob([]byte(%s))\n", indent, srcExpr)
		return nil
	case lir.WriteBlob:
		fmt.Fprintf(buf, "%sw.WriteBlob(%s)\n", indent, srcExpr)
		return nil
	case lir.WriteStruct:
		fmt.Fprintf(buf, "%sif err := Write%s(w, &%s); err != nil {\n", indent, capitalizeFirst(v.TypeName), srcExpr)
		fmt.Fprintf(buf, "%s\treturn err\n", indent)
		fmt.Fprintf(buf, "%s}\n", indent)
		return nil
	case lir.WriteArray:
		return emitWriteContainer(buf, v.ElementOp, srcExpr, indent)
	case lir.WriteDynamicArray:
		return emitWriteDynamicArray(buf, v, srcExpr, indent)
	case lir.WriteUntilEofArray:
		return emitWriteContainer(buf, v.ElementOp, srcExpr, indent)
	case lir.WriteUntilConditionArray:
		return emitWriteContainer(buf, v.ElementOp, srcExpr, indent)
	default:
		return fmt.Errorf("codegen: unsupported write operation %T", op)
	}
}

// emitWriteContainer iterates srcExpr's current runtime length and
// writes each element via elementOp. The until-eof and until-condition
// shapes have no independent bound to write against; the write side
// always emits exactly what the container holds for those two
// (SPEC_FULL.md, design notes).
func emitWriteContainer(buf *bytes.Buffer, elementOp lir.Operation, srcExpr string, indent string) error {
	fmt.Fprintf(buf, "%sfor i := range %s {\n", indent, srcExpr)
	elemExpr := fmt.Sprintf("%s[i]", srcExpr)
	if err := emitWriteStatement(buf, elementOp, elemExpr, indent+"\t"); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

// emitWriteDynamicArray iterates from 0 to the size field's current
// value, not the container's own length (spec §4.H): the size field is
// itself a distinct written field, so the loop bound is its value, not
// len(srcExpr).
func emitWriteDynamicArray(buf *bytes.Buffer, op lir.WriteDynamicArray, srcExpr string, indent string) error {
	sizeExpr := sizeFieldExpr(srcExpr, op.SizeFieldName)
	fmt.Fprintf(buf, "%sfor i := 0; i < int(%s); i++ {\n", indent, sizeExpr)
	elemExpr := fmt.Sprintf("%s[i]", srcExpr)
	if err := emitWriteStatement(buf, op.ElementOp, elemExpr, indent+"\t"); err != nil {
		return err
	}
	fmt.Fprintf(buf, "%s}\n", indent)
	return nil
}

// sizeFieldExpr rewrites srcExpr's trailing field-access component to
// name the size field instead, so a nested element's size field is still
// resolved against the enclosing struct value rather than the element.
func sizeFieldExpr(srcExpr, sizeFieldName string) string {
	if idx := strings.LastIndex(srcExpr, "."); idx >= 0 {
		return srcExpr[:idx+1] + capitalizeFirst(sizeFieldName)
	}
	return capitalizeFirst(sizeFieldName)
}
