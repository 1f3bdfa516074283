// Package surface deserializes the YAML-shaped configuration document,
// validates its structural well-formedness, and resolves type-name
// strings into HIR types (spec §4.B).
package surface

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/anthropics/dezzy/expr"
	"github.com/anthropics/dezzy/hir"
)

// knownTypes records which names are enums vs. structs, so that a bare
// type-name reference can be resolved to hir.EnumRef or hir.UserDefined.
type knownTypes struct {
	enums   map[string]bool
	structs map[string]bool
}

func (k knownTypes) has(name string) bool {
	return k.enums[name] || k.structs[name]
}

// Parse decodes a configuration document and lowers it into hir.Format.
func Parse(yamlContent []byte) (*hir.Format, error) {
	var doc yamlFormat
	if err := yaml.Unmarshal(yamlContent, &doc); err != nil {
		return nil, &Error{Kind: YamlError, Cause: err}
	}

	log.Debug().Str("format", doc.Name).Msg("surface: decoded configuration document")

	endianness, err := parseEndianness(doc.Endianness)
	if err != nil {
		return nil, err
	}

	known := knownTypes{enums: map[string]bool{}, structs: map[string]bool{}}
	for _, e := range doc.Enums {
		if known.has(e.Name) {
			return nil, &Error{Kind: DuplicateType, Name: e.Name}
		}
		known.enums[e.Name] = true
	}
	for _, t := range doc.Types {
		if known.has(t.Name) {
			return nil, &Error{Kind: DuplicateType, Name: t.Name}
		}
		known.structs[t.Name] = true
	}

	enums := make([]hir.Enum, 0, len(doc.Enums))
	for _, e := range doc.Enums {
		enum, err := parseEnum(e)
		if err != nil {
			return nil, err
		}
		enums = append(enums, enum)
	}

	types := make([]hir.TypeDef, 0, len(doc.Types))
	for _, t := range doc.Types {
		typeDef, err := parseTypeDef(t, known)
		if err != nil {
			return nil, err
		}
		types = append(types, typeDef)
	}

	format := &hir.Format{
		Name:       doc.Name,
		Endianness: endianness,
		Enums:      enums,
		Types:      types,
	}
	if doc.Version != nil {
		format.HasVersion = true
		format.Version = *doc.Version
	}

	log.Debug().Int("enums", len(enums)).Int("types", len(types)).Msg("surface: lowered to HIR")
	return format, nil
}

func parseEndianness(s *string) (hir.Endianness, error) {
	if s == nil {
		return hir.Little, nil
	}
	switch *s {
	case "little":
		return hir.Little, nil
	case "big":
		return hir.Big, nil
	case "native":
		return hir.Native, nil
	default:
		return 0, &Error{Kind: InvalidValue, Field: "endianness",
			Message: "unknown endianness '" + *s + "', expected 'little', 'big', or 'native'"}
	}
}

func parsePrimitiveName(name string) (hir.PrimitiveType, bool) {
	switch name {
	case "u8":
		return hir.U8, true
	case "u16":
		return hir.U16, true
	case "u32":
		return hir.U32, true
	case "u64":
		return hir.U64, true
	case "i8":
		return hir.I8, true
	case "i16":
		return hir.I16, true
	case "i32":
		return hir.I32, true
	case "i64":
		return hir.I64, true
	case "u1":
		return hir.U1, true
	case "u2":
		return hir.U2, true
	case "u3":
		return hir.U3, true
	case "u4":
		return hir.U4, true
	case "u5":
		return hir.U5, true
	case "u6":
		return hir.U6, true
	case "u7":
		return hir.U7, true
	case "i1":
		return hir.I1, true
	case "i2":
		return hir.I2, true
	case "i3":
		return hir.I3, true
	case "i4":
		return hir.I4, true
	case "i5":
		return hir.I5, true
	case "i6":
		return hir.I6, true
	case "i7":
		return hir.I7, true
	default:
		return 0, false
	}
}

func parseEnum(e yamlEnum) (hir.Enum, error) {
	underlying, ok := parsePrimitiveName(e.Type)
	if !ok || underlying.IsBitfield() {
		return hir.Enum{}, &Error{Kind: InvalidValue, Field: "type",
			Message: "enum underlying type must be one of u8/u16/u32/u64/i8/i16/i32/i64, got '" + e.Type + "'"}
	}

	pairs, err := orderedMappingPairs(e.Values, "values")
	if err != nil {
		return hir.Enum{}, err
	}

	values := make([]hir.EnumValue, 0, len(pairs))
	seen := map[string]bool{}
	for _, pair := range pairs {
		key, valNode := pair[0], pair[1]
		if key.Kind != yaml.ScalarNode || key.Tag != "!!str" {
			return hir.Enum{}, &Error{Kind: InvalidValue, Field: "values", Message: "enum value keys must be strings"}
		}
		if seen[key.Value] {
			return hir.Enum{}, &Error{Kind: DuplicateType, Name: key.Value}
		}
		seen[key.Value] = true

		n, err := strconv.ParseInt(valNode.Value, 10, 64)
		if err != nil {
			return hir.Enum{}, &Error{Kind: InvalidValue, Field: "values",
				Message: "enum value for '" + key.Value + "' must fit in i64"}
		}
		values = append(values, hir.EnumValue{Name: key.Value, Value: n})
	}

	enum := hir.Enum{Name: e.Name, UnderlyingType: underlying, Values: values}
	if e.Doc != nil {
		enum.Doc = *e.Doc
	}
	return enum, nil
}

func parseTypeDef(t yamlTypeDef, known knownTypes) (hir.TypeDef, error) {
	if t.Kind != "struct" {
		return nil, &Error{Kind: InvalidValue, Field: "type",
			Message: "unknown type kind '" + t.Kind + "', expected 'struct'"}
	}
	if t.Fields == nil {
		return nil, &Error{Kind: MissingField, Field: "fields"}
	}

	fields := make([]hir.Field, 0, len(t.Fields))
	for _, f := range t.Fields {
		field, err := parseField(f, known)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	s := hir.Struct{Name: t.Name, Fields: fields}
	if t.Doc != nil {
		s.Doc = *t.Doc
	}
	return s, nil
}

func parseField(f yamlField, known knownTypes) (hir.Field, error) {
	field := hir.Field{Name: f.Name}
	if f.Doc != nil {
		field.Doc = *f.Doc
	}

	skipCount := 0
	if f.Skip != nil {
		skipCount++
	}
	if f.Pad != nil {
		skipCount++
	}
	if f.Align != nil {
		skipCount++
	}
	if skipCount > 1 {
		return hir.Field{}, &Error{Kind: InvalidValue, Field: "skip/pad/align",
			Message: "a field may carry at most one of skip, pad, or align"}
	}

	switch {
	case f.Skip != nil:
		field.Skip = &hir.Skip{Kind: hir.SkipVariable, SizeField: *f.Skip}
		return field, nil
	case f.Pad != nil:
		field.Skip = &hir.Skip{Kind: hir.SkipFixed, Bytes: *f.Pad}
		return field, nil
	case f.Align != nil:
		field.Skip = &hir.Skip{Kind: hir.SkipAlign, Boundary: *f.Align}
		return field, nil
	}

	fieldType, err := parseType(f.Type, f.Until, known)
	if err != nil {
		return hir.Field{}, err
	}
	field.FieldType = fieldType

	switch fieldType.(type) {
	case hir.UntilEofArray:
		field.Until = hir.UntilCondition{Kind: hir.UntilEof}
	case hir.UntilConditionArray:
		field.Until = hir.UntilCondition{Kind: hir.UntilExpr, Expr: fieldType.(hir.UntilConditionArray).Condition}
	}

	if f.Assert != nil {
		assertion, err := parseAssertion(f.Assert)
		if err != nil {
			return hir.Field{}, err
		}
		field.Assertion = assertion
	}

	return field, nil
}

// parseType classifies a type-name string per the table in spec §4.B,
// extended with the sub-byte bitfield names, "blob(F)", and the
// array/until interplay. until is the field's raw `until:` clause, consulted
// only when typeStr names an unbounded array ("T[]").
func parseType(typeStr string, until *string, known knownTypes) (hir.Type, error) {
	typeStr = strings.TrimSpace(typeStr)

	if typeStr == "cstr" {
		return hir.NullTerminatedString{}, nil
	}
	if strings.HasPrefix(typeStr, "str[") && strings.HasSuffix(typeStr, "]") {
		inner := typeStr[len("str[") : len(typeStr)-1]
		n, err := strconv.Atoi(inner)
		if err != nil {
			return nil, &Error{Kind: InvalidValue, Field: "type",
				Message: "fixed string size must be an integer, got '" + inner + "'"}
		}
		return hir.FixedString{Size: n}, nil
	}
	if strings.HasPrefix(typeStr, "str(") && strings.HasSuffix(typeStr, ")") {
		return hir.LengthPrefixedString{LengthField: typeStr[len("str(") : len(typeStr)-1]}, nil
	}
	if strings.HasPrefix(typeStr, "blob(") && strings.HasSuffix(typeStr, ")") {
		return hir.Blob{SizeField: typeStr[len("blob(") : len(typeStr)-1]}, nil
	}
	if prim, ok := parsePrimitiveName(typeStr); ok {
		return hir.Primitive{Kind: prim}, nil
	}

	if idx := strings.LastIndex(typeStr, "["); idx >= 0 && strings.HasSuffix(typeStr, "]") {
		elementStr := typeStr[:idx]
		inner := typeStr[idx+1 : len(typeStr)-1]

		elementType, err := parseType(elementStr, nil, known)
		if err != nil {
			return nil, err
		}

		if inner == "" {
			if until == nil {
				return nil, &Error{Kind: InvalidValue, Field: "until",
					Message: "an unbounded array field ('" + typeStr + "') requires an 'until' clause"}
			}
			if *until == "eof" {
				return hir.UntilEofArray{Element: elementType}, nil
			}
			condition, err := expr.Parse(*until)
			if err != nil {
				return nil, err
			}
			return hir.UntilConditionArray{Element: elementType, Condition: condition}, nil
		}

		if n, err := strconv.Atoi(inner); err == nil {
			return hir.Array{Element: elementType, Size: n}, nil
		}
		return hir.DynamicArray{Element: elementType, SizeField: inner}, nil
	}

	if known.enums[typeStr] {
		return hir.EnumRef{Name: typeStr}, nil
	}
	if known.structs[typeStr] {
		return hir.UserDefined{Name: typeStr}, nil
	}
	return nil, &Error{Kind: UnknownType, Name: typeStr}
}

// parseAssertion resolves the single-entry `assert:` mapping into an
// hir.Assertion (spec §3/§4.B).
func parseAssertion(node *yaml.Node) (*hir.Assertion, error) {
	key, valNode, err := singleEntryMapping(node, "assert")
	if err != nil {
		return nil, err
	}

	switch key {
	case "equals", "not_equals":
		kind := hir.AssertEquals
		if key == "not_equals" {
			kind = hir.AssertNotEquals
		}
		if valNode.Kind == yaml.SequenceNode {
			arr, err := parseIntSequence(valNode)
			if err != nil {
				return nil, err
			}
			return &hir.Assertion{Kind: kind, IntArray: arr}, nil
		}
		n, err := parseIntScalar(valNode)
		if err != nil {
			return nil, err
		}
		return &hir.Assertion{Kind: kind, Scalar: n}, nil

	case "greater_than", "greater_or_equal", "less_than", "less_or_equal":
		n, err := parseIntScalar(valNode)
		if err != nil {
			return nil, err
		}
		kinds := map[string]hir.AssertionKind{
			"greater_than":     hir.AssertGreaterThan,
			"greater_or_equal": hir.AssertGreaterOrEqual,
			"less_than":        hir.AssertLessThan,
			"less_or_equal":    hir.AssertLessOrEqual,
		}
		return &hir.Assertion{Kind: kinds[key], Scalar: n}, nil

	case "in", "not_in":
		list, err := parseIntSequence(valNode)
		if err != nil {
			return nil, err
		}
		kind := hir.AssertIn
		if key == "not_in" {
			kind = hir.AssertNotIn
		}
		return &hir.Assertion{Kind: kind, List: list}, nil

	case "range":
		bounds, err := parseIntSequence(valNode)
		if err != nil {
			return nil, err
		}
		if len(bounds) != 2 {
			return nil, &Error{Kind: InvalidValue, Field: "assert",
				Message: "'range' requires a two-element [min, max] sequence"}
		}
		return &hir.Assertion{Kind: hir.AssertRange, Min: bounds[0], Max: bounds[1]}, nil

	default:
		return nil, &Error{Kind: InvalidValue, Field: "assert", Message: "unknown assertion key '" + key + "'"}
	}
}

func parseIntScalar(node *yaml.Node) (int64, error) {
	n, err := strconv.ParseInt(node.Value, 10, 64)
	if err != nil {
		return 0, &Error{Kind: InvalidValue, Field: "assert", Message: "expected an integer, got '" + node.Value + "'"}
	}
	return n, nil
}

func parseIntSequence(node *yaml.Node) ([]int64, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &Error{Kind: InvalidValue, Field: "assert", Message: "expected a sequence"}
	}
	out := make([]int64, 0, len(node.Content))
	for _, item := range node.Content {
		n, err := parseIntScalar(item)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
