package surface

import "gopkg.in/yaml.v3"

// yamlFormat mirrors the top-level shape of the configuration document
// (spec §6): `{ name, version?, endianness?, enums?[], types[] }`.
type yamlFormat struct {
	Name       string        `yaml:"name"`
	Version    *string       `yaml:"version"`
	Endianness *string       `yaml:"endianness"`
	Enums      []yamlEnum    `yaml:"enums"`
	Types      []yamlTypeDef `yaml:"types"`
}

// yamlEnum's Values field is kept as a raw *yaml.Node rather than a Go map
// so that key order (the ordered mapping the spec requires) survives
// decoding; yaml.v3 does not offer an order-preserving map type, but its
// mapping nodes retain key/value pairs in document order in Content.
type yamlEnum struct {
	Name   string    `yaml:"name"`
	Type   string    `yaml:"type"`
	Doc    *string   `yaml:"doc"`
	Values *yaml.Node `yaml:"values"`
}

type yamlTypeDef struct {
	Name   string      `yaml:"name"`
	Kind   string      `yaml:"type"`
	Doc    *string     `yaml:"doc"`
	Fields []yamlField `yaml:"fields"`
}

type yamlField struct {
	Name   string     `yaml:"name"`
	Type   string     `yaml:"type"`
	Doc    *string    `yaml:"doc"`
	Until  *string    `yaml:"until"`
	Assert *yaml.Node `yaml:"assert"`
	Skip   *string    `yaml:"skip"`
	Pad    *int       `yaml:"pad"`
	Align  *int       `yaml:"align"`
}

// orderedMappingPairs walks a YAML mapping node's Content in document
// order and returns its (key, value) pairs as raw nodes. Returns an error
// if node is nil or not a mapping.
func orderedMappingPairs(node *yaml.Node, field string) ([][2]*yaml.Node, error) {
	if node == nil {
		return nil, &Error{Kind: MissingField, Field: field}
	}
	if node.Kind != yaml.MappingNode {
		return nil, &Error{Kind: InvalidValue, Field: field, Message: "expected a mapping"}
	}
	pairs := make([][2]*yaml.Node, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		pairs = append(pairs, [2]*yaml.Node{node.Content[i], node.Content[i+1]})
	}
	return pairs, nil
}

// singleEntryMapping returns the single (key, value) pair of a one-entry
// mapping node, or an error if node isn't a mapping with exactly one entry.
func singleEntryMapping(node *yaml.Node, field string) (string, *yaml.Node, error) {
	pairs, err := orderedMappingPairs(node, field)
	if err != nil {
		return "", nil, err
	}
	if len(pairs) != 1 {
		return "", nil, &Error{Kind: InvalidValue, Field: field, Message: "expected a single-entry mapping"}
	}
	return pairs[0][0].Value, pairs[0][1], nil
}
