package sdk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// FieldRules are the checks applied to a single input field.
// Zero lengths mean the bound is not set.
type FieldRules struct {
	Required  bool `yaml:"required" json:"required,omitempty"`
	Type      Kind `yaml:"type" json:"type,omitempty"`
	MinLength int  `yaml:"min_length" json:"min_length,omitempty"`
	MaxLength int  `yaml:"max_length" json:"max_length,omitempty"`
}

// SchemaField pairs a field name with its rules.
type SchemaField struct {
	Name  string
	Rules FieldRules
}

// Schema is an input schema. Field order is the declaration order of the
// source document and determines which violation is reported first.
type Schema []SchemaField

// Field returns the rules declared for name.
func (s Schema) Field(name string) (FieldRules, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Rules, true
		}
	}
	return FieldRules{}, false
}

// UnmarshalYAML decodes a mapping node, keeping key order.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*s = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: schema must be a mapping of field names to rules", node.Line)
	}

	fields := make(Schema, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]

		var rules FieldRules
		if err := val.Decode(&rules); err != nil {
			return fmt.Errorf("field %q: %w", key.Value, err)
		}
		if err := rules.check(); err != nil {
			return fmt.Errorf("field %q: %w", key.Value, err)
		}
		fields = append(fields, SchemaField{Name: key.Value, Rules: rules})
	}

	*s = fields
	return nil
}

// UnmarshalJSON decodes a JSON object, keeping key order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("schema must be a JSON object")
	}

	var fields Schema
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var rules FieldRules
		if err := dec.Decode(&rules); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		if err := rules.check(); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, SchemaField{Name: name, Rules: rules})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = fields
	return nil
}

func (r FieldRules) check() error {
	if r.Type != "" {
		if _, err := ParseKind(string(r.Type)); err != nil {
			return err
		}
	}
	if r.MinLength < 0 || r.MaxLength < 0 {
		return errors.New("length bounds must be non-negative")
	}
	return nil
}
