package sdk

import "unicode/utf8"

// Validate checks input against schema and returns a *ValidationError for the
// first violated rule, walking fields in declaration order. Arrays and objects
// are only type-checked. Fields absent from the schema are ignored.
func Validate(input map[string]any, schema Schema) error {
	for _, field := range schema {
		value := input[field.Name]
		rules := field.Rules

		if value == nil {
			if rules.Required {
				return &ValidationError{Field: field.Name, Rule: "required"}
			}
			continue
		}

		if rules.Type != "" && KindOf(value) != rules.Type {
			return &ValidationError{Field: field.Name, Rule: "type", Expected: rules.Type}
		}

		s, ok := value.(string)
		if !ok {
			continue
		}
		n := utf8.RuneCountInString(s)
		if rules.MinLength > 0 && n < rules.MinLength {
			return &ValidationError{Field: field.Name, Rule: "min_length", Bound: rules.MinLength}
		}
		if rules.MaxLength > 0 && n > rules.MaxLength {
			return &ValidationError{Field: field.Name, Rule: "max_length", Bound: rules.MaxLength}
		}
	}
	return nil
}
