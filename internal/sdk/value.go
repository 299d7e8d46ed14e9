// Package sdk is the handler-facing surface of the executor: the execution
// context, structured logger, database client, input schemas and errors.
package sdk

import (
	"encoding/json"
	"fmt"
)

// Kind is the dynamic type of a JSON-decoded value.
type Kind string

const (
	KindNull    Kind = "null"
	KindBool    Kind = "boolean"
	KindNumber  Kind = "number"
	KindString  Kind = "string"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindUnknown Kind = "unknown"
)

// Document is a record returned by the Internal API.
type Document = map[string]any

// KindOf classifies v as produced by encoding/json or yaml.v3 decoding.
func KindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case bool:
		return KindBool
	case float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	case string:
		return KindString
	case []any, []map[string]any, []string:
		return KindArray
	case map[string]any:
		return KindObject
	default:
		return KindUnknown
	}
}

// ParseKind maps a schema type name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindString, KindNumber, KindBool, KindArray, KindObject:
		return k, nil
	default:
		return "", fmt.Errorf("unknown type %q", s)
	}
}
