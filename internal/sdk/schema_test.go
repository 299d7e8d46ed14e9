package sdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func schemaNames(s Schema) []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

func TestSchema_YAMLKeepsOrder(t *testing.T) {
	var s Schema
	err := yaml.Unmarshal([]byte(`
title: {type: string}
body: {type: string, max_length: 100}
author: {required: true}
`), &s)
	require.NoError(t, err)
	require.Equal(t, []string{"title", "body", "author"}, schemaNames(s))

	rules, ok := s.Field("body")
	require.True(t, ok)
	require.Equal(t, 100, rules.MaxLength)

	_, ok = s.Field("missing")
	require.False(t, ok)
}

func TestSchema_JSONKeepsOrder(t *testing.T) {
	var s Schema
	err := json.Unmarshal([]byte(`{"z": {"required": true}, "a": {"type": "number"}, "m": {}}`), &s)
	require.NoError(t, err)
	require.Equal(t, []string{"z", "a", "m"}, schemaNames(s))
	require.Equal(t, KindNumber, s[1].Rules.Type)
}

func TestSchema_Null(t *testing.T) {
	var s Schema
	require.NoError(t, json.Unmarshal([]byte(`null`), &s))
	require.Nil(t, s)
}

func TestSchema_RejectsUnknownType(t *testing.T) {
	var s Schema
	err := yaml.Unmarshal([]byte(`f: {type: integer}`), &s)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"f": {"type": "date"}}`), &s)
	require.Error(t, err)
}

func TestSchema_RejectsNegativeBounds(t *testing.T) {
	var s Schema
	require.Error(t, yaml.Unmarshal([]byte(`f: {min_length: -1}`), &s))
}

func TestSchema_RejectsNonMapping(t *testing.T) {
	var s Schema
	require.Error(t, yaml.Unmarshal([]byte(`[a, b]`), &s))
	require.Error(t, json.Unmarshal([]byte(`[1]`), &s))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		value any
		want  Kind
	}{
		{nil, KindNull},
		{true, KindBool},
		{1.5, KindNumber},
		{42, KindNumber},
		{"s", KindString},
		{[]any{}, KindArray},
		{map[string]any{}, KindObject},
		{struct{}{}, KindUnknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, KindOf(tt.value), "value %#v", tt.value)
	}
}
