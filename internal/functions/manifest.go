package functions

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/watzon/alyx-executor/internal/sdk"
)

const (
	// EntryFile is the manifest looked up inside a function directory.
	EntryFile = "function.yaml"
	// ManifestExt is the extension of a flat, single-file function.
	ManifestExt = ".yaml"
)

//go:embed schemas/manifest.schema.json
var manifestSchemaJSON []byte

// Manifest describes one function on disk. Exactly one of Handler and
// Expression must be set.
type Manifest struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	Handler      string     `yaml:"handler"`
	Expression   string     `yaml:"expression"`
	InputSchema  sdk.Schema `yaml:"input_schema"`
	OutputSchema sdk.Schema `yaml:"output_schema"`
}

// contractViolation marks a manifest that is well-formed YAML but not a
// valid function definition.
type contractViolation string

func (c contractViolation) Error() string { return string(c) }

type manifestParser struct {
	schema *jsonschema.Schema
}

func newManifestParser() (*manifestParser, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(manifestSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return &manifestParser{schema: schema}, nil
}

// parse decodes data. A contractViolation is returned for manifests that
// parse but do not describe exactly one handler.
func (p *manifestParser) parse(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if doc == nil {
		return nil, contractViolation("manifest is empty")
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, contractViolation("manifest must be a mapping with string keys")
	}
	result := p.schema.ValidateJSON(docJSON)
	if !result.IsValid() {
		return nil, contractViolation(fmt.Sprintf("manifest does not match schema: %v", result.Errors))
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	switch {
	case m.Handler == "" && m.Expression == "":
		return nil, contractViolation("manifest must define a handler or an expression")
	case m.Handler != "" && m.Expression != "":
		return nil, contractViolation("manifest must define only one of handler and expression")
	}

	return &m, nil
}
