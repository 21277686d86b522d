package ai

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/qri-io/jsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Schema is a compiled JSON schema for classifier decision objects.
type Schema struct {
	version string
	rs      *jsonschema.Schema
}

// LoadSchema compiles the embedded decision schema for version, e.g. "v1".
func LoadSchema(version string) (*Schema, error) {
	b, err := schemaFS.ReadFile("schemas/decision_" + version + ".json")
	if err != nil {
		return nil, fmt.Errorf("load schema %s: %w", version, err)
	}
	return CompileSchema(version, b)
}

// CompileSchema compiles raw JSON schema bytes.
func CompileSchema(version string, raw []byte) (*Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(raw, rs); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", version, err)
	}
	return &Schema{version: version, rs: rs}, nil
}

func (s *Schema) Version() string { return s.version }

// Validate returns one message per violation; nil when doc conforms.
func (s *Schema) Validate(ctx context.Context, doc []byte) []string {
	verrs, err := s.rs.ValidateBytes(ctx, doc)
	if err != nil {
		return []string{err.Error()}
	}
	if len(verrs) == 0 {
		return nil
	}
	out := make([]string, 0, len(verrs))
	for _, v := range verrs {
		out = append(out, v.PropertyPath+": "+v.Message)
	}
	return out
}
