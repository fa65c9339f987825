// Package formdef loads declarative form definitions and evaluates them.
//
// A definition is a JSON or YAML document listing fields, their validators
// and their relation groups. Documents are validated against an embedded
// JSON Schema (draft 2020-12), then compiled into form.FieldModel trees
// with relations checked by relation.Compile.
package formdef

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gowebpki/jcs"
	"gopkg.in/yaml.v3"

	"github.com/solatis/formrel/internal/form"
	"github.com/solatis/formrel/internal/relation"
	"github.com/solatis/formrel/internal/types"
)

// ErrInvalidDocument wraps schema and decoding failures.
var ErrInvalidDocument = errors.New("invalid form definition")

// Format selects the document encoding.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// Document is a parsed form definition.
type Document struct {
	ID     string     `json:"id" yaml:"id"`
	Name   string     `json:"name,omitempty" yaml:"name,omitempty"`
	Fields []FieldDef `json:"fields" yaml:"fields"`
}

// FieldDef declares one field.
type FieldDef struct {
	ID         string              `json:"id" yaml:"id"`
	Type       form.Kind           `json:"type" yaml:"type"`
	Label      string              `json:"label,omitempty" yaml:"label,omitempty"`
	Value      any                 `json:"value,omitempty" yaml:"value,omitempty"`
	Hidden     bool                `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Disabled   bool                `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	Validators form.ValidatorSet   `json:"validators,omitempty" yaml:"validators,omitempty"`
	Relation   []types.RelationDef `json:"relation,omitempty" yaml:"relation,omitempty"`
	Group      []FieldDef          `json:"group,omitempty" yaml:"group,omitempty"`
	Array      *ArrayDef           `json:"array,omitempty" yaml:"array,omitempty"`
}

// ArrayDef declares the item template of an array field.
type ArrayDef struct {
	InitialCount int        `json:"initialCount,omitempty" yaml:"initialCount,omitempty"`
	Template     []FieldDef `json:"template" yaml:"template"`
}

// Parse decodes and validates a definition. YAML input is normalized to
// JSON first so both encodings go through the same schema check.
func Parse(data []byte, format Format) (*Document, error) {
	jsonData, err := toJSON(data, format)
	if err != nil {
		return nil, err
	}
	if err := ValidateJSON(jsonData); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Load reads and parses a definition file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// JSON encodes the document in RFC 8785 canonical form for storage, so
// equal documents store byte-identical definitions.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

// ETag is the hex SHA-256 of the canonical JSON encoding.
func (d *Document) ETag() (string, error) {
	data, err := d.JSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// FieldCount counts declared fields, including group children and array
// templates once each.
func (d *Document) FieldCount() int {
	return countFields(d.Fields)
}

func countFields(defs []FieldDef) int {
	n := len(defs)
	for _, def := range defs {
		n += countFields(def.Group)
		if def.Array != nil {
			n += countFields(def.Array.Template)
		}
	}
	return n
}

// Models compiles the document into fresh field models. Relation errors are
// reported with the dotted path of the offending field.
func (d *Document) Models() ([]*form.FieldModel, error) {
	return buildModels(d.Fields, "")
}

func buildModels(defs []FieldDef, prefix string) ([]*form.FieldModel, error) {
	models := make([]*form.FieldModel, 0, len(defs))
	for _, def := range defs {
		path := def.ID
		if prefix != "" {
			path = prefix + "." + def.ID
		}

		relations, err := relation.Compile(def.Relation)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", path, err)
		}

		m := &form.FieldModel{
			ID:         def.ID,
			Kind:       def.Type,
			Label:      def.Label,
			Value:      def.Value,
			Validators: def.Validators,
			Relations:  relations,
			Disabled:   def.Disabled,
			Hidden:     def.Hidden,
		}

		switch def.Type {
		case form.KindGroup:
			if m.Group, err = buildModels(def.Group, path); err != nil {
				return nil, err
			}
		case form.KindArray:
			if def.Array == nil {
				return nil, fmt.Errorf("field %s: %w: array without template", path, ErrInvalidDocument)
			}
			m.Count = def.Array.InitialCount
			if m.Template, err = buildModels(def.Array.Template, path+".*"); err != nil {
				return nil, err
			}
		}

		models = append(models, m)
	}
	return models, nil
}

// toJSON normalizes input to JSON bytes.
func toJSON(data []byte, format Format) ([]byte, error) {
	if format == FormatAuto {
		format = sniff(data)
	}
	if format == FormatJSON {
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return out, nil
}

// sniff treats input starting with '{' or '[' as JSON, anything else as YAML.
func sniff(data []byte) Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}
