package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.yaml.in/yaml/v3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

type yamlManifest struct {
	Polyfills *bool          `yaml:"polyfills"`
	Values    map[string]any `yaml:"values"`
	Sources   []yaml.Node    `yaml:"sources"`
}

type yamlSource struct {
	Name string `yaml:"name"`
	// Kept as a node so that bare numbers like 1.2 keep their spelling.
	Version yaml.Node `yaml:"version"`
}

// ParseYAML parses a YAML declaration file.
//
// Syntax errors are returned as *ParseError. Schema violations and invalid
// sources are returned as *ValidationErrors.
func ParseYAML(filename string, data []byte) (*Manifest, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("syntax error: %v", err),
			Wrapped: err,
		}
	}

	var errs ValidationErrors
	if err := validateSchema(filename, raw, &errs); err != nil {
		return nil, err
	}
	if errs.HasErrors() {
		return nil, &errs
	}

	var doc yamlManifest
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{
			Pos:     Position{Filename: filename},
			Message: fmt.Sprintf("decoding: %v", err),
			Wrapped: err,
		}
	}

	m := &Manifest{
		Path:      filename,
		Polyfills: doc.Polyfills,
		Values:    doc.Values,
		Sources:   make([]Source, 0, len(doc.Sources)),
	}
	for i := range doc.Sources {
		node := &doc.Sources[i]
		pos := Position{Filename: filename, Line: node.Line, Column: node.Column}

		var s yamlSource
		if err := node.Decode(&s); err != nil {
			errs.Add(pos, fmt.Sprintf("sources[%d]", i), err.Error())
			continue
		}
		m.Sources = append(m.Sources, Source{
			Name:    s.Name,
			Version: s.Version.Value,
			Pos:     pos,
		})
	}

	m.validate(&errs)
	if err := errs.ToError(); err != nil {
		return nil, err
	}
	return m, nil
}

// getSchema compiles the embedded JSON schema once and returns it.
func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = fmt.Errorf("unmarshaling schema JSON: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("adding schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = c.Compile("manifest.schema.json")
		if compileErr != nil {
			compileErr = fmt.Errorf("compiling schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// validateSchema checks the generic YAML value against the embedded schema,
// adding one FieldError per violation. The returned error is for schema or
// conversion failures only.
func validateSchema(filename string, raw any, errs *ValidationErrors) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	jsonData, err := json.Marshal(normalizeYAML(raw))
	if err != nil {
		return fmt.Errorf("converting to JSON: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("preparing JSON for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("unexpected validation error type: %w", err)
	}

	before := len(errs.Errors)
	collectIssues(filename, ve, errs)
	if len(errs.Errors) == before {
		errs.Add(Position{Filename: filename}, "", ve.Error())
	}
	return nil
}

// collectIssues walks the ValidationError tree and records leaf errors.
func collectIssues(filename string, ve *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(filename, cause, errs)
		}
		return
	}
	if ve.ErrorKind == nil {
		return
	}

	kw := ve.ErrorKind.KeywordPath()
	if len(kw) == 0 || kw[len(kw)-1] == "$ref" {
		return
	}

	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	errs.Add(Position{Filename: filename}, path, ve.ErrorKind.LocalizedString(printer))
}

// normalizeYAML recursively converts YAML-decoded values to JSON-compatible
// types. Mappings with non-string keys become string-keyed maps.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[k] = normalizeYAML(v)
		}
		return m
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case []any:
		a := make([]any, len(val))
		for i, v := range val {
			a[i] = normalizeYAML(v)
		}
		return a
	default:
		return val
	}
}
