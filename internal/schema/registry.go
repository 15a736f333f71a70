// Package schema validates backend payloads against embedded JSON Schemas
// before they are decoded into typed responses.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Names of the embedded schemas.
const (
	BookStatus         = "book_status"
	WorkflowBookStatus = "workflow_book_status"
	Models             = "models"
)

// ErrInvalid wraps every validation failure so callers can treat it as an
// unparseable response.
var ErrInvalid = errors.New("payload does not match schema")

// Schema is one embedded JSON Schema document.
type Schema struct {
	Name   string
	Source []byte
}

var registry = []string{BookStatus, WorkflowBookStatus, Models}

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

// All returns every embedded schema, sorted by name.
func All() ([]Schema, error) {
	schemas := make([]Schema, 0, len(registry))
	for _, name := range registry {
		s, err := Get(name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, *s)
	}
	sort.Slice(schemas, func(i, j int) bool {
		return schemas[i].Name < schemas[j].Name
	})
	return schemas, nil
}

// Get returns a single schema by name.
func Get(name string) (*Schema, error) {
	for _, n := range registry {
		if n != name {
			continue
		}
		content, err := schemaFS.ReadFile(filename(name))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
		}
		return &Schema{Name: name, Source: content}, nil
	}
	return nil, fmt.Errorf("schema not found: %s", name)
}

// Validate checks a raw JSON payload against the named schema.
func Validate(name string, payload []byte) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}
	sch, ok := compiled[name]
	if !ok {
		return fmt.Errorf("schema not found: %s", name)
	}

	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	return nil
}

// Decode validates payload against the named schema and unmarshals it into v.
func Decode(name string, payload []byte, v any) error {
	if err := Validate(name, payload); err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
	}
	return nil
}

func compileAll() {
	compiler := jsonschema.NewCompiler()
	compiled = make(map[string]*jsonschema.Schema, len(registry))
	for _, name := range registry {
		content, err := schemaFS.ReadFile(filename(name))
		if err != nil {
			compileErr = fmt.Errorf("failed to read schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(name+".json", bytes.NewReader(content)); err != nil {
			compileErr = fmt.Errorf("failed to load schema %s: %w", name, err)
			return
		}
	}
	for _, name := range registry {
		sch, err := compiler.Compile(name + ".json")
		if err != nil {
			compileErr = fmt.Errorf("failed to compile schema %s: %w", name, err)
			return
		}
		compiled[name] = sch
	}
}

func filename(name string) string {
	return "schemas/" + name + ".json"
}
