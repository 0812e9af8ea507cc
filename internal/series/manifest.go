package series

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"
)

const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["patches"],
  "properties": {
    "patches": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["file"],
        "properties": {
          "file": {"type": "string", "minLength": 1},
          "directory": {"type": "string"},
          "ignoreAlreadyPatched": {"type": "boolean"}
        }
      }
    }
  }
}`

var (
	schemaLoader     gojsonschema.JSONLoader
	schemaLoaderErr  error
	schemaLoaderOnce sync.Once
)

// Manifest lists the patches of a series in application order.
type Manifest struct {
	Patches []Entry `yaml:"patches"`
	// Dir is the directory relative entry paths are resolved against.
	Dir string `yaml:"-"`
}

// Entry is a single patch of a series.
type Entry struct {
	File                 string `yaml:"file"`
	Directory            string `yaml:"directory"`
	IgnoreAlreadyPatched bool   `yaml:"ignoreAlreadyPatched"`
}

// ValidationError lists the schema violations of a manifest.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest failed schema validation"
	}
	return "invalid manifest: " + strings.Join(e.Issues, "; ")
}

// Load reads the manifest at path. Relative entries resolve against the
// manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	manifest, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("series: %s: %w", path, err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	manifest.Dir = dir
	return manifest, nil
}

// Decode parses and validates a YAML or JSON manifest.
func Decode(data []byte) (*Manifest, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ValidationError{Issues: []string{"manifest is empty"}}
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if raw == nil {
		return nil, &ValidationError{Issues: []string{"manifest is empty"}}
	}
	if err := validate(raw); err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &manifest, nil
}

func validate(raw any) error {
	loader, err := loadSchema()
	if err != nil {
		return err
	}
	result, err := gojsonschema.Validate(loader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return &ValidationError{Issues: issues}
}

func loadSchema() (gojsonschema.JSONLoader, error) {
	schemaLoaderOnce.Do(func() {
		loader := gojsonschema.NewStringLoader(manifestSchema)
		if _, err := gojsonschema.NewSchema(loader); err != nil {
			schemaLoaderErr = fmt.Errorf("compile manifest schema: %w", err)
			return
		}
		schemaLoader = loader
	})
	if schemaLoaderErr != nil {
		return nil, schemaLoaderErr
	}
	if schemaLoader == nil {
		return nil, errors.New("manifest schema unavailable")
	}
	return schemaLoader, nil
}
