package property

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	propertySchemaURL = "https://havenrise.local/schemas/property.json"
	catalogSchemaURL  = "https://havenrise.local/schemas/catalog.json"
)

var (
	schemaOnce     sync.Once
	propertySchema *jsonschema.Schema
	catalogSchema  *jsonschema.Schema
	errSchema      error
)

// compileSchemas registers the embedded schemas as resources so the catalog
// schema can $ref the property schema, then compiles both.
func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	resources := []struct{ url, file string }{
		{propertySchemaURL, "schemas/property.json"},
		{catalogSchemaURL, "schemas/catalog.json"},
	}
	for _, res := range resources {
		f, err := schemaFS.Open(res.file)
		if err != nil {
			errSchema = fmt.Errorf("opening schema %s: %w", res.file, err)
			return
		}
		err = compiler.AddResource(res.url, f)
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			errSchema = fmt.Errorf("adding schema %s: %w", res.file, err)
			return
		}
	}

	var err error
	if propertySchema, err = compiler.Compile(propertySchemaURL); err != nil {
		errSchema = fmt.Errorf("compiling property schema: %w", err)
		return
	}
	if catalogSchema, err = compiler.Compile(catalogSchemaURL); err != nil {
		errSchema = fmt.Errorf("compiling catalog schema: %w", err)
	}
}

// ValidateProperty checks a single JSON-encoded property against the schema.
func ValidateProperty(raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if errSchema != nil {
		return errSchema
	}
	return validate(propertySchema, raw)
}

// ValidateCatalog checks a JSON-encoded catalog document against the schema.
func ValidateCatalog(raw []byte) error {
	schemaOnce.Do(compileSchemas)
	if errSchema != nil {
		return errSchema
	}
	return validate(catalogSchema, raw)
}

func validate(schema *jsonschema.Schema, raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
