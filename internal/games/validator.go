package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrValidation can be used with errors.Is to detect schema failures.
var ErrValidation = errors.New("validation failed")

// ImportValidator checks bulk import payloads against the JSON schema in the
// schemas directory before anything is decoded into domain types. Imports
// arrive from spreadsheet exports and hand-written scripts, so the schema
// rejects junk early with a message that points at the offending field.
type ImportValidator struct {
	schema *jsonschema.Schema
}

// NewImportValidator compiles schemas/game_import.json from schemaDir.
func NewImportValidator(schemaDir string) (*ImportValidator, error) {
	path := filepath.Join(schemaDir, "game_import.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %q: %w", path, err)
	}
	schema, err := jsonschema.CompileString("https://tablestakes.dev/schemas/game_import", string(data))
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", path, err)
	}
	return &ImportValidator{schema: schema}, nil
}

// Validate hard rejects payloads that do not match the import schema.
func (v *ImportValidator) Validate(payload json.RawMessage) error {
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}
