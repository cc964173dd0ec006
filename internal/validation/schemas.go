package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

const (
	RecommendationDigestSchema = "recommendation-digest"
	ErrorResponseSchema        = "error-response"
)

var schemaFiles = map[string]string{
	RecommendationDigestSchema: "recommendation-digest.json",
	ErrorResponseSchema:        "error-response.json",
}

// SchemaValidator checks documents against the JSON schemas of the events and
// responses this service emits.
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// NewDefaultSchemaValidator returns a validator loaded with the embedded schemas.
func NewDefaultSchemaValidator() (*SchemaValidator, error) {
	sv := NewSchemaValidator()
	if err := sv.LoadSchemaFromFS(embeddedSchemas, "schemas"); err != nil {
		return nil, err
	}
	return sv, nil
}

// LoadSchemaFromFS loads schemas from an embedded filesystem
func (sv *SchemaValidator) LoadSchemaFromFS(fsys fs.FS, schemaDir string) error {
	for name, filename := range schemaFiles {
		schemaPath := path.Join(schemaDir, filename)

		schemaBytes, err := fs.ReadFile(fsys, schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return fmt.Errorf("failed to load schema %s: %w", name, err)
		}

		sv.schemas[name] = schema
	}

	return nil
}

// ValidateDigest validates a recommendation digest event.
func (sv *SchemaValidator) ValidateDigest(data interface{}) *ValidationResult {
	return sv.validate(RecommendationDigestSchema, data)
}

// ValidateErrorResponse validates an error response against its JSON schema
func (sv *SchemaValidator) ValidateErrorResponse(data interface{}) *ValidationResult {
	return sv.validate(ErrorResponseSchema, data)
}

// SchemaExists checks if a schema with the given name is loaded
func (sv *SchemaValidator) SchemaExists(name string) bool {
	_, exists := sv.schemas[name]
	return exists
}

// validate performs the actual validation against a named schema
func (sv *SchemaValidator) validate(schemaName string, data interface{}) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Message: fmt.Sprintf("Schema '%s' not found", schemaName),
				Code:    "SCHEMA_NOT_FOUND",
			}},
		}
	}

	var documentLoader gojsonschema.JSONLoader
	switch v := data.(type) {
	case string:
		documentLoader = gojsonschema.NewStringLoader(v)
	case []byte:
		documentLoader = gojsonschema.NewBytesLoader(v)
	default:
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return &ValidationResult{
				Valid: false,
				Errors: []ValidationError{{
					Field:   "data",
					Message: fmt.Sprintf("Failed to marshal data to JSON: %v", err),
					Code:    "JSON_MARSHAL_ERROR",
				}},
			}
		}
		documentLoader = gojsonschema.NewBytesLoader(jsonBytes)
	}

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "validation",
				Message: fmt.Sprintf("Validation error: %v", err),
				Code:    "VALIDATION_ERROR",
			}},
		}
	}

	validationResult := &ValidationResult{
		Valid:  result.Valid(),
		Errors: make([]ValidationError, 0),
	}

	for _, err := range result.Errors() {
		validationResult.Errors = append(validationResult.Errors, ValidationError{
			Field:   err.Field(),
			Message: err.Description(),
			Code:    "VALIDATION_ERROR",
			Value:   err.Value(),
			Context: err.Context().String(),
		})
	}

	return validationResult
}

// ValidationResult represents the result of a validation operation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err returns nil for a valid result and the first violation otherwise.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	if len(vr.Errors) == 0 {
		return fmt.Errorf("validation failed")
	}
	return vr.Errors[0]
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
	Context string      `json:"context,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}
