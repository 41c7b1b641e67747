package interfaces

import "encoding/json"

// ResponseFormat asks the model for structured output. A format without a
// Schema requests schemaless JSON-object mode; with a Schema the provider
// enforces that shape. Providers without structured output emit a system
// nudge instead, and callers still run replies through JSON recovery.
type ResponseFormat struct {
	Type   ResponseFormatType
	Name   string     // Label for the expected object, e.g. "instrumentation_plan"
	Schema JSONSchema // Optional JSON schema for the object
}

// JSONFormat returns a schemaless JSON-object format
func JSONFormat(name string) ResponseFormat {
	return ResponseFormat{Type: ResponseFormatJSON, Name: name}
}

type JSONSchema map[string]interface{}

// MarshalJSON implements the json.Marshaler interface
func (s JSONSchema) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(s))
}

type ResponseFormatType string

// ResponseFormatJSON is the only format the planning and generation
// operations request; replies are plain text when no format is given.
const ResponseFormatJSON ResponseFormatType = "json_object"
