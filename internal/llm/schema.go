package llm

import "github.com/invopop/jsonschema"

// Schema describes the JSON shape a structured-output request must satisfy.
type Schema struct {
	Name        string
	Description string
	Definition  *jsonschema.Schema
}

// SchemaFor reflects a strict JSON schema from T: every field is required and
// no additional properties are allowed.
func SchemaFor[T any](name, description string) *Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	def := reflector.Reflect(v)
	// Providers reject the meta-schema keys.
	def.Version = ""
	def.ID = ""
	return &Schema{Name: name, Description: description, Definition: def}
}
