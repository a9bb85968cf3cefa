package toolbox

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates a JSON Schema for T, suitable for a Tool's
// InputSchema. The schema is inlined (no $ref indirection) so the service
// can forward it to a provider as-is.
func SchemaFor[T any]() (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}

	schema := r.Reflect(new(T))

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("toolbox: marshal schema: %w", err)
	}

	return raw, nil
}

// MustSchemaFor is SchemaFor that panics on failure. Intended for
// registration at program start.
func MustSchemaFor[T any]() json.RawMessage {
	raw, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return raw
}
