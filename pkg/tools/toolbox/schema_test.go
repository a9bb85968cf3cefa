package toolbox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query string `json:"query" jsonschema:"description=Search query"`
	Limit int    `json:"limit,omitempty"`
}

func TestSchemaFor(t *testing.T) {
	raw, err := SchemaFor[searchArgs]()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema["type"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "limit")

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "query")
	assert.NotContains(t, required, "limit")
}

func TestMustSchemaForUsableAsInputSchema(t *testing.T) {
	tb := New()
	tb.Register(Tool{
		Name:        "search",
		InputSchema: MustSchemaFor[searchArgs](),
		Handler:     echoHandler,
	})

	manifest := tb.Manifest()
	require.Len(t, manifest, 1)
	assert.True(t, json.Valid(manifest[0].Parameters))
}
