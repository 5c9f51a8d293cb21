package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncToolDescriptor(t *testing.T) {
	tool := NewFuncTool("echo",
		func(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return input, nil
		},
		WithDescription("Echoes its input."),
		WithCategory("testing"),
		WithParameters(map[string]string{"value": "anything"}),
		WithReturns("The input, unchanged."),
		WithExamples([]string{`echo {"value": 1}`}),
	)

	assert.Equal(t, "echo", tool.Name())
	d := tool.Descriptor()
	assert.Equal(t, "echo", d.Name)
	assert.Equal(t, "Echoes its input.", d.Description)
	assert.Equal(t, "testing", d.Category)
	assert.Equal(t, "anything", d.Parameters["value"])
	assert.NotEmpty(t, d.Examples)
}

func TestFuncToolDefaultValidator(t *testing.T) {
	tool := NewFuncTool("echo", func(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
		return input, nil
	})

	require.Error(t, tool.Validate(nil))
	require.NoError(t, tool.Validate(map[string]interface{}{}))
}

func TestFuncToolCustomValidator(t *testing.T) {
	tool := NewFuncTool("strict",
		func(_ context.Context, input map[string]interface{}) (map[string]interface{}, error) {
			return input, nil
		},
		WithValidator(requireArgs("customer_id")),
	)

	require.Error(t, tool.Validate(map[string]interface{}{}))
	require.NoError(t, tool.Validate(map[string]interface{}{"customer_id": "CUST-001"}))
}
