package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icetype/icetype/internal/schema"
)

func TestValidateCleanSchema(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "User").
		Set("id", "uuid!").
		Set("email", "string#").
		Set("author", "-> Account")

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	result := schema.Validate(s)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateConflictingModifiersWarns(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "User").
		Set("email", "string!?")

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	result := schema.Validate(s)
	assert.True(t, result.Valid, "conflicting modifiers degrade to a warning")
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "CONFLICTING_MODIFIERS", result.Warnings[0].Code)
	assert.Equal(t, "email", result.Warnings[0].Path)
}

func TestValidateMissingRelationTarget(t *testing.T) {
	s := &schema.Schema{
		Name:      "Broken",
		Fields:    schema.NewFieldMap(),
		Relations: schema.NewRelationMap(),
	}
	s.Fields.Set(&schema.Field{Name: "owner", Type: "", Relation: &schema.Relation{Operator: "->"}})
	s.Relations.Set("owner", &schema.Relation{Operator: "->"})

	result := schema.Validate(s)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "MISSING_TARGET_TYPE", result.Errors[0].Code)
	assert.Equal(t, "owner", result.Errors[0].Path)
}
