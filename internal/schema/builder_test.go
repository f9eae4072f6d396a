package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icetype/icetype/internal/schema"
)

func TestParseSchemaKeepsDeclarationOrder(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "User").
		Set("id", "uuid!").
		Set("email", "string#").
		Set("bio", "text?")

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "User", s.Name)
	assert.Equal(t, []string{"id", "email", "bio"}, s.Fields.Names())

	id, ok := s.Fields.Get("id")
	require.True(t, ok)
	assert.Equal(t, "uuid", id.Type)
	assert.True(t, id.IsUnique)

	bio, ok := s.Fields.Get("bio")
	require.True(t, ok)
	assert.True(t, bio.Nullable())
}

func TestParseSchemaRelations(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "Post").
		Set("title", "string").
		Set("author", "-> User").
		Set("comments", "<- Comment.post")

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	author, ok := s.Fields.Get("author")
	require.True(t, ok)
	require.NotNil(t, author.Relation)
	assert.Equal(t, "->", author.Relation.Operator)
	assert.Equal(t, "User", author.Relation.TargetType)
	assert.Equal(t, "User", author.Type, "a relation field carries its target as the type")

	rel, ok := s.Relations.Get("comments")
	require.True(t, ok)
	assert.Equal(t, "<-", rel.Operator)
	assert.Equal(t, "post", rel.Inverse)

	assert.Equal(t, []string{"author", "comments"}, s.Relations.Names())
}

func TestParseSchemaObjectSpec(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "Account").
		Set("email", map[string]any{"type": "string", "unique": true, "optional": true}).
		Set("login", map[string]any{"type": "string", "required": true}).
		Set("tags", map[string]any{"note": "no type key"})

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	email, _ := s.Fields.Get("email")
	assert.True(t, email.IsUnique)
	assert.True(t, email.IsOptional)

	login, _ := s.Fields.Get("login")
	assert.Equal(t, "!", login.Modifier)
	assert.True(t, login.IsUnique)

	tags, _ := s.Fields.Get("tags")
	assert.Equal(t, "json", tags.Type, "an object spec without a type lands in json")
}

func TestParseSchemaDefaultsNameToUnknown(t *testing.T) {
	raw := schema.NewRawDefinition().Set("id", "uuid")

	s, err := schema.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", s.Name)
}

func TestParseSchemaStoresUninterpretableValuesAsJSON(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "Odd").
		Set("answer", 42)

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	answer, ok := s.Fields.Get("answer")
	require.True(t, ok)
	assert.Equal(t, "json", answer.Type)
}

func TestParseSchemaReportsFieldErrors(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "Bad").
		Set("broken", "definitely-not-a-type")

	_, err := schema.Parse(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field broken")
	assert.Contains(t, err.Error(), "unknown type")
}

func TestParseSchemaCollectsDirectives(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("$type", "Event").
		Set("$partitionBy", []any{"day"}).
		Set("$projection", "olap").
		Set("name", "string")

	s, err := schema.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"day"}, s.Directives.PartitionBy)
	assert.Equal(t, "olap", s.Directives.Projection)
	assert.Equal(t, 1, s.Fields.Len(), "directives never become fields")
}

func TestRawDefinitionSetReplacesInPlace(t *testing.T) {
	raw := schema.NewRawDefinition().
		Set("a", "int").
		Set("b", "string").
		Set("a", "long")

	require.Equal(t, 2, raw.Len())
	entries := raw.Entries()
	assert.Equal(t, "a", entries[0].Key)
	assert.Equal(t, "long", entries[0].Value)
	assert.Equal(t, "b", entries[1].Key)

	value, ok := raw.Get("a")
	require.True(t, ok)
	assert.Equal(t, "long", value)
}
