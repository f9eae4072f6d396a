package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icetype/icetype/internal/schema"
)

func TestParseDirectivesIndex(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$index": []any{
			[]any{"email"},
			[]any{"tenant", "created"},
		},
	})

	require.Len(t, d.Index, 2)
	assert.Equal(t, []string{"email"}, d.Index[0].Fields)
	assert.Equal(t, []string{"tenant", "created"}, d.Index[1].Fields)
}

func TestParseDirectivesIndexRejectsMixedEntries(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$index": []any{[]any{"email"}, "not-a-list"},
	})
	assert.Nil(t, d.Index, "a single malformed entry drops the whole directive")
}

func TestParseDirectivesVector(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$vector": map[string]any{
			"embedding": 768,
			"summary":   float64(384),
			"broken":    "many",
			"fraction":  1.5,
		},
	})

	require.Len(t, d.Vector, 2, "entries that are not whole numbers are dropped")
	assert.Equal(t, "embedding", d.Vector[0].Field)
	assert.Equal(t, 768, d.Vector[0].Dimensions)
	assert.Equal(t, "summary", d.Vector[1].Field)
	assert.Equal(t, 384, d.Vector[1].Dimensions)
}

func TestParseDirectivesVectorSortedByField(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$vector": map[string]any{"zeta": 2, "alpha": 4},
	})

	require.Len(t, d.Vector, 2)
	assert.Equal(t, "alpha", d.Vector[0].Field)
	assert.Equal(t, "zeta", d.Vector[1].Field)
}

func TestParseDirectivesProjection(t *testing.T) {
	for _, valid := range []string{"oltp", "olap", "both"} {
		d := schema.ParseDirectives(map[string]any{"$projection": valid})
		assert.Equal(t, valid, d.Projection)
	}

	dropped := schema.ParseDirectives(map[string]any{"$projection": "columnar"})
	assert.Empty(t, dropped.Projection)

	wrongType := schema.ParseDirectives(map[string]any{"$projection": 7})
	assert.Empty(t, wrongType.Projection)
}

func TestParseDirectivesStringLists(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$partitionBy": []any{"region", "day"},
		"$fts":         []string{"title", "body"},
		"$expand":      []any{"author"},
	})

	assert.Equal(t, []string{"region", "day"}, d.PartitionBy)
	assert.Equal(t, []string{"title", "body"}, d.FTS)
	assert.Equal(t, []string{"author"}, d.Expand)

	mixed := schema.ParseDirectives(map[string]any{"$partitionBy": []any{"region", 7}})
	assert.Nil(t, mixed.PartitionBy)
}

func TestParseDirectivesFlatten(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$flatten": map[string]any{"city": "address.city"},
	})
	require.NotNil(t, d.Flatten)
	assert.Equal(t, "address.city", d.Flatten["city"])

	bad := schema.ParseDirectives(map[string]any{
		"$flatten": map[string]any{"city": 42},
	})
	assert.Nil(t, bad.Flatten)
}

func TestParseDirectivesFromAndUnknownKeys(t *testing.T) {
	d := schema.ParseDirectives(map[string]any{
		"$from":    "events",
		"$unknown": "ignored",
		"$type":    "NotAFieldHere",
	})

	assert.Equal(t, "events", d.From)
	assert.Empty(t, d.Projection)
	assert.Nil(t, d.Index)
}
