package migrate_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icetype/icetype/internal/migrate"
)

func addOp(table, column, columnType string) migrate.Operation {
	nullable := false
	return migrate.Operation{
		Kind:       migrate.OpAddColumn,
		Table:      table,
		Column:     column,
		ColumnType: columnType,
		Nullable:   &nullable,
	}
}

func dropOp(table, column string) migrate.Operation {
	return migrate.Operation{Kind: migrate.OpDropColumn, Table: table, Column: column}
}

func chainMigration(t *testing.T, from, to string, ops ...migrate.Operation) *migrate.Migration {
	t.Helper()

	fromVersion, err := migrate.ParseVersion(from)
	require.NoError(t, err)
	toVersion, err := migrate.ParseVersion(to)
	require.NoError(t, err)

	return &migrate.Migration{
		ID:          migrate.NewMigrationID(),
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Timestamp:   time.Now().UTC(),
		Operations:  ops,
		IsBreaking:  migrate.IsBreaking(&migrate.Migration{Operations: ops}),
	}
}

func TestMergeRequiresInput(t *testing.T) {
	_, err := migrate.Merge(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one migration")
}

func TestMergeSingleMigration(t *testing.T) {
	m := chainMigration(t, "1.0.0", "1.1.0", addOp("User", "email", "string"))

	merged, err := migrate.Merge([]*migrate.Migration{m})
	require.NoError(t, err)

	assert.NotEqual(t, m.ID, merged.ID, "a merge result is a new migration")
	assert.Equal(t, m.FromVersion, merged.FromVersion)
	assert.Equal(t, m.ToVersion, merged.ToVersion)
	require.Len(t, merged.Operations, 1)
	assert.Equal(t, "email", merged.Operations[0].Column)

	merged.Operations[0].Column = "changed"
	assert.Equal(t, "email", m.Operations[0].Column, "merging must not alias the input's operations")
}

func TestMergeRejectsBrokenChain(t *testing.T) {
	first := chainMigration(t, "1.0.0", "1.1.0", addOp("User", "email", "string"))
	second := chainMigration(t, "1.2.0", "1.3.0", addOp("User", "bio", "text"))

	_, err := migrate.Merge([]*migrate.Migration{first, second})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1.1.0")
	assert.Contains(t, err.Error(), "1.2.0")
	assert.Contains(t, err.Error(), first.ID)
}

func TestMergeSpansChain(t *testing.T) {
	early := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	late := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := chainMigration(t, "1.0.0", "1.1.0", addOp("User", "email", "string"))
	first.Timestamp = late
	first.Description = "adds email"
	second := chainMigration(t, "1.1.0", "2.0.0", dropOp("User", "legacy"))
	second.Timestamp = early

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", merged.FromVersion.String())
	assert.Equal(t, "2.0.0", merged.ToVersion.String())
	assert.True(t, merged.IsBreaking, "breaking-ness is sticky across the chain")
	assert.Equal(t, late, merged.Timestamp, "the merged migration carries the newest timestamp")
	assert.Equal(t, "merge of 2 migrations", merged.Description)

	require.Len(t, merged.Operations, 2)
	assert.Equal(t, migrate.OpAddColumn, merged.Operations[0].Kind)
	assert.Equal(t, migrate.OpDropColumn, merged.Operations[1].Kind)
}

func TestMergeWithoutDescriptions(t *testing.T) {
	first := chainMigration(t, "1.0.0", "1.1.0", addOp("User", "email", "string"))
	second := chainMigration(t, "1.1.0", "1.2.0", addOp("User", "bio", "text"))

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)
	assert.Empty(t, merged.Description, "no input carried a description")
}

func TestMergeCancelsAddDropPairs(t *testing.T) {
	first := chainMigration(t, "1.0.0", "1.1.0",
		addOp("User", "temp", "string"),
		addOp("User", "kept", "int"),
	)
	second := chainMigration(t, "1.1.0", "2.0.0", dropOp("User", "temp"))

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)

	require.Len(t, merged.Operations, 1, "a column added then dropped never happened")
	assert.Equal(t, migrate.OpAddColumn, merged.Operations[0].Kind)
	assert.Equal(t, "kept", merged.Operations[0].Column)
}

func TestMergeCancellationIsTableScoped(t *testing.T) {
	first := chainMigration(t, "1.0.0", "1.1.0", addOp("User", "temp", "string"))
	second := chainMigration(t, "1.1.0", "2.0.0", dropOp("Audit", "temp"))

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)
	assert.Len(t, merged.Operations, 2, "same column name on another table is a different key")
}

func TestMergeKeepsDropThenAdd(t *testing.T) {
	first := chainMigration(t, "1.0.0", "2.0.0", dropOp("User", "email"))
	second := chainMigration(t, "2.0.0", "2.1.0", addOp("User", "email", "text"))

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)

	require.Len(t, merged.Operations, 2, "drop then re-add changes the column and must survive")
	assert.Equal(t, migrate.OpDropColumn, merged.Operations[0].Kind)
	assert.Equal(t, migrate.OpAddColumn, merged.Operations[1].Kind)
}

func TestMergeCancellationShiftsPendingIndexes(t *testing.T) {
	first := chainMigration(t, "1.0.0", "1.1.0",
		addOp("User", "a", "string"),
		addOp("User", "b", "string"),
	)
	second := chainMigration(t, "1.1.0", "1.2.0",
		dropOp("User", "a"),
		dropOp("User", "b"),
	)

	merged, err := migrate.Merge([]*migrate.Migration{first, second})
	require.NoError(t, err)
	assert.Empty(t, merged.Operations, "both pairs cancel even after the first removal shifts positions")
}
