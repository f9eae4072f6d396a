package migrate

import (
	"fmt"
	"time"

	"github.com/icetype/icetype/internal/schema"
)

// Options tunes FromDiff.
type Options struct {
	Description string
}

// FromDiff turns a structural diff into an ordered migration. Operations
// come out grouped: every addColumn, then every dropColumn, then per
// modified field its alterColumn, addIndex, and dropIndex. Removed columns,
// non-widening type changes, and nullable-to-required flips mark the
// migration breaking.
func FromDiff(diff *Diff, from, to Version, opts Options) *Migration {
	m := &Migration{
		ID:          NewMigrationID(),
		FromVersion: from,
		ToVersion:   to,
		Timestamp:   time.Now().UTC(),
		Description: opts.Description,
	}

	for _, field := range diff.AddedFields {
		m.Operations = append(m.Operations, addColumnOp(diff.SchemaName, field))
	}

	for _, field := range diff.RemovedFields {
		m.Operations = append(m.Operations, Operation{
			Kind:   OpDropColumn,
			Table:  diff.SchemaName,
			Column: field.Name,
		})
		m.IsBreaking = true
	}

	for _, change := range diff.ModifiedFields {
		ops, breaking := alterOps(diff.SchemaName, change)
		m.Operations = append(m.Operations, ops...)
		if breaking {
			m.IsBreaking = true
		}
	}

	return m
}

func addColumnOp(table string, field *schema.Field) Operation {
	nullable := field.Nullable()
	op := Operation{
		Kind:       OpAddColumn,
		Table:      table,
		Column:     field.Name,
		ColumnType: field.TypeString(),
		Nullable:   &nullable,
	}
	if field.Default != nil {
		def := *field.Default
		op.Default = &def
	}
	return op
}

func alterOps(table string, change FieldChange) ([]Operation, bool) {
	var ops []Operation
	breaking := false

	changes := &ColumnChanges{}
	if change.Has(FieldChangeType) || change.Has(FieldChangeArray) {
		changes.Type = &TypeChange{
			From: change.OldField.Type,
			To:   change.NewField.Type,
		}
		if changes.Type.From != changes.Type.To && !schema.IsTypeWidening(changes.Type.From, changes.Type.To) {
			breaking = true
		}
	}
	if change.Has(FieldChangeModifier) {
		changes.Nullable = &NullableChange{
			From: change.OldField.Nullable(),
			To:   change.NewField.Nullable(),
		}
		if changes.Nullable.From && !changes.Nullable.To {
			breaking = true
		}
	}
	if !changes.Empty() {
		ops = append(ops, Operation{
			Kind:    OpAlterColumn,
			Table:   table,
			Column:  change.Name,
			Changes: changes,
		})
	}

	wasIndexed, isIndexed := change.OldField.Indexed(), change.NewField.Indexed()
	switch {
	case !wasIndexed && isIndexed:
		ops = append(ops, Operation{
			Kind:    OpAddIndex,
			Table:   table,
			Columns: []string{change.Name},
			Unique:  change.NewField.IsUnique || change.NewField.Modifier == "#",
		})
	case wasIndexed && !isIndexed:
		ops = append(ops, Operation{
			Kind:      OpDropIndex,
			Table:     table,
			IndexName: fmt.Sprintf("idx_%s_%s", table, change.Name),
		})
	}

	return ops, breaking
}

// IsBreaking recomputes breaking-ness from the operation list alone, so it
// also covers migrations that were loaded or merged rather than built from
// a diff.
func IsBreaking(m *Migration) bool {
	for _, op := range m.Operations {
		switch op.Kind {
		case OpDropColumn, OpDropConstraint:
			return true
		case OpAlterColumn:
			if op.Changes == nil {
				continue
			}
			if nc := op.Changes.Nullable; nc != nil && nc.From && !nc.To {
				return true
			}
			if tc := op.Changes.Type; tc != nil && tc.From != tc.To && !schema.IsTypeWidening(tc.From, tc.To) {
				return true
			}
		}
	}
	return false
}
