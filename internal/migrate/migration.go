package migrate

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/icetype/icetype/internal/schema"
)

// OpKind tags a migration operation variant. Kinds are plain strings so
// persisted migrations survive round-trips and unknown tags can be reported
// by the validator instead of panicking a consumer.
type OpKind string

const (
	OpAddColumn      OpKind = "addColumn"
	OpDropColumn     OpKind = "dropColumn"
	OpRenameColumn   OpKind = "renameColumn"
	OpAlterColumn    OpKind = "alterColumn"
	OpAddIndex       OpKind = "addIndex"
	OpDropIndex      OpKind = "dropIndex"
	OpAddConstraint  OpKind = "addConstraint"
	OpDropConstraint OpKind = "dropConstraint"
)

// Operation is one step of a migration. Only the fields of the tagged
// variant are set; everything else stays zero.
type Operation struct {
	Kind OpKind `json:"kind"`

	Table  string `json:"table,omitempty"`
	Column string `json:"column,omitempty"`

	// addColumn
	ColumnType string               `json:"columnType,omitempty"`
	Nullable   *bool                `json:"nullable,omitempty"`
	Default    *schema.DefaultValue `json:"default,omitempty"`

	// renameColumn
	OldName string `json:"oldName,omitempty"`
	NewName string `json:"newName,omitempty"`

	// alterColumn
	Changes *ColumnChanges `json:"changes,omitempty"`

	// addIndex / dropIndex
	Columns   []string `json:"columns,omitempty"`
	Unique    bool     `json:"unique,omitempty"`
	IndexName string   `json:"indexName,omitempty"`

	// addConstraint / dropConstraint
	Constraint     *Constraint `json:"constraint,omitempty"`
	ConstraintName string      `json:"constraintName,omitempty"`
}

type TypeChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type NullableChange struct {
	From bool `json:"from"`
	To   bool `json:"to"`
}

type DefaultChange struct {
	From *schema.DefaultValue `json:"from,omitempty"`
	To   *schema.DefaultValue `json:"to,omitempty"`
}

// ColumnChanges describes what an alterColumn touches. A nil member means
// that dimension is untouched.
type ColumnChanges struct {
	Type     *TypeChange     `json:"type,omitempty"`
	Nullable *NullableChange `json:"nullable,omitempty"`
	Default  *DefaultChange  `json:"default,omitempty"`
}

func (c *ColumnChanges) Empty() bool {
	return c == nil || (c.Type == nil && c.Nullable == nil && c.Default == nil)
}

type ConstraintKind string

const (
	ConstraintForeignKey ConstraintKind = "foreignKey"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintPrimaryKey ConstraintKind = "primaryKey"
)

// Constraint is a table constraint payload for addConstraint operations.
type Constraint struct {
	Kind       ConstraintKind `json:"kind"`
	Name       string         `json:"name"`
	Columns    []string       `json:"columns,omitempty"`
	RefTable   string         `json:"refTable,omitempty"`
	RefColumns []string       `json:"refColumns,omitempty"`
	Expression string         `json:"expression,omitempty"`
	OnDelete   string         `json:"onDelete,omitempty"`
	OnUpdate   string         `json:"onUpdate,omitempty"`
}

// Migration is an ordered, reversible-enough plan moving one schema between
// two versions.
type Migration struct {
	ID          string      `json:"id"`
	FromVersion Version     `json:"fromVersion"`
	ToVersion   Version     `json:"toVersion"`
	Timestamp   time.Time   `json:"timestamp"`
	Description string      `json:"description,omitempty"`
	Operations  []Operation `json:"operations"`
	IsBreaking  bool        `json:"isBreaking"`
}

// NewMigrationID returns a fresh identifier of the form mig_<8 hex bytes>.
func NewMigrationID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// the clock so IDs stay usable.
		return "mig_" + hex.EncodeToString([]byte(time.Now().Format("150405.000")))[:16]
	}
	return "mig_" + hex.EncodeToString(buf)
}

// Clone returns a deep copy so callers can rework a migration without
// touching the original.
func (m *Migration) Clone() *Migration {
	clone := *m
	clone.Operations = cloneOperations(m.Operations)
	return &clone
}

func cloneOperations(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		out[i] = cloneOperation(op)
	}
	return out
}

func cloneOperation(op Operation) Operation {
	clone := op
	if op.Nullable != nil {
		nullable := *op.Nullable
		clone.Nullable = &nullable
	}
	if op.Default != nil {
		def := *op.Default
		clone.Default = &def
	}
	if op.Changes != nil {
		changes := ColumnChanges{}
		if op.Changes.Type != nil {
			tc := *op.Changes.Type
			changes.Type = &tc
		}
		if op.Changes.Nullable != nil {
			nc := *op.Changes.Nullable
			changes.Nullable = &nc
		}
		if op.Changes.Default != nil {
			dc := DefaultChange{}
			if op.Changes.Default.From != nil {
				from := *op.Changes.Default.From
				dc.From = &from
			}
			if op.Changes.Default.To != nil {
				to := *op.Changes.Default.To
				dc.To = &to
			}
			changes.Default = &dc
		}
		clone.Changes = &changes
	}
	if op.Columns != nil {
		clone.Columns = append([]string(nil), op.Columns...)
	}
	if op.Constraint != nil {
		constraint := *op.Constraint
		if op.Constraint.Columns != nil {
			constraint.Columns = append([]string(nil), op.Constraint.Columns...)
		}
		if op.Constraint.RefColumns != nil {
			constraint.RefColumns = append([]string(nil), op.Constraint.RefColumns...)
		}
		clone.Constraint = &constraint
	}
	return clone
}
