package migrate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/icetype/icetype/internal/schema"
)

// ChangeKind tags one entry of a diff's flattened change list.
type ChangeKind string

const (
	ChangeAddField    ChangeKind = "add_field"
	ChangeRemoveField ChangeKind = "remove_field"
	ChangeRenameField ChangeKind = "rename_field"
	ChangeType        ChangeKind = "change_type"
	ChangeModifier    ChangeKind = "change_modifier"
	ChangeDirective   ChangeKind = "change_directive"
)

// FieldChangeKind tags one differing dimension of a modified field.
type FieldChangeKind string

const (
	FieldChangeType     FieldChangeKind = "type"
	FieldChangeModifier FieldChangeKind = "modifier"
	FieldChangeArray    FieldChangeKind = "array"
	FieldChangeIndexed  FieldChangeKind = "indexed"
)

// Change is a flattened, replayable view of one schema difference. A pure
// structural diff cannot observe renames, so ChangeRenameField is reserved
// for replay tooling that carries that knowledge from elsewhere.
type Change struct {
	Kind      ChangeKind
	FieldName string
	Directive string
	Field     *schema.Field
	From      string
	To        string
}

// FieldChange records a field present in both schemas whose definition
// differs, with the dimensions that moved.
type FieldChange struct {
	Name     string
	OldField *schema.Field
	NewField *schema.Field
	Kinds    []FieldChangeKind
}

func (c FieldChange) Has(kind FieldChangeKind) bool {
	for _, k := range c.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Diff is the structural difference between two versions of one schema.
type Diff struct {
	SchemaName     string
	AddedFields    []*schema.Field
	RemovedFields  []*schema.Field
	ModifiedFields []FieldChange
	Changes        []Change
}

func (d *Diff) Empty() bool {
	return len(d.AddedFields) == 0 && len(d.RemovedFields) == 0 &&
		len(d.ModifiedFields) == 0 && len(d.Changes) == 0
}

// DiffSchemas compares two schema versions. Added fields keep the new
// schema's declaration order, removed fields the old one's. Neither input
// is mutated.
func DiffSchemas(oldSchema, newSchema *schema.Schema) *Diff {
	diff := &Diff{SchemaName: newSchema.Name}

	for _, field := range newSchema.Fields.Fields() {
		if !oldSchema.Fields.Has(field.Name) {
			diff.AddedFields = append(diff.AddedFields, field)
			diff.Changes = append(diff.Changes, Change{
				Kind:      ChangeAddField,
				FieldName: field.Name,
				Field:     field,
			})
		}
	}

	for _, field := range oldSchema.Fields.Fields() {
		if !newSchema.Fields.Has(field.Name) {
			diff.RemovedFields = append(diff.RemovedFields, field)
			diff.Changes = append(diff.Changes, Change{
				Kind:      ChangeRemoveField,
				FieldName: field.Name,
				Field:     field,
			})
		}
	}

	for _, newField := range newSchema.Fields.Fields() {
		oldField, ok := oldSchema.Fields.Get(newField.Name)
		if !ok {
			continue
		}
		change := compareFields(oldField, newField)
		if len(change.Kinds) == 0 {
			continue
		}
		diff.ModifiedFields = append(diff.ModifiedFields, change)
		diff.Changes = append(diff.Changes, flattenFieldChange(change)...)
	}

	diff.Changes = append(diff.Changes, diffDirectives(oldSchema.Directives, newSchema.Directives)...)
	return diff
}

// compareFields checks the four dimensions the differ cares about: canonical
// type, modifier-derived nullability, array-ness, and indexed/unique status.
func compareFields(oldField, newField *schema.Field) FieldChange {
	change := FieldChange{
		Name:     newField.Name,
		OldField: oldField,
		NewField: newField,
	}

	if oldField.Type != newField.Type {
		change.Kinds = append(change.Kinds, FieldChangeType)
	}
	if oldField.Nullable() != newField.Nullable() {
		change.Kinds = append(change.Kinds, FieldChangeModifier)
	}
	if oldField.IsArray != newField.IsArray {
		change.Kinds = append(change.Kinds, FieldChangeArray)
	}
	if oldField.Indexed() != newField.Indexed() || oldField.IsUnique != newField.IsUnique {
		change.Kinds = append(change.Kinds, FieldChangeIndexed)
	}

	return change
}

func flattenFieldChange(change FieldChange) []Change {
	var out []Change
	if change.Has(FieldChangeType) || change.Has(FieldChangeArray) {
		out = append(out, Change{
			Kind:      ChangeType,
			FieldName: change.Name,
			From:      change.OldField.TypeString(),
			To:        change.NewField.TypeString(),
		})
	}
	if change.Has(FieldChangeModifier) {
		out = append(out, Change{
			Kind:      ChangeModifier,
			FieldName: change.Name,
			From:      change.OldField.Modifier,
			To:        change.NewField.Modifier,
		})
	}
	if change.Has(FieldChangeIndexed) {
		out = append(out, Change{
			Kind:      ChangeDirective,
			Directive: "index",
			FieldName: change.Name,
			From:      strconv.FormatBool(change.OldField.Indexed()),
			To:        strconv.FormatBool(change.NewField.Indexed()),
		})
	}
	return out
}

// diffDirectives reports table-level directive movements so replay tooling
// can regenerate storage hints alongside column changes.
func diffDirectives(oldDir, newDir *schema.Directives) []Change {
	var out []Change
	oldForms := renderDirectives(oldDir)
	newForms := renderDirectives(newDir)

	names := make([]string, 0, len(oldForms))
	for name := range oldForms {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if oldForms[name] != newForms[name] {
			out = append(out, Change{
				Kind:      ChangeDirective,
				Directive: name,
				From:      oldForms[name],
				To:        newForms[name],
			})
		}
	}
	return out
}

func renderDirectives(d *schema.Directives) map[string]string {
	if d == nil {
		d = &schema.Directives{}
	}

	indexes := make([]string, 0, len(d.Index))
	for _, idx := range d.Index {
		entry := strings.Join(idx.Fields, "+")
		if idx.Unique {
			entry += "!"
		}
		indexes = append(indexes, entry)
	}

	vectors := make([]string, 0, len(d.Vector))
	for _, vec := range d.Vector {
		vectors = append(vectors, fmt.Sprintf("%s:%d", vec.Field, vec.Dimensions))
	}

	flatten := make([]string, 0, len(d.Flatten))
	for alias, path := range d.Flatten {
		flatten = append(flatten, alias+"="+path)
	}
	sort.Strings(flatten)

	return map[string]string{
		"partitionBy": strings.Join(d.PartitionBy, ","),
		"index":       strings.Join(indexes, ","),
		"fts":         strings.Join(d.FTS, ","),
		"vector":      strings.Join(vectors, ","),
		"projection":  d.Projection,
		"from":        d.From,
		"expand":      strings.Join(d.Expand, ","),
		"flatten":     strings.Join(flatten, ","),
	}
}
