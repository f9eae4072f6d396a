package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

// Dialect turns resolved schemas and migrations into target-language
// statements. SQL dialects emit DDL; the typescript dialect emits interface
// declarations and rejects migrations.
type Dialect interface {
	Name() string
	FileExtension() string
	CreateTable(s *schema.Schema) (string, error)
	AlterStatements(m *migrate.Migration) ([]string, error)
}

var dialects = map[string]Dialect{
	"postgres":   postgresDialect{},
	"mysql":      mysqlDialect{},
	"sqlite":     sqliteDialect{},
	"clickhouse": clickhouseDialect{},
	"duckdb":     duckdbDialect{},
	"typescript": typescriptDialect{},
}

func Lookup(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown dialect: %s (available: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// Names returns the registered dialect names sorted for stable help output.
func Names() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// column is the dialect-independent projection of one schema field onto a
// table column. Backward relations never reach this list; forward relations
// become a <field>_id key column carrying the relation for dialects that
// emit references.
type column struct {
	Name     string
	Field    *schema.Field
	Relation *schema.Relation
}

func tableColumns(s *schema.Schema) []column {
	var cols []column
	for _, field := range s.Fields.Fields() {
		if field.Relation != nil {
			if !forwardRelation(field.Relation.Operator) {
				continue
			}
			cols = append(cols, column{
				Name:     field.Name + "_id",
				Field:    field,
				Relation: field.Relation,
			})
			continue
		}
		cols = append(cols, column{Name: field.Name, Field: field})
	}
	return cols
}

func forwardRelation(operator string) bool {
	return operator == "->" || operator == "~>"
}

// splitTypeName separates the array suffix from a rendered type string such
// as "text[]". Migration operations carry only this rendered form.
func splitTypeName(typeString string) (string, bool) {
	if strings.HasSuffix(typeString, "[]") {
		return strings.TrimSuffix(typeString, "[]"), true
	}
	return typeString, false
}

// indexName synthesizes the conventional index name when an operation does
// not carry one.
func indexName(op migrate.Operation) string {
	if op.IndexName != "" {
		return op.IndexName
	}
	return fmt.Sprintf("idx_%s_%s", op.Table, strings.Join(op.Columns, "_"))
}
