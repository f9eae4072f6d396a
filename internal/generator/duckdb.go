package generator

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

// duckdbDialect reuses postgres quoting because DuckDB speaks the same
// identifier and literal syntax; only the type names differ.
type duckdbDialect struct{}

func (duckdbDialect) Name() string          { return "duckdb" }
func (duckdbDialect) FileExtension() string { return "sql" }

var duckdbTypeNames = map[string]string{
	"string":    "VARCHAR",
	"text":      "VARCHAR",
	"int":       "INTEGER",
	"long":      "BIGINT",
	"bigint":    "BIGINT",
	"float":     "FLOAT",
	"double":    "DOUBLE",
	"boolean":   "BOOLEAN",
	"uuid":      "UUID",
	"timestamp": "TIMESTAMP",
	"date":      "DATE",
	"time":      "TIME",
	"json":      "JSON",
	"binary":    "BLOB",
	"decimal":   "DECIMAL(18,3)",
	"varchar":   "VARCHAR",
	"char":      "VARCHAR",
	"fixed":     "VARCHAR",
	"map":       "JSON",
	"list":      "JSON",
	"struct":    "JSON",
	"enum":      "VARCHAR",
	"ref":       "UUID",
}

func (d duckdbDialect) CreateTable(s *schema.Schema) (string, error) {
	var columnDefs []string
	for _, col := range tableColumns(s) {
		columnDefs = append(columnDefs, d.columnDef(col))
	}
	if len(columnDefs) == 0 {
		return "", fmt.Errorf("schema %s has no columns to create", s.Name)
	}

	statements := []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		pq.QuoteIdentifier(s.Name),
		strings.Join(columnDefs, ",\n    "),
	)}

	for _, field := range s.Fields.Fields() {
		if !field.Indexed() || field.Relation != nil {
			continue
		}
		statements = append(statements, duckdbIndex(s.Name, []string{field.Name}, "", field.IsUnique))
	}
	for _, idx := range s.Directives.Index {
		statements = append(statements, duckdbIndex(s.Name, idx.Fields, "", idx.Unique))
	}

	return strings.Join(statements, "\n\n"), nil
}

func (d duckdbDialect) columnDef(col column) string {
	if col.Relation != nil {
		def := fmt.Sprintf("%s UUID", pq.QuoteIdentifier(col.Name))
		if !col.Field.Nullable() {
			def += " NOT NULL"
		}
		return def
	}

	field := col.Field
	def := fmt.Sprintf("%s %s", pq.QuoteIdentifier(col.Name), d.columnType(field))
	if !field.Nullable() {
		def += " NOT NULL"
	}
	if field.Default != nil {
		def += " DEFAULT " + duckdbDefault(field.Default)
	}
	if field.IsUnique && !field.Indexed() {
		def += " UNIQUE"
	}
	return def
}

func (d duckdbDialect) columnType(field *schema.Field) string {
	base := duckdbTypeNames[field.Type]
	if base == "" {
		base = "VARCHAR"
	}
	switch field.Type {
	case "decimal":
		if field.Precision != nil {
			base = fmt.Sprintf("DECIMAL(%d,%d)", *field.Precision, scaleOf(field))
		}
	case "varchar", "char", "fixed":
		if field.Length != nil {
			base = fmt.Sprintf("VARCHAR(%d)", *field.Length)
		}
	}
	if field.IsArray {
		return base + "[]"
	}
	return base
}

func duckdbIndex(table string, fields []string, name string, unique bool) string {
	if name == "" {
		name = fmt.Sprintf("idx_%s_%s", table, strings.Join(fields, "_"))
	}
	uniqueStr := ""
	if unique {
		uniqueStr = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s);",
		uniqueStr, pq.QuoteIdentifier(name), pq.QuoteIdentifier(table),
		strings.Join(quoteAll(fields, pq.QuoteIdentifier), ", "))
}

func duckdbDefault(def *schema.DefaultValue) string {
	switch def.Kind {
	case schema.DefaultString:
		return pq.QuoteLiteral(def.String)
	case schema.DefaultNumber:
		return def.Number
	case schema.DefaultBool:
		if def.Bool {
			return "TRUE"
		}
		return "FALSE"
	case schema.DefaultNull:
		return "NULL"
	case schema.DefaultFunction:
		return def.Function + "()"
	case schema.DefaultEmptyObject:
		return "'{}'"
	case schema.DefaultEmptyArray:
		return "'[]'"
	}
	return "NULL"
}

func (d duckdbDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	var statements []string

	for _, op := range m.Operations {
		table := pq.QuoteIdentifier(op.Table)

		switch op.Kind {
		case migrate.OpAddColumn:
			def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				table, pq.QuoteIdentifier(op.Column), duckdbAlterType(op.ColumnType))
			if op.Default != nil {
				def += " DEFAULT " + duckdbDefault(op.Default)
			}
			statements = append(statements, def+";")

		case migrate.OpDropColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP COLUMN %s;", table, pq.QuoteIdentifier(op.Column)))

		case migrate.OpRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s;",
				table, pq.QuoteIdentifier(op.OldName), pq.QuoteIdentifier(op.NewName)))

		case migrate.OpAlterColumn:
			if op.Changes == nil {
				continue
			}
			col := pq.QuoteIdentifier(op.Column)
			if tc := op.Changes.Type; tc != nil {
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s;", table, col, duckdbAlterType(tc.To)))
			}
			if nc := op.Changes.Nullable; nc != nil {
				action := "SET NOT NULL"
				if nc.To {
					action = "DROP NOT NULL"
				}
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s ALTER COLUMN %s %s;", table, col, action))
			}
			if dc := op.Changes.Default; dc != nil {
				if dc.To == nil {
					statements = append(statements, fmt.Sprintf(
						"ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", table, col))
				} else {
					statements = append(statements, fmt.Sprintf(
						"ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", table, col, duckdbDefault(dc.To)))
				}
			}

		case migrate.OpAddIndex:
			statements = append(statements, duckdbIndex(op.Table, op.Columns, op.IndexName, op.Unique))

		case migrate.OpDropIndex:
			statements = append(statements, fmt.Sprintf(
				"DROP INDEX IF EXISTS %s;", pq.QuoteIdentifier(op.IndexName)))

		case migrate.OpAddConstraint, migrate.OpDropConstraint:
			return nil, fmt.Errorf("duckdb does not support constraint changes on existing tables")

		default:
			return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}
	}

	return statements, nil
}

func duckdbAlterType(typeString string) string {
	base, isArray := splitTypeName(typeString)
	name, ok := duckdbTypeNames[base]
	if !ok {
		name = "VARCHAR"
	}
	if isArray {
		return name + "[]"
	}
	return name
}
