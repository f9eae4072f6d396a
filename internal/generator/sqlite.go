package generator

import (
	"fmt"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() string          { return "sqlite" }
func (sqliteDialect) FileExtension() string { return "sql" }

// SQLite columns reduce to the five storage affinities. Arrays and nested
// types are stored as JSON text.
var sqliteTypeNames = map[string]string{
	"string":    "TEXT",
	"text":      "TEXT",
	"int":       "INTEGER",
	"long":      "INTEGER",
	"bigint":    "INTEGER",
	"float":     "REAL",
	"double":    "REAL",
	"boolean":   "INTEGER",
	"uuid":      "TEXT",
	"timestamp": "TEXT",
	"date":      "TEXT",
	"time":      "TEXT",
	"json":      "TEXT",
	"binary":    "BLOB",
	"decimal":   "NUMERIC",
	"varchar":   "TEXT",
	"char":      "TEXT",
	"fixed":     "TEXT",
	"map":       "TEXT",
	"list":      "TEXT",
	"struct":    "TEXT",
	"enum":      "TEXT",
	"ref":       "TEXT",
}

func sqliteQuote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d sqliteDialect) CreateTable(s *schema.Schema) (string, error) {
	var columnDefs []string
	for _, col := range tableColumns(s) {
		columnDefs = append(columnDefs, d.columnDef(col))
	}
	if len(columnDefs) == 0 {
		return "", fmt.Errorf("schema %s has no columns to create", s.Name)
	}

	statements := []string{fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		sqliteQuote(s.Name),
		strings.Join(columnDefs, ",\n    "),
	)}

	for _, field := range s.Fields.Fields() {
		if !field.Indexed() || field.Relation != nil {
			continue
		}
		statements = append(statements, sqliteIndex(s.Name, []string{field.Name}, "", field.IsUnique))
	}
	for _, idx := range s.Directives.Index {
		statements = append(statements, sqliteIndex(s.Name, idx.Fields, "", idx.Unique))
	}

	return strings.Join(statements, "\n\n"), nil
}

func (d sqliteDialect) columnDef(col column) string {
	if col.Relation != nil {
		def := fmt.Sprintf("%s TEXT", sqliteQuote(col.Name))
		if !col.Field.Nullable() {
			def += " NOT NULL"
		}
		if col.Relation.Operator == "->" {
			def += fmt.Sprintf(" REFERENCES %s", sqliteQuote(col.Relation.TargetType))
		}
		return def
	}

	field := col.Field
	columnType := "TEXT"
	if !field.IsArray {
		if name, ok := sqliteTypeNames[field.Type]; ok {
			columnType = name
		}
	}

	def := fmt.Sprintf("%s %s", sqliteQuote(col.Name), columnType)
	if !field.Nullable() {
		def += " NOT NULL"
	}
	if field.Default != nil {
		def += " DEFAULT " + sqliteDefault(field.Default)
	}
	if field.IsUnique && !field.Indexed() {
		def += " UNIQUE"
	}
	return def
}

func sqliteIndex(table string, fields []string, name string, unique bool) string {
	if name == "" {
		name = fmt.Sprintf("idx_%s_%s", table, strings.Join(fields, "_"))
	}
	uniqueStr := ""
	if unique {
		uniqueStr = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX IF NOT EXISTS %s ON %s (%s);",
		uniqueStr, sqliteQuote(name), sqliteQuote(table),
		strings.Join(quoteAll(fields, sqliteQuote), ", "))
}

func sqliteDefault(def *schema.DefaultValue) string {
	switch def.Kind {
	case schema.DefaultString:
		return "'" + strings.ReplaceAll(def.String, "'", "''") + "'"
	case schema.DefaultNumber:
		return def.Number
	case schema.DefaultBool:
		if def.Bool {
			return "1"
		}
		return "0"
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

// AlterStatements covers the subset SQLite supports. Column type changes
// and constraint management require a table rebuild, which single-statement
// output cannot express, so those operations are rejected.
func (d sqliteDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	var statements []string

	for _, op := range m.Operations {
		table := sqliteQuote(op.Table)

		switch op.Kind {
		case migrate.OpAddColumn:
			columnType := "TEXT"
			base, isArray := splitTypeName(op.ColumnType)
			if name, ok := sqliteTypeNames[base]; ok && !isArray {
				columnType = name
			}
			def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, sqliteQuote(op.Column), columnType)
			if op.Nullable != nil && !*op.Nullable {
				def += " NOT NULL"
				if op.Default != nil {
					def += " DEFAULT " + sqliteDefault(op.Default)
				} else {
					def += " DEFAULT ''"
				}
			} else if op.Default != nil {
				def += " DEFAULT " + sqliteDefault(op.Default)
			}
			statements = append(statements, def+";")

		case migrate.OpDropColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP COLUMN %s;", table, sqliteQuote(op.Column)))

		case migrate.OpRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s;",
				table, sqliteQuote(op.OldName), sqliteQuote(op.NewName)))

		case migrate.OpAlterColumn:
			return nil, fmt.Errorf("sqlite cannot alter column %s.%s in place", op.Table, op.Column)

		case migrate.OpAddIndex:
			statements = append(statements, sqliteIndex(op.Table, op.Columns, op.IndexName, op.Unique))

		case migrate.OpDropIndex:
			statements = append(statements, fmt.Sprintf(
				"DROP INDEX IF EXISTS %s;", sqliteQuote(op.IndexName)))

		case migrate.OpAddConstraint, migrate.OpDropConstraint:
			return nil, fmt.Errorf("sqlite does not support constraint changes on existing tables")

		default:
			return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}
	}

	return statements, nil
}
