package generator

import (
	"fmt"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

type clickhouseDialect struct{}

func (clickhouseDialect) Name() string          { return "clickhouse" }
func (clickhouseDialect) FileExtension() string { return "sql" }

var clickhouseTypeNames = map[string]string{
	"string":    "String",
	"text":      "String",
	"int":       "Int32",
	"long":      "Int64",
	"bigint":    "Int64",
	"float":     "Float32",
	"double":    "Float64",
	"boolean":   "Bool",
	"uuid":      "UUID",
	"timestamp": "DateTime64(3)",
	"date":      "Date",
	"time":      "String",
	"json":      "String",
	"binary":    "String",
	"decimal":   "Decimal(10, 0)",
	"varchar":   "String",
	"char":      "String",
	"fixed":     "FixedString(1)",
	"map":       "String",
	"list":      "String",
	"struct":    "String",
	"enum":      "String",
	"ref":       "UUID",
}

func chQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "\\`") + "`"
}

// CreateTable is the analytical target: $partitionBy drives PARTITION BY
// and the ORDER BY key comes from unique fields, falling back to tuple().
func (d clickhouseDialect) CreateTable(s *schema.Schema) (string, error) {
	var columnDefs []string
	for _, col := range tableColumns(s) {
		columnDefs = append(columnDefs, d.columnDef(col))
	}
	if len(columnDefs) == 0 {
		return "", fmt.Errorf("schema %s has no columns to create", s.Name)
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n    %s\n)\nENGINE = MergeTree()",
		chQuote(s.Name),
		strings.Join(columnDefs, ",\n    "),
	)

	if len(s.Directives.PartitionBy) > 0 {
		stmt += fmt.Sprintf("\nPARTITION BY (%s)",
			strings.Join(quoteAll(s.Directives.PartitionBy, chQuote), ", "))
	}
	stmt += fmt.Sprintf("\nORDER BY %s;", d.orderBy(s))

	return stmt, nil
}

func (d clickhouseDialect) orderBy(s *schema.Schema) string {
	var keys []string
	for _, field := range s.Fields.Fields() {
		if field.Relation == nil && field.IsUnique {
			keys = append(keys, chQuote(field.Name))
		}
	}
	if len(keys) == 0 {
		return "tuple()"
	}
	return "(" + strings.Join(keys, ", ") + ")"
}

func (d clickhouseDialect) columnDef(col column) string {
	if col.Relation != nil {
		columnType := "UUID"
		if col.Field.Nullable() {
			columnType = "Nullable(UUID)"
		}
		return fmt.Sprintf("%s %s", chQuote(col.Name), columnType)
	}

	field := col.Field
	def := fmt.Sprintf("%s %s", chQuote(col.Name), d.columnType(field))
	if field.Default != nil {
		def += " DEFAULT " + chDefault(field.Default)
	}
	return def
}

func (d clickhouseDialect) columnType(field *schema.Field) string {
	base := chBaseType(field.Type, field)
	if field.Nullable() && !field.IsArray {
		base = fmt.Sprintf("Nullable(%s)", base)
	}
	if field.IsArray {
		return fmt.Sprintf("Array(%s)", base)
	}
	return base
}

func chBaseType(name string, field *schema.Field) string {
	if field != nil {
		switch name {
		case "decimal":
			if field.Precision != nil {
				return fmt.Sprintf("Decimal(%d, %d)", *field.Precision, scaleOf(field))
			}
		case "fixed":
			if field.Length != nil {
				return fmt.Sprintf("FixedString(%d)", *field.Length)
			}
		}
	}
	if columnType, ok := clickhouseTypeNames[name]; ok {
		return columnType
	}
	return "String"
}

func chDefault(def *schema.DefaultValue) string {
	switch def.Kind {
	case schema.DefaultString:
		return "'" + strings.ReplaceAll(def.String, "'", "\\'") + "'"
	case schema.DefaultNumber:
		return def.Number
	case schema.DefaultBool:
		if def.Bool {
			return "true"
		}
		return "false"
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

func (d clickhouseDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	var statements []string

	for _, op := range m.Operations {
		table := chQuote(op.Table)

		switch op.Kind {
		case migrate.OpAddColumn:
			columnType := chAlterType(op.ColumnType, op.Nullable)
			def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s",
				table, chQuote(op.Column), columnType)
			if op.Default != nil {
				def += " DEFAULT " + chDefault(op.Default)
			}
			statements = append(statements, def+";")

		case migrate.OpDropColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP COLUMN IF EXISTS %s;", table, chQuote(op.Column)))

		case migrate.OpRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s;",
				table, chQuote(op.OldName), chQuote(op.NewName)))

		case migrate.OpAlterColumn:
			if op.Changes == nil {
				continue
			}
			if tc := op.Changes.Type; tc != nil {
				nullable := op.Changes.Nullable != nil && op.Changes.Nullable.To
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s MODIFY COLUMN %s %s;",
					table, chQuote(op.Column), chAlterType(tc.To, &nullable)))
			} else if nc := op.Changes.Nullable; nc != nil {
				// Nullability alone still needs the full column type.
				return nil, fmt.Errorf("clickhouse cannot change nullability of %s.%s without its type", op.Table, op.Column)
			}
			if dc := op.Changes.Default; dc != nil && dc.To != nil {
				statements = append(statements, fmt.Sprintf(
					"ALTER TABLE %s MODIFY COLUMN %s DEFAULT %s;",
					table, chQuote(op.Column), chDefault(dc.To)))
			}

		case migrate.OpAddIndex:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ADD INDEX %s (%s) TYPE minmax GRANULARITY 1;",
				table, chQuote(indexName(op)),
				strings.Join(quoteAll(op.Columns, chQuote), ", ")))

		case migrate.OpDropIndex:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP INDEX IF EXISTS %s;", table, chQuote(op.IndexName)))

		case migrate.OpAddConstraint:
			if op.Constraint == nil {
				return nil, fmt.Errorf("addConstraint operation carries no constraint")
			}
			if op.Constraint.Kind != migrate.ConstraintCheck {
				return nil, fmt.Errorf("clickhouse only supports check constraints, got %s", op.Constraint.Kind)
			}
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ADD CONSTRAINT %s CHECK %s;",
				table, chQuote(op.Constraint.Name), op.Constraint.Expression))

		case migrate.OpDropConstraint:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP CONSTRAINT %s;", table, chQuote(op.ConstraintName)))

		default:
			return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}
	}

	return statements, nil
}

func chAlterType(typeString string, nullable *bool) string {
	base, isArray := splitTypeName(typeString)
	columnType := chBaseType(base, nil)
	if nullable != nil && *nullable && !isArray {
		columnType = fmt.Sprintf("Nullable(%s)", columnType)
	}
	if isArray {
		return fmt.Sprintf("Array(%s)", columnType)
	}
	return columnType
}
