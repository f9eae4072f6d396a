package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) Name() string          { return "postgres" }
func (postgresDialect) FileExtension() string { return "sql" }

var pgTypeNames = map[string]string{
	"string":    "VARCHAR(255)",
	"text":      "TEXT",
	"int":       "INTEGER",
	"long":      "BIGINT",
	"bigint":    "BIGINT",
	"float":     "REAL",
	"double":    "DOUBLE PRECISION",
	"boolean":   "BOOLEAN",
	"uuid":      "UUID",
	"timestamp": "TIMESTAMPTZ",
	"date":      "DATE",
	"time":      "TIME",
	"json":      "JSONB",
	"binary":    "BYTEA",
	"decimal":   "NUMERIC",
	"varchar":   "VARCHAR(255)",
	"char":      "CHAR(1)",
	"fixed":     "CHAR(1)",
	"map":       "JSONB",
	"list":      "JSONB",
	"struct":    "JSONB",
	"enum":      "TEXT",
	"ref":       "UUID",
}

func (d postgresDialect) CreateTable(s *schema.Schema) (string, error) {
	table := pq.QuoteIdentifier(s.Name)
	vectorDims := vectorDimensions(s.Directives)

	var columnDefs []string
	for _, col := range tableColumns(s) {
		columnDefs = append(columnDefs, d.columnDef(col, vectorDims))
	}
	if len(columnDefs) == 0 {
		return "", fmt.Errorf("schema %s has no columns to create", s.Name)
	}

	var statements []string
	if len(vectorDims) > 0 {
		statements = append(statements, "CREATE EXTENSION IF NOT EXISTS vector;")
	}

	statements = append(statements, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		table,
		strings.Join(columnDefs, ",\n    "),
	))

	for _, field := range s.Fields.Fields() {
		if !field.Indexed() || field.Relation != nil {
			continue
		}
		statements = append(statements, d.createIndex(s.Name, []string{field.Name}, "", field.IsUnique))
	}
	for _, idx := range s.Directives.Index {
		statements = append(statements, d.createIndex(s.Name, idx.Fields, "", idx.Unique))
	}
	for _, field := range s.Directives.FTS {
		statements = append(statements, fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (to_tsvector('simple', %s));",
			pq.QuoteIdentifier(fmt.Sprintf("fts_%s_%s", s.Name, field)),
			table,
			pq.QuoteIdentifier(field),
		))
	}

	return strings.Join(statements, "\n\n"), nil
}

func (d postgresDialect) columnDef(col column, vectorDims map[string]int) string {
	if col.Relation != nil {
		def := fmt.Sprintf("%s UUID", pq.QuoteIdentifier(col.Name))
		if !col.Field.Nullable() {
			def += " NOT NULL"
		}
		if col.Relation.Operator == "->" {
			def += fmt.Sprintf(" REFERENCES %s", pq.QuoteIdentifier(col.Relation.TargetType))
		}
		return def
	}

	field := col.Field
	columnType := d.columnType(field)
	if dims, ok := vectorDims[field.Name]; ok {
		columnType = fmt.Sprintf("VECTOR(%d)", dims)
	}

	def := fmt.Sprintf("%s %s", pq.QuoteIdentifier(col.Name), columnType)
	if !field.Nullable() {
		def += " NOT NULL"
	}
	if field.Default != nil {
		def += " DEFAULT " + d.renderDefault(field)
	}
	if field.IsUnique && !field.Indexed() {
		def += " UNIQUE"
	}
	return def
}

func (d postgresDialect) columnType(field *schema.Field) string {
	base := pgBaseType(field)
	if field.IsArray {
		return base + "[]"
	}
	return base
}

func pgBaseType(field *schema.Field) string {
	switch field.Type {
	case "decimal":
		if field.Precision != nil {
			return fmt.Sprintf("NUMERIC(%d,%d)", *field.Precision, scaleOf(field))
		}
	case "varchar":
		if field.Length != nil {
			return fmt.Sprintf("VARCHAR(%d)", *field.Length)
		}
	case "char", "fixed":
		if field.Length != nil {
			return fmt.Sprintf("CHAR(%d)", *field.Length)
		}
	}
	if name, ok := pgTypeNames[field.Type]; ok {
		return name
	}
	return "TEXT"
}

func (d postgresDialect) renderDefault(field *schema.Field) string {
	def := field.Default
	switch def.Kind {
	case schema.DefaultString:
		return pq.QuoteLiteral(def.String)
	case schema.DefaultNumber:
		return def.Number
	case schema.DefaultBool:
		return strings.ToUpper(strconv.FormatBool(def.Bool))
	case schema.DefaultNull:
		return "NULL"
	case schema.DefaultFunction:
		return def.Function + "()"
	case schema.DefaultEmptyObject:
		return "'{}'::jsonb"
	case schema.DefaultEmptyArray:
		if field.IsArray {
			return "'{}'"
		}
		return "'[]'::jsonb"
	}
	return "NULL"
}

func (d postgresDialect) createIndex(table string, fields []string, name string, unique bool) string {
	if name == "" {
		name = fmt.Sprintf("idx_%s_%s", table, strings.Join(fields, "_"))
	}
	uniqueStr := ""
	if unique {
		uniqueStr = "UNIQUE "
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = pq.QuoteIdentifier(f)
	}
	return fmt.Sprintf(
		"CREATE %sINDEX IF NOT EXISTS %s ON %s (%s);",
		uniqueStr,
		pq.QuoteIdentifier(name),
		pq.QuoteIdentifier(table),
		strings.Join(cols, ", "),
	)
}

func (d postgresDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	var statements []string

	for _, op := range m.Operations {
		table := pq.QuoteIdentifier(op.Table)

		switch op.Kind {
		case migrate.OpAddColumn:
			def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				table, pq.QuoteIdentifier(op.Column), pgAlterType(op.ColumnType))
			if op.Nullable != nil && !*op.Nullable {
				def += " NOT NULL"
			}
			if op.Default != nil {
				def += " DEFAULT " + pgOperationDefault(op.Default)
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
			statements = append(statements, pgAlterColumn(table, op)...)

		case migrate.OpAddIndex:
			statements = append(statements, d.createIndex(op.Table, op.Columns, op.IndexName, op.Unique))

		case migrate.OpDropIndex:
			statements = append(statements, fmt.Sprintf(
				"DROP INDEX IF EXISTS %s;", pq.QuoteIdentifier(op.IndexName)))

		case migrate.OpAddConstraint:
			stmt, err := pgAddConstraint(table, op.Constraint)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)

		case migrate.OpDropConstraint:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP CONSTRAINT %s;", table, pq.QuoteIdentifier(op.ConstraintName)))

		default:
			return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}
	}

	return statements, nil
}

func pgAlterColumn(table string, op migrate.Operation) []string {
	var statements []string
	col := pq.QuoteIdentifier(op.Column)

	if op.Changes == nil {
		return nil
	}
	if tc := op.Changes.Type; tc != nil {
		statements = append(statements, fmt.Sprintf(
			"ALTER TABLE %s ALTER COLUMN %s TYPE %s;", table, col, pgAlterType(tc.To)))
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
				"ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", table, col, pgOperationDefault(dc.To)))
		}
	}

	return statements
}

// pgAlterType maps the rendered type string carried by migration operations.
// Parameter details are not part of that form, so parametric names fall back
// to their bare postgres type.
func pgAlterType(typeString string) string {
	base, isArray := splitTypeName(typeString)
	name, ok := pgTypeNames[base]
	if !ok {
		name = "TEXT"
	}
	if isArray {
		return name + "[]"
	}
	return name
}

func pgOperationDefault(def *schema.DefaultValue) string {
	switch def.Kind {
	case schema.DefaultString:
		return pq.QuoteLiteral(def.String)
	case schema.DefaultNumber:
		return def.Number
	case schema.DefaultBool:
		return strings.ToUpper(strconv.FormatBool(def.Bool))
	case schema.DefaultNull:
		return "NULL"
	case schema.DefaultFunction:
		return def.Function + "()"
	case schema.DefaultEmptyObject:
		return "'{}'::jsonb"
	case schema.DefaultEmptyArray:
		return "'[]'::jsonb"
	}
	return "NULL"
}

func pgAddConstraint(table string, constraint *migrate.Constraint) (string, error) {
	if constraint == nil {
		return "", fmt.Errorf("addConstraint operation carries no constraint")
	}

	name := pq.QuoteIdentifier(constraint.Name)
	cols := quoteAll(constraint.Columns, pq.QuoteIdentifier)

	switch constraint.Kind {
	case migrate.ConstraintForeignKey:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			table, name, strings.Join(cols, ", "),
			pq.QuoteIdentifier(constraint.RefTable),
			strings.Join(quoteAll(constraint.RefColumns, pq.QuoteIdentifier), ", "))
		if constraint.OnDelete != "" && constraint.OnDelete != "NO ACTION" {
			stmt += " ON DELETE " + constraint.OnDelete
		}
		if constraint.OnUpdate != "" && constraint.OnUpdate != "NO ACTION" {
			stmt += " ON UPDATE " + constraint.OnUpdate
		}
		return stmt + ";", nil
	case migrate.ConstraintUnique:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);",
			table, name, strings.Join(cols, ", ")), nil
	case migrate.ConstraintCheck:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
			table, name, constraint.Expression), nil
	case migrate.ConstraintPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);",
			table, name, strings.Join(cols, ", ")), nil
	default:
		return "", fmt.Errorf("unsupported constraint kind: %s", constraint.Kind)
	}
}

func quoteAll(values []string, quote func(string) string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = quote(v)
	}
	return out
}

func scaleOf(field *schema.Field) int {
	if field.Scale != nil {
		return *field.Scale
	}
	return 0
}

func vectorDimensions(d *schema.Directives) map[string]int {
	if d == nil || len(d.Vector) == 0 {
		return nil
	}
	dims := make(map[string]int, len(d.Vector))
	for _, v := range d.Vector {
		dims[v.Field] = v.Dimensions
	}
	return dims
}
