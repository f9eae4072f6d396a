package generator

import (
	"fmt"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() string          { return "mysql" }
func (mysqlDialect) FileExtension() string { return "sql" }

// MySQL has no array columns; array-valued fields land in JSON.
var mysqlTypeNames = map[string]string{
	"string":    "VARCHAR(255)",
	"text":      "TEXT",
	"int":       "INT",
	"long":      "BIGINT",
	"bigint":    "BIGINT",
	"float":     "FLOAT",
	"double":    "DOUBLE",
	"boolean":   "TINYINT(1)",
	"uuid":      "CHAR(36)",
	"timestamp": "DATETIME(6)",
	"date":      "DATE",
	"time":      "TIME",
	"json":      "JSON",
	"binary":    "BLOB",
	"decimal":   "DECIMAL(10,0)",
	"varchar":   "VARCHAR(255)",
	"char":      "CHAR(1)",
	"fixed":     "CHAR(1)",
	"map":       "JSON",
	"list":      "JSON",
	"struct":    "JSON",
	"enum":      "VARCHAR(255)",
	"ref":       "CHAR(36)",
}

func mysqlQuote(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d mysqlDialect) CreateTable(s *schema.Schema) (string, error) {
	var columnDefs []string
	for _, col := range tableColumns(s) {
		columnDefs = append(columnDefs, d.columnDef(col))
	}
	if len(columnDefs) == 0 {
		return "", fmt.Errorf("schema %s has no columns to create", s.Name)
	}

	for _, field := range s.Fields.Fields() {
		if !field.Indexed() || field.Relation != nil {
			continue
		}
		columnDefs = append(columnDefs, d.indexDef(s.Name, []string{field.Name}, field.IsUnique))
	}
	for _, idx := range s.Directives.Index {
		columnDefs = append(columnDefs, d.indexDef(s.Name, idx.Fields, idx.Unique))
	}
	for _, field := range s.Directives.FTS {
		columnDefs = append(columnDefs, fmt.Sprintf("FULLTEXT INDEX %s (%s)",
			mysqlQuote(fmt.Sprintf("fts_%s_%s", s.Name, field)), mysqlQuote(field)))
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n    %s\n);",
		mysqlQuote(s.Name),
		strings.Join(columnDefs, ",\n    "),
	), nil
}

func (d mysqlDialect) columnDef(col column) string {
	if col.Relation != nil {
		def := fmt.Sprintf("%s CHAR(36)", mysqlQuote(col.Name))
		if !col.Field.Nullable() {
			def += " NOT NULL"
		}
		return def
	}

	field := col.Field
	def := fmt.Sprintf("%s %s", mysqlQuote(col.Name), d.columnType(field))
	if !field.Nullable() {
		def += " NOT NULL"
	}
	if field.Default != nil {
		def += " DEFAULT " + mysqlDefault(field.Default)
	}
	if field.IsUnique && !field.Indexed() {
		def += " UNIQUE"
	}
	return def
}

func (d mysqlDialect) columnType(field *schema.Field) string {
	if field.IsArray {
		return "JSON"
	}
	switch field.Type {
	case "decimal":
		if field.Precision != nil {
			return fmt.Sprintf("DECIMAL(%d,%d)", *field.Precision, scaleOf(field))
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
	if name, ok := mysqlTypeNames[field.Type]; ok {
		return name
	}
	return "TEXT"
}

func (d mysqlDialect) indexDef(table string, fields []string, unique bool) string {
	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	return fmt.Sprintf("%s %s (%s)",
		kind,
		mysqlQuote(fmt.Sprintf("idx_%s_%s", table, strings.Join(fields, "_"))),
		strings.Join(quoteAll(fields, mysqlQuote), ", "))
}

func mysqlDefault(def *schema.DefaultValue) string {
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
		return "('{}')"
	case schema.DefaultEmptyArray:
		return "('[]')"
	}
	return "NULL"
}

func (d mysqlDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	var statements []string

	for _, op := range m.Operations {
		table := mysqlQuote(op.Table)

		switch op.Kind {
		case migrate.OpAddColumn:
			def := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
				table, mysqlQuote(op.Column), mysqlAlterType(op.ColumnType))
			if op.Nullable != nil && !*op.Nullable {
				def += " NOT NULL"
			}
			if op.Default != nil {
				def += " DEFAULT " + mysqlDefault(op.Default)
			}
			statements = append(statements, def+";")

		case migrate.OpDropColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP COLUMN %s;", table, mysqlQuote(op.Column)))

		case migrate.OpRenameColumn:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s RENAME COLUMN %s TO %s;",
				table, mysqlQuote(op.OldName), mysqlQuote(op.NewName)))

		case migrate.OpAlterColumn:
			statements = append(statements, mysqlAlterColumn(table, op)...)

		case migrate.OpAddIndex:
			kind := "INDEX"
			if op.Unique {
				kind = "UNIQUE INDEX"
			}
			statements = append(statements, fmt.Sprintf(
				"CREATE %s %s ON %s (%s);",
				kind, mysqlQuote(indexName(op)), table,
				strings.Join(quoteAll(op.Columns, mysqlQuote), ", ")))

		case migrate.OpDropIndex:
			statements = append(statements, fmt.Sprintf(
				"DROP INDEX %s ON %s;", mysqlQuote(op.IndexName), table))

		case migrate.OpAddConstraint:
			stmt, err := mysqlAddConstraint(table, op.Constraint)
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)

		case migrate.OpDropConstraint:
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s DROP CONSTRAINT %s;", table, mysqlQuote(op.ConstraintName)))

		default:
			return nil, fmt.Errorf("unsupported operation kind: %s", op.Kind)
		}
	}

	return statements, nil
}

// mysqlAlterColumn rebuilds the column definition because MySQL modifies
// type and nullability through a single MODIFY COLUMN clause.
func mysqlAlterColumn(table string, op migrate.Operation) []string {
	if op.Changes == nil {
		return nil
	}

	var statements []string
	col := mysqlQuote(op.Column)

	if op.Changes.Type != nil || op.Changes.Nullable != nil {
		columnType := "TEXT"
		if tc := op.Changes.Type; tc != nil {
			columnType = mysqlAlterType(tc.To)
		}
		def := fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", table, col, columnType)
		if nc := op.Changes.Nullable; nc != nil && !nc.To {
			def += " NOT NULL"
		}
		statements = append(statements, def+";")
	}

	if dc := op.Changes.Default; dc != nil {
		if dc.To == nil {
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT;", table, col))
		} else {
			statements = append(statements, fmt.Sprintf(
				"ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s;", table, col, mysqlDefault(dc.To)))
		}
	}

	return statements
}

func mysqlAlterType(typeString string) string {
	base, isArray := splitTypeName(typeString)
	if isArray {
		return "JSON"
	}
	if name, ok := mysqlTypeNames[base]; ok {
		return name
	}
	return "TEXT"
}

func mysqlAddConstraint(table string, constraint *migrate.Constraint) (string, error) {
	if constraint == nil {
		return "", fmt.Errorf("addConstraint operation carries no constraint")
	}

	name := mysqlQuote(constraint.Name)
	cols := strings.Join(quoteAll(constraint.Columns, mysqlQuote), ", ")

	switch constraint.Kind {
	case migrate.ConstraintForeignKey:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			table, name, cols,
			mysqlQuote(constraint.RefTable),
			strings.Join(quoteAll(constraint.RefColumns, mysqlQuote), ", "))
		if constraint.OnDelete != "" && constraint.OnDelete != "NO ACTION" {
			stmt += " ON DELETE " + constraint.OnDelete
		}
		if constraint.OnUpdate != "" && constraint.OnUpdate != "NO ACTION" {
			stmt += " ON UPDATE " + constraint.OnUpdate
		}
		return stmt + ";", nil
	case migrate.ConstraintUnique:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", table, name, cols), nil
	case migrate.ConstraintCheck:
		return fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s);",
			table, name, constraint.Expression), nil
	case migrate.ConstraintPrimaryKey:
		return fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", table, cols), nil
	default:
		return "", fmt.Errorf("unsupported constraint kind: %s", constraint.Kind)
	}
}
