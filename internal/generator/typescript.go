package generator

import (
	"fmt"
	"strings"

	"github.com/icetype/icetype/internal/migrate"
	"github.com/icetype/icetype/internal/schema"
)

type typescriptDialect struct{}

func (typescriptDialect) Name() string          { return "typescript" }
func (typescriptDialect) FileExtension() string { return "ts" }

var tsTypeNames = map[string]string{
	"string":    "string",
	"text":      "string",
	"int":       "number",
	"long":      "number",
	"bigint":    "bigint",
	"float":     "number",
	"double":    "number",
	"boolean":   "boolean",
	"uuid":      "string",
	"timestamp": "Date",
	"date":      "string",
	"time":      "string",
	"json":      "Record<string, unknown>",
	"binary":    "Uint8Array",
	"decimal":   "number",
	"varchar":   "string",
	"char":      "string",
	"fixed":     "string",
	"enum":      "string",
	"ref":       "string",
}

// CreateTable emits an interface declaration. Forward relations become
// <field>Id keys; optional fields get the ? marker instead of a null union.
func (d typescriptDialect) CreateTable(s *schema.Schema) (string, error) {
	var lines []string
	for _, field := range s.Fields.Fields() {
		if field.Relation != nil {
			if !forwardRelation(field.Relation.Operator) {
				continue
			}
			lines = append(lines, fmt.Sprintf("    %sId%s: string;", field.Name, tsOptional(field)))
			continue
		}
		lines = append(lines, fmt.Sprintf("    %s%s: %s;", field.Name, tsOptional(field), d.fieldType(field)))
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("schema %s has no fields to declare", s.Name)
	}

	return fmt.Sprintf("export interface %s {\n%s\n}", s.Name, strings.Join(lines, "\n")), nil
}

func tsOptional(field *schema.Field) string {
	if field.Nullable() {
		return "?"
	}
	return ""
}

func (d typescriptDialect) fieldType(field *schema.Field) string {
	base := tsBaseType(field)
	if field.IsArray {
		if strings.ContainsAny(base, "<| ") {
			return "Array<" + base + ">"
		}
		return base + "[]"
	}
	return base
}

func tsBaseType(field *schema.Field) string {
	switch field.Type {
	case "map":
		if len(field.TypeParams) == 2 {
			return fmt.Sprintf("Record<%s, %s>", tsParamType(field.TypeParams[0]), tsParamType(field.TypeParams[1]))
		}
	case "list":
		if len(field.TypeParams) == 1 {
			return tsParamType(field.TypeParams[0]) + "[]"
		}
	case "struct":
		return "Record<string, unknown>"
	}
	if name, ok := tsTypeNames[field.Type]; ok {
		return name
	}
	return "unknown"
}

// tsParamType resolves a generic parameter, which may itself be any type
// string the field parser accepts.
func tsParamType(param string) string {
	field, err := schema.ParseField(param)
	if err != nil {
		return "unknown"
	}
	return typescriptDialect{}.fieldType(field)
}

// AlterStatements has no TypeScript counterpart: interfaces always describe
// the current shape, never a delta.
func (d typescriptDialect) AlterStatements(m *migrate.Migration) ([]string, error) {
	return nil, fmt.Errorf("typescript target does not support migrations")
}
