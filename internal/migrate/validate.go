package migrate

import "fmt"

// Issue is a single validation finding on a migration.
type Issue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// ValidationResult collects every finding for one migration. Valid is
// false iff Errors is non-empty.
type ValidationResult struct {
	Valid  bool    `json:"valid"`
	Errors []Issue `json:"errors"`
}

// Validate checks a migration structurally. All findings are collected,
// nothing short-circuits.
func Validate(m *Migration) ValidationResult {
	var result ValidationResult

	if !m.FromVersion.Less(m.ToVersion) {
		result.Errors = append(result.Errors, Issue{
			Code:    "INVALID_VERSION_ORDER",
			Message: fmt.Sprintf("fromVersion %s must be lower than toVersion %s", m.FromVersion, m.ToVersion),
		})
	}

	for i, op := range m.Operations {
		path := fmt.Sprintf("operations[%d]", i)
		result.Errors = append(result.Errors, validateOperation(op, path)...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateOperation(op Operation, path string) []Issue {
	var issues []Issue
	fail := func(code, format string, args ...any) {
		issues = append(issues, Issue{Code: code, Message: fmt.Sprintf(format, args...), Path: path})
	}

	switch op.Kind {
	case OpAddColumn, OpDropColumn, OpAlterColumn, OpRenameColumn,
		OpAddIndex, OpDropIndex, OpAddConstraint, OpDropConstraint:
	default:
		fail("INVALID_OPERATION", "unknown operation kind %q", op.Kind)
		return issues
	}

	if op.Table == "" {
		fail("EMPTY_TABLE_NAME", "%s operation requires a table name", op.Kind)
	}

	switch op.Kind {
	case OpAddColumn:
		if op.Column == "" {
			fail("EMPTY_COLUMN_NAME", "addColumn requires a column name")
		}
		if op.ColumnType == "" {
			fail("MISSING_TYPE", "addColumn %s requires a column type", op.Column)
		}
		if op.Nullable == nil {
			fail("MISSING_NULLABLE", "addColumn %s requires an explicit nullable flag", op.Column)
		}
	case OpDropColumn:
		if op.Column == "" {
			fail("EMPTY_COLUMN_NAME", "dropColumn requires a column name")
		}
	case OpRenameColumn:
		if op.OldName == "" {
			fail("EMPTY_OLD_NAME", "renameColumn requires the old column name")
		}
		if op.NewName == "" {
			fail("EMPTY_NEW_NAME", "renameColumn requires the new column name")
		}
	case OpAlterColumn:
		if op.Column == "" {
			fail("EMPTY_COLUMN_NAME", "alterColumn requires a column name")
		}
		if op.Changes == nil || op.Changes.Empty() {
			fail("EMPTY_CHANGES", "alterColumn %s carries no changes", op.Column)
		}
	case OpAddIndex:
		if len(op.Columns) == 0 {
			fail("EMPTY_COLUMNS", "addIndex requires at least one column")
		}
	case OpDropIndex:
		if op.IndexName == "" {
			fail("EMPTY_INDEX_NAME", "dropIndex requires an index name")
		}
	case OpAddConstraint:
		if op.Constraint == nil {
			fail("MISSING_CONSTRAINT", "addConstraint requires a constraint definition")
		}
	case OpDropConstraint:
		if op.ConstraintName == "" {
			fail("EMPTY_CONSTRAINT_NAME", "dropConstraint requires a constraint name")
		}
	}

	return issues
}
