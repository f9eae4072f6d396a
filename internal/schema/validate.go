package schema

import "fmt"

// Issue is one coded validation finding. Path points at the field or
// relation the finding concerns, when there is one.
type Issue struct {
	Code    string
	Message string
	Path    string
}

// ValidationResult collects the findings of one validation pass. Warnings
// never affect Valid.
type ValidationResult struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
}

// Validate checks a single schema for internal consistency. Conflicting
// modifiers such as "string!?" are deliberately accepted by the parser and
// surface here as a warning only.
func Validate(s *Schema) ValidationResult {
	var result ValidationResult

	for _, field := range s.Fields.Fields() {
		if field.IsOptional && field.Modifier == "!" {
			result.Warnings = append(result.Warnings, Issue{
				Code:    "CONFLICTING_MODIFIERS",
				Message: fmt.Sprintf("field %q is marked both required-unique and optional", field.Name),
				Path:    field.Name,
			})
		}
	}

	for _, name := range s.Relations.Names() {
		rel, _ := s.Relations.Get(name)
		if rel.TargetType == "" {
			result.Errors = append(result.Errors, Issue{
				Code:    "MISSING_TARGET_TYPE",
				Message: fmt.Sprintf("relation %q has no target type", name),
				Path:    name,
			})
		}
	}

	result.Valid = len(result.Errors) == 0
	return result
}
