package schema

import "strings"

// Relation links a field to a target entity type. Operator is one of "->"
// (forward), "<-" (backward), "~>" (fuzzy forward), or "<~" (fuzzy backward).
type Relation struct {
	Operator   string
	TargetType string
	Inverse    string
}

// IsRelationString reports whether a field spec should be handed to
// ParseRelation instead of ParseField.
func IsRelationString(spec string) bool {
	spec = strings.TrimSpace(spec)
	for _, op := range RelationOperators {
		if strings.HasPrefix(spec, op) {
			return true
		}
	}
	return false
}

// ParseRelation parses strings such as "-> User", "<- Post.author", or
// "~> Document[]?". An array suffix or "?" after the target is accepted and
// discarded; a ".name" suffix sets the inverse field. Whitespace around the
// operator and target is insignificant.
func ParseRelation(relationString string) (*Relation, error) {
	raw := strings.TrimSpace(relationString)
	if raw == "" {
		return nil, parseErrorf("relation must be a non-empty string")
	}

	var operator string
	for _, op := range RelationOperators {
		if strings.HasPrefix(raw, op) {
			operator = op
			break
		}
	}
	if operator == "" {
		return nil, parseErrorf("expected relation operator in %q", relationString)
	}

	rest := strings.TrimSpace(raw[len(operator):])
	target := leadingIdentifier(rest)
	if target == "" {
		return nil, parseErrorf("expected target type after %q", operator)
	}

	rel := &Relation{Operator: operator, TargetType: target}
	rest = strings.TrimSpace(rest[len(target):])

	for rest != "" {
		switch {
		case strings.HasPrefix(rest, "[]"):
			rest = rest[2:]
		case rest[0] == '?':
			rest = rest[1:]
		case rest[0] == '.':
			inverse := leadingIdentifier(rest[1:])
			rel.Inverse = inverse
			rest = rest[1+len(inverse):]
		default:
			// Trailing content outside the grammar is ignored.
			return rel, nil
		}
		rest = strings.TrimSpace(rest)
	}

	return rel, nil
}

func leadingIdentifier(s string) string {
	i := 0
	for i < len(s) && isIdentChar(rune(s[i])) {
		i++
	}
	return s[:i]
}
