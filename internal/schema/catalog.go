package schema

// Canonical names of the scalar types a field may use without parameters.
var KnownPrimitives = map[string]bool{
	"string":    true,
	"text":      true,
	"int":       true,
	"long":      true,
	"bigint":    true,
	"float":     true,
	"double":    true,
	"boolean":   true,
	"uuid":      true,
	"timestamp": true,
	"date":      true,
	"time":      true,
	"json":      true,
	"binary":    true,
}

// Types that take a parenthesized integer parameter list, e.g. decimal(10,2).
var ParametricTypes = map[string]bool{
	"decimal": true,
	"varchar": true,
	"char":    true,
	"fixed":   true,
}

// Types that take angle-bracket type parameters, e.g. map<string, int>.
var GenericTypes = map[string]bool{
	"map":    true,
	"list":   true,
	"struct": true,
	"enum":   true,
	"ref":    true,
}

// TypeAliases maps accepted spellings to their canonical names.
var TypeAliases = map[string]string{
	"bool":     "boolean",
	"datetime": "timestamp",
}

// RelationOperators lists the recognized relation prefixes. Order matters:
// prefixes are matched in this order, so two-character operators stay intact.
var RelationOperators = []string{"->", "<-", "~>", "<~"}

// wideningTable maps a type to the set of types it can change into without
// risking data loss.
var wideningTable = map[string]map[string]bool{
	"int":     {"long": true, "bigint": true, "float": true, "double": true},
	"long":    {"bigint": true, "double": true},
	"float":   {"double": true},
	"string":  {"text": true},
	"varchar": {"text": true, "string": true},
	"char":    {"varchar": true, "string": true, "text": true},
}

// CanonicalType resolves aliases to the canonical type name. Unknown names
// are returned unchanged.
func CanonicalType(name string) string {
	if canonical, ok := TypeAliases[name]; ok {
		return canonical
	}
	return name
}

// IsTypeWidening reports whether changing a column from one type to the other
// cannot lose information. Identical types are not a widening.
func IsTypeWidening(from, to string) bool {
	targets, ok := wideningTable[CanonicalType(from)]
	if !ok {
		return false
	}
	return targets[CanonicalType(to)]
}

// IsKnownType reports whether the name is usable as a field's base type,
// either directly or through an alias.
func IsKnownType(name string) bool {
	name = CanonicalType(name)
	return KnownPrimitives[name] || ParametricTypes[name] || GenericTypes[name]
}
