package schema

import (
	"regexp"
	"strconv"
	"strings"
)

type DefaultKind string

const (
	DefaultString      DefaultKind = "string"
	DefaultNumber      DefaultKind = "number"
	DefaultBool        DefaultKind = "bool"
	DefaultNull        DefaultKind = "null"
	DefaultFunction    DefaultKind = "function"
	DefaultEmptyObject DefaultKind = "emptyObject"
	DefaultEmptyArray  DefaultKind = "emptyArray"
)

// DefaultValue is the parsed form of a trailing "= literal" clause. Number
// keeps the raw literal text so emitters can render it without reformatting.
type DefaultValue struct {
	Kind     DefaultKind `json:"kind"`
	String   string      `json:"string,omitempty"`
	Number   string      `json:"number,omitempty"`
	Bool     bool        `json:"bool,omitempty"`
	Function string      `json:"function,omitempty"`
}

func (d *DefaultValue) Literal() string {
	switch d.Kind {
	case DefaultString:
		return strconv.Quote(d.String)
	case DefaultNumber:
		return d.Number
	case DefaultBool:
		return strconv.FormatBool(d.Bool)
	case DefaultNull:
		return "null"
	case DefaultFunction:
		return d.Function + "()"
	case DefaultEmptyObject:
		return "{}"
	case DefaultEmptyArray:
		return "[]"
	}
	return ""
}

// Field is the resolved definition of one schema field.
//
// Modifier holds the first modifier character that appeared in the source
// string; the boolean flags accumulate the effect of all of them, so
// "string!?" keeps Modifier "!" with both IsUnique and IsOptional set.
type Field struct {
	Name       string
	Type       string
	Modifier   string
	IsArray    bool
	IsOptional bool
	IsUnique   bool
	IsIndexed  bool
	Precision  *int
	Scale      *int
	Length     *int
	TypeParams []string
	Default    *DefaultValue
	Relation   *Relation
}

// Nullable reports whether the column backing this field accepts NULL.
func (f *Field) Nullable() bool {
	return f.IsOptional || f.Modifier == "?"
}

// Indexed reports whether the field carries a standalone index.
func (f *Field) Indexed() bool {
	return f.IsIndexed || f.Modifier == "#"
}

// TypeString renders the canonical type with its array suffix.
func (f *Field) TypeString() string {
	if f.IsArray {
		return f.Type + "[]"
	}
	return f.Type
}

var (
	parametricRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\((.*)\)$`)
	genericRe    = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)<(.*)>$`)
	intParamRe   = regexp.MustCompile(`^\d+$`)
	numberRe     = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	functionRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\(\)$`)
)

// ParseField turns a type string such as "decimal(10,2)[]!" or
// "string = 'n/a'" into a Field. The grammar is base type, optional
// parameter list, optional array suffix, modifiers in any combination, and
// an optional default clause. Conflicting modifiers are accepted here; the
// schema validator reports them as warnings.
func ParseField(typeString string) (*Field, error) {
	raw := strings.TrimSpace(typeString)
	if raw == "" {
		return nil, parseErrorf("empty type string")
	}

	field := &Field{}

	if idx := strings.IndexByte(raw, '='); idx >= 0 {
		field.Default = parseDefaultLiteral(strings.TrimSpace(raw[idx+1:]))
		raw = strings.TrimSpace(raw[:idx])
	}

	raw, modifiers := splitModifiers(raw)
	for _, m := range modifiers {
		switch m {
		case '!':
			field.IsUnique = true
		case '#':
			field.IsUnique = true
			field.IsIndexed = true
		case '?':
			field.IsOptional = true
		}
	}
	if len(modifiers) > 0 {
		field.Modifier = string(modifiers[0])
	}

	if strings.HasSuffix(raw, "[]") {
		field.IsArray = true
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "[]"))
	}

	if raw == "" {
		if len(modifiers) > 0 {
			return nil, parseErrorf("invalid modifier position in %q", typeString)
		}
		return nil, parseErrorf("empty type string")
	}
	if strings.ContainsAny(raw, "!#?") {
		return nil, parseErrorf("invalid modifier position in %q", typeString)
	}

	switch {
	case parametricRe.MatchString(raw):
		if err := parseParametric(field, raw); err != nil {
			return nil, err
		}
	case genericRe.MatchString(raw):
		if err := parseGeneric(field, raw); err != nil {
			return nil, err
		}
	default:
		base := CanonicalType(raw)
		if !IsKnownType(base) {
			return nil, parseErrorf("unknown type: %s", raw)
		}
		field.Type = base
	}

	return field, nil
}

// splitModifiers strips trailing modifier characters, returning them in the
// order they appeared in the source.
func splitModifiers(raw string) (string, []byte) {
	var modifiers []byte
	for len(raw) > 0 {
		last := raw[len(raw)-1]
		if last != '!' && last != '#' && last != '?' {
			break
		}
		modifiers = append([]byte{last}, modifiers...)
		raw = strings.TrimSpace(raw[:len(raw)-1])
	}
	return raw, modifiers
}

func parseParametric(field *Field, raw string) error {
	match := parametricRe.FindStringSubmatch(raw)
	name, inner := match[1], match[2]

	base := CanonicalType(name)
	if !ParametricTypes[base] {
		return parseErrorf("unknown parametric type: %s", name)
	}

	var params []int
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if !intParamRe.MatchString(part) {
			return parseErrorf("invalid parameter value %q for %s", part, base)
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return parseErrorf("invalid parameter value %q for %s", part, base)
		}
		params = append(params, n)
	}

	switch base {
	case "decimal":
		if len(params) < 1 || len(params) > 2 {
			return parseErrorf("invalid parameter value: decimal takes 1 or 2 parameters, got %d", len(params))
		}
		field.Precision = &params[0]
		scale := 0
		if len(params) == 2 {
			scale = params[1]
		}
		field.Scale = &scale
	default:
		if len(params) != 1 {
			return parseErrorf("invalid parameter value: %s takes exactly 1 parameter, got %d", base, len(params))
		}
		field.Length = &params[0]
	}

	field.Type = base
	return nil
}

func parseGeneric(field *Field, raw string) error {
	match := genericRe.FindStringSubmatch(raw)
	name, inner := match[1], match[2]

	base := CanonicalType(name)
	if !GenericTypes[base] {
		return parseErrorf("unknown generic type: %s", name)
	}

	params := splitTypeParams(inner)
	if base == "map" && len(params) != 2 {
		return parseErrorf("map takes exactly 2 type parameters, got %d", len(params))
	}

	field.Type = base
	field.TypeParams = params
	return nil
}

// splitTypeParams splits generic parameters on top-level commas only, so
// "string, map<string,int>" yields exactly two entries.
func splitTypeParams(inner string) []string {
	var params []string
	depth := 0
	start := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				params = append(params, strings.TrimSpace(inner[start:i]))
				start = i + 1
			}
		}
	}
	params = append(params, strings.TrimSpace(inner[start:]))
	return params
}

// parseDefaultLiteral interprets the text after "=". Quoted strings share
// the tokenizer's escaping rules; anything unrecognized is kept as a plain
// string default rather than rejected.
func parseDefaultLiteral(literal string) *DefaultValue {
	if literal == "" {
		return nil
	}
	if literal[0] == '"' || literal[0] == '\'' {
		tok := Tokenize(literal)[0]
		return &DefaultValue{Kind: DefaultString, String: tok.Text}
	}
	switch literal {
	case "true", "false":
		return &DefaultValue{Kind: DefaultBool, Bool: literal == "true"}
	case "null":
		return &DefaultValue{Kind: DefaultNull}
	case "{}":
		return &DefaultValue{Kind: DefaultEmptyObject}
	case "[]":
		return &DefaultValue{Kind: DefaultEmptyArray}
	}
	if numberRe.MatchString(literal) {
		return &DefaultValue{Kind: DefaultNumber, Number: literal}
	}
	if match := functionRe.FindStringSubmatch(literal); match != nil {
		return &DefaultValue{Kind: DefaultFunction, Function: match[1]}
	}
	return &DefaultValue{Kind: DefaultString, String: literal}
}
