package schema

import (
	"math"
	"sort"
)

type IndexDirective struct {
	Fields []string
	Unique bool
}

type VectorDirective struct {
	Field      string
	Dimensions int
}

// Directives carries the table-level $-prefixed hints of one schema.
// A zero value means the directive was absent or failed its type check.
type Directives struct {
	PartitionBy []string
	Index       []IndexDirective
	FTS         []string
	Vector      []VectorDirective
	Projection  string
	From        string
	Expand      []string
	Flatten     map[string]string
}

// ParseDirectives interprets the $-prefixed keys of a raw definition. It
// never fails: a value that does not satisfy its directive's type check is
// dropped, with the exception of $vector where only the offending entries
// are dropped. $type is the schema name and is consumed by the builder, not
// here; unknown keys are ignored.
func ParseDirectives(raw map[string]any) *Directives {
	d := &Directives{}
	for key, value := range raw {
		switch key {
		case "$partitionBy":
			d.PartitionBy, _ = stringSlice(value)
		case "$index":
			d.Index = indexDirectives(value)
		case "$fts":
			d.FTS, _ = stringSlice(value)
		case "$vector":
			d.Vector = vectorDirectives(value)
		case "$projection":
			if s, ok := value.(string); ok && (s == "oltp" || s == "olap" || s == "both") {
				d.Projection = s
			}
		case "$from":
			if s, ok := value.(string); ok {
				d.From = s
			}
		case "$expand":
			d.Expand, _ = stringSlice(value)
		case "$flatten":
			d.Flatten = flattenMap(value)
		}
	}
	return d
}

func stringSlice(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func indexDirectives(value any) []IndexDirective {
	var groups [][]string
	switch v := value.(type) {
	case [][]string:
		groups = v
	case []any:
		for _, item := range v {
			fields, ok := stringSlice(item)
			if !ok {
				return nil
			}
			groups = append(groups, fields)
		}
	default:
		return nil
	}

	out := make([]IndexDirective, 0, len(groups))
	for _, fields := range groups {
		copied := make([]string, len(fields))
		copy(copied, fields)
		out = append(out, IndexDirective{Fields: copied})
	}
	return out
}

// vectorDirectives keeps entries with integer dimensions and drops the rest.
// Map iteration order is not stable, so the result is sorted by field name.
func vectorDirectives(value any) []VectorDirective {
	var out []VectorDirective
	switch v := value.(type) {
	case map[string]int:
		for field, dims := range v {
			out = append(out, VectorDirective{Field: field, Dimensions: dims})
		}
	case map[string]any:
		for field, raw := range v {
			if dims, ok := integerValue(raw); ok {
				out = append(out, VectorDirective{Field: field, Dimensions: dims})
			}
		}
	default:
		return nil
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func integerValue(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if !math.IsInf(n, 0) && !math.IsNaN(n) && n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func flattenMap(value any) map[string]string {
	switch v := value.(type) {
	case map[string]string:
		out := make(map[string]string, len(v))
		for alias, path := range v {
			out[alias] = path
		}
		return out
	case map[string]any:
		out := make(map[string]string, len(v))
		for alias, raw := range v {
			path, ok := raw.(string)
			if !ok {
				return nil
			}
			out[alias] = path
		}
		return out
	}
	return nil
}
