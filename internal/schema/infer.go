package schema

import (
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strings"
	"time"
)

var (
	uuidRe     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z?$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe     = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)
)

// InferType guesses the IceType of an example runtime value, for callers
// that bootstrap a schema from sample data. The result is a type string in
// source spelling (so booleans come back as "bool", not "boolean") ready to
// feed into ParseField. Values it cannot classify fall back to "json".
func InferType(value any) string {
	switch v := value.(type) {
	case nil:
		return "json?"
	case time.Time, *time.Time:
		return "timestamp"
	case []byte:
		return "binary"
	case big.Int, *big.Int:
		return "bigint"
	case bool:
		return "bool"
	case string:
		return inferStringType(v)
	case int:
		return intTypeFor(int64(v))
	case int8, int16, int32:
		return "int"
	case int64:
		return intTypeFor(v)
	case uint8, uint16:
		return "int"
	case uint:
		return uintTypeFor(uint64(v))
	case uint32:
		return uintTypeFor(uint64(v))
	case uint64:
		return uintTypeFor(v)
	case float32:
		return floatTypeFor(float64(v))
	case float64:
		return floatTypeFor(v)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "json[]"
		}
		elem := strings.TrimSuffix(InferType(rv.Index(0).Interface()), "?")
		if strings.HasSuffix(elem, "[]") {
			// Nested arrays have no spelling of their own.
			return "json[]"
		}
		return elem + "[]"
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "json?"
		}
		return InferType(rv.Elem().Interface())
	default:
		// Maps, structs, funcs, channels: json is the safe landing spot.
		return "json"
	}
}

func intTypeFor(v int64) string {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return "bigint"
	}
	return "int"
}

func uintTypeFor(v uint64) string {
	if v > math.MaxInt32 {
		return "bigint"
	}
	return "int"
}

func floatTypeFor(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "float"
	}
	if v == math.Trunc(v) {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return "bigint"
		}
		return "int"
	}
	return "float"
}

func inferStringType(s string) string {
	switch {
	case uuidRe.MatchString(s):
		return "uuid"
	case dateTimeRe.MatchString(s):
		return "timestamp"
	case dateRe.MatchString(s):
		return "date"
	case timeRe.MatchString(s):
		return "time"
	default:
		return "string"
	}
}
