package constraints

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/reoring/govalid"
	"github.com/reoring/govalid/internal/access"
)

// deref unwraps pointers and interfaces. ok is false for nil.
func deref(v any) (any, bool) {
	rv, ok := access.Indirect(v)
	if !ok {
		return nil, false
	}
	return rv.Interface(), true
}

// isEmpty implements the skip-on-empty convention: nil and "" are left to the
// presence constraints.
func isEmpty(v any) bool {
	if access.IsNil(v) {
		return true
	}
	d, ok := deref(v)
	if !ok {
		return true
	}
	rv := reflect.ValueOf(d)
	return rv.Kind() == reflect.String && rv.Len() == 0
}

// asString converts strings, named string types and fmt.Stringer values.
func asString(v any) (string, bool) {
	d, ok := deref(v)
	if !ok {
		return "", false
	}
	if s, ok := d.(fmt.Stringer); ok {
		if _, isTime := d.(time.Time); !isTime {
			return s.String(), true
		}
	}
	rv := reflect.ValueOf(d)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// asFloat converts any integer or floating point kind.
func asFloat(v any) (float64, bool) {
	d, ok := deref(v)
	if !ok {
		return 0, false
	}
	rv := reflect.ValueOf(d)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// compare orders two numbers, two times or two strings. ok is false when the
// values are not comparable with each other.
func compare(a, b any) (int, bool) {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	da, _ := deref(a)
	db, _ := deref(b)
	if ta, ok := da.(time.Time); ok {
		tb, ok := db.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if sa, ok := asString(a); ok {
		sb, ok := asString(b)
		if !ok {
			return 0, false
		}
		return strings.Compare(sa, sb), true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	da, _ := deref(a)
	db, _ := deref(b)
	return reflect.DeepEqual(da, db)
}

// formatValue renders a value for a message parameter: strings quoted, times
// in RFC 3339, nil as null.
func formatValue(v any) string {
	d, ok := deref(v)
	if !ok {
		return "null"
	}
	switch t := d.(type) {
	case time.Time:
		return t.Format(time.RFC3339)
	case bool:
		if t {
			return "true"
		}
		return "false"
	}
	rv := reflect.ValueOf(d)
	switch rv.Kind() {
	case reflect.String:
		return `"` + rv.String() + `"`
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return "array"
		}
	case reflect.Map:
		return "array"
	case reflect.Struct:
		return "object"
	}
	return fmt.Sprint(d)
}

func typeOf(v any) string {
	d, ok := deref(v)
	if !ok {
		return "nil"
	}
	return reflect.TypeOf(d).String()
}

// pathKey renders a collection key as a path segment such as "[3]".
func pathKey(k any) string {
	return govalid.Path("").Key(k).String()
}
