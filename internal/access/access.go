// Package access holds the reflection helpers the engine and the constraint
// validators use to read properties, walk collections and identify objects.
package access

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FieldKey resolves the external name of a struct field.
// Priority: govalid:"name=..." > json tag name > field name; "-" hides the field.
func FieldKey(sf reflect.StructField) string {
	if gt := sf.Tag.Get("govalid"); gt != "" {
		for _, p := range strings.Split(gt, ",") {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if i == 0 {
				return sf.Name
			}
			return jt[:i]
		}
		return jt
	}
	return sf.Name
}

// Indirect follows pointers and interfaces. ok is false when a nil is met.
func Indirect(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}, false
		}
		rv = rv.Elem()
	}
	return rv, rv.IsValid()
}

// IsNil reports whether v is nil or a typed nil pointer, map, slice,
// interface or func.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Type returns the dereferenced type of v, or nil for nil.
func Type(v any) reflect.Type {
	if v == nil {
		return nil
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// TypeName is a short type description used in messages.
func TypeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

// IsObject reports whether v is a struct or a non-nil pointer to one.
func IsObject(v any) bool {
	rv, ok := Indirect(v)
	return ok && rv.Kind() == reflect.Struct
}

// IsCollection reports whether v is a slice, array or map. Byte slices are
// treated as scalars.
func IsCollection(v any) bool {
	rv, ok := Indirect(v)
	if !ok {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Type().Elem().Kind() != reflect.Uint8
	case reflect.Map:
		return true
	}
	return false
}

// IsMap reports whether v is a map.
func IsMap(v any) bool {
	rv, ok := Indirect(v)
	return ok && rv.Kind() == reflect.Map
}

// Len returns the element count of a collection.
func Len(v any) (int, bool) {
	rv, ok := Indirect(v)
	if !ok {
		return 0, false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len(), true
	}
	return 0, false
}

// Each calls fn for every element of a collection: slices and arrays in index
// order, maps in sorted key order. It returns false when v is not a
// collection.
func Each(v any, fn func(key any, elem any)) bool {
	rv, ok := Indirect(v)
	if !ok {
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			fn(i, rv.Index(i).Interface())
		}
		return true
	case reflect.Map:
		for _, k := range SortedKeys(rv) {
			fn(k.Interface(), rv.MapIndex(k).Interface())
		}
		return true
	}
	return false
}

// SortedKeys returns the keys of a map value ordered by their printed form.
// Integer keys sort numerically.
func SortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if isIntKind(a.Kind()) && isIntKind(b.Kind()) {
			return a.Int() < b.Int()
		}
		return fmt.Sprint(a.Interface()) < fmt.Sprint(b.Interface())
	})
	return keys
}

// MapEntry returns m[key] for a map with string-convertible keys.
func MapEntry(m any, key string) (any, bool) {
	rv, ok := Indirect(m)
	if !ok || rv.Kind() != reflect.Map {
		return nil, false
	}
	kt := rv.Type().Key()
	var kv reflect.Value
	switch {
	case kt.Kind() == reflect.String:
		kv = reflect.ValueOf(key).Convert(kt)
	case kt.Kind() == reflect.Interface:
		kv = reflect.ValueOf(key)
	case isIntKind(kt.Kind()):
		n, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, false
		}
		kv = reflect.ValueOf(n).Convert(kt)
	default:
		return nil, false
	}
	ev := rv.MapIndex(kv)
	if !ev.IsValid() {
		return nil, false
	}
	return ev.Interface(), true
}

// Field reads the property name of a struct (or pointer to struct). name
// matches either the resolved FieldKey or the Go field name.
func Field(obj any, name string) (any, error) {
	rv, ok := Indirect(obj)
	if !ok {
		return nil, fmt.Errorf("access: cannot read %q from nil", name)
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("access: cannot read %q from %s", name, rv.Type())
	}
	fv, ok := fieldByKey(rv, name)
	if !ok {
		return nil, fmt.Errorf("access: %s has no property %q", rv.Type(), name)
	}
	return fv.Interface(), nil
}

// HasField reports whether t (a struct type, or pointer to one) has a
// readable property name.
func HasField(t reflect.Type, name string) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if k := FieldKey(sf); k == name || (k != "-" && sf.Name == name) {
			return true
		}
	}
	return false
}

func fieldByKey(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		key := FieldKey(sf)
		if key == "-" {
			continue
		}
		if key == name || sf.Name == name {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Lookup navigates v by a dot/bracket property path such as
// "customer.addresses[1].street" or "[name]".
func Lookup(v any, path string) (any, bool) {
	cur := v
	for _, seg := range splitPath(path) {
		rv, ok := Indirect(cur)
		if !ok {
			return nil, false
		}
		switch rv.Kind() {
		case reflect.Struct:
			fv, ok := fieldByKey(rv, seg)
			if !ok {
				return nil, false
			}
			cur = fv.Interface()
		case reflect.Map:
			ev, ok := MapEntry(rv.Interface(), seg)
			if !ok {
				return nil, false
			}
			cur = ev
		case reflect.Slice, reflect.Array:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= rv.Len() {
				return nil, false
			}
			cur = rv.Index(idx).Interface()
		default:
			return nil, false
		}
	}
	return cur, true
}

func splitPath(path string) []string {
	var parts []string
	b := &strings.Builder{}
	flush := func() {
		if b.Len() > 0 {
			parts = append(parts, b.String())
			b.Reset()
		}
	}
	for _, r := range path {
		switch r {
		case '.', '[', ']':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return parts
}

// Key identifies an object for the lifetime of one validation run.
type Key struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

// Identity returns a key for values with reference identity: pointers, maps
// and slices. Plain values have none.
func Identity(v any) (Key, bool) {
	if v == nil {
		return Key{}, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return Key{}, false
		}
		return Key{typ: rv.Type(), ptr: rv.Pointer()}, true
	case reflect.Slice:
		if rv.IsNil() {
			return Key{}, false
		}
		return Key{typ: rv.Type(), ptr: rv.Pointer(), n: rv.Len()}, true
	}
	return Key{}, false
}

func (k Key) String() string {
	return fmt.Sprintf("%s@%x/%d", k.typ, k.ptr, k.n)
}

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}
