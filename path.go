package govalid

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is a property path in dot/bracket notation, for example
// "customer.addresses[1].street". The zero value is the root.
type Path string

// Field appends a property name. Names starting with "[" are appended as is.
func (p Path) Field(name string) Path { return Path(AppendPath(string(p), name)) }

// Index appends a bracketed list index.
func (p Path) Index(i int) Path { return p + Path("["+strconv.Itoa(i)+"]") }

// Key appends a bracketed map key.
func (p Path) Key(k any) Path { return p + Path("["+keyString(k)+"]") }

// Append appends a relative path such as "[name]" or "address.city".
func (p Path) Append(sub string) Path { return Path(AppendPath(string(p), sub)) }

func (p Path) String() string { return string(p) }

// AppendPath joins base and sub. Bracketed segments attach directly,
// property names attach with a dot.
func AppendPath(base, sub string) string {
	if sub == "" {
		return base
	}
	if strings.HasPrefix(sub, "[") {
		return base + sub
	}
	if base == "" {
		return sub
	}
	return base + "." + sub
}

func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(k)
	}
}
