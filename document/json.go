// Package document decodes JSON and YAML documents into plain Go values
// (map[string]any, []any, string, int64, float64, bool, nil) that the
// validator walks like any other value, and writes violation reports back out
// in either format.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/govalid"
)

// DuplicateKeyError reports an object key that occurs twice. Path is the
// property path of the object holding the key.
type DuplicateKeyError struct {
	Key  string
	Path string
	// Line and Col are set for YAML input only.
	Line int
	Col  int
}

func (e *DuplicateKeyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("duplicate key %q at %d:%d", e.Key, e.Line, e.Col)
	}
	if e.Path == "" {
		return fmt.Sprintf("duplicate key %q", e.Key)
	}
	return fmt.Sprintf("duplicate key %q in %s", e.Key, e.Path)
}

// ErrTrailingData is returned when a JSON document is followed by more input.
var ErrTrailingData = errors.New("document: trailing data after JSON value")

// DecodeJSON reads one JSON value. Integers become int64, other numbers
// float64. Duplicate object keys are an error.
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec, "")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

// DecodeJSONBytes is DecodeJSON over a byte slice.
func DecodeJSONBytes(b []byte) (any, error) { return DecodeJSON(bytes.NewReader(b)) }

func decodeValue(dec *json.Decoder, path govalid.Path) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec, path)
		case '[':
			return decodeArray(dec, path)
		}
		return nil, fmt.Errorf("document: unexpected %q at %q", v, path)
	case json.Number:
		return number(v)
	default:
		// string, bool or nil
		return v, nil
	}
}

func decodeObject(dec *json.Decoder, path govalid.Path) (map[string]any, error) {
	m := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("document: expected object key at %q, got %v", path, tok)
		}
		if _, dup := m[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Path: path.String()}
		}
		val, err := decodeValue(dec, path.Key(key))
		if err != nil {
			return nil, err
		}
		m[key] = val
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder, path govalid.Path) ([]any, error) {
	arr := []any{}
	for i := 0; dec.More(); i++ {
		val, err := decodeValue(dec, path.Index(i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func number(n json.Number) (any, error) {
	if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(string(n), 64)
	if err != nil {
		return nil, fmt.Errorf("document: invalid number %q: %w", n, err)
	}
	return f, nil
}
