// Package payload holds the schemaless alert document and the lookups that run
// over it: dotted path resolution and fuzzy label/value search.
//
// A decoded payload is made of *Object (JSON objects, key order preserved),
// []any (arrays), string, json.Number, bool and nil.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrNotObject is returned by Parse when the document is valid JSON but its
// top-level value is not an object.
var ErrNotObject = errors.New("alert payload is not a JSON object")

// ErrTooDeep is returned by Parse when objects and arrays nest more than
// MaxNesting levels.
var ErrTooDeep = errors.New("alert payload nests too deeply")

// MaxNesting bounds the container depth Parse accepts, which keeps every
// recursive walk over a parsed payload bounded too.
const MaxNesting = 512

// Object is a JSON object that remembers the order its keys were decoded in.
type Object struct {
	keys   []string
	fields map[string]any
}

func NewObject() *Object {
	return &Object{fields: map[string]any{}}
}

// Set adds or replaces key. A replaced key keeps its original position.
func (o *Object) Set(key string, value any) {
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = value
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// GetFold tries key exactly, then scans keys in document order for a
// case-insensitive match.
func (o *Object) GetFold(key string) (any, bool) {
	if v, ok := o.Get(key); ok {
		return v, true
	}
	if o == nil {
		return nil, false
	}
	for _, k := range o.keys {
		if strings.EqualFold(k, key) {
			return o.fields[k], true
		}
	}
	return nil, false
}

// Keys returns the keys in document order. The slice must not be modified.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return o.keys
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.fields[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Parse decodes a JSON document into an *Object. Malformed JSON, trailing data
// and non-object documents are errors; nothing else in this package fails.
func Parse(data []byte) (*Object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec, 0)
	if err != nil {
		return nil, errors.Wrap(err, "parse alert payload")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("parse alert payload: unexpected data after top-level value")
	}

	obj, ok := v.(*Object)
	if !ok {
		return nil, ErrNotObject
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder, depth int) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		return tok, nil
	}
	if depth++; depth > MaxNesting {
		return nil, errors.Wrapf(ErrTooDeep, "more than %d levels", MaxNesting)
	}

	switch delim {
	case '{':
		obj := NewObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, errors.Newf("object key is %T, not string", kt)
			}
			val, err := decodeValue(dec, depth)
			if err != nil {
				return nil, err
			}
			obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeValue(dec, depth)
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
	return nil, errors.Newf("unexpected delimiter %q", rune(delim))
}

// FromMap converts a Go map (for example one decoded by encoding/json or bson)
// into an *Object. Keys are ordered lexically since maps carry no order.
func FromMap(m map[string]any) *Object {
	obj := NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj.Set(k, convert(m[k]))
	}
	return obj
}

func convert(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = convert(e)
		}
		return out
	default:
		return v
	}
}

// Stringify renders a payload value the way it is displayed in a report.
// Null is the empty string; objects and arrays are compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case *Object, []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// IsBlank reports whether v renders as an empty or whitespace-only string.
func IsBlank(v any) bool {
	return strings.TrimSpace(Stringify(v)) == ""
}
