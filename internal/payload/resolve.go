package payload

import (
	"regexp"
	"strconv"
	"strings"
)

// segmentRe splits "key[1][2]" into the key and its index suffix.
var segmentRe = regexp.MustCompile(`^([^\[\]]*)((?:\[\d+\])*)$`)

var indexRe = regexp.MustCompile(`\[(\d+)\]`)

// Resolve looks up a dotted path such as "xdr_event.display_name" or
// "detected_values[2]" in obj. Every key is tried exactly first and then
// case-insensitively. A missing segment, a non-object intermediate, an index
// out of range or a JSON null all yield ok == false; absence is never an error.
func Resolve(obj *Object, path string) (any, bool) {
	if obj == nil || path == "" {
		return nil, false
	}

	if !strings.Contains(path, ".") {
		if v, ok := obj.GetFold(path); ok {
			return present(v)
		}
		if !strings.Contains(path, "[") {
			return nil, false
		}
	}

	var cur any = obj
	for _, seg := range strings.Split(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return present(cur)
}

func step(cur any, seg string) (any, bool) {
	if o, ok := cur.(*Object); ok {
		if v, ok := o.GetFold(seg); ok {
			return v, true
		}
	}

	m := segmentRe.FindStringSubmatch(seg)
	if m == nil || m[2] == "" {
		return nil, false
	}

	if m[1] != "" {
		o, ok := cur.(*Object)
		if !ok {
			return nil, false
		}
		v, ok := o.GetFold(m[1])
		if !ok {
			return nil, false
		}
		cur = v
	}

	for _, im := range indexRe.FindAllStringSubmatch(m[2], -1) {
		idx, err := strconv.Atoi(im[1])
		if err != nil {
			return nil, false
		}
		arr, ok := cur.([]any)
		if !ok || idx < 0 || idx >= len(arr) {
			return nil, false
		}
		cur = arr[idx]
	}
	return cur, true
}

func present(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	return v, true
}

// ResolveString is Resolve followed by Stringify.
func ResolveString(obj *Object, path string) (string, bool) {
	v, ok := Resolve(obj, path)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// FirstString returns the first path among paths that resolves to a
// non-blank value.
func FirstString(obj *Object, paths ...string) (string, bool) {
	for _, p := range paths {
		if s, ok := ResolveString(obj, p); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}
