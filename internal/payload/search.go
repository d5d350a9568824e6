package payload

import (
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds recursion in Search when MaxDepth is unset.
const DefaultMaxDepth = 32

// Search runs depth-first lookups over a payload graph. Nodes already visited
// (by identity) are not entered twice and recursion stops at MaxDepth, so both
// lookups terminate on any input, including programmatically built cycles.
type Search struct {
	MaxDepth int
}

func (s Search) maxDepth() int {
	if s.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return s.MaxDepth
}

// FindByLabel uses a Search with DefaultMaxDepth.
func FindByLabel(obj *Object, label string) (any, bool) {
	return Search{}.ByLabel(obj, label)
}

// FindBySample uses a Search with DefaultMaxDepth.
func FindBySample(obj *Object, sample any) (any, string, bool) {
	return Search{}.BySample(obj, sample)
}

// NormalizeLabel lower-cases s and strips whitespace, '_' and '-'.
func NormalizeLabel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch r {
		case ' ', '\t', '\n', '\r', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ByLabel returns the first value whose normalized key contains, or is
// contained in, the normalized label. Nested objects are searched in place;
// arrays are not descended.
func (s Search) ByLabel(obj *Object, label string) (any, bool) {
	want := NormalizeLabel(label)
	if want == "" || obj == nil {
		return nil, false
	}
	return s.byLabel(obj, want, 0, visited{})
}

func (s Search) byLabel(o *Object, want string, depth int, seen visited) (any, bool) {
	if depth > s.maxDepth() || !seen.enter(o) {
		return nil, false
	}
	for _, k := range o.Keys() {
		v, _ := o.Get(k)
		nk := NormalizeLabel(k)
		if nk != "" && (strings.Contains(nk, want) || strings.Contains(want, nk)) {
			return v, true
		}
		if child, ok := v.(*Object); ok {
			if found, ok := s.byLabel(child, want, depth+1, seen); ok {
				return found, true
			}
		}
	}
	return nil, false
}

// BySample returns the first scalar value, array elements included, whose
// string form equals the trimmed string form of sample, together with the
// path it was found at (for example "events[1].host").
func (s Search) BySample(obj *Object, sample any) (any, string, bool) {
	want := strings.TrimSpace(Stringify(sample))
	if want == "" || obj == nil {
		return nil, "", false
	}
	return s.bySample(obj, want, "", 0, visited{})
}

func (s Search) bySample(node any, want, path string, depth int, seen visited) (any, string, bool) {
	if depth > s.maxDepth() {
		return nil, "", false
	}

	switch n := node.(type) {
	case *Object:
		if !seen.enter(n) {
			return nil, "", false
		}
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if found, p, ok := s.bySample(v, want, childPath, depth+1, seen); ok {
				return found, p, true
			}
		}
	case []any:
		if !seen.enter(n) {
			return nil, "", false
		}
		for i, v := range n {
			if found, p, ok := s.bySample(v, want, path+"["+strconv.Itoa(i)+"]", depth+1, seen); ok {
				return found, p, true
			}
		}
	case nil:
	default:
		if Stringify(n) == want {
			return n, path, true
		}
	}
	return nil, "", false
}

// visited tracks container nodes by identity, not content, so two equal but
// distinct subtrees are both searched.
type visited map[any]struct{}

type sliceID struct {
	head *any
	n    int
}

func (v visited) enter(node any) bool {
	var key any
	switch n := node.(type) {
	case *Object:
		key = n
	case []any:
		if len(n) == 0 {
			return true
		}
		key = sliceID{head: &n[0], n: len(n)}
	default:
		return true
	}
	if _, ok := v[key]; ok {
		return false
	}
	v[key] = struct{}{}
	return true
}
