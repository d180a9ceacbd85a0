// Package nodewalk walks loosely-typed document trees: the map[string]any,
// []any and scalar values produced by decoding JSON or YAML.
//
// Every pass that rewrites or scans a document goes through Transform or
// Inspect instead of hand-rolling its own "if array / if object" recursion.
package nodewalk

import (
	"fmt"
	"sort"
)

type action int

const (
	actionKeep action = iota
	actionReplace
	actionDrop
)

// Result tells Transform what to do with a visited node.
type Result struct {
	action action
	value  any
}

// Unchanged keeps the node and descends into its children.
var Unchanged = Result{}

// Replace substitutes the node with v. The replacement is not walked.
func Replace(v any) Result {
	return Result{action: actionReplace, value: v}
}

// Drop removes the node from its parent map or slice.
// Dropping the root yields nil.
func Drop() Result {
	return Result{action: actionDrop}
}

// VisitFunc is called for every node. key is the map key the node is stored
// under, or "" for slice elements and the root.
type VisitFunc func(key string, node any) Result

// Transform walks node depth-first and returns a rebuilt tree. Maps and
// slices are always copied, so the input is never modified.
func Transform(node any, fn VisitFunc) any {
	out, _ := transform("", node, fn)
	return out
}

// TransformMap is Transform for a document root.
func TransformMap(m map[string]any, fn VisitFunc) map[string]any {
	out, ok := Transform(m, fn).(map[string]any)
	if !ok {
		return nil
	}
	return out
}

func transform(key string, node any, fn VisitFunc) (any, bool) {
	res := fn(key, node)
	switch res.action {
	case actionDrop:
		return nil, false
	case actionReplace:
		return res.value, true
	}

	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			if nv, keep := transform(k, v, fn); keep {
				out[k] = nv
			}
		}
		return out, true
	case []any:
		out := make([]any, 0, len(n))
		for _, v := range n {
			if nv, keep := transform("", v, fn); keep {
				out = append(out, nv)
			}
		}
		return out, true
	default:
		return node, true
	}
}

// InspectFunc is called for every node during Inspect. Returning false skips
// the children of the node.
type InspectFunc func(key string, node any) bool

// Inspect walks node in pre-order without modifying it. Map keys are visited
// in sorted order so that callers collecting results get a stable order.
func Inspect(node any, fn InspectFunc) {
	inspect("", node, fn)
}

func inspect(key string, node any, fn InspectFunc) {
	if !fn(key, node) {
		return
	}
	switch n := node.(type) {
	case map[string]any:
		for _, k := range SortedKeys(n) {
			inspect(k, n[k], fn)
		}
	case []any:
		for _, v := range n {
			inspect("", v, fn)
		}
	}
}

// Clone returns a deep copy of node.
func Clone(node any) any {
	return Transform(node, func(string, any) Result { return Unchanged })
}

// CloneMap returns a deep copy of m. A nil map yields nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return TransformMap(m, func(string, any) Result { return Unchanged })
}

// Normalize converts the map[any]any values some YAML decoders produce for
// mappings with non-string keys (such as unquoted status codes) into
// map[string]any, recursively.
func Normalize(node any) any {
	switch n := node.(type) {
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[fmt.Sprint(k)] = Normalize(v)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = Normalize(v)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Normalize(v)
		}
		return out
	default:
		return node
	}
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns node as a map, or nil when it is not one.
func Map(node any) map[string]any {
	m, _ := node.(map[string]any)
	return m
}

// Slice returns node as a slice, or nil when it is not one.
func Slice(node any) []any {
	s, _ := node.([]any)
	return s
}

// String returns node as a string, or "" when it is not one.
func String(node any) string {
	s, _ := node.(string)
	return s
}
