// Package pathtree indexes values under dotted paths so a lookup can
// collect the exact node plus every ancestor and descendant holder in one
// walk. The binding layer keys its element registrations on it.
package pathtree

import (
	"sort"

	databind "github.com/reoring/databind"
)

type node[T any] struct {
	values   []T
	children map[string]*node[T]
}

func (n *node[T]) empty() bool {
	return len(n.values) == 0 && len(n.children) == 0
}

// Tree is a forest of dotted-path nodes, each holding any number of
// values. The zero value is not usable; construct with New.
type Tree[T any] struct {
	root *node[T]
	size int
}

// Entry pairs a stored value with the path it is registered under.
type Entry[T any] struct {
	Path  string
	Value T
}

// New returns an empty tree.
func New[T any]() *Tree[T] {
	return &Tree[T]{root: &node[T]{}}
}

// Len reports the number of stored values.
func (t *Tree[T]) Len() int { return t.size }

// Add registers v under path. The same value may be registered more than
// once; callers needing set semantics deduplicate with Remove first.
func (t *Tree[T]) Add(path string, v T) {
	cur := t.root
	for _, seg := range databind.SplitPath(path) {
		if cur.children == nil {
			cur.children = map[string]*node[T]{}
		}
		next, ok := cur.children[seg]
		if !ok {
			next = &node[T]{}
			cur.children[seg] = next
		}
		cur = next
	}
	cur.values = append(cur.values, v)
	t.size++
}

// Remove drops the first value under path for which match reports true.
// Emptied nodes are pruned. It reports whether a value was removed.
func (t *Tree[T]) Remove(path string, match func(T) bool) bool {
	segs := databind.SplitPath(path)
	chain := make([]*node[T], 0, len(segs)+1)
	cur := t.root
	chain = append(chain, cur)
	for _, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			return false
		}
		cur = next
		chain = append(chain, cur)
	}
	idx := -1
	for i, v := range cur.values {
		if match(v) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	cur.values = append(cur.values[:idx], cur.values[idx+1:]...)
	t.size--

	// prune emptied nodes bottom-up
	for i := len(chain) - 1; i > 0; i-- {
		if !chain[i].empty() {
			break
		}
		delete(chain[i-1].children, segs[i-1])
	}
	return true
}

// At returns the values registered exactly under path.
func (t *Tree[T]) At(path string) []T {
	n := t.lookup(path)
	if n == nil {
		return nil
	}
	return append([]T(nil), n.values...)
}

// Ancestors returns the entries registered on the proper prefixes of path,
// root-most first.
func (t *Tree[T]) Ancestors(path string) []Entry[T] {
	var out []Entry[T]
	segs := databind.SplitPath(path)
	cur := t.root
	walked := ""
	for i, seg := range segs {
		next, ok := cur.children[seg]
		if !ok {
			return out
		}
		cur = next
		walked = databind.ChildPath(walked, seg)
		if i == len(segs)-1 {
			// the exact node is not an ancestor
			break
		}
		for _, v := range cur.values {
			out = append(out, Entry[T]{Path: walked, Value: v})
		}
	}
	return out
}

// Descendants returns the entries registered strictly below path, in
// sorted path order.
func (t *Tree[T]) Descendants(path string) []Entry[T] {
	n := t.lookup(path)
	if n == nil {
		return nil
	}
	var out []Entry[T]
	var walk func(base string, cur *node[T])
	walk = func(base string, cur *node[T]) {
		names := make([]string, 0, len(cur.children))
		for name := range cur.children {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			child := cur.children[name]
			childPath := databind.ChildPath(base, name)
			for _, v := range child.values {
				out = append(out, Entry[T]{Path: childPath, Value: v})
			}
			walk(childPath, child)
		}
	}
	walk(path, n)
	return out
}

// Walk visits every entry in sorted path order.
func (t *Tree[T]) Walk(fn func(path string, v T)) {
	for _, e := range t.entries("", t.root) {
		fn(e.Path, e.Value)
	}
}

func (t *Tree[T]) entries(base string, cur *node[T]) []Entry[T] {
	var out []Entry[T]
	for _, v := range cur.values {
		out = append(out, Entry[T]{Path: base, Value: v})
	}
	names := make([]string, 0, len(cur.children))
	for name := range cur.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, t.entries(databind.ChildPath(base, name), cur.children[name])...)
	}
	return out
}

func (t *Tree[T]) lookup(path string) *node[T] {
	cur := t.root
	for _, seg := range databind.SplitPath(path) {
		next, ok := cur.children[seg]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}
