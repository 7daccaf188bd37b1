package databind

import "strings"

// Field paths are dot-separated strings addressing possibly nested fields,
// for example "addr.city". The empty path addresses the whole value.

// SplitPath splits a dotted field path into its segments. The empty path
// yields nil.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// JoinPath assembles segments into a dotted path, skipping empty segments.
func JoinPath(segs ...string) string {
	parts := segs[:0:0]
	for _, s := range segs {
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ".")
}

// ChildPath extends path by one segment.
func ChildPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "." + seg
}

// ParentPath strips the last segment; top-level paths report the empty path.
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// LastSegment reports the final segment of the path.
func LastSegment(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// IsAncestorPath reports whether ancestor strictly contains path, segment by
// segment. The empty path is an ancestor of every non-empty path.
func IsAncestorPath(ancestor, path string) bool {
	if path == "" || ancestor == path {
		return false
	}
	if ancestor == "" {
		return true
	}
	return strings.HasPrefix(path, ancestor+".")
}
