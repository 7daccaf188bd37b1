package databind_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	databind "github.com/reoring/databind"
)

func TestSplitAndJoinPath(t *testing.T) {
	if diff := cmp.Diff([]string{"addr", "city"}, databind.SplitPath("addr.city")); diff != "" {
		t.Fatalf("split mismatch (-want +got):\n%s", diff)
	}
	if got := databind.SplitPath(""); got != nil {
		t.Fatalf("empty path should split to nil, got %#v", got)
	}
	if got := databind.JoinPath("addr", "", "city"); got != "addr.city" {
		t.Fatalf("join skipped segment handling broken: %q", got)
	}
}

func TestParentAndChildPath(t *testing.T) {
	if got := databind.ParentPath("addr.city"); got != "addr" {
		t.Fatalf("parent of addr.city = %q", got)
	}
	if got := databind.ParentPath("name"); got != "" {
		t.Fatalf("top-level parent should be empty, got %q", got)
	}
	if got := databind.ChildPath("", "name"); got != "name" {
		t.Fatalf("child of root = %q", got)
	}
	if got := databind.LastSegment("addr.city"); got != "city" {
		t.Fatalf("last segment = %q", got)
	}
}

func TestIsAncestorPath(t *testing.T) {
	cases := []struct {
		ancestor, path string
		want           bool
	}{
		{"addr", "addr.city", true},
		{"addr", "addr", false},
		{"addr", "address", false},
		{"", "name", true},
		{"addr.city", "addr", false},
	}
	for _, c := range cases {
		if got := databind.IsAncestorPath(c.ancestor, c.path); got != c.want {
			t.Fatalf("IsAncestorPath(%q, %q) = %v want %v", c.ancestor, c.path, got, c.want)
		}
	}
}

func TestKindCheck(t *testing.T) {
	if !databind.KindNumber.Check(42) || !databind.KindNumber.Check(4.2) {
		t.Fatalf("number kind should accept int and float")
	}
	if databind.KindNumber.Check("42") {
		t.Fatalf("number kind should reject strings")
	}
	if !databind.KindArray.Check([]any{1}) || !databind.KindArray.Check([]string{"a"}) {
		t.Fatalf("array kind should accept slices")
	}
	if !databind.KindObject.Check(map[string]any{}) {
		t.Fatalf("object kind should accept map[string]any")
	}
	if !databind.KindString.Check(nil) {
		t.Fatalf("nil passes every kind; null handling is not the kind check's job")
	}
}

func TestFieldTypeSame(t *testing.T) {
	a := databind.FieldType{Kind: databind.KindString}
	b := databind.FieldType{Kind: databind.KindString}
	c := databind.FieldType{Kind: databind.KindNumber}
	if !a.Same(b) || a.Same(c) {
		t.Fatalf("kind comparison broken")
	}
	if !a.Same(a) {
		t.Fatalf("identity should compare equal")
	}
	if got, ok := databind.KindOf("boolean"); !ok || got != databind.KindBool {
		t.Fatalf("KindOf(boolean) = %v, %v", got, ok)
	}
	if _, ok := databind.KindOf("decimal"); ok {
		t.Fatalf("unknown kind name must not resolve")
	}
}
