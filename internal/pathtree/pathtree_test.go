package pathtree_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/reoring/databind/internal/pathtree"
)

func TestAddAtRemove(t *testing.T) {
	tr := pathtree.New[string]()
	tr.Add("address.city", "cityField")
	tr.Add("address.city", "cityLabel")
	tr.Add("name", "nameField")

	if tr.Len() != 3 {
		t.Fatalf("Len = %d", tr.Len())
	}
	got := tr.At("address.city")
	if diff := cmp.Diff([]string{"cityField", "cityLabel"}, got); diff != "" {
		t.Fatalf("At mismatch (-want +got):\n%s", diff)
	}
	if vs := tr.At("address.street"); vs != nil {
		t.Fatalf("missing path should return nil, got %v", vs)
	}

	if !tr.Remove("address.city", func(v string) bool { return v == "cityField" }) {
		t.Fatalf("Remove failed")
	}
	if tr.Remove("address.city", func(v string) bool { return v == "cityField" }) {
		t.Fatalf("second Remove must report false")
	}
	if diff := cmp.Diff([]string{"cityLabel"}, tr.At("address.city")); diff != "" {
		t.Fatalf("At after remove (-want +got):\n%s", diff)
	}
}

func TestRemovePrunesEmptyNodes(t *testing.T) {
	tr := pathtree.New[int]()
	tr.Add("a.b.c", 1)
	tr.Remove("a.b.c", func(int) bool { return true })

	if tr.Len() != 0 {
		t.Fatalf("Len = %d", tr.Len())
	}
	// a re-added sibling must not see stale structure
	tr.Add("a.x", 2)
	if got := tr.Descendants("a"); len(got) != 1 || got[0].Path != "a.x" {
		t.Fatalf("Descendants = %v", got)
	}
}

func TestAncestorsAndDescendants(t *testing.T) {
	tr := pathtree.New[string]()
	tr.Add("address", "addrBox")
	tr.Add("address.city", "cityField")
	tr.Add("address.geo.lat", "latField")
	tr.Add("name", "nameField")

	anc := tr.Ancestors("address.geo.lat")
	want := []pathtree.Entry[string]{{Path: "address", Value: "addrBox"}}
	if diff := cmp.Diff(want, anc); diff != "" {
		t.Fatalf("Ancestors mismatch (-want +got):\n%s", diff)
	}
	if anc := tr.Ancestors("name"); len(anc) != 0 {
		t.Fatalf("a top-level path has no ancestors: %v", anc)
	}

	desc := tr.Descendants("address")
	wantDesc := []pathtree.Entry[string]{
		{Path: "address.city", Value: "cityField"},
		{Path: "address.geo.lat", Value: "latField"},
	}
	if diff := cmp.Diff(wantDesc, desc); diff != "" {
		t.Fatalf("Descendants mismatch (-want +got):\n%s", diff)
	}
	if desc := tr.Descendants("address.city"); len(desc) != 0 {
		t.Fatalf("a leaf has no descendants: %v", desc)
	}
}

func TestWalkVisitsEverythingInOrder(t *testing.T) {
	tr := pathtree.New[int]()
	tr.Add("b", 2)
	tr.Add("a.y", 12)
	tr.Add("a.x", 11)

	var paths []string
	tr.Walk(func(path string, v int) { paths = append(paths, path) })
	if diff := cmp.Diff([]string{"a.x", "a.y", "b"}, paths); diff != "" {
		t.Fatalf("Walk order mismatch (-want +got):\n%s", diff)
	}
}
