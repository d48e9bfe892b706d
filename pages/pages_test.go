package pages

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tsawler/pdfstore/core"
)

// objectMap resolves references from a map, like a loaded document would.
type objectMap map[int]core.Object

func (m objectMap) resolve(ref core.IndirectRef) (core.Object, error) {
	obj, ok := m[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	return obj, nil
}

func ref(n int) core.IndirectRef { return core.IndirectRef{Number: n} }

func letter() core.Array {
	return core.Array{core.Int(0), core.Int(0), core.Int(612), core.Int(792)}
}

// twoSubtrees has a root (2) with subtrees of 2 (20) and 3 (21) leaves;
// leaves are objects 10 to 14.
func twoSubtrees() objectMap {
	objs := objectMap{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2), "Version": core.Name("1.7")},
		2: core.Dict{
			"Type":     core.Name("Pages"),
			"Count":    core.Int(5),
			"Kids":     core.Array{ref(20), ref(21)},
			"MediaBox": letter(),
		},
		20: core.Dict{"Type": core.Name("Pages"), "Parent": ref(2), "Count": core.Int(2), "Kids": core.Array{ref(10), ref(11)}},
		21: core.Dict{
			"Type":   core.Name("Pages"),
			"Parent": ref(2),
			"Count":  core.Int(3),
			"Kids":   core.Array{ref(12), ref(13), ref(14)},
			"Rotate": core.Int(90),
		},
	}
	for i := 10; i < 15; i++ {
		parent := 20
		if i >= 12 {
			parent = 21
		}
		objs[i] = core.Dict{"Type": core.Name("Page"), "Parent": ref(parent), "Label": core.Int(i)}
	}
	return objs
}

func decodeCatalog(t *testing.T, objs objectMap) *Catalog {
	t.Helper()
	var cat Catalog
	if err := cat.FromObject(objs[1], objs.resolve); err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}
	return &cat
}

func TestCatalogFromObject(t *testing.T) {
	cat := decodeCatalog(t, twoSubtrees())

	if cat.Pages.Ref != ref(2) {
		t.Errorf("Pages.Ref = %v, want 2 0 R", cat.Pages.Ref)
	}
	if cat.Count() != 5 {
		t.Errorf("Count = %d, want 5", cat.Count())
	}
	if cat.Version() != "1.7" {
		t.Errorf("Version = %q, want 1.7", cat.Version())
	}
	if err := cat.Pages.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}

	want := core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2), "Version": core.Name("1.7")}
	if diff := cmp.Diff(core.Object(want), cat.ToObject()); diff != "" {
		t.Errorf("ToObject mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		obj  core.Object
	}{
		{"not a dictionary", core.Int(1)},
		{"wrong type", core.Dict{"Type": core.Name("Pages"), "Pages": ref(2)}},
		{"missing pages", core.Dict{"Type": core.Name("Catalog")}},
		{"unresolvable pages", core.Dict{"Type": core.Name("Catalog"), "Pages": ref(99)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cat Catalog
			if err := cat.FromObject(tt.obj, objectMap{}.resolve); err == nil {
				t.Error("expected error")
			}
		})
	}

	var cat Catalog
	err := cat.FromObject(core.Dict{"Type": core.Name("Catalog")}, nil)
	if !errors.Is(err, core.ErrEntryNotFound) {
		t.Errorf("missing /Pages: got %v, want ErrEntryNotFound", err)
	}
}

func TestCatalogMetadata(t *testing.T) {
	objs := twoSubtrees()
	objs[1].(core.Dict)["Metadata"] = ref(30)
	objs[30] = &core.Stream{Dict: core.Dict{"Type": core.Name("Metadata")}, Data: []byte("<xmp/>")}

	stream, err := decodeCatalog(t, objs).Metadata()
	if err != nil {
		t.Fatalf("Metadata failed: %v", err)
	}
	if string(stream.Data) != "<xmp/>" {
		t.Errorf("metadata = %q", stream.Data)
	}
}

func TestFindPage(t *testing.T) {
	tree := decodeCatalog(t, twoSubtrees()).Pages

	for index := 0; index < 5; index++ {
		page, err := FindPage(tree, 0, index)
		if err != nil {
			t.Fatalf("FindPage(%d) failed: %v", index, err)
		}
		if page.Ref != ref(10+index) {
			t.Errorf("FindPage(%d) = %v, want %d 0 R", index, page.Ref, 10+index)
		}
	}

	// The fourth leaf is the second leaf of the second subtree.
	page, _ := FindPage(tree, 0, 3)
	second := tree.Kids[1].(*Tree).Kids[1].(*Page)
	if page != second {
		t.Error("FindPage(3) did not return the second leaf of the second subtree")
	}

	_, err := FindPage(tree, 0, 5)
	var notFound *PageNotFoundError
	if !errors.As(err, &notFound) || notFound.Index != 5 {
		t.Errorf("FindPage(5): got %v, want PageNotFoundError{5}", err)
	}
}

func TestFindPageSkipsByCount(t *testing.T) {
	tree := decodeCatalog(t, twoSubtrees()).Pages

	// A subtree that starts before the target and whose count ends at or
	// before it is never entered, so its kids do not matter.
	tree.Kids[0].(*Tree).Kids = nil

	page, err := FindPage(tree, 0, 2)
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if page.Ref != ref(12) {
		t.Errorf("got %v, want 12 0 R", page.Ref)
	}

	if _, err := FindPage(tree, 0, 1); err == nil {
		t.Error("expected PageNotFoundError when a count overstates its subtree")
	}
}

func TestUpdatePage(t *testing.T) {
	tree := decodeCatalog(t, twoSubtrees()).Pages

	replacement := NewPage(core.Dict{"Label": core.String("new")})
	if err := UpdatePage(tree, 0, 3, replacement); err != nil {
		t.Fatalf("UpdatePage failed: %v", err)
	}

	got, err := FindPage(tree, 0, 3)
	if err != nil {
		t.Fatalf("FindPage failed: %v", err)
	}
	if got != replacement {
		t.Fatal("FindPage did not return the replacement")
	}
	if got.Ref != ref(13) || got.Parent == nil || *got.Parent != ref(21) {
		t.Errorf("replacement took ref %v parent %v, want 13 0 R under 21 0 R", got.Ref, got.Parent)
	}
	if got.Rotate() != 90 {
		t.Errorf("replacement lost inherited /Rotate: %d", got.Rotate())
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate after update: %v", err)
	}

	for _, index := range []int{0, 1, 2, 4} {
		page, _ := FindPage(tree, 0, index)
		if page.Ref == ref(13) {
			t.Errorf("index %d changed", index)
		}
	}

	if err := UpdatePage(tree, 0, 7, NewPage(nil)); err == nil {
		t.Error("expected error for an index past the last page")
	}
}

func TestTreeValidateAndRecount(t *testing.T) {
	objs := twoSubtrees()
	objs[21].(core.Dict)["Count"] = core.Int(4)
	objs[2].(core.Dict)["Count"] = core.Int(6)

	tree := decodeCatalog(t, objs).Pages
	err := tree.Validate()
	var mismatch *PageCountMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("Validate: got %v, want PageCountMismatchError", err)
	}
	if mismatch.Ref != ref(21) || mismatch.Count != 4 || mismatch.Actual != 3 {
		t.Errorf("mismatch = %+v", mismatch)
	}

	if n := tree.Recount(); n != 5 {
		t.Errorf("Recount = %d, want 5", n)
	}
	if err := tree.Validate(); err != nil {
		t.Errorf("Validate after Recount: %v", err)
	}
}

func TestTreeCycle(t *testing.T) {
	objs := twoSubtrees()
	objs[21].(core.Dict)["Kids"] = core.Array{ref(12), ref(2)}

	var cat Catalog
	err := cat.FromObject(objs[1], objs.resolve)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Errorf("got %v, want page tree cycle error", err)
	}
}

func TestTreeSharedLeafIsNotACycle(t *testing.T) {
	objs := twoSubtrees()
	objs[20].(core.Dict)["Kids"] = core.Array{ref(10), ref(10)}

	if err := decodeCatalog(t, objs).Pages.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestTreeToObject(t *testing.T) {
	tree := decodeCatalog(t, twoSubtrees()).Pages

	want := core.Dict{
		"Type":     core.Name("Pages"),
		"Count":    core.Int(5),
		"Kids":     core.Array{ref(20), ref(21)},
		"MediaBox": letter(),
	}
	if diff := cmp.Diff(core.Object(want), tree.ToObject()); diff != "" {
		t.Errorf("ToObject mismatch (-want +got):\n%s", diff)
	}

	leaf := tree.Kids[0].(*Tree).Kids[1].(*Page)
	wantLeaf := core.Dict{"Type": core.Name("Page"), "Parent": ref(20), "Label": core.Int(11)}
	if diff := cmp.Diff(core.Object(wantLeaf), leaf.ToObject()); diff != "" {
		t.Errorf("page ToObject mismatch (-want +got):\n%s", diff)
	}

	unsaved := &Tree{Count: 1, Kids: []Node{NewPage(nil)}}
	kids := unsaved.ToObject().(core.Dict)["Kids"].(core.Array)
	if _, ok := kids[0].(core.Dict); !ok {
		t.Errorf("unsaved kid encoded as %T, want an embedded dictionary", kids[0])
	}
}

func TestTreeMalformed(t *testing.T) {
	tests := []struct {
		name string
		obj  core.Object
	}{
		{"missing count", core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{}}},
		{"missing kids", core.Dict{"Type": core.Name("Pages"), "Count": core.Int(0)}},
		{"bad count", core.Dict{"Type": core.Name("Pages"), "Count": core.Name("x"), "Kids": core.Array{}}},
		{"bad kids", core.Dict{"Type": core.Name("Pages"), "Count": core.Int(0), "Kids": core.Int(1)}},
		{"bad kid", core.Dict{"Type": core.Name("Pages"), "Count": core.Int(1), "Kids": core.Array{core.Int(3)}}},
		{"unknown node type", core.Dict{"Type": core.Name("Pages"), "Count": core.Int(1), "Kids": core.Array{core.Dict{"Type": core.Name("Font")}}}},
		{"missing kid", core.Dict{"Type": core.Name("Pages"), "Count": core.Int(1), "Kids": core.Array{ref(99)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tree Tree
			if err := tree.FromObject(tt.obj, objectMap{}.resolve); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPageMediaBox(t *testing.T) {
	page := NewPage(core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0), core.Real(612.5), core.Int(792)}})
	mediaBox, err := page.MediaBox()
	if err != nil {
		t.Fatalf("failed to get MediaBox: %v", err)
	}
	if diff := cmp.Diff([]float64{0, 0, 612.5, 792}, mediaBox); diff != "" {
		t.Errorf("MediaBox mismatch (-want +got):\n%s", diff)
	}
}

func TestPageInheritedAttributes(t *testing.T) {
	tree := decodeCatalog(t, twoSubtrees()).Pages

	first, _ := FindPage(tree, 0, 0)
	last, _ := FindPage(tree, 0, 4)

	for _, page := range []*Page{first, last} {
		w, err := page.Width()
		if err != nil {
			t.Fatalf("Width failed: %v", err)
		}
		h, err := page.Height()
		if err != nil {
			t.Fatalf("Height failed: %v", err)
		}
		if w != 612 || h != 792 {
			t.Errorf("page %v: %vx%v, want 612x792", page.Ref, w, h)
		}
	}

	if first.Rotate() != 0 || last.Rotate() != 90 {
		t.Errorf("Rotate = %d, %d, want 0, 90", first.Rotate(), last.Rotate())
	}
}

func TestPageCropBox(t *testing.T) {
	page := NewPage(core.Dict{
		"MediaBox": letter(),
		"CropBox":  core.Array{core.Int(10), core.Int(10), core.Int(600), core.Int(780)},
	})
	cropBox, err := page.CropBox()
	if err != nil {
		t.Fatalf("failed to get CropBox: %v", err)
	}
	if cropBox[0] != 10 || cropBox[3] != 780 {
		t.Errorf("CropBox = %v", cropBox)
	}

	page = NewPage(core.Dict{"MediaBox": letter()})
	cropBox, err = page.CropBox()
	if err != nil {
		t.Fatalf("CropBox should default to MediaBox: %v", err)
	}
	if cropBox[2] != 612 {
		t.Errorf("CropBox = %v, want MediaBox", cropBox)
	}
}

func TestPageResources(t *testing.T) {
	objs := objectMap{
		5: core.Dict{"Font": core.Dict{"F1": ref(6)}},
	}
	page := &Page{Dict: core.Dict{"Resources": ref(5)}, resolve: objs.resolve}

	resources, err := page.Resources()
	if err != nil {
		t.Fatalf("failed to get resources: %v", err)
	}
	if !resources.Has("Font") {
		t.Error("expected /Font in resources")
	}

	inherited := &Page{Dict: core.Dict{}, Inherited: core.Dict{"Resources": core.Dict{"XObject": core.Dict{}}}}
	resources, err = inherited.Resources()
	if err != nil {
		t.Fatalf("failed to get inherited resources: %v", err)
	}
	if !resources.Has("XObject") {
		t.Error("expected inherited /XObject")
	}

	if _, err := NewPage(nil).Resources(); err == nil {
		t.Error("expected error for a page without resources")
	}
}

func TestPageContents(t *testing.T) {
	objs := objectMap{
		7: &core.Stream{Dict: core.Dict{}, Data: []byte("BT ET")},
		8: &core.Stream{Dict: core.Dict{}, Data: []byte("q Q")},
		9: core.Array{ref(7), ref(8)},
	}

	single := &Page{Dict: core.Dict{"Contents": ref(7)}, resolve: objs.resolve}
	contents, err := single.Contents()
	if err != nil || len(contents) != 1 {
		t.Fatalf("Contents = %v, %v", contents, err)
	}

	array := &Page{Dict: core.Dict{"Contents": ref(9)}, resolve: objs.resolve}
	contents, err = array.Contents()
	if err != nil {
		t.Fatalf("Contents failed: %v", err)
	}
	if len(contents) != 2 || string(contents[1].(*core.Stream).Data) != "q Q" {
		t.Errorf("Contents = %v", contents)
	}

	contents, err = NewPage(nil).Contents()
	if err != nil || contents != nil {
		t.Errorf("empty page Contents = %v, %v", contents, err)
	}

	if _, err := (&Page{Dict: core.Dict{"Contents": ref(7)}}).Contents(); err == nil {
		t.Error("expected error resolving without a resolver")
	}
}

func TestPageMissingMediaBox(t *testing.T) {
	page := NewPage(nil)
	if _, err := page.MediaBox(); err == nil {
		t.Error("expected error for missing MediaBox")
	}
	if _, err := page.Width(); err == nil {
		t.Error("expected error for Width without MediaBox")
	}

	bad := NewPage(core.Dict{"MediaBox": core.Array{core.Int(0), core.Int(0)}})
	if _, err := bad.MediaBox(); err == nil {
		t.Error("expected error for a short MediaBox")
	}
}

func TestPageFromObject(t *testing.T) {
	var page Page
	if err := page.FromObject(core.Dict{"Type": core.Name("Page"), "Parent": ref(2), "Rotate": core.Int(180)}, nil); err != nil {
		t.Fatalf("FromObject failed: %v", err)
	}
	if page.Rotate() != 180 || page.Parent == nil || *page.Parent != ref(2) {
		t.Errorf("decoded page = %+v", page)
	}

	if err := page.FromObject(core.Dict{"Type": core.Name("Pages")}, nil); err == nil {
		t.Error("expected error for a /Pages dictionary")
	}
	if err := page.FromObject(core.Array{}, nil); err == nil {
		t.Error("expected error for an array")
	}
}
