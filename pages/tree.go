package pages

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/resolver"
)

// Attributes a page inherits from its ancestors when it does not set them.
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// Node is either a *Tree (an intermediate /Pages node) or a *Page (a leaf).
type Node interface {
	// ObjectRef is the reference the node was read from, or the zero
	// reference for nodes that were never stored.
	ObjectRef() core.IndirectRef
	// PageCount is the number of leaves at or below the node.
	PageCount() int
	ToObject() core.Object
}

// Tree is a /Pages node. Count must equal the number of leaves beneath it;
// FindPage and UpdatePage rely on it to skip whole subtrees.
type Tree struct {
	Ref    core.IndirectRef
	Parent *core.IndirectRef
	Kids   []Node
	Count  int
	Attrs  core.Dict // every other entry, including inheritable attributes
}

// ObjectRef implements Node.
func (t *Tree) ObjectRef() core.IndirectRef { return t.Ref }

// PageCount implements Node.
func (t *Tree) PageCount() int { return t.Count }

// FromObject decodes a /Pages dictionary and everything beneath it. Kids
// are followed through resolve; a kid that refers back to one of its
// ancestors is rejected.
func (t *Tree) FromObject(obj core.Object, resolve resolver.Func) error {
	return t.decode(obj, resolve, nil, map[int]bool{})
}

func (t *Tree) decode(obj core.Object, resolve resolver.Func, inherited core.Dict, ancestors map[int]bool) error {
	dict, ok := obj.(core.Dict)
	if !ok {
		return fmt.Errorf("invalid pages node type: %T", obj)
	}
	if name, ok := dict.GetName("Type"); ok && name != "Pages" {
		return fmt.Errorf("expected /Pages node, got /%s", name)
	}

	countObj, err := entry(dict, "Count", resolve)
	if err != nil {
		return err
	}
	count, ok := countObj.(core.Int)
	if !ok {
		return fmt.Errorf("invalid /Count type: %T", countObj)
	}
	kidsObj, err := entry(dict, "Kids", resolve)
	if err != nil {
		return err
	}
	kids, ok := kidsObj.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", kidsObj)
	}

	t.Count = int(count)
	t.Parent = parentRef(dict)
	t.Attrs = core.Dict{}
	for key, value := range dict {
		switch key {
		case "Type", "Kids", "Count", "Parent":
		default:
			t.Attrs[key] = value
		}
	}

	// Entries set here override what the ancestors passed down.
	scope := core.Dict{}
	for key, value := range inherited {
		scope[key] = value
	}
	for _, key := range inheritable {
		if value, ok := t.Attrs[key]; ok {
			scope[key] = value
		}
	}

	ancestors[t.Ref.Number] = true
	defer delete(ancestors, t.Ref.Number)

	t.Kids = make([]Node, 0, len(kids))
	for i, kid := range kids {
		var ref core.IndirectRef
		if r, ok := kid.(core.IndirectRef); ok {
			if ancestors[r.Number] {
				return fmt.Errorf("page tree cycle: kid %d refers to ancestor object %d", i, r.Number)
			}
			ref = r
			if kid, err = resolveValue(r, resolve); err != nil {
				return fmt.Errorf("failed to resolve kid %d: %w", i, err)
			}
		}

		kidDict, ok := kid.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid type: %T", kid)
		}
		typ, _ := kidDict.GetName("Type")
		if typ == "" && kidDict.Has("Kids") {
			typ = "Pages"
		}

		switch typ {
		case "Pages":
			child := &Tree{Ref: ref}
			if err := child.decode(kidDict, resolve, scope, ancestors); err != nil {
				return err
			}
			t.Kids = append(t.Kids, child)
		case "Page", "":
			page := &Page{Ref: ref}
			if err := page.decode(kidDict, resolve, scope); err != nil {
				return err
			}
			t.Kids = append(t.Kids, page)
		default:
			return fmt.Errorf("unexpected page node type: %s", typ)
		}
	}
	return nil
}

// ToObject encodes the node with its kids as references. Kids that were
// never stored are embedded directly.
func (t *Tree) ToObject() core.Object {
	dict := core.Dict{}
	for key, value := range t.Attrs {
		dict[key] = value
	}
	dict["Type"] = core.Name("Pages")
	dict["Count"] = core.Int(t.Count)
	if t.Parent != nil {
		dict["Parent"] = *t.Parent
	}

	kids := make(core.Array, len(t.Kids))
	for i, kid := range t.Kids {
		if ref := kid.ObjectRef(); ref.Number != 0 {
			kids[i] = ref
		} else {
			kids[i] = kid.ToObject()
		}
	}
	dict["Kids"] = kids
	return dict
}

// Pages returns the leaves in document order.
func (t *Tree) Pages() []*Page {
	var pages []*Page
	for _, kid := range t.Kids {
		switch k := kid.(type) {
		case *Tree:
			pages = append(pages, k.Pages()...)
		case *Page:
			pages = append(pages, k)
		}
	}
	return pages
}

// Validate checks that every /Count in the tree equals its leaf total.
func (t *Tree) Validate() error {
	_, err := t.validate()
	return err
}

func (t *Tree) validate() (int, error) {
	total := 0
	for _, kid := range t.Kids {
		switch k := kid.(type) {
		case *Tree:
			n, err := k.validate()
			if err != nil {
				return 0, err
			}
			total += n
		default:
			total += kid.PageCount()
		}
	}
	if total != t.Count {
		return 0, &PageCountMismatchError{Ref: t.Ref, Count: t.Count, Actual: total}
	}
	return total, nil
}

// Recount sets every /Count from the leaves beneath it and returns the
// total.
func (t *Tree) Recount() int {
	total := 0
	for _, kid := range t.Kids {
		if k, ok := kid.(*Tree); ok {
			total += k.Recount()
		} else {
			total += kid.PageCount()
		}
	}
	t.Count = total
	return total
}

// FindPage returns the leaf at index, counting leaves from offset at the
// start of tree. Subtrees that end at or before index are skipped by their
// /Count without being visited.
func FindPage(tree *Tree, offset, index int) (*Page, error) {
	for _, kid := range tree.Kids {
		switch k := kid.(type) {
		case *Tree:
			if offset+k.Count <= index {
				offset += k.Count
				continue
			}
			return FindPage(k, offset, index)
		case *Page:
			if offset == index {
				return k, nil
			}
			offset++
		}
	}
	return nil, &PageNotFoundError{Index: index}
}

// UpdatePage replaces the leaf at index with page, using the same traversal
// as FindPage. A leaf only ever replaces a leaf, so every /Count stays
// valid. The new page takes over the old leaf's reference, parent and
// inherited attributes when it has none of its own.
func UpdatePage(tree *Tree, offset, index int, page *Page) error {
	for i, kid := range tree.Kids {
		switch k := kid.(type) {
		case *Tree:
			if offset+k.Count <= index {
				offset += k.Count
				continue
			}
			return UpdatePage(k, offset, index, page)
		case *Page:
			if offset != index {
				offset++
				continue
			}
			if page.Ref.Number == 0 {
				page.Ref = k.Ref
			}
			if page.Parent == nil {
				page.Parent = k.Parent
			}
			if page.Inherited == nil {
				page.Inherited = k.Inherited
			}
			if page.resolve == nil {
				page.resolve = k.resolve
			}
			tree.Kids[i] = page
			return nil
		}
	}
	return &PageNotFoundError{Index: index}
}

// entry returns a required dictionary value, following a reference.
func entry(dict core.Dict, key string, resolve resolver.Func) (core.Object, error) {
	obj := dict.Get(key)
	if obj == nil {
		return nil, &core.EntryNotFoundError{Key: key}
	}
	resolved, err := resolveValue(obj, resolve)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /%s: %w", key, err)
	}
	return resolved, nil
}

func resolveValue(obj core.Object, resolve resolver.Func) (core.Object, error) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	if resolve == nil {
		return nil, fmt.Errorf("cannot resolve %v without a resolver", ref)
	}
	return resolve(ref)
}

func parentRef(dict core.Dict) *core.IndirectRef {
	if ref, ok := dict.GetIndirectRef("Parent"); ok {
		return &ref
	}
	return nil
}
