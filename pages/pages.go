package pages

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/resolver"
)

// Catalog represents the PDF document catalog (root of document structure)
type Catalog struct {
	Pages *Tree
	Dict  core.Dict // entries other than /Type and /Pages

	resolve resolver.Func
}

// FromObject decodes a catalog dictionary together with its page tree.
func (c *Catalog) FromObject(obj core.Object, resolve resolver.Func) error {
	dict, ok := obj.(core.Dict)
	if !ok {
		return fmt.Errorf("invalid catalog type: %T", obj)
	}
	if name, ok := dict.GetName("Type"); ok && name != "Catalog" {
		return fmt.Errorf("expected /Catalog, got /%s", name)
	}

	pagesObj := dict.Get("Pages")
	if pagesObj == nil {
		return &core.EntryNotFoundError{Key: "Pages"}
	}
	tree := &Tree{}
	if ref, ok := pagesObj.(core.IndirectRef); ok {
		tree.Ref = ref
	}
	resolved, err := resolveValue(pagesObj, resolve)
	if err != nil {
		return fmt.Errorf("failed to resolve /Pages: %w", err)
	}
	if err := tree.FromObject(resolved, resolve); err != nil {
		return fmt.Errorf("failed to decode page tree: %w", err)
	}

	c.Pages = tree
	c.resolve = resolve
	c.Dict = core.Dict{}
	for key, value := range dict {
		if key != "Type" && key != "Pages" {
			c.Dict[key] = value
		}
	}
	return nil
}

// ToObject encodes the catalog. The page tree is referenced, not embedded,
// when it has been stored.
func (c *Catalog) ToObject() core.Object {
	dict := core.Dict{}
	for key, value := range c.Dict {
		dict[key] = value
	}
	dict["Type"] = core.Name("Catalog")
	if c.Pages != nil {
		if c.Pages.Ref.Number != 0 {
			dict["Pages"] = c.Pages.Ref
		} else {
			dict["Pages"] = c.Pages.ToObject()
		}
	}
	return dict
}

// Count returns the total number of pages
func (c *Catalog) Count() int {
	if c.Pages == nil {
		return 0
	}
	return c.Pages.Count
}

// Metadata returns the metadata stream if present
func (c *Catalog) Metadata() (*core.Stream, error) {
	metadataRef := c.Dict.Get("Metadata")
	if metadataRef == nil {
		return nil, nil // Optional
	}

	metadataObj, err := resolveValue(metadataRef, c.resolve)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve /Metadata: %w", err)
	}

	stream, ok := metadataObj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("invalid /Metadata type: %T", metadataObj)
	}

	return stream, nil
}

// Version returns the version entry if present
func (c *Catalog) Version() string {
	if name, ok := c.Dict.GetName("Version"); ok {
		return string(name)
	}
	return ""
}

// Page represents a single PDF page
type Page struct {
	Ref    core.IndirectRef
	Parent *core.IndirectRef
	Dict   core.Dict // the page's own entries, without /Type and /Parent

	// Inherited holds the inheritable attributes in effect at the page's
	// parent. Entries in Dict take precedence.
	Inherited core.Dict

	resolve resolver.Func
}

// NewPage creates a page that has not been stored yet.
func NewPage(dict core.Dict) *Page {
	if dict == nil {
		dict = core.Dict{}
	}
	return &Page{Dict: dict}
}

// ObjectRef implements Node.
func (p *Page) ObjectRef() core.IndirectRef { return p.Ref }

// PageCount implements Node.
func (p *Page) PageCount() int { return 1 }

// FromObject decodes a standalone page dictionary. Inherited attributes are
// only known when the page is decoded as part of a tree.
func (p *Page) FromObject(obj core.Object, resolve resolver.Func) error {
	dict, ok := obj.(core.Dict)
	if !ok {
		return fmt.Errorf("invalid page type: %T", obj)
	}
	return p.decode(dict, resolve, nil)
}

func (p *Page) decode(dict core.Dict, resolve resolver.Func, inherited core.Dict) error {
	if name, ok := dict.GetName("Type"); ok && name != "Page" {
		return fmt.Errorf("expected /Page, got /%s", name)
	}
	p.Parent = parentRef(dict)
	p.Inherited = inherited
	p.resolve = resolve
	p.Dict = core.Dict{}
	for key, value := range dict {
		if key != "Type" && key != "Parent" {
			p.Dict[key] = value
		}
	}
	return nil
}

// ToObject encodes the page's own entries. Inherited attributes stay with
// the ancestors that define them.
func (p *Page) ToObject() core.Object {
	dict := core.Dict{}
	for key, value := range p.Dict {
		dict[key] = value
	}
	dict["Type"] = core.Name("Page")
	if p.Parent != nil {
		dict["Parent"] = *p.Parent
	}
	return dict
}

// attr looks name up on the page, then among inherited attributes, and
// follows a reference.
func (p *Page) attr(name string) (core.Object, error) {
	obj := p.Dict.Get(name)
	if obj == nil && p.Inherited != nil {
		obj = p.Inherited.Get(name)
	}
	if obj == nil {
		return nil, nil
	}
	resolved, err := resolveValue(obj, p.resolve)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return resolved, nil
}

// MediaBox returns the page media box [x1 y1 x2 y2]
// This is inheritable, so checks parent if not present
func (p *Page) MediaBox() ([]float64, error) {
	return p.getBox("MediaBox")
}

// CropBox returns the page crop box [x1 y1 x2 y2]
// This is inheritable, defaults to MediaBox if not present
func (p *Page) CropBox() ([]float64, error) {
	box, err := p.getBox("CropBox")
	if err != nil {
		return p.MediaBox()
	}
	return box, nil
}

func (p *Page) getBox(name string) ([]float64, error) {
	boxObj, err := p.attr(name)
	if err != nil {
		return nil, err
	}
	if boxObj == nil {
		return nil, fmt.Errorf("%s not found", name)
	}

	boxArr, ok := boxObj.(core.Array)
	if !ok {
		return nil, fmt.Errorf("invalid %s type: %T", name, boxObj)
	}
	if len(boxArr) != 4 {
		return nil, fmt.Errorf("invalid %s length: %d (expected 4)", name, len(boxArr))
	}

	box := make([]float64, 4)
	for i, elem := range boxArr {
		switch v := elem.(type) {
		case core.Int:
			box[i] = float64(v)
		case core.Real:
			box[i] = float64(v)
		default:
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
	}

	return box, nil
}

// Resources returns the page resources dictionary
// This is inheritable
func (p *Page) Resources() (core.Dict, error) {
	resourcesObj, err := p.attr("Resources")
	if err != nil {
		return nil, err
	}
	if resourcesObj == nil {
		return nil, fmt.Errorf("resources not found")
	}

	resourcesDict, ok := resourcesObj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", resourcesObj)
	}
	return resourcesDict, nil
}

// Contents returns the page content stream(s)
func (p *Page) Contents() ([]core.Object, error) {
	contentsObj, err := p.attr("Contents")
	if err != nil {
		return nil, err
	}

	// Contents can be a single stream or array of streams
	switch v := contentsObj.(type) {
	case nil:
		return nil, nil
	case *core.Stream:
		return []core.Object{v}, nil
	case core.Array:
		streams := make([]core.Object, len(v))
		for i, elem := range v {
			resolved, err := resolveValue(elem, p.resolve)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve contents[%d]: %w", i, err)
			}
			streams[i] = resolved
		}
		return streams, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", contentsObj)
	}
}

// Rotate returns the page rotation (0, 90, 180, or 270)
// This is inheritable
func (p *Page) Rotate() int {
	rotateObj, err := p.attr("Rotate")
	if err != nil {
		return 0
	}
	if rotate, ok := rotateObj.(core.Int); ok {
		return int(rotate)
	}
	return 0
}

// Width returns the page width (from MediaBox)
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the page height (from MediaBox)
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
