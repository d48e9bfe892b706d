package file

import (
	"fmt"
	"io"

	"github.com/tsawler/pdfstore/backend"
	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/pages"
	"github.com/tsawler/pdfstore/resolver"
	"go.uber.org/zap"
)

// File is an open document. Changes are kept in memory until Save appends
// them as an incremental update; until then they shadow the stored objects.
//
// A File is not safe for concurrent use while it is being modified.
type File struct {
	backend backend.Backend
	refs    *core.XRefTable
	trailer Trailer
	version PDFVersion

	// startXRef is the offset of the newest section, zero for a document
	// that has never been saved.
	startXRef int64

	changes map[int]core.Object
	touched map[int]bool
	streams []*ObjectStreamWriter

	log  *zap.SugaredLogger
	opts options
}

// Resolve returns the current value of the object ref names: a pending
// change if there is one, otherwise the stored object. Pending values are
// copied so that callers cannot alter them in place.
func (f *File) Resolve(ref core.IndirectRef) (core.Object, error) {
	if obj, ok := f.changes[ref.Number]; ok {
		return core.Clone(obj), nil
	}
	if e, err := f.refs.Get(ref.Number); err == nil {
		f.log.Debugw("resolve", "object", ref.Number, "kind", e.Kind.String())
	}
	return resolver.Lookup(f.backend, f.refs, ref)
}

// ResolveDeep returns obj with every nested reference replaced by its value.
func (f *File) ResolveDeep(obj core.Object) (core.Object, error) {
	return resolver.NewResolver(f.Resolve, resolver.WithMaxDepth(f.opts.maxDepth)).ResolveDeep(obj)
}

// Update replaces the value of an existing object number.
func (f *File) Update(number int, obj core.Object) error {
	if _, err := f.refs.Get(number); err != nil {
		return err
	}
	if number == 0 {
		return &core.ObjectError{Number: number, Err: core.ErrFreeObject}
	}
	f.changes[number] = obj
	f.touched[number] = true
	return nil
}

// GetRoot returns the document catalog.
func (f *File) GetRoot() *pages.Catalog {
	return f.trailer.Root
}

// SetRoot makes the catalog ref names the document root. It is decoded
// immediately, so it may be a pending object.
func (f *File) SetRoot(ref Ref[pages.Catalog]) error {
	root, err := Deref(f, ref)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	if err := root.Pages.Validate(); err != nil {
		return err
	}
	f.trailer.Root = root
	f.trailer.RootRef = ref.Plain()
	return nil
}

// Trailer returns the decoded trailer of the newest section.
func (f *File) Trailer() *Trailer {
	return &f.trailer
}

// Version returns the version from the %PDF header.
func (f *File) Version() PDFVersion {
	return f.version
}

// XRefTable returns the merged cross-reference table, including entries
// added since the last save.
func (f *File) XRefTable() *core.XRefTable {
	return f.refs
}

// GetNumPages returns the page count of the root page tree.
func (f *File) GetNumPages() int {
	if f.trailer.Root == nil {
		return 0
	}
	return f.trailer.Root.Count()
}

// GetPage returns the page at the given index (0-based)
func (f *File) GetPage(n int) (*pages.Page, error) {
	if err := f.checkPageIndex(n); err != nil {
		return nil, err
	}
	return pages.FindPage(f.trailer.Root.Pages, 0, n)
}

// UpdatePage replaces page n. The new value is stored under the old page's
// object number and written on the next Save. A page that already carries
// an object number must carry the old page's.
func (f *File) UpdatePage(n int, page *pages.Page) error {
	if err := f.checkPageIndex(n); err != nil {
		return err
	}
	old, err := pages.FindPage(f.trailer.Root.Pages, 0, n)
	if err != nil {
		return err
	}
	if old.Ref.Number == 0 {
		return fmt.Errorf("page %d is stored inline and has no object number", n)
	}
	if page.Ref.Number != 0 && page.Ref != old.Ref {
		return fmt.Errorf("page %d is object %v, replacement is object %v", n, old.Ref, page.Ref)
	}
	if _, err := f.refs.Get(old.Ref.Number); err != nil {
		return err
	}
	if err := pages.UpdatePage(f.trailer.Root.Pages, 0, n, page); err != nil {
		return err
	}
	return f.Update(page.Ref.Number, page.ToObject())
}

func (f *File) checkPageIndex(n int) error {
	count := f.GetNumPages()
	if n < 0 || n >= count {
		return &pages.PageOutOfBoundsError{Index: n, Max: count}
	}
	return nil
}

// Close closes the backend if it can be closed.
func (f *File) Close() error {
	if c, ok := f.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
