// Package pages provides the typed document catalog and page tree.
//
// # Page Tree
//
// PDF documents organize pages in a tree of /Pages nodes whose leaves are
// /Page dictionaries. Decoding a [Catalog] decodes the whole tree, following
// references through a resolve callback:
//
//	var cat pages.Catalog
//	err := cat.FromObject(obj, resolve)
//	page, err := pages.FindPage(cat.Pages, 0, 3) // 0-indexed
//
// [FindPage] and [UpdatePage] descend using each node's /Count, so a wrong
// count sends them down the wrong branch. [Tree.Validate] checks the counts
// and [Tree.Recount] repairs them.
//
// # Page Access
//
// The [Page] type represents a single PDF page with:
//
//   - MediaBox - page dimensions
//   - CropBox - visible area (optional)
//   - Rotate - page rotation (0, 90, 180, 270)
//   - Resources - fonts, images, etc.
//   - Contents - content streams
//
// Resources, MediaBox, CropBox and Rotate can be inherited from ancestor
// nodes.
package pages
