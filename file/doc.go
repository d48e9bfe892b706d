// Package file opens, reads and incrementally updates PDF documents.
//
// # Reading
//
// Open loads the cross-reference chain and trailer, and decodes the catalog
// and page tree:
//
//	f, err := file.Open("doc.pdf")
//	defer f.Close()
//	page, err := f.GetPage(0)
//
// Any object can be read as a typed value through a Ref:
//
//	info, err := file.Deref(f, file.NewRef[file.DocumentInfo](ref))
//
// # Writing
//
// New objects get numbers from Add, or from Promise when the number has to
// be known before the value, as with a page and its parent:
//
//	p := file.Promise[pages.Page](f)
//	tree := &pages.Tree{Count: 1, Kids: []pages.Node{&pages.Page{Ref: p.Plain()}}}
//	parent := file.Add(f, tree).Plain()
//	file.Fulfill(f, p, &pages.Page{Parent: &parent, Dict: dict})
//
// Objects can also be packed into an object stream with NewObjectStream.
// Nothing reaches storage until Save, which appends an incremental update
// with a classic cross-reference table or a cross-reference stream.
package file
