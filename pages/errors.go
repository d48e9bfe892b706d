package pages

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
)

// PageNotFoundError is returned when a traversal runs out of kids before
// reaching the requested index, which means some /Count disagrees with the
// shape of the tree.
type PageNotFoundError struct {
	Index int
}

func (e *PageNotFoundError) Error() string {
	return fmt.Sprintf("page %d not found in page tree", e.Index)
}

// PageOutOfBoundsError is returned for an index at or beyond the page count.
type PageOutOfBoundsError struct {
	Index int
	Max   int
}

func (e *PageOutOfBoundsError) Error() string {
	return fmt.Sprintf("page index %d out of range [0, %d)", e.Index, e.Max)
}

// PageCountMismatchError reports a Pages node whose /Count differs from the
// number of leaves beneath it.
type PageCountMismatchError struct {
	Ref    core.IndirectRef
	Count  int
	Actual int
}

func (e *PageCountMismatchError) Error() string {
	return fmt.Sprintf("pages node %v: /Count is %d but subtree holds %d pages", e.Ref, e.Count, e.Actual)
}
