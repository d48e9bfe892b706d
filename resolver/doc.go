// Package resolver turns indirect references (e.g., "5 0 R") into the
// objects they name.
//
// # Lookup
//
// Lookup reads a single object through a merged cross-reference table:
// raw entries are parsed at their byte offset and stream entries are cut
// out of their object stream. Free and undefined slots fail with
// core.ErrFreeObject and core.ErrObjectNotFound.
//
//	obj, err := resolver.Lookup(b, table, core.IndirectRef{Number: 5})
//
// NewFunc wraps the same lookup as a Func, the form typed decoders take:
//
//	resolve := resolver.NewFunc(b, table)
//
// # Deep Resolution
//
// An ObjectResolver expands every reference nested in dictionaries, arrays
// and stream dictionaries:
//
//	r := resolver.NewResolver(resolve)
//	resolved, err := r.ResolveDeep(obj)
//
// A reference that leads back to one of its own ancestors is reported as an
// error rather than followed forever. The recursion depth is bounded too:
//
//	r := resolver.NewResolver(resolve, resolver.WithMaxDepth(50))
package resolver
