package resolver

import (
	"fmt"
	"io"

	"github.com/tsawler/pdfstore/backend"
	"github.com/tsawler/pdfstore/core"
)

// Func turns a reference into the object it names. Typed decoders take one
// instead of owning the cross-reference table.
type Func = core.ResolveFunc

// NoResolve is a Func for values that must not contain references.
func NoResolve(ref core.IndirectRef) (core.Object, error) {
	return nil, fmt.Errorf("cannot resolve %v: references are not allowed here", ref)
}

// NewFunc returns a Func reading committed objects from b through table.
// It needs no open document, so it can decode the trailer itself.
func NewFunc(b backend.Backend, table *core.XRefTable) Func {
	return func(ref core.IndirectRef) (core.Object, error) {
		return Lookup(b, table, ref)
	}
}

// Lookup reads the object ref names from storage:
//
//   - a raw entry is parsed at its offset
//   - a stream entry is cut out of its object stream and parsed on its own
//   - free and undefined entries fail
//
// Dereferencing a promised entry is a caller bug and panics with a
// core.UnfulfilledPromiseError.
func Lookup(b backend.Backend, table *core.XRefTable, ref core.IndirectRef) (core.Object, error) {
	entry, err := table.Get(ref.Number)
	if err != nil {
		return nil, err
	}

	switch entry.Kind {
	case core.EntryRaw:
		if ref.Generation != entry.Generation {
			return nil, generationError(ref, entry.Generation)
		}
		return readRaw(b, table, ref, entry.Offset)

	case core.EntryStream:
		if ref.Generation != 0 {
			return nil, generationError(ref, 0)
		}
		return readPacked(b, table, ref, entry)

	case core.EntryFree:
		return nil, &core.ObjectError{Number: ref.Number, Err: core.ErrFreeObject}

	case core.EntryPromised:
		panic(core.UnfulfilledPromiseError{Number: ref.Number})
	}
	return nil, &core.ObjectError{Number: ref.Number, Err: core.ErrObjectNotFound}
}

func generationError(ref core.IndirectRef, stored int) error {
	return &core.ObjectError{
		Number: ref.Number,
		Err:    fmt.Errorf("%w: reference has %d, stored object has %d", core.ErrGenerationMismatch, ref.Generation, stored),
	}
}

// readRaw parses the indirect object at offset. Its header must name ref.
func readRaw(b backend.Backend, table *core.XRefTable, ref core.IndirectRef, offset int64) (core.Object, error) {
	resolve := NewFunc(b, table)
	obj, err := core.ParseWindowed(b, b.Size(), offset, func(data []byte) (*core.IndirectObject, error) {
		p := core.NewParser(data)
		p.SetReferenceResolver(resolve)
		return p.ParseIndirectObject()
	})
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: fmt.Errorf("failed to parse object at offset %d: %w", offset, err)}
	}

	if obj.Ref.Number != ref.Number {
		return nil, &core.ObjectError{
			Number: ref.Number,
			Err:    fmt.Errorf("offset %d holds object %d", offset, obj.Ref.Number),
		}
	}
	if obj.Ref.Generation != ref.Generation {
		return nil, generationError(ref, obj.Ref.Generation)
	}
	return obj.Object, nil
}

// readPacked resolves the containing object stream and parses the packed
// object at entry.Index.
func readPacked(b backend.Backend, table *core.XRefTable, ref core.IndirectRef, entry core.XRefEntry) (core.Object, error) {
	container, err := table.Get(entry.StreamNumber)
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: err}
	}
	if container.Kind == core.EntryStream {
		return nil, &core.ObjectError{Number: ref.Number, Err: core.ErrNestedObjectStream}
	}

	obj, err := Lookup(b, table, core.IndirectRef{Number: entry.StreamNumber, Generation: container.Generation})
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: fmt.Errorf("failed to load object stream %d: %w", entry.StreamNumber, err)}
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, &core.ObjectError{Number: ref.Number, Err: fmt.Errorf("object stream %d is %s", entry.StreamNumber, obj.Type())}
	}

	objStm, err := core.NewObjectStream(stream)
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: err}
	}
	data, num, err := objStm.GetObjectSlice(entry.Index)
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: err}
	}
	if num != ref.Number {
		return nil, &core.ObjectError{
			Number: ref.Number,
			Err:    fmt.Errorf("index %d of object stream %d holds object %d", entry.Index, entry.StreamNumber, num),
		}
	}

	value, err := core.NewParser(data).ParseObject()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, &core.ObjectError{Number: ref.Number, Err: err}
	}
	return value, nil
}
