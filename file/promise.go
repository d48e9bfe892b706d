package file

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/resolver"
)

// Decoder is implemented by types that can be read from a stored object.
// Nested references are followed through resolve.
type Decoder interface {
	FromObject(obj core.Object, resolve resolver.Func) error
}

// Encoder is implemented by types that can be stored as an object.
type Encoder interface {
	ToObject() core.Object
}

// Ref is a reference to an object that decodes as a T.
type Ref[T any] struct {
	ref core.IndirectRef
}

// NewRef types a plain reference. Nothing checks that the object really is
// a T until it is dereferenced.
func NewRef[T any](ref core.IndirectRef) Ref[T] {
	return Ref[T]{ref: ref}
}

// Plain returns the untyped reference, for embedding in other objects.
func (r Ref[T]) Plain() core.IndirectRef { return r.ref }

// Number returns the object number.
func (r Ref[T]) Number() int { return r.ref.Number }

func (r Ref[T]) String() string { return r.ref.String() }

// PromisedRef is an object number reserved for a T whose value is not known
// yet. Fulfill turns it into a Ref.
type PromisedRef[T any] struct {
	ref core.IndirectRef
}

// Plain returns the reserved reference. It can be embedded in other objects
// before the promise is fulfilled.
func (p PromisedRef[T]) Plain() core.IndirectRef { return p.ref }

// Number returns the reserved object number.
func (p PromisedRef[T]) Number() int { return p.ref.Number }

// Primitive adapts a bare object to Decoder and Encoder.
type Primitive struct {
	Value core.Object
}

// FromObject implements Decoder.
func (p *Primitive) FromObject(obj core.Object, _ resolver.Func) error {
	p.Value = obj
	return nil
}

// ToObject implements Encoder.
func (p *Primitive) ToObject() core.Object { return p.Value }

// Deref resolves r and decodes the result.
func Deref[T any, PT interface {
	*T
	Decoder
}](f *File, r Ref[T]) (*T, error) {
	obj, err := f.Resolve(r.ref)
	if err != nil {
		return nil, err
	}
	v := PT(new(T))
	if err := v.FromObject(obj, f.Resolve); err != nil {
		return nil, &core.ObjectError{Number: r.ref.Number, Err: fmt.Errorf("failed to decode: %w", err)}
	}
	return (*T)(v), nil
}

// Promise reserves the next object number for a T. Dereferencing it before
// Fulfill is a bug and panics; saving it unfulfilled fails.
func Promise[T any](f *File) PromisedRef[T] {
	n := f.refs.Push(core.PromisedEntry())
	f.touched[n] = true
	f.log.Debugw("promised object", "object", n)
	return PromisedRef[T]{ref: core.IndirectRef{Number: n}}
}

// Fulfill binds v to a promised number. The value is pending until Save.
func Fulfill[T any, PT interface {
	*T
	Encoder
}](f *File, p PromisedRef[T], v PT) Ref[T] {
	f.changes[p.ref.Number] = v.ToObject()
	f.touched[p.ref.Number] = true
	return Ref[T]{ref: p.ref}
}

// Add stores v under a new object number.
func Add[T any, PT interface {
	*T
	Encoder
}](f *File, v PT) Ref[T] {
	return Fulfill(f, Promise[T](f), v)
}
