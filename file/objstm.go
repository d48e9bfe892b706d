package file

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfstore/core"
)

// ObjectStreamWriter packs new objects into one object stream. Its members
// resolve from the pending changes until Finish writes the container.
type ObjectStreamWriter struct {
	f        *File
	number   int
	members  []int
	finished bool
}

var errStreamFinished = errors.New("object stream already finished")

// NewObjectStream reserves an object number for a new object stream.
// Streams still open at Save are finished first.
func (f *File) NewObjectStream() *ObjectStreamWriter {
	n := f.refs.Push(core.PromisedEntry())
	f.touched[n] = true
	w := &ObjectStreamWriter{f: f, number: n}
	f.streams = append(f.streams, w)
	return w
}

// Number returns the container's object number.
func (w *ObjectStreamWriter) Number() int { return w.number }

// Len returns the number of objects packed so far.
func (w *ObjectStreamWriter) Len() int { return len(w.members) }

// accepts reports whether obj can become a member of w.
func (w *ObjectStreamWriter) accepts(obj core.Object) error {
	if w.finished {
		return &core.ObjectError{Number: w.number, Err: errStreamFinished}
	}
	if _, ok := obj.(*core.Stream); ok {
		return fmt.Errorf("streams cannot be stored in an object stream")
	}
	return nil
}

// place records obj as the next member under number n.
func (w *ObjectStreamWriter) place(n int, obj core.Object) error {
	if err := w.accepts(obj); err != nil {
		return &core.ObjectError{Number: n, Err: err}
	}
	if err := w.f.refs.Set(n, core.StreamEntry(w.number, len(w.members))); err != nil {
		return err
	}
	w.members = append(w.members, n)
	w.f.changes[n] = obj
	w.f.touched[n] = true
	return nil
}

// AddToStream stores v under a new object number inside w.
func AddToStream[T any, PT interface {
	*T
	Encoder
}](w *ObjectStreamWriter, v PT) (Ref[T], error) {
	if err := w.accepts(v.ToObject()); err != nil {
		return Ref[T]{}, err
	}
	return FulfillInStream(w, Promise[T](w.f), v)
}

// FulfillInStream binds v to a promised number and packs it into w.
func FulfillInStream[T any, PT interface {
	*T
	Encoder
}](w *ObjectStreamWriter, p PromisedRef[T], v PT) (Ref[T], error) {
	if err := w.place(p.ref.Number, v.ToObject()); err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{ref: p.ref}, nil
}

// Finish serialises the members, appends the container at the end of the
// backend and points its entry at it. Members then resolve from storage.
func (w *ObjectStreamWriter) Finish() error {
	if w.finished {
		return &core.ObjectError{Number: w.number, Err: errStreamFinished}
	}
	out, err := w.f.writer()
	if err != nil {
		return err
	}
	stream, err := w.build()
	if err != nil {
		return err
	}

	pos := out.Size()
	if _, err := core.WriteIndirectObject(out, core.IndirectRef{Number: w.number}, stream); err != nil {
		return fmt.Errorf("failed to write object stream %d: %w", w.number, err)
	}
	if err := w.f.refs.Set(w.number, core.RawEntry(pos, 0)); err != nil {
		return err
	}
	w.finish()
	w.f.log.Debugw("finished object stream", "object", w.number, "offset", pos, "members", len(w.members))
	return nil
}

// build packs the members' pending values into the container.
func (w *ObjectStreamWriter) build() (*core.Stream, error) {
	var b core.ObjectStreamBuilder
	for _, n := range w.members {
		if _, err := b.Add(n, w.f.changes[n]); err != nil {
			return nil, &core.ObjectError{Number: n, Err: err}
		}
	}
	stream, err := b.Build(w.f.opts.filter())
	if err != nil {
		return nil, &core.ObjectError{Number: w.number, Err: err}
	}
	return stream, nil
}

// finish marks w written: its members leave the pending changes.
func (w *ObjectStreamWriter) finish() {
	for _, n := range w.members {
		delete(w.f.changes, n)
	}
	w.finished = true
	w.f.dropStream(w)
}

func (f *File) dropStream(w *ObjectStreamWriter) {
	for i, s := range f.streams {
		if s == w {
			f.streams = append(f.streams[:i], f.streams[i+1:]...)
			return
		}
	}
}
