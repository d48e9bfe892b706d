package file

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/tsawler/pdfstore/backend"
	"github.com/tsawler/pdfstore/core"
)

// Save appends the session's changes as an incremental update: every
// pending object, one cross-reference section covering each entry touched
// since the last save, and a trailer linked to the previous section.
//
// Open object streams are packed into the same update. A promise that was
// never fulfilled fails the save with core.ErrUnfulfilledPromise. The update
// reaches the backend in a single write; if anything fails before it, the
// backend and the session are left as they were.
func (f *File) Save() error {
	out, err := f.writer()
	if err != nil {
		return err
	}
	if f.trailer.RootRef.Number == 0 {
		return &core.EntryNotFoundError{Key: "Root"}
	}

	for _, n := range sortedKeys(f.touched) {
		e, err := f.refs.Get(n)
		if err != nil {
			return err
		}
		if _, pending := f.changes[n]; e.Kind == core.EntryPromised && !pending && !f.isStream(n) {
			return &core.ObjectError{Number: n, Err: core.ErrUnfulfilledPromise}
		}
	}

	u := &update{f: f, base: out.Size(), size: f.refs.Len(), saved: make(map[int]core.XRefEntry)}
	xrefPos, useStream, err := u.layout()
	if err != nil {
		u.rollback()
		return err
	}
	if _, err := out.Write(u.buf.Bytes()); err != nil {
		u.rollback()
		return fmt.Errorf("failed to write incremental update: %w", err)
	}

	for len(f.streams) > 0 {
		f.streams[0].finish()
	}
	f.trailer.HighestID = f.refs.Len()
	f.trailer.ID = u.id
	f.trailer.PrevTrailerPos = f.startXRef
	f.startXRef = xrefPos
	f.changes = make(map[int]core.Object)
	f.touched = make(map[int]bool)
	f.log.Debugw("saved incremental update", "startxref", xrefPos, "objects", u.written, "xrefStream", useStream)
	return nil
}

// update lays out one incremental update in memory. Entries it switches in
// the table are remembered so that a failed save can put them back.
type update struct {
	f       *File
	buf     bytes.Buffer
	base    int64
	size    int
	saved   map[int]core.XRefEntry
	id      []core.String
	written int
}

func (u *update) pos() int64 { return u.base + int64(u.buf.Len()) }

func (u *update) set(n int, e core.XRefEntry) error {
	if _, ok := u.saved[n]; !ok {
		u.saved[n], _ = u.f.refs.Get(n)
	}
	return u.f.refs.Set(n, e)
}

func (u *update) rollback() {
	u.f.refs.Truncate(u.size)
	for n, e := range u.saved {
		if n < u.size {
			u.f.refs.Set(n, e)
		}
	}
}

func (u *update) layout() (int64, bool, error) {
	f := u.f
	packed := make(map[int]bool)
	for _, w := range f.streams {
		stream, err := w.build()
		if err != nil {
			return 0, false, err
		}
		pos := u.pos()
		if _, err := core.WriteIndirectObject(&u.buf, core.IndirectRef{Number: w.number}, stream); err != nil {
			return 0, false, fmt.Errorf("failed to write object stream %d: %w", w.number, err)
		}
		if err := u.set(w.number, core.RawEntry(pos, 0)); err != nil {
			return 0, false, err
		}
		for _, n := range w.members {
			packed[n] = true
		}
	}

	for _, n := range sortedKeys(f.changes) {
		if packed[n] {
			continue
		}
		gen := 0
		if e, _ := f.refs.Get(n); e.Kind == core.EntryRaw {
			gen = e.Generation
		}
		pos := u.pos()
		if _, err := core.WriteIndirectObject(&u.buf, core.IndirectRef{Number: n, Generation: gen}, f.changes[n]); err != nil {
			return 0, false, fmt.Errorf("failed to write object %d: %w", n, err)
		}
		if err := u.set(n, core.RawEntry(pos, gen)); err != nil {
			return 0, false, err
		}
		u.written++
	}

	useStream := f.opts.xrefStreams
	for n := range f.touched {
		if e, _ := f.refs.Get(n); e.Kind == core.EntryStream {
			useStream = true
		}
	}

	xrefPos := u.pos()
	numbers := sortedKeys(f.touched)
	if useStream {
		// The stream describes itself, so it needs its number before the
		// trailer's /Size is final.
		numbers = append(numbers, f.refs.Push(core.RawEntry(xrefPos, 0)))
	}

	trailer, id := f.nextTrailer()
	u.id = id
	sections, err := f.refs.Sections(numbers)
	if err != nil {
		return 0, false, err
	}

	if useStream {
		stream, err := core.EncodeXRefStream(sections, trailer, f.opts.compress)
		if err != nil {
			return 0, false, err
		}
		if _, err := core.WriteIndirectObject(&u.buf, core.IndirectRef{Number: f.refs.Len() - 1}, stream); err != nil {
			return 0, false, err
		}
	} else {
		if err := core.WriteXRefTable(&u.buf, sections); err != nil {
			return 0, false, err
		}
		u.buf.WriteString("trailer\n")
		u.buf.Write(core.Marshal(trailer))
		u.buf.WriteString("\n")
	}
	fmt.Fprintf(&u.buf, "startxref\n%d\n%%%%EOF\n", xrefPos)
	return xrefPos, useStream, nil
}

// nextTrailer builds the trailer for the section being written: the
// current /Size, a /Prev link to the previous section and a fresh second
// /ID element. The first /ID element never changes once set.
func (f *File) nextTrailer() (core.Dict, []core.String) {
	fresh := uuid.New()
	id := []core.String{core.String(fresh[:]), core.String(fresh[:])}
	if len(f.trailer.ID) > 0 {
		id[0] = f.trailer.ID[0]
	}

	next := f.trailer
	next.HighestID = f.refs.Len()
	next.ID = id
	trailer := next.ToObject().(core.Dict)
	if f.startXRef > 0 {
		trailer["Prev"] = core.Int(f.startXRef)
	}
	return trailer, id
}

// writer returns the backend's append cursor.
func (f *File) writer() (backend.Writer, error) {
	out, ok := f.backend.(backend.Writer)
	if !ok {
		return nil, backend.ErrReadOnly
	}
	if w, ok := out.(interface{ Writable() bool }); ok && !w.Writable() {
		return nil, backend.ErrReadOnly
	}
	return out, nil
}

func (f *File) isStream(n int) bool {
	for _, w := range f.streams {
		if w.number == n {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
