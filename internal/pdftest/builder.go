// Package pdftest builds small documents for tests. Offsets are computed as
// objects are written, so fixtures stay valid when their contents change.
package pdftest

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/tsawler/pdfstore/core"
)

// Builder writes a document one update section at a time. Methods panic on
// misuse; it is only meant for tests.
type Builder struct {
	buf     bytes.Buffer
	pending map[int]core.XRefEntry
	first   bool
}

// New starts a document with a %PDF header for version.
func New(version string) *Builder {
	b := &Builder{pending: map[int]core.XRefEntry{}, first: true}
	fmt.Fprintf(&b.buf, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", version)
	return b
}

// Pos returns the current write offset.
func (b *Builder) Pos() int64 {
	return int64(b.buf.Len())
}

// Object writes obj as indirect object num, generation 0.
func (b *Builder) Object(num int, obj core.Object) *Builder {
	return b.ObjectGen(num, 0, obj)
}

// ObjectGen writes obj as indirect object num with the given generation.
func (b *Builder) ObjectGen(num, gen int, obj core.Object) *Builder {
	b.pending[num] = core.RawEntry(b.Pos(), gen)
	if _, err := core.WriteIndirectObject(&b.buf, core.IndirectRef{Number: num, Generation: gen}, obj); err != nil {
		panic(err)
	}
	return b
}

// Raw writes text verbatim as the body of object num.
func (b *Builder) Raw(num int, text string) *Builder {
	b.pending[num] = core.RawEntry(b.Pos(), 0)
	fmt.Fprintf(&b.buf, "%d 0 obj\n%s\nendobj\n", num, text)
	return b
}

// Entry records an entry for num in the next section without writing an
// object.
func (b *Builder) Entry(num int, e core.XRefEntry) *Builder {
	b.pending[num] = e
	return b
}

// ObjectStream packs objs (keyed by object number, packed in ascending
// order) into object stream num.
func (b *Builder) ObjectStream(num int, objs map[int]core.Object, compress bool) *Builder {
	nums := make([]int, 0, len(objs))
	for n := range objs {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	var sb core.ObjectStreamBuilder
	for _, n := range nums {
		idx, err := sb.Add(n, objs[n])
		if err != nil {
			panic(err)
		}
		b.pending[n] = core.StreamEntry(num, idx)
	}

	filter := ""
	if compress {
		filter = "FlateDecode"
	}
	stream, err := sb.Build(filter)
	if err != nil {
		panic(err)
	}
	return b.Object(num, stream)
}

// Garbage appends bytes that belong to no object.
func (b *Builder) Garbage(text string) *Builder {
	b.buf.WriteString(text)
	return b
}

// XRef writes a classic section covering every entry recorded since the
// previous section, then trailer, startxref and %%EOF. The first section
// also frees object 0. It returns the section's offset.
func (b *Builder) XRef(trailer core.Dict) int64 {
	offset := b.Pos()
	if err := core.WriteXRefTable(&b.buf, b.flush()); err != nil {
		panic(err)
	}
	b.buf.WriteString("trailer\n")
	b.buf.Write(core.Marshal(trailer))
	fmt.Fprintf(&b.buf, "\nstartxref\n%d\n%%%%EOF\n", offset)
	return offset
}

// XRefStream writes the recorded entries as cross-reference stream object
// num, with the trailer keys merged into its dictionary. It returns the
// stream's offset.
func (b *Builder) XRefStream(num int, trailer core.Dict, compress bool) int64 {
	offset := b.Pos()
	b.pending[num] = core.RawEntry(offset, 0)

	stream, err := core.EncodeXRefStream(b.flush(), trailer, compress)
	if err != nil {
		panic(err)
	}
	if _, err := core.WriteIndirectObject(&b.buf, core.IndirectRef{Number: num}, stream); err != nil {
		panic(err)
	}
	fmt.Fprintf(&b.buf, "startxref\n%d\n%%%%EOF\n", offset)
	return offset
}

func (b *Builder) flush() []core.XRefSection {
	if b.first {
		b.pending[0] = core.FreeEntry(0, 65535)
		b.first = false
	}

	highest := 0
	nums := make([]int, 0, len(b.pending))
	for n := range b.pending {
		nums = append(nums, n)
		if n > highest {
			highest = n
		}
	}

	table := core.NewXRefTable(highest + 1)
	for n, e := range b.pending {
		table.Set(n, e)
	}
	sections, err := table.Sections(nums)
	if err != nil {
		panic(err)
	}
	b.pending = map[int]core.XRefEntry{}
	return sections
}

// Bytes returns a copy of the document written so far.
func (b *Builder) Bytes() []byte {
	return append([]byte(nil), b.buf.Bytes()...)
}
