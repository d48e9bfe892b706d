package core

import (
	"bytes"
	"fmt"
	"strconv"
)

// ObjectStreamBuilder packs serialised objects into a new object stream.
type ObjectStreamBuilder struct {
	body    bytes.Buffer
	offsets []objectStreamOffset
}

// Add appends obj under object number num and returns its index. Streams
// cannot be packed.
func (b *ObjectStreamBuilder) Add(num int, obj Object) (int, error) {
	if _, ok := obj.(*Stream); ok {
		return 0, fmt.Errorf("object %d: streams cannot be stored in an object stream", num)
	}
	b.offsets = append(b.offsets, objectStreamOffset{ObjNum: num, Offset: b.body.Len()})
	writeObject(&b.body, obj)
	b.body.WriteByte('\n')
	return len(b.offsets) - 1, nil
}

// Len returns the number of objects added so far.
func (b *ObjectStreamBuilder) Len() int {
	return len(b.offsets)
}

// Build returns the object stream. With an empty filter the payload is
// stored unfiltered.
func (b *ObjectStreamBuilder) Build(filter string) (*Stream, error) {
	var header bytes.Buffer
	for i, off := range b.offsets {
		if i > 0 {
			header.WriteByte(' ')
		}
		header.WriteString(strconv.Itoa(off.ObjNum))
		header.WriteByte(' ')
		header.WriteString(strconv.Itoa(off.Offset))
	}
	header.WriteByte('\n')

	first := header.Len()
	payload := append(header.Bytes(), b.body.Bytes()...)
	dict := Dict{
		"Type":  Name("ObjStm"),
		"N":     Int(len(b.offsets)),
		"First": Int(first),
	}

	if filter == "" {
		return NewStream(dict, payload), nil
	}
	return EncodeStream(dict, payload, filter, nil)
}
