package core

import (
	"fmt"
	"io"
)

// ObjectStream reads an object stream (Type /ObjStm): a stream whose decoded
// payload starts with N "number offset" pairs, followed at byte First by the
// packed objects themselves.
type ObjectStream struct {
	stream  *Stream
	n       int
	first   int
	extends *IndirectRef
	objects map[int]Object
	offsets []objectStreamOffset
	decoded []byte
}

// objectStreamOffset pairs an object number with its offset relative to First.
type objectStreamOffset struct {
	ObjNum int
	Offset int
}

// NewObjectStream validates the stream dictionary. The payload is decoded on
// first access.
func NewObjectStream(stream *Stream) (*ObjectStream, error) {
	if stream == nil {
		return nil, fmt.Errorf("stream is nil")
	}

	if typ, ok := stream.Dict.GetName("Type"); !ok || typ != "ObjStm" {
		return nil, fmt.Errorf("stream is not an object stream, got type: %v", stream.Dict.Get("Type"))
	}

	n, err := stream.Dict.RequireInt("N")
	if err != nil {
		return nil, fmt.Errorf("object stream: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("invalid /N value: %d", n)
	}

	first, err := stream.Dict.RequireInt("First")
	if err != nil {
		return nil, fmt.Errorf("object stream: %w", err)
	}
	if first < 0 {
		return nil, fmt.Errorf("invalid /First value: %d", first)
	}

	var extends *IndirectRef
	if obj := stream.Dict.Get("Extends"); obj != nil {
		ref, ok := obj.(IndirectRef)
		if !ok {
			return nil, fmt.Errorf("invalid /Extends type: %T", obj)
		}
		extends = &ref
	}

	return &ObjectStream{
		stream:  stream,
		n:       int(n),
		first:   int(first),
		extends: extends,
		objects: make(map[int]Object),
	}, nil
}

// N returns the number of objects stored in the stream.
func (os *ObjectStream) N() int {
	return os.n
}

// First returns the offset of the first object in the decoded payload.
func (os *ObjectStream) First() int {
	return os.first
}

// Extends returns the object stream this one extends, or nil.
func (os *ObjectStream) Extends() *IndirectRef {
	return os.extends
}

func (os *ObjectStream) decode() error {
	if os.decoded != nil {
		return nil
	}

	decoded, err := os.stream.Decode()
	if err != nil {
		return fmt.Errorf("failed to decode object stream: %w", err)
	}
	if os.first > len(decoded) {
		return fmt.Errorf("First offset (%d) exceeds decoded data length (%d)", os.first, len(decoded))
	}

	offsets, err := parseObjectStreamHeader(decoded[:os.first], os.n)
	if err != nil {
		return fmt.Errorf("failed to parse object stream header: %w", err)
	}
	os.decoded = decoded
	os.offsets = offsets
	return nil
}

// parseObjectStreamHeader reads n (number, offset) pairs. Offsets must not
// decrease.
func parseObjectStreamHeader(header []byte, n int) ([]objectStreamOffset, error) {
	lexer := NewLexer(header)
	offsets := make([]objectStreamOffset, 0, n)
	for i := 0; i < n; i++ {
		num, err := nextInt(lexer, "object number")
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		off, err := nextInt(lexer, "offset")
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		if off < 0 {
			return nil, fmt.Errorf("pair %d: negative offset %d", i, off)
		}
		if i > 0 && int(off) < offsets[i-1].Offset {
			return nil, fmt.Errorf("pair %d: offset %d precedes previous offset %d", i, off, offsets[i-1].Offset)
		}
		offsets = append(offsets, objectStreamOffset{ObjNum: int(num), Offset: int(off)})
	}
	return offsets, nil
}

// GetObjectSlice returns the bytes of the index-th packed object, running
// from its offset to the next object's offset or the end of the payload,
// along with its object number.
func (os *ObjectStream) GetObjectSlice(index int) ([]byte, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}

	if index < 0 || index >= len(os.offsets) {
		return nil, 0, fmt.Errorf("index %d out of range [0, %d)", index, len(os.offsets))
	}

	start := os.first + os.offsets[index].Offset
	end := len(os.decoded)
	if index+1 < len(os.offsets) {
		end = os.first + os.offsets[index+1].Offset
	}

	if start < os.first {
		return nil, 0, fmt.Errorf("object offset %d precedes /First %d", start, os.first)
	}
	if start >= len(os.decoded) {
		return nil, 0, fmt.Errorf("object offset %d exceeds decoded data length %d", start, len(os.decoded))
	}
	if end > len(os.decoded) {
		end = len(os.decoded)
	}
	return os.decoded[start:end], os.offsets[index].ObjNum, nil
}

// GetObjectByIndex parses the index-th packed object and returns it with its
// object number.
func (os *ObjectStream) GetObjectByIndex(index int) (Object, int, error) {
	data, num, err := os.GetObjectSlice(index)
	if err != nil {
		return nil, 0, err
	}

	if obj, ok := os.objects[index]; ok {
		return obj, num, nil
	}

	obj, err := NewParser(data).ParseObject()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse object at index %d: %w", index, err)
	}

	os.objects[index] = obj
	return obj, num, nil
}

// GetObjectByNumber finds a packed object by its object number and returns
// it with its index.
func (os *ObjectStream) GetObjectByNumber(objNum int) (Object, int, error) {
	if err := os.decode(); err != nil {
		return nil, 0, err
	}

	for i, entry := range os.offsets {
		if entry.ObjNum == objNum {
			obj, _, err := os.GetObjectByIndex(i)
			return obj, i, err
		}
	}

	return nil, 0, fmt.Errorf("object %d not found in object stream", objNum)
}

// ObjectNumbers returns the numbers of all packed objects in index order.
func (os *ObjectStream) ObjectNumbers() ([]int, error) {
	if err := os.decode(); err != nil {
		return nil, err
	}

	nums := make([]int, len(os.offsets))
	for i, entry := range os.offsets {
		nums[i] = entry.ObjNum
	}
	return nums, nil
}
