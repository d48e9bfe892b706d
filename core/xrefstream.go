package core

import (
	"errors"
	"fmt"
)

// XRefStreamInfo holds the fields of a cross-reference stream dictionary
// needed to decode its rows.
type XRefStreamInfo struct {
	Size  int
	Prev  int64 // 0 when absent
	Index []int
	W     []int
}

// FromObject decodes the stream dictionary, following references through
// resolve.
func (info *XRefStreamInfo) FromObject(obj Object, resolve ResolveFunc) error {
	dict, ok := obj.(Dict)
	if !ok {
		return fmt.Errorf("xref stream dictionary is %T", obj)
	}
	if typ, _ := dict.GetName("Type"); typ != "XRef" {
		return fmt.Errorf("expected /Type /XRef, got %q", typ)
	}

	size, err := resolveInt(dict, "Size", resolve)
	if err != nil {
		return err
	}
	info.Size = int(size)

	if dict.Has("Prev") {
		prev, err := resolveInt(dict, "Prev", resolve)
		if err != nil {
			return err
		}
		info.Prev = prev
	}

	w, ok := dict.GetArray("W")
	if !ok {
		return &EntryNotFoundError{Key: "W"}
	}
	if info.W, err = w.Ints(); err != nil {
		return fmt.Errorf("invalid /W: %w", err)
	}
	if len(info.W) != 3 {
		return fmt.Errorf("/W must have 3 elements, got %d", len(info.W))
	}
	for _, width := range info.W {
		if width < 0 || width > 8 {
			return fmt.Errorf("invalid /W field width %d", width)
		}
	}

	info.Index = []int{0, info.Size}
	if index, ok := dict.GetArray("Index"); ok {
		if info.Index, err = index.Ints(); err != nil {
			return fmt.Errorf("invalid /Index: %w", err)
		}
		if len(info.Index)%2 != 0 {
			return fmt.Errorf("/Index must have an even number of elements")
		}
	}
	return nil
}

// resolveInt reads an integer that may be stored indirectly.
func resolveInt(dict Dict, key string, resolve ResolveFunc) (int64, error) {
	obj := dict.Get(key)
	if obj == nil {
		return 0, &EntryNotFoundError{Key: key}
	}
	if ref, ok := obj.(IndirectRef); ok && resolve != nil {
		var err error
		if obj, err = resolve(ref); err != nil {
			return 0, fmt.Errorf("failed to resolve /%s: %w", key, err)
		}
	}
	return Dict{key: obj}.RequireInt(key)
}

// parseXRefStream decodes a cross-reference stream object at the start of data.
func parseXRefStream(data []byte, resolve ResolveFunc) ([]XRefSection, Dict, error) {
	parser := NewParser(data)
	parser.SetReferenceResolver(resolve)
	obj, err := parser.ParseIndirectObject()
	if err != nil {
		return nil, nil, err
	}
	stream, ok := obj.Object.(*Stream)
	if !ok {
		return nil, nil, fmt.Errorf("xref offset points to %s, not a stream", obj.Object.Type())
	}

	var info XRefStreamInfo
	if err := info.FromObject(stream.Dict, resolve); err != nil {
		return nil, nil, err
	}
	rows, err := stream.Decode()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode xref stream: %w", err)
	}

	sections, err := decodeXRefRows(rows, info)
	if err != nil {
		return nil, nil, err
	}
	return sections, stream.Dict, nil
}

func decodeXRefRows(rows []byte, info XRefStreamInfo) ([]XRefSection, error) {
	rowLen := info.W[0] + info.W[1] + info.W[2]
	if rowLen == 0 {
		return nil, errors.New("xref stream rows have zero width")
	}

	var sections []XRefSection
	pos := 0
	for i := 0; i < len(info.Index); i += 2 {
		start, count := info.Index[i], info.Index[i+1]
		if start < 0 {
			return nil, fmt.Errorf("negative xref stream subsection start %d", start)
		}
		if count < 0 || count > (len(rows)-pos)/rowLen {
			return nil, fmt.Errorf("xref stream too short for subsection %d %d", start, count)
		}

		section := XRefSection{Start: start, Entries: make([]XRefEntry, count)}
		for j := range section.Entries {
			row := rows[pos : pos+rowLen]
			pos += rowLen

			typ := int64(1)
			if info.W[0] > 0 {
				typ = readField(row[:info.W[0]])
			}
			f2 := readField(row[info.W[0] : info.W[0]+info.W[1]])
			f3 := readField(row[info.W[0]+info.W[1]:])

			switch typ {
			case 0:
				section.Entries[j] = FreeEntry(int(f2), int(f3))
			case 1:
				section.Entries[j] = RawEntry(f2, int(f3))
			case 2:
				section.Entries[j] = StreamEntry(int(f2), int(f3))
			}
			// Other types are references to the null object; the slot stays empty.
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// readField decodes a big-endian unsigned field.
func readField(b []byte) int64 {
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v
}

// EncodeXRefStream builds a cross-reference stream for sections. The trailer
// keys (Size, Root, Prev, Info, ID, ...) are copied into the stream
// dictionary. With compress the rows are Flate-encoded with the PNG Up
// predictor.
func EncodeXRefStream(sections []XRefSection, trailer Dict, compress bool) (*Stream, error) {
	var maxField2, maxField3 int64
	for _, s := range sections {
		for i, e := range s.Entries {
			f2, f3, err := xrefFields(s.Start+i, e)
			if err != nil {
				return nil, err
			}
			if f2 > maxField2 {
				maxField2 = f2
			}
			if f3 > maxField3 {
				maxField3 = f3
			}
		}
	}
	w := []int{1, fieldWidth(maxField2), fieldWidth(maxField3)}
	rowLen := w[0] + w[1] + w[2]

	var rows []byte
	index := Array{}
	for _, s := range sections {
		index = append(index, Int(s.Start), Int(len(s.Entries)))
		for i, e := range s.Entries {
			f2, f3, _ := xrefFields(s.Start+i, e)
			rows = append(rows, xrefType(e))
			rows = appendField(rows, f2, w[1])
			rows = appendField(rows, f3, w[2])
		}
	}

	dict := Clone(trailer).(Dict)
	if dict == nil {
		dict = Dict{}
	}
	dict["Type"] = Name("XRef")
	dict["W"] = Array{Int(w[0]), Int(w[1]), Int(w[2])}
	dict["Index"] = index

	if !compress {
		return NewStream(dict, rows), nil
	}
	params := Dict{"Predictor": Int(12), "Columns": Int(rowLen)}
	return EncodeStream(dict, rows, "FlateDecode", params)
}

func xrefType(e XRefEntry) byte {
	switch e.Kind {
	case EntryFree:
		return 0
	case EntryStream:
		return 2
	}
	return 1
}

func xrefFields(number int, e XRefEntry) (int64, int64, error) {
	switch e.Kind {
	case EntryRaw:
		return e.Offset, int64(e.Generation), nil
	case EntryStream:
		return int64(e.StreamNumber), int64(e.Index), nil
	case EntryFree:
		return int64(e.NextFree), int64(e.Generation), nil
	}
	return 0, 0, &ObjectError{
		Number: number,
		Err:    errors.New("entry of kind " + e.Kind.String() + " cannot be written to an xref stream"),
	}
}

func fieldWidth(v int64) int {
	n := 1
	for v > 0xff {
		v >>= 8
		n++
	}
	return n
}

func appendField(b []byte, v int64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		b = append(b, byte(v>>(8*i)))
	}
	return b
}
