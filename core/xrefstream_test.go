package core

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadXRefSectionStream(t *testing.T) {
	rows := []byte{
		0, 0x00, 0x00, 0xff, // free, next 0, gen 255
		1, 0x00, 0x10, 0x00, // raw at 16
		2, 0x00, 0x05, 0x03, // index 3 of stream 5
	}
	data := fmt.Sprintf("9 0 obj\n<< /Type /XRef /Size 3 /W [1 2 1] /Length %d /Root 1 0 R >>\nstream\n%s\nendstream\nendobj\n", len(rows), rows)

	r := bytes.NewReader([]byte(data))
	sections, trailer, err := ReadXRefSection(r, r.Size(), 0, nil)
	if err != nil {
		t.Fatalf("ReadXRefSection failed: %v", err)
	}

	want := []XRefSection{{Start: 0, Entries: []XRefEntry{
		FreeEntry(0, 255),
		RawEntry(16, 0),
		StreamEntry(5, 3),
	}}}
	if diff := cmp.Diff(want, sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	if ref, _ := trailer.GetIndirectRef("Root"); ref.Number != 1 {
		t.Errorf("trailer /Root = %v, want 1 0 R", trailer.Get("Root"))
	}
}

func TestEncodeXRefStreamRoundTrip(t *testing.T) {
	sections := []XRefSection{
		{Start: 0, Entries: []XRefEntry{FreeEntry(0, 65535)}},
		{Start: 4, Entries: []XRefEntry{RawEntry(70000, 0), StreamEntry(4, 0), StreamEntry(4, 1)}},
		{Start: 12, Entries: []XRefEntry{RawEntry(15, 1)}},
	}
	trailer := Dict{"Size": Int(13), "Root": IndirectRef{Number: 1}, "Prev": Int(9)}

	for _, compress := range []bool{false, true} {
		t.Run(fmt.Sprintf("compress=%v", compress), func(t *testing.T) {
			stream, err := EncodeXRefStream(sections, trailer, compress)
			if err != nil {
				t.Fatalf("EncodeXRefStream failed: %v", err)
			}
			if diff := cmp.Diff(Array{Int(1), Int(3), Int(2)}, stream.Dict.Get("W")); diff != "" {
				t.Errorf("/W mismatch (-want +got):\n%s", diff)
			}

			var buf bytes.Buffer
			if _, err := WriteIndirectObject(&buf, IndirectRef{Number: 12, Generation: 1}, stream); err != nil {
				t.Fatalf("WriteIndirectObject failed: %v", err)
			}

			r := bytes.NewReader(buf.Bytes())
			got, gotTrailer, err := ReadXRefSection(r, r.Size(), 0, nil)
			if err != nil {
				t.Fatalf("ReadXRefSection failed: %v", err)
			}
			if diff := cmp.Diff(sections, got); diff != "" {
				t.Errorf("sections mismatch (-want +got):\n%s", diff)
			}
			if prev, _ := gotTrailer.GetInt("Prev"); prev != 9 {
				t.Errorf("trailer /Prev = %d, want 9", prev)
			}
			if trailer.Has("Type") {
				t.Error("encoding modified the caller's trailer")
			}
		})
	}
}

func TestEncodeXRefStreamRejectsPromised(t *testing.T) {
	_, err := EncodeXRefStream([]XRefSection{{Start: 3, Entries: []XRefEntry{PromisedEntry()}}}, Dict{"Size": Int(4)}, false)
	var objErr *ObjectError
	if !errors.As(err, &objErr) || objErr.Number != 3 {
		t.Errorf("got %v, want ObjectError for object 3", err)
	}
}

// A classic trailer's /XRefStm entries are returned after the table's own.
func TestReadXRefSectionHybrid(t *testing.T) {
	stream, err := EncodeXRefStream(
		[]XRefSection{{Start: 4, Entries: []XRefEntry{StreamEntry(3, 0)}}},
		Dict{"Size": Int(5)},
		true,
	)
	if err != nil {
		t.Fatalf("EncodeXRefStream failed: %v", err)
	}

	var buf bytes.Buffer
	WriteIndirectObject(&buf, IndirectRef{Number: 5}, stream)
	tableOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 2\n0000000000 65535 f\r\n0000000999 00000 n\r\ntrailer\n<< /Size 5 /XRefStm 0 >>\n")

	r := bytes.NewReader(buf.Bytes())
	sections, trailer, err := ReadXRefSection(r, r.Size(), int64(tableOffset), nil)
	if err != nil {
		t.Fatalf("ReadXRefSection failed: %v", err)
	}
	want := []XRefSection{
		{Start: 0, Entries: []XRefEntry{FreeEntry(0, 65535), RawEntry(999, 0)}},
		{Start: 4, Entries: []XRefEntry{StreamEntry(3, 0)}},
	}
	if diff := cmp.Diff(want, sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
	if !trailer.Has("XRefStm") {
		t.Error("expected the classic trailer to be returned")
	}
}

func TestXRefStreamInfoFromObject(t *testing.T) {
	tests := []struct {
		name    string
		dict    Dict
		want    XRefStreamInfo
		wantErr error
	}{
		{
			name: "default index",
			dict: Dict{"Type": Name("XRef"), "Size": Int(4), "W": Array{Int(1), Int(2), Int(0)}},
			want: XRefStreamInfo{Size: 4, Index: []int{0, 4}, W: []int{1, 2, 0}},
		},
		{
			name: "indirect size",
			dict: Dict{"Type": Name("XRef"), "Size": IndirectRef{Number: 8}, "W": Array{Int(1), Int(1), Int(1)}, "Index": Array{Int(3), Int(1)}, "Prev": Int(17)},
			want: XRefStreamInfo{Size: 6, Prev: 17, Index: []int{3, 1}, W: []int{1, 1, 1}},
		},
		{
			name:    "missing size",
			dict:    Dict{"Type": Name("XRef"), "W": Array{Int(1), Int(1), Int(1)}},
			wantErr: ErrEntryNotFound,
		},
		{
			name:    "missing W",
			dict:    Dict{"Type": Name("XRef"), "Size": Int(1)},
			wantErr: ErrEntryNotFound,
		},
	}

	resolve := func(ref IndirectRef) (Object, error) { return Int(6), nil }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var info XRefStreamInfo
			err := info.FromObject(tt.dict, resolve)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, info); diff != "" {
				t.Errorf("info mismatch (-want +got):\n%s", diff)
			}
		})
	}

	var info XRefStreamInfo
	if err := info.FromObject(Dict{"Type": Name("ObjStm")}, nil); err == nil {
		t.Error("expected error for wrong /Type")
	}
}

// Hybrid files mark packed objects free in the classic table; the stream's
// in-use entry wins there, while the table's own in-use entries win over the
// stream.
func TestReadXRefSectionHybridPrecedence(t *testing.T) {
	stream, err := EncodeXRefStream(
		[]XRefSection{{Start: 1, Entries: []XRefEntry{FreeEntry(0, 1), StreamEntry(7, 0), StreamEntry(7, 1)}}},
		Dict{"Size": Int(8)},
		false,
	)
	if err != nil {
		t.Fatalf("EncodeXRefStream failed: %v", err)
	}

	var buf bytes.Buffer
	WriteIndirectObject(&buf, IndirectRef{Number: 6}, stream)
	tableOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 4\n0000000000 65535 f\r\n0000000500 00000 n\r\n0000000000 00001 f\r\n0000000600 00000 n\r\ntrailer\n<< /Size 8 /XRefStm 0 >>\n")

	r := bytes.NewReader(buf.Bytes())
	sections, _, err := ReadXRefSection(r, r.Size(), int64(tableOffset), nil)
	if err != nil {
		t.Fatalf("ReadXRefSection failed: %v", err)
	}

	table := NewXRefTable(8)
	for _, s := range sections {
		table.AddEntriesFrom(s)
	}
	want := map[int]XRefEntry{
		1: RawEntry(500, 0),  // table in use, stream free
		2: StreamEntry(7, 0), // table free, stream packed
		3: RawEntry(600, 0),  // both in use
	}
	for n, e := range want {
		got, _ := table.Get(n)
		if got != e {
			t.Errorf("entry %d = %v, want %v", n, got, e)
		}
	}
}

func TestDecodeXRefRowsBounds(t *testing.T) {
	rows := []byte{1, 0, 10, 0, 1, 0, 20, 0}
	tests := []struct {
		name  string
		index []int
	}{
		{"negative start", []int{-1, 2}},
		{"count beyond rows", []int{0, 3}},
		{"huge count", []int{0, int(^uint(0) >> 2)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := XRefStreamInfo{W: []int{1, 2, 1}, Index: tt.index}
			if _, err := decodeXRefRows(rows, info); err == nil {
				t.Error("expected error")
			}
		})
	}

	info := XRefStreamInfo{W: []int{1, 2, 1}, Index: []int{3, 2}}
	sections, err := decodeXRefRows(rows, info)
	if err != nil {
		t.Fatalf("decodeXRefRows failed: %v", err)
	}
	want := []XRefSection{{Start: 3, Entries: []XRefEntry{RawEntry(10, 0), RawEntry(20, 0)}}}
	if diff := cmp.Diff(want, sections); diff != "" {
		t.Errorf("sections mismatch (-want +got):\n%s", diff)
	}
}
