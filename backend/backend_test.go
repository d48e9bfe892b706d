package backend

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRead(t *testing.T) {
	m := NewMemory([]byte("%PDF-1.7\nbody\n%%EOF\n"))

	tests := []struct {
		name       string
		start, end int64
		want       string
		wantErr    bool
	}{
		{"header", 0, 8, "%PDF-1.7", false},
		{"to end", 14, -1, "%%EOF\n", false},
		{"empty", 3, 3, "", false},
		{"past end", 10, 100, "", true},
		{"reversed", 5, 2, "", true},
		{"negative start", -1, 2, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(m, tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMemoryAppend(t *testing.T) {
	m := NewMemory(nil)
	if m.Size() != 0 {
		t.Fatalf("Size = %d, want 0", m.Size())
	}
	m.Write([]byte("abc"))
	m.Write([]byte("de"))
	if m.Size() != 5 || string(m.Bytes()) != "abcde" {
		t.Errorf("got %q (size %d)", m.Bytes(), m.Size())
	}

	buf := make([]byte, 4)
	n, err := m.ReadAt(buf, 3)
	if n != 2 || err == nil {
		t.Errorf("short ReadAt = (%d, %v), want (2, io.EOF)", n, err)
	}
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")

	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := w.Write([]byte("%PDF-1.7\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := w.Write([]byte("more")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if w.Size() != 13 {
		t.Errorf("Size = %d, want 13", w.Size())
	}
	got, err := Read(w, 9, -1)
	if err != nil || string(got) != "more" {
		t.Errorf("Read = (%q, %v), want \"more\"", got, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()
	if r.Size() != 13 || r.Writable() {
		t.Errorf("reopened: size %d writable %v", r.Size(), r.Writable())
	}
	if _, err := r.Write([]byte("x")); !errors.Is(err, ErrReadOnly) {
		t.Errorf("Write on read-only file: got %v, want ErrReadOnly", err)
	}

	a, err := OpenWritable(path)
	if err != nil {
		t.Fatalf("OpenWritable failed: %v", err)
	}
	a.Write([]byte("!"))
	a.Close()
	data, _ := os.ReadFile(path)
	if string(data) != "%PDF-1.7\nmore!" {
		t.Errorf("file contents = %q", data)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Error("expected error opening a missing file")
	}
}
