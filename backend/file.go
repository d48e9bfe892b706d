package backend

import (
	"fmt"
	"os"
)

// File is storage backed by an operating system file.
type File struct {
	f        *os.File
	size     int64
	writable bool
}

// Open opens path for reading.
func Open(path string) (*File, error) {
	return openFile(path, os.O_RDONLY, false)
}

// OpenWritable opens an existing file for reading and appending.
func OpenWritable(path string) (*File, error) {
	return openFile(path, os.O_RDWR, true)
}

// Create creates or truncates path for writing a new document.
func Create(path string) (*File, error) {
	return openFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, true)
}

func openFile(path string, flag int, writable bool) (*File, error) {
	f, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}
	return &File{f: f, size: info.Size(), writable: writable}, nil
}

func (b *File) ReadAt(p []byte, off int64) (int, error) {
	return b.f.ReadAt(p, off)
}

func (b *File) Size() int64 {
	return b.size
}

// Write appends p at the end of the file.
func (b *File) Write(p []byte) (int, error) {
	if !b.writable {
		return 0, ErrReadOnly
	}
	n, err := b.f.WriteAt(p, b.size)
	b.size += int64(n)
	return n, err
}

// Writable reports whether the file accepts writes.
func (b *File) Writable() bool {
	return b.writable
}

// Close closes the underlying file.
func (b *File) Close() error {
	return b.f.Close()
}
