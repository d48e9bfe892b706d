// Package backend provides the storage a document is read from and appended
// to: random byte-range reads plus, for writers, an append cursor at the end
// of the data.
package backend

import (
	"errors"
	"fmt"
	"io"
)

// ErrReadOnly is returned when writing to storage opened for reading only.
var ErrReadOnly = errors.New("backend is read-only")

// Backend is random-access storage of known size.
type Backend interface {
	io.ReaderAt
	Size() int64
}

// Writer is a Backend whose writes are appended at Size().
type Writer interface {
	Backend
	io.Writer
}

// Read returns the bytes in [start, end). A negative end reads to the end
// of the data.
func Read(b Backend, start, end int64) ([]byte, error) {
	size := b.Size()
	if end < 0 {
		end = size
	}
	if start < 0 || start > end || end > size {
		return nil, fmt.Errorf("invalid range [%d, %d) for data of size %d", start, end, size)
	}

	buf := make([]byte, end-start)
	n, err := b.ReadAt(buf, start)
	if n < len(buf) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("failed to read range [%d, %d): %w", start, end, err)
	}
	return buf, nil
}
