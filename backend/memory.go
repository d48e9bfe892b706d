package backend

import "io"

// Memory is an in-memory Writer.
type Memory struct {
	data []byte
}

// NewMemory returns storage holding data. The slice is not copied.
func NewMemory(data []byte) *Memory {
	return &Memory{data: data}
}

func (m *Memory) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, io.ErrUnexpectedEOF
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *Memory) Size() int64 {
	return int64(len(m.data))
}

// Write appends p.
func (m *Memory) Write(p []byte) (int, error) {
	m.data = append(m.data, p...)
	return len(p), nil
}

// Bytes returns the current contents.
func (m *Memory) Bytes() []byte {
	return m.data
}
