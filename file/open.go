package file

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/tsawler/pdfstore/backend"
	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/resolver"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

var headerVersion = regexp.MustCompile(`^%PDF-(\d+)\.(\d+)`)

const newDocumentHeader = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"

// Open opens a PDF file read-only.
func Open(path string, opts ...Option) (*File, error) {
	b, err := backend.Open(path)
	if err != nil {
		return nil, err
	}
	return loadOrClose(b, opts)
}

// OpenForUpdate opens a PDF file so that Save can append to it.
func OpenForUpdate(path string, opts ...Option) (*File, error) {
	b, err := backend.OpenWritable(path)
	if err != nil {
		return nil, err
	}
	return loadOrClose(b, opts)
}

func loadOrClose(b *backend.File, opts []Option) (*File, error) {
	f, err := Load(b, opts...)
	if err != nil {
		b.Close()
		return nil, err
	}
	return f, nil
}

// Load reads the cross-reference chain and trailer from b. The catalog and
// page tree are decoded up front; a page tree whose counts disagree with
// its shape is rejected.
func Load(b backend.Backend, opts ...Option) (*File, error) {
	f := newFile(b, opts)

	version, err := readVersion(b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	f.version = version

	startXRef, trailerDict, err := f.loadXRef()
	if err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	f.startXRef = startXRef

	// No File exists for the decoder to call back into yet, so references
	// in the trailer go straight to storage.
	if err := f.trailer.FromObject(trailerDict, resolver.NewFunc(b, f.refs)); err != nil {
		return nil, fmt.Errorf("failed to decode trailer: %w", err)
	}
	if err := f.trailer.Root.Pages.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// New starts an empty document on w, which should be empty. Object 0 is the
// head of the free list; the catalog must be set with SetRoot before Save.
func New(w backend.Writer, opts ...Option) (*File, error) {
	f := newFile(w, opts)
	if w.Size() == 0 {
		if _, err := w.Write([]byte(newDocumentHeader)); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	f.version = PDFVersion{Major: 1, Minor: 7}
	f.refs = core.NewXRefTable(1)
	f.refs.Set(0, core.FreeEntry(0, 65535))
	f.touched[0] = true
	return f, nil
}

func newFile(b backend.Backend, opts []Option) *File {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &File{
		backend: b,
		changes: make(map[int]core.Object),
		touched: make(map[int]bool),
		log:     o.logger.Sugar().Named("pdfstore"),
		opts:    o,
	}
}

func readVersion(b backend.Backend) (PDFVersion, error) {
	end := int64(16)
	if end > b.Size() {
		end = b.Size()
	}
	header, err := backend.Read(b, 0, end)
	if err != nil {
		return PDFVersion{}, err
	}

	matches := headerVersion.FindSubmatch(header)
	if matches == nil {
		return PDFVersion{}, fmt.Errorf("invalid PDF header: %q", header)
	}
	major, _ := strconv.Atoi(string(matches[1]))
	minor, _ := strconv.Atoi(string(matches[2]))
	return PDFVersion{Major: major, Minor: minor}, nil
}

// loadXRef merges every section of the chain into f.refs, newest first, and
// returns the newest section's offset and trailer.
func (f *File) loadXRef() (int64, core.Dict, error) {
	size := f.backend.Size()
	offset, err := core.FindStartXRef(f.backend, size)
	if err != nil {
		return 0, nil, err
	}

	sections, trailer, err := core.ReadXRefSection(f.backend, size, offset, resolver.NoResolve)
	if err != nil {
		return 0, nil, err
	}
	highest, ok := trailer.GetInt("Size")
	if !ok {
		return 0, nil, &core.EntryNotFoundError{Key: "Size"}
	}

	f.refs = core.NewXRefTable(int(highest))
	f.merge(offset, sections, trailer)

	seen := map[int64]bool{offset: true}
	for dict := trailer; ; {
		prev, ok := dict.GetInt("Prev")
		if !ok {
			break
		}
		if seen[int64(prev)] {
			return 0, nil, fmt.Errorf("/Prev chain loops back to offset %d", prev)
		}
		seen[int64(prev)] = true

		sections, dict, err = core.ReadXRefSection(f.backend, size, int64(prev), resolver.NoResolve)
		if err != nil {
			return 0, nil, err
		}
		f.merge(int64(prev), sections, dict)
	}
	return offset, trailer, nil
}

func (f *File) merge(offset int64, sections []core.XRefSection, trailer core.Dict) {
	entries := 0
	for _, s := range sections {
		f.refs.AddEntriesFrom(s)
		entries += len(s.Entries)
	}
	prev, _ := trailer.GetInt("Prev")
	f.log.Debugw("loaded xref section", "offset", offset, "entries", entries, "prev", int64(prev))
}
