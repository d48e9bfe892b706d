package core

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

// EntryKind tags the variant held by an XRefEntry.
type EntryKind int

const (
	// EntryNone marks a slot no loaded section has defined yet.
	EntryNone EntryKind = iota
	// EntryRaw locates an indirect object at a byte offset.
	EntryRaw
	// EntryStream locates an object packed inside an object stream.
	EntryStream
	// EntryFree marks a deleted object number.
	EntryFree
	// EntryPromised marks a reserved number that has no value yet.
	EntryPromised
)

func (k EntryKind) String() string {
	switch k {
	case EntryNone:
		return "none"
	case EntryRaw:
		return "raw"
	case EntryStream:
		return "stream"
	case EntryFree:
		return "free"
	case EntryPromised:
		return "promised"
	}
	return "EntryKind(" + strconv.Itoa(int(k)) + ")"
}

// XRefEntry is one slot of the cross-reference table. Which fields are
// meaningful depends on Kind:
//
//	EntryRaw:    Offset, Generation
//	EntryStream: StreamNumber, Index
//	EntryFree:   NextFree, Generation
type XRefEntry struct {
	Kind         EntryKind
	Offset       int64
	Generation   int
	StreamNumber int
	Index        int
	NextFree     int
}

// RawEntry returns an entry for an object stored at offset.
func RawEntry(offset int64, generation int) XRefEntry {
	return XRefEntry{Kind: EntryRaw, Offset: offset, Generation: generation}
}

// StreamEntry returns an entry for the index-th object of object stream number.
func StreamEntry(number, index int) XRefEntry {
	return XRefEntry{Kind: EntryStream, StreamNumber: number, Index: index}
}

// FreeEntry returns an entry for a deleted object.
func FreeEntry(nextFree, generation int) XRefEntry {
	return XRefEntry{Kind: EntryFree, NextFree: nextFree, Generation: generation}
}

// PromisedEntry returns a placeholder for a reserved object number.
func PromisedEntry() XRefEntry {
	return XRefEntry{Kind: EntryPromised}
}

func (e XRefEntry) String() string {
	switch e.Kind {
	case EntryRaw:
		return fmt.Sprintf("raw{offset: %d, gen: %d}", e.Offset, e.Generation)
	case EntryStream:
		return fmt.Sprintf("stream{number: %d, index: %d}", e.StreamNumber, e.Index)
	case EntryFree:
		return fmt.Sprintf("free{next: %d, gen: %d}", e.NextFree, e.Generation)
	}
	return e.Kind.String()
}

// XRefSection is a run of consecutive entries from one update section,
// starting at object number Start.
type XRefSection struct {
	Start   int
	Entries []XRefEntry
}

// XRefTable maps object numbers to entries. Its length is the highest object
// number ever defined, promised or added, plus one.
type XRefTable struct {
	entries []XRefEntry
}

// NewXRefTable creates a table with size empty slots.
func NewXRefTable(size int) *XRefTable {
	if size < 0 {
		size = 0
	}
	return &XRefTable{entries: make([]XRefEntry, size)}
}

// Len returns the number of slots.
func (t *XRefTable) Len() int {
	return len(t.entries)
}

// Get returns the entry for object number n.
func (t *XRefTable) Get(n int) (XRefEntry, error) {
	if n < 0 || n >= len(t.entries) {
		return XRefEntry{}, &ObjectError{Number: n, Err: ErrObjectNumberOutOfRange}
	}
	return t.entries[n], nil
}

// Set overwrites the entry for object number n.
func (t *XRefTable) Set(n int, e XRefEntry) error {
	if n < 0 || n >= len(t.entries) {
		return &ObjectError{Number: n, Err: ErrObjectNumberOutOfRange}
	}
	t.entries[n] = e
	return nil
}

// Push appends an entry at the next unused object number and returns it.
func (t *XRefTable) Push(e XRefEntry) int {
	t.entries = append(t.entries, e)
	return len(t.entries) - 1
}

// Truncate drops the entries numbered n and above. It does nothing when n
// is not below Len.
func (t *XRefTable) Truncate(n int) {
	if n >= 0 && n < len(t.entries) {
		t.entries = t.entries[:n]
	}
}

// AddEntriesFrom merges an older section into the table. Only empty and
// promised slots are written, so sections must be applied newest first.
// The table grows when the section names numbers beyond its length.
func (t *XRefTable) AddEntriesFrom(section XRefSection) {
	if section.Start < 0 {
		return
	}
	if end := section.Start + len(section.Entries); end > len(t.entries) {
		t.entries = append(t.entries, make([]XRefEntry, end-len(t.entries))...)
	}
	for i, e := range section.Entries {
		if e.Kind == EntryNone {
			continue
		}
		slot := &t.entries[section.Start+i]
		if slot.Kind == EntryNone || slot.Kind == EntryPromised {
			*slot = e
		}
	}
}

// Sections groups the given object numbers into runs of consecutive numbers
// carrying their current entries, ready to be written as subsections.
func (t *XRefTable) Sections(numbers []int) ([]XRefSection, error) {
	sorted := append([]int(nil), numbers...)
	sort.Ints(sorted)

	var sections []XRefSection
	for i, n := range sorted {
		if i > 0 && n == sorted[i-1] {
			continue
		}
		e, err := t.Get(n)
		if err != nil {
			return nil, err
		}
		if last := len(sections) - 1; last >= 0 && sections[last].Start+len(sections[last].Entries) == n {
			sections[last].Entries = append(sections[last].Entries, e)
			continue
		}
		sections = append(sections, XRefSection{Start: n, Entries: []XRefEntry{e}})
	}
	return sections, nil
}

const (
	initialWindow = 4096
	startXRefTail = 1024
)

// ParseWindowed reads data from r starting at offset and hands it to parse.
// It starts with a small window and doubles it after every failure until the
// window reaches the end of the data, returning the last error.
func ParseWindowed[T any](r io.ReaderAt, size, offset int64, parse func([]byte) (T, error)) (T, error) {
	var zero T
	if offset < 0 || offset >= size {
		return zero, fmt.Errorf("offset %d outside data of size %d", offset, size)
	}

	window := int64(initialWindow)
	for {
		end := offset + window
		if end > size {
			end = size
		}
		buf := make([]byte, end-offset)
		n, err := r.ReadAt(buf, offset)
		if n < len(buf) {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return zero, fmt.Errorf("failed to read at offset %d: %w", offset, err)
		}

		v, err := parse(buf)
		if err == nil || end == size {
			return v, err
		}
		window *= 2
	}
}

// FindStartXRef scans backwards from the end of the data for the startxref
// marker and returns the offset that follows it.
func FindStartXRef(r io.ReaderAt, size int64) (int64, error) {
	tail := int64(startXRefTail)
	for {
		if tail > size {
			tail = size
		}
		buf := make([]byte, tail)
		if n, err := r.ReadAt(buf, size-tail); n < len(buf) {
			return 0, fmt.Errorf("failed to read startxref area: %w", err)
		}

		lexer := NewLexer(buf)
		lexer.SetPosFromEnd(0)
		if err := lexer.SeekSubstrBack([]byte("startxref")); err != nil {
			if tail == size {
				return 0, fmt.Errorf("startxref not found: %w", err)
			}
			tail *= 2
			continue
		}

		tok, err := lexer.NextToken()
		if err != nil {
			return 0, fmt.Errorf("invalid startxref: %w", err)
		}
		if tok.Type != TokenInteger {
			return 0, fmt.Errorf("expected xref offset after startxref, got %q", tok.Value)
		}
		offset, err := strconv.ParseInt(string(tok.Value), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid xref offset: %w", err)
		}
		return offset, nil
	}
}

// ReadXRefSection decodes the update section at offset: either a classic
// "xref" table followed by its trailer, or a cross-reference stream. A
// classic trailer's /XRefStm entries follow its own, and replace classic
// free entries for objects the stream has in use. The returned dictionary
// is the trailer (the stream dictionary for cross-reference streams).
func ReadXRefSection(r io.ReaderAt, size, offset int64, resolve ResolveFunc) ([]XRefSection, Dict, error) {
	type result struct {
		sections []XRefSection
		trailer  Dict
	}

	res, err := ParseWindowed(r, size, offset, func(data []byte) (result, error) {
		lexer := NewLexer(data)
		tok, err := lexer.NextToken()
		if err != nil {
			return result{}, err
		}
		if tok.IsKeyword("xref") {
			sections, trailer, err := parseClassicSection(lexer)
			return result{sections, trailer}, err
		}
		sections, trailer, err := parseXRefStream(data, resolve)
		return result{sections, trailer}, err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read xref section at %d: %w", offset, err)
	}

	if stm, ok := res.trailer.GetInt("XRefStm"); ok {
		hybrid, _, err := ReadXRefSection(r, size, int64(stm), resolve)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read /XRefStm: %w", err)
		}
		res.sections = append(preferInUse(res.sections, hybrid), hybrid...)
	}
	return res.sections, res.trailer, nil
}

// preferInUse replaces the classic entries of a hybrid section that are free
// while the section's cross-reference stream has the object in use. Hybrid
// files mark packed objects free for readers that only know classic tables.
// Every other classic entry keeps precedence over the stream.
func preferInUse(classic, stream []XRefSection) []XRefSection {
	inUse := make(map[int]XRefEntry)
	for _, s := range stream {
		for i, e := range s.Entries {
			if e.Kind == EntryRaw || e.Kind == EntryStream {
				inUse[s.Start+i] = e
			}
		}
	}
	for _, s := range classic {
		for i, e := range s.Entries {
			if stored, ok := inUse[s.Start+i]; ok && e.Kind == EntryFree {
				s.Entries[i] = stored
			}
		}
	}
	return classic
}

// parseClassicSection parses subsections after the xref keyword up to and
// including the trailer dictionary.
func parseClassicSection(lexer *Lexer) ([]XRefSection, Dict, error) {
	var sections []XRefSection
	for {
		tok, err := lexer.NextToken()
		if err != nil {
			return nil, nil, err
		}
		if tok.IsKeyword("trailer") {
			break
		}
		start, err := tokenInt(tok, "subsection start")
		if err != nil {
			return nil, nil, err
		}
		count, err := nextInt(lexer, "subsection count")
		if err != nil {
			return nil, nil, err
		}
		if start < 0 {
			return nil, nil, fmt.Errorf("negative subsection start %d", start)
		}
		if count < 0 {
			return nil, nil, fmt.Errorf("negative subsection count %d", count)
		}

		// The count comes from the file; entries are appended as they parse
		// so a corrupt count fails on the first missing entry.
		section := XRefSection{Start: int(start)}
		for i := int64(0); i < count; i++ {
			e, err := parseClassicEntry(lexer)
			if err != nil {
				return nil, nil, fmt.Errorf("entry %d: %w", start+i, err)
			}
			section.Entries = append(section.Entries, e)
		}
		sections = append(sections, section)
	}

	parser := &Parser{lexer: lexer}
	parser.advance()
	obj, err := parser.ParseObject()
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse trailer dictionary: %w", err)
	}
	trailer, ok := obj.(Dict)
	if !ok {
		return nil, nil, fmt.Errorf("trailer is not a dictionary, got %T", obj)
	}
	return sections, trailer, nil
}

// parseClassicEntry reads "offset generation n|f".
func parseClassicEntry(lexer *Lexer) (XRefEntry, error) {
	offset, err := nextInt(lexer, "offset")
	if err != nil {
		return XRefEntry{}, err
	}
	gen, err := nextInt(lexer, "generation")
	if err != nil {
		return XRefEntry{}, err
	}
	tok, err := lexer.NextToken()
	if err != nil {
		return XRefEntry{}, err
	}
	switch {
	case tok.IsKeyword("n"):
		return RawEntry(offset, int(gen)), nil
	case tok.IsKeyword("f"):
		return FreeEntry(int(offset), int(gen)), nil
	case tok.Type == TokenEOF:
		return XRefEntry{}, io.ErrUnexpectedEOF
	}
	return XRefEntry{}, fmt.Errorf("invalid in-use flag %q", tok.Value)
}

func nextInt(lexer *Lexer, what string) (int64, error) {
	tok, err := lexer.NextToken()
	if err != nil {
		return 0, err
	}
	return tokenInt(tok, what)
}

func tokenInt(tok *Token, what string) (int64, error) {
	if tok.Type == TokenEOF {
		return 0, fmt.Errorf("expected %s: %w", what, io.ErrUnexpectedEOF)
	}
	if tok.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s, got %q", what, tok.Value)
	}
	v, err := strconv.ParseInt(string(tok.Value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	return v, nil
}

// WriteXRefTable writes a classic "xref" table for the given sections. Every
// entry is exactly 20 bytes.
func WriteXRefTable(w io.Writer, sections []XRefSection) error {
	if _, err := io.WriteString(w, "xref\n"); err != nil {
		return err
	}
	for _, s := range sections {
		if _, err := fmt.Fprintf(w, "%d %d\n", s.Start, len(s.Entries)); err != nil {
			return err
		}
		for i, e := range s.Entries {
			var line string
			switch e.Kind {
			case EntryRaw:
				line = fmt.Sprintf("%010d %05d n\r\n", e.Offset, e.Generation)
			case EntryFree:
				line = fmt.Sprintf("%010d %05d f\r\n", e.NextFree, e.Generation)
			default:
				return &ObjectError{
					Number: s.Start + i,
					Err:    errors.New("entry of kind " + e.Kind.String() + " cannot be written to a classic xref table"),
				}
			}
			if _, err := io.WriteString(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
