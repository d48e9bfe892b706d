package file

import (
	"strings"

	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/resolver"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/unicode/norm"
)

// DocumentInfo is the document information dictionary with its text
// strings decoded.
type DocumentInfo struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate string // raw PDF date string, e.g. D:20240101120000Z
	ModDate      string
	Trapped      core.Name
	Extra        core.Dict // any other entries, unchanged
}

var infoFields = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate"}

func (i *DocumentInfo) field(key string) *string {
	switch key {
	case "Title":
		return &i.Title
	case "Author":
		return &i.Author
	case "Subject":
		return &i.Subject
	case "Keywords":
		return &i.Keywords
	case "Creator":
		return &i.Creator
	case "Producer":
		return &i.Producer
	case "CreationDate":
		return &i.CreationDate
	case "ModDate":
		return &i.ModDate
	}
	return nil
}

// FromObject implements Decoder.
func (i *DocumentInfo) FromObject(obj core.Object, resolve resolver.Func) error {
	dict, err := resolveDict(obj, resolve)
	if err != nil {
		return err
	}

	*i = DocumentInfo{Extra: core.Dict{}}
	for key, value := range dict {
		if ref, ok := value.(core.IndirectRef); ok {
			if value, err = resolve(ref); err != nil {
				return err
			}
		}
		if field := i.field(key); field != nil {
			if s, ok := value.(core.String); ok {
				*field = DecodeTextString(string(s))
				continue
			}
		}
		if name, ok := value.(core.Name); ok && key == "Trapped" {
			i.Trapped = name
			continue
		}
		i.Extra[key] = value
	}
	return nil
}

// ToObject implements Encoder. Empty fields are omitted.
func (i *DocumentInfo) ToObject() core.Object {
	dict := core.Dict{}
	for key, value := range i.Extra {
		dict[key] = value
	}
	for _, key := range infoFields {
		if s := *i.field(key); s != "" {
			dict[key] = core.String(EncodeTextString(s))
		}
	}
	if i.Trapped != "" {
		dict["Trapped"] = i.Trapped
	}
	return dict
}

// Info returns the document information dictionary, or an empty one when
// the document has none.
func (f *File) Info() (*DocumentInfo, error) {
	switch {
	case f.trailer.InfoRef != nil:
		return Deref(f, NewRef[DocumentInfo](*f.trailer.InfoRef))
	case f.trailer.InfoDict != nil:
		info := &DocumentInfo{}
		if err := info.FromObject(f.trailer.InfoDict, f.Resolve); err != nil {
			return nil, err
		}
		return info, nil
	}
	return &DocumentInfo{Extra: core.Dict{}}, nil
}

// SetInfo replaces the document information dictionary. It is stored as an
// indirect object, reusing the existing number when there is one.
func (f *File) SetInfo(info *DocumentInfo) (Ref[DocumentInfo], error) {
	if f.trailer.InfoRef != nil {
		if err := f.Update(f.trailer.InfoRef.Number, info.ToObject()); err != nil {
			return Ref[DocumentInfo]{}, err
		}
		return NewRef[DocumentInfo](*f.trailer.InfoRef), nil
	}
	ref := Add(f, info)
	plain := ref.Plain()
	f.trailer.InfoRef = &plain
	f.trailer.InfoDict = nil
	return ref, nil
}

// DecodeTextString decodes a PDF text string: UTF-16BE with a byte order
// mark, UTF-8 with a byte order mark, or PDFDocEncoding.
func DecodeTextString(s string) string {
	switch {
	case strings.HasPrefix(s, "\xfe\xff"):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		if out, err := dec.String(s); err == nil {
			return norm.NFC.String(out)
		}
	case strings.HasPrefix(s, "\xef\xbb\xbf"):
		return norm.NFC.String(s[3:])
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if r, ok := pdfDocOverrides[s[i]]; ok {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(charmap.ISO8859_1.DecodeByte(s[i]))
	}
	return b.String()
}

// EncodeTextString encodes s as a PDF text string. ASCII is stored as is,
// anything else as UTF-16BE with a byte order mark.
func EncodeTextString(s string) string {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 || (s[i] >= 0x18 && s[i] <= 0x1f) {
			ascii = false
			break
		}
	}
	if ascii {
		return s
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.String(s)
	if err != nil {
		return s
	}
	return out
}

// PDFDocEncoding code points that differ from ISO 8859-1.
var pdfDocOverrides = map[byte]rune{
	0x18: '˘', 0x19: 'ˇ', 0x1a: 'ˆ', 0x1b: '˙',
	0x1c: '˝', 0x1d: '˛', 0x1e: '˚', 0x1f: '˜',
	0x80: '•', 0x81: '†', 0x82: '‡', 0x83: '…',
	0x84: '—', 0x85: '–', 0x86: 'ƒ', 0x87: '⁄',
	0x88: '‹', 0x89: '›', 0x8a: '−', 0x8b: '‰',
	0x8c: '„', 0x8d: '“', 0x8e: '”', 0x8f: '‘',
	0x90: '’', 0x91: '‚', 0x92: '™', 0x93: 'ﬁ',
	0x94: 'ﬂ', 0x95: 'Ł', 0x96: 'Œ', 0x97: 'Š',
	0x98: 'Ÿ', 0x99: 'Ž', 0x9a: 'ı', 0x9b: 'ł',
	0x9c: 'œ', 0x9d: 'š', 0x9e: 'ž', 0xa0: '€',
}
