package file

import (
	"fmt"

	"github.com/tsawler/pdfstore/core"
	"github.com/tsawler/pdfstore/pages"
	"github.com/tsawler/pdfstore/resolver"
)

// Trailer is the decoded trailer of the newest update section.
type Trailer struct {
	HighestID int // /Size

	// PrevTrailerPos is the offset of the previous section, zero when there
	// is none. It is only needed while the chain is loaded.
	PrevTrailerPos int64

	Root        *pages.Catalog
	RootRef     core.IndirectRef
	EncryptDict core.Dict
	EncryptRef  *core.IndirectRef
	InfoDict    core.Dict
	InfoRef     *core.IndirectRef
	ID          []core.String
}

// FromObject decodes a trailer dictionary. The catalog and page tree it
// names are decoded too, following references through resolve.
func (t *Trailer) FromObject(obj core.Object, resolve resolver.Func) error {
	dict, ok := obj.(core.Dict)
	if !ok {
		return fmt.Errorf("invalid trailer type: %T", obj)
	}

	size, ok := dict.GetInt("Size")
	if !ok {
		return &core.EntryNotFoundError{Key: "Size"}
	}
	t.HighestID = int(size)
	t.PrevTrailerPos = 0
	if prev, ok := dict.GetInt("Prev"); ok {
		t.PrevTrailerPos = int64(prev)
	}

	rootRef, ok := dict.GetIndirectRef("Root")
	if !ok {
		return &core.EntryNotFoundError{Key: "Root"}
	}
	rootObj, err := resolve(rootRef)
	if err != nil {
		return fmt.Errorf("failed to resolve catalog: %w", err)
	}
	root := &pages.Catalog{}
	if err := root.FromObject(rootObj, resolve); err != nil {
		return fmt.Errorf("failed to decode catalog: %w", err)
	}
	t.Root = root
	t.RootRef = rootRef

	t.EncryptDict, t.EncryptRef = nil, nil
	if obj := dict.Get("Encrypt"); obj != nil {
		if ref, ok := obj.(core.IndirectRef); ok {
			t.EncryptRef = &ref
		}
		if t.EncryptDict, err = resolveDict(obj, resolve); err != nil {
			return fmt.Errorf("failed to resolve /Encrypt: %w", err)
		}
	}

	t.InfoRef, t.InfoDict = nil, nil
	switch info := dict.Get("Info").(type) {
	case nil:
	case core.IndirectRef:
		t.InfoRef = &info
	case core.Dict:
		t.InfoDict = info
	default:
		return fmt.Errorf("invalid /Info type: %T", info)
	}

	t.ID = nil
	if ids, ok := dict.GetArray("ID"); ok {
		for _, id := range ids {
			s, ok := id.(core.String)
			if !ok {
				return fmt.Errorf("invalid /ID element type: %T", id)
			}
			t.ID = append(t.ID, s)
		}
	}
	return nil
}

// ToObject encodes the trailer. /Prev is left to the writer.
func (t *Trailer) ToObject() core.Object {
	dict := core.Dict{
		"Size": core.Int(t.HighestID),
		"Root": t.RootRef,
	}
	if t.InfoRef != nil {
		dict["Info"] = *t.InfoRef
	} else if t.InfoDict != nil {
		dict["Info"] = t.InfoDict
	}
	if t.EncryptRef != nil {
		dict["Encrypt"] = *t.EncryptRef
	} else if t.EncryptDict != nil {
		dict["Encrypt"] = t.EncryptDict
	}
	if len(t.ID) > 0 {
		ids := make(core.Array, len(t.ID))
		for i, id := range t.ID {
			ids[i] = id
		}
		dict["ID"] = ids
	}
	return dict
}

func resolveDict(obj core.Object, resolve resolver.Func) (core.Dict, error) {
	if ref, ok := obj.(core.IndirectRef); ok {
		var err error
		if obj, err = resolve(ref); err != nil {
			return nil, err
		}
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("expected dictionary, got %T", obj)
	}
	return dict, nil
}
