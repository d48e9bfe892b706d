package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/pdfstore/core"
)

func TestDecodeTextString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii", "Hello", "Hello"},
		{"latin1", "caf\xe9", "café"},
		{"pdfdoc ligature", "\x93le", "ﬁle"},
		{"pdfdoc quotes", "\x8dhi\x8e", "“hi”"},
		{"utf16", "\xfe\xff\x00H\x00\xe9", "Hé"},
		{"utf16 decomposed", "\xfe\xff\x00e\x03\x01", "é"},
		{"utf8 bom", "\xef\xbb\xbfna\xc3\xafve", "naïve"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeTextString(tt.in))
		})
	}
}

func TestEncodeTextString(t *testing.T) {
	assert.Equal(t, "Plain text", EncodeTextString("Plain text"))
	assert.Equal(t, "\xfe\xff\x00\xe9", EncodeTextString("é"))
	assert.Equal(t, "日本", DecodeTextString(EncodeTextString("日本")))
}

func TestInfoFromDirectDict(t *testing.T) {
	doc := basicDoc("a")
	doc.XRef(core.Dict{
		"Size": core.Int(4),
		"Root": ref(1),
		"Info": core.Dict{
			"Title":   core.String("\x93rst"),
			"Trapped": core.Name("False"),
			"Custom":  core.Int(3),
		},
	})
	f := load(t, doc.Bytes())

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, "ﬁrst", info.Title)
	assert.Equal(t, core.Name("False"), info.Trapped)
	assert.Equal(t, core.Dict{"Custom": core.Int(3)}, info.Extra)

	// SetInfo moves a direct dictionary into an indirect object.
	info.Subject = "notes"
	r, err := f.SetInfo(info)
	require.NoError(t, err)
	require.NotNil(t, f.Trailer().InfoRef)
	assert.Equal(t, r.Plain(), *f.Trailer().InfoRef)
	assert.Nil(t, f.Trailer().InfoDict)

	again, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, "notes", again.Subject)
	assert.Equal(t, "ﬁrst", again.Title)
}

func TestInfoIndirectReusesNumber(t *testing.T) {
	doc := basicDoc("a").Object(4, core.Dict{"Author": core.String("old"), "Title": ref(5)}).
		Object(5, core.String("\xfe\xff\x00T\x00i"))
	doc.XRef(core.Dict{"Size": core.Int(6), "Root": ref(1), "Info": ref(4)})
	f := load(t, doc.Bytes())

	info, err := f.Info()
	require.NoError(t, err)
	assert.Equal(t, "old", info.Author)
	assert.Equal(t, "Ti", info.Title)

	r, err := f.SetInfo(&DocumentInfo{Author: "new"})
	require.NoError(t, err)
	assert.Equal(t, 4, r.Number())
	assert.Equal(t, 6, f.XRefTable().Len())
}

func TestInfoMissing(t *testing.T) {
	doc := basicDoc("a")
	doc.XRef(core.Dict{"Size": core.Int(4), "Root": ref(1)})
	f := load(t, doc.Bytes())

	info, err := f.Info()
	require.NoError(t, err)
	assert.Empty(t, info.Title)
	assert.Empty(t, info.Extra)
}
