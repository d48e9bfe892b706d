// Package filters implements the stream filters used by object streams,
// cross-reference streams and ordinary content.
//
// Filters are looked up by their dictionary name (or its abbreviation):
//
//	f, ok := filters.Get("FlateDecode")
//	decoded, err := f.Decode(data, params)
//
// FlateDecode supports the TIFF and PNG predictors selected by the
// Predictor decode parameter, which cross-reference streams commonly use.
// Only FlateDecode and ASCIIHexDecode can encode; the others are read-only.
package filters
