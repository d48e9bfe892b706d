package filters

import (
	"bytes"
	"io"

	"golang.org/x/image/ccitt"
)

type ccittFax struct{}

func (ccittFax) Name() string { return "CCITTFaxDecode" }

// Decode decodes CCITT Group 3 or Group 4 fax data.
//
// Parameters:
//   - K: group selector (<0 Group 4, otherwise Group 3)
//   - Columns: image width in pixels (default 1728)
//   - Rows: image height (default 0, detected from the data)
//   - BlackIs1: inverts the bit interpretation
func (ccittFax) Decode(data []byte, params Params) ([]byte, error) {
	columns := getIntParam(params, "Columns", 1728)
	rows := getIntParam(params, "Rows", 0)

	sf := ccitt.Group3
	if getIntParam(params, "K", 0) < 0 {
		sf = ccitt.Group4
	}
	if rows == 0 {
		rows = ccitt.AutoDetectHeight
	}

	opts := &ccitt.Options{Invert: getBoolParam(params, "BlackIs1", false)}
	return io.ReadAll(ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts))
}

func (ccittFax) Encode(data []byte, _ Params) ([]byte, error) {
	return nil, ErrEncodeUnsupported
}
