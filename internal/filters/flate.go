package filters

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

type flate struct{}

func (flate) Name() string { return "FlateDecode" }

// Decode inflates zlib data and undoes the predictor named in params.
func (flate) Decode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create zlib reader: %w", err)
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		// Truncated streams are common; keep what was inflated.
		if buf.Len() == 0 || err != io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("zlib decompression failed: %w", err)
		}
	}

	predictor := getIntParam(params, "Predictor", 1)
	if predictor == 1 {
		return buf.Bytes(), nil
	}
	out, err := unpredict(buf.Bytes(), predictor, params)
	if err != nil {
		return nil, fmt.Errorf("predictor failed: %w", err)
	}
	return out, nil
}

// Encode deflates data. A PNG predictor in params is applied first, using
// the Up function on every row.
func (flate) Encode(data []byte, params Params) ([]byte, error) {
	predictor := getIntParam(params, "Predictor", 1)
	switch {
	case predictor == 1:
	case predictor >= 10 && predictor <= 15:
		var err error
		if data, err = predictPNGUp(data, params); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported predictor for encoding: %d", predictor)
	}

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

func unpredict(data []byte, predictor int, params Params) ([]byte, error) {
	colors := getIntParam(params, "Colors", 1)
	bpc := getIntParam(params, "BitsPerComponent", 8)
	columns := getIntParam(params, "Columns", 1)
	if bpc != 8 {
		return nil, fmt.Errorf("only 8 bits per component are supported, got %d", bpc)
	}
	rowSize := columns * colors

	switch {
	case predictor == 2:
		if rowSize == 0 || len(data)%rowSize != 0 {
			return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
		}
		out := make([]byte, len(data))
		for i := range data {
			if i%rowSize < colors {
				out[i] = data[i]
			} else {
				out[i] = data[i] + out[i-colors]
			}
		}
		return out, nil

	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(data, rowSize, colors)
	}

	return nil, fmt.Errorf("unsupported predictor: %d", predictor)
}

// unpredictPNG decodes rows that each start with a PNG filter type byte.
func unpredictPNG(data []byte, rowSize, bpp int) ([]byte, error) {
	stride := rowSize + 1
	if len(data)%stride != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), stride)
	}

	rows := len(data) / stride
	out := make([]byte, rows*rowSize)
	prev := make([]byte, rowSize)
	for r := 0; r < rows; r++ {
		in := data[r*stride+1 : (r+1)*stride]
		cur := out[r*rowSize : (r+1)*rowSize]
		for i := range cur {
			var left, upLeft byte
			if i >= bpp {
				left = cur[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]

			switch data[r*stride] {
			case 0:
				cur[i] = in[i]
			case 1:
				cur[i] = in[i] + left
			case 2:
				cur[i] = in[i] + up
			case 3:
				cur[i] = in[i] + byte((int(left)+int(up))/2)
			case 4:
				cur[i] = in[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter type %d in row %d", data[r*stride], r)
			}
		}
		prev = cur
	}
	return out, nil
}

func predictPNGUp(data []byte, params Params) ([]byte, error) {
	rowSize := getIntParam(params, "Columns", 1) * getIntParam(params, "Colors", 1)
	if rowSize == 0 || len(data)%rowSize != 0 {
		return nil, fmt.Errorf("data size %d is not a multiple of row size %d", len(data), rowSize)
	}

	out := make([]byte, 0, len(data)+len(data)/rowSize)
	prev := make([]byte, rowSize)
	for off := 0; off < len(data); off += rowSize {
		row := data[off : off+rowSize]
		out = append(out, 2)
		for i, b := range row {
			out = append(out, b-prev[i])
		}
		prev = row
	}
	return out, nil
}

// paeth selects the neighbour closest to left+up-upLeft.
func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
