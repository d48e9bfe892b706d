package filters

import (
	"bytes"
	a85 "encoding/ascii85"
	"encoding/hex"
	"fmt"
)

type asciiHex struct{}

func (asciiHex) Name() string { return "ASCIIHexDecode" }

// Decode reads hex digit pairs up to '>', ignoring whitespace. An odd final
// digit is padded with zero.
func (asciiHex) Decode(data []byte, _ Params) ([]byte, error) {
	digits := make([]byte, 0, len(data))
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		digits = append(digits, c)
	}
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}

	out := make([]byte, len(digits)/2)
	if _, err := hex.Decode(out, digits); err != nil {
		return nil, fmt.Errorf("invalid hex data: %w", err)
	}
	return out, nil
}

func (asciiHex) Encode(data []byte, _ Params) ([]byte, error) {
	out := make([]byte, hex.EncodedLen(len(data))+1)
	hex.Encode(out, data)
	out[len(out)-1] = '>'
	return out, nil
}

type ascii85 struct{}

func (ascii85) Name() string { return "ASCII85Decode" }

// Decode strips the optional <~ prefix and the ~> end marker and decodes the
// rest; whitespace and the 'z' shorthand are accepted.
func (ascii85) Decode(data []byte, _ Params) ([]byte, error) {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte("<~"))
	if end := bytes.Index(data, []byte("~>")); end >= 0 {
		data = data[:end]
	}

	// 'z' expands one character to four bytes.
	out := make([]byte, 4*len(data)+4)
	n, _, err := a85.Decode(out, data, true)
	if err != nil {
		return nil, fmt.Errorf("invalid ASCII85 data: %w", err)
	}
	return out[:n], nil
}

func (ascii85) Encode(data []byte, _ Params) ([]byte, error) {
	return nil, ErrEncodeUnsupported
}

type runLength struct{}

func (runLength) Name() string { return "RunLengthDecode" }

// Decode expands length-byte runs: 0-127 copy the next n+1 bytes, 129-255
// repeat the next byte 257-n times, 128 ends the data.
func (runLength) Decode(data []byte, _ Params) ([]byte, error) {
	var out bytes.Buffer
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out.Bytes(), nil
		case n < 128:
			if i+n+1 > len(data) {
				return nil, fmt.Errorf("run length literal overruns data")
			}
			out.Write(data[i : i+n+1])
			i += n + 1
		default:
			if i >= len(data) {
				return nil, fmt.Errorf("run length repeat missing byte")
			}
			out.Write(bytes.Repeat(data[i:i+1], 257-n))
			i++
		}
	}
	return out.Bytes(), nil
}

func (runLength) Encode(data []byte, _ Params) ([]byte, error) {
	return nil, ErrEncodeUnsupported
}
