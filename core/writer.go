package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Marshal serialises obj in the syntax ParseObject reads back.
func Marshal(obj Object) []byte {
	var buf bytes.Buffer
	writeObject(&buf, obj)
	return buf.Bytes()
}

// WriteObject serialises obj to w.
func WriteObject(w io.Writer, obj Object) (int64, error) {
	var buf bytes.Buffer
	writeObject(&buf, obj)
	return buf.WriteTo(w)
}

// WriteIndirectObject writes "num gen obj ... endobj" followed by a newline.
func WriteIndirectObject(w io.Writer, ref IndirectRef, obj Object) (int64, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d %d obj\n", ref.Number, ref.Generation)
	writeObject(&buf, obj)
	buf.WriteString("\nendobj\n")
	return buf.WriteTo(w)
}

func writeObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		writeReal(buf, float64(v))
	case String:
		writeString(buf, string(v))
	case Name:
		writeName(buf, string(v))
	case Array:
		buf.WriteByte('[')
		for i, elem := range v {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, elem)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, v)
	case *Stream:
		dict := v.Dict
		if dict == nil {
			dict = Dict{}
		}
		if n, ok := dict.GetInt("Length"); !ok || int(n) != len(v.Data) {
			dict = Clone(dict).(Dict)
			dict["Length"] = Int(len(v.Data))
		}
		writeDict(buf, dict)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case IndirectRef:
		fmt.Fprintf(buf, "%d %d R", v.Number, v.Generation)
	default:
		panic(fmt.Sprintf("core: cannot serialise %T", obj))
	}
}

func writeDict(buf *bytes.Buffer, d Dict) {
	buf.WriteString("<<")
	for _, key := range d.Keys() {
		writeName(buf, key)
		buf.WriteByte(' ')
		writeObject(buf, d[key])
	}
	buf.WriteString(">>")
}

// writeReal never uses exponent notation, which the syntax does not allow.
func writeReal(buf *bytes.Buffer, f float64) {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	buf.WriteString(s)
	if !strings.ContainsRune(s, '.') {
		buf.WriteString(".0")
	}
}

// writeString writes a literal string, falling back to hex when the value
// holds mostly binary bytes (UTF-16 text, IDs).
func writeString(buf *bytes.Buffer, s string) {
	binary := 0
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			binary++
		}
	}
	if binary > len(s)/4 {
		buf.WriteByte('<')
		for i := 0; i < len(s); i++ {
			fmt.Fprintf(buf, "%02X", s[i])
		}
		buf.WriteByte('>')
		return
	}

	buf.WriteByte('(')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 || c > 0x7e {
				fmt.Fprintf(buf, "\\%03o", c)
			} else {
				buf.WriteByte(c)
			}
		}
	}
	buf.WriteByte(')')
}

// writeName escapes delimiters, whitespace, '#' and non-printing bytes as #xx.
func writeName(buf *bytes.Buffer, name string) {
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '!' || c > '~' || c == '#' || isDelimiter(c) {
			fmt.Fprintf(buf, "#%02X", c)
			continue
		}
		buf.WriteByte(c)
	}
}
