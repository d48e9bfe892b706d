package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Object is any value that can appear in a document: the eight basic kinds,
// streams and indirect references.
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType tags the kind of an Object.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjIndirect
)

var objectTypeNames = [...]string{
	ObjNull:     "Null",
	ObjBool:     "Bool",
	ObjInt:      "Int",
	ObjReal:     "Real",
	ObjString:   "String",
	ObjName:     "Name",
	ObjArray:    "Array",
	ObjDict:     "Dict",
	ObjStream:   "Stream",
	ObjIndirect: "IndirectRef",
}

func (t ObjectType) String() string {
	if t < 0 || int(t) >= len(objectTypeNames) {
		return "Unknown"
	}
	return objectTypeNames[t]
}

// Null is the null object.
type Null struct{}

func (Null) Type() ObjectType { return ObjNull }
func (Null) String() string   { return "null" }

// Bool is a boolean.
type Bool bool

func (Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// Int is an integer.
type Int int64

func (Int) Type() ObjectType { return ObjInt }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

// Real is a real number.
type Real float64

func (Real) Type() ObjectType { return ObjReal }
func (r Real) String() string { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// String holds the raw bytes of a literal or hexadecimal string.
type String string

func (String) Type() ObjectType { return ObjString }
func (s String) String() string { return string(s) }

// Name is a name object without its leading slash.
type Name string

func (Name) Type() ObjectType { return ObjName }
func (n Name) String() string { return "/" + string(n) }

// Array is an ordered list of objects.
type Array []Object

func (Array) Type() ObjectType { return ObjArray }
func (a Array) String() string {
	parts := make([]string, len(a))
	for i, obj := range a {
		parts[i] = obj.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Get returns the element at index, or nil when out of range.
func (a Array) Get(index int) Object {
	if index < 0 || index >= len(a) {
		return nil
	}
	return a[index]
}

// GetInt returns the integer at index.
func (a Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// Ints converts an array of integers, failing on the first non-integer.
func (a Array) Ints() ([]int, error) {
	out := make([]int, len(a))
	for i, obj := range a {
		v, ok := obj.(Int)
		if !ok {
			return nil, fmt.Errorf("array element %d is %T, not an integer", i, obj)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Dict maps names (without slash) to objects.
type Dict map[string]Object

func (Dict) Type() ObjectType { return ObjDict }
func (d Dict) String() string {
	keys := d.Keys()
	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("/%s %s", key, d[key].String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Get returns the value for key, or nil.
func (d Dict) Get(key string) Object {
	return d[key]
}

func (d Dict) GetName(key string) (Name, bool) {
	n, ok := d[key].(Name)
	return n, ok
}

func (d Dict) GetInt(key string) (Int, bool) {
	i, ok := d[key].(Int)
	return i, ok
}

func (d Dict) GetDict(key string) (Dict, bool) {
	dict, ok := d[key].(Dict)
	return dict, ok
}

func (d Dict) GetArray(key string) (Array, bool) {
	arr, ok := d[key].(Array)
	return arr, ok
}

func (d Dict) GetString(key string) (String, bool) {
	s, ok := d[key].(String)
	return s, ok
}

func (d Dict) GetIndirectRef(key string) (IndirectRef, bool) {
	ref, ok := d[key].(IndirectRef)
	return ref, ok
}

// RequireInt returns the integer stored under key. A missing key yields an
// EntryNotFoundError.
func (d Dict) RequireInt(key string) (int64, error) {
	obj, ok := d[key]
	if !ok {
		return 0, &EntryNotFoundError{Key: key}
	}
	i, ok := obj.(Int)
	if !ok {
		return 0, fmt.Errorf("invalid /%s type: %T", key, obj)
	}
	return int64(i), nil
}

// Has reports whether key is present.
func (d Dict) Has(key string) bool {
	_, ok := d[key]
	return ok
}

func (d Dict) Set(key string, value Object) {
	d[key] = value
}

func (d Dict) Delete(key string) {
	delete(d, key)
}

// Keys returns the keys in sorted order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Stream is a dictionary followed by raw (possibly filtered) bytes.
type Stream struct {
	Dict Dict
	Data []byte
}

func (*Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return fmt.Sprintf("stream %s (%d bytes)", s.Dict.String(), len(s.Data))
}

// IndirectRef refers to an indirect object by number and generation.
type IndirectRef struct {
	Number     int
	Generation int
}

func (IndirectRef) Type() ObjectType { return ObjIndirect }
func (r IndirectRef) String() string {
	return fmt.Sprintf("%d %d R", r.Number, r.Generation)
}

// IndirectObject is an object together with the reference it is stored under.
type IndirectObject struct {
	Ref    IndirectRef
	Object Object
}

// Clone returns a deep copy of obj. Scalars are returned as-is.
func Clone(obj Object) Object {
	switch v := obj.(type) {
	case Array:
		if v == nil {
			return v
		}
		out := make(Array, len(v))
		for i, elem := range v {
			out[i] = Clone(elem)
		}
		return out
	case Dict:
		if v == nil {
			return v
		}
		out := make(Dict, len(v))
		for k, val := range v {
			out[k] = Clone(val)
		}
		return out
	case *Stream:
		if v == nil {
			return v
		}
		data := make([]byte, len(v.Data))
		copy(data, v.Data)
		dict, _ := Clone(v.Dict).(Dict)
		return &Stream{Dict: dict, Data: data}
	default:
		return obj
	}
}
