package filters

import (
	"errors"
	"fmt"
)

// ErrEncodeUnsupported is returned by filters that can only decode.
var ErrEncodeUnsupported = errors.New("filter does not support encoding")

// Params represents decode parameters from stream dictionaries, converted to
// Go values (int, float64, bool, string).
type Params map[string]interface{}

// Filter transforms stream data in both directions.
type Filter interface {
	Name() string
	Decode(data []byte, params Params) ([]byte, error)
	Encode(data []byte, params Params) ([]byte, error)
}

var registry = map[string]Filter{}

func register(f Filter, aliases ...string) {
	registry[f.Name()] = f
	for _, alias := range aliases {
		registry[alias] = f
	}
}

func init() {
	register(flate{}, "Fl")
	register(asciiHex{}, "AHx")
	register(ascii85{}, "A85")
	register(runLength{}, "RL")
	register(ccittFax{}, "CCF")
}

// Get returns the filter registered under name.
func Get(name string) (Filter, bool) {
	f, ok := registry[name]
	return f, ok
}

// Decode applies the named filter.
func Decode(name string, data []byte, params Params) ([]byte, error) {
	f, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", name)
	}
	return f.Decode(data, params)
}

// Encode applies the inverse of the named filter.
func Encode(name string, data []byte, params Params) ([]byte, error) {
	f, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", name)
	}
	return f.Encode(data, params)
}

// getIntParam extracts an integer parameter, returning defaultValue when it
// is missing or not numeric.
func getIntParam(params Params, key string, defaultValue int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return defaultValue
}

func getBoolParam(params Params, key string, defaultValue bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return defaultValue
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
