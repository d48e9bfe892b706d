package core

import (
	"fmt"

	"github.com/tsawler/pdfstore/internal/filters"
)

// NewStream creates an unfiltered stream with /Length set.
func NewStream(dict Dict, data []byte) *Stream {
	if dict == nil {
		dict = Dict{}
	}
	dict["Length"] = Int(len(data))
	return &Stream{Dict: dict, Data: data}
}

// EncodeStream creates a stream whose data is filtered with the named filter.
// The dictionary gains /Filter, /Length and, when params is non-empty,
// /DecodeParms.
func EncodeStream(dict Dict, data []byte, filter string, params Dict) (*Stream, error) {
	encoded, err := filters.Encode(filter, data, dictToParams(params))
	if err != nil {
		return nil, fmt.Errorf("failed to encode stream with %s: %w", filter, err)
	}
	s := NewStream(dict, encoded)
	s.Dict["Filter"] = Name(filter)
	if len(params) > 0 {
		s.Dict["DecodeParms"] = params
	}
	return s, nil
}

// Decode decodes the stream data according to the Filter(s) specified in the
// stream dictionary, applying filter chains in order.
func (s *Stream) Decode() ([]byte, error) {
	filterObj := s.Dict.Get("Filter")
	if filterObj == nil {
		return s.Data, nil
	}

	paramsObj := s.Dict.Get("DecodeParms")

	if filterName, ok := filterObj.(Name); ok {
		return decodeWithFilter(s.Data, string(filterName), paramsObjToDict(paramsObj))
	}

	filterArray, ok := filterObj.(Array)
	if !ok {
		return nil, fmt.Errorf("invalid Filter type: %T", filterObj)
	}

	data := s.Data
	for i, filter := range filterArray {
		filterName, ok := filter.(Name)
		if !ok {
			return nil, fmt.Errorf("filter %d is not a name: %T", i, filter)
		}

		var params Dict
		if paramsArray, ok := paramsObj.(Array); ok {
			params = paramsObjToDict(paramsArray.Get(i))
		} else {
			params = paramsObjToDict(paramsObj)
		}

		var err error
		data, err = decodeWithFilter(data, string(filterName), params)
		if err != nil {
			return nil, fmt.Errorf("filter %d (%s) failed: %w", i, filterName, err)
		}
	}
	return data, nil
}

// decodeWithFilter applies a single filter. Image codecs that consumers
// decode themselves pass through untouched.
func decodeWithFilter(data []byte, filterName string, params Dict) ([]byte, error) {
	switch filterName {
	case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode":
		return data, nil
	case "Crypt":
		return nil, fmt.Errorf("encrypted streams are not supported")
	}
	return filters.Decode(filterName, data, dictToParams(params))
}

// paramsObjToDict converts a DecodeParms object to a Dict, or nil when it is
// absent, null or not a dictionary.
func paramsObjToDict(obj Object) Dict {
	if dict, ok := obj.(Dict); ok {
		return dict
	}
	return nil
}

// dictToParams converts a Dict to filters.Params, translating values to Go
// primitives.
func dictToParams(dict Dict) filters.Params {
	if dict == nil {
		return nil
	}

	params := make(filters.Params, len(dict))
	for k, v := range dict {
		switch obj := v.(type) {
		case Int:
			params[k] = int(obj)
		case Real:
			params[k] = float64(obj)
		case Bool:
			params[k] = bool(obj)
		case String:
			params[k] = string(obj)
		case Name:
			params[k] = string(obj)
		default:
			params[k] = v
		}
	}
	return params
}
