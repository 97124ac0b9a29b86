package schema

import (
	"encoding/json"
	"errors"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/arloliu/avrokit/errs"
)

// jsonObject is a decoded JSON object that remembers key order, which matters for
// map-typed defaults and for reporting attributes in source order.
type jsonObject struct {
	keys []string
	vals map[string]any
}

func (o *jsonObject) get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

func (o *jsonObject) str(key string) (string, bool) {
	v, ok := o.vals[key].(string)
	return v, ok
}

// maxJSONDepth bounds recursion while reading schema JSON.
const maxJSONDepth = 1024

// readJSON decodes text into nil, bool, json.Number, string, []any or *jsonObject.
func readJSON(text string) (any, error) {
	it := jsoniter.ParseString(jsoniter.ConfigDefault, text)
	v, err := readAny(it, 0)
	if err != nil {
		return nil, err
	}
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return nil, &errs.SchemaError{Kind: errs.InvalidJSON, Err: it.Error}
	}
	if next := it.WhatIsNext(); next != jsoniter.InvalidValue {
		return nil, errs.NewSchemaError(errs.InvalidJSON, "", "trailing data after schema")
	}

	return v, nil
}

func readAny(it *jsoniter.Iterator, depth int) (any, error) {
	if depth > maxJSONDepth {
		return nil, errs.NewSchemaError(errs.DepthExceeded, "", "JSON nesting exceeds %d", maxJSONDepth)
	}

	var out any
	var err error
	switch it.WhatIsNext() {
	case jsoniter.StringValue:
		out = it.ReadString()
	case jsoniter.NumberValue:
		out = it.ReadNumber()
	case jsoniter.NilValue:
		it.ReadNil()
	case jsoniter.BoolValue:
		out = it.ReadBool()
	case jsoniter.ArrayValue:
		arr := []any{}
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			var elem any
			elem, err = readAny(it, depth+1)
			arr = append(arr, elem)

			return err == nil
		})
		out = arr
	case jsoniter.ObjectValue:
		obj := &jsonObject{vals: map[string]any{}}
		it.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
			var elem any
			elem, err = readAny(it, depth+1)
			if _, dup := obj.vals[key]; !dup {
				obj.keys = append(obj.keys, key)
			}
			obj.vals[key] = elem

			return err == nil
		})
		out = obj
	default:
		return nil, errs.NewSchemaError(errs.InvalidJSON, "", "unexpected token")
	}
	if err != nil {
		return nil, err
	}
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return nil, &errs.SchemaError{Kind: errs.InvalidJSON, Err: it.Error}
	}

	return out, nil
}

// asInt converts a decoded JSON number to an int64.
func asInt(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()

	return i, err == nil
}

// asFloat converts a decoded JSON number to a float64.
func asFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()

	return f, err == nil
}
