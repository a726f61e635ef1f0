package protocol

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

var attributesType = reflect.TypeOf(Attributes{})

// Lifts a single attribute name into Attributes.
func attributesHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to == attributesType && from.Kind() == reflect.String {
		return Attributes{data.(string)}, nil
	}
	return data, nil
}

// Converts a generic JSON map to T object using the json tags of T.
func fromMap[T any](m interface{}) (*T, error) {
	var obj = new(T)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: attributesHook,
		TagName:    "json",
		Result:     obj,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, err
	}
	return obj, nil
}

// Unmarshals data keeping numbers as json.Number, so Java longs keep
// their precision.
func unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// DecodeRequest decodes an echoed request object into a Request.
// The result is not validated, agents may echo fields in canonical form.
func DecodeRequest(m map[string]interface{}) (Request, error) {
	r, err := fromMap[Request](m)
	if err != nil {
		return Request{}, err
	}
	return *r, nil
}

// DecodeVersion converts the value of a version response into VersionInfo.
func DecodeVersion(value interface{}) (*VersionInfo, error) {
	return fromMap[VersionInfo](value)
}
