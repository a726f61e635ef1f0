package protocol

import "bytes"

// JsonType represents the top-level shape of a JSON document
type JsonType int

const (
	TypeJsonInvalid JsonType = iota
	TypeJsonArray
	TypeJsonObject
)

func (t JsonType) String() string {
	switch t {
	case TypeJsonArray:
		return "array"
	case TypeJsonObject:
		return "object"
	}
	return "invalid"
}

// Checks if is json type [Array, Object, None]
func GetJsonType(data []byte) JsonType {

	// Get slice of data with optional leading whitespace removed.
	// See RFC 7159, Section 2 for the definition of JSON whitespace.
	x := bytes.TrimLeft(data, " \t\r\n")

	switch {
	case len(x) > 0 && x[0] == '[':
		return TypeJsonArray
	case len(x) > 0 && x[0] == '{':
		return TypeJsonObject
	}
	return TypeJsonInvalid
}
