package cart

import (
	"encoding/json"
	"fmt"
)

// MetadataKind tags the scalar held by a MetadataValue.
type MetadataKind uint8

const (
	MetadataString MetadataKind = iota + 1
	MetadataNumber
	MetadataBool
)

// MetadataValue is a string, number or bool. The zero value holds nothing.
type MetadataValue struct {
	kind   MetadataKind
	text   string
	number float64
	flag   bool
}

// StringValue wraps a string.
func StringValue(value string) MetadataValue {
	return MetadataValue{kind: MetadataString, text: value}
}

// NumberValue wraps a number.
func NumberValue(value float64) MetadataValue {
	return MetadataValue{kind: MetadataNumber, number: value}
}

// BoolValue wraps a bool.
func BoolValue(value bool) MetadataValue {
	return MetadataValue{kind: MetadataBool, flag: value}
}

// Kind returns which scalar is held.
func (value MetadataValue) Kind() MetadataKind {
	return value.kind
}

// AsString returns the string when the value holds one.
func (value MetadataValue) AsString() (string, bool) {
	return value.text, value.kind == MetadataString
}

// AsNumber returns the number when the value holds one.
func (value MetadataValue) AsNumber() (float64, bool) {
	return value.number, value.kind == MetadataNumber
}

// AsBool returns the bool when the value holds one.
func (value MetadataValue) AsBool() (bool, bool) {
	return value.flag, value.kind == MetadataBool
}

// MarshalJSON encodes the value as a bare JSON scalar.
func (value MetadataValue) MarshalJSON() ([]byte, error) {
	switch value.kind {
	case MetadataString:
		return json.Marshal(value.text)
	case MetadataNumber:
		return json.Marshal(value.number)
	case MetadataBool:
		return json.Marshal(value.flag)
	default:
		return nil, fmt.Errorf("%w: empty value", ErrInvalidMetadata)
	}
}

// UnmarshalJSON accepts a JSON string, number or bool.
func (value *MetadataValue) UnmarshalJSON(raw []byte) error {
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	switch typed := decoded.(type) {
	case string:
		*value = StringValue(typed)
	case float64:
		*value = NumberValue(typed)
	case bool:
		*value = BoolValue(typed)
	default:
		return fmt.Errorf("%w: unsupported value %s", ErrInvalidMetadata, string(raw))
	}
	return nil
}

// Metadata is an open bag of scalar attributes attached to an item.
type Metadata map[string]MetadataValue

// Clone returns an independent copy.
func (metadata Metadata) Clone() Metadata {
	if metadata == nil {
		return nil
	}
	cloned := make(Metadata, len(metadata))
	for key, value := range metadata {
		cloned[key] = value
	}
	return cloned
}
