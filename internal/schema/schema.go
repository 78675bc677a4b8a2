// Package schema validates a wire frame against a declared per-message
// schema: field presence, requiredness, and semantic type.
package schema

import (
	"fmt"

	"github.com/lsnp/lsnp/internal/wire"
)

// FieldType names the semantic type a field's value must parse as.
type FieldType int

// The field types LSNP schemas can declare.
const (
	FieldString FieldType = iota
	FieldUserID
	FieldTimestamp
	FieldTTL
	FieldMessageID
	FieldToken
	FieldInt
	FieldEnum
)

// Field declares one schema entry.
type Field struct {
	Type     FieldType
	Required bool
	// Enum lists the allowed values when Type == FieldEnum.
	Enum []string
}

// Schema declares a message TYPE literal and its fields.
type Schema struct {
	Type   string
	Fields map[string]Field
}

// Error names the schema violation and the offending field.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("schema error: field %q: %s", e.Field, e.Msg)
}

// Validate checks f's TYPE against s.Type, rejects fields absent from
// the schema, requires every required field to be present, and checks
// each present enum field's value against its allowed values. Other
// semantic types are not checked here; handlers check them when they
// parse the frame into a typed message.
func Validate(s *Schema, f *wire.Frame) error {
	typ, ok := f.Get("TYPE")
	if !ok || typ != s.Type {
		return &Error{Field: "TYPE", Msg: "does not match schema"}
	}

	for _, key := range f.Keys {
		if key == "TYPE" {
			continue
		}
		if _, declared := s.Fields[key]; !declared {
			return &Error{Field: key, Msg: "not declared in schema"}
		}
	}

	for name, field := range s.Fields {
		value, present := f.Get(name)
		if !present {
			if field.Required {
				return &Error{Field: name, Msg: "required field missing"}
			}
			continue
		}
		if err := checkType(field, value); err != nil {
			return &Error{Field: name, Msg: err.Error()}
		}
	}

	return nil
}

func checkType(field Field, value string) error {
	switch field.Type {
	case FieldEnum:
		for _, allowed := range field.Enum {
			if value == allowed {
				return nil
			}
		}
		return fmt.Errorf("value %q not in enum %v", value, field.Enum)
	default:
		// String/UserID/Timestamp/TTL/MessageID/Token/Int values are
		// checked by their own parsers at the point handlers construct
		// a typed instance from the frame (internal/messages); the
		// schema layer only enforces presence and enum membership, per
		// spec.md §4.2 ("each present field's value is of the declared
		// semantic type (post field-parsing)").
		return nil
	}
}
