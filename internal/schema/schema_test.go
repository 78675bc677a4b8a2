package schema

import (
	"testing"

	"github.com/lsnp/lsnp/internal/wire"
)

func dmSchema() *Schema {
	return &Schema{
		Type: "DM",
		Fields: map[string]Field{
			"FROM":       {Type: FieldUserID, Required: true},
			"TO":         {Type: FieldUserID, Required: true},
			"CONTENT":    {Type: FieldString, Required: true},
			"TIMESTAMP":  {Type: FieldTimestamp, Required: true},
			"MESSAGE_ID": {Type: FieldMessageID, Required: true},
			"TOKEN":      {Type: FieldToken, Required: true},
		},
	}
}

func TestValidateMissingRequiredField(t *testing.T) {
	f := wire.NewFrame()
	f.Set("TYPE", "DM")
	f.Set("FROM", "alice@10.0.0.2")
	f.Set("TO", "bob@10.0.0.3")
	f.Set("TIMESTAMP", "100")
	f.Set("MESSAGE_ID", "0123456789abcdef")
	f.Set("TOKEN", "alice@10.0.0.2|200|chat")

	err := Validate(dmSchema(), f)
	se, ok := err.(*Error)
	if !ok || se.Field != "CONTENT" {
		t.Fatalf("expected schema error naming CONTENT, got %v", err)
	}
}

func TestValidateRejectsExtraField(t *testing.T) {
	f := wire.NewFrame()
	f.Set("TYPE", "DM")
	f.Set("FROM", "alice@10.0.0.2")
	f.Set("TO", "bob@10.0.0.3")
	f.Set("CONTENT", "hi")
	f.Set("TIMESTAMP", "100")
	f.Set("MESSAGE_ID", "0123456789abcdef")
	f.Set("TOKEN", "alice@10.0.0.2|200|chat")
	f.Set("EXTRA", "nope")

	if err := Validate(dmSchema(), f); err == nil {
		t.Fatal("expected error for undeclared field")
	}
}

func TestValidateOK(t *testing.T) {
	f := wire.NewFrame()
	f.Set("TYPE", "DM")
	f.Set("FROM", "alice@10.0.0.2")
	f.Set("TO", "bob@10.0.0.3")
	f.Set("CONTENT", "hi")
	f.Set("TIMESTAMP", "100")
	f.Set("MESSAGE_ID", "0123456789abcdef")
	f.Set("TOKEN", "alice@10.0.0.2|200|chat")

	if err := Validate(dmSchema(), f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
