package wire

import "testing"

func TestRoundTrip(t *testing.T) {
	f := NewFrame()
	f.Set("TYPE", "DM")
	f.Set("FROM", "alice@10.0.0.2")
	f.Set("CONTENT", "hi there")

	raw := Serialize(f)

	parsed, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, k := range f.Keys {
		v, ok := parsed.Get(k)
		if !ok || v != f.Values[k] {
			t.Errorf("key %q: got (%q, %v), want %q", k, v, ok, f.Values[k])
		}
	}
}

func TestDeserializeRequiresTerminator(t *testing.T) {
	if _, err := Deserialize("TYPE: PING\n"); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDeserializeRequiresColon(t *testing.T) {
	if _, err := Deserialize("TYPE PING\n\n"); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDeserializeRejectsDuplicateKeys(t *testing.T) {
	if _, err := Deserialize("TYPE: PING\nTYPE: POST\n\n"); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestDeserializeIgnoresBlankLinesInBody(t *testing.T) {
	raw := "TYPE: PING\n\nUSER_ID: alice@10.0.0.2\n\n"
	f, err := Deserialize(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := f.Get("USER_ID"); v != "alice@10.0.0.2" {
		t.Fatalf("got %q", v)
	}
}

func TestExtractType(t *testing.T) {
	raw := "TYPE: DM\nFROM: alice@10.0.0.2\n\n"
	typ, err := ExtractType(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != "DM" {
		t.Fatalf("got %q", typ)
	}
}

func TestExtractTypeRequiresTypeFirst(t *testing.T) {
	if _, err := ExtractType("FROM: alice@10.0.0.2\n\n"); err != ErrMalformedFrame {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}
