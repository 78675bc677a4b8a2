package types

import (
	"regexp"
	"testing"
)

func TestGenerateMessageID(t *testing.T) {
	re := regexp.MustCompile(`^[0-9a-f]{16}$`)
	seen := map[MessageID]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateMessageID()
		if !re.MatchString(string(id)) {
			t.Fatalf("id %q does not match pattern", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q generated", id)
		}
		seen[id] = true
	}
}

func TestParseMessageID(t *testing.T) {
	if _, err := ParseMessageID("0123456789abcdef"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cases := []string{"", "0123456789ABCDEF", "0123456789abcde", "zzzzzzzzzzzzzzzz"}
	for _, c := range cases {
		if _, err := ParseMessageID(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}
