package types

import "testing"

func TestParseUserID(t *testing.T) {
	u, err := ParseUserID("alice@192.168.1.11")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Username != "alice" || u.IP != "192.168.1.11" {
		t.Fatalf("got %+v", u)
	}
	if u.String() != "alice@192.168.1.11" {
		t.Fatalf("round trip failed: %v", u.String())
	}
}

func TestParseUserIDInvalid(t *testing.T) {
	cases := []string{"@192.168.1.11", "alice@", "alice"}
	for _, c := range cases {
		if _, err := ParseUserID(c); err == nil {
			t.Errorf("expected error for %q", c)
		}
	}
}

func TestUserIDEqual(t *testing.T) {
	a, _ := ParseUserID("alice@10.0.0.2")
	b, _ := ParseUserID("alice@10.0.0.2")
	c, _ := ParseUserID("bob@10.0.0.2")
	if !a.Equal(b) {
		t.Error("expected equal")
	}
	if a.Equal(c) {
		t.Error("expected not equal")
	}
}
