package transport

import "testing"

func TestBroadcastIPSlash24(t *testing.T) {
	got, err := broadcastIP("10.0.0.42", 24)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "10.0.0.255" {
		t.Fatalf("got %q", got)
	}
}

func TestBroadcastIPSlash16(t *testing.T) {
	got, err := broadcastIP("192.168.7.9", 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "192.168.255.255" {
		t.Fatalf("got %q", got)
	}
}

func TestBroadcastIPRejectsNonIPv4(t *testing.T) {
	if _, err := broadcastIP("not-an-ip", 24); err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func TestBroadcastIPRejectsBadPrefix(t *testing.T) {
	if _, err := broadcastIP("10.0.0.1", 99); err == nil {
		t.Fatal("expected error for invalid prefix")
	}
}
