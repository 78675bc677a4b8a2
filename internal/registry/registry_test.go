package registry

import (
	"testing"

	"github.com/lsnp/lsnp/internal/schema"
)

func TestMain(m *testing.M) {
	m.Run()
}

func TestRegisterAndLookup(t *testing.T) {
	reset()
	defer reset()

	err := Register(&Handler{Type: "PING", Schema: &schema.Schema{Type: "PING"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, ok := Lookup("PING")
	if !ok {
		t.Fatal("expected PING to be registered")
	}
	if h.Schema.Type != "PING" {
		t.Fatalf("got schema type %q", h.Schema.Type)
	}
}

func TestRegisterDuplicateIsError(t *testing.T) {
	reset()
	defer reset()

	if err := Register(&Handler{Type: "PING"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Register(&Handler{Type: "PING"}); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestCommandsExcludesHidden(t *testing.T) {
	reset()
	defer reset()

	Register(&Handler{Type: "DM"})
	Register(&Handler{Type: "ACK", Hidden: true})

	cmds := Commands()
	if len(cmds) != 1 || cmds[0] != "DM" {
		t.Fatalf("got %v", cmds)
	}
}
