// Package registry implements the LSNP message registry (spec.md §4.3):
// a table mapping wire TYPE to a handler's schema, scope, visibility and
// short help. Entries carry no constructor or call function; dispatch
// happens in internal/messages. Grounded on the teacher's pkg/minicli
// Handler shape — a metadata struct registered into a package-level
// table with duplicate-name detection — adapted from a command-pattern
// grammar to a flat TYPE key, since LSNP "commands" are wire message
// types rather than a REPL grammar.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
)

// Handler describes one registered message type.
type Handler struct {
	Type      string
	Scope     types.Scope // zero value means the message carries no token
	HasScope  bool
	Schema    *schema.Schema
	Hidden    bool // true => not offered as a user-initiated command
	HelpShort string
}

var (
	mu       sync.Mutex
	handlers = map[string]*Handler{}
)

// Register adds h to the registry, keyed by h.Type. Registering a
// duplicate TYPE is an initialization error (spec.md §4.3).
func Register(h *Handler) error {
	mu.Lock()
	defer mu.Unlock()

	if h.Type == "" {
		return fmt.Errorf("registry: handler has empty TYPE")
	}
	if _, dup := handlers[h.Type]; dup {
		return fmt.Errorf("registry: duplicate TYPE %q", h.Type)
	}
	handlers[h.Type] = h
	return nil
}

// MustRegister is Register, panicking on error. Intended for package
// init() calls, mirroring the teacher's fail-fast handler registration.
func MustRegister(h *Handler) {
	if err := Register(h); err != nil {
		panic(err)
	}
}

// Lookup returns the handler registered for typ, if any.
func Lookup(typ string) (*Handler, bool) {
	mu.Lock()
	defer mu.Unlock()
	h, ok := handlers[typ]
	return h, ok
}

// Commands returns the TYPE of every non-hidden handler, sorted, for a
// user-visible command listing.
func Commands() []string {
	mu.Lock()
	defer mu.Unlock()

	var out []string
	for typ, h := range handlers {
		if !h.Hidden {
			out = append(out, typ)
		}
	}
	sort.Strings(out)
	return out
}

// reset clears the registry. Used only by internal/registry's own
// tests, which need a hermetic registry per test case.
func reset() {
	handlers = map[string]*Handler{}
}
