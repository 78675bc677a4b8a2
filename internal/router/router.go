// Package router is the thin TYPE-to-handler adapter described in
// spec.md §4.3, §9: it resolves a wire frame's TYPE against
// internal/registry and hands it to internal/messages, with no
// protocol logic of its own. Grounded on the teacher's cmd/minimega
// command_meshage.go, which wires meshage's received commands straight
// into minicli without any intermediate decision-making.
package router

import (
	"fmt"

	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// ErrNoSchema is returned by Validate when typ's registered handler
// declares no schema (a handler bug, not a wire-level error).
var ErrNoSchema = fmt.Errorf("router: handler has no schema")

// ExtractType deserializes raw and returns its TYPE alongside the
// parsed frame, or an error if raw is malformed or carries no TYPE.
func ExtractType(raw string) (string, *wire.Frame, error) {
	f, err := wire.Deserialize(raw)
	if err != nil {
		return "", nil, err
	}
	typ, ok := f.Get("TYPE")
	if !ok {
		return "", nil, wire.ErrMalformedFrame
	}
	return typ, f, nil
}

// Validate looks up typ's registered schema and validates f against it.
func Validate(typ string, f *wire.Frame) error {
	h, ok := registry.Lookup(typ)
	if !ok {
		return fmt.Errorf("router: unknown TYPE %q", typ)
	}
	if h.Schema == nil {
		return ErrNoSchema
	}
	return schema.Validate(h.Schema, f)
}

// Receive decodes, validates, and dispatches raw through
// messages.Dispatch, returning the parsed message on success. This is
// the single entry point internal/transport's process loops use to
// turn a raw datagram into client-state side effects.
func Receive(ctx *messages.Context, raw string) (types.RecentMessage, error) {
	typ, f, err := ExtractType(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(typ, f); err != nil {
		return nil, err
	}
	return messages.Dispatch(ctx, typ, f)
}

// Commands lists every non-hidden TYPE, for the REPL's command listing.
func Commands() []string {
	return registry.Commands()
}

// HelpFor returns the short help text for typ, if registered.
func HelpFor(typ string) (string, bool) {
	h, ok := registry.Lookup(typ)
	if !ok {
		return "", false
	}
	return h.HelpShort, true
}
