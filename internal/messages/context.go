// Package messages implements the 17 LSNP message handlers (spec.md
// §4.8): per-type parse/send/receive/payload/info, each carrying its own
// schema and registering into internal/registry. Handlers hold no state
// of their own; they read/write through internal/clientstate,
// internal/filestate and internal/game via the Context passed to
// Receive, breaking the cyclic coupling spec.md §9 calls out by
// depending only on the internal/types interfaces those packages expose.
package messages

import (
	"errors"
	"fmt"

	"github.com/lsnp/lsnp/internal/clientstate"
	"github.com/lsnp/lsnp/internal/filestate"
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// ErrNotForMe is returned by Receive when a unicast message's TO field
// names someone other than the local user.
var ErrNotForMe = errors.New("message not addressed to this user")

// ErrUnauthorizedRecipient is returned when a message arrives for a
// group or game the local user is not a party to.
var ErrUnauthorizedRecipient = errors.New("unauthorized recipient")

// ErrDuplicateGroup is returned by GROUP_CREATE when group_id is already
// known locally.
var ErrDuplicateGroup = errors.New("duplicate group id")

// ErrUnknownPost is returned by LIKE when the referenced POST is not in
// the local sent store.
var ErrUnknownPost = errors.New("referenced post not found")

// ErrUnknownType is returned by Dispatch for a TYPE with no handler.
var ErrUnknownType = errors.New("unknown message type")

// Sender abstracts the transport layer (internal/transport, C9) so that
// handlers can reply, fan out or retry without importing it directly.
type Sender interface {
	// SendTo transmits frame to ip unreliably (fire-and-forget).
	SendTo(ip string, frame *wire.Frame) error
	// Broadcast transmits frame to the segment broadcast address.
	Broadcast(frame *wire.Frame) error
	// SendReliable transmits frame to ip and blocks until an ACK
	// correlated by mid arrives or the retry budget is exhausted.
	SendReliable(ip string, frame *wire.Frame, mid types.MessageID) error
}

// Context bundles the dependencies a handler's Receive (and, where
// side-effecting, Send) needs: the local identity, the three state
// singletons, and the transport Sender.
type Context struct {
	Self  types.UserID
	State *clientstate.State
	Files *filestate.State
	Games *game.Manager
	Send  Sender
}

func parseUserIDField(f *wire.Frame, key string) (types.UserID, error) {
	v, ok := f.Get(key)
	if !ok {
		return types.UserID{}, fmt.Errorf("messages: missing field %s", key)
	}
	return types.ParseUserID(v)
}

func parseTimestampField(f *wire.Frame, key string) (types.Timestamp, error) {
	v, ok := f.Get(key)
	if !ok {
		return 0, fmt.Errorf("messages: missing field %s", key)
	}
	return types.ParseTimestamp(v)
}

func parseMessageIDField(f *wire.Frame, key string) (types.MessageID, error) {
	v, ok := f.Get(key)
	if !ok {
		return "", fmt.Errorf("messages: missing field %s", key)
	}
	return types.ParseMessageID(v)
}

func parseTokenField(f *wire.Frame, key string) (types.Token, error) {
	v, ok := f.Get(key)
	if !ok {
		return types.Token{}, fmt.Errorf("messages: missing field %s", key)
	}
	return types.ParseToken(v)
}

func parseIntField(f *wire.Frame, key string) (int, error) {
	v, ok := f.Get(key)
	if !ok {
		return 0, fmt.Errorf("messages: missing field %s", key)
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("messages: field %s not an integer: %w", key, err)
	}
	return n, nil
}

func optionalField(f *wire.Frame, key string) string {
	v, _ := f.Get(key)
	return v
}

func errMissing(key string) error {
	return fmt.Errorf("messages: missing field %s", key)
}

func parseInt64Field(f *wire.Frame, key string) (int64, error) {
	v, ok := f.Get(key)
	if !ok {
		return 0, errMissing(key)
	}
	var n int64
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 0, fmt.Errorf("messages: field %s not an integer: %w", key, err)
	}
	return n, nil
}

func itoa64(n int64) string {
	return fmt.Sprintf("%d", n)
}
