package types

// RecentMessage is the minimal contract client state needs from any sent
// or received message: its bearer token (if any) and enough identity to
// display and revoke it. Message handlers implement this interface;
// state components depend only on it, never on the concrete handler
// types, breaking the cyclic coupling between messages and state
// described in spec.md §9.
type RecentMessage interface {
	// MessageType returns the wire TYPE of the message.
	MessageType() string
	// BearerToken returns the message's token and whether it carries one.
	BearerToken() (Token, bool)
	// Info returns a human-readable summary, or "" for hidden/subordinate
	// message types.
	Info(verbose bool) string
}

// Timestamped is implemented by message types the client state needs to
// look up by their own TIMESTAMP field (e.g. POST, for LIKE's "does the
// liked post exist" check).
type Timestamped interface {
	RecentMessage
	MessageTimestamp() Timestamp
}

// Correlated is implemented by message types carrying a MESSAGE_ID that
// correlates to an earlier send (e.g. ACK, for reliable-send lookup).
type Correlated interface {
	RecentMessage
	CorrelationID() MessageID
}
