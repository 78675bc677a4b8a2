// Package types implements the LSNP wire-level value types: UserID,
// Timestamp, TTL, MessageID and Token.
package types

import (
	"errors"
	"strings"
)

// ErrInvalidUserID is returned when a UserID string fails to parse.
var ErrInvalidUserID = errors.New("invalid user id")

// UserID identifies a peer as a (username, ip) pair. Wire form is
// "username@ip".
type UserID struct {
	Username string
	IP       string
}

// ParseUserID parses the wire form "username@ip". Both halves must be
// non-empty.
func ParseUserID(s string) (UserID, error) {
	i := strings.LastIndex(s, "@")
	if i <= 0 || i == len(s)-1 {
		return UserID{}, ErrInvalidUserID
	}

	username, ip := s[:i], s[i+1:]
	if username == "" || ip == "" {
		return UserID{}, ErrInvalidUserID
	}

	return UserID{Username: username, IP: ip}, nil
}

// String returns the canonical wire form "username@ip".
func (u UserID) String() string {
	return u.Username + "@" + u.IP
}

// IsZero reports whether u is the zero value.
func (u UserID) IsZero() bool {
	return u.Username == "" && u.IP == ""
}

// Equal reports whether u and other identify the same peer.
func (u UserID) Equal(other UserID) bool {
	return u.Username == other.Username && u.IP == other.IP
}
