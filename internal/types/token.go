package types

import (
	"errors"
	"strings"
)

// Scope is the permitted domain of use for a Token.
type Scope string

// The fixed set of token scopes.
const (
	ScopeChat      Scope = "chat"
	ScopeFile      Scope = "file"
	ScopeBroadcast Scope = "broadcast"
	ScopeFollow    Scope = "follow"
	ScopeGame      Scope = "game"
	ScopeGroup     Scope = "group"
)

func (s Scope) valid() bool {
	switch s {
	case ScopeChat, ScopeFile, ScopeBroadcast, ScopeFollow, ScopeGame, ScopeGroup:
		return true
	}
	return false
}

// ErrInvalidToken is returned when a token string fails to parse.
var ErrInvalidToken = errors.New("invalid token")

// Token is a bearer credential: owner, expiry, and scope. Tokens are not
// a security boundary (spec.md §4.4) — anyone on the LAN segment can mint
// one for any UserID.
type Token struct {
	UserID     UserID
	ValidUntil Timestamp
	Scope      Scope
}

// ParseToken parses the wire form "user@ip|unix_seconds|scope".
func ParseToken(s string) (Token, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 3 {
		return Token{}, ErrInvalidToken
	}

	u, err := ParseUserID(parts[0])
	if err != nil {
		return Token{}, ErrInvalidToken
	}

	ts, err := ParseTimestamp(parts[1])
	if err != nil {
		return Token{}, ErrInvalidToken
	}

	scope := Scope(parts[2])
	if !scope.valid() {
		return Token{}, ErrInvalidToken
	}

	return Token{UserID: u, ValidUntil: ts, Scope: scope}, nil
}

// String returns the canonical wire form.
func (t Token) String() string {
	return t.UserID.String() + "|" + t.ValidUntil.String() + "|" + string(t.Scope)
}

// IsExpired reports whether the token has passed its ValidUntil instant.
func (t Token) IsExpired() bool {
	return t.ValidUntil.IsExpired()
}

// Validate checks owner identity, expiry and scope against the expected
// owner and scope of the carrying message.
func (t Token) Validate(expectedOwner UserID, expectedScope Scope) error {
	if !t.UserID.Equal(expectedOwner) {
		return ErrOwnerMismatch
	}
	if t.IsExpired() {
		return ErrTokenExpired
	}
	if t.Scope != expectedScope {
		return ErrScopeMismatch
	}
	return nil
}

// Errors surfaced by Token.Validate, matching spec.md §7's taxonomy.
var (
	ErrOwnerMismatch = errors.New("token owner mismatch")
	ErrTokenExpired  = errors.New("token expired")
	ErrScopeMismatch = errors.New("token scope mismatch")
)
