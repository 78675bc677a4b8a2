package clientstate

import (
	"testing"

	"github.com/lsnp/lsnp/internal/types"
)

func mustUser(t *testing.T, s string) types.UserID {
	t.Helper()
	u, err := types.ParseUserID(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func TestAddPeerIdempotent(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")

	if !s.AddPeer(alice) {
		t.Fatal("expected first add to report new")
	}
	if s.AddPeer(alice) {
		t.Fatal("expected second add to report not-new")
	}
	if len(s.GetPeers()) != 1 {
		t.Fatalf("expected 1 peer, got %d", len(s.GetPeers()))
	}
}

func TestDisplayNameEmptyRemoves(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")

	s.UpdatePeerDisplayName(alice, "Alice")
	if name, ok := s.GetPeerDisplayName(alice); !ok || name != "Alice" {
		t.Fatalf("got %q, %v", name, ok)
	}

	s.UpdatePeerDisplayName(alice, "")
	if _, ok := s.GetPeerDisplayName(alice); ok {
		t.Fatal("expected display name removed")
	}
}

func TestFollowerFollowingIndependent(t *testing.T) {
	s := New()
	bob := mustUser(t, "bob@10.0.0.3")

	s.AddFollower(bob)
	if len(s.GetFollowing()) != 0 {
		t.Fatal("adding a follower must not affect following")
	}
	if len(s.GetFollowers()) != 1 {
		t.Fatal("expected one follower")
	}
}

func TestGroupDuplicateDropped(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")

	if !s.CreateGroup("g1", "grp", []types.UserID{alice}) {
		t.Fatal("expected first create to succeed")
	}
	if s.CreateGroup("g1", "grp2", nil) {
		t.Fatal("expected duplicate create to be dropped")
	}
	g, ok := s.GetGroup("g1")
	if !ok || g.Name != "grp" {
		t.Fatalf("got %+v, %v", g, ok)
	}
}

type fakeMessage struct {
	typ   string
	token types.Token
	hasTk bool
}

func (f fakeMessage) MessageType() string             { return f.typ }
func (f fakeMessage) BearerToken() (types.Token, bool) { return f.token, f.hasTk }
func (f fakeMessage) Info(verbose bool) string         { return f.typ }

func TestAddRecentMessageReceivedDropsRevoked(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")
	tok := types.Token{UserID: alice, ValidUntil: types.Now() + 60, Scope: types.ScopeChat}

	s.RevokeToken(tok)
	s.AddRecentMessageReceived(fakeMessage{typ: "DM", token: tok, hasTk: true})

	if len(s.GetRecentMessagesReceived()) != 0 {
		t.Fatal("expected revoked-token message to be dropped")
	}
}

func TestRevokeTokenRemovesExisting(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")
	tok := types.Token{UserID: alice, ValidUntil: types.Now() + 60, Scope: types.ScopeChat}

	s.AddRecentMessageReceived(fakeMessage{typ: "DM", token: tok, hasTk: true})
	if len(s.GetRecentMessagesReceived()) != 1 {
		t.Fatal("expected message recorded before revocation")
	}

	s.RevokeToken(tok)
	if len(s.GetRecentMessagesReceived()) != 0 {
		t.Fatal("expected revoke to remove existing message")
	}
}

func TestCleanupExpiredMessagesIdempotent(t *testing.T) {
	s := New()
	alice := mustUser(t, "alice@10.0.0.2")
	expired := types.Token{UserID: alice, ValidUntil: types.Now() - 1, Scope: types.ScopeChat}

	s.AddRecentMessageReceived(fakeMessage{typ: "DM", token: expired, hasTk: true})

	first := s.CleanupExpiredMessages()
	if len(first) != 1 {
		t.Fatalf("expected 1 expired message, got %d", len(first))
	}

	second := s.CleanupExpiredMessages()
	if len(second) != 0 {
		t.Fatalf("expected cleanup to be idempotent, got %d", len(second))
	}
}
