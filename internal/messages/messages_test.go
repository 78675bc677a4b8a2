package messages

import (
	"testing"

	"github.com/lsnp/lsnp/internal/clientstate"
	"github.com/lsnp/lsnp/internal/filestate"
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

type sentFrame struct {
	ip    string
	frame *wire.Frame
}

// fakeSender records every send; SendReliable treats the send as
// immediately ACKed unless failNext is set, to exercise the
// optimistic-apply/rollback path without a real transport.
type fakeSender struct {
	sent       []sentFrame
	broadcasts []*wire.Frame
	failNext   bool
}

func (s *fakeSender) SendTo(ip string, frame *wire.Frame) error {
	s.sent = append(s.sent, sentFrame{ip, frame})
	return nil
}

func (s *fakeSender) Broadcast(frame *wire.Frame) error {
	s.broadcasts = append(s.broadcasts, frame)
	return nil
}

func (s *fakeSender) SendReliable(ip string, frame *wire.Frame, mid types.MessageID) error {
	s.sent = append(s.sent, sentFrame{ip, frame})
	if s.failNext {
		return errAckTimeout
	}
	return nil
}

var errAckTimeout = &testErr{"ack timeout"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }

func newTestContext(t *testing.T, self types.UserID) (*Context, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	return &Context{
		Self:  self,
		State: clientstate.New(),
		Files: filestate.New(t.TempDir()),
		Games: game.New(),
		Send:  sender,
	}, sender
}

func mustUser(t *testing.T, s string) types.UserID {
	t.Helper()
	u, err := types.ParseUserID(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func TestDMRoundTrip(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, sender := newTestContext(t, alice)
	if _, err := SendDM(aliceCtx, bob, "hi", 3600); err != nil {
		t.Fatalf("send dm: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(sender.sent))
	}

	bobCtx, _ := newTestContext(t, bob)
	raw := wire.Serialize(sender.sent[0].frame)
	frame, err := wire.Deserialize(raw)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}

	got, err := ReceiveDM(bobCtx, frame)
	if err != nil {
		t.Fatalf("receive dm: %v", err)
	}
	if got.(*DM).Content != "hi" {
		t.Fatalf("got content %q", got.(*DM).Content)
	}
}

func TestDMDroppedWhenNotAddressee(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")
	carol := mustUser(t, "carol@10.0.0.4")

	aliceCtx, sender := newTestContext(t, alice)
	if _, err := SendDM(aliceCtx, bob, "hi", 3600); err != nil {
		t.Fatalf("send dm: %v", err)
	}

	carolCtx, _ := newTestContext(t, carol)
	if _, err := ReceiveDM(carolCtx, sender.sent[0].frame); err != ErrNotForMe {
		t.Fatalf("expected ErrNotForMe, got %v", err)
	}
}

func TestPostDroppedUnlessFollowing(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, _ := newTestContext(t, alice)
	aliceCtx.State.AddFollower(bob)
	post, err := SendPost(aliceCtx, "hello world", 3600)
	if err != nil {
		t.Fatalf("send post: %v", err)
	}
	frame := post.ToFrame()

	bobCtx, _ := newTestContext(t, bob)
	if _, err := ReceivePost(bobCtx, frame); err != ErrNotForMe {
		t.Fatalf("expected drop without following, got %v", err)
	}

	bobCtx.State.AddFollowing(alice)
	if _, err := ReceivePost(bobCtx, frame); err != nil {
		t.Fatalf("expected accept once following, got %v", err)
	}
}

func TestLikeRequiresKnownPost(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, _ := newTestContext(t, alice)
	bobCtx, _ := newTestContext(t, bob)

	like, err := SendLike(bobCtx, alice, types.Now(), ActionLike, 3600)
	if err != nil {
		t.Fatalf("send like: %v", err)
	}
	if _, err := ReceiveLike(aliceCtx, like.ToFrame()); err != ErrUnknownPost {
		t.Fatalf("expected ErrUnknownPost, got %v", err)
	}

	post, err := SendPost(aliceCtx, "hello", 3600)
	if err != nil {
		t.Fatalf("send post: %v", err)
	}
	like2, err := SendLike(bobCtx, alice, post.Timestamp, ActionLike, 3600)
	if err != nil {
		t.Fatalf("send like: %v", err)
	}
	if _, err := ReceiveLike(aliceCtx, like2.ToFrame()); err != nil {
		t.Fatalf("expected accept, got %v", err)
	}
}

func TestFollowUnfollowMutatesOppositeSets(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, _ := newTestContext(t, alice)
	bobCtx, _ := newTestContext(t, bob)

	f, err := SendFollow(aliceCtx, bob, 3600)
	if err != nil {
		t.Fatalf("send follow: %v", err)
	}
	if !aliceCtx.State.IsFollowing(bob) {
		t.Fatal("expected alice to be following bob locally")
	}

	if _, err := ReceiveFollow(bobCtx, f.ToFrame()); err != nil {
		t.Fatalf("receive follow: %v", err)
	}
	if len(bobCtx.State.GetFollowers()) != 1 {
		t.Fatal("expected bob to record alice as a follower")
	}
}

func TestFileTransferEndToEnd(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, _ := newTestContext(t, alice)
	bobCtx, _ := newTestContext(t, bob)

	offer, err := SendFileOffer(aliceCtx, bob, "note.txt", "text/plain", "", 4, 3600)
	if err != nil {
		t.Fatalf("send offer: %v", err)
	}

	ackFrame, err := ReceiveFileOffer(bobCtx, offer.ToFrame())
	if err != nil {
		t.Fatalf("receive offer: %v", err)
	}
	_ = ackFrame
	if err := bobCtx.Files.AcceptFile(string(offer.FileID)); err != nil {
		t.Fatalf("accept: %v", err)
	}

	data := []byte("abcd")
	if err := SendFileChunks(aliceCtx, bob, offer.FileID, data, 4, 3600); err != nil {
		t.Fatalf("send chunks: %v", err)
	}

	chunkSender := aliceCtx.Send.(*fakeSender)
	var lastResult types.RecentMessage
	for _, sf := range chunkSender.sent {
		typ, err := wire.ExtractType(wire.Serialize(sf.frame))
		if err != nil || typ != "FILE_CHUNK" {
			continue
		}
		lastResult, err = ReceiveFileChunk(bobCtx, sf.frame)
		if err != nil {
			t.Fatalf("receive chunk: %v", err)
		}
	}
	_ = lastResult

	if err := bobCtx.Files.CompleteTransfers(); err != nil {
		t.Fatalf("complete transfers: %v", err)
	}
}

func TestTicTacToeInviteMoveRollsBackOnAckTimeout(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, sender := newTestContext(t, alice)
	if _, err := SendTicTacToeInvite(aliceCtx, bob, "g1", game.X, 3600); err != nil {
		t.Fatalf("send invite: %v", err)
	}

	sender.failNext = true
	if _, err := SendTicTacToeMove(aliceCtx, bob, "g1", 0, 3600); err == nil {
		t.Fatal("expected ack-timeout error")
	}

	g, ok := aliceCtx.Games.FindGame("g1")
	if !ok {
		t.Fatal("expected game to still exist")
	}
	if g.Board[0] != game.Empty {
		t.Fatal("expected rolled-back move to leave cell empty")
	}
	if g.Turn != 1 {
		t.Fatalf("expected turn restored to 1, got %d", g.Turn)
	}
}

func TestTicTacToeMoveAppliesOnSuccessfulAck(t *testing.T) {
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")

	aliceCtx, _ := newTestContext(t, alice)
	if _, err := SendTicTacToeInvite(aliceCtx, bob, "g2", game.X, 3600); err != nil {
		t.Fatalf("send invite: %v", err)
	}

	if _, err := SendTicTacToeMove(aliceCtx, bob, "g2", 4, 3600); err != nil {
		t.Fatalf("send move: %v", err)
	}

	g, _ := aliceCtx.Games.FindGame("g2")
	if g.Board[4] != game.X {
		t.Fatalf("expected X at position 4, got %c", g.Board[4])
	}
	if g.Turn != 2 {
		t.Fatalf("expected turn advanced to 2, got %d", g.Turn)
	}
}
