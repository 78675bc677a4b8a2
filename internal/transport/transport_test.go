package transport

import (
	"testing"
	"time"

	"github.com/lsnp/lsnp/internal/clientstate"
	"github.com/lsnp/lsnp/internal/filestate"
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

func newTestTransport(t *testing.T, ip string, port int) (*Transport, *messages.Context) {
	t.Helper()
	self, err := types.ParseUserID("alice@" + ip)
	if err != nil {
		t.Fatalf("parse user: %v", err)
	}

	tr, err := New(Config{
		IPAddress:     ip,
		Port:          port,
		SubnetPrefix:  24,
		RetryAttempts: 2,
		RetryInterval: 50 * time.Millisecond,
	}, self)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}

	ctx := &messages.Context{
		Self:  self,
		State: clientstate.New(),
		Files: filestate.New(t.TempDir()),
		Games: game.New(),
		Send:  tr,
	}
	tr.Attach(ctx)
	t.Cleanup(func() { tr.Close() })
	return tr, ctx
}

// TestSendReliableTimesOutWithNoPeer exercises the retry-with-ACK loop
// end to end against a port nobody answers on; it should exhaust its
// attempt budget and return ErrAckTimeout rather than hang.
func TestSendReliableTimesOutWithNoPeer(t *testing.T) {
	tr, _ := newTestTransport(t, "127.0.0.1", 53201)
	tr.Run()

	frame := wire.NewFrame()
	frame.Set("TYPE", "PING")
	mid := types.GenerateMessageID()

	start := time.Now()
	err := tr.SendReliable("127.0.0.9", frame, mid)
	if err != ErrAckTimeout {
		t.Fatalf("expected ErrAckTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("timeout path took too long: %v", elapsed)
	}
}

// TestSendReliableCompletesOnAck exercises the same path the unicast
// process loop drives in production: completeAck, called with the
// MESSAGE_ID carried by an inbound ACK, unblocks the matching in-flight
// SendReliable before its retry budget is exhausted.
func TestSendReliableCompletesOnAck(t *testing.T) {
	tr, _ := newTestTransport(t, "127.0.0.1", 53202)
	tr.Run()

	frame := wire.NewFrame()
	frame.Set("TYPE", "PING")
	mid := types.GenerateMessageID()
	frame.Set("MESSAGE_ID", string(mid))

	result := make(chan error, 1)
	go func() {
		result <- tr.SendReliable("127.0.0.9", frame, mid)
	}()

	// Give SendReliable time to register mid in the pending table before
	// acking it.
	time.Sleep(10 * time.Millisecond)
	tr.completeAck(mid)

	select {
	case err := <-result:
		if err != nil {
			t.Fatalf("expected ack to complete the send, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for SendReliable to return")
	}
}
