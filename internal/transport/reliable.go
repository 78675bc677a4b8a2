package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/rs/xid"

	"github.com/lsnp/lsnp/internal/lsnplog"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// ErrAckTimeout is returned by SendReliable when every retry attempt
// elapses without a matching ACK (spec.md §4.8, §9).
var ErrAckTimeout = fmt.Errorf("transport: ack timeout")

// SendReliable implements messages.Sender: it registers mid in the
// in-flight ack table, sends frame up to RetryAttempts times (sleeping
// RetryInterval between attempts, per spec.md §5's suspension points),
// and returns nil on the first matching ACK or ErrAckTimeout once the
// attempt budget is exhausted. Grounded on the teacher's
// internal/meshage clientSend: encode, then block on either an ack
// channel or a timeout, repeated up to a bounded attempt count instead
// of clientSend's single attempt (LSNP has no persistent connection to
// retry on, only repeated datagrams).
func (t *Transport) SendReliable(ip string, frame *wire.Frame, mid types.MessageID) error {
	trace := xid.New().String()

	ack := &pendingAck{done: make(chan struct{})}
	t.ackMu.Lock()
	t.pending[mid] = ack
	t.ackMu.Unlock()
	defer func() {
		t.ackMu.Lock()
		delete(t.pending, mid)
		t.ackMu.Unlock()
	}()

	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: t.cfg.Port}
	raw := []byte(wire.Serialize(frame))

	for attempt := 1; attempt <= t.cfg.RetryAttempts; attempt++ {
		lsnplog.Debug("transport[%s]: reliable send attempt %d/%d to %s", trace, attempt, t.cfg.RetryAttempts, ip)
		if _, err := t.unicastConn.WriteToUDP(raw, addr); err != nil {
			return fmt.Errorf("transport[%s]: send: %w", trace, err)
		}

		select {
		case <-ack.done:
			return nil
		case <-time.After(t.cfg.RetryInterval):
		case <-t.stop:
			return fmt.Errorf("transport[%s]: closed during reliable send", trace)
		}
	}

	return ErrAckTimeout
}

// completeAck completes the pending send correlated by mid, if one is
// in flight. A mid with no matching entry is a stale or foreign ack and
// is ignored.
func (t *Transport) completeAck(mid types.MessageID) {
	t.ackMu.Lock()
	ack, ok := t.pending[mid]
	t.ackMu.Unlock()
	if !ok {
		return
	}

	select {
	case <-ack.done:
	default:
		close(ack.done)
	}
}
