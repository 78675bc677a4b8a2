package transport

import (
	"net"
	"time"

	"github.com/lsnp/lsnp/internal/lsnplog"
	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/router"
	"github.com/lsnp/lsnp/internal/types"
)

// Run starts the five long-lived tasks of spec.md §5 and returns
// immediately; they exit when Close is called. Attach must have been
// called first.
func (t *Transport) Run() {
	t.wg.Add(5)
	go t.unicastReceiveLoop()
	go t.unicastProcessLoop()
	go t.broadcastReceiveLoop()
	go t.presenceLoop()
	go t.cleanupLoop()
}

// unicastReceiveLoop is spec.md §5 step 1: recvfrom, enqueue.
func (t *Transport) unicastReceiveLoop() {
	defer t.wg.Done()
	buf := make([]byte, t.cfg.BufferSize)
	for {
		n, src, err := t.unicastConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.stop:
				return
			default:
				lsnplog.Warn("transport: unicast read: %v", err)
				continue
			}
		}
		raw := string(buf[:n])
		select {
		case t.queue <- datagram{raw: raw, src: src}:
		default:
			lsnplog.Warn("transport: unicast queue full, dropping datagram from %v", src)
		}
	}
}

// unicastProcessLoop is spec.md §5 step 2: dequeue, dispatch via
// router, possibly sending a reply (ACK, RESULT) as a side effect.
func (t *Transport) unicastProcessLoop() {
	defer t.wg.Done()
	for {
		select {
		case <-t.stop:
			return
		case d := <-t.queue:
			t.dispatch(d.raw, d.src)
		}
	}
}

// broadcastReceiveLoop is spec.md §5 step 3: dispatch inline, no queue.
func (t *Transport) broadcastReceiveLoop() {
	defer t.wg.Done()
	buf := make([]byte, t.cfg.BufferSize)
	for {
		n, src, err := t.broadcastConn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-t.stop:
				return
			default:
				lsnplog.Warn("transport: broadcast read: %v", err)
				continue
			}
		}
		t.dispatch(string(buf[:n]), src)
	}
}

// dispatch decodes and validates raw via internal/router and routes it
// to internal/messages. Malformed, unvalidated, or unrecognized frames
// are logged and dropped (spec.md §7).
func (t *Transport) dispatch(raw string, src *net.UDPAddr) {
	result, err := router.Receive(t.msgCtx, raw)
	if err != nil {
		lsnplog.Debug("transport: frame from %v: %v", src, err)
		return
	}

	if ack, ok := result.(types.Correlated); ok && result.MessageType() == "ACK" {
		t.completeAck(ack.CorrelationID())
	}
}

// presenceLoop is spec.md §5 step 4: broadcast PING every
// PresenceInterval.
func (t *Transport) presenceLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.PresenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			if err := messages.SendPing(t.msgCtx); err != nil {
				lsnplog.Warn("transport: presence ping: %v", err)
			}
		}
	}
}

// cleanupLoop is spec.md §5 step 5: expire recent messages, purge the
// file transfers whose FILE_OFFER expired, and flush completed ones.
func (t *Transport) cleanupLoop() {
	defer t.wg.Done()
	ticker := time.NewTicker(t.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.runCleanup()
		}
	}
}

func (t *Transport) runCleanup() {
	expired := t.msgCtx.State.CleanupExpiredMessages()

	var expiredFileIDs []string
	for _, m := range expired {
		if m.MessageType() != "FILE_OFFER" {
			continue
		}
		if c, ok := m.(types.Correlated); ok {
			expiredFileIDs = append(expiredFileIDs, string(c.CorrelationID()))
		}
	}
	if len(expiredFileIDs) > 0 {
		t.msgCtx.Files.RemoveTransfers(expiredFileIDs)
	}

	if err := t.msgCtx.Files.CompleteTransfers(); err != nil {
		lsnplog.Warn("transport: complete transfers: %v", err)
	}
}
