package transport

import (
	"net"
	"sync"

	"github.com/lsnp/lsnp/internal/messages"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// datagram is one raw inbound packet awaiting dispatch, queued by the
// unicast receive task and drained by the unicast process task (spec.md
// §5 steps 1-2).
type datagram struct {
	raw string
	src *net.UDPAddr
}

// pendingAck is the completion signal for one in-flight reliable send,
// keyed by the sent message's MessageID (spec.md §9's "table of
// in-flight MessageID -> completion signal").
type pendingAck struct {
	done chan struct{}
}

// Transport owns the two UDP sockets and the scheduling tasks described
// in spec.md §5. It implements messages.Sender so internal/messages can
// transmit without importing this package.
type Transport struct {
	cfg           Config
	self          types.UserID
	broadcastIP   string
	unicastConn   *net.UDPConn
	broadcastConn *net.UDPConn

	msgCtx *messages.Context

	queue chan datagram
	stop  chan struct{}
	wg    sync.WaitGroup

	ackMu   sync.Mutex
	pending map[types.MessageID]*pendingAck
}

// New binds the unicast and broadcast sockets and computes the
// broadcast address from cfg's subnet prefix. The returned Transport is
// inert until Attach and Run are called.
func New(cfg Config, self types.UserID) (*Transport, error) {
	cfg = cfg.withDefaults()

	bip, err := broadcastIP(cfg.IPAddress, cfg.SubnetPrefix)
	if err != nil {
		return nil, err
	}

	uconn, err := listenUDP(&net.UDPAddr{IP: net.ParseIP(cfg.IPAddress), Port: cfg.Port}, false)
	if err != nil {
		return nil, err
	}
	bconn, err := listenUDP(&net.UDPAddr{IP: net.IPv4zero, Port: cfg.Port}, true)
	if err != nil {
		uconn.Close()
		return nil, err
	}

	return &Transport{
		cfg:           cfg,
		self:          self,
		broadcastIP:   bip,
		unicastConn:   uconn,
		broadcastConn: bconn,
		queue:         make(chan datagram, queueDepth),
		stop:          make(chan struct{}),
		pending:       make(map[types.MessageID]*pendingAck),
	}, nil
}

// Attach wires ctx as the dispatch target for inbound frames. ctx.Send
// must be this Transport; called once, before Run.
func (t *Transport) Attach(ctx *messages.Context) {
	t.msgCtx = ctx
}

// Close tears down both sockets.
func (t *Transport) Close() error {
	close(t.stop)
	err1 := t.unicastConn.Close()
	err2 := t.broadcastConn.Close()
	t.wg.Wait()
	if err1 != nil {
		return err1
	}
	return err2
}

// SendTo implements messages.Sender: a single unreliable unicast
// datagram to ip on the transport's configured port.
func (t *Transport) SendTo(ip string, frame *wire.Frame) error {
	addr := &net.UDPAddr{IP: net.ParseIP(ip), Port: t.cfg.Port}
	_, err := t.unicastConn.WriteToUDP([]byte(wire.Serialize(frame)), addr)
	return err
}

// Broadcast implements messages.Sender: one datagram to the subnet
// broadcast address, sent from the broadcast socket (SO_BROADCAST).
func (t *Transport) Broadcast(frame *wire.Frame) error {
	addr := &net.UDPAddr{IP: net.ParseIP(t.broadcastIP), Port: t.cfg.Port}
	_, err := t.broadcastConn.WriteToUDP([]byte(wire.Serialize(frame)), addr)
	return err
}

var _ messages.Sender = (*Transport)(nil)
