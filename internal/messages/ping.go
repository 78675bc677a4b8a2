package messages

import (
	"fmt"

	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Ping is the presence announcement (spec.md §4.8). It carries no
// bearer token.
type Ping struct {
	UserID types.UserID
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "PING",
		Schema:    pingSchema,
		HelpShort: "announce presence",
	})
}

var pingSchema = &schema.Schema{
	Type: "PING",
	Fields: map[string]schema.Field{
		"USER_ID": {Type: schema.FieldUserID, Required: true},
	},
}

// MessageType implements types.RecentMessage.
func (p *Ping) MessageType() string { return "PING" }

// BearerToken implements types.RecentMessage; PING carries no token.
func (p *Ping) BearerToken() (types.Token, bool) { return types.Token{}, false }

// Info implements types.RecentMessage; PING is not shown to the user.
func (p *Ping) Info(verbose bool) string { return "" }

// ToFrame renders p in declaration order.
func (p *Ping) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "PING")
	f.Set("USER_ID", p.UserID.String())
	return f
}

func parsePing(f *wire.Frame) (*Ping, error) {
	u, err := parseUserIDField(f, "USER_ID")
	if err != nil {
		return nil, err
	}
	return &Ping{UserID: u}, nil
}

// SendPing broadcasts a presence announcement.
func SendPing(ctx *Context) error {
	p := &Ping{UserID: ctx.Self}
	return ctx.Send.Broadcast(p.ToFrame())
}

// ReceivePing adds the peer; if it was new, replies with our own PING so
// the neighbor table fast-converges (spec.md §4.8).
func ReceivePing(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	p, err := parsePing(f)
	if err != nil {
		return nil, err
	}
	if p.UserID.Equal(ctx.Self) {
		return p, nil
	}

	isNew := ctx.State.AddPeer(p.UserID)
	if isNew {
		reply := &Ping{UserID: ctx.Self}
		if err := ctx.Send.SendTo(p.UserID.IP, reply.ToFrame()); err != nil {
			return p, fmt.Errorf("messages: reply ping: %w", err)
		}
	}
	return p, nil
}
