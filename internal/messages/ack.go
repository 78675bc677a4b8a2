package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Ack correlates to a pending reliable send; never shown to the user
// (spec.md §4.8).
type Ack struct {
	CorrelatesTo types.MessageID
	Status       string
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "ACK",
		Schema:    ackSchema,
		Hidden:    true,
		HelpShort: "acknowledge a reliable message",
	})
}

var ackSchema = &schema.Schema{
	Type: "ACK",
	Fields: map[string]schema.Field{
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"STATUS":     {Type: schema.FieldString, Required: true},
	},
}

func (a *Ack) MessageType() string               { return "ACK" }
func (a *Ack) BearerToken() (types.Token, bool)   { return types.Token{}, false }
func (a *Ack) CorrelationID() types.MessageID     { return a.CorrelatesTo }
func (a *Ack) Info(verbose bool) string           { return "" }

func (a *Ack) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "ACK")
	f.Set("MESSAGE_ID", string(a.CorrelatesTo))
	f.Set("STATUS", a.Status)
	return f
}

func parseAck(f *wire.Frame) (*Ack, error) {
	mid, err := parseMessageIDField(f, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	status, ok := f.Get("STATUS")
	if !ok {
		return nil, errMissing("STATUS")
	}
	return &Ack{CorrelatesTo: mid, Status: status}, nil
}

// SendAck acknowledges the message correlated by mid.
func SendAck(ctx *Context, to types.UserID, mid types.MessageID, status string) error {
	a := &Ack{CorrelatesTo: mid, Status: status}
	return ctx.Send.SendTo(to.IP, a.ToFrame())
}

// ReceiveAck hands the parsed ACK back to the caller (the reliable-send
// retry loop in internal/transport), which correlates it by MESSAGE_ID.
func ReceiveAck(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	a, err := parseAck(f)
	if err != nil {
		return nil, err
	}
	ctx.State.AddRecentMessageReceived(a)
	return a, nil
}
