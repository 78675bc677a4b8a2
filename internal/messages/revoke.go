package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Revoke invalidates a token everywhere in the local recent-receives
// store (spec.md §4.8).
type Revoke struct {
	Token types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "REVOKE",
		Schema:    revokeSchema,
		HelpShort: "revoke a previously issued token",
	})
}

var revokeSchema = &schema.Schema{
	Type: "REVOKE",
	Fields: map[string]schema.Field{
		"TOKEN": {Type: schema.FieldToken, Required: true},
	},
}

func (r *Revoke) MessageType() string             { return "REVOKE" }
func (r *Revoke) BearerToken() (types.Token, bool) { return r.Token, true }
func (r *Revoke) Info(verbose bool) string         { return "" }

func (r *Revoke) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "REVOKE")
	f.Set("TOKEN", r.Token.String())
	return f
}

func parseRevoke(f *wire.Frame) (*Revoke, error) {
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &Revoke{Token: tok}, nil
}

// SendRevoke broadcasts a revocation of tok.
func SendRevoke(ctx *Context, tok types.Token) error {
	r := &Revoke{Token: tok}
	return ctx.Send.Broadcast(r.ToFrame())
}

// ReceiveRevoke records the named token as revoked and removes every
// received message bearing it; the sent store is not touched.
func ReceiveRevoke(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	r, err := parseRevoke(f)
	if err != nil {
		return nil, err
	}
	ctx.State.RevokeToken(r.Token)
	return r, nil
}
