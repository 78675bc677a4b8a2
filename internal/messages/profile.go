package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Profile announces a display name and status (spec.md §4.8).
type Profile struct {
	UserID      types.UserID
	DisplayName string
	Status      string
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "PROFILE",
		Schema:    profileSchema,
		HelpShort: "announce display name and status",
	})
}

var profileSchema = &schema.Schema{
	Type: "PROFILE",
	Fields: map[string]schema.Field{
		"USER_ID":      {Type: schema.FieldUserID, Required: true},
		"DISPLAY_NAME": {Type: schema.FieldString, Required: true},
		"STATUS":       {Type: schema.FieldString, Required: false},
	},
}

func (p *Profile) MessageType() string                { return "PROFILE" }
func (p *Profile) BearerToken() (types.Token, bool)    { return types.Token{}, false }
func (p *Profile) Info(verbose bool) string {
	if !verbose {
		return p.DisplayName + " is now " + p.Status
	}
	return p.UserID.String() + " (" + p.DisplayName + "): " + p.Status
}

func (p *Profile) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "PROFILE")
	f.Set("USER_ID", p.UserID.String())
	f.Set("DISPLAY_NAME", p.DisplayName)
	f.Set("STATUS", p.Status)
	return f
}

func parseProfile(f *wire.Frame) (*Profile, error) {
	u, err := parseUserIDField(f, "USER_ID")
	if err != nil {
		return nil, err
	}
	name, ok := f.Get("DISPLAY_NAME")
	if !ok {
		return nil, errMissing("DISPLAY_NAME")
	}
	return &Profile{UserID: u, DisplayName: name, Status: optionalField(f, "STATUS")}, nil
}

// SendProfile broadcasts the local user's display name and status.
func SendProfile(ctx *Context, displayName, status string) error {
	p := &Profile{UserID: ctx.Self, DisplayName: displayName, Status: status}
	return ctx.Send.Broadcast(p.ToFrame())
}

// ReceiveProfile upserts the peer and its display name.
func ReceiveProfile(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	p, err := parseProfile(f)
	if err != nil {
		return nil, err
	}
	ctx.State.AddPeer(p.UserID)
	ctx.State.UpdatePeerDisplayName(p.UserID, p.DisplayName)
	return p, nil
}
