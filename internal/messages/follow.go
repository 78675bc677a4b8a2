package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Follow is both FOLLOW and UNFOLLOW (spec.md §4.8): identical shape,
// distinguished by TYPE, differing only in which local set they mutate
// and in which direction.
type Follow struct {
	follow    bool
	From      types.UserID
	To        types.UserID
	Timestamp types.Timestamp
	MessageID types.MessageID
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "FOLLOW",
		Scope:     types.ScopeFollow,
		HasScope:  true,
		Schema:    followSchema("FOLLOW"),
		HelpShort: "follow a user",
	})
	registry.MustRegister(&registry.Handler{
		Type:      "UNFOLLOW",
		Scope:     types.ScopeFollow,
		HasScope:  true,
		Schema:    followSchema("UNFOLLOW"),
		HelpShort: "unfollow a user",
	})
}

func followSchema(typ string) *schema.Schema {
	return &schema.Schema{
		Type: typ,
		Fields: map[string]schema.Field{
			"FROM":       {Type: schema.FieldUserID, Required: true},
			"TO":         {Type: schema.FieldUserID, Required: true},
			"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
			"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
			"TOKEN":      {Type: schema.FieldToken, Required: true},
		},
	}
}

func (f *Follow) MessageType() string {
	if f.follow {
		return "FOLLOW"
	}
	return "UNFOLLOW"
}

func (f *Follow) BearerToken() (types.Token, bool)  { return f.Token, true }
func (f *Follow) MessageTimestamp() types.Timestamp { return f.Timestamp }

func (f *Follow) Info(verbose bool) string {
	verb := "followed"
	if !f.follow {
		verb = "unfollowed"
	}
	return f.From.String() + " " + verb + " " + f.To.String()
}

func (f *Follow) ToFrame() *wire.Frame {
	fr := wire.NewFrame()
	fr.Set("TYPE", f.MessageType())
	fr.Set("FROM", f.From.String())
	fr.Set("TO", f.To.String())
	fr.Set("TIMESTAMP", f.Timestamp.String())
	fr.Set("MESSAGE_ID", string(f.MessageID))
	fr.Set("TOKEN", f.Token.String())
	return fr
}

func parseFollow(fr *wire.Frame, follow bool) (*Follow, error) {
	from, err := parseUserIDField(fr, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(fr, "TO")
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestampField(fr, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	mid, err := parseMessageIDField(fr, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(fr, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &Follow{follow: follow, From: from, To: to, Timestamp: ts, MessageID: mid, Token: tok}, nil
}

func sendFollow(ctx *Context, to types.UserID, follow bool, validFor types.TTL) (*Follow, error) {
	now := types.Now()
	f := &Follow{
		follow:    follow,
		From:      ctx.Self,
		To:        to,
		Timestamp: now,
		MessageID: types.GenerateMessageID(),
		Token:     types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeFollow},
	}
	if err := ctx.Send.SendTo(to.IP, f.ToFrame()); err != nil {
		return nil, err
	}
	if follow {
		ctx.State.AddFollowing(to)
	} else {
		ctx.State.RemoveFollowing(to)
	}
	ctx.State.AddRecentMessageSent(f)
	return f, nil
}

// SendFollow transmits a FOLLOW and records to in the local following set.
func SendFollow(ctx *Context, to types.UserID, validFor types.TTL) (*Follow, error) {
	return sendFollow(ctx, to, true, validFor)
}

// SendUnfollow transmits an UNFOLLOW and removes to from the local
// following set.
func SendUnfollow(ctx *Context, to types.UserID, validFor types.TTL) (*Follow, error) {
	return sendFollow(ctx, to, false, validFor)
}

func receiveFollow(ctx *Context, fr *wire.Frame, follow bool) (types.RecentMessage, error) {
	f, err := parseFollow(fr, follow)
	if err != nil {
		return nil, err
	}
	if err := f.Token.Validate(f.From, types.ScopeFollow); err != nil {
		return nil, err
	}
	if !f.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}
	ctx.State.AddPeer(f.From)
	if follow {
		ctx.State.AddFollower(f.From)
	} else {
		ctx.State.RemoveFollower(f.From)
	}
	ctx.State.AddRecentMessageReceived(f)
	return f, nil
}

// ReceiveFollow mutates the local followers set.
func ReceiveFollow(ctx *Context, fr *wire.Frame) (types.RecentMessage, error) {
	return receiveFollow(ctx, fr, true)
}

// ReceiveUnfollow mutates the local followers set.
func ReceiveUnfollow(ctx *Context, fr *wire.Frame) (types.RecentMessage, error) {
	return receiveFollow(ctx, fr, false)
}
