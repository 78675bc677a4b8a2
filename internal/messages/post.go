package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// Post is a broadcast status update fanned out to followers (spec.md
// §4.8). Its Timestamp doubles as the correlation key LIKE uses to
// reference it (§4.5 GetPostMessage).
type Post struct {
	UserID    types.UserID
	Content   string
	MessageID types.MessageID
	Token     types.Token
	Timestamp types.Timestamp
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "POST",
		Scope:     types.ScopeBroadcast,
		HasScope:  true,
		Schema:    postSchema,
		HelpShort: "broadcast a status update to followers",
	})
}

// TIMESTAMP is not in spec.md's distilled POST field list but is
// required to let a later LIKE reference this exact post (spec.md §4.5
// GetPostMessage, §4.8 LIKE's POST_TIMESTAMP); supplemented from the
// original implementation's client-side post_timestamp correlation.
var postSchema = &schema.Schema{
	Type: "POST",
	Fields: map[string]schema.Field{
		"USER_ID":    {Type: schema.FieldUserID, Required: true},
		"CONTENT":    {Type: schema.FieldString, Required: true},
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
		"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
	},
}

func (p *Post) MessageType() string              { return "POST" }
func (p *Post) BearerToken() (types.Token, bool)  { return p.Token, true }
func (p *Post) MessageTimestamp() types.Timestamp { return p.Timestamp }
func (p *Post) Info(verbose bool) string          { return p.UserID.String() + ": " + p.Content }

func (p *Post) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "POST")
	f.Set("USER_ID", p.UserID.String())
	f.Set("CONTENT", p.Content)
	f.Set("MESSAGE_ID", string(p.MessageID))
	f.Set("TOKEN", p.Token.String())
	f.Set("TIMESTAMP", p.Timestamp.String())
	return f
}

func parsePost(f *wire.Frame) (*Post, error) {
	u, err := parseUserIDField(f, "USER_ID")
	if err != nil {
		return nil, err
	}
	content, ok := f.Get("CONTENT")
	if !ok {
		return nil, errMissing("CONTENT")
	}
	mid, err := parseMessageIDField(f, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	return &Post{UserID: u, Content: content, MessageID: mid, Token: tok, Timestamp: ts}, nil
}

// SendPost broadcasts content to every known follower of the local user.
// The Post's Timestamp is set at construction time and recorded so LIKE
// replies can correlate back to it (spec.md §4.5).
func SendPost(ctx *Context, content string, validFor types.TTL) (*Post, error) {
	now := types.Now()
	p := &Post{
		UserID:    ctx.Self,
		Content:   content,
		MessageID: types.GenerateMessageID(),
		Token:     types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeBroadcast},
		Timestamp: now,
	}
	for _, follower := range ctx.State.GetFollowers() {
		if err := ctx.Send.SendTo(follower.IP, p.ToFrame()); err != nil {
			return p, err
		}
	}
	ctx.State.AddRecentMessageSent(p)
	return p, nil
}

// ReceivePost drops the post unless the local user follows its author.
func ReceivePost(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	p, err := parsePost(f)
	if err != nil {
		return nil, err
	}
	if err := p.Token.Validate(p.UserID, types.ScopeBroadcast); err != nil {
		return nil, err
	}
	if !ctx.State.IsFollowing(p.UserID) {
		return nil, ErrNotForMe
	}
	ctx.State.AddPeer(p.UserID)
	ctx.State.AddRecentMessageReceived(p)
	return p, nil
}
