package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// LikeAction is LIKE's ACTION enum.
type LikeAction string

// The two LIKE actions.
const (
	ActionLike   LikeAction = "LIKE"
	ActionUnlike LikeAction = "UNLIKE"
)

// Like reacts to a previously sent POST, identified by its timestamp
// (spec.md §4.8).
type Like struct {
	From          types.UserID
	To            types.UserID
	PostTimestamp types.Timestamp
	Action        LikeAction
	Timestamp     types.Timestamp
	Token         types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "LIKE",
		Scope:     types.ScopeBroadcast,
		HasScope:  true,
		Schema:    likeSchema,
		HelpShort: "like or unlike a post",
	})
}

var likeSchema = &schema.Schema{
	Type: "LIKE",
	Fields: map[string]schema.Field{
		"FROM":           {Type: schema.FieldUserID, Required: true},
		"TO":             {Type: schema.FieldUserID, Required: true},
		"POST_TIMESTAMP": {Type: schema.FieldTimestamp, Required: true},
		"ACTION":         {Type: schema.FieldEnum, Required: true, Enum: []string{string(ActionLike), string(ActionUnlike)}},
		"TIMESTAMP":      {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":          {Type: schema.FieldToken, Required: true},
	},
}

func (l *Like) MessageType() string              { return "LIKE" }
func (l *Like) BearerToken() (types.Token, bool)  { return l.Token, true }
func (l *Like) MessageTimestamp() types.Timestamp { return l.Timestamp }

func (l *Like) Info(verbose bool) string {
	verb := "likes"
	if l.Action == ActionUnlike {
		verb = "unlikes"
	}
	return l.From.String() + " " + verb + " your post from " + l.PostTimestamp.String()
}

func (l *Like) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "LIKE")
	f.Set("FROM", l.From.String())
	f.Set("TO", l.To.String())
	f.Set("POST_TIMESTAMP", l.PostTimestamp.String())
	f.Set("ACTION", string(l.Action))
	f.Set("TIMESTAMP", l.Timestamp.String())
	f.Set("TOKEN", l.Token.String())
	return f
}

func parseLike(f *wire.Frame) (*Like, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(f, "TO")
	if err != nil {
		return nil, err
	}
	postTS, err := parseTimestampField(f, "POST_TIMESTAMP")
	if err != nil {
		return nil, err
	}
	action, ok := f.Get("ACTION")
	if !ok {
		return nil, errMissing("ACTION")
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &Like{From: from, To: to, PostTimestamp: postTS, Action: LikeAction(action), Timestamp: ts, Token: tok}, nil
}

// SendLike reacts to a post authored by to, previously observed at
// postTimestamp.
func SendLike(ctx *Context, to types.UserID, postTimestamp types.Timestamp, action LikeAction, validFor types.TTL) (*Like, error) {
	now := types.Now()
	l := &Like{
		From:          ctx.Self,
		To:            to,
		PostTimestamp: postTimestamp,
		Action:        action,
		Timestamp:     now,
		Token:         types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeBroadcast},
	}
	if err := ctx.Send.SendTo(to.IP, l.ToFrame()); err != nil {
		return nil, err
	}
	ctx.State.AddRecentMessageSent(l)
	return l, nil
}

// ReceiveLike requires the liked POST to exist in the local sent store
// and the local user to be the addressee.
func ReceiveLike(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	l, err := parseLike(f)
	if err != nil {
		return nil, err
	}
	if err := l.Token.Validate(l.From, types.ScopeBroadcast); err != nil {
		return nil, err
	}
	if !l.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}
	if _, ok := ctx.State.GetPostMessage(l.PostTimestamp); !ok {
		return nil, ErrUnknownPost
	}
	ctx.State.AddPeer(l.From)
	ctx.State.AddRecentMessageReceived(l)
	return l, nil
}
