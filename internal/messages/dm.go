package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// DM is a private, unicast, token-bearing chat message (spec.md §4.8).
type DM struct {
	From      types.UserID
	To        types.UserID
	Content   string
	Timestamp types.Timestamp
	MessageID types.MessageID
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "DM",
		Scope:     types.ScopeChat,
		HasScope:  true,
		Schema:    dmSchema,
		HelpShort: "send a direct message",
	})
}

var dmSchema = &schema.Schema{
	Type: "DM",
	Fields: map[string]schema.Field{
		"FROM":       {Type: schema.FieldUserID, Required: true},
		"TO":         {Type: schema.FieldUserID, Required: true},
		"CONTENT":    {Type: schema.FieldString, Required: true},
		"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
	},
}

func (m *DM) MessageType() string                  { return "DM" }
func (m *DM) BearerToken() (types.Token, bool)      { return m.Token, true }
func (m *DM) MessageTimestamp() types.Timestamp     { return m.Timestamp }
func (m *DM) Info(verbose bool) string {
	return m.From.String() + " -> " + m.To.String() + ": " + m.Content
}

func (m *DM) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "DM")
	f.Set("FROM", m.From.String())
	f.Set("TO", m.To.String())
	f.Set("CONTENT", m.Content)
	f.Set("TIMESTAMP", m.Timestamp.String())
	f.Set("MESSAGE_ID", string(m.MessageID))
	f.Set("TOKEN", m.Token.String())
	return f
}

func parseDM(f *wire.Frame) (*DM, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(f, "TO")
	if err != nil {
		return nil, err
	}
	content, ok := f.Get("CONTENT")
	if !ok {
		return nil, errMissing("CONTENT")
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	mid, err := parseMessageIDField(f, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &DM{From: from, To: to, Content: content, Timestamp: ts, MessageID: mid, Token: tok}, nil
}

// SendDM transmits a direct message unreliably to to.IP (spec.md §4.8
// lists DM among the simple unicast types; no retry wrapper).
func SendDM(ctx *Context, to types.UserID, content string, validFor types.TTL) (*DM, error) {
	m := &DM{
		From:      ctx.Self,
		To:        to,
		Content:   content,
		Timestamp: types.Now(),
		MessageID: types.GenerateMessageID(),
		Token:     types.Token{UserID: ctx.Self, ValidUntil: types.Now().Add(validFor), Scope: types.ScopeChat},
	}
	if err := ctx.Send.SendTo(to.IP, m.ToFrame()); err != nil {
		return nil, err
	}
	ctx.State.AddRecentMessageSent(m)
	return m, nil
}

// ReceiveDM validates the token and drops the message unless it is
// addressed to the local user.
func ReceiveDM(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	m, err := parseDM(f)
	if err != nil {
		return nil, err
	}
	if err := m.Token.Validate(m.From, types.ScopeChat); err != nil {
		return nil, err
	}
	if !m.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}
	ctx.State.AddPeer(m.From)
	ctx.State.AddRecentMessageReceived(m)
	return m, nil
}
