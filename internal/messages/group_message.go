package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// GroupMessage is a chat message fanned out to a group's members
// (spec.md §4.8).
type GroupMessage struct {
	From      types.UserID
	GroupID   string
	Content   string
	MessageID types.MessageID
	Timestamp types.Timestamp
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "GROUP_MESSAGE",
		Scope:     types.ScopeGroup,
		HasScope:  true,
		Schema:    groupMessageSchema,
		HelpShort: "send a message to a group",
	})
}

var groupMessageSchema = &schema.Schema{
	Type: "GROUP_MESSAGE",
	Fields: map[string]schema.Field{
		"FROM":       {Type: schema.FieldUserID, Required: true},
		"GROUP_ID":   {Type: schema.FieldString, Required: true},
		"CONTENT":    {Type: schema.FieldString, Required: true},
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
	},
}

func (m *GroupMessage) MessageType() string              { return "GROUP_MESSAGE" }
func (m *GroupMessage) BearerToken() (types.Token, bool)  { return m.Token, true }
func (m *GroupMessage) MessageTimestamp() types.Timestamp { return m.Timestamp }

func (m *GroupMessage) Info(verbose bool) string {
	return "[" + m.GroupID + "] " + m.From.String() + ": " + m.Content
}

func (m *GroupMessage) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "GROUP_MESSAGE")
	f.Set("FROM", m.From.String())
	f.Set("GROUP_ID", m.GroupID)
	f.Set("CONTENT", m.Content)
	f.Set("MESSAGE_ID", string(m.MessageID))
	f.Set("TIMESTAMP", m.Timestamp.String())
	f.Set("TOKEN", m.Token.String())
	return f
}

func parseGroupMessage(f *wire.Frame) (*GroupMessage, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	groupID, ok := f.Get("GROUP_ID")
	if !ok {
		return nil, errMissing("GROUP_ID")
	}
	content, ok := f.Get("CONTENT")
	if !ok {
		return nil, errMissing("CONTENT")
	}
	mid, err := parseMessageIDField(f, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	ts, err := parseTimestampField(f, "TIMESTAMP")
	if err != nil {
		return nil, err
	}
	tok, err := parseTokenField(f, "TOKEN")
	if err != nil {
		return nil, err
	}
	return &GroupMessage{From: from, GroupID: groupID, Content: content, MessageID: mid, Timestamp: ts, Token: tok}, nil
}

// SendGroupMessage requires the local user to be a member of groupID
// and fans out to the other members.
func SendGroupMessage(ctx *Context, groupID, content string, validFor types.TTL) (*GroupMessage, error) {
	if !ctx.State.IsGroupMember(groupID, ctx.Self) {
		return nil, ErrUnauthorizedRecipient
	}

	now := types.Now()
	m := &GroupMessage{
		From: ctx.Self, GroupID: groupID, Content: content, MessageID: types.GenerateMessageID(),
		Timestamp: now, Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeGroup},
	}

	frame := m.ToFrame()
	var firstErr error
	for _, member := range ctx.State.GetGroupMembers(groupID) {
		if member.Equal(ctx.Self) {
			continue
		}
		if err := ctx.Send.SendTo(member.IP, frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	ctx.State.AddRecentMessageSent(m)
	return m, firstErr
}

// ReceiveGroupMessage drops the message if the local user is not a
// member of the named group.
func ReceiveGroupMessage(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	m, err := parseGroupMessage(f)
	if err != nil {
		return nil, err
	}
	if err := m.Token.Validate(m.From, types.ScopeGroup); err != nil {
		return nil, err
	}
	if !ctx.State.IsGroupMember(m.GroupID, ctx.Self) {
		return nil, ErrUnauthorizedRecipient
	}

	ctx.State.AddPeer(m.From)
	ctx.State.AddRecentMessageReceived(m)
	return m, nil
}
