package messages

import (
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// GroupUpdate adds and/or removes members of an existing group
// (spec.md §4.8).
type GroupUpdate struct {
	From      types.UserID
	GroupID   string
	Add       []types.UserID
	Remove    []types.UserID
	Timestamp types.Timestamp
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "GROUP_UPDATE",
		Scope:     types.ScopeGroup,
		HasScope:  true,
		Schema:    groupUpdateSchema,
		HelpShort: "add or remove group members",
	})
}

var groupUpdateSchema = &schema.Schema{
	Type: "GROUP_UPDATE",
	Fields: map[string]schema.Field{
		"FROM":      {Type: schema.FieldUserID, Required: true},
		"GROUP_ID":  {Type: schema.FieldString, Required: true},
		"ADD":       {Type: schema.FieldString, Required: false},
		"REMOVE":    {Type: schema.FieldString, Required: false},
		"TIMESTAMP": {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":     {Type: schema.FieldToken, Required: true},
	},
}

func (u *GroupUpdate) MessageType() string              { return "GROUP_UPDATE" }
func (u *GroupUpdate) BearerToken() (types.Token, bool)  { return u.Token, true }
func (u *GroupUpdate) MessageTimestamp() types.Timestamp { return u.Timestamp }

func (u *GroupUpdate) Info(verbose bool) string {
	return u.From.String() + " updated group " + u.GroupID
}

func (u *GroupUpdate) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "GROUP_UPDATE")
	f.Set("FROM", u.From.String())
	f.Set("GROUP_ID", u.GroupID)
	f.Set("ADD", membersToWire(u.Add))
	f.Set("REMOVE", membersToWire(u.Remove))
	f.Set("TIMESTAMP", u.Timestamp.String())
	f.Set("TOKEN", u.Token.String())
	return f
}

func parseGroupUpdate(f *wire.Frame) (*GroupUpdate, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	groupID, ok := f.Get("GROUP_ID")
	if !ok {
		return nil, errMissing("GROUP_ID")
	}
	add, err := membersFromWire(optionalField(f, "ADD"))
	if err != nil {
		return nil, err
	}
	remove, err := membersFromWire(optionalField(f, "REMOVE"))
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
	return &GroupUpdate{From: from, GroupID: groupID, Add: add, Remove: remove, Timestamp: ts, Token: tok}, nil
}

// recipientsFor computes (current members ∪ add) − remove − self, the
// decision recorded for spec.md §9 Open Question #1.
func recipientsFor(self types.UserID, current []types.UserID, add, remove []types.UserID) []types.UserID {
	set := map[types.UserID]struct{}{}
	for _, m := range current {
		set[m] = struct{}{}
	}
	for _, m := range add {
		set[m] = struct{}{}
	}
	for _, m := range remove {
		delete(set, m)
	}
	delete(set, self)

	out := make([]types.UserID, 0, len(set))
	for u := range set {
		out = append(out, u)
	}
	return out
}

// SendGroupUpdate transmits to the resulting membership (minus self),
// then applies the add/remove locally.
func SendGroupUpdate(ctx *Context, groupID string, add, remove []types.UserID, validFor types.TTL) (*GroupUpdate, error) {
	current := ctx.State.GetGroupMembers(groupID)

	now := types.Now()
	u := &GroupUpdate{
		From: ctx.Self, GroupID: groupID, Add: add, Remove: remove, Timestamp: now,
		Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeGroup},
	}

	recipients := recipientsFor(ctx.Self, current, add, remove)
	frame := u.ToFrame()
	var firstErr error
	for _, r := range recipients {
		if err := ctx.Send.SendTo(r.IP, frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	applyGroupUpdate(ctx, ctx.Self, groupID, add, remove)
	ctx.State.AddRecentMessageSent(u)
	return u, firstErr
}

func applyGroupUpdate(ctx *Context, self types.UserID, groupID string, add, remove []types.UserID) {
	for _, m := range add {
		ctx.State.AddGroupMember(groupID, m)
	}
	for _, m := range remove {
		ctx.State.RemoveGroupMember(groupID, m)
		if m.Equal(self) {
			ctx.State.RemoveGroup(groupID)
		}
	}
}

// ReceiveGroupUpdate applies additions then removals to local group
// state; if self is in Remove, the group is dropped locally.
func ReceiveGroupUpdate(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	u, err := parseGroupUpdate(f)
	if err != nil {
		return nil, err
	}
	if err := u.Token.Validate(u.From, types.ScopeGroup); err != nil {
		return nil, err
	}

	ctx.State.AddPeer(u.From)
	applyGroupUpdate(ctx, ctx.Self, u.GroupID, u.Add, u.Remove)
	ctx.State.AddRecentMessageReceived(u)
	return u, nil
}
