package messages

import (
	"strings"

	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// GroupCreate establishes a new group (spec.md §4.8). Recipients in
// Members install the full group; everyone else records only the id.
type GroupCreate struct {
	From      types.UserID
	GroupID   string
	GroupName string
	Members   []types.UserID
	Timestamp types.Timestamp
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "GROUP_CREATE",
		Scope:     types.ScopeGroup,
		HasScope:  true,
		Schema:    groupCreateSchema,
		HelpShort: "create a group",
	})
}

var groupCreateSchema = &schema.Schema{
	Type: "GROUP_CREATE",
	Fields: map[string]schema.Field{
		"FROM":       {Type: schema.FieldUserID, Required: true},
		"GROUP_ID":   {Type: schema.FieldString, Required: true},
		"GROUP_NAME": {Type: schema.FieldString, Required: true},
		"MEMBERS":    {Type: schema.FieldString, Required: true},
		"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
	},
}

func (g *GroupCreate) MessageType() string              { return "GROUP_CREATE" }
func (g *GroupCreate) BearerToken() (types.Token, bool)  { return g.Token, true }
func (g *GroupCreate) MessageTimestamp() types.Timestamp { return g.Timestamp }

func (g *GroupCreate) Info(verbose bool) string {
	return g.From.String() + " created group " + g.GroupName + " (" + g.GroupID + ")"
}

func membersToWire(members []types.UserID) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = m.String()
	}
	return strings.Join(parts, ",")
}

func membersFromWire(raw string) ([]types.UserID, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]types.UserID, 0, len(parts))
	for _, p := range parts {
		u, err := types.ParseUserID(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (g *GroupCreate) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "GROUP_CREATE")
	f.Set("FROM", g.From.String())
	f.Set("GROUP_ID", g.GroupID)
	f.Set("GROUP_NAME", g.GroupName)
	f.Set("MEMBERS", membersToWire(g.Members))
	f.Set("TIMESTAMP", g.Timestamp.String())
	f.Set("TOKEN", g.Token.String())
	return f
}

func parseGroupCreate(f *wire.Frame) (*GroupCreate, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	groupID, ok := f.Get("GROUP_ID")
	if !ok {
		return nil, errMissing("GROUP_ID")
	}
	groupName, ok := f.Get("GROUP_NAME")
	if !ok {
		return nil, errMissing("GROUP_NAME")
	}
	membersRaw, ok := f.Get("MEMBERS")
	if !ok {
		return nil, errMissing("MEMBERS")
	}
	members, err := membersFromWire(membersRaw)
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
	return &GroupCreate{From: from, GroupID: groupID, GroupName: groupName, Members: members, Timestamp: ts, Token: tok}, nil
}

// SendGroupCreate transmits to the union of known peers and declared
// members, excluding self, and installs the full group locally instead
// of sending it to itself.
func SendGroupCreate(ctx *Context, groupID, groupName string, members []types.UserID, validFor types.TTL) (*GroupCreate, error) {
	now := types.Now()
	g := &GroupCreate{
		From: ctx.Self, GroupID: groupID, GroupName: groupName, Members: members, Timestamp: now,
		Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeGroup},
	}

	recipients := map[types.UserID]struct{}{ctx.Self: {}}
	for _, p := range ctx.State.GetPeers() {
		recipients[p] = struct{}{}
	}
	for _, m := range members {
		recipients[m] = struct{}{}
	}

	frame := g.ToFrame()
	var firstErr error
	for r := range recipients {
		if r.Equal(ctx.Self) {
			continue
		}
		if err := ctx.Send.SendTo(r.IP, frame); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if !ctx.State.CreateGroup(groupID, groupName, members) {
		return g, ErrDuplicateGroup
	}
	ctx.State.AddRecentMessageSent(g)
	return g, firstErr
}

// ReceiveGroupCreate installs the full group if the local user is a
// member, otherwise remembers only the group id. Duplicate group ids
// are dropped.
func ReceiveGroupCreate(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	g, err := parseGroupCreate(f)
	if err != nil {
		return nil, err
	}
	if err := g.Token.Validate(g.From, types.ScopeGroup); err != nil {
		return nil, err
	}

	ctx.State.AddPeer(g.From)

	isMember := false
	for _, m := range g.Members {
		if m.Equal(ctx.Self) {
			isMember = true
			break
		}
	}

	var ok bool
	if isMember {
		ok = ctx.State.CreateGroup(g.GroupID, g.GroupName, g.Members)
	} else {
		ok = ctx.State.RememberGroupID(g.GroupID)
	}
	if !ok {
		return nil, ErrDuplicateGroup
	}

	ctx.State.AddRecentMessageReceived(g)
	return g, nil
}
