package messages

import (
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// TicTacToeInvite proposes a new game session (spec.md §4.8). It is
// reliable; exhausting the retry budget deletes the game.
type TicTacToeInvite struct {
	From      types.UserID
	To        types.UserID
	GameID    string
	Symbol    game.Symbol
	MessageID types.MessageID
	Timestamp types.Timestamp
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "TICTACTOE_INVITE",
		Scope:     types.ScopeGame,
		HasScope:  true,
		Schema:    ticTacToeInviteSchema,
		HelpShort: "invite a peer to a tic-tac-toe game",
	})
}

var ticTacToeInviteSchema = &schema.Schema{
	Type: "TICTACTOE_INVITE",
	Fields: map[string]schema.Field{
		"FROM":       {Type: schema.FieldUserID, Required: true},
		"TO":         {Type: schema.FieldUserID, Required: true},
		"GAMEID":     {Type: schema.FieldString, Required: true},
		"SYMBOL":     {Type: schema.FieldEnum, Required: true, Enum: []string{"X", "O"}},
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"TIMESTAMP":  {Type: schema.FieldTimestamp, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
	},
}

func (i *TicTacToeInvite) MessageType() string              { return "TICTACTOE_INVITE" }
func (i *TicTacToeInvite) BearerToken() (types.Token, bool)  { return i.Token, true }
func (i *TicTacToeInvite) MessageTimestamp() types.Timestamp { return i.Timestamp }
func (i *TicTacToeInvite) CorrelationID() types.MessageID    { return i.MessageID }

func (i *TicTacToeInvite) Info(verbose bool) string {
	return i.From.String() + " invites you to tic-tac-toe (" + i.GameID + ")"
}

func (i *TicTacToeInvite) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "TICTACTOE_INVITE")
	f.Set("FROM", i.From.String())
	f.Set("TO", i.To.String())
	f.Set("GAMEID", i.GameID)
	f.Set("SYMBOL", string(i.Symbol))
	f.Set("MESSAGE_ID", string(i.MessageID))
	f.Set("TIMESTAMP", i.Timestamp.String())
	f.Set("TOKEN", i.Token.String())
	return f
}

func parseTicTacToeInvite(f *wire.Frame) (*TicTacToeInvite, error) {
	from, err := parseUserIDField(f, "FROM")
	if err != nil {
		return nil, err
	}
	to, err := parseUserIDField(f, "TO")
	if err != nil {
		return nil, err
	}
	gameID, ok := f.Get("GAMEID")
	if !ok {
		return nil, errMissing("GAMEID")
	}
	symbol, ok := f.Get("SYMBOL")
	if !ok {
		return nil, errMissing("SYMBOL")
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
	return &TicTacToeInvite{
		From: from, To: to, GameID: gameID, Symbol: game.Symbol(symbol[0]),
		MessageID: mid, Timestamp: ts, Token: tok,
	}, nil
}

// SendTicTacToeInvite creates the local game, assigns players according
// to symbol, and reliably invites to. On retry exhaustion it deletes the
// local game and returns SendReliable's error.
func SendTicTacToeInvite(ctx *Context, to types.UserID, gameID string, symbol game.Symbol, validFor types.TTL) (*TicTacToeInvite, error) {
	now := types.Now()
	i := &TicTacToeInvite{
		From: ctx.Self, To: to, GameID: gameID, Symbol: symbol, MessageID: types.GenerateMessageID(),
		Timestamp: now, Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeGame},
	}

	ctx.Games.CreateGame(gameID)
	if symbol == game.X {
		ctx.Games.AssignPlayers(gameID, ctx.Self, to)
	} else {
		ctx.Games.AssignPlayers(gameID, to, ctx.Self)
	}

	if err := ctx.Send.SendReliable(to.IP, i.ToFrame(), i.MessageID); err != nil {
		ctx.Games.DeleteGame(gameID)
		return nil, err
	}

	ctx.State.AddRecentMessageSent(i)
	return i, nil
}

// ReceiveTicTacToeInvite creates the local game and assigns players
// deterministically from the inviter's symbol, then auto-ACKs.
func ReceiveTicTacToeInvite(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	i, err := parseTicTacToeInvite(f)
	if err != nil {
		return nil, err
	}
	if err := i.Token.Validate(i.From, types.ScopeGame); err != nil {
		return nil, err
	}
	if !i.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}

	ctx.State.AddPeer(i.From)
	ctx.Games.CreateGame(i.GameID)
	if i.Symbol == game.X {
		ctx.Games.AssignPlayers(i.GameID, i.From, ctx.Self)
	} else {
		ctx.Games.AssignPlayers(i.GameID, ctx.Self, i.From)
	}

	if err := SendAck(ctx, i.From, i.MessageID, "OK"); err != nil {
		return i, err
	}
	ctx.State.AddRecentMessageReceived(i)
	return i, nil
}
