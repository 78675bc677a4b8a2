package messages

import (
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// TicTacToeResultKind is RESULT's enum (spec.md §4.8).
type TicTacToeResultKind string

// The four terminal outcomes a game can report.
const (
	ResultWin     TicTacToeResultKind = "WIN"
	ResultLoss    TicTacToeResultKind = "LOSS"
	ResultDraw    TicTacToeResultKind = "DRAW"
	ResultForfeit TicTacToeResultKind = "FORFEIT"
)

// TicTacToeResult announces a game's terminal outcome (spec.md §4.8).
type TicTacToeResult struct {
	From        types.UserID
	To          types.UserID
	GameID      string
	MessageID   types.MessageID
	Result      TicTacToeResultKind
	Symbol      game.Symbol
	WinningLine string
	Turn        int
	Token       types.Token
	Timestamp   types.Timestamp
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "TICTACTOE_RESULT",
		Scope:     types.ScopeGame,
		HasScope:  true,
		Schema:    ticTacToeResultSchema,
		HelpShort: "report a finished tic-tac-toe game",
	})
}

var ticTacToeResultSchema = &schema.Schema{
	Type: "TICTACTOE_RESULT",
	Fields: map[string]schema.Field{
		"FROM":         {Type: schema.FieldUserID, Required: true},
		"TO":           {Type: schema.FieldUserID, Required: true},
		"GAMEID":       {Type: schema.FieldString, Required: true},
		"MESSAGE_ID":   {Type: schema.FieldMessageID, Required: true},
		"RESULT":       {Type: schema.FieldEnum, Required: true, Enum: []string{"WIN", "LOSS", "DRAW", "FORFEIT"}},
		"SYMBOL":       {Type: schema.FieldEnum, Required: true, Enum: []string{"X", "O"}},
		"WINNING_LINE": {Type: schema.FieldString, Required: false},
		"TURN":         {Type: schema.FieldInt, Required: true},
		"TOKEN":        {Type: schema.FieldToken, Required: true},
		"TIMESTAMP":    {Type: schema.FieldTimestamp, Required: true},
	},
}

func (r *TicTacToeResult) MessageType() string              { return "TICTACTOE_RESULT" }
func (r *TicTacToeResult) BearerToken() (types.Token, bool)  { return r.Token, true }
func (r *TicTacToeResult) MessageTimestamp() types.Timestamp { return r.Timestamp }
func (r *TicTacToeResult) CorrelationID() types.MessageID    { return r.MessageID }

func (r *TicTacToeResult) Info(verbose bool) string {
	return "game " + r.GameID + " ended: " + string(r.Result)
}

func (r *TicTacToeResult) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "TICTACTOE_RESULT")
	f.Set("FROM", r.From.String())
	f.Set("TO", r.To.String())
	f.Set("GAMEID", r.GameID)
	f.Set("MESSAGE_ID", string(r.MessageID))
	f.Set("RESULT", string(r.Result))
	f.Set("SYMBOL", string(r.Symbol))
	f.Set("WINNING_LINE", r.WinningLine)
	f.Set("TURN", itoa(r.Turn))
	f.Set("TOKEN", r.Token.String())
	f.Set("TIMESTAMP", r.Timestamp.String())
	return f
}

func parseTicTacToeResult(f *wire.Frame) (*TicTacToeResult, error) {
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
	mid, err := parseMessageIDField(f, "MESSAGE_ID")
	if err != nil {
		return nil, err
	}
	result, ok := f.Get("RESULT")
	if !ok {
		return nil, errMissing("RESULT")
	}
	symbol, ok := f.Get("SYMBOL")
	if !ok {
		return nil, errMissing("SYMBOL")
	}
	turn, err := parseIntField(f, "TURN")
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
	return &TicTacToeResult{
		From: from, To: to, GameID: gameID, MessageID: mid, Result: TicTacToeResultKind(result),
		Symbol: game.Symbol(symbol[0]), WinningLine: optionalField(f, "WINNING_LINE"), Turn: turn,
		Token: tok, Timestamp: ts,
	}, nil
}

// ReceiveTicTacToeResult records the outcome; the game was already
// marked terminal by the sender and is mirrored locally.
func ReceiveTicTacToeResult(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	r, err := parseTicTacToeResult(f)
	if err != nil {
		return nil, err
	}
	if err := r.Token.Validate(r.From, types.ScopeGame); err != nil {
		return nil, err
	}
	if !r.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}

	ctx.Games.SetTerminal(r.GameID)
	ctx.State.AddRecentMessageReceived(r)
	return r, nil
}
