package messages

import (
	"github.com/lsnp/lsnp/internal/game"
	"github.com/lsnp/lsnp/internal/registry"
	"github.com/lsnp/lsnp/internal/schema"
	"github.com/lsnp/lsnp/internal/types"
	"github.com/lsnp/lsnp/internal/wire"
)

// TicTacToeMove plays one cell (spec.md §4.8). Reliable: the sender
// applies the move optimistically, then rolls it back if the ACK times
// out.
type TicTacToeMove struct {
	From      types.UserID
	To        types.UserID
	GameID    string
	MessageID types.MessageID
	Position  int
	Symbol    game.Symbol
	Turn      int
	Token     types.Token
}

func init() {
	registry.MustRegister(&registry.Handler{
		Type:      "TICTACTOE_MOVE",
		Scope:     types.ScopeGame,
		HasScope:  true,
		Schema:    ticTacToeMoveSchema,
		HelpShort: "play a tic-tac-toe move",
	})
}

var ticTacToeMoveSchema = &schema.Schema{
	Type: "TICTACTOE_MOVE",
	Fields: map[string]schema.Field{
		"FROM":       {Type: schema.FieldUserID, Required: true},
		"TO":         {Type: schema.FieldUserID, Required: true},
		"GAMEID":     {Type: schema.FieldString, Required: true},
		"MESSAGE_ID": {Type: schema.FieldMessageID, Required: true},
		"POSITION":   {Type: schema.FieldInt, Required: true},
		"SYMBOL":     {Type: schema.FieldEnum, Required: true, Enum: []string{"X", "O"}},
		"TURN":       {Type: schema.FieldInt, Required: true},
		"TOKEN":      {Type: schema.FieldToken, Required: true},
	},
}

func (m *TicTacToeMove) MessageType() string             { return "TICTACTOE_MOVE" }
func (m *TicTacToeMove) BearerToken() (types.Token, bool) { return m.Token, true }
func (m *TicTacToeMove) CorrelationID() types.MessageID   { return m.MessageID }

func (m *TicTacToeMove) Info(verbose bool) string {
	return m.From.String() + " played " + string(m.Symbol) + " at " + itoa(m.Position) + " (" + m.GameID + ")"
}

func (m *TicTacToeMove) ToFrame() *wire.Frame {
	f := wire.NewFrame()
	f.Set("TYPE", "TICTACTOE_MOVE")
	f.Set("FROM", m.From.String())
	f.Set("TO", m.To.String())
	f.Set("GAMEID", m.GameID)
	f.Set("MESSAGE_ID", string(m.MessageID))
	f.Set("POSITION", itoa(m.Position))
	f.Set("SYMBOL", string(m.Symbol))
	f.Set("TURN", itoa(m.Turn))
	f.Set("TOKEN", m.Token.String())
	return f
}

func parseTicTacToeMove(f *wire.Frame) (*TicTacToeMove, error) {
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
	position, err := parseIntField(f, "POSITION")
	if err != nil {
		return nil, err
	}
	if position < 0 || position > 8 {
		return nil, game.ErrInvalidMove
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
	return &TicTacToeMove{
		From: from, To: to, GameID: gameID, MessageID: mid, Position: position,
		Symbol: game.Symbol(symbol[0]), Turn: turn, Token: tok,
	}, nil
}

// SendTicTacToeMove applies the move locally first, then reliably
// transmits it; on ACK timeout it undoes the optimistic move (spec.md
// §4.8).
func SendTicTacToeMove(ctx *Context, to types.UserID, gameID string, position int, validFor types.TTL) (*TicTacToeMove, error) {
	symbol, err := ctx.Games.GetPlayerSymbol(gameID, ctx.Self)
	if err != nil {
		return nil, err
	}
	turn, err := ctx.Games.GetTurn(gameID)
	if err != nil {
		return nil, err
	}

	if err := ctx.Games.Move(gameID, ctx.Self, position); err != nil {
		return nil, err
	}

	now := types.Now()
	m := &TicTacToeMove{
		From: ctx.Self, To: to, GameID: gameID, MessageID: types.GenerateMessageID(),
		Position: position, Symbol: symbol, Turn: turn,
		Token: types.Token{UserID: ctx.Self, ValidUntil: now.Add(validFor), Scope: types.ScopeGame},
	}

	if err := ctx.Send.SendReliable(to.IP, m.ToFrame(), m.MessageID); err != nil {
		if uerr := ctx.Games.Undo(gameID); uerr != nil {
			return nil, uerr
		}
		return nil, err
	}

	ctx.State.AddRecentMessageSent(m)
	maybeEmitResult(ctx, to, gameID, symbol)
	return m, nil
}

// ReceiveTicTacToeMove checks TURN against the local turn, applies the
// move (which validates turn parity), then ACKs it and emits
// TICTACTOE_RESULT on a terminal board. A rejected move is not ACKed.
func ReceiveTicTacToeMove(ctx *Context, f *wire.Frame) (types.RecentMessage, error) {
	m, err := parseTicTacToeMove(f)
	if err != nil {
		return nil, err
	}
	if err := m.Token.Validate(m.From, types.ScopeGame); err != nil {
		return nil, err
	}
	if !m.To.Equal(ctx.Self) {
		return nil, ErrNotForMe
	}

	currentTurn, err := ctx.Games.GetTurn(m.GameID)
	if err != nil {
		return nil, err
	}
	if currentTurn != m.Turn {
		return nil, game.ErrTurnMismatch
	}

	if err := ctx.Games.Move(m.GameID, m.From, m.Position); err != nil {
		return nil, err
	}

	if err := SendAck(ctx, m.From, m.MessageID, "OK"); err != nil {
		return m, err
	}

	ctx.State.AddRecentMessageReceived(m)
	maybeEmitResult(ctx, m.From, m.GameID, m.Symbol)
	return m, nil
}

// maybeEmitResult checks the game for a terminal outcome and, if found,
// marks it terminal and sends TICTACTOE_RESULT to opponent.
func maybeEmitResult(ctx *Context, opponent types.UserID, gameID string, lastSymbol game.Symbol) {
	win, err := ctx.Games.IsWinningMove(gameID)
	if err != nil {
		return
	}

	var result TicTacToeResultKind
	var line string
	switch {
	case win:
		result = ResultWin
		line, _ = ctx.Games.FindWinningLine(gameID)
	default:
		draw, _ := ctx.Games.IsDraw(gameID)
		if !draw {
			return
		}
		result = ResultDraw
	}

	ctx.Games.SetTerminal(gameID)
	turn, _ := ctx.Games.GetTurn(gameID)
	now := types.Now()
	r := &TicTacToeResult{
		From: ctx.Self, To: opponent, GameID: gameID, MessageID: types.GenerateMessageID(),
		Result: result, Symbol: lastSymbol, WinningLine: line, Turn: turn,
		Token:     types.Token{UserID: ctx.Self, ValidUntil: now.Add(3600), Scope: types.ScopeGame},
		Timestamp: now,
	}
	_ = ctx.Send.SendTo(opponent.IP, r.ToFrame())
}
