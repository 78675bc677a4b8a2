// Package game implements the LSNP game-session manager (spec.md §4.7):
// TicTacToe boards, turn state, win/draw detection, and undo. No direct
// teacher analog exists for turn-based game state; grounded on the same
// mutex-guarded-map singleton shape used throughout this repo (see
// internal/clientstate), applied to a new domain.
package game

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lsnp/lsnp/internal/types"
)

// Symbol is a board cell value.
type Symbol byte

// The three cell values a TicTacToe board can hold.
const (
	Empty Symbol = ' '
	X     Symbol = 'X'
	O     Symbol = 'O'
)

// Errors returned by Manager operations, matching spec.md §7's taxonomy.
var (
	ErrNoSuchGame    = errors.New("no such game")
	ErrNotPlayer     = errors.New("user is not a player in this game")
	ErrTurnMismatch  = errors.New("turn mismatch")
	ErrInvalidMove   = errors.New("invalid move")
	ErrGameOver      = errors.New("game is already terminal")
	ErrNothingToUndo = errors.New("no previous state to undo to")
)

// winning lines, by cell index.
var lines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type snapshot struct {
	board      [9]Symbol
	turn       int
	lastSymbol Symbol
}

// Game is one TicTacToe session.
type Game struct {
	Board      [9]Symbol
	Turn       int // 1-indexed
	PlayerX    types.UserID
	PlayerO    types.UserID
	LastSymbol Symbol
	Active     bool

	prev    *snapshot
	hasPrev bool
}

// Manager is the game-session singleton, keyed by game id (e.g. "g7").
type Manager struct {
	mu    sync.Mutex
	games map[string]*Game
}

// New returns an empty Manager.
func New() *Manager {
	return &Manager{games: map[string]*Game{}}
}

// CreateGame starts a new, empty, active game at id.
func (m *Manager) CreateGame(id string) *Game {
	m.mu.Lock()
	defer m.mu.Unlock()

	g := &Game{Turn: 1, Active: true}
	for i := range g.Board {
		g.Board[i] = Empty
	}
	m.games[id] = g
	return g
}

// FindGame returns the game at id, if any.
func (m *Manager) FindGame(id string) (*Game, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	return g, ok
}

// DeleteGame removes the game at id.
func (m *Manager) DeleteGame(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.games, id)
}

// AssignPlayers sets the two players for game id. The starting symbol is
// always X (spec.md §4.7); the inviter's SYMBOL field decides which of
// playerX/playerO the inviter is.
func (m *Manager) AssignPlayers(id string, playerX, playerO types.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return ErrNoSuchGame
	}
	g.PlayerX = playerX
	g.PlayerO = playerO
	return nil
}

// GetPlayerSymbol returns the symbol u plays in game id.
func (m *Manager) GetPlayerSymbol(id string, u types.UserID) (Symbol, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return Empty, ErrNoSuchGame
	}
	switch {
	case g.PlayerX.Equal(u):
		return X, nil
	case g.PlayerO.Equal(u):
		return O, nil
	default:
		return Empty, ErrNotPlayer
	}
}

// GetTurn returns the 1-indexed current turn number for game id.
func (m *Manager) GetTurn(id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return 0, ErrNoSuchGame
	}
	return g.Turn, nil
}

// IsActiveGame reports whether game id exists and has not reached a
// terminal state.
func (m *Manager) IsActiveGame(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	return ok && g.Active
}

// IsPlayer reports whether u is one of game id's two players.
func (m *Manager) IsPlayer(id string, u types.UserID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return false
	}
	return g.PlayerX.Equal(u) || g.PlayerO.Equal(u)
}

func turnSymbol(turn int) Symbol {
	if turn%2 == 1 {
		return X
	}
	return O
}

// Move validates and applies a move by user at position (spec.md §4.7):
// the user must be a player in the game, the turn parity must match
// their symbol (X on odd turns, O on even), position must be in
// [0,8], and the target cell must be empty. On success the previous
// state is snapshotted (for Undo) before the cell, LastSymbol and Turn
// are updated.
func (m *Manager) Move(id string, user types.UserID, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return ErrNoSuchGame
	}
	if !g.Active {
		return ErrGameOver
	}

	symbol, err := m.playerSymbolLocked(g, user)
	if err != nil {
		return err
	}
	if symbol != turnSymbol(g.Turn) {
		return ErrTurnMismatch
	}
	if position < 0 || position > 8 {
		return ErrInvalidMove
	}
	if g.Board[position] != Empty {
		return ErrInvalidMove
	}

	g.prev = &snapshot{board: g.Board, turn: g.Turn, lastSymbol: g.LastSymbol}
	g.hasPrev = true

	g.Board[position] = symbol
	g.LastSymbol = symbol
	g.Turn++

	return nil
}

func (m *Manager) playerSymbolLocked(g *Game, u types.UserID) (Symbol, error) {
	switch {
	case g.PlayerX.Equal(u):
		return X, nil
	case g.PlayerO.Equal(u):
		return O, nil
	default:
		return Empty, ErrNotPlayer
	}
}

// Undo restores the board, turn and last symbol from the snapshot taken
// before the most recent Move. Used to roll back an optimistic local
// move when its reliable send times out (spec.md §4.8 TICTACTOE_MOVE).
func (m *Manager) Undo(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.games[id]
	if !ok {
		return ErrNoSuchGame
	}
	if !g.hasPrev {
		return ErrNothingToUndo
	}

	g.Board = g.prev.board
	g.Turn = g.prev.turn
	g.LastSymbol = g.prev.lastSymbol
	g.hasPrev = false
	g.prev = nil
	return nil
}

// IsWinningMove reports whether game id's LastSymbol currently occupies
// one of the 8 canonical lines.
func (m *Manager) IsWinningMove(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return false, ErrNoSuchGame
	}
	s := g.LastSymbol
	for _, line := range lines {
		if s != Empty && g.Board[line[0]] == s && g.Board[line[1]] == s && g.Board[line[2]] == s {
			return true, nil
		}
	}
	return false, nil
}

// FindWinningLine returns the winning line as "a,b,c", or "" if none.
func (m *Manager) FindWinningLine(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return "", ErrNoSuchGame
	}
	line, ok := winningLine(g)
	if !ok {
		return "", nil
	}
	return fmt.Sprintf("%d,%d,%d", line[0], line[1], line[2]), nil
}

func winningLine(g *Game) ([3]int, bool) {
	for _, line := range lines {
		a, b, c := g.Board[line[0]], g.Board[line[1]], g.Board[line[2]]
		if a != Empty && a == b && b == c {
			return line, true
		}
	}
	return [3]int{}, false
}

// IsDraw reports whether game id's board is full with no winning line.
func (m *Manager) IsDraw(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return false, ErrNoSuchGame
	}
	if _, win := winningLine(g); win {
		return false, nil
	}
	for _, cell := range g.Board {
		if cell == Empty {
			return false, nil
		}
	}
	return true, nil
}

// SetTerminal marks game id inactive, e.g. after a WIN/DRAW/FORFEIT.
func (m *Manager) SetTerminal(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.games[id]; ok {
		g.Active = false
	}
}

// ActiveCount returns the number of games not yet in a terminal state,
// for internal/metrics' active-games gauge.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.games {
		if g.Active {
			n++
		}
	}
	return n
}
