package game

import (
	"testing"

	"github.com/lsnp/lsnp/internal/types"
)

func mustUser(t *testing.T, s string) types.UserID {
	t.Helper()
	u, err := types.ParseUserID(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return u
}

func setupGame(t *testing.T) (*Manager, types.UserID, types.UserID) {
	t.Helper()
	m := New()
	alice := mustUser(t, "alice@10.0.0.2")
	bob := mustUser(t, "bob@10.0.0.3")
	m.CreateGame("g1")
	if err := m.AssignPlayers("g1", alice, bob); err != nil {
		t.Fatalf("assign players: %v", err)
	}
	return m, alice, bob
}

func TestMoveRejectsTurnMismatch(t *testing.T) {
	m, _, bob := setupGame(t)

	// Turn 1 is X's (alice's); bob playing O must be rejected.
	if err := m.Move("g1", bob, 0); err != ErrTurnMismatch {
		t.Fatalf("expected ErrTurnMismatch, got %v", err)
	}
}

func TestMoveRejectsOccupiedCell(t *testing.T) {
	m, alice, bob := setupGame(t)

	if err := m.Move("g1", alice, 4); err != nil {
		t.Fatalf("alice move: %v", err)
	}
	if err := m.Move("g1", bob, 4); err != ErrInvalidMove {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
}

func TestWinningLineDetection(t *testing.T) {
	m, alice, bob := setupGame(t)

	// alice (X) takes the top row across three of her turns, bob (O)
	// plays elsewhere in between.
	moves := []struct {
		user types.UserID
		pos  int
	}{
		{alice, 0}, {bob, 3},
		{alice, 1}, {bob, 4},
		{alice, 2}, // completes top row: 0,1,2
	}
	for _, mv := range moves {
		if err := m.Move("g1", mv.user, mv.pos); err != nil {
			t.Fatalf("move %+v: %v", mv, err)
		}
	}

	win, err := m.IsWinningMove("g1")
	if err != nil {
		t.Fatalf("is winning move: %v", err)
	}
	if !win {
		t.Fatal("expected a winning line")
	}

	line, err := m.FindWinningLine("g1")
	if err != nil {
		t.Fatalf("find winning line: %v", err)
	}
	if line != "0,1,2" {
		t.Fatalf("got line %q, want 0,1,2", line)
	}
}

func TestMoveRejectedAfterTerminal(t *testing.T) {
	m, alice, bob := setupGame(t)
	m.SetTerminal("g1")

	if err := m.Move("g1", alice, 0); err != ErrGameOver {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}
	_ = bob
}

func TestUndoRestoresBoardTurnAndLastSymbol(t *testing.T) {
	m, alice, bob := setupGame(t)

	if err := m.Move("g1", alice, 0); err != nil {
		t.Fatalf("alice move: %v", err)
	}
	if err := m.Move("g1", bob, 1); err != nil {
		t.Fatalf("bob move: %v", err)
	}

	turnBeforeUndo, _ := m.GetTurn("g1")

	if err := m.Undo("g1"); err != nil {
		t.Fatalf("undo: %v", err)
	}

	turnAfterUndo, _ := m.GetTurn("g1")
	if turnAfterUndo != turnBeforeUndo-1 {
		t.Fatalf("got turn %d, want %d", turnAfterUndo, turnBeforeUndo-1)
	}

	g, ok := m.FindGame("g1")
	if !ok {
		t.Fatal("game missing")
	}
	if g.Board[1] != Empty {
		t.Fatal("expected undone cell to be empty again")
	}
	if g.LastSymbol != X {
		t.Fatalf("expected last symbol restored to X, got %c", g.LastSymbol)
	}
}

func TestUndoWithoutPriorMoveErrors(t *testing.T) {
	m, _, _ := setupGame(t)

	if err := m.Undo("g1"); err != ErrNothingToUndo {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestIsDrawDetectsFullBoardNoWinner(t *testing.T) {
	m, alice, bob := setupGame(t)

	// A known draw sequence on a 3x3 board:
	// X O X
	// X X O
	// O X O
	seq := []struct {
		user types.UserID
		pos  int
	}{
		{alice, 0}, {bob, 1},
		{alice, 2}, {bob, 5},
		{alice, 3}, {bob, 6},
		{alice, 4}, {bob, 8},
		{alice, 7},
	}
	for _, mv := range seq {
		if err := m.Move("g1", mv.user, mv.pos); err != nil {
			t.Fatalf("move %+v: %v", mv, err)
		}
	}

	draw, err := m.IsDraw("g1")
	if err != nil {
		t.Fatalf("is draw: %v", err)
	}
	if !draw {
		t.Fatal("expected draw")
	}

	win, _ := m.IsWinningMove("g1")
	if win {
		t.Fatal("draw board must not report a winning move")
	}
}

func TestMoveRejectsNonPlayer(t *testing.T) {
	m, _, _ := setupGame(t)
	carol := mustUser(t, "carol@10.0.0.4")

	if err := m.Move("g1", carol, 0); err != ErrNotPlayer {
		t.Fatalf("expected ErrNotPlayer, got %v", err)
	}
}
