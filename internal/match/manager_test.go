package match

import (
	"context"
	"errors"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/karowl/chessd/internal/rules"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	m, err := NewManager(fmt.Sprintf("redis://%s/0", mr.Addr()), 0)
	if err != nil {
		t.Fatalf("match.NewManager: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func play(t *testing.T, m *Manager, id, mv string) *Match {
	t.Helper()
	from, to, err := ParseMove(mv)
	if err != nil {
		t.Fatalf("parse %q: %v", mv, err)
	}
	mt, err := m.Play(context.Background(), id, from, to)
	if err != nil {
		t.Fatalf("play %q: %v", mv, err)
	}
	return mt
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	mt, err := m.Create(ctx, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if mt.ID == "" || mt.Ruleset != "standard" || mt.Status != StatusActive || mt.Turn != "white" {
		t.Fatalf("unexpected new match: %+v", mt)
	}

	got, err := m.Get(ctx, mt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != mt.ID || len(got.Moves) != 0 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestCreateRejectsUnknownRuleset(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Create(context.Background(), "bughouse"); !errors.Is(err, ErrUnknownRuleset) {
		t.Fatalf("want ErrUnknownRuleset, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Get(context.Background(), "nope"); !errors.Is(err, ErrMatchNotFound) {
		t.Fatalf("want ErrMatchNotFound, got %v", err)
	}
}

func TestPlayAdvancesMatch(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	mt, err := m.Create(ctx, "standard")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got := play(t, m, mt.ID, "e2 e4")
	if len(got.Moves) != 1 || got.Moves[0] != "e2e4" {
		t.Fatalf("moves after first play: %v", got.Moves)
	}
	if got.Turn != "black" {
		t.Fatalf("turn after first play: %s", got.Turn)
	}

	got = play(t, m, mt.ID, "e7e5")
	if len(got.Moves) != 2 || got.Turn != "white" {
		t.Fatalf("state after reply: moves=%v turn=%s", got.Moves, got.Turn)
	}
}

func TestPlayRejectsIllegalAndOutOfTurn(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	mt, _ := m.Create(ctx, "standard")

	e2, e5 := squares(t, "e2", "e5")
	if _, err := m.Play(ctx, mt.ID, e2, e5); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("pawn triple step: want ErrIllegalMove, got %v", err)
	}

	// Black trying to open the game is out of turn.
	e7, e5b := squares(t, "e7", "e5")
	if _, err := m.Play(ctx, mt.ID, e7, e5b); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("out of turn: want ErrIllegalMove, got %v", err)
	}

	got, err := m.Get(ctx, mt.ID)
	if err != nil || len(got.Moves) != 0 {
		t.Fatalf("rejected moves must not be recorded: %v %v", got.Moves, err)
	}
}

func squares(t *testing.T, a, b string) (rules.Square, rules.Square) {
	t.Helper()
	from, err := rules.ParseSquare(a)
	if err != nil {
		t.Fatal(err)
	}
	to, err := rules.ParseSquare(b)
	if err != nil {
		t.Fatal(err)
	}
	return from, to
}

func TestCheckmateFinishesAndArchives(t *testing.T) {
	m := newTestManager(t)
	archive := NewMemoryArchive()
	m.AttachArchive(archive)
	ctx := context.Background()

	mt, _ := m.Create(ctx, "standard")
	play(t, m, mt.ID, "f2f3")
	play(t, m, mt.ID, "e7e5")
	play(t, m, mt.ID, "g2g4")
	got := play(t, m, mt.ID, "d8h4")

	if got.Status != StatusCheckmate || got.Winner != "black" {
		t.Fatalf("fool's mate: status=%s winner=%s", got.Status, got.Winner)
	}
	if got.Result() != "black" {
		t.Fatalf("result: got %s", got.Result())
	}

	rows, err := archive.Recent(ctx, 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("archive rows: %v err=%v", rows, err)
	}
	if rows[0].ID != mt.ID || rows[0].Result != "black" || rows[0].Method != "checkmate" {
		t.Fatalf("archived row: %+v", rows[0])
	}

	// A finished match refuses further moves.
	a1, a2 := squares(t, "a2", "a3")
	if _, err := m.Play(ctx, mt.ID, a1, a2); !errors.Is(err, ErrMatchFinished) {
		t.Fatalf("want ErrMatchFinished, got %v", err)
	}
}

func TestResign(t *testing.T) {
	m := newTestManager(t)
	archive := NewMemoryArchive()
	m.AttachArchive(archive)
	ctx := context.Background()

	mt, _ := m.Create(ctx, "standard")
	got, err := m.Resign(ctx, mt.ID, rules.White)
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if got.Status != StatusResigned || got.Winner != "black" {
		t.Fatalf("after resign: %+v", got)
	}
	if _, err := m.Resign(ctx, mt.ID, rules.Black); !errors.Is(err, ErrMatchFinished) {
		t.Fatalf("double resign: want ErrMatchFinished, got %v", err)
	}
}

func TestLegacyMatchUsesLegacyRules(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	mt, err := m.Create(ctx, "legacy")
	if err != nil {
		t.Fatalf("create legacy: %v", err)
	}

	// Knight onto its own pawn: only legal under legacy rules.
	got := play(t, m, mt.ID, "b1d2")
	if len(got.Moves) != 1 {
		t.Fatalf("legacy knight move not recorded: %v", got.Moves)
	}

	_, b, err := m.Board(ctx, mt.ID)
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	d2, _ := rules.ParseSquare("d2")
	if pc, ok := b.Piece(d2); !ok || pc.Type != rules.Knight {
		t.Fatalf("replayed board d2: %+v ok=%v", pc, ok)
	}
}

func TestReplayCorruptRecord(t *testing.T) {
	mt := &Match{ID: "x", Ruleset: "standard", Moves: []string{"e2e4", "e2e4"}}
	if _, err := Replay(mt); err == nil {
		t.Fatal("replaying an impossible record should fail")
	}
}
