package rules

import "testing"

func TestParseRuleset(t *testing.T) {
	for _, name := range []string{"", "standard"} {
		rs, ok := ParseRuleset(name)
		if !ok || rs != Standard() {
			t.Fatalf("ParseRuleset(%q): got %+v ok=%v", name, rs, ok)
		}
	}
	rs, ok := ParseRuleset("legacy")
	if !ok || rs != Legacy() {
		t.Fatalf("ParseRuleset(legacy): got %+v ok=%v", rs, ok)
	}
	if _, ok := ParseRuleset("chess960"); ok {
		t.Fatal("unknown ruleset name must be rejected")
	}
}

func TestLegacyRookIgnoresBlockers(t *testing.T) {
	b := NewBoardWith(Ruleset{UnblockedRookLines: true})
	// On a fresh board the a1 rook sees its whole rank and file, own
	// pieces included.
	moves := b.MovesFrom(sq(t, "a1"))
	if moves.Len() != 14 {
		t.Fatalf("legacy rook moves: got %d, want 14", moves.Len())
	}
	for _, s := range []string{"a2", "a8", "b1", "h1"} {
		if !moves.Has(sq(t, s)) {
			t.Fatalf("legacy rook should see %s", s)
		}
	}
}

func TestLegacyRookDiagonalStillRejected(t *testing.T) {
	b := NewBoardWith(Legacy())
	if b.ApplyMove(sq(t, "a1"), sq(t, "b2")) {
		t.Fatal("legacy rook still may not move diagonally")
	}
}

func TestLegacyKnightLandsOnOwnPiece(t *testing.T) {
	b := NewBoardWith(Ruleset{KnightIgnoresOccupancy: true})
	if !b.MovesFrom(sq(t, "b1")).Has(sq(t, "d2")) {
		t.Fatal("legacy knight should target its own pawn square")
	}
	mustMove(t, b, "b1", "d2")
	pc, _ := b.Piece(sq(t, "d2"))
	if pc.Type != Knight {
		t.Fatalf("d2: got %s, want knight replacing the pawn", pc.Type)
	}
	if got := len(b.Snapshot()); got != 31 {
		t.Fatalf("piece count: got %d, want 31", got)
	}
}

func TestLegacyAllowsSelfCheck(t *testing.T) {
	rs := Ruleset{AllowSelfCheck: true}
	b := NewEmptyBoard(rs)
	b.Put(sq(t, "e1"), Piece{Type: King, Color: White})
	b.Put(sq(t, "e2"), Piece{Type: Rook, Color: White, Moved: true})
	b.Put(sq(t, "e8"), Piece{Type: Rook, Color: Black, Moved: true})
	b.Put(sq(t, "a8"), Piece{Type: King, Color: Black})

	mustMove(t, b, "e2", "a2")
	if !b.InCheck(White) {
		t.Fatal("the exposing move should have gone through")
	}
}

func TestLegacyCastleGeometry(t *testing.T) {
	b := NewBoardWith(Legacy())
	b.Remove(sq(t, "f1"))
	b.Remove(sq(t, "g1"))
	mustMove(t, b, "e1", "g1")

	if king, ok := b.Piece(sq(t, "f1")); !ok || king.Type != King {
		t.Fatalf("f1: got %+v ok=%v, want king on the legacy square", king, ok)
	}
	if rook, ok := b.Piece(sq(t, "e1")); !ok || rook.Type != Rook {
		t.Fatalf("e1: got %+v ok=%v, want rook on the legacy square", rook, ok)
	}
	if _, ok := b.Piece(sq(t, "g1")); ok {
		t.Fatal("the requested destination stays empty under legacy geometry")
	}
	if b.CanCastleKingSide(White) {
		t.Fatal("castling still clears the rights")
	}
}

func TestLegacyCastleSkipsSafetyChecks(t *testing.T) {
	b := NewEmptyBoard(Legacy())
	b.Put(sq(t, "e1"), Piece{Type: King, Color: White})
	b.Put(sq(t, "h1"), Piece{Type: Rook, Color: White})
	b.Put(sq(t, "e8"), Piece{Type: Rook, Color: Black, Moved: true})
	b.Put(sq(t, "a8"), Piece{Type: King, Color: Black})

	// In check and the f-file is covered; legacy castles anyway.
	mustMove(t, b, "e1", "g1")
	if king, ok := b.Piece(sq(t, "f1")); !ok || king.Type != King {
		t.Fatalf("f1: got %+v ok=%v, want king", king, ok)
	}
}

func TestLegacyEnPassantWindowNeverOpens(t *testing.T) {
	b := NewBoardWith(Legacy())
	mustMove(t, b, "e2", "e4")
	if b.EnPassantEligible() {
		t.Fatal("legacy closes the window in the same move that set it")
	}
	mustMove(t, b, "e4", "e5")
	mustMove(t, b, "d7", "d5")
	if b.MovesFrom(sq(t, "e5")).Has(sq(t, "d6")) {
		t.Fatal("legacy en passant capture should never be generated")
	}
}

func TestLegacyKingOnlyRightsDecay(t *testing.T) {
	b := NewBoardWith(Ruleset{KingOnlyCastlingRights: true})
	mustMove(t, b, "h2", "h4")
	mustMove(t, b, "a7", "a6")
	mustMove(t, b, "h1", "h3")
	if !b.CanCastleKingSide(White) {
		t.Fatal("legacy rook moves do not decay rights")
	}

	mustMove(t, b, "e7", "e6")
	mustMove(t, b, "e2", "e3")
	mustMove(t, b, "e8", "e7")
	if b.CanCastleKingSide(Black) || b.CanCastleQueenSide(Black) {
		t.Fatal("king moves decay both rights even in legacy mode")
	}
}

func TestLegacyIgnoresTurnOrder(t *testing.T) {
	b := NewBoardWith(Ruleset{IgnoreTurnOrder: true})
	mustMove(t, b, "e2", "e4")
	// White again, out of turn.
	mustMove(t, b, "d1", "h5")
	if b.Turn() != White {
		t.Fatalf("each accepted move still flips the turn, got %s", b.Turn())
	}
}
