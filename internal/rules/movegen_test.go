package rules

import "testing"

func sq(t *testing.T, s string) Square {
	t.Helper()
	out, err := ParseSquare(s)
	if err != nil {
		t.Fatalf("parse square %q: %v", s, err)
	}
	return out
}

func mustMove(t *testing.T, b *Board, from, to string) {
	t.Helper()
	if !b.ApplyMove(sq(t, from), sq(t, to)) {
		t.Fatalf("move %s %s rejected on %s", from, to, b)
	}
}

func wantMoves(t *testing.T, b *Board, from string, want ...string) {
	t.Helper()
	got := b.MovesFrom(sq(t, from))
	if got.Len() != len(want) {
		t.Fatalf("moves from %s: got %v, want %v", from, got.Sorted(), want)
	}
	for _, w := range want {
		if !got.Has(sq(t, w)) {
			t.Fatalf("moves from %s: missing %s in %v", from, w, got.Sorted())
		}
	}
}

func TestPawnInitialMoves(t *testing.T) {
	b := NewBoard()
	wantMoves(t, b, "e2", "e3", "e4")
}

func TestPawnSingleStepAfterMoving(t *testing.T) {
	b := NewBoard()
	mustMove(t, b, "e2", "e3")
	mustMove(t, b, "a7", "a6")
	wantMoves(t, b, "e3", "e4")
}

func TestPawnBlocked(t *testing.T) {
	b := NewBoard()
	if err := b.Put(sq(t, "e3"), Piece{Type: Knight, Color: Black}); err != nil {
		t.Fatal(err)
	}
	wantMoves(t, b, "e2")
}

func TestPawnCaptures(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "e4"), Piece{Type: Pawn, Color: White, Moved: true})
	b.Put(sq(t, "d5"), Piece{Type: Pawn, Color: Black, Moved: true})
	b.Put(sq(t, "f5"), Piece{Type: Knight, Color: Black})
	wantMoves(t, b, "e4", "d5", "e5", "f5")
}

func TestPawnCannotCaptureOwnPiece(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "e4"), Piece{Type: Pawn, Color: White, Moved: true})
	b.Put(sq(t, "d5"), Piece{Type: Pawn, Color: White, Moved: true})
	wantMoves(t, b, "e4", "e5")
}

func TestKnightMovesRespectOccupancy(t *testing.T) {
	b := NewBoard()
	// d2 holds a white pawn, so only the two forward jumps remain.
	wantMoves(t, b, "b1", "a3", "c3")
}

func TestKnightJumpsOverPieces(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "d4"), Piece{Type: Knight, Color: White})
	for _, s := range []string{"c3", "c4", "c5", "d3", "d5", "e3", "e4", "e5"} {
		b.Put(sq(t, s), Piece{Type: Pawn, Color: Black, Moved: true})
	}
	wantMoves(t, b, "d4", "b3", "b5", "c2", "c6", "e2", "e6", "f3", "f5")
}

func TestBishopBlockedOnFreshBoard(t *testing.T) {
	b := NewBoard()
	wantMoves(t, b, "c1")
}

func TestBishopRays(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "d4"), Piece{Type: Bishop, Color: White})
	b.Put(sq(t, "f6"), Piece{Type: Pawn, Color: Black, Moved: true})
	b.Put(sq(t, "b2"), Piece{Type: Pawn, Color: White, Moved: true})
	wantMoves(t, b, "d4",
		"c5", "b6", "a7", // up-left
		"e5", "f6", // up-right, capture ends ray
		"c3", // down-left, own pawn ends ray before b2
		"e3", "f2", "g1") // down-right
}

func TestRookRaysOpenBoard(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "d4"), Piece{Type: Rook, Color: White})
	if got := b.MovesFrom(sq(t, "d4")).Len(); got != 14 {
		t.Fatalf("open rook moves: got %d, want 14", got)
	}
}

func TestRookBlockedAndCapture(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "a1"), Piece{Type: Rook, Color: White})
	b.Put(sq(t, "a3"), Piece{Type: Pawn, Color: White, Moved: true})
	b.Put(sq(t, "c1"), Piece{Type: Knight, Color: Black})
	wantMoves(t, b, "a1", "a2", "b1", "c1")
}

func TestQueenCombinesRookAndBishop(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "d4"), Piece{Type: Queen, Color: White})
	if got := b.MovesFrom(sq(t, "d4")).Len(); got != 27 {
		t.Fatalf("open queen moves: got %d, want 27", got)
	}
}

func TestKingMoves(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "e1"), Piece{Type: King, Color: White})
	wantMoves(t, b, "e1", "d1", "d2", "e2", "f1", "f2")

	b.Put(sq(t, "e2"), Piece{Type: Pawn, Color: White})
	wantMoves(t, b, "e1", "d1", "d2", "f1", "f2")
}

func TestMovesFromEmptySquare(t *testing.T) {
	b := NewBoard()
	if got := b.MovesFrom(sq(t, "e4")).Len(); got != 0 {
		t.Fatalf("moves from empty square: got %d, want 0", got)
	}
}

func TestEnPassantWindowOpensForOneReply(t *testing.T) {
	b := NewBoard()
	mustMove(t, b, "e2", "e4")
	mustMove(t, b, "a7", "a6")
	mustMove(t, b, "e4", "e5")
	mustMove(t, b, "d7", "d5")

	if !b.EnPassantEligible() {
		t.Fatal("en passant window should be open after the double advance")
	}
	if !b.MovesFrom(sq(t, "e5")).Has(sq(t, "d6")) {
		t.Fatalf("e5 pawn should see d6 en passant, got %v", b.MovesFrom(sq(t, "e5")).Sorted())
	}

	mustMove(t, b, "e5", "d6")
	if _, ok := b.Piece(sq(t, "d5")); ok {
		t.Fatal("captured pawn should be gone from d5")
	}
	pc, ok := b.Piece(sq(t, "d6"))
	if !ok || pc.Type != Pawn || pc.Color != White {
		t.Fatalf("white pawn should stand on d6, got %+v ok=%v", pc, ok)
	}
}

func TestEnPassantWindowExpires(t *testing.T) {
	b := NewBoard()
	mustMove(t, b, "e2", "e4")
	mustMove(t, b, "a7", "a6")
	mustMove(t, b, "e4", "e5")
	mustMove(t, b, "d7", "d5")
	mustMove(t, b, "h2", "h3")
	mustMove(t, b, "a6", "a5")

	if b.EnPassantEligible() {
		t.Fatal("window should have closed after the intervening reply")
	}
	if b.MovesFrom(sq(t, "e5")).Has(sq(t, "d6")) {
		t.Fatal("stale en passant capture should not be generated")
	}
}

func TestLegalMovesFilterSelfCheck(t *testing.T) {
	b := NewEmptyBoard(Standard())
	b.Put(sq(t, "e1"), Piece{Type: King, Color: White})
	b.Put(sq(t, "e4"), Piece{Type: Rook, Color: White, Moved: true})
	b.Put(sq(t, "e8"), Piece{Type: Rook, Color: Black, Moved: true})
	b.Put(sq(t, "a8"), Piece{Type: King, Color: Black})

	// The pinned rook may slide along the e-file but never leave it.
	legal := b.LegalMovesFrom(sq(t, "e4"))
	for _, to := range legal.Sorted() {
		if to.File != 'e' {
			t.Fatalf("pinned rook escaped the file: %s", to)
		}
	}
	if legal.Len() == 0 {
		t.Fatal("pinned rook should still slide along the pin line")
	}
}
