package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSquare is returned by setup helpers for off-board squares.
	ErrInvalidSquare = errors.New("rules: square off the board")
)

type castlingRights struct {
	whiteKingSide  bool
	whiteQueenSide bool
	blackKingSide  bool
	blackQueenSide bool
}

// Board holds the full game state: piece occupancy, the side to move,
// castling rights, and the one-move en passant window. The zero value is
// not usable; construct with NewBoard or NewBoardWith.
type Board struct {
	pieces    map[Square]Piece
	turn      Color
	lastMove  Square
	enPassant bool
	rights    castlingRights
	rules     Ruleset
}

// NewBoard returns a board in the initial position under the standard
// ruleset, White to move.
func NewBoard() *Board {
	return NewBoardWith(Standard())
}

// NewBoardWith returns a board in the initial position under rs.
func NewBoardWith(rs Ruleset) *Board {
	b := NewEmptyBoard(rs)
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for i, t := range back {
		f := byte('a' + i)
		b.pieces[Sq(f, 1)] = Piece{Type: t, Color: White}
		b.pieces[Sq(f, 2)] = Piece{Type: Pawn, Color: White}
		b.pieces[Sq(f, 7)] = Piece{Type: Pawn, Color: Black}
		b.pieces[Sq(f, 8)] = Piece{Type: t, Color: Black}
	}
	return b
}

// NewEmptyBoard returns a board with no pieces, White to move, all
// castling rights set. Intended for custom setups via Put and SetTurn.
func NewEmptyBoard(rs Ruleset) *Board {
	return &Board{
		pieces:   make(map[Square]Piece, 32),
		turn:     White,
		lastMove: Sq('a', 1),
		rights: castlingRights{
			whiteKingSide:  true,
			whiteQueenSide: true,
			blackKingSide:  true,
			blackQueenSide: true,
		},
		rules: rs,
	}
}

// Rules reports the ruleset the board was constructed with.
func (b *Board) Rules() Ruleset { return b.rules }

// Turn reports the side to move.
func (b *Board) Turn() Color { return b.turn }

// TurnDisplayName is the capitalized name of the side to move, for
// user-facing text.
func (b *Board) TurnDisplayName() string { return b.turn.DisplayName() }

// SetTurn overrides the side to move. Setup helper.
func (b *Board) SetTurn(c Color) { b.turn = c }

// LastMove is the destination square of the most recent successful move.
func (b *Board) LastMove() Square { return b.lastMove }

// EnPassantEligible reports whether an en passant capture window is open.
func (b *Board) EnPassantEligible() bool { return b.enPassant }

// Piece returns the piece on sq, if any.
func (b *Board) Piece(sq Square) (Piece, bool) {
	pc, ok := b.pieces[sq]
	return pc, ok
}

// Put places pc on sq, replacing any occupant. Setup helper.
func (b *Board) Put(sq Square, pc Piece) error {
	if !sq.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidSquare, sq)
	}
	b.pieces[sq] = pc
	return nil
}

// Remove clears sq. Setup helper.
func (b *Board) Remove(sq Square) {
	delete(b.pieces, sq)
}

// CanCastleKingSide reports whether color's king-side castling right is
// still intact. It says nothing about whether castling is possible right
// now; ApplyMove checks the geometry.
func (b *Board) CanCastleKingSide(c Color) bool {
	if c == White {
		return b.rights.whiteKingSide
	}
	return b.rights.blackKingSide
}

// CanCastleQueenSide reports whether color's queen-side castling right is
// still intact.
func (b *Board) CanCastleQueenSide(c Color) bool {
	if c == White {
		return b.rights.whiteQueenSide
	}
	return b.rights.blackQueenSide
}

func (b *Board) clearCastlingRights(c Color) {
	if c == White {
		b.rights.whiteKingSide = false
		b.rights.whiteQueenSide = false
	} else {
		b.rights.blackKingSide = false
		b.rights.blackQueenSide = false
	}
}

func (b *Board) occupied(sq Square) bool {
	_, ok := b.pieces[sq]
	return ok
}

func homeRank(c Color) int {
	if c == White {
		return 1
	}
	return 8
}

// ApplyMove attempts the move from->to for the side whose piece stands on
// from. On success the board advances: occupancy updated, castling rights
// decayed, the en passant window opened or closed, last-move recorded and
// the turn passed. On failure the board is untouched and false is
// returned.
func (b *Board) ApplyMove(from, to Square) bool {
	pc, ok := b.pieces[from]
	if !ok {
		return false
	}
	if !b.rules.IgnoreTurnOrder && pc.Color != b.turn {
		return false
	}

	if pc.Type == King {
		if handled, done := b.tryCastle(from, to, pc); handled {
			return done
		}
	}

	if !b.pseudoMoves(from, pc).Has(to) {
		return false
	}

	enPassantCapture := false
	nextEnPassant := false
	if pc.Type == Pawn {
		enPassantCapture = b.enPassant && b.lastMove == Sq(to.File, from.Rank) && to.File != from.File
		d := to.Rank - from.Rank
		nextEnPassant = d == 2 || d == -2
	}

	if !b.rules.AllowSelfCheck && b.moveExposesKing(from, to, pc.Color) {
		return false
	}

	if enPassantCapture {
		delete(b.pieces, Sq(to.File, from.Rank))
	}

	captured, hadCapture := b.pieces[to]
	pc.Moved = true
	b.pieces[to] = pc
	delete(b.pieces, from)

	b.decayCastlingRights(pc, from, captured, hadCapture, to)

	b.lastMove = to
	if b.rules.LegacyEnPassant {
		b.enPassant = false
	} else {
		b.enPassant = nextEnPassant
	}
	b.turn = b.turn.Other()
	return true
}

// tryCastle recognizes to as a castling destination for the king on from
// and executes the whole maneuver. handled reports whether the move was
// claimed as a castling attempt at all; when it is false the caller falls
// through to ordinary king movement (a king stepping f1->g1 is not a
// castle).
func (b *Board) tryCastle(from, to Square, pc Piece) (handled, done bool) {
	kingSide := to == Sq('g', from.Rank) && b.CanCastleKingSide(pc.Color)
	queenSide := to == Sq('c', from.Rank) && b.CanCastleQueenSide(pc.Color)
	if !kingSide && !queenSide {
		return false, false
	}

	rookFrom := Sq('a', from.Rank)
	if kingSide {
		rookFrom = Sq('h', from.Rank)
	}
	rook, ok := b.pieces[rookFrom]
	if !ok || rook.Type != Rook || rook.Color != pc.Color {
		return true, false
	}

	if !b.rules.UncheckedCastling {
		home := homeRank(pc.Color)
		if from != Sq('e', home) {
			return true, false
		}
		between := []Square{Sq('f', home), Sq('g', home)}
		transit := []Square{Sq('f', home), Sq('g', home)}
		if queenSide {
			between = []Square{Sq('b', home), Sq('c', home), Sq('d', home)}
			transit = []Square{Sq('d', home), Sq('c', home)}
		}
		for _, sq := range between {
			if b.occupied(sq) {
				return true, false
			}
		}
		if b.InCheck(pc.Color) {
			return true, false
		}
		for _, sq := range transit {
			if b.moveExposesKing(from, sq, pc.Color) {
				return true, false
			}
		}
	}

	kingTo := Sq('g', from.Rank)
	rookTo := Sq('f', from.Rank)
	if queenSide {
		kingTo = Sq('c', from.Rank)
		rookTo = Sq('d', from.Rank)
	}
	if b.rules.UncheckedCastling {
		// Legacy geometry: the king lands short of the usual square and
		// the rook takes the e-file.
		kingTo = Sq('f', from.Rank)
		rookTo = Sq('e', from.Rank)
		if queenSide {
			kingTo = Sq('d', from.Rank)
		}
	}

	delete(b.pieces, from)
	delete(b.pieces, rookFrom)
	pc.Moved = true
	rook.Moved = true
	b.pieces[kingTo] = pc
	b.pieces[rookTo] = rook

	b.clearCastlingRights(pc.Color)
	b.lastMove = to
	b.enPassant = false
	b.turn = b.turn.Other()
	return true, true
}

// decayCastlingRights clears rights following a successful non-castling
// move: a king move clears both of its color's flags; under the standard
// ruleset a rook leaving, or being captured on, its home corner clears
// the matching flag. The legacy ruleset decays on king moves only.
func (b *Board) decayCastlingRights(moved Piece, from Square, captured Piece, hadCapture bool, to Square) {
	if moved.Type == King {
		b.clearCastlingRights(moved.Color)
	}
	if b.rules.KingOnlyCastlingRights {
		return
	}
	if moved.Type == Rook {
		b.clearCornerRight(moved.Color, from)
	}
	if hadCapture && captured.Type == Rook {
		b.clearCornerRight(captured.Color, to)
	}
}

func (b *Board) clearCornerRight(c Color, corner Square) {
	if corner.Rank != homeRank(c) {
		return
	}
	switch {
	case corner.File == 'h' && c == White:
		b.rights.whiteKingSide = false
	case corner.File == 'a' && c == White:
		b.rights.whiteQueenSide = false
	case corner.File == 'h' && c == Black:
		b.rights.blackKingSide = false
	case corner.File == 'a' && c == Black:
		b.rights.blackQueenSide = false
	}
}

// moveExposesKing relocates the piece on from to to, asks whether color's
// king is attacked in the resulting position, then restores occupancy
// exactly, including any occupant of to. Captures are never resolved here
// and Moved flags are never touched, so the board observable state is
// bit-identical afterwards.
func (b *Board) moveExposesKing(from, to Square, color Color) bool {
	pc, ok := b.pieces[from]
	if !ok {
		return false
	}
	captured, hadCaptured := b.pieces[to]
	b.pieces[to] = pc
	delete(b.pieces, from)

	exposed := b.InCheck(color)

	b.pieces[from] = pc
	if hadCaptured {
		b.pieces[to] = captured
	} else {
		delete(b.pieces, to)
	}
	return exposed
}

// InCheck reports whether color's king square appears in any enemy
// piece's pseudo-legal destination set. A board with no king of that
// color is never in check.
func (b *Board) InCheck(color Color) bool {
	kingSq, ok := b.findKing(color)
	if !ok {
		return false
	}
	for sq, pc := range b.pieces {
		if pc.Color == color {
			continue
		}
		if b.pseudoMoves(sq, pc).Has(kingSq) {
			return true
		}
	}
	return false
}

// IsCheckmate reports whether color is in check with no move that
// resolves it.
func (b *Board) IsCheckmate(color Color) bool {
	return b.InCheck(color) && !b.hasSafeMove(color)
}

// IsStalemate reports whether color is not in check yet has no move that
// keeps its king safe.
func (b *Board) IsStalemate(color Color) bool {
	return !b.InCheck(color) && !b.hasSafeMove(color)
}

// hasSafeMove scans every piece of color and simulates each pseudo-legal
// destination, looking for one that leaves the king unattacked. The
// square list is snapshotted up front because the simulation mutates and
// restores the occupancy map mid-scan.
func (b *Board) hasSafeMove(color Color) bool {
	var own []Square
	for sq, pc := range b.pieces {
		if pc.Color == color {
			own = append(own, sq)
		}
	}
	for _, sq := range own {
		pc := b.pieces[sq]
		for _, to := range b.pseudoMoves(sq, pc).Sorted() {
			if !b.moveExposesKing(sq, to, color) {
				return true
			}
		}
	}
	return false
}

func (b *Board) findKing(color Color) (Square, bool) {
	for sq, pc := range b.pieces {
		if pc.Type == King && pc.Color == color {
			return sq, true
		}
	}
	return Square{}, false
}

// Snapshot returns a copy of the occupancy map. Mutating it does not
// affect the board.
func (b *Board) Snapshot() map[Square]Piece {
	out := make(map[Square]Piece, len(b.pieces))
	for sq, pc := range b.pieces {
		out[sq] = pc
	}
	return out
}

// Glyphs returns the occupancy as display glyphs keyed by square.
func (b *Board) Glyphs() map[Square]byte {
	out := make(map[Square]byte, len(b.pieces))
	for sq, pc := range b.pieces {
		out[sq] = pc.Glyph()
	}
	return out
}

// String renders the piece placement in FEN-like rank rows plus the side
// to move. Debug aid; the render package owns user-facing output.
func (b *Board) String() string {
	var sb strings.Builder
	for r := 8; r >= 1; r-- {
		empty := 0
		for f := byte('a'); f <= 'h'; f++ {
			pc, ok := b.pieces[Sq(f, r)]
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&sb, "%d", empty)
				empty = 0
			}
			sb.WriteByte(pc.Glyph())
		}
		if empty > 0 {
			fmt.Fprintf(&sb, "%d", empty)
		}
		if r > 1 {
			sb.WriteByte('/')
		}
	}
	if b.turn == White {
		sb.WriteString(" w")
	} else {
		sb.WriteString(" b")
	}
	return sb.String()
}
