package rules

var knightOffsets = [8][2]int{
	{1, 2}, {2, 1}, {2, -1}, {1, -2},
	{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
}

var diagonalDirs = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
var orthogonalDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// MovesFrom returns the pseudo-legal destination set for the piece standing
// on sq: movement patterns, blocking and capture rules, but no filtering of
// moves that would expose the mover's own king. An empty square yields an
// empty set.
func (b *Board) MovesFrom(sq Square) SquareSet {
	pc, ok := b.pieces[sq]
	if !ok {
		return SquareSet{}
	}
	return b.pseudoMoves(sq, pc)
}

// LegalMovesFrom is MovesFrom narrowed to destinations whose simulated
// application leaves the mover's king safe. Castling destinations are not
// included; castling is driven by ApplyMove.
func (b *Board) LegalMovesFrom(sq Square) SquareSet {
	pc, ok := b.pieces[sq]
	if !ok {
		return SquareSet{}
	}
	out := make(SquareSet)
	for _, to := range b.pseudoMoves(sq, pc).Sorted() {
		if !b.moveExposesKing(sq, to, pc.Color) {
			out.Add(to)
		}
	}
	return out
}

func (b *Board) pseudoMoves(at Square, pc Piece) SquareSet {
	moves := make(SquareSet)
	switch pc.Type {
	case Pawn:
		b.pawnMoves(moves, at, pc)
	case Knight:
		b.knightMoves(moves, at, pc)
	case Bishop:
		b.rayMoves(moves, at, pc, diagonalDirs[:])
	case Rook:
		b.straightMoves(moves, at, pc)
	case Queen:
		b.straightMoves(moves, at, pc)
		b.rayMoves(moves, at, pc, diagonalDirs[:])
	case King:
		b.kingMoves(moves, at, pc)
	}
	return moves
}

func (b *Board) pawnMoves(moves SquareSet, at Square, pc Piece) {
	dir := 1
	if pc.Color == Black {
		dir = -1
	}

	one := at.offset(0, dir)
	if one.Valid() && !b.occupied(one) {
		moves.Add(one)
		if !pc.Moved {
			two := at.offset(0, 2*dir)
			if two.Valid() && !b.occupied(two) {
				moves.Add(two)
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		cap := at.offset(df, dir)
		if !cap.Valid() {
			continue
		}
		if victim, ok := b.pieces[cap]; ok && victim.Color != pc.Color {
			moves.Add(cap)
		}
	}

	b.enPassantMoves(moves, at, pc, dir)
}

// enPassantMoves adds the en passant destination when the previous move was
// an enemy pawn landing directly beside this pawn while the eligibility
// window is open. The legacy ruleset additionally demands both pawns be
// unmoved.
func (b *Board) enPassantMoves(moves SquareSet, at Square, pc Piece, dir int) {
	if !b.enPassant {
		return
	}
	if b.rules.LegacyEnPassant && pc.Moved {
		return
	}
	if b.lastMove != at.offset(-1, 0) && b.lastMove != at.offset(1, 0) {
		return
	}
	victim, ok := b.pieces[b.lastMove]
	if !ok || victim.Type != Pawn || victim.Color == pc.Color {
		return
	}
	if b.rules.LegacyEnPassant && victim.Moved {
		return
	}
	moves.Add(Sq(b.lastMove.File, at.Rank+dir))
}

func (b *Board) knightMoves(moves SquareSet, at Square, pc Piece) {
	for _, d := range knightOffsets {
		to := at.offset(d[0], d[1])
		if !to.Valid() {
			continue
		}
		if !b.rules.KnightIgnoresOccupancy {
			if victim, ok := b.pieces[to]; ok && victim.Color == pc.Color {
				continue
			}
		}
		moves.Add(to)
	}
}

// rayMoves walks each direction outward one step at a time: empty squares
// are destinations, the first enemy piece is a destination and ends the
// ray, and an own piece or the board edge ends the ray without one.
func (b *Board) rayMoves(moves SquareSet, at Square, pc Piece, dirs [][2]int) {
	for _, d := range dirs {
		for to := at.offset(d[0], d[1]); to.Valid(); to = to.offset(d[0], d[1]) {
			victim, ok := b.pieces[to]
			if !ok {
				moves.Add(to)
				continue
			}
			if victim.Color != pc.Color {
				moves.Add(to)
			}
			break
		}
	}
}

func (b *Board) straightMoves(moves SquareSet, at Square, pc Piece) {
	if !b.rules.UnblockedRookLines {
		b.rayMoves(moves, at, pc, orthogonalDirs[:])
		return
	}
	// Legacy generation: the full rank and file minus the piece's own
	// square, with no blocking or capture-color filtering.
	for r := 1; r <= 8; r++ {
		if r != at.Rank {
			moves.Add(Sq(at.File, r))
		}
	}
	for f := byte('a'); f <= 'h'; f++ {
		if f != at.File {
			moves.Add(Sq(f, at.Rank))
		}
	}
}

func (b *Board) kingMoves(moves SquareSet, at Square, pc Piece) {
	for df := -1; df <= 1; df++ {
		for dr := -1; dr <= 1; dr++ {
			if df == 0 && dr == 0 {
				continue
			}
			to := at.offset(df, dr)
			if !to.Valid() {
				continue
			}
			if victim, ok := b.pieces[to]; ok && victim.Color == pc.Color {
				continue
			}
			moves.Add(to)
		}
	}
}
