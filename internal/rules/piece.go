package rules

// Color identifies a side.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// DisplayName returns the capitalized human-facing name.
func (c Color) DisplayName() string {
	if c == White {
		return "White"
	}
	return "Black"
}

// PieceType enumerates the six piece kinds. The set is closed; move
// generation dispatches over it exhaustively.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (t PieceType) String() string {
	switch t {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "unknown"
}

// Piece is a plain value stored in board occupancy. Color never changes
// after construction; Moved flips false->true the first time the piece
// moves and never reverts.
type Piece struct {
	Type  PieceType
	Color Color
	Moved bool
}

var glyphs = [...]byte{Pawn: 'P', Knight: 'N', Bishop: 'B', Rook: 'R', Queen: 'Q', King: 'K'}

// Glyph returns the single-character display form: uppercase for White,
// lowercase for Black.
func (p Piece) Glyph() byte {
	g := glyphs[p.Type]
	if p.Color == Black {
		g += 'a' - 'A'
	}
	return g
}
