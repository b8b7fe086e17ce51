package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Square identifies a cell on the 8x8 board by file ('a'..'h') and rank
// (1..8). Squares are plain values and compare structurally, so they serve
// directly as occupancy map keys. Out-of-range squares are constructible
// (move generation walks off the board transiently), but Valid must hold
// before a square is treated as addressable board state.
type Square struct {
	File byte
	Rank int
}

// Sq builds a square from a file letter and a rank number.
func Sq(file byte, rank int) Square {
	return Square{File: file, Rank: rank}
}

// ParseSquare converts coordinate text like "e2" into a Square.
func ParseSquare(s string) (Square, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if len(t) != 2 {
		return Square{}, fmt.Errorf("malformed square %q", s)
	}
	sq := Sq(t[0], int(t[1]-'0'))
	if !sq.Valid() {
		return Square{}, fmt.Errorf("square %q out of range", s)
	}
	return sq, nil
}

// Valid reports whether the square lies on the board.
func (s Square) Valid() bool {
	return s.File >= 'a' && s.File <= 'h' && s.Rank >= 1 && s.Rank <= 8
}

// Less orders squares by file, then rank.
func (s Square) Less(o Square) bool {
	if s.File != o.File {
		return s.File < o.File
	}
	return s.Rank < o.Rank
}

func (s Square) String() string {
	if !s.Valid() {
		return fmt.Sprintf("??(%c%d)", s.File, s.Rank)
	}
	return fmt.Sprintf("%c%d", s.File, s.Rank)
}

// offset returns the square df files and dr ranks away. The result may lie
// off the board.
func (s Square) offset(df, dr int) Square {
	return Square{File: byte(int(s.File) + df), Rank: s.Rank + dr}
}

// SquareSet is a set of squares, used for pseudo-legal move sets.
type SquareSet map[Square]struct{}

func (ss SquareSet) Add(sq Square)      { ss[sq] = struct{}{} }
func (ss SquareSet) Has(sq Square) bool { _, ok := ss[sq]; return ok }
func (ss SquareSet) Len() int           { return len(ss) }

// Sorted returns the members ordered by (file, rank), for deterministic
// iteration and test output.
func (ss SquareSet) Sorted() []Square {
	out := make([]Square, 0, len(ss))
	for sq := range ss {
		out = append(out, sq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
