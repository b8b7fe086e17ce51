// Package render turns board state into user-facing output: the classic
// terminal grid and PNG images for the HTTP API.
package render

import (
	"strings"

	"github.com/karowl/chessd/internal/rules"
)

// Text renders the board as the terminal grid: ranks 8 down to 1, file
// letters above and below, rank digits on both sides, dots for empty
// squares. White pieces are uppercase, black lowercase.
func Text(b *rules.Board) string {
	glyphs := b.Glyphs()

	var sb strings.Builder
	writeFileRow := func() {
		sb.WriteString("  ")
		for f := byte('a'); f <= 'h'; f++ {
			sb.WriteByte(' ')
			sb.WriteByte(f)
		}
		sb.WriteByte('\n')
	}

	writeFileRow()
	for r := 8; r >= 1; r-- {
		sb.WriteByte(byte('0' + r))
		sb.WriteByte(' ')
		for f := byte('a'); f <= 'h'; f++ {
			sb.WriteByte(' ')
			if g, ok := glyphs[rules.Sq(f, r)]; ok {
				sb.WriteByte(g)
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString("  ")
		sb.WriteByte(byte('0' + r))
		sb.WriteByte('\n')
	}
	writeFileRow()
	return sb.String()
}
