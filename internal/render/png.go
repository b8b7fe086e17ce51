package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/karowl/chessd/internal/rules"
)

var (
	lightSquare   = color.RGBA{R: 0xf0, G: 0xd9, B: 0xb5, A: 0xff}
	darkSquare    = color.RGBA{R: 0xb5, G: 0x88, B: 0x63, A: 0xff}
	marginFill    = color.RGBA{R: 0x2e, G: 0x2a, B: 0x24, A: 0xff}
	coordInk      = color.RGBA{R: 0xd8, G: 0xd0, B: 0xc0, A: 0xff}
	highlightFill = color.RGBA{R: 0xf5, G: 0xe6, B: 0x42, A: 0x66}
)

// PNGOptions tweaks a single render.
type PNGOptions struct {
	// Highlight marks squares, typically the last move's origin and
	// destination.
	Highlight []rules.Square
}

// PNGRenderer rasterizes boards at a fixed output size.
type PNGRenderer struct {
	square int
	margin int
}

// NewPNGRenderer builds a renderer whose output is roughly size pixels
// wide. Sizes below 160 are raised to keep pieces legible.
func NewPNGRenderer(size int) *PNGRenderer {
	if size < 160 {
		size = 160
	}
	square := size / 9
	return &PNGRenderer{square: square, margin: square / 2}
}

// Render draws the position and returns encoded PNG bytes.
func (r *PNGRenderer) Render(ctx context.Context, b *rules.Board, opts PNGOptions) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("render: nil board")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	boardSize := r.square * 8
	total := boardSize + r.margin*2
	img := image.NewRGBA(image.Rect(0, 0, total, total))
	draw.Draw(img, img.Bounds(), image.NewUniform(marginFill), image.Point{}, draw.Src)

	origin := image.Point{X: r.margin, Y: r.margin}
	r.drawSquares(img, origin)
	r.drawHighlights(img, origin, opts.Highlight)
	if err := r.drawPieces(img, origin, b); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, origin, total)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode board png: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PNGRenderer) squareRect(origin image.Point, sq rules.Square) image.Rectangle {
	col := int(sq.File - 'a')
	row := 8 - sq.Rank
	x := origin.X + col*r.square
	y := origin.Y + row*r.square
	return image.Rect(x, y, x+r.square, y+r.square)
}

func (r *PNGRenderer) drawSquares(img *image.RGBA, origin image.Point) {
	for f := byte('a'); f <= 'h'; f++ {
		for rank := 1; rank <= 8; rank++ {
			fill := lightSquare
			if (int(f-'a')+rank)%2 == 0 {
				fill = darkSquare
			}
			draw.Draw(img, r.squareRect(origin, rules.Sq(f, rank)), image.NewUniform(fill), image.Point{}, draw.Src)
		}
	}
}

func (r *PNGRenderer) drawHighlights(img *image.RGBA, origin image.Point, squares []rules.Square) {
	for _, sq := range squares {
		if !sq.Valid() {
			continue
		}
		draw.Draw(img, r.squareRect(origin, sq), image.NewUniform(highlightFill), image.Point{}, draw.Over)
	}
}

func (r *PNGRenderer) drawPieces(img *image.RGBA, origin image.Point, b *rules.Board) error {
	for sq, pc := range b.Snapshot() {
		sprite, err := pieceImage(pc, r.square)
		if err != nil {
			return err
		}
		draw.Draw(img, r.squareRect(origin, sq), sprite, image.Point{}, draw.Over)
	}
	return nil
}

func (r *PNGRenderer) drawCoordinates(img *image.RGBA, origin image.Point, total int) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(coordInk),
		Face: face,
	}

	for i := 0; i < 8; i++ {
		fileLabel := string(rune('a' + i))
		cx := origin.X + i*r.square + r.square/2 - face.Advance/2
		drawer.Dot = fixed.P(cx, total-r.margin/2+face.Height/2-2)
		drawer.DrawString(fileLabel)

		rankLabel := string(rune('8' - i))
		cy := origin.Y + i*r.square + r.square/2 + face.Height/2 - 2
		drawer.Dot = fixed.P(r.margin/2-face.Advance/2, cy)
		drawer.DrawString(rankLabel)
	}
}
