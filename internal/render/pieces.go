package render

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/karowl/chessd/internal/rules"
)

//go:embed assets/pieces/*.svg
var pieceFiles embed.FS

type pieceKey struct {
	glyph byte
	size  int
}

// Rasterized pieces are cached per glyph and size; the SVG parse and
// scanline pass dominate render time otherwise.
var (
	pieceCache   = map[pieceKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceImage(pc rules.Piece, size int) (image.Image, error) {
	key := pieceKey{glyph: pc.Glyph(), size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	name := pieceAssetName(pc)
	data, err := pieceFiles.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read piece asset %s: %w", name, err)
	}

	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg %s: %w", name, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}

func pieceAssetName(pc rules.Piece) string {
	prefix := byte('w')
	if pc.Color == rules.Black {
		prefix = 'b'
	}
	var letter byte
	switch pc.Type {
	case rules.King:
		letter = 'K'
	case rules.Queen:
		letter = 'Q'
	case rules.Rook:
		letter = 'R'
	case rules.Bishop:
		letter = 'B'
	case rules.Knight:
		letter = 'N'
	default:
		letter = 'P'
	}
	return fmt.Sprintf("assets/pieces/%c%c.svg", prefix, letter)
}
