package texture

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"lodterrain/internal/terrain"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Legend renders a key of band colours and names next to img and returns the combined image.
func Legend(img image.Image, bands terrain.Bands, fontPixels int) (*image.RGBA, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(fontPixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	metrics := face.Metrics()
	lineH := (metrics.Ascent + metrics.Descent).Ceil() + 4
	swatch := lineH - 4
	padding := 8

	textW := 0
	for _, b := range bands {
		label := fmt.Sprintf("%s <= %.2f", b.Name, b.Height)
		if w := font.MeasureString(face, label).Ceil(); w > textW {
			textW = w
		}
	}

	src := img.Bounds()
	panelW := padding*3 + swatch + textW
	height := max(src.Dy(), padding*2+lineH*len(bands))
	dst := image.NewRGBA(image.Rect(0, 0, src.Dx()+panelW, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.RGBA{0x20, 0x20, 0x20, 0xff}), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(0, 0, src.Dx(), src.Dy()), img, src.Min, draw.Src)

	d := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	x0 := src.Dx() + padding
	for i, b := range bands {
		top := padding + i*lineH
		draw.Draw(dst, image.Rect(x0, top, x0+swatch, top+swatch), image.NewUniform(b.Color), image.Point{}, draw.Src)
		d.Dot = fixed.P(x0+swatch+padding, top+metrics.Ascent.Ceil())
		d.DrawString(fmt.Sprintf("%s <= %.2f", b.Name, b.Height))
	}
	return dst, nil
}
