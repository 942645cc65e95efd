package composite

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/olaizola/maplabel/internal/core/domain"
)

// DrawAnnotation strokes the projected pixel rectangle over the composite,
// for visual verification of the projector output.
func DrawAnnotation(src image.Image, rect domain.PixelRect) image.Image {
	dc := gg.NewContextForImage(src)
	dc.SetRGBA(0.91, 0.26, 0.21, 1)
	dc.SetLineWidth(2)
	dc.DrawRectangle(rect.X1, rect.Y1, rect.X2-rect.X1, rect.Y2-rect.Y1)
	dc.Stroke()
	return dc.Image()
}
