package arena

import (
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
)

var (
	previewBackground = color.RGBA{12, 12, 28, 255}
	previewGrid       = color.RGBA{30, 30, 45, 255}
	previewSpawn      = color.RGBA{80, 200, 120, 255}
)

// obstacleShade brightens taller boxes so sightline blockers stand out.
func obstacleShade(height float64) color.RGBA {
	v := 90 + height*15
	if v > 230 {
		v = 230
	}
	c := uint8(v)
	return color.RGBA{c, c, uint8(math.Min(255, v+20)), 255}
}

// Preview renders a top-down view of the map, px pixels square. North (-Z)
// is at the top.
func (a *Arena) Preview(px int) image.Image {
	return a.draw(px).Image()
}

// WritePreviewPNG encodes Preview as PNG.
func (a *Arena) WritePreviewPNG(w io.Writer, px int) error {
	return a.draw(px).EncodePNG(w)
}

func (a *Arena) draw(px int) *gg.Context {
	size := float64(px)
	scale := size / (2 * a.half)
	toPx := func(x, z float64) (float64, float64) {
		return (x + a.half) * scale, (z + a.half) * scale
	}

	dc := gg.NewContext(px, px)
	dc.SetColor(previewBackground)
	dc.DrawRectangle(0, 0, size, size)
	dc.Fill()

	// Broad-phase cells
	dc.SetColor(previewGrid)
	dc.SetLineWidth(1)
	for d := gridCell; d < 2*a.half; d += gridCell {
		p := d * scale
		dc.DrawLine(p, 0, p, size)
		dc.Stroke()
		dc.DrawLine(0, p, size, p)
		dc.Stroke()
	}

	for _, o := range a.obstacles {
		x0, z0 := toPx(o.Box.Min.X, o.Box.Min.Z)
		x1, z1 := toPx(o.Box.Max.X, o.Box.Max.Z)
		dc.SetColor(obstacleShade(o.Box.Max.Y - o.Box.Min.Y))
		dc.DrawRectangle(x0, z0, x1-x0, z1-z0)
		dc.Fill()
	}

	// Spawns with their facing
	r := math.Max(2, 1.5*scale)
	dc.SetColor(previewSpawn)
	dc.SetLineWidth(math.Max(1, scale/2))
	for _, sp := range a.spawns {
		x, z := toPx(sp.Position.X, sp.Position.Z)
		dc.DrawCircle(x, z, r)
		dc.Fill()
		dc.DrawLine(x, z, x-math.Sin(sp.Yaw)*3*r, z-math.Cos(sp.Yaw)*3*r)
		dc.Stroke()
	}

	return dc
}
