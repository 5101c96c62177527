package arena

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestPreviewDrawsObstacles(t *testing.T) {
	a := Default(0.4)
	img := a.Preview(200)

	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("Expected 200x200, got %v", b)
	}

	at := func(x, y int) color.RGBA {
		return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	}

	if got := at(2, 2); got != previewBackground {
		t.Errorf("Expected background in the corner, got %v", got)
	}
	// The tower sits at the map center.
	if got, want := at(100, 100), obstacleShade(8); got != want {
		t.Errorf("Expected tower shade %v, got %v", want, got)
	}
}

func TestWritePreviewPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Default(0.4).WritePreviewPNG(&buf, 64); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Errorf("Expected 64px wide, got %d", img.Bounds().Dx())
	}
}

func TestObstacleShadeCaps(t *testing.T) {
	if obstacleShade(100) != obstacleShade(50) {
		t.Error("Expected shade to saturate for tall boxes")
	}
	if obstacleShade(1).R >= obstacleShade(8).R {
		t.Error("Expected taller boxes to be brighter")
	}
}
