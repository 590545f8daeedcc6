package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"
)

func decodeBase64PNG(t *testing.T, s string) image.Image {
	t.Helper()
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	return img
}

func rgb8(c color.Color) (uint8, uint8, uint8) {
	r, g, b, _ := c.RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestEncodePNG(t *testing.T) {
	res, err := EncodePNG(solidImage(30, 20, color.White))
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	if res.Width != 30 || res.Height != 20 {
		t.Errorf("dimensions: got %dx%d, want 30x20", res.Width, res.Height)
	}
	if res.MimeType != "image/png" {
		t.Errorf("mime type: got %s", res.MimeType)
	}
	img := decodeBase64PNG(t, res.ImageBase64)
	if img.Bounds().Dx() != 30 {
		t.Errorf("decoded width: got %d, want 30", img.Bounds().Dx())
	}
}

func TestMaskThumbnail(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 200, 100))
	// A solid road block filling the region of interest.
	for y := 20; y < 60; y++ {
		for x := 40; x < 120; x++ {
			mask.SetGray(x, y, color.Gray{RoadPixel})
		}
	}

	s, err := MaskThumbnail(mask, image.Rect(40, 20, 120, 60), DefaultThumbnailSize)
	if err != nil {
		t.Fatalf("MaskThumbnail failed: %v", err)
	}
	img := decodeBase64PNG(t, s)

	if img.Bounds().Dx() != DefaultThumbnailSize || img.Bounds().Dy() != DefaultThumbnailSize {
		t.Fatalf("size: got %v", img.Bounds())
	}
	// Canvas corner is white background.
	if r, g, b := rgb8(img.At(0, 0)); r != 255 || g != 255 || b != 255 {
		t.Errorf("corner: got (%d,%d,%d), want white", r, g, b)
	}
	// Center is road, drawn black.
	if r, g, b := rgb8(img.At(60, 60)); r != 0 || g != 0 || b != 0 {
		t.Errorf("center: got (%d,%d,%d), want black", r, g, b)
	}
}

func TestMaskThumbnail_OutsideBounds(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 50, 50))
	if _, err := MaskThumbnail(mask, image.Rect(100, 100, 150, 150), 64); err == nil {
		t.Error("expected error for region outside mask")
	}
}

func TestContextThumbnail(t *testing.T) {
	img := solidImage(200, 100, color.RGBA{10, 20, 200, 255})

	s, err := ContextThumbnail(img, image.Rect(50, 10, 150, 90), DefaultThumbnailSize)
	if err != nil {
		t.Fatalf("ContextThumbnail failed: %v", err)
	}
	thumb := decodeBase64PNG(t, s)

	// Backdrop in the corner.
	if r, g, b := rgb8(thumb.At(0, 0)); r != 0xf5 || g != 0xf5 || b != 0xf5 {
		t.Errorf("backdrop: got (%d,%d,%d), want #f5f5f5", r, g, b)
	}
	// Original pixels in the middle.
	if r, g, b := rgb8(thumb.At(60, 60)); absDiff(r, 10) > 1 || absDiff(g, 20) > 1 || absDiff(b, 200) > 1 {
		t.Errorf("center: got (%d,%d,%d), want (10,20,200)", r, g, b)
	}

	// Walking down the middle column, the first non-backdrop pixel is the
	// highlight border.
	for y := 0; y < 60; y++ {
		r, g, b := rgb8(thumb.At(60, y))
		if r == 0xf5 && g == 0xf5 && b == 0xf5 {
			continue
		}
		if r != 0x4c || g != 0xaf || b != 0x50 {
			t.Errorf("first pixel below backdrop at y=%d: got (%d,%d,%d), want #4caf50", y, r, g, b)
		}
		return
	}
	t.Error("no border found above the thumbnail center")
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestRenderThumbnails_OffsetImage(t *testing.T) {
	base := solidImage(100, 100, color.White)
	sub := base.SubImage(image.Rect(20, 20, 100, 100))
	mask := image.NewGray(image.Rect(0, 0, 80, 80))

	th, err := RenderThumbnails(sub, mask, image.Rect(0, 0, 40, 40), 48)
	if err != nil {
		t.Fatalf("RenderThumbnails failed: %v", err)
	}
	if th.Shape == "" || th.Context == "" {
		t.Error("expected both thumbnails to be rendered")
	}
}

func TestFitInto(t *testing.T) {
	src := solidImage(200, 50, color.White)
	scaled, offset := fitInto(src, 120, imaging.NearestNeighbor)

	// min(120/200, 120/50) * 0.85 = 0.51, give or take float rounding.
	w, h := scaled.Bounds().Dx(), scaled.Bounds().Dy()
	if w < 101 || w > 102 || h < 25 || h > 26 {
		t.Errorf("scaled size: got %dx%d, want about 102x25", w, h)
	}
	if offset != image.Pt((120-w)/2, (120-h)/2) {
		t.Errorf("offset %v does not center %dx%d", offset, w, h)
	}

	// Tiny sources never scale to zero.
	scaled, _ = fitInto(solidImage(1, 400, color.White), 10, imaging.NearestNeighbor)
	if scaled.Bounds().Dx() < 1 {
		t.Errorf("scaled width: got %d, want >= 1", scaled.Bounds().Dx())
	}
}
