package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestAnnotate(t *testing.T) {
	img := solidImage(200, 150, color.White)

	res, err := Annotate(img, []Annotation{
		{Rect: image.Rect(40, 50, 120, 130), Label: "shape_0", ColorHex: HighConfidenceHex},
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if res.Width != 200 || res.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", res.Width, res.Height)
	}

	out := decodeBase64PNG(t, res.ImageBase64)

	// Box edges are stroked.
	for _, p := range []image.Point{{40, 90}, {41, 90}, {119, 90}, {80, 129}} {
		if r, g, b := rgb8(out.At(p.X, p.Y)); r != 0x4c || g != 0xaf || b != 0x50 {
			t.Errorf("edge %v: got (%d,%d,%d), want #4caf50", p, r, g, b)
		}
	}
	// Interior is untouched.
	if r, g, b := rgb8(out.At(80, 90)); r != 255 || g != 255 || b != 255 {
		t.Errorf("interior: got (%d,%d,%d), want white", r, g, b)
	}
	// Label band sits above the box.
	if r, g, b := rgb8(out.At(41, 40)); r == 255 && g == 255 && b == 255 {
		t.Error("expected label background above the box")
	}
}

func TestAnnotate_LabelAtTopEdge(t *testing.T) {
	img := solidImage(100, 100, color.White)

	res, err := Annotate(img, []Annotation{
		{Rect: image.Rect(10, 0, 90, 60), Label: "top", ColorHex: MediumConfidenceHex},
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	out := decodeBase64PNG(t, res.ImageBase64)

	// No room above, so the band is drawn inside the box.
	if r, g, b := rgb8(out.At(11, 8)); r == 255 && g == 255 && b == 255 {
		t.Error("expected label background inside the box")
	}
}

func TestAnnotate_InvalidColor(t *testing.T) {
	img := solidImage(60, 60, color.White)

	res, err := Annotate(img, []Annotation{
		{Rect: image.Rect(10, 10, 50, 50), ColorHex: "not-a-color"},
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	out := decodeBase64PNG(t, res.ImageBase64)

	if r, g, b := rgb8(out.At(10, 30)); r != 0x66 || g != 0x66 || b != 0x66 {
		t.Errorf("fallback stroke: got (%d,%d,%d), want #666666", r, g, b)
	}
}

func TestAnnotate_OffsetImage(t *testing.T) {
	base := solidImage(100, 100, color.White)
	sub := base.SubImage(image.Rect(20, 20, 100, 100))

	res, err := Annotate(sub, []Annotation{
		{Rect: image.Rect(30, 30, 60, 60), ColorHex: HighConfidenceHex},
	})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	out := decodeBase64PNG(t, res.ImageBase64)

	if out.Bounds().Dx() != 80 {
		t.Fatalf("width: got %d, want 80", out.Bounds().Dx())
	}
	// Source (30,45) lands at output (10,25).
	if r, g, b := rgb8(out.At(10, 25)); r != 0x4c || g != 0xaf || b != 0x50 {
		t.Errorf("offset edge: got (%d,%d,%d), want #4caf50", r, g, b)
	}
}

func TestAnnotate_Empty(t *testing.T) {
	res, err := Annotate(solidImage(10, 10, color.White), nil)
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if res.Width != 10 {
		t.Errorf("width: got %d, want 10", res.Width)
	}
}
