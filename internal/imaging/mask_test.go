package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestExtractRoadMask_UniformImage(t *testing.T) {
	for _, c := range []color.Color{color.White, color.Black, color.RGBA{200, 180, 140, 255}} {
		mask := ExtractRoadMask(solidImage(60, 40, c), DefaultMaskOptions())

		if mask.Bounds() != image.Rect(0, 0, 60, 40) {
			t.Fatalf("mask bounds: got %v, want (0,0)-(60,40)", mask.Bounds())
		}
		if cov := RoadCoverage(mask); cov != 0 {
			t.Errorf("uniform %v: coverage %v, want 0", c, cov)
		}
	}
}

func TestExtractRoadMask_DarkStroke(t *testing.T) {
	img := solidImage(120, 120, color.White)
	strokeOutline(img, image.Rect(20, 20, 100, 100), 6, color.Black)

	mask := ExtractRoadMask(img, DefaultMaskOptions())

	// Middle of the left stroke is road.
	if got := mask.GrayAt(22, 60).Y; got != RoadPixel {
		t.Errorf("stroke pixel: got %d, want %d", got, RoadPixel)
	}
	// Center of the enclosed white block is not.
	if got := mask.GrayAt(60, 60).Y; got != 0 {
		t.Errorf("interior pixel: got %d, want 0", got)
	}
	// Far corner is not.
	if got := mask.GrayAt(2, 2).Y; got != 0 {
		t.Errorf("background pixel: got %d, want 0", got)
	}

	cov := RoadCoverage(mask)
	if cov <= 0 || cov >= 0.5 {
		t.Errorf("coverage %v outside (0, 0.5)", cov)
	}
}

func TestExtractRoadMask_Exclude(t *testing.T) {
	img := solidImage(120, 120, color.White)
	strokeOutline(img, image.Rect(20, 20, 100, 100), 6, color.Black)

	opts := DefaultMaskOptions()
	opts.Exclude = []image.Rectangle{image.Rect(0, 0, 60, 120)}
	mask := ExtractRoadMask(img, opts)

	for y := 0; y < 120; y++ {
		for x := 0; x < 60; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				t.Fatalf("excluded pixel (%d,%d) is road", x, y)
			}
		}
	}
	if got := mask.GrayAt(97, 60).Y; got != RoadPixel {
		t.Errorf("right stroke pixel: got %d, want %d", got, RoadPixel)
	}
}

func TestExtractRoadMask_OffsetBounds(t *testing.T) {
	base := solidImage(120, 120, color.White)
	strokeOutline(base, image.Rect(20, 20, 100, 100), 6, color.Black)
	sub := base.SubImage(image.Rect(10, 10, 110, 110))

	mask := ExtractRoadMask(sub, DefaultMaskOptions())
	if mask.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("mask bounds: got %v, want (0,0)-(100,100)", mask.Bounds())
	}
	// Source (22,60) maps to mask (12,50).
	if got := mask.GrayAt(12, 50).Y; got != RoadPixel {
		t.Errorf("shifted stroke pixel: got %d, want %d", got, RoadPixel)
	}
}

func TestExtractRoadMask_Empty(t *testing.T) {
	mask := ExtractRoadMask(image.NewRGBA(image.Rect(0, 0, 0, 0)), DefaultMaskOptions())
	if !mask.Bounds().Empty() {
		t.Errorf("expected empty mask, got %v", mask.Bounds())
	}
	if RoadCoverage(mask) != 0 {
		t.Error("empty mask should have zero coverage")
	}
}

func TestOpenMorph_RemovesSpecks(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 20, 20))
	g.SetGray(10, 10, color.Gray{RoadPixel})

	out := rgbaToMask(openMorph(grayToRGBA(g), 1))
	if RoadCoverage(out) != 0 {
		t.Error("single-pixel speck survived opening")
	}
}

func TestCloseMorph_FillsGaps(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 20, 20))
	for x := 2; x < 18; x++ {
		if x == 10 {
			continue
		}
		for y := 8; y < 12; y++ {
			g.SetGray(x, y, color.Gray{RoadPixel})
		}
	}

	out := rgbaToMask(closeMorph(grayToRGBA(g), 1))
	if out.GrayAt(10, 9).Y != RoadPixel {
		t.Error("one-pixel gap not closed")
	}
}
