package detection

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/roadshape-mcp/internal/imaging"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// strokeOutline draws a rectangle outline of the given thickness, the way
// a road loop appears on a rendered map.
func strokeOutline(img *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if x < r.Min.X+thickness || x >= r.Max.X-thickness ||
				y < r.Min.Y+thickness || y >= r.Max.Y-thickness {
				img.Set(x, y, c)
			}
		}
	}
}

// createMask builds a width x height mask with the given rectangles filled.
func createMask(width, height int, fill ...image.Rectangle) *image.Gray {
	m := image.NewGray(image.Rect(0, 0, width, height))
	for _, r := range fill {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				m.SetGray(x, y, color.Gray{imaging.RoadPixel})
			}
		}
	}
	return m
}

func TestFindExternalContours_Square(t *testing.T) {
	mask := createMask(40, 40, image.Rect(10, 10, 20, 20))

	contours := FindExternalContours(mask)
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(contours))
	}
	c := contours[0]

	if c[0] != (Point{10, 10}) {
		t.Errorf("start point: got %v, want (10,10)", c[0])
	}
	if got := BoundingRect(c); got != image.Rect(10, 10, 20, 20) {
		t.Errorf("bounding rect: got %v", got)
	}
	// Polygon through pixel centers spans 9 on each side.
	if got := ContourArea(c); got != 81 {
		t.Errorf("area: got %v, want 81", got)
	}
	// Only border pixels are traced.
	if len(c) != 36 {
		t.Errorf("contour length: got %d, want 36", len(c))
	}
}

func TestFindExternalContours_RingIgnoresHole(t *testing.T) {
	img := createTestImage(60, 60, color.Black)
	strokeOutline(img, image.Rect(10, 10, 50, 50), 3, color.White)
	mask := image.NewGray(img.Bounds())
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				mask.SetGray(x, y, color.Gray{imaging.RoadPixel})
			}
		}
	}

	contours := FindExternalContours(mask)
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour for a ring, got %d", len(contours))
	}
	if got := ContourArea(contours[0]); got != 39*39 {
		t.Errorf("area: got %v, want %d", got, 39*39)
	}
}

func TestFindExternalContours_Order(t *testing.T) {
	mask := createMask(60, 60,
		image.Rect(5, 30, 15, 40), // lower left
		image.Rect(30, 5, 40, 15), // upper right
	)

	contours := FindExternalContours(mask)
	if len(contours) != 2 {
		t.Fatalf("Expected 2 contours, got %d", len(contours))
	}
	if contours[0][0] != (Point{30, 5}) {
		t.Errorf("first contour should start at the topmost blob, got %v", contours[0][0])
	}
	if contours[1][0] != (Point{5, 30}) {
		t.Errorf("second contour start: got %v", contours[1][0])
	}
}

func TestFindExternalContours_SinglePixel(t *testing.T) {
	mask := createMask(10, 10, image.Rect(4, 4, 5, 5))

	contours := FindExternalContours(mask)
	if len(contours) != 1 || len(contours[0]) != 1 {
		t.Fatalf("Expected one single-point contour, got %v", contours)
	}
}

func TestFindExternalContours_ThinLine(t *testing.T) {
	mask := createMask(10, 5, image.Rect(2, 2, 7, 3))

	contours := FindExternalContours(mask)
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(contours))
	}
	// Out along the line and back again.
	if len(contours[0]) != 8 {
		t.Errorf("contour length: got %d, want 8", len(contours[0]))
	}
	if ContourArea(contours[0]) != 0 {
		t.Errorf("a line encloses no area, got %v", ContourArea(contours[0]))
	}
}

func TestFindExternalContours_DiagonalConnectivity(t *testing.T) {
	mask := createMask(10, 10, image.Rect(3, 3, 4, 4), image.Rect(4, 4, 5, 5))

	if got := len(FindExternalContours(mask)); got != 1 {
		t.Errorf("diagonal neighbours should form 1 contour, got %d", got)
	}
}

func TestFindExternalContours_ConcaveCorner(t *testing.T) {
	// L shape: a 10x3 bar with a 3x7 leg hanging from its left end.
	mask := createMask(20, 20, image.Rect(0, 0, 10, 3), image.Rect(0, 3, 3, 10))

	contours := FindExternalContours(mask)
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(contours))
	}
	c := contours[0]

	if got := BoundingRect(c); got != image.Rect(0, 0, 10, 10) {
		t.Errorf("bounding rect: got %v", got)
	}
	// The inner corner pixel only touches background diagonally, so the
	// trace steps past it and the outline bulges by half a pixel.
	if got := ContourArea(c); math.Abs(got-32.5) > 1e-9 {
		t.Errorf("area: got %v, want 32.5", got)
	}
	for _, p := range c {
		if mask.GrayAt(p.X, p.Y).Y != imaging.RoadPixel {
			t.Errorf("contour point %v is not a road pixel", p)
		}
	}
}

func TestFindExternalContours_TouchesEdge(t *testing.T) {
	mask := createMask(20, 20, image.Rect(0, 0, 20, 20))

	contours := FindExternalContours(mask)
	if len(contours) != 1 {
		t.Fatalf("Expected 1 contour, got %d", len(contours))
	}
	if got := BoundingRect(contours[0]); got != mask.Bounds() {
		t.Errorf("bounding rect: got %v, want %v", got, mask.Bounds())
	}
}

func TestFindExternalContours_Empty(t *testing.T) {
	if got := FindExternalContours(createMask(20, 20)); len(got) != 0 {
		t.Errorf("Expected 0 contours in empty mask, got %d", len(got))
	}
	if got := FindExternalContours(image.NewGray(image.Rect(0, 0, 0, 0))); got != nil {
		t.Errorf("Expected nil for zero-size mask, got %v", got)
	}
}

func TestFloodFill(t *testing.T) {
	fg := make([][]bool, 10)
	visited := make([][]bool, 10)
	for y := 0; y < 10; y++ {
		fg[y] = make([]bool, 10)
		visited[y] = make([]bool, 10)
	}

	// Create a small connected region
	fg[5][5] = true
	fg[5][6] = true
	fg[6][5] = true
	fg[6][6] = true

	if n := floodFill(fg, visited, 5, 5, 10, 10); n != 4 {
		t.Errorf("Expected 4 pixels, got %d", n)
	}

	// Check visited was marked
	if !visited[5][5] || !visited[5][6] || !visited[6][5] || !visited[6][6] {
		t.Error("Flood fill should mark all visited points")
	}
}

func TestBoundsRoundTrip(t *testing.T) {
	r := image.Rect(3, 4, 50, 60)
	b := BoundsFromRect(r)
	if b != (Bounds{X1: 3, Y1: 4, X2: 50, Y2: 60}) {
		t.Errorf("BoundsFromRect: got %+v", b)
	}
	if b.Rect() != r {
		t.Errorf("Rect: got %v, want %v", b.Rect(), r)
	}
}
