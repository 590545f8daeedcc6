package detection

import (
	"image"

	"github.com/ironsheep/roadshape-mcp/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
//
// (X1, Y1) is the top-left corner (inclusive) and (X2, Y2) the
// bottom-right corner (exclusive).
type Bounds struct {
	X1 int `json:"x1"` // Left edge (inclusive)
	Y1 int `json:"y1"` // Top edge (inclusive)
	X2 int `json:"x2"` // Right edge (exclusive)
	Y2 int `json:"y2"` // Bottom edge (exclusive)
}

// BoundsFromRect converts an image.Rectangle to Bounds.
func BoundsFromRect(r image.Rectangle) Bounds {
	return Bounds{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y}
}

// Rect converts b back to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// Contour is a closed boundary as an ordered list of pixel centers.
// The last point connects back to the first.
type Contour []Point

// neighbor offsets, clockwise on screen starting east.
var neighbors = [8]Point{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

const (
	dirWest = 4
)

// direction returns the neighbor index for a unit step (dx, dy).
func direction(dx, dy int) int {
	for i, n := range neighbors {
		if n.X == dx && n.Y == dy {
			return i
		}
	}
	return -1
}

// FindExternalContours traces the outer boundary of every 8-connected
// group of road pixels in mask. Holes are ignored, so a ring of road
// yields one contour around its outside.
//
// Contours are ordered by their first pixel in raster order (top to bottom,
// then left to right). Coordinates are relative to mask.Bounds().Min.
//
// # Algorithm
//
//  1. Scan rows top to bottom. The first unvisited road pixel of a group
//     is its topmost-leftmost pixel, which always lies on the outer border.
//  2. Trace the border clockwise with Moore-neighbour tracing, stopping
//     when the start pixel is left in the same direction as the first step.
//  3. Flood-fill the group so its remaining pixels are skipped.
func FindExternalContours(mask *image.Gray) []Contour {
	b := mask.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	fg := make([][]bool, height)
	for y := 0; y < height; y++ {
		fg[y] = make([]bool, width)
		for x := 0; x < width; x++ {
			fg[y][x] = mask.GrayAt(x+b.Min.X, y+b.Min.Y).Y >= imaging.RoadPixel/2+1
		}
	}

	visited := make([][]bool, height)
	for y := 0; y < height; y++ {
		visited[y] = make([]bool, width)
	}

	contours := make([]Contour, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !fg[y][x] || visited[y][x] {
				continue
			}
			size := floodFill(fg, visited, x, y, width, height)
			contours = append(contours, traceBorder(fg, Point{x, y}, size, width, height))
		}
	}
	return contours
}

// traceBorder follows the outer border of the group containing start.
// start must be the group's topmost-leftmost pixel.
func traceBorder(fg [][]bool, start Point, size, width, height int) Contour {
	isFg := func(p Point) bool {
		return p.X >= 0 && p.X < width && p.Y >= 0 && p.Y < height && fg[p.Y][p.X]
	}

	contour := Contour{start}
	p := start
	back := dirWest // west of start is never part of the group
	firstDir := -1

	// A border pixel is visited at most four times.
	for steps := 0; steps < 4*size+8; steps++ {
		next := -1
		for i := 1; i <= 8; i++ {
			d := (back + i) & 7
			if isFg(Point{p.X + neighbors[d].X, p.Y + neighbors[d].Y}) {
				next = d
				break
			}
		}
		if next < 0 {
			return contour // isolated pixel
		}
		if p == start && next == firstDir {
			break
		}
		if firstDir < 0 {
			firstDir = next
		}

		// The neighbour checked just before next is background; it becomes
		// the backtrack pixel for the new position.
		prev := neighbors[(next+7)&7]
		q := Point{p.X + neighbors[next].X, p.Y + neighbors[next].Y}
		back = direction(p.X+prev.X-q.X, p.Y+prev.Y-q.Y)
		p = q
		contour = append(contour, p)
	}

	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	return contour
}

// floodFill marks the 8-connected group containing (startX, startY) as
// visited and returns its pixel count.
//
// Uses a stack rather than recursion so large road networks cannot
// overflow the goroutine stack.
func floodFill(fg, visited [][]bool, startX, startY, width, height int) int {
	stack := []Point{{X: startX, Y: startY}}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if visited[p.Y][p.X] || !fg[p.Y][p.X] {
			continue
		}

		visited[p.Y][p.X] = true
		count++

		for _, n := range neighbors {
			stack = append(stack, Point{X: p.X + n.X, Y: p.Y + n.Y})
		}
	}
	return count
}
