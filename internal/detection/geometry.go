package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ironsheep/roadshape-mcp/internal/classify"
)

// ErrDegenerateContour is returned by AnalyzeContour for contours that
// enclose no area (single pixels, one-pixel-wide lines).
var ErrDegenerateContour = errors.New("degenerate contour")

// approxEpsilonFactor scales the perimeter into the polygon simplification
// tolerance used to count vertices.
const approxEpsilonFactor = 0.02

// ContourGeometry is the measured geometry of one contour.
type ContourGeometry struct {
	classify.ShapeGeometry

	// Orientation is the angle in degrees of the minimum-area rotated
	// rectangle around the contour, in [0, 90).
	Orientation float64 `json:"orientation"`

	// BoundingBox is the axis-aligned box enclosing every contour pixel,
	// in the contour's coordinate space.
	BoundingBox image.Rectangle `json:"-"`
}

// AnalyzeContour measures a contour for classification.
//
// The bounding box counts pixels, so a contour spanning x=10..19 is 10
// wide, while Area and Perimeter are measured on the polygon through the
// pixel centers. Returns ErrDegenerateContour if the contour or its convex
// hull has zero area.
func AnalyzeContour(c Contour) (ContourGeometry, error) {
	if len(c) < 3 {
		return ContourGeometry{}, fmt.Errorf("%w: %d points", ErrDegenerateContour, len(c))
	}

	area := ContourArea(c)
	hullArea := ContourArea(ConvexHull(c))
	if area <= 0 || hullArea <= 0 {
		return ContourGeometry{}, fmt.Errorf("%w: zero area", ErrDegenerateContour)
	}

	perimeter := ArcLength(c)
	box := BoundingRect(c)
	w, h := float64(box.Dx()), float64(box.Dy())
	solidity := math.Min(area/hullArea, 1)

	g := ContourGeometry{
		ShapeGeometry: classify.ShapeGeometry{
			Area:        area,
			Perimeter:   perimeter,
			AspectRatio: w / h,
			Solidity:    solidity,
			Extent:      area / (w * h),
			Vertices:    len(ApproxPolyDP(c, approxEpsilonFactor*perimeter)),
			IsConvex:    IsContourConvex(c),
			Complexity:  1 - solidity,
		},
		Orientation: MinAreaRectAngle(c),
		BoundingBox: box,
	}
	if err := g.Validate(); err != nil {
		return ContourGeometry{}, fmt.Errorf("%w: %v", ErrDegenerateContour, err)
	}
	return g, nil
}

// ContourArea returns the absolute polygon area using the shoelace formula.
func ContourArea(c Contour) float64 {
	if len(c) < 3 {
		return 0
	}
	var sum int
	for i := range c {
		j := (i + 1) % len(c)
		sum += c[i].X*c[j].Y - c[j].X*c[i].Y
	}
	return math.Abs(float64(sum)) / 2
}

// ArcLength returns the perimeter of the closed contour.
func ArcLength(c Contour) float64 {
	if len(c) < 2 {
		return 0
	}
	var length float64
	for i := range c {
		j := (i + 1) % len(c)
		length += math.Hypot(float64(c[j].X-c[i].X), float64(c[j].Y-c[i].Y))
	}
	return length
}

// BoundingRect returns the smallest rectangle containing every contour
// pixel.
func BoundingRect(c Contour) image.Rectangle {
	if len(c) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(c[0].X, c[0].Y, c[0].X+1, c[0].Y+1)
	for _, p := range c[1:] {
		r = r.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))
	}
	return r
}

// cross returns the z component of (a-o) x (b-o).
func cross(o, a, b Point) int {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// ConvexHull returns the convex hull of the contour points using Andrew's
// monotone chain. Collinear points are dropped.
func ConvexHull(c Contour) Contour {
	pts := make([]Point, len(c))
	copy(pts, c)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Dedupe; contours revisit pixels on thin spurs.
	uniq := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return Contour(pts)
	}

	hull := make([]Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return Contour(hull[:len(hull)-1])
}

// ApproxPolyDP simplifies the closed contour with the Douglas-Peucker
// algorithm, keeping vertices that deviate more than epsilon pixels from
// the simplified outline.
//
// The curve is split at two mutually distant points so the result does not
// depend on where tracing started.
func ApproxPolyDP(c Contour, epsilon float64) Contour {
	n := len(c)
	if n < 3 {
		return append(Contour(nil), c...)
	}

	a := farthestFrom(c, c[0])
	b := farthestFrom(c, c[a])
	if a == b {
		return Contour{c[a]}
	}

	keep := make([]bool, n)
	keep[a], keep[b] = true, true
	simplifyArc(c, a, b, epsilon, keep)
	simplifyArc(c, b, a, epsilon, keep)

	out := make(Contour, 0)
	for i := 0; i < n; i++ {
		if keep[i] {
			out = append(out, c[i])
		}
	}
	return out
}

// simplifyArc runs Douglas-Peucker over the arc from index i to j, walking
// forward and wrapping around the end of the contour.
func simplifyArc(c Contour, i, j int, epsilon float64, keep []bool) {
	n := len(c)
	type span struct{ from, to int }
	stack := []span{{i, j}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		best, bestDist := -1, epsilon
		for k := (s.from + 1) % n; k != s.to; k = (k + 1) % n {
			if d := segmentDistance(c[k], c[s.from], c[s.to]); d > bestDist {
				best, bestDist = k, d
			}
		}
		if best < 0 {
			continue
		}
		keep[best] = true
		stack = append(stack, span{s.from, best}, span{best, s.to})
	}
}

// segmentDistance is the distance from p to the line through a and b, or
// to a itself when a and b coincide.
func segmentDistance(p, a, b Point) float64 {
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	if dx == 0 && dy == 0 {
		return math.Hypot(float64(p.X-a.X), float64(p.Y-a.Y))
	}
	return math.Abs(dy*float64(p.X-a.X)-dx*float64(p.Y-a.Y)) / math.Hypot(dx, dy)
}

func farthestFrom(c Contour, p Point) int {
	best, bestDist := 0, -1
	for i, q := range c {
		dx, dy := q.X-p.X, q.Y-p.Y
		if d := dx*dx + dy*dy; d > bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// IsContourConvex reports whether the contour turns the same way at every
// corner. Straight runs of pixels are merged first so only real corners
// count; a contour that doubles back on itself is never convex.
func IsContourConvex(c Contour) bool {
	pts := compressRuns(c)
	n := len(pts)
	if n < 3 {
		return false
	}

	sign := 0
	for i := 0; i < n; i++ {
		z := cross(pts[i], pts[(i+1)%n], pts[(i+2)%n])
		if z == 0 {
			return false
		}
		s := 1
		if z < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return true
}

// compressRuns drops points that lie in the middle of a straight
// horizontal, vertical or diagonal run.
func compressRuns(c Contour) Contour {
	n := len(c)
	if n < 3 {
		return c
	}
	out := make(Contour, 0, n)
	for i := 0; i < n; i++ {
		prev, cur, next := c[(i+n-1)%n], c[i], c[(i+1)%n]
		if cur.X-prev.X == next.X-cur.X && cur.Y-prev.Y == next.Y-cur.Y {
			continue
		}
		out = append(out, cur)
	}
	return out
}

// MinAreaRectAngle returns the rotation in degrees, in [0, 90), of the
// smallest-area rectangle enclosing the contour. Axis-aligned shapes
// return 0.
//
// Uses rotating calipers: the optimal rectangle has one side collinear with
// a convex hull edge, so each hull edge is tried in turn.
func MinAreaRectAngle(c Contour) float64 {
	hull := ConvexHull(c)
	if len(hull) < 2 {
		return 0
	}

	bestArea, bestAngle := math.Inf(1), 0.0
	for i := range hull {
		a, b := hull[i], hull[(i+1)%len(hull)]
		ex, ey := float64(b.X-a.X), float64(b.Y-a.Y)
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		ux, uy := ex/l, ey/l

		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			px, py := float64(p.X-a.X), float64(p.Y-a.Y)
			u := px*ux + py*uy
			v := -px*uy + py*ux
			minU, maxU = math.Min(minU, u), math.Max(maxU, u)
			minV, maxV = math.Min(minV, v), math.Max(maxV, v)
		}

		if area := (maxU - minU) * (maxV - minV); area < bestArea-1e-9 {
			bestArea = area
			bestAngle = math.Atan2(ey, ex) * 180 / math.Pi
		}
	}

	angle := math.Mod(bestAngle, 90)
	if angle < 0 {
		angle += 90
	}
	if angle > 90-1e-9 {
		angle = 0
	}
	return angle
}
