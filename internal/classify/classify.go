package classify

import (
	"errors"
	"fmt"
	"math"
)

// ShapeType is the label assigned to a classified shape.
type ShapeType string

const (
	Linear      ShapeType = "Linear"
	SquareLike  ShapeType = "Square-like"
	Rectangular ShapeType = "Rectangular"
	Circular    ShapeType = "Circular"
	Organic     ShapeType = "Organic"
	StarLike    ShapeType = "Star-like"
	Complex     ShapeType = "Complex"
	Polygon     ShapeType = "Polygon"
	Angular     ShapeType = "Angular"
	BranchLike  ShapeType = "Branch-like"
	Irregular   ShapeType = "Irregular"
	Filled      ShapeType = "Filled"
	Unknown     ShapeType = "Unknown"
)

// ShapeTypes lists every label Classify can return.
var ShapeTypes = []ShapeType{
	Linear, SquareLike, Rectangular, Circular, Organic, StarLike, Complex,
	Polygon, Angular, BranchLike, Irregular, Filled, Unknown,
}

// Valid reports whether t is one of the known labels.
func (t ShapeType) Valid() bool {
	for _, s := range ShapeTypes {
		if s == t {
			return true
		}
	}
	return false
}

const (
	// LargeAreaThreshold is the area above which confidence is boosted.
	LargeAreaThreshold = 2000.0

	// LargeAreaBoost is added to the confidence of large shapes.
	LargeAreaBoost = 0.1
)

// ErrDegenerateGeometry is returned by Validate for geometry that cannot be
// meaningfully classified.
var ErrDegenerateGeometry = errors.New("degenerate shape geometry")

// ShapeGeometry holds the measured features of one closed contour.
type ShapeGeometry struct {
	// Area is the contour area in square pixels.
	Area float64 `json:"area"`

	// Perimeter is the closed contour length in pixels.
	Perimeter float64 `json:"perimeter"`

	// AspectRatio is bounding-box width divided by height.
	AspectRatio float64 `json:"aspect_ratio"`

	// Solidity is contour area divided by convex-hull area, in (0, 1].
	Solidity float64 `json:"solidity"`

	// Extent is contour area divided by bounding-box area, in (0, 1].
	Extent float64 `json:"extent"`

	// Vertices is the number of corners after polygon simplification.
	Vertices int `json:"vertices"`

	// IsConvex reports whether the contour is convex.
	IsConvex bool `json:"is_convex"`

	// Complexity is 1 - Solidity. Higher means more concave.
	Complexity float64 `json:"complexity"`
}

// Validate reports ErrDegenerateGeometry when g has a non-finite or
// non-positive aspect ratio, negative measurements, or NaN ratios.
func (g ShapeGeometry) Validate() error {
	switch {
	case math.IsNaN(g.AspectRatio) || math.IsInf(g.AspectRatio, 0) || g.AspectRatio <= 0:
		return fmt.Errorf("%w: aspect ratio %v", ErrDegenerateGeometry, g.AspectRatio)
	case math.IsNaN(g.Area) || g.Area < 0:
		return fmt.Errorf("%w: area %v", ErrDegenerateGeometry, g.Area)
	case math.IsNaN(g.Perimeter) || g.Perimeter < 0:
		return fmt.Errorf("%w: perimeter %v", ErrDegenerateGeometry, g.Perimeter)
	case math.IsNaN(g.Solidity) || math.IsNaN(g.Extent) || math.IsNaN(g.Complexity):
		return fmt.Errorf("%w: NaN ratio", ErrDegenerateGeometry)
	case g.Vertices < 0:
		return fmt.Errorf("%w: %d vertices", ErrDegenerateGeometry, g.Vertices)
	}
	return nil
}

// Classification is the result of classifying one shape.
type Classification struct {
	Type        ShapeType `json:"type"`
	Description string    `json:"description"`
	Confidence  float64   `json:"confidence"`
}

// Classify labels g using the first matching rule in Rules.
//
// The result is deterministic. When no rule matches, the shape is Unknown
// with confidence 0.3. Shapes with Area above LargeAreaThreshold receive a
// LargeAreaBoost, clamped to 1.0.
func Classify(g ShapeGeometry) Classification {
	c := Fallback
	if i := Match(g); i >= 0 {
		c = Rules[i].Then(g)
	}

	if g.Area > LargeAreaThreshold {
		c.Confidence = math.Min(1.0, c.Confidence+LargeAreaBoost)
	}
	return c
}

// Fallback is the result when no rule matches, before the large-area boost.
var Fallback = Classification{
	Type:        Unknown,
	Description: "Irregular road formation",
	Confidence:  0.3,
}
