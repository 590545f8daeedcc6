package classify

import (
	"fmt"
	"math"
)

// Rule is one guarded entry of the decision table.
//
// When decides whether the rule applies; Then produces the classification
// for a geometry the rule applies to, including any sub-classification by
// aspect ratio.
type Rule struct {
	// Name identifies the rule in listings and logs.
	Name string `json:"name"`

	// Condition is a human-readable form of When.
	Condition string `json:"condition"`

	// Outcomes lists every type Then can return.
	Outcomes []ShapeType `json:"outcomes"`

	When func(ShapeGeometry) bool           `json:"-"`
	Then func(ShapeGeometry) Classification `json:"-"`
}

// Rules is the ordered decision table used by Classify.
// Order is significant: the first rule whose When holds is applied.
var Rules = []Rule{
	{
		Name:      "quadrilateral",
		Condition: "vertices <= 4 && solidity > 0.85",
		Outcomes:  []ShapeType{Linear, SquareLike, Rectangular},
		When: func(g ShapeGeometry) bool {
			return g.Vertices <= 4 && g.Solidity > 0.85
		},
		Then: func(g ShapeGeometry) Classification {
			switch {
			case g.AspectRatio > 2.5:
				return Classification{Linear, "Long straight road segment", 0.9}
			case math.Abs(g.AspectRatio-1) < 0.3:
				return Classification{SquareLike, "Square or rectangular block", 0.85}
			default:
				return Classification{Rectangular, "Rectangular road formation", 0.8}
			}
		},
	},
	{
		Name:      "round",
		Condition: "vertices > 8 && solidity > 0.8 && |aspect_ratio - 1| < 0.4",
		Outcomes:  []ShapeType{Circular},
		When: func(g ShapeGeometry) bool {
			return g.Vertices > 8 && g.Solidity > 0.8 && math.Abs(g.AspectRatio-1) < 0.4
		},
		Then: func(ShapeGeometry) Classification {
			return Classification{Circular, "Circular or round road pattern", 0.9}
		},
	},
	{
		Name:      "branched",
		Condition: "complexity > 0.4 && vertices > 6",
		Outcomes:  []ShapeType{Organic, StarLike, Complex},
		When: func(g ShapeGeometry) bool {
			return g.Complexity > 0.4 && g.Vertices > 6
		},
		Then: func(g ShapeGeometry) Classification {
			switch {
			case g.AspectRatio > 1.5 && g.AspectRatio < 2.5:
				return Classification{Organic, "Natural, organic road shape", 0.75}
			case g.AspectRatio > 0.6 && g.AspectRatio < 1.4:
				return Classification{StarLike, "Star or flower-like intersection", 0.8}
			default:
				return Classification{Complex, "Complex multi-branched formation", 0.7}
			}
		},
	},
	{
		Name:      "polygonal",
		Condition: "5 <= vertices <= 8",
		Outcomes:  []ShapeType{Polygon, Angular},
		When: func(g ShapeGeometry) bool {
			return g.Vertices >= 5 && g.Vertices <= 8
		},
		Then: func(g ShapeGeometry) Classification {
			if g.IsConvex {
				return Classification{Polygon, fmt.Sprintf("%d-sided polygon formation", g.Vertices), 0.85}
			}
			return Classification{Angular, "Angular road intersection", 0.75}
		},
	},
	{
		Name:      "concave",
		Condition: "complexity > 0.6",
		Outcomes:  []ShapeType{BranchLike, Irregular},
		When: func(g ShapeGeometry) bool {
			return g.Complexity > 0.6
		},
		Then: func(g ShapeGeometry) Classification {
			if g.AspectRatio > 2.0 {
				return Classification{BranchLike, "Tree or branch-like pattern", 0.8}
			}
			return Classification{Irregular, "Irregular complex shape", 0.6}
		},
	},
	{
		Name:      "filled",
		Condition: "extent > 0.8 && solidity > 0.7",
		Outcomes:  []ShapeType{Filled},
		When: func(g ShapeGeometry) bool {
			return g.Extent > 0.8 && g.Solidity > 0.7
		},
		Then: func(ShapeGeometry) Classification {
			return Classification{Filled, "Dense filled area formation", 0.7}
		},
	},
}

// Match returns the index of the first rule in Rules that applies to g,
// or -1 when g falls through to Unknown.
func Match(g ShapeGeometry) int {
	for i, r := range Rules {
		if r.When(g) {
			return i
		}
	}
	return -1
}
