// Package classify labels road shapes from their measured contour geometry.
//
// Classification is a fixed, ordered decision table over a handful of
// geometric ratios computed upstream by contour analysis (see the detection
// package). Rules are evaluated top to bottom and the first matching rule
// wins, so a geometry that satisfies several rules always receives the
// label of the earliest one.
//
// # Geometry
//
// ShapeGeometry carries the measured features of a single closed contour:
//   - Area and Perimeter in pixel units
//   - AspectRatio: bounding-box width / height
//   - Solidity: contour area / convex-hull area
//   - Extent: contour area / bounding-box area
//   - Vertices: corners remaining after polygon simplification
//   - IsConvex: whether the contour is convex
//   - Complexity: 1 - Solidity
//
// # Confidence
//
// Each rule assigns a base confidence between 0.3 and 0.9. Shapes larger
// than 2000 square pixels receive a +0.1 boost, clamped to 1.0.
//
// # Degenerate Input
//
// Classify is total and never fails. Contours with a zero-height bounding
// box produce an infinite or NaN aspect ratio; callers should reject these
// with ShapeGeometry.Validate before classifying.
//
// # Thread Safety
//
// Classify has no state and may be called concurrently.
package classify
