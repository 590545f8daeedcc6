// Package detection finds road shapes in map images.
//
// A road shape is a closed formation of road pixels (a block, a loop, a
// roundabout, a star intersection) that the classify package can label.
// DetectRoadShapes runs the whole pipeline; the contour and geometry
// functions are exported for tools that work on masks directly.
//
// # Pipeline
//
//  1. Road mask: imaging.ExtractRoadMask, with label regions optionally
//     blanked out by a TextDetector
//  2. Contours: FindExternalContours traces the outer border of each
//     8-connected group of road pixels
//  3. Geometry: AnalyzeContour measures area, perimeter, convex hull,
//     simplified vertex count, bounding box and orientation
//  4. Classification: classify.Classify on the measured geometry
//  5. Ranking: shapes sorted by confidence and size
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//   - Bounding boxes use inclusive top-left and exclusive bottom-right
//
// Contours and ContourGeometry.BoundingBox are relative to the mask, whose
// origin is always (0, 0). RoadShape.Bounds is in source image coordinates.
//
// # Label Masking
//
// Street names are drawn in road-colored ink and would otherwise show up as
// small blobs or bridge neighbouring roads. Any TextDetector can be plugged
// in: ocr.Detector uses Tesseract, HeuristicLabelDetector uses edge density
// and needs nothing installed.
//
// # Limitations
//
// The mask relies on roads being darker than their surroundings. Maps that
// draw roads lighter than the background need to be inverted first.
package detection
