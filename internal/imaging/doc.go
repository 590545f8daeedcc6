// Package imaging provides the pixel-level stages of road shape detection.
//
// It covers everything that reads or writes pixels: loading and caching
// map images, turning a map into a binary road mask, rendering shape
// thumbnails, and drawing annotated result images. Geometry and
// classification live in the detection and classify packages; this
// package never interprets contours.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. Road masks are always
// returned with their origin at (0,0), regardless of the source image's
// bounds; functions that take both an image and a mask say which
// coordinate space each rectangle is in.
//
// # Road Masks
//
// ExtractRoadMask applies grayscale conversion, a Gaussian pre-blur, two
// adaptive thresholds and a morphological clean-up, all built on bild.
// Mask pixels are either RoadPixel (255) or 0.
//
// # Rendered Output
//
// Rendered images (masks, thumbnails, annotated maps) are returned as
// base64-encoded PNG so they can be embedded directly in MCP responses.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. All other functions are stateless.
package imaging
