package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sort"

	"github.com/ironsheep/roadshape-mcp/internal/classify"
	"github.com/ironsheep/roadshape-mcp/internal/imaging"
)

// Default filter thresholds for typical street maps.
const (
	DefaultMinArea       = 800.0
	DefaultMaxArea       = 80000.0
	DefaultMinBoxSide    = 40
	DefaultMinConfidence = 0.5
)

// TextDetector finds label regions to blank out of the road mask.
// Rectangles are in source image coordinates.
type TextDetector interface {
	DetectTextRegions(img image.Image) ([]image.Rectangle, error)
}

// Options controls DetectRoadShapes.
type Options struct {
	// MinArea and MaxArea bound the contour area in square pixels.
	MinArea float64
	MaxArea float64

	// MinBoxSide is the smallest bounding box width or height kept.
	MinBoxSide int

	// MinConfidence drops shapes the classifier is unsure about.
	MinConfidence float64

	// MaxShapes caps the result after sorting. 0 means unlimited.
	MaxShapes int

	// Thumbnails enables rendering of shape and context thumbnails.
	Thumbnails bool

	// ThumbnailSize is the thumbnail edge length in pixels.
	ThumbnailSize int

	// Mask configures road mask extraction.
	Mask imaging.MaskOptions

	// TextDetector, when set, masks map labels before tracing. A failing
	// detector is logged and skipped.
	TextDetector TextDetector

	// Logger receives progress and skipped-contour messages. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the options used for typical street maps.
func DefaultOptions() Options {
	return Options{
		MinArea:       DefaultMinArea,
		MaxArea:       DefaultMaxArea,
		MinBoxSide:    DefaultMinBoxSide,
		MinConfidence: DefaultMinConfidence,
		Thumbnails:    true,
		ThumbnailSize: imaging.DefaultThumbnailSize,
		Mask:          imaging.DefaultMaskOptions(),
	}
}

// RoadShape is one classified road formation.
type RoadShape struct {
	// ID is "shape_<n>" where n is the contour's trace order.
	ID string `json:"id"`

	Type        classify.ShapeType `json:"type"`
	Description string             `json:"description"`
	Confidence  float64            `json:"confidence"`

	// Color is the display color for Confidence, "#rrggbb".
	Color string `json:"color"`

	// Bounds is the bounding box in source image coordinates.
	Bounds Bounds `json:"bounds"`
	Width  int    `json:"width"`
	Height int    `json:"height"`

	Geometry ContourGeometry `json:"geometry"`

	Thumbnails *imaging.Thumbnails `json:"thumbnails,omitempty"`
}

// Score ranks shapes, favoring confident and large ones.
func (s RoadShape) Score() float64 {
	return s.Confidence*0.7 + (s.Geometry.Area/10000)*0.3
}

// RoadShapesResult contains every road shape found in an image.
type RoadShapesResult struct {
	// Shapes is sorted by Score, highest first.
	Shapes []RoadShape `json:"shapes"`
	Count  int         `json:"count"`

	ImageWidth  int `json:"image_width"`
	ImageHeight int `json:"image_height"`

	// RoadCoverage is the fraction of mask pixels marked as road.
	RoadCoverage float64 `json:"road_coverage"`

	// ContoursFound counts contours before filtering.
	ContoursFound int `json:"contours_found"`

	// LabelsMasked counts label regions cleared from the mask.
	LabelsMasked int `json:"labels_masked"`
}

// Validate checks that o describes a usable filter.
func (o Options) Validate() error {
	switch {
	case o.MinArea < 0:
		return fmt.Errorf("min area must be non-negative, got %v", o.MinArea)
	case o.MaxArea < o.MinArea:
		return fmt.Errorf("max area %v below min area %v", o.MaxArea, o.MinArea)
	case o.MinBoxSide < 0:
		return fmt.Errorf("min box side must be non-negative, got %d", o.MinBoxSide)
	case o.MinConfidence < 0 || o.MinConfidence > 1:
		return fmt.Errorf("min confidence must be in [0,1], got %v", o.MinConfidence)
	case o.MaxShapes < 0:
		return fmt.Errorf("max shapes must be non-negative, got %d", o.MaxShapes)
	case o.Thumbnails && o.ThumbnailSize <= 0:
		return fmt.Errorf("thumbnail size must be positive, got %d", o.ThumbnailSize)
	}
	return nil
}

// DetectRoadShapes finds and classifies road formations in a map image.
//
// # Pipeline
//
//  1. Label regions from opts.TextDetector, if any, are masked out
//  2. The road mask is extracted (imaging.ExtractRoadMask)
//  3. External contours are traced and measured
//  4. Contours outside [MinArea, MaxArea] or with a bounding box side
//     under MinBoxSide are dropped
//  5. Survivors are classified; those under MinConfidence are dropped
//  6. Shapes are sorted by Score (stable), capped at MaxShapes, and
//     thumbnails are rendered for the ones kept
//
// Degenerate contours are skipped. Cancellation of ctx is checked between
// contours and returns ctx.Err().
func DetectRoadShapes(ctx context.Context, img image.Image, opts Options) (*RoadShapesResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection options: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	bounds := img.Bounds()
	result := &RoadShapesResult{
		Shapes:      []RoadShape{},
		ImageWidth:  bounds.Dx(),
		ImageHeight: bounds.Dy(),
	}
	if bounds.Empty() {
		return result, nil
	}

	maskOpts := opts.Mask
	if opts.TextDetector != nil {
		labels, err := opts.TextDetector.DetectTextRegions(img)
		if err != nil {
			logger.Warn("label masking skipped", "error", err)
		} else {
			maskOpts.Exclude = append(append([]image.Rectangle(nil), maskOpts.Exclude...), labels...)
			result.LabelsMasked = len(labels)
		}
	}

	mask := imaging.ExtractRoadMask(img, maskOpts)
	result.RoadCoverage = imaging.RoadCoverage(mask)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	contours := FindExternalContours(mask)
	result.ContoursFound = len(contours)
	logger.Debug("contours traced", "count", len(contours), "road_coverage", result.RoadCoverage)

	shapes := make([]RoadShape, 0)
	for i, c := range contours {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		geom, err := AnalyzeContour(c)
		if err != nil {
			if !errors.Is(err, ErrDegenerateContour) {
				return nil, err
			}
			continue
		}

		if geom.Area < opts.MinArea || geom.Area > opts.MaxArea {
			continue
		}
		box := geom.BoundingBox
		if box.Dx() < opts.MinBoxSide || box.Dy() < opts.MinBoxSide {
			continue
		}

		cls := classify.Classify(geom.ShapeGeometry)
		if cls.Confidence < opts.MinConfidence {
			logger.Debug("low confidence shape dropped", "contour", i, "type", cls.Type, "confidence", cls.Confidence)
			continue
		}

		src := box.Add(bounds.Min)
		shapes = append(shapes, RoadShape{
			ID:          fmt.Sprintf("shape_%d", i),
			Type:        cls.Type,
			Description: cls.Description,
			Confidence:  cls.Confidence,
			Color:       imaging.ConfidenceColor(cls.Confidence),
			Bounds:      BoundsFromRect(src),
			Width:       src.Dx(),
			Height:      src.Dy(),
			Geometry:    geom,
		})
	}

	sort.SliceStable(shapes, func(i, j int) bool {
		return shapes[i].Score() > shapes[j].Score()
	})
	if opts.MaxShapes > 0 && len(shapes) > opts.MaxShapes {
		shapes = shapes[:opts.MaxShapes]
	}

	if opts.Thumbnails {
		for i := range shapes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			th, err := imaging.RenderThumbnails(img, mask, shapes[i].Geometry.BoundingBox, opts.ThumbnailSize)
			if err != nil {
				return nil, fmt.Errorf("failed to render thumbnails for %s: %w", shapes[i].ID, err)
			}
			shapes[i].Thumbnails = th
		}
	}

	result.Shapes = shapes
	result.Count = len(shapes)
	logger.Info("road shapes detected", "count", result.Count, "contours", result.ContoursFound)
	return result, nil
}

// Annotations converts shapes into boxes for imaging.Annotate, labelled
// with type and confidence percentage.
func Annotations(shapes []RoadShape) []imaging.Annotation {
	out := make([]imaging.Annotation, 0, len(shapes))
	for _, s := range shapes {
		out = append(out, imaging.Annotation{
			Rect:     s.Bounds.Rect(),
			Label:    fmt.Sprintf("%s %d%%", s.Type, int(s.Confidence*100+0.5)),
			ColorHex: s.Color,
		})
	}
	return out
}
