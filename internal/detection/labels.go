package detection

import (
	"image"
	"math"
	"sort"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
)

// edgeLevel is the Sobel magnitude above which a pixel counts as an edge.
const edgeLevel = 100

// LabelRegion is an area that looks like a printed map label.
type LabelRegion struct {
	Bounds     Bounds  `json:"bounds"`
	Confidence float64 `json:"confidence"`
	Area       int     `json:"area"`
}

// LabelRegionsResult contains detected label regions.
type LabelRegionsResult struct {
	Regions []LabelRegion `json:"regions"`
	Count   int           `json:"count"`
}

// labelWindows are the sliding windows tried, sized for common label fonts.
var labelWindows = []struct{ w, h int }{
	{80, 25},
	{100, 30},
	{150, 40},
	{200, 50},
}

// DetectLabelRegions finds regions likely to contain map labels without
// OCR. It looks for windows with medium edge density whose edges run
// mostly horizontally, which is typical of a line of lettering.
//
// Road strokes also produce edges, so this is cruder than Tesseract and is
// meant as a fallback on machines without it.
func DetectLabelRegions(img image.Image, minConfidence float64) *LabelRegionsResult {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return &LabelRegionsResult{Regions: []LabelRegion{}}
	}

	edges := edgeMap(img)
	sum := integral(edges, width, height)

	candidates := make([]LabelRegion, 0)
	for _, ws := range labelWindows {
		stepX, stepY := ws.w/2, ws.h/2

		for y := 0; y <= height-ws.h; y += stepY {
			for x := 0; x <= width-ws.w; x += stepX {
				area := ws.w * ws.h
				count := sum[y+ws.h][x+ws.w] - sum[y][x+ws.w] - sum[y+ws.h][x] + sum[y][x]
				density := float64(count) / float64(area)

				// Lettering is neither sparse nor solid.
				if density < 0.05 || density > 0.4 {
					continue
				}

				confidence := horizontalScore(edges, x, y, ws.w, ws.h) * (1.0 - math.Abs(density-0.2)/0.2)
				if confidence < minConfidence {
					continue
				}
				candidates = append(candidates, LabelRegion{
					Bounds: Bounds{
						X1: x + bounds.Min.X,
						Y1: y + bounds.Min.Y,
						X2: x + ws.w + bounds.Min.X,
						Y2: y + ws.h + bounds.Min.Y,
					},
					Confidence: math.Round(confidence*1000) / 1000,
					Area:       area,
				})
			}
		}
	}

	merged := mergeOverlappingRegions(candidates)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	return &LabelRegionsResult{
		Regions: merged,
		Count:   len(merged),
	}
}

// HeuristicLabelDetector masks labels using DetectLabelRegions.
type HeuristicLabelDetector struct {
	MinConfidence float64
}

// DetectTextRegions implements TextDetector.
func (h HeuristicLabelDetector) DetectTextRegions(img image.Image) ([]image.Rectangle, error) {
	res := DetectLabelRegions(img, h.MinConfidence)
	rects := make([]image.Rectangle, 0, res.Count)
	for _, r := range res.Regions {
		rects = append(rects, r.Bounds.Rect())
	}
	return rects, nil
}

// edgeMap returns a row-major edge grid with origin (0,0).
func edgeMap(img image.Image) [][]bool {
	g := segment.Threshold(effect.Sobel(img), edgeLevel)
	b := g.Bounds()
	edges := make([][]bool, b.Dy())
	for y := range edges {
		edges[y] = make([]bool, b.Dx())
		for x := range edges[y] {
			edges[y][x] = g.GrayAt(x+b.Min.X, y+b.Min.Y).Y > 0
		}
	}
	return edges
}

// integral returns the summed-area table of edges, one row and column
// larger than the image.
func integral(edges [][]bool, width, height int) [][]int {
	sum := make([][]int, height+1)
	sum[0] = make([]int, width+1)
	for y := 0; y < height; y++ {
		sum[y+1] = make([]int, width+1)
		row := 0
		for x := 0; x < width; x++ {
			if edges[y][x] {
				row++
			}
			sum[y+1][x+1] = sum[y][x+1] + row
		}
	}
	return sum
}

// horizontalScore is the share of edge runs in the window that are
// horizontal.
func horizontalScore(edges [][]bool, x, y, w, h int) float64 {
	horizontalRuns := 0
	verticalRuns := 0

	for row := y; row < y+h; row++ {
		inRun := false
		for col := x; col < x+w; col++ {
			if edges[row][col] {
				if !inRun {
					horizontalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	for col := x; col < x+w; col++ {
		inRun := false
		for row := y; row < y+h; row++ {
			if edges[row][col] {
				if !inRun {
					verticalRuns++
					inRun = true
				}
			} else {
				inRun = false
			}
		}
	}

	if horizontalRuns+verticalRuns == 0 {
		return 0
	}
	return float64(horizontalRuns) / float64(horizontalRuns+verticalRuns)
}

// mergeOverlappingRegions folds overlapping regions into their union.
func mergeOverlappingRegions(regions []LabelRegion) []LabelRegion {
	merged := make([]LabelRegion, 0, len(regions))

	for _, r := range regions {
		found := false
		for i := range merged {
			if merged[i].Bounds.Rect().Overlaps(r.Bounds.Rect()) {
				u := merged[i].Bounds.Rect().Union(r.Bounds.Rect())
				merged[i].Bounds = BoundsFromRect(u)
				merged[i].Confidence = math.Max(r.Confidence, merged[i].Confidence)
				merged[i].Area = u.Dx() * u.Dy()
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, r)
		}
	}
	return merged
}
