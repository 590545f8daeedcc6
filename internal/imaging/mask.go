package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// MaskOptions controls road mask extraction.
//
// Block sizes follow the adaptive-threshold convention of an odd window
// length; the corresponding filter radius is block/2.
type MaskOptions struct {
	// BlurRadius is the Gaussian pre-blur radius. 2 gives a 5x5 kernel.
	BlurRadius float64 `json:"blur_radius"`

	// GaussianBlock and GaussianC configure the Gaussian-weighted adaptive
	// threshold: a pixel is road when it is at least C darker than its
	// weighted local mean.
	GaussianBlock int     `json:"gaussian_block"`
	GaussianC     float64 `json:"gaussian_c"`

	// MeanBlock and MeanC configure the box-mean adaptive threshold.
	MeanBlock int     `json:"mean_block"`
	MeanC     float64 `json:"mean_c"`

	// CloseRadius joins broken road segments (dilate then erode).
	CloseRadius float64 `json:"close_radius"`

	// OpenRadius removes specks (erode then dilate).
	OpenRadius float64 `json:"open_radius"`

	// DilateRadius thickens the final mask to strengthen connections.
	DilateRadius float64 `json:"dilate_radius"`

	// Exclude lists regions cleared from the final mask, typically map
	// labels found by OCR. Coordinates are in source image space.
	Exclude []image.Rectangle `json:"-"`
}

// DefaultMaskOptions returns the options used for typical street maps.
func DefaultMaskOptions() MaskOptions {
	return MaskOptions{
		BlurRadius:    2,
		GaussianBlock: 11,
		GaussianC:     2,
		MeanBlock:     15,
		MeanC:         3,
		CloseRadius:   2,
		OpenRadius:    1,
		DilateRadius:  1,
	}
}

// RoadPixel is the mask value of road (foreground) pixels.
const RoadPixel = 255

// ExtractRoadMask converts a map image into a binary road mask.
//
// The returned image has the same size as img with its origin at (0,0).
// Road pixels are RoadPixel; everything else is 0.
//
// # Algorithm
//
//  1. Grayscale conversion and Gaussian pre-blur
//  2. Two inverse adaptive thresholds, OR-ed together:
//     - Gaussian-weighted local mean, window GaussianBlock, offset GaussianC
//     - Box local mean, window MeanBlock, offset MeanC
//     A pixel is road when value <= localMean - C.
//  3. Morphological close, open, then dilate
//  4. Excluded regions are cleared
//
// Roads on rendered maps are thin strokes that differ from their
// surroundings, so a local threshold finds them regardless of the overall
// map brightness. A uniform image yields an empty mask.
func ExtractRoadMask(img image.Image, opts MaskOptions) *image.Gray {
	src := imaging.Clone(img)
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	mask := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return mask
	}

	gray := effect.Grayscale(src)
	blurred := blur.Gaussian(gray, opts.BlurRadius)
	gaussMean := blur.Gaussian(blurred, float64(opts.GaussianBlock/2))
	boxMean := blur.Box(blurred, float64(opts.MeanBlock/2))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(blurred.Pix[blurred.PixOffset(x, y)])
			gm := float64(gaussMean.Pix[gaussMean.PixOffset(x, y)])
			bm := float64(boxMean.Pix[boxMean.PixOffset(x, y)])
			if v <= gm-opts.GaussianC || v <= bm-opts.MeanC {
				mask.Pix[mask.PixOffset(x, y)] = RoadPixel
			}
		}
	}

	morph := grayToRGBA(mask)
	morph = closeMorph(morph, opts.CloseRadius)
	morph = openMorph(morph, opts.OpenRadius)
	if opts.DilateRadius > 0 {
		morph = effect.Dilate(morph, opts.DilateRadius)
	}

	result := rgbaToMask(morph)
	for _, r := range opts.Exclude {
		clearRect(result, r.Sub(img.Bounds().Min))
	}
	return result
}

// closeMorph fills gaps narrower than the kernel.
func closeMorph(img *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		return img
	}
	return effect.Erode(effect.Dilate(img, radius), radius)
}

// openMorph removes foreground specks narrower than the kernel.
func openMorph(img *image.RGBA, radius float64) *image.RGBA {
	if radius <= 0 {
		return img
	}
	return effect.Dilate(effect.Erode(img, radius), radius)
}

func grayToRGBA(g *image.Gray) *image.RGBA {
	b := g.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := g.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return out
}

// rgbaToMask binarizes the red channel of a morphology result.
func rgbaToMask(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)] >= 128 {
				out.SetGray(x, y, color.Gray{RoadPixel})
			}
		}
	}
	return out
}

func clearRect(mask *image.Gray, r image.Rectangle) {
	r = r.Intersect(mask.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			mask.SetGray(x, y, color.Gray{0})
		}
	}
}

// RoadCoverage returns the fraction of mask pixels that are road.
func RoadCoverage(mask *image.Gray) float64 {
	total := len(mask.Pix)
	if total == 0 {
		return 0
	}
	road := 0
	for _, v := range mask.Pix {
		if v == RoadPixel {
			road++
		}
	}
	return float64(road) / float64(total)
}
