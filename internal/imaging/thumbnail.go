package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the edge length of shape thumbnails in pixels.
const DefaultThumbnailSize = 120

// thumbnailFill is the fraction of the canvas a thumbnail's shape occupies.
const thumbnailFill = 0.85

// ImageResult is a rendered image encoded as base64 PNG.
type ImageResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodePNG encodes img as a base64 PNG ImageResult.
func EncodePNG(img image.Image) (*ImageResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &ImageResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Thumbnails holds the two renderings of a detected shape.
type Thumbnails struct {
	// Shape shows the isolated road mask: black roads on white.
	Shape string `json:"shape"`

	// Context shows the original map pixels with a highlight border.
	Context string `json:"context"`
}

// RenderThumbnails renders both thumbnails for the region rect.
//
// rect is given in mask coordinates (origin at 0,0). The source image may
// have any origin; its pixels are read relative to img.Bounds().Min.
func RenderThumbnails(img image.Image, mask *image.Gray, rect image.Rectangle, size int) (*Thumbnails, error) {
	shape, err := MaskThumbnail(mask, rect, size)
	if err != nil {
		return nil, err
	}
	ctx, err := ContextThumbnail(img, rect.Add(img.Bounds().Min), size)
	if err != nil {
		return nil, err
	}
	return &Thumbnails{Shape: shape, Context: ctx}, nil
}

// MaskThumbnail renders the road pixels of rect as black on a white
// size x size canvas, scaled to fit and centered. Returns base64 PNG.
func MaskThumbnail(mask *image.Gray, rect image.Rectangle, size int) (string, error) {
	rect = rect.Intersect(mask.Bounds())
	if rect.Empty() {
		return "", fmt.Errorf("thumbnail region %v outside mask bounds %v", rect, mask.Bounds())
	}

	roads := imaging.Invert(imaging.Crop(mask, rect))
	scaled, offset := fitInto(roads, size, imaging.NearestNeighbor)

	canvas := imaging.New(size, size, color.White)
	canvas = imaging.Paste(canvas, scaled, offset)
	return encodeBase64(canvas)
}

// ContextThumbnail renders the original pixels of rect on a light gray
// size x size canvas with a 2px highlight border. Returns base64 PNG.
func ContextThumbnail(img image.Image, rect image.Rectangle, size int) (string, error) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return "", fmt.Errorf("thumbnail region %v outside image bounds %v", rect, img.Bounds())
	}

	scaled, offset := fitInto(imaging.Crop(img, rect), size, imaging.Linear)

	canvas := imaging.New(size, size, mustColor(ContextBackdropHex))
	canvas = imaging.Paste(canvas, scaled, offset)

	border := image.Rectangle{
		Min: offset.Sub(image.Pt(1, 1)),
		Max: offset.Add(scaled.Bounds().Size()).Add(image.Pt(1, 1)),
	}
	strokeRect(canvas, border, 2, mustColor(ContextBorderHex))
	return encodeBase64(canvas)
}

// fitInto scales src to occupy thumbnailFill of a size x size canvas and
// returns the scaled image with the offset that centers it.
func fitInto(src image.Image, size int, filter imaging.ResampleFilter) (*image.NRGBA, image.Point) {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	scale := math.Min(float64(size)/float64(w), float64(size)/float64(h)) * thumbnailFill

	sw := max(1, int(float64(w)*scale))
	sh := max(1, int(float64(h)*scale))
	scaled := imaging.Resize(src, sw, sh, filter)

	return scaled, image.Pt((size-sw)/2, (size-sh)/2)
}

// strokeRect draws the outline of r with the given line width, clipped to
// the image. The stroke grows inward from r.
func strokeRect(img *image.NRGBA, r image.Rectangle, width int, c color.Color) {
	b := img.Bounds()
	set := func(x, y int) {
		if image.Pt(x, y).In(b) {
			img.Set(x, y, c)
		}
	}
	for i := 0; i < width; i++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			set(x, r.Min.Y+i)
			set(x, r.Max.Y-1-i)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			set(r.Min.X+i, y)
			set(r.Max.X-1-i, y)
		}
	}
}

func encodeBase64(img image.Image) (string, error) {
	res, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	return res.ImageBase64, nil
}
