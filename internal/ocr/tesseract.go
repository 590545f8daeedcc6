package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// ErrUnavailable wraps every failure that comes from Tesseract itself
// (missing library, missing language data, engine errors). Callers that
// treat label masking as optional check for it with errors.Is.
var ErrUnavailable = errors.New("tesseract unavailable")

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// Bounds represents a rectangular bounding box in pixel coordinates.
type Bounds struct {
	X1 int `json:"x1"` // Left edge
	Y1 int `json:"y1"` // Top edge
	X2 int `json:"x2"` // Right edge
	Y2 int `json:"y2"` // Bottom edge
}

// Rect converts b to an image.Rectangle.
func (b Bounds) Rect() image.Rectangle {
	return image.Rect(b.X1, b.Y1, b.X2, b.Y2)
}

// TextRegion is one block of map label text.
type TextRegion struct {
	// Bounds is the bounding box around the block, in source image
	// coordinates.
	Bounds Bounds `json:"bounds"`

	// Text is the recognized content, trimmed. May be empty when Tesseract
	// finds a block but cannot read it.
	Text string `json:"text,omitempty"`

	// Confidence is Tesseract's confidence for the block (0.0 to 1.0).
	Confidence float64 `json:"confidence"`
}

// DetectTextRegionsResult contains the label blocks found in an image.
type DetectTextRegionsResult struct {
	// Regions is the list of detected text regions.
	Regions []TextRegion `json:"regions"`

	// Count is the number of text regions detected.
	Count int `json:"count"`
}

// Detector finds map labels with Tesseract.
//
// A Detector holds only settings; each call opens its own Tesseract client,
// so one Detector may be shared between goroutines.
type Detector struct {
	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// MinConfidence drops blocks scoring below it (0.0 to 1.0).
	MinConfidence float64

	// TessdataPrefix overrides the directory holding *.traineddata files.
	// Empty uses Tesseract's default lookup (TESSDATA_PREFIX or the
	// compiled-in path).
	TessdataPrefix string
}

// NewDetector returns a Detector for language that keeps blocks scoring
// at least minConfidence. An empty language means DefaultLanguage.
func NewDetector(language string, minConfidence float64) *Detector {
	if language == "" {
		language = DefaultLanguage
	}
	return &Detector{Language: language, MinConfidence: minConfidence}
}

// Detect finds text blocks in img.
//
// The image is handed to Tesseract as an in-memory PNG, so no temporary
// files are written. Detection runs at block level (RIL_BLOCK), which groups
// a multi-word street name into one region.
//
// # Errors
//
// Failures inside Tesseract wrap ErrUnavailable. Encoding failures do not.
func (d *Detector) Detect(img image.Image) (*DetectTextRegionsResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image for OCR: %w", err)
	}

	client, err := d.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("%w: failed to set image: %v", ErrUnavailable, err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get text regions: %v", ErrUnavailable, err)
	}

	// The PNG round trip resets the origin to (0,0).
	origin := img.Bounds().Min
	regions := make([]TextRegion, 0, len(boxes))
	for _, box := range boxes {
		confidence := float64(box.Confidence) / 100.0
		if confidence < d.MinConfidence {
			continue
		}
		r := box.Box.Add(origin)
		regions = append(regions, TextRegion{
			Bounds: Bounds{
				X1: r.Min.X,
				Y1: r.Min.Y,
				X2: r.Max.X,
				Y2: r.Max.Y,
			},
			Text:       strings.TrimSpace(box.Word),
			Confidence: confidence,
		})
	}

	return &DetectTextRegionsResult{
		Regions: regions,
		Count:   len(regions),
	}, nil
}

// DetectTextRegions returns the bounding boxes of the label blocks in img,
// in source image coordinates. It lets a Detector mask labels out of the
// road mask before contour tracing.
func (d *Detector) DetectTextRegions(img image.Image) ([]image.Rectangle, error) {
	res, err := d.Detect(img)
	if err != nil {
		return nil, err
	}
	rects := make([]image.Rectangle, 0, len(res.Regions))
	for _, r := range res.Regions {
		rects = append(rects, r.Bounds.Rect())
	}
	return rects, nil
}

func (d *Detector) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if d.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(d.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set tessdata prefix: %v", ErrUnavailable, err)
		}
	}

	language := d.Language
	if language == "" {
		language = DefaultLanguage
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrUnavailable, err)
	}
	return client, nil
}

// Info describes the OCR subsystem.
type Info struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language"`
	Error     string `json:"error,omitempty"`
}

// Probe checks that Tesseract can load the detector's language by running
// it on a blank image.
func (d *Detector) Probe() Info {
	info := Info{Language: d.Language}

	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	if _, err := d.Detect(blank); err != nil {
		info.Error = err.Error()
		return info
	}

	client := gosseract.NewClient()
	defer client.Close()
	info.Available = true
	info.Version = client.Version()
	return info
}
