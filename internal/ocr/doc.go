// Package ocr finds map labels using Tesseract.
//
// Street names and place labels are drawn in the same dark ink as roads, so
// the road mask picks them up as small blobs that can merge with nearby
// roads. This package locates those labels so the detection pipeline can
// blank them out before tracing contours.
//
// # Prerequisites
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set TESSDATA_PREFIX, or Detector.TessdataPrefix, when the language data
// lives outside Tesseract's compiled-in path.
//
// # Error Handling
//
// Every failure that originates in Tesseract wraps ErrUnavailable. Label
// masking is optional, so callers usually log such errors and carry on:
//
//	rects, err := detector.DetectTextRegions(img)
//	if errors.Is(err, ocr.ErrUnavailable) {
//	    logger.Warn("label masking skipped", "error", err)
//	}
package ocr
