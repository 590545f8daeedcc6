package main

import (
	"encoding/base64"
	"fmt"
	"image"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/roadshape-mcp/internal/detection"
	"github.com/ironsheep/roadshape-mcp/internal/imaging"
)

var (
	detectMinArea       float64
	detectMaxArea       float64
	detectMinConfidence float64
	detectMaxShapes     int
	detectTextDetector  string
	detectNoThumbnails  bool
	detectAnnotate      string
)

var detectCmd = &cobra.Command{
	Use:   "detect <image>",
	Short: "Detect and classify road shapes in a map image",
	Long: `Detect and classify road shapes in a map image and print the result.

Flags override the matching config keys for this run only.

Examples:
  roadshape-mcp detect map.png
  roadshape-mcp detect map.png --max-shapes 5 --no-thumbnails -o yaml
  roadshape-mcp detect map.png --text-detector heuristic --annotate out.png`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, logger, err := loadConfig()
		if err != nil {
			return err
		}

		cfg := *mgr.Get()
		flags := cmd.Flags()
		if flags.Changed("min-area") {
			cfg.Detection.MinArea = detectMinArea
		}
		if flags.Changed("max-area") {
			cfg.Detection.MaxArea = detectMaxArea
		}
		if flags.Changed("min-confidence") {
			cfg.Detection.MinConfidence = detectMinConfidence
		}
		if flags.Changed("max-shapes") {
			cfg.Detection.MaxShapes = detectMaxShapes
		}
		if flags.Changed("text-detector") {
			cfg.Detection.TextDetector = detectTextDetector
		}
		if detectNoThumbnails {
			cfg.Detection.Thumbnails = false
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		img, err := imaging.NewImageCache().Load(args[0])
		if err != nil {
			return err
		}

		res, err := detection.DetectRoadShapes(cmd.Context(), img, cfg.DetectionOptions(logger))
		if err != nil {
			return fmt.Errorf("detection failed, try a clearer image: %w", err)
		}
		logger.Info("road shapes detected", "path", args[0], "shapes", res.Count, "contours", res.ContoursFound)

		if detectAnnotate != "" {
			if err := writeAnnotated(detectAnnotate, img, res.Shapes); err != nil {
				return err
			}
			logger.Info("annotated image written", "path", detectAnnotate)
		}

		return writeOutput(cmd.OutOrStdout(), outputFormat, res)
	},
}

func writeAnnotated(path string, img image.Image, shapes []detection.RoadShape) error {
	out, err := imaging.Annotate(img, detection.Annotations(shapes))
	if err != nil {
		return err
	}
	data, err := base64.StdEncoding.DecodeString(out.ImageBase64)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func init() {
	f := detectCmd.Flags()
	f.Float64Var(&detectMinArea, "min-area", detection.DefaultMinArea, "smallest contour area kept, in square pixels")
	f.Float64Var(&detectMaxArea, "max-area", detection.DefaultMaxArea, "largest contour area kept, in square pixels")
	f.Float64Var(&detectMinConfidence, "min-confidence", detection.DefaultMinConfidence, "drop shapes classified below this confidence")
	f.IntVar(&detectMaxShapes, "max-shapes", 0, "return at most this many shapes (0 = unlimited)")
	f.StringVar(&detectTextDetector, "text-detector", "tesseract", "label masking: none, tesseract or heuristic")
	f.BoolVar(&detectNoThumbnails, "no-thumbnails", false, "skip thumbnail rendering")
	f.StringVar(&detectAnnotate, "annotate", "", "also write an annotated PNG to this path")
}
