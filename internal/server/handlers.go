package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/roadshape-mcp/internal/classify"
	"github.com/ironsheep/roadshape-mcp/internal/config"
	"github.com/ironsheep/roadshape-mcp/internal/detection"
	"github.com/ironsheep/roadshape-mcp/internal/imaging"
	"github.com/ironsheep/roadshape-mcp/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "roadshape_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errInvalidArguments marks handler errors caused by the caller's input
// rather than by the image or the environment.
var errInvalidArguments = errors.New("invalid arguments")

// ToolFailure is the data attached to a -32000 tool error. Failures are
// never fatal to the server; the same call may succeed on a better image.
type ToolFailure struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
	Hint      string `json:"hint,omitempty"`
	CallID    string `json:"call_id"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Arguments that fail the tool's input schema, and values a handler
// rejects, return -32602. Execution errors return -32000 with a ToolFailure.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	callID := uuid.New().String()
	logger := s.logger.With("call_id", callID, "tool", params.Name)

	if err := s.validateArguments(params.Name, params.Arguments); err != nil {
		logger.Warn("rejected tool call", "error", err)
		return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, logger, params.Name, params.Arguments)
	if err != nil {
		logger.Warn("tool failed", "error", err, "duration", time.Since(start))
		if errors.Is(err, errInvalidArguments) {
			return s.errorResponse(req.ID, CodeInvalidParams, "Invalid params", err.Error())
		}
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    CodeToolFailed,
				Message: "Tool execution failed",
				Data: ToolFailure{
					Error:     err.Error(),
					Retryable: !errors.Is(err, context.Canceled),
					Hint:      failureHint(err),
					CallID:    callID,
				},
			},
		}
	}
	logger.Info("tool call", "duration", time.Since(start))

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, ocr.ErrUnavailable):
		return "Tesseract is not available; install it or use the heuristic detector"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ""
	default:
		return "try a clearer image"
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies per-call overrides on top of the current config
//  3. Loads images from cache as needed
//  4. Calls the appropriate classify/detection/imaging/ocr function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, logger *slog.Logger, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)

	// Road Shape Detection
	case "roadshape_detect":
		return s.handleRoadshapeDetect(ctx, logger, args)
	case "roadshape_classify":
		return s.handleRoadshapeClassify(args)
	case "roadshape_rules":
		return s.handleRoadshapeRules()
	case "roadshape_mask":
		return s.handleRoadshapeMask(logger, args)
	case "roadshape_annotate":
		return s.handleRoadshapeAnnotate(ctx, logger, args)

	// Map Labels
	case "image_detect_text_regions":
		return s.handleImageDetectTextRegions(args)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidArguments, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func decodeArgs(args json.RawMessage, v interface{}) error {
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return nil
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Road Shape Handlers ===

// detectArgs holds the optional per-call overrides of the detection config.
type detectArgs struct {
	Path          string   `json:"path"`
	MinArea       *float64 `json:"min_area"`
	MaxArea       *float64 `json:"max_area"`
	MinConfidence *float64 `json:"min_confidence"`
	MaxShapes     *int     `json:"max_shapes"`
	TextDetector  string   `json:"text_detector"`
	Thumbnails    *bool    `json:"thumbnails"`
	ThumbnailSize *int     `json:"thumbnail_size"`
}

// overlay returns a copy of base with the overrides in a applied.
func (a detectArgs) overlay(base *config.Config) (*config.Config, error) {
	cfg := *base
	d := &cfg.Detection
	if a.MinArea != nil {
		d.MinArea = *a.MinArea
	}
	if a.MaxArea != nil {
		d.MaxArea = *a.MaxArea
	}
	if a.MinConfidence != nil {
		d.MinConfidence = *a.MinConfidence
	}
	if a.MaxShapes != nil {
		d.MaxShapes = *a.MaxShapes
	}
	if a.TextDetector != "" {
		d.TextDetector = a.TextDetector
	}
	if a.Thumbnails != nil {
		d.Thumbnails = *a.Thumbnails
	}
	if a.ThumbnailSize != nil {
		d.ThumbnailSize = *a.ThumbnailSize
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
	}
	return &cfg, nil
}

func (s *Server) detect(ctx context.Context, logger *slog.Logger, a detectArgs) (*detection.RoadShapesResult, error) {
	cfg, err := a.overlay(s.settings())
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	res, err := detection.DetectRoadShapes(ctx, img, cfg.DetectionOptions(logger))
	if err != nil {
		return nil, err
	}
	logger.Debug("road shapes detected",
		"path", a.Path,
		"contours", res.ContoursFound,
		"shapes", res.Count,
		"labels_masked", res.LabelsMasked)
	return res, nil
}

func (s *Server) handleRoadshapeDetect(ctx context.Context, logger *slog.Logger, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.detect(ctx, logger, a)
}

type annotateResult struct {
	*imaging.ImageResult
	ShapeCount int `json:"shape_count"`
}

func (s *Server) handleRoadshapeAnnotate(ctx context.Context, logger *slog.Logger, args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	noThumbnails := false
	a.Thumbnails = &noThumbnails

	res, err := s.detect(ctx, logger, a)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	out, err := imaging.Annotate(img, detection.Annotations(res.Shapes))
	if err != nil {
		return nil, err
	}
	return &annotateResult{ImageResult: out, ShapeCount: res.Count}, nil
}

type classifyArgs struct {
	Area        float64  `json:"area"`
	Perimeter   float64  `json:"perimeter"`
	AspectRatio float64  `json:"aspect_ratio"`
	Solidity    float64  `json:"solidity"`
	Extent      float64  `json:"extent"`
	Vertices    int      `json:"vertices"`
	IsConvex    bool     `json:"is_convex"`
	Complexity  *float64 `json:"complexity"`
}

type classifyResult struct {
	classify.Classification
	Rule  string `json:"rule"`
	Color string `json:"color"`
}

func (s *Server) handleRoadshapeClassify(args json.RawMessage) (interface{}, error) {
	var a classifyArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	g := classify.ShapeGeometry{
		Area:        a.Area,
		Perimeter:   a.Perimeter,
		AspectRatio: a.AspectRatio,
		Solidity:    a.Solidity,
		Extent:      a.Extent,
		Vertices:    a.Vertices,
		IsConvex:    a.IsConvex,
		Complexity:  1 - a.Solidity,
	}
	if a.Complexity != nil {
		g.Complexity = *a.Complexity
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidArguments, err)
	}

	c := classify.Classify(g)
	rule := "fallback"
	if i := classify.Match(g); i >= 0 {
		rule = classify.Rules[i].Name
	}
	return &classifyResult{
		Classification: c,
		Rule:           rule,
		Color:          imaging.ConfidenceColor(c.Confidence),
	}, nil
}

func (s *Server) handleRoadshapeRules() (interface{}, error) {
	return &ruleListing{
		Rules:              classify.Rules,
		Fallback:           classify.Fallback,
		LargeAreaThreshold: classify.LargeAreaThreshold,
		LargeAreaBoost:     classify.LargeAreaBoost,
	}, nil
}

type maskArgs struct {
	Path     string `json:"path"`
	MaskText bool   `json:"mask_text"`
}

type maskResult struct {
	*imaging.ImageResult
	RoadCoverage float64 `json:"road_coverage"`
	LabelsMasked int     `json:"labels_masked"`
}

func (s *Server) handleRoadshapeMask(logger *slog.Logger, args json.RawMessage) (interface{}, error) {
	var a maskArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := s.settings()
	opts := cfg.MaskOptions()
	if a.MaskText {
		if td := cfg.DetectionOptions(logger).TextDetector; td != nil {
			rects, err := td.DetectTextRegions(img)
			if err != nil {
				logger.Warn("label masking skipped", "error", err)
			}
			opts.Exclude = rects
		}
	}

	mask := imaging.ExtractRoadMask(img, opts)
	out, err := imaging.EncodePNG(mask)
	if err != nil {
		return nil, err
	}
	return &maskResult{
		ImageResult:  out,
		RoadCoverage: imaging.RoadCoverage(mask),
		LabelsMasked: len(opts.Exclude),
	}, nil
}

// === Map Label Handlers ===

type imageDetectTextRegionsArgs struct {
	Path          string   `json:"path"`
	MinConfidence *float64 `json:"min_confidence"`
	Detector      string   `json:"detector"`
	Language      string   `json:"language"`
}

func (s *Server) handleImageDetectTextRegions(args json.RawMessage) (interface{}, error) {
	var a imageDetectTextRegionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	cfg := s.settings()
	minConfidence := cfg.OCR.MinConfidence
	if a.MinConfidence != nil {
		minConfidence = *a.MinConfidence
	}

	if a.Detector == config.TextDetectorHeuristic {
		return detection.DetectLabelRegions(img, minConfidence), nil
	}

	d := cfg.OCRDetector()
	d.MinConfidence = minConfidence
	if a.Language != "" {
		d.Language = a.Language
	}
	return d.Detect(img)
}
