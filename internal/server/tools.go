package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ironsheep/roadshape-mcp/internal/classify"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"minLength":   1,
	"description": "Absolute path to the map image file",
}

// detectionProperties are the per-call overrides shared by the detection tools.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty,
		"min_area": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"description": "Smallest contour area kept, in square pixels. Default from config (800)",
		},
		"max_area": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"description": "Largest contour area kept, in square pixels. Default from config (80000)",
		},
		"min_confidence": map[string]interface{}{
			"type":        "number",
			"minimum":     0,
			"maximum":     1,
			"description": "Drop shapes classified below this confidence. Default from config (0.5)",
		},
		"max_shapes": map[string]interface{}{
			"type":        "integer",
			"minimum":     0,
			"description": "Return at most this many shapes, best first. 0 means unlimited",
		},
		"text_detector": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"none", "tesseract", "heuristic"},
			"description": "How map labels are masked before tracing. Default from config (tesseract)",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detectProps := detectionProperties()
	detectProps["thumbnails"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Render shape and context thumbnails for each result. Default true",
	}
	detectProps["thumbnail_size"] = map[string]interface{}{
		"type":        "integer",
		"minimum":     16,
		"maximum":     1024,
		"description": "Thumbnail edge length in pixels. Default 120",
	}

	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load a map image and return its dimensions and format. The image stays cached for subsequent tool calls on the same path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Road Shape Detection
		{
			Name:        "roadshape_detect",
			Description: "Find closed road formations (blocks, loops, roundabouts, star intersections) in a map image and classify each by shape. Results are sorted best first and include geometry, a confidence color and optional thumbnails.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectProps,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "roadshape_classify",
			Description: "Classify a shape from its measured geometry using the ordered rule table. Useful to test how a measurement would be labeled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"area": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"description": "Contour area in square pixels",
					},
					"perimeter": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"description": "Closed contour length in pixels",
					},
					"aspect_ratio": map[string]interface{}{
						"type":             "number",
						"exclusiveMinimum": 0,
						"description":      "Bounding box width divided by height",
					},
					"solidity": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Area divided by convex hull area",
					},
					"extent": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Area divided by bounding box area",
					},
					"vertices": map[string]interface{}{
						"type":        "integer",
						"minimum":     0,
						"description": "Corner count after polygon simplification",
					},
					"is_convex": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether the simplified contour is convex",
					},
					"complexity": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Optional. Defaults to 1 - solidity",
					},
				},
				"required": []string{"area", "aspect_ratio", "solidity", "extent", "vertices", "is_convex"},
			},
		},
		{
			Name:        "roadshape_rules",
			Description: "List the classification rules in evaluation order. The first rule whose condition holds decides the shape type.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "roadshape_mask",
			Description: "Return the binary road mask used for detection as a base64-encoded PNG (white roads on black), with the fraction of the image covered by road.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"mask_text": map[string]interface{}{
						"type":        "boolean",
						"description": "Blank out detected map labels before returning the mask. Default false",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "roadshape_annotate",
			Description: "Detect road shapes and return the map with each shape's bounding box and label drawn in its confidence color, as a base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},

		// Map Labels
		{
			Name:        "image_detect_text_regions",
			Description: "Find map label regions. The tesseract detector also returns the recognized text; the heuristic detector works without Tesseract installed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"minimum":     0,
						"maximum":     1,
						"description": "Minimum confidence threshold (0-1). Default from config",
					},
					"detector": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"tesseract", "heuristic"},
						"description": "Label detector to use. Default tesseract",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, e.g. eng. Default from config",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// compileSchemas compiles every tool's input schema, keyed by tool name.
func compileSchemas(tools []Tool) (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	for _, tool := range tools {
		b, err := json.Marshal(tool.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize %s schema: %w", tool.Name, err)
		}
		if err := compiler.AddResource(tool.Name+".json", bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("failed to load %s schema: %w", tool.Name, err)
		}
	}

	schemas := make(map[string]*jsonschema.Schema, len(tools))
	for _, tool := range tools {
		schema, err := compiler.Compile(tool.Name + ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s schema: %w", tool.Name, err)
		}
		schemas[tool.Name] = schema
	}
	return schemas, nil
}

// validateArguments checks args against the named tool's input schema.
// Missing arguments are treated as an empty object.
func (s *Server) validateArguments(name string, args json.RawMessage) error {
	schema, ok := s.schemas[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	var doc any = map[string]any{}
	if len(bytes.TrimSpace(args)) > 0 && !bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		if err := json.Unmarshal(args, &doc); err != nil {
			return fmt.Errorf("arguments are not valid JSON: %w", err)
		}
	}

	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("arguments do not match %s schema: %w", name, err)
	}
	return nil
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}

// ruleListing is the roadshape_rules result.
type ruleListing struct {
	Rules    []classify.Rule         `json:"rules"`
	Fallback classify.Classification `json:"fallback"`

	LargeAreaThreshold float64 `json:"large_area_threshold"`
	LargeAreaBoost     float64 `json:"large_area_boost"`
}
