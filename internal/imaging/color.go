package imaging

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Palette colors used when rendering detected shapes.
const (
	HighConfidenceHex   = "#4caf50"
	MediumConfidenceHex = "#ff9800"
	LowConfidenceHex    = "#666666"
	ContextBorderHex    = "#4caf50"
	ContextBackdropHex  = "#f5f5f5"
)

// ConfidenceColor returns the display color for a confidence score as a
// lowercase "#rrggbb" string.
//
//   - above 0.8: green
//   - above 0.6: orange
//   - otherwise: gray
func ConfidenceColor(confidence float64) string {
	switch {
	case confidence > 0.8:
		return HighConfidenceHex
	case confidence > 0.6:
		return MediumConfidenceHex
	default:
		return LowConfidenceHex
	}
}

// ParseHexColor parses "#RRGGBB" or "#RRGGBBAA" into an RGBA color.
// The alpha byte, when present, is applied to the parsed RGB value.
func ParseHexColor(hex string) (color.RGBA, error) {
	if hex == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}

	alpha := uint8(255)
	switch len(hex) {
	case 7, 4:
	case 9:
		var a uint8
		if _, err := fmt.Sscanf(hex[7:], "%02x", &a); err != nil {
			return color.RGBA{}, fmt.Errorf("invalid alpha in %q: %w", hex, err)
		}
		alpha = a
		hex = hex[:7]
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %q", hex)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	// color.RGBA is alpha-premultiplied.
	return color.RGBA{
		R: uint8(uint16(r) * uint16(alpha) / 255),
		G: uint8(uint16(g) * uint16(alpha) / 255),
		B: uint8(uint16(b) * uint16(alpha) / 255),
		A: alpha,
	}, nil
}

// mustColor parses one of the package palette constants.
func mustColor(hex string) color.RGBA {
	c, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

// Hex formats c as "#rrggbb", dropping alpha.
func Hex(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cf.Hex()
}
