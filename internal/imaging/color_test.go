package imaging

import (
	"image/color"
	"testing"
)

func TestConfidenceColor(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{1.0, HighConfidenceHex},
		{0.85, HighConfidenceHex},
		{0.8, MediumConfidenceHex},
		{0.7, MediumConfidenceHex},
		{0.6, LowConfidenceHex},
		{0.3, LowConfidenceHex},
		{0, LowConfidenceHex},
	}

	for _, tt := range tests {
		if got := ConfidenceColor(tt.confidence); got != tt.want {
			t.Errorf("ConfidenceColor(%v) = %s, want %s", tt.confidence, got, tt.want)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		name    string
		hex     string
		want    color.RGBA
		wantErr bool
	}{
		{"six digits", "#4CAF50", color.RGBA{0x4c, 0xaf, 0x50, 255}, false},
		{"lowercase", "#ff9800", color.RGBA{0xff, 0x98, 0x00, 255}, false},
		{"no hash", "666666", color.RGBA{0x66, 0x66, 0x66, 255}, false},
		{"short form", "#fff", color.RGBA{255, 255, 255, 255}, false},
		{"with alpha", "#FF000080", color.RGBA{0x80, 0, 0, 0x80}, false},
		{"empty", "", color.RGBA{}, true},
		{"bad length", "#12345", color.RGBA{}, true},
		{"bad digits", "#GGGGGG", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexColor(tt.hex)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseHexColor(%q) error = %v, wantErr %v", tt.hex, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseHexColor(%q) = %v, want %v", tt.hex, got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	if got := Hex(color.RGBA{0x4c, 0xaf, 0x50, 255}); got != "#4caf50" {
		t.Errorf("Hex = %s, want #4caf50", got)
	}
	if got := Hex(color.RGBA{}); got != "#000000" {
		t.Errorf("Hex(transparent) = %s, want #000000", got)
	}
}

func TestPaletteParses(t *testing.T) {
	for _, hex := range []string{HighConfidenceHex, MediumConfidenceHex, LowConfidenceHex, ContextBorderHex, ContextBackdropHex} {
		if _, err := ParseHexColor(hex); err != nil {
			t.Errorf("palette color %s: %v", hex, err)
		}
	}
}
