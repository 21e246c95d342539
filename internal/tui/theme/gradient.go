package theme

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ApplyGradient colors a line of text with a left-to-right blend between
// two hex colors. Used for the logo.
func ApplyGradient(text, from, to string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return text
	}

	var b strings.Builder
	for i, r := range runes {
		pos := 0.0
		if len(runes) > 1 {
			pos = float64(i) / float64(len(runes)-1)
		}
		color := interpolate(from, to, pos)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(r)))
	}
	return b.String()
}

// interpolate blends between two hex colors based on position (0.0 to 1.0).
func interpolate(colorA, colorB string, pos float64) string {
	r1, g1, b1 := parseHex(colorA)
	r2, g2, b2 := parseHex(colorB)

	r := uint8(float64(r1)*(1-pos) + float64(r2)*pos)
	g := uint8(float64(g1)*(1-pos) + float64(g2)*pos)
	b := uint8(float64(b1)*(1-pos) + float64(b2)*pos)

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func parseHex(hex string) (uint8, uint8, uint8) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b uint8
	if len(hex) == 6 {
		_, _ = fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	}
	return r, g, b
}
