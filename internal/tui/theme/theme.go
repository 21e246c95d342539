package theme

import "sync"

// Theme defines the color palette for the TUI.
type Theme struct {
	Name   string
	IsDark bool

	// Semantic colors
	Primary   string // lipgloss.Color is a string type
	Secondary string

	// Background hierarchy
	BgBase     string
	BgSurface0 string
	BgSurface1 string

	// Foreground hierarchy (dim→bright)
	FgMuted  string
	FgSubtle string
	FgBase   string

	// Status colors
	Success string
	Warning string
	Error   string
}

// NewDark creates the default dark theme (Catppuccin Mocha).
func NewDark() *Theme {
	return &Theme{
		Name:   "dark",
		IsDark: true,

		Primary:   "#cba6f7", // Mauve
		Secondary: "#b4befe", // Lavender

		BgBase:     "#1e1e2e",
		BgSurface0: "#313244",
		BgSurface1: "#45475a",

		FgMuted:  "#6c7086",
		FgSubtle: "#a6adc8",
		FgBase:   "#cdd6f4",

		Success: "#a6e3a1",
		Warning: "#f9e2af",
		Error:   "#f38ba8",
	}
}

// NewLight creates the light theme (Catppuccin Latte).
func NewLight() *Theme {
	return &Theme{
		Name:   "light",
		IsDark: false,

		Primary:   "#8839ef", // Mauve
		Secondary: "#7287fd", // Lavender

		BgBase:     "#eff1f5",
		BgSurface0: "#ccd0da",
		BgSurface1: "#bcc0cc",

		FgMuted:  "#9ca0b0",
		FgSubtle: "#6c6f85",
		FgBase:   "#4c4f69",

		Success: "#40a02b",
		Warning: "#df8e1d",
		Error:   "#d20f39",
	}
}

var (
	mu      sync.RWMutex
	current = NewDark()
)

// Current returns the active theme.
func Current() *Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetDark switches the active theme between dark and light.
func SetDark(dark bool) {
	mu.Lock()
	defer mu.Unlock()
	if dark {
		current = NewDark()
	} else {
		current = NewLight()
	}
}
