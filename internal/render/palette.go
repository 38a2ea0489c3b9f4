package render

import "github.com/diewo77/go-quotes/internal/models"

// Palette is the fixed color scheme of one template variant.
// Inverted swaps the default text/background roles (dark document).
type Palette struct {
	Primary        string
	Dark           string
	Light          string
	Background     string
	HeaderGradient string
	Inverted       bool
}

var palettes = map[models.TemplateVariant]Palette{
	models.VariantClassic: {
		Primary:        "#2563eb",
		Dark:           "#1e3a8a",
		Light:          "#dbeafe",
		Background:     "#ffffff",
		HeaderGradient: "linear-gradient(135deg, #2563eb, #1e3a8a)",
	},
	models.VariantModern: {
		Primary:        "#0d9488",
		Dark:           "#134e4a",
		Light:          "#ccfbf1",
		Background:     "#f8fafc",
		HeaderGradient: "linear-gradient(135deg, #0d9488, #134e4a)",
	},
	models.VariantElegant: {
		Primary:        "#a78bfa",
		Dark:           "#111827",
		Light:          "#312e81",
		Background:     "#1f2937",
		HeaderGradient: "linear-gradient(135deg, #4c1d95, #111827)",
		Inverted:       true,
	},
	models.VariantCreative: {
		Primary:        "#ea580c",
		Dark:           "#7c2d12",
		Light:          "#ffedd5",
		Background:     "#fffbeb",
		HeaderGradient: "linear-gradient(135deg, #f97316, #db2777)",
	},
	models.VariantMinimalist: {
		Primary:        "#404040",
		Dark:           "#171717",
		Light:          "#f5f5f5",
		Background:     "#ffffff",
		HeaderGradient: "linear-gradient(135deg, #525252, #171717)",
	},
}

// PaletteFor returns the palette of a variant.
// Unknown values fall back to the classic palette, never an error.
func PaletteFor(variant models.TemplateVariant) Palette {
	if p, ok := palettes[variant]; ok {
		return p
	}
	return palettes[models.VariantClassic]
}
