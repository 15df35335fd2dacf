package render

// Glyph ramps from empty to full. The first rune of every ramp is a space.
var (
	blocksPalette = []rune(" ▁▂▃▄▅▆▇█")
	shadePalette  = []rune(" ░▒▓█")
	asciiPalette  = []rune(" .:-=+*#%@")
)

// Palette returns the glyph ramp for name; unknown names get the block ramp.
func Palette(name string) []rune {
	switch name {
	case "shade":
		return shadePalette
	case "ascii":
		return asciiPalette
	default:
		return blocksPalette
	}
}

// PaletteNames returns all palette identifiers.
func PaletteNames() []string {
	return []string{"blocks", "shade", "ascii"}
}
