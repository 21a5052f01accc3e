package card

// ColorScheme names a palette.
type ColorScheme string

const (
	SchemeClassicPunk      ColorScheme = "classic-punk"
	SchemeNeonUnderground  ColorScheme = "neon-underground"
	SchemeVintagePoster    ColorScheme = "vintage-poster"
	SchemePolaroidMemories ColorScheme = "polaroid-memories"
	SchemeCyberpunkGlitch  ColorScheme = "cyberpunk-glitch"
	SchemeHorrorPunk       ColorScheme = "horror-punk"
	SchemeMinimalist       ColorScheme = "minimalist-modern"
	SchemeRiotGrrrl        ColorScheme = "riot-grrrl"
	SchemeNeonPink         ColorScheme = "neon-pink"
	SchemeElectricBlue     ColorScheme = "electric-blue"
	SchemeToxicGreen       ColorScheme = "toxic-green"
	SchemeBloodRed         ColorScheme = "blood-red"
)

// DefaultScheme is used for unknown scheme names.
const DefaultScheme = SchemeClassicPunk

// DefaultAccent is the accent stripe color when a scheme defines none.
const DefaultAccent = "#ff0080"

// Palette holds the resolved colors of a scheme as #rrggbb strings.
type Palette struct {
	Background  string
	Text        string
	Border      string
	Accent      string
	BorderWidth float64
}

var palettes = map[ColorScheme]Palette{
	SchemeClassicPunk:      {"#ffffff", "#000000", "#000000", "#ff0000", 4},
	SchemeNeonUnderground:  {"#000000", "#f472b6", "#f472b6", "#ff0080", 4},
	SchemeVintagePoster:    {"#fffbeb", "#78350f", "#92400e", "#d97706", 4},
	SchemePolaroidMemories: {"#ffffff", "#1f2937", "#9ca3af", "#6b7280", 2},
	SchemeCyberpunkGlitch:  {"#111827", "#22d3ee", "#22d3ee", "#00ffff", 4},
	SchemeHorrorPunk:       {"#111827", "#f87171", "#dc2626", "#dc2626", 4},
	SchemeMinimalist:       {"#f9fafb", "#111827", "#d1d5db", "#374151", 2},
	SchemeRiotGrrrl:        {"#f3e8ff", "#581c87", "#9333ea", "#7c3aed", 4},
	SchemeNeonPink:         {"#000000", "#ec4899", "#ec4899", "#ff0080", 4},
	SchemeElectricBlue:     {"#000000", "#22d3ee", "#22d3ee", "#00ffff", 4},
	SchemeToxicGreen:       {"#000000", "#a3e635", "#a3e635", "#39ff14", 4},
	SchemeBloodRed:         {"#000000", "#ef4444", "#ef4444", "#ff073a", 4},
}

// ParseColorScheme returns the scheme for s, or DefaultScheme.
func ParseColorScheme(s string) ColorScheme {
	c := ColorScheme(normalize(s))
	if _, ok := palettes[c]; ok {
		return c
	}
	return DefaultScheme
}

// Palette resolves the colors of the scheme. Unknown schemes resolve to the
// default palette.
func (c ColorScheme) Palette() Palette {
	if p, ok := palettes[c]; ok {
		return p
	}
	return palettes[DefaultScheme]
}

// ColorSchemes returns every known scheme in a stable order.
func ColorSchemes() []ColorScheme {
	return []ColorScheme{
		SchemeClassicPunk, SchemeNeonUnderground, SchemeVintagePoster,
		SchemePolaroidMemories, SchemeCyberpunkGlitch, SchemeHorrorPunk,
		SchemeMinimalist, SchemeRiotGrrrl, SchemeNeonPink,
		SchemeElectricBlue, SchemeToxicGreen, SchemeBloodRed,
	}
}

func (c ColorScheme) String() string { return string(c) }
func (f FontStyle) String() string   { return string(f) }
func (l Layout) String() string      { return string(l) }
func (b BorderStyle) String() string { return string(b) }
func (s Size) String() string        { return string(s) }
func (p Pattern) String() string     { return string(p) }
func (t TemplateID) String() string  { return string(t) }
