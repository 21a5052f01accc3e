// Package fonts provides the typefaces used to draw memory cards and the
// metrics used to lay text out before it is painted.
//
// Every card font style maps to an embedded Go font family so rendering never
// depends on fonts installed on the host.
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/digitorus/memorycard/card"
)

// StandardType represents standard PDF fonts that are available in all PDF readers
// without embedding.
type StandardType int

const (
	// Helvetica is the standard sans-serif font.
	Helvetica StandardType = iota
	// HelveticaBold is bold Helvetica.
	HelveticaBold
	// Courier is the standard monospace font.
	Courier
	// CourierBold is bold Courier.
	CourierBold
)

// CourierAdvance is the advance width of every Courier glyph in em units.
const CourierAdvance = 0.6

// Font represents a typeface that can be measured and rasterized.
type Font struct {
	Name     string   // PostScript name of the font
	Data     []byte   // TrueType font data (nil for standard fonts)
	Hash     string   // SHA256 hash of font data for deduplication
	Embedded bool     // Whether the font data is available for rasterization
	Metrics  *Metrics // Parsed metrics for accurate text measurement
}

// Standard returns a Font for a standard PDF font (no embedding required).
// These fonts are guaranteed to be available in all PDF readers.
func Standard(ft StandardType) *Font {
	names := map[StandardType]string{
		Helvetica:     "Helvetica",
		HelveticaBold: "Helvetica-Bold",
		Courier:       "Courier",
		CourierBold:   "Courier-Bold",
	}
	return &Font{Name: names[ft], Embedded: false}
}

// Parse loads a TrueType font and its metrics.
func Parse(name string, data []byte) (*Font, error) {
	m, err := ParseTTFMetrics(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	return &Font{
		Name:     name,
		Data:     data,
		Hash:     hex.EncodeToString(sum[:]),
		Embedded: true,
		Metrics:  m,
	}, nil
}

// Face returns a rasterizer face at the given pixel size. Faces are not safe
// for concurrent use; create one per painter.
func (f *Font) Face(size float64) (font.Face, error) {
	if f == nil || f.Metrics == nil || f.Metrics.font == nil {
		return nil, fmt.Errorf("font %q has no outlines", f.name())
	}
	return opentype.NewFace(f.Metrics.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// HasGlyph reports whether the font can draw r.
func (f *Font) HasGlyph(r rune) bool {
	if f == nil || f.Metrics == nil || f.Metrics.font == nil {
		return false
	}
	idx, err := f.Metrics.font.GlyphIndex(nil, r)
	return err == nil && idx != 0
}

// Width returns the width of text in pixels at the given size.
func (f *Font) Width(text string, size float64) float64 {
	if f == nil || f.Metrics == nil {
		// standard fonts are only used for monospaced sheets
		return float64(len([]rune(text))) * size * CourierAdvance
	}
	return f.Metrics.GetStringWidth(text, size)
}

func (f *Font) name() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Metrics contains parsed font metrics for accurate text measurement.
type Metrics struct {
	UnitsPerEm  int
	Ascent      float64      // in em units
	Descent     float64      // in em units, positive
	GlyphWidths map[rune]int // Advance widths in font units
	font        *sfnt.Font
}

// ParseTTFMetrics parses a TrueType font file and extracts glyph metrics.
// This enables accurate text width calculations for layout.
func ParseTTFMetrics(data []byte) (*Metrics, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, err
	}

	unitsPerEm := f.UnitsPerEm()

	// Pre-populate common ASCII characters
	glyphWidths := make(map[rune]int)
	var buf sfnt.Buffer

	// Use unitsPerEm as the ppem for consistent scaling
	ppem := fixed.Int26_6(unitsPerEm) << 6 // Convert to 26.6 fixed point

	for r := rune(32); r <= rune(255); r++ {
		if w, ok := advance(f, &buf, r, ppem); ok {
			glyphWidths[r] = w
		}
	}

	m := &Metrics{
		UnitsPerEm:  int(unitsPerEm),
		GlyphWidths: glyphWidths,
		font:        f,
	}
	if fm, err := f.Metrics(&buf, ppem, font.HintingNone); err == nil {
		m.Ascent = float64(fm.Ascent.Round()) / float64(unitsPerEm)
		m.Descent = float64(fm.Descent.Round()) / float64(unitsPerEm)
	} else {
		m.Ascent, m.Descent = 0.8, 0.2
	}
	return m, nil
}

func advance(f *sfnt.Font, buf *sfnt.Buffer, r rune, ppem fixed.Int26_6) (int, bool) {
	idx, err := f.GlyphIndex(buf, r)
	if err != nil || idx == 0 {
		return 0, false
	}
	a, err := f.GlyphAdvance(buf, idx, ppem, font.HintingNone)
	if err != nil {
		return 0, false
	}
	// advance is in 26.6 fixed point, convert to int (round)
	return a.Round(), true
}

// GetStringWidth calculates the width of a string at the given font size.
func (m *Metrics) GetStringWidth(text string, fontSize float64) float64 {
	if m == nil || m.UnitsPerEm == 0 {
		// Fallback to approximation
		return float64(len([]rune(text))) * fontSize * 0.5
	}

	var totalWidth int
	for _, r := range text {
		totalWidth += m.GetGlyphWidth(r)
	}

	// width = (width_in_units / unitsPerEm) * fontSize
	return (float64(totalWidth) / float64(m.UnitsPerEm)) * fontSize
}

// GetGlyphWidth returns the width of a single rune in font units.
func (m *Metrics) GetGlyphWidth(r rune) int {
	if m == nil {
		return 0
	}
	if width, ok := m.GlyphWidths[r]; ok {
		return width
	}
	if m.font != nil {
		var buf sfnt.Buffer
		if w, ok := advance(m.font, &buf, r, fixed.Int26_6(m.UnitsPerEm)<<6); ok {
			return w
		}
	}
	return m.UnitsPerEm / 2 // Default
}

// LineHeight returns the distance between baselines at the given size.
func (m *Metrics) LineHeight(fontSize float64) float64 {
	if m == nil || m.Ascent+m.Descent == 0 {
		return fontSize * 1.2
	}
	return (m.Ascent + m.Descent) * fontSize
}

// Family is a regular and a bold weight of the same typeface.
type Family struct {
	Regular *Font
	Bold    *Font
}

// Pick returns the bold or the regular weight.
func (fam Family) Pick(bold bool) *Font {
	if bold && fam.Bold != nil {
		return fam.Bold
	}
	return fam.Regular
}

// Set resolves card font styles to families.
type Set struct {
	families map[card.FontStyle]Family
}

var builtin = []struct {
	style         card.FontStyle
	regular, bold string
}{
	{card.FontTypewriter, "GoMono", "GoMono-Bold"},
	{card.FontZine, "GoBold", "GoBold"},
	{card.FontHandwritten, "GoItalic", "GoBoldItalic"},
	{card.FontCreepy, "GoBoldItalic", "GoBoldItalic"},
	{card.FontMono, "GoMono", "GoMono-Bold"},
}

var builtinData = map[string][]byte{
	"GoRegular":    goregular.TTF,
	"GoBold":       gobold.TTF,
	"GoItalic":     goitalic.TTF,
	"GoBoldItalic": gobolditalic.TTF,
	"GoMono":       gomono.TTF,
	"GoMono-Bold":  gomonobold.TTF,
}

// Default parses the embedded Go fonts into a Set. Parsing happens once per
// call; callers keep the result.
func Default() (*Set, error) {
	parsed := make(map[string]*Font)
	load := func(name string) (*Font, error) {
		if f, ok := parsed[name]; ok {
			return f, nil
		}
		f, err := Parse(name, builtinData[name])
		if err != nil {
			return nil, err
		}
		parsed[name] = f
		return f, nil
	}

	s := &Set{families: make(map[card.FontStyle]Family)}
	for _, b := range builtin {
		r, err := load(b.regular)
		if err != nil {
			return nil, err
		}
		bd, err := load(b.bold)
		if err != nil {
			return nil, err
		}
		s.families[b.style] = Family{Regular: r, Bold: bd}
	}
	return s, nil
}

// MustDefault is like Default but panics on error. The embedded fonts are
// known to parse.
func MustDefault() *Set {
	s, err := Default()
	if err != nil {
		panic(err)
	}
	return s
}

// Family returns the family for a style, falling back to the default style.
func (s *Set) Family(style card.FontStyle) Family {
	if fam, ok := s.families[style]; ok {
		return fam
	}
	return s.families[card.DefaultFont]
}

// Lookup returns the font with the given PostScript name.
func (s *Set) Lookup(name string) (*Font, bool) {
	for _, fam := range s.families {
		for _, f := range []*Font{fam.Regular, fam.Bold} {
			if f != nil && f.Name == name {
				return f, true
			}
		}
	}
	return nil, false
}
