package layout

import (
	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/internal/render"
)

// Card geometry in CSS pixels.
const (
	ClassicWidth   = 448.0
	ClassicPadding = 24.0
	ZineWidth      = 696.0
	ZineMinHeight  = 900.0
	ZinePadding    = 32.0
	AccentHeight   = 8.0
)

// Line height factors.
const (
	leadingTight   = 1.25
	leadingRelaxed = 1.625
)

// classicSizes are the font sizes of the classic card, keyed by text size.
type classicSizes struct {
	Title, Label, Meta, Body float64
}

var classicText = map[card.Size]classicSizes{
	card.SizeSmall:  {Title: 20, Label: 12, Meta: 12, Body: 11},
	card.SizeMedium: {Title: 24, Label: 14, Meta: 14, Body: 12},
	card.SizeLarge:  {Title: 30, Label: 16, Meta: 16, Body: 14},
}

// zineSizes are the font sizes of the zine card, keyed by text size.
type zineSizes struct {
	Title, Heading, Value, Intensity, Chip, Body, Notes float64
}

var zineText = map[card.Size]zineSizes{
	card.SizeSmall:  {Title: 30, Heading: 16, Value: 18, Intensity: 36, Chip: 12, Body: 12, Notes: 12},
	card.SizeMedium: {Title: 36, Heading: 18, Value: 20, Intensity: 60, Chip: 12, Body: 14, Notes: 14},
	card.SizeLarge:  {Title: 48, Heading: 20, Value: 24, Intensity: 96, Chip: 14, Body: 14, Notes: 16},
}

func classicTextFor(s card.Size) classicSizes {
	if v, ok := classicText[s]; ok {
		return v
	}
	return classicText[card.DefaultSize]
}

func zineTextFor(s card.Size) zineSizes {
	if v, ok := zineText[s]; ok {
		return v
	}
	return zineText[card.DefaultSize]
}

// PhotoGrid describes how photos are laid out for a photo size.
type PhotoGrid struct {
	Max     int
	Columns int
	Height  float64
}

var photoGrids = map[card.Size]PhotoGrid{
	card.SizeLarge:  {Max: 2, Columns: 1, Height: 192},
	card.SizeMedium: {Max: 4, Columns: 2, Height: 96},
	card.SizeSmall:  {Max: 4, Columns: 4, Height: 64},
}

// PhotoGridFor returns the grid for a photo size.
func PhotoGridFor(s card.Size) PhotoGrid {
	if g, ok := photoGrids[s]; ok {
		return g
	}
	return photoGrids[card.DefaultSize]
}

// Dash returns the dash pattern of a border style relative to the stroke
// width. Solid and double borders have no pattern.
func Dash(style card.BorderStyle, width float64) []float64 {
	switch style {
	case card.BorderDashed:
		return []float64{3 * width, 2 * width}
	case card.BorderDotted:
		return []float64{width, width}
	case card.BorderSolid, card.BorderDouble:
		return nil
	}
	return Dash(card.DefaultBorder, width)
}

// Fixed colors shared by every scheme.
var (
	starOn      = render.MustHex("#facc15")
	starOff     = render.MustHex("#d1d5db")
	photoBorder = render.MustHex("#9ca3af")
	boxBorder   = render.MustHex("#4b5563")
	chipFill    = render.MustHex("#1f2937")
)

// palette is a card.Palette resolved to render colors.
type palette struct {
	Background, Text, Border, Accent render.Color
	BorderWidth                      float64
}

func resolvePalette(s card.ColorScheme) palette {
	p := s.Palette()
	accent := p.Accent
	if accent == "" {
		accent = card.DefaultAccent
	}
	return palette{
		Background:  render.MustHex(p.Background),
		Text:        render.MustHex(p.Text),
		Border:      render.MustHex(p.Border),
		Accent:      render.MustHex(accent),
		BorderWidth: p.BorderWidth,
	}
}
