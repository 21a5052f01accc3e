package card

import (
	"strings"

	"github.com/digitorus/memorycard/decor"
)

// FontStyle selects the typeface family of the card.
type FontStyle string

const (
	FontTypewriter  FontStyle = "typewriter"
	FontZine        FontStyle = "zine"
	FontHandwritten FontStyle = "handwritten"
	FontCreepy      FontStyle = "creepy"
	FontMono        FontStyle = "mono"
)

// Layout selects the composition of the card. Vertical and horizontal are
// the classic single column card; the others are zine layouts.
type Layout string

const (
	LayoutVertical   Layout = "vertical"
	LayoutHorizontal Layout = "horizontal"
	LayoutChaotic    Layout = "chaotic"
	LayoutMinimal    Layout = "minimal"
	LayoutCollage    Layout = "collage"
	LayoutZine       Layout = "zine"
)

// BorderStyle is the stroke pattern used for section borders.
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderDotted BorderStyle = "dotted"
	BorderDouble BorderStyle = "double"
)

// Size is a three step size selector for photos and text.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Pattern is a subtle background texture.
type Pattern string

const (
	PatternNone   Pattern = "none"
	PatternGrunge Pattern = "grunge"
	PatternNoise  Pattern = "noise"
	PatternPaper  Pattern = "paper"
)

// Defaults for unknown or empty values.
const (
	DefaultFont       = FontTypewriter
	DefaultLayout     = LayoutVertical
	DefaultBorder     = BorderDashed
	DefaultSize       = SizeMedium
	DefaultPattern    = PatternNone
	DefaultTemplateID = TemplateClassicPunk
)

// ParseFontStyle returns the font for s, or DefaultFont.
func ParseFontStyle(s string) FontStyle {
	switch f := FontStyle(normalize(s)); f {
	case FontTypewriter, FontZine, FontHandwritten, FontCreepy, FontMono:
		return f
	}
	return DefaultFont
}

// ParseLayout returns the layout for s, or DefaultLayout.
func ParseLayout(s string) Layout {
	switch l := Layout(normalize(s)); l {
	case LayoutVertical, LayoutHorizontal, LayoutChaotic, LayoutMinimal, LayoutCollage, LayoutZine:
		return l
	}
	return DefaultLayout
}

// ParseBorderStyle returns the border style for s, or DefaultBorder.
func ParseBorderStyle(s string) BorderStyle {
	switch b := BorderStyle(normalize(s)); b {
	case BorderSolid, BorderDashed, BorderDotted, BorderDouble:
		return b
	}
	return DefaultBorder
}

// ParseSize returns the size for s, or DefaultSize. "normal" is an alias of
// medium.
func ParseSize(s string) Size {
	switch z := Size(normalize(s)); z {
	case SizeSmall, SizeMedium, SizeLarge:
		return z
	case "normal":
		return SizeMedium
	}
	return DefaultSize
}

// ParsePattern returns the background pattern for s, or DefaultPattern.
func ParsePattern(s string) Pattern {
	switch p := Pattern(normalize(s)); p {
	case PatternNone, PatternGrunge, PatternNoise, PatternPaper:
		return p
	}
	return DefaultPattern
}

// IsZine reports whether the layout is one of the zine compositions.
func (l Layout) IsZine() bool {
	switch l {
	case LayoutChaotic, LayoutMinimal, LayoutCollage, LayoutZine:
		return true
	}
	return false
}

// Landscape reports whether the layout is printed in landscape orientation.
func (l Layout) Landscape() bool {
	return l == LayoutHorizontal
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Options are the visual customization choices of a card.
type Options struct {
	Template      TemplateID         `json:"template" toml:"template"`
	Scheme        ColorScheme        `json:"scheme" toml:"scheme"`
	Font          FontStyle          `json:"font" toml:"font"`
	Layout        Layout             `json:"layout" toml:"layout"`
	Border        BorderStyle        `json:"border" toml:"border"`
	PhotoSize     Size               `json:"photo_size" toml:"photo_size"`
	TextSize      Size               `json:"text_size" toml:"text_size"`
	Background    Pattern            `json:"background" toml:"background"`
	PolaroidFrame bool               `json:"polaroid_frame" toml:"polaroid_frame"`
	Decorations   []decor.Decoration `json:"decorations" toml:"decorations"`
}

// DefaultOptions returns the options of a new session: the default template
// applied on top of neutral values.
func DefaultOptions() Options {
	return Options{
		Layout:     DefaultLayout,
		Border:     DefaultBorder,
		PhotoSize:  DefaultSize,
		TextSize:   DefaultSize,
		Background: DefaultPattern,
	}.ApplyTemplate(DefaultTemplateID)
}

// Normalize maps every field onto its closed set, replacing unknown values
// with the documented defaults.
func (o Options) Normalize() Options {
	o = o.clone()
	o.Template = LookupTemplate(o.Template).ID
	o.Scheme = ParseColorScheme(string(o.Scheme))
	o.Font = ParseFontStyle(string(o.Font))
	o.Layout = ParseLayout(string(o.Layout))
	o.Border = ParseBorderStyle(string(o.Border))
	o.PhotoSize = ParseSize(string(o.PhotoSize))
	o.TextSize = ParseSize(string(o.TextSize))
	o.Background = ParsePattern(string(o.Background))
	for i := range o.Decorations {
		o.Decorations[i].X = decor.Clamp(o.Decorations[i].X)
		o.Decorations[i].Y = decor.Clamp(o.Decorations[i].Y)
	}
	return o
}

// With returns a copy with a single field changed through fn.
func (o Options) With(fn func(*Options)) Options {
	o = o.clone()
	fn(&o)
	return o
}

// WithDecorations returns a copy using the given decorations.
func (o Options) WithDecorations(ds []decor.Decoration) Options {
	o = o.clone()
	o.Decorations = append([]decor.Decoration(nil), ds...)
	return o
}

func (o Options) clone() Options {
	o.Decorations = append([]decor.Decoration(nil), o.Decorations...)
	return o
}
