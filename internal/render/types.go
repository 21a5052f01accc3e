// Package render holds the realized visual tree of a memory card and the
// PDF content stream renderer used to place composed pages.
//
// Tree coordinates use a top-left origin with y growing downwards, in CSS
// pixels. Page coordinates use the same orientation in PDF points; the
// renderer flips them when emitting operators.
package render

import (
	"fmt"
	"image"
	"strconv"
	"strings"

	"github.com/digitorus/memorycard/fonts"
)

// Color represents an RGB color.
type Color struct {
	R, G, B uint8
}

// Common colors.
var (
	Black = Color{0, 0, 0}
	White = Color{255, 255, 255}
)

// ParseHex parses a #rrggbb or #rgb color.
func ParseHex(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// MustHex is like ParseHex but returns black for invalid input.
func MustHex(s string) Color {
	c, err := ParseHex(s)
	if err != nil {
		return Black
	}
	return c
}

// Ptr returns a pointer to a copy of c.
func (c Color) Ptr() *Color { return &c }

// TextAlign defines horizontal text alignment.
type TextAlign int

const (
	// AlignLeft aligns text to the left.
	AlignLeft TextAlign = iota
	// AlignCenter aligns text to the center.
	AlignCenter
	// AlignRight aligns text to the right.
	AlignRight
)

// ImageScale defines how images are scaled.
type ImageScale int

const (
	// ScaleStretch stretches the image to fill the rectangle.
	ScaleStretch ImageScale = iota
	// ScaleFit proportionally scales the image to fit within the rectangle.
	ScaleFit
	// ScaleFill proportionally scales the image to fill the rectangle (may crop).
	ScaleFill
)

// Point is a position in tree or page coordinates.
type Point struct {
	X, Y float64
}

// Element is an interface for visual elements of a tree or page.
type Element interface {
	IsElement()
}

// ImageElement defines a raster image. Tree images reference a photo by its
// data URI; page images carry the decoded bitmap.
type ImageElement struct {
	PhotoID             string
	Source              string
	Bitmap              image.Image
	X, Y, Width, Height float64
	Opacity             float64
	Scale               ImageScale
}

func (ImageElement) IsElement() {}

// TextElement defines a single line of text. Y is the baseline. When Width
// is set the line is aligned inside [X, X+Width].
type TextElement struct {
	Content string
	Font    *fonts.Font
	Size    float64
	X, Y    float64
	Width   float64
	Color   Color
	Align   TextAlign
}

func (TextElement) IsElement() {}

// ShapeElement defines a geometric shape (rect, circle or polygon).
type ShapeElement struct {
	ShapeType              string // "rect", "circle" or "polygon"
	X, Y, Width, Height    float64
	CX, CY, R              float64
	Points                 []Point
	StrokeColor, FillColor *Color
	StrokeWidth            float64
	Dash                   []float64
}

func (ShapeElement) IsElement() {}

// LineElement defines a straight line.
type LineElement struct {
	X1, Y1, X2, Y2 float64
	StrokeColor    Color
	StrokeWidth    float64
	Dash           []float64
}

func (LineElement) IsElement() {}

// DecorationElement is a symbol placed at a percentage position of the card
// box. It is resolved against the canvas it is painted on.
type DecorationElement struct {
	ID       int
	Symbol   string
	XPercent float64
	YPercent float64
	Size     float64
	Opacity  float64
	Color    Color
}

func (DecorationElement) IsElement() {}

// Group is a set of elements sharing a rotation, in degrees clockwise, around
// a pivot.
type Group struct {
	Elements []Element
	Rotation float64
	PivotX   float64
	PivotY   float64
}

func (Group) IsElement() {}

// Tree is a fully realized card, ready to be painted.
type Tree struct {
	Width, Height float64
	Background    Color
	Pattern       string
	Elements      []Element
}

// Photos returns every image element that references a photo, in paint order.
func (t *Tree) Photos() []ImageElement {
	var out []ImageElement
	var walk func([]Element)
	walk = func(els []Element) {
		for _, el := range els {
			switch e := el.(type) {
			case ImageElement:
				if e.Source != "" {
					out = append(out, e)
				}
			case Group:
				walk(e.Elements)
			}
		}
	}
	walk(t.Elements)
	return out
}

// Texts returns the content of every text element in paint order.
func (t *Tree) Texts() []string {
	var out []string
	var walk func([]Element)
	walk = func(els []Element) {
		for _, el := range els {
			switch e := el.(type) {
			case TextElement:
				out = append(out, e.Content)
			case Group:
				walk(e.Elements)
			}
		}
	}
	walk(t.Elements)
	return out
}

// Decorations returns the decoration elements in z-order.
func (t *Tree) Decorations() []DecorationElement {
	var out []DecorationElement
	for _, el := range t.Elements {
		if d, ok := el.(DecorationElement); ok {
			out = append(out, d)
		}
	}
	return out
}

// Page is a composed document page in PDF points.
type Page struct {
	Width, Height float64
	Elements      []Element
}
