package compose

import (
	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/internal/render"
)

// Stroke describes how a page border is drawn: a dash pattern and the
// insets, in points, of each parallel line.
type Stroke struct {
	Dash   []float64
	Insets []float64
}

// StrokePattern maps a border style to its stroke. Unknown styles draw solid.
// Insets grow outwards from the content area.
func StrokePattern(style card.BorderStyle) Stroke {
	switch style {
	case card.BorderDashed:
		return Stroke{Dash: []float64{6, 3}, Insets: []float64{0}}
	case card.BorderDotted:
		return Stroke{Dash: []float64{1, 2}, Insets: []float64{0}}
	case card.BorderDouble:
		return Stroke{Insets: []float64{0, 3}}
	}
	return Stroke{Insets: []float64{0}}
}

// border returns the page border elements. The frame outlines the content
// area, the same margin geometry the card is placed in; further lines of a
// double border go out into the margin.
func border(page Page, margin float64, o Options) []render.Element {
	if o.Border == "" {
		return nil
	}
	s := StrokePattern(o.Border)
	c := o.BorderColor
	var els []render.Element
	for _, in := range s.Insets {
		d := margin - in
		els = append(els, render.ShapeElement{
			ShapeType:   "rect",
			X:           d,
			Y:           d,
			Width:       page.Width - 2*d,
			Height:      page.Height - 2*d,
			StrokeColor: &c,
			StrokeWidth: o.BorderWidth,
			Dash:        s.Dash,
		})
	}
	return els
}
