// Package compose places captured cards on printable pages and serializes
// them as PDF documents.
package compose

import (
	"fmt"
	"math"
	"strings"

	"github.com/digitorus/memorycard/card"
)

// DefaultMargin is the page margin in millimetres on every side.
const DefaultMargin = 15.0

// PageFormat is a paper size in millimetres, portrait.
type PageFormat struct {
	Name   string
	Width  float64
	Height float64
}

// Supported page formats.
var (
	A4     = PageFormat{Name: "a4", Width: 210, Height: 297}
	Letter = PageFormat{Name: "letter", Width: 215.9, Height: 279.4}
)

// ParsePageFormat resolves a format name. Unknown names are an error.
func ParsePageFormat(s string) (PageFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a4":
		return A4, nil
	case "letter":
		return Letter, nil
	}
	return PageFormat{}, fmt.Errorf("unknown page format %q", s)
}

// Orientation of a page.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

func (o Orientation) String() string {
	if o == Landscape {
		return "landscape"
	}
	return "portrait"
}

// OrientationFor returns the orientation used to print a card layout.
func OrientationFor(l card.Layout) Orientation {
	if l.Landscape() {
		return Landscape
	}
	return Portrait
}

// MMToPt converts millimetres to PDF points.
func MMToPt(mm float64) float64 { return mm * 72 / 25.4 }

// PtToMM converts PDF points to millimetres.
func PtToMM(pt float64) float64 { return pt * 25.4 / 72 }

// Size returns the page size in points for the orientation.
func (f PageFormat) Size(o Orientation) (w, h float64) {
	w, h = MMToPt(f.Width), MMToPt(f.Height)
	if o == Landscape {
		w, h = h, w
	}
	return w, h
}

// Page is a page size in points.
type Page struct {
	Width, Height float64
}

// PageOf returns the page for a format and orientation.
func PageOf(f PageFormat, o Orientation) Page {
	w, h := f.Size(o)
	return Page{Width: w, Height: h}
}

// Placement is the rectangle a bitmap occupies on a page, in points from
// the top-left corner.
type Placement struct {
	X, Y, W, H float64

	// EffectiveDPI is the print resolution of the bitmap at this size.
	EffectiveDPI float64
}

// Fit scales a bitmap of bw×bh pixels into the page area inside margin
// (points), keeping its aspect ratio, and centers it. The bitmap is never
// cropped or distorted.
func Fit(bw, bh int, page Page, margin float64) (Placement, error) {
	if bw <= 0 || bh <= 0 {
		return Placement{}, fmt.Errorf("invalid bitmap size %dx%d", bw, bh)
	}
	maxW := page.Width - 2*margin
	maxH := page.Height - 2*margin
	if maxW <= 0 || maxH <= 0 {
		return Placement{}, fmt.Errorf("margin %.2f leaves no room on a %.2fx%.2f page", margin, page.Width, page.Height)
	}

	aspect := float64(bw) / float64(bh)
	var w, h float64
	if aspect > maxW/maxH {
		w, h = maxW, maxW/aspect
	} else {
		w, h = maxH*aspect, maxH
	}
	return Placement{
		X:            (page.Width - w) / 2,
		Y:            (page.Height - h) / 2,
		W:            w,
		H:            h,
		EffectiveDPI: float64(bw) / (w / 72),
	}, nil
}

// ScaleFor returns the capture scale that gives a box of bw×bh units at
// least dpi when fitted on page. It is rounded up to a quarter step.
func ScaleFor(bw, bh float64, page Page, margin, dpi float64) float64 {
	if bw <= 0 || bh <= 0 || dpi <= 0 {
		return 1
	}
	// the placement only depends on the aspect ratio
	p, err := Fit(int(math.Round(bw*1000)), int(math.Round(bh*1000)), page, margin)
	if err != nil {
		return 1
	}
	need := dpi * p.W / 72 / bw
	return math.Ceil(need*4) / 4
}
