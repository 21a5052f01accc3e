package compose

import (
	"fmt"

	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/layout"
)

// Sheet is a plain text rendition of a card, one entry per line.
type Sheet struct {
	Lines    []string
	FontSize float64 // points, 11 when zero
	Leading  float64 // line height factor, 1.4 when zero
	Color    render.Color
}

// ComposeSheet lays out sheet lines top to bottom inside the margins. Lines
// wider than the content area are wrapped first. A line that would cross the
// bottom margin starts a new page; lines are never split across pages or
// dropped.
func ComposeSheet(sheet Sheet, o Orientation, f PageFormat, opts Options) (*Document, error) {
	size := sheet.FontSize
	if size <= 0 {
		size = 11
	}
	leading := sheet.Leading
	if leading <= 0 {
		leading = 1.4
	}
	lh := size * leading

	page := PageOf(f, o)
	margin := opts.marginPt()
	top, bottom := margin, page.Height-margin
	width := page.Width - 2*margin
	if width <= 0 || bottom-top < lh {
		return nil, fmt.Errorf("margin %.2f leaves no room for a line", margin)
	}

	font := fonts.Standard(fonts.Courier)
	var wrapped []string
	for _, l := range sheet.Lines {
		wrapped = append(wrapped, layout.Wrap(font, l, size, width)...)
	}

	frame := border(page, margin, opts)
	newPage := func() render.Page {
		return render.Page{Width: page.Width, Height: page.Height, Elements: append([]render.Element(nil), frame...)}
	}

	pages := []render.Page{newPage()}
	y := top
	for _, l := range wrapped {
		if y+lh > bottom {
			pages = append(pages, newPage())
			y = top
		}
		if l != "" {
			cur := &pages[len(pages)-1]
			cur.Elements = append(cur.Elements, render.TextElement{
				Content: l,
				Font:    font,
				Size:    size,
				X:       margin,
				Y:       y + size*0.8,
				Color:   sheet.Color,
			})
		}
		y += lh
	}

	return &Document{
		Format:      f,
		Orientation: o,
		Pages:       pages,
		encoding:    opts.Encoding,
	}, nil
}
