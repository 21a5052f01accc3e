package layout

import (
	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
)

const (
	iconSize   = 14.0
	iconGap    = 8.0
	starSize   = 16.0
	starGap    = 4.0
	sectionGap = 16.0
)

const footerText = "KEEP THIS MEMORY FOREVER"

// classic renders the single column card in 2:3 or 3:2.
func (e *Engine) classic(c card.MemoryCard, o card.Options) *render.Tree {
	pal := resolvePalette(o.Scheme)
	fam := e.fonts.Family(o.Font)
	regular, bold := fam.Pick(false), fam.Pick(true)
	sz := classicTextFor(o.TextSize)

	w := ClassicWidth
	h := w * 3 / 2
	if o.Layout.Landscape() {
		h = w * 2 / 3
	}

	f := newFlow(ClassicPadding, ClassicPadding, w-2*ClassicPadding)

	artist := c.Artist
	if artist == "" {
		artist = PlaceholderArtist
	}
	f.paragraph(Upper(artist), bold, sz.Title, leadingTight, pal.Text, render.AlignCenter)
	f.gap(8)

	venue := c.Venue
	if venue == "" {
		venue = PlaceholderVenue
	}
	if c.City != "" {
		venue += ", " + c.City
	}
	f.iconLine("pin", venue, regular, sz.Meta, pal.Text)
	f.gap(sectionGap)

	f.iconLine("calendar", FormatDate(c.Date), regular, sz.Meta, pal.Text)
	f.gap(sectionGap)

	f.mood(c.MoodRating, bold, sz.Label, pal.Text)
	f.gap(sectionGap)

	if len(c.Photos) > 0 {
		f.photos(c.Photos, o.PhotoSize, 0, o.PolaroidFrame, pal.Border)
		f.gap(sectionGap)
	}

	if c.Notes != "" {
		f.heading("note", "NOTES", bold, sz.Label, pal.Text)
		f.gap(8)
		f.paragraph(c.Notes, regular, sz.Body, leadingRelaxed, pal.Text, render.AlignLeft)
		f.gap(sectionGap)
	}

	if songs := FormatSetlist(c.Setlist); len(songs) > 0 {
		f.heading("music", "SETLIST", bold, sz.Label, pal.Text)
		f.gap(8)
		for _, s := range songs {
			font := regular
			if s.Heading {
				font = bold
			}
			for _, l := range Wrap(font, s.String(), sz.Body, f.w) {
				f.line(l, font, sz.Body, leadingRelaxed, pal.Text, render.AlignLeft)
			}
			f.gap(4)
		}
		f.gap(sectionGap - 4)
	}

	if c.Highlights != "" {
		f.heading("star", "BEST MOMENTS", bold, sz.Label, pal.Text)
		f.gap(8)
		f.paragraph(c.Highlights, regular, sz.Body, leadingRelaxed, pal.Text, render.AlignLeft)
		f.gap(sectionGap)
	}

	// footer sticks to the bottom unless the content pushes it down
	footerH := 16 + sz.Body*leadingTight
	top := max(f.y, h-ClassicPadding-footerH)
	f.y = top
	f.add(stroke(f.x, top, f.x+f.w, top, o.Border, pal.Text, 2)...)
	f.gap(16)
	f.line(footerText, bold, sz.Body, leadingTight, pal.Text, render.AlignCenter)
	h = max(h, f.y+ClassicPadding)

	els := []render.Element{
		render.ShapeElement{ShapeType: "rect", X: 0, Y: 0, Width: w, Height: AccentHeight, FillColor: pal.Accent.Ptr()},
	}
	els = append(els, f.els...)
	bw := pal.BorderWidth
	els = append(els, render.ShapeElement{
		ShapeType: "rect", X: bw / 2, Y: bw / 2, Width: w - bw, Height: h - bw,
		StrokeColor: pal.Border.Ptr(), StrokeWidth: bw,
	})

	return &render.Tree{
		Width:      w,
		Height:     h,
		Background: pal.Background,
		Elements:   els,
	}
}

// iconLine places an icon and a label centered as one unit. Long labels wrap
// and continue under the first line.
func (f *flow) iconLine(icon, label string, font *fonts.Font, size float64, c render.Color) {
	lh := max(size*leadingTight, iconSize)
	lines := Wrap(font, label, size, f.w-iconSize-iconGap)
	tw := 0.0
	for _, l := range lines {
		tw = max(tw, font.Width(l, size))
	}
	start := f.x + (f.w-(iconSize+iconGap+tw))/2
	f.add(glyphIcon(icon, start, f.y+lh/2, c)...)
	for _, l := range lines {
		f.add(render.TextElement{
			Content: l,
			Font:    font,
			Size:    size,
			X:       start + iconSize + iconGap,
			Y:       baseline(font, size, f.y, lh),
			Color:   c,
		})
		f.y += lh
	}
}

// heading places a left aligned section label with an icon.
func (f *flow) heading(icon, label string, font *fonts.Font, size float64, c render.Color) {
	lh := max(size*leadingTight, iconSize)
	f.add(glyphIcon(icon, f.x, f.y+lh/2, c)...)
	f.add(render.TextElement{
		Content: label,
		Font:    font,
		Size:    size,
		X:       f.x + iconSize + iconGap,
		Y:       baseline(font, size, f.y, lh),
		Color:   c,
	})
	f.y += lh
}

// mood places the MOOD label and five stars, centered.
func (f *flow) mood(rating int, font *fonts.Font, size float64, c render.Color) {
	const label = "MOOD:"
	lh := max(size*leadingTight, starSize)
	lw := font.Width(label, size)
	stars := 5*starSize + 4*starGap
	start := f.x + (f.w-(lw+8+stars))/2
	f.add(render.TextElement{
		Content: label,
		Font:    font,
		Size:    size,
		X:       start,
		Y:       baseline(font, size, f.y, lh),
		Color:   c,
	})
	sx := start + lw + 8
	for i := 0; i < card.MoodScale.Max; i++ {
		fill := starOff
		if i < rating {
			fill = starOn
		}
		f.add(star(sx+starSize/2, f.y+lh/2, starSize/2, fill))
		sx += starSize + starGap
	}
	f.y += lh
}

// glyphIcon draws a small line icon whose left edge is x, vertically centered
// on cy.
func glyphIcon(kind string, x, cy float64, c render.Color) []render.Element {
	s := iconSize
	top := cy - s/2
	switch kind {
	case "pin":
		return []render.Element{
			render.ShapeElement{ShapeType: "circle", CX: x + s/2, CY: top + s*0.4, R: s * 0.3, StrokeColor: c.Ptr(), StrokeWidth: 1.5},
			render.LineElement{X1: x + s/2, Y1: top + s*0.7, X2: x + s/2, Y2: top + s, StrokeColor: c, StrokeWidth: 1.5},
		}
	case "calendar":
		return []render.Element{
			render.ShapeElement{ShapeType: "rect", X: x + 1, Y: top + 2, Width: s - 2, Height: s - 3, StrokeColor: c.Ptr(), StrokeWidth: 1.5},
			render.LineElement{X1: x + 1, Y1: top + 6, X2: x + s - 1, Y2: top + 6, StrokeColor: c, StrokeWidth: 1.5},
		}
	case "music":
		return []render.Element{
			render.ShapeElement{ShapeType: "circle", CX: x + s*0.35, CY: top + s*0.75, R: s * 0.2, FillColor: c.Ptr()},
			render.LineElement{X1: x + s*0.55, Y1: top + s*0.75, X2: x + s*0.55, Y2: top + 1, StrokeColor: c, StrokeWidth: 1.5},
			render.LineElement{X1: x + s*0.55, Y1: top + 1, X2: x + s - 1, Y2: top + s*0.25, StrokeColor: c, StrokeWidth: 1.5},
		}
	case "star":
		return []render.Element{star(x+s/2, cy, s/2, c)}
	default:
		return []render.Element{
			render.ShapeElement{ShapeType: "rect", X: x + 2, Y: top + 1, Width: s - 4, Height: s - 2, StrokeColor: c.Ptr(), StrokeWidth: 1.5},
			render.LineElement{X1: x + 4, Y1: top + 5, X2: x + s - 4, Y2: top + 5, StrokeColor: c, StrokeWidth: 1},
			render.LineElement{X1: x + 4, Y1: top + 8, X2: x + s - 4, Y2: top + 8, StrokeColor: c, StrokeWidth: 1},
		}
	}
}
