package layout

import (
	"strings"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
)

// chaoticTilt is the rotation applied to the header and photos of the
// chaotic layout, in degrees.
const chaoticTilt = 1.0

// zineGrid describes the column split of a zine layout.
type zineGrid struct {
	Columns   int  // total columns
	MainSpan  int  // columns taken by the main content
	Secondary bool // whether the secondary column is rendered
	Gap       float64
}

var zineGrids = map[card.Layout]zineGrid{
	card.LayoutCollage: {Columns: 3, MainSpan: 2, Secondary: true, Gap: 16},
	card.LayoutZine:    {Columns: 2, MainSpan: 1, Secondary: true, Gap: 24},
	card.LayoutChaotic: {Columns: 2, MainSpan: 1, Secondary: true, Gap: 24},
	card.LayoutMinimal: {Columns: 1, MainSpan: 1, Secondary: false, Gap: 32},
}

func zineGridFor(l card.Layout) zineGrid {
	if g, ok := zineGrids[l]; ok {
		return g
	}
	return zineGrids[card.LayoutZine]
}

// zine renders the letter sized multi column card.
func (e *Engine) zine(c card.MemoryCard, o card.Options) *render.Tree {
	pal := resolvePalette(o.Scheme)
	fam := e.fonts.Family(o.Font)
	regular, bold := fam.Pick(false), fam.Pick(true)
	italic := e.fonts.Family(card.FontHandwritten).Regular
	sz := zineTextFor(o.TextSize)
	grid := zineGridFor(o.Layout)
	tilt := 0.0
	if o.Layout == card.LayoutChaotic {
		tilt = chaoticTilt
	}

	w := ZineWidth
	minH := max(ZineMinHeight, w*11/8.5)
	inner := w - 2*ZinePadding

	var els []render.Element

	// header
	head := newFlow(ZinePadding, ZinePadding, inner)
	artist := c.Artist
	if artist == "" {
		artist = PlaceholderArtist
	}
	head.paragraph(Upper(artist), bold, sz.Title, 1.1, pal.Text, render.AlignCenter)
	if tilt != 0 {
		head.els = []render.Element{render.Group{
			Elements: head.els,
			Rotation: -tilt,
			PivotX:   w / 2,
			PivotY:   (ZinePadding + head.y) / 2,
		}}
	}
	head.gap(8)
	venue := c.Venue
	if c.City != "" {
		venue = strings.TrimPrefix(venue+", "+c.City, ", ")
	}
	metaY := head.y
	head.line(venue, regular, 14, leadingTight, pal.Text, render.AlignLeft)
	head.y = metaY
	head.line(FormatDate(c.Date), regular, 14, leadingTight, pal.Text, render.AlignRight)
	head.gap(16)
	head.add(stroke(head.x, head.y, head.x+head.w, head.y, o.Border, pal.Text, 4)...)
	head.gap(32)
	els = append(els, head.els...)

	// columns
	colW := (inner - grid.Gap*float64(grid.Columns-1)) / float64(grid.Columns)
	mainW := colW*float64(grid.MainSpan) + grid.Gap*float64(grid.MainSpan-1)
	if !grid.Secondary {
		mainW = inner
	}

	main := newFlow(ZinePadding, head.y, mainW)
	e.zineMain(main, c, o, pal, regular, bold, sz, tilt)
	els = append(els, main.els...)
	bottom := main.y

	if grid.Secondary {
		side := newFlow(ZinePadding+mainW+grid.Gap, head.y, inner-mainW-grid.Gap)
		e.zineSecondary(side, c, o, pal, regular, bold, sz)
		els = append(els, side.els...)
		bottom = max(bottom, side.y)
	}

	// notes and footer
	tail := newFlow(ZinePadding, bottom, inner)
	if c.Notes != "" {
		tail.gap(24)
		tail.add(stroke(tail.x, tail.y, tail.x+tail.w, tail.y, o.Border, pal.Text, 4)...)
		tail.gap(16)
		tail.line("PERSONAL NOTES", bold, sz.Heading, leadingTight, pal.Text, render.AlignLeft)
		tail.gap(8)
		tail.paragraph(`"`+c.Notes+`"`, italic, sz.Notes, leadingRelaxed, pal.Text, render.AlignLeft)
	}

	badge := "CONCERT MEMORY ZINE"
	if y := Year(c.Date); y != "" {
		badge += " • " + y
	}
	const badgeSize = 12.0
	badgeH := badgeSize*leadingTight + 16
	badgeW := min(regular.Width(badge, badgeSize)+32, inner)
	top := max(tail.y+16, minH-ZinePadding-badgeH)
	bx := (w - badgeW) / 2
	badgeEls := outline(bx, top, badgeW, badgeH, o.Border, pal.Text, 2, nil)
	bf := newFlow(bx, top+8, badgeW)
	bf.line(badge, regular, badgeSize, leadingTight, pal.Text, render.AlignCenter)
	badgeEls = append(badgeEls, bf.els...)
	if tilt != 0 {
		tail.add(render.Group{Elements: badgeEls, Rotation: tilt, PivotX: w / 2, PivotY: top + badgeH/2})
	} else {
		tail.add(badgeEls...)
	}
	els = append(els, tail.els...)

	return &render.Tree{
		Width:      w,
		Height:     max(minH, top+badgeH+ZinePadding),
		Background: pal.Background,
		Elements:   els,
	}
}

// zineMain renders genre, intensity, emotions and photos.
func (e *Engine) zineMain(f *flow, c card.MemoryCard, o card.Options, pal palette, regular, bold *fonts.Font, sz zineSizes, tilt float64) {
	const blockGap = 16.0
	first := true
	next := func() {
		if !first {
			f.gap(blockGap)
		}
		first = false
	}

	if c.Genre != "" {
		next()
		top := f.y
		inset := newFlow(f.x+8+16, f.y, f.w-24)
		inset.line("GENRE", bold, sz.Heading, leadingTight, pal.Text, render.AlignLeft)
		inset.gap(8)
		inset.paragraph(c.Genre, regular, sz.Value, leadingTight, pal.Text, render.AlignLeft)
		f.add(stroke(f.x+4, top, f.x+4, inset.y, o.Border, pal.Text, 8)...)
		f.add(inset.els...)
		f.y = inset.y
	}

	if c.Intensity > 0 {
		next()
		f.boxed(16, func(x, y, w, h float64) []render.Element {
			return outline(x, y, w, h, o.Border, boxBorder, 2, nil)
		}, func(in *flow) {
			in.line("INTENSITY", bold, sz.Heading, leadingTight, pal.Text, render.AlignLeft)
			in.gap(8)
			in.line(card.IntensityScale.Format(c.Intensity), bold, sz.Intensity, 1.0, pal.Text, render.AlignLeft)
		})
	}

	if len(c.Emotions) > 0 {
		next()
		f.boxed(16, func(x, y, w, h float64) []render.Element {
			return []render.Element{render.ShapeElement{ShapeType: "rect", X: x, Y: y, Width: w, Height: h, FillColor: pal.Text.Ptr()}}
		}, func(in *flow) {
			in.line("EMOTIONS", bold, sz.Heading, leadingTight, pal.Background, render.AlignLeft)
			in.gap(8)
			in.chips(c.Emotions, regular, sz.Chip, pal.Background)
		})
	}

	if len(c.Photos) > 0 {
		next()
		f.photos(c.Photos, o.PhotoSize, tilt, o.PolaroidFrame, photoBorder)
	}
}

// zineSecondary renders the setlist and best moments boxes.
func (e *Engine) zineSecondary(f *flow, c card.MemoryCard, o card.Options, pal palette, regular, bold *fonts.Font, sz zineSizes) {
	box := func(x, y, w, h float64) []render.Element {
		return outline(x, y, w, h, o.Border, pal.Text, 2, nil)
	}

	songs := FormatSetlist(c.Setlist)
	if len(songs) > 0 {
		f.boxed(16, box, func(in *flow) {
			in.line("SETLIST", bold, sz.Heading, leadingTight, pal.Text, render.AlignLeft)
			in.gap(8)
			for _, s := range songs {
				font := regular
				if s.Heading {
					font = bold
				}
				in.paragraph(s.String(), font, sz.Body, leadingRelaxed, pal.Text, render.AlignLeft)
			}
		})
	}

	if c.Highlights != "" {
		if len(songs) > 0 {
			f.gap(16)
		}
		f.boxed(16, box, func(in *flow) {
			in.line("BEST MOMENTS", bold, sz.Heading, leadingTight, pal.Text, render.AlignLeft)
			in.gap(8)
			in.paragraph(c.Highlights, regular, sz.Body, leadingRelaxed, pal.Text, render.AlignLeft)
		})
	}
}

// chips lays out upper-cased tags left to right, wrapping as needed.
func (f *flow) chips(tags []string, font *fonts.Font, size float64, c render.Color) {
	const padX, padY, gap = 8.0, 4.0, 8.0
	lh := size * leadingTight
	h := lh + 2*padY
	x, y := f.x, f.y
	for _, t := range tags {
		label := Upper(t)
		w := min(font.Width(label, size)+2*padX, f.w)
		if x > f.x && x+w > f.x+f.w {
			x = f.x
			y += h + gap
		}
		f.add(
			render.ShapeElement{ShapeType: "rect", X: x, Y: y, Width: w, Height: h, FillColor: chipFill.Ptr()},
			render.TextElement{Content: label, Font: font, Size: size, X: x + padX, Y: baseline(font, size, y+padY, lh), Color: c},
		)
		x += w + gap
	}
	f.y = y + h
}
