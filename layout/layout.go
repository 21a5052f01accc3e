// Package layout turns a memory card and its customization into a realized
// visual tree.
//
// Rendering is pure: the same card and options always produce the same tree.
// Every styling choice is resolved through lookup tables keyed by the option
// enums, with a default branch for values the card parsers did not normalize.
package layout

import (
	"math"
	"sync"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/decor"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
)

// Mode selects the render context.
type Mode int

const (
	// ModePreview is the live on-screen render.
	ModePreview Mode = iota
	// ModeThumbnail truncates long free text.
	ModeThumbnail
	// ModeExport is the capture render. It never truncates.
	ModeExport
)

func (m Mode) String() string {
	switch m {
	case ModeThumbnail:
		return "thumbnail"
	case ModeExport:
		return "export"
	default:
		return "preview"
	}
}

// Engine renders cards with a font set.
type Engine struct {
	fonts *fonts.Set
}

// NewEngine returns an engine using fs.
func NewEngine(fs *fonts.Set) *Engine {
	return &Engine{fonts: fs}
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(fonts.MustDefault())
})

// Render renders with the embedded fonts.
func Render(c card.MemoryCard, o card.Options, mode Mode) *render.Tree {
	return defaultEngine().Render(c, o, mode)
}

// Fonts returns the font set of the engine.
func (e *Engine) Fonts() *fonts.Set {
	return e.fonts
}

// Render builds the visual tree of c.
func (e *Engine) Render(c card.MemoryCard, o card.Options, mode Mode) *render.Tree {
	c = c.Normalize()
	o = o.Normalize()
	if mode == ModeThumbnail {
		c.Notes = Truncate(c.Notes, ThumbnailLimit)
		c.Highlights = Truncate(c.Highlights, ThumbnailLimit)
	}

	var t *render.Tree
	if o.Layout.IsZine() {
		t = e.zine(c, o)
	} else {
		t = e.classic(c, o)
	}
	t.Pattern = string(o.Background)

	opacity := 1.0
	if o.Layout.IsZine() {
		opacity = 0.6
	}
	ink := resolvePalette(o.Scheme).Text
	for _, d := range o.Decorations {
		t.Elements = append(t.Elements, decoration(d, opacity, ink))
	}
	return t
}

func decoration(d decor.Decoration, opacity float64, c render.Color) render.DecorationElement {
	return render.DecorationElement{
		ID:       d.ID,
		Symbol:   d.Symbol,
		XPercent: decor.Clamp(d.X),
		YPercent: decor.Clamp(d.Y),
		Size:     30,
		Opacity:  opacity,
		Color:    c,
	}
}

// flow stacks elements in a column of width w starting at x.
type flow struct {
	els []render.Element
	x   float64
	w   float64
	y   float64
}

func newFlow(x, y, w float64) *flow {
	return &flow{x: x, y: y, w: w}
}

func (f *flow) add(els ...render.Element) {
	f.els = append(f.els, els...)
}

func (f *flow) gap(h float64) {
	f.y += h
}

// line places a single line of text and advances the cursor.
func (f *flow) line(s string, font *fonts.Font, size, leading float64, c render.Color, align render.TextAlign) {
	lh := size * leading
	f.add(render.TextElement{
		Content: s,
		Font:    font,
		Size:    size,
		X:       f.x,
		Y:       baseline(font, size, f.y, lh),
		Width:   f.w,
		Color:   c,
		Align:   align,
	})
	f.y += lh
}

// paragraph wraps s to the column width and places every line.
func (f *flow) paragraph(s string, font *fonts.Font, size, leading float64, c render.Color, align render.TextAlign) {
	for _, l := range Wrap(font, s, size, f.w) {
		f.line(l, font, size, leading, c, align)
	}
}

// boxed runs fn in an inset flow and draws the box behind its content.
func (f *flow) boxed(pad float64, box func(x, y, w, h float64) []render.Element, fn func(inner *flow)) {
	top := f.y
	inner := newFlow(f.x+pad, top+pad, f.w-2*pad)
	fn(inner)
	h := inner.y - top + pad
	f.add(box(f.x, top, f.w, h)...)
	f.add(inner.els...)
	f.y = top + h
}

// baseline centers the font's ascent and descent in a line box.
func baseline(font *fonts.Font, size, top, lh float64) float64 {
	asc, desc := 0.8, 0.2
	if font != nil && font.Metrics != nil && font.Metrics.Ascent > 0 {
		asc, desc = font.Metrics.Ascent, font.Metrics.Descent
	}
	content := (asc + desc) * size
	return top + (lh-content)/2 + asc*size
}

// stroke draws a border line in the given style.
func stroke(x1, y1, x2, y2 float64, style card.BorderStyle, c render.Color, width float64) []render.Element {
	if style != card.BorderDouble {
		return []render.Element{render.LineElement{
			X1: x1, Y1: y1, X2: x2, Y2: y2,
			StrokeColor: c, StrokeWidth: width, Dash: Dash(style, width),
		}}
	}
	// two rules of a third of the width, spread over the full width
	t := width / 3
	dx, dy := 0.0, 0.0
	if y1 == y2 {
		dy = t
	} else {
		dx = t
	}
	return []render.Element{
		render.LineElement{X1: x1 - dx, Y1: y1 - dy, X2: x2 - dx, Y2: y2 - dy, StrokeColor: c, StrokeWidth: t},
		render.LineElement{X1: x1 + dx, Y1: y1 + dy, X2: x2 + dx, Y2: y2 + dy, StrokeColor: c, StrokeWidth: t},
	}
}

// outline draws a rectangle border in the given style, optionally filled.
func outline(x, y, w, h float64, style card.BorderStyle, c render.Color, width float64, fill *render.Color) []render.Element {
	if style != card.BorderDouble {
		return []render.Element{render.ShapeElement{
			ShapeType: "rect", X: x, Y: y, Width: w, Height: h,
			StrokeColor: c.Ptr(), FillColor: fill, StrokeWidth: width, Dash: Dash(style, width),
		}}
	}
	t := width / 3
	return []render.Element{
		render.ShapeElement{ShapeType: "rect", X: x - t, Y: y - t, Width: w + 2*t, Height: h + 2*t, StrokeColor: c.Ptr(), FillColor: fill, StrokeWidth: t},
		render.ShapeElement{ShapeType: "rect", X: x + t, Y: y + t, Width: w - 2*t, Height: h - 2*t, StrokeColor: c.Ptr(), StrokeWidth: t},
	}
}

// star returns a five pointed star polygon centered on (cx, cy).
func star(cx, cy, r float64, fill render.Color) render.ShapeElement {
	pts := make([]render.Point, 0, 10)
	for i := 0; i < 10; i++ {
		rad := r
		if i%2 == 1 {
			rad = r * 0.4
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		pts = append(pts, render.Point{X: cx + rad*math.Cos(a), Y: cy + rad*math.Sin(a)})
	}
	return render.ShapeElement{ShapeType: "polygon", Points: pts, FillColor: fill.Ptr()}
}

// photos lays out the photo grid and advances the cursor.
func (f *flow) photos(ps []card.Photo, size card.Size, tilt float64, frame bool, border render.Color) {
	if len(ps) == 0 {
		return
	}
	g := PhotoGridFor(size)
	n := min(len(ps), g.Max)
	const gap = 8.0
	cellW := (f.w - gap*float64(g.Columns-1)) / float64(g.Columns)
	pad := 0.0
	if frame {
		pad = 6
	}
	rowH := g.Height + 2*pad
	if frame {
		rowH += 12 // polaroid chin
	}

	for i, p := range ps[:n] {
		col, row := i%g.Columns, i/g.Columns
		x := f.x + float64(col)*(cellW+gap)
		y := f.y + float64(row)*(rowH+gap)

		var cell []render.Element
		if frame {
			cell = append(cell, render.ShapeElement{
				ShapeType: "rect", X: x, Y: y, Width: cellW, Height: rowH,
				FillColor: render.White.Ptr(), StrokeColor: photoBorder.Ptr(), StrokeWidth: 1,
			})
		}
		ix, iy, iw := x+pad, y+pad, cellW-2*pad
		cell = append(cell,
			render.ImageElement{
				PhotoID: p.ID, Source: p.Source,
				X: ix, Y: iy, Width: iw, Height: g.Height,
				Opacity: 1, Scale: render.ScaleFill,
			},
			render.ShapeElement{
				ShapeType: "rect", X: ix, Y: iy, Width: iw, Height: g.Height,
				StrokeColor: border.Ptr(), StrokeWidth: 2,
			},
		)
		if tilt != 0 {
			f.add(render.Group{Elements: cell, Rotation: tilt, PivotX: x + cellW/2, PivotY: y + rowH/2})
		} else {
			f.add(cell...)
		}
	}
	rows := (n + g.Columns - 1) / g.Columns
	f.y += float64(rows)*rowH + float64(rows-1)*gap
}
