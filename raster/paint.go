package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/preview"
)

type faceKey struct {
	font *fonts.Font
	size float64
}

// painter draws tree elements onto an RGBA canvas. Element coordinates are
// multiplied by sx and sy.
type painter struct {
	dst    *image.RGBA
	sx, sy float64
	photos map[string]image.Image
	faces  map[faceKey]font.Face

	// symbols draws decoration stickers
	symbols *fonts.Font
}

func newPainter(w, h int, sx, sy float64, photos map[string]image.Image, symbols *fonts.Font) *painter {
	return &painter{
		dst:     image.NewRGBA(image.Rect(0, 0, w, h)),
		sx:      sx,
		sy:      sy,
		photos:  photos,
		faces:   make(map[faceKey]font.Face),
		symbols: symbols,
	}
}

func (p *painter) close() {
	for _, f := range p.faces {
		f.Close()
	}
}

func rgba(c render.Color, alpha float64) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(clamp01(alpha) * 255))}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// background fills the canvas and overlays the subtle pattern.
func (p *painter) background(bg render.Color, pattern string) {
	draw.Draw(p.dst, p.dst.Bounds(), image.NewUniform(rgba(bg, 1)), image.Point{}, draw.Src)

	b := p.dst.Bounds()
	switch card.Pattern(pattern) {
	case card.PatternGrunge:
		// dark corners fading to the center
		cx, cy := float64(b.Dx())/2, float64(b.Dy())/2
		maxD := math.Hypot(cx, cy)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				d := math.Hypot(float64(x)-cx, float64(y)-cy) / maxD
				p.blendPixel(x, y, color.NRGBA{17, 24, 39, 255}, 0.05*d)
			}
		}
	case card.PatternNoise:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				n := noise(x, y)
				p.blendPixel(x, y, color.NRGBA{0, 0, 0, 255}, 0.05*n)
			}
		}
	case card.PatternPaper:
		draw.Draw(p.dst, b, image.NewUniform(color.NRGBA{249, 250, 251, 13}), image.Point{}, draw.Over)
		for y := b.Min.Y; y < b.Max.Y; y += 3 {
			for x := b.Min.X; x < b.Max.X; x++ {
				p.blendPixel(x, y, color.NRGBA{120, 100, 60, 255}, 0.02*noise(x/4, y))
			}
		}
	}
}

// noise is a deterministic hash of the pixel position in [0,1).
func noise(x, y int) float64 {
	h := uint32(x)*374761393 + uint32(y)*668265263
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	return float64(h&0xffff) / 65536
}

func (p *painter) blendPixel(x, y int, c color.NRGBA, a float64) {
	i := p.dst.PixOffset(x, y)
	px := p.dst.Pix[i : i+4 : i+4]
	a = clamp01(a)
	px[0] = uint8(float64(px[0])*(1-a) + float64(c.R)*a)
	px[1] = uint8(float64(px[1])*(1-a) + float64(c.G)*a)
	px[2] = uint8(float64(px[2])*(1-a) + float64(c.B)*a)
}

func (p *painter) paint(els []render.Element) {
	for _, el := range els {
		switch e := el.(type) {
		case render.ShapeElement:
			p.shape(e)
		case render.LineElement:
			p.strokePath([]render.Point{{X: e.X1, Y: e.Y1}, {X: e.X2, Y: e.Y2}}, false, e.StrokeWidth, e.Dash, rgba(e.StrokeColor, 1))
		case render.TextElement:
			p.text(e)
		case render.ImageElement:
			p.image(e)
		case render.DecorationElement:
			p.decoration(e)
		case render.Group:
			p.group(e)
		}
	}
}

func (p *painter) shape(e render.ShapeElement) {
	var pts []render.Point
	switch e.ShapeType {
	case "rect":
		pts = []render.Point{
			{X: e.X, Y: e.Y}, {X: e.X + e.Width, Y: e.Y},
			{X: e.X + e.Width, Y: e.Y + e.Height}, {X: e.X, Y: e.Y + e.Height},
		}
	case "circle":
		const segments = 48
		pts = make([]render.Point, segments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / segments
			pts[i] = render.Point{X: e.CX + e.R*math.Cos(a), Y: e.CY + e.R*math.Sin(a)}
		}
	case "polygon":
		pts = e.Points
	}
	if len(pts) < 2 {
		return
	}
	if e.FillColor != nil {
		p.fillPolygon(pts, rgba(*e.FillColor, 1))
	}
	if e.StrokeColor != nil && e.StrokeWidth > 0 {
		p.strokePath(pts, true, e.StrokeWidth, e.Dash, rgba(*e.StrokeColor, 1))
	}
}

// pt converts tree coordinates to canvas coordinates, clamped to the canvas
// so the rasterizer never sees points far outside its bounds.
func (p *painter) pt(x, y float64) (float32, float32) {
	b := p.dst.Bounds()
	cx := math.Max(0, math.Min(float64(b.Dx()), x*p.sx))
	cy := math.Max(0, math.Min(float64(b.Dy()), y*p.sy))
	return float32(cx), float32(cy)
}

func (p *painter) rasterizer() *vector.Rasterizer {
	b := p.dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func (p *painter) fillPolygon(pts []render.Point, c color.Color) {
	z := p.rasterizer()
	z.MoveTo(p.pt(pts[0].X, pts[0].Y))
	for _, q := range pts[1:] {
		z.LineTo(p.pt(q.X, q.Y))
	}
	z.ClosePath()
	z.Draw(p.dst, p.dst.Bounds(), image.NewUniform(c), image.Point{})
}

// strokePath strokes a polyline with butt caps, splitting it into dashes
// when a pattern is given.
func (p *painter) strokePath(pts []render.Point, closed bool, width float64, dash []float64, c color.Color) {
	if width <= 0 || len(pts) < 2 {
		return
	}
	if closed {
		pts = append(append([]render.Point(nil), pts...), pts[0])
	}
	z := p.rasterizer()
	segs := dashSegments(pts, dash)
	for _, s := range segs {
		p.quad(z, s[0], s[1], width)
	}
	if len(segs) > 0 {
		z.Draw(p.dst, p.dst.Bounds(), image.NewUniform(c), image.Point{})
	}
}

// quad adds the rectangle covering a stroked segment.
func (p *painter) quad(z *vector.Rasterizer, a, b render.Point, width float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	nx, ny := -dy/l*width/2, dx/l*width/2
	// extend along the segment so corners of closed paths meet
	ex, ey := dx/l*width/2, dy/l*width/2
	z.MoveTo(p.pt(a.X+nx-ex, a.Y+ny-ey))
	z.LineTo(p.pt(b.X+nx+ex, b.Y+ny+ey))
	z.LineTo(p.pt(b.X-nx+ex, b.Y-ny+ey))
	z.LineTo(p.pt(a.X-nx-ex, a.Y-ny-ey))
	z.ClosePath()
}

// dashSegments splits a polyline into the "on" segments of a dash pattern.
// Without a pattern every edge is returned.
func dashSegments(pts []render.Point, dash []float64) [][2]render.Point {
	var out [][2]render.Point
	valid := len(dash) > 0
	for _, d := range dash {
		if d <= 0 {
			valid = false
		}
	}
	if !valid {
		for i := 1; i < len(pts); i++ {
			out = append(out, [2]render.Point{pts[i-1], pts[i]})
		}
		return out
	}

	idx, remain, on := 0, dash[0], true
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		l := math.Hypot(b.X-a.X, b.Y-a.Y)
		pos := 0.0
		for pos < l {
			step := math.Min(remain, l-pos)
			if on {
				t0, t1 := pos/l, (pos+step)/l
				out = append(out, [2]render.Point{
					{X: a.X + (b.X-a.X)*t0, Y: a.Y + (b.Y-a.Y)*t0},
					{X: a.X + (b.X-a.X)*t1, Y: a.Y + (b.Y-a.Y)*t1},
				})
			}
			pos += step
			remain -= step
			if remain <= 1e-9 {
				idx = (idx + 1) % len(dash)
				remain = dash[idx]
				on = !on
			}
		}
	}
	return out
}

func (p *painter) face(f *fonts.Font, size float64) font.Face {
	k := faceKey{f, size}
	if face, ok := p.faces[k]; ok {
		return face
	}
	face, err := f.Face(size)
	if err != nil {
		return nil
	}
	p.faces[k] = face
	return face
}

func (p *painter) text(e render.TextElement) {
	if e.Content == "" || e.Font == nil {
		return
	}
	size := e.Size * p.sy
	x := e.X
	if e.Width > 0 && e.Align != render.AlignLeft {
		w := e.Font.Width(e.Content, e.Size)
		switch e.Align {
		case render.AlignCenter:
			x += (e.Width - w) / 2
		case render.AlignRight:
			x += e.Width - w
		}
	}
	p.drawString(e.Font, e.Content, x*p.sx, e.Y*p.sy, size, rgba(e.Color, 1))
}

// drawString draws text with its baseline at (x, y) in canvas pixels. Runes
// the font cannot draw are replaced by a placeholder badge.
func (p *painter) drawString(f *fonts.Font, s string, x, y, size float64, c color.NRGBA) {
	face := p.face(f, size)
	if face == nil {
		return
	}
	d := &font.Drawer{
		Dst:  p.dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(math.Round(x * 64)), Y: fixed.Int26_6(math.Round(y * 64))},
	}
	for _, r := range s {
		if r == ' ' || f.HasGlyph(r) {
			d.DrawString(string(r))
			continue
		}
		adv := size * 0.9
		cx := float64(d.Dot.X)/64 + adv/2
		cy := float64(d.Dot.Y)/64 - size*0.35
		p.badge(cx, cy, adv*0.45, c)
		d.Dot.X += fixed.Int26_6(math.Round(adv * 64))
	}
}

// badge draws the placeholder for a symbol without a glyph: a ring with a
// star inside, in canvas pixels.
func (p *painter) badge(cx, cy, r float64, c color.NRGBA) {
	ring := make([]render.Point, 36)
	for i := range ring {
		a := 2 * math.Pi * float64(i) / 36
		ring[i] = render.Point{X: (cx + r*math.Cos(a)) / p.sx, Y: (cy + r*math.Sin(a)) / p.sy}
	}
	p.strokePath(ring, true, math.Max(1, r*0.15)/p.sx, nil, c)
	star := make([]render.Point, 10)
	for i := range star {
		rad := r * 0.6
		if i%2 == 1 {
			rad = r * 0.25
		}
		a := -math.Pi/2 + float64(i)*math.Pi/5
		star[i] = render.Point{X: (cx + rad*math.Cos(a)) / p.sx, Y: (cy + rad*math.Sin(a)) / p.sy}
	}
	p.fillPolygon(star, c)
}

func (p *painter) image(e render.ImageElement) {
	src := e.Bitmap
	if src == nil {
		src = p.photos[e.Source]
	}
	if src == nil || e.Width <= 0 || e.Height <= 0 {
		return
	}
	dr := image.Rect(
		int(math.Round(e.X*p.sx)), int(math.Round(e.Y*p.sy)),
		int(math.Round((e.X+e.Width)*p.sx)), int(math.Round((e.Y+e.Height)*p.sy)),
	)
	sr := src.Bounds()
	switch e.Scale {
	case render.ScaleFill:
		sr = cover(sr, dr)
	case render.ScaleFit:
		dr = contain(sr, dr)
	}
	var opts *draw.Options
	if e.Opacity > 0 && e.Opacity < 1 {
		opts = &draw.Options{DstMask: image.NewUniform(color.Alpha{A: uint8(e.Opacity * 255)})}
	}
	draw.CatmullRom.Scale(p.dst, dr, src, sr, draw.Over, opts)
}

// cover returns the centered part of src with the aspect ratio of dst.
func cover(src, dst image.Rectangle) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return src
	}
	if sw/sh > dw/dh {
		w := int(math.Round(sh * dw / dh))
		x := src.Min.X + (src.Dx()-w)/2
		return image.Rect(x, src.Min.Y, x+w, src.Max.Y)
	}
	h := int(math.Round(sw * dh / dw))
	y := src.Min.Y + (src.Dy()-h)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+h)
}

// contain returns the centered part of dst with the aspect ratio of src.
func contain(src, dst image.Rectangle) image.Rectangle {
	sw, sh := float64(src.Dx()), float64(src.Dy())
	dw, dh := float64(dst.Dx()), float64(dst.Dy())
	if sw == 0 || sh == 0 {
		return dst
	}
	s := math.Min(dw/sw, dh/sh)
	w, h := int(math.Round(sw*s)), int(math.Round(sh*s))
	x := dst.Min.X + (dst.Dx()-w)/2
	y := dst.Min.Y + (dst.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// decoration places a symbol at its percentage position of this canvas.
func (p *painter) decoration(e render.DecorationElement) {
	b := p.dst.Bounds()
	x := e.XPercent / 100 * float64(b.Dx())
	y := e.YPercent / 100 * float64(b.Dy())
	size := e.Size * p.sy
	if p.symbols == nil {
		return
	}
	// the position is the top-left corner of the symbol box
	p.drawString(p.symbols, e.Symbol, x, y+size*0.9, size, rgba(e.Color, e.Opacity))
}

// group paints rotated elements on a layer and composites it.
func (p *painter) group(g render.Group) {
	if g.Rotation == 0 {
		p.paint(g.Elements)
		return
	}
	layer := &painter{
		dst:     image.NewRGBA(p.dst.Bounds()),
		sx:      p.sx,
		sy:      p.sy,
		photos:  p.photos,
		faces:   p.faces,
		symbols: p.symbols,
	}
	layer.paint(g.Elements)

	a := g.Rotation * math.Pi / 180
	sin, cos := math.Sin(a), math.Cos(a)
	px, py := g.PivotX*p.sx, g.PivotY*p.sy
	m := f64.Aff3{
		cos, -sin, px - cos*px + sin*py,
		sin, cos, py - sin*px - cos*py,
	}
	draw.BiLinear.Transform(p.dst, m, layer.dst, layer.dst.Bounds(), draw.Over, nil)
}

// applyPresentation bakes opacity and grayscale into a preview bitmap.
func applyPresentation(m *image.RGBA, pres preview.Presentation) {
	op := clamp01(pres.Opacity)
	for i := 0; i+3 < len(m.Pix); i += 4 {
		r, g, b := float64(m.Pix[i]), float64(m.Pix[i+1]), float64(m.Pix[i+2])
		if pres.Grayscale {
			l := 0.2126*r + 0.7152*g + 0.0722*b
			r, g, b = l, l, l
		}
		// faded cards show the page behind them, which is white
		m.Pix[i] = uint8(r*op + 255*(1-op))
		m.Pix[i+1] = uint8(g*op + 255*(1-op))
		m.Pix[i+2] = uint8(b*op + 255*(1-op))
	}
}
