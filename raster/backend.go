// Package raster paints realized card trees into bitmaps.
//
// A Backend is acquired once, which parses the font set, and then captures
// mounted preview surfaces at a print scale. Capturing neutralizes the
// surface presentation and restores it on every path.
package raster

import (
	"context"
	"fmt"
	"image"
	"math"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/images"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/preview"
)

// MaxDimension bounds the bitmap size on either axis.
const MaxDimension = 16384

// Bitmap is a captured card.
type Bitmap struct {
	Image *image.RGBA
	Scale float64
}

// Width returns the pixel width.
func (b *Bitmap) Width() int { return b.Image.Bounds().Dx() }

// Height returns the pixel height.
func (b *Bitmap) Height() int { return b.Image.Bounds().Dy() }

// Backend paints trees with a parsed font set.
type Backend struct {
	fonts *fonts.Set
	log   zerolog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

// Acquire prepares a backend. When fs is nil the embedded fonts are parsed,
// which is the slow part of the first export.
func Acquire(ctx context.Context, fs *fonts.Set, opts ...Option) (*Backend, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := &Backend{fonts: fs, log: zerolog.Nop()}
	for _, o := range opts {
		o(b)
	}
	if b.fonts == nil {
		set, err := fonts.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load fonts: %w", err)
		}
		b.fonts = set
	}
	return b, ctx.Err()
}

// Capture paints the surface mounted under h at the rendered box size times
// scale.
func (b *Backend) Capture(ctx context.Context, reg *preview.Registry, h preview.Handle, scale float64) (*Bitmap, error) {
	return b.CaptureTree(ctx, reg, h, nil, scale)
}

// CaptureTree is Capture pinned to tree, the render a caller took together
// with its card and options. Edits shown on the surface after that point do
// not reach the bitmap. A nil tree captures whatever the surface shows.
func (b *Backend) CaptureTree(ctx context.Context, reg *preview.Registry, h preview.Handle, tree *render.Tree, scale float64) (*Bitmap, error) {
	s, ok := reg.Lookup(h)
	if !ok {
		return nil, fmt.Errorf("capture %s: %w", h, ErrRenderTargetMissing)
	}
	restore := s.Neutralize()
	defer restore()

	if tree == nil {
		tree = s.Tree()
	}
	if tree == nil {
		return nil, fmt.Errorf("capture %s: %w", h, ErrRenderTargetMissing)
	}
	bw, bh := s.BoxOf(tree)
	return b.paintTree(ctx, string(h), tree, bw, bh, scale, preview.Canonical())
}

// ScaleLimit is the largest scale at which a bw×bh box still fits in
// MaxDimension on both axes.
func ScaleLimit(bw, bh float64) float64 {
	side := math.Max(bw, bh)
	if side <= 0 {
		return math.Inf(1)
	}
	return math.Floor(MaxDimension/side*1000) / 1000
}

// Render paints a tree at its natural size times scale without a mounted
// surface.
func (b *Backend) Render(ctx context.Context, tree *render.Tree, scale float64) (*Bitmap, error) {
	return b.paintTree(ctx, "tree", tree, tree.Width, tree.Height, scale, preview.Canonical())
}

// Preview paints the surface as it currently looks, presentation included.
func (b *Backend) Preview(ctx context.Context, s *preview.Surface, scale float64) (*Bitmap, error) {
	tree := s.Tree()
	if tree == nil {
		return nil, ErrRenderTargetMissing
	}
	bw, bh := s.Box()
	return b.paintTree(ctx, "preview", tree, bw, bh, scale, s.Presentation())
}

func (b *Backend) paintTree(ctx context.Context, handle string, tree *render.Tree, bw, bh, scale float64, pres preview.Presentation) (*Bitmap, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, &CaptureError{Handle: handle, Err: fmt.Errorf("invalid scale %v", scale)}
	}
	if tree.Width <= 0 || tree.Height <= 0 || bw <= 0 || bh <= 0 {
		return nil, &CaptureError{Handle: handle, Err: fmt.Errorf("empty box %vx%v", bw, bh)}
	}
	w := int(math.Round(bw * scale))
	h := int(math.Round(bh * scale))
	if w < 1 || h < 1 || w > MaxDimension || h > MaxDimension {
		return nil, &CaptureError{Handle: handle, Err: fmt.Errorf("bitmap size %dx%d out of range", w, h)}
	}

	// keyed by source: photos without ids or with copied ids still differ
	photos := make(map[string]image.Image)
	for _, p := range tree.Photos() {
		if _, ok := photos[p.Source]; ok {
			continue
		}
		m, err := images.DecodeDataURI(ctx, p.PhotoID, p.Source)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &CaptureError{Handle: handle, PhotoID: p.PhotoID, Err: pkgerrors.WithStack(err)}
		}
		photos[p.Source] = m
	}

	p := newPainter(w, h, float64(w)/tree.Width, float64(h)/tree.Height, photos, b.fonts.Family(card.FontZine).Regular)
	defer p.close()
	p.background(tree.Background, tree.Pattern)
	p.paint(tree.Elements)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !pres.IsCanonical() {
		applyPresentation(p.dst, pres)
	}

	b.log.Debug().
		Str("handle", handle).
		Int("width", w).
		Int("height", h).
		Float64("scale", scale).
		Int("photos", len(photos)).
		Msg("painted card")

	return &Bitmap{Image: p.dst, Scale: scale}, nil
}
