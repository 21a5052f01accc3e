package memorycard

import (
	"context"
	"math/rand"
	"sync"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/decor"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/layout"
	"github.com/digitorus/memorycard/preview"
)

// Session is the editing state of one card. Every edit produces a new
// snapshot, re-renders it and shows it on the surface mounted in the
// exporter's registry, so an export always captures a complete tree.
type Session struct {
	exporter *Exporter
	render   func(card.MemoryCard, card.Options, layout.Mode) *render.Tree

	mu      sync.Mutex
	card    card.MemoryCard
	options card.Options
	decor   *decor.Store
	surface *preview.Surface

	// tree is the render of card and options shown on surface
	tree *render.Tree
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithEngine renders with eng instead of the embedded fonts.
func WithEngine(eng *layout.Engine) SessionOption {
	return func(s *Session) { s.render = eng.Render }
}

// WithRand seeds the random placement of new decorations.
func WithRand(rng *rand.Rand) SessionOption {
	return func(s *Session) { s.decor = decor.NewStore(rng) }
}

// NewSession starts with an empty card and the default options and mounts
// its preview under the exporter's handle.
func NewSession(e *Exporter, opts ...SessionOption) *Session {
	s := &Session{
		exporter: e,
		render:   layout.Render,
		card:     card.New(),
		options:  card.DefaultOptions(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.decor == nil {
		s.decor = decor.NewStore(nil)
	}

	s.tree = s.render(s.card, s.options, layout.ModePreview)
	s.surface = preview.NewSurface(s.tree)
	e.Registry().Mount(e.Handle(), s.surface)
	return s
}

// Close unmounts the preview.
func (s *Session) Close() {
	s.exporter.Registry().Unmount(s.exporter.Handle())
}

// Surface returns the mounted preview.
func (s *Session) Surface() *preview.Surface {
	return s.surface
}

// Snapshot returns the current card and options together with the tree
// rendered from them, so an export captures exactly what it validates and
// names.
func (s *Session) Snapshot() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Request{Card: s.card, Options: s.options, Tree: s.tree}
}

// show must be called with mu held.
func (s *Session) show() {
	s.options = s.options.WithDecorations(s.decor.List())
	s.tree = s.render(s.card, s.options, layout.ModePreview)
	s.surface.Show(s.tree)
}

// Update replaces the card with fn's result.
func (s *Session) Update(fn func(card.MemoryCard) card.MemoryCard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = fn(s.card).Normalize()
	s.show()
}

// SetCard replaces the whole card, as a form collaborator does.
func (s *Session) SetCard(c card.MemoryCard) {
	s.Update(func(card.MemoryCard) card.MemoryCard { return c })
}

// Load replaces the card, the options and the decorations at once, e.g.
// from a saved card file.
func (s *Session) Load(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = req.Card.Normalize()
	s.options = req.Options.Normalize()
	s.decor.Reset()
	for _, d := range s.options.Decorations {
		nd := s.decor.Add(d.Symbol)
		// percentages against a 100x100 container are stored as given
		_, _ = s.decor.CommitMove(nd.ID, d.X, d.Y, 100, 100)
	}
	s.show()
}

// Customize replaces the options with fn's result. Decorations are owned by
// the session and cannot be changed this way.
func (s *Session) Customize(fn func(card.Options) card.Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = fn(s.options).Normalize()
	s.show()
}

// ApplyTemplate applies a predefined template.
func (s *Session) ApplyTemplate(id card.TemplateID) {
	s.Customize(func(o card.Options) card.Options { return o.ApplyTemplate(id) })
}

// AddDecoration places a new sticker at a random position.
func (s *Session) AddDecoration(symbol string) decor.Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.decor.Add(symbol)
	s.show()
	return d
}

// RemoveDecoration deletes a sticker. Unknown ids are ignored.
func (s *Session) RemoveDecoration(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decor.Remove(id)
	s.show()
}

// MoveDecoration commits a drag that ended at pixel offset (x, y) of the
// preview surface.
func (s *Session) MoveDecoration(id int, x, y float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, h := s.surface.Box()
	ok, err := s.decor.CommitMove(id, x, y, w, h)
	if err != nil || !ok {
		return ok, err
	}
	s.show()
	return true, nil
}

// Reset restores the empty card, default options and no decorations.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = card.New()
	s.options = card.DefaultOptions()
	s.decor.Reset()
	s.show()
}

// Export exports the current snapshot.
func (s *Session) Export(ctx context.Context) (*Result, error) {
	return s.exporter.Export(ctx, s.Snapshot())
}

// ExportSheet exports the current snapshot as text pages.
func (s *Session) ExportSheet(ctx context.Context) (*Result, error) {
	return s.exporter.ExportSheet(ctx, s.Snapshot())
}

// Trigger exports the current snapshot and returns the notice to show.
func (s *Session) Trigger(ctx context.Context) Notice {
	return s.exporter.Trigger(ctx, s.Snapshot())
}
