// Package memorycard exports concert memory cards as printable PDF
// documents.
//
// A card is laid out into a visual tree, shown on a preview surface and, on
// export, captured at print resolution, placed on an A4 or Letter page and
// delivered under a name derived from its content:
//
//	s := memorycard.NewSession(exporter)
//	s.Update(func(c card.MemoryCard) card.MemoryCard {
//	    return c.WithArtist("Dead Kennedys").WithVenue("CBGB").WithDate("1981-06-15")
//	})
//	notice := s.Trigger(ctx)
//
// Exports are serialized; the generation state is streamed to subscribers
// and always returns to idle.
package memorycard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/digitorus/memorycard/compose"
	"github.com/digitorus/memorycard/config"
	"github.com/digitorus/memorycard/fonts"
	"github.com/digitorus/memorycard/internal/render"
	"github.com/digitorus/memorycard/preview"
	"github.com/digitorus/memorycard/raster"
)

// Default exporter metadata.
const (
	DefaultAuthor  = "Concert Memory Maker"
	DefaultCreator = "Concert Memory Maker - DIY Punk Style"

	// Title and subject templates, see render.ExpandTemplateVariables.
	DefaultTitle   = "Concert Memory - {{Artist}}"
	DefaultSubject = "Concert at {{Venue}}"
)

// Capturer rasterizes a mounted surface, pinned to tree when it is not nil.
// *raster.Backend implements it.
type Capturer interface {
	CaptureTree(ctx context.Context, reg *preview.Registry, h preview.Handle, tree *render.Tree, scale float64) (*raster.Bitmap, error)
}

var _ Capturer = (*raster.Backend)(nil)

// Sealer signs a finished document. *seal.Signer implements it.
type Sealer interface {
	Seal(ctx context.Context, data []byte) ([]byte, error)
}

// Settings are the fixed export parameters.
type Settings struct {
	Format  compose.PageFormat
	Compose compose.Options

	// Scale is the minimum capture scale. It is raised until the card
	// reaches TargetDPI on the page, up to MaxScale.
	Scale     float64
	MaxScale  float64
	TargetDPI float64

	// PageBorder frames the page in the card's border style.
	PageBorder bool

	Title   string
	Subject string
	Author  string
	Creator string
}

// DefaultSettings returns A4, a 15mm margin, 2x capture raised to 300 DPI
// and JPEG quality 95.
func DefaultSettings() Settings {
	return Settings{
		Format:    compose.A4,
		Compose:   compose.DefaultOptions(),
		Scale:     2,
		MaxScale:  8,
		TargetDPI: 300,
		Title:     DefaultTitle,
		Subject:   DefaultSubject,
		Author:    DefaultAuthor,
		Creator:   DefaultCreator,
	}
}

// SettingsFrom converts a loaded configuration.
func SettingsFrom(c config.Config) (Settings, error) {
	format, err := compose.ParsePageFormat(c.PageFormat)
	if err != nil {
		return Settings{}, err
	}
	s := DefaultSettings()
	s.Format = format
	s.Compose.Margin = c.MarginMM
	s.Compose.Encoding.Quality = c.ImageQuality
	switch c.ImageFormat {
	case "png":
		s.Compose.Encoding.Format = render.EncodingPNG
	default:
		s.Compose.Encoding.Format = render.EncodingJPEG
	}
	s.Scale = c.Scale
	s.MaxScale = c.MaxScale
	s.TargetDPI = c.TargetDPI
	if c.Title != "" {
		s.Title = c.Title
	}
	if c.Subject != "" {
		s.Subject = c.Subject
	}
	if c.Author != "" {
		s.Author = c.Author
	}
	if c.Creator != "" {
		s.Creator = c.Creator
	}
	return s, nil
}

// Exporter runs exports against a preview registry.
type Exporter struct {
	settings Settings
	registry *preview.Registry
	handle   preview.Handle

	deliverer Deliverer
	sealer    Sealer
	log       zerolog.Logger
	now       func() time.Time
	metrics   *metrics

	fonts    *fonts.Set
	acquire  func(ctx context.Context) (Capturer, error)
	acqMu    sync.Mutex
	capturer Capturer

	busy sync.Mutex

	stateMu sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(e *Exporter) { e.settings = s }
}

// WithRegistry sets the registry the card is mounted in.
func WithRegistry(r *preview.Registry) Option {
	return func(e *Exporter) { e.registry = r }
}

// WithHandle sets the mount handle, preview.DefaultHandle by default.
func WithHandle(h preview.Handle) Option {
	return func(e *Exporter) { e.handle = h }
}

// WithDeliverer sets where documents go. The default writes to the
// working directory.
func WithDeliverer(d Deliverer) Option {
	return func(e *Exporter) { e.deliverer = d }
}

// WithSealer signs every document; the signature is delivered next to it
// with a .p7s suffix.
func WithSealer(s Sealer) Option {
	return func(e *Exporter) { e.sealer = s }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Exporter) { e.log = l }
}

// WithClock sets the clock used for the creation date and job ids.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) { e.now = now }
}

// WithRegisterer registers the export metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Exporter) { e.metrics = newMetrics(reg) }
}

// WithFonts sets the font set of the acquired backend.
func WithFonts(fs *fonts.Set) Option {
	return func(e *Exporter) { e.fonts = fs }
}

// WithCapturer skips backend acquisition and uses c.
func WithCapturer(c Capturer) Option {
	return func(e *Exporter) { e.capturer = c }
}

// New returns an exporter.
func New(opts ...Option) *Exporter {
	e := &Exporter{
		settings:  DefaultSettings(),
		handle:    preview.DefaultHandle,
		deliverer: FileDeliverer{Dir: "."},
		log:       zerolog.Nop(),
		now:       time.Now,
		subs:      make(map[int]func(State)),
	}
	for _, o := range opts {
		o(e)
	}
	if e.registry == nil {
		e.registry = preview.NewRegistry()
	}
	if e.metrics == nil {
		e.metrics = newMetrics(nil)
	}
	if e.acquire == nil {
		e.acquire = func(ctx context.Context) (Capturer, error) {
			return raster.Acquire(ctx, e.fonts, raster.WithLogger(e.log))
		}
	}
	return e
}

// Registry returns the registry exports capture from.
func (e *Exporter) Registry() *preview.Registry { return e.registry }

// Handle returns the mount handle.
func (e *Exporter) Handle() preview.Handle { return e.handle }

// Settings returns the export settings.
func (e *Exporter) Settings() Settings { return e.settings }

// backend acquires the rendering backend once. A failed acquisition is
// retried by the next export.
func (e *Exporter) backend(ctx context.Context) (Capturer, error) {
	e.acqMu.Lock()
	defer e.acqMu.Unlock()
	if e.capturer != nil {
		return e.capturer, nil
	}
	c, err := e.acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire rendering backend: %w", err)
	}
	e.capturer = c
	return c, nil
}

// State returns the current generation state.
func (e *Exporter) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Subscribe calls fn with every state change until the returned function is
// called. fn runs on the exporting goroutine and must not block.
func (e *Exporter) Subscribe(fn func(State)) (unsubscribe func()) {
	e.stateMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.stateMu.Unlock()

	return func() {
		e.stateMu.Lock()
		delete(e.subs, id)
		e.stateMu.Unlock()
	}
}

func (e *Exporter) setState(s State) {
	e.stateMu.Lock()
	e.state = s
	subs := make([]func(State), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.stateMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
