// Package preview keeps track of mounted card renders.
//
// A Surface is the on-screen instance of a realized tree: the tree itself,
// the box it occupies and the transient presentation (fade, filter, hover
// zoom) applied by the interface. Capture code finds a surface through a
// Registry handle.
package preview

import (
	"sync"
	"sync/atomic"

	"github.com/digitorus/memorycard/internal/render"
)

// Handle identifies a mounted surface.
type Handle string

// DefaultHandle is the handle of the main card preview.
const DefaultHandle Handle = "concert-preview"

// Presentation is transient visual state that must not leak into a capture.
type Presentation struct {
	Opacity   float64 `json:"opacity"`
	Grayscale bool    `json:"grayscale"`
	Scale     float64 `json:"scale"`
}

// Canonical is the neutral presentation.
func Canonical() Presentation {
	return Presentation{Opacity: 1, Scale: 1}
}

// IsCanonical reports whether p has no visible effect.
func (p Presentation) IsCanonical() bool {
	return p == Canonical()
}

// Surface is a mounted render.
type Surface struct {
	tree atomic.Pointer[render.Tree]

	mu     sync.Mutex
	width  float64
	height float64
	pres   Presentation
}

// NewSurface returns a surface showing t at its natural size.
func NewSurface(t *render.Tree) *Surface {
	s := &Surface{pres: Canonical()}
	s.Show(t)
	return s
}

// Show replaces the displayed tree. The box follows the tree size.
func (s *Surface) Show(t *render.Tree) {
	s.mu.Lock()
	s.width, s.height = t.Width, t.Height
	s.mu.Unlock()
	s.tree.Store(t)
}

// Resize sets the rendered box, e.g. when the preview is shown zoomed.
func (s *Surface) Resize(w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = w, h
}

// Tree returns the tree currently shown.
func (s *Surface) Tree() *render.Tree {
	return s.tree.Load()
}

// Box returns the rendered box size.
func (s *Surface) Box() (w, h float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// BoxOf returns the rendered box when t is nil or the tree currently shown,
// and t's natural size otherwise.
func (s *Surface) BoxOf(t *render.Tree) (w, h float64) {
	if t == nil || t == s.Tree() {
		return s.Box()
	}
	return t.Width, t.Height
}

// Presentation returns the current presentation.
func (s *Surface) Presentation() Presentation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pres
}

// SetPresentation sets the transient presentation.
func (s *Surface) SetPresentation(p Presentation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pres = p
}

// Neutralize switches to the canonical presentation and returns a function
// that restores the previous one.
func (s *Surface) Neutralize() (restore func()) {
	s.mu.Lock()
	prev := s.pres
	s.pres = Canonical()
	s.mu.Unlock()
	return func() {
		s.SetPresentation(prev)
	}
}

// Registry maps handles to mounted surfaces.
type Registry struct {
	mu       sync.RWMutex
	surfaces map[Handle]*Surface
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{surfaces: make(map[Handle]*Surface)}
}

// Mount registers s under h, replacing any previous surface.
func (r *Registry) Mount(h Handle, s *Surface) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.surfaces[h] = s
}

// Unmount removes h. It is a no-op for unknown handles.
func (r *Registry) Unmount(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.surfaces, h)
}

// Lookup returns the surface mounted under h.
func (r *Registry) Lookup(h Handle) (*Surface, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.surfaces[h]
	return s, ok
}
