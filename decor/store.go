// Package decor keeps the movable decorations (stickers) of a memory card.
//
// Positions are stored as percentages of the card's bounding box so that the
// same set of decorations can be placed on the interactive preview and on a
// high resolution export canvas of a different pixel size.
package decor

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// DefaultSpread is the upper bound (in percent) for the random initial
// position of a new decoration, keeping it away from the far edges.
const DefaultSpread = 80.0

// Decoration is a single glyph placed on the card.
type Decoration struct {
	ID     int     `json:"id" toml:"id"`
	Symbol string  `json:"symbol" toml:"symbol"`
	X      float64 `json:"x" toml:"x"` // percent of card width, [0,100]
	Y      float64 `json:"y" toml:"y"` // percent of card height, [0,100]
}

// Store holds the ordered decorations of one card. Append order is z-order:
// later decorations are painted on top.
type Store struct {
	mu     sync.Mutex
	items  []Decoration
	nextID int
	rng    *rand.Rand
}

// NewStore returns an empty store. A nil rng uses a time seeded source.
func NewStore(rng *rand.Rand) *Store {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Store{rng: rng, nextID: 1}
}

// Add places a new decoration at a random position in [0,80]x[0,80].
func (s *Store) Add(symbol string) Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := Decoration{
		ID:     s.nextID,
		Symbol: symbol,
		X:      s.rng.Float64() * DefaultSpread,
		Y:      s.rng.Float64() * DefaultSpread,
	}
	s.nextID++
	s.items = append(s.items, d)
	return d
}

// Remove deletes the decoration with the given id. Unknown ids are ignored.
func (s *Store) Remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, d := range s.items {
		if d.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

// CommitMove stores the final position of a drag gesture. The pixel offsets
// are relative to the container's top-left corner and are converted to
// percentages, then clamped to [0,100].
//
// It reports false when no decoration has the given id.
func (s *Store) CommitMove(id int, pixelX, pixelY, containerWidth, containerHeight float64) (bool, error) {
	if containerWidth <= 0 || containerHeight <= 0 {
		return false, fmt.Errorf("invalid container size %.2fx%.2f", containerWidth, containerHeight)
	}

	x := Clamp(pixelX / containerWidth * 100)
	y := Clamp(pixelY / containerHeight * 100)

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].X = x
			s.items[i].Y = y
			return true, nil
		}
	}
	return false, nil
}

// List returns a copy of the decorations in z-order.
func (s *Store) List() []Decoration {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Decoration, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of decorations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Reset removes all decorations. Ids keep increasing.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Clamp limits a percentage to [0,100]. NaN is treated as 0.
func Clamp(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Place converts the stored percentages to absolute coordinates on a canvas
// of the given size.
func Place(d Decoration, width, height float64) (x, y float64) {
	return Clamp(d.X) / 100 * width, Clamp(d.Y) / 100 * height
}
