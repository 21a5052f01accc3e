package memorycard

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digitorus/memorycard/card"
	"github.com/digitorus/memorycard/decor"
	"github.com/digitorus/memorycard/preview"
)

func newTestSession(t *testing.T) (*Session, *Exporter) {
	t.Helper()
	e := New(WithDeliverer(&memDeliverer{}))
	s := NewSession(e, WithRand(rand.New(rand.NewSource(1))))
	t.Cleanup(s.Close)
	return s, e
}

func TestSessionMountsPreview(t *testing.T) {
	s, e := newTestSession(t)

	got, ok := e.Registry().Lookup(preview.DefaultHandle)
	require.True(t, ok)
	assert.Same(t, s.Surface(), got)

	s.Close()
	_, ok = e.Registry().Lookup(preview.DefaultHandle)
	assert.False(t, ok)
}

func TestSessionSnapshots(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.Snapshot()
	tree := s.Surface().Tree()

	s.Update(func(c card.MemoryCard) card.MemoryCard { return c.WithArtist("Bad Brains").WithMoodRating(9) })
	after := s.Snapshot()

	assert.Empty(t, before.Card.Artist, "earlier snapshots are not affected")
	assert.Equal(t, "Bad Brains", after.Card.Artist)
	assert.Equal(t, 5, after.Card.MoodRating)
	assert.NotSame(t, tree, s.Surface().Tree(), "every edit shows a new tree")
	assert.Contains(t, s.Surface().Tree().Texts(), "BAD BRAINS")
}

func TestSessionDecorations(t *testing.T) {
	s, _ := newTestSession(t)

	d := s.AddDecoration("★")
	second := s.AddDecoration("⚡")
	assert.NotEqual(t, d.ID, second.ID)
	require.Len(t, s.Snapshot().Options.Decorations, 2)
	assert.Len(t, s.Surface().Tree().Decorations(), 2)

	w, h := s.Surface().Box()
	ok, err := s.MoveDecoration(d.ID, w*2, -h)
	require.NoError(t, err)
	assert.True(t, ok)
	moved := s.Snapshot().Options.Decorations[0]
	assert.Equal(t, 100.0, moved.X)
	assert.Equal(t, 0.0, moved.Y)

	ok, err = s.MoveDecoration(999, 1, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	s.RemoveDecoration(d.ID)
	s.RemoveDecoration(d.ID)
	ds := s.Snapshot().Options.Decorations
	require.Len(t, ds, 1)
	assert.Equal(t, second.ID, ds[0].ID)
}

func TestSessionCustomizeKeepsDecorations(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddDecoration("★")

	s.Customize(func(o card.Options) card.Options {
		o.Decorations = nil
		o.Border = card.BorderDotted
		return o
	})
	snap := s.Snapshot()
	assert.Equal(t, card.BorderDotted, snap.Options.Border)
	assert.Len(t, snap.Options.Decorations, 1)

	before := snap.Options
	s.ApplyTemplate(card.TemplateID("no-such-template"))
	after := s.Snapshot().Options
	assert.Equal(t, before.Border, after.Border)
	assert.Equal(t, before.Decorations, after.Decorations)
}

func TestSessionReset(t *testing.T) {
	s, _ := newTestSession(t)
	s.SetCard(validCard())
	s.AddDecoration("★")
	s.Customize(func(o card.Options) card.Options { o.Layout = card.LayoutHorizontal; return o })

	s.Reset()
	snap := s.Snapshot()
	assert.Equal(t, card.New(), snap.Card)
	assert.Empty(t, snap.Options.Decorations)
	assert.Equal(t, card.DefaultOptions().Layout, snap.Options.Layout)
}

func TestSessionLoad(t *testing.T) {
	s, _ := newTestSession(t)
	s.AddDecoration("⚡")

	o := card.DefaultOptions().WithDecorations([]decor.Decoration{
		{ID: 40, Symbol: "★", X: 12.5, Y: 150},
		{ID: 41, Symbol: "♥", X: 50, Y: 50},
	})
	s.Load(Request{Card: validCard(), Options: o})

	snap := s.Snapshot()
	assert.Equal(t, "Dead Kennedys", snap.Card.Artist)
	require.Len(t, snap.Options.Decorations, 2)
	assert.Equal(t, "★", snap.Options.Decorations[0].Symbol)
	assert.Equal(t, 12.5, snap.Options.Decorations[0].X)
	assert.Equal(t, 100.0, snap.Options.Decorations[0].Y)
	assert.Equal(t, "♥", snap.Options.Decorations[1].Symbol)
}
