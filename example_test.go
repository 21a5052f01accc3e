package memorycard_test

import (
	"context"
	"fmt"
	"log"

	"github.com/digitorus/memorycard"
	"github.com/digitorus/memorycard/card"
)

func ExampleFilename() {
	c := card.New().WithArtist("Dead Kennedys").WithVenue("CBGB").WithDate("1981-06-15")
	fmt.Println(memorycard.Filename(c))

	c = card.New().WithArtist("Björk").WithVenue("Café Oto")
	fmt.Println(memorycard.Filename(c))
	// Output:
	// concert-memory-dead-kennedys-cbgb-1981-06-15.pdf
	// concert-memory-bjork-cafe-oto-unknown-date.pdf
}

// ExampleSession shows the editing and export flow of one card.
func ExampleSession() {
	var delivered string
	deliver := memorycard.DelivererFunc(func(_ context.Context, name string, data []byte) (string, error) {
		delivered = name
		return name, nil
	})

	settings := memorycard.DefaultSettings()
	settings.Scale = 1
	settings.TargetDPI = 0
	e := memorycard.New(memorycard.WithSettings(settings), memorycard.WithDeliverer(deliver))

	// 1. Start a session, which mounts the live preview
	s := memorycard.NewSession(e)
	defer s.Close()

	// 2. Exporting without artist and venue is refused
	n := s.Trigger(context.Background())
	fmt.Println(n.Title)

	// 3. Fill in the card and pick a template
	s.Update(func(c card.MemoryCard) card.MemoryCard {
		return c.WithArtist("Bad Brains").WithVenue("9:30 Club").WithDate("1982-12-30")
	})
	s.ApplyTemplate(card.TemplateRiotGrrrl)
	s.AddDecoration("⚡")

	// 4. Export
	n = s.Trigger(context.Background())
	if n.Err != nil {
		log.Fatal(n.Err)
	}
	fmt.Println(n.Title, delivered)
	// Output:
	// Missing Information
	// PDF Generated! concert-memory-bad-brains-9-30-club-1982-12-30.pdf
}
