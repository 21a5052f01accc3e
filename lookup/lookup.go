// Package lookup finds concerts and setlists in public music databases to
// prefill a card. Every failure is logged and turned into an empty result;
// callers never see an error.
package lookup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/digitorus/memorycard/card"
)

// Defaults for the public endpoints.
const (
	DefaultMusicBrainzURL = "https://musicbrainz.org/ws/2"
	DefaultSetlistFMURL   = "https://api.setlist.fm/rest/1.0"
	DefaultUserAgent      = "memorycard/1.0 (https://github.com/digitorus/memorycard)"

	// placeholders for events without location data
	UnknownVenue = "Unknown venue"
	UnknownCity  = "Unknown city"
)

// Config configures a Client.
type Config struct {
	MusicBrainzURL  string
	SetlistFMURL    string
	SetlistFMAPIKey string
	UserAgent       string
	Timeout         time.Duration
	MaxRetries      int
	InitialBackoff  time.Duration
}

// Client queries MusicBrainz and setlist.fm.
type Client struct {
	mb      *resty.Client
	setlist *resty.Client
	cfg     Config
	log     zerolog.Logger
}

// New returns a client. Empty config fields use the public defaults.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.MusicBrainzURL == "" {
		cfg.MusicBrainzURL = DefaultMusicBrainzURL
	}
	if cfg.SetlistFMURL == "" {
		cfg.SetlistFMURL = DefaultSetlistFMURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}

	mb := resty.New().
		SetBaseURL(strings.TrimRight(cfg.MusicBrainzURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetTimeout(cfg.Timeout)
	sl := resty.New().
		SetBaseURL(strings.TrimRight(cfg.SetlistFMURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("x-api-key", cfg.SetlistFMAPIKey).
		SetTimeout(cfg.Timeout)

	return &Client{mb: mb, setlist: sl, cfg: cfg, log: log.With().Str("component", "lookup").Logger()}
}

// Artist is an artist search hit.
type Artist struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Disambiguation string `json:"disambiguation,omitempty"`
	Country        string `json:"country,omitempty"`
}

// Event is a concert that can prefill a card.
type Event struct {
	Artist string
	Venue  string
	City   string
	Date   string
	Genre  string
}

// Apply copies the event into c.
func (e Event) Apply(c card.MemoryCard) card.MemoryCard {
	return c.Prefill(e.Artist, e.Venue, e.City, e.Date, e.Genre)
}

type artistsResponse struct {
	Artists []Artist `json:"artists"`
}

type mbEvent struct {
	Name   string `json:"name"`
	Date   string `json:"date"`
	Artist *struct {
		Name string `json:"name"`
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"artist"`
	Venue *struct {
		Name string `json:"name"`
	} `json:"venue"`
	Area *struct {
		Name string `json:"name"`
	} `json:"area"`
	LifeSpan struct {
		Begin string `json:"begin"`
	} `json:"life-span"`
}

type eventsResponse struct {
	Events []mbEvent `json:"events"`
}

type setlistResponse struct {
	Setlist []struct {
		Sets struct {
			Set []struct {
				Name   string `json:"name"`
				Encore int    `json:"encore"`
				Song   []struct {
					Name string `json:"name"`
				} `json:"song"`
			} `json:"set"`
		} `json:"sets"`
	} `json:"setlist"`
}

// errStatus marks a response with an unexpected status code.
type errStatus struct {
	code int
	body string
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.code, e.body)
}

// get performs a GET with retries on transport errors, 429 and 5xx.
func (c *Client) get(ctx context.Context, rc *resty.Client, path string, query map[string]string, out any) error {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.cfg.InitialBackoff
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.cfg.MaxRetries)), ctx)

	op := func() error {
		resp, err := rc.R().
			SetContext(ctx).
			SetQueryParams(query).
			SetResult(out).
			Get(path)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		switch code := resp.StatusCode(); {
		case code == http.StatusOK:
			return nil
		case code == http.StatusTooManyRequests || code >= 500:
			return &errStatus{code: code, body: resp.String()}
		default:
			return backoff.Permanent(&errStatus{code: code, body: resp.String()})
		}
	}
	notify := func(err error, d time.Duration) {
		c.log.Debug().Err(err).Str("path", path).Dur("wait", d).Msg("retrying lookup")
	}
	return backoff.RetryNotify(op, policy, notify)
}

// SearchArtists returns up to five artists matching query.
func (c *Client) SearchArtists(ctx context.Context, query string) []Artist {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var res artistsResponse
	err := c.get(ctx, c.mb, "/artist/", map[string]string{"query": query, "fmt": "json", "limit": "5"}, &res)
	if err != nil {
		c.log.Warn().Err(err).Str("query", query).Msg("artist search failed")
		return nil
	}
	return res.Artists
}

// Events returns up to ten events of the artist. name is used when an event
// does not carry the artist.
func (c *Client) Events(ctx context.Context, artistID, name string) []Event {
	if artistID == "" {
		return nil
	}
	var res eventsResponse
	err := c.get(ctx, c.mb, "/event", map[string]string{"artist": artistID, "fmt": "json", "limit": "10"}, &res)
	if err != nil {
		c.log.Warn().Err(err).Str("artist_id", artistID).Msg("event search failed")
		return nil
	}

	events := make([]Event, 0, len(res.Events))
	for _, ev := range res.Events {
		e := Event{Artist: name, Venue: UnknownVenue, City: UnknownCity, Date: ev.Date}
		if ev.Artist != nil {
			if ev.Artist.Name != "" {
				e.Artist = ev.Artist.Name
			}
			if len(ev.Artist.Tags) > 0 {
				e.Genre = ev.Artist.Tags[0].Name
			}
		}
		if ev.Venue != nil && ev.Venue.Name != "" {
			e.Venue = ev.Venue.Name
		}
		if ev.Area != nil && ev.Area.Name != "" {
			e.City = ev.Area.Name
		}
		if e.Date == "" {
			e.Date = ev.LifeSpan.Begin
		}
		events = append(events, e)
	}
	return events
}

// Setlist returns the setlist of the artist's concert on date (YYYY-MM-DD)
// as text: set names as "Name:" lines followed by numbered songs. An empty
// string means nothing was found.
func (c *Client) Setlist(ctx context.Context, artist, date string) string {
	if artist == "" || date == "" || c.cfg.SetlistFMAPIKey == "" {
		return ""
	}
	artists := c.SearchArtists(ctx, artist)
	if len(artists) == 0 {
		return ""
	}

	// setlist.fm wants dd-MM-yyyy
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		c.log.Warn().Err(err).Str("date", date).Msg("setlist lookup needs an ISO date")
		return ""
	}

	var res setlistResponse
	err = c.get(ctx, c.setlist, "/search/setlists", map[string]string{
		"artistMbid": artists[0].ID,
		"date":       d.Format("02-01-2006"),
	}, &res)
	if err != nil {
		c.log.Warn().Err(err).Str("artist", artist).Str("date", date).Msg("setlist lookup failed")
		return ""
	}
	if len(res.Setlist) == 0 {
		return ""
	}

	var b strings.Builder
	for _, set := range res.Setlist[0].Sets.Set {
		name := set.Name
		if name == "" && set.Encore > 0 {
			name = fmt.Sprintf("Encore %d", set.Encore)
		}
		if name != "" {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		for i, song := range set.Song {
			fmt.Fprintf(&b, "%d. %s\n", i+1, song.Name)
		}
	}
	return strings.TrimSpace(b.String())
}
