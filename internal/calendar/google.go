package calendar

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/ShayCichocki/crewcal/internal/directory"
)

const primaryCalendar = "primary"

// OAuth builds consent URLs and exchanges authorization codes for Google
// Calendar access.
type OAuth struct {
	cfg *oauth2.Config
}

// NewOAuth creates the OAuth helper for the given client.
func NewOAuth(clientID, clientSecret, redirectURL string) *OAuth {
	return &OAuth{cfg: &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{gcal.CalendarScope},
		Endpoint:     google.Endpoint,
	}}
}

// Config returns the underlying oauth2 configuration.
func (o *OAuth) Config() *oauth2.Config {
	return o.cfg
}

// AuthURL returns the consent URL. state is echoed back to the redirect and
// carries the identity ID being connected.
func (o *OAuth) AuthURL(state string) string {
	return o.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token.
func (o *OAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := o.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// persistingTokenSource writes refreshed tokens back to the store so the next
// call starts from the fresh token.
type persistingTokenSource struct {
	handle string
	store  directory.TokenStore
	base   oauth2.TokenSource

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		if err := s.store.SaveToken(s.handle, tok); err != nil {
			return nil, fmt.Errorf("persist refreshed token: %w", err)
		}
		s.last = tok.AccessToken
	}
	return tok, nil
}

// GoogleProvider talks to the primary Google calendar of each identity.
type GoogleProvider struct {
	oauth  *OAuth
	tokens directory.TokenStore

	// Endpoint overrides the Calendar API base URL. Used by tests.
	Endpoint string
}

// NewGoogleProvider creates a provider reading credentials from tokens.
func NewGoogleProvider(oauth *OAuth, tokens directory.TokenStore) *GoogleProvider {
	return &GoogleProvider{oauth: oauth, tokens: tokens}
}

func (g *GoogleProvider) service(ctx context.Context, handle string) (*gcal.Service, error) {
	tok, err := g.tokens.LoadToken(handle)
	if err != nil {
		return nil, err
	}

	src := &persistingTokenSource{
		handle: handle,
		store:  g.tokens,
		base:   g.oauth.cfg.TokenSource(ctx, tok),
		last:   tok.AccessToken,
	}
	client := &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return svc, nil
}

// CreateEvent inserts ev into the primary calendar.
func (g *GoogleProvider) CreateEvent(ctx context.Context, handle string, ev Event) (Event, error) {
	svc, err := g.service(ctx, handle)
	if err != nil {
		return Event{}, err
	}

	created, err := svc.Events.Insert(primaryCalendar, &gcal.Event{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       toEventDateTime(ev.Start),
		End:         toEventDateTime(ev.End),
	}).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("insert event: %w", err)
	}
	return fromGoogleEvent(created), nil
}

// ListEvents lists single events ordered by start.
func (g *GoogleProvider) ListEvents(ctx context.Context, handle string, from, to time.Time, limit int) ([]Event, error) {
	svc, err := g.service(ctx, handle)
	if err != nil {
		return nil, err
	}

	call := svc.Events.List(primaryCalendar).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")
	if limit > 0 {
		call = call.MaxResults(int64(limit))
	}

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return fromGoogleEvents(resp.Items), nil
}

// SearchEvents uses the Calendar API free-text query.
func (g *GoogleProvider) SearchEvents(ctx context.Context, handle, query string, from, to time.Time) ([]Event, error) {
	svc, err := g.service(ctx, handle)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Events.List(primaryCalendar).
		Q(query).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return fromGoogleEvents(resp.Items), nil
}

// DeleteEvent removes one event from the primary calendar.
func (g *GoogleProvider) DeleteEvent(ctx context.Context, handle, eventID string) error {
	svc, err := g.service(ctx, handle)
	if err != nil {
		return err
	}
	if err := svc.Events.Delete(primaryCalendar, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

// FreeBusy queries the primary calendar's busy periods. Google merges
// overlapping events into a single period, so two overlapping meetings come
// back as one interval.
func (g *GoogleProvider) FreeBusy(ctx context.Context, handle string, from, to time.Time) ([]Interval, error) {
	svc, err := g.service(ctx, handle)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Freebusy.Query(&gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: primaryCalendar}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("query free/busy: %w", err)
	}

	cal, ok := resp.Calendars[primaryCalendar]
	if !ok {
		return nil, nil
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("query free/busy: %s", cal.Errors[0].Reason)
	}

	var out []Interval
	for _, p := range cal.Busy {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("parse busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("parse busy end %q: %w", p.End, err)
		}
		out = append(out, Interval{Start: start, End: end})
	}
	return out, nil
}

func toEventDateTime(t time.Time) *gcal.EventDateTime {
	dt := &gcal.EventDateTime{DateTime: t.Format(time.RFC3339)}
	if name := t.Location().String(); name != "" && name != "Local" {
		dt.TimeZone = name
	}
	return dt
}

func fromGoogleEvents(items []*gcal.Event) []Event {
	out := make([]Event, 0, len(items))
	for _, it := range items {
		out = append(out, fromGoogleEvent(it))
	}
	return out
}

func fromGoogleEvent(it *gcal.Event) Event {
	ev := Event{
		ID:          it.Id,
		Title:       it.Summary,
		Description: it.Description,
	}
	ev.Start, ev.AllDay = parseEventDateTime(it.Start)
	ev.End, _ = parseEventDateTime(it.End)
	return ev
}

// parseEventDateTime handles both timed events and all-day dates.
func parseEventDateTime(dt *gcal.EventDateTime) (time.Time, bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t, false
	}
	loc := time.UTC
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	t, _ := time.ParseInLocation("2006-01-02", dt.Date, loc)
	return t, true
}

var _ Provider = (*GoogleProvider)(nil)
