package provider

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/studyhaven/studyhaven-backend/config"
	"github.com/studyhaven/studyhaven-backend/internal/integrations/domain"
	"github.com/studyhaven/studyhaven-backend/internal/upstream"
)

const maxCalendarEvents = 50

// GoogleCalendar exchanges authorization codes and reads the primary calendar.
type GoogleCalendar struct {
	oauth       *oauth2.Config
	apiEndpoint string
}

type GoogleOption func(*GoogleCalendar)

// WithGoogleEndpoints points token exchange and the Calendar API at other hosts.
func WithGoogleEndpoints(tokenURL, apiEndpoint string) GoogleOption {
	return func(g *GoogleCalendar) {
		g.oauth.Endpoint.TokenURL = tokenURL
		g.apiEndpoint = apiEndpoint
	}
}

func NewGoogleCalendar(c config.OAuthConfig, opts ...GoogleOption) *GoogleCalendar {
	g := &GoogleCalendar{
		oauth: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{calendar.CalendarReadonlyScope},
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GoogleCalendar) Configured() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

func (g *GoogleCalendar) Exchange(ctx context.Context, code string) (*domain.Token, error) {
	tok, err := g.oauth.Exchange(ctx, code, oauth2.AccessTypeOffline)
	if err != nil {
		return nil, googleError(err)
	}
	return fromOAuth(tok), nil
}

// Events lists single events of the primary calendar in [from, to). The
// returned token is non-nil when the access token was refreshed on the way.
func (g *GoogleCalendar) Events(ctx context.Context, stored *domain.Token, from, to time.Time) ([]domain.CalendarEvent, *domain.Token, error) {
	orig := toOAuth(stored)
	ts := g.oauth.TokenSource(ctx, orig)

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, ts))}
	if g.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(g.apiEndpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, err
	}

	res, err := svc.Events.List("primary").
		Context(ctx).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxCalendarEvents).
		Do()
	if err != nil {
		return nil, nil, googleError(err)
	}

	events := make([]domain.CalendarEvent, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Status == "cancelled" {
			continue
		}
		events = append(events, toEvent(item))
	}

	var refreshed *domain.Token
	if cur, err := ts.Token(); err == nil && cur.AccessToken != orig.AccessToken {
		refreshed = fromOAuth(cur)
	}
	return events, refreshed, nil
}

func toEvent(item *calendar.Event) domain.CalendarEvent {
	ev := domain.CalendarEvent{
		ID:       item.Id,
		Summary:  item.Summary,
		Location: item.Location,
		Link:     item.HtmlLink,
	}
	if item.Start != nil {
		ev.Start, ev.AllDay = eventTime(item.Start)
	}
	if item.End != nil {
		ev.End, _ = eventTime(item.End)
	}
	return ev
}

func eventTime(t *calendar.EventDateTime) (time.Time, bool) {
	if t.DateTime != "" {
		parsed, _ := time.Parse(time.RFC3339, t.DateTime)
		return parsed.UTC(), false
	}
	parsed, _ := time.Parse(time.DateOnly, t.Date)
	return parsed, true
}

func fromOAuth(tok *oauth2.Token) *domain.Token {
	out := &domain.Token{
		Provider:     domain.ProviderGoogleCalendar,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.UTC()
		out.Expiry = &exp
	}
	return out
}

func toOAuth(t *domain.Token) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	if t.Expiry != nil {
		tok.Expiry = *t.Expiry
	}
	return tok
}

func googleError(err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		msg := retrieve.ErrorCode
		if retrieve.ErrorDescription != "" {
			msg = retrieve.ErrorDescription
		}
		status := 0
		if retrieve.Response != nil {
			status = retrieve.Response.StatusCode
		}
		return &upstream.Error{Provider: "google", Status: status, Message: msg}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &upstream.Error{Provider: "google", Status: apiErr.Code, Message: apiErr.Message}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &upstream.Error{Provider: "google", Message: err.Error()}
}
