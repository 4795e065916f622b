package service

import (
	"context"
	"strings"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/integrations/domain"
	"github.com/studyhaven/studyhaven-backend/internal/logging"
)

type TokenStore interface {
	Upsert(ctx context.Context, t *domain.Token) error
	Get(ctx context.Context, userID, provider string) (*domain.Token, error)
	List(ctx context.Context, userID string) ([]domain.Token, error)
	Delete(ctx context.Context, userID, provider string) error
}

type CalendarProvider interface {
	Configured() bool
	Exchange(ctx context.Context, code string) (*domain.Token, error)
	Events(ctx context.Context, stored *domain.Token, from, to time.Time) ([]domain.CalendarEvent, *domain.Token, error)
}

type NotionProvider interface {
	Configured() bool
	Exchange(ctx context.Context, code string) (*domain.NotionGrant, error)
}

type IntegrationService struct {
	tokens   TokenStore
	calendar CalendarProvider
	notion   NotionProvider
	now      func() time.Time
}

func NewIntegrationService(tokens TokenStore, calendar CalendarProvider, notion NotionProvider) *IntegrationService {
	return &IntegrationService{tokens: tokens, calendar: calendar, notion: notion, now: time.Now}
}

func (s *IntegrationService) ConnectGoogleCalendar(ctx context.Context, userID, code string) (*domain.Connection, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrMissingCode
	}
	if s.calendar == nil || !s.calendar.Configured() {
		return nil, domain.ErrNotConfigured
	}

	tok, err := s.calendar.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	tok.UserID = userID
	tok.Provider = domain.ProviderGoogleCalendar
	if err := s.tokens.Upsert(ctx, tok); err != nil {
		return nil, err
	}
	return toConnection(tok), nil
}

// CalendarEvents returns the events of the next seven days. A token refreshed
// while listing is written back.
func (s *IntegrationService) CalendarEvents(ctx context.Context, userID string) ([]domain.CalendarEvent, error) {
	stored, err := s.tokens.Get(ctx, userID, domain.ProviderGoogleCalendar)
	if err != nil {
		return nil, err
	}
	if s.calendar == nil || !s.calendar.Configured() {
		return nil, domain.ErrNotConfigured
	}

	from := s.now().UTC()
	events, refreshed, err := s.calendar.Events(ctx, stored, from, from.Add(domain.EventsWindow))
	if err != nil {
		return nil, err
	}

	if refreshed != nil {
		refreshed.UserID = userID
		refreshed.Provider = domain.ProviderGoogleCalendar
		refreshed.Metadata = stored.Metadata
		if err := s.tokens.Upsert(ctx, refreshed); err != nil {
			logging.NewLogger(ctx).LogErrorf("calendar_events", "persist refreshed token: %v", err)
		}
	}
	return events, nil
}

func (s *IntegrationService) ConnectNotion(ctx context.Context, userID, code string) (*domain.Connection, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.ErrMissingCode
	}
	if s.notion == nil || !s.notion.Configured() {
		return nil, domain.ErrNotConfigured
	}

	grant, err := s.notion.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	tok := &domain.Token{
		UserID:      userID,
		Provider:    domain.ProviderNotion,
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		Metadata: map[string]string{
			"bot_id":         grant.BotID,
			"workspace_id":   grant.WorkspaceID,
			"workspace_name": grant.WorkspaceName,
			"workspace_icon": grant.WorkspaceIcon,
		},
	}
	if err := s.tokens.Upsert(ctx, tok); err != nil {
		return nil, err
	}
	return toConnection(tok), nil
}

func (s *IntegrationService) Disconnect(ctx context.Context, userID, provider string) error {
	return s.tokens.Delete(ctx, userID, provider)
}

func (s *IntegrationService) Connections(ctx context.Context, userID string) ([]domain.Connection, error) {
	toks, err := s.tokens.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Connection, 0, len(toks))
	for i := range toks {
		out = append(out, *toConnection(&toks[i]))
	}
	return out, nil
}

func toConnection(t *domain.Token) *domain.Connection {
	return &domain.Connection{
		Provider:      t.Provider,
		WorkspaceName: t.Metadata["workspace_name"],
		ConnectedAt:   t.CreatedAt,
	}
}
