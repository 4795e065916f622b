package service

import (
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/studysessions/domain"
)

type SessionStore interface {
	Create(ctx context.Context, s *domain.StudySession) error
	Get(ctx context.Context, userID, id string) (*domain.StudySession, error)
	GetOpen(ctx context.Context, userID string) (*domain.StudySession, error)
	Stop(ctx context.Context, userID, id string, endedAt time.Time, minutes int) (*domain.StudySession, error)
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]domain.StudySession, error)
	Delete(ctx context.Context, userID, id string) error
	CloseStale(ctx context.Context, cutoff time.Time, capMinutes int) (int64, error)
}

type SessionService struct {
	repo SessionStore
	now  func() time.Time
}

func NewSessionService(repo SessionStore) *SessionService {
	return &SessionService{repo: repo, now: time.Now}
}

// Log records a session that already happened. StartedAt defaults to
// now minus the duration.
func (s *SessionService) Log(ctx context.Context, userID string, req domain.LogSessionRequest) (*domain.StudySession, error) {
	return s.record(ctx, userID, domain.SourceManual, req)
}

// RecordPomodoro stores a completed pomodoro work phase.
func (s *SessionService) RecordPomodoro(ctx context.Context, userID, subject string, startedAt time.Time, minutes int) error {
	_, err := s.record(ctx, userID, domain.SourcePomodoro, domain.LogSessionRequest{
		Subject:         subject,
		DurationMinutes: minutes,
		StartedAt:       &startedAt,
	})
	return err
}

func (s *SessionService) record(ctx context.Context, userID, source string, req domain.LogSessionRequest) (*domain.StudySession, error) {
	if req.DurationMinutes < domain.MinDurationMinutes || req.DurationMinutes > domain.MaxDurationMinutes {
		return nil, domain.ErrInvalidDuration
	}
	subject, notes, err := cleanText(req.Subject, req.Notes)
	if err != nil {
		return nil, err
	}

	duration := time.Duration(req.DurationMinutes) * time.Minute
	started := s.now().UTC().Add(-duration)
	if req.StartedAt != nil {
		started = req.StartedAt.UTC()
	}
	ended := started.Add(duration)

	sess := &domain.StudySession{
		ID:              uuid.NewString(),
		UserID:          userID,
		Subject:         subject,
		Source:          source,
		StartedAt:       started,
		EndedAt:         &ended,
		DurationMinutes: req.DurationMinutes,
		Notes:           notes,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Start opens a live session. Only one may be open per user.
func (s *SessionService) Start(ctx context.Context, userID, subject, notes string) (*domain.StudySession, error) {
	subject, notes, err := cleanText(subject, notes)
	if err != nil {
		return nil, err
	}
	open, err := s.repo.GetOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, domain.ErrSessionOpen
	}

	sess := &domain.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		Source:    domain.SourceTimer,
		StartedAt: s.now().UTC(),
		Notes:     notes,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Stop ends a live session, crediting at least one minute and at most the
// maximum duration.
func (s *SessionService) Stop(ctx context.Context, userID, id string) (*domain.StudySession, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	sess, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if !sess.Open() {
		return nil, domain.ErrAlreadyStopped
	}

	now := s.now().UTC()
	minutes := ElapsedMinutes(sess.StartedAt, now)
	return s.repo.Stop(ctx, userID, id, now, minutes)
}

// Current returns the running session, or nil.
func (s *SessionService) Current(ctx context.Context, userID string) (*domain.StudySession, error) {
	return s.repo.GetOpen(ctx, userID)
}

func (s *SessionService) List(ctx context.Context, userID string, from, to time.Time) ([]domain.StudySession, error) {
	if to.IsZero() {
		to = s.now().UTC().Add(time.Minute)
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	if !from.Before(to) {
		return nil, domain.ErrInvalidRange
	}
	return s.repo.ListByRange(ctx, userID, from, to)
}

func (s *SessionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	return s.repo.Delete(ctx, userID, id)
}

// Summary totals completed sessions of the last `days` days.
func (s *SessionService) Summary(ctx context.Context, userID string, days int) (*domain.Summary, error) {
	if days < 1 || days > domain.MaxSummaryDays {
		return nil, domain.ErrInvalidRange
	}
	now := s.now().UTC()
	sessions, err := s.repo.ListByRange(ctx, userID, now.AddDate(0, 0, -days), now.Add(time.Minute))
	if err != nil {
		return nil, err
	}
	return Summarize(sessions, days), nil
}

// CloseStale ends sessions left running longer than StaleAfter.
func (s *SessionService) CloseStale(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-domain.StaleAfter)
	n, err := s.repo.CloseStale(ctx, cutoff, int(domain.StaleAfter/time.Minute))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logging.NewLogger(ctx).LogInfof("close_stale_sessions", "closed %d stale sessions", n)
	}
	return n, nil
}

// Summarize aggregates completed sessions; open sessions are skipped.
func Summarize(sessions []domain.StudySession, days int) *domain.Summary {
	out := &domain.Summary{
		Days:      days,
		BySubject: []domain.SubjectMinutes{},
		ByDay:     []domain.DayMinutes{},
	}
	bySubject := map[string]int{}
	byDay := map[string]int{}

	for _, sess := range sessions {
		if sess.Open() {
			continue
		}
		out.SessionCount++
		out.TotalMinutes += sess.DurationMinutes
		bySubject[sess.Subject] += sess.DurationMinutes
		byDay[sess.StartedAt.UTC().Format("2006-01-02")] += sess.DurationMinutes
	}

	for subj, m := range bySubject {
		out.BySubject = append(out.BySubject, domain.SubjectMinutes{Subject: subj, Minutes: m})
	}
	sort.Slice(out.BySubject, func(i, j int) bool {
		if out.BySubject[i].Minutes != out.BySubject[j].Minutes {
			return out.BySubject[i].Minutes > out.BySubject[j].Minutes
		}
		return out.BySubject[i].Subject < out.BySubject[j].Subject
	})

	for day, m := range byDay {
		out.ByDay = append(out.ByDay, domain.DayMinutes{Date: day, Minutes: m})
	}
	sort.Slice(out.ByDay, func(i, j int) bool { return out.ByDay[i].Date < out.ByDay[j].Date })
	return out
}

// ElapsedMinutes rounds the elapsed time down to whole minutes, clamped to
// the allowed duration range.
func ElapsedMinutes(start, end time.Time) int {
	m := int(end.Sub(start) / time.Minute)
	if m < domain.MinDurationMinutes {
		return domain.MinDurationMinutes
	}
	if m > domain.MaxDurationMinutes {
		return domain.MaxDurationMinutes
	}
	return m
}

func cleanText(subject, notes string) (string, string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = domain.DefaultSubject
	}
	if utf8.RuneCountInString(subject) > domain.MaxSubjectLen {
		return "", "", domain.ErrInvalidSubject
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > domain.MaxNotesLen {
		return "", "", domain.ErrNotesTooLong
	}
	return subject, notes, nil
}
