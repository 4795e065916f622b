package service

import (
	"context"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/logging"
	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/domain"
)

type TimerStore interface {
	Update(ctx context.Context, userID string, fn func(*domain.Timer) error) (*domain.Timer, error)
	Publish(ctx context.Context, t *domain.Timer) error
}

// SessionRecorder stores completed work phases as study sessions.
type SessionRecorder interface {
	RecordPomodoro(ctx context.Context, userID, subject string, startedAt time.Time, minutes int) error
}

type PomodoroService struct {
	store    TimerStore
	recorder SessionRecorder
	now      func() time.Time
}

func NewPomodoroService(store TimerStore, recorder SessionRecorder) *PomodoroService {
	return &PomodoroService{store: store, recorder: recorder, now: time.Now}
}

// Get returns the timer after replaying any phases that elapsed since the
// last request.
func (s *PomodoroService) Get(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_get", nil)
}

func (s *PomodoroService) Start(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_start", func(t *domain.Timer, now time.Time) error { return t.Start(now) })
}

func (s *PomodoroService) Pause(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_pause", func(t *domain.Timer, now time.Time) error { return t.Pause(now) })
}

func (s *PomodoroService) Resume(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_resume", func(t *domain.Timer, now time.Time) error { return t.Resume(now) })
}

func (s *PomodoroService) Skip(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_skip", func(t *domain.Timer, now time.Time) error {
		t.Skip(now)
		return nil
	})
}

func (s *PomodoroService) Reset(ctx context.Context, userID string) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_reset", func(t *domain.Timer, _ time.Time) error {
		t.Reset()
		return nil
	})
}

func (s *PomodoroService) UpdateSettings(ctx context.Context, userID string, settings domain.Settings) (*domain.View, error) {
	return s.apply(ctx, userID, "pomodoro_settings", func(t *domain.Timer, _ time.Time) error {
		return t.UpdateSettings(settings)
	})
}

func (s *PomodoroService) apply(ctx context.Context, userID, op string, fn func(*domain.Timer, time.Time) error) (*domain.View, error) {
	var done []domain.CompletedPhase
	var now time.Time

	t, err := s.store.Update(ctx, userID, func(t *domain.Timer) error {
		now = s.now().UTC()
		done = t.Advance(now)
		if fn == nil {
			return nil
		}
		return fn(t, now)
	})
	if err != nil {
		return nil, err
	}

	log := logging.NewLogger(ctx)
	if s.recorder != nil {
		for _, p := range done {
			if err := s.recorder.RecordPomodoro(ctx, userID, p.Subject, p.StartedAt, p.Minutes); err != nil {
				log.LogError(op, err)
			}
		}
	}
	if fn != nil || len(done) > 0 {
		if err := s.store.Publish(ctx, t); err != nil {
			log.LogWarnf(op, "publish timer: %v", err)
		}
	}

	v := t.View(now)
	return &v, nil
}
