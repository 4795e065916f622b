package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/domain"
	"github.com/studyhaven/studyhaven-backend/internal/pomodoro/repository"
)

type recorded struct {
	userID, subject string
	startedAt       time.Time
	minutes         int
}

type fakeRecorder struct{ calls []recorded }

func (f *fakeRecorder) RecordPomodoro(_ context.Context, userID, subject string, startedAt time.Time, minutes int) error {
	f.calls = append(f.calls, recorded{userID, subject, startedAt, minutes})
	return nil
}

func newService(t *testing.T) (*PomodoroService, *fakeRecorder, *time.Time) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rec := &fakeRecorder{}
	svc := NewPomodoroService(repository.NewTimerRepository(client), rec)
	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	return svc, rec, &clock
}

func TestPomodoroService_FullWorkPhaseIsRecorded(t *testing.T) {
	svc, rec, clock := newService(t)
	ctx := context.Background()
	start := *clock

	s := domain.DefaultSettings()
	s.Subject = "Chemistry"
	_, err := svc.UpdateSettings(ctx, "uid-1", s)
	require.NoError(t, err)

	v, err := svc.Start(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, v.Status)
	assert.Equal(t, 1500, v.RemainingSeconds)

	*clock = start.Add(10 * time.Minute)
	v, err = svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 900, v.RemainingSeconds)
	assert.Empty(t, rec.calls)

	*clock = start.Add(26 * time.Minute)
	v, err = svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseShortBreak, v.Phase)
	assert.Equal(t, domain.StatusIdle, v.Status)
	assert.Equal(t, 1, v.CompletedWork)
	require.Len(t, rec.calls, 1)
	assert.Equal(t, recorded{"uid-1", "Chemistry", start, 25}, rec.calls[0])

	// A second read must not record again.
	_, err = svc.Get(ctx, "uid-1")
	require.NoError(t, err)
	assert.Len(t, rec.calls, 1)
}

func TestPomodoroService_InvalidTransitions(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Pause(ctx, "uid-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = svc.Start(ctx, "uid-1")
	require.NoError(t, err)
	_, err = svc.UpdateSettings(ctx, "uid-1", domain.DefaultSettings())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	v, err := svc.Reset(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusIdle, v.Status)

	_, err = svc.UpdateSettings(ctx, "uid-1", domain.Settings{WorkMinutes: 500})
	assert.ErrorIs(t, err, domain.ErrInvalidSettings)
}

func TestPomodoroService_SkipIsNotRecorded(t *testing.T) {
	svc, rec, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Start(ctx, "uid-1")
	require.NoError(t, err)
	v, err := svc.Skip(ctx, "uid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseShortBreak, v.Phase)
	assert.Empty(t, rec.calls)
}
