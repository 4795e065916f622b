package cronjob

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	calls int
	err   error
}

func (f *fakeSessions) CloseStale(ctx context.Context) (int64, error) {
	f.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 3, f.err
}

type fakeRooms struct{ calls int }

func (f *fakeRooms) ArchiveIdle(context.Context) (int64, error) {
	f.calls++
	return 1, nil
}

func TestSpecs(t *testing.T) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	from := time.Date(2026, 5, 1, 10, 15, 0, 0, time.UTC)

	hourly, err := parser.Parse(HourlySpec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 1, 11, 0, 0, 0, time.UTC), hourly.Next(from))

	nightly, err := parser.Parse(NightlySpec)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 2, 3, 30, 0, 0, time.UTC), nightly.Next(from))
}

func TestJobsRunWithTimeout(t *testing.T) {
	sessions := &fakeSessions{}
	rooms := &fakeRooms{}
	s := NewScheduler(sessions, rooms)

	s.CloseStaleSessions(context.Background())
	s.ArchiveIdleRooms(context.Background())
	assert.Equal(t, 1, sessions.calls)
	assert.Equal(t, 1, rooms.calls)

	sessions.err = errors.New("db down")
	s.CloseStaleSessions(context.Background())
	assert.Equal(t, 2, sessions.calls)
}

func TestStartStop(t *testing.T) {
	s := NewScheduler(&fakeSessions{}, &fakeRooms{})
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
