package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/insights/domain"
	moods "github.com/studyhaven/studyhaven-backend/internal/moods/domain"
	sessions "github.com/studyhaven/studyhaven-backend/internal/studysessions/domain"
)

type fakeStats struct {
	days      []domain.DayTotal
	weekStart time.Time
	dayStart  time.Time
	avgFrom   time.Time
	avg       *float64
	counts    domain.SessionCounts
}

func (f *fakeStats) DailyMinutes(_ context.Context, _ string, _ time.Time) ([]domain.DayTotal, error) {
	return f.days, nil
}

func (f *fakeStats) SessionCounts(_ context.Context, _ string, weekStart, dayStart time.Time) (*domain.SessionCounts, error) {
	f.weekStart, f.dayStart = weekStart, dayStart
	c := f.counts
	return &c, nil
}

func (f *fakeStats) MoodAverage(_ context.Context, _ string, from time.Time) (*float64, error) {
	f.avgFrom = from
	return f.avg, nil
}

type fakeMoods struct {
	logs     []moods.MoodLog
	from, to time.Time
}

func (f *fakeMoods) Latest(context.Context, string) (*moods.MoodLog, error) {
	if len(f.logs) == 0 {
		return nil, nil
	}
	m := f.logs[0]
	return &m, nil
}

func (f *fakeMoods) ListByRange(_ context.Context, _ string, from, to time.Time) ([]moods.MoodLog, error) {
	f.from, f.to = from, to
	return f.logs, nil
}

type fakeSessions struct{ list []sessions.StudySession }

func (f *fakeSessions) ListByRange(context.Context, string, time.Time, time.Time) ([]sessions.StudySession, error) {
	return f.list, nil
}

// Thursday.
var now = time.Date(2026, 4, 30, 15, 30, 0, 0, time.UTC)

func newService(stats *fakeStats, m *fakeMoods, s *fakeSessions) *InsightsService {
	svc := NewInsightsService(stats, m, s)
	svc.now = func() time.Time { return now }
	return svc
}

func TestDashboard(t *testing.T) {
	avg := 3.5
	stats := &fakeStats{
		days: []domain.DayTotal{
			{Date: "2026-04-30", Minutes: 50},
			{Date: "2026-04-29", Minutes: 30},
			{Date: "2026-04-28", Minutes: 10},
			{Date: "2026-04-26", Minutes: 60},
			{Date: "2026-04-20", Minutes: 100},
		},
		avg:    &avg,
		counts: domain.SessionCounts{SinceWeekStart: 5, PomodorosToday: 2},
	}
	latest := moods.MoodLog{ID: "m1", Mood: 4}
	svc := newService(stats, &fakeMoods{logs: []moods.MoodLog{latest}}, &fakeSessions{})

	d, err := svc.Dashboard(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, d.StreakDays)
	assert.Equal(t, 50, d.TodayMinutes)
	assert.Equal(t, 150, d.WeekMinutes)
	assert.Equal(t, 5, d.SessionsThisWeek)
	assert.Equal(t, 2, d.PomodorosToday)
	assert.Equal(t, 3.5, *d.AverageMood7d)
	assert.Equal(t, "m1", d.LatestMood.ID)

	assert.Equal(t, time.Date(2026, 4, 27, 0, 0, 0, 0, time.UTC), stats.weekStart)
	assert.Equal(t, time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC), stats.dayStart)
	assert.Equal(t, time.Date(2026, 4, 24, 0, 0, 0, 0, time.UTC), stats.avgFrom)
}

func TestStreak(t *testing.T) {
	today := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, streak(map[string]int{}, today))
	assert.Equal(t, 2, streak(map[string]int{"2026-04-29": 10, "2026-04-28": 5}, today), "counts back from yesterday")
	assert.Equal(t, 1, streak(map[string]int{"2026-04-30": 1, "2026-04-28": 5}, today))
	assert.Equal(t, 0, streak(map[string]int{"2026-04-28": 5}, today))
}

func TestWeekStart(t *testing.T) {
	sunday := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)
	monday := time.Date(2026, 4, 27, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStart(sunday))
	assert.Equal(t, monday, weekStart(monday))
}

func TestExport_Validation(t *testing.T) {
	svc := newService(&fakeStats{}, &fakeMoods{}, &fakeSessions{})
	ctx := context.Background()

	_, err := svc.Export(ctx, "uid-1", domain.ExportRequest{Kind: "pomodoros"})
	assert.ErrorIs(t, err, domain.ErrInvalidKind)

	_, err = svc.Export(ctx, "uid-1", domain.ExportRequest{Kind: "moods", Format: "xml"})
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)

	_, err = svc.Export(ctx, "uid-1", domain.ExportRequest{Kind: "moods", From: now, To: now.Add(-time.Hour)})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = svc.Export(ctx, "uid-1", domain.ExportRequest{Kind: "moods", From: now.AddDate(-3, 0, 0), To: now})
	assert.ErrorIs(t, err, domain.ErrInvalidRange)
}

func TestExport_MoodsCSV(t *testing.T) {
	m := &fakeMoods{logs: []moods.MoodLog{
		{ID: "m2", Mood: 2, Energy: 1, Note: "tired, cold", LoggedAt: time.Date(2026, 4, 29, 8, 0, 0, 0, time.UTC)},
		{ID: "m1", Mood: 4, Energy: 3, Emotions: []string{"calm", "focused"}, LoggedAt: time.Date(2026, 4, 28, 8, 0, 0, 0, time.UTC)},
	}}
	svc := newService(&fakeStats{}, m, &fakeSessions{})

	ds, err := svc.Export(context.Background(), "uid-1", domain.ExportRequest{Kind: "moods"})
	require.NoError(t, err)
	assert.Equal(t, now, m.to)
	assert.Equal(t, now.Add(-domain.DefaultExportRange), m.from)

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds, domain.FormatCSV))
	assert.Equal(t,
		"id,logged_at,mood,energy,emotions,note\n"+
			"m1,2026-04-28T08:00:00Z,4,3,calm;focused,\n"+
			"m2,2026-04-29T08:00:00Z,2,1,,\"tired, cold\"\n",
		buf.String())
}

func TestExport_SessionsJSON(t *testing.T) {
	ended := time.Date(2026, 4, 29, 10, 0, 0, 0, time.UTC)
	s := &fakeSessions{list: []sessions.StudySession{
		{ID: "s1", Subject: "Math", Source: "manual", StartedAt: ended.Add(-time.Hour), EndedAt: &ended, DurationMinutes: 60},
	}}
	svc := newService(&fakeStats{}, &fakeMoods{}, s)

	ds, err := svc.Export(context.Background(), "uid-1", domain.ExportRequest{Kind: "sessions", Format: "JSON"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds, domain.FormatJSON))
	assert.JSONEq(t, `[{"id":"s1","subject":"Math","source":"manual","started_at":"2026-04-29T09:00:00Z",
		"ended_at":"2026-04-29T10:00:00Z","duration_minutes":60,"notes":""}]`, buf.String())
}

func TestExport_EmptyJSONIsArray(t *testing.T) {
	svc := newService(&fakeStats{}, &fakeMoods{}, &fakeSessions{})
	ds, err := svc.Export(context.Background(), "uid-1", domain.ExportRequest{Kind: "sessions"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDataset(&buf, ds, domain.FormatJSON))
	assert.JSONEq(t, `[]`, buf.String())
}
