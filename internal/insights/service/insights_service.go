package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/insights/domain"
	moods "github.com/studyhaven/studyhaven-backend/internal/moods/domain"
	sessions "github.com/studyhaven/studyhaven-backend/internal/studysessions/domain"
)

type StatsReader interface {
	DailyMinutes(ctx context.Context, userID string, from time.Time) ([]domain.DayTotal, error)
	SessionCounts(ctx context.Context, userID string, weekStart, dayStart time.Time) (*domain.SessionCounts, error)
	MoodAverage(ctx context.Context, userID string, from time.Time) (*float64, error)
}

type MoodReader interface {
	Latest(ctx context.Context, userID string) (*moods.MoodLog, error)
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]moods.MoodLog, error)
}

type SessionReader interface {
	ListByRange(ctx context.Context, userID string, from, to time.Time) ([]sessions.StudySession, error)
}

type InsightsService struct {
	stats    StatsReader
	moods    MoodReader
	sessions SessionReader
	now      func() time.Time
}

func NewInsightsService(stats StatsReader, moods MoodReader, sessions SessionReader) *InsightsService {
	return &InsightsService{stats: stats, moods: moods, sessions: sessions, now: time.Now}
}

func (s *InsightsService) Dashboard(ctx context.Context, userID string) (*domain.Dashboard, error) {
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	totals, err := s.stats.DailyMinutes(ctx, userID, today.AddDate(0, 0, -domain.StreakLookbackDays))
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]int, len(totals))
	for _, d := range totals {
		byDay[d.Date] = d.Minutes
	}

	d := &domain.Dashboard{
		StreakDays:   streak(byDay, today),
		TodayMinutes: byDay[dayKey(today)],
		GeneratedAt:  now,
	}
	for i := 0; i < 7; i++ {
		d.WeekMinutes += byDay[dayKey(today.AddDate(0, 0, -i))]
	}

	counts, err := s.stats.SessionCounts(ctx, userID, weekStart(today), today)
	if err != nil {
		return nil, err
	}
	d.SessionsThisWeek = counts.SinceWeekStart
	d.PomodorosToday = counts.PomodorosToday

	if d.AverageMood7d, err = s.stats.MoodAverage(ctx, userID, today.AddDate(0, 0, -6)); err != nil {
		return nil, err
	}
	if d.LatestMood, err = s.moods.Latest(ctx, userID); err != nil {
		return nil, err
	}
	return d, nil
}

// streak counts consecutive days with study time ending today, or ending
// yesterday when nothing has been logged yet today.
func streak(byDay map[string]int, today time.Time) int {
	day := today
	if byDay[dayKey(day)] == 0 {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for byDay[dayKey(day)] > 0 {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// weekStart is the Monday of day's ISO week.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func dayKey(t time.Time) string { return t.Format(time.DateOnly) }

// Export loads the requested records oldest first. Zero bounds default to
// the last year.
func (s *InsightsService) Export(ctx context.Context, userID string, req domain.ExportRequest) (*domain.Dataset, error) {
	req.Kind = strings.ToLower(strings.TrimSpace(req.Kind))
	if req.Kind != domain.KindMoods && req.Kind != domain.KindSessions {
		return nil, domain.ErrInvalidKind
	}
	if _, err := NormalizeFormat(req.Format); err != nil {
		return nil, err
	}

	to := req.To
	if to.IsZero() {
		to = s.now().UTC()
	}
	from := req.From
	if from.IsZero() {
		from = to.Add(-domain.DefaultExportRange)
	}
	if !from.Before(to) || to.Sub(from) > domain.MaxExportRange {
		return nil, domain.ErrInvalidRange
	}

	ds := &domain.Dataset{Kind: req.Kind, Records: make([]domain.Record, 0)}
	switch req.Kind {
	case domain.KindMoods:
		logs, err := s.moods.ListByRange(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		ds.Columns = domain.MoodColumns
		for i := len(logs) - 1; i >= 0; i-- {
			m := logs[i]
			ds.Records = append(ds.Records, domain.MoodRecord{
				ID: m.ID, LoggedAt: m.LoggedAt.UTC(), Mood: m.Mood, Energy: m.Energy, Emotions: m.Emotions, Note: m.Note,
			})
		}
	case domain.KindSessions:
		list, err := s.sessions.ListByRange(ctx, userID, from, to)
		if err != nil {
			return nil, err
		}
		ds.Columns = domain.SessionColumns
		for i := len(list) - 1; i >= 0; i-- {
			ss := list[i]
			ds.Records = append(ds.Records, domain.SessionRecord{
				ID: ss.ID, Subject: ss.Subject, Source: ss.Source, StartedAt: ss.StartedAt.UTC(),
				EndedAt: ss.EndedAt, DurationMinutes: ss.DurationMinutes, Notes: ss.Notes,
			})
		}
	}
	return ds, nil
}

// NormalizeFormat resolves the export format, defaulting to CSV.
func NormalizeFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "", domain.FormatCSV:
		return domain.FormatCSV, nil
	case domain.FormatJSON:
		return domain.FormatJSON, nil
	default:
		return "", domain.ErrInvalidFormat
	}
}

// WriteDataset encodes ds as a CSV table with a header row or a JSON array.
func WriteDataset(w io.Writer, ds *domain.Dataset, format string) error {
	if format == domain.FormatJSON {
		return json.NewEncoder(w).Encode(ds.Records)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return err
	}
	for _, r := range ds.Records {
		if err := cw.Write(r.CSV()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
