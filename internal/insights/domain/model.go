package domain

import (
	"errors"
	"time"

	moods "github.com/studyhaven/studyhaven-backend/internal/moods/domain"
)

const (
	KindMoods    = "moods"
	KindSessions = "sessions"

	FormatCSV  = "csv"
	FormatJSON = "json"

	// StreakLookbackDays bounds how far back a streak is counted.
	StreakLookbackDays = 366

	DefaultExportRange = 365 * 24 * time.Hour
	MaxExportRange     = 2 * 366 * 24 * time.Hour
)

var (
	ErrInvalidKind   = errors.New("kind must be moods or sessions")
	ErrInvalidFormat = errors.New("format must be csv or json")
	ErrInvalidRange  = errors.New("invalid time range")
)

type Dashboard struct {
	StreakDays       int            `json:"streak_days"`
	TodayMinutes     int            `json:"today_minutes"`
	WeekMinutes      int            `json:"week_minutes"`
	SessionsThisWeek int            `json:"sessions_this_week"`
	AverageMood7d    *float64       `json:"average_mood_7d"`
	PomodorosToday   int            `json:"pomodoros_today"`
	LatestMood       *moods.MoodLog `json:"latest_mood"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// DayTotal is the study time of one UTC day, Date formatted YYYY-MM-DD.
type DayTotal struct {
	Date    string
	Minutes int
}

type SessionCounts struct {
	SinceWeekStart int
	PomodorosToday int
}

type ExportRequest struct {
	Kind   string
	Format string
	From   time.Time
	To     time.Time
}

// Record is one exported row. Its JSON field order matches its CSV columns.
type Record interface {
	CSV() []string
}

type Dataset struct {
	Kind    string
	Columns []string
	Records []Record
}
