package repository

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/studyhaven/studyhaven-backend/internal/insights/domain"
)

// StatsRepository runs the aggregate queries behind the dashboard.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// DailyMinutes sums finished study time per UTC day since from, newest first.
func (r *StatsRepository) DailyMinutes(ctx context.Context, userID string, from time.Time) ([]domain.DayTotal, error) {
	const q = `
SELECT to_char(started_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(duration_minutes)
FROM study_sessions
WHERE user_id = $1 AND started_at >= $2 AND ended_at IS NOT NULL
GROUP BY day
ORDER BY day DESC;
`
	rows, err := r.db.QueryContext(ctx, q, userID, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.DayTotal, 0)
	for rows.Next() {
		var d domain.DayTotal
		if err := rows.Scan(&d.Date, &d.Minutes); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StatsRepository) SessionCounts(ctx context.Context, userID string, weekStart, dayStart time.Time) (*domain.SessionCounts, error) {
	since := weekStart
	if dayStart.Before(since) {
		since = dayStart
	}
	const q = `
SELECT
    COUNT(*) FILTER (WHERE started_at >= $2),
    COUNT(*) FILTER (WHERE started_at >= $3 AND source = 'pomodoro')
FROM study_sessions
WHERE user_id = $1 AND started_at >= $4 AND ended_at IS NOT NULL;
`
	var c domain.SessionCounts
	if err := r.db.QueryRowContext(ctx, q, userID, weekStart, dayStart, since).
		Scan(&c.SinceWeekStart, &c.PomodorosToday); err != nil {
		return nil, err
	}
	return &c, nil
}

// MoodAverage returns the mean mood since from rounded to two decimals, or
// nil when nothing was logged.
func (r *StatsRepository) MoodAverage(ctx context.Context, userID string, from time.Time) (*float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(mood)::float8 FROM mood_logs WHERE user_id = $1 AND logged_at >= $2`,
		userID, from,
	).Scan(&avg)
	if err != nil || !avg.Valid {
		return nil, err
	}
	v := math.Round(avg.Float64*100) / 100
	return &v, nil
}
