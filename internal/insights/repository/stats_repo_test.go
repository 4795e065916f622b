package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*StatsRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStatsRepository(db), mock
}

func TestStatsRepository_DailyMinutes(t *testing.T) {
	repo, mock := setup(t)
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM study_sessions`).
		WithArgs("uid-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"day", "sum"}).
			AddRow("2026-05-01", 90).
			AddRow("2026-04-30", 25))

	days, err := repo.DailyMinutes(context.Background(), "uid-1", from)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-05-01", days[0].Date)
	assert.Equal(t, 25, days[1].Minutes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_SessionCounts(t *testing.T) {
	repo, mock := setup(t)
	week := time.Date(2026, 4, 27, 0, 0, 0, 0, time.UTC)
	day := time.Date(2026, 4, 29, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`COUNT\(\*\) FILTER`).
		WithArgs("uid-1", week, day, week).
		WillReturnRows(sqlmock.NewRows([]string{"week", "pomodoros"}).AddRow(6, 3))

	c, err := repo.SessionCounts(context.Background(), "uid-1", week, day)
	require.NoError(t, err)
	assert.Equal(t, 6, c.SinceWeekStart)
	assert.Equal(t, 3, c.PomodorosToday)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_MoodAverage(t *testing.T) {
	repo, mock := setup(t)
	from := time.Date(2026, 4, 25, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT AVG\(mood\)`).
		WithArgs("uid-1", from).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(3.6666666))
	mock.ExpectQuery(`SELECT AVG\(mood\)`).
		WithArgs("uid-2", from).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(nil))

	avg, err := repo.MoodAverage(context.Background(), "uid-1", from)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, 3.67, *avg)

	avg, err = repo.MoodAverage(context.Background(), "uid-2", from)
	require.NoError(t, err)
	assert.Nil(t, avg)
	require.NoError(t, mock.ExpectationsWereMet())
}
