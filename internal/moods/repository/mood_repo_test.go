package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/moods/domain"
)

var moodCols = []string{"id", "user_id", "mood", "energy", "emotions", "note", "logged_at", "created_at"}

func setup(t *testing.T) (*MoodRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMoodRepository(db), mock
}

func TestMoodRepository_Create(t *testing.T) {
	repo, mock := setup(t)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`INSERT INTO mood_logs`).
		WithArgs("m1", "uid-1", 4, 3, []byte(`["calm","focused"]`), "good day", now).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	m := &domain.MoodLog{ID: "m1", UserID: "uid-1", Mood: 4, Energy: 3, Emotions: []string{"calm", "focused"}, Note: "good day", LoggedAt: now}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, now, m.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepository_ListByRange(t *testing.T) {
	repo, mock := setup(t)
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	mock.ExpectQuery(`SELECT id, user_id, mood`).
		WithArgs("uid-1", from, to).
		WillReturnRows(sqlmock.NewRows(moodCols).
			AddRow("m2", "uid-1", 2, 0, []byte(`[]`), "", from.Add(2*time.Hour), from).
			AddRow("m1", "uid-1", 5, 4, []byte(`["joy"]`), "", from.Add(time.Hour), from))

	logs, err := repo.ListByRange(context.Background(), "uid-1", from, to)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "m2", logs[0].ID)
	assert.Empty(t, logs[0].Emotions)
	assert.Equal(t, []string{"joy"}, logs[1].Emotions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepository_Delete(t *testing.T) {
	repo, mock := setup(t)

	mock.ExpectExec(`DELETE FROM mood_logs`).WithArgs("m1", "uid-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM mood_logs`).WithArgs("m1", "uid-2").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "uid-1", "m1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "uid-2", "m1"), domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMoodRepository_LatestEmpty(t *testing.T) {
	repo, mock := setup(t)
	mock.ExpectQuery(`SELECT id, user_id, mood`).WithArgs("uid-1").WillReturnRows(sqlmock.NewRows(moodCols))

	m, err := repo.Latest(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Nil(t, m)
}
