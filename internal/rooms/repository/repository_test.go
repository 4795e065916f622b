package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhaven/studyhaven-backend/internal/rooms/domain"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestRoomRepository_CreateAddsOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewRoomRepository(db)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO rooms`).
		WithArgs("r1", "Calculus", "", "math", false, "", "uid-1", 8).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "last_active_at"}).AddRow(now, now))
	mock.ExpectExec(`INSERT INTO room_members`).WithArgs("r1", "uid-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	room := &domain.Room{ID: "r1", Name: "Calculus", Topic: "math", OwnerID: "uid-1", MaxMembers: 8}
	require.NoError(t, repo.Create(context.Background(), room))
	assert.Equal(t, 1, room.MemberCount)
	assert.True(t, room.IsMember)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRoomRepository_AddMember(t *testing.T) {
	ctx := context.Background()

	t.Run("full", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT max_members FROM rooms`).WithArgs("r1").
			WillReturnRows(sqlmock.NewRows([]string{"max_members"}).AddRow(2))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("r1", "uid-3").
			WillReturnRows(sqlmock.NewRows([]string{"exists", "count"}).AddRow(false, 2))
		mock.ExpectRollback()

		err := NewRoomRepository(db).AddMember(ctx, "r1", "uid-3")
		assert.ErrorIs(t, err, domain.ErrRoomFull)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already member", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT max_members FROM rooms`).WithArgs("r1").
			WillReturnRows(sqlmock.NewRows([]string{"max_members"}).AddRow(2))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("r1", "uid-2").
			WillReturnRows(sqlmock.NewRows([]string{"exists", "count"}).AddRow(true, 2))
		mock.ExpectCommit()

		assert.NoError(t, NewRoomRepository(db).AddMember(ctx, "r1", "uid-2"))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing room", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT max_members FROM rooms`).WithArgs("r9").WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		assert.ErrorIs(t, NewRoomRepository(db).AddMember(ctx, "r9", "uid-2"), domain.ErrRoomNotFound)
	})

	t.Run("joins", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT max_members FROM rooms`).WithArgs("r1").
			WillReturnRows(sqlmock.NewRows([]string{"max_members"}).AddRow(8))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs("r1", "uid-2").
			WillReturnRows(sqlmock.NewRows([]string{"exists", "count"}).AddRow(false, 1))
		mock.ExpectExec(`INSERT INTO room_members`).WithArgs("r1", "uid-2").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE rooms SET last_active_at`).WithArgs("r1").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, NewRoomRepository(db).AddMember(ctx, "r1", "uid-2"))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMessageRepository_ListBeforeReturnsOldestFirst(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`FROM room_messages`).WithArgs("r1", "m9", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "room_id", "user_id", "body", "created_at"}).
			AddRow("m8", "r1", "uid-1", "later", now).
			AddRow("m7", "r1", "uid-2", "earlier", now.Add(-time.Minute)))

	msgs, err := NewMessageRepository(db).ListBefore(context.Background(), "r1", "m9", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m7", msgs[0].ID)
	assert.Equal(t, "m8", msgs[1].ID)
}

func TestWhiteboardRepository_Compact(t *testing.T) {
	db, mock := newMock(t)
	repo := NewWhiteboardRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT stroke_version FROM rooms`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"stroke_version"}).AddRow(205))
	mock.ExpectQuery(`SELECT version, strokes FROM whiteboard_snapshots`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"version", "strokes"}).AddRow(198, []byte(`[{"p":0}]`)))
	mock.ExpectQuery(`SELECT data FROM whiteboard_strokes`).WithArgs("r1", int64(198), int64(200)).
		WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"p":1}`)).AddRow([]byte(`{"p":2}`)))
	mock.ExpectExec(`INSERT INTO whiteboard_snapshots`).
		WithArgs("r1", int64(200), []byte(`[{"p":0},{"p":1},{"p":2}]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM whiteboard_strokes`).WithArgs("r1", int64(200)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	n, err := repo.Compact(context.Background(), "r1", 200)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWhiteboardRepository_CompactAlreadyDone(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT stroke_version FROM rooms`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"stroke_version"}).AddRow(300))
	mock.ExpectQuery(`SELECT version, strokes FROM whiteboard_snapshots`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"version", "strokes"}).AddRow(250, []byte(`[]`)))
	mock.ExpectCommit()

	n, err := NewWhiteboardRepository(db).Compact(context.Background(), "r1", 200)
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWhiteboardRepository_State(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT r.stroke_version`).WithArgs("r1").
		WillReturnRows(sqlmock.NewRows([]string{"stroke_version", "version", "strokes"}).AddRow(12, 10, []byte(`[{"a":1}]`)))
	mock.ExpectQuery(`FROM whiteboard_strokes`).WithArgs("r1", int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "user_id", "data", "created_at"}).
			AddRow(11, "uid-1", []byte(`{"b":2}`), now).
			AddRow(12, "uid-2", []byte(`{"c":3}`), now))

	state, err := NewWhiteboardRepository(db).State(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), state.Version)
	assert.Equal(t, []json.RawMessage{json.RawMessage(`{"a":1}`)}, state.Snapshot)
	require.Len(t, state.Strokes, 2)
	assert.JSONEq(t, `{"c":3}`, string(state.Strokes[1].Data))
}
