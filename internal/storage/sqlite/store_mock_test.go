package sqlite

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowmanmike/chartsync/internal/app"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewFromDB(db)
	store.now = func() time.Time { return time.Unix(0, 0) }
	return store, mock
}

func TestArtistIDsQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectArtistIDsSQL)).
		WithArgs("LFA").
		WillReturnError(errors.New("database is locked"))

	_, err := store.ArtistIDs(context.Background(), "LFA")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindArtistQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectArtistByIDSQL)).
		WithArgs("LFA1001").
		WillReturnError(errors.New("disk I/O error"))

	artist, err := store.FindArtistByID(context.Background(), "LFA1001")
	assert.Error(t, err)
	assert.Nil(t, artist)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBackfillArtistGenreNoRows(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(backfillArtistGenreSQL)).
		WithArgs("Pop", sqlmock.AnyArg(), "LFA1001").
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := store.BackfillArtistGenre(context.Background(), "LFA1001", "Pop")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSongError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(insertSongSQL)).
		WillReturnError(errors.New("constraint failed"))

	err := store.InsertSong(context.Background(), app.Song{ID: "LFS1001", ArtistID: "LFA1001", Title: "x"})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSongNullsUnsetDate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(updateSongSQL)).
		WithArgs(200, "Rock", nil, 130, nil, int64(5), sqlmock.AnyArg(), "LFS1001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateSong(context.Background(), app.Song{
		ID:              "LFS1001",
		DurationSeconds: 200,
		Genre:           "Rock",
		Tempo:           130,
		PlayCount:       5,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
