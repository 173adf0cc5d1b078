package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"snapcircle/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgUniqueViolation, Message: "duplicate key value violates unique constraint"}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", uniqueViolation(), true},
		{"postgres other", &pgconn.PgError{Code: "23503"}, false},
		{"gorm translated", gorm.ErrDuplicatedKey, true},
		{"sqlite message", errors.New("UNIQUE constraint failed: friendships.requester_id"), true},
		{"unrelated", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestClampPage(t *testing.T) {
	limit, offset := clampPage(0, -5)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, offset = clampPage(500, 40)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 40, offset)
}

func TestFriendRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "friendships"`)).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Friendship{RequesterID: 1, AddresseeID: 2})
	assert.True(t, models.IsCode(err, models.CodeDuplicateRequest), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendRepository_AcceptIsConditional(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFriendRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "friendships" SET "accepted"=$1`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.Accept(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(uniqueViolation())
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "alice", Email: "alice@example.com", Password: "x"})
	assert.True(t, models.IsCode(err, models.CodeDuplicateRequest), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 7)
	assert.True(t, models.IsCode(err, models.CodeNotFound), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_MarkAllReadSingleUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "messages" SET "is_read"=$1 WHERE conversation_id = $2 AND sender_id <> $3 AND is_read = $4`)).
		WithArgs(true, 5, 9, false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := repo.MarkAllRead(context.Background(), 5, 9)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChatRepository_CreateMessageRejectsOutsider(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewChatRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "conversation_participants"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectRollback()

	err := repo.CreateMessage(context.Background(), &models.Message{ConversationID: 5, SenderID: 9, Content: "hi"})
	assert.True(t, models.IsCode(err, models.CodeNotParticipant), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPhotoRepository_ToggleLikeRollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPhotoRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "photo_likes"`)).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, _, err := repo.ToggleLike(context.Background(), 1, 2)
	assert.True(t, models.IsCode(err, models.CodeInternal), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
