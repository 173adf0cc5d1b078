package service

import (
	"context"
	"testing"

	"snapcircle/internal/models"
	"snapcircle/internal/repository"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type services struct {
	db      *gorm.DB
	friends *FriendService
	chat    *ChatService
	photos  *PhotoService
	users   *UserService
}

func newServices(t *testing.T) *services {
	t.Helper()
	db := testutil.NewDB(t)

	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	chatRepo := repository.NewChatRepository(db)

	friends := NewFriendService(friendRepo, userRepo)
	return &services{
		db:      db,
		friends: friends,
		chat:    NewChatService(chatRepo, userRepo),
		photos:  NewPhotoService(photoRepo, commentRepo, friends),
		users:   NewUserService(userRepo, photoRepo, friends),
	}
}

func (s *services) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()
	_, err := s.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.friends.AcceptRequest(ctx, a.ID, b.ID))
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, models.IsCode(err, code), "expected %s, got %v", code, err)
}
