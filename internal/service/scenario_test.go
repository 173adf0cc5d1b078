package service

import (
	"context"
	"testing"

	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAliceAndBob(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, s.db, "alice")
	bob := testutil.CreateUser(t, s.db, "bob")

	_, err := s.friends.SendRequest(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	status, err := s.friends.Status(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateIncomingPending, status)

	require.NoError(t, s.friends.AcceptRequest(ctx, alice.ID, bob.ID))
	for _, pair := range [][2]uint{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		status, err = s.friends.Status(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStateFriends, status)
	}

	photo, err := s.photos.CreatePhoto(ctx, CreatePhotoInput{UserID: alice.ID, ImageURL: "https://img.example/alice.jpg"})
	require.NoError(t, err)

	like, err := s.photos.ToggleLike(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.EqualValues(t, 1, like.LikesCount)

	like, err = s.photos.ToggleLike(ctx, photo.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, like.Liked)
	assert.EqualValues(t, 0, like.LikesCount)

	conv, _, _, err := s.chat.StartConversation(ctx, alice.ID, "bob", "")
	require.NoError(t, err)
	_, err = s.chat.PostMessage(ctx, conv.ID, alice.ID, "hi")
	require.NoError(t, err)

	unread, err := s.chat.UnreadCount(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	_, err = s.chat.MarkAllRead(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	unread, err = s.chat.UnreadCount(ctx, conv.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
