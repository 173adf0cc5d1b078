package service

import (
	"context"
	"testing"
	"time"

	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserServiceSignupAndLogin(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()

	user, err := s.users.Signup(ctx, SignupInput{Username: "alice", Email: "Alice@Example.com", Password: "SecurePass12!@"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "SecurePass12!@", user.Password)

	_, err = s.users.Signup(ctx, SignupInput{Username: "alice", Email: "other@example.com", Password: "SecurePass12!@"})
	requireCode(t, err, models.CodeDuplicateRequest)

	for _, login := range []string{"alice", "alice@example.com"} {
		got, err := s.users.Login(ctx, login, "SecurePass12!@")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	}

	_, err = s.users.Login(ctx, "alice", "WrongPass12!@")
	requireCode(t, err, models.CodeUnauthorized)
	_, err = s.users.Login(ctx, "ghost", "SecurePass12!@")
	requireCode(t, err, models.CodeUnauthorized)
}

func TestUserServiceGetProfile(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "pia")
	b := testutil.CreateUser(t, s.db, "rex")
	c := testutil.CreateUser(t, s.db, "sam")

	s.befriend(t, a, b)
	_, err := s.friends.SendRequest(ctx, c.ID, a.ID)
	require.NoError(t, err)
	testutil.CreatePhoto(t, s.db, a, "one")
	testutil.CreatePhoto(t, s.db, a, "two")

	profile, err := s.users.GetProfile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "pia", profile.Username)
	assert.EqualValues(t, 1, profile.FriendsCount)
	assert.EqualValues(t, 2, profile.PhotosCount)
	assert.Equal(t, models.FriendshipStateFriends, profile.FriendshipStatus)

	profile, err = s.users.GetProfile(ctx, c.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateOutgoingPending, profile.FriendshipStatus)

	profile, err = s.users.GetProfile(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateSelf, profile.FriendshipStatus)

	_, err = s.users.GetProfile(ctx, a.ID, 9999)
	requireCode(t, err, models.CodeNotFound)
}

func TestUserServiceUpdateProfile(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, s.db, "tia")

	bio := "  likes hiking  "
	site := "https://tia.example"
	born := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)
	updated, err := s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, Bio: &bio, Website: &site, BirthDate: &born})
	require.NoError(t, err)
	assert.Equal(t, "likes hiking", updated.Bio)
	assert.Equal(t, site, updated.Website)
	require.NotNil(t, updated.BirthDate)
	assert.True(t, born.Equal(*updated.BirthDate))

	future := time.Now().Add(48 * time.Hour)
	_, err = s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: u.ID, BirthDate: &future})
	requireCode(t, err, models.CodeValidation)

	_, err = s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: 9999, Bio: &bio})
	requireCode(t, err, models.CodeNotFound)

	byName, err := s.users.GetByUsername(ctx, " tia ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)
}
