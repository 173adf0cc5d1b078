package service

import (
	"context"
	"errors"
	"testing"

	"snapcircle/internal/models"
	"snapcircle/internal/repository"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type friendRepoStub struct {
	repository.FriendRepository
	getEdgeFn func(context.Context, uint, uint) (*models.Friendship, error)
	createFn  func(context.Context, *models.Friendship) error
	acceptFn  func(context.Context, uint, uint) (bool, error)
}

func (s *friendRepoStub) GetEdge(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	return s.getEdgeFn(ctx, requesterID, addresseeID)
}
func (s *friendRepoStub) Create(ctx context.Context, friendship *models.Friendship) error {
	return s.createFn(ctx, friendship)
}
func (s *friendRepoStub) Accept(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	return s.acceptFn(ctx, requesterID, addresseeID)
}

type userRepoStub struct {
	repository.UserRepository
	existsFn func(context.Context, uint) (bool, error)
}

func (s *userRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}

func existingUsers() *userRepoStub {
	return &userRepoStub{existsFn: func(context.Context, uint) (bool, error) { return true, nil }}
}

func TestFriendServiceSendRequestSelf(t *testing.T) {
	svc := NewFriendService(&friendRepoStub{}, existingUsers())
	_, err := svc.SendRequest(context.Background(), 3, 3)
	requireCode(t, err, models.CodeInvalidOperation)
}

func TestFriendServiceSendRequestUnknownTarget(t *testing.T) {
	users := &userRepoStub{existsFn: func(context.Context, uint) (bool, error) { return false, nil }}
	svc := NewFriendService(&friendRepoStub{}, users)

	_, err := svc.SendRequest(context.Background(), 1, 99)
	requireCode(t, err, models.CodeNotFound)
}

func TestFriendServiceSendRequestPassesDuplicateThrough(t *testing.T) {
	repo := &friendRepoStub{
		createFn: func(context.Context, *models.Friendship) error {
			return models.NewDuplicateRequestError("Friend request already sent")
		},
	}
	svc := NewFriendService(repo, existingUsers())

	_, err := svc.SendRequest(context.Background(), 1, 2)
	requireCode(t, err, models.CodeDuplicateRequest)
}

func TestFriendServiceAcceptMissingRequest(t *testing.T) {
	repo := &friendRepoStub{
		acceptFn: func(context.Context, uint, uint) (bool, error) { return false, nil },
	}
	svc := NewFriendService(repo, existingUsers())

	err := svc.AcceptRequest(context.Background(), 1, 2)
	requireCode(t, err, models.CodeNotFound)
}

func TestFriendServiceStatusRepoError(t *testing.T) {
	boom := models.NewInternalError(errors.New("boom"))
	repo := &friendRepoStub{
		getEdgeFn: func(context.Context, uint, uint) (*models.Friendship, error) { return nil, boom },
	}
	svc := NewFriendService(repo, existingUsers())

	_, err := svc.Status(context.Background(), 1, 2)
	assert.ErrorIs(t, err, boom)
}

func TestFriendServiceStatusPrefersOutgoingEdge(t *testing.T) {
	repo := &friendRepoStub{
		getEdgeFn: func(_ context.Context, from, to uint) (*models.Friendship, error) {
			// Both directions pending at once.
			return &models.Friendship{RequesterID: from, AddresseeID: to}, nil
		},
	}
	svc := NewFriendService(repo, existingUsers())

	status, err := svc.Status(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateOutgoingPending, status)
}

func TestFriendServiceStatusReadsIncomingEdge(t *testing.T) {
	tests := []struct {
		name     string
		accepted bool
		want     models.FriendshipState
	}{
		{"pending", false, models.FriendshipStateIncomingPending},
		{"accepted", true, models.FriendshipStateFriends},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &friendRepoStub{
				getEdgeFn: func(_ context.Context, from, to uint) (*models.Friendship, error) {
					if from == 2 && to == 1 {
						return &models.Friendship{RequesterID: 2, AddresseeID: 1, Accepted: tt.accepted}, nil
					}
					return nil, nil
				},
			}
			svc := NewFriendService(repo, existingUsers())

			status, err := svc.Status(context.Background(), 1, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestFriendServiceRequestLifecycle(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "ana")
	b := testutil.CreateUser(t, s.db, "ben")

	status, err := s.friends.Status(ctx, a.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateSelf, status)

	status, err = s.friends.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateNone, status)

	_, err = s.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)

	status, err = s.friends.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateOutgoingPending, status)
	status, err = s.friends.Status(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateIncomingPending, status)

	_, err = s.friends.SendRequest(ctx, a.ID, b.ID)
	requireCode(t, err, models.CodeDuplicateRequest)

	// The wrong side cannot accept.
	requireCode(t, s.friends.AcceptRequest(ctx, b.ID, a.ID), models.CodeNotFound)

	beforeA, err := s.friends.FriendsCount(ctx, a.ID)
	require.NoError(t, err)
	beforeB, err := s.friends.FriendsCount(ctx, b.ID)
	require.NoError(t, err)

	require.NoError(t, s.friends.AcceptRequest(ctx, a.ID, b.ID))

	for _, pair := range [][2]uint{{a.ID, b.ID}, {b.ID, a.ID}} {
		status, err = s.friends.Status(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, models.FriendshipStateFriends, status)
	}

	afterA, err := s.friends.FriendsCount(ctx, a.ID)
	require.NoError(t, err)
	afterB, err := s.friends.FriendsCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, beforeA+1, afterA)
	assert.Equal(t, beforeB+1, afterB)

	// Accepting twice finds nothing pending.
	requireCode(t, s.friends.AcceptRequest(ctx, a.ID, b.ID), models.CodeNotFound)
	// An accepted edge still blocks a resend.
	_, err = s.friends.SendRequest(ctx, a.ID, b.ID)
	requireCode(t, err, models.CodeDuplicateRequest)
}

func TestFriendServiceListFriendsOrder(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, s.db, "me")
	out1 := testutil.CreateUser(t, s.db, "out1")
	in1 := testutil.CreateUser(t, s.db, "in1")
	out2 := testutil.CreateUser(t, s.db, "out2")
	pending := testutil.CreateUser(t, s.db, "pending")

	s.befriend(t, me, out1)
	s.befriend(t, in1, me)
	s.befriend(t, me, out2)
	_, err := s.friends.SendRequest(ctx, pending.ID, me.ID)
	require.NoError(t, err)

	friends, err := s.friends.ListFriends(ctx, me.ID)
	require.NoError(t, err)

	names := make([]string, len(friends))
	for i, f := range friends {
		names[i] = f.Username
	}
	assert.Equal(t, []string{"out1", "out2", "in1"}, names)

	count, err := s.friends.FriendsCount(ctx, me.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	ids, err := s.friends.FriendIDs(ctx, me.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{out1.ID, in1.ID, out2.ID}, ids)

	incoming, err := s.friends.PendingRequests(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "pending", incoming[0].Requester.Username)

	sent, err := s.friends.SentRequests(ctx, pending.ID)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, me.ID, sent[0].AddresseeID)
}

func TestFriendServiceDeclineCancelRemove(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "a_user")
	b := testutil.CreateUser(t, s.db, "b_user")

	_, err := s.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.friends.DeclineRequest(ctx, a.ID, b.ID))
	requireCode(t, s.friends.DeclineRequest(ctx, a.ID, b.ID), models.CodeNotFound)

	// Declined requests can be sent again.
	_, err = s.friends.SendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, s.friends.CancelRequest(ctx, a.ID, b.ID))

	status, err := s.friends.Status(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendshipStateNone, status)

	s.befriend(t, a, b)
	// Pending deletes never touch an accepted edge.
	requireCode(t, s.friends.CancelRequest(ctx, a.ID, b.ID), models.CodeNotFound)

	// Either side may unfriend.
	require.NoError(t, s.friends.RemoveFriend(ctx, b.ID, a.ID))
	requireCode(t, s.friends.RemoveFriend(ctx, a.ID, b.ID), models.CodeNotFound)

	count, err := s.friends.FriendsCount(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
