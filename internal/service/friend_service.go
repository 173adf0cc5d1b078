package service

import (
	"context"
	"errors"

	"snapcircle/internal/cache"
	"snapcircle/internal/models"
	"snapcircle/internal/observability"
	"snapcircle/internal/repository"
)

// FriendService resolves friendship state from the two directed edges between
// a pair of users and drives the request lifecycle.
type FriendService struct {
	friendRepo repository.FriendRepository
	userRepo   repository.UserRepository
}

// NewFriendService returns a new FriendService.
func NewFriendService(friendRepo repository.FriendRepository, userRepo repository.UserRepository) *FriendService {
	return &FriendService{
		friendRepo: friendRepo,
		userRepo:   userRepo,
	}
}

// Status reports how target relates to viewer. The viewer's own request is
// checked first, so a stray reverse edge never masks it.
func (s *FriendService) Status(ctx context.Context, viewerID, targetID uint) (models.FriendshipState, error) {
	if viewerID == targetID {
		return models.FriendshipStateSelf, nil
	}

	edge, err := s.friendRepo.GetEdge(ctx, viewerID, targetID)
	if err != nil {
		return "", err
	}
	if edge == nil {
		if edge, err = s.friendRepo.GetEdge(ctx, targetID, viewerID); err != nil {
			return "", err
		}
	}
	if edge != nil {
		return edge.Direction(viewerID), nil
	}

	return models.FriendshipStateNone, nil
}

// SendRequest creates a pending fromID→toID edge. Duplicates are caught by
// the unique index, not by a read beforehand.
func (s *FriendService) SendRequest(ctx context.Context, fromID, toID uint) (friendship *models.Friendship, err error) {
	ctx, finish := observability.StartSpan(ctx, "FriendService.SendRequest",
		observability.UserAttr("from_id", fromID), observability.UserAttr("to_id", toID))
	defer func() {
		finish(err)
		recordFriendOutcome("send", err)
	}()

	if fromID == toID {
		return nil, models.NewInvalidOperationError("Cannot send friend request to yourself")
	}

	exists, err := s.userRepo.Exists(ctx, toID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("User", toID)
	}

	friendship = &models.Friendship{
		RequesterID: fromID,
		AddresseeID: toID,
	}
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		return nil, err
	}
	return friendship, nil
}

// AcceptRequest accepts the pending fromID→toID request. Only the addressee
// reaches this, since toID is always the caller.
func (s *FriendService) AcceptRequest(ctx context.Context, fromID, toID uint) (err error) {
	ctx, finish := observability.StartSpan(ctx, "FriendService.AcceptRequest",
		observability.UserAttr("from_id", fromID), observability.UserAttr("to_id", toID))
	defer func() {
		finish(err)
		recordFriendOutcome("accept", err)
	}()

	if fromID == toID {
		return models.NewInvalidOperationError("Cannot accept a friend request from yourself")
	}

	accepted, err := s.friendRepo.Accept(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if !accepted {
		return models.NewNotFoundError("Friend request", fromID)
	}

	cache.InvalidateFriendship(ctx, fromID, toID)
	return nil
}

// DeclineRequest drops a pending fromID→toID request on the addressee's behalf.
func (s *FriendService) DeclineRequest(ctx context.Context, fromID, toID uint) (err error) {
	defer func() { recordFriendOutcome("decline", err) }()
	return s.deletePending(ctx, fromID, toID)
}

// CancelRequest withdraws the caller's own pending request.
func (s *FriendService) CancelRequest(ctx context.Context, fromID, toID uint) (err error) {
	defer func() { recordFriendOutcome("cancel", err) }()
	return s.deletePending(ctx, fromID, toID)
}

func (s *FriendService) deletePending(ctx context.Context, fromID, toID uint) error {
	deleted, err := s.friendRepo.DeletePending(ctx, fromID, toID)
	if err != nil {
		return err
	}
	if !deleted {
		return models.NewNotFoundError("Friend request", fromID)
	}
	cache.InvalidateFriendship(ctx, fromID, toID)
	return nil
}

// RemoveFriend deletes the accepted edge between the two users, whichever
// side sent the original request.
func (s *FriendService) RemoveFriend(ctx context.Context, userID, otherID uint) (err error) {
	defer func() { recordFriendOutcome("remove", err) }()

	removed, err := s.friendRepo.DeleteAccepted(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Friendship", otherID)
	}
	cache.InvalidateFriendship(ctx, userID, otherID)
	return nil
}

// ListFriends returns accepted outgoing friends first, then accepted incoming ones.
func (s *FriendService) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	return s.friendRepo.ListFriends(ctx, userID)
}

// FriendIDs returns the ids of the user's friends, served from cache when possible.
func (s *FriendService) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := cache.Aside(ctx, cache.FamilyFriendIDs, cache.FriendIDsKey(userID), &ids, cache.FriendIDsTTL, func() error {
		var err error
		ids, err = s.friendRepo.FriendIDs(ctx, userID)
		return err
	})
	return ids, err
}

// FriendsCount counts accepted edges in both directions.
func (s *FriendService) FriendsCount(ctx context.Context, userID uint) (int64, error) {
	return s.friendRepo.CountFriends(ctx, userID)
}

// PendingRequests lists requests waiting on the user.
func (s *FriendService) PendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetPendingRequests(ctx, userID)
}

// SentRequests lists requests the user sent that are still pending.
func (s *FriendService) SentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	return s.friendRepo.GetSentRequests(ctx, userID)
}

func recordFriendOutcome(action string, err error) {
	outcome := "ok"
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			outcome = appErr.Code
		} else {
			outcome = models.CodeInternal
		}
	}
	observability.FriendRequests.WithLabelValues(action, outcome).Inc()
}
