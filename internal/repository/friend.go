package repository

import (
	"context"
	"errors"

	"snapcircle/internal/models"

	"gorm.io/gorm"
)

// FriendRepository stores directed friendship edges.
type FriendRepository interface {
	// Create inserts a pending edge; a second edge for the same ordered pair is DUPLICATE_REQUEST.
	Create(ctx context.Context, friendship *models.Friendship) error
	// GetEdge returns the requester→addressee edge, or nil when there is none.
	GetEdge(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error)
	// Accept flips a pending requester→addressee edge and reports whether one existed.
	Accept(ctx context.Context, requesterID, addresseeID uint) (bool, error)
	DeletePending(ctx context.Context, requesterID, addresseeID uint) (bool, error)
	DeleteAccepted(ctx context.Context, userID1, userID2 uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]models.User, error)
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
	CountFriends(ctx context.Context, userID uint) (int64, error)
	GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
	GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error)
}

// friendRepository implements FriendRepository
type friendRepository struct {
	db *gorm.DB
}

// NewFriendRepository creates a new friend repository
func NewFriendRepository(db *gorm.DB) FriendRepository {
	return &friendRepository{db: db}
}

func (r *friendRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	friendship.Accepted = false
	if err := r.db.WithContext(ctx).Omit("Requester", "Addressee").Create(friendship).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewDuplicateRequestError("Friend request already sent")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *friendRepository) GetEdge(ctx context.Context, requesterID, addresseeID uint) (*models.Friendship, error) {
	var friendship models.Friendship
	err := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ?", requesterID, addresseeID).
		First(&friendship).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &friendship, nil
}

func (r *friendRepository) Accept(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Friendship{}).
		Where("requester_id = ? AND addressee_id = ? AND accepted = ?", requesterID, addresseeID, false).
		Update("accepted", true)
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) DeletePending(ctx context.Context, requesterID, addresseeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("requester_id = ? AND addressee_id = ? AND accepted = ?", requesterID, addresseeID, false).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *friendRepository) DeleteAccepted(ctx context.Context, userID1, userID2 uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("accepted = ? AND ((requester_id = ? AND addressee_id = ?) OR (requester_id = ? AND addressee_id = ?))",
			true, userID1, userID2, userID2, userID1).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListFriends returns accepted outgoing edges first, then accepted incoming
// ones, each in the order the edges were created.
func (r *friendRepository) ListFriends(ctx context.Context, userID uint) ([]models.User, error) {
	var outgoing, incoming []models.User

	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("JOIN friendships f ON f.addressee_id = users.id").
		Where("f.requester_id = ? AND f.accepted = ?", userID, true).
		Order("f.created_at ASC, f.id ASC").
		Find(&outgoing).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("JOIN friendships f ON f.requester_id = users.id").
		Where("f.addressee_id = ? AND f.accepted = ?", userID, true).
		Order("f.created_at ASC, f.id ASC").
		Find(&incoming).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return append(outgoing, incoming...), nil
}

func (r *friendRepository) FriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var edges []models.Friendship
	if err := r.db.WithContext(ctx).
		Select("requester_id", "addressee_id").
		Where("accepted = ? AND (requester_id = ? OR addressee_id = ?)", true, userID, userID).
		Order("id ASC").
		Find(&edges).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	ids := make([]uint, 0, len(edges))
	for _, e := range edges {
		if e.RequesterID == userID {
			ids = append(ids, e.AddresseeID)
		} else {
			ids = append(ids, e.RequesterID)
		}
	}
	return ids, nil
}

func (r *friendRepository) CountFriends(ctx context.Context, userID uint) (int64, error) {
	var outgoing, incoming int64
	if err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("requester_id = ? AND accepted = ?", userID, true).
		Count(&outgoing).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("addressee_id = ? AND accepted = ?", userID, true).
		Count(&incoming).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return outgoing + incoming, nil
}

func (r *friendRepository) GetPendingRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("addressee_id = ? AND accepted = ?", userID, false).
		Preload("Requester").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}

func (r *friendRepository) GetSentRequests(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	if err := r.db.WithContext(ctx).
		Where("requester_id = ? AND accepted = ?", userID, false).
		Preload("Addressee").
		Order("created_at DESC").
		Find(&friendships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return friendships, nil
}
