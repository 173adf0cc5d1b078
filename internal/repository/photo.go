package repository

import (
	"context"
	"errors"

	"snapcircle/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxToggleAttempts bounds the delete/insert loop in ToggleLike. Each retry
// means another toggle for the same pair committed in between.
const maxToggleAttempts = 5

var errToggleContended = errors.New("like toggle kept losing to concurrent toggles")

// PhotoFilter narrows photo listings.
type PhotoFilter struct {
	// OwnerIDs restricts to photos owned by these users when non-empty.
	OwnerIDs []uint
	Username string
	// ViewerID drives the computed is_liked flag.
	ViewerID uint
	Limit    int
	Offset   int
}

// PhotoRepository stores photos and their like-sets.
type PhotoRepository interface {
	Create(ctx context.Context, photo *models.Photo) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Photo, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter PhotoFilter) ([]*models.Photo, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	UpdateCaption(ctx context.Context, id uint, caption string) error
	Delete(ctx context.Context, id uint) error
	// ToggleLike flips the (photo, user) like membership atomically and
	// returns the new state with the resulting like count.
	ToggleLike(ctx context.Context, photoID, userID uint) (bool, int64, error)
	Counts(ctx context.Context, photoID uint) (models.PhotoCounts, error)
}

type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new PhotoRepository
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// applyPhotoDetails selects the derived counters alongside the photo row.
func (r *photoRepository) applyPhotoDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	return db.Model(&models.Photo{}).Select(`photos.*,
		(SELECT COUNT(*) FROM photo_likes pl WHERE pl.photo_id = photos.id) AS likes_count,
		(SELECT COUNT(*) FROM comments c WHERE c.photo_id = photos.id) AS comments_count,
		EXISTS (SELECT 1 FROM photo_likes me WHERE me.photo_id = photos.id AND me.user_id = ?) AS is_liked`, viewerID)
}

func (r *photoRepository) Create(ctx context.Context, photo *models.Photo) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(photo).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *photoRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.applyPhotoDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		Where("photos.id = ?", id).
		Take(&photo).Error
	if err != nil {
		return nil, notFoundOr(err, "Photo", id)
	}
	return &photo, nil
}

func (r *photoRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *photoRepository) List(ctx context.Context, filter PhotoFilter) ([]*models.Photo, error) {
	limit, offset := clampPage(filter.Limit, filter.Offset)

	query := r.applyPhotoDetails(r.db.WithContext(ctx), filter.ViewerID).Preload("User")
	if len(filter.OwnerIDs) > 0 {
		query = query.Where("photos.user_id IN ?", filter.OwnerIDs)
	}
	if filter.Username != "" {
		query = query.Joins("JOIN users owner ON owner.id = photos.user_id").
			Where("owner.username = ?", filter.Username)
	}

	var photos []*models.Photo
	if err := query.
		Order("photos.created_at DESC, photos.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&photos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return photos, nil
}

func (r *photoRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Photo{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *photoRepository) UpdateCaption(ctx context.Context, id uint, caption string) error {
	result := r.db.WithContext(ctx).Model(&models.Photo{}).Where("id = ?", id).Update("caption", caption)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Photo", id)
	}
	return nil
}

// Delete removes the photo with its likes and comments in one transaction.
func (r *photoRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.PhotoLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Photo{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFoundOr(err, "Photo", id)
	}
	return nil
}

// ToggleLike never reads membership before writing. The conditional DELETE
// decides "was liked"; otherwise INSERT ... ON CONFLICT DO NOTHING decides
// "was not liked". If the insert hits a row committed after our delete, the
// loop starts over so the call still flips whatever state it lands on.
func (r *photoRepository) ToggleLike(ctx context.Context, photoID, userID uint) (bool, int64, error) {
	var (
		liked bool
		count int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		flipped := false
		for attempt := 0; attempt < maxToggleAttempts && !flipped; attempt++ {
			del := tx.Where("photo_id = ? AND user_id = ?", photoID, userID).Delete(&models.PhotoLike{})
			if del.Error != nil {
				return del.Error
			}
			if del.RowsAffected > 0 {
				liked, flipped = false, true
				break
			}

			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PhotoLike{PhotoID: photoID, UserID: userID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected > 0 {
				liked, flipped = true, true
			}
		}
		if !flipped {
			return errToggleContended
		}

		return tx.Model(&models.PhotoLike{}).Where("photo_id = ?", photoID).Count(&count).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}
	return liked, count, nil
}

func (r *photoRepository) Counts(ctx context.Context, photoID uint) (models.PhotoCounts, error) {
	var counts models.PhotoCounts
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM photo_likes WHERE photo_id = ?) AS likes_count,
		(SELECT COUNT(*) FROM comments WHERE photo_id = ?) AS comments_count`, photoID, photoID).
		Scan(&counts).Error
	if err != nil {
		return models.PhotoCounts{}, models.NewInternalError(err)
	}
	return counts, nil
}
