package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"snapcircle/internal/models"
	"snapcircle/internal/observability"
	"snapcircle/internal/repository"
	"snapcircle/internal/validation"
)

// FriendIDSource yields the ids a user's feed is built from.
type FriendIDSource interface {
	FriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

// PhotoService owns photos and their like/comment counters.
type PhotoService struct {
	photoRepo   repository.PhotoRepository
	commentRepo repository.CommentRepository
	friends     FriendIDSource
}

type CreatePhotoInput struct {
	UserID   uint
	ImageURL string
	Caption  string
}

type ListPhotosInput struct {
	ViewerID uint
	Username string
	Limit    int
	Offset   int
}

const maxCaptionLen = 2200

// NewPhotoService returns a new PhotoService.
func NewPhotoService(photoRepo repository.PhotoRepository, commentRepo repository.CommentRepository, friends FriendIDSource) *PhotoService {
	return &PhotoService{
		photoRepo:   photoRepo,
		commentRepo: commentRepo,
		friends:     friends,
	}
}

// ToggleLike flips the user's membership in the photo's like-set. Two calls
// in a row cancel out.
func (s *PhotoService) ToggleLike(ctx context.Context, photoID, userID uint) (res *models.LikeResult, err error) {
	ctx, finish := observability.StartSpan(ctx, "PhotoService.ToggleLike",
		observability.UserAttr("photo_id", photoID), observability.UserAttr("user_id", userID))
	defer func() { finish(err) }()

	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	liked, count, err := s.photoRepo.ToggleLike(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}

	result := "unliked"
	if liked {
		result = "liked"
	}
	observability.LikeToggles.WithLabelValues(result).Inc()

	return &models.LikeResult{PhotoID: photoID, Liked: liked, LikesCount: count}, nil
}

// AddComment appends a comment to the photo.
func (s *PhotoService) AddComment(ctx context.Context, photoID, authorID uint, text string) (*models.Comment, error) {
	body := strings.TrimSpace(text)
	if body == "" {
		return nil, models.NewEmptyContentError("Comment text")
	}
	if utf8.RuneCountInString(body) > models.MaxCommentLength {
		return nil, models.NewValidationError(fmt.Sprintf("Comment too long (max %d characters)", models.MaxCommentLength))
	}
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PhotoID: photoID,
		UserID:  authorID,
		Text:    body,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

// Counts returns the photo's current like and comment totals, straight from the store.
func (s *PhotoService) Counts(ctx context.Context, photoID uint) (models.PhotoCounts, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return models.PhotoCounts{}, err
	}
	return s.photoRepo.Counts(ctx, photoID)
}

func (s *PhotoService) CreatePhoto(ctx context.Context, in CreatePhotoInput) (*models.Photo, error) {
	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		return nil, models.NewValidationError("Image URL is required")
	}
	if err := validation.ValidateImageURL(imageURL); err != nil {
		return nil, models.NewValidationError("Image URL must be an absolute URL")
	}
	caption := strings.TrimSpace(in.Caption)
	if utf8.RuneCountInString(caption) > maxCaptionLen {
		return nil, models.NewValidationError(fmt.Sprintf("Caption too long (max %d characters)", maxCaptionLen))
	}

	photo := &models.Photo{
		UserID:   in.UserID,
		ImageURL: imageURL,
		Caption:  caption,
	}
	if err := s.photoRepo.Create(ctx, photo); err != nil {
		return nil, err
	}
	return s.photoRepo.GetByID(ctx, photo.ID, in.UserID)
}

// GetPhoto returns the photo with counters and the viewer's is_liked flag.
func (s *PhotoService) GetPhoto(ctx context.Context, photoID, viewerID uint) (*models.Photo, error) {
	return s.photoRepo.GetByID(ctx, photoID, viewerID)
}

func (s *PhotoService) UpdateCaption(ctx context.Context, photoID, userID uint, caption string) (*models.Photo, error) {
	photo, err := s.photoRepo.GetByID(ctx, photoID, userID)
	if err != nil {
		return nil, err
	}
	if photo.UserID != userID {
		return nil, models.NewForbiddenError("You can only edit your own photos")
	}

	caption = strings.TrimSpace(caption)
	if utf8.RuneCountInString(caption) > maxCaptionLen {
		return nil, models.NewValidationError(fmt.Sprintf("Caption too long (max %d characters)", maxCaptionLen))
	}
	if err := s.photoRepo.UpdateCaption(ctx, photoID, caption); err != nil {
		return nil, err
	}
	return s.photoRepo.GetByID(ctx, photoID, userID)
}

func (s *PhotoService) DeletePhoto(ctx context.Context, photoID, userID uint) error {
	photo, err := s.photoRepo.GetByID(ctx, photoID, userID)
	if err != nil {
		return err
	}
	if photo.UserID != userID {
		return models.NewForbiddenError("You can only delete your own photos")
	}
	return s.photoRepo.Delete(ctx, photoID)
}

// ListPhotos returns all photos newest first, optionally for one username.
func (s *PhotoService) ListPhotos(ctx context.Context, in ListPhotosInput) ([]*models.Photo, error) {
	return s.photoRepo.List(ctx, repository.PhotoFilter{
		Username: strings.TrimSpace(in.Username),
		ViewerID: in.ViewerID,
		Limit:    in.Limit,
		Offset:   in.Offset,
	})
}

// Feed returns photos posted by the viewer and the viewer's friends.
func (s *PhotoService) Feed(ctx context.Context, viewerID uint, limit, offset int) ([]*models.Photo, error) {
	ids, err := s.friends.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	owners := append([]uint{viewerID}, ids...)
	return s.photoRepo.List(ctx, repository.PhotoFilter{
		OwnerIDs: owners,
		ViewerID: viewerID,
		Limit:    limit,
		Offset:   offset,
	})
}

func (s *PhotoService) MyPhotos(ctx context.Context, userID uint, limit, offset int) ([]*models.Photo, error) {
	return s.photoRepo.List(ctx, repository.PhotoFilter{
		OwnerIDs: []uint{userID},
		ViewerID: userID,
		Limit:    limit,
		Offset:   offset,
	})
}

// ListComments returns the photo's comments oldest first.
func (s *PhotoService) ListComments(ctx context.Context, photoID uint, limit, offset int) ([]*models.Comment, error) {
	if err := s.requirePhoto(ctx, photoID); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPhoto(ctx, photoID, limit, offset)
}

// DeleteComment removes a comment. The author and the photo's owner may do so.
func (s *PhotoService) DeleteComment(ctx context.Context, photoID, commentID, userID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.PhotoID != photoID {
		return models.NewNotFoundError("Comment", commentID)
	}

	if comment.UserID != userID {
		photo, err := s.photoRepo.GetByID(ctx, photoID, userID)
		if err != nil {
			return err
		}
		if photo.UserID != userID {
			return models.NewForbiddenError("You can only delete your own comments")
		}
	}
	return s.commentRepo.Delete(ctx, commentID)
}

func (s *PhotoService) requirePhoto(ctx context.Context, photoID uint) error {
	exists, err := s.photoRepo.Exists(ctx, photoID)
	if err != nil {
		return err
	}
	if !exists {
		return models.NewNotFoundError("Photo", photoID)
	}
	return nil
}
