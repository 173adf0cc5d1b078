package service

import (
	"context"
	"strings"
	"time"

	"snapcircle/internal/cache"
	"snapcircle/internal/models"
	"snapcircle/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// UserService manages the user directory and builds viewer-relative profiles.
type UserService struct {
	userRepo  repository.UserRepository
	photoRepo repository.PhotoRepository
	friends   *FriendService
}

type SignupInput struct {
	Username string
	Email    string
	Password string
}

// UpdateProfileInput carries optional profile edits; nil fields are left alone.
type UpdateProfileInput struct {
	UserID    uint
	Bio       *string
	Location  *string
	BirthDate *time.Time
	Website   *string
	Avatar    *string
}

func NewUserService(userRepo repository.UserRepository, photoRepo repository.PhotoRepository, friends *FriendService) *UserService {
	return &UserService{
		userRepo:  userRepo,
		photoRepo: photoRepo,
		friends:   friends,
	}
}

// Signup stores a new user with a bcrypt password hash. Taken usernames or
// emails surface as DUPLICATE_REQUEST from the unique indexes.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials by username or email. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*models.User, error) {
	user, err := s.userRepo.GetByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
}

// GetProfile returns the user with friend and photo counts and the
// friendship status as seen by viewerID.
func (s *UserService) GetProfile(ctx context.Context, viewerID, id uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	friendsCount, err := s.friends.FriendsCount(ctx, id)
	if err != nil {
		return nil, err
	}
	photosCount, err := s.photoRepo.CountByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.friends.Status(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}

	return &models.UserProfile{
		User:             *user,
		FriendsCount:     friendsCount,
		PhotosCount:      photosCount,
		FriendshipStatus: status,
	}, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	fields := map[string]interface{}{}
	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.BirthDate != nil {
		if in.BirthDate.After(time.Now()) {
			return nil, models.NewValidationError("Birth date cannot be in the future")
		}
		fields["birth_date"] = *in.BirthDate
	}
	if in.Website != nil {
		fields["website"] = strings.TrimSpace(*in.Website)
	}
	if in.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*in.Avatar)
	}

	if err := s.userRepo.UpdateProfile(ctx, in.UserID, fields); err != nil {
		return nil, err
	}
	cache.InvalidateUser(ctx, in.UserID)

	return s.userRepo.GetByID(ctx, in.UserID)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}
