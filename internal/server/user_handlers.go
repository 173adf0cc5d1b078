package server

import (
	"context"
	"errors"
	"time"

	"snapcircle/internal/models"
	"snapcircle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	Location  *string `json:"location" validate:"omitempty,max=100"`
	BirthDate *string `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	Website   *string `json:"website" validate:"omitempty,max=200,url|len=0"`
	Avatar    *string `json:"avatar" validate:"omitempty,url|len=0"`
}

// GetAllUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Router /users [get]
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	page := parsePagination(c, 20)

	users, err := s.userService.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.Status(fiber.StatusGatewayTimeout).JSON(models.ErrorResponse{Error: "Request timeout"})
		}
		return respondServiceError(c, err)
	}

	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:id
// @Summary Get a user profile
// @Description Returns the user with friend and photo counts and the caller's friendship status.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} models.UserProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	profile, err := s.userService.GetProfile(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// GetMyProfile handles GET /api/users/me
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserProfile
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)

	profile, err := s.userService.GetProfile(c.UserContext(), userID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update the caller's profile
// @Description Only fields present in the body are changed. An empty website or avatar clears it.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.UpdateProfileInput{
		UserID:   currentUserID(c),
		Bio:      req.Bio,
		Location: req.Location,
		Website:  req.Website,
		Avatar:   req.Avatar,
	}
	if req.BirthDate != nil {
		// Format already checked by the validator.
		bd, _ := time.Parse(time.DateOnly, *req.BirthDate)
		in.BirthDate = &bd
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}
