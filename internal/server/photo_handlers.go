package server

import (
	"snapcircle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPhotoRequest struct {
	ImageURL string `json:"image_url" validate:"required,url,max=2048"`
	Caption  string `json:"caption"`
}

type updatePhotoRequest struct {
	Caption string `json:"caption"`
}

// Emptiness is reported as EMPTY_CONTENT by the service.
type createCommentRequest struct {
	Text string `json:"text"`
}

// GetPhotos handles GET /api/photos
// @Summary List photos
// @Description Newest first, optionally filtered by owner username.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param username query string false "Owner username"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Photo
// @Router /photos [get]
func (s *Server) GetPhotos(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	photos, err := s.photoService.ListPhotos(c.UserContext(), service.ListPhotosInput{
		ViewerID: currentUserID(c),
		Username: c.Query("username"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}

// GetFeed handles GET /api/photos/feed
// @Summary Friends feed
// @Description Photos from the caller and the caller's friends, newest first.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Photo
// @Router /photos/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	photos, err := s.photoService.Feed(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}

// GetMyPhotos handles GET /api/photos/mine
// @Summary The caller's photos
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Photo
// @Router /photos/mine [get]
func (s *Server) GetMyPhotos(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	photos, err := s.photoService.MyPhotos(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photos)
}

// CreatePhoto handles POST /api/photos
// @Summary Post a photo
// @Tags photos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPhotoRequest true "Photo"
// @Success 201 {object} models.Photo
// @Failure 400 {object} models.ErrorResponse
// @Router /photos [post]
func (s *Server) CreatePhoto(c *fiber.Ctx) error {
	var req createPhotoRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	photo, err := s.photoService.CreatePhoto(c.UserContext(), service.CreatePhotoInput{
		UserID:   currentUserID(c),
		ImageURL: req.ImageURL,
		Caption:  req.Caption,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(photo)
}

// GetPhoto handles GET /api/photos/:id
// @Summary Get a photo
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} models.Photo
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id} [get]
func (s *Server) GetPhoto(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	photo, err := s.photoService.GetPhoto(c.UserContext(), photoID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photo)
}

// UpdatePhoto handles PUT /api/photos/:id
// @Summary Edit a photo caption
// @Tags photos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Param request body updatePhotoRequest true "Caption"
// @Success 200 {object} models.Photo
// @Failure 403 {object} models.ErrorResponse
// @Router /photos/{id} [put]
func (s *Server) UpdatePhoto(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updatePhotoRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	photo, err := s.photoService.UpdateCaption(c.UserContext(), photoID, currentUserID(c), req.Caption)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(photo)
}

// DeletePhoto handles DELETE /api/photos/:id
// @Summary Delete a photo
// @Tags photos
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /photos/{id} [delete]
func (s *Server) DeletePhoto(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.photoService.DeletePhoto(c.UserContext(), photoID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ToggleLike handles POST /api/photos/:id/like
// @Summary Like or unlike a photo
// @Description Flips the caller's like; calling twice restores the original state.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.photoService.ToggleLike(c.UserContext(), photoID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// GetPhotoCounts handles GET /api/photos/:id/counts
// @Summary Like and comment counts
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {object} models.PhotoCounts
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/counts [get]
func (s *Server) GetPhotoCounts(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	counts, err := s.photoService.Counts(c.UserContext(), photoID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(counts)
}

// GetComments handles GET /api/photos/:id/comments
// @Summary List comments
// @Description Oldest first.
// @Tags photos
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	comments, err := s.photoService.ListComments(c.UserContext(), photoID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/photos/:id/comments
// @Summary Comment on a photo
// @Tags photos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /photos/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.photoService.AddComment(c.UserContext(), photoID, currentUserID(c), req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// DeleteComment handles DELETE /api/photos/:id/comments/:commentId
// @Summary Delete a comment
// @Description Allowed for the comment's author and the photo's owner.
// @Tags photos
// @Security BearerAuth
// @Param id path int true "Photo ID"
// @Param commentId path int true "Comment ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /photos/{id}/comments/{commentId} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	photoID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}

	if err := s.photoService.DeleteComment(c.UserContext(), photoID, commentID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
