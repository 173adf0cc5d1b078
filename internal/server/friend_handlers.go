package server

import (
	"github.com/gofiber/fiber/v2"
)

// SendFriendRequest handles POST /api/users/:id/friend-requests
// @Summary Send a friend request
// @Description Creates a pending request from the caller to the user.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Target user ID"
// @Success 201 {object} models.Friendship
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/{id}/friend-requests [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.SendRequest(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(friendship)
}

// AcceptFriendRequest handles POST /api/users/:id/friend-requests/accept
// @Summary Accept a friend request
// @Description Accepts the pending request the user sent to the caller.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Requester user ID"
// @Success 200 {object} object{message=string,friendship_status=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/friend-requests/accept [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requesterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	if err := s.friendService.AcceptRequest(ctx, requesterID, userID); err != nil {
		return respondServiceError(c, err)
	}

	status, err := s.friendService.Status(ctx, userID, requesterID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":           "Friend request accepted",
		"friendship_status": status,
	})
}

// DeclineFriendRequest handles POST /api/users/:id/friend-requests/decline
// @Summary Decline a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Requester user ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/friend-requests/decline [post]
func (s *Server) DeclineFriendRequest(c *fiber.Ctx) error {
	requesterID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.friendService.DeclineRequest(c.UserContext(), requesterID, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Friend request declined"})
}

// CancelFriendRequest handles DELETE /api/users/:id/friend-requests
// @Summary Cancel a sent friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Addressee user ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/friend-requests [delete]
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	addresseeID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.friendService.CancelRequest(c.UserContext(), currentUserID(c), addresseeID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Friend request cancelled"})
}

// RemoveFriend handles DELETE /api/friends/:id
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "Friend user ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{id} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	friendID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.friendService.RemoveFriend(c.UserContext(), currentUserID(c), friendID); err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Friend removed"})
}

// GetFriends handles GET /api/friends
// @Summary List the caller's friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.ListFriends(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(friends)
}

// GetUserFriends handles GET /api/users/:id/friends
// @Summary List a user's friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {array} models.User
// @Router /users/{id}/friends [get]
func (s *Server) GetUserFriends(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	if _, err := s.userService.GetUser(ctx, userID); err != nil {
		return respondServiceError(c, err)
	}

	friends, err := s.friendService.ListFriends(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(friends)
}

// GetPendingRequests handles GET /api/friends/requests
// @Summary List incoming friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Friendship
// @Router /friends/requests [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.PendingRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
// @Summary List outgoing friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Friendship
// @Router /friends/requests/sent [get]
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.SentRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(requests)
}

// GetFriendshipStatus handles GET /api/users/:id/friendship-status
// @Summary Friendship status with a user
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{user_id=int,status=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/friendship-status [get]
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	if _, err := s.userService.GetUser(ctx, targetID); err != nil {
		return respondServiceError(c, err)
	}

	status, err := s.friendService.Status(ctx, currentUserID(c), targetID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"user_id": targetID,
		"status":  status,
	})
}
