package server

import (
	"snapcircle/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createConversationRequest struct {
	Name           string `json:"name" validate:"max=120"`
	ParticipantIDs []uint `json:"participant_ids" validate:"required,min=1,dive,gt=0"`
}

type startConversationRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Message  string `json:"message"`
}

// Emptiness and length are checked by the service, after membership.
type sendMessageRequest struct {
	Content string `json:"content"`
}

type addParticipantRequest struct {
	UserID uint `json:"user_id" validate:"required,gt=0"`
}

// GetConversations handles GET /api/conversations
// @Summary List the caller's conversations
// @Description Most recently active first, each with unread_count and last_message.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Conversation
// @Router /conversations [get]
func (s *Server) GetConversations(c *fiber.Ctx) error {
	convs, err := s.chatService.ListConversations(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(convs)
}

// CreateConversation handles POST /api/conversations
// @Summary Create a conversation
// @Description Two members in total yields the pair's direct conversation; more yields a group.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createConversationRequest true "Participants"
// @Success 201 {object} models.Conversation
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations [post]
func (s *Server) CreateConversation(c *fiber.Ctx) error {
	var req createConversationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	conv, err := s.chatService.CreateConversation(c.UserContext(), currentUserID(c), service.CreateConversationInput{
		Name:           req.Name,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

// StartConversation handles POST /api/conversations/direct
// @Summary Start a direct conversation by username
// @Description Reuses the existing direct conversation and posts the optional first message.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body startConversationRequest true "Recipient and first message"
// @Success 200 {object} object{conversation=models.Conversation,message=models.Message}
// @Success 201 {object} object{conversation=models.Conversation,message=models.Message}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations/direct [post]
func (s *Server) StartConversation(c *fiber.Ctx) error {
	var req startConversationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	conv, msg, created, err := s.chatService.StartConversation(c.UserContext(), currentUserID(c), req.Username, req.Message)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(fiber.Map{
		"conversation": conv,
		"message":      msg,
	})
}

// GetConversation handles GET /api/conversations/:id
// @Summary Get a conversation
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} models.Conversation
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations/{id} [get]
func (s *Server) GetConversation(c *fiber.Ctx) error {
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	conv, err := s.chatService.GetConversation(c.UserContext(), convID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(conv)
}

// GetMessages handles GET /api/conversations/:id/messages
// @Summary List messages
// @Description Oldest first.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param limit query int false "Page size" default(50)
// @Param offset query int false "Offset"
// @Success 200 {array} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Router /conversations/{id}/messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	messages, err := s.chatService.GetMessages(c.UserContext(), convID, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// SendMessage handles POST /api/conversations/:id/messages
// @Summary Post a message
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body sendMessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /conversations/{id}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req sendMessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.chatService.PostMessage(c.UserContext(), convID, currentUserID(c), req.Content)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// MarkConversationRead handles POST /api/conversations/:id/read
// @Summary Mark all messages read
// @Description Marks every message not sent by the caller as read.
// @Tags conversations
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} object{messages_updated=int}
// @Failure 403 {object} models.ErrorResponse
// @Router /conversations/{id}/read [post]
func (s *Server) MarkConversationRead(c *fiber.Ctx) error {
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	updated, err := s.chatService.MarkAllRead(c.UserContext(), convID, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"messages_updated": updated})
}

// AddParticipant handles POST /api/conversations/:id/participants
// @Summary Add a participant
// @Description A direct conversation that grows to three members becomes a group.
// @Tags conversations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body addParticipantRequest true "User to add"
// @Success 200 {object} models.Conversation
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /conversations/{id}/participants [post]
func (s *Server) AddParticipant(c *fiber.Ctx) error {
	convID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req addParticipantRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	conv, err := s.chatService.AddParticipant(c.UserContext(), convID, currentUserID(c), req.UserID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(conv)
}
