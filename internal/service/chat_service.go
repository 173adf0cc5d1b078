// Package service provides application business logic (friendships, chat, photos, users).
package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"snapcircle/internal/models"
	"snapcircle/internal/observability"
	"snapcircle/internal/repository"
)

// ChatService aggregates conversations: participant sets, message sequences
// and per-viewer read state.
type ChatService struct {
	chatRepo repository.ChatRepository
	userRepo repository.UserRepository
}

// CreateConversationInput is the input for creating a conversation.
type CreateConversationInput struct {
	Name           string
	ParticipantIDs []uint
}

// NewChatService returns a new ChatService.
func NewChatService(chatRepo repository.ChatRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{
		chatRepo: chatRepo,
		userRepo: userRepo,
	}
}

// UnreadCount counts messages in the conversation the viewer has not read.
// The viewer's own messages never count.
func (s *ChatService) UnreadCount(ctx context.Context, convID, viewerID uint) (int64, error) {
	return s.chatRepo.CountUnread(ctx, convID, viewerID)
}

// LastMessage returns the newest message, or nil for an empty conversation.
func (s *ChatService) LastMessage(ctx context.Context, convID uint) (*models.Message, error) {
	return s.chatRepo.LastMessage(ctx, convID)
}

// MarkAllRead marks every message not sent by the viewer as read and returns
// how many rows changed. Running it again returns 0.
func (s *ChatService) MarkAllRead(ctx context.Context, convID, viewerID uint) (updated int64, err error) {
	ctx, finish := observability.StartSpan(ctx, "ChatService.MarkAllRead",
		observability.UserAttr("conversation_id", convID), observability.UserAttr("viewer_id", viewerID))
	defer func() { finish(err) }()

	if err := s.requireParticipant(ctx, convID, viewerID); err != nil {
		return 0, err
	}
	return s.chatRepo.MarkAllRead(ctx, convID, viewerID)
}

// FindOrCreateDirect returns the conversation whose participants are exactly
// {a, b}, creating it when none exists. created reports whether it is new.
func (s *ChatService) FindOrCreateDirect(ctx context.Context, a, b uint) (conv *models.Conversation, created bool, err error) {
	ctx, finish := observability.StartSpan(ctx, "ChatService.FindOrCreateDirect",
		observability.UserAttr("user_a", a), observability.UserAttr("user_b", b))
	defer func() { finish(err) }()

	if a == b {
		return nil, false, models.NewInvalidOperationError("Cannot start a conversation with yourself")
	}
	for _, id := range []uint{a, b} {
		exists, err := s.userRepo.Exists(ctx, id)
		if err != nil {
			return nil, false, err
		}
		if !exists {
			return nil, false, models.NewNotFoundError("User", id)
		}
	}

	existing, err := s.chatRepo.FindDirect(ctx, a, b)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}
	return s.chatRepo.CreateDirect(ctx, a, b)
}

// PostMessage appends a message from senderID. The insert and the
// conversation's updated_at bump commit together or not at all.
func (s *ChatService) PostMessage(ctx context.Context, convID, senderID uint, text string) (msg *models.Message, err error) {
	ctx, finish := observability.StartSpan(ctx, "ChatService.PostMessage",
		observability.UserAttr("conversation_id", convID), observability.UserAttr("sender_id", senderID))
	defer func() { finish(err) }()

	if err := s.requireParticipant(ctx, convID, senderID); err != nil {
		return nil, err
	}

	content, err := messageContent(text)
	if err != nil {
		return nil, err
	}

	msg = &models.Message{
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
	}
	if err := s.chatRepo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	observability.MessagesPosted.Inc()

	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		msg.Sender = sender
	}
	return msg, nil
}

// AddParticipant adds userID to the conversation on actorID's behalf. Adding
// someone already present is a no-op.
func (s *ChatService) AddParticipant(ctx context.Context, convID, actorID, userID uint) (conv *models.Conversation, err error) {
	ctx, finish := observability.StartSpan(ctx, "ChatService.AddParticipant",
		observability.UserAttr("conversation_id", convID), observability.UserAttr("user_id", userID))
	defer func() { finish(err) }()

	conv, err = s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(actorID) {
		return nil, models.NewNotParticipantError(convID)
	}
	if conv.HasParticipant(userID) {
		return conv, nil
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	note := &models.Message{
		ConversationID: convID,
		SenderID:       actorID,
		Content:        fmt.Sprintf("%s was added to the conversation", user.Username),
		IsRead:         true,
	}
	if _, err := s.chatRepo.AddParticipant(ctx, convID, userID, note); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, convID)
}

// CreateConversation creates a conversation with the creator plus the given
// participants. A two-person result is always the pair's direct conversation.
func (s *ChatService) CreateConversation(ctx context.Context, creatorID uint, in CreateConversationInput) (*models.Conversation, error) {
	members := uniqueIDs(append([]uint{creatorID}, in.ParticipantIDs...))
	if len(members) < 2 {
		return nil, models.NewValidationError("At least one other participant is required")
	}

	if len(members) == 2 {
		conv, _, err := s.FindOrCreateDirect(ctx, members[0], members[1])
		return conv, err
	}

	for _, id := range members[1:] {
		exists, err := s.userRepo.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, models.NewNotFoundError("User", id)
		}
	}

	conv := &models.Conversation{
		Name:      strings.TrimSpace(in.Name),
		IsGroup:   true,
		CreatedBy: creatorID,
	}
	if err := s.chatRepo.CreateConversation(ctx, conv, members); err != nil {
		return nil, err
	}
	return s.chatRepo.GetConversation(ctx, conv.ID)
}

// StartConversation opens (or reuses) the direct conversation with username
// and posts firstMessage when it is not blank. The message is checked before
// anything is written so a rejected start leaves no conversation behind.
// created reports whether the conversation is new.
func (s *ChatService) StartConversation(ctx context.Context, callerID uint, username, firstMessage string) (conv *models.Conversation, msg *models.Message, created bool, err error) {
	other, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, nil, false, err
	}

	hasMessage := strings.TrimSpace(firstMessage) != ""
	if hasMessage {
		if _, err := messageContent(firstMessage); err != nil {
			return nil, nil, false, err
		}
	}

	conv, created, err = s.FindOrCreateDirect(ctx, callerID, other.ID)
	if err != nil {
		return nil, nil, false, err
	}

	if !hasMessage {
		return conv, nil, created, nil
	}
	msg, err = s.PostMessage(ctx, conv.ID, callerID, firstMessage)
	if err != nil {
		return nil, nil, false, err
	}
	return conv, msg, created, nil
}

// ListConversations returns the viewer's conversations, most recently active
// first, each decorated with its unread count and last message.
func (s *ChatService) ListConversations(ctx context.Context, viewerID uint) ([]*models.Conversation, error) {
	convs, err := s.chatRepo.GetUserConversations(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return convs, nil
	}

	ids := make([]uint, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
	}

	unread, err := s.chatRepo.UnreadCounts(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	last, err := s.chatRepo.LastMessages(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, c := range convs {
		c.UnreadCount = unread[c.ID]
		c.LastMessage = last[c.ID]
		c.OtherParticipants = otherParticipants(c, viewerID)
	}
	return convs, nil
}

// GetConversation returns a conversation the viewer belongs to.
func (s *ChatService) GetConversation(ctx context.Context, convID, viewerID uint) (*models.Conversation, error) {
	conv, err := s.chatRepo.GetConversation(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(viewerID) {
		return nil, models.NewNotParticipantError(convID)
	}

	if conv.UnreadCount, err = s.chatRepo.CountUnread(ctx, convID, viewerID); err != nil {
		return nil, err
	}
	if conv.LastMessage, err = s.chatRepo.LastMessage(ctx, convID); err != nil {
		return nil, err
	}
	conv.OtherParticipants = otherParticipants(conv, viewerID)
	return conv, nil
}

// GetMessages pages through the conversation oldest first.
func (s *ChatService) GetMessages(ctx context.Context, convID, viewerID uint, limit, offset int) ([]*models.Message, error) {
	if err := s.requireParticipant(ctx, convID, viewerID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetMessages(ctx, convID, limit, offset)
}

// requireParticipant distinguishes a missing conversation from an outsider.
func (s *ChatService) requireParticipant(ctx context.Context, convID, userID uint) error {
	ok, err := s.chatRepo.IsParticipant(ctx, convID, userID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := s.chatRepo.GetConversation(ctx, convID); err != nil {
		return err
	}
	return models.NewNotParticipantError(convID)
}

func otherParticipants(conv *models.Conversation, viewerID uint) []models.User {
	others := make([]models.User, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		if p.ID != viewerID {
			others = append(others, p)
		}
	}
	return others
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// messageContent trims text and enforces the message length bounds.
func messageContent(text string) (string, error) {
	content := strings.TrimSpace(text)
	if content == "" {
		return "", models.NewEmptyContentError("Message content")
	}
	if utf8.RuneCountInString(content) > models.MaxMessageLength {
		return "", models.NewValidationError(fmt.Sprintf("Message content too long (max %d characters)", models.MaxMessageLength))
	}
	return content, nil
}
