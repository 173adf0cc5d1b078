package repository

import (
	"context"
	"errors"

	"snapcircle/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChatRepository stores conversations, their participant sets and messages.
type ChatRepository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation, participantIDs []uint) error
	// CreateDirect inserts the {a, b} conversation, or returns the existing one
	// when a concurrent creator won the direct_key race. created reports which.
	CreateDirect(ctx context.Context, creatorID, otherID uint) (conv *models.Conversation, created bool, err error)
	// FindDirect returns the conversation whose participants are exactly {a, b}, or nil.
	FindDirect(ctx context.Context, a, b uint) (*models.Conversation, error)
	GetConversation(ctx context.Context, id uint) (*models.Conversation, error)
	GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error)
	IsParticipant(ctx context.Context, convID, userID uint) (bool, error)
	// AddParticipant is idempotent. When the user is new and note is non-nil,
	// note is stored as a message in the same transaction.
	AddParticipant(ctx context.Context, convID, userID uint, note *models.Message) (bool, error)
	// CreateMessage appends msg and moves the conversation's updated_at to the
	// message time, atomically. Non-participants get NOT_PARTICIPANT and nothing is written.
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error)
	CountUnread(ctx context.Context, convID, viewerID uint) (int64, error)
	UnreadCounts(ctx context.Context, convIDs []uint, viewerID uint) (map[uint]int64, error)
	LastMessage(ctx context.Context, convID uint) (*models.Message, error)
	LastMessages(ctx context.Context, convIDs []uint) (map[uint]*models.Message, error)
	MarkAllRead(ctx context.Context, convID, viewerID uint) (int64, error)
}

type chatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new ChatRepository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db}
}

func participantRows(convID uint, userIDs []uint) []models.ConversationParticipant {
	rows := make([]models.ConversationParticipant, 0, len(userIDs))
	seen := make(map[uint]bool, len(userIDs))
	for _, id := range userIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		rows = append(rows, models.ConversationParticipant{ConversationID: convID, UserID: id})
	}
	return rows
}

func (r *chatRepository) CreateConversation(ctx context.Context, conv *models.Conversation, participantIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(conv).Error; err != nil {
			return err
		}
		rows := participantRows(conv.ID, participantIDs)
		return tx.Create(&rows).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) CreateDirect(ctx context.Context, creatorID, otherID uint) (*models.Conversation, bool, error) {
	key := models.DirectKeyFor(creatorID, otherID)
	conv := &models.Conversation{DirectKey: &key, CreatedBy: creatorID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(conv).Error; err != nil {
			return err
		}
		rows := participantRows(conv.ID, []uint{creatorID, otherID})
		return tx.Create(&rows).Error
	})
	if err != nil {
		if !isUniqueViolation(err) {
			return nil, false, models.NewInternalError(err)
		}
		existing, findErr := r.FindDirect(ctx, creatorID, otherID)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing == nil {
			return nil, false, models.NewInternalError(err)
		}
		return existing, false, nil
	}

	created, err := r.GetConversation(ctx, conv.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (r *chatRepository) FindDirect(ctx context.Context, a, b uint) (*models.Conversation, error) {
	pair := []uint{a, b}
	var conv models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("direct_key = ?", models.DirectKeyFor(a, b)).
		Where("NOT EXISTS (SELECT 1 FROM conversation_participants cp WHERE cp.conversation_id = conversations.id AND cp.user_id NOT IN ?)", pair).
		Where("(SELECT COUNT(*) FROM conversation_participants cp WHERE cp.conversation_id = conversations.id AND cp.user_id IN ?) = 2", pair).
		Take(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &conv, nil
}

func (r *chatRepository) GetConversation(ctx context.Context, id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.WithContext(ctx).Preload("Participants").First(&conv, id).Error; err != nil {
		return nil, notFoundOr(err, "Conversation", id)
	}
	return &conv, nil
}

func (r *chatRepository) GetUserConversations(ctx context.Context, userID uint) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	err := r.db.WithContext(ctx).
		Select("conversations.*").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Preload("Participants").
		Order("conversations.updated_at DESC, conversations.id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return convs, nil
}

func isParticipant(db *gorm.DB, convID, userID uint) (bool, error) {
	var count int64
	err := db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", convID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *chatRepository) IsParticipant(ctx context.Context, convID, userID uint) (bool, error) {
	ok, err := isParticipant(r.db.WithContext(ctx), convID, userID)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return ok, nil
}

func (r *chatRepository) AddParticipant(ctx context.Context, convID, userID uint, note *models.Message) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ConversationParticipant{ConversationID: convID, UserID: userID})
		if ins.Error != nil {
			return ins.Error
		}
		if ins.RowsAffected == 0 {
			return nil
		}
		added = true

		var members int64
		if err := tx.Model(&models.ConversationParticipant{}).Where("conversation_id = ?", convID).Count(&members).Error; err != nil {
			return err
		}
		if members > 2 {
			// A third member turns a direct conversation into a group.
			if err := tx.Model(&models.Conversation{}).
				Where("id = ? AND direct_key IS NOT NULL", convID).
				UpdateColumns(map[string]interface{}{"direct_key": nil, "is_group": true}).Error; err != nil {
				return err
			}
		}

		if note == nil {
			return nil
		}
		return appendMessage(tx, note)
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return added, nil
}

func appendMessage(tx *gorm.DB, msg *models.Message) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = tx.NowFunc()
	}
	if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
		return err
	}
	return tx.Model(&models.Conversation{}).
		Where("id = ?", msg.ConversationID).
		UpdateColumn("updated_at", msg.CreatedAt).Error
}

func (r *chatRepository) CreateMessage(ctx context.Context, msg *models.Message) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := isParticipant(tx, msg.ConversationID, msg.SenderID)
		if err != nil {
			return err
		}
		if !ok {
			return models.NewNotParticipantError(msg.ConversationID)
		}
		msg.IsRead = false
		return appendMessage(tx, msg)
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *chatRepository) GetMessages(ctx context.Context, convID uint, limit, offset int) ([]*models.Message, error) {
	limit, offset = clampPage(limit, offset)
	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", convID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

func (r *chatRepository) CountUnread(ctx context.Context, convID, viewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND is_read = ? AND sender_id <> ?", convID, false, viewerID).
		Count(&count).Error
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *chatRepository) UnreadCounts(ctx context.Context, convIDs []uint, viewerID uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(convIDs))
	if len(convIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ConversationID uint
		Unread         int64
	}
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Select("conversation_id, COUNT(*) AS unread").
		Where("conversation_id IN ? AND is_read = ? AND sender_id <> ?", convIDs, false, viewerID).
		Group("conversation_id").
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.ConversationID] = row.Unread
	}
	return out, nil
}

// LastMessage picks the newest message; equal timestamps fall back to insertion order.
func (r *chatRepository) LastMessage(ctx context.Context, convID uint) (*models.Message, error) {
	var msg models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("conversation_id = ?", convID).
		Order("created_at DESC, id DESC").
		Take(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &msg, nil
}

func (r *chatRepository) LastMessages(ctx context.Context, convIDs []uint) (map[uint]*models.Message, error) {
	out := make(map[uint]*models.Message, len(convIDs))
	if len(convIDs) == 0 {
		return out, nil
	}

	var msgs []*models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("messages.conversation_id IN ?", convIDs).
		Where(`messages.id = (SELECT m2.id FROM messages m2
			WHERE m2.conversation_id = messages.conversation_id
			ORDER BY m2.created_at DESC, m2.id DESC LIMIT 1)`).
		Find(&msgs).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, m := range msgs {
		out[m.ConversationID] = m
	}
	return out, nil
}

func (r *chatRepository) MarkAllRead(ctx context.Context, convID, viewerID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", convID, viewerID, false).
		UpdateColumn("is_read", true)
	if result.Error != nil {
		return 0, models.NewInternalError(result.Error)
	}
	return result.RowsAffected, nil
}
