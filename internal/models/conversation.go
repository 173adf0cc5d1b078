package models

import (
	"fmt"
	"time"
)

// MaxMessageLength bounds message content.
const MaxMessageLength = 2000

// Conversation is a participant group with an ordered message sequence.
type Conversation struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:120" json:"name,omitempty"` // For group chats
	IsGroup bool   `gorm:"not null;default:false" json:"is_group"`
	// DirectKey is set only for two-person conversations; see DirectKeyFor.
	DirectKey    *string   `gorm:"uniqueIndex;size:64" json:"-"`
	CreatedBy    uint      `gorm:"not null" json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `gorm:"index" json:"updated_at"`
	Participants []User    `gorm:"many2many:conversation_participants;" json:"participants,omitempty"`

	UnreadCount       int64    `gorm:"-" json:"unread_count"`
	LastMessage       *Message `gorm:"-" json:"last_message"`
	OtherParticipants []User   `gorm:"-" json:"other_participants,omitempty"`
}

// TableName specifies the table name for GORM
func (Conversation) TableName() string {
	return "conversations"
}

// DirectKeyFor returns the order-independent key identifying the direct
// conversation between two users.
func DirectKeyFor(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// HasParticipant reports whether userID is in the loaded participant set.
func (c *Conversation) HasParticipant(userID uint) bool {
	for _, p := range c.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// Message is one entry in a conversation. IsRead flips once a participant
// other than the sender views the conversation.
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index:idx_messages_conversation_created,priority:1" json:"conversation_id"`
	SenderID       uint      `gorm:"not null;index" json:"sender_id"`
	Sender         *User     `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	IsRead         bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation_created,priority:2" json:"created_at"`
}

// TableName specifies the table name for GORM
func (Message) TableName() string {
	return "messages"
}

// ConversationParticipant is the join row between conversations and users.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey" json:"conversation_id"`
	UserID         uint      `gorm:"primaryKey;index" json:"user_id"`
	JoinedAt       time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

// TableName specifies the table name for GORM
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
