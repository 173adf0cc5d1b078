package database

import "snapcircle/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters: referenced tables first.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Friendship{},
		&models.Photo{},
		&models.PhotoLike{},
		&models.Comment{},
		&models.Conversation{},
		&models.ConversationParticipant{},
		&models.Message{},
	}
}
