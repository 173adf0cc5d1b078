// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a member of the SnapCircle directory.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Bio       string         `gorm:"type:text" json:"bio"`
	Location  string         `gorm:"size:100" json:"location"`
	BirthDate *time.Time     `json:"birth_date,omitempty"`
	Website   string         `gorm:"size:200" json:"website"`
	Avatar    string         `json:"avatar"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// UserProfile is a user record decorated with viewer-relative derived fields.
type UserProfile struct {
	User
	FriendsCount     int64           `json:"friends_count"`
	PhotosCount      int64           `json:"photos_count"`
	FriendshipStatus FriendshipState `json:"friendship_status"`
}
