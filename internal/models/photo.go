package models

import (
	"time"
)

// Photo is an owner-tagged image reference with likes and comments hanging off it.
type Photo struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	ImageURL string `gorm:"not null" json:"image_url"`
	Caption  string `gorm:"type:text" json:"caption"`
	// LikesCount is not persisted; computed at query time
	LikesCount int64 `gorm:"->;-:migration" json:"likes_count"`
	// CommentsCount is not persisted; computed at query time
	CommentsCount int64 `gorm:"->;-:migration" json:"comments_count"`
	// IsLiked indicates whether the requesting user liked this photo (computed)
	IsLiked   bool      `gorm:"->;-:migration" json:"is_liked"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Photo) TableName() string {
	return "photos"
}

// PhotoLike is one membership in a photo's like-set.
// The composite primary key makes (photo, user) unique.
type PhotoLike struct {
	PhotoID   uint      `gorm:"primaryKey" json:"photo_id"`
	UserID    uint      `gorm:"primaryKey;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PhotoLike) TableName() string {
	return "photo_likes"
}

// LikeResult is the outcome of a like toggle.
type LikeResult struct {
	PhotoID    uint  `json:"photo_id"`
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likes_count"`
}

// PhotoCounts holds the derived interaction counters of a photo.
type PhotoCounts struct {
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
}
