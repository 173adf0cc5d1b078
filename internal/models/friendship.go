package models

import (
	"time"
)

// FriendshipState is the relationship between two users as seen by one of them.
// It is derived from the directed friendship edges and never stored.
type FriendshipState string

const (
	// FriendshipStateSelf is reported when a user views themselves.
	FriendshipStateSelf FriendshipState = "self"
	// FriendshipStateFriends means an accepted edge exists in either direction.
	FriendshipStateFriends FriendshipState = "friends"
	// FriendshipStateOutgoingPending means the viewer sent a request that is not accepted yet.
	FriendshipStateOutgoingPending FriendshipState = "outgoing_pending"
	// FriendshipStateIncomingPending means the viewer received a request that is not accepted yet.
	FriendshipStateIncomingPending FriendshipState = "incoming_pending"
	// FriendshipStateNone means no edge exists between the two users.
	FriendshipStateNone FriendshipState = "none"
)

// Friendship is a directed friend request edge from Requester to Addressee.
// At most one row exists per ordered pair.
type Friendship struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RequesterID uint      `gorm:"not null;uniqueIndex:idx_friendship_users" json:"requester_id"`
	AddresseeID uint      `gorm:"not null;uniqueIndex:idx_friendship_users;index:idx_friendships_addressee" json:"addressee_id"`
	Accepted    bool      `gorm:"not null;default:false" json:"accepted"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relationships
	Requester User `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	Addressee User `gorm:"foreignKey:AddresseeID" json:"addressee,omitempty"`
}

// TableName specifies the table name for GORM
func (Friendship) TableName() string {
	return "friendships"
}

// Direction reports how the edge looks from the given user's side.
func (f *Friendship) Direction(viewerID uint) FriendshipState {
	switch {
	case f.Accepted:
		return FriendshipStateFriends
	case f.RequesterID == viewerID:
		return FriendshipStateOutgoingPending
	case f.AddresseeID == viewerID:
		return FriendshipStateIncomingPending
	default:
		return FriendshipStateNone
	}
}
