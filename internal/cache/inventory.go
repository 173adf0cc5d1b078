package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	FriendIDsKeyPrefix = "user:%d:friend_ids"
)

// Key families, used as metric labels.
const (
	FamilyUser      = "user"
	FamilyFriendIDs = "friend_ids"
)

var (
	UserTTL      = 5 * time.Minute
	FriendIDsTTL = 2 * time.Minute
)

// Configure applies the configured base TTL; zero keeps the defaults.
func Configure(ttlSeconds int) {
	if ttlSeconds <= 0 {
		return
	}
	UserTTL = time.Duration(ttlSeconds) * time.Second
	FriendIDsTTL = UserTTL / 2
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func FriendIDsKey(userID uint) string {
	return fmt.Sprintf(FriendIDsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateFriendship drops the friend lists of both ends of an edge.
func InvalidateFriendship(ctx context.Context, a, b uint) {
	Invalidate(ctx, FriendIDsKey(a), FriendIDsKey(b))
}
