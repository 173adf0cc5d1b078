package repository

import (
	"context"
	"testing"

	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRepository_FindDirectRequiresExactPair(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	// A keyed conversation that somehow carries a third member must not match.
	key := models.DirectKeyFor(a.ID, b.ID)
	bad := &models.Conversation{DirectKey: &key, CreatedBy: a.ID}
	require.NoError(t, repo.CreateConversation(ctx, bad, []uint{a.ID, b.ID, c.ID}))

	found, err := repo.FindDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, db.Model(&models.ConversationParticipant{}).
		Where("conversation_id = ? AND user_id = ?", bad.ID, c.ID).
		Delete(&models.ConversationParticipant{}).Error)

	found, err = repo.FindDirect(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, bad.ID, found.ID)
}

func TestChatRepository_CreateDirectLoserReadsWinner(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	winner, created, err := repo.CreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, created)

	loser, created, err := repo.CreateDirect(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, loser.ID)

	var convs int64
	require.NoError(t, db.Model(&models.Conversation{}).Count(&convs).Error)
	assert.EqualValues(t, 1, convs)
}

func TestChatRepository_AddParticipantIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")

	conv, _, err := repo.CreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)

	added, err := repo.AddParticipant(ctx, conv.ID, b.ID, &models.Message{ConversationID: conv.ID, SenderID: a.ID, Content: "note", IsRead: true})
	require.NoError(t, err)
	assert.False(t, added)

	var n int64
	require.NoError(t, db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&n).Error)
	assert.Zero(t, n)

	reloaded, err := repo.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.DirectKey)
	assert.False(t, reloaded.IsGroup)
}

func TestChatRepository_UnreadAndLastMessageBatches(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChatRepository(db)
	ctx := context.Background()
	a := testutil.CreateUser(t, db, "a")
	b := testutil.CreateUser(t, db, "b")
	c := testutil.CreateUser(t, db, "c")

	ab, _, err := repo.CreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	ac, _, err := repo.CreateDirect(ctx, a.ID, c.ID)
	require.NoError(t, err)

	for _, m := range []*models.Message{
		{ConversationID: ab.ID, SenderID: b.ID, Content: "b1"},
		{ConversationID: ab.ID, SenderID: b.ID, Content: "b2"},
		{ConversationID: ab.ID, SenderID: a.ID, Content: "a1"},
	} {
		require.NoError(t, repo.CreateMessage(ctx, m))
	}

	unread, err := repo.UnreadCounts(ctx, []uint{ab.ID, ac.ID}, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread[ab.ID])
	assert.Zero(t, unread[ac.ID])

	last, err := repo.LastMessages(ctx, []uint{ab.ID, ac.ID})
	require.NoError(t, err)
	require.Contains(t, last, ab.ID)
	assert.Equal(t, "a1", last[ab.ID].Content)
	assert.NotContains(t, last, ac.ID)

	msgs, err := repo.GetMessages(ctx, ab.ID, 2, 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b2", msgs[0].Content)
	assert.Equal(t, "a1", msgs[1].Content)
}
