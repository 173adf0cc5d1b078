package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"snapcircle/internal/models"
	"snapcircle/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatServiceFindOrCreateDirect(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "dora")
	b := testutil.CreateUser(t, s.db, "eli")

	_, _, err := s.chat.FindOrCreateDirect(ctx, a.ID, a.ID)
	requireCode(t, err, models.CodeInvalidOperation)

	_, _, err = s.chat.FindOrCreateDirect(ctx, a.ID, 999)
	requireCode(t, err, models.CodeNotFound)

	first, created, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.IsGroup)
	assert.Len(t, first.Participants, 2)

	again, created, err := s.chat.FindOrCreateDirect(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
}

func TestChatServiceDirectBecomesGroupOnThirdMember(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "fay")
	b := testutil.CreateUser(t, s.db, "gus")
	c := testutil.CreateUser(t, s.db, "hal")

	direct, _, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)

	grown, err := s.chat.AddParticipant(ctx, direct.ID, a.ID, c.ID)
	require.NoError(t, err)
	assert.True(t, grown.IsGroup)
	assert.Len(t, grown.Participants, 3)

	// The grown conversation no longer answers for the pair.
	fresh, created, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, direct.ID, fresh.ID)
}

func TestChatServiceAddParticipant(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "ida")
	b := testutil.CreateUser(t, s.db, "jon")
	c := testutil.CreateUser(t, s.db, "kai")
	outsider := testutil.CreateUser(t, s.db, "lou")

	conv, err := s.chat.CreateConversation(ctx, a.ID, CreateConversationInput{Name: "trip", ParticipantIDs: []uint{b.ID, c.ID}})
	require.NoError(t, err)
	assert.True(t, conv.IsGroup)
	assert.Equal(t, "trip", conv.Name)

	_, err = s.chat.AddParticipant(ctx, conv.ID, outsider.ID, outsider.ID)
	requireCode(t, err, models.CodeNotParticipant)

	_, err = s.chat.AddParticipant(ctx, conv.ID, a.ID, 4242)
	requireCode(t, err, models.CodeNotFound)

	_, err = s.chat.AddParticipant(ctx, 4242, a.ID, outsider.ID)
	requireCode(t, err, models.CodeNotFound)

	updated, err := s.chat.AddParticipant(ctx, conv.ID, a.ID, outsider.ID)
	require.NoError(t, err)
	assert.Len(t, updated.Participants, 4)

	// Re-adding is a no-op and records no second note.
	_, err = s.chat.AddParticipant(ctx, conv.ID, b.ID, outsider.ID)
	require.NoError(t, err)

	msgs, err := s.chat.GetMessages(ctx, conv.ID, outsider.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "lou was added to the conversation", msgs[0].Content)
	assert.True(t, msgs[0].IsRead)

	unread, err := s.chat.UnreadCount(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestChatServiceCreateConversationRoutesPairsToDirect(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "max")
	b := testutil.CreateUser(t, s.db, "ned")

	_, err := s.chat.CreateConversation(ctx, a.ID, CreateConversationInput{ParticipantIDs: []uint{a.ID}})
	requireCode(t, err, models.CodeValidation)

	viaCreate, err := s.chat.CreateConversation(ctx, a.ID, CreateConversationInput{ParticipantIDs: []uint{b.ID, b.ID}})
	require.NoError(t, err)

	direct, created, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, viaCreate.ID, direct.ID)
}

func TestChatServicePostMessage(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "oli")
	b := testutil.CreateUser(t, s.db, "pam")
	outsider := testutil.CreateUser(t, s.db, "quin")

	conv, _, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = s.chat.PostMessage(ctx, 9999, a.ID, "hello")
	requireCode(t, err, models.CodeNotFound)

	_, err = s.chat.PostMessage(ctx, conv.ID, a.ID, "   \n\t")
	requireCode(t, err, models.CodeEmptyContent)

	msg, err := s.chat.PostMessage(ctx, conv.ID, a.ID, "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.IsRead)
	require.NotNil(t, msg.Sender)
	assert.Equal(t, "oli", msg.Sender.Username)

	before, err := s.chat.GetConversation(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, msg.CreatedAt, before.UpdatedAt, time.Millisecond)

	count := func() int64 {
		var n int64
		require.NoError(t, s.db.Model(&models.Message{}).Where("conversation_id = ?", conv.ID).Count(&n).Error)
		return n
	}
	n := count()

	_, err = s.chat.PostMessage(ctx, conv.ID, outsider.ID, "let me in")
	requireCode(t, err, models.CodeNotParticipant)
	assert.Equal(t, n, count())

	after, err := s.chat.GetConversation(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestChatServiceMarkAllRead(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "rae")
	b := testutil.CreateUser(t, s.db, "sol")
	outsider := testutil.CreateUser(t, s.db, "tam")

	conv, _, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)

	for _, text := range []string{"one", "two"} {
		_, err = s.chat.PostMessage(ctx, conv.ID, a.ID, text)
		require.NoError(t, err)
	}
	_, err = s.chat.PostMessage(ctx, conv.ID, b.ID, "reply")
	require.NoError(t, err)

	unread, err := s.chat.UnreadCount(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	_, err = s.chat.MarkAllRead(ctx, conv.ID, outsider.ID)
	requireCode(t, err, models.CodeNotParticipant)

	updated, err := s.chat.MarkAllRead(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	unread, err = s.chat.UnreadCount(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	updated, err = s.chat.MarkAllRead(ctx, conv.ID, b.ID)
	require.NoError(t, err)
	assert.Zero(t, updated)

	// b's own reply is still unread for a.
	unread, err = s.chat.UnreadCount(ctx, conv.ID, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestChatServiceLastMessageTieBreak(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "uma")
	b := testutil.CreateUser(t, s.db, "vic")

	conv, _, err := s.chat.FindOrCreateDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)

	last, err := s.chat.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, last)

	at := time.Now().UTC().Truncate(time.Second)
	for _, text := range []string{"first", "second"} {
		require.NoError(t, s.db.Create(&models.Message{
			ConversationID: conv.ID,
			SenderID:       a.ID,
			Content:        text,
			CreatedAt:      at,
		}).Error)
	}

	last, err = s.chat.LastMessage(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "second", last.Content)
}

func TestChatServiceListConversations(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	me := testutil.CreateUser(t, s.db, "wes")
	x := testutil.CreateUser(t, s.db, "xia")
	y := testutil.CreateUser(t, s.db, "yan")

	withX, _, err := s.chat.FindOrCreateDirect(ctx, me.ID, x.ID)
	require.NoError(t, err)
	withY, _, err := s.chat.FindOrCreateDirect(ctx, me.ID, y.ID)
	require.NoError(t, err)

	_, err = s.chat.PostMessage(ctx, withY.ID, y.ID, "older")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = s.chat.PostMessage(ctx, withX.ID, x.ID, "newer")
	require.NoError(t, err)

	convs, err := s.chat.ListConversations(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)

	assert.Equal(t, withX.ID, convs[0].ID)
	assert.EqualValues(t, 1, convs[0].UnreadCount)
	require.NotNil(t, convs[0].LastMessage)
	assert.Equal(t, "newer", convs[0].LastMessage.Content)
	require.Len(t, convs[0].OtherParticipants, 1)
	assert.Equal(t, "xia", convs[0].OtherParticipants[0].Username)

	assert.Equal(t, withY.ID, convs[1].ID)
	assert.Equal(t, "older", convs[1].LastMessage.Content)

	_, err = s.chat.GetConversation(ctx, withX.ID, y.ID)
	requireCode(t, err, models.CodeNotParticipant)
	_, err = s.chat.GetMessages(ctx, withX.ID, y.ID, 10, 0)
	requireCode(t, err, models.CodeNotParticipant)
}

func TestChatServiceStartConversation(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "zed")
	testutil.CreateUser(t, s.db, "amy")

	_, _, _, err := s.chat.StartConversation(ctx, a.ID, "nobody", "")
	requireCode(t, err, models.CodeNotFound)

	conv, msg, created, err := s.chat.StartConversation(ctx, a.ID, "amy", "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Nil(t, msg)

	again, msg, created, err := s.chat.StartConversation(ctx, a.ID, "amy", "hey there")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
	require.NotNil(t, msg)
	assert.Equal(t, "hey there", msg.Content)
}

func TestChatServiceStartConversationRejectedMessageWritesNothing(t *testing.T) {
	s := newServices(t)
	ctx := context.Background()
	a := testutil.CreateUser(t, s.db, "pa")
	testutil.CreateUser(t, s.db, "pb")

	_, _, _, err := s.chat.StartConversation(ctx, a.ID, "pb", strings.Repeat("x", models.MaxMessageLength+1))
	requireCode(t, err, models.CodeValidation)

	var conversations, messages int64
	require.NoError(t, s.db.Model(&models.Conversation{}).Count(&conversations).Error)
	require.NoError(t, s.db.Model(&models.Message{}).Count(&messages).Error)
	assert.Zero(t, conversations)
	assert.Zero(t, messages)
}
