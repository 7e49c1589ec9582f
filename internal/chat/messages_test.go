package chat

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PedroBarbosa73/chat-app/internal/models"
)

func newMessageService(t *testing.T) (*MessageService, *fakeMessageRepo, *fakeRoomRepo, *fakeBlobStore) {
	t.Helper()
	msgs := newFakeMessageRepo()
	rooms := newFakeRoomRepo()
	users := newFakeUserRepo("alice", "bob")
	blobs := newFakeBlobStore()
	svc := NewMessageService(msgs, rooms, users, blobs, time.Second, zap.NewNop())
	return svc, msgs, rooms, blobs
}

func TestAppendValidation(t *testing.T) {
	svc, _, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)

	_, err = svc.Append(ctx, models.RoomTarget(room.ID), "alice", "", nil)
	assert.ErrorIs(t, err, ErrValidation, "empty body and no media")

	_, err = svc.Append(ctx, models.RoomTarget(uuid.New()), "alice", "hi", nil)
	assert.ErrorIs(t, err, ErrValidation, "room target must resolve")

	_, err = svc.Append(ctx, models.ConversationTarget("alice", "ghost"), "alice", "hi", nil)
	assert.ErrorIs(t, err, ErrValidation, "recipient must exist")

	_, err = svc.Append(ctx, models.ConversationTarget("alice", "alice"), "alice", "hi", nil)
	assert.ErrorIs(t, err, ErrValidation, "no self-conversation")
}

func TestAppendAssignsUniqueTokens(t *testing.T) {
	svc, _, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		msg, err := svc.Append(ctx, models.RoomTarget(room.ID), "alice", fmt.Sprintf("m%d", i), nil)
		require.NoError(t, err)
		require.Len(t, msg.MessageID, 11)
		require.False(t, seen[msg.MessageID], "token reused")
		seen[msg.MessageID] = true
	}
}

func TestAppendRetriesTransientFailure(t *testing.T) {
	svc, msgs, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)

	msgs.failCreate = 1
	msgs.failErr = uniqueViolationErr()

	msg, err := svc.Append(ctx, models.RoomTarget(room.ID), "alice", "hi", nil)
	require.NoError(t, err, "one collision should be absorbed by the retry")
	assert.Equal(t, "hi", msg.Body)
}

func TestAppendExhaustionIsRetryable(t *testing.T) {
	svc, msgs, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)

	msgs.failCreate = 10
	msgs.failErr = fmt.Errorf("connection reset")

	_, err = svc.Append(ctx, models.RoomTarget(room.ID), "alice", "hi", nil)
	assert.ErrorIs(t, err, ErrRetryable)
}

func TestPageOrderingAndNoSkips(t *testing.T) {
	svc, _, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)
	target := models.RoomTarget(room.ID)

	const total = 12
	for i := 0; i < total; i++ {
		_, err := svc.Append(ctx, target, "alice", fmt.Sprintf("m%d", i), nil)
		require.NoError(t, err)
	}

	// Walk the full log in pages of 5 and verify order with no skips or
	// duplicates across page boundaries.
	var collected []string
	cursor := ""
	for {
		page, err := svc.Page(ctx, target, cursor, 5)
		require.NoError(t, err)
		for _, m := range page.Messages {
			collected = append(collected, m.Body)
		}
		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	require.Len(t, collected, total)
	for i, body := range collected {
		assert.Equal(t, fmt.Sprintf("m%d", i), body)
	}
}

func TestPageDefaultsAndCap(t *testing.T) {
	svc, _, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)
	target := models.RoomTarget(room.ID)

	for i := 0; i < DefaultPageSize+10; i++ {
		_, err := svc.Append(ctx, target, "alice", "x", nil)
		require.NoError(t, err)
	}

	page, err := svc.Page(ctx, target, "", 0)
	require.NoError(t, err)
	assert.Len(t, page.Messages, DefaultPageSize)
	assert.True(t, page.HasMore)

	_, err = svc.Page(ctx, target, "not-a-cursor", 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConversationIsUnordered(t *testing.T) {
	svc, _, _, _ := newMessageService(t)
	ctx := context.Background()

	_, err := svc.Append(ctx, models.ConversationTarget("alice", "bob"), "alice", "hi bob", nil)
	require.NoError(t, err)
	_, err = svc.Append(ctx, models.ConversationTarget("bob", "alice"), "bob", "hi alice", nil)
	require.NoError(t, err)

	// Both directions land in the same conversation, whichever way the
	// pair is written.
	page, err := svc.Page(ctx, models.ConversationTarget("bob", "alice"), "", 10)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.Equal(t, "hi bob", page.Messages[0].Body)
	assert.Equal(t, "hi alice", page.Messages[1].Body)
}

func TestRevokeMedia(t *testing.T) {
	svc, _, rooms, _ := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)
	target := models.RoomTarget(room.ID)

	media := &models.Media{Type: "image/png", URL: "fake://cat.png", Filename: "cat.png"}
	msg, err := svc.Append(ctx, target, "alice", "", media)
	require.NoError(t, err)
	require.True(t, msg.HasMedia)

	require.NoError(t, svc.RevokeMedia(ctx, msg.MessageID))

	page, err := svc.Page(ctx, target, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	got := page.Messages[0]
	assert.False(t, got.HasMedia)
	assert.Nil(t, got.Media)
	assert.Equal(t, MediaRevokedBody, got.Body)

	// Idempotent: a second revoke changes nothing.
	require.NoError(t, svc.RevokeMedia(ctx, msg.MessageID))

	err = svc.RevokeMedia(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSweepMissingMedia(t *testing.T) {
	svc, _, rooms, blobs := newMessageService(t)
	ctx := context.Background()

	room, err := rooms.Create(ctx, "general", nil, "alice")
	require.NoError(t, err)
	target := models.RoomTarget(room.ID)

	liveURL, err := blobs.Put(ctx, []byte("png"), "image/png", "live.png")
	require.NoError(t, err)

	_, err = svc.Append(ctx, target, "alice", "", &models.Media{Type: "image/png", URL: liveURL, Filename: "live.png"})
	require.NoError(t, err)
	gone, err := svc.Append(ctx, target, "alice", "", &models.Media{Type: "image/png", URL: "fake://gone.png", Filename: "gone.png"})
	require.NoError(t, err)

	revoked, err := svc.SweepMissingMedia(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, revoked)

	got, err := svc.messages.GetByMessageID(ctx, gone.MessageID)
	require.NoError(t, err)
	assert.False(t, got.HasMedia)
	assert.Equal(t, MediaRevokedBody, got.Body)
}
