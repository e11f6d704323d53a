package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatsync/internal/application"
	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
)

func TestRepair_FixesStaleSummary(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory(nil)

	conv, err := mem.CreateConversation(ctx, domain.ParticipantInfo{Name: "Ada", Email: "ada@example.com", Role: "client"})
	require.NoError(t, err)
	// the summary write that normally follows was lost
	msg, err := mem.CreateMessage(ctx, domain.NewMessage{ConversationID: conv.ID, Sender: "ada@example.com", SenderRole: "client", Content: "are we still on for friday?"})
	require.NoError(t, err)

	s, err := NewRepair(application.New(mem, nil, nil), mem, time.Hour, time.Second, nil)
	require.NoError(t, err)
	s.Start()
	defer func() { assert.NoError(t, s.Shutdown()) }()

	require.Eventually(t, func() bool {
		got, err := mem.GetConversation(ctx, conv.ID)
		return err == nil && got.LastMessagePreview == msg.Content
	}, 2*time.Second, 10*time.Millisecond)

	got, err := mem.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(msg.CreatedAt))
}
