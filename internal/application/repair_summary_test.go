package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRepairSummary_FixesStaleSummary(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mem := store.NewMemory(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	})

	conv, err := mem.CreateConversation(ctx, domain.ParticipantInfo{Name: "Ada"})
	require.NoError(t, err)

	// message persisted without the summary write, as after a SummaryUpdateError
	last, err := mem.CreateMessage(ctx, domain.NewMessage{ConversationID: conv.ID, Sender: "u1", SenderRole: "client", Content: "latest"})
	require.NoError(t, err)

	svc := New(mem, nil, nil)
	repaired, err := svc.RepairSummary(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, repaired)

	got, err := mem.GetConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, got.LastMessageAt.Equal(last.CreatedAt))
	assert.Equal(t, "latest", got.LastMessagePreview)

	// second pass has nothing to do
	repaired, err = svc.RepairSummary(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, repaired)
}

func TestRepairAll_SkipsFailures(t *testing.T) {
	ctx := context.Background()
	st := new(storetest.MockStore)
	svc := New(st, nil, nil)

	ts := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	st.On("ListMessages", mock.Anything).Return([]domain.Message{
		{ID: "1", ConversationID: "a", Content: "for a", CreatedAt: ts},
		{ID: "2", ConversationID: "b", Content: "for b", CreatedAt: ts},
	}, nil).Once()
	st.On("UpdateConversation", mock.Anything, "a", mock.Anything).Return(domain.Conversation{}, errors.New("boom")).Once()
	st.On("UpdateConversation", mock.Anything, "b", mock.Anything).Return(domain.Conversation{}, nil).Once()

	n, err := svc.RepairAll(ctx, []domain.Conversation{{ID: "a"}, {ID: "b"}, {ID: "empty"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	st.AssertExpectations(t)
}
