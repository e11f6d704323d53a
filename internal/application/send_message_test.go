package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validCmd() SendMessageCommand {
	return SendMessageCommand{
		ConversationID: "conv-1",
		Sender:         "u1@example.com",
		SenderRole:     "coach",
		Content:        "  see you thursday  ",
	}
}

func TestSendMessage_Preconditions(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*SendMessageCommand)
		wantField string
	}{
		{name: "empty content", mutate: func(c *SendMessageCommand) { c.Content = "" }, wantField: "content"},
		{name: "whitespace content", mutate: func(c *SendMessageCommand) { c.Content = "  \t\n " }, wantField: "content"},
		{name: "missing conversation", mutate: func(c *SendMessageCommand) { c.ConversationID = "" }, wantField: "conversationId"},
		{name: "missing sender", mutate: func(c *SendMessageCommand) { c.Sender = "" }, wantField: "sender"},
		{name: "missing role", mutate: func(c *SendMessageCommand) { c.SenderRole = "" }, wantField: "senderRole"},
		{name: "content checked first", mutate: func(c *SendMessageCommand) { c.Content = " "; c.Sender = "" }, wantField: "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(storetest.MockStore)
			bus := invalidate.NewBus(nil)
			svc := New(st, bus, nil)

			cmd := validCmd()
			tt.mutate(&cmd)

			msg, err := svc.SendMessage(context.Background(), cmd)
			assert.Nil(t, msg)

			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)

			st.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
			st.AssertNotCalled(t, "UpdateConversation", mock.Anything, mock.Anything, mock.Anything)
			assert.Equal(t, uint64(0), bus.Version(invalidate.Messages("conv-1")))
		})
	}
}

func TestSendMessage_Success(t *testing.T) {
	ctx := context.Background()
	st := new(storetest.MockStore)
	bus := invalidate.NewBus(nil)
	svc := New(st, bus, nil)

	createdAt := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	created := domain.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		Sender:         "u1@example.com",
		SenderRole:     "coach",
		Content:        "see you thursday",
		CreatedAt:      createdAt,
		Seq:            1,
	}

	st.On("CreateMessage", mock.Anything, domain.NewMessage{
		ConversationID: "conv-1",
		Sender:         "u1@example.com",
		SenderRole:     "coach",
		Content:        "see you thursday",
		IsRead:         false,
	}).Return(created, nil).Once()

	st.On("UpdateConversation", mock.Anything, "conv-1", mock.MatchedBy(func(p domain.ConversationPatch) bool {
		return p.LastMessageAt != nil && p.LastMessageAt.Equal(createdAt) &&
			p.LastMessagePreview != nil && *p.LastMessagePreview == "see you thursday"
	})).Return(domain.Conversation{ID: "conv-1"}, nil).Once()

	msg, err := svc.SendMessage(ctx, validCmd())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)
	st.AssertExpectations(t)

	assert.Equal(t, uint64(1), bus.Version(invalidate.Messages("conv-1")))
	assert.Equal(t, uint64(1), bus.Version(invalidate.KeyConversations))
	assert.Equal(t, uint64(1), bus.Version(invalidate.KeyAllMessages))
}

func TestSendMessage_PreviewIsTruncated(t *testing.T) {
	st := new(storetest.MockStore)
	svc := New(st, nil, nil)

	long := strings.Repeat("a", 120)
	st.On("CreateMessage", mock.Anything, mock.Anything).
		Return(domain.Message{ID: "m", ConversationID: "conv-1", Content: long}, nil).Once()
	st.On("UpdateConversation", mock.Anything, "conv-1", mock.MatchedBy(func(p domain.ConversationPatch) bool {
		return len(*p.LastMessagePreview) == domain.PreviewLength
	})).Return(domain.Conversation{}, nil).Once()

	cmd := validCmd()
	cmd.Content = long
	_, err := svc.SendMessage(context.Background(), cmd)
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestSendMessage_CreateFailure(t *testing.T) {
	st := new(storetest.MockStore)
	bus := invalidate.NewBus(nil)
	svc := New(st, bus, nil)

	cause := errors.New("store down")
	st.On("CreateMessage", mock.Anything, mock.Anything).Return(domain.Message{}, cause).Once()

	msg, err := svc.SendMessage(context.Background(), validCmd())
	assert.Nil(t, msg)

	var sendErr *domain.SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, "conv-1", sendErr.ConversationID)
	assert.ErrorIs(t, err, cause)

	st.AssertNotCalled(t, "UpdateConversation", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, uint64(0), bus.Version(invalidate.KeyConversations))
}

func TestSendMessage_SummaryFailureIsTolerated(t *testing.T) {
	st := new(storetest.MockStore)
	bus := invalidate.NewBus(nil)
	svc := New(st, bus, nil)

	created := domain.Message{ID: "msg-1", ConversationID: "conv-1", Content: "hi"}
	st.On("CreateMessage", mock.Anything, mock.Anything).Return(created, nil).Once()
	st.On("UpdateConversation", mock.Anything, "conv-1", mock.Anything).
		Return(domain.Conversation{}, errors.New("write conflict")).Once()

	msg, err := svc.SendMessage(context.Background(), validCmd())
	require.NoError(t, err)
	assert.Equal(t, "msg-1", msg.ID)

	// not retried
	st.AssertNumberOfCalls(t, "UpdateConversation", 1)
	assert.Equal(t, uint64(1), bus.Version(invalidate.Messages("conv-1")))
}
