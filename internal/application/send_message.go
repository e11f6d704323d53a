package application

import (
	"context"
	"strings"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

type SendMessageCommand struct {
	ConversationID string
	Sender         string
	SenderRole     string
	Content        string
}

// Validate checks the send preconditions in order and names the first missing field.
func (c SendMessageCommand) Validate() error {
	switch {
	case strings.TrimSpace(c.Content) == "":
		return &domain.ValidationError{Field: "content"}
	case c.ConversationID == "":
		return &domain.ValidationError{Field: "conversationId"}
	case c.Sender == "":
		return &domain.ValidationError{Field: "sender"}
	case c.SenderRole == "":
		return &domain.ValidationError{Field: "senderRole"}
	}
	return nil
}

// SendMessage persists a new message and then writes the conversation summary.
// The two writes are independent: a failed summary write is logged and the
// persisted message is returned without error. Concurrent calls for the same
// conversation are not deduplicated.
func (s *Service) SendMessage(
	ctx context.Context,
	cmd SendMessageCommand,
) (*domain.Message, error) {

	if err := cmd.Validate(); err != nil {
		observability.MessagesSentTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "application.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("conversation_id", cmd.ConversationID))

	log := s.log.With(
		zap.String("conversation_id", cmd.ConversationID),
		zap.String("sender", cmd.Sender),
	)

	msg, err := s.store.CreateMessage(ctx, domain.NewMessage{
		ConversationID: cmd.ConversationID,
		Sender:         cmd.Sender,
		SenderRole:     cmd.SenderRole,
		Content:        strings.TrimSpace(cmd.Content),
		IsRead:         false,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create message failed")
		observability.MessagesSentTotal.WithLabelValues("send_error").Inc()
		log.Error("SendMessage: create failed", zap.Error(err))
		return nil, &domain.SendError{ConversationID: cmd.ConversationID, Err: err}
	}

	log.Info("SendMessage: message created", zap.String("message_id", msg.ID))

	if _, err := s.store.UpdateConversation(ctx, cmd.ConversationID, domain.SummaryPatch(msg)); err != nil {
		summaryErr := &domain.SummaryUpdateError{ConversationID: cmd.ConversationID, Err: err}
		span.RecordError(summaryErr)
		observability.SummaryUpdateFailuresTotal.Inc()
		log.Warn("SendMessage: summary left stale", zap.Error(summaryErr))
	}

	s.invalidator.Invalidate(
		invalidate.Messages(cmd.ConversationID),
		invalidate.KeyConversations,
		invalidate.KeyAllMessages,
	)

	observability.MessagesSentTotal.WithLabelValues("ok").Inc()
	return &msg, nil
}
