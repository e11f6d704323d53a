package application

import (
	"context"
	"fmt"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"go.uber.org/zap"
)

// RepairSummary recomputes the conversation summary from its latest message and
// writes it back when the stored fields disagree. It reports whether a write happened.
func (s *Service) RepairSummary(ctx context.Context, conversationID string) (bool, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return false, fmt.Errorf("failed to load conversation: %w", err)
	}

	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list messages: %w", err)
	}

	return s.repair(ctx, conv, msgs)
}

// RepairAll repairs every conversation from a single message listing and returns
// the number of summaries rewritten. Per-conversation failures are logged and skipped.
func (s *Service) RepairAll(ctx context.Context, conversations []domain.Conversation) (int, error) {
	msgs, err := s.store.ListMessages(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list messages: %w", err)
	}

	repaired := 0
	for _, conv := range conversations {
		ok, err := s.repair(ctx, conv, msgs)
		if err != nil {
			s.log.Warn("RepairAll: conversation skipped",
				zap.String("conversation_id", conv.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			repaired++
		}
	}
	return repaired, nil
}

func (s *Service) repair(ctx context.Context, conv domain.Conversation, msgs []domain.Message) (bool, error) {
	patch, needed := domain.DeriveSummary(conv, msgs)
	if !needed {
		return false, nil
	}

	if _, err := s.store.UpdateConversation(ctx, conv.ID, patch); err != nil {
		return false, fmt.Errorf("failed to write repaired summary: %w", err)
	}

	observability.SummaryRepairsTotal.Inc()
	s.log.Info("conversation summary repaired", zap.String("conversation_id", conv.ID))
	s.invalidator.Invalidate(invalidate.KeyConversations)
	return true, nil
}
