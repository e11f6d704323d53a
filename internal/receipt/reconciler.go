// Package receipt marks inbound messages of the active conversation as read in
// the background.
package receipt

import (
	"context"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"go.uber.org/zap"
)

// Updater is the part of the store the reconciler writes.
type Updater interface {
	UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error)
}

type trigger struct {
	conversationID string
	viewer         string
	size           int
}

// Reconciler converges IsRead to true for messages the viewer has been shown.
// Failures are logged and swallowed; an unread message is picked up again on a
// later trigger.
type Reconciler struct {
	updater     Updater
	invalidator invalidate.Invalidator
	timeout     time.Duration
	log         *zap.Logger

	mu       sync.Mutex
	last     trigger
	hasLast  bool
	inFlight map[string]struct{}

	runMu sync.Mutex // batches are issued one after another
	wg    sync.WaitGroup
}

// New creates a reconciler. timeout bounds each update call; zero means no bound.
func New(updater Updater, invalidator invalidate.Invalidator, timeout time.Duration, log *zap.Logger) *Reconciler {
	if invalidator == nil {
		invalidator = invalidate.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Reconciler{
		updater:     updater,
		invalidator: invalidator,
		timeout:     timeout,
		log:         log,
		inFlight:    make(map[string]struct{}),
	}
}

// Select returns the messages of conversationID that are unread and not authored
// by viewer.
func Select(conversationID, viewer string, msgs []domain.Message) []domain.Message {
	var out []domain.Message
	for _, m := range msgs {
		if m.ConversationID == conversationID && !m.IsRead && m.Sender != viewer {
			out = append(out, m)
		}
	}
	return out
}

// Observe re-evaluates the read state when the conversation, the viewer or the
// number of known messages changed since the previous call. It never blocks on
// the store.
func (r *Reconciler) Observe(conversationID, viewer string, msgs []domain.Message) {
	key := trigger{conversationID: conversationID, viewer: viewer, size: len(msgs)}

	r.mu.Lock()
	if r.hasLast && r.last == key {
		r.mu.Unlock()
		return
	}
	r.last, r.hasLast = key, true

	if conversationID == "" || viewer == "" {
		r.mu.Unlock()
		return
	}

	var ids []string
	for _, m := range Select(conversationID, viewer, msgs) {
		if _, busy := r.inFlight[m.ID]; busy {
			continue
		}
		r.inFlight[m.ID] = struct{}{}
		ids = append(ids, m.ID)
	}
	r.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	// unread badges may drop before the updates are confirmed
	r.invalidator.Invalidate(
		invalidate.KeyUnread,
		invalidate.Unread(conversationID),
		invalidate.Messages(conversationID),
	)

	r.log.Debug("receipt: marking messages read",
		zap.String("conversation_id", conversationID),
		zap.Int("count", len(ids)),
	)

	r.wg.Add(1)
	go r.run(conversationID, ids)
}

// Wait blocks until all issued batches have finished.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}

func (r *Reconciler) run(conversationID string, ids []string) {
	defer r.wg.Done()

	r.runMu.Lock()
	defer r.runMu.Unlock()

	for _, id := range ids {
		r.markRead(conversationID, id)

		r.mu.Lock()
		delete(r.inFlight, id)
		r.mu.Unlock()
	}
}

func (r *Reconciler) markRead(conversationID, id string) {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if _, err := r.updater.UpdateMessage(ctx, id, domain.MarkRead()); err != nil {
		observability.ReadReceiptsTotal.WithLabelValues("failed").Inc()
		r.log.Warn("receipt: mark read failed",
			zap.String("conversation_id", conversationID),
			zap.Error(&domain.ReadReceiptError{MessageID: id, Err: err}),
		)
		return
	}
	observability.ReadReceiptsTotal.WithLabelValues("ok").Inc()
}
