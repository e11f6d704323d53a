// Package session wires the poller, sequencer, read reconciler and send
// coordinator for one viewer and one active conversation at a time.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/application"
	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/poller"
	"github.com/SARVESHVARADKAR123/chatsync/internal/receipt"
	"github.com/SARVESHVARADKAR123/chatsync/internal/sequencer"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
	"go.uber.org/zap"
)

// Identity is the viewing user.
type Identity struct {
	Email string
	Role  string
}

type Config struct {
	Poll           poller.Config
	Location       *time.Location // calendar days for date separators
	ReceiptTimeout time.Duration
}

// View is what the presentation layer renders.
type View struct {
	ConversationID string
	Entries        []sequencer.Entry
	Loading        bool
	Err            error
}

type Session struct {
	viewer     Identity
	loc        *time.Location
	poller     *poller.Poller
	reconciler *receipt.Reconciler
	app        *application.Service
	log        *zap.Logger

	mu             sync.Mutex
	conversationID string
	view           View
	subs           map[int]chan View
	nextID         int

	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once
}

// New starts a session. bus may be nil, in which case sends refresh views only on
// the next poll.
func New(st store.Store, bus *invalidate.Bus, viewer Identity, cfg Config, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	var (
		sub poller.Subscriber
		inv invalidate.Invalidator = invalidate.Nop{}
	)
	if bus != nil {
		sub, inv = bus, bus
	}

	s := &Session{
		viewer:     viewer,
		loc:        cfg.Location,
		poller:     poller.New(st, sub, cfg.Poll, log),
		reconciler: receipt.New(st, inv, cfg.ReceiptTimeout, log),
		app:        application.New(st, inv, log),
		log:        log,
		subs:       make(map[int]chan View),
		done:       make(chan struct{}),
	}

	snaps, unsubscribe := s.poller.Subscribe()
	s.unsubscribe = unsubscribe
	go s.loop(snaps)
	return s
}

// Open makes conversationID the active conversation. An empty id deselects.
func (s *Session) Open(conversationID string) {
	s.mu.Lock()
	s.conversationID = conversationID
	s.mu.Unlock()

	s.poller.Select(conversationID)
}

// ConversationID returns the active conversation.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Viewer returns the viewing identity.
func (s *Session) Viewer() Identity {
	return s.viewer
}

// Refresh asks for an immediate poll.
func (s *Session) Refresh() {
	s.poller.Refresh()
}

// Send submits text to the active conversation as the viewer.
func (s *Session) Send(ctx context.Context, text string) (*domain.Message, error) {
	return s.app.SendMessage(ctx, application.SendMessageCommand{
		ConversationID: s.ConversationID(),
		Sender:         s.viewer.Email,
		SenderRole:     s.viewer.Role,
		Content:        text,
	})
}

// View returns the latest annotated view.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Updates returns a channel receiving each new view, latest-wins.
func (s *Session) Updates() (<-chan View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	ch := make(chan View, 1)
	ch <- s.view
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(ch)
			}
		})
	}
}

// Close stops polling and waits for outstanding read receipts.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.poller.Stop()
		s.unsubscribe()
		<-s.done
		s.reconciler.Wait()

		s.mu.Lock()
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
		s.mu.Unlock()
	})
}

func (s *Session) loop(snaps <-chan poller.Snapshot) {
	defer close(s.done)

	for snap := range snaps {
		view := View{
			ConversationID: snap.ConversationID,
			Entries:        sequencer.Annotate(snap.Messages, s.loc),
			Loading:        snap.Loading,
			Err:            snap.Err,
		}

		s.mu.Lock()
		s.view = view
		for _, ch := range s.subs {
			select {
			case ch <- view:
			default:
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- view:
				default:
				}
			}
		}
		s.mu.Unlock()

		if !snap.Loading {
			s.reconciler.Observe(snap.ConversationID, s.viewer.Email, snap.Messages)
		}
	}
}
