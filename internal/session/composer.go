package session

import (
	"context"
	"sync"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
)

// Composer holds the input draft and guards against overlapping submissions,
// which the send coordinator does not deduplicate.
type Composer struct {
	session *Session

	mu      sync.Mutex
	draft   string
	pending bool
}

func NewComposer(s *Session) *Composer {
	return &Composer{session: s}
}

func (c *Composer) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

func (c *Composer) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Pending reports whether a submission is in flight; the send control should be
// disabled while it is.
func (c *Composer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Submit sends the draft. The draft is cleared on success and kept on failure.
func (c *Composer) Submit(ctx context.Context) (*domain.Message, error) {
	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return nil, domain.ErrSendInFlight
	}
	c.pending = true
	text := c.draft
	c.mu.Unlock()

	msg, err := c.session.Send(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		return nil, err
	}
	c.draft = ""
	return msg, nil
}
