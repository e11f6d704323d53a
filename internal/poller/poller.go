// Package poller keeps a conversation-scoped, chronologically sorted view of the
// remote message set fresh.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	DefaultInterval     = 2 * time.Second
	DefaultFetchTimeout = 10 * time.Second
)

// Lister is the part of the store the poller reads.
type Lister interface {
	ListMessages(ctx context.Context) ([]domain.Message, error)
}

// Subscriber delivers on-demand invalidations. *invalidate.Bus implements it.
type Subscriber interface {
	Subscribe(key string, fn func(key string)) func()
}

type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration // zero waits on the store indefinitely
	MaxBackoff   time.Duration // zero or <= Interval disables backoff
}

// Snapshot is the poller's current view. Messages is shared between subscribers
// and must be treated as read-only.
type Snapshot struct {
	ConversationID string
	Messages       []domain.Message
	Loading        bool
	Err            error
	FetchedAt      time.Time
}

// scope is one selection of a conversation. Results of fetches started under a
// scope are applied only while it is still the current one.
type scope struct {
	gen            uint64
	conversationID string
	ctx            context.Context
	cancel         context.CancelFunc
	refresh        chan struct{}
	unsubscribe    func()
}

type Poller struct {
	lister Lister
	bus    Subscriber
	cfg    Config
	log    *zap.Logger

	mu     sync.Mutex
	gen    uint64
	cur    *scope
	snap   Snapshot
	subs   map[int]chan Snapshot
	nextID int
}

// New creates an idle poller. bus may be nil.
func New(lister Lister, bus Subscriber, cfg Config, log *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		lister: lister,
		bus:    bus,
		cfg:    cfg,
		log:    log,
		subs:   make(map[int]chan Snapshot),
	}
}

// Select switches polling to conversationID. An empty id disables polling.
// Fetches still in flight for the previous selection complete but are discarded.
func (p *Poller) Select(conversationID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cur != nil && p.cur.conversationID == conversationID {
		return
	}
	if p.cur == nil && conversationID == "" {
		return
	}

	p.closeScopeLocked()
	p.gen++
	p.snap = Snapshot{ConversationID: conversationID, Loading: conversationID != ""}
	p.publishLocked()

	if conversationID == "" {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &scope{
		gen:            p.gen,
		conversationID: conversationID,
		ctx:            ctx,
		cancel:         cancel,
		refresh:        make(chan struct{}, 1),
	}
	if p.bus != nil {
		s.unsubscribe = p.bus.Subscribe(invalidate.Messages(conversationID), func(string) {
			s.poke()
		})
	}
	p.cur = s

	p.log.Debug("poller: conversation selected",
		zap.String("conversation_id", conversationID),
		zap.Uint64("scope", s.gen),
	)
	go p.run(s)
}

// Stop disables polling.
func (p *Poller) Stop() {
	p.Select("")
}

// Refresh requests an immediate fetch for the current selection.
func (p *Poller) Refresh() {
	p.mu.Lock()
	s := p.cur
	p.mu.Unlock()
	if s != nil {
		s.poke()
	}
}

// Snapshot returns the current view.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Subscribe returns a channel receiving the latest snapshot after each change.
// Slow receivers only see the newest value. The returned function closes the channel.
func (p *Poller) Subscribe() (<-chan Snapshot, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	ch := make(chan Snapshot, 1)
	ch <- p.snap
	p.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subs, id)
			close(ch)
		})
	}
}

func (s *scope) poke() {
	select {
	case s.refresh <- struct{}{}:
	default:
	}
}

func (p *Poller) closeScopeLocked() {
	if p.cur == nil {
		return
	}
	p.cur.cancel()
	if p.cur.unsubscribe != nil {
		p.cur.unsubscribe()
	}
	p.cur = nil
}

func (p *Poller) publishLocked() {
	for _, ch := range p.subs {
		select {
		case ch <- p.snap:
		default:
			// replace the stale value nobody read yet
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- p.snap:
			default:
			}
		}
	}
}

func (p *Poller) run(s *scope) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	delay := p.cfg.Interval
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-timer.C:
		case <-s.refresh:
			timer.Stop()
		}

		err := p.fetch(s)
		delay = p.nextDelay(delay, err)
		timer.Reset(delay)
	}
}

func (p *Poller) nextDelay(prev time.Duration, err error) time.Duration {
	if err == nil || p.cfg.MaxBackoff <= p.cfg.Interval {
		return p.cfg.Interval
	}
	next := prev * 2
	if next > p.cfg.MaxBackoff {
		next = p.cfg.MaxBackoff
	}
	return next
}

// fetch runs one poll cycle. The fetch context is not tied to the scope so an
// in-flight request survives deselection; its result is dropped instead.
func (p *Poller) fetch(s *scope) error {
	ctx := context.Background()
	if p.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.FetchTimeout)
		defer cancel()
	}
	ctx, span := observability.Tracer().Start(ctx, "poller.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("conversation_id", s.conversationID))

	start := time.Now()
	all, err := p.lister.ListMessages(ctx)
	observability.PollDuration.Observe(time.Since(start).Seconds())

	var msgs []domain.Message
	if err == nil {
		msgs = domain.FilterConversation(all, s.conversationID)
		domain.SortMessages(msgs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s.gen != p.gen {
		observability.PollsTotal.WithLabelValues("discarded").Inc()
		p.log.Debug("poller: discarding result of stale scope",
			zap.String("conversation_id", s.conversationID),
			zap.Uint64("scope", s.gen),
		)
		return nil
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.PollsTotal.WithLabelValues("failed").Inc()
		p.log.Warn("poller: fetch failed, keeping previous messages",
			zap.String("conversation_id", s.conversationID),
			zap.Error(err),
		)
		p.snap.Loading = false
		p.snap.Err = err
		p.publishLocked()
		return err
	}

	observability.PollsTotal.WithLabelValues("applied").Inc()
	p.snap = Snapshot{
		ConversationID: s.conversationID,
		Messages:       msgs,
		FetchedAt:      time.Now(),
	}
	p.publishLocked()
	return nil
}
