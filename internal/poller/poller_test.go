package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/invalidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	calls atomic.Int32
	fn    func(ctx context.Context, call int32) ([]domain.Message, error)
}

func (f *fakeLister) ListMessages(ctx context.Context) ([]domain.Message, error) {
	n := f.calls.Add(1)
	return f.fn(ctx, n)
}

var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func message(id, conv string, minute int, seq int64) domain.Message {
	return domain.Message{
		ID:             id,
		ConversationID: conv,
		Sender:         "u2",
		Content:        id,
		CreatedAt:      base.Add(time.Duration(minute) * time.Minute),
		Seq:            seq,
	}
}

func ids(msgs []domain.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

// waitFor reads snapshots until cond holds.
func waitFor(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-ch:
			if cond(s) {
				return s
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func loaded(conv string) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return s.ConversationID == conv && !s.Loading && !s.FetchedAt.IsZero()
	}
}

func TestPoller_FiltersAndSorts(t *testing.T) {
	lister := &fakeLister{fn: func(context.Context, int32) ([]domain.Message, error) {
		return []domain.Message{
			message("m3", "c1", 5, 3),
			message("x1", "c2", 0, 4),
			message("m1", "c1", 0, 1),
			message("m2b", "c1", 1, 6),
			message("m2a", "c1", 1, 2),
		}, nil
	}}

	p := New(lister, nil, Config{Interval: time.Hour}, nil)
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	p.Select("c1")
	defer p.Stop()

	snap := waitFor(t, ch, loaded("c1"))
	assert.Equal(t, []string{"m1", "m2a", "m2b", "m3"}, ids(snap.Messages))
	assert.NoError(t, snap.Err)
}

func TestPoller_LoadingStateIsEmpty(t *testing.T) {
	release := make(chan struct{})
	lister := &fakeLister{fn: func(context.Context, int32) ([]domain.Message, error) {
		<-release
		return []domain.Message{message("m1", "c1", 0, 1)}, nil
	}}

	p := New(lister, nil, Config{Interval: time.Hour}, nil)
	p.Select("c1")
	defer p.Stop()

	snap := p.Snapshot()
	assert.True(t, snap.Loading)
	assert.Empty(t, snap.Messages)
	close(release)
}

func TestPoller_RepeatedPollsAreIdentical(t *testing.T) {
	data := []domain.Message{
		message("b", "c1", 1, 2),
		message("a", "c1", 1, 1),
		message("c", "c1", 0, 3),
	}
	lister := &fakeLister{fn: func(context.Context, int32) ([]domain.Message, error) {
		out := make([]domain.Message, len(data))
		copy(out, data)
		return out, nil
	}}

	p := New(lister, nil, Config{Interval: 5 * time.Millisecond}, nil)
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()
	p.Select("c1")
	defer p.Stop()

	first := waitFor(t, ch, loaded("c1"))
	later := waitFor(t, ch, func(s Snapshot) bool {
		return loaded("c1")(s) && s.FetchedAt.After(first.FetchedAt)
	})
	assert.Equal(t, first.Messages, later.Messages)
	assert.Equal(t, []string{"c", "a", "b"}, ids(later.Messages))
}

func TestPoller_FailureKeepsPreviousMessages(t *testing.T) {
	boom := errors.New("store unavailable")
	lister := &fakeLister{fn: func(_ context.Context, call int32) ([]domain.Message, error) {
		if call == 1 {
			return []domain.Message{message("m1", "c1", 0, 1)}, nil
		}
		return nil, boom
	}}

	p := New(lister, nil, Config{Interval: 5 * time.Millisecond}, nil)
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()
	p.Select("c1")
	defer p.Stop()

	waitFor(t, ch, loaded("c1"))
	failed := waitFor(t, ch, func(s Snapshot) bool { return s.Err != nil })

	assert.ErrorIs(t, failed.Err, boom)
	assert.Equal(t, []string{"m1"}, ids(failed.Messages))

	// polling continues after the failure
	require.Eventually(t, func() bool { return lister.calls.Load() >= 3 }, time.Second, time.Millisecond)
}

func TestPoller_DiscardsResultOfPreviousSelection(t *testing.T) {
	inFlight := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	lister := &fakeLister{fn: func(ctx context.Context, call int32) ([]domain.Message, error) {
		if call == 1 {
			once.Do(func() { close(inFlight) })
			<-release
			// completes normally even though c1 was deselected
			assert.NoError(t, ctx.Err())
		}
		return []domain.Message{
			message("old", "c1", 0, 1),
			message("new", "c2", 0, 2),
		}, nil
	}}

	p := New(lister, nil, Config{Interval: time.Hour}, nil)
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()

	p.Select("c1")
	<-inFlight
	p.Select("c2")
	defer p.Stop()

	snap := waitFor(t, ch, loaded("c2"))
	assert.Equal(t, []string{"new"}, ids(snap.Messages))

	close(release)
	require.Eventually(t, func() bool { return lister.calls.Load() == 2 }, time.Second, time.Millisecond)

	// give the stale fetch time to land; it must not replace the c2 view
	time.Sleep(20 * time.Millisecond)
	cur := p.Snapshot()
	assert.Equal(t, "c2", cur.ConversationID)
	assert.Equal(t, []string{"new"}, ids(cur.Messages))
}

func TestPoller_DeselectStopsPolling(t *testing.T) {
	lister := &fakeLister{fn: func(context.Context, int32) ([]domain.Message, error) {
		return nil, nil
	}}

	p := New(lister, nil, Config{Interval: 2 * time.Millisecond}, nil)
	p.Select("c1")
	require.Eventually(t, func() bool { return lister.calls.Load() >= 2 }, time.Second, time.Millisecond)

	p.Select("")
	time.Sleep(10 * time.Millisecond)
	stopped := lister.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, lister.calls.Load())
	assert.Equal(t, Snapshot{}, p.Snapshot())
}

func TestPoller_InvalidationTriggersFetch(t *testing.T) {
	lister := &fakeLister{fn: func(context.Context, int32) ([]domain.Message, error) {
		return nil, nil
	}}
	bus := invalidate.NewBus(nil)

	p := New(lister, bus, Config{Interval: time.Hour}, nil)
	p.Select("c1")
	defer p.Stop()
	require.Eventually(t, func() bool { return lister.calls.Load() == 1 }, time.Second, time.Millisecond)

	bus.Invalidate(invalidate.Messages("c2"))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), lister.calls.Load())

	bus.Invalidate(invalidate.Messages("c1"))
	require.Eventually(t, func() bool { return lister.calls.Load() == 2 }, time.Second, time.Millisecond)
}

func TestPoller_FetchTimeout(t *testing.T) {
	lister := &fakeLister{fn: func(ctx context.Context, call int32) ([]domain.Message, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	p := New(lister, nil, Config{Interval: time.Hour, FetchTimeout: 10 * time.Millisecond}, nil)
	ch, unsubscribe := p.Subscribe()
	defer unsubscribe()
	p.Select("c1")
	defer p.Stop()

	snap := waitFor(t, ch, func(s Snapshot) bool { return s.Err != nil })
	assert.ErrorIs(t, snap.Err, context.DeadlineExceeded)
	assert.False(t, snap.Loading)
}

func TestPoller_Backoff(t *testing.T) {
	p := New(nil, nil, Config{Interval: 10 * time.Millisecond, MaxBackoff: 35 * time.Millisecond}, nil)
	err := errors.New("x")

	d := p.nextDelay(p.cfg.Interval, err)
	assert.Equal(t, 20*time.Millisecond, d)
	d = p.nextDelay(d, err)
	assert.Equal(t, 35*time.Millisecond, d)
	d = p.nextDelay(d, nil)
	assert.Equal(t, 10*time.Millisecond, d)
}
