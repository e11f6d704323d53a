// Package sequencer annotates an ordered message list for display.
package sequencer

import (
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
)

// Entry is a message plus its display flags.
type Entry struct {
	Message           domain.Message
	ShowDateSeparator bool
	IsConsecutive     bool
}

// Annotate computes display flags for msgs, which must already be in ascending
// CreatedAt order. Calendar days are evaluated in loc (UTC when nil). The input is
// not modified and the result depends on nothing but the arguments.
func Annotate(msgs []domain.Message, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.UTC
	}

	out := make([]Entry, len(msgs))
	for i, m := range msgs {
		e := Entry{Message: m, ShowDateSeparator: true}
		if i > 0 {
			prev := msgs[i-1]
			e.ShowDateSeparator = !sameDay(prev.CreatedAt, m.CreatedAt, loc)
			// a day boundary always breaks a sender run
			e.IsConsecutive = !e.ShowDateSeparator && prev.Sender == m.Sender
		}
		out[i] = e
	}
	return out
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// Run is a maximal sequence of entries from one sender with no day boundary.
type Run struct {
	Sender  string
	Entries []Entry
}

// Runs splits annotated entries into sender runs.
func Runs(entries []Entry) []Run {
	var runs []Run
	for _, e := range entries {
		if len(runs) == 0 || !e.IsConsecutive {
			runs = append(runs, Run{Sender: e.Message.Sender})
		}
		last := &runs[len(runs)-1]
		last.Entries = append(last.Entries, e)
	}
	return runs
}
