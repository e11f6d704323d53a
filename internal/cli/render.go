package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/session"
)

const (
	dateLayout = "Mon, 02 Jan 2006"
	timeLayout = "15:04"
)

// Render writes view as plain text. Sender headers are printed only at the start
// of a run; date separators precede the first message of each calendar day.
func Render(w io.Writer, view session.View, viewer string, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}

	switch {
	case view.Loading:
		fmt.Fprintln(w, "loading...")
		return
	case view.Err != nil && len(view.Entries) == 0:
		fmt.Fprintf(w, "! %v\n", view.Err)
		return
	}

	for _, e := range view.Entries {
		m := e.Message
		at := m.CreatedAt.In(loc)

		if e.ShowDateSeparator {
			fmt.Fprintf(w, "--- %s ---\n", at.Format(dateLayout))
		}
		if !e.IsConsecutive {
			who := m.Sender
			if m.Sender == viewer {
				who = "you"
			}
			fmt.Fprintf(w, "%s (%s) %s\n", who, m.SenderRole, at.Format(timeLayout))
		}

		mark := ""
		if m.Sender == viewer && m.IsRead {
			mark = " [read]"
		}
		fmt.Fprintf(w, "  %s%s\n", m.Content, mark)
	}

	if view.Err != nil {
		fmt.Fprintf(w, "! stale: %v\n", view.Err)
	}
}
