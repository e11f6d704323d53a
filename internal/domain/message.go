package domain

import (
	"sort"
	"time"
)

// Message Invariants:
// 1. Immutability: everything except IsRead is fixed at creation.
// 2. Monotone read state: IsRead moves false -> true once and never reverts.
// 3. Ordering: CreatedAt is the ordering key; Seq breaks ties.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	SenderRole     string    `json:"sender_role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
	IsRead         bool      `json:"is_read"`
	Seq            int64     `json:"seq"` // store insertion order
}

// NewMessage carries the caller-supplied fields of a message to create.
// ID, CreatedAt and Seq are assigned by the store.
type NewMessage struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	Sender         string `json:"sender" validate:"required"`
	SenderRole     string `json:"sender_role" validate:"required"`
	Content        string `json:"content" validate:"required"`
	IsRead         bool   `json:"is_read"`
}

// MessagePatch is a partial update. Only the read flag is mutable.
type MessagePatch struct {
	IsRead *bool `json:"is_read,omitempty"`
}

// Apply returns m with the patch applied. A read message stays read.
func (p MessagePatch) Apply(m Message) Message {
	if p.IsRead != nil && *p.IsRead {
		m.IsRead = true
	}
	return m
}

// MarkRead is the patch issued by read reconciliation.
func MarkRead() MessagePatch {
	read := true
	return MessagePatch{IsRead: &read}
}

// Before reports whether a sorts before b: CreatedAt first, then Seq.
func Before(a, b Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// SortMessages orders msgs ascending by (CreatedAt, Seq) in place.
// The sort is stable, so records equal on both keys keep store order.
func SortMessages(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return Before(msgs[i], msgs[j])
	})
}

// FilterConversation returns the messages belonging to conversationID.
// The input slice is not modified.
func FilterConversation(msgs []Message, conversationID string) []Message {
	out := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out
}

// Latest returns the message that sorts last, if any.
func Latest(msgs []Message) (Message, bool) {
	if len(msgs) == 0 {
		return Message{}, false
	}
	latest := msgs[0]
	for _, m := range msgs[1:] {
		if Before(latest, m) {
			latest = m
		}
	}
	return latest, true
}
