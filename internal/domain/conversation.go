package domain

import (
	"time"
	"unicode/utf8"
)

// PreviewLength is the maximum number of characters kept in LastMessagePreview.
const PreviewLength = 50

// ParticipantInfo is the counterparty's display identity, supplied by whatever
// flow created the conversation.
type ParticipantInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Conversation Invariants:
// 1. LastMessageAt/LastMessagePreview are written by the sending client after the
//    message itself; they can lag or disagree with the true latest message.
// 2. DeriveSummary recomputes them from the message set.
type Conversation struct {
	ID                 string          `json:"id"`
	Participant        ParticipantInfo `json:"participant"`
	LastMessageAt      *time.Time      `json:"last_message_at,omitempty"`
	LastMessagePreview string          `json:"last_message_preview"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ConversationPatch is a partial update of the summary fields.
type ConversationPatch struct {
	LastMessageAt      *time.Time `json:"last_message_at,omitempty"`
	LastMessagePreview *string    `json:"last_message_preview,omitempty"`
}

// Apply returns c with the patch applied.
func (p ConversationPatch) Apply(c Conversation) Conversation {
	if p.LastMessageAt != nil {
		t := *p.LastMessageAt
		c.LastMessageAt = &t
	}
	if p.LastMessagePreview != nil {
		c.LastMessagePreview = *p.LastMessagePreview
	}
	return c
}

// Preview truncates content to PreviewLength characters.
func Preview(content string) string {
	if utf8.RuneCountInString(content) <= PreviewLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:PreviewLength])
}

// SummaryPatch builds the summary update for a freshly created message.
func SummaryPatch(m Message) ConversationPatch {
	at := m.CreatedAt
	preview := Preview(m.Content)
	return ConversationPatch{
		LastMessageAt:      &at,
		LastMessagePreview: &preview,
	}
}

// DeriveSummary computes the summary patch conv should carry given the messages
// of that conversation. ok is false when conv already matches, or when there are
// no messages to derive from.
func DeriveSummary(conv Conversation, msgs []Message) (ConversationPatch, bool) {
	latest, found := Latest(FilterConversation(msgs, conv.ID))
	if !found {
		return ConversationPatch{}, false
	}

	patch := SummaryPatch(latest)
	if conv.LastMessageAt != nil &&
		conv.LastMessageAt.Equal(*patch.LastMessageAt) &&
		conv.LastMessagePreview == *patch.LastMessagePreview {
		return ConversationPatch{}, false
	}
	return patch, true
}
