package store

import (
	"context"
	"sync"
	"time"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/google/uuid"
)

// Memory is an in-process ConversationStore. ListMessages returns records in
// insertion order.
type Memory struct {
	mu            sync.RWMutex
	messages      []domain.Message
	byID          map[string]int
	conversations map[string]domain.Conversation
	convOrder     []string
	seq           int64
	now           func() time.Time
}

// NewMemory creates an empty store. now may be nil, in which case time.Now is used.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		byID:          make(map[string]int),
		conversations: make(map[string]domain.Conversation),
		now:           now,
	}
}

func (m *Memory) ListMessages(ctx context.Context) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Message, len(m.messages))
	copy(out, m.messages)
	return out, nil
}

func (m *Memory) CreateMessage(ctx context.Context, in domain.NewMessage) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	if in.ConversationID == "" || in.Sender == "" || in.Content == "" {
		return domain.Message{}, domain.ErrInvalidInput
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: in.ConversationID,
		Sender:         in.Sender,
		SenderRole:     in.SenderRole,
		Content:        in.Content,
		CreatedAt:      m.now().UTC(),
		IsRead:         in.IsRead,
		Seq:            m.seq,
	}
	m.byID[msg.ID] = len(m.messages)
	m.messages = append(m.messages, msg)
	return msg, nil
}

func (m *Memory) UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return domain.Message{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	idx, ok := m.byID[id]
	if !ok {
		return domain.Message{}, domain.ErrMessageNotFound
	}
	m.messages[idx] = patch.Apply(m.messages[idx])
	return m.messages[idx], nil
}

func (m *Memory) CreateConversation(ctx context.Context, participant domain.ParticipantInfo) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	conv := domain.Conversation{
		ID:          uuid.NewString(),
		Participant: participant,
		CreatedAt:   m.now().UTC(),
	}
	m.conversations[conv.ID] = conv
	m.convOrder = append(m.convOrder, conv.ID)
	return conv, nil
}

func (m *Memory) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Conversation, 0, len(m.convOrder))
	for _, id := range m.convOrder {
		out = append(out, m.conversations[id])
	}
	return out, nil
}

func (m *Memory) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	conv, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	return conv, nil
}

func (m *Memory) UpdateConversation(ctx context.Context, id string, patch domain.ConversationPatch) (domain.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	conv, ok := m.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrConversationNotFound
	}
	conv = patch.Apply(conv)
	m.conversations[id] = conv
	return conv, nil
}
