package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversationCache is a read-through cache for conversation records.
// *cache.Cache implements it.
type ConversationCache interface {
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)
	SetConversation(ctx context.Context, conv domain.Conversation) error
	DeleteConversation(ctx context.Context, id string) error
}

type Repository struct {
	DB    *sql.DB
	Cache ConversationCache // optional
	Log   *zap.Logger
}

type queryable interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const messageColumns = `id, conversation_id, sender, sender_role, content, is_read, created_at, seq`

const conversationColumns = `id, participant_name, participant_email, participant_role,
	last_message_at, last_message_preview, created_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scanner) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Sender,
		&msg.SenderRole,
		&msg.Content,
		&msg.IsRead,
		&msg.CreatedAt,
		&msg.Seq,
	)
	return msg, err
}

func scanConversation(row scanner) (domain.Conversation, error) {
	var conv domain.Conversation
	var lastAt sql.NullTime
	err := row.Scan(
		&conv.ID,
		&conv.Participant.Name,
		&conv.Participant.Email,
		&conv.Participant.Role,
		&lastAt,
		&conv.LastMessagePreview,
		&conv.CreatedAt,
	)
	if lastAt.Valid {
		t := lastAt.Time
		conv.LastMessageAt = &t
	}
	return conv, err
}

// ListMessages returns every message in insertion order.
func (r *Repository) ListMessages(ctx context.Context) ([]domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (r *Repository) CreateMessage(ctx context.Context, in domain.NewMessage) (domain.Message, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO messages (id, conversation_id, sender, sender_role, content, is_read)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text, $6::boolean
		WHERE EXISTS (SELECT 1 FROM conversations WHERE id = $2::text)
		RETURNING `+messageColumns,
		uuid.NewString(),
		in.ConversationID,
		in.Sender,
		in.SenderRole,
		in.Content,
		in.IsRead,
	)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, domain.ErrConversationNotFound
		}
		return domain.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}
	return msg, nil
}

// UpdateMessage applies patch. is_read is only ever raised, never cleared.
func (r *Repository) UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error) {
	markRead := patch.IsRead != nil && *patch.IsRead

	row := r.DB.QueryRowContext(ctx, `
		UPDATE messages
		SET is_read = is_read OR $2::boolean
		WHERE id = $1
		RETURNING `+messageColumns,
		id, markRead,
	)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, domain.ErrMessageNotFound
		}
		return domain.Message{}, fmt.Errorf("failed to update message: %w", err)
	}
	return msg, nil
}

func (r *Repository) CreateConversation(ctx context.Context, p domain.ParticipantInfo) (domain.Conversation, error) {
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO conversations (id, participant_name, participant_email, participant_role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+conversationColumns,
		uuid.NewString(), p.Name, p.Email, p.Role,
	)

	conv, err := scanConversation(row)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("failed to insert conversation: %w", err)
	}
	return conv, nil
}

func (r *Repository) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		ORDER BY last_message_at DESC NULLS LAST, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := []domain.Conversation{}
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *Repository) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	// 1. Try Cache
	if r.Cache != nil {
		conv, err := r.Cache.GetConversation(ctx, id)
		if err == nil && conv != nil {
			return *conv, nil
		}
		if err != nil {
			r.logger().Warn("conversation cache read failed", zap.String("conversation_id", id), zap.Error(err))
		}
	}

	// 2. Fallback to DB
	conv, err := r.fetchConversation(ctx, r.DB, id)
	if err != nil {
		return domain.Conversation{}, err
	}

	// 3. Populate Cache
	if r.Cache != nil {
		_ = r.Cache.SetConversation(ctx, conv)
	}

	return conv, nil
}

func (r *Repository) UpdateConversation(ctx context.Context, id string, patch domain.ConversationPatch) (domain.Conversation, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE conversations
		SET last_message_at = COALESCE($2, last_message_at),
		    last_message_preview = COALESCE($3, last_message_preview)
		WHERE id = $1
		RETURNING `+conversationColumns,
		id, nullTime(patch), nullString(patch.LastMessagePreview),
	)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, domain.ErrConversationNotFound
		}
		return domain.Conversation{}, fmt.Errorf("failed to update conversation: %w", err)
	}

	if r.Cache != nil {
		if err := r.Cache.DeleteConversation(ctx, id); err != nil {
			r.logger().Warn("conversation cache invalidation failed", zap.String("conversation_id", id), zap.Error(err))
		}
	}
	return conv, nil
}

func (r *Repository) fetchConversation(ctx context.Context, q queryable, id string) (domain.Conversation, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE id = $1
	`, id)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Conversation{}, domain.ErrConversationNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *Repository) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func nullTime(p domain.ConversationPatch) sql.NullTime {
	if p.LastMessageAt == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *p.LastMessageAt, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
