package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/pkg/log"
)

// ConversationsRepo is the durable mirror of the live session store. A
// conversation is written wholesale on every turn, so a row is always a
// consistent snapshot.
type ConversationsRepo struct {
	db *sql.DB
}

func NewConversationsRepo(db *sql.DB) *ConversationsRepo {
	return &ConversationsRepo{db: db}
}

func (r *ConversationsRepo) FindByConversationID(ctx context.Context, id string) (core.Conversation, error) {
	conv := core.Conversation{ConversationID: id}

	query := `SELECT user_id, start_time, last_update, message_count FROM conversations WHERE conversation_id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&conv.UserID, &conv.Meta.StartTime, &conv.Meta.LastUpdate, &conv.Meta.MessageCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Conversation{}, core.ErrConversationNotFound
	}
	if err != nil {
		return core.Conversation{}, fmt.Errorf("failed to query conversation: %w", err)
	}

	messages, err := r.loadMessages(ctx, id)
	if err != nil {
		return core.Conversation{}, err
	}
	conv.Messages = messages

	log.FromCtx(ctx).Debug().
		Str("conversation", id).
		Int("messages", len(messages)).
		Msg("loaded persisted conversation")
	return conv, nil
}

func (r *ConversationsRepo) loadMessages(ctx context.Context, id string) ([]core.Message, error) {
	query := `SELECT message_id, role, content, created_at, metadata
	          FROM conversation_messages WHERE conversation_id = ? ORDER BY seq`

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []core.Message
	for rows.Next() {
		var msg core.Message
		var metadata string
		if err := rows.Scan(&msg.ID, &msg.Role, &msg.Content, &msg.Timestamp, &metadata); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if metadata != "" {
			if err := json.Unmarshal([]byte(metadata), &msg.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal message metadata: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// Upsert replaces the stored snapshot of the conversation. Compression on
// the live side shrinks histories, so messages are rewritten rather than
// appended.
func (r *ConversationsRepo) Upsert(ctx context.Context, conv core.Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO conversations (conversation_id, user_id, start_time, last_update, message_count)
	          VALUES (?, ?, ?, ?, ?)
	          ON CONFLICT(conversation_id) DO UPDATE SET
	              user_id = excluded.user_id,
	              last_update = excluded.last_update,
	              message_count = excluded.message_count`
	_, err = tx.ExecContext(ctx, query,
		conv.ConversationID, conv.UserID, conv.Meta.StartTime, conv.Meta.LastUpdate, conv.Meta.MessageCount,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM conversation_messages WHERE conversation_id = ?`, conv.ConversationID)
	if err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	insert := `INSERT INTO conversation_messages (conversation_id, seq, message_id, role, content, created_at, metadata)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	for seq, msg := range conv.Messages {
		metadata := ""
		if len(msg.Metadata) > 0 {
			raw, err := json.Marshal(msg.Metadata)
			if err != nil {
				return fmt.Errorf("failed to marshal message metadata: %w", err)
			}
			metadata = string(raw)
		}

		_, err = tx.ExecContext(ctx, insert,
			conv.ConversationID, seq, msg.ID, msg.Role, msg.Content, msg.Timestamp, metadata,
		)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	return tx.Commit()
}
