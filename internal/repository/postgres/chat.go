package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"diamond-shop/internal/model"
)

// ChatRepository handles support chat persistence.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new ChatRepository instance.
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// ListByGameID returns the chat log of gameID oldest first.
func (r *ChatRepository) ListByGameID(ctx context.Context, gameID string) ([]*model.ChatMessage, error) {
	const query = `
		SELECT id, game_id, text, sender, is_read, created_at
		FROM chat_messages
		WHERE game_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []*model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.GameID, &m.Text, &m.Sender, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// Create appends a message to the log. A zero CreatedAt is stamped by the database.
func (r *ChatRepository) Create(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	const query = `
		INSERT INTO chat_messages (game_id, text, sender, is_read, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))
		RETURNING id, game_id, text, sender, is_read, created_at
	`

	var createdAt *time.Time
	if !msg.CreatedAt.IsZero() {
		createdAt = &msg.CreatedAt
	}

	var m model.ChatMessage
	err := r.pool.QueryRow(ctx, query, msg.GameID, msg.Text, string(msg.Sender), msg.IsRead, createdAt).Scan(
		&m.ID, &m.GameID, &m.Text, &m.Sender, &m.IsRead, &m.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}
	return &m, nil
}

// MarkRead flags every user-sent message of gameID as read.
func (r *ChatRepository) MarkRead(ctx context.Context, gameID string) error {
	const query = `
		UPDATE chat_messages
		SET is_read = TRUE
		WHERE game_id = $1 AND sender = 'user' AND NOT is_read
	`

	if _, err := r.pool.Exec(ctx, query, gameID); err != nil {
		return fmt.Errorf("failed to mark chat messages read: %w", err)
	}
	return nil
}

// Conversations summarises every chat log, most recent activity first.
func (r *ChatRepository) Conversations(ctx context.Context) ([]*model.Conversation, error) {
	const query = `
		SELECT game_id, text, created_at, unread
		FROM (
			SELECT DISTINCT ON (game_id)
				game_id,
				text,
				created_at,
				COUNT(*) FILTER (WHERE sender = 'user' AND NOT is_read) OVER (PARTITION BY game_id) AS unread
			FROM chat_messages
			ORDER BY game_id, created_at DESC, id DESC
		) latest
		ORDER BY created_at DESC, game_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		var c model.Conversation
		if err := rows.Scan(&c.GameID, &c.LastMessage, &c.LastActivityAt, &c.UnreadCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, &c)
	}
	return convs, rows.Err()
}
