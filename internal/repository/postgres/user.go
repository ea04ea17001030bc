package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

const userColumns = `id, game_id, telegram_chat_id, created_at`

// UserRepository handles game id link persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.GameID, &u.TelegramChatID, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// Link updates the chat id of the canonical user for gameID, inserting a
// user when none exists. Callers serialise concurrent links of one game id.
func (r *UserRepository) Link(ctx context.Context, gameID, chatID string) (*model.User, error) {
	const updateQuery = `
		UPDATE users
		SET telegram_chat_id = $2
		WHERE id = (SELECT id FROM users WHERE game_id = $1 ORDER BY id LIMIT 1)
		RETURNING ` + userColumns
	const insertQuery = `
		INSERT INTO users (game_id, telegram_chat_id, created_at)
		VALUES ($1, $2, NOW())
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, updateQuery, gameID, chatID))
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to update user link: %w", err)
	}

	u, err = scanUser(r.pool.QueryRow(ctx, insertQuery, gameID, chatID))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetByGameID returns the canonical (lowest id) user for gameID.
func (r *UserRepository) GetByGameID(ctx context.Context, gameID string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE game_id = $1 ORDER BY id LIMIT 1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, gameID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByChatID returns the first user linked to chatID.
func (r *UserRepository) GetByChatID(ctx context.Context, chatID string) (*model.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1 ORDER BY id LIMIT 1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}
