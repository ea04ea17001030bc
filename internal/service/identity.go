package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"diamond-shop/internal/model"
	"diamond-shop/internal/pkg/lock"
	"diamond-shop/internal/repository"
)

// IdentityService links buyers' game ids to Telegram chats.
type IdentityService struct {
	users repository.UserRepository
	locks *lock.KeyLock[string]
}

// NewIdentityService creates a new IdentityService instance.
func NewIdentityService(users repository.UserRepository, locks *lock.KeyLock[string]) *IdentityService {
	if locks == nil {
		locks = lock.New[string]()
	}
	return &IdentityService{users: users, locks: locks}
}

// Link points gameID at chatID. Linking the same pair again is a no-op and
// a new chat id replaces the old one. Links for one game id are serialised
// so concurrent calls never create duplicate users.
func (s *IdentityService) Link(ctx context.Context, gameID, chatID string) (*model.User, error) {
	gameID = strings.TrimSpace(gameID)
	chatID = strings.TrimSpace(chatID)
	if gameID == "" || chatID == "" {
		return nil, invalid("gameId and chatId are required")
	}

	var user *model.User
	err := s.locks.WithLockContext(ctx, gameID, func() error {
		var err error
		user, err = s.users.Link(ctx, gameID, chatID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to link telegram chat: %w", err)
	}

	log.Info().Str("game_id", gameID).Str("chat_id", chatID).Msg("Telegram chat linked")
	return user, nil
}

// Resolve returns the chat id linked to gameID.
func (s *IdentityService) Resolve(ctx context.Context, gameID string) (string, error) {
	u, err := s.users.GetByGameID(ctx, gameID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotLinked
		}
		return "", fmt.Errorf("failed to resolve game id: %w", err)
	}
	if u.TelegramChatID == nil || *u.TelegramChatID == "" {
		return "", ErrUserNotLinked
	}
	return *u.TelegramChatID, nil
}

// ResolveByChatID returns the game id linked to a Telegram chat.
func (s *IdentityService) ResolveByChatID(ctx context.Context, chatID string) (string, error) {
	u, err := s.users.GetByChatID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrUserNotLinked
		}
		return "", fmt.Errorf("failed to resolve chat id: %w", err)
	}
	return u.GameID, nil
}
