package service

import (
	"context"
	"fmt"
	"strings"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

// NicknameLookup resolves a player's display name. Lookups are best effort.
type NicknameLookup interface {
	Lookup(ctx context.Context, gameID string) (string, bool)
}

// ChatService runs the buyer to support chat.
type ChatService struct {
	chat      repository.ChatRepository
	nicknames NicknameLookup
}

// NewChatService creates a new ChatService instance. nicknames may be nil.
func NewChatService(chat repository.ChatRepository, nicknames NicknameLookup) *ChatService {
	return &ChatService{chat: chat, nicknames: nicknames}
}

// Messages returns the chat log of gameID oldest first.
func (s *ChatService) Messages(ctx context.Context, gameID string) ([]*model.ChatMessage, error) {
	if strings.TrimSpace(gameID) == "" {
		return nil, invalid("gameId is required")
	}
	msgs, err := s.chat.ListByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return msgs, nil
}

// Send appends a message. Admin messages are stored as already read.
func (s *ChatService) Send(ctx context.Context, gameID, text string, sender model.ChatSender) (*model.ChatMessage, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" || strings.TrimSpace(text) == "" {
		return nil, invalid("gameId and text are required")
	}
	if !sender.Valid() {
		return nil, invalid("unknown sender %q", sender)
	}

	msg, err := s.chat.Create(ctx, &model.ChatMessage{
		GameID: gameID,
		Text:   text,
		Sender: sender,
		IsRead: sender == model.SenderAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}
	return msg, nil
}

// MarkRead flags the buyer's messages in gameID's chat as read.
func (s *ChatService) MarkRead(ctx context.Context, gameID string) error {
	if strings.TrimSpace(gameID) == "" {
		return invalid("gameId is required")
	}
	if err := s.chat.MarkRead(ctx, gameID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// Conversations lists every chat, most recent activity first, with the
// player's nickname where one can be found.
func (s *ChatService) Conversations(ctx context.Context) ([]*model.Conversation, error) {
	convs, err := s.chat.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if s.nicknames == nil {
		return convs, nil
	}
	for _, c := range convs {
		if name, ok := s.nicknames.Lookup(ctx, c.GameID); ok {
			c.Nickname = &name
		}
	}
	return convs, nil
}
