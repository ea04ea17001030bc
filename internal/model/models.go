// Package model defines the data models for the diamond shop.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PackageType categorises catalog items.
type PackageType string

// Catalog item types.
const (
	PackageDiamonds PackageType = "diamonds"
	PackageVoucher  PackageType = "voucher"
	PackageEvoPass  PackageType = "evo_pass"
)

// Valid reports whether t is a known package type.
func (t PackageType) Valid() bool {
	switch t {
	case PackageDiamonds, PackageVoucher, PackageEvoPass:
		return true
	}
	return false
}

// DiamondPackage is a catalog item. Amount is 0 for vouchers and passes.
type DiamondPackage struct {
	ID        int64           `json:"id" db:"id"`
	Name      string          `json:"name" db:"name"`
	Amount    int             `json:"amount" db:"amount"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Discount  int             `json:"discount" db:"discount"`
	IsPopular bool            `json:"isPopular" db:"is_popular"`
	ImageURL  *string         `json:"imageUrl" db:"image_url"`
	Type      PackageType     `json:"type" db:"type"`
}

// PaymentMethod is a checkout option. A nil SortOrder sorts last.
type PaymentMethod struct {
	ID        int64   `json:"id" db:"id"`
	Name      string  `json:"name" db:"name"`
	Type      string  `json:"type" db:"type"`
	LogoURL   *string `json:"logoUrl" db:"logo_url"`
	IsActive  bool    `json:"isActive" db:"is_active"`
	SortOrder *int    `json:"sortOrder" db:"sort_order"`
}

// User links a buyer's game id to a Telegram chat.
// Several users may share a game id; the lowest id is canonical.
type User struct {
	ID             int64     `json:"id" db:"id"`
	GameID         string    `json:"gameId" db:"game_id"`
	TelegramChatID *string   `json:"telegramChatId" db:"telegram_chat_id"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// ChatSender identifies the author of a support chat message.
type ChatSender string

// Chat message authors.
const (
	SenderUser  ChatSender = "user"
	SenderAdmin ChatSender = "admin"
)

// Valid reports whether s is a known sender.
func (s ChatSender) Valid() bool {
	return s == SenderUser || s == SenderAdmin
}

// ChatMessage is one entry of the support chat log.
type ChatMessage struct {
	ID        int64      `json:"id" db:"id"`
	GameID    string     `json:"gameId" db:"game_id"`
	Text      string     `json:"text" db:"text"`
	Sender    ChatSender `json:"sender" db:"sender"`
	IsRead    bool       `json:"isRead" db:"is_read"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// Conversation summarises the chat log of one game id for the admin panel.
type Conversation struct {
	GameID         string    `json:"gameId"`
	Nickname       *string   `json:"nickname,omitempty"`
	LastMessage    string    `json:"lastMessage"`
	UnreadCount    int       `json:"unreadCount"`
	LastActivityAt time.Time `json:"lastActivityAt"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Review is buyer feedback shown on the storefront once an admin verifies
// it. Rating runs from 1 to 5.
type Review struct {
	ID         int64     `json:"id" db:"id"`
	UserID     *int64    `json:"userId" db:"user_id"`
	UserName   string    `json:"userName" db:"user_name"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	IsVerified bool      `json:"isVerified" db:"is_verified"`
}
