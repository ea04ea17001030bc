// Package repository defines the storage contracts of the shop. Concrete
// backends live in the memory and postgres subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"diamond-shop/internal/model"
)

// Common errors for repository operations.
var (
	ErrNotFound = errors.New("record not found")
)

// PackageRepository stores catalog items.
type PackageRepository interface {
	// List returns packages ordered by id. A nil type returns every package.
	List(ctx context.Context, pkgType *model.PackageType) ([]*model.DiamondPackage, error)
	Get(ctx context.Context, id int64) (*model.DiamondPackage, error)
	Create(ctx context.Context, pkg *model.DiamondPackage) (*model.DiamondPackage, error)
}

// PromoCodeRepository stores promo codes. Codes are unique ignoring case.
type PromoCodeRepository interface {
	List(ctx context.Context) ([]*model.PromoCode, error)
	Get(ctx context.Context, id int64) (*model.PromoCode, error)
	GetByCode(ctx context.Context, code string) (*model.PromoCode, error)
	// Create fails with model.ErrPromoDuplicate on a case-insensitive clash.
	Create(ctx context.Context, promo *model.PromoCode) (*model.PromoCode, error)
	// Redeem looks the code up, runs model.PromoCode.CheckRedeemable and
	// increments UsageCount as one atomic unit with respect to other
	// Redeem calls on the same code. Unknown codes yield model.ErrPromoNotFound.
	Redeem(ctx context.Context, code string, now time.Time) (*model.PromoCode, error)
	// Claim spends one redemption of the code for a payment: it runs
	// model.PromoCode.CheckClaimable and increments ClaimCount atomically.
	// Unknown ids yield model.ErrPromoNotFound.
	Claim(ctx context.Context, id int64, now time.Time) (*model.PromoCode, error)
	Delete(ctx context.Context, id int64) error
}

// PaymentRepository stores payment records. Records are never deleted.
type PaymentRepository interface {
	Create(ctx context.Context, p *model.NewPayment) (*model.Payment, error)
	Get(ctx context.Context, id int64) (*model.Payment, error)
	// List returns every payment, newest first.
	List(ctx context.Context) ([]*model.Payment, error)
	// ListByGameID returns the buyer's payments oldest first.
	ListByGameID(ctx context.Context, gameID string) ([]*model.Payment, error)
	// Transition moves a pending payment to status. A payment that is
	// already terminal is returned unchanged with changed=false. Concurrent
	// calls on one id yield exactly one changed=true.
	Transition(ctx context.Context, id int64, status model.PaymentStatus) (p *model.Payment, changed bool, err error)
}

// PaymentMethodRepository stores checkout options.
type PaymentMethodRepository interface {
	// ListActive returns active methods by sort order, unset order last.
	ListActive(ctx context.Context) ([]*model.PaymentMethod, error)
	Get(ctx context.Context, id int64) (*model.PaymentMethod, error)
	Create(ctx context.Context, m *model.PaymentMethod) (*model.PaymentMethod, error)
}

// UserRepository stores game id to Telegram chat links.
type UserRepository interface {
	// Link sets the chat id on the canonical user for gameID, creating the
	// user when none exists.
	Link(ctx context.Context, gameID, chatID string) (*model.User, error)
	GetByGameID(ctx context.Context, gameID string) (*model.User, error)
	GetByChatID(ctx context.Context, chatID string) (*model.User, error)
}

// ChatRepository stores the support chat log.
type ChatRepository interface {
	// ListByGameID returns messages oldest first.
	ListByGameID(ctx context.Context, gameID string) ([]*model.ChatMessage, error)
	Create(ctx context.Context, msg *model.ChatMessage) (*model.ChatMessage, error)
	// MarkRead flags every user-sent message of gameID as read.
	MarkRead(ctx context.Context, gameID string) error
	// Conversations summarises each game id's log, most recent activity first.
	Conversations(ctx context.Context) ([]*model.Conversation, error)
}

// ReviewRepository stores buyer reviews.
type ReviewRepository interface {
	// List returns reviews newest first, only verified ones when
	// verifiedOnly is set.
	List(ctx context.Context, verifiedOnly bool) ([]*model.Review, error)
	Create(ctx context.Context, r *model.Review) (*model.Review, error)
	// Verify marks a review verified. Verifying twice is not an error.
	Verify(ctx context.Context, id int64) (*model.Review, error)
	Delete(ctx context.Context, id int64) error
}

// Store groups the repositories of one backend.
type Store struct {
	Packages       PackageRepository
	PromoCodes     PromoCodeRepository
	Payments       PaymentRepository
	PaymentMethods PaymentMethodRepository
	Users          UserRepository
	Chat           ChatRepository
	Reviews        ReviewRepository
}
