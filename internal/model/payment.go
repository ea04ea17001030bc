package model

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is a state of the payment lifecycle.
type PaymentStatus string

// Payment statuses. Everything except pending is terminal.
const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Payment is an order record. Amount is the final price and never changes
// after creation.
type Payment struct {
	ID            int64           `json:"id" db:"id"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	GameID        string          `json:"gameId" db:"game_id"`
	Email         *string         `json:"email" db:"email"`
	PackageID     *int64          `json:"packageId" db:"package_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod string          `json:"paymentMethod" db:"payment_method"`
	Status        PaymentStatus   `json:"status" db:"status"`
	TransactionID string          `json:"transactionId" db:"transaction_id"`
	PromoCode     *string         `json:"promoCode" db:"promo_code"`
}

// NewPayment is the input for creating a payment record.
type NewPayment struct {
	GameID        string
	Email         *string
	PackageID     *int64
	Amount        decimal.Decimal
	PaymentMethod string
	PromoCode     *string
}

// NewTransactionID returns a fresh transaction identifier.
func NewTransactionID() string {
	return "trx-" + uuid.NewString()
}

// SimulatorPath returns the site path of the payment page for p.
func (p *Payment) SimulatorPath() string {
	return fmt.Sprintf("/simulate-payment?payment_id=%d&amount=%s&game_id=%s",
		p.ID, url.QueryEscape(p.Amount.String()), url.QueryEscape(p.GameID))
}

// StatusPath returns the site path of the public status page for p.
func (p *Payment) StatusPath() string {
	return fmt.Sprintf("/payment-status/%d", p.ID)
}
