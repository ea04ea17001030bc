package service

import (
	"context"
	"strings"

	"diamond-shop/internal/model"
)

// Simulator actions.
const (
	ActionComplete = "complete"
	ActionFail     = "fail"
	ActionCancel   = "cancel"
)

// Simulator stands in for a payment gateway callback by mapping an action
// to a terminal status.
type Simulator struct {
	payments *PaymentService
}

// NewSimulator creates a new Simulator instance.
func NewSimulator(payments *PaymentService) *Simulator {
	return &Simulator{payments: payments}
}

// StatusForAction maps a simulator action to its terminal status.
func StatusForAction(action string) (model.PaymentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case ActionComplete:
		return model.StatusCompleted, true
	case ActionFail:
		return model.StatusFailed, true
	case ActionCancel:
		return model.StatusCancelled, true
	}
	return "", false
}

// Simulate applies action to the payment and returns the payment as stored
// afterwards, which for an already settled payment is its original status.
func (s *Simulator) Simulate(ctx context.Context, paymentID int64, action string) (*model.Payment, error) {
	status, ok := StatusForAction(action)
	if !ok {
		return nil, invalid("unknown action %q", action)
	}
	return s.payments.Transition(ctx, paymentID, status)
}
