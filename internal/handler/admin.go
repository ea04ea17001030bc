package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/service"
	"diamond-shop/internal/shop"
)

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	payments  *service.PaymentService
	simulator *service.Simulator
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(payments *service.PaymentService, simulator *service.Simulator) *AdminHandler {
	return &AdminHandler{payments: payments, simulator: simulator}
}

// HandlePayment handles /payment <id>.
func (h *AdminHandler) HandlePayment(c tele.Context) error {
	args := c.Args()
	if len(args) < 1 {
		return c.Reply("❌ Usage: /payment <id>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return c.Reply("❌ Invalid payment ID")
	}

	p, err := h.payments.Get(context.Background(), id)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.Reply("❌ Payment not found")
		}
		log.Error().Err(err).Int64("payment_id", id).Msg("Get payment failed")
		return c.Reply("❌ Operation failed, please try again later")
	}
	return c.Reply(shop.FormatPayment(p))
}

// HandleSettle handles /settle <id> <complete|fail|cancel>. Settled
// payments are left unchanged.
func (h *AdminHandler) HandleSettle(c tele.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Reply("❌ Usage: /settle <id> <complete|fail|cancel>")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return c.Reply("❌ Invalid payment ID")
	}

	p, err := h.simulator.Simulate(context.Background(), id, args[1])
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.Reply("❌ " + service.ValidationMessage(err))
	case errors.Is(err, service.ErrPaymentNotFound):
		return c.Reply("❌ Payment not found")
	case err != nil:
		log.Error().Err(err).Int64("payment_id", id).Msg("Settle payment failed")
		return c.Reply("❌ Operation failed, please try again later")
	}

	if sender := c.Sender(); sender != nil {
		log.Info().Int64("admin_id", sender.ID).Int64("payment_id", id).Str("status", string(p.Status)).Msg("Admin settled payment")
	}
	return c.Reply(fmt.Sprintf("✅ Payment #%d is %s", p.ID, shop.StatusLabel(p.Status)))
}
