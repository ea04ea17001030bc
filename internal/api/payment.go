package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
)

type createPaymentRequest struct {
	GameID          string          `json:"gameId" validate:"required"`
	Email           string          `json:"email" validate:"omitempty,email"`
	PackageID       int64           `json:"packageId" validate:"required,gt=0"`
	PaymentMethodID *int64          `json:"paymentMethodId" validate:"omitempty,gt=0"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required_without=PaymentMethodID"`
	PromoCodeID     *int64          `json:"promoCodeId" validate:"omitempty,gt=0"`
	PromoCode       *string         `json:"promoCode"`
	Amount          decimal.Decimal `json:"amount"`
}

// paymentResponse carries the simulator link next to the new payment.
type paymentResponse struct {
	*model.Payment
	PaymentURL string `json:"paymentUrl"`
}

type simulateRequest struct {
	PaymentID int64  `json:"paymentId" validate:"required,gt=0"`
	Action    string `json:"action" validate:"required"`
}

type simulateResponse struct {
	Success bool                `json:"success"`
	Status  model.PaymentStatus `json:"status"`
}

func (s *Server) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.deps.Payments.Create(r.Context(), service.CreatePaymentInput{
		GameID:          req.GameID,
		Email:           model.StringPtr(req.Email),
		PackageID:       req.PackageID,
		PaymentMethodID: req.PaymentMethodID,
		PaymentMethod:   req.PaymentMethod,
		PromoCodeID:     req.PromoCodeID,
		PromoCode:       req.PromoCode,
		Amount:          req.Amount,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Payment: p, PaymentURL: p.SimulatorPath()})
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.deps.Payments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

// simulatePayment settles a payment. The response reports the stored
// status, which for an already settled payment is unchanged. Notification
// outcome never affects it.
func (s *Server) simulatePayment(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing payment ID or action")
		return
	}

	p, err := s.deps.Simulator.Simulate(r.Context(), req.PaymentID, req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, simulateResponse{Success: true, Status: p.Status})
}

func (s *Server) telegramPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.deps.Payments.ListByGameID(r.Context(), mux.Vars(r)["gameId"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}
