package api

import (
	"errors"
	"net/http"

	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
)

type validatePromoRequest struct {
	Code string `json:"code" validate:"required"`
}

// promoResponse adds the discountPercent alias the storefront reads.
type promoResponse struct {
	*model.PromoCode
	DiscountPercent int `json:"discountPercent"`
}

type createPromoRequest struct {
	Code         string `json:"code" validate:"required"`
	Discount     int    `json:"discount" validate:"required,gt=0"`
	PackageID    *int64 `json:"packageId" validate:"omitempty,gt=0"`
	IsPercentage *bool  `json:"isPercentage"`
	UsageLimit   *int   `json:"usageLimit" validate:"omitempty,gt=0"`
	ValidDays    *int   `json:"validDays" validate:"omitempty,gt=0"`
}

// validatePromo redeems a code. Every rejection is a 404 carrying the
// reason so the storefront can show specific copy.
func (s *Server) validatePromo(w http.ResponseWriter, r *http.Request) {
	var req validatePromoRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Promo code is required")
		return
	}

	promo, err := s.deps.Promos.Redeem(r.Context(), req.Code)
	if err != nil {
		var rej *model.RejectionError
		if errors.As(err, &rej) {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: rej.Message(), Reason: string(rej.Reason)})
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promoResponse{PromoCode: promo, DiscountPercent: promo.Discount})
}

func (s *Server) createPromo(w http.ResponseWriter, r *http.Request) {
	var req createPromoRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	promo, err := s.deps.Promos.Create(r.Context(), service.CreatePromoInput{
		Code:         req.Code,
		Discount:     req.Discount,
		IsPercentage: req.IsPercentage,
		UsageLimit:   req.UsageLimit,
		ValidDays:    req.ValidDays,
		PackageID:    req.PackageID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, promo)
}

func (s *Server) listPromos(w http.ResponseWriter, r *http.Request) {
	promos, err := s.deps.Promos.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, promos)
}

func (s *Server) deletePromo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Promos.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
