package api

import (
	"net/http"
	"strconv"

	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
)

type createReviewRequest struct {
	UserID   *int64 `json:"userId" validate:"omitempty,gt=0"`
	UserName string `json:"userName" validate:"required,max=100"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comment  string `json:"comment" validate:"required"`
}

// listReviews serves the storefront's verified reviews. all=true includes
// reviews still awaiting verification, for the admin panel.
func (s *Server) listReviews(w http.ResponseWriter, r *http.Request) {
	var (
		reviews []*model.Review
		err     error
	)
	if all, _ := strconv.ParseBool(r.URL.Query().Get("all")); all {
		reviews, err = s.deps.Reviews.All(r.Context())
	} else {
		reviews, err = s.deps.Reviews.Published(r.Context(), 0)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (s *Server) createReview(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	review, err := s.deps.Reviews.Create(r.Context(), service.CreateReviewInput{
		UserID:   req.UserID,
		UserName: req.UserName,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) verifyReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	review, err := s.deps.Reviews.Verify(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) deleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.deps.Reviews.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
