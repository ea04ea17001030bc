package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/hlog"

	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
)

const maxBodySize = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string            `json:"error"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeError maps service errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		rej *model.RejectionError
		ve  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &ve):
		details := make(map[string]string, len(ve))
		for _, fe := range ve {
			details[fe.Field()] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing or invalid fields", Details: details})
	case errors.As(err, &rej):
		status := http.StatusBadRequest
		if rej.Reason == model.RejectNotFound {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorResponse{Error: rej.Message(), Reason: string(rej.Reason)})
	case errors.Is(err, service.ErrValidation):
		writeMessage(w, http.StatusBadRequest, service.ValidationMessage(err))
	case errors.Is(err, service.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMessage(err))
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("Request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrPackageNotFound):
		return "Diamond package not found"
	case errors.Is(err, service.ErrPaymentNotFound):
		return "Payment not found"
	case errors.Is(err, service.ErrUserNotLinked):
		return "No associated Telegram chat found"
	case errors.Is(err, service.ErrReviewNotFound):
		return "Review not found"
	}
	return "Not found"
}

// decode reads a JSON body into dst and validates it.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", service.ErrValidation)
	}
	return validate.Struct(dst)
}

// pathID parses a numeric route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", service.ErrValidation, name, raw)
	}
	return id, nil
}

// flexString accepts a JSON string or number. Telegram chat ids arrive as
// either depending on the client.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}
