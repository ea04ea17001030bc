// Package api exposes the storefront over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/config"
	"diamond-shop/internal/metrics"
	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PaymentNotifier sends payment notifications synchronously.
type PaymentNotifier interface {
	NotifyChat(ctx context.Context, chatID int64, p *model.Payment) error
}

// Deps are the collaborators served by the router. Nicknames, Notifier,
// Health, Metrics and Bot may be nil.
type Deps struct {
	Catalog   *service.CatalogService
	Promos    *service.PromoService
	Payments  *service.PaymentService
	Simulator *service.Simulator
	Identity  *service.IdentityService
	Chat      *service.ChatService
	Reviews   *service.ReviewService
	Nicknames service.NicknameLookup
	Notifier  PaymentNotifier
	Health    HealthChecker
	Metrics   *metrics.Metrics
	// Bot is the bot's own account, nil when Telegram is disabled.
	Bot     *tele.User
	Server  config.ServerConfig
	Started time.Time
}

// Server holds the HTTP handlers.
type Server struct {
	deps Deps
}

// NewHandler builds the routed handler wrapped in logging, recovery and
// CORS middleware.
func NewHandler(deps Deps) http.Handler {
	if deps.Started.IsZero() {
		deps.Started = time.Now()
	}
	s := &Server{deps: deps}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/diamond-packages", s.listPackages).Methods(http.MethodGet)
	api.HandleFunc("/diamond-packages/{id:[0-9]+}", s.getPackage).Methods(http.MethodGet)
	api.HandleFunc("/payment-methods", s.listPaymentMethods).Methods(http.MethodGet)

	api.HandleFunc("/promo-codes/validate", s.validatePromo).Methods(http.MethodPost)
	api.HandleFunc("/promo-codes", s.createPromo).Methods(http.MethodPost)
	api.HandleFunc("/promo-codes", s.listPromos).Methods(http.MethodGet)
	api.HandleFunc("/promo-codes/{id:[0-9]+}", s.deletePromo).Methods(http.MethodDelete)

	api.HandleFunc("/payments", s.createPayment).Methods(http.MethodPost)
	api.HandleFunc("/payments", s.listPayments).Methods(http.MethodGet)
	api.HandleFunc("/payments/{id:[0-9]+}", s.getPayment).Methods(http.MethodGet)
	api.HandleFunc("/simulate-payment", s.simulatePayment).Methods(http.MethodPost)

	api.HandleFunc("/reviews", s.listReviews).Methods(http.MethodGet)
	api.HandleFunc("/reviews", s.createReview).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{id:[0-9]+}/verify", s.verifyReview).Methods(http.MethodPost)
	api.HandleFunc("/reviews/{id:[0-9]+}", s.deleteReview).Methods(http.MethodDelete)

	api.HandleFunc("/user/nickname/{gameId}", s.nickname).Methods(http.MethodGet)

	api.HandleFunc("/telegram/link", s.linkTelegram).Methods(http.MethodPost)
	api.HandleFunc("/telegram/payments/{gameId}", s.telegramPayments).Methods(http.MethodGet)
	api.HandleFunc("/telegram/send-test", s.sendTestNotification).Methods(http.MethodPost)
	api.HandleFunc("/telegram/status", s.telegramStatus).Methods(http.MethodGet)

	api.HandleFunc("/chat/messages", s.chatMessages).Methods(http.MethodGet)
	api.HandleFunc("/chat/messages", s.sendChatMessage).Methods(http.MethodPost)
	api.HandleFunc("/chat/messages/admin", s.sendAdminMessage).Methods(http.MethodPost)
	api.HandleFunc("/chat/messages/read", s.markChatRead).Methods(http.MethodPost)
	api.HandleFunc("/chat/users", s.chatUsers).Methods(http.MethodGet)

	var h http.Handler = r
	h = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)(h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)(h)
	h = hlog.AccessHandler(accessLog)(h)
	h = hlog.RequestIDHandler("req_id", "X-Request-Id")(h)
	h = hlog.RemoteAddrHandler("ip")(h)
	h = hlog.NewHandler(log.Logger)(h)
	return h
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = hlog.FromRequest(r).Error()
	case status >= 400:
		ev = hlog.FromRequest(r).Warn()
	default:
		ev = hlog.FromRequest(r).Debug()
	}
	ev.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("HTTP request")
}

// recoveryLogger routes panics caught by handlers.RecoveryHandler to zerolog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	log.Error().Str("panic", fmt.Sprint(v...)).Msg("Recovered from panic in HTTP handler")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.HealthCheck(ctx); err != nil {
			hlog.FromRequest(r).Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
