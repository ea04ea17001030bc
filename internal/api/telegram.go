package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"diamond-shop/internal/notify"
)

type linkRequest struct {
	GameID string     `json:"gameId" validate:"required"`
	ChatID flexString `json:"chatId" validate:"required"`
}

type linkedUser struct {
	ID     int64  `json:"id"`
	GameID string `json:"gameId"`
}

type sendTestRequest struct {
	PaymentID int64      `json:"paymentId" validate:"required,gt=0"`
	ChatID    flexString `json:"chatId"`
}

type botInfo struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
}

type botConfiguration struct {
	SiteURL     string `json:"site_url"`
	WebhookMode bool   `json:"webhook_mode"`
	PollingMode bool   `json:"polling_mode"`
	TgAppURL    string `json:"tg_app_url"`
	ShopName    string `json:"shop_name"`
}

type botStatus struct {
	Status        string           `json:"status"`
	Bot           *botInfo         `json:"bot"`
	Configuration botConfiguration `json:"configuration"`
	Uptime        float64          `json:"uptime"`
}

func (s *Server) linkTelegram(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Missing gameId or chatId")
		return
	}

	user, err := s.deps.Identity.Link(r.Context(), req.GameID, string(req.ChatID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"user":    linkedUser{ID: user.ID, GameID: user.GameID},
	})
}

// sendTestNotification delivers the notification for a payment right away,
// to chatId when given and otherwise to the buyer's linked chat.
func (s *Server) sendTestNotification(w http.ResponseWriter, r *http.Request) {
	var req sendTestRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Payment ID is required")
		return
	}
	if s.deps.Notifier == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Notifications are disabled")
		return
	}

	p, err := s.deps.Payments.Get(r.Context(), req.PaymentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	target := string(req.ChatID)
	if target == "" {
		target, err = s.deps.Identity.Resolve(r.Context(), p.GameID)
		if err != nil {
			writeError(w, r, err)
			return
		}
	}
	chatID, err := notify.ParseChatID(target)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Chat ID must be numeric")
		return
	}

	if err := s.deps.Notifier.NotifyChat(r.Context(), chatID, p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Notification sent successfully"})
}

func (s *Server) telegramStatus(w http.ResponseWriter, r *http.Request) {
	siteURL := strings.TrimRight(s.deps.Server.SiteURL, "/")
	resp := botStatus{
		Status: "disabled",
		Configuration: botConfiguration{
			SiteURL:     siteURL,
			PollingMode: s.deps.Bot != nil,
			TgAppURL:    siteURL + "/tg-app.html",
			ShopName:    s.deps.Server.ShopName,
		},
		Uptime: time.Since(s.deps.Started).Seconds(),
	}
	if me := s.deps.Bot; me != nil {
		resp.Status = "active"
		resp.Bot = &botInfo{Username: me.Username, FirstName: me.FirstName, ID: me.ID, IsBot: me.IsBot}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) nickname(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["gameId"]
	var nickname *string
	if s.deps.Nicknames != nil {
		if name, ok := s.deps.Nicknames.Lookup(r.Context(), gameID); ok {
			nickname = &name
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"gameId": gameID, "nickname": nickname})
}
