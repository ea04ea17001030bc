// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/config"
	"diamond-shop/internal/handler"
	"diamond-shop/internal/shop"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config
}

// Handlers are the command handlers served by the bot.
type Handlers struct {
	Menu  *shop.Menu
	Shop  *handler.ShopHandler
	Admin *handler.AdminHandler
}

// New creates a new Bot instance and verifies the token with Telegram.
// Handlers are attached later with Register.
func New(cfg *config.Config) (*Bot, error) {
	if !cfg.Bot.Enabled() {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: orDefault(cfg.Bot.PollTimeout, 10*time.Second)},
		Client: &http.Client{Timeout: orDefault(cfg.Bot.RequestTimeout, 15*time.Second)},
		OnError: func(err error, c tele.Context) {
			ev := log.Error().Err(err)
			if c != nil && c.Chat() != nil {
				ev = ev.Int64("chat_id", c.Chat().ID)
			}
			ev.Msg("Bot handler error")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{bot: teleBot, cfg: cfg}
	b.registerMiddleware()
	return b, nil
}

// Register attaches the command and menu handlers.
func (b *Bot) Register(h Handlers) {
	b.registerHandlers(h)
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and menu handlers.
func (b *Bot) registerHandlers(h Handlers) {
	b.bot.Handle("/start", h.Shop.HandleStart)
	b.bot.Handle("/link", h.Shop.HandleLink)
	b.bot.Handle("/help", h.Shop.HandleHelp)

	// Menu buttons
	for t, btn := range h.Menu.Sections {
		b.bot.Handle(btn, h.Shop.HandleSection(t))
	}
	b.bot.Handle(h.Menu.OpenShop, h.Shop.HandleOpenShop)
	b.bot.Handle(h.Menu.Purchases, h.Shop.HandlePurchases)
	b.bot.Handle(h.Menu.Reviews, h.Shop.HandleReviews)
	b.bot.Handle(h.Menu.Help, h.Shop.HandleHelp)

	// Admin handlers (with admin middleware)
	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/payment", h.Admin.HandlePayment)
	adminGroup.Handle("/settle", h.Admin.HandleSettle)

	b.bot.Handle(tele.OnText, h.Shop.HandleText)
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// Telebot returns the underlying telebot instance.
func (b *Bot) Telebot() *tele.Bot {
	return b.bot
}

// Me returns the bot's own account.
func (b *Bot) Me() *tele.User {
	return b.bot.Me
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
