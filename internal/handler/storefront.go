// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/model"
	"diamond-shop/internal/service"
	"diamond-shop/internal/shop"
)

// ShopHandler serves the buyer-facing bot commands.
type ShopHandler struct {
	catalog  *service.CatalogService
	payments *service.PaymentService
	identity *service.IdentityService
	reviews  *service.ReviewService
	menu     *shop.Menu
	siteURL  string
	shopName string
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(
	catalog *service.CatalogService,
	payments *service.PaymentService,
	identity *service.IdentityService,
	reviews *service.ReviewService,
	menu *shop.Menu,
	siteURL, shopName string,
) *ShopHandler {
	return &ShopHandler{
		catalog:  catalog,
		payments: payments,
		identity: identity,
		reviews:  reviews,
		menu:     menu,
		siteURL:  siteURL,
		shopName: shopName,
	}
}

// HandleStart greets the user and shows the main menu.
func (h *ShopHandler) HandleStart(c tele.Context) error {
	name := ""
	if sender := c.Sender(); sender != nil {
		name = sender.FirstName
	}
	return c.Send(shop.FormatWelcome(name, h.shopName), h.menu.Markup)
}

// HandleLink handles /link <gameId>, binding the game id to this chat so
// payment notifications reach it.
func (h *ShopHandler) HandleLink(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}

	args := c.Args()
	if len(args) == 0 {
		return c.Send("Please provide your game ID:\n/link GAME_ID")
	}
	gameID := strings.TrimSpace(args[0])
	if !shop.IsGameID(gameID) {
		return c.Send("Invalid game ID. It must contain 5 to 12 digits.\n\nTry again: /link GAME_ID")
	}

	ctx := context.Background()
	if _, err := h.identity.Link(ctx, gameID, strconv.FormatInt(chat.ID, 10)); err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Str("game_id", gameID).Msg("Link game id failed")
		return c.Send("❌ Could not link your game ID. Please try again later.")
	}

	return c.Send(
		fmt.Sprintf("✅ Game ID %s is linked to this chat.\n\nYou will receive payment updates here.", gameID),
		shop.LinkPanel("🌐 Go to shop", shop.ShopURL(h.siteURL, gameID)),
	)
}

// HandleSection returns a handler listing the packages of one catalog
// section.
func (h *ShopHandler) HandleSection(t model.PackageType) tele.HandlerFunc {
	return func(c tele.Context) error {
		section, ok := shop.SectionFor(t)
		if !ok {
			return nil
		}

		pkgs, err := h.catalog.ListPackages(context.Background(), &t)
		if err != nil {
			log.Error().Err(err).Str("type", string(t)).Msg("List packages failed")
			return c.Send("❌ Could not load the catalog. Please try again later.")
		}

		return c.Send(shop.FormatCatalog(section, pkgs), shop.LinkPanel("🌐 Go to shop", shop.ShopURL(h.siteURL, "")))
	}
}

// HandleOpenShop sends the storefront link, prefilled with the linked game
// id when there is one.
func (h *ShopHandler) HandleOpenShop(c tele.Context) error {
	gameID, _ := h.linkedGameID(c)
	msg := "🌐 Open the shop to buy diamonds."
	if gameID == "" {
		msg += "\n\nLink your game ID with /link GAME_ID for payment updates."
	}
	return c.Send(msg, shop.LinkPanel("🌐 Go to shop", shop.ShopURL(h.siteURL, gameID)))
}

// HandlePurchases shows the payment history of the game id linked to this
// chat.
func (h *ShopHandler) HandlePurchases(c tele.Context) error {
	gameID, err := h.linkedGameID(c)
	if err != nil {
		if errors.Is(err, service.ErrUserNotLinked) {
			return c.Send("To see your purchases, link your game ID first: /link GAME_ID")
		}
		log.Error().Err(err).Msg("Resolve chat failed")
		return c.Send("❌ Could not load your purchases. Please try again later.")
	}

	payments, err := h.payments.ListByGameID(context.Background(), gameID)
	if err != nil {
		log.Error().Err(err).Str("game_id", gameID).Msg("List payments failed")
		return c.Send("❌ Could not load your purchases. Please try again later.")
	}

	return c.Send(
		shop.FormatPurchases(gameID, payments),
		shop.LinkPanel("🌐 Order history", shop.OrdersURL(h.siteURL, gameID)),
	)
}

// HandleReviews shows the latest published reviews.
func (h *ShopHandler) HandleReviews(c tele.Context) error {
	reviews, err := h.reviews.Published(context.Background(), shop.ReviewsShown)
	if err != nil {
		log.Error().Err(err).Msg("List reviews failed")
		return c.Send("❌ Could not load reviews. Please try again later.")
	}
	return c.Send(shop.FormatReviews(reviews), shop.LinkPanel("🌐 Leave a review", shop.ReviewsURL(h.siteURL)))
}

// HandleHelp sends the FAQ.
func (h *ShopHandler) HandleHelp(c tele.Context) error {
	return c.Send(shop.HelpText, shop.LinkPanel("🌐 Go to shop", shop.ShopURL(h.siteURL, "")))
}

// HandleText answers free text: a bare game id gets a prefilled shop link,
// anything else the main menu.
func (h *ShopHandler) HandleText(c tele.Context) error {
	text := strings.TrimSpace(c.Text())
	if shop.IsGameID(text) {
		return c.Send(
			fmt.Sprintf("To buy diamonds for game ID %s, head over to our website:", text),
			shop.LinkPanel("🌐 Go to shop", shop.ShopURL(h.siteURL, text)),
		)
	}
	return c.Send("Sorry, I don't understand that. Please use the menu below:", h.menu.Markup)
}

func (h *ShopHandler) linkedGameID(c tele.Context) (string, error) {
	chat := c.Chat()
	if chat == nil {
		return "", service.ErrUserNotLinked
	}
	return h.identity.ResolveByChatID(context.Background(), strconv.FormatInt(chat.ID, 10))
}
