package shop

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/model"
	"diamond-shop/internal/pricing"
)

// Main menu button labels that are not catalog sections.
const (
	ButtonOpenShop  = "🌐 Open shop"
	ButtonPurchases = "👤 My purchases"
	ButtonReviews   = "💬 Reviews"
	ButtonHelp      = "❓ Help"
)

// ReviewsShown is how many reviews the bot lists.
const ReviewsShown = 5

var gameIDPattern = regexp.MustCompile(`^\d{5,12}$`)

// IsGameID reports whether s looks like a player id: 5 to 12 digits.
func IsGameID(s string) bool {
	return gameIDPattern.MatchString(s)
}

// Menu holds the main reply keyboard and its buttons. Buttons double as
// telebot endpoints for the text they send.
type Menu struct {
	Markup    *tele.ReplyMarkup
	Sections  map[model.PackageType]*tele.Btn
	OpenShop  *tele.Btn
	Purchases *tele.Btn
	Reviews   *tele.Btn
	Help      *tele.Btn
}

// BuildMenu creates the main menu: catalog sections two per row, then the
// shop, purchases, reviews and help buttons.
func BuildMenu() *Menu {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	m := &Menu{Markup: markup, Sections: make(map[model.PackageType]*tele.Btn, len(Sections))}

	var (
		rows       []tele.Row
		currentRow []tele.Btn
	)
	for i, s := range Sections {
		btn := markup.Text(s.Button)
		m.Sections[s.Type] = &btn
		currentRow = append(currentRow, btn)
		if len(currentRow) == 2 || i == len(Sections)-1 {
			rows = append(rows, markup.Row(currentRow...))
			currentRow = nil
		}
	}

	openShop := markup.Text(ButtonOpenShop)
	purchases := markup.Text(ButtonPurchases)
	reviews := markup.Text(ButtonReviews)
	help := markup.Text(ButtonHelp)
	m.OpenShop, m.Purchases, m.Reviews, m.Help = &openShop, &purchases, &reviews, &help
	rows = append(rows, markup.Row(openShop, purchases), markup.Row(reviews, help))

	markup.Reply(rows...)
	return m
}

// LinkPanel returns an inline keyboard with a single URL button.
func LinkPanel(text, link string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.URL(text, link)))
	return markup
}

// ShopURL returns the storefront address, prefilled with gameID when set.
func ShopURL(siteURL, gameID string) string {
	base := strings.TrimRight(siteURL, "/")
	if gameID == "" {
		return base
	}
	return base + "/?game_id=" + url.QueryEscape(gameID)
}

// OrdersURL returns the buyer's order history page.
func OrdersURL(siteURL, gameID string) string {
	return strings.TrimRight(siteURL, "/") + "/my-orders?game_id=" + url.QueryEscape(gameID)
}

// ReviewsURL returns the review form on the storefront.
func ReviewsURL(siteURL string) string {
	return strings.TrimRight(siteURL, "/") + "/#reviews"
}

// FormatWelcome creates the /start greeting.
func FormatWelcome(firstName, shopName string) string {
	if firstName == "" {
		firstName = "there"
	}
	return fmt.Sprintf("Hi, %s! 👋\n\n"+
		"Welcome to %s, the Free Fire diamond shop.\n\n"+
		"Link your game ID with /link GAME_ID to get payment updates here.\n\n"+
		"Choose a section from the menu:", firstName, shopName)
}

// FormatCatalog lists packages of a section with their current prices.
func FormatCatalog(s Section, pkgs []*model.DiamondPackage) string {
	if len(pkgs) == 0 {
		return fmt.Sprintf("%s Nothing available right now. Please check back later.", s.Emoji)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s:\n\n", s.Emoji, s.Title)
	for i, pkg := range pkgs {
		fmt.Fprintf(&b, "%d. %s - %s ₽", i+1, pkg.Name, pricing.ForPackage(pkg, nil).String())
		if pkg.Discount > 0 {
			fmt.Fprintf(&b, " (-%d%%)", pkg.Discount)
		}
		if pkg.IsPopular {
			b.WriteString(" 🔥")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nTo buy, head over to our website:")
	return b.String()
}

// FormatReviews lists published reviews with star ratings.
func FormatReviews(reviews []*model.Review) string {
	if len(reviews) == 0 {
		return "💬 No reviews yet. Be the first to leave one on our website!"
	}
	var b strings.Builder
	b.WriteString("💬 Latest reviews:\n\n")
	for _, r := range reviews {
		fmt.Fprintf(&b, "%s\n%s\n\"%s\"\n\n", r.UserName, strings.Repeat("⭐", r.Rating), r.Comment)
	}
	b.WriteString("You can leave your own review on our website:")
	return b.String()
}

var statusLabels = map[model.PaymentStatus]string{
	model.StatusCompleted: "✅ paid",
	model.StatusPending:   "⏳ awaiting payment",
	model.StatusFailed:    "❌ failed",
	model.StatusCancelled: "🚫 cancelled",
}

// StatusLabel returns the display label of a payment status.
func StatusLabel(s model.PaymentStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// FormatPurchases summarises a buyer's payments, newest first.
func FormatPurchases(gameID string, payments []*model.Payment) string {
	if len(payments) == 0 {
		return fmt.Sprintf("📊 No purchases yet for game ID %s.", gameID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Purchase history for game ID %s:\n\n", gameID)
	for i := len(payments) - 1; i >= 0; i-- {
		p := payments[i]
		fmt.Fprintf(&b, "#%d · %s · %s ₽ · %s\n",
			p.ID, p.CreatedAt.Format("2006-01-02 15:04"), p.Amount.String(), StatusLabel(p.Status))
	}
	return b.String()
}

// FormatPayment renders a payment record for admins.
func FormatPayment(p *model.Payment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💳 Payment #%d\n", p.ID)
	b.WriteString("━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "Game ID: %s\n", p.GameID)
	fmt.Fprintf(&b, "Amount: %s ₽\n", p.Amount.String())
	fmt.Fprintf(&b, "Method: %s\n", p.PaymentMethod)
	fmt.Fprintf(&b, "Status: %s\n", StatusLabel(p.Status))
	if p.PromoCode != nil {
		fmt.Fprintf(&b, "Promo code: %s\n", *p.PromoCode)
	}
	if p.Email != nil {
		fmt.Fprintf(&b, "Email: %s\n", *p.Email)
	}
	fmt.Fprintf(&b, "Transaction: %s\n", p.TransactionID)
	fmt.Fprintf(&b, "Created: %s", p.CreatedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

// HelpText answers the common buyer questions.
const HelpText = "❓ Help and FAQ\n\n" +
	"How do I link my game ID to Telegram?\n" +
	"Send the bot /link GAME_ID, for example /link 123456789\n\n" +
	"How do I buy diamonds?\n" +
	"Pick a package on the website, enter your Free Fire ID, choose a payment method and complete the payment.\n\n" +
	"When will I get my diamonds?\n" +
	"Usually within 5-15 minutes after the payment is confirmed.\n\n" +
	"How do I use a promo code?\n" +
	"Enter it in the promo code field at checkout and press \"Apply\".\n\n" +
	"Diamonds did not arrive?\n" +
	"If nothing arrives within 30 minutes of a successful payment, message us from the support chat on the website."
