// Package notify delivers payment status notifications to buyers' Telegram
// chats.
package notify

import (
	"fmt"
	"strings"

	"diamond-shop/internal/model"
)

// Button is a link attached below a message.
type Button struct {
	Text string
	URL  string
}

// Message is a rendered notification.
type Message struct {
	Text    string
	Buttons []Button
}

type statusCopy struct {
	emoji string
	label string
	note  string
}

var statusTexts = map[model.PaymentStatus]statusCopy{
	model.StatusCompleted: {"✅", "Paid", "Diamonds will be credited to your account within a few minutes."},
	model.StatusPending:   {"⏳", "Awaiting payment", "Please complete the payment to receive your diamonds."},
	model.StatusFailed:    {"❌", "Payment failed", "If you have any questions, please contact support."},
	model.StatusCancelled: {"🚫", "Cancelled", "If you have any questions, please contact support."},
}

// Render builds the notification for p. packageName describes the item
// bought and siteURL is the storefront base used for button links.
func Render(p *model.Payment, packageName, siteURL string) Message {
	st, ok := statusTexts[p.Status]
	if !ok {
		st = statusCopy{"❓", string(p.Status), "If you have any questions, please contact support."}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Payment #%d\n\n", st.emoji, p.ID)
	fmt.Fprintf(&b, "Item: %s\n", packageName)
	fmt.Fprintf(&b, "Amount: %s ₽\n", p.Amount.String())
	fmt.Fprintf(&b, "Status: %s\n", st.label)
	fmt.Fprintf(&b, "Game ID: %s\n\n", p.GameID)
	b.WriteString(st.note)

	base := strings.TrimRight(siteURL, "/")
	msg := Message{Text: b.String()}
	if p.Status == model.StatusPending {
		msg.Buttons = append(msg.Buttons, Button{Text: "💳 Go to payment", URL: base + p.SimulatorPath()})
	}
	msg.Buttons = append(msg.Buttons, Button{Text: "🌐 Check status on the site", URL: base + p.StatusPath()})
	return msg
}
