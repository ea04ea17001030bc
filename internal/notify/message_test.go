package notify

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diamond-shop/internal/model"
)

func TestRender(t *testing.T) {
	p := &model.Payment{ID: 12, GameID: "48031006", Amount: decimal.NewFromInt(347)}

	tests := []struct {
		status  model.PaymentStatus
		emoji   string
		note    string
		buttons int
	}{
		{model.StatusPending, "⏳", "complete the payment", 2},
		{model.StatusCompleted, "✅", "within a few minutes", 1},
		{model.StatusFailed, "❌", "contact support", 1},
		{model.StatusCancelled, "🚫", "contact support", 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			p.Status = tt.status
			msg := Render(p, "520 + 26 Diamonds", "https://shop.example/")

			assert.Contains(t, msg.Text, tt.emoji+" Payment #12")
			assert.Contains(t, msg.Text, "520 + 26 Diamonds")
			assert.Contains(t, msg.Text, "347 ₽")
			assert.Contains(t, msg.Text, "48031006")
			assert.Contains(t, msg.Text, tt.note)

			require.Len(t, msg.Buttons, tt.buttons)
			last := msg.Buttons[len(msg.Buttons)-1]
			assert.Equal(t, "https://shop.example/payment-status/12", last.URL)
		})
	}
}

func TestRender_PendingLinksToPaymentPage(t *testing.T) {
	p := &model.Payment{ID: 5, GameID: "1234567", Amount: decimal.NewFromInt(90), Status: model.StatusPending}

	msg := Render(p, "100 + 5 Diamonds", "http://localhost:5000")

	require.NotEmpty(t, msg.Buttons)
	assert.Equal(t, "http://localhost:5000/simulate-payment?payment_id=5&amount=90&game_id=1234567", msg.Buttons[0].URL)
}
