package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
	"diamond-shop/internal/repository/memory"
	"diamond-shop/internal/service"
	"diamond-shop/internal/shop"
)

type sentMessage struct {
	text string
	opts []interface{}
}

// fakeContext implements the parts of tele.Context the handlers use.
type fakeContext struct {
	tele.Context
	sender *tele.User
	chat   *tele.Chat
	text   string
	args   []string
	sent   []sentMessage
}

func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Chat() *tele.Chat   { return c.chat }
func (c *fakeContext) Text() string       { return c.text }
func (c *fakeContext) Args() []string     { return c.args }

func (c *fakeContext) Send(what interface{}, opts ...interface{}) error {
	c.sent = append(c.sent, sentMessage{text: what.(string), opts: opts})
	return nil
}

func (c *fakeContext) Reply(what interface{}, opts ...interface{}) error {
	return c.Send(what, opts...)
}

func (c *fakeContext) last(t *testing.T) sentMessage {
	t.Helper()
	require.NotEmpty(t, c.sent)
	return c.sent[len(c.sent)-1]
}

func newContext(chatID int64, args ...string) *fakeContext {
	return &fakeContext{
		sender: &tele.User{ID: chatID, FirstName: "Alex"},
		chat:   &tele.Chat{ID: chatID, Type: tele.ChatPrivate},
		args:   args,
	}
}

func inlineURL(t *testing.T, m sentMessage) string {
	t.Helper()
	for _, o := range m.opts {
		if markup, ok := o.(*tele.ReplyMarkup); ok && len(markup.InlineKeyboard) > 0 {
			return markup.InlineKeyboard[0][0].URL
		}
	}
	t.Fatalf("no inline keyboard in %+v", m.opts)
	return ""
}

type fixture struct {
	store    *repository.Store
	reviews  *service.ReviewService
	payments *service.PaymentService
	identity *service.IdentityService
	shop     *ShopHandler
	admin    *AdminHandler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	require.NoError(t, repository.Seed(context.Background(), store))

	payments := service.NewPaymentService(store, nil, nil)
	identity := service.NewIdentityService(store.Users, nil)
	catalog := service.NewCatalogService(store.Packages, store.PaymentMethods)
	reviews := service.NewReviewService(store.Reviews)

	return &fixture{
		store:    store,
		reviews:  reviews,
		payments: payments,
		identity: identity,
		shop:     NewShopHandler(catalog, payments, identity, reviews, shop.BuildMenu(), "https://shop.example", "Diamond Shop"),
		admin:    NewAdminHandler(payments, service.NewSimulator(payments)),
	}
}

func (f *fixture) createPayment(t *testing.T, gameID string) *model.Payment {
	t.Helper()
	p, err := f.payments.Create(context.Background(), service.CreatePaymentInput{
		GameID: gameID, PackageID: 1, PaymentMethod: "Visa/Mastercard", Amount: decimal.NewFromInt(90),
	})
	require.NoError(t, err)
	return p
}

func TestHandleStart(t *testing.T) {
	f := newFixture(t)
	c := newContext(100)

	require.NoError(t, f.shop.HandleStart(c))

	msg := c.last(t)
	assert.Contains(t, msg.text, "Hi, Alex!")
	assert.Contains(t, msg.text, "Diamond Shop")
	require.Len(t, msg.opts, 1)
	assert.Same(t, f.shop.menu.Markup, msg.opts[0])
}

func TestHandleLink(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		want   string
		linked bool
	}{
		{"missing id", nil, "Please provide your game ID", false},
		{"too short", []string{"1234"}, "Invalid game ID", false},
		{"letters", []string{"abc12345"}, "Invalid game ID", false},
		{"valid", []string{"48031006"}, "Game ID 48031006 is linked", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			c := newContext(555, tt.args...)

			require.NoError(t, f.shop.HandleLink(c))
			assert.Contains(t, c.last(t).text, tt.want)

			chat, err := f.identity.Resolve(context.Background(), "48031006")
			if tt.linked {
				require.NoError(t, err)
				assert.Equal(t, "555", chat)
				assert.Equal(t, "https://shop.example/?game_id=48031006", inlineURL(t, c.last(t)))
			} else {
				assert.ErrorIs(t, err, service.ErrUserNotLinked)
			}
		})
	}
}

func TestHandleSection(t *testing.T) {
	f := newFixture(t)
	c := newContext(1)

	require.NoError(t, f.shop.HandleSection(model.PackageEvoPass)(c))

	msg := c.last(t)
	assert.Contains(t, msg.text, "Available Evo passes")
	assert.Contains(t, msg.text, "Evo Pass 3 days")
	assert.NotContains(t, msg.text, "Diamonds")
	assert.Equal(t, "https://shop.example", inlineURL(t, msg))
}

func TestHandlePurchases(t *testing.T) {
	f := newFixture(t)
	c := newContext(777)

	require.NoError(t, f.shop.HandlePurchases(c))
	assert.Contains(t, c.last(t).text, "link your game ID first")

	_, err := f.identity.Link(context.Background(), "48031006", "777")
	require.NoError(t, err)
	p := f.createPayment(t, "48031006")
	f.createPayment(t, "99999999")

	require.NoError(t, f.shop.HandlePurchases(c))
	msg := c.last(t)
	assert.Contains(t, msg.text, "Purchase history for game ID 48031006")
	assert.Contains(t, msg.text, "#1 ")
	assert.NotContains(t, msg.text, "#2 ")
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, "https://shop.example/my-orders?game_id=48031006", inlineURL(t, msg))
}

func TestHandleOpenShop(t *testing.T) {
	f := newFixture(t)
	c := newContext(42)

	require.NoError(t, f.shop.HandleOpenShop(c))
	assert.Equal(t, "https://shop.example", inlineURL(t, c.last(t)))

	_, err := f.identity.Link(context.Background(), "1234567", "42")
	require.NoError(t, err)
	require.NoError(t, f.shop.HandleOpenShop(c))
	assert.Equal(t, "https://shop.example/?game_id=1234567", inlineURL(t, c.last(t)))
}

func TestHandleReviews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c := newContext(1)
	require.NoError(t, f.shop.HandleReviews(c))
	assert.Contains(t, c.last(t).text, "No reviews yet")
	assert.Equal(t, "https://shop.example/#reviews", inlineURL(t, c.last(t)))

	hidden, err := f.reviews.Create(ctx, service.CreateReviewInput{UserName: "Hidden", Rating: 1, Comment: "spam"})
	require.NoError(t, err)
	for i := 0; i < shop.ReviewsShown+1; i++ {
		r, err := f.reviews.Create(ctx, service.CreateReviewInput{UserName: "Buyer", Rating: 5, Comment: "fast"})
		require.NoError(t, err)
		_, err = f.reviews.Verify(ctx, r.ID)
		require.NoError(t, err)
	}
	require.False(t, hidden.IsVerified)

	require.NoError(t, f.shop.HandleReviews(c))
	text := c.last(t).text
	assert.NotContains(t, text, "Hidden")
	assert.Equal(t, shop.ReviewsShown, strings.Count(text, "Buyer"))
}

func TestHandleText(t *testing.T) {
	f := newFixture(t)

	c := newContext(1)
	c.text = "48031006"
	require.NoError(t, f.shop.HandleText(c))
	assert.Contains(t, c.last(t).text, "game ID 48031006")
	assert.Equal(t, "https://shop.example/?game_id=48031006", inlineURL(t, c.last(t)))

	c = newContext(1)
	c.text = "hello"
	require.NoError(t, f.shop.HandleText(c))
	assert.Contains(t, c.last(t).text, "don't understand")
}

func TestAdminHandlePayment(t *testing.T) {
	f := newFixture(t)
	p := f.createPayment(t, "48031006")

	c := newContext(1)
	require.NoError(t, f.admin.HandlePayment(c))
	assert.Contains(t, c.last(t).text, "Usage")

	c = newContext(1, "abc")
	require.NoError(t, f.admin.HandlePayment(c))
	assert.Contains(t, c.last(t).text, "Invalid payment ID")

	c = newContext(1, "999")
	require.NoError(t, f.admin.HandlePayment(c))
	assert.Contains(t, c.last(t).text, "Payment not found")

	c = newContext(1, "1")
	require.NoError(t, f.admin.HandlePayment(c))
	assert.Contains(t, c.last(t).text, p.TransactionID)
}

func TestAdminHandleSettle(t *testing.T) {
	f := newFixture(t)
	f.createPayment(t, "48031006")

	c := newContext(1, "1", "refund")
	require.NoError(t, f.admin.HandleSettle(c))
	assert.Contains(t, c.last(t).text, "unknown action")

	c = newContext(1, "1", "complete")
	require.NoError(t, f.admin.HandleSettle(c))
	assert.Contains(t, c.last(t).text, "✅ paid")

	c = newContext(1, "1", "cancel")
	require.NoError(t, f.admin.HandleSettle(c))
	assert.Contains(t, c.last(t).text, "✅ paid")

	c = newContext(1, "2", "complete")
	require.NoError(t, f.admin.HandleSettle(c))
	assert.Contains(t, c.last(t).text, "Payment not found")
}
