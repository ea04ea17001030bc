package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
	"pgregory.net/rapid"

	"diamond-shop/internal/config"
)

type fakeContext struct {
	tele.Context
	sender  *tele.User
	replies []string
}

func (c *fakeContext) Sender() *tele.User { return c.sender }
func (c *fakeContext) Chat() *tele.Chat   { return nil }
func (c *fakeContext) Text() string       { return "/settle 1 complete" }

func (c *fakeContext) Reply(what interface{}, _ ...interface{}) error {
	c.replies = append(c.replies, what.(string))
	return nil
}

// TestAdminMiddlewareProperty checks that the wrapped handler runs if and
// only if the sender is in the admin list.
func TestAdminMiddlewareProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		adminIDs := rapid.SliceOfN(rapid.Int64Range(1, 1000000000), 1, 10).Draw(t, "adminIDs")
		cfg := &config.Config{Admin: config.AdminConfig{IDs: adminIDs}}

		var userID int64
		if rapid.Bool().Draw(t, "pickAdmin") {
			userID = rapid.SampledFrom(adminIDs).Draw(t, "adminID")
		} else {
			userID = rapid.Int64Range(1, 1000000000).Draw(t, "userID")
		}

		expected := false
		for _, id := range adminIDs {
			if id == userID {
				expected = true
				break
			}
		}

		called := false
		h := AdminMiddleware(cfg)(func(tele.Context) error {
			called = true
			return nil
		})
		c := &fakeContext{sender: &tele.User{ID: userID}}
		if err := h(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if called != expected {
			t.Fatalf("userID=%d adminIDs=%v: handler called=%v, want %v", userID, adminIDs, called, expected)
		}
		if !expected && len(c.replies) != 1 {
			t.Fatalf("non-admin %d should get exactly one reply, got %v", userID, c.replies)
		}
	})
}

func TestAdminMiddleware_NoSender(t *testing.T) {
	cfg := &config.Config{Admin: config.AdminConfig{IDs: []int64{1}}}
	called := false
	h := AdminMiddleware(cfg)(func(tele.Context) error {
		called = true
		return nil
	})

	c := &fakeContext{}
	require.NoError(t, h(c))
	assert.False(t, called)
	assert.Empty(t, c.replies)
}

func TestRecoveryMiddleware(t *testing.T) {
	c := &fakeContext{sender: &tele.User{ID: 1}}
	h := RecoveryMiddleware()(func(tele.Context) error {
		panic("boom")
	})

	require.NoError(t, h(c))
	require.Len(t, c.replies, 1)
	assert.Contains(t, c.replies[0], "Something went wrong")
}

func TestRecoveryMiddleware_PassesErrorsThrough(t *testing.T) {
	want := errors.New("send failed")
	h := RecoveryMiddleware()(func(tele.Context) error { return want })

	assert.ErrorIs(t, h(&fakeContext{}), want)
}

func TestLoggingMiddleware(t *testing.T) {
	called := false
	h := LoggingMiddleware()(func(tele.Context) error {
		called = true
		return nil
	})

	require.NoError(t, h(&fakeContext{sender: &tele.User{ID: 7, Username: "buyer"}}))
	assert.True(t, called)
}
