package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

func intPtr(v int) *int { return &v }

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := New()

	require.NoError(t, repository.Seed(ctx, store))
	// Seeding twice does not duplicate rows.
	require.NoError(t, repository.Seed(ctx, store))

	all, err := store.Packages.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 12)

	evo := model.PackageEvoPass
	passes, err := store.Packages.List(ctx, &evo)
	require.NoError(t, err)
	assert.Len(t, passes, 3)

	methods, err := store.PaymentMethods.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 5)
	assert.Equal(t, "Visa/Mastercard", methods[0].Name)
	assert.Equal(t, "WebMoney", methods[4].Name)
}

func TestPaymentMethodRepository_ListActiveOrdering(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentMethodRepository()

	_, err := repo.Create(ctx, &model.PaymentMethod{Name: "unordered", IsActive: true})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.PaymentMethod{Name: "second", IsActive: true, SortOrder: intPtr(2)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.PaymentMethod{Name: "hidden", IsActive: false, SortOrder: intPtr(0)})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.PaymentMethod{Name: "first", IsActive: true, SortOrder: intPtr(1)})
	require.NoError(t, err)

	methods, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, methods, 3)
	assert.Equal(t, "first", methods[0].Name)
	assert.Equal(t, "second", methods[1].Name)
	assert.Equal(t, "unordered", methods[2].Name)
}

func TestPromoCodeRepository_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	repo := NewPromoCodeRepository()

	created, err := repo.Create(ctx, &model.PromoCode{Code: "SAVE10", Discount: 10, IsPercentage: true, IsActive: true})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, "save10")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = repo.Create(ctx, &model.PromoCode{Code: "Save10", IsActive: true})
	assert.ErrorIs(t, err, model.ErrPromoDuplicate)

	redeemed, err := repo.Redeem(ctx, "sAvE10", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsageCount)

	_, err = repo.Redeem(ctx, "NOPE", time.Now())
	assert.ErrorIs(t, err, model.ErrPromoNotFound)
}

func TestPromoCodeRepository_RedeemRejectionsDoNotCount(t *testing.T) {
	ctx := context.Background()
	repo := NewPromoCodeRepository()
	past := time.Now().Add(-time.Hour)

	_, err := repo.Create(ctx, &model.PromoCode{Code: "OLD", IsActive: true, ValidUntil: &past, UsageLimit: intPtr(5)})
	require.NoError(t, err)

	_, err = repo.Redeem(ctx, "old", time.Now())
	assert.ErrorIs(t, err, model.ErrPromoExpired)

	p, err := repo.GetByCode(ctx, "OLD")
	require.NoError(t, err)
	assert.Equal(t, 0, p.UsageCount)
}

func TestPromoCodeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewPromoCodeRepository()

	p, err := repo.Create(ctx, &model.PromoCode{Code: "GONE", IsActive: true})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, p.ID))
	assert.ErrorIs(t, repo.Delete(ctx, p.ID), repository.ErrNotFound)

	_, err = repo.GetByCode(ctx, "gone")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Concurrent redemptions of a code with limit L succeed exactly
// min(L, attempts) times and the stored count never exceeds the limit.
func TestPromoCodeRepository_ConcurrentRedeemProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 20).Draw(rt, "limit")
		attempts := rapid.IntRange(1, 40).Draw(rt, "attempts")

		ctx := context.Background()
		repo := NewPromoCodeRepository()
		if _, err := repo.Create(ctx, &model.PromoCode{Code: "RUSH", IsActive: true, UsageLimit: &limit}); err != nil {
			rt.Fatalf("create: %v", err)
		}

		var ok, exhausted atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := repo.Redeem(ctx, "rush", time.Now())
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, model.ErrPromoExhausted):
					exhausted.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		want := min(limit, attempts)
		if int(ok.Load()) != want {
			rt.Fatalf("expected %d successful redemptions, got %d", want, ok.Load())
		}
		if int(exhausted.Load()) != attempts-want {
			rt.Fatalf("expected %d exhausted rejections, got %d", attempts-want, exhausted.Load())
		}

		p, err := repo.GetByCode(ctx, "RUSH")
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if p.UsageCount != want {
			rt.Fatalf("usage count %d, want %d", p.UsageCount, want)
		}
	})
}

func TestPromoCodeRepository_Claim(t *testing.T) {
	ctx := context.Background()
	repo := NewPromoCodeRepository()
	now := time.Now()

	p, err := repo.Create(ctx, &model.PromoCode{Code: "PAY", IsActive: true, UsageLimit: intPtr(2)})
	require.NoError(t, err)

	_, err = repo.Claim(ctx, p.ID, now)
	assert.ErrorIs(t, err, model.ErrPromoNotRedeemed)

	_, err = repo.Redeem(ctx, "pay", now)
	require.NoError(t, err)

	claimed, err := repo.Claim(ctx, p.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, claimed.ClaimCount)

	_, err = repo.Claim(ctx, p.ID, now)
	assert.ErrorIs(t, err, model.ErrPromoNotRedeemed)

	_, err = repo.Claim(ctx, 999, now)
	assert.ErrorIs(t, err, model.ErrPromoNotFound)
}

// However redemptions and claims interleave, claims never outnumber
// successful redemptions and redemptions never pass the limit.
func TestPromoCodeRepository_ConcurrentClaimProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 10).Draw(rt, "limit")
		redeems := rapid.IntRange(0, 20).Draw(rt, "redeems")
		claims := rapid.IntRange(1, 20).Draw(rt, "claims")

		ctx := context.Background()
		repo := NewPromoCodeRepository()
		p, err := repo.Create(ctx, &model.PromoCode{Code: "RUSH", IsActive: true, UsageLimit: &limit})
		if err != nil {
			rt.Fatalf("create: %v", err)
		}

		var redeemed, claimed atomic.Int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < redeems; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := repo.Redeem(ctx, "rush", time.Now()); err == nil {
					redeemed.Add(1)
				}
			}()
		}
		for i := 0; i < claims; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				if _, err := repo.Claim(ctx, p.ID, time.Now()); err == nil {
					claimed.Add(1)
				}
			}()
		}
		close(start)
		wg.Wait()

		if int(redeemed.Load()) > limit {
			rt.Fatalf("redeemed %d times past limit %d", redeemed.Load(), limit)
		}
		if claimed.Load() > redeemed.Load() {
			rt.Fatalf("claimed %d times with only %d redemptions", claimed.Load(), redeemed.Load())
		}

		stored, err := repo.Get(ctx, p.ID)
		if err != nil {
			rt.Fatalf("get: %v", err)
		}
		if stored.ClaimCount != int(claimed.Load()) || stored.UsageCount != int(redeemed.Load()) {
			rt.Fatalf("stored counts usage=%d claim=%d, want %d/%d", stored.UsageCount, stored.ClaimCount, redeemed.Load(), claimed.Load())
		}
	})
}

func TestPaymentRepository_Transition(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()

	p, err := repo.Create(ctx, &model.NewPayment{
		GameID:        "48031006",
		Amount:        decimal.NewFromInt(90),
		PaymentMethod: "Visa/Mastercard",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.NotEmpty(t, p.TransactionID)

	done, changed, err := repo.Transition(ctx, p.ID, model.StatusCompleted)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, model.StatusCompleted, done.Status)

	again, changed, err := repo.Transition(ctx, p.ID, model.StatusFailed)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, model.StatusCompleted, again.Status)
	assert.True(t, again.Amount.Equal(decimal.NewFromInt(90)))

	_, _, err = repo.Transition(ctx, 999, model.StatusCompleted)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

// Racing transitions on one pending payment change it exactly once.
func TestPaymentRepository_ConcurrentTransitionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		callers := rapid.IntRange(2, 30).Draw(rt, "callers")

		ctx := context.Background()
		repo := NewPaymentRepository()
		p, err := repo.Create(ctx, &model.NewPayment{GameID: "123456", Amount: decimal.NewFromInt(60), PaymentMethod: "QIWI"})
		if err != nil {
			rt.Fatalf("create: %v", err)
		}

		statuses := []model.PaymentStatus{model.StatusCompleted, model.StatusFailed, model.StatusCancelled}
		var changedCount atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(status model.PaymentStatus) {
				defer wg.Done()
				_, changed, err := repo.Transition(ctx, p.ID, status)
				if err == nil && changed {
					changedCount.Add(1)
				}
			}(statuses[i%len(statuses)])
		}
		wg.Wait()

		if changedCount.Load() != 1 {
			rt.Fatalf("expected exactly one transition, got %d", changedCount.Load())
		}
	})
}

func TestPaymentRepository_ListByGameID(t *testing.T) {
	ctx := context.Background()
	repo := NewPaymentRepository()

	for _, gid := range []string{"111111", "222222", "111111"} {
		_, err := repo.Create(ctx, &model.NewPayment{GameID: gid, Amount: decimal.NewFromInt(1), PaymentMethod: "QIWI"})
		require.NoError(t, err)
	}

	mine, err := repo.ListByGameID(ctx, "111111")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Less(t, mine[0].ID, mine[1].ID)
}

func TestUserRepository_Link(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	first, err := repo.Link(ctx, "48031006", "100")
	require.NoError(t, err)
	second, err := repo.Link(ctx, "48031006", "200")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.TelegramChatID)
	assert.Equal(t, "200", *second.TelegramChatID)

	byChat, err := repo.GetByChatID(ctx, "200")
	require.NoError(t, err)
	assert.Equal(t, "48031006", byChat.GameID)

	_, err = repo.GetByChatID(ctx, "100")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestChatRepository_MarkReadAndConversations(t *testing.T) {
	ctx := context.Background()
	repo := NewChatRepository()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	msgs := []*model.ChatMessage{
		{GameID: "111111", Text: "hi", Sender: model.SenderUser, CreatedAt: base},
		{GameID: "111111", Text: "hello", Sender: model.SenderAdmin, IsRead: true, CreatedAt: base.Add(time.Minute)},
		{GameID: "111111", Text: "where are my diamonds", Sender: model.SenderUser, CreatedAt: base.Add(2 * time.Minute)},
		{GameID: "222222", Text: "help", Sender: model.SenderUser, CreatedAt: base.Add(5 * time.Minute)},
	}
	for _, m := range msgs {
		_, err := repo.Create(ctx, m)
		require.NoError(t, err)
	}

	convs, err := repo.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "222222", convs[0].GameID)
	assert.Equal(t, "111111", convs[1].GameID)
	assert.Equal(t, 2, convs[1].UnreadCount)
	assert.Equal(t, "where are my diamonds", convs[1].LastMessage)

	require.NoError(t, repo.MarkRead(ctx, "111111"))

	convs, err = repo.Conversations(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, convs[1].UnreadCount)
	assert.Equal(t, 1, convs[0].UnreadCount)
}

func TestReviewRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReviewRepository()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	older, err := repo.Create(ctx, &model.Review{UserName: "Ali", Rating: 5, Comment: "fast", CreatedAt: base})
	require.NoError(t, err)
	newer, err := repo.Create(ctx, &model.Review{UserName: "Dana", Rating: 3, Comment: "ok", CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)
	stamped, err := repo.Create(ctx, &model.Review{UserName: "Lev", Rating: 4, Comment: "good"})
	require.NoError(t, err)
	assert.False(t, stamped.CreatedAt.IsZero())

	verified, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, verified)

	_, err = repo.Verify(ctx, older.ID)
	require.NoError(t, err)
	again, err := repo.Verify(ctx, older.ID)
	require.NoError(t, err)
	assert.True(t, again.IsVerified)
	_, err = repo.Verify(ctx, newer.ID)
	require.NoError(t, err)

	verified, err = repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, verified, 2)
	assert.Equal(t, newer.ID, verified[0].ID)
	assert.Equal(t, older.ID, verified[1].ID)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = repo.Verify(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, newer.ID))
	assert.ErrorIs(t, repo.Delete(ctx, newer.ID), repository.ErrNotFound)
}
