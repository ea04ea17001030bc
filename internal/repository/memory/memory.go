// Package memory provides in-process repository implementations. Every
// repository guards its rows with a single mutex, which makes each
// operation atomic with respect to the others on the same repository.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
)

// New returns an empty in-memory store.
func New() *repository.Store {
	return &repository.Store{
		Packages:       NewPackageRepository(),
		PromoCodes:     NewPromoCodeRepository(),
		Payments:       NewPaymentRepository(),
		PaymentMethods: NewPaymentMethodRepository(),
		Users:          NewUserRepository(),
		Chat:           NewChatRepository(),
		Reviews:        NewReviewRepository(),
	}
}

// now stamps created rows.
var now = time.Now

// PackageRepository keeps catalog items in memory.
type PackageRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*model.DiamondPackage
}

// NewPackageRepository creates an empty PackageRepository.
func NewPackageRepository() *PackageRepository {
	return &PackageRepository{}
}

func (r *PackageRepository) List(_ context.Context, pkgType *model.PackageType) ([]*model.DiamondPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.DiamondPackage, 0, len(r.rows))
	for _, p := range r.rows {
		if pkgType != nil && p.Type != *pkgType {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PackageRepository) Get(_ context.Context, id int64) (*model.DiamondPackage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.rows {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PackageRepository) Create(_ context.Context, pkg *model.DiamondPackage) (*model.DiamondPackage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := *pkg
	row.ID = r.nextID
	r.rows = append(r.rows, &row)

	cp := row
	return &cp, nil
}

// PromoCodeRepository keeps promo codes in memory, keyed by normalized code.
type PromoCodeRepository struct {
	mu     sync.Mutex
	nextID int64
	byKey  map[string]*model.PromoCode
}

// NewPromoCodeRepository creates an empty PromoCodeRepository.
func NewPromoCodeRepository() *PromoCodeRepository {
	return &PromoCodeRepository{byKey: make(map[string]*model.PromoCode)}
}

func (r *PromoCodeRepository) List(_ context.Context) ([]*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.PromoCode, 0, len(r.byKey))
	for _, p := range r.byKey {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *PromoCodeRepository) Get(_ context.Context, id int64) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.byKey {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PromoCodeRepository) GetByCode(_ context.Context, code string) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byKey[model.NormalizeCode(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *PromoCodeRepository) Create(_ context.Context, promo *model.PromoCode) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := model.NormalizeCode(promo.Code)
	if _, exists := r.byKey[key]; exists {
		return nil, model.Reject(model.RejectDuplicate, promo.Code)
	}

	r.nextID++
	row := *promo
	row.ID = r.nextID
	r.byKey[key] = &row

	cp := row
	return &cp, nil
}

func (r *PromoCodeRepository) Redeem(_ context.Context, code string, at time.Time) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byKey[model.NormalizeCode(code)]
	if !ok {
		return nil, model.Reject(model.RejectNotFound, code)
	}
	if err := p.CheckRedeemable(at); err != nil {
		return nil, err
	}
	p.UsageCount++

	cp := *p
	return &cp, nil
}

func (r *PromoCodeRepository) Claim(_ context.Context, id int64, at time.Time) (*model.PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.byKey {
		if p.ID != id {
			continue
		}
		if err := p.CheckClaimable(at); err != nil {
			return nil, err
		}
		p.ClaimCount++
		cp := *p
		return &cp, nil
	}
	return nil, model.ErrPromoNotFound
}

func (r *PromoCodeRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, p := range r.byKey {
		if p.ID == id {
			delete(r.byKey, key)
			return nil
		}
	}
	return repository.ErrNotFound
}

// PaymentRepository keeps payment records in memory.
type PaymentRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.Payment
}

// NewPaymentRepository creates an empty PaymentRepository.
func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{}
}

func (r *PaymentRepository) Create(_ context.Context, p *model.NewPayment) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := &model.Payment{
		ID:            r.nextID,
		CreatedAt:     now(),
		GameID:        p.GameID,
		Email:         p.Email,
		PackageID:     p.PackageID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Status:        model.StatusPending,
		TransactionID: model.NewTransactionID(),
		PromoCode:     p.PromoCode,
	}
	r.rows = append(r.rows, row)

	cp := *row
	return &cp, nil
}

func (r *PaymentRepository) Get(_ context.Context, id int64) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if row := r.find(id); row != nil {
		cp := *row
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *PaymentRepository) List(_ context.Context) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Payment, 0, len(r.rows))
	for i := len(r.rows) - 1; i >= 0; i-- {
		cp := *r.rows[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *PaymentRepository) ListByGameID(_ context.Context, gameID string) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Payment
	for _, row := range r.rows {
		if row.GameID == gameID {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *PaymentRepository) Transition(_ context.Context, id int64, status model.PaymentStatus) (*model.Payment, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	row := r.find(id)
	if row == nil {
		return nil, false, repository.ErrNotFound
	}

	changed := false
	if !row.Status.IsTerminal() {
		row.Status = status
		changed = true
	}

	cp := *row
	return &cp, changed, nil
}

func (r *PaymentRepository) find(id int64) *model.Payment {
	for _, row := range r.rows {
		if row.ID == id {
			return row
		}
	}
	return nil
}

// PaymentMethodRepository keeps checkout options in memory.
type PaymentMethodRepository struct {
	mu     sync.RWMutex
	nextID int64
	rows   []*model.PaymentMethod
}

// NewPaymentMethodRepository creates an empty PaymentMethodRepository.
func NewPaymentMethodRepository() *PaymentMethodRepository {
	return &PaymentMethodRepository{}
}

func (r *PaymentMethodRepository) ListActive(_ context.Context) ([]*model.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*model.PaymentMethod
	for _, m := range r.rows {
		if m.IsActive {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].SortOrder, out[j].SortOrder
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out, nil
}

func (r *PaymentMethodRepository) Get(_ context.Context, id int64) (*model.PaymentMethod, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.rows {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *PaymentMethodRepository) Create(_ context.Context, m *model.PaymentMethod) (*model.PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := *m
	row.ID = r.nextID
	r.rows = append(r.rows, &row)

	cp := row
	return &cp, nil
}

// UserRepository keeps game id links in memory.
type UserRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Link(_ context.Context, gameID, chatID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat := chatID
	if u := r.byGameID(gameID); u != nil {
		u.TelegramChatID = &chat
		cp := *u
		return &cp, nil
	}

	r.nextID++
	u := &model.User{
		ID:             r.nextID,
		GameID:         gameID,
		TelegramChatID: &chat,
		CreatedAt:      now(),
	}
	r.rows = append(r.rows, u)

	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByGameID(_ context.Context, gameID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.byGameID(gameID); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByChatID(_ context.Context, chatID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.rows {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// byGameID returns the canonical (lowest id) user for gameID.
func (r *UserRepository) byGameID(gameID string) *model.User {
	for _, u := range r.rows {
		if u.GameID == gameID {
			return u
		}
	}
	return nil
}

// ChatRepository keeps the support chat log in memory.
type ChatRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.ChatMessage
}

// NewChatRepository creates an empty ChatRepository.
func NewChatRepository() *ChatRepository {
	return &ChatRepository{}
}

func (r *ChatRepository) ListByGameID(_ context.Context, gameID string) ([]*model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.ChatMessage
	for _, m := range r.rows {
		if m.GameID == gameID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *ChatRepository) Create(_ context.Context, msg *model.ChatMessage) (*model.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := *msg
	row.ID = r.nextID
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now()
	}
	r.rows = append(r.rows, &row)

	cp := row
	return &cp, nil
}

func (r *ChatRepository) MarkRead(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.rows {
		if m.GameID == gameID && m.Sender == model.SenderUser {
			m.IsRead = true
		}
	}
	return nil
}

func (r *ChatRepository) Conversations(_ context.Context) ([]*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byGame := make(map[string]*model.Conversation)
	for _, m := range r.rows {
		c, ok := byGame[m.GameID]
		if !ok {
			c = &model.Conversation{GameID: m.GameID}
			byGame[m.GameID] = c
		}
		if !m.CreatedAt.Before(c.LastActivityAt) {
			c.LastActivityAt = m.CreatedAt
			c.LastMessage = m.Text
		}
		if m.Sender == model.SenderUser && !m.IsRead {
			c.UnreadCount++
		}
	}

	out := make([]*model.Conversation, 0, len(byGame))
	for _, c := range byGame {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivityAt.Equal(out[j].LastActivityAt) {
			return strings.Compare(out[i].GameID, out[j].GameID) < 0
		}
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	return out, nil
}

// ReviewRepository keeps buyer reviews in memory.
type ReviewRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   []*model.Review
}

// NewReviewRepository creates an empty ReviewRepository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{}
}

func (r *ReviewRepository) List(_ context.Context, verifiedOnly bool) ([]*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*model.Review, 0, len(r.rows))
	for i := len(r.rows) - 1; i >= 0; i-- {
		if verifiedOnly && !r.rows[i].IsVerified {
			continue
		}
		cp := *r.rows[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *ReviewRepository) Create(_ context.Context, review *model.Review) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	row := *review
	row.ID = r.nextID
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now()
	}
	r.rows = append(r.rows, &row)

	cp := row
	return &cp, nil
}

func (r *ReviewRepository) Verify(_ context.Context, id int64) (*model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.ID == id {
			row.IsVerified = true
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ReviewRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, row := range r.rows {
		if row.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}
