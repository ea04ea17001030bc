package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"diamond-shop/internal/metrics"
	"diamond-shop/internal/model"
	"diamond-shop/internal/repository"
	"diamond-shop/internal/service"
)

// Dispatcher errors.
var (
	ErrQueueFull    = errors.New("notification queue is full")
	ErrUnresolvable = errors.New("no telegram chat for game id")
)

// Notification outcomes recorded in metrics.
const (
	OutcomeSent       = "sent"
	OutcomeFailed     = "failed"
	OutcomeDropped    = "dropped"
	OutcomeUnresolved = "unresolved"
)

const fallbackPackageName = "Diamond package"

var chatIDPattern = regexp.MustCompile(`^\d+$`)

// Resolver returns the chat id linked to a game id.
type Resolver interface {
	Resolve(ctx context.Context, gameID string) (string, error)
}

// Options tunes delivery.
type Options struct {
	Workers        int
	QueueSize      int
	Timeout        time.Duration
	MaxRetries     uint64
	InitialBackoff time.Duration
	// FallbackToGameID sends to the game id itself when no chat is linked
	// and the id is numeric.
	FallbackToGameID bool
	SiteURL          string
}

// Dispatcher delivers payment notifications. Enqueue hands payments to a
// bounded queue drained by Run.
type Dispatcher struct {
	sender   Sender
	resolver Resolver
	packages repository.PackageRepository
	metrics  *metrics.Metrics
	opts     Options
	queue    chan *model.Payment
}

// NewDispatcher creates a new Dispatcher instance.
func NewDispatcher(sender Sender, resolver Resolver, packages repository.PackageRepository, m *metrics.Metrics, opts Options) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = 500 * time.Millisecond
	}
	return &Dispatcher{
		sender:   sender,
		resolver: resolver,
		packages: packages,
		metrics:  m,
		opts:     opts,
		queue:    make(chan *model.Payment, opts.QueueSize),
	}
}

// Enqueue schedules a notification for p without blocking.
func (d *Dispatcher) Enqueue(p *model.Payment) error {
	select {
	case d.queue <- p:
		d.metrics.SetQueueDepth(len(d.queue))
		return nil
	default:
		d.metrics.Notification(OutcomeDropped)
		log.Error().
			Int64("payment_id", p.ID).
			Str("status", string(p.Status)).
			Msg("Notification queue full, dropping notification")
		return ErrQueueFull
	}
}

// Run drains the queue with the configured number of workers until ctx is
// done, then delivers whatever is still queued with a single attempt each.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Info().Int("workers", d.opts.Workers).Int("queue_size", d.opts.QueueSize).Msg("Notification dispatcher started")

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.opts.Workers; i++ {
		g.Go(func() error {
			d.work(gctx)
			return nil
		})
	}
	_ = g.Wait()

	d.drain()
	log.Info().Msg("Notification dispatcher stopped")
	return nil
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case p := <-d.queue:
			d.metrics.SetQueueDepth(len(d.queue))
			d.deliver(ctx, p)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case p := <-d.queue:
			d.metrics.SetQueueDepth(len(d.queue))
			if err := d.Notify(context.Background(), p); err != nil {
				log.Warn().Err(err).Int64("payment_id", p.ID).Msg("Failed to deliver queued notification on shutdown")
			}
		default:
			return
		}
	}
}

// deliver retries transient failures with exponential backoff.
func (d *Dispatcher) deliver(ctx context.Context, p *model.Payment) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.opts.InitialBackoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, d.opts.MaxRetries), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		err := d.Notify(ctx, p)
		if errors.Is(err, ErrUnresolvable) || errors.Is(err, ErrUndeliverable) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		log.Warn().Err(err).
			Int64("payment_id", p.ID).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("Notification attempt failed")
	})
	if err != nil && !errors.Is(err, ErrUnresolvable) {
		log.Error().Err(err).Int64("payment_id", p.ID).Int("attempts", attempt).Msg("Failed to deliver notification")
	}
}

// Notify makes one delivery attempt for p: it resolves the target chat,
// renders the message and sends it.
func (d *Dispatcher) Notify(ctx context.Context, p *model.Payment) error {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	chatID, err := d.target(ctx, p.GameID)
	if err != nil {
		if errors.Is(err, ErrUnresolvable) {
			d.metrics.Notification(OutcomeUnresolved)
			log.Info().Int64("payment_id", p.ID).Str("game_id", p.GameID).Msg("No telegram chat for payment, notification skipped")
		} else {
			d.metrics.Notification(OutcomeFailed)
		}
		return err
	}
	return d.NotifyChat(ctx, chatID, p)
}

// NotifyChat sends the notification for p to chatID.
func (d *Dispatcher) NotifyChat(ctx context.Context, chatID int64, p *model.Payment) error {
	msg := Render(p, d.packageName(ctx, p), d.opts.SiteURL)
	if err := d.sender.Send(ctx, chatID, msg); err != nil {
		d.metrics.Notification(OutcomeFailed)
		return err
	}
	d.metrics.Notification(OutcomeSent)
	log.Info().Int64("payment_id", p.ID).Int64("chat_id", chatID).Str("status", string(p.Status)).Msg("Payment notification sent")
	return nil
}

// target resolves the linked chat first and falls back to the game id.
func (d *Dispatcher) target(ctx context.Context, gameID string) (int64, error) {
	chat, err := d.resolver.Resolve(ctx, gameID)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrUserNotLinked):
		if !d.opts.FallbackToGameID {
			return 0, ErrUnresolvable
		}
		chat = gameID
	default:
		return 0, fmt.Errorf("failed to resolve chat: %w", err)
	}
	return ParseChatID(chat)
}

func (d *Dispatcher) packageName(ctx context.Context, p *model.Payment) string {
	if p.PackageID == nil {
		return fallbackPackageName
	}
	pkg, err := d.packages.Get(ctx, *p.PackageID)
	if err != nil {
		log.Warn().Err(err).Int64("package_id", *p.PackageID).Msg("Package lookup failed for notification")
		return fallbackPackageName
	}
	return pkg.Name
}

// ParseChatID accepts only all-digit chat ids.
func ParseChatID(s string) (int64, error) {
	if !chatIDPattern.MatchString(s) {
		return 0, fmt.Errorf("%w: %q is not numeric", ErrUnresolvable, s)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	return id, nil
}
