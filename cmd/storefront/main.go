// Package main is the entry point for the diamond shop backend: the HTTP
// storefront API, the Telegram bot and the payment notification dispatcher.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"

	"diamond-shop/internal/api"
	"diamond-shop/internal/bot"
	"diamond-shop/internal/config"
	"diamond-shop/internal/handler"
	"diamond-shop/internal/metrics"
	"diamond-shop/internal/nickname"
	"diamond-shop/internal/notify"
	"diamond-shop/internal/pkg/db"
	"diamond-shop/internal/pkg/lock"
	"diamond-shop/internal/repository"
	"diamond-shop/internal/repository/memory"
	"diamond-shop/internal/repository/postgres"
	"diamond-shop/internal/service"
	"diamond-shop/internal/shop"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogging(cfg.Log)

	log.Info().Str("storage", cfg.Storage.Driver).Bool("bot", cfg.Bot.Enabled()).Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, health, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer closeStore()

	if cfg.Storage.Seed {
		if err := repository.Seed(ctx, store); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed catalog")
		}
	}

	m := metrics.New()
	identity := service.NewIdentityService(store.Users, lock.New[string]())

	var (
		telegramBot *bot.Bot
		sender      notify.Sender = notify.LogSender{}
		botUser     *tele.User
	)
	if cfg.Bot.Enabled() {
		telegramBot, err = bot.New(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		sender = notify.NewTelegramSender(telegramBot.Telebot())
		botUser = telegramBot.Me()
	} else {
		log.Warn().Msg("Bot token not set, Telegram bot disabled and notifications will only be logged")
	}

	dispatcher := notify.NewDispatcher(sender, identity, store.Packages, m, notify.Options{
		Workers:          cfg.Notify.Workers,
		QueueSize:        cfg.Notify.QueueSize,
		Timeout:          cfg.Notify.Timeout,
		MaxRetries:       cfg.Notify.MaxRetries,
		InitialBackoff:   cfg.Notify.InitialBackoff,
		FallbackToGameID: cfg.Notify.FallbackToGameID,
		SiteURL:          cfg.Server.SiteURL,
	})

	catalog := service.NewCatalogService(store.Packages, store.PaymentMethods)
	payments := service.NewPaymentService(store, dispatcher, m)
	simulator := service.NewSimulator(payments)
	promos := service.NewPromoService(store.PromoCodes, store.Packages, service.PromoDefaults{
		UsageLimit: cfg.Promo.DefaultUsageLimit,
		ValidDays:  cfg.Promo.DefaultValidDays,
	}, m)
	nicknames := nickname.New(cfg.Nickname.Sources, cfg.Nickname.Timeout, cfg.Nickname.CacheTTL)
	chat := service.NewChatService(store.Chat, nicknames)
	reviews := service.NewReviewService(store.Reviews)

	if telegramBot != nil {
		menu := shop.BuildMenu()
		telegramBot.Register(bot.Handlers{
			Menu:  menu,
			Shop:  handler.NewShopHandler(catalog, payments, identity, reviews, menu, cfg.Server.SiteURL, cfg.Server.ShopName),
			Admin: handler.NewAdminHandler(payments, simulator),
		})
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewHandler(api.Deps{
			Catalog:   catalog,
			Promos:    promos,
			Payments:  payments,
			Simulator: simulator,
			Identity:  identity,
			Chat:      chat,
			Reviews:   reviews,
			Nicknames: nicknames,
			Notifier:  dispatcher,
			Health:    health,
			Metrics:   m,
			Bot:       botUser,
			Server:    cfg.Server,
			Started:   time.Now(),
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if telegramBot != nil {
		g.Go(func() error {
			go telegramBot.Start()
			<-gctx.Done()
			telegramBot.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Shutdown with error")
		return
	}
	log.Info().Msg("Stopped gracefully")
}

func setupLogging(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// openStore selects the repository backend. The returned health checker is
// nil for the in-memory store.
func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, api.HealthChecker, func(), error) {
	if cfg.Storage.Driver != config.DriverPostgres {
		log.Info().Msg("Using in-memory storage")
		return memory.New(), nil, func() {}, nil
	}

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool.Pool); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return postgres.New(pool.Pool), pool, pool.Close, nil
}
