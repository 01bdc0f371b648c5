package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/Proton-105/giftbasket-bot/internal/bot"
	"github.com/Proton-105/giftbasket-bot/internal/conversation"
	"github.com/Proton-105/giftbasket-bot/internal/deadline"
	apperrors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/health"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/idempotency"
	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/lifecycle"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/internal/middleware"
	"github.com/Proton-105/giftbasket-bot/internal/notifier"
	"github.com/Proton-105/giftbasket-bot/internal/ratelimit"
	"github.com/Proton-105/giftbasket-bot/internal/scheduler"
	"github.com/Proton-105/giftbasket-bot/internal/state"
	"github.com/Proton-105/giftbasket-bot/internal/users"
	"github.com/Proton-105/giftbasket-bot/pkg/config"
	"github.com/Proton-105/giftbasket-bot/pkg/graceful"
	"github.com/Proton-105/giftbasket-bot/pkg/logger"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
	redisclient "github.com/Proton-105/giftbasket-bot/pkg/redis"
)

const sweepInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "giftbasket-bot:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			log.Error("failed to initialize sentry", slog.Any("error", err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	config.Watch(v, func(next *config.Config) {
		logger.SetLevel(next.Logger.Level)
		log.Info("configuration reloaded", slog.String("log_level", next.Logger.Level))
	})

	limit, err := cfg.BudgetLimit()
	if err != nil {
		return err
	}
	maxPrice, err := cfg.MaxPrice()
	if err != nil {
		return err
	}
	cutoff, err := cfg.Cutoff()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	catalog, err := i18n.Load(cfg.Bot.Language)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	tr := catalog.Translator(cfg.Bot.Language)

	basket := ledger.New(limit, ledger.WithObserver(func(s ledger.Snapshot) {
		spent, _ := s.Spent.Float64()
		metrics.SetBasket(len(s.Items), spent)
	}))
	gate := deadline.NewGate(cutoff)
	registry := users.NewRegistry(users.WithGrowthHook(metrics.SetKnownUsers))
	library := media.NewLibrary(cfg.Bot.MediaDir)

	var rdb *goredis.Client
	if cfg.Redis.Enabled {
		rdb, err = redisclient.New(ctx, redisclient.ConfigFrom(cfg.Redis))
		if err != nil {
			return err
		}
	}

	var storage state.Storage = state.NewMemoryStorage()
	if cfg.State.Backend == "redis" {
		if rdb == nil {
			return errors.New("state backend redis requires redis.enabled")
		}
		storage = state.NewRedisStorage(rdb, log, cfg.State.TTL)
	}
	fsm := state.NewStateMachine(storage, log)

	engine := conversation.NewEngine(basket, gate, fsm, tr, conversation.Config{
		Currency: cfg.Budget.Currency,
		MaxPrice: maxPrice,
	}, log)

	var updates idempotency.Store = idempotency.NewMemoryStore()
	if rdb != nil {
		updates = idempotency.NewRedisStore(rdb, log)
	}
	guard := idempotency.NewGuard(updates, idempotency.DefaultTTL, log)

	var (
		rateLimit     *middleware.RateLimitMiddleware
		memoryLimiter *ratelimit.MemoryLimiter
	)
	if cfg.RateLimit.Enabled {
		memoryLimiter = ratelimit.NewMemoryLimiter(log)
		var limiter ratelimit.Limiter = memoryLimiter
		if rdb != nil {
			limiter = ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memoryLimiter, log)
		}
		rules, err := ratelimit.NewRules(cfg.RateLimit, cfg.Bot.AdminID)
		if err != nil {
			return err
		}
		rateLimit = middleware.NewRateLimitMiddleware(limiter, rules, tr, log)
	}

	b, err := bot.New(*cfg, log)
	if err != nil {
		return err
	}

	notify := notifier.New(bot.NewSender(b.Telebot(), library, log), registry, gate, tr, notifier.Config{
		AdminID:     cfg.Bot.AdminID,
		Concurrency: cfg.Notifier.Concurrency,
		SendTimeout: cfg.Notifier.SendTimeout,
	}, log)

	b.Mount(bot.Dependencies{
		Engine:     engine,
		Ledger:     basket,
		Gate:       gate,
		Users:      registry,
		Reminder:   notify,
		Translator: tr,
		Media:      library,
		Guard:      guard,
		RateLimit:  rateLimit,
		ErrHandler: apperrors.NewHandler(log, cfg.Sentry.Enabled),
	})

	sched := scheduler.New(loc, log)
	if err := scheduleDeadline(sched, gate, notify, cfg.Deadline.ReminderSpec, log); err != nil {
		return err
	}

	checker := health.NewChecker(log)
	checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
	if rdb != nil {
		checker.AddCheck("redis", health.NewRedisChecker(rdb))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	server := graceful.NewServer(log, cfg.Server.Addr, logger.Middleware(middleware.HTTPLogging(log)(mux)), cfg.Server.ShutdownTimeout)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register(lifecycle.Hook{Name: "telegram", Fn: func(ctx context.Context) error {
		return waitFor(ctx, b.Stop)
	}})
	shutdown.Register(lifecycle.Hook{Name: "scheduler", Fn: sched.Stop})
	if rdb != nil {
		shutdown.Register(lifecycle.CloseHook("redis", rdb.Close))
	}

	log.Info("starting gift basket bot",
		slog.String("mode", cfg.Bot.Mode),
		slog.Time("deadline", cutoff),
		slog.String("state_backend", cfg.State.Backend),
		slog.Bool("redis", rdb != nil),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.ListenAndServe(gctx) })
	g.Go(func() error {
		state.NewCleaner(storage, log, cfg.State.TTL, cfg.State.CleanupInterval).Run(gctx)
		return nil
	})
	g.Go(func() error {
		idempotency.NewCleaner(updates, log, sweepInterval).Run(gctx)
		return nil
	})
	if memoryLimiter != nil {
		g.Go(func() error {
			ratelimit.NewCleaner(rdb, memoryLimiter, 5*time.Minute, log, sweepInterval).Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		metrics.NewStateCollector(fsm, registry.Len).Run(gctx)
		return nil
	})

	sched.Start()
	g.Go(func() error {
		b.Start()
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return shutdown.Execute(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("gift basket bot stopped")
	return nil
}

// scheduleDeadline registers the cutoff announcement and the daily countdown.
// Nothing is scheduled when the deadline is already behind us.
func scheduleDeadline(sched *scheduler.Scheduler, gate *deadline.Gate, notify *notifier.Notifier, reminderSpec string, log *slog.Logger) error {
	if gate.PassedAt(time.Now()) {
		log.Warn("deadline already passed, no jobs scheduled", slog.Time("deadline", gate.Cutoff()))
		return nil
	}

	countdown, err := sched.Daily("countdown", reminderSpec, func(ctx context.Context) {
		report := notify.SendCountdown(ctx)
		log.Info("countdown reminder sent", slog.Int("sent", report.Sent), slog.Int("failed", report.Failed))
	})
	if err != nil {
		return fmt.Errorf("schedule countdown: %w", err)
	}

	sched.Once("deadline", gate.Cutoff(), func(ctx context.Context) {
		sched.Remove(countdown)
		report := notify.NotifyDeadline(ctx)
		log.Info("deadline announced", slog.Int("sent", report.Sent), slog.Int("failed", report.Failed))
	})

	return nil
}

// waitFor runs a blocking stop function but gives up when ctx ends.
func waitFor(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
