// Package bot wires the Telegram transport to the basket conversation.
package bot

import (
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
	"github.com/Proton-105/giftbasket-bot/internal/bot/keyboard"
	"github.com/Proton-105/giftbasket-bot/internal/conversation"
	"github.com/Proton-105/giftbasket-bot/internal/deadline"
	errors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/idempotency"
	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/internal/middleware"
	"github.com/Proton-105/giftbasket-bot/internal/users"
	"github.com/Proton-105/giftbasket-bot/pkg/config"
)

const updateTimeout = time.Minute

// Dependencies are the services the handlers run on.
type Dependencies struct {
	Engine     *conversation.Engine
	Ledger     *ledger.Ledger
	Gate       *deadline.Gate
	Users      *users.Registry
	Reminder   handlers.Reminder
	Translator i18n.Translator
	Media      *media.Library
	Guard      *idempotency.Guard
	RateLimit  *middleware.RateLimitMiddleware
	ErrHandler *errors.Handler
}

// Bot wraps telebot.Bot with application dependencies required for handling updates.
type Bot struct {
	telebot *telebot.Bot
	log     *slog.Logger
	cfg     config.Config
	router  *Router
}

// New connects to Telegram with the configured poller. Handlers are attached by Mount.
func New(cfg config.Config, log *slog.Logger) (*Bot, error) {
	if log == nil {
		log = slog.Default()
	}

	settings := telebot.Settings{
		Token: cfg.Bot.Token,
		OnError: func(err error, c telebot.Context) {
			log.Error("telebot error", slog.Any("error", err))
		},
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen:   cfg.Bot.Listen,
			Endpoint: &telebot.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return &Bot{
		telebot: tb,
		log:     log,
		cfg:     cfg,
		router:  NewRouter(log),
	}, nil
}

// Mount builds the middleware chain and registers every command.
func (b *Bot) Mount(deps Dependencies) {
	setupRouter(b.router, b.cfg, deps, b.log)

	if deps.RateLimit != nil {
		b.telebot.Use(deps.RateLimit.Handle)
	}

	b.telebot.Handle(telebot.OnText, b.router.Route)
}

// Start runs the telegram bot event loop. It blocks until Stop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations such as health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func setupRouter(router *Router, cfg config.Config, deps Dependencies, log *slog.Logger) {
	resp := handlers.NewResponder(deps.Media, keyboard.MainMenu(deps.Translator), log)
	tr := deps.Translator

	router.Use(RecoveryMiddleware(log, deps.ErrHandler))
	router.Use(middleware.Idempotency(deps.Guard, log))
	router.Use(LoggingMiddleware(log))
	router.Use(ErrorHandlingMiddleware(deps.ErrHandler, log))
	router.Use(TimeoutMiddleware(updateTimeout))
	router.Use(TrackUsersMiddleware(deps.Users, log))
	router.Use(middleware.Metrics(menuLabel(deps.Engine.Menu())))

	router.RegisterCommand(CommandStart, handlers.NewStartHandler(deps.Engine, deps.Gate, tr, resp, log))
	router.RegisterCommand(CommandMenu, handlers.NewMenuHandler(deps.Engine, deps.Gate, tr, resp))
	router.RegisterCommand(CommandCancel, handlers.NewCancelHandler(deps.Engine, resp, log))
	router.RegisterCommand(CommandMyID, handlers.NewMyIDHandler(tr, resp))

	adminOnly := handlers.AdminOnly(cfg.Bot.AdminID, log)
	router.RegisterCommand(CommandBudget, adminOnly(handlers.NewBudgetHandler(deps.Ledger, tr, cfg.Budget.Currency, resp)))
	router.RegisterCommand(CommandReset, adminOnly(handlers.NewResetHandler(deps.Ledger, tr, resp, log)))
	router.RegisterCommand(CommandTestReminder, adminOnly(handlers.NewTestReminderHandler(deps.Reminder, tr, resp)))

	router.SetDefault(handlers.NewTextHandler(deps.Engine, resp, log))
}

// menuLabel names menu presses by action for the update metrics.
func menuLabel(menu conversation.Menu) func(string) string {
	return func(text string) string {
		if action, ok := menu.Match(text); ok {
			return "menu_" + action.String()
		}
		return ""
	}
}
