package bot

import (
	"log/slog"
	"strings"
	"sync"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/bot/handlers"
)

// Router dispatches text updates: "/command" goes to its registered handler,
// anything else to the fallback that drives the conversation.
type Router struct {
	mu          sync.RWMutex
	commands    map[string]handlers.Handler
	fallback    handlers.Handler
	middlewares []handlers.Middleware
	log         *slog.Logger
}

func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}

	return &Router{
		commands: make(map[string]handlers.Handler),
		log:      log,
	}
}

// RegisterCommand binds cmd, for example "/start". Matching ignores case.
func (r *Router) RegisterCommand(cmd string, h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[strings.ToLower(cmd)] = h
}

// Use appends mw to the chain. The first middleware registered runs outermost.
func (r *Router) Use(mw handlers.Middleware) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.middlewares = append(r.middlewares, mw)
}

// SetDefault sets the handler for text that is not a command.
func (r *Router) SetDefault(h handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = h
}

// Route is the telebot.OnText endpoint. Unknown commands get no reply.
func (r *Router) Route(c telebot.Context) error {
	if c == nil {
		return nil
	}

	h, chain := r.resolve(strings.TrimSpace(c.Text()))
	if h == nil {
		return nil
	}

	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	if h == nil {
		return nil
	}
	return h(c)
}

// resolve picks the handler for text and snapshots the middleware chain under one lock.
func (r *Router) resolve(text string) (handlers.Handler, []handlers.Middleware) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := append([]handlers.Middleware(nil), r.middlewares...)

	if !strings.HasPrefix(text, "/") {
		return r.fallback, chain
	}

	cmd := commandName(text)
	h, ok := r.commands[cmd]
	if !ok {
		r.log.Debug("ignoring unknown command", slog.String("command", cmd))
		return nil, nil
	}
	return h, chain
}

// commandName extracts "/cmd" from "/cmd@botname args".
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(cmd)
}
