package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/conversation"
	"github.com/Proton-105/giftbasket-bot/internal/deadline"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/pkg/metrics"
)

// deadlineLayout is how the cutoff is shown in the welcome text.
const deadlineLayout = "02.01 15:04"

// NewStartHandler drops any unfinished flow and greets the user with the welcome animation and the menu.
func NewStartHandler(engine *conversation.Engine, gate *deadline.Gate, tr i18n.Translator, resp *Responder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		userID := senderID(c)
		if userID == 0 {
			log.Warn("start handler invoked without sender")
			return nil
		}

		if err := engine.Abort(RequestContext(c), userID); err != nil {
			return err
		}

		if gate.Passed() {
			return resp.Text(c, tr.T("deadline.closed"), false)
		}

		return resp.Reply(c, conversation.Reply{
			Text: tr.Tf("start.welcome", map[string]any{
				"deadline": gate.Cutoff().Format(deadlineLayout),
			}),
			Menu:    true,
			Media:   media.Welcome,
			Outcome: conversation.OutcomePrompt,
		})
	}
}

// NewMenuHandler drops any unfinished flow and shows the menu keyboard.
func NewMenuHandler(engine *conversation.Engine, gate *deadline.Gate, tr i18n.Translator, resp *Responder) Handler {
	return func(c telebot.Context) error {
		userID := senderID(c)
		if userID == 0 {
			return nil
		}

		if err := engine.Abort(RequestContext(c), userID); err != nil {
			return err
		}

		if gate.Passed() {
			return resp.Text(c, tr.T("deadline.closed"), false)
		}

		return resp.Text(c, tr.T("menu.prompt"), true)
	}
}

// NewCancelHandler discards the pending entry and returns the user to the menu.
func NewCancelHandler(engine *conversation.Engine, resp *Responder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		userID := senderID(c)
		if userID == 0 {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		reply, err := engine.Cancel(RequestContext(c), userID)
		if err != nil {
			log.Error("failed to cancel conversation", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		metrics.RecordOutcome(string(reply.Outcome))
		return resp.Reply(c, reply)
	}
}

// NewMyIDHandler tells users their Telegram ID, which is what the admin setting expects.
func NewMyIDHandler(tr i18n.Translator, resp *Responder) Handler {
	return func(c telebot.Context) error {
		userID := senderID(c)
		if userID == 0 {
			return nil
		}

		return resp.Text(c, tr.Tf("myid.text", map[string]any{"id": userID}), false)
	}
}

// NewTextHandler feeds free text and menu labels into the conversation engine.
func NewTextHandler(engine *conversation.Engine, resp *Responder, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		userID := senderID(c)
		if userID == 0 {
			return nil
		}

		reply, err := engine.Handle(RequestContext(c), conversation.Input{
			UserID: userID,
			Text:   c.Text(),
		})
		if err != nil {
			return err
		}

		metrics.RecordOutcome(string(reply.Outcome))
		log.Debug("conversation step handled",
			slog.Int64("user_id", userID),
			slog.String("outcome", string(reply.Outcome)),
		)

		return resp.Reply(c, reply)
	}
}
