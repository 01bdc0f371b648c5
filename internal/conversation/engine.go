// Package conversation drives the per-user basket dialogues on top of the shared ledger.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/giftbasket-bot/internal/deadline"
	apperrors "github.com/Proton-105/giftbasket-bot/internal/errors"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/internal/state"
)

// Outcome classifies a reply for metrics and logs.
type Outcome string

const (
	OutcomePrompt        Outcome = "prompt"
	OutcomeListed        Outcome = "listed"
	OutcomeItemAdded     Outcome = "item_added"
	OutcomeItemRemoved   Outcome = "item_removed"
	OutcomeLinkEdited    Outcome = "link_edited"
	OutcomeDuplicateLink Outcome = "duplicate_link"
	OutcomeOverBudget    Outcome = "over_budget"
	OutcomeInvalidInput  Outcome = "invalid_input"
	OutcomeOutOfRange    Outcome = "index_out_of_range"
	OutcomeClosed        Outcome = "deadline_closed"
	OutcomeCancelled     Outcome = "cancelled"
)

// Input is one inbound text message.
type Input struct {
	UserID int64
	Text   string
}

// Reply is what the transport should send back.
type Reply struct {
	Text string
	// Menu asks the transport to attach the main reply keyboard.
	Menu    bool
	Media   media.Kind
	Outcome Outcome
}

// next is the state a step leaves the user in.
type next struct {
	state   state.State
	pending state.PendingEntry
}

func toIdle() next {
	return next{state: state.StateIdle}
}

type stepFunc func(ctx context.Context, text string, current *state.UserState) (Reply, next)

// Config carries the fixed business parameters of the engine.
type Config struct {
	Currency string
	MaxPrice decimal.Decimal
}

// Engine maps (state, input) to a ledger action, a reply and the next state.
type Engine struct {
	ledger *ledger.Ledger
	gate   *deadline.Gate
	states state.StateMachine
	tr     i18n.Translator
	menu   Menu
	cfg    Config
	log    *slog.Logger
	steps  map[state.State]stepFunc
}

// NewEngine wires the engine and registers one step per awaiting state.
func NewEngine(l *ledger.Ledger, gate *deadline.Gate, states state.StateMachine, tr i18n.Translator, cfg Config, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		ledger: l,
		gate:   gate,
		states: states,
		tr:     tr,
		menu:   NewMenu(tr),
		cfg:    cfg,
		log:    log,
	}

	e.steps = map[state.State]stepFunc{
		state.StateIdle:                  e.handleIdle,
		state.StateAwaitingPrice:         e.handlePrice,
		state.StateAwaitingName:          e.handleName,
		state.StateAwaitingRemovalTarget: e.handleRemovalTarget,
		state.StateAwaitingEditTarget:    e.handleEditTarget,
		state.StateAwaitingNewLink:       e.handleNewLink,
	}

	return e
}

// Menu exposes the label set used for classification.
func (e *Engine) Menu() Menu {
	return e.menu
}

// Handle processes one free-text message under the user's lock.
func (e *Engine) Handle(ctx context.Context, in Input) (Reply, error) {
	unlock, err := e.states.Lock(ctx, in.UserID)
	if err != nil {
		return Reply{}, apperrors.NewStorageError(err)
	}
	defer unlock()

	current, err := e.states.Current(ctx, in.UserID)
	if err != nil {
		return Reply{}, apperrors.NewStorageError(fmt.Errorf("load state: %w", err))
	}

	text := strings.TrimSpace(in.Text)

	var (
		reply Reply
		to    next
	)

	switch action, isLabel := e.menu.Match(text); {
	case isLabel:
		// menu labels pre-empt whatever flow is in progress
		reply, to = e.startAction(action)
	case current.CurrentState.Awaiting() && e.gate.Passed():
		reply, to = e.closed(), toIdle()
	default:
		step, ok := e.steps[current.CurrentState]
		if !ok {
			e.log.Warn("unknown conversation state, resetting", "user_id", in.UserID, "state", current.CurrentState)
			if err := e.states.Reset(ctx, in.UserID); err != nil {
				return Reply{}, apperrors.NewStorageError(fmt.Errorf("reset state: %w", err))
			}
			step = e.handleIdle
			current = &state.UserState{UserID: in.UserID, CurrentState: state.StateIdle}
		}
		reply, to = step(ctx, text, current)
	}

	e.commit(ctx, in.UserID, current.CurrentState, to)

	return reply, nil
}

// Cancel discards any pending entry and returns the user to idle.
func (e *Engine) Cancel(ctx context.Context, userID int64) (Reply, error) {
	if err := e.Abort(ctx, userID); err != nil {
		return Reply{}, err
	}

	return Reply{Text: e.tr.T("cancel.done"), Menu: true, Outcome: OutcomeCancelled}, nil
}

// Abort silently drops the user's flow. Commands like /start and /menu call it.
func (e *Engine) Abort(ctx context.Context, userID int64) error {
	unlock, err := e.states.Lock(ctx, userID)
	if err != nil {
		return apperrors.NewStorageError(err)
	}
	defer unlock()

	if err := e.states.Reset(ctx, userID); err != nil {
		return apperrors.NewStorageError(fmt.Errorf("reset state: %w", err))
	}
	return nil
}

// commit stores the next state. The reply stands even if storing fails,
// because the ledger side of the step has already happened.
func (e *Engine) commit(ctx context.Context, userID int64, from state.State, to next) {
	if from == state.StateIdle && to.state == state.StateIdle {
		return
	}

	if err := e.states.TransitionTo(ctx, userID, to.state, to.pending); err != nil {
		e.log.Error("failed to store conversation state",
			"user_id", userID,
			"from", from,
			"to", to.state,
			"error", err,
		)
	}
}

func (e *Engine) closed() Reply {
	return Reply{Text: e.tr.T("deadline.closed"), Outcome: OutcomeClosed}
}

func (e *Engine) price(amount decimal.Decimal) string {
	return formatPrice(amount, e.cfg.Currency)
}
