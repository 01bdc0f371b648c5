package conversation

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/media"
	"github.com/Proton-105/giftbasket-bot/internal/money"
	"github.com/Proton-105/giftbasket-bot/internal/state"
)

// startAction runs the flow a menu label names, discarding any pending entry.
func (e *Engine) startAction(action Action) (Reply, next) {
	if action == ActionList {
		return e.ListItems(), toIdle()
	}

	if e.gate.Passed() {
		return e.closed(), toIdle()
	}

	switch action {
	case ActionAdd:
		return Reply{Text: e.tr.T("basket.ask_link"), Menu: true, Outcome: OutcomePrompt}, toIdle()
	case ActionRemove:
		return e.chooseItem("remove", state.StateAwaitingRemovalTarget)
	case ActionEdit:
		return e.chooseItem("edit", state.StateAwaitingEditTarget)
	default:
		return Reply{Text: e.tr.T("menu.prompt"), Menu: true, Outcome: OutcomePrompt}, toIdle()
	}
}

// chooseItem lists the basket and asks for a number, or reports an empty basket.
func (e *Engine) chooseItem(section string, target state.State) (Reply, next) {
	items := e.ledger.List()
	if len(items) == 0 {
		return Reply{Text: e.tr.T(section + ".empty"), Menu: true, Outcome: OutcomeListed}, toIdle()
	}

	text := e.tr.T(section+".choose") + "\n\n" + e.itemLines(items) + "\n\n" + e.tr.T("list.ask_number")
	return Reply{Text: text, Outcome: OutcomePrompt}, next{state: target}
}

func (e *Engine) handleIdle(_ context.Context, text string, _ *state.UserState) (Reply, next) {
	if e.gate.Passed() {
		return e.closed(), toIdle()
	}

	link, ok := extractURL(text)
	if !ok {
		return Reply{Text: e.tr.T("basket.send_link"), Menu: true, Outcome: OutcomeInvalidInput}, toIdle()
	}

	if e.ledger.Contains(link) {
		return Reply{Text: e.tr.T("basket.duplicate"), Menu: true, Outcome: OutcomeDuplicateLink}, toIdle()
	}

	return Reply{Text: e.tr.T("basket.ask_price"), Outcome: OutcomePrompt},
		next{state: state.StateAwaitingPrice, pending: state.PendingEntry{Link: link}}
}

func (e *Engine) handlePrice(_ context.Context, text string, current *state.UserState) (Reply, next) {
	stay := next{state: state.StateAwaitingPrice, pending: current.Pending}

	price, err := money.ParsePrice(text, e.cfg.MaxPrice)
	switch {
	case errors.Is(err, money.ErrOutOfRange):
		return Reply{Text: e.tr.T("basket.price_out_of_range"), Outcome: OutcomeInvalidInput}, stay
	case err != nil:
		return Reply{Text: e.tr.T("basket.price_unparsed"), Outcome: OutcomeInvalidInput}, stay
	}

	if !e.ledger.CanAfford(price) {
		return e.overBudget(price), toIdle()
	}

	return Reply{Text: e.tr.T("basket.ask_name"), Outcome: OutcomePrompt},
		next{state: state.StateAwaitingName, pending: state.PendingEntry{Link: current.Pending.Link, Price: price}}
}

func (e *Engine) handleName(_ context.Context, text string, current *state.UserState) (Reply, next) {
	if text == "" {
		return Reply{Text: e.tr.T("basket.ask_name"), Outcome: OutcomeInvalidInput},
			next{state: state.StateAwaitingName, pending: current.Pending}
	}

	item, err := e.ledger.Add(current.Pending.Link, current.Pending.Price, text)
	switch {
	case errors.Is(err, ledger.ErrOverBudget):
		return e.overBudget(current.Pending.Price), toIdle()
	case errors.Is(err, ledger.ErrDuplicateLink):
		return Reply{Text: e.tr.T("basket.duplicate"), Menu: true, Outcome: OutcomeDuplicateLink}, toIdle()
	case err != nil:
		e.log.Error("unexpected ledger error", "error", err)
		return Reply{Text: e.tr.T("basket.ask_link"), Menu: true, Outcome: OutcomeInvalidInput}, toIdle()
	}

	return Reply{
		Text: e.tr.Tf("basket.added", map[string]any{
			"name":  item.Name,
			"price": e.price(item.Price),
		}),
		Menu:    true,
		Media:   media.Success,
		Outcome: OutcomeItemAdded,
	}, toIdle()
}

func (e *Engine) handleRemovalTarget(_ context.Context, text string, _ *state.UserState) (Reply, next) {
	index, ok := parseIndex(text)
	if !ok {
		return e.notANumber(), toIdle()
	}

	removed, err := e.ledger.Remove(index)
	if err != nil {
		return e.noSuchItem(index), toIdle()
	}

	return Reply{
		Text: e.tr.Tf("remove.done", map[string]any{
			"name":  removed.Name,
			"price": e.price(removed.Price),
		}),
		Menu:    true,
		Media:   media.Refund,
		Outcome: OutcomeItemRemoved,
	}, toIdle()
}

func (e *Engine) handleEditTarget(_ context.Context, text string, _ *state.UserState) (Reply, next) {
	index, ok := parseIndex(text)
	if !ok {
		return e.notANumber(), toIdle()
	}

	item, err := e.ledger.Item(index)
	if err != nil {
		return e.noSuchItem(index), toIdle()
	}

	reply := Reply{
		Text: e.tr.Tf("edit.ask_link", map[string]any{
			"name":  item.Name,
			"price": e.price(item.Price),
		}),
		Outcome: OutcomePrompt,
	}
	return reply, next{state: state.StateAwaitingNewLink, pending: state.PendingEntry{EditIndex: index}}
}

func (e *Engine) handleNewLink(_ context.Context, text string, current *state.UserState) (Reply, next) {
	stay := next{state: state.StateAwaitingNewLink, pending: current.Pending}

	link, ok := extractURL(text)
	if !ok {
		return Reply{Text: e.tr.T("edit.send_link"), Outcome: OutcomeInvalidInput}, stay
	}

	item, err := e.ledger.EditLink(current.Pending.EditIndex, link)
	switch {
	case errors.Is(err, ledger.ErrDuplicateLink):
		return Reply{Text: e.tr.T("edit.duplicate"), Outcome: OutcomeDuplicateLink}, stay
	case err != nil:
		// the item was removed by someone else after it was selected
		return e.noSuchItem(current.Pending.EditIndex), toIdle()
	}

	return Reply{
		Text:    e.tr.Tf("edit.done", map[string]any{"name": item.Name}),
		Menu:    true,
		Outcome: OutcomeLinkEdited,
	}, toIdle()
}

func (e *Engine) overBudget(price decimal.Decimal) Reply {
	return Reply{
		Text:    e.tr.Tf("basket.over_budget", map[string]any{"price": e.price(price)}),
		Menu:    true,
		Outcome: OutcomeOverBudget,
	}
}

func (e *Engine) notANumber() Reply {
	return Reply{Text: e.tr.T("list.not_a_number"), Menu: true, Outcome: OutcomeInvalidInput}
}

func (e *Engine) noSuchItem(index int) Reply {
	return Reply{Text: e.tr.Tf("list.no_such_item", map[string]any{"index": index}), Menu: true, Outcome: OutcomeOutOfRange}
}
