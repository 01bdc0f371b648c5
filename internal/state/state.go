package state

import (
	"time"

	"github.com/shopspring/decimal"
)

// State represents a conversation state of a single user.
type State string

const (
	// StateIdle means no multi-step flow is in progress.
	StateIdle State = "idle"
	// StateAwaitingPrice means a link was accepted and its price is expected.
	StateAwaitingPrice State = "awaiting_price"
	// StateAwaitingName means link and price were accepted and the item name is expected.
	StateAwaitingName State = "awaiting_name"
	// StateAwaitingRemovalTarget means the number of the item to remove is expected.
	StateAwaitingRemovalTarget State = "awaiting_removal_target"
	// StateAwaitingEditTarget means the number of the item whose link changes is expected.
	StateAwaitingEditTarget State = "awaiting_edit_target"
	// StateAwaitingNewLink means the replacement link for the selected item is expected.
	StateAwaitingNewLink State = "awaiting_new_link"
)

// All lists every state in declaration order.
func All() []State {
	return []State{
		StateIdle,
		StateAwaitingPrice,
		StateAwaitingName,
		StateAwaitingRemovalTarget,
		StateAwaitingEditTarget,
		StateAwaitingNewLink,
	}
}

// Known reports whether s is one of the declared states.
func (s State) Known() bool {
	for _, candidate := range All() {
		if candidate == s {
			return true
		}
	}
	return false
}

// Awaiting reports whether the state expects a follow-up answer.
func (s State) Awaiting() bool {
	return s != StateIdle && s != ""
}

// PendingEntry is the partially entered data of an unfinished flow.
type PendingEntry struct {
	Link      string          `json:"link,omitempty"`
	Price     decimal.Decimal `json:"price"`
	EditIndex int             `json:"edit_index,omitempty"`
}

// IsZero reports whether the entry carries no data.
func (p PendingEntry) IsZero() bool {
	return p.Link == "" && p.Price.IsZero() && p.EditIndex == 0
}

// UserState captures the conversation state of a Telegram user.
type UserState struct {
	UserID       int64        `json:"user_id"`
	CurrentState State        `json:"current_state"`
	Pending      PendingEntry `json:"pending"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func idleState(userID int64) *UserState {
	return &UserState{UserID: userID, CurrentState: StateIdle}
}
