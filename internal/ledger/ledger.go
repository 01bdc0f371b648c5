// Package ledger holds the shared basket and the running spend against the hidden budget.
package ledger

import (
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateLink indicates that another basket item already uses the link.
	ErrDuplicateLink = errors.New("link is already in the basket")
	// ErrOverBudget indicates that accepting the price would exceed the budget limit.
	ErrOverBudget = errors.New("price exceeds the remaining budget")
	// ErrIndexOutOfRange indicates that no item exists at the requested 1-based position.
	ErrIndexOutOfRange = errors.New("item index out of range")
)

// Item is a single basket entry.
type Item struct {
	Link  string          `json:"link"`
	Price decimal.Decimal `json:"price"`
	Name  string          `json:"name"`
}

// Snapshot is a consistent copy of the ledger, including figures never shown to regular users.
type Snapshot struct {
	Items     []Item
	Spent     decimal.Decimal
	Limit     decimal.Decimal
	Remaining decimal.Decimal
}

// Observer receives a snapshot after every successful mutation. It runs while the
// ledger is locked and must not call back into the ledger.
type Observer func(Snapshot)

// Ledger is the single shared basket. All methods are safe for concurrent use.
type Ledger struct {
	mu       sync.Mutex
	limit    decimal.Decimal
	items    []Item
	spent    decimal.Decimal
	observer Observer
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithObserver registers fn to be called after each mutation.
func WithObserver(fn Observer) Option {
	return func(l *Ledger) {
		l.observer = fn
	}
}

// New creates an empty ledger bounded by limit.
func New(limit decimal.Decimal, opts ...Option) *Ledger {
	l := &Ledger{
		limit: limit,
		items: make([]Item, 0),
		spent: decimal.Zero,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Add appends a new item when its link is unique and its price fits the remaining budget.
func (l *Ledger) Add(link string, price decimal.Decimal, name string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOfLocked(link, -1) >= 0 {
		return Item{}, ErrDuplicateLink
	}
	if l.spent.Add(price).GreaterThan(l.limit) {
		return Item{}, ErrOverBudget
	}

	item := Item{Link: link, Price: price, Name: name}
	l.items = append(l.items, item)
	l.spent = l.spent.Add(price)
	l.notifyLocked()

	return item, nil
}

// Remove deletes the item at the 1-based index and refunds its price.
func (l *Ledger) Remove(index int) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 1 || index > len(l.items) {
		return Item{}, ErrIndexOutOfRange
	}

	removed := l.items[index-1]
	l.items = append(l.items[:index-1], l.items[index:]...)
	l.spent = l.spent.Sub(removed.Price)
	l.notifyLocked()

	return removed, nil
}

// EditLink replaces the link of the item at the 1-based index, keeping its price and name.
func (l *Ledger) EditLink(index int, newLink string) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 1 || index > len(l.items) {
		return Item{}, ErrIndexOutOfRange
	}
	if l.indexOfLocked(newLink, index-1) >= 0 {
		return Item{}, ErrDuplicateLink
	}

	l.items[index-1].Link = newLink
	l.notifyLocked()

	return l.items[index-1], nil
}

// List returns a copy of the basket in insertion order.
func (l *Ledger) List() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.copyItemsLocked()
}

// Item returns the item at the 1-based index.
func (l *Ledger) Item(index int) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 1 || index > len(l.items) {
		return Item{}, ErrIndexOutOfRange
	}
	return l.items[index-1], nil
}

// Len reports the number of items.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.items)
}

// Contains reports whether any item uses link.
func (l *Ledger) Contains(link string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.indexOfLocked(link, -1) >= 0
}

// CanAfford reports whether price currently fits the remaining budget.
// Add re-checks atomically, so a true result is advisory only.
func (l *Ledger) CanAfford(price decimal.Decimal) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return !l.spent.Add(price).GreaterThan(l.limit)
}

// Snapshot returns a consistent copy of items, spend, limit and remaining budget.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.snapshotLocked()
}

// Reset empties the basket and zeroes the spend.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make([]Item, 0)
	l.spent = decimal.Zero
	l.notifyLocked()
}

func (l *Ledger) indexOfLocked(link string, skip int) int {
	for i, item := range l.items {
		if i != skip && item.Link == link {
			return i
		}
	}
	return -1
}

func (l *Ledger) copyItemsLocked() []Item {
	items := make([]Item, len(l.items))
	copy(items, l.items)
	return items
}

func (l *Ledger) snapshotLocked() Snapshot {
	return Snapshot{
		Items:     l.copyItemsLocked(),
		Spent:     l.spent,
		Limit:     l.limit,
		Remaining: l.limit.Sub(l.spent),
	}
}

func (l *Ledger) notifyLocked() {
	if l.observer != nil {
		l.observer(l.snapshotLocked())
	}
}
