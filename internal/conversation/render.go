package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/giftbasket-bot/internal/ledger"
	"github.com/Proton-105/giftbasket-bot/internal/money"
)

var urlPattern = regexp.MustCompile(`https?://\S+`)

// extractURL returns the first http(s) link in text.
func extractURL(text string) (string, bool) {
	link := urlPattern.FindString(text)
	return link, link != ""
}

// parseIndex accepts a whole message that is a (possibly signed) integer.
func parseIndex(text string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, false
	}
	return n, true
}

func formatPrice(amount decimal.Decimal, currency string) string {
	return money.Format(amount, currency)
}

// itemLines renders one numbered line per item.
func (e *Engine) itemLines(items []ledger.Item) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.tr.Tf("list.item", map[string]any{
			"index": i + 1,
			"name":  item.Name,
			"price": e.price(item.Price),
		}))
	}
	return b.String()
}

// ListItems renders the shared basket. It never touches conversation state.
func (e *Engine) ListItems() Reply {
	items := e.ledger.List()
	if len(items) == 0 {
		return Reply{Text: e.tr.T("list.empty"), Menu: true, Outcome: OutcomeListed}
	}

	return Reply{
		Text:    e.tr.T("list.header") + "\n\n" + e.itemLines(items),
		Menu:    true,
		Outcome: OutcomeListed,
	}
}
