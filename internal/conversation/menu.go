package conversation

import "github.com/Proton-105/giftbasket-bot/internal/i18n"

// Action is a main-menu entry.
type Action int

const (
	ActionAdd Action = iota + 1
	ActionList
	ActionEdit
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionList:
		return "list"
	case ActionEdit:
		return "edit"
	case ActionRemove:
		return "remove"
	default:
		return "none"
	}
}

// Menu holds the localized label of every action.
type Menu struct {
	Add    string
	List   string
	Edit   string
	Remove string
}

// NewMenu resolves the labels from the catalog.
func NewMenu(tr i18n.Translator) Menu {
	return Menu{
		Add:    tr.T("menu.add"),
		List:   tr.T("menu.list"),
		Edit:   tr.T("menu.edit"),
		Remove: tr.T("menu.remove"),
	}
}

// Match classifies text as a menu label. Only exact matches count.
func (m Menu) Match(text string) (Action, bool) {
	switch text {
	case "":
		return 0, false
	case m.Add:
		return ActionAdd, true
	case m.List:
		return ActionList, true
	case m.Edit:
		return ActionEdit, true
	case m.Remove:
		return ActionRemove, true
	default:
		return 0, false
	}
}
