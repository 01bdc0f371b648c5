// Package keyboard builds the reply keyboards shown under the chat input.
package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/giftbasket-bot/internal/i18n"
)

// MainMenu builds the persistent basket menu. Button texts are the same
// catalog entries the conversation engine matches incoming text against.
func MainMenu(t i18n.Translator) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	lookup := func(key string) string {
		if t == nil {
			return key
		}
		return t.T(key)
	}

	addBtn := markup.Text(lookup("menu.add"))
	listBtn := markup.Text(lookup("menu.list"))
	editBtn := markup.Text(lookup("menu.edit"))
	removeBtn := markup.Text(lookup("menu.remove"))

	markup.Reply(
		markup.Row(addBtn),
		markup.Row(listBtn, editBtn),
		markup.Row(removeBtn),
	)

	return markup
}
