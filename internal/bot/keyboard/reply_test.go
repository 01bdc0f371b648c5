package keyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/giftbasket-bot/internal/bot/keyboard"
	"github.com/Proton-105/giftbasket-bot/internal/i18n"
)

func TestMainMenu(t *testing.T) {
	manager, err := i18n.Load("ru")
	require.NoError(t, err)
	tr := manager.Translator("ru")

	markup := keyboard.MainMenu(tr)

	assert.True(t, markup.ResizeKeyboard)

	expectedRows := [][]string{
		{tr.T("menu.add")},
		{tr.T("menu.list"), tr.T("menu.edit")},
		{tr.T("menu.remove")},
	}

	require.Len(t, markup.ReplyKeyboard, len(expectedRows))
	for i, row := range expectedRows {
		require.Len(t, markup.ReplyKeyboard[i], len(row))
		for j, text := range row {
			assert.Equal(t, text, markup.ReplyKeyboard[i][j].Text)
		}
	}
}

func TestMainMenu_NilTranslator(t *testing.T) {
	markup := keyboard.MainMenu(nil)

	require.Len(t, markup.ReplyKeyboard, 3)
	assert.Equal(t, "menu.add", markup.ReplyKeyboard[0][0].Text)
}
