package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsRelay/internal/dialogue"
	"NewsRelay/internal/ports"
)

const sourcesPerRow = 2

// Keyboards builds reply markups for each menu kind.
type Keyboards struct {
	sources []string
}

// NewKeyboards captures the source ids offered in the source menu.
func NewKeyboards(sources []string) Keyboards {
	return Keyboards{sources: append([]string(nil), sources...)}
}

// Markup returns the reply markup for menu, or nil when the message carries none.
func (k Keyboards) Markup(menu ports.Menu) any {
	switch menu {
	case ports.MenuMain:
		return mainMenu()
	case ports.MenuSources:
		return k.sourceMenu()
	case ports.MenuRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialogue.ButtonPreview),
			tgbotapi.NewKeyboardButton(dialogue.ButtonPublish),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(dialogue.ButtonDelete),
			tgbotapi.NewKeyboardButton(dialogue.ButtonReport),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func (k Keyboards) sourceMenu() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for start := 0; start < len(k.sources); start += sourcesPerRow {
		end := min(start+sourcesPerRow, len(k.sources))
		row := make([]tgbotapi.KeyboardButton, 0, end-start)
		for _, id := range k.sources[start:end] {
			row = append(row, tgbotapi.NewKeyboardButton(id))
		}
		rows = append(rows, row)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
