package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
)

// BOT KEYBOARDS

func productsKeyboard(products []storage.Product) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(products)+1)
	for _, p := range products {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf(btnDeleteProduct, p.Name),
				newCallbackWithID(stage.ActionProductDelete, p.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnAddProduct, newCallback(stage.ActionProductCreate)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func recipeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnSaveRecipe, newCallback(stage.ActionBookmarkCreate)),
		),
	)
}

func bookmarkKeyboard(b storage.Bookmark) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnDeleteBookmark, newCallbackWithID(stage.ActionBookmarksDelete, b.ID)),
		),
	)
}

func commandMenu() tgbotapi.SetMyCommandsConfig {
	cmds := make([]tgbotapi.BotCommand, len(commands))
	for i, c := range commands {
		cmds[i] = tgbotapi.BotCommand{Command: c.name, Description: c.description}
	}
	return tgbotapi.NewSetMyCommands(cmds...)
}
