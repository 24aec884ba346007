package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recipe-bot/internal/report"
	"recipe-bot/internal/stage"
)

func (b *Bot) handleCommand(ctx context.Context, user, chatID int64, command string) error {
	switch command {
	case CommandStart:
		return b.handleStart(ctx, user, chatID)
	case CommandProducts:
		return b.showProducts(ctx, user, chatID)
	case CommandRecipe:
		return b.handleRecipe(ctx, user, chatID)
	case CommandBookmarks:
		return b.showBookmarks(ctx, user, chatID)
	case CommandExport:
		return b.handleExport(ctx, user, chatID)
	default:
		return b.sendText(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, user, chatID int64) error {
	if err := b.stages.Set(ctx, user, stage.ActionStart); err != nil {
		return err
	}

	if _, err := b.api.Request(commandMenu()); err != nil {
		b.logger.Warn("Failed to register command menu", zap.Error(err))
	}

	return b.sendText(chatID, greeting())
}

// showProducts renders the product list with a delete button per product and an add button.
func (b *Bot) showProducts(ctx context.Context, user, chatID int64) error {
	if err := b.stages.Set(ctx, user, stage.ActionProductList); err != nil {
		return err
	}

	products, err := b.products.Read(ctx, user)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, msgProductList)
	msg.ReplyMarkup = productsKeyboard(products)
	return b.sendMessage(msg)
}

func (b *Bot) handleRecipe(ctx context.Context, user, chatID int64) error {
	if err := b.stages.Set(ctx, user, stage.ActionRecipe); err != nil {
		return err
	}

	products, err := b.products.Read(ctx, user)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return b.sendText(chatID, msgNoProducts)
	}

	allowed, err := b.limiter.Allow(ctx, user)
	if err != nil {
		// Fail open: a limiter outage should not block recipes.
		b.logger.Warn("Rate limiter unavailable",
			zap.Int64("user_id", user),
			zap.Error(err))
		allowed = true
	}
	if !allowed {
		return b.sendText(chatID, msgTooManyRecipes)
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.logger.Debug("Failed to send typing action", zap.Error(err))
	}

	genCtx, cancel := context.WithTimeout(ctx, b.recipeTimeout)
	defer cancel()

	recipe, err := b.generator.Generate(genCtx, recipePrompt(products))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRecipeUnavailable, err)
	}

	msg := tgbotapi.NewMessage(chatID, truncate(recipe, maxMessageLength))
	msg.ReplyMarkup = recipeKeyboard()
	return b.sendMessage(msg)
}

// showBookmarks sends every bookmark as its own message with a delete button.
func (b *Bot) showBookmarks(ctx context.Context, user, chatID int64) error {
	if err := b.stages.Set(ctx, user, stage.ActionBookmarkList); err != nil {
		return err
	}

	bookmarks, err := b.bookmarks.Read(ctx, user)
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		return b.sendText(chatID, msgNoBookmarks)
	}

	for _, bm := range bookmarks {
		msg := tgbotapi.NewMessage(chatID, bm.Text)
		msg.ReplyMarkup = bookmarkKeyboard(bm)
		if err := b.sendMessage(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) handleExport(ctx context.Context, user, chatID int64) error {
	if err := b.stages.Set(ctx, user, stage.ActionExport); err != nil {
		return err
	}

	bookmarks, err := b.bookmarks.Read(ctx, user)
	if err != nil {
		return err
	}
	if len(bookmarks) == 0 {
		return b.sendText(chatID, msgNoBookmarks)
	}

	buf, err := report.BookmarksWorkbook(bookmarks)
	if err != nil {
		return err
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: exportFileName, Bytes: buf.Bytes()})
	doc.Caption = msgExportCaption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}
	return nil
}
