package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
)

func (b *Bot) handleCallback(ctx context.Context, user, chatID int64, data callbackData, source *tgbotapi.Message) error {
	if data.action == stage.ActionBookmarkCreate && (source == nil || source.Text == "") {
		return fmt.Errorf("%w: nothing to save", ErrMalformedCallback)
	}

	if err := b.stages.Set(ctx, user, data.action); err != nil {
		return err
	}

	switch data.action {
	case stage.ActionProductCreate:
		return b.sendText(chatID, msgEnterProduct)

	case stage.ActionProductDelete:
		if err := b.deleteProduct(ctx, user, data.id); err != nil {
			return err
		}
		if err := b.sendText(chatID, msgProductDeleted); err != nil {
			return err
		}
		return b.showProducts(ctx, user, chatID)

	case stage.ActionBookmarkCreate:
		if err := b.bookmarks.Create(ctx, storage.Fields{"user_id": user, "text": source.Text}); err != nil {
			return err
		}
		return b.sendText(chatID, msgBookmarkSaved)

	case stage.ActionBookmarksDelete:
		if err := b.deleteBookmark(ctx, user, data.id); err != nil {
			return err
		}
		if err := b.sendText(chatID, msgBookmarkDeleted); err != nil {
			return err
		}
		return b.showBookmarks(ctx, user, chatID)
	}

	return fmt.Errorf("%w: unhandled action %q", ErrMalformedCallback, data.action)
}

// deleteProduct removes the product only if user owns it. Unknown ids are ignored.
func (b *Bot) deleteProduct(ctx context.Context, user, id int64) error {
	products, err := b.products.Read(ctx, user)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == id {
			return b.products.Delete(ctx, id)
		}
	}
	b.logger.Debug("Product not found for user",
		zap.Int64("user_id", user),
		zap.Int64("product_id", id))
	return nil
}

// deleteBookmark removes the bookmark only if user owns it. Unknown ids are ignored.
func (b *Bot) deleteBookmark(ctx context.Context, user, id int64) error {
	bookmarks, err := b.bookmarks.Read(ctx, user)
	if err != nil {
		return err
	}
	for _, bm := range bookmarks {
		if bm.ID == id {
			return b.bookmarks.Delete(ctx, id)
		}
	}
	b.logger.Debug("Bookmark not found for user",
		zap.Int64("user_id", user),
		zap.Int64("bookmark_id", id))
	return nil
}
