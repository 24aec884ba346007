package bot

import (
	"context"
	"strings"

	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
)

// handleText interprets free text according to what the user's stage expects.
func (b *Bot) handleText(ctx context.Context, user, chatID int64, text string) error {
	state, err := b.stages.Current(ctx, user)
	if err != nil {
		return err
	}

	if !state.Expects(stage.AwaitingProductName) {
		return b.sendText(chatID, msgUnrecognized)
	}

	name := strings.TrimSpace(text)
	if name == "" {
		return b.sendText(chatID, msgEmptyProduct)
	}

	if err := b.products.Create(ctx, storage.Fields{"user_id": user, "name": name}); err != nil {
		return err
	}
	return b.showProducts(ctx, user, chatID)
}
