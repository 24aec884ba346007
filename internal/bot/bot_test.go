package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"recipe-bot/internal/lock"
	"recipe-bot/internal/ratelimit"
	"recipe-bot/internal/stage"
	"recipe-bot/internal/storage"
	"recipe-bot/internal/storage/memory"
)

type fakeAPI struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	stopped  atomic.Bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{updates: make(chan tgbotapi.Update, 16)}
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() {
	f.stopped.Store(true)
}

func (f *fakeAPI) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeAPI) texts() []string {
	var out []string
	for _, m := range f.messages() {
		out = append(out, m.Text)
	}
	return out
}

func (f *fakeAPI) lastMessage(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	msgs := f.messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func (f *fakeAPI) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = nil
	f.requests = nil
}

func (f *fakeAPI) requested(match func(tgbotapi.Chattable) bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.requests {
		if match(c) {
			return true
		}
	}
	return false
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	panic   bool
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	if g.panic {
		panic("generator exploded")
	}
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("generator called without deadline")
	}
	return g.reply, g.err
}

type harness struct {
	bot       *Bot
	api       *fakeAPI
	gen       *fakeGenerator
	tracker   *stage.Tracker
	products  *memory.Repository[storage.Product]
	bookmarks *memory.Repository[storage.Bookmark]
	nextID    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		api:       newFakeAPI(),
		gen:       &fakeGenerator{reply: "Омлет: взбейте яйца с молоком"},
		tracker:   stage.NewTracker(memory.NewRepository[storage.Stage]()),
		products:  memory.NewRepository[storage.Product](),
		bookmarks: memory.NewRepository[storage.Bookmark](),
	}
	h.bot = New(h.api, Deps{
		Stages:    h.tracker,
		Products:  h.products,
		Bookmarks: h.bookmarks,
		Generator: h.gen,
		Locker:    lock.NewKeyed(),
		Limiter:   ratelimit.NewLocal(0, 0),
	}, Options{RecipeTimeout: time.Second}, zap.NewNop())
	return h
}

func (h *harness) id() int {
	h.nextID++
	return h.nextID
}

func (h *harness) command(user int64, name string) {
	text := "/" + name
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.id(),
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: user},
			Chat:     &tgbotapi.Chat{ID: user},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}},
		},
	})
}

func (h *harness) text(user int64, text string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.id(),
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: user},
			Chat: &tgbotapi.Chat{ID: user},
			Text: text,
		},
	})
}

func (h *harness) press(user int64, data, messageText string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{
		UpdateID: h.id(),
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb",
			From: &tgbotapi.User{ID: user},
			Message: &tgbotapi.Message{
				Chat: &tgbotapi.Chat{ID: user},
				Text: messageText,
			},
			Data: data,
		},
	})
}

func (h *harness) addProducts(t *testing.T, user int64, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, h.products.Create(context.Background(), storage.Fields{"user_id": user, "name": n}))
	}
}

func (h *harness) state(t *testing.T, user int64) stage.State {
	t.Helper()
	s, err := h.tracker.Current(context.Background(), user)
	require.NoError(t, err)
	return s
}

func buttons(t *testing.T, msg tgbotapi.MessageConfig) []tgbotapi.InlineKeyboardButton {
	t.Helper()
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok, "message has no inline keyboard")
	var out []tgbotapi.InlineKeyboardButton
	for _, row := range markup.InlineKeyboard {
		out = append(out, row...)
	}
	return out
}

func TestSenderPrefersCallbackUser(t *testing.T) {
	user, chat, ok := sender(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		From:    &tgbotapi.User{ID: 5},
		Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: -100}},
	}})
	require.True(t, ok)
	assert.Equal(t, int64(5), user)
	assert.Equal(t, int64(-100), chat)

	_, _, ok = sender(tgbotapi.Update{EditedMessage: &tgbotapi.Message{}})
	assert.False(t, ok)
}

func TestHandleUpdateIgnoresUpdatesWithoutSender(t *testing.T) {
	h := newHarness(t)
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1})
	assert.Empty(t, h.api.messages())
}

func TestHandleUpdateRecoversFromPanic(t *testing.T) {
	h := newHarness(t)
	h.addProducts(t, 1, "milk")
	h.gen.panic = true

	h.command(1, CommandRecipe)
	assert.Equal(t, "❌ "+msgInternalError, h.api.lastMessage(t).Text)

	// The user's lock was released.
	h.gen.panic = false
	h.command(1, CommandRecipe)
	assert.Equal(t, h.gen.reply, h.api.lastMessage(t).Text)
}

func TestStartDrainsHandlersOnShutdown(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- h.bot.Start(ctx) }()

	text := "/" + CommandStart
	h.api.updates <- tgbotapi.Update{
		UpdateID: 1,
		Message: &tgbotapi.Message{
			From:     &tgbotapi.User{ID: 9},
			Chat:     &tgbotapi.Chat{ID: 9},
			Text:     text,
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Length: len(text)}},
		},
	}

	require.Eventually(t, func() bool { return len(h.api.messages()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
	assert.True(t, h.api.stopped.Load())
	assert.True(t, strings.HasPrefix(h.api.messages()[0].Text, msgGreeting))
}

func TestStartReturnsWhenUpdatesClose(t *testing.T) {
	h := newHarness(t)
	close(h.api.updates)

	assert.NoError(t, h.bot.Start(context.Background()))
}
