package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iconidentify/instafetch/internal/config"
	"github.com/iconidentify/instafetch/internal/domain"
)

const welcomeMessage = "👋 Welcome to Instagram Video Downloader Bot!\n\n" +
	"Just send me an Instagram video link and I'll download it for you.\n" +
	"Note: This only works with public Instagram posts."

// Handler processes one inbound download request to completion.
type Handler interface {
	Handle(ctx context.Context, req domain.Request)
}

// Bot is the Telegram transport adapter. It owns the receive session
// and implements the pipeline's Messenger for outbound replies.
type Bot struct {
	cfg     config.BotConfig
	handler Handler
	logger  *slog.Logger

	mu  sync.RWMutex
	api *tgbotapi.BotAPI

	wg sync.WaitGroup
}

// New creates a bot. The request handler is attached separately with
// SetHandler because the pipeline needs the bot as its messenger.
func New(cfg config.BotConfig, logger *slog.Logger) *Bot {
	return &Bot{
		cfg:    cfg,
		logger: logger,
	}
}

// SetHandler attaches the inbound request handler.
func (b *Bot) SetHandler(h Handler) { b.handler = h }

// Session connects to Telegram and runs one receive loop. It returns
// nil when ctx is canceled and the transport error otherwise; the
// supervisor decides whether to restart it.
func (b *Bot) Session(ctx context.Context) error {
	api, err := tgbotapi.NewBotAPI(b.cfg.Token)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.api = api
	b.mu.Unlock()

	b.logger.Info("bot connected", "username", api.Self.UserName)

	// Drop updates queued while the bot was down, like the original
	// deployment did, so a restart doesn't replay stale links.
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		b.logger.Warn("failed to drop pending updates", "error", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	for {
		select {
		case <-ctx.Done():
			b.wg.Wait()
			return nil
		default:
		}

		updates, err := api.GetUpdates(u)
		if err != nil {
			return err
		}

		for _, update := range updates {
			if update.UpdateID >= u.Offset {
				u.Offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch routes one update. Downloads run on their own goroutine so a
// slow retrieval never blocks the receive loop or other requesters.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	if msg.IsCommand() {
		if msg.Command() == "start" {
			if err := b.ReplyText(ctx, msg.Chat.ID, welcomeMessage); err != nil {
				b.logger.Warn("failed to send welcome", "error", err)
			}
		}
		return
	}

	req := domain.Request{
		RequesterID: msg.Chat.ID,
		RawURL:      msg.Text,
		ReceivedAt:  time.Now().UTC(),
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		reqCtx, cancel := context.WithTimeout(ctx, b.cfg.RequestTimeout)
		defer cancel()
		b.handler.Handle(reqCtx, req)
	}()
}

// ReplyText sends a plain text message to the chat.
func (b *Bot) ReplyText(_ context.Context, chatID int64, text string) error {
	api := b.currentAPI()
	if api == nil {
		return errors.New("bot session not connected")
	}
	_, err := api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// ReplyVideo uploads the file at path as a video attachment. A size
// rejection from the transport is reported as domain.ErrOversize rather
// than a raw API error.
func (b *Bot) ReplyVideo(_ context.Context, chatID int64, path, caption string) error {
	api := b.currentAPI()
	if api == nil {
		return errors.New("bot session not connected")
	}

	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption

	if _, err := api.Send(video); err != nil {
		if isOversizeError(err) {
			return domain.ErrOversize
		}
		return err
	}
	return nil
}

func (b *Bot) currentAPI() *tgbotapi.BotAPI {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.api
}

// isOversizeError reports whether the transport rejected the payload
// for exceeding the platform size ceiling.
func isOversizeError(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == 413 {
			return true
		}
		text := strings.ToLower(apiErr.Message)
		return strings.Contains(text, "too large") || strings.Contains(text, "too big")
	}
	return false
}
