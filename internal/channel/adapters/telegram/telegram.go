package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/memohai/searcharr/internal/catalog"
	"github.com/memohai/searcharr/internal/command"
	"github.com/memohai/searcharr/internal/conversation"
	"github.com/memohai/searcharr/internal/render"
)

// Sender is the subset of *tgbotapi.BotAPI used to talk to Telegram.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Commands answers slash commands.
type Commands interface {
	Dispatch(ctx context.Context, inv command.Invocation) (render.Response, error)
}

// Callbacks answers inline keyboard presses.
type Callbacks interface {
	HandleCallback(ctx context.Context, caller conversation.Caller, raw string) (render.Response, error)
}

// Bot polls Telegram for updates and executes the responses they produce.
type Bot struct {
	cfg       Config
	logger    *slog.Logger
	commands  Commands
	callbacks Callbacks
	limiter   *rate.Limiter

	mu     sync.Mutex
	api    *tgbotapi.BotAPI
	sender Sender
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Bot. The Telegram connection is opened by Start.
func New(log *slog.Logger, cfg Config, commands Commands, callbacks Callbacks) (*Bot, error) {
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Bot{
		cfg:       cfg,
		logger:    log.With(slog.String("adapter", Type)),
		commands:  commands,
		callbacks: callbacks,
		limiter:   rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
	}, nil
}

// Start connects to Telegram and begins long polling. Each update is handled on its own
// goroutine.
func (b *Bot) Start(ctx context.Context) error {
	if err := tgbotapi.SetLogger(newBotLogger(b.logger)); err != nil {
		b.logger.Warn("set bot logger failed", slog.Any("error", err))
	}
	api, err := tgbotapi.NewBotAPI(b.cfg.Token)
	if err != nil {
		b.logger.Error("create bot failed", slog.Any("error", err))
		return fmt.Errorf("connect telegram: %w", err)
	}
	api.Debug = b.cfg.Debug
	b.logger.Info("start", slog.String("bot", api.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.cfg.PollTimeout
	updates := api.GetUpdatesChan(updateConfig)

	// Polling outlives the start hook context.
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	b.mu.Lock()
	b.api = api
	b.sender = api
	b.cancel = cancel
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.poll(pollCtx, updates)
	}()
	return nil
}

func (b *Bot) poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("updates channel closed")
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(ctx, update)
			}()
		}
	}
}

// Stop ends polling and waits for in-flight updates or ctx.
func (b *Bot) Stop(ctx context.Context) error {
	b.mu.Lock()
	api, cancel := b.api, b.cancel
	b.mu.Unlock()
	if cancel == nil {
		return nil
	}
	b.logger.Info("stop")
	cancel()
	api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HandleUpdate routes one update to the command dispatcher or the callback handler.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() || msg.Chat == nil {
		return
	}
	caller := callerOf(msg.From)
	b.logger.Debug("command received",
		slog.String("command", msg.Command()),
		slog.Int64("chat_id", msg.Chat.ID),
		slog.Int64("user_id", caller.ID),
		slog.String("username", caller.Username),
	)
	resp, err := b.commands.Dispatch(ctx, command.Invocation{
		Caller: caller,
		Name:   msg.Command(),
		Args:   msg.CommandArguments(),
	})
	if err != nil {
		b.logger.Error("handle command failed", slog.String("command", msg.Command()), slog.Any("error", err))
	}
	b.execute(ctx, target{chatID: msg.Chat.ID}, resp)
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	caller := callerOf(q.From)
	resp, err := b.callbacks.HandleCallback(ctx, caller, q.Data)
	if err != nil {
		b.logger.Error("handle callback failed", slog.String("data", q.Data), slog.Any("error", err))
	}
	if _, ok := resp.Find(render.ActionAnswer); !ok {
		resp = append(resp, render.Answer())
	}
	t := target{queryID: q.ID}
	if q.Message != nil && q.Message.Chat != nil {
		t.chatID = q.Message.Chat.ID
		t.messageID = q.Message.MessageID
	}
	b.execute(ctx, t, resp)
}

// target is where the actions of one response land.
type target struct {
	chatID    int64
	messageID int
	queryID   string
}

// execute runs the actions in order. A failed action is logged and the rest still run.
func (b *Bot) execute(ctx context.Context, t target, resp render.Response) {
	for _, action := range resp {
		if err := b.limiter.Wait(ctx); err != nil {
			b.logger.Warn("outbound throttle aborted", slog.Any("error", err))
			return
		}
		if err := b.perform(t, action); err != nil {
			b.logger.Error("telegram action failed",
				slog.String("action", action.Kind.String()),
				slog.Int64("chat_id", t.chatID),
				slog.Any("error", err),
			)
		}
	}
}

func (b *Bot) perform(t target, action render.Action) error {
	sender := b.currentSender()
	if sender == nil {
		return errors.New("telegram bot is not started")
	}
	markup := inlineKeyboard(action.Keyboard)
	switch action.Kind {
	case render.ActionReply:
		text, mode := formatReply(action.Text)
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.ParseMode = mode
		_, err := sender.Send(msg)
		return err
	case render.ActionSendText:
		msg := tgbotapi.NewMessage(t.chatID, action.Text)
		if markup != nil {
			msg.ReplyMarkup = *markup
		}
		_, err := sender.Send(msg)
		return err
	case render.ActionSendPhoto:
		return b.withPosterFallback(action.PhotoURL, func(url string) error {
			photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(url))
			photo.Caption = action.Text
			if markup != nil {
				photo.ReplyMarkup = *markup
			}
			_, err := sender.Send(photo)
			return err
		})
	case render.ActionEditPhoto:
		return b.withPosterFallback(action.PhotoURL, func(url string) error {
			media := tgbotapi.NewInputMediaPhoto(tgbotapi.FileURL(url))
			media.Caption = action.Text
			edit := tgbotapi.EditMessageMediaConfig{
				BaseEdit: tgbotapi.BaseEdit{ChatID: t.chatID, MessageID: t.messageID, ReplyMarkup: markup},
				Media:    media,
			}
			_, err := sender.Request(edit)
			return err
		})
	case render.ActionEditText:
		edit := tgbotapi.NewEditMessageText(t.chatID, t.messageID, action.Text)
		edit.ReplyMarkup = markup
		_, err := sender.Request(edit)
		return err
	case render.ActionDelete:
		_, err := sender.Request(tgbotapi.NewDeleteMessage(t.chatID, t.messageID))
		return err
	case render.ActionAnswer:
		if t.queryID == "" {
			return nil
		}
		_, err := sender.Request(tgbotapi.NewCallback(t.queryID, ""))
		return err
	default:
		return fmt.Errorf("unsupported action %s", action.Kind)
	}
}

// withPosterFallback retries with the default poster when Telegram cannot use the
// remote artwork.
func (b *Bot) withPosterFallback(url string, send func(url string) error) error {
	err := send(url)
	if err == nil || url == catalog.DefaultPoster || !isRejectedPhoto(err) {
		return err
	}
	b.logger.Error("photo rejected, sending default poster", slog.String("url", url), slog.Any("error", err))
	return send(catalog.DefaultPoster)
}

func isRejectedPhoto(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"wrong type of the web page content",
		"failed to get http url content",
		"wrong file identifier/http url specified",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func (b *Bot) currentSender() Sender {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sender
}

func inlineKeyboard(kb render.Keyboard) *tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			if btn.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		rows = append(rows, buttons)
	}
	if len(rows) == 0 {
		return nil
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func callerOf(user *tgbotapi.User) conversation.Caller {
	if user == nil {
		return conversation.Caller{}
	}
	return conversation.Caller{ID: user.ID, Username: strings.TrimSpace(user.UserName)}
}
