package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mymmrac/telego"

	"github.com/zeruxbrawl/zeruxbot/internal/config"
	"github.com/zeruxbrawl/zeruxbot/internal/engine"
)

// Channel connects to Telegram via the Bot API using long polling and
// feeds every update into the engine.
type Channel struct {
	bot        *telego.Bot
	engine     *engine.Engine
	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

// New creates a Telegram channel from config. The engine is attached
// later via Bind so the transport can be constructed first.
func New(cfg config.TelegramConfig) (*Channel, error) {
	var opts []telego.BotOption

	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		opts = append(opts, telego.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return &Channel{bot: bot}, nil
}

// Bind attaches the engine that will receive inbound messages.
func (c *Channel) Bind(e *engine.Engine) { c.engine = e }

// Start begins long polling for Telegram updates.
func (c *Channel) Start(ctx context.Context) error {
	slog.Info("starting telegram bot (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout:        30,
		AllowedUpdates: []string{"message"},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	slog.Info("telegram bot connected", "username", c.bot.Username())

	go func() {
		if err := c.SyncMenuCommands(pollCtx, DefaultMenuCommands()); err != nil {
			slog.Warn("failed to sync telegram menu commands", "error", err)
		}
	}()

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				if update.Message != nil {
					c.handleUpdate(pollCtx, update.Message)
				}
			}
		}
	}()

	return nil
}

// Stop shuts down the bot by cancelling the long polling context and
// waiting for the polling goroutine so Telegram releases the getUpdates
// lock before a new instance starts.
func (c *Channel) Stop(_ context.Context) error {
	slog.Info("stopping telegram bot")

	if c.pollCancel != nil {
		c.pollCancel()
	}
	if c.pollDone != nil {
		select {
		case <-c.pollDone:
			slog.Info("telegram bot stopped")
		case <-time.After(10 * time.Second):
			slog.Warn("telegram polling goroutine did not exit within timeout")
		}
	}
	return nil
}

// handleUpdate converts one Telegram message into the engine's inbound
// shape. Messages without a sender (channel posts) are skipped.
func (c *Channel) handleUpdate(ctx context.Context, message *telego.Message) {
	if message.From == nil {
		return
	}

	inbound := engine.Inbound{
		ChatID:    message.Chat.ID,
		MessageID: message.MessageID,
		Text:      messageText(message),
		Username:  message.From.Username,
		FirstName: message.From.FirstName,
	}
	if message.ReplyToMessage != nil {
		inbound.ReplyToID = message.ReplyToMessage.MessageID
	}

	slog.Debug("telegram message received",
		"chat_id", message.Chat.ID,
		"user_id", message.From.ID,
		"username", message.From.Username,
		"reply_to", inbound.ReplyToID,
	)

	c.engine.HandleMessage(ctx, inbound)
}

func messageText(message *telego.Message) string {
	if message.Text != "" {
		return message.Text
	}
	return message.Caption
}

// SyncMenuCommands registers bot commands with Telegram via setMyCommands.
func (c *Channel) SyncMenuCommands(ctx context.Context, commands []telego.BotCommand) error {
	if err := c.bot.DeleteMyCommands(ctx, nil); err != nil {
		slog.Debug("deleteMyCommands failed (may not exist)", "error", err)
	}
	if len(commands) == 0 {
		return nil
	}
	return c.bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{
		Commands: commands,
	})
}

// DefaultMenuCommands returns the public bot menu commands. Admin
// commands stay out of the menu on purpose.
func DefaultMenuCommands() []telego.BotCommand {
	return []telego.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "help", Description: "Show available commands"},
		{Command: "status", Description: "Show server system stats"},
		{Command: "info", Description: "About Zerux Brawl"},
		{Command: "support", Description: "Contact the support team"},
		{Command: "login", Description: "Login with your account name"},
		{Command: "profile", Description: "View your profile"},
		{Command: "logout", Description: "Log out of your account"},
		{Command: "leaderboard", Description: "View trophy leaderboard"},
		{Command: "rename", Description: "Rename your account"},
		{Command: "theme", Description: "Choose a client theme"},
		{Command: "adminrequest", Description: "Apply for the staff team"},
	}
}
