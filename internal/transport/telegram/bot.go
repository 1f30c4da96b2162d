package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/vrmentor/internal/config"
	"github.com/sandevgo/vrmentor/internal/core"
	"github.com/sandevgo/vrmentor/internal/service/agent"
	"github.com/sandevgo/vrmentor/pkg/log"
	tele "gopkg.in/telebot.v3"
)

const baseContextKey = "base_context"

type Agent interface {
	ProcessMessage(ctx context.Context, sessionID, userID, message string) (agent.Reply, error)
}

type Bot struct {
	bot    *tele.Bot
	cfg    *config.TelegramConfig
	agent  Agent
	router core.CmdRouter
	sender *sender
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	agent Agent,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:    b,
		cfg:    cfg,
		agent:  agent,
		router: router,
		sender: newSender(b),
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Chat() == nil || !cfg.IsAllowed(c.Chat().ID) {
				return nil
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(_ context.Context) error {
	b.bot.Stop()
	return nil
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	sessionID := SessionID(c.Chat().ID)
	userID := sessionID
	if c.Sender() != nil {
		userID = strconv.FormatInt(c.Sender().ID, 10)
	}

	if res, ok := b.router.Execute(ctx, sessionID, c.Text()); ok {
		return b.sender.sendMarkdown(ctx, c.Chat(), res)
	}

	_ = c.Notify(tele.Typing)

	reply, err := b.agent.ProcessMessage(ctx, sessionID, userID, c.Text())
	if err != nil {
		logger.Error().Err(err).Str("session", sessionID).Msg("message processing failed")
		return c.Send("Sorry, I could not process that message.")
	}
	return b.sender.sendMarkdown(ctx, c.Chat(), reply.Text)
}

// SessionID maps a Telegram chat onto a conversation session.
func SessionID(chatID int64) string {
	return fmt.Sprintf("telegram-%d", chatID)
}
