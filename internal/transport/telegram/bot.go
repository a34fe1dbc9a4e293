package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sandevgo/shopclerk/internal/config"
	"github.com/sandevgo/shopclerk/internal/core"
	"github.com/sandevgo/shopclerk/internal/service/agent"
	"github.com/sandevgo/shopclerk/pkg/log"
)

const baseContextKey = "base_context"

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	agent   *agent.Orchestrator
	send    *sender
	ownerID int64
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	orchestrator *agent.Orchestrator,
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
		bot:     b,
		cfg:     cfg,
		agent:   orchestrator,
		send:    newSender(b),
		ownerID: cfg.OwnerID,
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle("/reset", bot.handleReset)
	b.Handle(tele.OnText, bot.handleMessage)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

func conversationID(c tele.Context) string {
	return fmt.Sprintf("telegram-%d", c.Chat().ID)
}

func (b *Bot) handleMessage(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)

	// Notify user we are working
	_ = c.Notify(tele.Typing)

	resp, err := b.agent.ProcessRequest(ctx, core.Request{
		Message:        c.Text(),
		ConversationID: conversationID(c),
		UserID:         fmt.Sprintf("%d", c.Sender().ID),
	})
	if err != nil {
		logger.Error().Err(err).Msg("request failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	text := resp.Message
	if len(resp.Suggestions) > 0 {
		text += "\n\nYou could try:\n- " + strings.Join(resp.Suggestions, "\n- ")
	}
	return b.send.sendMarkdown(ctx, c.Chat(), text, false)
}

func (b *Bot) handleReset(c tele.Context) error {
	if b.agent.ClearConversation(conversationID(c)) {
		return c.Send("Conversation cleared. What can I help you find?")
	}
	return c.Send("Nothing to clear yet. Ask me about our catalog!")
}
