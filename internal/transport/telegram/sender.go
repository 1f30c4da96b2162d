package telegram

import (
	"context"
	"strings"

	"github.com/sandevgo/vrmentor/pkg/conv"
	"github.com/sandevgo/vrmentor/pkg/log"
	tele "gopkg.in/telebot.v3"
)

// maxMessageLen keeps a margin below Telegram's hard limit for entity overhead.
const maxMessageLen = conv.TelegramMessageLimit - 96

type sender struct {
	bot *tele.Bot
}

func newSender(bot *tele.Bot) *sender {
	return &sender{bot: bot}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in chunks.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string) error {
	logger := log.FromCtx(ctx)
	for i, chunk := range renderChunks(md) {
		if _, err := s.bot.Send(to, chunk, tele.ModeHTML); err != nil {
			logger.Error().Err(err).Int("chunk", i).Int("len", len(chunk)).Msg("failed to send telegram chunk")
			return err
		}
	}
	return nil
}

// renderChunks splits the Markdown source first so no chunk cuts through an HTML tag.
func renderChunks(md string) []string {
	var out []string
	for _, part := range conv.SplitMessage(md, maxMessageLen/2) {
		html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(part)))
		if html == "" {
			continue
		}
		out = append(out, conv.SplitMessage(html, maxMessageLen)...)
	}
	return out
}
