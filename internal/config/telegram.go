package config

import "context"

type TelegramConfig struct {
	Token string `env:"TELEGRAM_TOKEN,required,notEmpty"`
	// AllowedChatIDs restricts the bot to these chats. Empty means any chat.
	AllowedChatIDs []int64 `env:"TELEGRAM_ALLOWED_CHAT_IDS"`
}

func NewTelegramConfig(ctx context.Context) *TelegramConfig {
	return mustParse[TelegramConfig](ctx, "telegram")
}

func (c TelegramConfig) IsAllowed(chatID int64) bool {
	if len(c.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range c.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}
