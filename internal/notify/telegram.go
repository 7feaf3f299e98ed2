package notify

import (
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"
	tgbotapi "github.com/zfesd/telegram-bot-api/v6"
)

// Notifier pushes snipe outcomes to a Telegram chat. A nil *Notifier
// is valid and drops every message, so callers never branch on
// whether notifications are configured.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	logx.Infof("telegram notifications to chat %d as @%s", chatID, bot.Self.UserName)
	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Send delivers one formatted message. Delivery failures are logged
// and swallowed: notification is never on the trading path.
func (n *Notifier) Send(format string, args ...any) {
	if n == nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, fmt.Sprintf(format, args...))
	if _, err := n.bot.Send(msg); err != nil {
		logx.Errorf("telegram send failed: %v", err)
	}
}
