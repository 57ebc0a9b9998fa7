package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/ports"
	"ResearchAgent/internal/textutil"
)

const maxSummaryChars = 1000

// Sender is the part of the bot API the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotFactory creates a Sender for a token.
type BotFactory func(token, apiEndpoint string, client *http.Client) (Sender, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (Sender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return bot, nil
}

// Notifier posts completed research to a Telegram chat.
type Notifier struct {
	botToken string
	chatID   int64
	client   *http.Client
	factory  BotFactory

	mu  sync.Mutex
	bot Sender
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string) (*Notifier, error) {
	return NewNotifierWithFactory(botToken, chatID, defaultBotFactory)
}

// NewNotifierWithFactory allows swapping the bot implementation.
func NewNotifierWithFactory(botToken, chatID string, factory BotFactory) (*Notifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}
	id, err := strconv.ParseInt(strings.TrimSpace(chatID), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", chatID, err)
	}
	return &Notifier{
		botToken: botToken,
		chatID:   id,
		client:   &http.Client{Timeout: 5 * time.Second},
		factory:  factory,
	}, nil
}

// PublishResult sends a plain-text message describing result.
func (n *Notifier) PublishResult(ctx context.Context, result domain.ResearchResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := n.sender()
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(n.chatID, FormatMessage(result))
	msg.DisableWebPagePreview = true
	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// sender connects lazily so a bad token does not block startup.
func (n *Notifier) sender() (Sender, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bot != nil {
		return n.bot, nil
	}
	bot, err := n.factory(n.botToken, tgbotapi.APIEndpoint, n.client)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	n.bot = bot
	return bot, nil
}

// FormatMessage renders the notification body.
func FormatMessage(result domain.ResearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research #%d completed\n", result.ID)
	fmt.Fprintf(&b, "%s\n%s\n\n", result.Title, result.URL)
	b.WriteString(textutil.Truncate(result.Summary, maxSummaryChars))
	if len(result.KeyInsights) > 0 {
		b.WriteString("\n\nKey insights:")
		for _, insight := range result.KeyInsights {
			b.WriteString("\n- " + insight)
		}
	}
	return b.String()
}
