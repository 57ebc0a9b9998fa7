package telegram

import (
	"context"
	"errors"
	"net/http"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ResearchAgent/internal/domain"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func TestNewNotifierValidates(t *testing.T) {
	t.Parallel()

	_, err := NewNotifier("", "1")
	require.Error(t, err)

	_, err = NewNotifier("token", "not-a-number")
	require.Error(t, err)
}

func TestPublishResult(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	factoryCalls := 0
	n, err := NewNotifierWithFactory("token", "-100123", func(token, endpoint string, _ *http.Client) (Sender, error) {
		factoryCalls++
		assert.Equal(t, "token", token)
		assert.Equal(t, tgbotapi.APIEndpoint, endpoint)
		return sender, nil
	})
	require.NoError(t, err)

	result := domain.ResearchResult{
		ID:          3,
		URL:         "https://example.com",
		Title:       "Example Domain",
		Summary:     "Short summary.",
		KeyInsights: []string{"one", "two"},
	}
	require.NoError(t, n.PublishResult(context.Background(), result))
	require.NoError(t, n.PublishResult(context.Background(), result))

	assert.Equal(t, 1, factoryCalls)
	require.Len(t, sender.sent, 2)
	msg, ok := sender.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(-100123), msg.ChatID)
	assert.Contains(t, msg.Text, "Example Domain")
	assert.Contains(t, msg.Text, "https://example.com")
	assert.Contains(t, msg.Text, "- two")
}

func TestPublishResultErrors(t *testing.T) {
	t.Parallel()

	failing, err := NewNotifierWithFactory("token", "1", func(string, string, *http.Client) (Sender, error) {
		return nil, errors.New("unauthorized")
	})
	require.NoError(t, err)
	require.ErrorContains(t, failing.PublishResult(context.Background(), domain.ResearchResult{}), "create telegram bot")

	sendErr, err := NewNotifierWithFactory("token", "1", func(string, string, *http.Client) (Sender, error) {
		return &fakeSender{err: errors.New("chat not found")}, nil
	})
	require.NoError(t, err)
	require.ErrorContains(t, sendErr.PublishResult(context.Background(), domain.ResearchResult{}), "chat not found")
}
