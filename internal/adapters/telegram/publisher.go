package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"crowd-monitor/internal/domain"
	"crowd-monitor/internal/infra/metrics"
)

// messageAPI is the slice of the Bot API the publisher needs.
type messageAPI interface {
	send(text string) (string, error)
	edit(messageID, text string) error
}

// Publisher keeps a single live status message up to date: it edits the
// last published message in place and falls back to sending a new one when
// the edit fails, e.g. because the message was deleted from the channel.
type Publisher struct {
	api   messageAPI
	state domain.MessageStateStore
	log   zerolog.Logger
}

var _ domain.StatusPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher for one chat.
func NewPublisher(bot *tgbotapi.BotAPI, chatID int64, state domain.MessageStateStore, logger zerolog.Logger) *Publisher {
	return &Publisher{
		api:   &botAPI{bot: bot, chatID: chatID},
		state: state,
		log:   logger,
	}
}

// Publish edits the live message or creates it if there is none yet. On a
// create failure the stored message id is left untouched.
func (p *Publisher) Publish(text string) error {
	last, err := p.state.LastMessageID()
	if err != nil {
		p.log.Error().Err(err).Msg("failed to read last message id, assuming none")
		last = ""
	}

	if last != "" {
		err := p.api.edit(last, text)
		if err == nil {
			return nil
		}
		p.log.Warn().Err(err).Str("message_id", last).Msg("edit failed, sending a new message")
	}

	id, err := p.api.send(text)
	if err != nil {
		return fmt.Errorf("send status message: %w", err)
	}
	if last != "" {
		metrics.MessageRecreated.Inc()
	}
	if err := p.state.SaveMessageID(id); err != nil {
		p.log.Error().Err(err).Str("message_id", id).Msg("failed to persist message id")
	}
	return nil
}

type botAPI struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func (b *botAPI) send(text string) (string, error) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	start := time.Now()
	sent, err := b.bot.Send(msg)
	metrics.ObserveNetworkRequest("telegram_bot", "send_message", strconv.FormatInt(b.chatID, 10), start, err)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(sent.MessageID), nil
}

func (b *botAPI) edit(messageID, text string) error {
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("stored message id %q is not numeric: %w", messageID, err)
	}
	edit := tgbotapi.NewEditMessageText(b.chatID, id, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	start := time.Now()
	_, err = b.bot.Send(edit)
	if isNotModified(err) {
		// Same content as before, nothing to update.
		metrics.ObserveNetworkRequest("telegram_bot", "edit_message", strconv.FormatInt(b.chatID, 10), start, nil)
		return nil
	}
	metrics.ObserveNetworkRequest("telegram_bot", "edit_message", strconv.FormatInt(b.chatID, 10), start, err)
	return err
}

// isNotModified recognizes the Bot API "message is not modified" error,
// which the publisher treats as a successful no-op edit.
func isNotModified(err error) bool {
	if err == nil {
		return false
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return strings.Contains(tgErr.Message, "message is not modified")
	}
	return strings.Contains(err.Error(), "message is not modified")
}
