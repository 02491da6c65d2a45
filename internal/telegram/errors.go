package telegram

import (
	"errors"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendText delivers with the configured parse mode; sendPlain skips
// formatting, which keeps stack traces and raw links safe.
func (b *Bot) sendText(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = b.cfg.MessageParseMode
	return b.sendRich(msg)
}

func (b *Bot) sendPlain(chatID int64, text string) (tgbotapi.Message, error) {
	return b.sendRich(tgbotapi.NewMessage(chatID, text))
}

// sendRich tries the message as-is and falls back to a plain-text send
// when the platform rejects the formatting entities.
func (b *Bot) sendRich(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	sent, err := b.s.Send(msg)
	if err == nil {
		return sent, nil
	}
	if msg.ParseMode != "" && isEntityParseError(err) {
		log.Printf("⚠️ entity parse failed for chat %d, resending plain: %v", msg.ChatID, err)
		msg.ParseMode = ""
		if sent, err = b.s.Send(msg); err == nil {
			return sent, nil
		}
	}
	b.reportSendError(msg.ChatID, err)
	return sent, err
}

// push delivers any chattable (media, edits, keyboards) without a
// formatting fallback.
func (b *Bot) push(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sent, err := b.s.Send(c)
	if err != nil {
		if isNotModified(err) {
			// Stale edit, nothing to do.
			return sent, nil
		}
		b.reportSendError(0, err)
	}
	return sent, err
}

// editOrSend edits messageID in place, or sends a fresh message when
// there is nothing to edit.
func (b *Bot) editOrSend(chatID int64, messageID int, text string) {
	if messageID == 0 {
		b.sendPlain(chatID, text)
		return
	}
	b.push(tgbotapi.NewEditMessageText(chatID, messageID, text))
}

// reportSendError sorts delivery failures: being blocked and unknown
// chats are routine and only logged, everything else is logged loudly.
// Nothing is retried.
func (b *Bot) reportSendError(chatID int64, err error) {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 403:
			log.Printf("🚫 chat %d has blocked the bot", chatID)
			return
		case apiErr.Code == 400 && strings.Contains(apiErr.Message, "chat not found"):
			log.Printf("🚫 chat %d not found", chatID)
			return
		case isNotModified(err):
			return
		}
	}
	log.Printf("⚠️ delivery to %d failed: %v", chatID, err)
}

func isEntityParseError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "can't parse entities")
}

func isNotModified(err error) bool {
	return err != nil && strings.Contains(err.Error(), "message is not modified")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
