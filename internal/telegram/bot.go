package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"omnibot/internal/chat"
	"omnibot/internal/config"
	"omnibot/internal/history"
	"omnibot/internal/mediaapi"
	"omnibot/internal/panel"
	"omnibot/internal/relay"
	"omnibot/internal/tasker"
	"omnibot/internal/toggles"
	"omnibot/internal/uploader"
	"omnibot/internal/users"
)

type relayer interface {
	Relay(ctx context.Context, att relay.Attachment) (string, error)
}

// Bot owns the update loop and routes everything a chat can throw at
// it: commands, media, free text and inline-keyboard callbacks.
type Bot struct {
	api *tgbotapi.BotAPI
	s   sender
	cfg *config.Config

	chat         *chat.Service
	history      *history.Store
	users        *users.Cache
	aiToggle     *toggles.Toggle
	uploadToggle *toggles.Toggle
	relay        relayer
	media        *mediaapi.Client
	tasks        *tasker.Client
	search       *tasker.Search
	provisioner  panel.Provisioner
	ledger       *panel.Ledger

	startedAt time.Time
}

// Deps carries everything the bot needs besides its token. Nil vendor
// clients disable the matching commands with a polite notice instead of
// crashing.
type Deps struct {
	Chat         *chat.Service
	History      *history.Store
	Users        *users.Cache
	AIToggle     *toggles.Toggle
	UploadToggle *toggles.Toggle
	Uploader     *uploader.Client
	Media        *mediaapi.Client
	Tasks        *tasker.Client
	Search       *tasker.Search
	Provisioner  panel.Provisioner
	Ledger       *panel.Ledger
}

// New performs the platform handshake and wires the bot together.
func New(cfg *config.Config, d Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram handshake: %w", err)
	}
	log.Printf("🤖 authorized on account @%s", api.Self.UserName)

	b := &Bot{
		api:          api,
		s:            botAPISender{api},
		cfg:          cfg,
		chat:         d.Chat,
		history:      d.History,
		users:        d.Users,
		aiToggle:     d.AIToggle,
		uploadToggle: d.UploadToggle,
		media:        d.Media,
		tasks:        d.Tasks,
		search:       d.Search,
		provisioner:  d.Provisioner,
		ledger:       d.Ledger,
		startedAt:    time.Now(),
	}
	if d.Uploader != nil {
		b.relay = relay.NewService(fileResolver{api}, d.Uploader)
	}
	return b, nil
}

// Start runs the update loop until ctx is cancelled. Each update gets
// its own goroutine; per-chat ordering for AI turns is enforced further
// down by the chat service.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.NotifyOperator(fmt.Sprintf("🟢 %s is up", b.cfg.BotName))
	log.Printf("🚀 %s is listening for updates", b.cfg.BotName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	defer b.recoverPanic(update)

	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}
	b.rememberUser(msg.From)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if att, ok := attachmentFrom(msg); ok {
		b.handleAttachment(ctx, msg, att)
		return
	}
	b.handleFreeText(ctx, msg)
}

func (b *Bot) handleFreeText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}
	log.Printf("💬 message from %d (@%s): %q", msg.From.ID, msg.From.UserName, text)
	b.typing(msg.Chat.ID)

	actx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	b.sendText(msg.Chat.ID, b.chat.Reply(actx, msg.Chat.ID, text))
}

func (b *Bot) handleAttachment(ctx context.Context, msg *tgbotapi.Message, att relay.Attachment) {
	if !b.uploadToggle.Enabled() {
		b.sendText(msg.Chat.ID, "📤 Uploads are switched off right now. Ask the operator to turn them back on.")
		return
	}
	if b.relay == nil {
		b.sendText(msg.Chat.ID, "🚫 Mirroring is not configured on this bot.")
		return
	}
	log.Printf("📎 %s from %d (size %d)", att.Kind, msg.From.ID, att.Size)

	wait, _ := b.sendPlain(msg.Chat.ID, fmt.Sprintf("⏳ Mirroring your %s…", att.Kind))

	rctx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()
	link, err := b.relay.Relay(rctx, att)
	if err != nil {
		if errors.Is(err, relay.ErrTooLarge) {
			b.editOrSend(msg.Chat.ID, wait.MessageID, tooLargeNotice)
			return
		}
		log.Printf("❌ relay failed for chat %d: %v", msg.Chat.ID, err)
		b.editOrSend(msg.Chat.ID, wait.MessageID, "😔 Couldn't mirror that file. Try again later.")
		return
	}
	b.editOrSend(msg.Chat.ID, wait.MessageID, "✅ Here's your link:\n"+link)
}

const tooLargeNotice = "📦 That file is over the 200 MB relay limit."

// attachmentFrom maps a platform message onto a relay attachment. For
// photos Telegram sends several sizes; the last one is the original.
func attachmentFrom(msg *tgbotapi.Message) (relay.Attachment, bool) {
	switch {
	case len(msg.Photo) > 0:
		ps := msg.Photo[len(msg.Photo)-1]
		return relay.Attachment{Kind: relay.KindPhoto, FileID: ps.FileID, Size: int64(ps.FileSize)}, true
	case msg.Video != nil:
		return relay.Attachment{Kind: relay.KindVideo, FileID: msg.Video.FileID, FileName: msg.Video.FileName, Size: int64(msg.Video.FileSize)}, true
	case msg.Audio != nil:
		return relay.Attachment{Kind: relay.KindAudio, FileID: msg.Audio.FileID, FileName: msg.Audio.FileName, Size: int64(msg.Audio.FileSize)}, true
	case msg.Voice != nil:
		return relay.Attachment{Kind: relay.KindVoice, FileID: msg.Voice.FileID, Size: int64(msg.Voice.FileSize)}, true
	case msg.Document != nil:
		return relay.Attachment{Kind: relay.KindDocument, FileID: msg.Document.FileID, FileName: msg.Document.FileName, Size: int64(msg.Document.FileSize)}, true
	}
	return relay.Attachment{}, false
}

func (b *Bot) rememberUser(u *tgbotapi.User) {
	first, err := b.users.Remember(u.ID)
	if err != nil {
		log.Printf("⚠️ failed to persist user %d: %v", u.ID, err)
	}
	if first {
		log.Printf("👋 first message from %d (@%s)", u.ID, u.UserName)
		b.NotifyOperator(fmt.Sprintf("👋 New user: %s (id %d)", displayName(u), u.ID))
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if u.UserName != "" {
		if name == "" {
			return "@" + u.UserName
		}
		return fmt.Sprintf("%s (@%s)", name, u.UserName)
	}
	if name == "" {
		return fmt.Sprintf("user %d", u.ID)
	}
	return name
}

func (b *Bot) isOperator(userID int64) bool {
	return b.cfg.OwnerChatID != 0 && userID == b.cfg.OwnerChatID
}

// NotifyOperator sends a plain-text note to the owner chat, when one is
// configured. Best effort: failures are only logged.
func (b *Bot) NotifyOperator(text string) {
	if b.cfg.OwnerChatID == 0 {
		return
	}
	b.sendPlain(b.cfg.OwnerChatID, text)
}

// Flush writes every store to disk. Used by the daily maintenance tick
// and on shutdown.
func (b *Bot) Flush() error {
	var errs []error
	if err := b.history.Save(); err != nil {
		errs = append(errs, fmt.Errorf("history: %w", err))
	}
	if err := b.users.Save(); err != nil {
		errs = append(errs, fmt.Errorf("users: %w", err))
	}
	if err := b.aiToggle.Save(); err != nil {
		errs = append(errs, fmt.Errorf("ai toggle: %w", err))
	}
	if err := b.uploadToggle.Save(); err != nil {
		errs = append(errs, fmt.Errorf("upload toggle: %w", err))
	}
	if b.ledger != nil {
		if err := b.ledger.Save(); err != nil {
			errs = append(errs, fmt.Errorf("panel ledger: %w", err))
		}
	}
	return errors.Join(errs...)
}

// DailyMaintenance flushes the stores and mails the operator a usage
// report. Wired to the 24h scheduler tick.
func (b *Bot) DailyMaintenance(ctx context.Context) error {
	if err := b.Flush(); err != nil {
		log.Printf("⚠️ daily flush: %v", err)
	}
	u := b.chat.Usage()
	report := fmt.Sprintf(
		"📊 Daily report for %s\n👥 users: %d\n💬 conversations: %d\n📨 stored messages: %d\n🔢 completions: %d ok / %d failed\n🧾 panel accounts: %d",
		b.cfg.BotName, b.users.Count(), b.history.ChatCount(), b.history.MessageCount(),
		u.Completions, u.Failures, b.ledgerCount())
	b.NotifyOperator(report)
	return nil
}

func (b *Bot) ledgerCount() int {
	if b.ledger == nil {
		return 0
	}
	return b.ledger.Count()
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.s.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("⚠️ chat action failed: %v", err)
	}
}

func (b *Bot) recoverPanic(update tgbotapi.Update) {
	r := recover()
	if r == nil {
		return
	}
	stack := string(debug.Stack())
	chatID, summary := updateSummary(update)
	log.Printf("🔥 panic while handling update (%s): %v\n%s", summary, r, stack)
	b.NotifyOperator(fmt.Sprintf("🔥 panic: %v\n%s\n\n%s", r, summary, truncate(stack, 1500)))
	if chatID != 0 {
		b.sendPlain(chatID, "😵 Something went very wrong on my side. The operator has been told.")
	}
}

func updateSummary(u tgbotapi.Update) (int64, string) {
	switch {
	case u.Message != nil:
		m := u.Message
		text := m.Text
		if text == "" {
			text = m.Caption
		}
		return m.Chat.ID, fmt.Sprintf("chat=%d user=%d text=%q", m.Chat.ID, m.From.ID, truncate(text, 120))
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		var chatID int64
		if cb.Message != nil {
			chatID = cb.Message.Chat.ID
		}
		return chatID, fmt.Sprintf("callback=%q user=%d", cb.Data, cb.From.ID)
	}
	return 0, "unknown update"
}
