package telegram

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"omnibot/internal/chat"
	"omnibot/internal/panel"
)

// Callback payloads. Everything here is reachable only through the
// operator's control panel, so the handler gates on the operator id
// before touching anything.
const (
	cbToggleAI        = "toggle_ai"
	cbToggleUpload    = "toggle_upload"
	cbResetChat       = "reset_conversation"
	cbPersonalityMenu = "set_personality"
	cbPersonalityPfx  = "set_personality_"
	cbBotInfo         = "bot_info"
	cbUploadInfo      = "upload_info"
	cbBackToMain      = "back_to_main"
	cbPanelMenu       = "create_panel_menu"
	cbPanelPfx        = "create_panel_"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		b.answerCallback(cb.ID, "")
		return
	}
	if !b.isOperator(cb.From.ID) {
		b.alertCallback(cb.ID, "🔒 This panel belongs to the operator.")
		return
	}
	b.answerCallback(cb.ID, "")

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	log.Printf("🔘 callback %q from %d", cb.Data, cb.From.ID)

	switch {
	case cb.Data == cbToggleAI:
		if _, err := b.aiToggle.Flip(); err != nil {
			log.Printf("⚠️ ai toggle flip: %v", err)
		}
		b.editPanel(chatID, messageID)
	case cb.Data == cbToggleUpload:
		if _, err := b.uploadToggle.Flip(); err != nil {
			log.Printf("⚠️ upload toggle flip: %v", err)
		}
		b.editPanel(chatID, messageID)
	case cb.Data == cbResetChat:
		b.chat.ResetConversation(chatID)
		b.editWithBack(chatID, messageID, "🧹 Conversation cleared.")
	case cb.Data == cbPersonalityMenu:
		b.editMarkup(chatID, messageID, "🎭 Pick a personality:", personalityKeyboard())
	case strings.HasPrefix(cb.Data, cbPersonalityPfx):
		key := strings.TrimPrefix(cb.Data, cbPersonalityPfx)
		p, err := b.chat.SetPersonality(chatID, key)
		if err != nil {
			log.Printf("⚠️ set personality: %v", err)
			b.editWithBack(chatID, messageID, "🤷 That personality does not exist.")
			return
		}
		b.editWithBack(chatID, messageID, fmt.Sprintf("🎭 Personality is now %s %s. The conversation starts over.", p.Emoji, p.Title))
	case cb.Data == cbBotInfo:
		b.editWithBack(chatID, messageID, b.botInfoText())
	case cb.Data == cbUploadInfo:
		b.editWithBack(chatID, messageID, uploadInfoText)
	case cb.Data == cbPanelMenu:
		b.editMarkup(chatID, messageID, "🛠 Pick a panel plan:", planKeyboard())
	case strings.HasPrefix(cb.Data, cbPanelPfx):
		b.handleProvision(ctx, cb, strings.TrimPrefix(cb.Data, cbPanelPfx))
	case cb.Data == cbBackToMain:
		b.editPanel(chatID, messageID)
	default:
		log.Printf("⚠️ unknown callback %q", cb.Data)
	}
}

func (b *Bot) handleProvision(ctx context.Context, cb *tgbotapi.CallbackQuery, planKey string) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	plan, ok := panel.LookupPlan(planKey)
	if !ok {
		b.editWithBack(chatID, messageID, "🤷 That plan does not exist.")
		return
	}
	if b.provisioner == nil {
		b.editWithBack(chatID, messageID, "🚫 Panel provisioning is not configured.")
		return
	}

	pctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	acc, err := b.provisioner.CreateAccount(pctx, plan, cb.From.ID, displayName(cb.From))
	if err != nil {
		log.Printf("❌ panel provisioning (%s): %v", plan.Key, err)
		b.editWithBack(chatID, messageID, "😔 Couldn't create the account. Try again later.")
		return
	}
	if b.ledger != nil {
		if err := b.ledger.Append(acc); err != nil {
			log.Printf("⚠️ panel ledger append: %v", err)
		}
	}
	log.Printf("🧾 provisioned %s account %s for %d", plan.Key, acc.Username, cb.From.ID)

	b.editWithBack(chatID, messageID, fmt.Sprintf(
		"✅ <b>Panel account created</b>\n\n📦 plan: %s\n👤 login: <code>%s</code>\n🔑 password: <code>%s</code>\n📅 expires: %s",
		html.EscapeString(plan.Title), html.EscapeString(acc.Username), html.EscapeString(acc.Password),
		time.UnixMilli(acc.ExpiresAt).UTC().Format("2006-01-02")))
}

// panelText and panelKeyboard are the single source of the control
// panel; every path that shows or re-renders it goes through them.
func (b *Bot) panelText() string {
	return fmt.Sprintf("⚙️ <b>%s control panel</b>\n\n🤖 AI chat: %s\n📤 uploads: %s\n\nFlip features, switch the personality or read the info pages.",
		html.EscapeString(b.cfg.BotName), statusWord(b.aiToggle.Enabled()), statusWord(b.uploadToggle.Enabled()))
}

func (b *Bot) panelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return panelKeyboard(b.aiToggle.Enabled(), b.uploadToggle.Enabled())
}

func panelKeyboard(aiOn, uploadOn bool) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 AI: "+onOff(aiOn), cbToggleAI),
			tgbotapi.NewInlineKeyboardButtonData("📤 Uploads: "+onOff(uploadOn), cbToggleUpload),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎭 Personality", cbPersonalityMenu),
			tgbotapi.NewInlineKeyboardButtonData("🧹 Reset chat", cbResetChat),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Bot info", cbBotInfo),
			tgbotapi.NewInlineKeyboardButtonData("📖 Upload info", cbUploadInfo),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🛠 Create panel", cbPanelMenu),
		),
	)
}

func personalityKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range chat.Personalities() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Emoji+" "+p.Title, cbPersonalityPfx+p.Key),
		))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func planKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range panel.Plans {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(p.Title, cbPanelPfx+p.Key),
		))
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBackToMain),
	)
}

func (b *Bot) botInfoText() string {
	return fmt.Sprintf("ℹ️ <b>%s</b>\n\nAI provider: %s\n⏱ uptime: %s\n👥 users: %d\n💬 conversations: %d",
		html.EscapeString(b.cfg.BotName), b.cfg.AIProvider,
		time.Since(b.startedAt).Round(time.Second), b.users.Count(), b.history.ChatCount())
}

const uploadInfoText = "📖 <b>Uploads</b>\n\nSend me a photo, video, audio, voice note or document and I mirror it to the file host, then hand you a public link.\n\n📦 Videos, audio and documents are capped at 200 MB. Photos and voice notes have no cap."

func (b *Bot) editPanel(chatID int64, messageID int) {
	b.editMarkup(chatID, messageID, b.panelText(), b.panelKeyboard())
}

func (b *Bot) editWithBack(chatID int64, messageID int, text string) {
	b.editMarkup(chatID, messageID, text, tgbotapi.NewInlineKeyboardMarkup(backRow()))
}

func (b *Bot) editMarkup(chatID int64, messageID int, text string, kb tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, kb)
	edit.ParseMode = b.cfg.MessageParseMode
	b.push(edit)
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.s.Request(tgbotapi.NewCallback(id, text)); err != nil {
		log.Printf("⚠️ callback answer failed: %v", err)
	}
}

func (b *Bot) alertCallback(id, text string) {
	if _, err := b.s.Request(tgbotapi.NewCallbackWithAlert(id, text)); err != nil {
		log.Printf("⚠️ callback alert failed: %v", err)
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
