package telegram

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"omnibot/internal/mediaapi"
)

const vendorMissingNotice = "🚫 This command is not configured on this bot."

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	log.Printf("📩 /%s from %d (@%s)", cmd, msg.From.ID, msg.From.UserName)

	switch cmd {
	case "start":
		b.handleStart(msg)
	case "help":
		b.handleHelp(msg)
	case "stats":
		b.handleStats(msg)
	case "clear":
		b.handleClear(msg)
	case "bot":
		b.handleControlPanel(msg)
	case "pin":
		b.handleImageSearch(ctx, msg, args)
	case "ig":
		b.handleSocial(ctx, msg, mediaapi.SourceInstagram, args, "/ig <instagram url>")
	case "tiktok":
		b.handleTikTok(ctx, msg, args)
	case "yt":
		b.handleYouTube(ctx, msg, args)
	case "play":
		b.handlePlay(ctx, msg, args)
	case "hentai":
		b.handleRandomFeed(ctx, msg)
	case "ssweb":
		b.handleScreenshot(ctx, msg, args)
	case "qr":
		b.handleQR(ctx, msg, args)
	case "sc":
		b.handleFileSearch(ctx, msg, args)
	case "profil":
		b.handleProfile(ctx, msg, args)
	case "createpanel":
		b.handleCreatePanel(msg)
	default:
		b.sendText(msg.Chat.ID, "🤷 Unknown command. Try /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, fmt.Sprintf(
		"👋 Hey! I'm <b>%s</b>.\n\nTalk to me and I'll answer with AI. Send a photo, video or document and I'll mirror it to the file host. /help lists everything else.",
		html.EscapeString(b.cfg.BotName)))
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) {
	b.sendText(msg.Chat.ID, fmt.Sprintf(`🤖 <b>%s commands</b>

💬 <b>Chat</b>
/start – greet the bot
/clear – wipe our conversation
/stats – bot statistics
/bot – control panel (operator)

📥 <b>Downloads</b>
/ig &lt;url&gt; – mirror an Instagram post
/tiktok &lt;url&gt; – TikTok video or slides
/yt &lt;url&gt; – YouTube video
/play &lt;query&gt; – find a song, get the audio
/pin &lt;query&gt; – find a picture
/hentai – random video from the feed

🧰 <b>Tools</b>
/ssweb &lt;url&gt; [desktop|mobile|tablet] – website screenshot
/qr &lt;text&gt; – render a QR code
/sc &lt;query&gt; – search files
/profil &lt;user&gt; – profile lookup
/createpanel – provision a hosting panel (operator)

📎 Any photo, video, audio, voice note or document you send is mirrored to the file host.`,
		html.EscapeString(b.cfg.BotName)))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	u := b.chat.Usage()
	b.sendText(msg.Chat.ID, fmt.Sprintf(`📊 <b>%s stats</b>

👥 known users: %d
💬 conversations: %d
📨 stored messages: %d
🤖 AI chat: %s
📤 uploads: %s
🧾 panel accounts: %d
🔢 completions: %d ok / %d failed
⏱ uptime: %s`,
		html.EscapeString(b.cfg.BotName),
		b.users.Count(), b.history.ChatCount(), b.history.MessageCount(),
		statusWord(b.aiToggle.Enabled()), statusWord(b.uploadToggle.Enabled()),
		b.ledgerCount(), u.Completions, u.Failures,
		time.Since(b.startedAt).Round(time.Second)))
}

func (b *Bot) handleClear(msg *tgbotapi.Message) {
	b.chat.ResetConversation(msg.Chat.ID)
	b.sendText(msg.Chat.ID, "🧹 Conversation cleared. Fresh start!")
}

func (b *Bot) handleControlPanel(msg *tgbotapi.Message) {
	if !b.isOperator(msg.From.ID) {
		b.sendText(msg.Chat.ID, "🔒 The control panel belongs to the operator.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, b.panelText())
	out.ParseMode = b.cfg.MessageParseMode
	out.ReplyMarkup = b.panelKeyboard()
	b.sendRich(out)
}

func (b *Bot) handleImageSearch(ctx context.Context, msg *tgbotapi.Message, query string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if query == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /pin <query>")
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	link, err := b.media.SearchImage(vctx, query)
	if err != nil {
		log.Printf("❌ image search %q: %v", query, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't find a picture for that.")
		return
	}
	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(link))
	photo.Caption = query
	b.push(photo)
}

func (b *Bot) handleTikTok(ctx context.Context, msg *tgbotapi.Message, postURL string) {
	source := mediaapi.SourceTikTok
	if strings.Contains(postURL, "/photo/") {
		source = mediaapi.SourceTikTokSlides
	}
	b.handleSocial(ctx, msg, source, postURL, "/tiktok <tiktok url>")
}

func (b *Bot) handleSocial(ctx context.Context, msg *tgbotapi.Message, source mediaapi.Source, postURL, usage string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if postURL == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: "+usage)
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	items, err := b.media.Download(vctx, source, postURL)
	if err != nil {
		log.Printf("❌ %s download %q: %v", source, postURL, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't fetch that post.")
		return
	}
	b.sendMediaItems(msg.Chat.ID, items)
}

const maxMediaItems = 10

func (b *Bot) sendMediaItems(chatID int64, items []mediaapi.Media) {
	if len(items) > maxMediaItems {
		items = items[:maxMediaItems]
	}
	for _, m := range items {
		switch m.Type {
		case "video":
			b.push(tgbotapi.NewVideo(chatID, tgbotapi.FileURL(m.URL)))
		case "audio":
			b.push(tgbotapi.NewAudio(chatID, tgbotapi.FileURL(m.URL)))
		default:
			b.push(tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(m.URL)))
		}
	}
}

func (b *Bot) handleYouTube(ctx context.Context, msg *tgbotapi.Message, videoURL string) {
	if b.tasks == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if videoURL == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /yt <youtube url>")
		return
	}
	b.sendPlain(msg.Chat.ID, "⏳ Extracting the video, this can take a minute…")

	ex, err := b.tasks.Video(ctx, videoURL)
	if err != nil {
		log.Printf("❌ yt extract %q: %v", videoURL, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't extract that video.")
		return
	}
	video := tgbotapi.NewVideo(msg.Chat.ID, tgbotapi.FileURL(ex.URL))
	video.Caption = ex.Title
	b.push(video)
}

func (b *Bot) handlePlay(ctx context.Context, msg *tgbotapi.Message, query string) {
	if b.tasks == nil || b.search == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if query == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /play <song or video name>")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	hit, err := b.search.FirstVideo(sctx, query)
	if err != nil {
		log.Printf("❌ play search %q: %v", query, err)
		b.sendText(msg.Chat.ID, "😔 Nothing found for that query.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("🎵 <b>%s</b>\n👤 %s\n⏳ Fetching the audio…",
		html.EscapeString(hit.Title), html.EscapeString(hit.Channel)))

	ex, err := b.tasks.Audio(ctx, hit.URL)
	if err != nil {
		log.Printf("❌ play extract %q: %v", hit.URL, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't fetch the audio for that one.")
		return
	}
	audio := tgbotapi.NewAudio(msg.Chat.ID, tgbotapi.FileURL(ex.URL))
	audio.Caption = hit.Title
	b.push(audio)
}

func (b *Bot) handleRandomFeed(ctx context.Context, msg *tgbotapi.Message) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	link, err := b.media.RandomVideo(vctx)
	if err != nil {
		log.Printf("❌ random feed: %v", err)
		b.sendText(msg.Chat.ID, "😔 The feed is empty right now.")
		return
	}
	b.push(tgbotapi.NewVideo(msg.Chat.ID, tgbotapi.FileURL(link)))
}

func (b *Bot) handleScreenshot(ctx context.Context, msg *tgbotapi.Message, args string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /ssweb <url> [desktop|mobile|tablet]")
		return
	}
	siteURL := fields[0]
	device := "desktop"
	if len(fields) > 1 {
		device = strings.ToLower(fields[1])
	}

	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	link, err := b.media.Screenshot(vctx, siteURL, device)
	if err != nil {
		if strings.Contains(err.Error(), "unknown device") {
			b.sendText(msg.Chat.ID, "ℹ️ Usage: /ssweb <url> [desktop|mobile|tablet]")
			return
		}
		log.Printf("❌ screenshot %q: %v", siteURL, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't capture that site.")
		return
	}
	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(link))
	photo.Caption = siteURL
	b.push(photo)
}

func (b *Bot) handleQR(ctx context.Context, msg *tgbotapi.Message, text string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if text == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /qr <text>")
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	link, err := b.media.QR(vctx, text)
	if err != nil {
		log.Printf("❌ qr render: %v", err)
		b.sendText(msg.Chat.ID, "😔 Couldn't render that QR code.")
		return
	}
	b.push(tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(link)))
}

func (b *Bot) handleFileSearch(ctx context.Context, msg *tgbotapi.Message, query string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if query == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /sc <query>")
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	hits, err := b.media.SearchFiles(vctx, query)
	if err != nil {
		log.Printf("❌ file search %q: %v", query, err)
		b.sendText(msg.Chat.ID, "😔 File search is not answering.")
		return
	}
	if len(hits) == 0 {
		b.sendText(msg.Chat.ID, "🔍 Nothing found.")
		return
	}
	if len(hits) > maxMediaItems {
		hits = hits[:maxMediaItems]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 <b>Results for %s</b>\n", html.EscapeString(query))
	for i, h := range hits {
		fmt.Fprintf(&sb, "\n%d. <a href=\"%s\">%s</a>", i+1, h.URL, html.EscapeString(h.Title))
		if h.Size != "" {
			fmt.Fprintf(&sb, " (%s)", html.EscapeString(h.Size))
		}
	}
	b.sendText(msg.Chat.ID, sb.String())
}

func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message, username string) {
	if b.media == nil {
		b.sendText(msg.Chat.ID, vendorMissingNotice)
		return
	}
	if username == "" {
		b.sendText(msg.Chat.ID, "ℹ️ Usage: /profil <username>")
		return
	}
	vctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	p, err := b.media.Profile(vctx, strings.TrimPrefix(username, "@"))
	if err != nil {
		log.Printf("❌ profile %q: %v", username, err)
		b.sendText(msg.Chat.ID, "😔 Couldn't find that profile.")
		return
	}

	text := fmt.Sprintf("👤 <b>%s</b> (@%s)\n📝 %s\n👥 %d followers · %d following · %d posts",
		html.EscapeString(p.FullName), html.EscapeString(p.Username),
		html.EscapeString(p.Bio), p.Followers, p.Following, p.Posts)
	if p.Avatar != "" {
		photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileURL(p.Avatar))
		photo.Caption = text
		photo.ParseMode = b.cfg.MessageParseMode
		b.push(photo)
		return
	}
	b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleCreatePanel(msg *tgbotapi.Message) {
	if !b.isOperator(msg.From.ID) {
		b.sendText(msg.Chat.ID, "🔒 Panel provisioning belongs to the operator.")
		return
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, "🛠 Pick a panel plan:")
	out.ReplyMarkup = planKeyboard()
	b.sendRich(out)
}

func statusWord(on bool) string {
	if on {
		return "enabled ✅"
	}
	return "disabled ⛔"
}
